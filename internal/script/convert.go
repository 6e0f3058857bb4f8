package script

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/scriptbind/bridge/internal/value"
)

// toGoja converts a tagged value into its script representation.
func toGoja(vm *goja.Runtime, v value.Value) goja.Value {
	if v.IsNull() {
		return goja.Null()
	}
	return vm.ToValue(value.Decode(v))
}

// fromGoja converts a script value into a tagged value. Plain objects
// cross the boundary as JSON payloads.
func fromGoja(gv goja.Value) (value.Value, error) {
	if gv == nil || goja.IsUndefined(gv) || goja.IsNull(gv) {
		return value.NewNull(), nil
	}

	switch exported := gv.Export().(type) {
	case bool:
		return value.NewBool(exported), nil
	case int64:
		return value.NewInt64(exported), nil
	case float64:
		return value.NewDouble(exported), nil
	case string:
		return value.NewString(exported), nil
	case []any:
		items := make([]value.Value, 0, len(exported))
		for i, item := range exported {
			enc, err := value.Encode(item)
			if err != nil {
				return value.NewNull(), fmt.Errorf("convert array element %d: %w", i, err)
			}
			items = append(items, enc)
		}
		return value.NewList(items...), nil
	default:
		return value.NewJSON(exported)
	}
}

// fromGojaArgs converts a call's argument list.
func fromGojaArgs(call goja.FunctionCall) ([]value.Value, error) {
	args := make([]value.Value, 0, len(call.Arguments))
	for i, arg := range call.Arguments {
		v, err := fromGoja(arg)
		if err != nil {
			return nil, fmt.Errorf("convert argument %d: %w", i, err)
		}
		args = append(args, v)
	}
	return args, nil
}
