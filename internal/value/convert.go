package value

import (
	"fmt"

	"github.com/scriptbind/bridge/internal/shared/id"
)

// Encode converts a native Go value into its tagged representation.
// Unsupported types fall back to the JSON tag so structured data can still
// cross the boundary.
func Encode(native any) (Value, error) {
	switch v := native.(type) {
	case nil:
		return NewNull(), nil
	case Value:
		return v, nil
	case bool:
		return NewBool(v), nil
	case int:
		return NewInt64(int64(v)), nil
	case int32:
		return NewInt64(int64(v)), nil
	case int64:
		return NewInt64(v), nil
	case uint32:
		return NewInt64(int64(v)), nil
	case float32:
		return NewDouble(float64(v)), nil
	case float64:
		return NewDouble(v), nil
	case string:
		return NewString(v), nil
	case id.Handle:
		return NewPointer(v), nil
	case []Value:
		return NewList(v...), nil
	case []any:
		items := make([]Value, 0, len(v))
		for i, item := range v {
			enc, err := Encode(item)
			if err != nil {
				return NewNull(), fmt.Errorf("encode list item %d: %w", i, err)
			}
			items = append(items, enc)
		}
		return NewList(items...), nil
	default:
		return NewJSON(v)
	}
}

// Decode converts a tagged value back into a native Go value. The inverse
// of Encode for every supported tag.
//
// An unrecognized tag means the two sides of the boundary disagree on the
// protocol version; that is a programmer error, not a recoverable runtime
// condition, so Decode panics.
func Decode(v Value) any {
	switch v.tag {
	case TagNull:
		return nil
	case TagBool:
		return v.AsBool()
	case TagInt64:
		return v.AsInt64()
	case TagDouble:
		return v.AsDouble()
	case TagString:
		return v.AsString()
	case TagPointer:
		return v.AsPointer()
	case TagList:
		items := make([]any, 0, len(v.list))
		for _, item := range v.list {
			items = append(items, Decode(item))
		}
		return items
	case TagJSON:
		var out any
		if err := v.JSONInto(&out); err != nil {
			panic(fmt.Sprintf("value: corrupt json payload: %v", err))
		}
		return out
	default:
		panic(fmt.Sprintf("value: decode of unrecognized tag %d", uint32(v.tag)))
	}
}
