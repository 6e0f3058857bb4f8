package binding

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/scriptbind/bridge/internal/command"
	"github.com/scriptbind/bridge/internal/exception"
	"github.com/scriptbind/bridge/internal/execution"
	"github.com/scriptbind/bridge/internal/infrastructure/monitoring"
	"github.com/scriptbind/bridge/internal/shared/id"
	"github.com/scriptbind/bridge/internal/value"
)

// HostCallHandler handles an invocation the host directed at a script
// object, returning the value written into the host's return slot.
type HostCallHandler func(method value.Value, args []value.Value) value.Value

// Object is the script-engine-facing facade over one Target. All script
// property reads, writes, method calls, and enumerations of a bound proxy
// funnel through it.
type Object struct {
	ctx    *execution.Context
	target *Target
	log    *zap.Logger

	disposed atomic.Bool

	mu         sync.RWMutex
	onHostCall HostCallHandler
}

// New creates a script-initiated binding: a fresh Target owned by the
// returned Object, with the script call path installed. The host side
// binds its path when it adopts the target.
func New(ctx *execution.Context, hostID uint64, log *zap.Logger) *Object {
	t := NewTarget(uint64(id.NewHandle()), hostID)
	return wrap(ctx, t, log)
}

// Wrap creates a host-initiated binding around a Target the host already
// constructed and bound its side of.
func Wrap(ctx *execution.Context, t *Target, log *zap.Logger) *Object {
	return wrap(ctx, t, log)
}

func wrap(ctx *execution.Context, t *Target, log *zap.Logger) *Object {
	if log == nil {
		log = zap.NewNop()
	}
	o := &Object{
		ctx:    ctx,
		target: t,
		log:    log.With(zap.Stringer("context", ctx.ID()), zap.Uint64("target", t.HostID())),
	}
	// The pairing that creates the object installs the script path; a
	// second wrap of the same target is a programmer error surfaced by
	// BindScriptSide.
	if err := t.BindScriptSide(o); err != nil {
		panic(err.Error())
	}
	return o
}

// Context returns the owning execution context.
func (o *Object) Context() *execution.Context { return o.ctx }

// Target returns the wrapped pairing.
func (o *Object) Target() *Target { return o.target }

// SetHostCallHandler installs the handler backing host→script calls.
func (o *Object) SetHostCallHandler(h HostCallHandler) {
	o.mu.Lock()
	o.onHostCall = h
	o.mu.Unlock()
}

// CallFromHost implements the script side of the target's double
// dispatch.
func (o *Object) CallFromHost(t *Target, ret *value.Value, method value.Value, args []value.Value) {
	o.mu.RLock()
	h := o.onHostCall
	o.mu.RUnlock()

	result := value.NewNull()
	if h != nil {
		result = h(method, args)
	}
	if ret != nil {
		*ret = result
	}
}

// InvokeBindingMethod flushes the context's command queue, then dispatches
// one invocation through the host call path. The method identifier is a
// tagged value: a string for named methods, an int64 opcode for protocol
// operations. The exception state must be checked before the returned
// value is used.
func (o *Object) InvokeBindingMethod(method value.Value, args []value.Value, es *exception.State) value.Value {
	o.ctx.FlushPendingCommands()

	m := monitoring.Default()
	label := methodLabel(method)

	host := o.target.HostSide()
	if host == nil {
		m.Invocations.WithLabelValues(label, "protocol_error").Inc()
		es.Throw(exception.InternalError,
			"failed to invoke binding method: host call path not initialized")
		return value.NewNull()
	}

	trace := id.NewTraceID()
	o.log.Debug("invoking binding method",
		zap.String("trace", trace),
		zap.Stringer("method", method),
		zap.Int("argc", len(args)),
	)

	result, err := host.CallFromScript(o.target, method, args)
	if err != nil {
		m.Invocations.WithLabelValues(label, "host_error").Inc()
		o.log.Debug("host reported error", zap.String("trace", trace), zap.Error(err))
		es.Throw(exception.InternalError, err.Error())
		return value.NewNull()
	}

	m.Invocations.WithLabelValues(label, "ok").Inc()
	return result
}

// InvokeOperation dispatches one of the closed-set protocol opcodes.
func (o *Object) InvokeOperation(op command.Opcode, args []value.Value, es *exception.State) value.Value {
	return o.InvokeBindingMethod(value.NewInt64(int64(op)), args, es)
}

// GetProperty reads a named property from the host implementation.
func (o *Object) GetProperty(name string, es *exception.State) value.Value {
	args := []value.Value{value.NewString(name)}
	return o.InvokeOperation(command.OpGetProperty, args, es)
}

// SetProperty writes a named property on the host implementation.
func (o *Object) SetProperty(name string, v value.Value, es *exception.State) value.Value {
	args := []value.Value{value.NewString(name), v}
	return o.InvokeOperation(command.OpSetProperty, args, es)
}

// InvokeMethod calls a named host method, forwarding args verbatim after
// the method identifier.
func (o *Object) InvokeMethod(method string, args []value.Value, es *exception.State) value.Value {
	return o.InvokeBindingMethod(value.NewString(method), args, es)
}

// GetAllPropertyNames enumerates the host implementation's properties as
// a list of strings.
func (o *Object) GetAllPropertyNames(es *exception.State) value.Value {
	return o.InvokeOperation(command.OpGetAllPropertyNames, nil, es)
}

// RegisterEventListener records a listener registration for this target.
// Carried through the command queue, not dispatched synchronously.
func (o *Object) RegisterEventListener(eventType string, flags uint32) {
	o.ctx.Enqueue(o.target.HostID(), command.OpAddEventListenerRegistration,
		[]value.Value{value.NewString(eventType)}, flags)
}

// Dispose enqueues the target's disposal command. It never invokes the
// host synchronously and never fails; a second call is a no-op.
func (o *Object) Dispose() {
	if !o.disposed.CompareAndSwap(false, true) {
		return
	}
	o.ctx.Enqueue(o.target.HostID(), command.OpDispose, nil, 0)
	o.log.Debug("binding object disposed")
}

func methodLabel(method value.Value) string {
	switch method.Tag() {
	case value.TagString:
		return method.AsString()
	case value.TagInt64:
		return command.Opcode(method.AsInt64()).String()
	default:
		return method.Tag().String()
	}
}
