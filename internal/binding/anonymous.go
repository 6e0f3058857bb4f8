package binding

import (
	"fmt"

	"github.com/scriptbind/bridge/internal/command"
	"github.com/scriptbind/bridge/internal/exception"
	"github.com/scriptbind/bridge/internal/value"
)

// AnonymousFunctionCall forwards a script-visible callable that is not a
// named property into the host and blocks for its result. The call id
// identifies which callable the host handed out.
//
// On a host failure the result is discarded: the error is routed to the
// owning context's uncaught-error path and ok is false, which the script
// layer surfaces as an undefined value.
func (o *Object) AnonymousFunctionCall(callID int64, args []value.Value) (result value.Value, ok bool) {
	argv := make([]value.Value, 0, len(args)+1)
	argv = append(argv, value.NewInt64(callID))
	argv = append(argv, args...)

	var es exception.State
	result = o.InvokeOperation(command.OpAnonymousFunctionCall, argv, &es)
	if es.HasException() {
		o.ctx.ReportUncaughtError(fmt.Errorf("anonymous function call %d: %w", callID, es.Err()))
		return value.NewNull(), false
	}
	return result, true
}

// AsyncAnonymousFunctionCall forwards a callable into the host without
// blocking. A promise bridge entry is allocated before dispatch; the host
// completes it later through DeliverCompletion, identified by the entry
// handle and completion handle carried in the argument frame.
//
// The caller supplies the resolver of the promise it has already handed
// to script code. This call returns as soon as the host accepts the
// dispatch; the promise settles out-of-band on the script thread.
func (o *Object) AsyncAnonymousFunctionCall(callID int64, resolver PromiseResolver, args []value.Value, es *exception.State) value.Value {
	entry := allocPromiseEntry(o.ctx, resolver)

	argv := make([]value.Value, 0, len(args)+4)
	argv = append(argv,
		value.NewInt64(callID),
		value.NewInt64(int64(o.ctx.ID().Uint64())),
		value.NewPointer(entry),
		value.NewPointer(CompletionHandle()),
	)
	argv = append(argv, args...)

	return o.InvokeOperation(command.OpAsyncAnonymousFunctionCall, argv, es)
}
