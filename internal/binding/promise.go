package binding

import (
	"sync"

	"github.com/scriptbind/bridge/internal/exception"
	"github.com/scriptbind/bridge/internal/execution"
	"github.com/scriptbind/bridge/internal/infrastructure/monitoring"
	"github.com/scriptbind/bridge/internal/shared/id"
	"github.com/scriptbind/bridge/internal/value"
)

// PromiseResolver settles the script-side promise of one asynchronous
// call. Implementations are exclusively owned by their bridge entry and
// are invoked on the script thread.
type PromiseResolver interface {
	Resolve(result value.Value)
	Reject(err error)
}

// promiseEntry is one pending asynchronous call. It references the owning
// context non-owningly; the identity check on delivery goes through the
// context's full identifier, generation included.
type promiseEntry struct {
	ctx      *execution.Context
	resolver PromiseResolver
}

// promiseTable maps entry handles to pending entries. Handles replace the
// raw pointers the boundary frame historically carried.
var promiseTable = struct {
	mu      sync.Mutex
	entries map[id.Handle]*promiseEntry
}{entries: make(map[id.Handle]*promiseEntry)}

func allocPromiseEntry(ctx *execution.Context, resolver PromiseResolver) id.Handle {
	h := id.NewHandle()
	promiseTable.mu.Lock()
	promiseTable.entries[h] = &promiseEntry{ctx: ctx, resolver: resolver}
	promiseTable.mu.Unlock()
	monitoring.Default().PendingPromises.Inc()
	return h
}

// release removes the entry. Reached only through the resolve/reject
// delivery paths; entries dropped by the liveness or identity checks are
// never released.
func releasePromiseEntry(h id.Handle) (*promiseEntry, bool) {
	promiseTable.mu.Lock()
	e, ok := promiseTable.entries[h]
	delete(promiseTable.entries, h)
	promiseTable.mu.Unlock()
	if ok {
		monitoring.Default().PendingPromises.Dec()
	}
	return e, ok
}

func lookupPromiseEntry(h id.Handle) (*promiseEntry, bool) {
	promiseTable.mu.Lock()
	defer promiseTable.mu.Unlock()
	e, ok := promiseTable.entries[h]
	return e, ok
}

// PendingPromiseCount reports entries awaiting completion, abandoned ones
// included.
func PendingPromiseCount() int {
	promiseTable.mu.Lock()
	defer promiseTable.mu.Unlock()
	return len(promiseTable.entries)
}

var (
	completionHandle id.Handle
	completionOnce   sync.Once
)

// CompletionHandle returns the handle standing in for DeliverCompletion
// in asynchronous argument frames. A host that received it in a frame
// completes the call by invoking DeliverCompletion.
func CompletionHandle() id.Handle {
	completionOnce.Do(func() {
		completionHandle = id.NewHandle()
	})
	return completionHandle
}

// DeliverCompletion is the completion entry point the host invokes, on
// any thread, to settle an asynchronous call.
//
// Delivery protocol, in order:
//  1. Owning context dead → no-op. The entry is intentionally not
//     released; see the package documentation's leak boundary note.
//  2. Context identity mismatch (stale or reused id) → no-op, entry
//     intentionally not released.
//  3. result non-nil → resolve the promise with it.
//  4. errmsg non-empty → reject the promise with a TypeError.
//
// Settling happens on the script thread via the context's task runner;
// the entry is released exactly once, only via paths 3 and 4.
func DeliverCompletion(entry id.Handle, result *value.Value, ctxID id.ContextID, errmsg string) {
	m := monitoring.Default()

	e, ok := lookupPromiseEntry(entry)
	if !ok {
		m.AsyncCompletions.WithLabelValues(monitoring.OutcomeDiscarded).Inc()
		return
	}

	if !e.ctx.IsValid() {
		m.AsyncCompletions.WithLabelValues(monitoring.OutcomeDeadContext).Inc()
		return
	}
	if e.ctx.ID() != ctxID {
		m.AsyncCompletions.WithLabelValues(monitoring.OutcomeIdentityMismatch).Inc()
		return
	}

	switch {
	case result != nil:
		released, ok := releasePromiseEntry(entry)
		if !ok {
			// Lost a concurrent delivery race; the winner settles.
			m.AsyncCompletions.WithLabelValues(monitoring.OutcomeDiscarded).Inc()
			return
		}
		res := *result
		released.ctx.PostTask(func() {
			released.resolver.Resolve(res)
		})
		m.AsyncCompletions.WithLabelValues(monitoring.OutcomeResolved).Inc()
	case errmsg != "":
		released, ok := releasePromiseEntry(entry)
		if !ok {
			m.AsyncCompletions.WithLabelValues(monitoring.OutcomeDiscarded).Inc()
			return
		}
		rejection := &exception.Error{Kind: exception.TypeError, Message: errmsg}
		released.ctx.PostTask(func() {
			released.resolver.Reject(rejection)
		})
		m.AsyncCompletions.WithLabelValues(monitoring.OutcomeRejected).Inc()
	default:
		// Neither result nor error: the host broke the completion
		// contract. Release without settling, as upstream does.
		releasePromiseEntry(entry)
		m.AsyncCompletions.WithLabelValues(monitoring.OutcomeDiscarded).Inc()
	}
}
