package binding_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptbind/bridge/internal/binding"
	"github.com/scriptbind/bridge/internal/command"
	"github.com/scriptbind/bridge/internal/exception"
	"github.com/scriptbind/bridge/internal/execution"
	"github.com/scriptbind/bridge/internal/memhost"
	"github.com/scriptbind/bridge/internal/shared/id"
	"github.com/scriptbind/bridge/internal/value"
)

// captureHost records the argument frame of every invocation so tests can
// extract the promise entry handle carried in asynchronous frames.
type captureHost struct {
	mu     sync.Mutex
	frames [][]value.Value
}

func (h *captureHost) CallFromScript(t *binding.Target, method value.Value, args []value.Value) (value.Value, error) {
	h.mu.Lock()
	h.frames = append(h.frames, args)
	h.mu.Unlock()
	return value.NewNull(), nil
}

func (h *captureHost) lastFrame() []value.Value {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames[len(h.frames)-1]
}

// settleRecorder records resolver invocations.
type settleRecorder struct {
	mu       sync.Mutex
	resolved []value.Value
	rejected []error
	settled  chan struct{}
}

func newSettleRecorder() *settleRecorder {
	return &settleRecorder{settled: make(chan struct{}, 4)}
}

func (r *settleRecorder) Resolve(v value.Value) {
	r.mu.Lock()
	r.resolved = append(r.resolved, v)
	r.mu.Unlock()
	r.settled <- struct{}{}
}

func (r *settleRecorder) Reject(err error) {
	r.mu.Lock()
	r.rejected = append(r.rejected, err)
	r.mu.Unlock()
	r.settled <- struct{}{}
}

func (r *settleRecorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.resolved), len(r.rejected)
}

func (r *settleRecorder) waitSettled(t *testing.T) {
	t.Helper()
	select {
	case <-r.settled:
	case <-time.After(2 * time.Second):
		t.Fatal("promise never settled")
	}
}

type asyncFixture struct {
	contexts *execution.Registry
	ctx      *execution.Context
	obj      *binding.Object
	host     *captureHost
	recorder *settleRecorder
}

func newAsyncFixture(t *testing.T) *asyncFixture {
	t.Helper()

	commands := command.NewRegistry(nil)
	contexts := execution.NewRegistry(commands, nil)
	ctx := contexts.Create(1, execution.Options{
		Tasks: execution.TaskRunnerFunc(func(task func()) { task() }),
	})
	t.Cleanup(func() { contexts.Teardown(ctx.ID()) })

	host := &captureHost{}
	obj := binding.New(ctx, 7, nil)
	require.NoError(t, obj.Target().BindHostSide(host))

	return &asyncFixture{
		contexts: contexts,
		ctx:      ctx,
		obj:      obj,
		host:     host,
		recorder: newSettleRecorder(),
	}
}

// dispatch issues one async call and returns the entry handle from the
// captured frame.
func (f *asyncFixture) dispatch(t *testing.T, callID int64) id.Handle {
	t.Helper()

	var es exception.State
	f.obj.AsyncAnonymousFunctionCall(callID, f.recorder, nil, &es)
	require.False(t, es.HasException())

	frame := f.host.lastFrame()
	require.GreaterOrEqual(t, len(frame), 4)
	assert.Equal(t, callID, frame[0].AsInt64())
	assert.Equal(t, int64(f.ctx.ID().Uint64()), frame[1].AsInt64())
	assert.Equal(t, binding.CompletionHandle(), frame[3].AsPointer())
	return frame[2].AsPointer()
}

func TestAsyncCompletionResolves(t *testing.T) {
	f := newAsyncFixture(t)
	base := binding.PendingPromiseCount()
	entry := f.dispatch(t, 1)
	require.Equal(t, base+1, binding.PendingPromiseCount())

	result := value.NewString("payload")
	binding.DeliverCompletion(entry, &result, f.ctx.ID(), "")
	f.recorder.waitSettled(t)

	resolved, rejected := f.recorder.counts()
	assert.Equal(t, 1, resolved)
	assert.Equal(t, 0, rejected)
	assert.Equal(t, "payload", f.recorder.resolved[0].AsString())
	assert.Equal(t, base, binding.PendingPromiseCount())
}

func TestAsyncCompletionRejectsWithTypeError(t *testing.T) {
	f := newAsyncFixture(t)
	entry := f.dispatch(t, 2)

	binding.DeliverCompletion(entry, nil, f.ctx.ID(), "fetch refused")
	f.recorder.waitSettled(t)

	resolved, rejected := f.recorder.counts()
	assert.Equal(t, 0, resolved)
	require.Equal(t, 1, rejected)

	var bridgeErr *exception.Error
	require.ErrorAs(t, f.recorder.rejected[0], &bridgeErr)
	assert.Equal(t, exception.TypeError, bridgeErr.Kind)
	assert.Equal(t, "fetch refused", bridgeErr.Message)
}

func TestAsyncIdentityMismatchNeverSettles(t *testing.T) {
	f := newAsyncFixture(t)
	base := binding.PendingPromiseCount()
	entry := f.dispatch(t, 3)

	// Same sequence number, different generation: a reused context id
	// from a later context must not be mistaken for the original.
	impostor := id.NewContextID(f.ctx.ID().Sequence())
	result := value.NewString("stale")
	binding.DeliverCompletion(entry, &result, impostor, "")

	resolved, rejected := f.recorder.counts()
	assert.Equal(t, 0, resolved)
	assert.Equal(t, 0, rejected)

	// The entry is deliberately never released on this path; the promise
	// stays pending forever.
	assert.Equal(t, base+1, binding.PendingPromiseCount())
}

func TestAsyncDeadContextNeverSettles(t *testing.T) {
	f := newAsyncFixture(t)
	base := binding.PendingPromiseCount()
	entry := f.dispatch(t, 4)

	f.contexts.Teardown(f.ctx.ID())
	result := value.NewString("late")
	binding.DeliverCompletion(entry, &result, f.ctx.ID(), "")

	resolved, rejected := f.recorder.counts()
	assert.Equal(t, 0, resolved)
	assert.Equal(t, 0, rejected)
	assert.Equal(t, base+1, binding.PendingPromiseCount())
}

func TestAsyncCompletionDeliveredExactlyOnce(t *testing.T) {
	f := newAsyncFixture(t)
	entry := f.dispatch(t, 5)

	result := value.NewString("first")
	binding.DeliverCompletion(entry, &result, f.ctx.ID(), "")
	f.recorder.waitSettled(t)

	// A duplicate delivery finds no entry and is discarded.
	dup := value.NewString("second")
	binding.DeliverCompletion(entry, &dup, f.ctx.ID(), "")

	resolved, _ := f.recorder.counts()
	assert.Equal(t, 1, resolved)
	assert.Equal(t, "first", f.recorder.resolved[0].AsString())
}

func TestAsyncCompletionFromWorkerGoroutine(t *testing.T) {
	commands := command.NewRegistry(nil)
	contexts := execution.NewRegistry(commands, nil)
	host := memhost.New(commands, nil)

	// Tasks are recorded so the test can assert the settle ran through
	// the context's task runner, not on the worker.
	var taskMu sync.Mutex
	taskCount := 0
	ctx := contexts.Create(1, execution.Options{
		Applier: host.Applier(),
		Tasks: execution.TaskRunnerFunc(func(task func()) {
			taskMu.Lock()
			taskCount++
			taskMu.Unlock()
			task()
		}),
	})
	t.Cleanup(func() { contexts.Teardown(ctx.ID()) })

	obj := binding.New(ctx, 7, nil)
	require.NoError(t, host.Adopt(ctx, obj.Target()))
	host.RegisterAsyncCall(6, func(args []value.Value) (value.Value, error) {
		return value.NewInt64(args[0].AsInt64() + 1), nil
	})

	recorder := newSettleRecorder()
	var es exception.State
	obj.AsyncAnonymousFunctionCall(6, recorder, []value.Value{value.NewInt64(41)}, &es)
	require.False(t, es.HasException())

	recorder.waitSettled(t)
	require.Len(t, recorder.resolved, 1)
	assert.Equal(t, int64(42), recorder.resolved[0].AsInt64())

	taskMu.Lock()
	defer taskMu.Unlock()
	assert.Equal(t, 1, taskCount)
}
