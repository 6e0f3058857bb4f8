// Package execution models script execution contexts and their
// process-wide registry.
//
// A Context pairs one script execution environment's identity with its
// liveness flag and owned command queue. Binding objects and promise
// bridge entries hold the context only by identifier and must go through
// the registry, which rechecks liveness, before acting on it.
package execution

import (
	"sync"

	"go.uber.org/zap"

	"github.com/scriptbind/bridge/internal/command"
	"github.com/scriptbind/bridge/internal/shared/id"
	"github.com/scriptbind/bridge/internal/value"
)

// TaskRunner marshals work onto the script-execution thread. Settling a
// promise is only legal there, so async completions arriving on other
// threads are posted through this interface.
type TaskRunner interface {
	Post(task func())
}

// TaskRunnerFunc adapts a function to the TaskRunner interface.
type TaskRunnerFunc func(task func())

func (f TaskRunnerFunc) Post(task func()) { f(task) }

// Options configures a new context.
type Options struct {
	// Tasks posts work onto the script thread. Required for async calls.
	Tasks TaskRunner
	// Applier is the host-side command application path used by Flush.
	Applier command.ApplyFunc
	// OnUncaughtError receives errors from callbacks that have no caller
	// left to throw into.
	OnUncaughtError func(error)
	Logger          *zap.Logger
}

// Context is one script execution environment.
type Context struct {
	id    id.ContextID
	queue *command.Queue
	log   *zap.Logger

	mu         sync.RWMutex
	alive      bool
	tasks      TaskRunner
	applier    command.ApplyFunc
	onUncaught func(error)
}

func newContext(ctxID id.ContextID, queue *command.Queue, opts Options) *Context {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Context{
		id:         ctxID,
		queue:      queue,
		log:        log.With(zap.Stringer("context", ctxID)),
		alive:      true,
		tasks:      opts.Tasks,
		applier:    opts.Applier,
		onUncaught: opts.OnUncaughtError,
	}
}

// ID returns the context identifier, generation included.
func (c *Context) ID() id.ContextID { return c.id }

// IsValid reports the liveness flag.
func (c *Context) IsValid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.alive
}

// Queue returns the context's command queue.
func (c *Context) Queue() *command.Queue { return c.queue }

// SetApplier installs the host-side command application path. Wiring may
// create the context before the host attaches.
func (c *Context) SetApplier(fn command.ApplyFunc) {
	c.mu.Lock()
	c.applier = fn
	c.mu.Unlock()
}

// SetTasks installs the script-thread task runner.
func (c *Context) SetTasks(t TaskRunner) {
	c.mu.Lock()
	c.tasks = t
	c.mu.Unlock()
}

// FlushPendingCommands blocks until every command queued for this context
// has been applied on the host side.
func (c *Context) FlushPendingCommands() {
	c.mu.RLock()
	fn := c.applier
	c.mu.RUnlock()
	c.queue.Flush(fn)
}

// Enqueue appends a mutation command for a target owned by this context.
func (c *Context) Enqueue(targetID uint64, op command.Opcode, args []value.Value, flags uint32) {
	c.queue.Append(command.Command{Opcode: op, TargetID: targetID, Args: args, Flags: flags})
}

// PostTask marshals task onto the script thread. Tasks posted to an
// invalidated context are dropped.
func (c *Context) PostTask(task func()) {
	c.mu.RLock()
	alive, tasks := c.alive, c.tasks
	c.mu.RUnlock()

	if !alive || tasks == nil {
		c.log.Debug("dropping task posted to dead context")
		return
	}
	tasks.Post(task)
}

// ReportUncaughtError routes an error that has no script caller left to
// receive it.
func (c *Context) ReportUncaughtError(err error) {
	c.mu.RLock()
	sink := c.onUncaught
	c.mu.RUnlock()

	if sink != nil {
		sink(err)
		return
	}
	c.log.Error("uncaught binding error", zap.Error(err))
}

// invalidate clears the liveness flag. Registry teardown only.
func (c *Context) invalidate() {
	c.mu.Lock()
	c.alive = false
	c.mu.Unlock()
}
