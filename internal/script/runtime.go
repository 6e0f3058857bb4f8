package script

import (
	"fmt"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/scriptbind/bridge/internal/command"
	"github.com/scriptbind/bridge/internal/execution"
	"github.com/scriptbind/bridge/internal/infrastructure/config"
)

// Options configures a script runtime.
type Options struct {
	// Sequence is the caller-chosen context sequence number.
	Sequence uint32
	// Applier is the host-side command application path; it may also be
	// installed later through Context().SetApplier.
	Applier command.ApplyFunc
	// OnUncaughtError receives errors with no script caller to throw into.
	OnUncaughtError func(error)
	Config          config.ScriptConfig
	Logger          *zap.Logger
	// Registry defaults to the process-wide context registry.
	Registry *execution.Registry
}

// Runtime owns one goja VM pinned to a loop goroutine and the execution
// context registered for it.
type Runtime struct {
	vm       *goja.Runtime
	loop     *Loop
	ctx      *execution.Context
	registry *execution.Registry
	log      *zap.Logger
}

// NewRuntime creates a runtime, registers its execution context, and
// starts the script thread.
func NewRuntime(opts Options) *Runtime {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	registry := opts.Registry
	if registry == nil {
		registry = execution.Default()
	}

	vm := goja.New()
	if opts.Config.MaxCallStack > 0 {
		vm.SetMaxCallStackSize(opts.Config.MaxCallStack)
	}

	loop := newLoop(opts.Config.TaskBuffer, log)
	ctx := registry.Create(opts.Sequence, execution.Options{
		Tasks:           loop,
		Applier:         opts.Applier,
		OnUncaughtError: opts.OnUncaughtError,
		Logger:          log,
	})

	rt := &Runtime{vm: vm, loop: loop, ctx: ctx, registry: registry, log: log}
	go loop.run()
	return rt
}

// Context returns the runtime's execution context.
func (rt *Runtime) Context() *execution.Context { return rt.ctx }

// RunScript evaluates source on the script thread and blocks for its
// result.
func (rt *Runtime) RunScript(name, source string) (goja.Value, error) {
	var (
		result goja.Value
		err    error
	)
	ok := rt.loop.Do(func() {
		result, err = rt.vm.RunScript(name, source)
	})
	if !ok {
		return nil, fmt.Errorf("run script %s: runtime closed", name)
	}
	return result, err
}

// Do runs fn on the script thread with the VM and blocks until it
// returns.
func (rt *Runtime) Do(fn func(vm *goja.Runtime)) error {
	if ok := rt.loop.Do(func() { fn(rt.vm) }); !ok {
		return fmt.Errorf("runtime closed")
	}
	return nil
}

// SetGlobal binds a value into the VM's global scope.
func (rt *Runtime) SetGlobal(name string, v goja.Value) error {
	return rt.Do(func(vm *goja.Runtime) {
		vm.Set(name, v)
	})
}

// drainJobs runs queued promise reaction jobs. goja only drains its job
// queue when the VM is entered, so settling a promise from native code
// needs an explicit VM entry afterwards. Script thread only.
func (rt *Runtime) drainJobs() {
	_, _ = rt.vm.RunString("undefined")
}

// Close tears the execution context down and stops the script thread.
// Pending asynchronous completions for this context become no-ops.
func (rt *Runtime) Close() {
	rt.registry.Teardown(rt.ctx.ID())
	rt.loop.Stop()
}
