package execution

import (
	"sync"

	"go.uber.org/zap"

	"github.com/scriptbind/bridge/internal/command"
	"github.com/scriptbind/bridge/internal/shared/id"
)

// Registry tracks live contexts by identifier. One registry exists per
// process. A context is registered before any binding call is issued for
// it and removed only on teardown; iteration is never required to be safe
// concurrently with mutation.
type Registry struct {
	mu       sync.RWMutex
	contexts map[id.ContextID]*Context
	commands *command.Registry
	log      *zap.Logger
}

// NewRegistry creates a registry backed by the given command registry.
// Most callers want Default.
func NewRegistry(commands *command.Registry, log *zap.Logger) *Registry {
	if commands == nil {
		commands = command.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		contexts: make(map[id.ContextID]*Context),
		commands: commands,
		log:      log,
	}
}

var (
	defaultRegistry *Registry
	registryOnce    sync.Once
)

// Default returns the process-wide context registry.
func Default() *Registry {
	registryOnce.Do(func() {
		defaultRegistry = NewRegistry(command.Default(), nil)
	})
	return defaultRegistry
}

// Create allocates a context for the given sequence number, registers its
// command queue, and records it as live. Called when a script execution
// environment starts.
func (r *Registry) Create(sequence uint32, opts Options) *Context {
	ctxID := id.NewContextID(sequence)
	queue := r.commands.Register(ctxID)
	ctx := newContext(ctxID, queue, opts)

	r.mu.Lock()
	r.contexts[ctxID] = ctx
	r.mu.Unlock()

	r.log.Info("context created", zap.Stringer("context", ctxID))
	return ctx
}

// Lookup returns the context for an identifier, if still registered.
func (r *Registry) Lookup(ctxID id.ContextID) (*Context, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctx, ok := r.contexts[ctxID]
	return ctx, ok
}

// Teardown clears the context's liveness flag and removes it and its
// queue from the process registries. Called when the script execution
// environment is destroyed.
func (r *Registry) Teardown(ctxID id.ContextID) {
	r.mu.Lock()
	ctx, ok := r.contexts[ctxID]
	delete(r.contexts, ctxID)
	r.mu.Unlock()

	if !ok {
		return
	}
	ctx.invalidate()
	r.commands.Remove(ctxID)
	r.log.Info("context torn down", zap.Stringer("context", ctxID))
}
