package command

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/scriptbind/bridge/internal/shared/id"
	"github.com/scriptbind/bridge/internal/value"
)

// Registry maps context identifiers to their command queues. One registry
// exists per process: queues are registered before the first command for
// their context is issued and removed only when the owning context is torn
// down.
type Registry struct {
	mu     sync.RWMutex
	queues map[id.ContextID]*Queue
	log    *zap.Logger
}

// NewRegistry creates an empty registry. Most callers want Default.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{queues: make(map[id.ContextID]*Queue), log: log}
}

var (
	defaultRegistry *Registry
	registryOnce    sync.Once
)

// Default returns the process-wide queue registry.
func Default() *Registry {
	registryOnce.Do(func() {
		defaultRegistry = NewRegistry(nil)
	})
	return defaultRegistry
}

// Register creates and records the queue for a context. Registering the
// same context twice returns the existing queue.
func (r *Registry) Register(ctxID id.ContextID) *Queue {
	r.mu.Lock()
	defer r.mu.Unlock()
	if q, ok := r.queues[ctxID]; ok {
		return q
	}
	q := NewQueue(r.log)
	r.queues[ctxID] = q
	return q
}

// Lookup returns the queue for a context, if registered.
func (r *Registry) Lookup(ctxID id.ContextID) (*Queue, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.queues[ctxID]
	return q, ok
}

// Remove drops a context's queue. Pending commands are discarded with a
// warning; the owning context is gone, so there is no host state left for
// them to mutate.
func (r *Registry) Remove(ctxID id.ContextID) {
	r.mu.Lock()
	q, ok := r.queues[ctxID]
	delete(r.queues, ctxID)
	r.mu.Unlock()

	if ok && q.Len() > 0 {
		r.log.Warn("discarding pending commands for torn-down context",
			zap.Stringer("context", ctxID),
			zap.Int("pending", q.Len()),
		)
	}
}

// RegisterCommand appends a mutation command to the queue of the given
// context. This is the entry point consumed by binding implementations.
func (r *Registry) RegisterCommand(ctxID id.ContextID, targetID uint64, op Opcode, args []value.Value, flags uint32) error {
	q, ok := r.Lookup(ctxID)
	if !ok {
		return fmt.Errorf("register command %s: unknown context %s", op, ctxID)
	}
	q.Append(Command{Opcode: op, TargetID: targetID, Args: args, Flags: flags})
	return nil
}
