// Package memhost provides an in-process host implementation backed by an
// in-memory element store. It implements the host side of the binding
// protocol: synchronous invocations, queued mutation application, and
// asynchronous completions delivered from worker goroutines.
package memhost

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/scriptbind/bridge/internal/binding"
	"github.com/scriptbind/bridge/internal/command"
	"github.com/scriptbind/bridge/internal/execution"
	"github.com/scriptbind/bridge/internal/shared/id"
	"github.com/scriptbind/bridge/internal/value"
)

// SyncFunc backs one registered anonymous callable.
type SyncFunc func(args []value.Value) (value.Value, error)

// MethodFunc backs one named host method.
type MethodFunc func(targetID uint64, args []value.Value) (value.Value, error)

// Host is a map-backed host-side implementation.
type Host struct {
	commands *command.Registry
	log      *zap.Logger

	mu        sync.Mutex
	elements  map[uint64]map[string]value.Value
	listeners map[uint64][]string
	contexts  map[uint64]id.ContextID
	methods   map[string]MethodFunc
	syncCalls map[int64]SyncFunc
	async     map[int64]SyncFunc
	applied   []command.Command
}

// New creates an empty host registering commands with the given registry.
func New(commands *command.Registry, log *zap.Logger) *Host {
	if commands == nil {
		commands = command.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Host{
		commands:  commands,
		log:       log,
		elements:  make(map[uint64]map[string]value.Value),
		listeners: make(map[uint64][]string),
		contexts:  make(map[uint64]id.ContextID),
		methods:   make(map[string]MethodFunc),
		syncCalls: make(map[int64]SyncFunc),
		async:     make(map[int64]SyncFunc),
	}
}

// Adopt binds the host side of a target and seeds its element entry.
func (h *Host) Adopt(ctx *execution.Context, t *binding.Target) error {
	if err := t.BindHostSide(h); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.contexts[t.HostID()] = ctx.ID()
	if _, ok := h.elements[t.HostID()]; !ok {
		h.elements[t.HostID()] = make(map[string]value.Value)
	}
	return nil
}

// RegisterMethod installs a named host method.
func (h *Host) RegisterMethod(name string, fn MethodFunc) {
	h.mu.Lock()
	h.methods[name] = fn
	h.mu.Unlock()
}

// RegisterSyncCall installs an anonymous synchronous callable.
func (h *Host) RegisterSyncCall(callID int64, fn SyncFunc) {
	h.mu.Lock()
	h.syncCalls[callID] = fn
	h.mu.Unlock()
}

// RegisterAsyncCall installs an anonymous asynchronous callable. The
// function runs on a worker goroutine; its result or error is delivered
// through the promise bridge.
func (h *Host) RegisterAsyncCall(callID int64, fn SyncFunc) {
	h.mu.Lock()
	h.async[callID] = fn
	h.mu.Unlock()
}

// CallFromScript implements binding.CallFromScript.
func (h *Host) CallFromScript(t *binding.Target, method value.Value, args []value.Value) (value.Value, error) {
	switch method.Tag() {
	case value.TagInt64:
		return h.dispatchOperation(t, command.Opcode(method.AsInt64()), args)
	case value.TagString:
		return h.dispatchMethod(t, method.AsString(), args)
	default:
		return value.NewNull(), fmt.Errorf("unsupported method discriminant %s", method.Tag())
	}
}

func (h *Host) dispatchOperation(t *binding.Target, op command.Opcode, args []value.Value) (value.Value, error) {
	switch op {
	case command.OpGetProperty:
		return h.getProperty(t.HostID(), args[0].AsString()), nil

	case command.OpSetProperty:
		// Writes are not applied in place: they are recorded as mutation
		// commands and take effect when the queue drains.
		h.mu.Lock()
		ctxID := h.contexts[t.HostID()]
		h.mu.Unlock()
		err := h.commands.RegisterCommand(ctxID, t.HostID(), command.OpSetProperty, args, 0)
		return value.NewNull(), err

	case command.OpGetAllPropertyNames:
		return h.propertyNames(t.HostID()), nil

	case command.OpAnonymousFunctionCall:
		h.mu.Lock()
		fn, ok := h.syncCalls[args[0].AsInt64()]
		h.mu.Unlock()
		if !ok {
			return value.NewNull(), fmt.Errorf("unknown call id %d", args[0].AsInt64())
		}
		return fn(args[1:])

	case command.OpAsyncAnonymousFunctionCall:
		return h.dispatchAsync(args)

	default:
		return value.NewNull(), fmt.Errorf("unsupported operation %s", op)
	}
}

func (h *Host) dispatchMethod(t *binding.Target, name string, args []value.Value) (value.Value, error) {
	h.mu.Lock()
	fn, ok := h.methods[name]
	h.mu.Unlock()
	if !ok {
		return value.NewNull(), fmt.Errorf("unknown method %q", name)
	}
	return fn(t.HostID(), args)
}

// dispatchAsync accepts an asynchronous frame and completes it from a
// worker goroutine. Frame layout: callID, contextID, entry handle,
// completion handle, then the forwarded arguments.
func (h *Host) dispatchAsync(args []value.Value) (value.Value, error) {
	callID := args[0].AsInt64()
	ctxID := id.ContextIDFromUint64(uint64(args[1].AsInt64()))
	entry := args[2].AsPointer()
	forwarded := args[4:]

	h.mu.Lock()
	fn, ok := h.async[callID]
	h.mu.Unlock()
	if !ok {
		return value.NewNull(), fmt.Errorf("unknown async call id %d", callID)
	}

	go func() {
		result, err := fn(forwarded)
		if err != nil {
			binding.DeliverCompletion(entry, nil, ctxID, err.Error())
			return
		}
		binding.DeliverCompletion(entry, &result, ctxID, "")
	}()
	return value.NewNull(), nil
}

// ApplyCommand applies one drained mutation command to the store.
func (h *Host) ApplyCommand(cmd command.Command) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.applied = append(h.applied, cmd)
	switch cmd.Opcode {
	case command.OpSetProperty:
		elem, ok := h.elements[cmd.TargetID]
		if !ok {
			elem = make(map[string]value.Value)
			h.elements[cmd.TargetID] = elem
		}
		elem[cmd.Args[0].AsString()] = cmd.Args[1].Retain()
	case command.OpAddEventListenerRegistration:
		h.listeners[cmd.TargetID] = append(h.listeners[cmd.TargetID], cmd.Args[0].AsString())
	case command.OpDispose:
		delete(h.elements, cmd.TargetID)
		delete(h.listeners, cmd.TargetID)
		delete(h.contexts, cmd.TargetID)
	default:
		h.log.Warn("ignoring unexpected queued command", zap.Stringer("opcode", cmd.Opcode))
	}
}

// Applier returns the command application path for context wiring.
func (h *Host) Applier() command.ApplyFunc {
	return h.ApplyCommand
}

func (h *Host) getProperty(targetID uint64, name string) value.Value {
	h.mu.Lock()
	defer h.mu.Unlock()
	if v, ok := h.elements[targetID][name]; ok {
		return v
	}
	return value.NewNull()
}

func (h *Host) propertyNames(targetID uint64) value.Value {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.elements[targetID]))
	for name := range h.elements[targetID] {
		names = append(names, name)
	}
	sort.Strings(names)
	items := make([]value.Value, 0, len(names))
	for _, name := range names {
		items = append(items, value.NewString(name))
	}
	return value.NewList(items...)
}

// Property reads the stored value of a property, for inspection.
func (h *Host) Property(targetID uint64, name string) (value.Value, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.elements[targetID][name]
	return v, ok
}

// Listeners returns the event types registered for a target.
func (h *Host) Listeners(targetID uint64) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.listeners[targetID]...)
}

// AppliedCommands returns every command applied so far, in order.
func (h *Host) AppliedCommands() []command.Command {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]command.Command(nil), h.applied...)
}

// HasElement reports whether a target's element entry still exists.
func (h *Host) HasElement(targetID uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.elements[targetID]
	return ok
}
