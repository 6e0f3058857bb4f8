package binding

import (
	"errors"
	"sync"

	"github.com/scriptbind/bridge/internal/value"
)

// Call path wiring errors.
var (
	ErrCallPathBound = errors.New("binding: call path already bound")
	ErrNoScriptPath  = errors.New("binding: script call path not initialized")
)

// CallFromScript is the host-side capability: it receives invocations
// issued by script code and returns one tagged value. A returned error is
// a host-reported failure; the accompanying value must be ignored.
type CallFromScript interface {
	CallFromScript(t *Target, method value.Value, args []value.Value) (value.Value, error)
}

// CallFromHost is the script-side capability: it receives invocations
// issued by the host. When ret is non-nil the result is written into it.
type CallFromHost interface {
	CallFromHost(t *Target, ret *value.Value, method value.Value, args []value.Value)
}

// Target pairs a script-side identity with a host-side identity and the
// two call paths between them. It is exclusively owned by the Object that
// wraps it.
type Target struct {
	scriptID uint64
	hostID   uint64

	mu         sync.RWMutex
	fromScript CallFromScript
	fromHost   CallFromHost
}

// NewTarget creates an unbound pairing of identities.
func NewTarget(scriptID, hostID uint64) *Target {
	return &Target{scriptID: scriptID, hostID: hostID}
}

// ScriptID returns the script-side identity.
func (t *Target) ScriptID() uint64 { return t.scriptID }

// HostID returns the host-side identity used as the target id of queued
// commands.
func (t *Target) HostID() uint64 { return t.hostID }

// BindHostSide installs the script→host call path. Set exactly once, at
// construction, by the side that creates the pairing.
func (t *Target) BindHostSide(path CallFromScript) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fromScript != nil {
		return ErrCallPathBound
	}
	t.fromScript = path
	return nil
}

// BindScriptSide installs the host→script call path. Set exactly once.
func (t *Target) BindScriptSide(path CallFromHost) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fromHost != nil {
		return ErrCallPathBound
	}
	t.fromHost = path
	return nil
}

// HostSide returns the script→host path, or nil while unbound.
func (t *Target) HostSide() CallFromScript {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fromScript
}

// InvokeFromHost routes a host-issued invocation to the script side,
// writing the result into ret when ret is non-nil. Fails with
// ErrNoScriptPath rather than dereferencing an unset path.
func (t *Target) InvokeFromHost(ret *value.Value, method value.Value, args []value.Value) error {
	t.mu.RLock()
	path := t.fromHost
	t.mu.RUnlock()

	if path == nil {
		return ErrNoScriptPath
	}
	path.CallFromHost(t, ret, method, args)
	return nil
}
