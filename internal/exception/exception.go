// Package exception implements the single-use error channel checked after
// every binding invocation.
package exception

import "fmt"

// Kind classifies a bridge failure.
type Kind int32

const (
	// InternalError marks protocol misuse, such as invoking a binding
	// whose host call path was never initialized.
	InternalError Kind = iota
	// TypeError marks a host-reported domain error. Unclassified host
	// error strings default to this kind.
	TypeError
)

func (k Kind) String() string {
	switch k {
	case InternalError:
		return "InternalError"
	case TypeError:
		return "TypeError"
	}
	return fmt.Sprintf("Kind(%d)", int32(k))
}

// Error is the concrete error surfaced to script code or carried into a
// promise rejection.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// State carries at most one failure per binding invocation. Callers check
// it immediately after every call before trusting the returned value.
// A State must not be shared across invocations without Clear.
type State struct {
	set  bool
	kind Kind
	msg  string
}

// Throw records a failure. The channel is settable at most once per
// invocation; later throws are ignored so the first failure is preserved.
func (s *State) Throw(kind Kind, message string) {
	if s.set {
		return
	}
	s.set = true
	s.kind = kind
	s.msg = message
}

// ThrowHostError records an unclassified host error string, mapped to
// TypeError by default.
func (s *State) ThrowHostError(message string) {
	s.Throw(TypeError, message)
}

// HasException reports whether a failure has been recorded.
func (s *State) HasException() bool { return s.set }

// Kind returns the recorded kind; meaningful only when HasException.
func (s *State) Kind() Kind { return s.kind }

// Message returns the recorded message; meaningful only when HasException.
func (s *State) Message() string { return s.msg }

// Err converts the channel into an error, or nil when nothing was thrown.
func (s *State) Err() error {
	if !s.set {
		return nil
	}
	return &Error{Kind: s.kind, Message: s.msg}
}

// Clear resets the channel for reuse by a subsequent invocation.
func (s *State) Clear() {
	*s = State{}
}
