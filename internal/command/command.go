// Package command implements the per-context mutation command queue and
// its process-wide registry.
//
// Commands record native-side mutations issued by the script thread. They
// are appended by the script thread only, consumed exactly once in FIFO
// order by the host side, and discarded after application. Appending never
// blocks on the consumer; a blocking Flush is what gives binding calls
// their read-after-write ordering guarantee.
package command

import (
	"fmt"

	"github.com/scriptbind/bridge/internal/value"
)

// Opcode identifies a boundary-crossing operation kind. Closed set; the
// numeric values are part of the boundary protocol.
type Opcode int32

const (
	OpGetProperty Opcode = iota + 1
	OpSetProperty
	OpGetAllPropertyNames
	OpAnonymousFunctionCall
	OpAsyncAnonymousFunctionCall
	OpDispose
	OpAddEventListenerRegistration
)

func (o Opcode) String() string {
	switch o {
	case OpGetProperty:
		return "GetProperty"
	case OpSetProperty:
		return "SetProperty"
	case OpGetAllPropertyNames:
		return "GetAllPropertyNames"
	case OpAnonymousFunctionCall:
		return "AnonymousFunctionCall"
	case OpAsyncAnonymousFunctionCall:
		return "AsyncAnonymousFunctionCall"
	case OpDispose:
		return "Dispose"
	case OpAddEventListenerRegistration:
		return "AddEventListenerRegistration"
	}
	return fmt.Sprintf("Opcode(%d)", int32(o))
}

// Command is one pending native-side mutation.
type Command struct {
	Opcode   Opcode
	TargetID uint64
	Args     []value.Value
	Flags    uint32
}

// ApplyFunc applies one command on the host side.
type ApplyFunc func(Command)
