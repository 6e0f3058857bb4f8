// Package id provides identifier generation for the bridge.
//
// Three identifier families cross the script/host boundary:
//   - ContextID: identifies one script execution environment. The low 32
//     bits are a caller-chosen sequence number; the high 32 bits are a
//     process-wide generation counter, so a numerically reused sequence
//     from a later context can never be mistaken for the original.
//   - Handle: an opaque integer standing in for a pointer in boundary
//     frames. Handles index process-owned registries and are validated
//     before every dereference.
//   - TraceID: a prefixed ULID attached to invocation logs.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// ContextID identifies a script execution context.
// Packed as generation<<32 | sequence.
type ContextID uint64

var contextGeneration atomic.Uint32

// NewContextID builds a context identifier for the given sequence number,
// stamping it with the next process-wide generation.
func NewContextID(sequence uint32) ContextID {
	gen := contextGeneration.Add(1)
	return ContextID(uint64(gen)<<32 | uint64(sequence))
}

// Sequence returns the caller-chosen low 32 bits.
func (c ContextID) Sequence() uint32 { return uint32(c) }

// Generation returns the process-wide generation stamp.
func (c ContextID) Generation() uint32 { return uint32(c >> 32) }

// Uint64 returns the packed representation carried in boundary frames.
func (c ContextID) Uint64() uint64 { return uint64(c) }

// ContextIDFromUint64 reconstructs an identifier received over the boundary.
func ContextIDFromUint64(v uint64) ContextID { return ContextID(v) }

func (c ContextID) String() string {
	return fmt.Sprintf("ctx_%d.%d", c.Sequence(), c.Generation())
}

// Handle is an opaque integer replacing a raw pointer in boundary frames.
// Zero is never a valid handle.
type Handle uint64

var handleCounter atomic.Uint64

// NewHandle allocates a process-unique handle.
func NewHandle() Handle {
	return Handle(handleCounter.Add(1))
}

// IsZero reports whether the handle is the reserved null handle.
func (h Handle) IsZero() bool { return h == 0 }

func (h Handle) String() string { return fmt.Sprintf("hnd_%d", uint64(h)) }

// TracePrefix tags invocation trace identifiers in logs.
const TracePrefix = "inv"

// Generator produces ULIDs from a guarded entropy source.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator(rand.Reader)
	})
	return defaultGenerator
}

// NewGenerator creates a generator with the given entropy source.
// Deterministic sources are useful in tests.
func NewGenerator(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// NewTraceID returns a prefixed ULID string for correlating one boundary
// invocation across log lines.
func NewTraceID() string {
	return fmt.Sprintf("%s_%s", TracePrefix, Default().Generate().String())
}
