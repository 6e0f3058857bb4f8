package command

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/scriptbind/bridge/internal/infrastructure/monitoring"
)

// Queue is one context's FIFO of pending mutation commands.
//
// Append is called only from the script thread and never waits on the
// consumer. DrainAndApply is the host-side consumer path. Flush blocks the
// caller until every command queued at the time of the call has been
// applied; it takes the consumer role itself if no drain is in flight, and
// waits out a concurrent drain otherwise so commands are never applied
// twice.
type Queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	pending  []Command
	draining bool

	log *zap.Logger
}

// NewQueue creates an empty queue.
func NewQueue(log *zap.Logger) *Queue {
	if log == nil {
		log = zap.NewNop()
	}
	q := &Queue{log: log}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Append adds a command to the tail of the queue. Fire-and-forget from the
// script thread's perspective.
func (q *Queue) Append(cmd Command) {
	q.mu.Lock()
	q.pending = append(q.pending, cmd)
	q.mu.Unlock()

	m := monitoring.Default()
	m.CommandsEnqueued.WithLabelValues(cmd.Opcode.String()).Inc()
	m.QueueDepth.Inc()
}

// Len returns the number of commands not yet handed to the consumer.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// DrainAndApply consumes all queued commands in FIFO order, applying each
// through fn and discarding it. Called from the host thread.
func (q *Queue) DrainAndApply(fn ApplyFunc) {
	q.drain(fn)
}

// Flush blocks until every command queued before the call has been
// applied. Called from the script thread before each binding invocation.
func (q *Queue) Flush(fn ApplyFunc) {
	start := time.Now()
	q.drain(fn)
	monitoring.Default().FlushDuration.Observe(time.Since(start).Seconds())
}

func (q *Queue) drain(fn ApplyFunc) {
	m := monitoring.Default()

	q.mu.Lock()
	for {
		// Another consumer holds the batch; its commands include
		// everything queued before us, so waiting it out preserves the
		// flush guarantee.
		for q.draining {
			q.cond.Wait()
		}
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}

		batch := q.pending
		q.pending = nil
		q.draining = true
		q.mu.Unlock()

		for _, cmd := range batch {
			if fn != nil {
				fn(cmd)
			}
			m.CommandsApplied.Inc()
			m.QueueDepth.Dec()
		}

		q.mu.Lock()
		q.draining = false
		q.cond.Broadcast()
	}
}
