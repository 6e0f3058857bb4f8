package script

import (
	"sync"

	"go.uber.org/zap"
)

// Loop is the script-execution thread: a single goroutine draining a task
// channel. Everything touching the VM runs here.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	stop  sync.Once
	log   *zap.Logger
}

func newLoop(buffer int, log *zap.Logger) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
		log:   log,
	}
}

func (l *Loop) run() {
	for {
		select {
		case task := <-l.tasks:
			task()
		case <-l.done:
			return
		}
	}
}

// Post implements execution.TaskRunner. Tasks posted after Stop are
// dropped.
func (l *Loop) Post(task func()) {
	select {
	case l.tasks <- task:
	case <-l.done:
		l.log.Debug("dropping task posted to stopped loop")
	}
}

// Do runs task on the loop and blocks until it finishes. Returns false if
// the loop has stopped.
func (l *Loop) Do(task func()) bool {
	doneCh := make(chan struct{})
	wrapped := func() {
		defer close(doneCh)
		task()
	}
	select {
	case l.tasks <- wrapped:
	case <-l.done:
		return false
	}
	select {
	case <-doneCh:
		return true
	case <-l.done:
		return false
	}
}

// Stop shuts the loop down. Idempotent.
func (l *Loop) Stop() {
	l.stop.Do(func() { close(l.done) })
}
