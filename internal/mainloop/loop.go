// Package mainloop runs posted work on a single goroutine.
package mainloop

import (
	"context"
	"runtime/debug"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// DefaultBuffer is the queue length used by New when size <= 0.
const DefaultBuffer = 256

// Loop serializes work posted from other goroutines. Post never blocks: when the
// queue is full the work is dropped and logged.
type Loop struct {
	ch      chan func()
	dropped atomic.Int64
}

// New creates a loop with a queue of size entries.
func New(size int) *Loop {
	if size <= 0 {
		size = DefaultBuffer
	}
	return &Loop{ch: make(chan func(), size)}
}

// Post queues fn. It reports false if fn was dropped.
func (l *Loop) Post(fn func()) bool {
	select {
	case l.ch <- fn:
		return true
	default:
		n := l.dropped.Add(1)
		log.Warnf("Main loop queue full, dropped task (%d total)", n)
		return false
	}
}

// Dropped returns how many tasks were dropped.
func (l *Loop) Dropped() int64 { return l.dropped.Load() }

// Run executes posted work until ctx is done.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.ch:
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Recovered panic in main loop task: %v\n%s", r, debug.Stack())
		}
	}()
	fn()
}
