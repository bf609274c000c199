// Package respond serializes auto-generated responses into the assistant's
// input stream.
package respond

import (
	"io"
	"log/slog"
	"sync"
)

// entry is one logical response: an ordered list of literal writes that must
// be flushed to completion before the next entry starts.
type entry struct {
	parts []string
}

// Queue is the single writer of auto-responses to the child's input. Entries
// are written in exact enqueue order, never interleaved. While no target is
// bound, entries buffer and flush once one becomes available.
type Queue struct {
	mu      sync.Mutex
	target  io.Writer
	pending []entry
	log     *slog.Logger
}

// NewQueue creates a response queue.
func NewQueue(log *slog.Logger) *Queue {
	if log == nil {
		log = slog.Default()
	}
	return &Queue{log: log}
}

// SetTarget binds the current child input stream and drains anything that
// buffered while unbound. A nil target unbinds the queue.
func (q *Queue) SetTarget(w io.Writer) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.target = w
	q.drainLocked()
}

// Enqueue appends one logical response and immediately drains the queue into
// the bound target. Each call's payload is flushed to completion, in call
// order, before the next is started.
func (q *Queue) Enqueue(parts ...string) {
	if len(parts) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, entry{parts: parts})
	q.drainLocked()
}

// Pending returns the number of buffered responses awaiting a target.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// drainLocked flushes pending entries in FIFO order. A write failure means
// the child is gone; the remaining payload is dropped and logged at debug
// level, because the session is already terminating.
func (q *Queue) drainLocked() {
	if q.target == nil {
		return
	}
	for len(q.pending) > 0 {
		e := q.pending[0]
		q.pending = q.pending[1:]
		for _, part := range e.parts {
			if _, err := io.WriteString(q.target, part); err != nil {
				q.log.Debug("response dropped, target not writable", "error", err)
				q.pending = nil
				return
			}
		}
	}
}
