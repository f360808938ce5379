// Package undo holds at most one reversible deletion for a limited time.
//
// States: empty -> pending(item, deadline) -> empty. A pending entry leaves the buffer by
// Take (undo), by expiry, or by being replaced by a newer Push.
package undo

import (
	"sync"
	"time"

	"timeline-cli/internal/model"
)

// DefaultWindow is how long a deletion stays recoverable.
const DefaultWindow = 5 * time.Second

// Pending is the buffered deletion.
type Pending struct {
	Item     model.Item
	Index    int // position the item had when it was deleted
	Deadline time.Time
}

// Timer is the part of *time.Timer the buffer needs.
type Timer interface {
	Stop() bool
}

type Option func(*Buffer)

// WithAfterFunc replaces time.AfterFunc (tests fire expiry by hand).
func WithAfterFunc(f func(d time.Duration, fn func()) Timer) Option {
	return func(b *Buffer) {
		if f != nil {
			b.afterFunc = f
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *Buffer) {
		if now != nil {
			b.now = now
		}
	}
}

// WithOnExpire registers a callback run (outside the buffer lock) when a pending entry
// expires. It runs on the timer goroutine.
func WithOnExpire(f func(Pending)) Option {
	return func(b *Buffer) { b.onExpire = f }
}

type Buffer struct {
	window    time.Duration
	afterFunc func(time.Duration, func()) Timer
	now       func() time.Time
	onExpire  func(Pending)

	mu      sync.Mutex
	pending *Pending
	timer   Timer
	// gen invalidates timers that were replaced or stopped too late to be cancelled.
	gen    uint64
	closed bool
}

func New(window time.Duration, opts ...Option) *Buffer {
	if window <= 0 {
		window = DefaultWindow
	}
	b := &Buffer{
		window: window,
		afterFunc: func(d time.Duration, fn func()) Timer {
			return time.AfterFunc(d, fn)
		},
		now: time.Now,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *Buffer) Window() time.Duration { return b.window }

// Push buffers a deletion. A previous pending deletion is dropped without being restored.
func (b *Buffer) Push(item model.Item, index int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.stopLocked()
	p := Pending{Item: item, Index: index, Deadline: b.now().Add(b.window)}
	b.pending = &p
	gen := b.gen
	b.timer = b.afterFunc(b.window, func() { b.expire(gen) })
}

// Take removes and returns the pending deletion, if it has not expired.
func (b *Buffer) Take() (Pending, bool) {
	b.mu.Lock()
	if b.pending == nil {
		b.mu.Unlock()
		return Pending{}, false
	}
	p := *b.pending
	b.pending = nil
	b.stopLocked()
	expired := !b.now().Before(p.Deadline)
	cb := b.onExpire
	b.mu.Unlock()

	if expired {
		// The timer is late; the deadline still wins.
		if cb != nil {
			cb(p)
		}
		return Pending{}, false
	}
	return p, true
}

// Pending reports the buffered deletion without consuming it.
func (b *Buffer) Pending() (Pending, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil {
		return Pending{}, false
	}
	return *b.pending, true
}

// Clear drops any pending deletion without restoring it. The buffer stays usable.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = nil
	b.stopLocked()
}

// Close drops any pending deletion and cancels its timer. Nothing fires afterwards.
func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.pending = nil
	b.stopLocked()
}

func (b *Buffer) stopLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.gen++
}

func (b *Buffer) expire(gen uint64) {
	b.mu.Lock()
	if b.closed || gen != b.gen || b.pending == nil {
		b.mu.Unlock()
		return
	}
	p := *b.pending
	b.pending = nil
	b.timer = nil
	cb := b.onExpire
	b.mu.Unlock()

	if cb != nil {
		cb(p)
	}
}
