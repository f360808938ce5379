package undo

import (
	"sync"
	"testing"
	"time"

	"timeline-cli/internal/model"
)

type fakeTimer struct {
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) afterFunc(_ time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// fire runs the i-th timer callback even if it was stopped, like a timer that raced Stop.
func (s *fakeScheduler) fire(i int) {
	s.mu.Lock()
	t := s.timers[i]
	s.mu.Unlock()
	t.fn()
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestBuffer(t *testing.T, opts ...Option) (*Buffer, *fakeScheduler, *fakeClock) {
	t.Helper()
	s := &fakeScheduler{}
	c := &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithAfterFunc(s.afterFunc), WithClock(c.Now)}, opts...)
	return New(5*time.Second, opts...), s, c
}

func TestBuffer_PushThenTake(t *testing.T) {
	t.Parallel()

	b, s, c := newTestBuffer(t)
	it := model.Item{ID: "1", Time: "10:00", Label: "Arrival"}
	b.Push(it, 3)

	p, ok := b.Pending()
	if !ok || p.Item != it || p.Index != 3 || !p.Deadline.Equal(c.now.Add(5*time.Second)) {
		t.Fatalf("unexpected pending: %#v ok=%v", p, ok)
	}

	got, ok := b.Take()
	if !ok || got.Item != it {
		t.Fatalf("Take: %#v ok=%v", got, ok)
	}
	if !s.timers[0].stopped {
		t.Fatalf("expected timer to be stopped on undo")
	}
	if _, ok := b.Pending(); ok {
		t.Fatalf("expected empty buffer after Take")
	}
	if _, ok := b.Take(); ok {
		t.Fatalf("second Take must fail")
	}
}

func TestBuffer_ExpiryDiscards(t *testing.T) {
	t.Parallel()

	var expired []Pending
	b, s, _ := newTestBuffer(t, WithOnExpire(func(p Pending) { expired = append(expired, p) }))
	b.Push(model.Item{ID: "1"}, 0)
	s.fire(0)

	if _, ok := b.Take(); ok {
		t.Fatalf("undo after expiry must have no effect")
	}
	if len(expired) != 1 || expired[0].Item.ID != "1" {
		t.Fatalf("expected one expiry callback, got %#v", expired)
	}
}

func TestBuffer_NewPushReplacesAndCancelsPrevious(t *testing.T) {
	t.Parallel()

	var expired []Pending
	b, s, _ := newTestBuffer(t, WithOnExpire(func(p Pending) { expired = append(expired, p) }))
	b.Push(model.Item{ID: "first"}, 0)
	b.Push(model.Item{ID: "second"}, 1)

	if !s.timers[0].stopped {
		t.Fatalf("expected first timer to be cancelled")
	}
	// A stale timer that fires anyway must not touch the newer entry.
	s.fire(0)
	if len(expired) != 0 {
		t.Fatalf("stale timer fired callback: %#v", expired)
	}

	p, ok := b.Take()
	if !ok || p.Item.ID != "second" {
		t.Fatalf("expected only the most recent deletion to be recoverable, got %#v ok=%v", p, ok)
	}
}

func TestBuffer_TakePastDeadlineFails(t *testing.T) {
	t.Parallel()

	b, _, c := newTestBuffer(t)
	b.Push(model.Item{ID: "1"}, 0)
	c.now = c.now.Add(6 * time.Second)

	if _, ok := b.Take(); ok {
		t.Fatalf("expected late undo to fail even if the timer has not fired yet")
	}
}

func TestBuffer_CloseStopsEverything(t *testing.T) {
	t.Parallel()

	called := false
	b, s, _ := newTestBuffer(t, WithOnExpire(func(Pending) { called = true }))
	b.Push(model.Item{ID: "1"}, 0)
	b.Close()

	s.fire(0)
	if called {
		t.Fatalf("expiry must not fire after Close")
	}
	b.Push(model.Item{ID: "2"}, 0)
	if _, ok := b.Pending(); ok {
		t.Fatalf("Push after Close must be ignored")
	}
}

func TestBuffer_RealTimerExpires(t *testing.T) {
	t.Parallel()

	done := make(chan Pending, 1)
	b := New(10*time.Millisecond, WithOnExpire(func(p Pending) { done <- p }))
	b.Push(model.Item{ID: "1"}, 0)

	select {
	case p := <-done:
		if p.Item.ID != "1" {
			t.Fatalf("unexpected expiry: %#v", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timer never fired")
	}
}

func TestBuffer_ClearDropsPendingAndStaysUsable(t *testing.T) {
	t.Parallel()

	b, s, _ := newTestBuffer(t)
	b.Push(model.Item{ID: "1"}, 0)
	b.Clear()
	if _, ok := b.Pending(); ok {
		t.Fatalf("expected empty buffer after Clear")
	}
	s.fire(0)

	b.Push(model.Item{ID: "2"}, 1)
	if p, ok := b.Pending(); !ok || p.Item.ID != "2" {
		t.Fatalf("expected buffer to accept pushes after Clear, got %#v ok=%v", p, ok)
	}
}
