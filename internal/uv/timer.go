// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package uv

import (
	"container/heap"
	"time"

	"golang.org/x/sys/unix"
)

// Timer invokes a callback once a timeout elapses, optionally repeating.
type Timer struct {
	Handle

	cb func(*Timer)

	due    time.Duration
	repeat time.Duration
	seq    uint64
	// position in the loop's heap, -1 when not queued
	index int
}

// NewTimer allocates an inactive timer handle.
func (l *Loop) NewTimer() *Timer {
	t := &Timer{index: -1}
	t.init(l, KindTimer, t.Stop, nil)
	return t
}

// Start arms the timer to call cb after timeout, then every repeat if repeat
// is non-zero. Starting an active timer re-arms it. Fails with EINVAL if the
// handle is closing, cb is nil, or a duration is negative.
func (t *Timer) Start(cb func(*Timer), timeout, repeat time.Duration) error {
	if t.IsClosing() || cb == nil || timeout < 0 || repeat < 0 {
		return unix.EINVAL
	}
	t.Stop()
	l := t.loop
	t.cb = cb
	t.due = l.now + timeout
	t.repeat = repeat
	t.seq = l.timerSeq
	l.timerSeq++
	heap.Push(&l.timers, t)
	t.startActive()
	return nil
}

// Stop disarms the timer. Stopping an inactive timer does nothing.
func (t *Timer) Stop() {
	if t.index >= 0 {
		heap.Remove(&t.loop.timers, t.index)
	}
	t.stopActive()
}

// Again re-arms a repeating timer using its repeat interval as the timeout.
// Fails with EINVAL if the timer was never started.
func (t *Timer) Again() error {
	if t.cb == nil {
		return unix.EINVAL
	}
	if t.repeat > 0 {
		return t.Start(t.cb, t.repeat, t.repeat)
	}
	return nil
}

// SetRepeat changes the repeat interval, taking effect on the next expiry.
func (t *Timer) SetRepeat(repeat time.Duration) { t.repeat = repeat }

// Repeat returns the repeat interval.
func (t *Timer) Repeat() time.Duration { return t.repeat }

// DueIn returns the time until the timer fires, zero if inactive or overdue.
func (t *Timer) DueIn() time.Duration {
	if !t.IsActive() || t.due <= t.loop.now {
		return 0
	}
	return t.due - t.loop.now
}

// runTimers fires the expired timers. Timers (re)started by these callbacks
// wait for the next iteration, even with a zero timeout.
func (l *Loop) runTimers() {
	limit := l.timerSeq
	for len(l.timers) > 0 {
		t := l.timers[0]
		if t.due > l.now || t.seq >= limit {
			break
		}
		t.Stop()
		_ = t.Again()
		t.cb(t)
	}
}

// timerHeap is a min-heap of timers, by due time then start order.
type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].seq < h[j].seq
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
