// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package uv

import (
	"time"

	"github.com/eapache/queue"
	"golang.org/x/sys/unix"
)

// RunMode selects how long [Loop.Run] iterates.
type RunMode int

const (
	// RunDefault runs until no active handles or requests remain.
	RunDefault RunMode = iota
	// RunOnce runs a single iteration, blocking for I/O if needed.
	RunOnce
	// RunNoWait runs a single iteration without blocking.
	RunNoWait
)

// String returns a human-readable representation of the mode.
func (m RunMode) String() string {
	switch m {
	case RunDefault:
		return "default"
	case RunOnce:
		return "once"
	case RunNoWait:
		return "nowait"
	default:
		return "unknown"
	}
}

// Loop is the native event loop.
type Loop struct {
	_ [0]func()

	// Data is the user-data slot, never touched by this package.
	Data any

	poller poller

	// pending request callbacks, func()
	pending *queue.Queue
	// handles awaiting their close callback, *Handle
	closing *queue.Queue

	start time.Time
	now   time.Duration

	timers timerHeap
	idles  []*Idle
	checks []*Check

	// scratch buffers, reused to snapshot watcher lists
	idleBuf  []*Idle
	checkBuf []*Check

	timerSeq uint64

	handles       int
	activeHandles int
	activeReqs    int

	stopFlag bool
	running  bool
	closed   bool
}

// New allocates a native loop.
func New() (*Loop, error) {
	l := &Loop{
		pending: queue.New(),
		closing: queue.New(),
		start:   time.Now(),
	}
	if err := l.poller.init(); err != nil {
		return nil, err
	}
	return l, nil
}

// Now returns the loop time, cached at the start of each iteration.
func (l *Loop) Now() time.Duration { return l.now }

// UpdateTime refreshes the cached loop time.
func (l *Loop) UpdateTime() {
	l.now = time.Since(l.start)
}

// Alive reports whether active handles, active requests, pending callbacks
// or closing handles remain.
func (l *Loop) Alive() bool {
	return l.activeHandles > 0 ||
		l.activeReqs > 0 ||
		l.pending.Length() > 0 ||
		l.closing.Length() > 0
}

// Handles returns the number of handles not yet fully closed.
func (l *Loop) Handles() int { return l.handles }

// ActiveHandles returns the number of active handles.
func (l *Loop) ActiveHandles() int { return l.activeHandles }

// Running reports whether Run is executing.
func (l *Loop) Running() bool { return l.running }

// Stop makes Run return after the iteration in progress. It is idempotent,
// and is cleared when Run returns.
func (l *Loop) Stop() { l.stopFlag = true }

// Run drives the loop according to mode, returning whether the loop is still
// alive. It fails with EBUSY if already running, and EBADF once closed.
func (l *Loop) Run(mode RunMode) (bool, error) {
	if l.closed {
		return false, unix.EBADF
	}
	if l.running {
		return false, unix.EBUSY
	}
	l.running = true
	defer func() {
		l.running = false
		l.stopFlag = false
	}()

	alive := l.Alive()
	if !alive {
		l.UpdateTime()
	}

	for alive && !l.stopFlag {
		l.UpdateTime()
		l.runTimers()
		ranPending := l.runPending()
		l.runIdle()

		var timeout time.Duration
		if (mode == RunOnce && !ranPending) || mode == RunDefault {
			timeout = l.backendTimeout()
		}
		if err := l.poller.poll(timeout); err != nil {
			return l.Alive(), err
		}

		l.runCheck()
		l.runClosing()

		if mode == RunOnce {
			l.UpdateTime()
			l.runTimers()
		}

		alive = l.Alive()
		if mode == RunOnce || mode == RunNoWait {
			break
		}
	}

	return alive, nil
}

// Close releases the loop's own resources. It fails with EBUSY while any
// handle has not completed closing.
func (l *Loop) Close() error {
	if l.closed {
		return nil
	}
	if l.running || l.handles > 0 {
		return unix.EBUSY
	}
	l.closed = true
	return l.poller.close()
}

// backendTimeout is how long polling may block, negative meaning forever.
func (l *Loop) backendTimeout() time.Duration {
	switch {
	case l.stopFlag,
		l.activeHandles == 0 && l.activeReqs == 0,
		len(l.idles) > 0,
		l.pending.Length() > 0,
		l.closing.Length() > 0:
		return 0
	case len(l.timers) == 0:
		return -1
	}
	if d := l.timers[0].due - l.now; d > 0 {
		return d
	}
	return 0
}

// queuePending queues fn to run in the pending phase of the next iteration.
func (l *Loop) queuePending(fn func()) {
	l.pending.Add(fn)
}

func (l *Loop) runPending() bool {
	n := l.pending.Length()
	for range n {
		l.pending.Remove().(func())()
	}
	return n > 0
}

func (l *Loop) runIdle() {
	l.idleBuf = append(l.idleBuf[:0], l.idles...)
	for i, h := range l.idleBuf {
		l.idleBuf[i] = nil
		if h.IsActive() {
			h.cb(h)
		}
	}
}

func (l *Loop) runCheck() {
	l.checkBuf = append(l.checkBuf[:0], l.checks...)
	for i, h := range l.checkBuf {
		l.checkBuf[i] = nil
		if h.IsActive() {
			h.cb(h)
		}
	}
}

// runClosing completes the handles closed before this phase began; handles
// closed by close callbacks complete in the next iteration.
func (l *Loop) runClosing() {
	n := l.closing.Length()
	for range n {
		l.closing.Remove().(*Handle).finishClose()
	}
}
