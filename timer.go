// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package uvbridge

import (
	"time"

	"github.com/joeycumines/go-uvbridge/internal/uv"
	"github.com/joeycumines/go-uvbridge/managed"
	"github.com/joeycumines/go-uvbridge/uverr"
)

// Timer invokes its callback, with the Timer as the only argument, once a
// timeout elapses, then optionally at a repeat interval.
type Timer struct {
	handleCore
	native *uv.Timer
	cb     slot
}

// NewTimer allocates an inactive timer on loop. The timer takes its own
// reference to cb.
func NewTimer(loop *Loop, cb managed.Callback) *Timer {
	l := acquireLoop(loop, "NewTimer")
	t := &Timer{native: l.Get().Unwrap().NewTimer()}
	t.attach(t, l, &t.native.Handle, func() { t.native = nil }, &t.cb)
	t.cb.Set(cb)
	return t
}

// Start arms the timer, reconfiguring it if already active. A zero repeat
// fires once. Fails with an invalid argument error if the timer is closed or
// a duration is negative, leaving the timer unchanged.
func (t *Timer) Start(timeout, repeat time.Duration) error {
	t.enter("Timer.Start")
	if err := t.usable(); err != nil {
		return err
	}
	if timeout < 0 || repeat < 0 {
		return errNegative
	}
	if t.cb.Detached() {
		return errNoCallback
	}
	return uverr.Wrap(t.native.Start(t.onTimer, timeout, repeat))
}

// Stop disarms the timer. Stopping an inactive or closed timer does nothing.
func (t *Timer) Stop() {
	t.enter("Timer.Stop")
	if t.life == StateInactive {
		t.native.Stop()
	}
}

// Again restarts a repeating timer from now.
func (t *Timer) Again() error {
	t.enter("Timer.Again")
	if err := t.usable(); err != nil {
		return err
	}
	if err := t.native.Again(); err != nil {
		return uverr.InvalidArgument("timer was never started")
	}
	return nil
}

// SetRepeat changes the repeat interval, from the next expiry.
func (t *Timer) SetRepeat(repeat time.Duration) error {
	t.enter("Timer.SetRepeat")
	if err := t.usable(); err != nil {
		return err
	}
	if repeat < 0 {
		return errNegative
	}
	t.native.SetRepeat(repeat)
	return nil
}

// Repeat returns the repeat interval.
func (t *Timer) Repeat() time.Duration {
	t.enter("Timer.Repeat")
	if t.native == nil {
		return 0
	}
	return t.native.Repeat()
}

// DueIn returns the time until the timer fires, zero if inactive.
func (t *Timer) DueIn() time.Duration {
	t.enter("Timer.DueIn")
	if t.native == nil {
		return 0
	}
	return t.native.DueIn()
}

func (t *Timer) onTimer(*uv.Timer) {
	t.dispatch(&t.cb, t)
}
