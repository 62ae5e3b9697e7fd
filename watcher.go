// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package uvbridge

import (
	"github.com/joeycumines/go-uvbridge/internal/uv"
	"github.com/joeycumines/go-uvbridge/managed"
	"github.com/joeycumines/go-uvbridge/uverr"
)

// Idle invokes its callback, with the Idle as the only argument, once per
// loop iteration while active. An active Idle keeps the loop from blocking.
type Idle struct {
	handleCore
	native *uv.Idle
	cb     slot
}

// NewIdle allocates an inactive idle handle on loop.
func NewIdle(loop *Loop, cb managed.Callback) *Idle {
	l := acquireLoop(loop, "NewIdle")
	h := &Idle{native: l.Get().Unwrap().NewIdle()}
	h.attach(h, l, &h.native.Handle, func() { h.native = nil }, &h.cb)
	h.cb.Set(cb)
	return h
}

// Start activates the handle. Starting an active handle does nothing.
func (h *Idle) Start() error {
	h.enter("Idle.Start")
	if err := h.usable(); err != nil {
		return err
	}
	if h.cb.Detached() {
		return errNoCallback
	}
	return uverr.Wrap(h.native.Start(h.onIdle))
}

// Stop deactivates the handle. Stopping an inactive or closed handle does
// nothing.
func (h *Idle) Stop() {
	h.enter("Idle.Stop")
	if h.life == StateInactive {
		h.native.Stop()
	}
}

func (h *Idle) onIdle(*uv.Idle) {
	h.dispatch(&h.cb, h)
}

// Check invokes its callback, with the Check as the only argument, once per
// loop iteration while active, after polling for I/O.
type Check struct {
	handleCore
	native *uv.Check
	cb     slot
}

// NewCheck allocates an inactive check handle on loop.
func NewCheck(loop *Loop, cb managed.Callback) *Check {
	l := acquireLoop(loop, "NewCheck")
	h := &Check{native: l.Get().Unwrap().NewCheck()}
	h.attach(h, l, &h.native.Handle, func() { h.native = nil }, &h.cb)
	h.cb.Set(cb)
	return h
}

// Start activates the handle. Starting an active handle does nothing.
func (h *Check) Start() error {
	h.enter("Check.Start")
	if err := h.usable(); err != nil {
		return err
	}
	if h.cb.Detached() {
		return errNoCallback
	}
	return uverr.Wrap(h.native.Start(h.onCheck))
}

// Stop deactivates the handle. Stopping an inactive or closed handle does
// nothing.
func (h *Check) Stop() {
	h.enter("Check.Stop")
	if h.life == StateInactive {
		h.native.Stop()
	}
}

func (h *Check) onCheck(*uv.Check) {
	h.dispatch(&h.cb, h)
}
