// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package uv

import (
	"slices"

	"golang.org/x/sys/unix"
)

// Idle invokes its callback once per iteration, before polling, and keeps
// polling from blocking while active.
type Idle struct {
	Handle
	cb func(*Idle)
}

// NewIdle allocates an inactive idle handle.
func (l *Loop) NewIdle() *Idle {
	h := new(Idle)
	h.init(l, KindIdle, h.Stop, nil)
	return h
}

// Start activates the handle. Starting an active handle does nothing, and
// keeps the current callback.
func (h *Idle) Start(cb func(*Idle)) error {
	if h.IsClosing() || cb == nil {
		return unix.EINVAL
	}
	if h.IsActive() {
		return nil
	}
	h.cb = cb
	h.loop.idles = append(h.loop.idles, h)
	h.startActive()
	return nil
}

// Stop deactivates the handle. Stopping an inactive handle does nothing.
func (h *Idle) Stop() {
	if !h.IsActive() {
		return
	}
	if i := slices.Index(h.loop.idles, h); i >= 0 {
		h.loop.idles = slices.Delete(h.loop.idles, i, i+1)
	}
	h.stopActive()
}

// Check invokes its callback once per iteration, after polling.
type Check struct {
	Handle
	cb func(*Check)
}

// NewCheck allocates an inactive check handle.
func (l *Loop) NewCheck() *Check {
	h := new(Check)
	h.init(l, KindCheck, h.Stop, nil)
	return h
}

// Start activates the handle. Starting an active handle does nothing, and
// keeps the current callback.
func (h *Check) Start(cb func(*Check)) error {
	if h.IsClosing() || cb == nil {
		return unix.EINVAL
	}
	if h.IsActive() {
		return nil
	}
	h.cb = cb
	h.loop.checks = append(h.loop.checks, h)
	h.startActive()
	return nil
}

// Stop deactivates the handle. Stopping an inactive handle does nothing.
func (h *Check) Stop() {
	if !h.IsActive() {
		return
	}
	if i := slices.Index(h.loop.checks, h); i >= 0 {
		h.loop.checks = slices.Delete(h.loop.checks, i, i+1)
	}
	h.stopActive()
}
