// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package uv

// Kind identifies the type of a [Handle].
type Kind uint8

const (
	KindUnknown Kind = iota
	KindTimer
	KindIdle
	KindCheck
	KindTCP
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindTimer:
		return "timer"
	case KindIdle:
		return "idle"
	case KindCheck:
		return "check"
	case KindTCP:
		return "tcp"
	default:
		return "unknown"
	}
}

type handleFlags uint8

const (
	flagActive handleFlags = 1 << iota
	flagClosing
	flagClosed
)

// Handle is the state shared by every handle type.
//
// Handles are created by the constructors on [Loop], and are released back to
// the caller only once the close callback passed to [Handle.Close] fires.
type Handle struct {
	_ [0]func()

	// Data is the user-data slot, never touched by this package.
	Data any

	loop    *Loop
	closeCb func(*Handle)

	// deactivate stops the kind-specific watcher, on Close
	deactivate func()
	// endgame runs before the close callback, e.g. to cancel requests
	endgame func()

	flags handleFlags
	kind  Kind
}

func (h *Handle) init(l *Loop, kind Kind, deactivate, endgame func()) {
	h.loop = l
	h.kind = kind
	h.deactivate = deactivate
	h.endgame = endgame
	l.handles++
}

// Loop returns the loop the handle belongs to.
func (h *Handle) Loop() *Loop { return h.loop }

// Kind returns the handle type.
func (h *Handle) Kind() Kind { return h.kind }

// IsActive reports whether the handle is started.
func (h *Handle) IsActive() bool { return h.flags&flagActive != 0 }

// IsClosing reports whether Close was called, including after completion.
func (h *Handle) IsClosing() bool { return h.flags&(flagClosing|flagClosed) != 0 }

// IsClosed reports whether the close callback has fired.
func (h *Handle) IsClosed() bool { return h.flags&flagClosed != 0 }

// Close stops the handle and schedules cb for the closing phase of the loop.
// Calling Close on a closing handle does nothing.
func (h *Handle) Close(cb func(*Handle)) {
	if h.IsClosing() {
		return
	}
	h.flags |= flagClosing
	h.closeCb = cb
	if h.deactivate != nil {
		h.deactivate()
	}
	h.stopActive()
	h.loop.closing.Add(h)
}

func (h *Handle) startActive() {
	if h.flags&flagActive != 0 {
		return
	}
	h.flags |= flagActive
	h.loop.activeHandles++
}

func (h *Handle) stopActive() {
	if h.flags&flagActive == 0 {
		return
	}
	h.flags &^= flagActive
	h.loop.activeHandles--
}

func (h *Handle) finishClose() {
	if h.endgame != nil {
		h.endgame()
	}
	h.flags = h.flags&^flagClosing | flagClosed
	h.loop.handles--
	cb := h.closeCb
	h.closeCb = nil
	if cb != nil {
		cb(h)
	}
}
