// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package uvbridge

import (
	"github.com/joeycumines/go-uvbridge/affinity"
	"github.com/joeycumines/go-uvbridge/internal/uv"
	"github.com/joeycumines/go-uvbridge/managed"
)

// State is the lifecycle state of a handle.
type State uint8

const (
	// StateInactive handles are open but not started.
	StateInactive State = iota
	// StateActive handles are started, and may fire callbacks.
	StateActive
	// StateClosing handles are awaiting the native close.
	StateClosing
	// StateFreed handles have released their native resources and their
	// reference to the loop.
	StateFreed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateFreed:
		return "freed"
	default:
		return "unknown"
	}
}

// handleCore implements the lifecycle shared by every handle type.
type handleCore struct {
	managed.Object

	self   managed.Value
	loop   *Loop
	native *uv.Handle
	// drop clears the embedding type's native pointer
	drop func()

	slots []*slot

	kind uv.Kind
	// StateInactive (open), StateClosing or StateFreed
	life State

	// callbacks executing, including nested ones
	dispatching int
	// request callbacks not yet completed
	requests int
}

// acquireLoop performs the affinity checks for the constructor op, once.
func acquireLoop(loop *Loop, op string) affinity.Exclusive[*Loop] {
	x := affinity.Acquire(loop)
	x.Get().owner.Check(op)
	return x
}

// attach registers a newly allocated handle with its loop, taking a loop
// reference. slots are released when the handle closes.
func (h *handleCore) attach(self managed.Value, loop affinity.Exclusive[*Loop], native *uv.Handle, drop func(), slots ...*slot) {
	l := loop.Get()
	h.self = self
	h.loop = l
	h.native = native
	h.drop = drop
	h.slots = slots
	h.kind = native.Kind()
	native.Data = self
	h.SetFinalizer(h.Close)

	l.Inc()
	l.stats.Handles++

	l.logger.Trace().
		Stringer(`handle`, h.kind).
		Log(`handle created`)
}

// enter guards every entry point.
func (h *handleCore) enter(op string) {
	affinity.Check(h.self)
	h.loop.owner.Check(op)
}

// usable fails once Close has been called.
func (h *handleCore) usable() error {
	if h.life != StateInactive {
		return errHandleClosed
	}
	return nil
}

// State returns the lifecycle state.
func (h *handleCore) State() State {
	h.enter("State")
	if h.life == StateInactive && h.native.IsActive() {
		return StateActive
	}
	return h.life
}

// Loop returns the loop the handle is attached to.
func (h *handleCore) Loop() *Loop { return h.loop }

// Close stops the handle and starts closing it. Callbacks are released now
// unless one is executing, in which case they are released when the native
// close completes, along with the loop reference. Calling Close again does
// nothing. Dropping the last reference to the handle closes it.
func (h *handleCore) Close() {
	h.enter("Close")
	if h.life != StateInactive {
		return
	}
	h.life = StateClosing
	if h.dispatching == 0 {
		h.releaseSlots()
	}
	h.native.Close(h.onClose)
}

func (h *handleCore) onClose(native *uv.Handle) {
	l := loopOf(native.Loop())
	h.releaseSlots()
	h.life = StateFreed
	h.native = nil
	if h.drop != nil {
		h.drop()
		h.drop = nil
	}
	l.stats.Handles--

	l.logger.Trace().
		Stringer(`handle`, h.kind).
		Log(`handle freed`)

	l.Dec()
}

func (h *handleCore) releaseSlots() {
	for _, s := range h.slots {
		s.Release()
	}
}

// dispatch invokes the callback held by s, dropping the event if the slot
// is detached. The callback is referenced for the duration of the call, as
// it may replace itself in s.
func (h *handleCore) dispatch(s *slot, args ...any) {
	cb := s.Get()
	if cb == nil {
		return
	}
	cb.Header().Inc()
	defer cb.Header().Dec()
	h.invoke(cb, args)
}

// newRequest allocates a slot for a one-shot request callback, which may be
// nil.
func (h *handleCore) newRequest(cb managed.Callback) *slot {
	s := new(slot)
	s.Set(cb)
	h.requests++
	return s
}

// complete invokes and releases a request callback.
func (h *handleCore) complete(s *slot, args ...any) {
	h.requests--
	cb := s.Take()
	if cb == nil {
		return
	}
	defer cb.Header().Dec()
	h.invoke(cb, args)
}

// abandon releases a request that never reached the native loop.
func (h *handleCore) abandon(s *slot) {
	h.requests--
	s.Release()
}

func (h *handleCore) invoke(cb managed.Callback, args []any) {
	h.dispatching++
	defer func() { h.dispatching-- }()
	h.loop.settle(h.kind, cb.Invoke(args...))
}
