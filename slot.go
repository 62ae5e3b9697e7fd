// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package uvbridge

import (
	"github.com/joeycumines/go-uvbridge/managed"
)

// slot owns a single reference to a managed callback. The zero value is
// detached.
type slot struct {
	cb managed.Callback
}

// Set takes a reference to cb, releasing any previous callback. A nil cb
// detaches the slot.
func (s *slot) Set(cb managed.Callback) {
	if cb != nil {
		cb.Header().Inc()
	}
	s.Release()
	s.cb = cb
}

// Get borrows the callback, nil if detached.
func (s *slot) Get() managed.Callback { return s.cb }

// Take detaches the slot, moving its reference to the caller.
func (s *slot) Take() managed.Callback {
	cb := s.cb
	s.cb = nil
	return cb
}

// Release drops the reference, detaching the slot. Releasing a detached slot
// does nothing.
func (s *slot) Release() {
	if cb := s.Take(); cb != nil {
		cb.Header().Dec()
	}
}

// Detached reports whether the slot is empty.
func (s *slot) Detached() bool { return s.cb == nil }
