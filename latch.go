// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package uvbridge

// latch holds the first failure of a run. Once set, further sets are
// refused until the value is taken.
type latch struct {
	err error
	set bool
}

// Set stores err if the latch is empty, reporting whether it did.
func (x *latch) Set(err error) bool {
	if x.set {
		return false
	}
	x.err = err
	x.set = true
	return true
}

// Settled reports whether a failure is held.
func (x *latch) Settled() bool { return x.set }

// Take empties the latch, returning what it held.
func (x *latch) Take() error {
	err := x.err
	x.err = nil
	x.set = false
	return err
}
