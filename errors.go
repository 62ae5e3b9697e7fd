// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package uvbridge

import (
	"errors"

	"github.com/joeycumines/go-uvbridge/uverr"
)

var (
	// ErrReentrantRun is returned when Run is called from within one of the
	// loop's own callbacks.
	ErrReentrantRun = errors.New("uvbridge: cannot call Run from within the loop")

	// ErrLoopReleased is returned when Run is called on a finalized loop.
	ErrLoopReleased = errors.New("uvbridge: loop has been released")
)

var (
	errHandleClosed = uverr.InvalidArgument("handle is closed")
	errNoCallback   = uverr.InvalidArgument("handle has no callback")
	errNegative     = uverr.InvalidArgument("duration must not be negative")
)

// errorArg converts a native status to the value passed to callbacks, nil
// on success.
func errorArg(err error) any {
	if err == nil {
		return nil
	}
	return uverr.Wrap(err)
}
