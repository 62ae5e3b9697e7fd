// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package fatal terminates the process on broken ownership invariants.
package fatal

import (
	"fmt"
	"os"
	"sync/atomic"
)

// ExitCode is the status used by the default handler.
const ExitCode = 255

var handler atomic.Pointer[func(msg string)]

func init() {
	h := defaultHandler
	handler.Store(&h)
}

func defaultHandler(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(ExitCode)
}

// Fatalf formats a diagnostic and passes it to the installed handler, which
// must not return. If it does, Fatalf panics with the message.
func Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	(*handler.Load())(msg)
	panic("fatal handler returned: " + msg)
}

// SetHandler installs fn as the fatal handler, returning a func that restores
// the previous one. A nil fn restores the default handler.
func SetHandler(fn func(msg string)) (restore func()) {
	if fn == nil {
		fn = defaultHandler
	}
	prev := handler.Swap(&fn)
	return func() { handler.Store(prev) }
}

type captured struct{ msg string }

// Capture runs fn with a handler that unwinds instead of exiting, reporting
// the diagnostic if fn hit a fatal error. It swaps the global handler, so
// callers must not run concurrently with other fatal-sensitive code.
func Capture(fn func()) (msg string, fataled bool) {
	restore := SetHandler(func(msg string) { panic(captured{msg}) })
	defer restore()
	defer func() {
		if r := recover(); r != nil {
			c, ok := r.(captured)
			if !ok {
				panic(r)
			}
			msg, fataled = c.msg, true
		}
	}()
	fn()
	return
}
