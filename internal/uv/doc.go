// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package uv is a single-threaded, callback-based event loop.
//
// It plays the role of the native loop that the bridge drives: it owns timer,
// idle, check and TCP handles, invokes their callbacks from [Loop.Run], and
// reports completion of [Handle.Close] through a close callback issued in a
// later phase of the loop, never synchronously.
//
// # Iteration
//
// Each iteration runs, in order:
//  1. due timers (earliest deadline first, ties in start order)
//  2. pending request callbacks (write, connect and shutdown completions)
//  3. idle handles
//  4. I/O polling, blocking unless idle handles or pending work exist
//  5. check handles
//  6. close callbacks of handles closed since the last iteration
//
// [RunDefault] iterates until nothing keeps the loop alive, [RunOnce] runs a
// single iteration that may block, and [RunNoWait] a single iteration that
// does not. [Loop.Stop] ends the current Run after the iteration in progress.
//
// # Platforms
//
// Unix only. I/O readiness comes from epoll on Linux and kqueue on darwin.
// Other unix systems get timer, idle and check handles, and TCP operations
// that need readiness fail with ENOSYS.
//
// # Thread Safety
//
// None. A Loop and its handles must only be used from one goroutine, and
// nothing in this package may be called from another goroutine while Run is
// executing.
//
// # Errors
//
// Operations fail with [golang.org/x/sys/unix.Errno] values. Stream reads
// report end of file as [io.EOF].
package uv
