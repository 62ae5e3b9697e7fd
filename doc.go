// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package uvbridge lets reference-counted managed values drive a
// single-threaded, callback-based native event loop.
//
// A [Loop] owns the native loop and a one-shot error latch. Handles
// ([Timer], [Idle], [Check], [TCP]) each hold a counted reference to their
// Loop, and own the managed callbacks attached to them. When the native loop
// fires an event, the handle invokes its callback and feeds the returned
// [managed.Result] to the Loop: the first failure of a [Loop.Run] is
// captured, the native loop is asked to stop, and Run returns it. Failures
// reported after that, within the same run, are released and dropped.
//
// # Lifecycle
//
// Handles move through [StateInactive], [StateActive], [StateClosing] and
// [StateFreed]. Closing a handle releases its callbacks, unless one of them
// is executing, in which case they are released once the native close
// completes. The Loop reference held by a handle is only dropped when the
// native close completes, so a Loop is finalized after its last handle, and
// at most once.
//
// # Affinity
//
// Loops and handles must never be shared between goroutines, nor be marked
// shared or persistent. Violations terminate the process, see
// [affinity.SetFatalHandler].
package uvbridge
