// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package affinity enforces that managed values embedding native handles are
// only ever used by their single owning task.
//
// The native loop and its handles are neither reentrant nor thread safe.
// Violations are not recoverable errors: they terminate the process through
// the fatal handler, see [SetFatalHandler].
package affinity

import (
	"sync/atomic"

	"github.com/joeycumines/go-uvbridge/internal/fatal"
	"github.com/joeycumines/go-uvbridge/managed"
	"github.com/joeycumines/goroutineid"
)

// Check terminates the process if v was promoted to persistent status or
// marked as usable by multiple tasks.
func Check(v managed.Value) {
	switch v.Header().Mode() {
	case managed.Exclusive:
	case managed.Persistent:
		fatal.Fatalf("affinity: %T was marked persistent; values holding native handles must not be cached", v)
	default:
		fatal.Fatalf("affinity: %T is shared across tasks; values holding native handles must have a single owner", v)
	}
}

// Exclusive is a value proven exclusive at construction.
type Exclusive[T managed.Value] struct {
	v T
}

// Acquire checks v and wraps it.
func Acquire[T managed.Value](v T) Exclusive[T] {
	Check(v)
	return Exclusive[T]{v: v}
}

// Get returns the wrapped value.
func (x Exclusive[T]) Get() T { return x.v }

// Owner pins an object graph to the goroutine that created it.
//
// The zero value is unbound and never fails.
type Owner struct {
	id atomic.Uint64
}

// Bind records the calling goroutine as the owner.
func (o *Owner) Bind() {
	o.id.Store(GoroutineID())
}

// Unbind clears the owner, disabling checks.
func (o *Owner) Unbind() {
	o.id.Store(0)
}

// Bound reports whether an owner is recorded.
func (o *Owner) Bound() bool { return o.id.Load() != 0 }

// Check terminates the process if called from a goroutine other than the
// owner. what names the operation for the diagnostic.
func (o *Owner) Check(what string) {
	owner := o.id.Load()
	if owner == 0 {
		return
	}
	if current := GoroutineID(); current != owner {
		fatal.Fatalf("affinity: %s shared across tasks: owned by goroutine %d, called from goroutine %d", what, owner, current)
	}
}

// GoroutineID returns the current goroutine's ID.
func GoroutineID() uint64 {
	if id := goroutineid.Fast(); id > 0 {
		return uint64(id)
	}
	return uint64(goroutineid.Slow(make([]byte, 64)))
}

// SetFatalHandler replaces the process-terminating handler used for
// affinity and ownership violations, returning a func restoring the previous
// one. The handler must not return; if it does, the caller panics.
func SetFatalHandler(fn func(msg string)) (restore func()) {
	return fatal.SetHandler(fn)
}
