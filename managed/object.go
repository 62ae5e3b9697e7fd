// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package managed

import (
	"sync/atomic"

	"github.com/joeycumines/go-uvbridge/internal/fatal"
)

// Mode is the sharing category of an [Object].
type Mode uint32

const (
	// Exclusive objects have a single owning goroutine.
	Exclusive Mode = iota
	// Shared objects may be referenced from multiple goroutines.
	Shared
	// Persistent objects are immortal and immutable.
	Persistent
)

// String returns a human-readable representation of the mode.
func (m Mode) String() string {
	switch m {
	case Exclusive:
		return "exclusive"
	case Shared:
		return "shared"
	case Persistent:
		return "persistent"
	default:
		return "unknown"
	}
}

// Value is implemented by every managed value, usually by embedding [Object].
type Value interface {
	Header() *Object
}

// Object is the reference-counting header of a managed value.
//
// The zero value holds one reference. Objects must not be copied.
type Object struct {
	_ [0]func()

	finalize func()

	// references beyond the first
	extra int64
	mode  atomic.Uint32
	freed atomic.Bool
}

// Header returns the receiver, satisfying [Value] for embedding types.
func (o *Object) Header() *Object { return o }

// SetFinalizer registers fn to run when the last reference is released.
func (o *Object) SetFinalizer(fn func()) {
	o.finalize = fn
}

// Mode returns the sharing category.
func (o *Object) Mode() Mode { return Mode(o.mode.Load()) }

// IsExclusive reports whether the object is single-owner and mutable.
func (o *Object) IsExclusive() bool { return o.Mode() == Exclusive }

// IsShared reports whether the object was marked usable by multiple tasks.
func (o *Object) IsShared() bool { return o.Mode() == Shared }

// IsPersistent reports whether the object was promoted to immortal status.
func (o *Object) IsPersistent() bool { return o.Mode() == Persistent }

// Freed reports whether the finalizer has run.
func (o *Object) Freed() bool { return o.freed.Load() }

// MarkShared makes the object usable from multiple goroutines. Persistent
// objects are left unchanged.
func (o *Object) MarkShared() {
	o.live("mark shared")
	o.mode.CompareAndSwap(uint32(Exclusive), uint32(Shared))
}

// MarkPersistent promotes the object to immortal status.
func (o *Object) MarkPersistent() {
	o.live("mark persistent")
	o.mode.Store(uint32(Persistent))
}

// RefCount returns the number of live references, zero once freed.
func (o *Object) RefCount() int {
	if o.freed.Load() {
		return 0
	}
	if o.IsShared() {
		return int(atomic.LoadInt64(&o.extra)) + 1
	}
	return int(o.extra) + 1
}

// Inc takes an additional reference.
func (o *Object) Inc() {
	o.live("inc")
	switch o.Mode() {
	case Persistent:
	case Shared:
		atomic.AddInt64(&o.extra, 1)
	default:
		o.extra++
	}
}

// Dec releases a reference, running the finalizer when it was the last.
func (o *Object) Dec() {
	o.live("dec")
	var last bool
	switch o.Mode() {
	case Persistent:
		return
	case Shared:
		last = atomic.AddInt64(&o.extra, -1) < 0
	default:
		o.extra--
		last = o.extra < 0
	}
	if !last || !o.freed.CompareAndSwap(false, true) {
		return
	}
	if fn := o.finalize; fn != nil {
		o.finalize = nil
		fn()
	}
}

func (o *Object) live(op string) {
	if o.freed.Load() {
		fatal.Fatalf("managed: %s of freed object", op)
	}
}
