// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package managed

import (
	"github.com/joeycumines/go-uvbridge/internal/fatal"
)

// Callback is a managed function value invoked on native events.
type Callback interface {
	Value
	Invoke(args ...any) Result
}

// Closure is the Go implementation of [Callback].
type Closure struct {
	Object
	fn func(args ...any) Result
}

var _ Callback = (*Closure)(nil)

// Func allocates a closure over fn, holding one reference.
func Func(fn func(args ...any) Result) *Closure {
	return &Closure{fn: fn}
}

// Invoke calls the closure. The caller keeps its reference.
func (c *Closure) Invoke(args ...any) Result {
	if c.Freed() {
		fatal.Fatalf("managed: invoke of freed closure")
	}
	if c.fn == nil {
		return Unit()
	}
	return c.fn(args...)
}
