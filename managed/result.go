// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package managed

import (
	"errors"
)

// ErrNilFailure stands in for a nil error passed to [Fail].
var ErrNilFailure = errors.New("managed: failure without error")

// Result is the outcome of an IO action: a value or an error.
type Result struct {
	value any
	err   error
}

// Ok returns a successful result carrying v. If v is a managed [Value], the
// result owns the caller's reference to it.
func Ok(v any) Result { return Result{value: v} }

// Unit returns a successful result without a value.
func Unit() Result { return Result{} }

// Fail returns a failed result.
func Fail(err error) Result {
	if err == nil {
		err = ErrNilFailure
	}
	return Result{err: err}
}

// IsOk reports whether the result is a success.
func (r Result) IsOk() bool { return r.err == nil }

// Err returns the failure, or nil.
func (r Result) Err() error { return r.err }

// Value returns the success payload, or nil.
func (r Result) Value() any { return r.value }

// Release drops the result's reference to any managed payload.
func (r Result) Release() {
	if v, ok := r.value.(Value); ok {
		v.Header().Dec()
	}
	if v, ok := r.err.(Value); ok {
		v.Header().Dec()
	}
}
