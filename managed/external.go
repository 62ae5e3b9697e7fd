// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package managed

// External is a managed value wrapping a native pointer.
type External[T any] struct {
	Object
	data *T
}

// Wrap allocates a managed value over data. No extra reference is taken on
// anything: the returned value holds the creator's single reference, and
// finalize, if non-nil, runs once that reference is released.
func Wrap[T any](data *T, finalize func(*T)) *External[T] {
	x := new(External[T])
	x.Init(data, finalize)
	return x
}

// Init prepares an External embedded in a larger struct.
func (x *External[T]) Init(data *T, finalize func(*T)) {
	x.data = data
	if finalize != nil {
		x.SetFinalizer(func() { finalize(data) })
	}
}

// Unwrap returns the wrapped native pointer.
func (x *External[T]) Unwrap() *T { return x.data }
