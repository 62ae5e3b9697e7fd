// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package managed models the reference-counted object space that drives the
// native loop bridge.
//
// Every managed value embeds an [Object] header. The header starts with a
// single reference, owned by whoever constructed the value. [Object.Inc] and
// [Object.Dec] adjust the count, and the finalizer registered with
// [Object.SetFinalizer] runs exactly once, when the count drops to zero.
//
// Objects are exclusive by default: single-owner, mutated in place, counted
// without atomics. [Object.MarkShared] makes an object usable by multiple
// goroutines (counts become atomic), and [Object.MarkPersistent] makes it
// immortal. Values that embed native handles must stay exclusive, see the
// affinity package.
//
// [External] wraps a native pointer as a managed value, with O(1) access via
// [External.Unwrap]. [Closure] and [Result] provide the callback and IO result
// shapes used by the dispatch protocol.
package managed
