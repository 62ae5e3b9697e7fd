// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package gojauv exposes a [uvbridge.Loop] to JavaScript running in a
// [goja.Runtime].
//
// JavaScript functions become managed callbacks: a function that throws
// produces a failed result, so the first exception thrown by a callback
// during [Adapter.Run] stops the loop and is returned by Run.
//
// # Available JavaScript Globals
//
// After [Adapter.Bind], a global "uv" object provides:
//
//   - uv.timer(callback) → timer: start(timeoutMs, repeatMs?), stop(),
//     again(), setRepeat(ms), dueIn(), state(), close()
//   - uv.idle(callback) → idle: start(), stop(), state(), close()
//   - uv.check(callback) → check: start(), stop(), state(), close()
//   - uv.tcp() → tcp: bind(host, port), listen(backlog, callback(err)),
//     accept() → tcp, connect(host, port, callback(err)?),
//     readStart(callback(data, err)), readStop(), write(data,
//     callback(err)?), shutdown(callback(err)?), sockName(), peerName(),
//     setNoDelay(enable), state(), close()
//   - uv.stop()
//   - uv.now() → loop time, in milliseconds
//
// Callbacks are invoked with the handle as this. Errors passed to callbacks
// are Error objects with code (e.g. "ECONNREFUSED" or "EOF") and errno
// properties. Data read from a stream is an ArrayBuffer; write accepts a
// string, an ArrayBuffer or a Uint8Array.
//
// Misuse, such as a negative timeout or use of a closed handle, throws a
// TypeError. Other failures of synchronous calls throw an Error.
package gojauv
