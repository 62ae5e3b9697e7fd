// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package uverr converts native status codes to and from managed errors.
//
// Two kinds of recoverable error exist: [*Error], which carries a native
// status code, and [*ArgumentError], which reports API misuse independent of
// any native code. Both are plain values; constructing them has no side
// effects beyond allocation.
package uverr

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"golang.org/x/sys/unix"

	"github.com/joeycumines/go-uvbridge/managed"
)

// Code is a native status code.
type Code = unix.Errno

// EOF is the pseudo status reported when a stream reaches end of file. It is
// outside the range used by the kernel.
const EOF Code = 4095

// ErrInvalidArgument matches every [*ArgumentError] via [errors.Is].
var ErrInvalidArgument = errors.New("uverr: invalid argument")

type codeInfo struct {
	name    string
	message string
}

var known = map[Code]codeInfo{
	EOF:                  {"EOF", "end of file"},
	unix.E2BIG:           {"E2BIG", "argument list too long"},
	unix.EACCES:          {"EACCES", "permission denied"},
	unix.EADDRINUSE:      {"EADDRINUSE", "address already in use"},
	unix.EADDRNOTAVAIL:   {"EADDRNOTAVAIL", "address not available"},
	unix.EAFNOSUPPORT:    {"EAFNOSUPPORT", "address family not supported"},
	unix.EAGAIN:          {"EAGAIN", "resource temporarily unavailable"},
	unix.EALREADY:        {"EALREADY", "connection already in progress"},
	unix.EBADF:           {"EBADF", "bad file descriptor"},
	unix.EBUSY:           {"EBUSY", "resource busy or locked"},
	unix.ECANCELED:       {"ECANCELED", "operation canceled"},
	unix.ECONNABORTED:    {"ECONNABORTED", "software caused connection abort"},
	unix.ECONNREFUSED:    {"ECONNREFUSED", "connection refused"},
	unix.ECONNRESET:      {"ECONNRESET", "connection reset by peer"},
	unix.EEXIST:          {"EEXIST", "file already exists"},
	unix.EHOSTUNREACH:    {"EHOSTUNREACH", "host is unreachable"},
	unix.EINTR:           {"EINTR", "interrupted system call"},
	unix.EINVAL:          {"EINVAL", "invalid argument"},
	unix.EIO:             {"EIO", "i/o error"},
	unix.EISCONN:         {"EISCONN", "socket is already connected"},
	unix.EMFILE:          {"EMFILE", "too many open files"},
	unix.EMSGSIZE:        {"EMSGSIZE", "message too long"},
	unix.ENETDOWN:        {"ENETDOWN", "network is down"},
	unix.ENETUNREACH:     {"ENETUNREACH", "network is unreachable"},
	unix.ENFILE:          {"ENFILE", "file table overflow"},
	unix.ENOBUFS:         {"ENOBUFS", "no buffer space available"},
	unix.ENOENT:          {"ENOENT", "no such file or directory"},
	unix.ENOMEM:          {"ENOMEM", "not enough memory"},
	unix.ENOSYS:          {"ENOSYS", "function not implemented"},
	unix.ENOTCONN:        {"ENOTCONN", "socket is not connected"},
	unix.ENOTSOCK:        {"ENOTSOCK", "socket operation on non-socket"},
	unix.ENOTSUP:         {"ENOTSUP", "operation not supported on socket"},
	unix.EPERM:           {"EPERM", "operation not permitted"},
	unix.EPIPE:           {"EPIPE", "broken pipe"},
	unix.EPROTO:          {"EPROTO", "protocol error"},
	unix.EPROTONOSUPPORT: {"EPROTONOSUPPORT", "protocol not supported"},
	unix.ETIMEDOUT:       {"ETIMEDOUT", "connection timed out"},
}

// Supported returns the codes with a dedicated name and message, sorted.
func Supported() []Code {
	codes := make([]Code, 0, len(known))
	for c := range known {
		codes = append(codes, c)
	}
	slices.Sort(codes)
	return codes
}

// Error is a managed error carrying a native status code.
type Error struct {
	Code Code
}

// FromCode converts a native status code into a managed error.
func FromCode(code Code) *Error {
	return &Error{Code: code}
}

// IOError converts a native status code into a failed IO result.
func IOError(code Code) managed.Result {
	return managed.Fail(FromCode(code))
}

// Name returns the symbolic name of the code, e.g. ECONNREFUSED.
func (e *Error) Name() string {
	if info, ok := known[e.Code]; ok {
		return info.name
	}
	if name := unix.ErrnoName(e.Code); name != "" {
		return name
	}
	return fmt.Sprintf("E%d", int(e.Code))
}

// Message returns the human-readable description of the code.
func (e *Error) Message() string {
	if info, ok := known[e.Code]; ok {
		return info.message
	}
	return e.Code.Error()
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Name() + ": " + e.Message()
}

// Unwrap exposes the underlying errno, or [io.EOF] for [EOF].
func (e *Error) Unwrap() error {
	if e.Code == EOF {
		return io.EOF
	}
	return e.Code
}

// ArgumentError reports API misuse, such as an operation on a closed handle.
type ArgumentError struct {
	Message string
}

// InvalidArgument returns a bad-argument error with the given message.
func InvalidArgument(message string) *ArgumentError {
	return &ArgumentError{Message: message}
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	if e.Message == "" {
		return "invalid argument"
	}
	return "invalid argument: " + e.Message
}

// Is matches [ErrInvalidArgument].
func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// CodeOf extracts the native status code from err.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		return errno, true
	}
	if errors.Is(err, io.EOF) {
		return EOF, true
	}
	return 0, false
}

// Wrap normalises an error returned by the native layer into an [*Error],
// leaving errors without a status code unchanged.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	var sc *os.SyscallError
	if errors.As(err, &sc) {
		err = sc.Err
	}
	if code, ok := CodeOf(err); ok {
		return FromCode(code)
	}
	return err
}
