// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build unix && !linux && !darwin

package uv

import (
	"time"

	"golang.org/x/sys/unix"
)

// poller is the timer-only backend: there is no descriptor multiplexing, so
// polling just sleeps until the next deadline.
type poller struct{}

func (p *poller) init() error  { return nil }
func (p *poller) close() error { return nil }

func (p *poller) update(w *ioWatcher, events IOEvents) error {
	if events == 0 {
		return nil
	}
	return unix.ENOSYS
}

func (p *poller) forget(w *ioWatcher) { w.events = 0 }

func (p *poller) poll(timeout time.Duration) error {
	if timeout < 0 {
		// nothing could ever wake the loop
		return unix.EDEADLK
	}
	if timeout > 0 {
		time.Sleep(time.Duration(pollTimeoutMillis(timeout)) * time.Millisecond)
	}
	return nil
}
