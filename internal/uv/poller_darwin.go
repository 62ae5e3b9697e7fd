// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build darwin

package uv

import (
	"time"

	"golang.org/x/sys/unix"
)

// poller multiplexes I/O readiness using kqueue.
type poller struct {
	watchers map[int]*ioWatcher
	eventBuf [128]unix.Kevent_t
	changes  []unix.Kevent_t
	kq       int
}

func (p *poller) init() error {
	kq, err := unix.Kqueue()
	if err != nil {
		return err
	}
	unix.CloseOnExec(kq)
	p.kq = kq
	p.watchers = make(map[int]*ioWatcher)
	return nil
}

func (p *poller) close() error {
	clear(p.watchers)
	return unix.Close(p.kq)
}

// update registers, modifies or removes w, so that the backend watches for
// exactly events. Zero events removes the watcher.
func (p *poller) update(w *ioWatcher, events IOEvents) error {
	if events == w.events {
		return nil
	}
	p.changes = appendKevents(p.changes[:0], w.fd, w.events&^events, unix.EV_DELETE)
	p.changes = appendKevents(p.changes, w.fd, events&^w.events, unix.EV_ADD|unix.EV_ENABLE)
	if len(p.changes) != 0 {
		if _, err := unix.Kevent(p.kq, p.changes, nil, nil); err != nil {
			return err
		}
	}
	w.events = events
	if events == 0 {
		delete(p.watchers, w.fd)
	} else {
		p.watchers[w.fd] = w
	}
	return nil
}

// forget drops w without a syscall, for descriptors about to be closed,
// which kqueue removes on close.
func (p *poller) forget(w *ioWatcher) {
	if p.watchers[w.fd] == w {
		delete(p.watchers, w.fd)
	}
	w.events = 0
}

func (p *poller) poll(timeout time.Duration) error {
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(int64(pollTimeoutMillis(timeout)) * int64(time.Millisecond))
		ts = &t
	}
	n, err := unix.Kevent(p.kq, nil, p.eventBuf[:], ts)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return err
	}
	for i := range n {
		ev := &p.eventBuf[i]
		// callbacks earlier in the batch may have removed or replaced it
		w := p.watchers[int(ev.Ident)]
		if w == nil || w.events == 0 {
			continue
		}
		w.cb(keventToEvents(ev))
	}
	return nil
}

func appendKevents(dst []unix.Kevent_t, fd int, events IOEvents, flags uint16) []unix.Kevent_t {
	if events&EventRead != 0 {
		dst = append(dst, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: unix.EVFILT_READ,
			Flags:  flags,
		})
	}
	if events&EventWrite != 0 {
		dst = append(dst, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: unix.EVFILT_WRITE,
			Flags:  flags,
		})
	}
	return dst
}

func keventToEvents(ev *unix.Kevent_t) IOEvents {
	var events IOEvents
	switch ev.Filter {
	case unix.EVFILT_READ:
		events |= EventRead
	case unix.EVFILT_WRITE:
		events |= EventWrite
	}
	if ev.Flags&unix.EV_ERROR != 0 {
		events |= EventError
	}
	if ev.Flags&unix.EV_EOF != 0 {
		events |= EventHangup
	}
	return events
}
