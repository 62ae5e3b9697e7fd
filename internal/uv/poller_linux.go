// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build linux

package uv

import (
	"time"

	"golang.org/x/sys/unix"
)

// poller multiplexes I/O readiness using epoll.
type poller struct {
	watchers map[int]*ioWatcher
	eventBuf [128]unix.EpollEvent
	epfd     int
}

func (p *poller) init() error {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return err
	}
	p.epfd = epfd
	p.watchers = make(map[int]*ioWatcher)
	return nil
}

func (p *poller) close() error {
	clear(p.watchers)
	return unix.Close(p.epfd)
}

// update registers, modifies or removes w, so that the backend watches for
// exactly events. Zero events removes the watcher.
func (p *poller) update(w *ioWatcher, events IOEvents) error {
	if events == w.events {
		return nil
	}
	var op int
	switch {
	case events == 0:
		op = unix.EPOLL_CTL_DEL
	case w.events == 0:
		op = unix.EPOLL_CTL_ADD
	default:
		op = unix.EPOLL_CTL_MOD
	}
	ev := &unix.EpollEvent{
		Events: eventsToEpoll(events),
		Fd:     int32(w.fd),
	}
	if err := unix.EpollCtl(p.epfd, op, w.fd, ev); err != nil {
		return err
	}
	w.events = events
	if events == 0 {
		delete(p.watchers, w.fd)
	} else {
		p.watchers[w.fd] = w
	}
	return nil
}

// forget drops w without a syscall, for descriptors about to be closed.
func (p *poller) forget(w *ioWatcher) {
	if p.watchers[w.fd] == w {
		delete(p.watchers, w.fd)
	}
	w.events = 0
}

func (p *poller) poll(timeout time.Duration) error {
	n, err := unix.EpollWait(p.epfd, p.eventBuf[:], pollTimeoutMillis(timeout))
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return err
	}
	for i := range n {
		ev := p.eventBuf[i]
		// callbacks earlier in the batch may have removed or replaced it
		w := p.watchers[int(ev.Fd)]
		if w == nil || w.events == 0 {
			continue
		}
		w.cb(epollToEvents(ev.Events))
	}
	return nil
}

func eventsToEpoll(events IOEvents) uint32 {
	var ev uint32
	if events&EventRead != 0 {
		ev |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if events&EventWrite != 0 {
		ev |= unix.EPOLLOUT
	}
	return ev
}

func epollToEvents(ev uint32) IOEvents {
	var events IOEvents
	if ev&unix.EPOLLIN != 0 {
		events |= EventRead
	}
	if ev&unix.EPOLLOUT != 0 {
		events |= EventWrite
	}
	if ev&unix.EPOLLERR != 0 {
		events |= EventError
	}
	if ev&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
		events |= EventHangup
	}
	return events
}
