// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package uvbridge

import (
	"io"
	"net/netip"

	"github.com/joeycumines/go-uvbridge/internal/uv"
	"github.com/joeycumines/go-uvbridge/managed"
	"github.com/joeycumines/go-uvbridge/uverr"
)

// TCP is a TCP stream or listener.
//
// Callback arguments, by operation:
//
//   - Listen: (server *TCP, err error), err nil when a connection is ready
//     for Accept
//   - ReadStart: (stream *TCP, data []byte, err error), data valid only for
//     the duration of the call, err a [uverr.EOF] [*uverr.Error] at end of
//     file, after which reading has stopped
//   - Connect, Write, Shutdown: (stream *TCP, err error)
//
// Request callbacks (connect, write, shutdown) are each invoked exactly once;
// requests outstanding when the handle closes complete with ECANCELED.
type TCP struct {
	handleCore
	native *uv.TCP

	onConnection slot
	onRead       slot
}

// NewTCP allocates a TCP handle on loop. The socket is created by Bind,
// Listen, Connect or Accept.
func NewTCP(loop *Loop) *TCP {
	l := acquireLoop(loop, "NewTCP")
	t := &TCP{native: l.Get().Unwrap().NewTCP()}
	if size := l.Get().readBufferSize; size > 0 {
		t.native.SetReadBufferSize(size)
	}
	t.attach(t, l, &t.native.Handle, func() { t.native = nil }, &t.onConnection, &t.onRead)
	return t
}

// Bind binds the socket to addr.
func (t *TCP) Bind(addr netip.AddrPort) error {
	t.enter("TCP.Bind")
	if err := t.usable(); err != nil {
		return err
	}
	if !addr.IsValid() {
		return uverr.InvalidArgument("invalid address")
	}
	return uverr.Wrap(t.native.Bind(addr))
}

// Listen starts accepting connections, reporting each to cb.
func (t *TCP) Listen(backlog int, cb managed.Callback) error {
	t.enter("TCP.Listen")
	if err := t.usable(); err != nil {
		return err
	}
	if cb == nil {
		return errNoCallback
	}
	if backlog <= 0 {
		return uverr.InvalidArgument("backlog must be positive")
	}
	if err := t.native.Listen(backlog, t.onConnect); err != nil {
		return uverr.Wrap(err)
	}
	t.onConnection.Set(cb)
	return nil
}

// Accept moves a pending connection to client, a handle fresh from NewTCP.
func (t *TCP) Accept(client *TCP) error {
	t.enter("TCP.Accept")
	if err := t.usable(); err != nil {
		return err
	}
	if client == nil || client.loop != t.loop {
		return uverr.InvalidArgument("client must be a handle on the same loop")
	}
	if err := client.usable(); err != nil {
		return err
	}
	return uverr.Wrap(t.native.Accept(client.native))
}

// Connect connects to addr, reporting the outcome to cb, which may be nil.
func (t *TCP) Connect(addr netip.AddrPort, cb managed.Callback) error {
	t.enter("TCP.Connect")
	if err := t.usable(); err != nil {
		return err
	}
	if !addr.IsValid() {
		return uverr.InvalidArgument("invalid address")
	}
	req := t.newRequest(cb)
	err := t.native.Connect(addr, func(_ *uv.TCP, err error) {
		t.complete(req, t, errorArg(err))
	})
	if err != nil {
		t.abandon(req)
		return uverr.Wrap(err)
	}
	return nil
}

// ReadStart delivers incoming data to cb, replacing any previous read
// callback.
func (t *TCP) ReadStart(cb managed.Callback) error {
	t.enter("TCP.ReadStart")
	if err := t.usable(); err != nil {
		return err
	}
	if cb == nil {
		return errNoCallback
	}
	if err := t.native.ReadStart(t.onData); err != nil {
		return uverr.Wrap(err)
	}
	t.onRead.Set(cb)
	return nil
}

// ReadStop stops reading. The read callback stays attached.
func (t *TCP) ReadStop() {
	t.enter("TCP.ReadStop")
	if t.life == StateInactive {
		t.native.ReadStop()
	}
}

// Write queues a copy of data, reporting completion to cb, which may be nil.
func (t *TCP) Write(data []byte, cb managed.Callback) error {
	t.enter("TCP.Write")
	if err := t.usable(); err != nil {
		return err
	}
	req := t.newRequest(cb)
	err := t.native.Write(data, func(_ *uv.TCP, err error) {
		t.complete(req, t, errorArg(err))
	})
	if err != nil {
		t.abandon(req)
		return uverr.Wrap(err)
	}
	return nil
}

// Shutdown closes the write side once queued writes complete, reporting the
// outcome to cb, which may be nil.
func (t *TCP) Shutdown(cb managed.Callback) error {
	t.enter("TCP.Shutdown")
	if err := t.usable(); err != nil {
		return err
	}
	req := t.newRequest(cb)
	err := t.native.Shutdown(func(_ *uv.TCP, err error) {
		t.complete(req, t, errorArg(err))
	})
	if err != nil {
		t.abandon(req)
		return uverr.Wrap(err)
	}
	return nil
}

// SockName returns the local address.
func (t *TCP) SockName() (netip.AddrPort, error) {
	t.enter("TCP.SockName")
	if err := t.usable(); err != nil {
		return netip.AddrPort{}, err
	}
	addr, err := t.native.SockName()
	return addr, uverr.Wrap(err)
}

// PeerName returns the remote address.
func (t *TCP) PeerName() (netip.AddrPort, error) {
	t.enter("TCP.PeerName")
	if err := t.usable(); err != nil {
		return netip.AddrPort{}, err
	}
	addr, err := t.native.PeerName()
	return addr, uverr.Wrap(err)
}

// SetNoDelay toggles Nagle's algorithm.
func (t *TCP) SetNoDelay(enable bool) error {
	t.enter("TCP.SetNoDelay")
	if err := t.usable(); err != nil {
		return err
	}
	return uverr.Wrap(t.native.SetNoDelay(enable))
}

// WriteQueueSize returns the number of bytes queued but not yet written.
func (t *TCP) WriteQueueSize() int {
	t.enter("TCP.WriteQueueSize")
	if t.native == nil {
		return 0
	}
	return t.native.WriteQueueSize()
}

// Requests returns the number of connect, write and shutdown requests not
// yet completed.
func (t *TCP) Requests() int {
	t.enter("TCP.Requests")
	return t.requests
}

func (t *TCP) onConnect(_ *uv.TCP, err error) {
	t.dispatch(&t.onConnection, t, errorArg(err))
}

func (t *TCP) onData(_ *uv.TCP, data []byte, err error) {
	if err == io.EOF {
		err = uverr.FromCode(uverr.EOF)
	}
	t.dispatch(&t.onRead, t, data, errorArg(err))
}
