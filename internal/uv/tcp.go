// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package uv

import (
	"bytes"
	"io"
	"net/netip"

	"github.com/eapache/queue"
	"golang.org/x/sys/unix"
)

// DefaultReadBufferSize is the size of the buffer each reading TCP handle
// reads into.
const DefaultReadBufferSize = 64 << 10

// maximum reads per readiness notification, so one busy stream cannot
// starve the others
const maxReadsPerEvent = 32

type (
	// ConnectionCallback is invoked on a listening handle when a connection
	// is ready for [TCP.Accept], or when accepting failed.
	ConnectionCallback func(server *TCP, err error)

	// ReadCallback receives data read from a stream. The data is only valid
	// for the duration of the call. End of file is reported as [io.EOF],
	// after which reading has stopped.
	ReadCallback func(stream *TCP, data []byte, err error)

	// RequestCallback reports completion of a connect, write or shutdown
	// request. Requests outstanding when the handle closes complete with
	// ECANCELED, before the close callback.
	RequestCallback func(stream *TCP, err error)
)

// TCP is a TCP stream or listener.
type TCP struct {
	Handle

	w ioWatcher

	connectionCb ConnectionCallback
	readCb       ReadCallback
	connectReq   RequestCallback
	shutdownReq  RequestCallback

	// queued writes, *writeReq
	writes *queue.Queue
	// finished writes awaiting their callback, *writeReq
	done *queue.Queue

	readBuf []byte

	// descriptor accepted but not yet claimed by Accept, or -1
	accepted int

	listening      bool
	reading        bool
	connected      bool
	shutdownIssued bool
	notifyQueued   bool
}

type writeReq struct {
	cb   RequestCallback
	err  error
	data []byte
	off  int
}

// NewTCP allocates a TCP handle. The socket is created lazily, by Bind,
// Listen or Connect.
func (l *Loop) NewTCP() *TCP {
	t := &TCP{
		writes:   queue.New(),
		done:     queue.New(),
		accepted: -1,
	}
	t.w.fd = -1
	t.w.cb = t.onIO
	t.init(l, KindTCP, t.teardown, t.cancelRequests)
	return t
}

// Fd returns the socket descriptor, or -1.
func (t *TCP) Fd() int { return t.w.fd }

// SetReadBufferSize sets the size of the read buffer, used from the next
// readiness notification.
func (t *TCP) SetReadBufferSize(n int) {
	if n > 0 && n != len(t.readBuf) {
		t.readBuf = make([]byte, n)
	}
}

// Bind binds the socket to addr, creating it if needed.
func (t *TCP) Bind(addr netip.AddrPort) error {
	if t.IsClosing() {
		return unix.EINVAL
	}
	family, sa, err := sockaddrOf(addr)
	if err != nil {
		return err
	}
	if err := t.open(family); err != nil {
		return err
	}
	if err := unix.SetsockoptInt(t.w.fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return err
	}
	return unix.Bind(t.w.fd, sa)
}

// Listen starts accepting connections, binding to an ephemeral IPv4 port if
// the socket is unbound. Listening again only replaces the callback.
func (t *TCP) Listen(backlog int, cb ConnectionCallback) error {
	if t.IsClosing() || cb == nil {
		return unix.EINVAL
	}
	if t.listening {
		t.connectionCb = cb
		return nil
	}
	if err := t.open(unix.AF_INET); err != nil {
		return err
	}
	if err := unix.Listen(t.w.fd, backlog); err != nil {
		return err
	}
	t.connectionCb = cb
	t.listening = true
	if err := t.updateIO(); err != nil {
		t.listening = false
		return err
	}
	t.startActive()
	return nil
}

// Accept hands the pending connection of a listening handle to client,
// which must be a fresh handle. Fails with EAGAIN if nothing is pending.
func (t *TCP) Accept(client *TCP) error {
	if !t.listening || t.accepted < 0 {
		return unix.EAGAIN
	}
	if client.IsClosing() {
		return unix.EINVAL
	}
	if client.w.fd >= 0 {
		return unix.EISCONN
	}
	client.w.fd = t.accepted
	client.connected = true
	t.accepted = -1
	return t.updateIO()
}

// Connect starts connecting to addr; cb reports the outcome. Connection
// errors are always reported through cb, in a later phase of the loop.
func (t *TCP) Connect(addr netip.AddrPort, cb RequestCallback) error {
	switch {
	case t.IsClosing() || cb == nil:
		return unix.EINVAL
	case t.connectReq != nil:
		return unix.EALREADY
	case t.connected:
		return unix.EISCONN
	}
	family, sa, err := sockaddrOf(addr)
	if err != nil {
		return err
	}
	if err := t.open(family); err != nil {
		return err
	}

	for {
		err = unix.Connect(t.w.fd, sa)
		if err != unix.EINTR {
			break
		}
	}

	t.connectReq = cb
	t.loop.activeReqs++

	if err != nil && err != unix.EINPROGRESS {
		t.loop.queuePending(func() { t.finishConnect(err) })
		return nil
	}
	if err := t.updateIO(); err != nil {
		t.connectReq = nil
		t.loop.activeReqs--
		return err
	}
	return nil
}

// ReadStart delivers incoming data to cb until ReadStop, end of file, or a
// read error. Calling it while reading replaces the callback.
func (t *TCP) ReadStart(cb ReadCallback) error {
	if t.IsClosing() || cb == nil {
		return unix.EINVAL
	}
	if !t.connected {
		return unix.ENOTCONN
	}
	t.readCb = cb
	if t.reading {
		return nil
	}
	t.reading = true
	if err := t.updateIO(); err != nil {
		t.reading = false
		return err
	}
	t.startActive()
	return nil
}

// ReadStop stops reading. Stopping when not reading does nothing.
func (t *TCP) ReadStop() {
	if !t.reading {
		return
	}
	t.reading = false
	_ = t.updateIO()
	if !t.listening {
		t.stopActive()
	}
}

// IsReading reports whether the handle is reading.
func (t *TCP) IsReading() bool { return t.reading }

// IsListening reports whether the handle is listening.
func (t *TCP) IsListening() bool { return t.listening }

// IsConnected reports whether the handle has a connected socket.
func (t *TCP) IsConnected() bool { return t.connected }

// Write queues a copy of data; cb reports completion, always in a later
// phase of the loop.
func (t *TCP) Write(data []byte, cb RequestCallback) error {
	switch {
	case t.IsClosing() || cb == nil:
		return unix.EINVAL
	case !t.connected:
		return unix.ENOTCONN
	case t.shutdownReq != nil || t.shutdownIssued:
		return unix.EPIPE
	}
	t.writes.Add(&writeReq{cb: cb, data: bytes.Clone(data)})
	t.loop.activeReqs++
	if t.writes.Length() == 1 {
		t.flushWrites()
	}
	return nil
}

// WriteQueueSize returns the number of bytes queued but not yet written.
func (t *TCP) WriteQueueSize() int {
	var n int
	for i := range t.writes.Length() {
		req := t.writes.Get(i).(*writeReq)
		n += len(req.data) - req.off
	}
	return n
}

// Shutdown closes the write side once queued writes are flushed.
func (t *TCP) Shutdown(cb RequestCallback) error {
	switch {
	case t.IsClosing() || cb == nil:
		return unix.EINVAL
	case !t.connected:
		return unix.ENOTCONN
	case t.shutdownReq != nil || t.shutdownIssued:
		return unix.EALREADY
	}
	t.shutdownReq = cb
	t.loop.activeReqs++
	if t.writes.Length() == 0 {
		t.issueShutdown()
	}
	return nil
}

// SockName returns the local address.
func (t *TCP) SockName() (netip.AddrPort, error) {
	if t.w.fd < 0 {
		return netip.AddrPort{}, unix.EBADF
	}
	sa, err := unix.Getsockname(t.w.fd)
	if err != nil {
		return netip.AddrPort{}, err
	}
	return addrPortOf(sa)
}

// PeerName returns the remote address.
func (t *TCP) PeerName() (netip.AddrPort, error) {
	if t.w.fd < 0 {
		return netip.AddrPort{}, unix.EBADF
	}
	sa, err := unix.Getpeername(t.w.fd)
	if err != nil {
		return netip.AddrPort{}, err
	}
	return addrPortOf(sa)
}

// SetNoDelay toggles Nagle's algorithm.
func (t *TCP) SetNoDelay(enable bool) error {
	if t.w.fd < 0 {
		return unix.EBADF
	}
	v := 0
	if enable {
		v = 1
	}
	return unix.SetsockoptInt(t.w.fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, v)
}

func (t *TCP) open(family int) error {
	if t.w.fd >= 0 {
		return nil
	}
	fd, err := openSocket(family)
	if err != nil {
		return err
	}
	t.w.fd = fd
	return nil
}

func (t *TCP) updateIO() error {
	if t.w.fd < 0 {
		return nil
	}
	var events IOEvents
	if (t.listening && t.accepted < 0) || t.reading {
		events |= EventRead
	}
	if t.connectReq != nil || t.writes.Length() > 0 {
		events |= EventWrite
	}
	return t.loop.poller.update(&t.w, events)
}

func (t *TCP) onIO(events IOEvents) {
	if t.listening && events&(EventRead|EventError) != 0 {
		t.onAcceptable()
	}
	if t.connectReq != nil && events&(EventWrite|EventError|EventHangup) != 0 {
		t.onConnectable()
	}
	if t.reading && events&(EventRead|EventError|EventHangup) != 0 {
		t.onReadable()
	}
	if t.writes.Length() > 0 && events&(EventWrite|EventError|EventHangup) != 0 {
		t.flushWrites()
	}
}

func (t *TCP) onAcceptable() {
loop:
	for t.listening && t.accepted < 0 && !t.IsClosing() {
		fd, err := acceptSocket(t.w.fd)
		switch err {
		case nil:
		case unix.EINTR, unix.ECONNABORTED:
			continue
		case unix.EAGAIN:
			break loop
		default:
			t.connectionCb(t, err)
			return
		}
		t.accepted = fd
		t.connectionCb(t, nil)
	}
	_ = t.updateIO()
}

func (t *TCP) onConnectable() {
	if t.IsClosing() {
		return
	}
	var err error
	soerr, gerr := unix.GetsockoptInt(t.w.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	switch {
	case gerr != nil:
		err = gerr
	case soerr != 0:
		err = unix.Errno(soerr)
	}
	t.finishConnect(err)
}

func (t *TCP) finishConnect(err error) {
	cb := t.connectReq
	if cb == nil {
		return
	}
	t.connectReq = nil
	t.loop.activeReqs--
	if err == nil {
		t.connected = true
	}
	_ = t.updateIO()
	cb(t, err)
}

func (t *TCP) onReadable() {
	if len(t.readBuf) == 0 {
		t.readBuf = make([]byte, DefaultReadBufferSize)
	}
	for range maxReadsPerEvent {
		if !t.reading || t.IsClosing() {
			return
		}
		n, err := unix.Read(t.w.fd, t.readBuf)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			return
		case err != nil:
			t.ReadStop()
			t.readCb(t, nil, err)
			return
		case n == 0:
			t.ReadStop()
			t.readCb(t, nil, io.EOF)
			return
		}
		t.readCb(t, t.readBuf[:n], nil)
	}
}

func (t *TCP) flushWrites() {
	for t.writes.Length() > 0 && !t.IsClosing() {
		req := t.writes.Peek().(*writeReq)
		n, err := unix.Write(t.w.fd, req.data[req.off:])
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			break
		}
		if err != nil {
			for t.writes.Length() > 0 {
				t.writeDone(t.writes.Remove().(*writeReq), err)
			}
			break
		}
		req.off += n
		if req.off == len(req.data) {
			t.writeDone(t.writes.Remove().(*writeReq), nil)
		}
	}
	if t.writes.Length() == 0 && t.shutdownReq != nil && !t.shutdownIssued {
		t.issueShutdown()
	}
	_ = t.updateIO()
}

func (t *TCP) writeDone(req *writeReq, err error) {
	req.err = err
	t.done.Add(req)
	if !t.notifyQueued {
		t.notifyQueued = true
		t.loop.queuePending(t.notifyWrites)
	}
}

func (t *TCP) notifyWrites() {
	t.notifyQueued = false
	for range t.done.Length() {
		req := t.done.Remove().(*writeReq)
		t.loop.activeReqs--
		req.cb(t, req.err)
	}
}

func (t *TCP) issueShutdown() {
	t.shutdownIssued = true
	err := unix.Shutdown(t.w.fd, unix.SHUT_WR)
	t.loop.queuePending(func() { t.finishShutdown(err) })
}

func (t *TCP) finishShutdown(err error) {
	cb := t.shutdownReq
	if cb == nil {
		return
	}
	t.shutdownReq = nil
	t.loop.activeReqs--
	cb(t, err)
}

// teardown releases the descriptors, on Close.
func (t *TCP) teardown() {
	t.listening = false
	t.reading = false
	if t.w.fd >= 0 {
		if t.loop.poller.update(&t.w, 0) != nil {
			t.loop.poller.forget(&t.w)
		}
		_ = unix.Close(t.w.fd)
		t.w.fd = -1
	}
	if t.accepted >= 0 {
		_ = unix.Close(t.accepted)
		t.accepted = -1
	}
}

// cancelRequests completes every outstanding request, before the close
// callback.
func (t *TCP) cancelRequests() {
	t.notifyWrites()
	t.finishConnect(unix.ECANCELED)
	for t.writes.Length() > 0 {
		req := t.writes.Remove().(*writeReq)
		t.loop.activeReqs--
		req.cb(t, unix.ECANCELED)
	}
	t.finishShutdown(unix.ECANCELED)
}
