//go:build linux || darwin

package uv

import (
	"bytes"
	"io"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

var loopback = netip.MustParseAddrPort("127.0.0.1:0")

// listenEcho starts a server echoing everything it reads, closing each
// connection once reading fails.
func listenEcho(t *testing.T, l *Loop) (*TCP, netip.AddrPort) {
	t.Helper()
	server := l.NewTCP()
	require.NoError(t, server.Bind(loopback))
	require.NoError(t, server.Listen(16, func(s *TCP, err error) {
		require.NoError(t, err)
		conn := l.NewTCP()
		require.NoError(t, s.Accept(conn))
		require.NoError(t, conn.ReadStart(func(c *TCP, data []byte, err error) {
			if err != nil {
				c.Close(nil)
				return
			}
			require.NoError(t, c.Write(data, func(_ *TCP, err error) { assert.NoError(t, err) }))
		}))
	}))
	addr, err := server.SockName()
	require.NoError(t, err)
	require.True(t, addr.Addr().IsLoopback())
	require.NotZero(t, addr.Port())
	return server, addr
}

func TestTCP_Echo(t *testing.T) {
	l := newTestLoop(t)
	server, addr := listenEcho(t, l)

	client := l.NewTCP()
	var (
		got      bytes.Buffer
		writes   int
		shutdown bool
	)
	require.NoError(t, client.Connect(addr, func(c *TCP, err error) {
		require.NoError(t, err)
		assert.True(t, c.IsConnected())
		peer, err := c.PeerName()
		require.NoError(t, err)
		assert.Equal(t, addr, peer)
		require.NoError(t, c.SetNoDelay(true))

		require.NoError(t, c.ReadStart(func(c *TCP, data []byte, err error) {
			if err != nil {
				assert.ErrorIs(t, err, io.EOF)
				assert.False(t, c.IsReading())
				c.Close(nil)
				server.Close(nil)
				return
			}
			got.Write(data)
		}))
		for _, s := range []string{"hello ", "world"} {
			require.NoError(t, c.Write([]byte(s), func(_ *TCP, err error) {
				assert.NoError(t, err)
				writes++
			}))
		}
		require.NoError(t, c.Shutdown(func(_ *TCP, err error) {
			assert.NoError(t, err)
			assert.Equal(t, 2, writes)
			shutdown = true
		}))
		assert.Equal(t, unix.EPIPE, c.Write([]byte("late"), func(*TCP, error) {}))
		assert.Equal(t, unix.EALREADY, c.Shutdown(func(*TCP, error) {}))
	}))
	assert.Equal(t, unix.EALREADY, client.Connect(addr, func(*TCP, error) {}))

	alive, err := l.Run(RunDefault)
	require.NoError(t, err)
	assert.False(t, alive)
	assert.Equal(t, "hello world", got.String())
	assert.True(t, shutdown)
	assert.Zero(t, l.Handles())
}

func TestTCP_PendingWritesCanceledOnClose(t *testing.T) {
	l := newTestLoop(t)
	server := l.NewTCP()
	require.NoError(t, server.Bind(loopback))
	var conn *TCP
	require.NoError(t, server.Listen(1, func(s *TCP, err error) {
		require.NoError(t, err)
		// accepted but never read, so the client's send buffer fills
		conn = l.NewTCP()
		require.NoError(t, s.Accept(conn))
	}))
	addr, err := server.SockName()
	require.NoError(t, err)

	var order []string
	client := l.NewTCP()
	require.NoError(t, client.Connect(addr, func(c *TCP, err error) {
		require.NoError(t, err)
		require.NoError(t, c.Write(make([]byte, 64<<20), func(_ *TCP, err error) {
			assert.Equal(t, unix.ECANCELED, err)
			order = append(order, "write")
		}))
		assert.Positive(t, c.WriteQueueSize())
		c.Close(func(*Handle) {
			order = append(order, "close")
			if conn != nil {
				conn.Close(nil)
			}
			server.Close(nil)
		})
	}))

	_, err = l.Run(RunDefault)
	require.NoError(t, err)
	assert.Equal(t, []string{"write", "close"}, order)
	assert.Zero(t, l.activeReqs)
}

func TestTCP_ConnectRefused(t *testing.T) {
	l := newTestLoop(t)
	probe := l.NewTCP()
	require.NoError(t, probe.Bind(loopback))
	addr, err := probe.SockName()
	require.NoError(t, err)
	probe.Close(nil)
	_, err = l.Run(RunDefault)
	require.NoError(t, err)

	client := l.NewTCP()
	var got error
	require.NoError(t, client.Connect(addr, func(c *TCP, err error) {
		got = err
		assert.False(t, c.IsConnected())
		c.Close(nil)
	}))
	_, err = l.Run(RunDefault)
	require.NoError(t, err)
	assert.Equal(t, unix.ECONNREFUSED, got)
}

func TestTCP_ConnectCanceledOnClose(t *testing.T) {
	l := newTestLoop(t)
	server, addr := listenEcho(t, l)
	client := l.NewTCP()
	var got error
	require.NoError(t, client.Connect(addr, func(_ *TCP, err error) { got = err }))
	client.Close(nil)
	assert.Equal(t, -1, client.Fd())

	_, err := l.Run(RunNoWait)
	require.NoError(t, err)
	assert.Equal(t, unix.ECANCELED, got)
	assert.Zero(t, l.activeReqs)

	server.Close(nil)
	_, err = l.Run(RunDefault)
	require.NoError(t, err)
}

func TestTCP_Misuse(t *testing.T) {
	l := newTestLoop(t)
	h := l.NewTCP()
	nop := func(*TCP, error) {}

	assert.Equal(t, unix.ENOTCONN, h.Write([]byte("x"), nop))
	assert.Equal(t, unix.ENOTCONN, h.ReadStart(func(*TCP, []byte, error) {}))
	assert.Equal(t, unix.ENOTCONN, h.Shutdown(nop))
	other := l.NewTCP()
	assert.Equal(t, unix.EAGAIN, h.Accept(other))
	assert.Equal(t, unix.EINVAL, h.Listen(1, nil))
	assert.Equal(t, unix.EINVAL, h.Connect(loopback, nil))
	_, err := h.SockName()
	assert.Equal(t, unix.EBADF, err)
	_, err = h.PeerName()
	assert.Equal(t, unix.EBADF, err)
	assert.Equal(t, unix.EBADF, h.SetNoDelay(true))
	h.ReadStop()

	h.Close(nil)
	other.Close(nil)
	assert.Equal(t, unix.EINVAL, h.Bind(loopback))
	assert.Equal(t, unix.EINVAL, h.Listen(1, func(*TCP, error) {}))
	_, err = l.Run(RunDefault)
	require.NoError(t, err)
	assert.Zero(t, l.Handles())
}

func TestTCP_ListenAutoBinds(t *testing.T) {
	l := newTestLoop(t)
	h := l.NewTCP()
	require.NoError(t, h.Listen(1, func(*TCP, error) {}))
	assert.True(t, h.IsListening())
	assert.True(t, h.IsActive())
	addr, err := h.SockName()
	require.NoError(t, err)
	assert.True(t, addr.Addr().Is4())
	assert.NotZero(t, addr.Port())

	h.Close(nil)
	assert.False(t, h.IsListening())
	_, err = l.Run(RunDefault)
	require.NoError(t, err)
}
