package uv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func newTestLoop(t *testing.T) *Loop {
	t.Helper()
	l, err := New()
	require.NoError(t, err)
	t.Cleanup(func() {
		if !l.closed && l.handles == 0 {
			assert.NoError(t, l.Close())
		}
	})
	return l
}

func TestLoop_RunEmpty(t *testing.T) {
	l := newTestLoop(t)
	for _, mode := range []RunMode{RunDefault, RunOnce, RunNoWait} {
		alive, err := l.Run(mode)
		require.NoError(t, err, mode)
		assert.False(t, alive, mode)
	}
}

func TestLoop_PhaseOrder(t *testing.T) {
	l := newTestLoop(t)
	var order []string

	timer := l.NewTimer()
	idle := l.NewIdle()
	check := l.NewCheck()

	require.NoError(t, timer.Start(func(*Timer) { order = append(order, "timer") }, 0, 0))
	require.NoError(t, idle.Start(func(*Idle) { order = append(order, "idle") }))
	require.NoError(t, check.Start(func(h *Check) {
		order = append(order, "check")
		h.Stop()
		timer.Close(func(*Handle) { order = append(order, "close timer") })
		idle.Close(func(*Handle) { order = append(order, "close idle") })
		h.Close(func(*Handle) { order = append(order, "close check") })
	}))

	alive, err := l.Run(RunDefault)
	require.NoError(t, err)
	assert.False(t, alive)
	assert.Equal(t, []string{"timer", "idle", "check", "close timer", "close idle", "close check"}, order)
	assert.Zero(t, l.Handles())
	require.NoError(t, l.Close())
}

func TestLoop_Stop(t *testing.T) {
	l := newTestLoop(t)
	idle := l.NewIdle()
	var n int
	require.NoError(t, idle.Start(func(*Idle) {
		n++
		l.Stop()
		l.Stop()
	}))

	alive, err := l.Run(RunDefault)
	require.NoError(t, err)
	assert.True(t, alive)
	assert.Equal(t, 1, n)

	// the stop request is cleared on return
	alive, err = l.Run(RunNoWait)
	require.NoError(t, err)
	assert.True(t, alive)
	assert.Equal(t, 2, n)

	idle.Close(nil)
	alive, err = l.Run(RunDefault)
	require.NoError(t, err)
	assert.False(t, alive)
}

func TestLoop_RunReentrant(t *testing.T) {
	l := newTestLoop(t)
	timer := l.NewTimer()
	var inner error
	require.NoError(t, timer.Start(func(h *Timer) {
		_, inner = l.Run(RunNoWait)
		h.Close(nil)
	}, 0, 0))
	_, err := l.Run(RunDefault)
	require.NoError(t, err)
	assert.Equal(t, unix.EBUSY, inner)
	assert.False(t, l.Running())
}

func TestLoop_Close(t *testing.T) {
	l := newTestLoop(t)
	h := l.NewIdle()
	assert.Equal(t, unix.EBUSY, l.Close())

	h.Close(nil)
	assert.True(t, h.IsClosing())
	assert.False(t, h.IsClosed())
	assert.Equal(t, unix.EBUSY, l.Close())

	_, err := l.Run(RunDefault)
	require.NoError(t, err)
	assert.True(t, h.IsClosed())

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
	_, err = l.Run(RunDefault)
	assert.Equal(t, unix.EBADF, err)
}

func TestHandle_CloseIdempotent(t *testing.T) {
	l := newTestLoop(t)
	h := l.NewCheck()
	require.NoError(t, h.Start(func(*Check) {}))
	assert.Equal(t, 1, l.ActiveHandles())

	var calls int
	h.Close(func(*Handle) { calls++ })
	h.Close(func(*Handle) { calls += 10 })
	assert.False(t, h.IsActive())
	assert.Zero(t, l.ActiveHandles())

	_, err := l.Run(RunDefault)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	assert.Equal(t, unix.EINVAL, h.Start(func(*Check) {}))
}

func TestHandle_CloseFromCloseCallback(t *testing.T) {
	l := newTestLoop(t)
	a, b := l.NewIdle(), l.NewIdle()
	var order []string
	a.Close(func(*Handle) {
		order = append(order, "a")
		b.Close(func(*Handle) { order = append(order, "b") })
	})

	alive, err := l.Run(RunOnce)
	require.NoError(t, err)
	assert.True(t, alive)
	assert.Equal(t, []string{"a"}, order)

	alive, err = l.Run(RunOnce)
	require.NoError(t, err)
	assert.False(t, alive)
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestLoop_Data(t *testing.T) {
	l := newTestLoop(t)
	l.Data = "owner"
	h := l.NewTimer()
	h.Data = 7
	assert.Equal(t, "owner", h.Loop().Data)
	assert.Equal(t, 7, h.Data)
	assert.Equal(t, KindTimer, h.Kind())
	h.Close(nil)
	_, err := l.Run(RunDefault)
	require.NoError(t, err)
}

func TestLoop_Now(t *testing.T) {
	l := newTestLoop(t)
	before := l.Now()
	time.Sleep(2 * time.Millisecond)
	assert.Equal(t, before, l.Now())
	l.UpdateTime()
	assert.Greater(t, l.Now(), before)
}

func TestRunMode_String(t *testing.T) {
	assert.Equal(t, "default", RunDefault.String())
	assert.Equal(t, "once", RunOnce.String())
	assert.Equal(t, "nowait", RunNoWait.String())
	assert.Equal(t, "unknown", RunMode(9).String())
	assert.Equal(t, "tcp", KindTCP.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}
