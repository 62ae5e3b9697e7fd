package uv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestTimer_Order(t *testing.T) {
	l := newTestLoop(t)
	var order []int
	for i, d := range []time.Duration{3, 1, 2, 1} {
		timer := l.NewTimer()
		require.NoError(t, timer.Start(func(h *Timer) {
			order = append(order, i)
			h.Close(nil)
		}, d*time.Millisecond, 0))
	}
	_, err := l.Run(RunDefault)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 2, 0}, order)
}

func TestTimer_Repeat(t *testing.T) {
	l := newTestLoop(t)
	timer := l.NewTimer()
	var n int
	require.NoError(t, timer.Start(func(h *Timer) {
		n++
		assert.True(t, h.IsActive())
		if n == 3 {
			h.Stop()
			assert.False(t, h.IsActive())
		}
	}, time.Millisecond, time.Millisecond))
	assert.Equal(t, time.Millisecond, timer.Repeat())

	alive, err := l.Run(RunDefault)
	require.NoError(t, err)
	assert.False(t, alive)
	assert.Equal(t, 3, n)

	timer.Close(nil)
	_, err = l.Run(RunDefault)
	require.NoError(t, err)
}

func TestTimer_InvalidArguments(t *testing.T) {
	l := newTestLoop(t)
	timer := l.NewTimer()
	cb := func(*Timer) {}
	assert.Equal(t, unix.EINVAL, timer.Start(cb, -1, 0))
	assert.Equal(t, unix.EINVAL, timer.Start(cb, 0, -1))
	assert.Equal(t, unix.EINVAL, timer.Start(nil, 0, 0))
	assert.False(t, timer.IsActive())
	assert.Equal(t, unix.EINVAL, timer.Again())

	timer.Close(nil)
	assert.Equal(t, unix.EINVAL, timer.Start(cb, 0, 0))
	_, err := l.Run(RunDefault)
	require.NoError(t, err)
}

func TestTimer_Restart(t *testing.T) {
	l := newTestLoop(t)
	timer := l.NewTimer()
	var fired int
	cb := func(*Timer) { fired++ }
	require.NoError(t, timer.Start(cb, time.Hour, 0))
	assert.Greater(t, timer.DueIn(), 59*time.Minute)
	require.NoError(t, timer.Start(cb, 0, 0))
	assert.Len(t, l.timers, 1)
	assert.Zero(t, timer.DueIn())

	_, err := l.Run(RunDefault)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
	assert.False(t, timer.IsActive())
	timer.Close(nil)
	_, err = l.Run(RunDefault)
	require.NoError(t, err)
}

func TestTimer_ZeroTimeoutFromCallbackWaitsForNextIteration(t *testing.T) {
	l := newTestLoop(t)
	timer := l.NewTimer()
	var n int
	var cb func(*Timer)
	cb = func(h *Timer) {
		n++
		if n < 3 {
			require.NoError(t, h.Start(cb, 0, 0))
		}
	}
	require.NoError(t, timer.Start(cb, 0, 0))

	_, err := l.Run(RunNoWait)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = l.Run(RunDefault)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	timer.Close(nil)
	_, err = l.Run(RunDefault)
	require.NoError(t, err)
}

func TestTimer_AgainAndSetRepeat(t *testing.T) {
	l := newTestLoop(t)
	timer := l.NewTimer()
	require.NoError(t, timer.Start(func(*Timer) {}, time.Hour, 0))
	require.NoError(t, timer.Again())
	assert.Greater(t, timer.DueIn(), 59*time.Minute)

	timer.SetRepeat(time.Minute)
	require.NoError(t, timer.Again())
	assert.LessOrEqual(t, timer.DueIn(), time.Minute)
	assert.True(t, timer.IsActive())

	timer.Stop()
	timer.Stop()
	assert.False(t, timer.IsActive())
	assert.Zero(t, timer.DueIn())
	timer.Close(nil)
	_, err := l.Run(RunDefault)
	require.NoError(t, err)
}

func TestTimer_CloseWhileActive(t *testing.T) {
	l := newTestLoop(t)
	timer := l.NewTimer()
	require.NoError(t, timer.Start(func(*Timer) { t.Fatal("fired") }, 0, 0))
	timer.Close(nil)
	assert.Empty(t, l.timers)
	alive, err := l.Run(RunDefault)
	require.NoError(t, err)
	assert.False(t, alive)
}
