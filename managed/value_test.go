package managed

import (
	"errors"
	"testing"

	"github.com/joeycumines/go-uvbridge/internal/fatal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	type native struct{ n int }
	var finalized *native
	data := &native{n: 7}
	x := Wrap(data, func(p *native) { finalized = p })
	assert.Same(t, data, x.Unwrap())
	assert.Equal(t, 1, x.RefCount(), "wrap takes no extra reference")
	x.Dec()
	assert.Same(t, data, finalized)
}

func TestExternal_embedded(t *testing.T) {
	type wrapper struct {
		External[int]
		extra string
	}
	v := 3
	var w wrapper
	w.Init(&v, nil)
	assert.Equal(t, 3, *w.Unwrap())
	var _ Value = &w
	w.Dec()
	assert.True(t, w.Freed())
}

func TestClosure(t *testing.T) {
	var got []any
	c := Func(func(args ...any) Result {
		got = args
		return Ok(len(args))
	})
	r := c.Invoke(1, "two")
	require.True(t, r.IsOk())
	assert.Equal(t, 2, r.Value())
	assert.Equal(t, []any{1, "two"}, got)

	assert.True(t, Func(nil).Invoke().IsOk())

	c.Dec()
	_, ok := fatal.Capture(func() { c.Invoke() })
	assert.True(t, ok)
}

type countedErr struct {
	Object
}

func (*countedErr) Error() string { return "counted" }

func TestResult(t *testing.T) {
	assert.True(t, Unit().IsOk())
	assert.Nil(t, Unit().Value())

	errBoom := errors.New("boom")
	r := Fail(errBoom)
	assert.False(t, r.IsOk())
	assert.Same(t, errBoom, r.Err())

	assert.ErrorIs(t, Fail(nil).Err(), ErrNilFailure)
}

func TestResult_Release(t *testing.T) {
	payload := Func(nil)
	payload.Inc()
	Ok(payload).Release()
	assert.Equal(t, 1, payload.RefCount())

	e := new(countedErr)
	Fail(e).Release()
	assert.True(t, e.Freed())

	Ok(42).Release()
}
