package uvbridge

import (
	"bytes"
	"testing"

	"github.com/joeycumines/go-uvbridge/managed"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(buf), stumpy.WithTimeField(``)),
		stumpy.L.WithLevel(logiface.LevelTrace),
	).Logger()
}

func newTestLoop(t *testing.T, opts ...LoopOption) *Loop {
	t.Helper()
	l, err := NewLoop(opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if !l.Freed() && l.RefCount() == 1 && !l.Header().IsShared() {
			l.Dec()
		}
	})
	return l
}

// drain runs the loop until every closed handle has been freed.
func drain(t *testing.T, l *Loop) {
	t.Helper()
	require.NoError(t, l.Run(RunDefault))
}

func unit(fn func(args ...any)) *managed.Closure {
	return managed.Func(func(args ...any) managed.Result {
		if fn != nil {
			fn(args...)
		}
		return managed.Unit()
	})
}

func failing(err error) *managed.Closure {
	return managed.Func(func(...any) managed.Result { return managed.Fail(err) })
}

// managedError is a failure payload with its own reference count.
type managedError struct {
	managed.Object
	msg string
}

func (e *managedError) Error() string { return e.msg }

func managedFunc(fn func(args ...any) error) *managed.Closure {
	return managed.Func(func(args ...any) managed.Result {
		if err := fn(args...); err != nil {
			return managed.Fail(err)
		}
		return managed.Unit()
	})
}
