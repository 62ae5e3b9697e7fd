package fatal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapture(t *testing.T) {
	msg, ok := Capture(func() { Fatalf("broken %s", "invariant") })
	require.True(t, ok)
	assert.Equal(t, "broken invariant", msg)

	msg, ok = Capture(func() {})
	assert.False(t, ok)
	assert.Empty(t, msg)
}

func TestCapture_foreignPanic(t *testing.T) {
	assert.PanicsWithValue(t, "boom", func() {
		Capture(func() { panic("boom") })
	})
}

func TestFatalf_handlerReturns(t *testing.T) {
	restore := SetHandler(func(string) {})
	defer restore()
	assert.PanicsWithValue(t, "fatal handler returned: oops", func() { Fatalf("oops") })
}
