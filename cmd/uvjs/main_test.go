package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.js")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCommand_runsScript(t *testing.T) {
	path := writeScript(t, `
		var n = 0;
		uv.timer(function () {
			print("tick", ++n);
			if (n === 2) this.close();
		}).start(1, 1);
	`)
	stdout, stderr, err := execute(t, "--log-level", "debug", path)
	require.NoError(t, err)
	assert.Equal(t, "tick 1\ntick 2\n", stdout)
	assert.Contains(t, stderr, `"msg":"script finished"`)
}

func TestCommand_callbackException(t *testing.T) {
	path := writeScript(t, `
		uv.idle(function () { throw new Error("boom"); }).start();
	`)
	_, stderr, err := execute(t, "--no-affinity", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, stderr, `"msg":"script failed"`)
}

func TestCommand_badArgs(t *testing.T) {
	_, _, err := execute(t)
	require.Error(t, err)

	_, _, err = execute(t, "--log-level", "loud", writeScript(t, ``))
	require.ErrorContains(t, err, `unknown log level "loud"`)

	_, _, err = execute(t, filepath.Join(t.TempDir(), "missing.js"))
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for _, name := range levelNames() {
		level, err := parseLevel(name)
		require.NoError(t, err)
		assert.Equal(t, name, level.String())
	}
	level, err := parseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, logiface.LevelDebug, level)
}
