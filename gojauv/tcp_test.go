//go:build linux || darwin

package gojauv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_TCPEcho(t *testing.T) {
	a := newTestAdapter(t)
	require.NoError(t, a.RunScript("echo.js", `
		var got = "";
		var wrote = false;
		var server = uv.tcp();
		server.bind("127.0.0.1", 0);
		server.listen(8, function (err) {
			if (err) throw err;
			var conn = server.accept();
			conn.readStart(function (data, err) {
				if (err) {
					conn.close();
					server.close();
					return;
				}
				conn.write(data);
			});
		});
		var port = server.sockName().port;
		var client = uv.tcp();
		client.connect("127.0.0.1", port, function (err) {
			if (err) throw err;
			if (this.peerName().port !== port) throw new Error("unexpected peer");
			this.setNoDelay(true);
			client.readStart(function (data, err) {
				if (err) {
					if (err.code !== "EOF") throw err;
					client.close();
					return;
				}
				got += String.fromCharCode.apply(null, new Uint8Array(data));
				if (got === "hello") {
					client.shutdown();
				}
			});
			client.write("hel", function (err) {
				if (err) throw err;
				wrote = true;
			});
			client.write(new Uint8Array([108, 111]).buffer);
		});
	`))
	assert.Equal(t, "hello", eval(t, a, `got`).String())
	assert.True(t, eval(t, a, `wrote`).ToBoolean())
	assert.Equal(t, 1, a.Loop().RefCount())
}

func TestAdapter_TCPConnectRefused(t *testing.T) {
	a := newTestAdapter(t)
	require.NoError(t, a.RunScript("refused.js", `
		var probe = uv.tcp();
		probe.bind("127.0.0.1", 0);
		var port = probe.sockName().port;
		probe.close();

		var code, errno;
		uv.tcp().connect("127.0.0.1", port, function (err) {
			code = err.code;
			errno = err.errno;
			this.close();
		});
	`))
	assert.Equal(t, "ECONNREFUSED", eval(t, a, `code`).String())
	assert.Positive(t, eval(t, a, `errno`).ToInteger())
}

func TestAdapter_TCPAcceptNothingPending(t *testing.T) {
	a := newTestAdapter(t)
	v := eval(t, a, `
		var s = uv.tcp();
		s.listen(1, function () {});
		var code;
		try {
			s.accept();
		} catch (e) {
			code = e.code;
		}
		s.close();
		code;
	`)
	assert.Equal(t, "EAGAIN", v.String())
}
