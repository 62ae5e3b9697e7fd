// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package gojauv

import (
	"github.com/dop251/goja"
	"github.com/joeycumines/go-uvbridge"
)

func (a *Adapter) newTimer(call goja.FunctionCall) goja.Value {
	obj := a.runtime.NewObject()
	cb := a.callback(call.Argument(0), obj, "uv.timer", false)
	defer release(cb)
	t := uvbridge.NewTimer(a.loop, cb)

	a.method(obj, "start", func(call goja.FunctionCall) goja.Value {
		a.throw(t.Start(a.duration(call.Argument(0)), a.duration(call.Argument(1))))
		return goja.Undefined()
	})
	a.method(obj, "stop", func(goja.FunctionCall) goja.Value {
		t.Stop()
		return goja.Undefined()
	})
	a.method(obj, "again", func(goja.FunctionCall) goja.Value {
		a.throw(t.Again())
		return goja.Undefined()
	})
	a.method(obj, "setRepeat", func(call goja.FunctionCall) goja.Value {
		a.throw(t.SetRepeat(a.duration(call.Argument(0))))
		return goja.Undefined()
	})
	a.method(obj, "dueIn", func(goja.FunctionCall) goja.Value {
		return a.runtime.ToValue(t.DueIn().Milliseconds())
	})
	a.lifecycle(obj, t)
	return obj
}

func (a *Adapter) newIdle(call goja.FunctionCall) goja.Value {
	obj := a.runtime.NewObject()
	cb := a.callback(call.Argument(0), obj, "uv.idle", false)
	defer release(cb)
	h := uvbridge.NewIdle(a.loop, cb)

	a.method(obj, "start", func(goja.FunctionCall) goja.Value {
		a.throw(h.Start())
		return goja.Undefined()
	})
	a.method(obj, "stop", func(goja.FunctionCall) goja.Value {
		h.Stop()
		return goja.Undefined()
	})
	a.lifecycle(obj, h)
	return obj
}

func (a *Adapter) newCheck(call goja.FunctionCall) goja.Value {
	obj := a.runtime.NewObject()
	cb := a.callback(call.Argument(0), obj, "uv.check", false)
	defer release(cb)
	h := uvbridge.NewCheck(a.loop, cb)

	a.method(obj, "start", func(goja.FunctionCall) goja.Value {
		a.throw(h.Start())
		return goja.Undefined()
	})
	a.method(obj, "stop", func(goja.FunctionCall) goja.Value {
		h.Stop()
		return goja.Undefined()
	})
	a.lifecycle(obj, h)
	return obj
}

func (a *Adapter) newTCP(goja.FunctionCall) goja.Value {
	obj, _ := a.wrapTCP(uvbridge.NewTCP(a.loop))
	return obj
}

func (a *Adapter) wrapTCP(t *uvbridge.TCP) (*goja.Object, *uvbridge.TCP) {
	obj := a.runtime.NewObject()

	a.method(obj, "bind", func(call goja.FunctionCall) goja.Value {
		a.throw(t.Bind(a.addrPort(call.Argument(0), call.Argument(1))))
		return goja.Undefined()
	})
	a.method(obj, "listen", func(call goja.FunctionCall) goja.Value {
		cb := a.callback(call.Argument(1), obj, "listen", false)
		defer release(cb)
		a.throw(t.Listen(int(call.Argument(0).ToInteger()), cb))
		return goja.Undefined()
	})
	a.method(obj, "accept", func(goja.FunctionCall) goja.Value {
		client, c := a.wrapTCP(uvbridge.NewTCP(a.loop))
		if err := t.Accept(c); err != nil {
			c.Close()
			a.throw(err)
		}
		return client
	})
	a.method(obj, "connect", func(call goja.FunctionCall) goja.Value {
		addr := a.addrPort(call.Argument(0), call.Argument(1))
		cb := a.callback(call.Argument(2), obj, "connect", true)
		defer release(cb)
		a.throw(t.Connect(addr, cb))
		return goja.Undefined()
	})
	a.method(obj, "readStart", func(call goja.FunctionCall) goja.Value {
		cb := a.callback(call.Argument(0), obj, "readStart", false)
		defer release(cb)
		a.throw(t.ReadStart(cb))
		return goja.Undefined()
	})
	a.method(obj, "readStop", func(goja.FunctionCall) goja.Value {
		t.ReadStop()
		return goja.Undefined()
	})
	a.method(obj, "write", func(call goja.FunctionCall) goja.Value {
		data := a.bytes(call.Argument(0))
		cb := a.callback(call.Argument(1), obj, "write", true)
		defer release(cb)
		a.throw(t.Write(data, cb))
		return goja.Undefined()
	})
	a.method(obj, "shutdown", func(call goja.FunctionCall) goja.Value {
		cb := a.callback(call.Argument(0), obj, "shutdown", true)
		defer release(cb)
		a.throw(t.Shutdown(cb))
		return goja.Undefined()
	})
	a.method(obj, "sockName", func(goja.FunctionCall) goja.Value {
		return a.addrValue(t.SockName())
	})
	a.method(obj, "peerName", func(goja.FunctionCall) goja.Value {
		return a.addrValue(t.PeerName())
	})
	a.method(obj, "setNoDelay", func(call goja.FunctionCall) goja.Value {
		a.throw(t.SetNoDelay(call.Argument(0).ToBoolean()))
		return goja.Undefined()
	})
	a.lifecycle(obj, t)
	return obj, t
}
