// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package gojauv

import (
	"bytes"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/dop251/goja"
	"github.com/joeycumines/go-uvbridge"
	"github.com/joeycumines/go-uvbridge/managed"
	"github.com/joeycumines/go-uvbridge/uverr"
)

// Adapter binds a uvbridge.Loop, which it owns, to a goja runtime.
type Adapter struct {
	runtime *goja.Runtime
	loop    *uvbridge.Loop
	handles map[handle]struct{}
	closed  bool
}

// handle is implemented by every uvbridge handle type.
type handle interface {
	managed.Value
	Close()
	State() uvbridge.State
}

// New creates a loop, configured by opts, and an adapter binding it to
// runtime.
func New(runtime *goja.Runtime, opts ...uvbridge.LoopOption) (*Adapter, error) {
	if runtime == nil {
		return nil, fmt.Errorf("runtime cannot be nil")
	}
	loop, err := uvbridge.NewLoop(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create loop: %w", err)
	}
	return &Adapter{
		runtime: runtime,
		loop:    loop,
		handles: make(map[handle]struct{}),
	}, nil
}

// Loop returns the event loop.
func (a *Adapter) Loop() *uvbridge.Loop {
	return a.loop
}

// Runtime returns the Goja runtime.
func (a *Adapter) Runtime() *goja.Runtime {
	return a.runtime
}

// Bind sets the "uv" global.
func (a *Adapter) Bind() error {
	uv := a.runtime.NewObject()
	for name, fn := range map[string]func(goja.FunctionCall) goja.Value{
		"timer": a.newTimer,
		"idle":  a.newIdle,
		"check": a.newCheck,
		"tcp":   a.newTCP,
		"stop":  a.stop,
		"now":   a.now,
	} {
		if err := uv.Set(name, fn); err != nil {
			return err
		}
	}
	return a.runtime.Set("uv", uv)
}

// Run drives the loop, returning the first exception thrown by a callback.
func (a *Adapter) Run(mode uvbridge.RunMode) error {
	return a.loop.Run(mode)
}

// RunScript evaluates src, then runs the loop until it has nothing left to
// do.
func (a *Adapter) RunScript(name, src string) error {
	if _, err := a.runtime.RunScript(name, src); err != nil {
		return err
	}
	return a.Run(uvbridge.RunDefault)
}

// Close closes every handle created through the adapter, runs the loop so
// their native close completes, then releases the handles and the loop. It
// returns the first exception thrown by a callback while closing. It must not
// be called from a callback.
func (a *Adapter) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	for h := range a.handles {
		h.Close()
	}
	err := a.loop.Run(uvbridge.RunDefault)
	for h := range a.handles {
		h.Header().Dec()
	}
	clear(a.handles)
	a.loop.Dec()
	return err
}

// track holds the creator reference of h until it is freed, or the adapter
// closes.
func (a *Adapter) track(h handle) {
	for x := range a.handles {
		if x.State() == uvbridge.StateFreed {
			delete(a.handles, x)
			x.Header().Dec()
		}
	}
	a.handles[h] = struct{}{}
}

func (a *Adapter) stop(goja.FunctionCall) goja.Value {
	a.loop.Stop()
	return goja.Undefined()
}

func (a *Adapter) now(goja.FunctionCall) goja.Value {
	return a.runtime.ToValue(float64(a.loop.Now()) / float64(time.Millisecond))
}

// callback converts fn to a managed callback, invoked with this as the
// receiver and every argument but the first (the Go handle). Undefined and
// null convert to nil when optional.
func (a *Adapter) callback(fn goja.Value, this *goja.Object, what string, optional bool) managed.Callback {
	if optional && (fn == nil || goja.IsUndefined(fn) || goja.IsNull(fn)) {
		return nil
	}
	callable, ok := goja.AssertFunction(fn)
	if !ok {
		panic(a.runtime.NewTypeError(what + " requires a function"))
	}
	return managed.Func(func(args ...any) managed.Result {
		var values []goja.Value
		if len(args) > 1 {
			values = make([]goja.Value, 0, len(args)-1)
			for _, arg := range args[1:] {
				values = append(values, a.toValue(arg))
			}
		}
		if _, err := callable(this, values...); err != nil {
			return managed.Fail(err)
		}
		return managed.Unit()
	})
}

// release drops the reference held by the adapter, once the handle holds
// its own.
func release(cb managed.Callback) {
	if cb != nil {
		cb.Header().Dec()
	}
}

func (a *Adapter) toValue(arg any) goja.Value {
	switch arg := arg.(type) {
	case nil:
		return goja.Null()
	case []byte:
		return a.runtime.ToValue(a.runtime.NewArrayBuffer(bytes.Clone(arg)))
	case error:
		return a.errorValue(arg)
	default:
		return a.runtime.ToValue(arg)
	}
}

func (a *Adapter) errorValue(err error) *goja.Object {
	obj := a.runtime.NewGoError(err)
	var e *uverr.Error
	if errors.As(err, &e) {
		_ = obj.Set("code", e.Name())
		_ = obj.Set("errno", int(e.Code))
	}
	return obj
}

// throw raises err in JavaScript, unless it is nil.
func (a *Adapter) throw(err error) {
	switch {
	case err == nil:
	case errors.Is(err, uverr.ErrInvalidArgument):
		panic(a.runtime.NewTypeError(err.Error()))
	default:
		panic(a.errorValue(err))
	}
}

func (a *Adapter) duration(v goja.Value) time.Duration {
	if v == nil || goja.IsUndefined(v) {
		return 0
	}
	return time.Duration(v.ToFloat() * float64(time.Millisecond))
}

func (a *Adapter) addrPort(host, port goja.Value) netip.AddrPort {
	addr, err := netip.ParseAddr(host.String())
	if err != nil {
		panic(a.runtime.NewTypeError(fmt.Sprintf("invalid host %q", host.String())))
	}
	p := port.ToInteger()
	if p < 0 || p > 65535 {
		panic(a.runtime.NewTypeError(fmt.Sprintf("invalid port %d", p)))
	}
	return netip.AddrPortFrom(addr, uint16(p))
}

func (a *Adapter) addrValue(addr netip.AddrPort, err error) goja.Value {
	a.throw(err)
	obj := a.runtime.NewObject()
	_ = obj.Set("address", addr.Addr().String())
	_ = obj.Set("port", int(addr.Port()))
	return obj
}

func (a *Adapter) bytes(v goja.Value) []byte {
	switch data := v.Export().(type) {
	case string:
		return []byte(data)
	case goja.ArrayBuffer:
		return data.Bytes()
	case []byte:
		return data
	default:
		panic(a.runtime.NewTypeError("data must be a string, ArrayBuffer or Uint8Array"))
	}
}

// method adds a function property to obj.
func (a *Adapter) method(obj *goja.Object, name string, fn func(call goja.FunctionCall) goja.Value) {
	_ = obj.Set(name, fn)
}

// lifecycle adds the state and close methods shared by every handle.
func (a *Adapter) lifecycle(obj *goja.Object, h handle) {
	a.method(obj, "state", func(goja.FunctionCall) goja.Value {
		return a.runtime.ToValue(h.State().String())
	})
	a.method(obj, "close", func(goja.FunctionCall) goja.Value {
		h.Close()
		return goja.Undefined()
	})
	a.track(h)
}
