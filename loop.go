// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package uvbridge

import (
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/go-uvbridge/affinity"
	"github.com/joeycumines/go-uvbridge/internal/fatal"
	"github.com/joeycumines/go-uvbridge/internal/uv"
	"github.com/joeycumines/go-uvbridge/managed"
	"github.com/joeycumines/go-uvbridge/uverr"
	"github.com/joeycumines/logiface"
)

// RunMode selects how long [Loop.Run] drives the native loop.
type RunMode = uv.RunMode

const (
	// RunDefault runs until no active handles or requests remain.
	RunDefault = uv.RunDefault
	// RunOnce runs one iteration, blocking for I/O if there is nothing to do.
	RunOnce = uv.RunOnce
	// RunNoWait runs one iteration without blocking.
	RunNoWait = uv.RunNoWait
)

// Stats are counters describing a Loop.
type Stats struct {
	// Runs is the number of calls to Run that drove the native loop.
	Runs uint64
	// Dispatched is the number of managed callback invocations.
	Dispatched uint64
	// Captured is the number of failures returned by Run.
	Captured uint64
	// Dropped is the number of failures released because an earlier one
	// was already captured.
	Dropped uint64
	// Handles is the number of handles whose native close has not completed.
	Handles int
}

// Loop owns a native event loop. It is a managed value: the creator holds
// the first reference, and each handle holds one more until its native close
// completes. Dropping the last reference closes the native loop.
type Loop struct {
	managed.External[uv.Loop]

	owner   affinity.Owner
	logger  *logiface.Logger[logiface.Event]
	limiter *catrate.Limiter

	latch latch
	stats Stats

	readBufferSize int

	running bool
	// finalized while running, so the native close waits for Run to return
	closePending bool
}

// NewLoop allocates a Loop. Failure to allocate the native loop is fatal;
// errors are only returned for invalid options.
func NewLoop(opts ...LoopOption) (*Loop, error) {
	cfg, err := resolveLoopOptions(opts)
	if err != nil {
		return nil, err
	}

	native, err := uv.New()
	if err != nil {
		fatal.Fatalf("uvbridge: failed to allocate native loop: %v", err)
	}

	l := &Loop{
		logger:         cfg.logger,
		readBufferSize: cfg.readBufferSize,
	}
	if len(cfg.droppedRate) != 0 {
		l.limiter = catrate.NewLimiter(cfg.droppedRate)
	}
	l.Init(native, l.finalize)
	native.Data = l
	if cfg.affinity {
		l.owner.Bind()
	}

	l.logger.Debug().
		Bool(`affinity`, cfg.affinity).
		Log(`loop created`)

	return l, nil
}

// loopOf follows the native back-reference to the owning Loop.
func loopOf(native *uv.Loop) *Loop {
	return native.Data.(*Loop)
}

// enter guards every entry point.
func (l *Loop) enter(op string) {
	affinity.Check(l)
	l.owner.Check(op)
}

// Run drives the native loop according to mode. It returns the first
// failure reported by a callback during this call, if any, after which the
// latch is empty again.
func (l *Loop) Run(mode RunMode) error {
	l.enter("Loop.Run")
	if l.Freed() {
		return ErrLoopReleased
	}
	if l.running {
		return ErrReentrantRun
	}

	l.running = true
	l.stats.Runs++
	defer l.finishRun()

	l.logger.Trace().
		Stringer(`mode`, mode).
		Log(`run started`)

	if _, err := l.Unwrap().Run(mode); err != nil {
		l.capture(uv.KindUnknown, managed.Fail(uverr.Wrap(err)))
	}

	err := l.latch.Take()
	if err != nil {
		l.logger.Debug().
			Err(err).
			Log(`run failed`)
	}
	return err
}

func (l *Loop) finishRun() {
	l.running = false
	if l.closePending {
		l.closePending = false
		l.closeNative(l.Unwrap())
	}
}

// Stop asks Run to return once the callback in progress, and the rest of the
// current iteration, completes. It is idempotent.
func (l *Loop) Stop() {
	l.enter("Loop.Stop")
	if !l.Freed() {
		l.Unwrap().Stop()
	}
}

// Alive reports whether the native loop has active handles or requests.
func (l *Loop) Alive() bool {
	l.enter("Loop.Alive")
	return !l.Freed() && l.Unwrap().Alive()
}

// Now returns the loop time, updated at the start of each iteration.
func (l *Loop) Now() time.Duration {
	l.enter("Loop.Now")
	return l.Unwrap().Now()
}

// Running reports whether Run is executing.
func (l *Loop) Running() bool {
	l.enter("Loop.Running")
	return l.running
}

// Stats returns a snapshot of the loop's counters.
func (l *Loop) Stats() Stats {
	l.enter("Loop.Stats")
	return l.stats
}

// settle consumes the result of a callback invocation.
func (l *Loop) settle(kind uv.Kind, res managed.Result) {
	l.stats.Dispatched++
	if res.IsOk() {
		res.Release()
		return
	}
	l.capture(kind, res)
}

// capture latches a failure, or releases it if one was already latched.
func (l *Loop) capture(kind uv.Kind, res managed.Result) {
	if l.latch.Set(res.Err()) {
		l.stats.Captured++
		l.Unwrap().Stop()
		l.logger.Debug().
			Stringer(`handle`, kind).
			Err(res.Err()).
			Log(`callback failed, stopping loop`)
		return
	}

	l.stats.Dropped++
	if b := l.logger.Debug(); b.Enabled() {
		if _, ok := l.limiter.Allow(kind); ok {
			b.Stringer(`handle`, kind).
				Err(res.Err()).
				Uint64(`dropped`, l.stats.Dropped).
				Log(`dropped callback failure, an earlier failure was captured`)
		} else {
			b.Release()
		}
	}
	res.Release()
}

func (l *Loop) finalize(native *uv.Loop) {
	if l.running {
		l.closePending = true
		return
	}
	l.closeNative(native)
}

func (l *Loop) closeNative(native *uv.Loop) {
	if err := native.Close(); err != nil {
		l.logger.Err().
			Err(err).
			Log(`failed to close native loop`)
		return
	}
	l.logger.Debug().Log(`loop released`)
}
