// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package uvbridge

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/joeycumines/logiface"
)

// DefaultDroppedErrorRate limits logging of dropped callback failures, per
// handle kind.
var DefaultDroppedErrorRate = map[time.Duration]int{
	time.Second: 5,
	time.Minute: 30,
}

// loopOptions holds configuration options for Loop creation.
type loopOptions struct {
	logger         *logiface.Logger[logiface.Event]
	droppedRate    map[time.Duration]int
	readBufferSize int
	affinity       bool
}

// LoopOption configures a Loop instance.
type LoopOption interface {
	applyLoop(*loopOptions) error
}

type loopOptionImpl struct {
	applyLoopFunc func(*loopOptions) error
}

func (l *loopOptionImpl) applyLoop(opts *loopOptions) error {
	return l.applyLoopFunc(opts)
}

// WithLogger sets the logger. A nil logger (the default) disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithGoroutineAffinity controls whether the Loop, and its handles, may only
// be used by the goroutine that created the Loop. Enabled by default.
func WithGoroutineAffinity(enabled bool) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.affinity = enabled
		return nil
	}}
}

// WithDroppedErrorRate sets the rate limits (see catrate) applied to debug
// logs of dropped callback failures, with one category per handle kind. A
// nil or empty map disables limiting. Durations and counts must be positive,
// and longer durations must allow more events at a lower rate.
func WithDroppedErrorRate(rates map[time.Duration]int) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		if err := validateRates(rates); err != nil {
			return err
		}
		opts.droppedRate = maps.Clone(rates)
		return nil
	}}
}

// validateRates rejects the rates catrate.NewLimiter would panic on.
func validateRates(rates map[time.Duration]int) error {
	durations := slices.Sorted(maps.Keys(rates))
	for i, duration := range durations {
		count := rates[duration]
		if duration <= 0 || count <= 0 ||
			(i > 0 && count <= rates[durations[i-1]]) ||
			(i > 0 && float64(count)/float64(duration) >= float64(rates[durations[i-1]])/float64(durations[i-1])) {
			return fmt.Errorf("uvbridge: invalid dropped error rates: %v", rates)
		}
	}
	return nil
}

// WithReadBufferSize sets the size of the buffer TCP handles read into.
func WithReadBufferSize(size int) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		if size <= 0 {
			return errors.New("uvbridge: read buffer size must be positive")
		}
		opts.readBufferSize = size
		return nil
	}}
}

// resolveLoopOptions applies LoopOption instances to loopOptions.
func resolveLoopOptions(opts []LoopOption) (*loopOptions, error) {
	cfg := &loopOptions{
		droppedRate: DefaultDroppedErrorRate,
		affinity:    true,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyLoop(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
