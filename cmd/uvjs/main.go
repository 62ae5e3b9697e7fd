// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Command uvjs runs a JavaScript file against an event loop, exposed to the
// script as the "uv" global.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dop251/goja"
	"github.com/joeycumines/go-uvbridge"
	"github.com/joeycumines/go-uvbridge/gojauv"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/spf13/cobra"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

type config struct {
	logLevel       string
	noAffinity     bool
	readBufferSize int
}

func newCommand() *cobra.Command {
	var cfg config
	cmd := &cobra.Command{
		Use:          "uvjs <script>",
		Short:        "Run a JavaScript file on an event loop",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.logLevel, "log-level", logiface.LevelInformational.String(), "Log level: "+strings.Join(levelNames(), ", "))
	cmd.Flags().BoolVar(&cfg.noAffinity, "no-affinity", false, "Disable the goroutine affinity check")
	cmd.Flags().IntVar(&cfg.readBufferSize, "read-buffer", 0, "TCP read buffer size in bytes (0 = default)")
	return cmd
}

func run(stdout, stderr io.Writer, path string, cfg config) error {
	level, err := parseLevel(cfg.logLevel)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(stderr)),
		stumpy.L.WithLevel(level),
	).Logger()

	opts := []uvbridge.LoopOption{
		uvbridge.WithLogger(logger),
		uvbridge.WithGoroutineAffinity(!cfg.noAffinity),
	}
	if cfg.readBufferSize > 0 {
		opts = append(opts, uvbridge.WithReadBufferSize(cfg.readBufferSize))
	}

	runtime := goja.New()
	adapter, err := gojauv.New(runtime, opts...)
	if err != nil {
		return err
	}
	if err := adapter.Bind(); err != nil {
		_ = adapter.Close()
		return err
	}
	if err := runtime.Set("print", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		_, _ = fmt.Fprintln(stdout, strings.Join(parts, " "))
		return goja.Undefined()
	}); err != nil {
		_ = adapter.Close()
		return err
	}

	err = adapter.RunScript(path, string(src))
	if closeErr := adapter.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		logger.Err().
			Str(`script`, path).
			Err(err).
			Log(`script failed`)
		return err
	}
	logger.Debug().
		Str(`script`, path).
		Log(`script finished`)
	return nil
}

func levelNames() []string {
	names := make([]string, 0, int(logiface.LevelTrace-logiface.LevelDisabled)+1)
	for level := logiface.LevelDisabled; level <= logiface.LevelTrace; level++ {
		names = append(names, level.String())
	}
	return names
}

func parseLevel(s string) (logiface.Level, error) {
	for level := logiface.LevelDisabled; level <= logiface.LevelTrace; level++ {
		if strings.EqualFold(s, level.String()) {
			return level, nil
		}
	}
	return logiface.LevelDisabled, fmt.Errorf("unknown log level %q", s)
}
