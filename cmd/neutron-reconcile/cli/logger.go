// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// LogLeveler is implemented by params structs that select a log level.
type LogLeveler interface {
	LogLevel() (slog.Level, error)
}

// LogFlags is an embeddable struct that adds --log-level to a
// command's parameter struct.
type LogFlags struct {
	Level string `json:"-" flag:"log-level" desc:"log level: debug, info, warn, or error" default:"info"`
}

// LogLevel parses --log-level.
func (f *LogFlags) LogLevel() (slog.Level, error) {
	switch strings.ToLower(f.Level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid --log-level %q (want debug, info, warn, or error)", f.Level)
}

// NewCommandLogger creates a structured logger for CLI command operations.
// When stderr is a terminal, uses slog.TextHandler for human-readable output.
// When stderr is piped or redirected (cron, CI, log shippers), uses
// slog.JSONHandler for machine-parseable output.
//
// Callers scope the logger with pass-specific context via With():
//
//	logger = logger.With("run_id", runID)
func NewCommandLogger(level slog.Level) *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}
