// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging builds the warden's slog handler from its log
// configuration. Loggers are passed explicitly; this package never sets
// the slog default.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/bureau-foundation/warden/lib/config"
)

// New returns a logger writing to console, plus a closer for the
// rotating log file (a no-op when no file is configured).
//
// With format "auto", console output is colored text when console is a
// terminal and JSON otherwise. A configured file always receives the
// same format as the console, without color.
func New(logConfig config.LogConfig, console *os.File) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(logConfig.Level)
	if err != nil {
		return nil, nil, err
	}

	format := logConfig.Format
	isTerminal := term.IsTerminal(int(console.Fd()))
	if format == "" || format == "auto" {
		format = "json"
		if isTerminal {
			format = "text"
		}
	}

	var writer io.Writer = console
	var closer io.Closer = nopCloser{}
	if logConfig.File != "" {
		if err := os.MkdirAll(filepath.Dir(logConfig.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   logConfig.File,
			MaxSize:    logConfig.MaxSizeMB,
			MaxBackups: logConfig.MaxBackups,
			MaxAge:     logConfig.MaxAgeDays,
			Compress:   true,
		}
		writer = io.MultiWriter(console, file)
		closer = file
		isTerminal = false
	}

	return slog.New(NewHandler(writer, format, level, !isTerminal)), closer, nil
}

// NewHandler returns a text (tint) or JSON handler on writer.
func NewHandler(writer io.Writer, format string, level slog.Level, noColor bool) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level})
	}
	return tint.NewHandler(writer, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		NoColor:    noColor,
	})
}

// ParseLevel maps a configured level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
