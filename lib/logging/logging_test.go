// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/warden/lib/config"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, test := range tests {
		got, err := ParseLevel(test.input)
		if (err != nil) != test.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", test.input, err, test.wantErr)
		}
		if got != test.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", test.input, got, test.want)
		}
	}
}

func TestNewHandlerJSON(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	logger := slog.New(NewHandler(&buffer, "json", slog.LevelInfo, true))
	logger.Debug("hidden")
	logger.Info("command handled", "command", "kick")

	var record map[string]any
	if err := json.Unmarshal(buffer.Bytes(), &record); err != nil {
		t.Fatalf("output is not a single JSON record: %v\n%s", err, buffer.String())
	}
	if record["msg"] != "command handled" || record["command"] != "kick" {
		t.Errorf("record = %v", record)
	}
}

func TestNewHandlerText(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	logger := slog.New(NewHandler(&buffer, "text", slog.LevelWarn, true))
	logger.Info("hidden")
	logger.Warn("sync failed", "attempt", 3)

	output := buffer.String()
	if strings.Contains(output, "hidden") {
		t.Error("info record emitted at warn level")
	}
	if !strings.Contains(output, "sync failed") || !strings.Contains(output, "attempt=3") {
		t.Errorf("output = %q", output)
	}
	if strings.Contains(output, "\x1b[") {
		t.Error("noColor output contains ANSI escapes")
	}
}

func TestNewWritesLogFile(t *testing.T) {
	t.Parallel()

	console, err := os.CreateTemp(t.TempDir(), "console")
	if err != nil {
		t.Fatal(err)
	}
	defer console.Close()

	path := filepath.Join(t.TempDir(), "logs", "warden.log")
	logger, closer, err := New(config.LogConfig{Level: "info", Format: "json", File: path, MaxSizeMB: 1}, console)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("started")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), `"msg":"started"`) {
		t.Errorf("log file = %q", content)
	}
}
