// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package telemetry

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func swapLogger(t *testing.T, buf *bytes.Buffer) {
	t.Helper()
	previous := logger
	logger = slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{}))
	t.Cleanup(func() { logger = previous })
}

func TestEventIncludesCorrelationAndTimestamp(t *testing.T) {
	var buf bytes.Buffer
	swapLogger(t, &buf)

	Event("corr-123", "test message", "key", "value")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(lines))
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("failed to parse log line: %v", err)
	}
	if record["correlation_id"] != "corr-123" {
		t.Fatalf("expected correlation_id corr-123, got %#v", record["correlation_id"])
	}
	if _, ok := record["timestamp_ns"]; !ok {
		t.Fatal("expected timestamp_ns field in log record")
	}
	if record["key"] != "value" {
		t.Fatalf("expected key value, got %#v", record["key"])
	}
}

func TestLineWriterSplitsLines(t *testing.T) {
	var buf bytes.Buffer
	swapLogger(t, &buf)

	w := NewLineWriter("corr-456", "emulator output", "avd_name", "Pixel_6")
	_, _ = w.Write([]byte("first\nsec"))
	_, _ = w.Write([]byte("ond\n"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &record); err != nil {
		t.Fatalf("failed to parse log line: %v", err)
	}
	if record["line"] != "second" {
		t.Fatalf("expected line second, got %#v", record["line"])
	}
	if record["avd_name"] != "Pixel_6" {
		t.Fatalf("expected avd_name Pixel_6, got %#v", record["avd_name"])
	}
}

func TestFilterHandlerDropsSuppressedMessages(t *testing.T) {
	var buf bytes.Buffer
	previous := logger
	handler := &filterHandler{
		next:     slog.NewJSONHandler(&buf, &slog.HandlerOptions{}),
		suppress: []string{"DeprecationWarning"},
	}
	logger = slog.New(handler)
	t.Cleanup(func() { logger = previous })

	Event("", "tool emitted DeprecationWarning: legacy flag")
	Event("", "kept message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 surviving log line, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "kept message") {
		t.Fatalf("wrong record survived: %s", lines[0])
	}
}
