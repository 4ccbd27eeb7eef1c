// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package telemetry

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

var logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

// InstallLogger replaces the package logger once at process start. suppress
// lists message substrings whose records are dropped entirely; this is the
// sink-level filtering policy for known-noisy vendor tool output.
func InstallLogger(w io.Writer, level slog.Level, suppress []string) {
	var handler slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	if len(suppress) > 0 {
		handler = &filterHandler{next: handler, suppress: suppress}
	}
	logger = slog.New(handler)
}

// Event emits one structured log record with a nanosecond timestamp and the
// correlation ID when present.
func Event(correlationID, message string, fields ...any) {
	baseFields := []any{"timestamp_ns", time.Now().UTC().UnixNano()}
	if correlationID != "" {
		baseFields = append(baseFields, "correlation_id", correlationID)
	}
	logger.Info(message, append(baseFields, fields...)...)
}

// filterHandler drops records whose message contains a suppressed substring.
type filterHandler struct {
	next     slog.Handler
	suppress []string
}

func (h *filterHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *filterHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, s := range h.suppress {
		if strings.Contains(record.Message, s) {
			return nil
		}
	}
	return h.next.Handle(ctx, record)
}

func (h *filterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &filterHandler{next: h.next.WithAttrs(attrs), suppress: h.suppress}
}

func (h *filterHandler) WithGroup(name string) slog.Handler {
	return &filterHandler{next: h.next.WithGroup(name), suppress: h.suppress}
}

type lineWriter struct {
	correlationID string
	msg           string
	fields        []any
	buffer        []byte
}

func (w *lineWriter) Write(payload []byte) (int, error) {
	w.buffer = append(w.buffer, payload...)
	for {
		newlineIndex := bytes.IndexByte(w.buffer, '\n')
		if newlineIndex == -1 {
			break
		}
		line := strings.TrimSpace(string(w.buffer[:newlineIndex]))
		w.buffer = w.buffer[newlineIndex+1:]
		if line != "" {
			Event(w.correlationID, w.msg, append(w.fields, "line", line)...)
		}
	}
	return len(payload), nil
}

// NewLineWriter returns a writer that splits subprocess output into lines
// and emits each as a structured log record.
func NewLineWriter(correlationID, message string, fields ...any) io.Writer {
	return &lineWriter{
		correlationID: correlationID,
		msg:           message,
		fields:        fields,
	}
}
