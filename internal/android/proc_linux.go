// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

//go:build linux

package android

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
)

// processCommandLines reads /proc directly; cmdline entries are
// null-separated argument vectors.
func (s *Service) processCommandLines(_ context.Context) []string {
	entries, _ := filepath.Glob("/proc/[0-9]*/cmdline")
	var lines []string
	for _, p := range entries {
		b, err := os.ReadFile(p)
		if err != nil || len(b) == 0 {
			continue
		}
		lines = append(lines, string(bytes.ReplaceAll(b, []byte{0}, []byte{' '})))
	}
	return lines
}
