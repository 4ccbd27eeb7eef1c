// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

//go:build darwin

package android

import (
	"context"
	"strings"
)

func (s *Service) processCommandLines(ctx context.Context) []string {
	ctx, cancel := context.WithTimeout(ctx, s.statusTimeout)
	defer cancel()
	res := s.run.Run(ctx, "ps", "-axo", "command=")
	if !res.Succeeded {
		return nil
	}
	return strings.Split(res.Stdout, "\n")
}
