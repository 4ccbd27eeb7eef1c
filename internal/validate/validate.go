// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

// Package validate holds the allow-list predicates that gate every value
// placed into a subprocess argument vector. Callers that skip these checks
// are defects.
package validate

import "regexp"

var (
	udidPattern    = regexp.MustCompile(`^[0-9A-Fa-f]{8}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{12}$`)
	avdNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// IsUDID reports whether s is a canonical 8-4-4-4-12 hex UUID grouping,
// case-insensitive. Anything else, including braced or un-hyphenated
// variants, is rejected.
func IsUDID(s string) bool {
	return udidPattern.MatchString(s)
}

// IsAVDName reports whether s is a plausible AVD name: non-empty, under
// 100 characters, alphanumerics plus hyphen and underscore only.
func IsAVDName(s string) bool {
	return len(s) > 0 && len(s) < 100 && avdNamePattern.MatchString(s)
}
