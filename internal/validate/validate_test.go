// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package validate

import (
	"strings"
	"testing"
)

func TestIsUDID(t *testing.T) {
	accept := []string{
		"AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEEEE",
		"aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
		"01234567-89ab-CDEF-0123-456789abcdef",
	}
	for _, s := range accept {
		if !IsUDID(s) {
			t.Errorf("IsUDID(%q) = false, want true", s)
		}
	}

	reject := []string{
		"",
		"AAAAAAAA-BBBB-CCCC-DDDD",
		"AAAAAAAABBBBCCCCDDDDEEEEEEEEEEEE",
		"AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEEEG",
		"GAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEEEE",
		"AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEEEE ",
		"{AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEEEE}",
		"AAAAAAAA_BBBB-CCCC-DDDD-EEEEEEEEEEEE",
		"booted; rm -rf /",
	}
	for _, s := range reject {
		if IsUDID(s) {
			t.Errorf("IsUDID(%q) = true, want false", s)
		}
	}
}

func TestIsAVDName(t *testing.T) {
	accept := []string{
		"Pixel_6_API_35",
		"a",
		"base-a35",
		strings.Repeat("x", 99),
	}
	for _, s := range accept {
		if !IsAVDName(s) {
			t.Errorf("IsAVDName(%q) = false, want true", s)
		}
	}

	reject := []string{
		"",
		strings.Repeat("x", 100),
		"Pixel 6",
		"pixel/6",
		"pixel;reboot",
		"pixel$HOME",
		"pixel\n6",
	}
	for _, s := range reject {
		if IsAVDName(s) {
			t.Errorf("IsAVDName(%q) = true, want false", s)
		}
	}
}
