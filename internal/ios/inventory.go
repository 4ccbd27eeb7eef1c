// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package ios

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/forkbombeu/emuctl/internal/device"
)

// simDevice mirrors one entry of `simctl list devices --json`.
type simDevice struct {
	UDID                 string `json:"udid"`
	Name                 string `json:"name"`
	State                string `json:"state"`
	DeviceTypeIdentifier string `json:"deviceTypeIdentifier"`
	Runtime              string `json:"runtime"`
	IsAvailable          bool   `json:"isAvailable"`
}

// simListing is the top-level payload: devices keyed by runtime identifier.
type simListing struct {
	Devices map[string][]simDevice `json:"devices"`
}

// ParseDeviceList flattens a simctl JSON device listing into records. The
// payload may carry the "devices" wrapper simctl emits or be the bare
// runtime-keyed object itself. A device that omits its own runtime field
// inherits the key of the group it appears under. Malformed JSON is an
// error, never a panic.
func ParseDeviceList(data []byte) ([]device.Record, error) {
	var listing simListing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("parse simctl device listing: %w", err)
	}
	if listing.Devices == nil {
		if err := json.Unmarshal(data, &listing.Devices); err != nil {
			return nil, fmt.Errorf("parse simctl device listing: %w", err)
		}
	}

	var records []device.Record
	for runtimeID, devices := range listing.Devices {
		for _, d := range devices {
			rt := d.Runtime
			if rt == "" {
				rt = runtimeID
			}
			records = append(records, device.Record{
				ID:          device.IOSID(d.UDID),
				DisplayName: d.Name,
				Platform:    device.PlatformIOS,
				State:       stateFor(d.State),
				Kind:        device.KindDevice,
				UDID:        d.UDID,
				Category:    categoryFor(d.DeviceTypeIdentifier, d.Name),
				OSVersion:   versionFrom(rt),
			})
		}
	}
	return records, nil
}

func stateFor(state string) device.State {
	switch {
	case strings.EqualFold(state, "Booted"):
		return device.StateRunning
	case strings.EqualFold(state, "Booting"):
		return device.StateStarting
	default:
		return device.StateStopped
	}
}

// categoryFor inspects the device-type identifier first and the display
// name second; the identifier is the stable signal, the name a human guess.
func categoryFor(typeIdentifier, name string) device.Category {
	if c, ok := categoryFromText(strings.ToLower(typeIdentifier)); ok {
		return c
	}
	if c, ok := categoryFromText(strings.ToLower(name)); ok {
		return c
	}
	return device.CategoryOther
}

func categoryFromText(text string) (device.Category, bool) {
	switch {
	case strings.Contains(text, "watch"):
		return device.CategoryWatch, true
	case strings.Contains(text, "vision") || strings.Contains(text, "reality") || strings.Contains(text, "xr"):
		return device.CategoryHeadsetXR, true
	case strings.Contains(text, "tv"):
		return device.CategoryTVDevice, true
	case strings.Contains(text, "ipad") || strings.Contains(text, "tablet"):
		return device.CategoryTablet, true
	case strings.Contains(text, "iphone") || strings.Contains(text, "phone") || strings.Contains(text, "ipod"):
		return device.CategoryPhone, true
	}
	return device.CategoryOther, false
}

var (
	// "iOS 17.0" embedded anywhere, also watchOS/tvOS/visionOS/xrOS spellings.
	versionHuman = regexp.MustCompile(`(?i)\b(?:ios|ipados|watchos|tvos|visionos|xros)\s+(\d+(?:\.\d+)+)`)
	// Runtime slugs like com.apple.CoreSimulator.SimRuntime.iOS-17-0.
	versionSlug = regexp.MustCompile(`(?i)(?:ios|ipados|watchos|tvos|visionos|xros)-(\d+)-(\d+)(?:-(\d+))?`)
	// Last resort: any bare dotted-numeric substring.
	versionBare = regexp.MustCompile(`\d+\.\d+(?:\.\d+)?`)
)

// versionFrom extracts a dotted OS version from loosely-formatted runtime
// text. Absence of any recognizable version is not an error; it returns "".
func versionFrom(runtime string) string {
	if m := versionHuman.FindStringSubmatch(runtime); m != nil {
		return m[1]
	}
	if m := versionSlug.FindStringSubmatch(runtime); m != nil {
		version := m[1] + "." + m[2]
		if m[3] != "" {
			version += "." + m[3]
		}
		return version
	}
	return versionBare.FindString(runtime)
}
