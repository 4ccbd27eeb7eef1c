// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package device

// Platform identifies which toolchain owns a record.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

// State is the resolved run state of an emulator.
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
)

// Category is derived from the simulator device-type identifier (or,
// failing that, the display name). Android records are always Other.
type Category string

const (
	CategoryPhone     Category = "phone"
	CategoryTablet    Category = "tablet"
	CategoryWatch     Category = "watch"
	CategoryHeadsetXR Category = "headset-xr"
	CategoryTVDevice  Category = "tv"
	CategoryOther     Category = "other"
)

// Kind distinguishes real emulator rows from inline placeholder rows
// that surface a platform-level problem.
type Kind string

const (
	KindDevice  Kind = "device"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Record is one emulator as last seen by a probe. IDs are namespaced by
// platform and immutable; everything else is updated in place by the
// reconciling store so callers holding a pointer keep seeing fresh state.
type Record struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Platform    Platform `json:"platform"`
	State       State    `json:"state"`
	Kind        Kind     `json:"kind"`
	Detail      string   `json:"detail,omitempty"`

	// iOS only.
	UDID      string   `json:"udid,omitempty"`
	Category  Category `json:"category,omitempty"`
	OSVersion string   `json:"os_version,omitempty"`

	// Android only.
	AVDName string `json:"avd_name,omitempty"`
}

// ProbeResult is one platform's full listing for a single refresh cycle.
// It is folded into the store and discarded; nothing persists it.
type ProbeResult struct {
	Platform  Platform
	Available bool
	Devices   []Record
	Err       error
}

// Completed reports whether the listing finished, i.e. whether its
// omissions are trustworthy enough to drop previously-known records.
func (p ProbeResult) Completed() bool {
	return p.Available && p.Err == nil
}

// IOSID returns the namespaced record ID for a simulator UDID.
func IOSID(udid string) string { return string(PlatformIOS) + ":" + udid }

// AndroidID returns the namespaced record ID for an AVD name.
func AndroidID(name string) string { return string(PlatformAndroid) + ":" + name }
