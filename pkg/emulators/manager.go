// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

// Package emulators provides a Go library for discovering and controlling
// iOS simulators and Android emulators through a single reconciled view.
package emulators

import (
	"context"
	"errors"
	"time"

	"github.com/forkbombeu/emuctl/internal/android"
	"github.com/forkbombeu/emuctl/internal/cmdrunner"
	"github.com/forkbombeu/emuctl/internal/config"
	"github.com/forkbombeu/emuctl/internal/device"
	"github.com/forkbombeu/emuctl/internal/ios"
	"github.com/forkbombeu/emuctl/internal/store"
	"github.com/forkbombeu/emuctl/internal/telemetry"
)

// Manager provides high-level simulator and emulator operations.
type Manager struct {
	cfg   *config.Config
	store *store.Store
}

// New creates a Manager with auto-detected tool paths and default timeouts.
func New() *Manager {
	return NewWithCorrelationID("")
}

// NewWithCorrelationID creates a Manager whose structured logs and spans
// carry the given correlation ID.
func NewWithCorrelationID(correlationID string) *Manager {
	cfg, err := config.Load("")
	if err != nil {
		// A broken config file must not make the library unusable.
		cfg = &config.Config{
			PollInterval:   config.Duration(config.DefaultPollInterval),
			CommandTimeout: config.Duration(config.DefaultCommandTimeout),
			StatusTimeout:  config.Duration(config.DefaultStatusTimeout),
		}
	}
	if correlationID == "" {
		correlationID = telemetry.NewCorrelationID()
	}
	cfg.CorrelationID = correlationID
	return newManager(cfg)
}

// Environment holds overrides for tool paths and timeouts.
type Environment struct {
	SDKRoot        string        // Android SDK root (default: ANDROID_SDK_ROOT / ANDROID_HOME)
	EmulatorBin    string        // Path to emulator binary
	ADBBin         string        // Path to adb binary
	XcrunBin       string        // Path to xcrun binary
	CommandTimeout time.Duration // Per-subprocess timeout (default 30s)
	StatusTimeout  time.Duration // Per-signal timeout of Android status queries (default 3s)
	CorrelationID  string        // Correlation ID for log enrichment
}

// NewWithEnv creates a Manager with custom environment configuration.
func NewWithEnv(env Environment) *Manager {
	cfg := &config.Config{
		PollInterval:   config.Duration(config.DefaultPollInterval),
		CommandTimeout: config.Duration(config.DefaultCommandTimeout),
		StatusTimeout:  config.Duration(config.DefaultStatusTimeout),
		SDKRoot:        env.SDKRoot,
		Emulator:       env.EmulatorBin,
		ADB:            env.ADBBin,
		Xcrun:          env.XcrunBin,
		CorrelationID:  env.CorrelationID,
	}
	if env.CommandTimeout > 0 {
		cfg.CommandTimeout = config.Duration(env.CommandTimeout)
	}
	if env.StatusTimeout > 0 {
		cfg.StatusTimeout = config.Duration(env.StatusTimeout)
	}
	return newManager(cfg)
}

func newManager(cfg *config.Config) *Manager {
	run := cmdrunner.New(time.Duration(cfg.CommandTimeout))
	return &Manager{
		cfg: cfg,
		store: store.New(cfg.CorrelationID,
			ios.New(cfg, run),
			android.New(cfg, run),
		),
	}
}

// Device is one row of the reconciled view.
type Device struct {
	ID        string // Reconciled id, "<platform>:<key>"
	Name      string // Display name
	Platform  string // "ios" or "android"
	State     string // "stopped", "starting" or "running"
	Kind      string // "device", "warning" or "error"
	Detail    string // Failure detail on error rows
	UDID      string // Simulator UDID (iOS only)
	Category  string // "phone", "tablet", "watch", "headset-xr", "tv" or "other"
	OSVersion string // Parsed OS version, e.g. "17.0"
	AVDName   string // AVD name (Android only)
}

func fromRecord(rec device.Record) Device {
	return Device{
		ID:        rec.ID,
		Name:      rec.DisplayName,
		Platform:  string(rec.Platform),
		State:     string(rec.State),
		Kind:      string(rec.Kind),
		Detail:    rec.Detail,
		UDID:      rec.UDID,
		Category:  string(rec.Category),
		OSVersion: rec.OSVersion,
		AVDName:   rec.AVDName,
	}
}

func fromRecords(recs []device.Record) []Device {
	out := make([]Device, 0, len(recs))
	for _, rec := range recs {
		out = append(out, fromRecord(rec))
	}
	return out
}

// List runs one full discovery cycle and returns the reconciled view.
// Unavailable platforms and listing failures appear as warning and error
// rows rather than errors.
func (m *Manager) List(ctx context.Context) []Device {
	m.store.Refresh(ctx)
	return fromRecords(m.store.Snapshot())
}

// Snapshot returns the current view without probing the platforms.
func (m *Manager) Snapshot() []Device {
	return fromRecords(m.store.Snapshot())
}

// Status re-lists and returns the device with the given reconciled id.
func (m *Manager) Status(ctx context.Context, id string) (Device, error) {
	m.store.Refresh(ctx)
	for _, rec := range m.store.Snapshot() {
		if rec.ID == id && rec.Kind == device.KindDevice {
			return fromRecord(rec), nil
		}
	}
	return Device{}, &UnknownDeviceError{ID: id}
}

// Start boots the device with the given reconciled id. The view flips to
// "starting" immediately; scheduled rechecks converge it afterwards.
func (m *Manager) Start(ctx context.Context, id string) error {
	return mapUnknown(m.store.Start(ctx, id), id)
}

// Stop shuts the device with the given reconciled id down.
func (m *Manager) Stop(ctx context.Context, id string) error {
	return mapUnknown(m.store.Stop(ctx, id), id)
}

func mapUnknown(err error, id string) error {
	if errors.Is(err, store.ErrUnknownDevice) {
		return &UnknownDeviceError{ID: id}
	}
	return err
}

// Recheck polls only the run state of already-known devices. It is cheaper
// than List and reports whether anything changed.
func (m *Manager) Recheck(ctx context.Context) bool {
	return m.store.Recheck(ctx)
}

// Subscribe returns a channel that signals whenever the reconciled view
// changes. Signals coalesce; a reader that falls behind sees one token.
func (m *Manager) Subscribe() <-chan struct{} {
	return m.store.Subscribe()
}

// UnknownDeviceError reports a reconciled id that matches no known device.
type UnknownDeviceError struct {
	ID string
}

func (e *UnknownDeviceError) Error() string {
	return "unknown device id " + e.ID
}
