// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

// Package ios enumerates and boots iOS simulators through `xcrun simctl`.
package ios

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/forkbombeu/emuctl/internal/cmdrunner"
	"github.com/forkbombeu/emuctl/internal/config"
	"github.com/forkbombeu/emuctl/internal/device"
	"github.com/forkbombeu/emuctl/internal/telemetry"
	"github.com/forkbombeu/emuctl/internal/validate"
)

// hostOS is swappable in tests; simulators only exist on Apple desktops.
var hostOS = runtime.GOOS

// Service wraps the simulator-control tool.
type Service struct {
	run           cmdrunner.Runner
	xcrun         string
	correlationID string
}

// New builds a Service from configuration.
func New(cfg *config.Config, run cmdrunner.Runner) *Service {
	return &Service{
		run:           run,
		xcrun:         cfg.XcrunPath(),
		correlationID: cfg.CorrelationID,
	}
}

// Platform implements the store provider contract.
func (s *Service) Platform() device.Platform { return device.PlatformIOS }

// Available reports whether the simulator toolchain can be used: Apple
// desktop only, and the version probe has to succeed.
func (s *Service) Available(ctx context.Context) bool {
	if hostOS != "darwin" {
		return false
	}
	return s.run.Run(ctx, s.xcrun, "simctl", "help").Succeeded
}

// Probe produces this platform's full listing for one refresh cycle.
func (s *Service) Probe(ctx context.Context) device.ProbeResult {
	ctx, span := telemetry.StartSpan(ctx, s.correlationID, "ios.Probe")
	defer span.End()

	result := device.ProbeResult{Platform: device.PlatformIOS}
	if !s.Available(ctx) {
		return result
	}
	result.Available = true

	records, err := s.List(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		result.Err = err
		return result
	}
	span.SetAttributes(attribute.Int("device_count", len(records)))
	result.Devices = records
	return result
}

// List runs the JSON device listing and parses it.
func (s *Service) List(ctx context.Context) ([]device.Record, error) {
	res := s.run.Run(ctx, s.xcrun, "simctl", "list", "devices", "--json")
	if !res.Succeeded {
		return nil, fmt.Errorf("simctl list devices: %s", res.FailureDetail)
	}
	return ParseDeviceList([]byte(res.Stdout))
}

// Status re-resolves one simulator's run state. simctl has no per-device
// status query, so this re-lists and looks the record up.
func (s *Service) Status(ctx context.Context, rec device.Record) (device.State, error) {
	records, err := s.List(ctx)
	if err != nil {
		return rec.State, err
	}
	for _, r := range records {
		if r.ID == rec.ID {
			return r.State, nil
		}
	}
	return device.StateStopped, nil
}

// Start boots a simulator by UDID. A failure caused by the simulator
// already running is treated as success. After boot the Simulator app is
// opened best-effort so the device actually shows on screen.
func (s *Service) Start(ctx context.Context, rec device.Record) error {
	if !validate.IsUDID(rec.UDID) {
		return fmt.Errorf("refusing to boot simulator: invalid udid %q", rec.UDID)
	}
	ctx, span := telemetry.StartSpan(ctx, s.correlationID, "ios.Start",
		attribute.String("udid", rec.UDID))
	defer span.End()
	telemetry.Event(s.correlationID, "simulator boot requested", "udid", rec.UDID, "name", rec.DisplayName)

	res := s.run.Run(ctx, s.xcrun, "simctl", "boot", rec.UDID)
	if !res.Succeeded && !benignBootFailure(res) {
		err := fmt.Errorf("simctl boot %s: %s", rec.UDID, firstNonEmpty(res.Output(), res.FailureDetail))
		telemetry.RecordError(span, err)
		return err
	}
	_ = s.run.Run(ctx, "open", "-a", "Simulator")
	return nil
}

// Stop shuts a simulator down. Already-stopped simulators are not an error.
func (s *Service) Stop(ctx context.Context, rec device.Record) error {
	if !validate.IsUDID(rec.UDID) {
		return fmt.Errorf("refusing to shut down simulator: invalid udid %q", rec.UDID)
	}
	res := s.run.Run(ctx, s.xcrun, "simctl", "shutdown", rec.UDID)
	if !res.Succeeded && !strings.Contains(strings.ToLower(res.Output()), "current state: shutdown") {
		return errors.New(firstNonEmpty(res.Output(), res.FailureDetail))
	}
	return nil
}

// benignBootFailure recognizes the "already booted" family of boot errors,
// which mean the user got what they asked for.
func benignBootFailure(res cmdrunner.Result) bool {
	out := strings.ToLower(res.Output() + " " + res.FailureDetail)
	return strings.Contains(out, "already booted") ||
		strings.Contains(out, "current state: booted")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
