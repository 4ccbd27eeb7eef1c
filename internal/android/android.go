// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

// Package android enumerates Android virtual devices and resolves their
// live run state through the SDK's emulator and adb tools.
package android

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/forkbombeu/emuctl/internal/cmdrunner"
	"github.com/forkbombeu/emuctl/internal/config"
	"github.com/forkbombeu/emuctl/internal/device"
	"github.com/forkbombeu/emuctl/internal/telemetry"
	"github.com/forkbombeu/emuctl/internal/validate"
)

// Service wraps the Android toolchain.
type Service struct {
	run           cmdrunner.Runner
	emulator      string
	adb           string
	statusTimeout time.Duration
	correlationID string

	// procScan is swappable in tests; nil means the platform default.
	procScan func(context.Context) []string
}

// New builds a Service from configuration.
func New(cfg *config.Config, run cmdrunner.Runner) *Service {
	statusTimeout := time.Duration(cfg.StatusTimeout)
	if statusTimeout <= 0 {
		statusTimeout = config.DefaultStatusTimeout
	}
	return &Service{
		run:           run,
		emulator:      cfg.EmulatorPath(),
		adb:           cfg.ADBPath(),
		statusTimeout: statusTimeout,
		correlationID: cfg.CorrelationID,
	}
}

// Platform implements the store provider contract.
func (s *Service) Platform() device.Platform { return device.PlatformAndroid }

// Available reports whether an Android emulator toolchain exists on this
// machine. The version probe relies on PATH; when it fails, the SDK root
// environment variables and the conventional install paths are checked for
// an actual emulator binary on disk.
func (s *Service) Available(ctx context.Context) bool {
	if s.run.Run(ctx, "emulator", "-version").Succeeded {
		return true
	}
	roots := []string{}
	if root := config.SDKRootFromEnv(); root != "" {
		roots = append(roots, root)
	}
	roots = append(roots, config.DefaultSDKPaths()...)
	for _, root := range roots {
		candidate := filepath.Join(root, "emulator", "emulator")
		if runtime.GOOS == "windows" {
			candidate += ".exe"
		}
		if _, err := os.Stat(candidate); err == nil {
			return true
		}
	}
	return false
}

// Probe produces this platform's full listing for one refresh cycle,
// resolving each AVD's run state.
func (s *Service) Probe(ctx context.Context) device.ProbeResult {
	ctx, span := telemetry.StartSpan(ctx, s.correlationID, "android.Probe")
	defer span.End()

	result := device.ProbeResult{Platform: device.PlatformAndroid}
	if !s.Available(ctx) {
		return result
	}
	result.Available = true

	records, err := s.ListAVDs(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		result.Err = err
		return result
	}
	span.SetAttributes(attribute.Int("avd_count", len(records)))

	states, attached := s.resolveAttached(ctx)
	for i := range records {
		records[i].State = s.stateFor(ctx, records[i].AVDName, states, attached)
	}
	result.Devices = records
	return result
}

// ListAVDs lists installed AVDs, one name per non-blank line of tool
// output. Every record starts out Stopped; the resolver upgrades it.
func (s *Service) ListAVDs(ctx context.Context) ([]device.Record, error) {
	res := s.run.Run(ctx, s.emulator, "-list-avds")
	if !res.Succeeded {
		return nil, fmt.Errorf("emulator -list-avds: %s", res.FailureDetail)
	}
	var records []device.Record
	for _, line := range strings.Split(res.Stdout, "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		records = append(records, device.Record{
			ID:          device.AndroidID(name),
			DisplayName: name,
			Platform:    device.PlatformAndroid,
			State:       device.StateStopped,
			Kind:        device.KindDevice,
			AVDName:     name,
		})
	}
	return records, nil
}

// Status re-resolves one AVD's run state.
func (s *Service) Status(ctx context.Context, rec device.Record) (device.State, error) {
	states, attached := s.resolveAttached(ctx)
	return s.stateFor(ctx, rec.AVDName, states, attached), nil
}

// Start launches the emulator detached, so its lifetime is independent of
// this process. The AVD name is validated before it reaches the argument
// vector.
func (s *Service) Start(ctx context.Context, rec device.Record) error {
	if !validate.IsAVDName(rec.AVDName) {
		return fmt.Errorf("refusing to launch emulator: invalid avd name %q", rec.AVDName)
	}
	_, span := telemetry.StartSpan(ctx, s.correlationID, "android.Start",
		attribute.String("avd_name", rec.AVDName))
	defer span.End()
	telemetry.Event(s.correlationID, "emulator start requested", "avd_name", rec.AVDName)

	cmd := exec.Command(s.emulator, "-avd", rec.AVDName)
	output := telemetry.NewLineWriter(s.correlationID, "emulator output", "avd_name", rec.AVDName)
	cmd.Stdout = output
	cmd.Stderr = output
	if err := cmd.Start(); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("emulator start: %w", err)
	}
	span.SetAttributes(attribute.Int("pid", cmd.Process.Pid))
	return cmd.Process.Release()
}

// Stop asks a running emulator to shut down via the console kill command.
// An AVD that is not attached to the bridge is already as stopped as adb
// can make it.
func (s *Service) Stop(ctx context.Context, rec device.Record) error {
	if !validate.IsAVDName(rec.AVDName) {
		return fmt.Errorf("refusing to stop emulator: invalid avd name %q", rec.AVDName)
	}
	for _, d := range s.attachedEmulators(ctx) {
		if s.resolveSerialName(ctx, d.Serial) != rec.AVDName {
			continue
		}
		res := s.run.Run(ctx, s.adb, "-s", d.Serial, "emu", "kill")
		if !res.Succeeded {
			return fmt.Errorf("adb emu kill %s: %s", d.Serial, res.FailureDetail)
		}
		return nil
	}
	return nil
}
