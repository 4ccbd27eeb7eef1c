// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package android

import (
	"context"
	"regexp"
	"strings"

	"github.com/forkbombeu/emuctl/internal/device"
)

// No single adb command reliably reports both identity and boot completion
// across SDK and OS version combinations, so run-state resolution stacks
// several independent signals, each individually fault-tolerant and bounded
// by a short timeout. The order matters; do not collapse it to one check.

// attachedDevice is one row of `adb devices`: a serial plus the bridge's
// connection state ("device", "offline", "bootloader", ...).
type attachedDevice struct {
	Serial string
	State  string
}

// parseADBDevices extracts emulator rows from `adb devices` output.
func parseADBDevices(out string) []attachedDevice {
	var devices []attachedDevice
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && strings.HasPrefix(fields[0], "emulator-") {
			devices = append(devices, attachedDevice{Serial: fields[0], State: fields[1]})
		}
	}
	return devices
}

func (s *Service) attachedEmulators(ctx context.Context) []attachedDevice {
	ctx, cancel := context.WithTimeout(ctx, s.statusTimeout)
	defer cancel()
	res := s.run.Run(ctx, s.adb, "devices")
	if !res.Succeeded {
		return nil
	}
	return parseADBDevices(res.Stdout)
}

// resolveSerialName maps an emulator serial to its AVD name. The console
// query is authoritative when it works; two boot-time properties cover the
// emulator versions where it does not. First non-empty answer wins.
func (s *Service) resolveSerialName(ctx context.Context, serial string) string {
	ctx, cancel := context.WithTimeout(ctx, s.statusTimeout)
	defer cancel()

	if res := s.run.Run(ctx, s.adb, "-s", serial, "emu", "avd", "name"); res.Succeeded {
		if name := parseAVDNameReply(res.Stdout); name != "" {
			return name
		}
	}
	for _, prop := range []string{"ro.boot.qemu.avd_name", "ro.kernel.qemu.avd_name"} {
		if res := s.run.Run(ctx, s.adb, "-s", serial, "shell", "getprop", prop); res.Succeeded {
			if name := strings.TrimSpace(res.Stdout); name != "" {
				return name
			}
		}
	}
	return ""
}

// parseAVDNameReply strips the console protocol's trailing OK line.
func parseAVDNameReply(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) == 0 {
		return ""
	}
	if strings.TrimSpace(lines[len(lines)-1]) == "OK" && len(lines) > 1 {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(lines[0])
}

// serialState classifies one attached emulator. The bridge's "device" state
// only means the transport is up; Running additionally requires a deeper
// liveness signal, because the framework may still be booting.
func (s *Service) serialState(ctx context.Context, d attachedDevice) device.State {
	if d.State != "device" {
		return device.StateStarting
	}
	ctx, cancel := context.WithTimeout(ctx, s.statusTimeout)
	defer cancel()

	if res := s.run.Run(ctx, s.adb, "-s", d.Serial, "shell", "service", "list"); res.Succeeded && strings.TrimSpace(res.Stdout) != "" {
		return device.StateRunning
	}
	if res := s.run.Run(ctx, s.adb, "-s", d.Serial, "shell", "dumpsys", "activity", "services"); res.Succeeded && strings.TrimSpace(res.Stdout) != "" {
		return device.StateRunning
	}
	if res := s.run.Run(ctx, s.adb, "-s", d.Serial, "shell", "getprop", "sys.boot_completed"); res.Succeeded && strings.TrimSpace(res.Stdout) == "1" {
		return device.StateRunning
	}
	return device.StateStarting
}

// resolveAttached builds the name→state map for every attached emulator
// whose AVD name could be resolved, and returns the raw attach list for the
// process-table fallback.
func (s *Service) resolveAttached(ctx context.Context) (map[string]device.State, []attachedDevice) {
	attached := s.attachedEmulators(ctx)
	states := make(map[string]device.State, len(attached))
	for _, d := range attached {
		name := s.resolveSerialName(ctx, d.Serial)
		if name == "" {
			continue
		}
		states[name] = s.serialState(ctx, d)
	}
	return states, attached
}

// stateFor resolves one AVD against a cycle's shared attach scan. When the
// name never resolved from any serial, a process-table scan decides: a
// matching emulator process alongside exactly one attached device inherits
// that device's state; alongside none it is still starting; alongside
// several, ownership is ambiguous and the conservative answer is Stopped.
func (s *Service) stateFor(ctx context.Context, name string, states map[string]device.State, attached []attachedDevice) device.State {
	if st, ok := states[name]; ok {
		return st
	}
	if s.processRunning(ctx, name) {
		switch len(attached) {
		case 1:
			return s.serialState(ctx, attached[0])
		case 0:
			return device.StateStarting
		default:
			return device.StateStopped
		}
	}
	return device.StateStopped
}

// processRunning scans the OS process table for a command line carrying an
// `-avd <name>` token.
func (s *Service) processRunning(ctx context.Context, name string) bool {
	scan := s.procScan
	if scan == nil {
		scan = s.processCommandLines
	}
	pattern := avdProcessPattern(name)
	for _, cmdline := range scan(ctx) {
		if pattern.MatchString(cmdline) {
			return true
		}
	}
	return false
}

func avdProcessPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(^|\s)-avd\s+` + regexp.QuoteMeta(name) + `(\s|$)`)
}
