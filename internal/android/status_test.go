// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package android

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/forkbombeu/emuctl/internal/cmdrunner"
	"github.com/forkbombeu/emuctl/internal/device"
)

// fakeRunner answers invocations by exact command line; anything not
// stubbed fails, which is exactly how a flaky toolchain behaves.
type fakeRunner struct {
	responses map[string]cmdrunner.Result
	calls     []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) cmdrunner.Result {
	key := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, key)
	if res, ok := f.responses[key]; ok {
		return res
	}
	return cmdrunner.Result{FailureDetail: "no stub for " + key}
}

func newTestService(run cmdrunner.Runner, procs []string) *Service {
	return &Service{
		run:           run,
		emulator:      "emulator",
		adb:           "adb",
		statusTimeout: time.Second,
		procScan:      func(context.Context) []string { return procs },
	}
}

func ok(stdout string) cmdrunner.Result {
	return cmdrunner.Result{Succeeded: true, Stdout: stdout}
}

func TestParseADBDevices(t *testing.T) {
	out := "List of devices attached\nemulator-5554\tdevice\nemulator-5556\toffline\nR5CT20XXXX\tdevice\n\n"
	devices := parseADBDevices(out)
	if len(devices) != 2 {
		t.Fatalf("expected 2 emulator rows, got %d", len(devices))
	}
	if devices[0].Serial != "emulator-5554" || devices[0].State != "device" {
		t.Fatalf("first row = %+v", devices[0])
	}
	if devices[1].Serial != "emulator-5556" || devices[1].State != "offline" {
		t.Fatalf("second row = %+v", devices[1])
	}
}

func TestParseAVDNameReply(t *testing.T) {
	cases := map[string]string{
		"Pixel_6_API_35\nOK\n": "Pixel_6_API_35",
		"Pixel_6_API_35\n":     "Pixel_6_API_35",
		"OK\n":                 "OK",
		"":                     "",
	}
	for in, want := range cases {
		if got := parseAVDNameReply(in); got != want {
			t.Errorf("parseAVDNameReply(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestListAVDsSkipsBlankLines(t *testing.T) {
	run := &fakeRunner{responses: map[string]cmdrunner.Result{
		"emulator -list-avds": ok("Pixel_6_API_35\n\nPixel_Tablet\n"),
	}}
	records, err := newTestService(run, nil).ListAVDs(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "android:Pixel_6_API_35" {
		t.Fatalf("id = %q", records[0].ID)
	}
	if records[0].State != device.StateStopped {
		t.Fatalf("fresh listing state = %q, want stopped", records[0].State)
	}
}

func TestStatusRunningViaConsoleNameAndServiceList(t *testing.T) {
	run := &fakeRunner{responses: map[string]cmdrunner.Result{
		"adb devices":                             ok("List of devices attached\nemulator-5554\tdevice\n"),
		"adb -s emulator-5554 emu avd name":       ok("Pixel_6_API_35\nOK\n"),
		"adb -s emulator-5554 shell service list": ok("Found 120 services:\n0 package\n"),
	}}
	svc := newTestService(run, nil)
	st, err := svc.Status(context.Background(), device.Record{AVDName: "Pixel_6_API_35"})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st != device.StateRunning {
		t.Fatalf("state = %q, want running", st)
	}
}

func TestStatusNamePropertyFallback(t *testing.T) {
	// Console query fails; the boot property carries the name; deep
	// liveness only passes via sys.boot_completed.
	run := &fakeRunner{responses: map[string]cmdrunner.Result{
		"adb devices": ok("emulator-5554\tdevice\n"),
		"adb -s emulator-5554 shell getprop ro.boot.qemu.avd_name": ok("Pixel_6_API_35\n"),
		"adb -s emulator-5554 shell getprop sys.boot_completed":    ok("1\n"),
	}}
	svc := newTestService(run, nil)
	st, _ := svc.Status(context.Background(), device.Record{AVDName: "Pixel_6_API_35"})
	if st != device.StateRunning {
		t.Fatalf("state = %q, want running", st)
	}
}

func TestStatusDeviceWithoutLivenessIsStarting(t *testing.T) {
	run := &fakeRunner{responses: map[string]cmdrunner.Result{
		"adb devices":                       ok("emulator-5554\tdevice\n"),
		"adb -s emulator-5554 emu avd name": ok("Pixel_6_API_35\nOK\n"),
	}}
	svc := newTestService(run, nil)
	st, _ := svc.Status(context.Background(), device.Record{AVDName: "Pixel_6_API_35"})
	if st != device.StateStarting {
		t.Fatalf("state = %q, want starting", st)
	}
}

func TestStatusOfflineSerialIsStarting(t *testing.T) {
	run := &fakeRunner{responses: map[string]cmdrunner.Result{
		"adb devices":                       ok("emulator-5554\toffline\n"),
		"adb -s emulator-5554 emu avd name": ok("Pixel_6_API_35\nOK\n"),
	}}
	svc := newTestService(run, nil)
	st, _ := svc.Status(context.Background(), device.Record{AVDName: "Pixel_6_API_35"})
	if st != device.StateStarting {
		t.Fatalf("state = %q, want starting", st)
	}
}

func TestStatusProcessFallbackZeroAttached(t *testing.T) {
	run := &fakeRunner{responses: map[string]cmdrunner.Result{
		"adb devices": ok("List of devices attached\n"),
	}}
	procs := []string{"/sdk/emulator/qemu-system-x86_64 -avd Pixel_6_API_35 -port 5554"}
	svc := newTestService(run, procs)
	st, _ := svc.Status(context.Background(), device.Record{AVDName: "Pixel_6_API_35"})
	if st != device.StateStarting {
		t.Fatalf("state = %q, want starting", st)
	}
}

func TestStatusProcessFallbackSingleAttachedInheritsState(t *testing.T) {
	// Name resolution fails on the attached serial, but a process scan
	// finds the AVD and exactly one device is attached and fully booted.
	run := &fakeRunner{responses: map[string]cmdrunner.Result{
		"adb devices":                             ok("emulator-5554\tdevice\n"),
		"adb -s emulator-5554 shell service list": ok("Found 120 services:\n"),
	}}
	procs := []string{"emulator -avd Pixel_6_API_35"}
	svc := newTestService(run, procs)
	st, _ := svc.Status(context.Background(), device.Record{AVDName: "Pixel_6_API_35"})
	if st != device.StateRunning {
		t.Fatalf("state = %q, want running", st)
	}
}

func TestStatusAmbiguousOwnershipIsStopped(t *testing.T) {
	// Two attached emulators, neither resolves a name, and the process
	// table does carry the AVD. Ownership cannot be pinned down, so the
	// resolver reports Stopped rather than guessing.
	run := &fakeRunner{responses: map[string]cmdrunner.Result{
		"adb devices": ok("emulator-5554\tdevice\nemulator-5556\tdevice\n"),
	}}
	procs := []string{"emulator -avd Pixel_6_API_35 -port 5554"}
	svc := newTestService(run, procs)
	st, _ := svc.Status(context.Background(), device.Record{AVDName: "Pixel_6_API_35"})
	if st != device.StateStopped {
		t.Fatalf("state = %q, want stopped", st)
	}
}

func TestStatusNothingMatchesIsStopped(t *testing.T) {
	run := &fakeRunner{responses: map[string]cmdrunner.Result{
		"adb devices": ok(""),
	}}
	svc := newTestService(run, nil)
	st, _ := svc.Status(context.Background(), device.Record{AVDName: "Pixel_6_API_35"})
	if st != device.StateStopped {
		t.Fatalf("state = %q, want stopped", st)
	}
}

func TestAVDProcessPatternEscapesName(t *testing.T) {
	pattern := avdProcessPattern("Pixel_6")
	if !pattern.MatchString("emulator -AVD Pixel_6 -no-window") {
		t.Fatal("match should be case-insensitive")
	}
	if pattern.MatchString("emulator -avd Pixel_6_API_35") {
		t.Fatal("must not match a longer name sharing the prefix")
	}
	dotted := avdProcessPattern("a.b")
	if dotted.MatchString("emulator -avd axb") {
		t.Fatal("regex metacharacters in names must be escaped")
	}
}

func TestStartRejectsInvalidName(t *testing.T) {
	svc := newTestService(&fakeRunner{}, nil)
	err := svc.Start(context.Background(), device.Record{AVDName: "pixel; reboot"})
	if err == nil {
		t.Fatal("expected validation error")
	}
}
