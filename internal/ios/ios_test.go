// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package ios

import (
	"context"
	"strings"
	"testing"

	"github.com/forkbombeu/emuctl/internal/cmdrunner"
	"github.com/forkbombeu/emuctl/internal/config"
	"github.com/forkbombeu/emuctl/internal/device"
)

// fakeRunner answers invocations by longest matching argument prefix.
type fakeRunner struct {
	responses map[string]cmdrunner.Result
	calls     []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) cmdrunner.Result {
	key := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, key)
	for prefix, res := range f.responses {
		if strings.HasPrefix(key, prefix) {
			return res
		}
	}
	return cmdrunner.Result{FailureDetail: "no stub for " + key}
}

func newService(run cmdrunner.Runner) *Service {
	return New(&config.Config{CorrelationID: "test"}, run)
}

const testUDID = "AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEEEE"

func TestAvailableRequiresDarwin(t *testing.T) {
	previous := hostOS
	t.Cleanup(func() { hostOS = previous })

	run := &fakeRunner{responses: map[string]cmdrunner.Result{
		"xcrun simctl help": {Succeeded: true},
	}}
	svc := newService(run)

	hostOS = "linux"
	if svc.Available(context.Background()) {
		t.Fatal("expected unavailable off darwin even with a working probe")
	}

	hostOS = "darwin"
	if !svc.Available(context.Background()) {
		t.Fatal("expected available on darwin with working probe")
	}
}

func TestProbeSurfacesListingFailure(t *testing.T) {
	previous := hostOS
	hostOS = "darwin"
	t.Cleanup(func() { hostOS = previous })

	run := &fakeRunner{responses: map[string]cmdrunner.Result{
		"xcrun simctl help": {Succeeded: true},
		"xcrun simctl list": {FailureDetail: "simctl exploded"},
	}}
	pr := newService(run).Probe(context.Background())

	if !pr.Available {
		t.Fatal("expected available")
	}
	if pr.Err == nil {
		t.Fatal("expected listing error")
	}
	if pr.Completed() {
		t.Fatal("failed listing must not count as completed")
	}
}

func TestStartRejectsInvalidUDID(t *testing.T) {
	run := &fakeRunner{responses: map[string]cmdrunner.Result{}}
	err := newService(run).Start(context.Background(), device.Record{UDID: "booted; rm -rf /"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(run.calls) != 0 {
		t.Fatalf("no subprocess may run on validation failure, got %v", run.calls)
	}
}

func TestStartAlreadyBootedIsSuccess(t *testing.T) {
	run := &fakeRunner{responses: map[string]cmdrunner.Result{
		"xcrun simctl boot": {
			Stderr:        "Unable to boot device in current state: Booted (already booted)",
			FailureDetail: "xcrun simctl boot failed: exit status 149",
		},
		"open -a Simulator": {Succeeded: true},
	}}
	err := newService(run).Start(context.Background(), device.Record{UDID: testUDID})
	if err != nil {
		t.Fatalf("already-booted boot must succeed, got %v", err)
	}
}

func TestStartSurfacesRealFailure(t *testing.T) {
	run := &fakeRunner{responses: map[string]cmdrunner.Result{
		"xcrun simctl boot": {
			Stderr:        "Invalid device state",
			FailureDetail: "xcrun simctl boot failed: exit status 164",
		},
	}}
	err := newService(run).Start(context.Background(), device.Record{UDID: testUDID})
	if err == nil {
		t.Fatal("expected boot failure")
	}
	if !strings.Contains(err.Error(), "Invalid device state") {
		t.Fatalf("error should carry tool output, got %v", err)
	}
}

func TestStatusFindsRecord(t *testing.T) {
	listing := `{"devices":{"com.apple.CoreSimulator.SimRuntime.iOS-17-0":[{"udid":"` + testUDID + `","name":"iPhone 15","state":"Booting","deviceTypeIdentifier":"iPhone15,2"}]}}`
	run := &fakeRunner{responses: map[string]cmdrunner.Result{
		"xcrun simctl list": {Succeeded: true, Stdout: listing},
	}}
	st, err := newService(run).Status(context.Background(), device.Record{ID: device.IOSID(testUDID)})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st != device.StateStarting {
		t.Fatalf("state = %q, want starting", st)
	}

	st, err = newService(run).Status(context.Background(), device.Record{ID: device.IOSID("00000000-0000-0000-0000-000000000000")})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st != device.StateStopped {
		t.Fatalf("missing device state = %q, want stopped", st)
	}
}
