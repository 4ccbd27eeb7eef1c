// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package emulators

import (
	"context"
	"errors"
	"testing"
)

func TestStartUnknownIDReturnsTypedError(t *testing.T) {
	mgr := NewWithEnv(Environment{CorrelationID: "test"})

	err := mgr.Start(context.Background(), "android:ghost")
	var unknown *UnknownDeviceError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want *UnknownDeviceError", err)
	}
	if unknown.ID != "android:ghost" {
		t.Errorf("id = %q, want android:ghost", unknown.ID)
	}
}

func TestStopUnknownIDReturnsTypedError(t *testing.T) {
	mgr := NewWithEnv(Environment{CorrelationID: "test"})

	err := mgr.Stop(context.Background(), "ios:ghost")
	var unknown *UnknownDeviceError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want *UnknownDeviceError", err)
	}
}
