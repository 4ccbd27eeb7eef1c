// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

/*
Package emulators provides a Go library for discovering and controlling
iOS simulators and Android emulators through a single reconciled view.

# Overview

The library probes the host for platform tooling (xcrun simctl on macOS,
the Android SDK emulator and adb everywhere), lists the devices each
platform knows about, and maintains a reconciling store over the results.
Repeated listings update records in place, so callers holding a snapshot
see stable identities across polls.

# Quick Start

	import "github.com/forkbombeu/emuctl/pkg/emulators"

	func main() {
		mgr := emulators.New()

		// One full discovery cycle across both platforms.
		devices := mgr.List(context.Background())
		for _, d := range devices {
			fmt.Printf("%s %s %s\n", d.Platform, d.DisplayName, d.State)
		}

		// Boot by reconciled id ("android:<avd>" or "ios:<udid>").
		mgr.Start(context.Background(), "android:Pixel_6")
	}

# Key Concepts

**Record**: One row in the reconciled view. Device rows carry platform,
run state, category and OS version; warning and error rows report a
platform whose tools are missing or whose listing failed, inline with
the healthy platform's devices.

**Reconciled id**: Stable identifier of a record, "<platform>:<key>".
Android uses the AVD name, iOS the simulator UDID.

**Run state**: "stopped", "starting" or "running". Boots are optimistic:
Start marks the record starting immediately and scheduled rechecks
converge it to the confirmed state.

# Watching

Subscribe returns a channel that signals whenever the reconciled view
changes. Combine it with periodic Recheck calls for a live dashboard;
the emuctl watch command is built exactly this way.

# Unavailable Platforms

A platform whose tools are not installed yields a single warning row
instead of an error. Listing failures on an available platform yield an
error row and retain the previously known records until a listing
completes again.

# Thread Safety

Manager methods are safe for concurrent use; the underlying store
serializes reconciliation.

# License

AGPL-3.0-only

Copyright (C) 2025 Forkbomb B.V.
*/
package emulators
