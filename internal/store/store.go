// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

// Package store reconciles per-platform probe results into a stable record
// set. Records are updated in place so anything holding a pointer (a view,
// a watch loop) keeps its selection across refreshes, and a change signal
// fires only when something actually differed.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/forkbombeu/emuctl/internal/device"
	"github.com/forkbombeu/emuctl/internal/telemetry"
)

// ErrUnknownDevice reports a Start or Stop against an id the store does not
// hold. Callers match it with errors.Is.
var ErrUnknownDevice = errors.New("unknown device id")

// Provider is one platform's probe/boot surface.
type Provider interface {
	Platform() device.Platform
	Probe(ctx context.Context) device.ProbeResult
	Status(ctx context.Context, rec device.Record) (device.State, error)
	Start(ctx context.Context, rec device.Record) error
	Stop(ctx context.Context, rec device.Record) error
}

// bootRecheckDelays schedules status convergence after an optimistic boot;
// the early checks make a fast boot feel instant, the late one catches a
// slow cold boot before the regular poll would.
var bootRecheckDelays = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	3 * time.Second,
	5 * time.Second,
}

// platformSet holds one platform's reconciled view: either a notice row
// (tool unavailable, listing failed) or the live record list. Records are
// retained behind a notice so a later successful listing preserves their
// identity.
type platformSet struct {
	notice  *device.Record
	order   []string
	records map[string]*device.Record
}

// Store is the reconciling status store.
type Store struct {
	mu            sync.Mutex
	providers     []Provider
	platforms     map[device.Platform]*platformSet
	subscribers   []chan struct{}
	correlationID string
	afterFunc     func(time.Duration, func()) // swappable in tests
}

// New builds a store over the given providers. Provider order is display
// order.
func New(correlationID string, providers ...Provider) *Store {
	s := &Store{
		providers:     providers,
		platforms:     make(map[device.Platform]*platformSet),
		correlationID: correlationID,
		afterFunc:     func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
	for _, p := range providers {
		s.platforms[p.Platform()] = &platformSet{records: make(map[string]*device.Record)}
	}
	return s
}

// Subscribe returns a channel that receives a token whenever the reconciled
// view changed. The channel is buffered; a slow reader coalesces signals
// instead of blocking the store.
func (s *Store) Subscribe() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{}, 1)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

func (s *Store) notifyLocked() {
	for _, ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Snapshot returns a copy of the current view in display order. A platform
// with a notice shows only the notice row, matching how discovery failures
// are surfaced inline without hiding the other platform.
func (s *Store) Snapshot() []device.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []device.Record
	for _, p := range s.providers {
		set := s.platforms[p.Platform()]
		if set.notice != nil {
			out = append(out, *set.notice)
			continue
		}
		for _, id := range set.order {
			out = append(out, *set.records[id])
		}
	}
	return out
}

// Refresh runs a full discovery cycle on every provider and reconciles the
// results. It reports whether anything changed.
func (s *Store) Refresh(ctx context.Context) bool {
	ctx, span := telemetry.StartSpan(ctx, s.correlationID, "store.Refresh")
	defer span.End()

	changed := false
	for _, p := range s.providers {
		pr := p.Probe(ctx)
		if s.fold(p.Platform(), pr) {
			changed = true
		}
	}
	span.SetAttributes(attribute.Bool("changed", changed))
	if changed {
		s.mu.Lock()
		s.notifyLocked()
		s.mu.Unlock()
	}
	return changed
}

// fold merges one probe result into the platform's set.
func (s *Store) fold(platform device.Platform, pr device.ProbeResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.platforms[platform]
	changed := false

	switch {
	case !pr.Available:
		// A failed availability probe looks the same as an uninstalled
		// toolchain, so the known records stay behind the warning notice;
		// only a completed listing drops them.
		notice := unavailableNotice(platform)
		if set.notice == nil || *set.notice != *notice {
			set.notice = notice
			changed = true
		}
	case pr.Err != nil:
		// Transient listing failure: surface it, but keep the known
		// records so identity survives until a listing completes.
		notice := errorNotice(platform, pr.Err)
		if set.notice == nil || *set.notice != *notice {
			set.notice = notice
			changed = true
		}
	default:
		if set.notice != nil {
			set.notice = nil
			changed = true
		}
		if s.mergeListingLocked(set, pr.Devices) {
			changed = true
		}
	}
	return changed
}

// mergeListingLocked reconciles a completed listing: updates in place,
// creates on first sighting, drops what the listing omits.
func (s *Store) mergeListingLocked(set *platformSet, fresh []device.Record) bool {
	changed := false
	seen := make(map[string]bool, len(fresh))
	order := make([]string, 0, len(fresh))

	for _, incoming := range fresh {
		seen[incoming.ID] = true
		order = append(order, incoming.ID)
		existing, ok := set.records[incoming.ID]
		if !ok {
			rec := incoming
			set.records[incoming.ID] = &rec
			changed = true
			continue
		}
		if updateRecordLocked(existing, incoming) {
			changed = true
		}
	}

	for id := range set.records {
		if !seen[id] {
			delete(set.records, id)
			changed = true
		}
	}
	set.order = order
	return changed
}

// updateRecordLocked mutates an existing record field by field, reporting
// whether anything differed. The ID never changes.
func updateRecordLocked(existing *device.Record, incoming device.Record) bool {
	changed := false
	if existing.DisplayName != incoming.DisplayName {
		existing.DisplayName = incoming.DisplayName
		changed = true
	}
	if existing.State != incoming.State {
		existing.State = incoming.State
		changed = true
	}
	if existing.Category != incoming.Category {
		existing.Category = incoming.Category
		changed = true
	}
	if existing.OSVersion != incoming.OSVersion {
		existing.OSVersion = incoming.OSVersion
		changed = true
	}
	if existing.Detail != incoming.Detail {
		existing.Detail = incoming.Detail
		changed = true
	}
	return changed
}

// Recheck re-probes only the run state of already-known records. It is the
// cheap periodic poll between full refreshes; every failure in here is
// expected polling noise and is swallowed.
func (s *Store) Recheck(ctx context.Context) bool {
	changed := false
	for _, p := range s.providers {
		s.mu.Lock()
		set := s.platforms[p.Platform()]
		pending := make([]device.Record, 0, len(set.order))
		if set.notice == nil {
			for _, id := range set.order {
				pending = append(pending, *set.records[id])
			}
		}
		s.mu.Unlock()

		for _, snapshot := range pending {
			st, err := p.Status(ctx, snapshot)
			if err != nil {
				continue
			}
			s.mu.Lock()
			// A concurrent refresh may have dropped or rewritten the
			// record while the probe ran, so resolve it again by id.
			if rec, ok := set.records[snapshot.ID]; ok && rec.State != st {
				rec.State = st
				changed = true
			}
			s.mu.Unlock()
		}
	}
	if changed {
		s.mu.Lock()
		s.notifyLocked()
		s.mu.Unlock()
	}
	return changed
}

// Start boots the record with the given id. The record is optimistically
// marked Starting before any subprocess runs, so the view reacts instantly;
// a non-benign boot failure rolls it back. Follow-up rechecks converge the
// optimistic state to the confirmed one.
func (s *Store) Start(ctx context.Context, id string) error {
	provider, rec, err := s.lookup(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	previous := rec.State
	if rec.State == device.StateStopped {
		rec.State = device.StateStarting
		s.notifyLocked()
	}
	snapshot := *rec
	s.mu.Unlock()

	if err := provider.Start(ctx, snapshot); err != nil {
		s.mu.Lock()
		if rec.State == device.StateStarting {
			rec.State = previous
			s.notifyLocked()
		}
		s.mu.Unlock()
		return err
	}

	for _, delay := range bootRecheckDelays {
		s.afterFunc(delay, func() {
			recheckCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			s.Recheck(recheckCtx)
		})
	}
	return nil
}

// Stop shuts the record with the given id down and rechecks immediately.
func (s *Store) Stop(ctx context.Context, id string) error {
	provider, rec, err := s.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	snapshot := *rec
	s.mu.Unlock()
	if err := provider.Stop(ctx, snapshot); err != nil {
		return err
	}
	s.Recheck(ctx)
	return nil
}

func (s *Store) lookup(id string) (Provider, *device.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.providers {
		set := s.platforms[p.Platform()]
		if rec, ok := set.records[id]; ok && rec.Kind == device.KindDevice {
			return p, rec, nil
		}
	}
	return nil, nil, fmt.Errorf("%w %q", ErrUnknownDevice, id)
}

func unavailableNotice(platform device.Platform) *device.Record {
	return &device.Record{
		ID:          string(platform) + ":unavailable",
		DisplayName: platformLabel(platform) + " tools not found",
		Platform:    platform,
		Kind:        device.KindWarning,
	}
}

func errorNotice(platform device.Platform, err error) *device.Record {
	return &device.Record{
		ID:          string(platform) + ":error",
		DisplayName: err.Error(),
		Platform:    platform,
		Kind:        device.KindError,
		Detail:      err.Error(),
	}
}

func platformLabel(platform device.Platform) string {
	switch platform {
	case device.PlatformIOS:
		return "iOS simulator"
	case device.PlatformAndroid:
		return "Android emulator"
	default:
		return string(platform)
	}
}
