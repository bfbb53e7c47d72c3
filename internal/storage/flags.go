// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package storage

import (
	"context"
	"time"

	"github.com/tomtom215/reelrank/internal/models"
)

// Safety windows for persisted status records.
const (
	// GenerationFlagTTL bounds how long an interrupted generation is
	// reported as in progress.
	GenerationFlagTTL = 5 * time.Minute

	// HealthRecoveryTTL is how long a degraded marker lasts without being
	// refreshed.
	HealthRecoveryTTL = 30 * time.Minute

	// GlobalHealthScope is used by collaborators that are not tied to a
	// single profile.
	GlobalHealthScope = "_global"
)

const (
	generatingKeyPrefix = "generating:"
	healthKeyPrefix     = "health:"
)

// FlagStore keeps per-user generation flags and service health records.
type FlagStore struct {
	flags  *TTLStore[models.GenerationFlag]
	health *TTLStore[models.ServiceHealth]
	now    func() time.Time
}

// NewFlagStore returns a FlagStore backed by kv.
func NewFlagStore(kv Store) *FlagStore {
	return &FlagStore{
		flags:  NewTTLStore[models.GenerationFlag](kv, 0),
		health: NewTTLStore[models.ServiceHealth](kv, 0),
		now:    time.Now,
	}
}

// SetGenerating records that a generation for username started now.
func (f *FlagStore) SetGenerating(ctx context.Context, username string) error {
	u := models.NormalizeUsername(username)
	return f.flags.Set(ctx, generatingKeyPrefix+u, models.GenerationFlag{Username: u, StartedAt: f.now()})
}

// ClearGenerating removes the flag for username.
func (f *FlagStore) ClearGenerating(ctx context.Context, username string) error {
	return f.flags.Remove(ctx, generatingKeyPrefix+models.NormalizeUsername(username))
}

// Generating returns the flag for username, or nil. A flag older than
// GenerationFlagTTL is treated as abandoned and cleared.
func (f *FlagStore) Generating(ctx context.Context, username string) (*models.GenerationFlag, error) {
	key := generatingKeyPrefix + models.NormalizeUsername(username)
	flag, ok, err := f.flags.Get(ctx, key)
	if err != nil || !ok {
		return nil, err
	}
	if f.now().Sub(flag.StartedAt) > GenerationFlagTTL {
		return nil, f.flags.Remove(ctx, key)
	}
	return &flag, nil
}

// SetHealth records the health for scope (a username or GlobalHealthScope).
func (f *FlagStore) SetHealth(ctx context.Context, scope string, status models.HealthStatus, reason string) error {
	h := models.ServiceHealth{Status: status, Reason: reason, UpdatedAt: f.now()}
	if status == models.HealthNormal {
		h.Reason = ""
	}
	return f.health.Set(ctx, healthKeyPrefix+models.NormalizeUsername(scope), h)
}

// Health returns the health for scope. A degraded record older than
// HealthRecoveryTTL flips back to normal.
func (f *FlagStore) Health(ctx context.Context, scope string) (models.ServiceHealth, error) {
	h, ok, err := f.health.Get(ctx, healthKeyPrefix+models.NormalizeUsername(scope))
	if err != nil {
		return models.ServiceHealth{}, err
	}
	if !ok {
		return models.ServiceHealth{Status: models.HealthNormal, UpdatedAt: f.now()}, nil
	}
	if h.Status == models.HealthDegraded && f.now().Sub(h.UpdatedAt) > HealthRecoveryTTL {
		if err := f.SetHealth(ctx, scope, models.HealthNormal, ""); err != nil {
			return models.ServiceHealth{}, err
		}
		return models.ServiceHealth{Status: models.HealthNormal, UpdatedAt: f.now()}, nil
	}
	return h, nil
}

// SetClock overrides the time source. Intended for tests.
func (f *FlagStore) SetClock(now func() time.Time) {
	f.now = now
}
