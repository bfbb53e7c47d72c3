// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

type envelope[T any] struct {
	StoredAt time.Time `json:"storedAt"`
	Value    T         `json:"value"`
}

// TTLStore stores typed JSON values. A zero TTL never expires.
type TTLStore[T any] struct {
	kv  Store
	ttl time.Duration
	now func() time.Time
}

// NewTTLStore returns a TTLStore over kv.
func NewTTLStore[T any](kv Store, ttl time.Duration) *TTLStore[T] {
	return &TTLStore[T]{kv: kv, ttl: ttl, now: time.Now}
}

// Get returns the value if present and not older than the TTL. An expired
// entry is removed before reporting absent.
func (s *TTLStore[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}

	var env envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, false, fmt.Errorf("decode %s: %w", key, err)
	}

	if s.ttl > 0 && s.now().Sub(env.StoredAt) > s.ttl {
		if err := s.kv.Remove(ctx, key); err != nil {
			return zero, false, fmt.Errorf("evict %s: %w", key, err)
		}
		return zero, false, nil
	}
	return env.Value, true, nil
}

// Set stores value stamped with the current time.
func (s *TTLStore[T]) Set(ctx context.Context, key string, value T) error {
	return s.SetAt(ctx, key, value, s.now())
}

// SetAt stores value with an explicit timestamp, for records whose age is
// measured from a field of their own (a profile's scrape time, a result's
// generation time).
func (s *TTLStore[T]) SetAt(ctx context.Context, key string, value T, storedAt time.Time) error {
	raw, err := json.Marshal(envelope[T]{StoredAt: storedAt, Value: value})
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.kv.Set(ctx, key, raw)
}

// Remove deletes key.
func (s *TTLStore[T]) Remove(ctx context.Context, key string) error {
	return s.kv.Remove(ctx, key)
}

// SetClock overrides the time source. Intended for tests.
func (s *TTLStore[T]) SetClock(now func() time.Time) {
	s.now = now
}
