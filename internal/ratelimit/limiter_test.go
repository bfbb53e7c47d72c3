// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAcquireBurstIsImmediate(t *testing.T) {
	t.Parallel()

	l := New(1, 5)
	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("burst of 5 took %v, want near zero", elapsed)
	}
}

func TestAcquireRefills(t *testing.T) {
	t.Parallel()

	l := New(20, 1)
	ctx := context.Background()
	_ = l.Acquire(ctx)

	start := time.Now()
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("second token arrived after %v, want about 50ms", elapsed)
	}
}

func TestAcquireCancelled(t *testing.T) {
	t.Parallel()

	l := New(0.1, 1)
	_ = l.Acquire(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	if err := l.Acquire(ctx); err == nil {
		t.Fatal("expected an error when the context expires first")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Acquire returned after %v, want prompt failure", elapsed)
	}
}

func TestNewClampsBurst(t *testing.T) {
	t.Parallel()

	if got := New(2, 0).Burst(); got != 1 {
		t.Errorf("Burst() = %d, want 1", got)
	}
	if got := New(2, 2).Rate(); got != 2 {
		t.Errorf("Rate() = %v, want 2", got)
	}
}
