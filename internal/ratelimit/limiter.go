// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package ratelimit bounds the outbound request rate to each upstream source.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket. Tokens refill continuously at Rate per second
// up to Burst. Acquire reserves tokens in call order, so waiters are served
// FIFO.
type Limiter struct {
	l *rate.Limiter
}

// New creates a limiter that starts with a full bucket.
func New(perSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{l: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Acquire blocks until a token is available. It only fails when ctx is
// cancelled or its deadline passes before the token would be granted.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.l.Wait(ctx)
}

// Rate returns the refill rate in tokens per second.
func (l *Limiter) Rate() float64 {
	return float64(l.l.Limit())
}

// Burst returns the bucket capacity.
func (l *Limiter) Burst() int {
	return l.l.Burst()
}
