// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Edge is a response cache with per-entry TTLs. Implementations are safe
// for concurrent use.
type Edge interface {
	// Get returns the value and true when present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value for ttl, overwriting any existing entry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config selects and sizes an edge cache.
type Config struct {
	Backend  string
	Capacity int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// New builds the configured backend. The Redis backend pings the server
// before returning.
//
//nolint:gocritic // config is read once at startup
func New(ctx context.Context, cfg Config) (Edge, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendMemory:
		return NewMemory(cfg.Capacity), nil
	case BackendRedis:
		client, err := DialRedis(ctx, RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return nil, err
		}
		return NewRedis(client, cfg.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown edge cache backend %q", cfg.Backend)
	}
}

// Verify interface implementations at compile time
var (
	_ Edge = (*Memory)(nil)
	_ Edge = (*Redis)(nil)
)
