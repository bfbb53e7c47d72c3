// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/metrics"
)

// DefaultGCInterval is how often the value log is compacted.
const DefaultGCInterval = 10 * time.Minute

// ValueLogCollector is satisfied by *storage.BadgerStore.
type ValueLogCollector interface {
	RunGC() error
}

// StorageGCService periodically reclaims Badger value log space left by
// overwritten profiles and expired results.
type StorageGCService struct {
	store    ValueLogCollector
	interval time.Duration
	logger   zerolog.Logger
	name     string
}

// NewStorageGCService creates the service. A non-positive interval uses
// DefaultGCInterval.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewStorageGCService(store ValueLogCollector, interval time.Duration, logger zerolog.Logger) *StorageGCService {
	if interval <= 0 {
		interval = DefaultGCInterval
	}
	return &StorageGCService{
		store:    store,
		interval: interval,
		logger:   logger.With().Str("service", "storage-gc").Logger(),
		name:     "storage-gc-service",
	}
}

// Serve implements suture.Service.
func (s *StorageGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.store.RunGC(); err != nil {
				metrics.StorageGCRuns.WithLabelValues("error").Inc()
				s.logger.Warn().Err(err).Msg("value log GC failed")
				continue
			}
			metrics.StorageGCRuns.WithLabelValues("ok").Inc()
		}
	}
}

func (s *StorageGCService) String() string {
	return s.name
}
