// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/reelrank/internal/config"
	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/storage"
	"github.com/tomtom215/reelrank/internal/supervisor/services"
)

// storageHandle is the opened key-value substrate. gc is nil for the
// memory backend.
type storageHandle struct {
	kv    storage.Store
	gc    services.ValueLogCollector
	close func() error
}

// openStorage opens the configured backend and records the schema version.
func openStorage(ctx context.Context, cfg config.StorageConfig) (*storageHandle, error) {
	var h *storageHandle
	switch cfg.Backend {
	case "memory":
		logging.Warn().Msg("Using in-memory storage; profiles and caches are lost on restart")
		h = &storageHandle{kv: storage.NewMemoryStore(), close: func() error { return nil }}
	case "badger", "":
		db, err := storage.OpenBadger(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open badger at %s: %w", cfg.Path, err)
		}
		h = &storageHandle{kv: db, gc: db, close: db.Close}
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	meta, err := storage.EnsureSchema(ctx, h.kv)
	if err != nil {
		_ = h.close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("record schema version: %w", err)
	}
	logging.Info().Str("backend", cfg.Backend).Int("schema_version", meta.Version).Msg("Storage opened")
	return h, nil
}

// openEncryptor returns the credential encryptor, or nil when no secret
// key is configured.
func openEncryptor(cfg config.SecurityConfig) (storage.Encryptor, error) {
	if cfg.SecretKey == "" {
		logging.Warn().Msg("REELRANK_SECRET_KEY not set; stored TMDb keys are not encrypted")
		return nil, nil
	}
	enc, err := config.NewCredentialEncryptor(cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("credential encryptor: %w", err)
	}
	return enc, nil
}
