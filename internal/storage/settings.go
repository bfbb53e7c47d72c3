// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/reelrank/internal/models"
	"github.com/tomtom215/reelrank/internal/validation"
)

const settingsKey = "settings"

// Encryptor seals credentials at rest. *config.CredentialEncryptor
// satisfies it.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

type storedSettings struct {
	models.Settings
	KeyEncrypted bool `json:"keyEncrypted,omitempty"`
}

// SettingsStore persists the single settings document.
type SettingsStore struct {
	store    *TTLStore[storedSettings]
	locks    *KeyedMutex
	enc      Encryptor
	validate *validator.Validate

	mu       sync.RWMutex
	defaults models.Settings
}

// NewSettingsStore creates a store. enc may be nil, in which case the TMDb
// key is stored as given.
func NewSettingsStore(kv Store, locks *KeyedMutex, enc Encryptor) *SettingsStore {
	return &SettingsStore{
		store:    NewTTLStore[storedSettings](kv, 0),
		locks:    locks,
		enc:      enc,
		validate: validation.GetValidator(),
		defaults: models.DefaultSettings(),
	}
}

// SetDefaults replaces the settings returned before anything is saved.
// Limits outside their valid range keep the built-in defaults.
//
//nolint:gocritic // settings are small and set once at startup
func (s *SettingsStore) SetDefaults(d models.Settings) {
	d.TMDbAPIKey = ""
	d = fillLimits(d, models.DefaultSettings())
	s.mu.Lock()
	s.defaults = d
	s.mu.Unlock()
}

func (s *SettingsStore) defaultSettings() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaults
}

// Get returns the settings with defaults filled in for unset limits.
func (s *SettingsStore) Get(ctx context.Context) (models.Settings, error) {
	defaults := s.defaultSettings()
	st, ok, err := s.store.Get(ctx, settingsKey)
	if err != nil {
		return defaults, err
	}
	if !ok {
		return defaults, nil
	}
	out := fillLimits(st.Settings, defaults)
	if st.KeyEncrypted && out.TMDbAPIKey != "" {
		if s.enc == nil {
			return defaults, fmt.Errorf("stored TMDb key is encrypted but no secret key is configured")
		}
		plain, err := s.enc.Decrypt(out.TMDbAPIKey)
		if err != nil {
			return defaults, fmt.Errorf("decrypt TMDb key: %w", err)
		}
		out.TMDbAPIKey = plain
	}
	return out, nil
}

// Update validates and applies a partial update.
func (s *SettingsStore) Update(ctx context.Context, u models.SettingsUpdate) (models.Settings, error) {
	if err := s.validate.Struct(u); err != nil {
		return models.Settings{}, fmt.Errorf("invalid settings: %w", err)
	}

	var out models.Settings
	err := s.locks.WithLock(ctx, settingsKey, func() error {
		current, err := s.Get(ctx)
		if err != nil {
			return err
		}
		next := u.Apply(current)
		if err := s.validate.Struct(next); err != nil {
			return fmt.Errorf("invalid settings: %w", err)
		}

		st := storedSettings{Settings: next}
		if s.enc != nil && next.TMDbAPIKey != "" {
			sealed, err := s.enc.Encrypt(next.TMDbAPIKey)
			if err != nil {
				return fmt.Errorf("encrypt TMDb key: %w", err)
			}
			st.TMDbAPIKey = sealed
			st.KeyEncrypted = true
		}
		if err := s.store.Set(ctx, settingsKey, st); err != nil {
			return err
		}
		out = next
		return nil
	})
	return out, err
}

//nolint:gocritic // settings are small
func fillLimits(s, d models.Settings) models.Settings {
	if s.MaxSeeds <= 0 || s.MaxSeeds > 100 {
		s.MaxSeeds = d.MaxSeeds
	}
	if s.MaxRecommendations <= 0 || s.MaxRecommendations > 100 {
		s.MaxRecommendations = d.MaxRecommendations
	}
	if s.PopularityFilter < 0 || s.PopularityFilter > 3 {
		s.PopularityFilter = d.PopularityFilter
	}
	return s
}
