// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/tomtom215/reelrank/internal/models"
)

// reverseEncryptor is a reversible stand-in for the AES-GCM encryptor.
type reverseEncryptor struct{}

func (reverseEncryptor) Encrypt(s string) (string, error) { return "enc:" + reverse(s), nil }

func (reverseEncryptor) Decrypt(s string) (string, error) {
	return reverse(strings.TrimPrefix(s, "enc:")), nil
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func TestSettingsStore_Defaults(t *testing.T) {
	t.Parallel()

	s := NewSettingsStore(NewMemoryStore(), NewKeyedMutex(), nil)
	got, err := s.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != models.DefaultSettings() {
		t.Errorf("Get() = %+v, want defaults", got)
	}
}

func TestSettingsStore_EncryptsKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := NewMemoryStore()
	s := NewSettingsStore(kv, NewKeyedMutex(), reverseEncryptor{})

	key := "abc123"
	filter := 0
	if _, err := s.Update(ctx, models.SettingsUpdate{TMDbAPIKey: &key, PopularityFilter: &filter}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	raw, _ := kv.Get(ctx, settingsKey)
	if strings.Contains(string(raw), key) {
		t.Error("plaintext key found in stored settings")
	}

	got, err := s.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.TMDbAPIKey != key || got.PopularityFilter != 0 {
		t.Errorf("Get() = %+v", got)
	}
}

func TestSettingsStore_RejectsInvalid(t *testing.T) {
	t.Parallel()

	s := NewSettingsStore(NewMemoryStore(), NewKeyedMutex(), nil)
	tests := []struct {
		name string
		u    models.SettingsUpdate
	}{
		{"popularity too high", models.SettingsUpdate{PopularityFilter: intPtr(4)}},
		{"zero seeds", models.SettingsUpdate{MaxSeeds: intPtr(0)}},
		{"too many recs", models.SettingsUpdate{MaxRecommendations: intPtr(500)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Update(context.Background(), tt.u); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	got, _ := s.Get(context.Background())
	if got != models.DefaultSettings() {
		t.Errorf("invalid updates changed settings: %+v", got)
	}
}

func intPtr(v int) *int { return &v }

func TestSettingsStore_SetDefaults(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewSettingsStore(NewMemoryStore(), NewKeyedMutex(), nil)
	s.SetDefaults(models.Settings{
		TMDbAPIKey:         "never-a-default",
		LetterboxdUsername: "dave",
		MaxSeeds:           30,
		MaxRecommendations: 0,
		PopularityFilter:   9,
	})

	got, err := s.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := models.Settings{
		LetterboxdUsername: "dave",
		MaxSeeds:           30,
		MaxRecommendations: models.DefaultMaxRecommendations,
		PopularityFilter:   models.DefaultPopularityFilter,
	}
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}

	// Saved settings win over defaults.
	if _, err := s.Update(ctx, models.SettingsUpdate{MaxSeeds: intPtr(5)}); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Get(ctx); got.MaxSeeds != 5 || got.LetterboxdUsername != "dave" {
		t.Errorf("after update = %+v", got)
	}
}

func TestSettingsStore_ValidatesUsername(t *testing.T) {
	t.Parallel()

	s := NewSettingsStore(NewMemoryStore(), NewKeyedMutex(), nil)
	bad := "not a user"
	if _, err := s.Update(context.Background(), models.SettingsUpdate{LetterboxdUsername: &bad}); err == nil {
		t.Error("expected an error for an invalid username")
	}
}
