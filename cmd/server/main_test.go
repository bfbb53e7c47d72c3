// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/tomtom215/reelrank/internal/config"
	"github.com/tomtom215/reelrank/internal/storage"
)

func TestTMDbKey_FallsBackToConfiguredKey(t *testing.T) {
	t.Parallel()

	k := newTMDbClient(config.TMDbConfig{APIKey: "configured"}, nil)
	k.SetAPIKey("  user-key ")
	if !k.Configured() {
		t.Fatal("client should be configured with the user key")
	}
	k.SetAPIKey("")
	if !k.Configured() {
		t.Error("clearing the user key should restore the configured key")
	}

	bare := newTMDbClient(config.TMDbConfig{}, nil)
	if bare.Configured() {
		t.Error("client without key or proxy reports configured")
	}
	bare.SetAPIKey("k")
	if !bare.Configured() {
		t.Error("client with a saved key reports unconfigured")
	}
	bare.SetAPIKey(" ")
	if bare.Configured() {
		t.Error("blank key should leave the client unconfigured")
	}
}

func TestTMDbKey_ProxyMode(t *testing.T) {
	t.Parallel()

	k := newTMDbClient(config.TMDbConfig{ProxyBaseURL: "https://proxy.example/v1/tmdb"}, nil)
	if !k.UsesProxy() {
		t.Fatal("client without key should use the proxy")
	}
	k.SetAPIKey("direct")
	if k.UsesProxy() {
		t.Error("client with a key should call TMDb directly")
	}
	k.SetAPIKey("")
	if !k.UsesProxy() {
		t.Error("clearing the key should return to the proxy")
	}
}

func TestNewEngine_DisabledSources(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Reddit.Enabled = false
	cfg.TasteIO.Enabled = false
	k := newTMDbClient(config.TMDbConfig{APIKey: "k"}, nil)
	engine, err := newEngine(cfg, k.Client, nil)
	if err != nil {
		t.Fatalf("newEngine: %v", err)
	}
	if engine == nil {
		t.Fatal("engine is nil")
	}
}

func TestOpenStorage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		t.Parallel()
		h, err := openStorage(ctx, config.StorageConfig{Backend: "memory"})
		if err != nil {
			t.Fatalf("openStorage: %v", err)
		}
		defer h.close() //nolint:errcheck // memory close never fails
		if h.gc != nil {
			t.Error("memory backend should not schedule value log GC")
		}
		meta, err := storage.EnsureSchema(ctx, h.kv)
		if err != nil || meta.Version != storage.SchemaVersion {
			t.Errorf("schema = %+v, %v", meta, err)
		}
	})

	t.Run("badger", func(t *testing.T) {
		t.Parallel()
		h, err := openStorage(ctx, config.StorageConfig{Backend: "badger", Path: filepath.Join(t.TempDir(), "db")})
		if err != nil {
			t.Fatalf("openStorage: %v", err)
		}
		if h.gc == nil {
			t.Error("badger backend should expose value log GC")
		}
		if err := h.close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Parallel()
		if _, err := openStorage(ctx, config.StorageConfig{Backend: "postgres"}); err == nil {
			t.Error("expected an error for an unknown backend")
		}
	})
}

func TestOpenEncryptor(t *testing.T) {
	t.Parallel()

	enc, err := openEncryptor(config.SecurityConfig{})
	if err != nil || enc != nil {
		t.Errorf("no secret: enc=%v err=%v, want nil, nil", enc, err)
	}

	enc, err = openEncryptor(config.SecurityConfig{SecretKey: "a-long-enough-secret-for-encryption-tests"})
	if err != nil {
		t.Fatalf("openEncryptor: %v", err)
	}
	sealed, err := enc.Encrypt("tmdb-key")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if plain, err := enc.Decrypt(sealed); err != nil || plain != "tmdb-key" {
		t.Errorf("Decrypt = %q, %v", plain, err)
	}
}

func TestInitProxy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cfg := &config.Config{}
	h, err := initProxy(ctx, cfg)
	if err != nil || h != nil {
		t.Fatalf("disabled proxy: h=%v err=%v", h, err)
	}

	cfg.Proxy.Enabled = true
	cfg.Proxy.CacheBackend = "memory"
	cfg.Proxy.AllowedOrigins = []string{"https://letterboxd.com"}
	cfg.TMDb.APIKey = "k"
	h, err = initProxy(ctx, cfg)
	if err != nil {
		t.Fatalf("initProxy: %v", err)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/tmdb/search/movie?query=heat", http.NoBody))
	if rec.Code != http.StatusForbidden {
		t.Errorf("request without origin = %d, want 403", rec.Code)
	}

	cfg.Proxy.CacheBackend = "memcached"
	if _, err := initProxy(ctx, cfg); err == nil {
		t.Error("expected an error for an unknown cache backend")
	}
}
