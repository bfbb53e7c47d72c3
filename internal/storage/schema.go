// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package storage

import (
	"context"
	"time"
)

// SchemaVersion is the current cache layout version.
const SchemaVersion = 1

const schemaKey = "cache_schema"

// SchemaMeta records the layout version of stored data.
type SchemaMeta struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EnsureSchema records SchemaVersion when the stored version is missing or
// different. It never touches cached data.
func EnsureSchema(ctx context.Context, kv Store) (SchemaMeta, error) {
	s := NewTTLStore[SchemaMeta](kv, 0)
	meta, ok, err := s.Get(ctx, schemaKey)
	if err != nil {
		return SchemaMeta{}, err
	}
	if ok && meta.Version == SchemaVersion {
		return meta, nil
	}
	meta = SchemaMeta{Version: SchemaVersion, UpdatedAt: time.Now()}
	return meta, s.Set(ctx, schemaKey, meta)
}
