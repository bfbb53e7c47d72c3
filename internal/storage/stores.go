// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package storage

// Stores bundles every typed store over one substrate and one lock table.
type Stores struct {
	KV            Store
	Locks         *KeyedMutex
	Profiles      *ProfileStore
	Results       *ResultStore
	IDs           *IDCache
	Slugs         *SlugCacheStore
	LIDs          *LIDCache
	WatchlistAdds *WatchlistAdds
	Settings      *SettingsStore
	Flags         *FlagStore
}

// NewStores wires the typed stores. enc may be nil.
func NewStores(kv Store, enc Encryptor) *Stores {
	locks := NewKeyedMutex()
	return &Stores{
		KV:            kv,
		Locks:         locks,
		Profiles:      NewProfileStore(kv, locks),
		Results:       NewResultStore(kv),
		IDs:           NewIDCache(kv, locks),
		Slugs:         NewSlugCacheStore(kv, locks),
		LIDs:          NewLIDCache(kv, locks),
		WatchlistAdds: NewWatchlistAdds(kv, locks),
		Settings:      NewSettingsStore(kv, locks, enc),
		Flags:         NewFlagStore(kv),
	}
}
