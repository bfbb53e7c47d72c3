// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package api

import (
	"net/http"
	"strings"

	"github.com/tomtom215/reelrank/internal/models"
)

// maskPrefix marks a redacted credential. Updates carrying a masked value
// leave the stored key unchanged.
const maskPrefix = "****"

// maskKey redacts all but the last four characters of long keys.
func maskKey(key string) string {
	switch {
	case key == "":
		return ""
	case len(key) <= 8:
		return maskPrefix
	default:
		return maskPrefix + key[len(key)-4:]
	}
}

func maskSettings(s models.Settings) models.Settings {
	s.TMDbAPIKey = maskKey(s.TMDbAPIKey)
	return s
}

// GetSettings returns the settings with the TMDb key masked.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.deps.Settings.Get(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to load settings", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, maskSettings(settings))
}

// UpdateSettings applies a validated partial update. A changed TMDb key
// takes effect on the client immediately.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var update models.SettingsUpdate
	if !decodeJSON(w, r, &update) {
		return
	}

	if update.TMDbAPIKey != nil {
		trimmed := strings.TrimSpace(*update.TMDbAPIKey)
		if strings.HasPrefix(trimmed, maskPrefix) {
			update.TMDbAPIKey = nil
		} else {
			update.TMDbAPIKey = &trimmed
		}
	}
	if update.LetterboxdUsername != nil {
		normalized := models.NormalizeUsername(*update.LetterboxdUsername)
		update.LetterboxdUsername = &normalized
	}

	settings, err := h.deps.Settings.Update(r.Context(), update)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to save settings", err)
		return
	}
	if update.TMDbAPIKey != nil && h.deps.TMDb != nil {
		h.deps.TMDb.SetAPIKey(settings.TMDbAPIKey)
	}
	respondSuccess(w, r, http.StatusOK, maskSettings(settings))
}
