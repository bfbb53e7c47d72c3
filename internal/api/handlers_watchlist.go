// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package api

import (
	"net/http"

	"github.com/tomtom215/reelrank/internal/models"
)

// AddToWatchlist adds a film to the signed-in Letterboxd user's watchlist.
// Failures are reported in the result with a reason and a fallback URL;
// the HTTP status stays 200.
func (h *Handler) AddToWatchlist(w http.ResponseWriter, r *http.Request) {
	var req models.WatchlistRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result := h.deps.Watchlist.Add(r.Context(), req)
	respondSuccess(w, r, http.StatusOK, result)
}
