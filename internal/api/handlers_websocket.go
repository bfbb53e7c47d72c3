// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package api

import (
	"net/http"

	"github.com/tomtom215/reelrank/internal/logging"
	ws "github.com/tomtom215/reelrank/internal/websocket"
)

// ProgressStream upgrades to a websocket that receives the user's
// generation progress events.
func (h *Handler) ProgressStream(w http.ResponseWriter, r *http.Request) {
	if h.deps.Hub == nil {
		respondError(w, http.StatusServiceUnavailable, CodeInternal, "Progress streaming is disabled", nil)
		return
	}
	username, ok := usernameParam(w, r)
	if !ok {
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.deps.Hub, conn, username)
	h.deps.Hub.Register <- client
	client.Start()
}
