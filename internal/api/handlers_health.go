// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/reelrank/internal/models"
	"github.com/tomtom215/reelrank/internal/storage"
)

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status           string               `json:"status"` // ok or degraded
	ServiceHealth    models.ServiceHealth `json:"serviceHealth"`
	TMDbConfigured   bool                 `json:"tmdbConfigured"`
	QueuedPages      int                  `json:"queuedPages"`
	WebSocketClients int                  `json:"websocketClients"`
	Uptime           float64              `json:"uptime"` // seconds
}

// UserHealthResponse is the body of GET /api/v1/users/{username}/health.
// Profile covers that user's scrapes; Global covers shared collaborators
// such as the watchlist endpoint.
type UserHealthResponse struct {
	Username string               `json:"username"`
	Status   models.HealthStatus  `json:"status"`
	Profile  models.ServiceHealth `json:"profile"`
	Global   models.ServiceHealth `json:"global"`
}

// Health reports process status and the global service health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	global, err := h.deps.Health.Health(r.Context(), storage.GlobalHealthScope)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to read service health", err)
		return
	}

	resp := HealthResponse{
		Status:         "ok",
		ServiceHealth:  global,
		TMDbConfigured: h.deps.TMDb == nil || h.deps.TMDb.Configured(),
		Uptime:         time.Since(h.startTime).Seconds(),
	}
	if global.Status == models.HealthDegraded || !resp.TMDbConfigured {
		resp.Status = "degraded"
	}
	if h.deps.Queue != nil {
		resp.QueuedPages = h.deps.Queue.Len()
	}
	if h.deps.Hub != nil {
		resp.WebSocketClients = h.deps.Hub.GetClientCount()
	}
	respondSuccess(w, r, http.StatusOK, resp)
}

// UserHealth reports health for one user merged with the global scope.
func (h *Handler) UserHealth(w http.ResponseWriter, r *http.Request) {
	username, ok := usernameParam(w, r)
	if !ok {
		return
	}
	profile, err := h.deps.Health.Health(r.Context(), username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to read service health", err)
		return
	}
	global, err := h.deps.Health.Health(r.Context(), storage.GlobalHealthScope)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to read service health", err)
		return
	}

	status := models.HealthNormal
	if profile.Status == models.HealthDegraded || global.Status == models.HealthDegraded {
		status = models.HealthDegraded
	}
	respondSuccess(w, r, http.StatusOK, UserHealthResponse{
		Username: username,
		Status:   status,
		Profile:  profile,
		Global:   global,
	})
}
