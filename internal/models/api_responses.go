// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package models

import "time"

// APIResponse is the envelope for every /api/v1 response.
//
//	{"status":"success","data":{...},"metadata":{"timestamp":"..."}}
//	{"status":"error","error":{"code":"NO_SEEDS","message":"..."},"metadata":{...}}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries request bookkeeping.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
	Cached    bool      `json:"cached,omitempty"`
}

// APIError is a machine-readable error.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// WatchlistRequest asks to add a film to the signed-in user's watchlist.
type WatchlistRequest struct {
	Slug          string `json:"slug" validate:"required,max=200,lbslug"`
	Title         string `json:"title,omitempty" validate:"max=300"`
	Year          int    `json:"year,omitempty" validate:"omitempty,min=1870,max=2200"`
	CSRFToken     string `json:"csrfToken,omitempty"`
	SessionCookie string `json:"sessionCookie,omitempty"`
}

// WatchlistResult reports the outcome of a watchlist add.
type WatchlistResult struct {
	Success     bool   `json:"success"`
	Reason      string `json:"reason,omitempty"`
	FallbackURL string `json:"fallbackUrl,omitempty"`
	Slug        string `json:"slug,omitempty"`
}

// PageIngest is one scraped profile page pushed by a client.
type PageIngest struct {
	Username   string        `json:"username" validate:"required,lbusername"`
	PageType   PageType      `json:"pageType" validate:"required,oneof=films likes ratings watchlist"`
	Page       int           `json:"page" validate:"min=1"`
	TotalPages int           `json:"totalPages" validate:"min=0,max=1000"`
	Films      []ScrapedFilm `json:"films" validate:"max=500"`
}
