// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package services

import (
	"context"
)

// ContextHub is satisfied by *websocket.Hub.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// ProgressHubService supervises the generation progress hub. The hub
// closes its clients when ctx ends.
type ProgressHubService struct {
	hub  ContextHub
	name string
}

// NewProgressHubService wraps hub.
func NewProgressHubService(hub ContextHub) *ProgressHubService {
	return &ProgressHubService{
		hub:  hub,
		name: "progress-hub",
	}
}

// Serve implements suture.Service.
func (w *ProgressHubService) Serve(ctx context.Context) error {
	return w.hub.RunWithContext(ctx)
}

func (w *ProgressHubService) String() string {
	return w.name
}
