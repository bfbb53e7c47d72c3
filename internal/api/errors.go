// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package api

// Error codes returned in the error envelope.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeBadRequest        = "BAD_REQUEST"
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidUsername   = "INVALID_USERNAME"
	CodeNoSeeds           = "NO_SEEDS"
	CodeTMDbUnreachable   = "TMDB_UNREACHABLE"
	CodeTMDbNotConfigured = "TMDB_NOT_CONFIGURED"
	CodeRateLimited       = "RATE_LIMITED"
	CodeInternal          = "INTERNAL_ERROR"
)
