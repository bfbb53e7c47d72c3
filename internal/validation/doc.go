// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package validation wraps go-playground/validator v10 for API request
// bodies and path parameters.
//
// A single validator instance is shared process-wide. It reports field
// names by their json tags and registers two Letterboxd-specific tags:
//
//	lbusername  letters, digits and underscores, at most 64 characters
//	lbslug      lowercase ASCII words joined by single hyphens
//
// Errors convert to the VALIDATION_ERROR response shape:
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
package validation
