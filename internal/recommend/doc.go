// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package recommend turns a member's profile into ranked film
// recommendations.
//
// # Pipeline
//
// A generation runs these steps in order:
//
//   - Seed selection: liked and rated films merged by slug, ordered by
//     rating plus a half point for a like, truncated to MaxSeeds
//   - Seed weighting: distinct seed scores form tiers; the top tier gets
//     weight 1.2, the bottom 1.0, linear in between
//   - Connectivity probe: one TMDb search for the first seed; failure
//     aborts with ErrConnectivity
//   - TMDb expansion: recommendations and similar lists per seed, in
//     batches
//   - External expansion: Reddit and Taste.io for the leading seeds,
//     concurrently, with per-source failure accounting
//   - Title resolution: external titles searched on TMDb and kept only
//     when IsConfidentMatch accepts them
//   - Exclusion, scoring, seed boost, normalization and ranking
//
// # Pipelines
//
// Generate uses DefaultPipeline for whole-profile results. GenerateForSeed
// uses FilmPagePipeline, where external sources may reinforce TMDb
// candidates but never introduce new ones.
//
// # Scoring
//
// Each popularity level has its own component weights, chosen so that
// the largest positive score minus the largest popularity penalty is 100.
// Level 3 additionally drops films with more than 5000 votes.
//
// # Thread Safety
//
// An Engine holds no per-generation state and is safe for concurrent use.
package recommend
