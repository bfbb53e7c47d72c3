// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package tmdb

import "github.com/tomtom215/reelrank/internal/titles"

// Movie is a TMDb movie as returned by search and list endpoints.
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	Popularity  float64 `json:"popularity"`
	GenreIDs    []int   `json:"genre_ids"`
}

// Year returns the release year, or 0 when unknown.
func (m Movie) Year() int {
	return titles.ReleaseYear(m.ReleaseDate)
}

// Page is one page of a paginated list.
type Page struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// MovieDetail is /movie/{id} with recommendations and similar appended.
type MovieDetail struct {
	Movie
	Recommendations *Page `json:"recommendations,omitempty"`
	Similar         *Page `json:"similar,omitempty"`
}

// RecommendationResults returns the appended recommendations, or nil.
func (d *MovieDetail) RecommendationResults() []Movie {
	if d == nil || d.Recommendations == nil {
		return nil
	}
	return d.Recommendations.Results
}

// SimilarResults returns the appended similar titles, or nil.
func (d *MovieDetail) SimilarResults() []Movie {
	if d == nil || d.Similar == nil {
		return nil
	}
	return d.Similar.Results
}

var genreNames = map[int]string{
	28:    "Action",
	12:    "Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	14:    "Fantasy",
	36:    "History",
	27:    "Horror",
	10402: "Music",
	9648:  "Mystery",
	10749: "Romance",
	878:   "Science Fiction",
	10770: "TV Movie",
	53:    "Thriller",
	10752: "War",
	37:    "Western",
}

// GenreNames maps TMDb genre ids to names. Unknown ids map to "Unknown".
func GenreNames(ids []int) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		name, ok := genreNames[id]
		if !ok {
			name = "Unknown"
		}
		out = append(out, name)
	}
	return out
}
