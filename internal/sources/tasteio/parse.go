// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package tasteio

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelrank/internal/titles"
)

var (
	jsonLDScript = regexp.MustCompile(`(?is)<script[^>]*type="application/ld\+json"[^>]*>(.*?)</script>`)
	movieCard    = regexp.MustCompile(`(?i)<a[^>]*href="/movies/([^/"]+)"[^>]*>[\s\S]*?<[^>]*class="[^"]*name[^"]*"[^>]*>([^<]+)`)
	fourDigits   = regexp.MustCompile(`(\d{4})`)
)

type ldMovie struct {
	Name          string `json:"name"`
	URL           string `json:"url"`
	DatePublished string `json:"datePublished"`
	DateCreated   string `json:"dateCreated"`
}

type ldEntry struct {
	ldMovie
	Item *ldMovie `json:"item"`
}

// ParseSimilar extracts recommendations from a "movies like" page. The
// JSON-LD item list is preferred; card markup is the fallback.
func ParseSimilar(html string) []Recommendation {
	if recs := parseJSONLD(html); len(recs) > 0 {
		return recs
	}

	var recs []Recommendation
	for _, m := range movieCard.FindAllStringSubmatch(html, -1) {
		slug := m[1]
		title := titles.DecodeEntities(strings.TrimSpace(m[2]))
		if title != "" && slug != "" && slug != "like" {
			recs = append(recs, Recommendation{Title: title, Slug: slug})
		}
	}
	return recs
}

func parseJSONLD(html string) []Recommendation {
	m := jsonLDScript.FindStringSubmatch(html)
	if m == nil {
		return nil
	}
	raw := []byte(m[1])

	var entries []ldEntry
	var list struct {
		ItemListElement []ldEntry `json:"itemListElement"`
	}
	if err := json.Unmarshal(raw, &list); err == nil && len(list.ItemListElement) > 0 {
		entries = list.ItemListElement
	} else if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}

	recs := make([]Recommendation, 0, len(entries))
	for _, e := range entries {
		movie := e.ldMovie
		if e.Item != nil {
			movie = *e.Item
		}
		if movie.Name == "" {
			continue
		}
		date := movie.DatePublished
		if date == "" {
			date = movie.DateCreated
		}
		recs = append(recs, Recommendation{
			Title: movie.Name,
			Year:  extractYear(date),
			Slug:  lastPathSegment(movie.URL),
		})
	}
	return recs
}

func extractYear(s string) int {
	if m := fourDigits.FindString(s); m != "" {
		year, _ := strconv.Atoi(m)
		return year
	}
	return 0
}

func lastPathSegment(u string) string {
	parts := strings.FieldsFunc(u, func(r rune) bool { return r == '/' })
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}
