// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package letterboxd

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/titles"
)

var (
	ogTitle       = regexp.MustCompile(`(?i)property="og:title"\s+content="([^"]+)"`)
	searchItemTag = regexp.MustCompile(`(?i)<[^>]*data-item-slug="([^"]+)"[^>]*>`)
	searchName    = regexp.MustCompile(`(?i)data-item-name="([^"]+)"`)
)

type searchCandidate struct {
	slug  string
	title string
	year  int
}

// Resolver maps possibly stale film slugs to the slugs Letterboxd serves
// today.
type Resolver struct {
	client *Client
	logger zerolog.Logger
}

func NewResolver(client *Client) *Resolver {
	return &Resolver{client: client, logger: logging.WithComponent("letterboxd-resolver")}
}

// ResolveCanonicalSlug follows the film page redirect for slug. When title
// or year is given the landing page must match them, otherwise the site
// search is consulted. Any failure returns slug unchanged.
func (r *Resolver) ResolveCanonicalSlug(ctx context.Context, slug, title string, year int) string {
	if resolved, ok := r.resolveDirect(ctx, slug, title, year); ok {
		return resolved
	}
	if ctx.Err() != nil {
		return slug
	}
	return r.resolveBySearch(ctx, slug, title, year)
}

func (r *Resolver) resolveDirect(ctx context.Context, slug, title string, year int) (string, bool) {
	resp, err := r.client.Get(ctx, r.client.FilmPageURL(slug))
	if err != nil || !resp.OK() {
		return "", false
	}
	canonical := titles.SlugFromFilmURL(resp.URL)
	if canonical == "" {
		return "", false
	}
	if title == "" && year == 0 {
		return canonical, true
	}
	if matchesPage(string(resp.Body), title, year) {
		return canonical, true
	}
	return "", false
}

func (r *Resolver) resolveBySearch(ctx context.Context, slug, title string, year int) string {
	query := strings.TrimSpace(title)
	if query == "" {
		query = strings.ReplaceAll(slug, "-", " ")
	}
	resp, err := r.client.Get(ctx, r.client.baseURL+"/search/films/"+url.PathEscape(query)+"/")
	if err != nil || !resp.OK() {
		r.logger.Debug().Err(err).Str("slug", slug).Msg("Search fallback unavailable")
		return slug
	}

	candidates := parseSearchCandidates(string(resp.Body))
	if len(candidates) == 0 {
		return slug
	}

	wantTitle := titles.NormalizeForComparison(title)
	best, bestScore := candidates[0], -1
	for _, c := range candidates {
		score := 0
		if title != "" && titles.NormalizeForComparison(c.title) == wantTitle {
			score += 3
		}
		if year > 0 && c.year == year {
			score += 2
		}
		if c.slug == slug {
			score++
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best.slug
}

// VerifyContext reports whether the film page at slug carries the given
// title and year. Unset fields are not compared.
func (r *Resolver) VerifyContext(ctx context.Context, slug, title string, year int) bool {
	resp, err := r.client.Get(ctx, r.client.FilmPageURL(slug))
	if err != nil || !resp.OK() {
		return false
	}
	return matchesPage(string(resp.Body), title, year)
}

func matchesPage(html, title string, year int) bool {
	var meta string
	if m := ogTitle.FindStringSubmatch(html); m != nil {
		meta = m[1]
	}
	pageTitle, pageYear := titles.ParseTitleAndYear(meta)
	if title != "" && titles.NormalizeForComparison(pageTitle) != titles.NormalizeForComparison(title) {
		return false
	}
	if year > 0 && pageYear != year {
		return false
	}
	return true
}

func parseSearchCandidates(html string) []searchCandidate {
	var out []searchCandidate
	for _, m := range searchItemTag.FindAllStringSubmatch(html, -1) {
		name := searchName.FindStringSubmatch(m[0])
		if m[1] == "" || name == nil {
			continue
		}
		t, y := titles.ParseTitleAndYear(name[1])
		out = append(out, searchCandidate{slug: m[1], title: t, year: y})
	}
	return out
}
