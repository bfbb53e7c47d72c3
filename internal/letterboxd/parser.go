// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package letterboxd

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tomtom215/reelrank/internal/models"
	"github.com/tomtom215/reelrank/internal/titles"
)

// Profile pages render each film as a LazyPoster component followed by a
// poster-viewingdata paragraph carrying the rating and like icons.
var (
	posterSlugFirst = regexp.MustCompile(`data-component-class="LazyPoster"[^>]*?data-item-slug="([^"]+)"`)
	posterSlugLast  = regexp.MustCompile(`data-item-slug="([^"]+)"[^>]*?data-component-class="LazyPoster"`)

	itemName   = regexp.MustCompile(`data-item-name="([^"]+)"`)
	filmID     = regexp.MustCompile(`data-film-id="(\d+)"`)
	ratedClass = regexp.MustCompile(`rated-(\d+)`)
	posterSrc  = regexp.MustCompile(`src="(https://a\.ltrbxd\.com/resized/film-poster[^"]*\.jpg[^"]*)"`)
	pageLink   = regexp.MustCompile(`/page/(\d+)/`)
)

// followWindow bounds how far past a poster its viewing data is looked for.
const followWindow = 2000

type posterMatch struct {
	slug string
	pos  int
}

// ParseFilms extracts the films listed on a profile page. Entries are
// returned in page order without duplicate slugs.
func ParseFilms(html string) []models.ScrapedFilm {
	matches := findPosters(html)
	films := make([]models.ScrapedFilm, 0, len(matches))

	for i, m := range matches {
		tagStart := strings.LastIndex(html[:m.pos], "<")
		if tagStart < 0 {
			tagStart = m.pos
		}
		tagEnd := strings.Index(html[m.pos:], ">")
		if tagEnd < 0 {
			tagEnd = len(html)
		} else {
			tagEnd += m.pos
		}
		tag := html[tagStart:tagEnd]

		// The region after the tag up to the next poster belongs to this film.
		end := min(len(html), m.pos+followWindow)
		if i+1 < len(matches) && matches[i+1].pos < end {
			end = matches[i+1].pos
		}
		follow := ""
		if tagEnd < end {
			follow = html[tagEnd:end]
		}

		films = append(films, buildFilm(m.slug, tag, follow))
	}
	return films
}

func findPosters(html string) []posterMatch {
	seen := make(map[string]bool)
	var out []posterMatch
	for _, re := range []*regexp.Regexp{posterSlugFirst, posterSlugLast} {
		for _, idx := range re.FindAllStringSubmatchIndex(html, -1) {
			slug := html[idx[2]:idx[3]]
			if seen[slug] {
				continue
			}
			seen[slug] = true
			out = append(out, posterMatch{slug: slug, pos: idx[0]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].pos < out[j].pos })
	return out
}

func buildFilm(slug, tag, follow string) models.ScrapedFilm {
	name := strings.ReplaceAll(slug, "-", " ")
	if m := itemName.FindStringSubmatch(tag); m != nil {
		name = m[1]
	}
	title, year := titles.ParseTitleAndYear(name)

	film := models.ScrapedFilm{
		Slug:          slug,
		Title:         title,
		Year:          year,
		Liked:         strings.Contains(follow, "icon-liked"),
		Reviewed:      strings.Contains(follow, "icon-review") || strings.Contains(follow, "has-review"),
		LetterboxdURL: titles.FilmURL(slug),
	}

	viewing := follow
	if m := filmID.FindStringSubmatch(tag); m != nil {
		block := regexp.MustCompile(`poster-viewingdata[^>]*data-item-uid="film:` + m[1] + `"[^>]*>([\s\S]*?)</p>`)
		if vm := block.FindStringSubmatch(follow); vm != nil {
			viewing = vm[1]
		}
	}
	if rating, ok := parseRating(viewing); ok {
		film.Rating = &rating
	} else if rating, ok := parseRating(follow); ok {
		film.Rating = &rating
	}

	if m := posterSrc.FindStringSubmatch(follow); m != nil {
		film.PosterURL = m[1]
	}
	return film
}

// parseRating reads a rated-N class, where N counts half stars.
func parseRating(s string) (float64, bool) {
	m := ratedClass.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return float64(n) / 2, true
}

// ParsePagination returns the highest page number linked from html, or 1.
func ParsePagination(html string) int {
	maxPage := 1
	for _, m := range pageLink.FindAllStringSubmatch(html, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > maxPage {
			maxPage = n
		}
	}
	return maxPage
}
