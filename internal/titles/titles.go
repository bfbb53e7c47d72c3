// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

/*
Package titles normalizes film titles and derives Letterboxd slugs.

Every comparison in the recommendation pipeline goes through one of the
normalizers here, so that a title scraped from a profile page, a title
returned by TMDb and a title extracted from a Reddit comment compare the
same way:

  - Slugify: the slug Letterboxd would assign to a title
  - LegacySlug: the older ASCII-only slug without transliteration
  - NormalizeForComparison: watched-title collision checks
  - NormalizeForMatch: external title confidence checks ("&" reads as "and")
*/
package titles

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LetterboxdBaseURL is the public site root used for film links.
const LetterboxdBaseURL = "https://letterboxd.com"

var (
	nonAlnumRun    = regexp.MustCompile(`[^a-z0-9]+`)
	titleYear      = regexp.MustCompile(`^(.+?)\s*\((\d{4})\)\s*$`)
	filmURLSlug    = regexp.MustCompile(`/film/([^/?#]+)/?`)
	apostropheLike = strings.NewReplacer("'", "", "’", "", "‘", "")
)

// fold decomposes s and drops combining marks, so "Lazarová" becomes
// "Lazarova".
func fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slugify returns the Letterboxd-style slug for title. Accents are
// transliterated and apostrophes dropped without splitting words.
func Slugify(title string) string {
	s := strings.ToLower(fold(title))
	s = apostropheLike.Replace(s)
	return strings.Trim(nonAlnumRun.ReplaceAllString(s, "-"), "-")
}

// LegacySlug is the slug without transliteration or apostrophe handling.
// Older Letterboxd entries still use it.
func LegacySlug(title string) string {
	s := strings.ToLower(title)
	return strings.Trim(nonAlnumRun.ReplaceAllString(s, "-"), "-")
}

// NormalizeForComparison lowercases, folds accents and collapses every
// non-alphanumeric run (parentheses included) to a single space.
func NormalizeForComparison(title string) string {
	s := strings.ToLower(fold(title))
	return strings.TrimSpace(nonAlnumRun.ReplaceAllString(s, " "))
}

// NormalizeForMatch is NormalizeForComparison with "&" read as "and".
func NormalizeForMatch(title string) string {
	s := strings.ToLower(fold(title))
	s = strings.ReplaceAll(s, "&", " and ")
	return strings.TrimSpace(nonAlnumRun.ReplaceAllString(s, " "))
}

// DecodeEntities decodes HTML character references.
func DecodeEntities(s string) string {
	return html.UnescapeString(s)
}

// ParseTitleAndYear splits "Heat (1995)" into its title and year. The year
// is 0 when absent.
func ParseTitleAndYear(nameWithYear string) (string, int) {
	decoded := DecodeEntities(nameWithYear)
	if m := titleYear.FindStringSubmatch(decoded); m != nil {
		year, _ := strconv.Atoi(m[2])
		return strings.TrimSpace(m[1]), year
	}
	return strings.TrimSpace(decoded), 0
}

// ReleaseYear extracts the year from a "YYYY-MM-DD" date. It returns 0 for
// an empty or malformed date.
func ReleaseYear(date string) int {
	head, _, _ := strings.Cut(date, "-")
	year, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return year
}

// FilmURL returns the public Letterboxd film page URL for slug.
func FilmURL(slug string) string {
	return LetterboxdBaseURL + "/film/" + slug + "/"
}

// SlugFromFilmURL returns the slug segment of a /film/{slug}/ URL, or "".
func SlugFromFilmURL(u string) string {
	if m := filmURLSlug.FindStringSubmatch(u); m != nil {
		return m[1]
	}
	return ""
}
