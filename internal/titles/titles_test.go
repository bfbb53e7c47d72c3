// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package titles

import "testing"

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Marketa Lazarová", "marketa-lazarova"},
		{"Miller's Crossing", "millers-crossing"},
		{"Miller’s Crossing", "millers-crossing"},
		{"Heat", "heat"},
		{"  The Good, the Bad and the Ugly!  ", "the-good-the-bad-and-the-ugly"},
		{"Amélie", "amelie"},
		{"2001: A Space Odyssey", "2001-a-space-odyssey"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLegacySlug(t *testing.T) {
	t.Parallel()

	if got := LegacySlug("Miller's Crossing"); got != "miller-s-crossing" {
		t.Errorf("LegacySlug() = %q", got)
	}
	if got := LegacySlug("Amélie"); got != "am-lie" {
		t.Errorf("LegacySlug() = %q", got)
	}
}

func TestNormalizers(t *testing.T) {
	t.Parallel()

	if got := NormalizeForComparison("Léon (The Professional)"); got != "leon the professional" {
		t.Errorf("NormalizeForComparison() = %q", got)
	}
	if got := NormalizeForMatch("Harold & Maude"); got != "harold and maude" {
		t.Errorf("NormalizeForMatch() = %q", got)
	}
	if got := NormalizeForMatch("!!!"); got != "" {
		t.Errorf("NormalizeForMatch(punctuation) = %q", got)
	}
}

func TestParseTitleAndYear(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in        string
		wantTitle string
		wantYear  int
	}{
		{"Heat (1995)", "Heat", 1995},
		{"Tom &amp; Jerry (2021) ", "Tom & Jerry", 2021},
		{"Untitled", "Untitled", 0},
		{"1917 (2019)", "1917", 2019},
	}
	for _, tt := range tests {
		title, year := ParseTitleAndYear(tt.in)
		if title != tt.wantTitle || year != tt.wantYear {
			t.Errorf("ParseTitleAndYear(%q) = %q, %d; want %q, %d", tt.in, title, year, tt.wantTitle, tt.wantYear)
		}
	}
}

func TestReleaseYear(t *testing.T) {
	t.Parallel()

	if got := ReleaseYear("1995-12-15"); got != 1995 {
		t.Errorf("ReleaseYear() = %d", got)
	}
	if got := ReleaseYear(""); got != 0 {
		t.Errorf("ReleaseYear(empty) = %d", got)
	}
}

func TestFilmURLRoundTrip(t *testing.T) {
	t.Parallel()

	u := FilmURL("heat-1995")
	if u != "https://letterboxd.com/film/heat-1995/" {
		t.Errorf("FilmURL() = %q", u)
	}
	if got := SlugFromFilmURL(u); got != "heat-1995" {
		t.Errorf("SlugFromFilmURL() = %q", got)
	}
	if got := SlugFromFilmURL("https://letterboxd.com/dave/films/"); got != "" {
		t.Errorf("SlugFromFilmURL(non-film) = %q", got)
	}
}
