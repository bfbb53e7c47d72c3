// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package letterboxd

import "testing"

const profilePage = `<ul class="poster-list">
<li class="poster-container">
<div class="react-component" data-component-class="LazyPoster" data-item-name="The Big Lebowski (1998)" data-item-slug="the-big-lebowski" data-film-id="51935">
  <div class="poster film-poster"><img src="https://a.ltrbxd.com/resized/film-poster/5/1/9/3/5/51935-the-big-lebowski-0-150-0-225-crop.jpg?v=1" alt="Poster"/></div>
</div>
<p class="poster-viewingdata" data-item-uid="film:51935"><span class="rating rated-8">★★★★</span><span class="icon-liked"></span></p>
</li>
<li class="poster-container">
<div data-item-slug="amelie" data-item-name="Am&eacute;lie (2001)" class="react-component" data-component-class="LazyPoster">
  <div class="poster film-poster"></div>
</div>
<p class="poster-viewingdata"><span class="icon-review"></span></p>
</li>
<li class="poster-container">
<div class="react-component" data-component-class="LazyPoster" data-item-name="Tom &amp; Jerry" data-item-slug="tom-jerry" data-film-id="9">
</div>
<p class="poster-viewingdata" data-item-uid="film:9"><span class="rating rated-5">★★½</span></p>
</li>
<li><div class="react-component" data-component-class="LazyPoster" data-item-slug="the-big-lebowski"></div></li>
</ul>
<div class="paginate-pages"><ul>
<li><a href="/someone/films/page/2/">2</a></li>
<li><a href="/someone/films/page/12/">12</a></li>
</ul></div>`

func TestParseFilms(t *testing.T) {
	t.Parallel()

	films := ParseFilms(profilePage)
	if len(films) != 3 {
		t.Fatalf("ParseFilms() returned %d films: %+v", len(films), films)
	}

	lebowski := films[0]
	if lebowski.Slug != "the-big-lebowski" || lebowski.Title != "The Big Lebowski" || lebowski.Year != 1998 {
		t.Errorf("first film = %+v", lebowski)
	}
	if lebowski.Rating == nil || *lebowski.Rating != 4 {
		t.Errorf("first rating = %v, want 4", lebowski.Rating)
	}
	if !lebowski.Liked || lebowski.Reviewed {
		t.Errorf("first flags liked=%v reviewed=%v", lebowski.Liked, lebowski.Reviewed)
	}
	if lebowski.PosterURL == "" {
		t.Error("expected poster URL")
	}
	if lebowski.LetterboxdURL != "https://letterboxd.com/film/the-big-lebowski/" {
		t.Errorf("LetterboxdURL = %q", lebowski.LetterboxdURL)
	}

	amelie := films[1]
	if amelie.Title != "Amélie" || amelie.Year != 2001 {
		t.Errorf("reversed attribute film = %+v", amelie)
	}
	if amelie.Rating != nil || amelie.Liked || !amelie.Reviewed {
		t.Errorf("second film flags = %+v", amelie)
	}

	tom := films[2]
	if tom.Title != "Tom & Jerry" || tom.Year != 0 {
		t.Errorf("third film = %+v", tom)
	}
	if tom.Rating == nil || *tom.Rating != 2.5 {
		t.Errorf("third rating = %v, want 2.5", tom.Rating)
	}
}

func TestParseFilms_Empty(t *testing.T) {
	t.Parallel()

	if films := ParseFilms("<html><body>No films</body></html>"); len(films) != 0 {
		t.Errorf("ParseFilms() = %+v, want none", films)
	}
}

func TestParsePagination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want int
	}{
		{"links", profilePage, 12},
		{"none", "<p>single page</p>", 1},
		{"page one only", `<a href="/u/films/page/1/">1</a>`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ParsePagination(tt.html); got != tt.want {
				t.Errorf("ParsePagination() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSectionPath(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{BaseURL: "https://lb.test"})
	if got := c.ProfilePageURL("someone", SectionPath("likes"), 1); got != "https://lb.test/someone/likes/films/" {
		t.Errorf("page 1 URL = %q", got)
	}
	if got := c.ProfilePageURL("someone", SectionPath("ratings"), 3); got != "https://lb.test/someone/films/ratings/page/3/" {
		t.Errorf("page 3 URL = %q", got)
	}
	if !IsReservedUsername("Films") || IsReservedUsername("someone") {
		t.Error("IsReservedUsername() mismatch")
	}
}
