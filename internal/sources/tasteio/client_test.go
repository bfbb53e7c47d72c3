// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package tasteio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const ldPage = `<html><head>
<script type="application/ld+json">{"@type":"ItemList","itemListElement":[
 {"@type":"ListItem","position":1,"item":{"name":"Thief","url":"https://www.taste.io/movies/thief","datePublished":"1981-03-27"}},
 {"@type":"ListItem","position":2,"item":{"name":"Ronin","url":"https://www.taste.io/movies/ronin/","dateCreated":"1998"}}
]}</script></head></html>`

const cardPage = `<div>
<a href="/movies/thief" class="card"><div class="movie-name">Thief</div></a>
<a href="/movies/like" class="nav"><span class="name">More</span></a>
<a href="/movies/tom-jerry"><span class="name">Tom &amp; Jerry</span></a>
</div>`

func TestParseSimilar_JSONLD(t *testing.T) {
	t.Parallel()

	recs := ParseSimilar(ldPage)
	want := []Recommendation{{"Thief", 1981, "thief"}, {"Ronin", 1998, "ronin"}}
	if len(recs) != len(want) {
		t.Fatalf("ParseSimilar() = %+v", recs)
	}
	for i := range want {
		if recs[i] != want[i] {
			t.Errorf("rec %d = %+v, want %+v", i, recs[i], want[i])
		}
	}
}

func TestParseSimilar_CardFallback(t *testing.T) {
	t.Parallel()

	recs := ParseSimilar(cardPage)
	if len(recs) != 2 {
		t.Fatalf("ParseSimilar() = %+v", recs)
	}
	if recs[0].Slug != "thief" || recs[1].Title != "Tom & Jerry" {
		t.Errorf("ParseSimilar() = %+v", recs)
	}
}

func TestSimilar(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/movies/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "Nothing" {
			_, _ = w.Write([]byte(`{"movies":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"movies":[{"slug":"heat","name":"Heat"}]}`))
	})
	mux.HandleFunc("/movies/like/heat", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(ldPage))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, RateLimit: 1000, Burst: 1000, Deadline: time.Second, HTTP: srv.Client()})

	recs, err := c.Similar(context.Background(), "Heat")
	if err != nil || len(recs) != 2 {
		t.Fatalf("Similar() = %+v, %v", recs, err)
	}

	recs, err = c.Similar(context.Background(), "Nothing")
	if err != nil || len(recs) != 0 {
		t.Errorf("Similar(unknown) = %+v, %v", recs, err)
	}
}

func TestSimilar_RequestFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, RateLimit: 1000, Burst: 1000, Deadline: time.Second, HTTP: srv.Client()})
	if _, err := c.Similar(context.Background(), "Heat"); err == nil {
		t.Error("expected error for failed search")
	}
}
