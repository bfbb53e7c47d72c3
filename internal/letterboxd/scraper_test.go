// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package letterboxd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/reelrank/internal/models"
	"github.com/tomtom215/reelrank/internal/storage"
)

func poster(slug, name string, rated int) string {
	s := `<div class="react-component" data-component-class="LazyPoster" data-item-name="` + name + `" data-item-slug="` + slug + `"></div><p class="poster-viewingdata">`
	if rated > 0 {
		s += `<span class="rating rated-` + string(rune('0'+rated)) + `"></span>`
	}
	return s + `</p>`
}

func newTestScraper(t *testing.T, handler http.Handler) (*Scraper, *storage.Stores) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	stores := storage.NewStores(storage.NewMemoryStore(), nil)
	client := NewClient(Config{BaseURL: srv.URL, Timeout: time.Second, HTTP: srv.Client()})
	s := NewScraper(client, ScraperDeps{
		Profiles:  stores.Profiles,
		Health:    stores.Flags,
		Watchlist: stores.WatchlistAdds,
		Settings:  stores.Settings,
	}, NewPageQueue(16))
	return s, stores
}

func TestScrapeProfile(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/cinephile/films/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(poster("heat", "Heat (1995)", 0) + `<a href="/cinephile/films/page/3/">3</a>`))
	})
	mux.HandleFunc("/cinephile/films/ratings/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(poster("heat", "Heat (1995)", 9) + poster("ronin", "Ronin (1998)", 0)))
	})
	mux.HandleFunc("/cinephile/likes/films/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(poster("thief", "Thief (1981)", 0)))
	})
	mux.HandleFunc("/cinephile/watchlist/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	s, stores := newTestScraper(t, mux)
	ctx := context.Background()
	if err := stores.WatchlistAdds.Add(ctx, "old-add"); err != nil {
		t.Fatal(err)
	}

	report, err := s.ScrapeProfile(ctx, " Cinephile ")
	if err != nil {
		t.Fatalf("ScrapeProfile() error = %v", err)
	}
	if report.SectionsWithData != 3 || report.FailedRequests != 1 || report.QueuedPages != 2 {
		t.Errorf("report = %+v", report)
	}

	p, err := stores.Profiles.Get(ctx, "cinephile")
	if err != nil || p == nil {
		t.Fatalf("profile = %v, %v", p, err)
	}
	if len(p.WatchedFilms) != 1 || len(p.LikedFilms) != 1 {
		t.Errorf("watched=%d liked=%d", len(p.WatchedFilms), len(p.LikedFilms))
	}
	if len(p.RatedFilms) != 1 || *p.RatedFilms[0].Rating != 4.5 {
		t.Errorf("rated = %+v", p.RatedFilms)
	}

	adds, _ := stores.WatchlistAdds.All(ctx)
	if len(adds) != 0 {
		t.Errorf("watchlist adds not cleared: %v", adds)
	}
	h, _ := stores.Flags.Health(ctx, "cinephile")
	if h.Status != models.HealthNormal {
		t.Errorf("health = %+v", h)
	}
	if s.Queue().Len() != 2 {
		t.Errorf("queue length = %d, want 2", s.Queue().Len())
	}
}

func TestScrapeProfile_DegradedHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		reason  string
	}{
		{
			name:    "requests failing",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusForbidden) },
			reason:  ReasonFetchFailing,
		},
		{
			name:    "nothing parsed",
			handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("<html>redesigned</html>")) },
			reason:  ReasonParsingChanged,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, stores := newTestScraper(t, tt.handler)
			if _, err := s.ScrapeProfile(context.Background(), "someone"); err != nil {
				t.Fatal(err)
			}
			h, _ := stores.Flags.Health(context.Background(), "someone")
			if h.Status != models.HealthDegraded || h.Reason != tt.reason {
				t.Errorf("health = %+v, want degraded %q", h, tt.reason)
			}
		})
	}
}

func TestScrapeProfile_InvalidUsername(t *testing.T) {
	t.Parallel()

	s, _ := newTestScraper(t, http.NotFoundHandler())
	for _, name := range []string{"", "films", "Search"} {
		if _, err := s.ScrapeProfile(context.Background(), name); err != ErrInvalidUsername {
			t.Errorf("ScrapeProfile(%q) error = %v", name, err)
		}
	}
}

func TestIngestPageAndQueue(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/someone/likes/films/page/2/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(poster("ronin", "Ronin (1998)", 0)))
	})
	mux.HandleFunc("/someone/likes/films/page/3/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	s, stores := newTestScraper(t, mux)
	ctx := context.Background()

	p, err := s.IngestPage(ctx, models.PageIngest{
		Username:   "Someone",
		PageType:   models.PageLikes,
		Page:       1,
		TotalPages: 3,
		Films:      []models.ScrapedFilm{{Slug: "heat", Title: "Heat"}},
	})
	if err != nil {
		t.Fatalf("IngestPage() error = %v", err)
	}
	if len(p.LikedFilms) != 1 {
		t.Errorf("liked = %+v", p.LikedFilms)
	}
	settings, _ := stores.Settings.Get(ctx)
	if settings.LetterboxdUsername != "someone" {
		t.Errorf("remembered username = %q", settings.LetterboxdUsername)
	}

	// The same page again must not queue duplicates.
	if _, err := s.IngestPage(ctx, models.PageIngest{Username: "someone", PageType: models.PageLikes, Page: 1, TotalPages: 3}); err != nil {
		t.Fatal(err)
	}
	if s.Queue().Len() != 2 {
		t.Fatalf("queue length = %d, want 2", s.Queue().Len())
	}

	for range 2 {
		job, err := s.Queue().Next(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.FetchQueuedPage(ctx, job); err != nil {
			t.Fatalf("FetchQueuedPage(%+v) error = %v", job, err)
		}
	}

	p, _ = stores.Profiles.Get(ctx, "someone")
	if len(p.LikedFilms) != 2 || p.LikedFilms[1].Slug != "ronin" {
		t.Errorf("liked after queue = %+v", p.LikedFilms)
	}
}

func TestIngestPage_UnknownType(t *testing.T) {
	t.Parallel()

	s, _ := newTestScraper(t, http.NotFoundHandler())
	if _, err := s.IngestPage(context.Background(), models.PageIngest{Username: "u", PageType: "diary", Page: 1}); err == nil {
		t.Error("expected error for unknown page type")
	}
}

func TestPageQueue_NextHonorsContext(t *testing.T) {
	t.Parallel()

	q := NewPageQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := q.Next(ctx); err != context.Canceled {
		t.Errorf("Next() error = %v, want context.Canceled", err)
	}
	if !q.Enqueue(PageJob{Username: "u", PageType: models.PageFilms, Page: 2}) {
		t.Fatal("first Enqueue() rejected")
	}
	if q.Enqueue(PageJob{Username: "u", PageType: models.PageFilms, Page: 3}) {
		t.Error("Enqueue() accepted job beyond capacity")
	}
}
