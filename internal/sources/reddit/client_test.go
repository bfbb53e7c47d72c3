// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package reddit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestExtractTitles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"quoted", `You should see "Thief" and 'Ronin' next`, []string{"Thief", "Ronin"}},
		{"markdown", "Try **Collateral** or *Drive*, not *ok*", []string{"Collateral", "Drive"}},
		{"phrase", "I recommend Miami Vice. Also check out it.", []string{"Miami Vice"}},
		{"stoplist", "You will love Something, trust me", nil},
		{"dedupe", `"Thief" then **Thief**`, []string{"Thief"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTitles(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("ExtractTitles() = %q, want %q", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("ExtractTitles()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func testClient(srv *httptest.Server, subs ...string) *Client {
	return New(Config{
		BaseURL:    srv.URL,
		Subreddits: subs,
		RateLimit:  1000,
		Burst:      1000,
		Deadline:   time.Second,
		HTTP:       srv.Client(),
	})
}

func TestSearch_MergesAndDedupes(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != DefaultUserAgent {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		if got := r.URL.Query().Get("q"); got != `"Heat" movie` {
			t.Errorf("q = %q", got)
		}
		if r.URL.Query().Get("restrict_sr") != "1" || r.URL.Query().Get("limit") != "3" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		switch {
		case strings.Contains(r.URL.Path, "/r/a/"):
			_, _ = w.Write([]byte(`{"data":{"children":[{"data":{"title":"Like \"Heat\"?","selftext":"Watch \"Thief\"","score":5,"permalink":"/r/a/1"}}]}}`))
		case strings.Contains(r.URL.Path, "/r/b/"):
			_, _ = w.Write([]byte(`{"data":{"children":[{"data":{"title":"more","selftext":"**Thief** and **Ronin**","score":50,"permalink":"/r/b/2"}}]}}`))
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer srv.Close()

	recs, err := testClient(srv, "a", "b", "c").Search(context.Background(), "Heat")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("Search() = %+v", recs)
	}
	for _, r := range recs {
		if strings.EqualFold(r.Title, "heat") {
			t.Error("seed title should be skipped")
		}
		if r.Title == "Thief" && r.PostScore != 50 {
			t.Errorf("Thief kept score %d, want 50", r.PostScore)
		}
	}
}

func TestSearch_AllFailed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := testClient(srv, "a", "b").Search(context.Background(), "Heat")
	if !errors.Is(err, ErrAllFailed) {
		t.Errorf("Search() error = %v, want ErrAllFailed", err)
	}
}

func TestSearch_EmptyListingIsNotFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"children":[]}}`))
	}))
	defer srv.Close()

	recs, err := testClient(srv, "a").Search(context.Background(), "Heat")
	if err != nil || len(recs) != 0 {
		t.Errorf("Search() = %v, %v", recs, err)
	}
}
