// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package reddit

import (
	"regexp"
	"strings"
)

var (
	quotedTitle   = regexp.MustCompile(`["']([A-Z][^"']{1,60})["']`)
	markdownTitle = regexp.MustCompile(`\*\*([^*]{2,60})\*\*|\*([^*]{2,60})\*`)
	phrasedTitle  = regexp.MustCompile(`(?:recommend|check out|watch|try|loved?|enjoy(?:ed)?)\s+([A-Z][A-Za-z0-9\s:'-]{2,40}?)(?:\.|,|!|\?|\n|$)`)
)

// stoplist holds phrases the "recommend X" pattern picks up that are never
// titles.
var stoplist = map[string]bool{
	"it": true, "this": true, "that": true, "the": true, "these": true,
	"those": true, "something": true, "anything": true, "everything": true,
	"nothing": true, "some of": true, "all of": true, "one of": true,
	"any of": true, "movies like": true, "films like": true, "shows like": true,
}

// ExtractTitles pulls candidate film titles out of free text: quoted
// strings, bold or italic markdown spans starting with a capital, and
// phrases like "check out X". Results are unique, in discovery order.
func ExtractTitles(text string) []string {
	var found []string

	for _, m := range quotedTitle.FindAllStringSubmatch(text, -1) {
		found = append(found, strings.TrimSpace(m[1]))
	}

	for _, m := range markdownTitle.FindAllStringSubmatch(text, -1) {
		t := m[1]
		if t == "" {
			t = m[2]
		}
		t = strings.TrimSpace(t)
		if len(t) > 2 && startsUpper(t) {
			found = append(found, t)
		}
	}

	for _, m := range phrasedTitle.FindAllStringSubmatch(text, -1) {
		t := strings.TrimSpace(m[1])
		if len(t) > 2 && !stoplist[strings.ToLower(t)] {
			found = append(found, t)
		}
	}

	seen := make(map[string]bool, len(found))
	out := found[:0]
	for _, t := range found {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func startsUpper(s string) bool {
	for _, r := range s {
		return r >= 'A' && r <= 'Z'
	}
	return false
}
