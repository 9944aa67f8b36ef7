// Package pipeline turns a profile list plus the current query state into the
// ordered rows a screen renders: search, then interest filter, then sort.
package pipeline

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"gitea.kood.tech/petrkubec/staff-directory/backend/profile"
)

// Variant selects the per-screen search and filter rules.
type Variant int

const (
	// Admin searches names only and never filters by interest.
	Admin Variant = iota
	// Directory searches name, description and interest and honours the interest filter.
	Directory
)

// SortField names the key rows are ordered by.
type SortField string

// SortByName is the only defined sort field. Any other value keeps input order.
const SortByName SortField = "name"

// SortOrder is the sort direction.
type SortOrder string

const (
	// Asc sorts A to Z.
	Asc SortOrder = "asc"
	// Desc sorts Z to A.
	Desc SortOrder = "desc"
)

// Toggle returns the opposite direction.
func (o SortOrder) Toggle() SortOrder {
	if o == Desc {
		return Asc
	}
	return Desc
}

// Query is the transient UI state driving the pipeline.
type Query struct {
	Search    string
	Interest  string
	SortField SortField
	SortOrder SortOrder
}

// DefaultQuery is the state both screens start in.
func DefaultQuery() Query {
	return Query{SortField: SortByName, SortOrder: Asc}
}

// Collation is the language used for locale-aware name comparison.
var Collation = language.English

// Apply runs search, filter and sort over profiles and returns a new slice.
// The input slice is never modified.
func Apply(profiles []profile.Profile, q Query, v Variant) []profile.Profile {
	result := make([]profile.Profile, 0, len(profiles))

	term := strings.ToLower(strings.TrimSpace(q.Search))
	for _, p := range profiles {
		if !matches(p, term, v) {
			continue
		}
		if v == Directory && q.Interest != "" && p.Interest != q.Interest {
			continue
		}
		result = append(result, p)
	}

	if q.SortField == SortByName {
		// collate.Collator keeps scratch buffers, so each call gets its own.
		c := collate.New(Collation)
		desc := q.SortOrder == Desc
		sort.SliceStable(result, func(i, j int) bool {
			if desc {
				return c.CompareString(result[j].Name, result[i].Name) < 0
			}
			return c.CompareString(result[i].Name, result[j].Name) < 0
		})
	}
	return result
}

func matches(p profile.Profile, term string, v Variant) bool {
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Name), term) {
		return true
	}
	if v != Directory {
		return false
	}
	return strings.Contains(strings.ToLower(p.Description), term) ||
		strings.Contains(strings.ToLower(p.Interest), term)
}

// UniqueInterests returns the distinct non-empty interest values in order of
// first appearance.
func UniqueInterests(profiles []profile.Profile) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, p := range profiles {
		if p.Interest == "" {
			continue
		}
		if _, ok := seen[p.Interest]; ok {
			continue
		}
		seen[p.Interest] = struct{}{}
		out = append(out, p.Interest)
	}
	return out
}
