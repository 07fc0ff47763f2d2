// Package query models the client-supplied filter state and its compact
// URL representation.
package query

import (
	"sort"
	"strings"
)

// Sort orders search results.
type Sort string

const (
	// SortRelevance orders by engine text score (the default).
	SortRelevance Sort = "relevance"
	// SortPriceAsc orders by price, cheapest first.
	SortPriceAsc Sort = "price_asc"
	// SortPriceDesc orders by price, most expensive first.
	SortPriceDesc Sort = "price_desc"
	// SortNewest orders by creation time, newest first.
	SortNewest Sort = "newest"
	// SortOldest orders by creation time, oldest first.
	SortOldest Sort = "oldest"
	// SortClosest orders by distance from the buyer's resolved location.
	SortClosest Sort = "closest"
)

// ParseSort maps a string to a Sort, falling back to relevance for anything
// unrecognized. Bad client input degrades, it never errors.
func ParseSort(s string) Sort {
	switch Sort(s) {
	case SortPriceAsc, SortPriceDesc, SortNewest, SortOldest, SortClosest:
		return Sort(s)
	default:
		return SortRelevance
	}
}

// State is a decoded search filter state. Zero values mean "not set";
// Sort and Page always hold a valid value after Normalize or Decode.
type State struct {
	Text          string
	CategoryID    int64 // 0 = any category
	Actions       []string
	Conditions    []string
	Manufacturers []string
	MinPrice      *int64 // minor units
	MaxPrice      *int64
	LocationCode  string
	RadiusKm      *float64
	Sort          Sort
	Page          int
}

// DefaultState returns a State holding only defaults.
func DefaultState() State {
	return State{Sort: SortRelevance, Page: 1}
}

// Normalize returns a canonical copy: trimmed text, uppercased location code,
// sorted and deduplicated multi-value facets, page clamped to >= 1, defaults
// filled in. Decode always produces normalized states, so
// Decode(Encode(s)) == s.Normalize().
func (s State) Normalize() State {
	n := s
	n.Text = strings.TrimSpace(s.Text)
	n.LocationCode = normalizeCode(s.LocationCode)
	n.Actions = normalizeValues(s.Actions)
	n.Conditions = normalizeValues(s.Conditions)
	n.Manufacturers = normalizeValues(s.Manufacturers)
	if n.Sort == "" {
		n.Sort = SortRelevance
	}
	if n.Page < 1 {
		n.Page = 1
	}
	if n.CategoryID < 0 {
		n.CategoryID = 0
	}
	if n.MinPrice != nil && *n.MinPrice < 0 {
		n.MinPrice = nil
	}
	if n.MaxPrice != nil && *n.MaxPrice < 0 {
		n.MaxPrice = nil
	}
	if n.RadiusKm != nil && *n.RadiusKm <= 0 {
		n.RadiusKm = nil
	}
	return n
}

// IsDefault reports whether the state carries no filters at all.
func (s State) IsDefault() bool {
	return s.Text == "" && s.CategoryID == 0 &&
		len(s.Actions) == 0 && len(s.Conditions) == 0 && len(s.Manufacturers) == 0 &&
		s.MinPrice == nil && s.MaxPrice == nil &&
		s.LocationCode == "" && s.RadiusKm == nil &&
		(s.Sort == "" || s.Sort == SortRelevance) && s.Page <= 1
}

func normalizeValues(vals []string) []string {
	if len(vals) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(vals))
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), ""))
}
