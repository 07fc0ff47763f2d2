package engine

// SortDir is a sort direction token.
type SortDir string

const (
	// SortAsc sorts ascending.
	SortAsc SortDir = "ASC"
	// SortDesc sorts descending.
	SortDesc SortDir = "DESC"
)

// SortKey is one SORTBY property. Field is the bare property name without
// the leading @.
type SortKey struct {
	Field string
	Dir   SortDir
}

// ClauseKind discriminates filter clause variants.
type ClauseKind int

const (
	// ClauseTagIn matches documents whose tag field holds any of the values.
	ClauseTagIn ClauseKind = iota
	// ClauseRange matches documents whose numeric field lies in [Min, Max].
	ClauseRange
	// ClauseGeoRadius matches documents whose geo field lies within RadiusKm
	// of the point. Documents without the field never match.
	ClauseGeoRadius
)

// Clause is one structured filter condition. Distinct clauses are AND'd;
// values within a TagIn clause are OR'd.
type Clause struct {
	Kind     ClauseKind
	Field    string
	Values   []string // TagIn
	Min      *float64 // Range, inclusive; nil = open
	Max      *float64
	Lon      float64 // GeoRadius
	Lat      float64
	RadiusKm float64
}

// TagIn builds an in-set tag clause.
func TagIn(field string, values ...string) Clause {
	return Clause{Kind: ClauseTagIn, Field: field, Values: values}
}

// Range builds an inclusive numeric range clause.
func Range(field string, min, max *float64) Clause {
	return Clause{Kind: ClauseRange, Field: field, Min: min, Max: max}
}

// GeoRadius builds a within-radius clause.
func GeoRadius(field string, lon, lat, radiusKm float64) Clause {
	return Clause{Kind: ClauseGeoRadius, Field: field, Lon: lon, Lat: lat, RadiusKm: radiusKm}
}

// GeoDistance requests a computed distance property: distance from the given
// point to the document's geo field, exposed under As for sorting.
type GeoDistance struct {
	Field     string
	Longitude float64
	Latitude  float64
	As        string
}

// FacetRequest asks for per-value counts of one tag field. It carries its
// own text and filter scope, which by construction excludes the facet's own
// filter.
type FacetRequest struct {
	Name    string // facet name in the result map
	Field   string // indexed tag field
	Text    string
	Filters []Clause
	Limit   int // max distinct values, 0 = implementation default
}

// Query is a fully planned engine query: one main ranked page plus facet
// count sub-queries, executed together. Text is raw user input; escaping is
// the backend's concern.
type Query struct {
	Index      string
	Text       string // free text, "" = match all
	Filters    []Clause
	WithScores bool // expose the text score for relevance sorting
	Distance   *GeoDistance
	SortBy     []SortKey
	Offset     int
	Limit      int
	Facets     []FacetRequest
}

// Hit is a single ranked document reference.
type Hit struct {
	ID        int64
	Score     float64
	DistanceM float64 // meters, only set for distance-sorted queries
}

// Result is the outcome of executing a Query.
type Result struct {
	Total  int
	Hits   []Hit
	Facets map[string]map[string]int // facet name -> value -> count
}
