// Package planner compiles a decoded filter state into one engine query:
// text relevance, structured filters, geo clause, sort, pagination, and the
// facet count sub-queries.
package planner

import (
	"strconv"

	"github.com/armorymarket/discovery/internal/domain"
	"github.com/armorymarket/discovery/internal/domain/query"
	"github.com/armorymarket/discovery/internal/engine"
	"github.com/armorymarket/discovery/internal/index"
)

// distanceAlias is the computed property distance-sorted queries order by.
const distanceAlias = "distance"

// Facet names exposed in results, in panel order.
var FacetNames = []string{"category", "action", "condition", "manufacturer"}

var facetFields = map[string]string{
	"category":     index.FieldCategory,
	"action":       index.FieldAction,
	"condition":    index.FieldCondition,
	"manufacturer": index.FieldManufacturer,
}

// Locator resolves a location code to coordinates. A miss is a valid
// outcome: geo clauses and distance sorting simply degrade.
type Locator interface {
	Locate(code string) (*domain.Coordinates, bool)
}

// Planner is stateless apart from its configuration; Plan is a pure
// computation safe for concurrent use.
type Planner struct {
	indexName string
	pageSize  int
	locator   Locator
}

// New creates a planner.
func New(indexName string, pageSize int, locator Locator) *Planner {
	return &Planner{indexName: indexName, pageSize: pageSize, locator: locator}
}

// PageSize returns the fixed result page size.
func (p *Planner) PageSize() int { return p.pageSize }

// facetClause pairs a filter clause with the facet it belongs to, so each
// facet count request can be scoped to every filter except its own. Clauses
// with an empty facet name (price, geo) apply everywhere.
type facetClause struct {
	facet  string
	clause engine.Clause
}

// Plan compiles a filter state. It never fails: unresolvable locations drop
// the geo clause, a closest sort without coordinates falls back to
// relevance, and an inverted price range is swapped rather than rejected.
func (p *Planner) Plan(s query.State) *engine.Query {
	s = s.Normalize()

	var coords *domain.Coordinates
	if s.LocationCode != "" {
		coords, _ = p.locator.Locate(s.LocationCode)
	}

	clauses := p.buildClauses(s, coords)

	q := &engine.Query{
		Index:   p.indexName,
		Text:    s.Text,
		Filters: allClauses(clauses),
		Offset:  (s.Page - 1) * p.pageSize,
		Limit:   p.pageSize,
	}

	p.applySort(q, s.Sort, coords)

	for _, name := range FacetNames {
		q.Facets = append(q.Facets, engine.FacetRequest{
			Name:    name,
			Field:   facetFields[name],
			Text:    s.Text,
			Filters: clausesExcept(clauses, name),
		})
	}

	return q
}

func (p *Planner) buildClauses(s query.State, coords *domain.Coordinates) []facetClause {
	var out []facetClause

	if s.CategoryID > 0 {
		out = append(out, facetClause{
			facet:  "category",
			clause: engine.TagIn(index.FieldCategory, strconv.FormatInt(s.CategoryID, 10)),
		})
	}
	if len(s.Actions) > 0 {
		out = append(out, facetClause{facet: "action", clause: engine.TagIn(index.FieldAction, s.Actions...)})
	}
	if len(s.Conditions) > 0 {
		out = append(out, facetClause{facet: "condition", clause: engine.TagIn(index.FieldCondition, s.Conditions...)})
	}
	if len(s.Manufacturers) > 0 {
		out = append(out, facetClause{
			facet:  "manufacturer",
			clause: engine.TagIn(index.FieldManufacturer, s.Manufacturers...),
		})
	}

	if s.MinPrice != nil || s.MaxPrice != nil {
		min, max := priceBounds(s.MinPrice, s.MaxPrice)
		out = append(out, facetClause{clause: engine.Range(index.FieldPrice, min, max)})
	}

	// Radius is only meaningful when the location code resolves; documents
	// without coordinates are excluded by the clause itself.
	if coords != nil && s.RadiusKm != nil {
		out = append(out, facetClause{
			clause: engine.GeoRadius(index.FieldLocation, coords.Longitude, coords.Latitude, *s.RadiusKm),
		})
	}

	return out
}

func (p *Planner) applySort(q *engine.Query, sort query.Sort, coords *domain.Coordinates) {
	if sort == query.SortClosest && coords == nil {
		sort = query.SortRelevance
	}

	// Listing id is the final tie-breaker on every sort so paginated order
	// stays stable when the primary key has duplicates.
	tiebreak := engine.SortKey{Field: index.FieldID, Dir: engine.SortAsc}

	switch sort {
	case query.SortPriceAsc:
		q.SortBy = []engine.SortKey{{Field: index.FieldPrice, Dir: engine.SortAsc}, tiebreak}
	case query.SortPriceDesc:
		q.SortBy = []engine.SortKey{{Field: index.FieldPrice, Dir: engine.SortDesc}, tiebreak}
	case query.SortNewest:
		q.SortBy = []engine.SortKey{{Field: index.FieldCreatedAt, Dir: engine.SortDesc}, tiebreak}
	case query.SortOldest:
		q.SortBy = []engine.SortKey{{Field: index.FieldCreatedAt, Dir: engine.SortAsc}, tiebreak}
	case query.SortClosest:
		q.Distance = &engine.GeoDistance{
			Field:     index.FieldLocation,
			Longitude: coords.Longitude,
			Latitude:  coords.Latitude,
			As:        distanceAlias,
		}
		q.SortBy = []engine.SortKey{{Field: distanceAlias, Dir: engine.SortAsc}, tiebreak}
	default: // relevance
		q.WithScores = true
		q.SortBy = []engine.SortKey{{Field: "__score", Dir: engine.SortDesc}, tiebreak}
	}
}

// priceBounds converts to float bounds, swapping an inverted range instead
// of rejecting it.
func priceBounds(minPrice, maxPrice *int64) (*float64, *float64) {
	var min, max *float64
	if minPrice != nil {
		v := float64(*minPrice)
		min = &v
	}
	if maxPrice != nil {
		v := float64(*maxPrice)
		max = &v
	}
	if min != nil && max != nil && *min > *max {
		min, max = max, min
	}
	return min, max
}

func allClauses(parts []facetClause) []engine.Clause {
	out := make([]engine.Clause, 0, len(parts))
	for _, p := range parts {
		out = append(out, p.clause)
	}
	return out
}

func clausesExcept(parts []facetClause, facet string) []engine.Clause {
	out := make([]engine.Clause, 0, len(parts))
	for _, p := range parts {
		if p.facet == facet && p.facet != "" {
			continue
		}
		out = append(out, p.clause)
	}
	return out
}
