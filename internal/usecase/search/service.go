// Package search executes listing discovery queries: it compiles a filter
// state through the planner, runs it on the engine, and assembles the
// ranked page of listing summaries with scoped facet counts.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/armorymarket/discovery/internal/domain/query"
	"github.com/armorymarket/discovery/internal/engine"
	"github.com/armorymarket/discovery/internal/planner"
)

// Summary is one listing row in a result page, denormalized for display.
type Summary struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Price        int64     `json:"price"`
	Manufacturer string    `json:"manufacturer,omitempty"`
	Model        string    `json:"model,omitempty"`
	Condition    string    `json:"condition,omitempty"`
	Action       string    `json:"action,omitempty"`
	Category     string    `json:"category,omitempty"`
	City         string    `json:"city,omitempty"`
	Region       string    `json:"region,omitempty"`
	DistanceKm   *float64  `json:"distanceKm,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Page is an assembled search result.
type Page struct {
	Items      []Summary                 `json:"items"`
	Total      int                       `json:"total"`
	Page       int                       `json:"page"`
	PageSize   int                       `json:"pageSize"`
	TotalPages int                       `json:"totalPages"`
	Sort       query.Sort                `json:"sort"`
	Facets     map[string]map[string]int `json:"facets"`
	Filters    string                    `json:"filters"`
}

// Service runs discovery searches. Stateless and safe for concurrent use.
type Service struct {
	planner Planner
	engine  Engine
	docs    DocumentStore
	catalog Catalog
}

// New creates a search service.
func New(p Planner, e Engine, docs DocumentStore, cat Catalog) *Service {
	return &Service{planner: p, engine: e, docs: docs, catalog: cat}
}

// Search executes one filter state and assembles the result page. The
// state is normalized first, so callers may pass raw decoded input.
func (s *Service) Search(ctx context.Context, state query.State) (*Page, error) {
	state = state.Normalize()
	q := s.planner.Plan(state)

	res, err := s.engine.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}

	items, err := s.assemble(ctx, q, res)
	if err != nil {
		return nil, err
	}

	pageSize := s.planner.PageSize()
	page := &Page{
		Items:      items,
		Total:      res.Total,
		Page:       state.Page,
		PageSize:   pageSize,
		TotalPages: (res.Total + pageSize - 1) / pageSize,
		Sort:       effectiveSort(state, q),
		Facets:     fullFacets(res.Facets),
		Filters:    query.EncodeString(state),
	}
	return page, nil
}

// assemble hydrates ranked hits into summaries, preserving engine order.
// A hit whose document vanished between ranking and retrieval is dropped
// rather than surfaced as a hole; the next reconciliation settles it.
func (s *Service) assemble(ctx context.Context, q *engine.Query, res *engine.Result) ([]Summary, error) {
	if len(res.Hits) == 0 {
		return []Summary{}, nil
	}

	ids := make([]int64, len(res.Hits))
	for i, h := range res.Hits {
		ids[i] = h.ID
	}

	docs, err := s.docs.GetMulti(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch documents: %w", err)
	}
	byID := make(map[int64]int, len(docs))
	for i := range docs {
		byID[docs[i].ID] = i
	}

	withDistance := q.Distance != nil
	items := make([]Summary, 0, len(res.Hits))
	for _, h := range res.Hits {
		i, ok := byID[h.ID]
		if !ok {
			continue
		}
		doc := &docs[i]

		item := Summary{
			ID:           doc.ID,
			Title:        doc.Title,
			Price:        doc.Price,
			Manufacturer: doc.Manufacturer,
			Model:        doc.Model,
			Condition:    doc.Condition,
			Action:       doc.Action,
			City:         doc.City,
			Region:       doc.Region,
			CreatedAt:    doc.CreatedAt,
		}
		if cat, ok := s.catalog.Resolve(doc.CategoryID); ok {
			item.Category = cat.Name
		}
		if withDistance && doc.Coordinates != nil {
			km := h.DistanceM / 1000
			item.DistanceKm = &km
		}
		items = append(items, item)
	}
	return items, nil
}

// effectiveSort reports the sort the engine actually applied. A closest
// sort the planner downgraded shows up as relevance, so clients render
// the state the results really have.
func effectiveSort(state query.State, q *engine.Query) query.Sort {
	if state.Sort == query.SortClosest && q.Distance == nil {
		return query.SortRelevance
	}
	return state.Sort
}

// fullFacets guarantees every exposed facet is present, even when the
// engine returned no counts for it.
func fullFacets(got map[string]map[string]int) map[string]map[string]int {
	out := make(map[string]map[string]int, len(planner.FacetNames))
	for _, name := range planner.FacetNames {
		if counts, ok := got[name]; ok {
			out[name] = counts
			continue
		}
		out[name] = map[string]int{}
	}
	return out
}
