package search

import (
	"context"

	"github.com/armorymarket/discovery/internal/catalog"
	"github.com/armorymarket/discovery/internal/domain"
	"github.com/armorymarket/discovery/internal/domain/query"
	"github.com/armorymarket/discovery/internal/engine"
)

// Planner compiles a filter state into one executable engine query.
type Planner interface {
	Plan(s query.State) *engine.Query
	PageSize() int
}

// Engine executes compiled queries against the search index.
type Engine interface {
	Search(ctx context.Context, q *engine.Query) (*engine.Result, error)
}

// DocumentStore fetches indexed documents for a ranked page of ids.
type DocumentStore interface {
	GetMulti(ctx context.Context, ids []int64) ([]domain.Document, error)
}

// Catalog resolves category ids to display names.
type Catalog interface {
	Resolve(id int64) (catalog.Category, bool)
}
