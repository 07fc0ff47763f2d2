package sync

import (
	"context"

	"github.com/armorymarket/discovery/internal/domain"
)

// CanonicalStore lists the canonical records eligible for indexing.
type CanonicalStore interface {
	ListActive(ctx context.Context) ([]domain.Listing, error)
}

// IndexStore is the write side of the search index.
type IndexStore interface {
	IndexedMeta(ctx context.Context) (map[int64]int64, error)
	Upsert(ctx context.Context, doc *domain.Document) error
	Delete(ctx context.Context, id int64) error
}

// Geocoder resolves a seller location code for document projection. A miss
// yields an empty entry: the document is indexed without coordinates.
type Geocoder interface {
	Place(code string) (city, region string, coords *domain.Coordinates)
}
