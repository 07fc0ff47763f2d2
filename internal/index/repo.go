// Package index is the repository over the search-engine document store:
// schema, key layout, and the document round-trip.
package index

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/armorymarket/discovery/internal/domain"
	"github.com/armorymarket/discovery/internal/engine"
)

// store is the consumer interface over the engine (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HMGetMulti(ctx context.Context, keys []string, fields ...string) ([][]string, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *engine.IndexDefinition) error
}

// Repo maps listing documents onto the engine.
type Repo struct {
	store  store
	name   string
	prefix string
}

// New creates an index repository. name is the FT index name, prefix the
// document key prefix (e.g. "listing:").
func New(s store, name, prefix string) *Repo {
	return &Repo{store: s, name: name, prefix: prefix}
}

// Name returns the FT index name.
func (r *Repo) Name() string { return r.name }

// Definition returns the index schema. Manufacturer is indexed twice: as
// weighted text for relevance and as a tag for exact facet filtering.
// Model and manufacturer outweigh title and description so exact model
// matches outrank incidental keyword matches.
func (r *Repo) Definition() *engine.IndexDefinition {
	return engine.NewIndex(r.name).
		Prefix(r.prefix).
		Text(FieldTitle, 2).
		Text(FieldDescription, 0).
		TextAs(FieldManufacturer, FieldMfrText, 5).
		Text(FieldModel, 5).
		Tag(FieldManufacturer).
		Tag(FieldAction).
		Tag(FieldCondition).
		Tag(FieldCategory).
		Tag(FieldSubcategory).
		NumericSortable(FieldPrice).
		NumericSortable(FieldCreatedAt).
		NumericSortable(FieldID).
		Geo(FieldLocation).
		MustBuild()
}

// EnsureIndex creates the FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	err := r.store.CreateIndex(ctx, r.Definition())
	if err != nil && !errors.Is(err, engine.ErrIndexExists) {
		return fmt.Errorf("ensure index %s: %w", r.name, err)
	}
	return nil
}

// Upsert writes a document under its id key. Idempotent by construction.
func (r *Repo) Upsert(ctx context.Context, doc *domain.Document) error {
	if err := r.store.HSet(ctx, r.key(doc.ID), buildHashFields(doc)); err != nil {
		return fmt.Errorf("upsert listing %d: %w", doc.ID, err)
	}
	return nil
}

// Delete removes a document by listing id.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	if err := r.store.Del(ctx, r.key(id)); err != nil {
		return fmt.Errorf("delete listing %d: %w", id, err)
	}
	return nil
}

// IndexedMeta sweeps the index and returns id -> updatedAt (unix seconds)
// for every stored document. The reconciler diffs this against the
// canonical eligible set.
func (r *Repo) IndexedMeta(ctx context.Context) (map[int64]int64, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan index keys: %w", err)
	}

	meta := make(map[int64]int64, len(keys))
	if len(keys) == 0 {
		return meta, nil
	}

	rows, err := r.store.HMGetMulti(ctx, keys, FieldID, FieldUpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("fetch index meta: %w", err)
	}
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}
		updatedAt, _ := strconv.ParseInt(row[1], 10, 64)
		meta[id] = updatedAt
	}
	return meta, nil
}

// GetMulti fetches documents by listing id, preserving input order and
// silently dropping ids that vanished between search and fetch.
func (r *Repo) GetMulti(ctx context.Context, ids []int64) ([]domain.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch documents: %w", err)
	}

	docs := make([]domain.Document, 0, len(hashes))
	for _, m := range hashes {
		if len(m) == 0 {
			continue
		}
		docs = append(docs, parseHashFields(m))
	}
	return docs, nil
}

func (r *Repo) key(id int64) string {
	return r.prefix + strconv.FormatInt(id, 10)
}
