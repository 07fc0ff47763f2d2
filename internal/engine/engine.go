// Package engine defines the search-engine adapter contract: document
// storage, FT index lifecycle, and query execution. Implementations live in
// subpackages; consumers depend on the narrow sub-interfaces.
package engine

import (
	"context"
	"time"
)

// Store is the full engine facade combining all sub-interfaces.
type Store interface {
	Pinger
	DocStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks engine connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem holds a single key+fields pair for pipelined HSET.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// DocStore provides hash-document storage operations.
type DocStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HMGetMulti(ctx context.Context, keys []string, fields ...string) ([][]string, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher executes planned queries against an FT index.
type Searcher interface {
	Search(ctx context.Context, q *Query) (*Result, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}
