package sync

import (
	"context"
	gosync "sync"
	"testing"
	"time"

	"github.com/armorymarket/discovery/internal/domain"
)

// mockCanonical serves a fixed eligible set.
type mockCanonical struct {
	listings []domain.Listing
	err      error
}

func (m *mockCanonical) ListActive(_ context.Context) ([]domain.Listing, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.listings, nil
}

// mockIndex is an in-memory index with per-op failure hooks. Guarded for
// the scheduler tests, which inspect it from another goroutine.
type mockIndex struct {
	mu   gosync.Mutex
	docs map[int64]*domain.Document

	metaErr   error
	upsertErr map[int64]error
	deleteErr map[int64]error
	upserts   int
	deletes   int
}

func newMockIndex() *mockIndex {
	return &mockIndex{
		docs:      make(map[int64]*domain.Document),
		upsertErr: make(map[int64]error),
		deleteErr: make(map[int64]error),
	}
}

func (m *mockIndex) IndexedMeta(_ context.Context) (map[int64]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.metaErr != nil {
		return nil, m.metaErr
	}
	meta := make(map[int64]int64, len(m.docs))
	for id, doc := range m.docs {
		meta[id] = doc.UpdatedAt.Unix()
	}
	return meta, nil
}

func (m *mockIndex) Upsert(_ context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.upsertErr[doc.ID]; err != nil {
		return err
	}
	m.upserts++
	m.docs[doc.ID] = doc
	return nil
}

func (m *mockIndex) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.deleteErr[id]; err != nil {
		return err
	}
	m.deletes++
	delete(m.docs, id)
	return nil
}

func (m *mockIndex) ids() map[int64]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]bool, len(m.docs))
	for id := range m.docs {
		out[id] = true
	}
	return out
}

// mockGeo resolves every code to a fixed place, except codes in misses.
type mockGeo struct {
	misses map[string]bool
}

func (m *mockGeo) Place(code string) (string, string, *domain.Coordinates) {
	if m.misses[code] {
		return "", "", nil
	}
	return "Kingston", "Ontario", &domain.Coordinates{Latitude: 44.23, Longitude: -76.49}
}

func newTestService(t *testing.T, canonical *mockCanonical, index *mockIndex) *Service {
	t.Helper()
	return New(canonical, index, &mockGeo{})
}

func listing(id int64, status domain.Status, price int64) domain.Listing {
	created := time.Unix(1700000000, 0).Add(time.Duration(id) * time.Hour)
	return domain.Listing{
		ID:           id,
		Title:        "listing",
		Price:        price,
		Status:       status,
		LocationCode: "K7L4V1",
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}
