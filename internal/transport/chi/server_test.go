package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	gochi "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/armorymarket/discovery/internal/catalog"
	"github.com/armorymarket/discovery/internal/domain"
	"github.com/armorymarket/discovery/internal/engine"
	"github.com/armorymarket/discovery/internal/planner"
	searchuc "github.com/armorymarket/discovery/internal/usecase/search"
	syncuc "github.com/armorymarket/discovery/internal/usecase/sync"
)

// --- Mocks ---

type mockEngine struct {
	result  *engine.Result
	err     error
	pingErr error
}

func (m *mockEngine) Search(_ context.Context, _ *engine.Query) (*engine.Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockEngine) Ping(_ context.Context) error { return m.pingErr }

type mockDocs struct {
	docs []domain.Document
}

func (m *mockDocs) GetMulti(_ context.Context, _ []int64) ([]domain.Document, error) {
	return m.docs, nil
}

type mockLocator struct{}

func (mockLocator) Locate(_ string) (*domain.Coordinates, bool) { return nil, false }

type mockCanonical struct {
	listings []domain.Listing
	err      error

	started chan struct{} // closed once a blocked call is in flight
	block   chan struct{}
	once    sync.Once
}

func (m *mockCanonical) ListActive(_ context.Context) ([]domain.Listing, error) {
	if m.block != nil {
		m.once.Do(func() { close(m.started) })
		<-m.block
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.listings, nil
}

type mockIndexStore struct{}

func (mockIndexStore) IndexedMeta(_ context.Context) (map[int64]int64, error) {
	return map[int64]int64{}, nil
}
func (mockIndexStore) Upsert(_ context.Context, _ *domain.Document) error { return nil }
func (mockIndexStore) Delete(_ context.Context, _ int64) error            { return nil }

type mockGeo struct{}

func (mockGeo) Place(_ string) (string, string, *domain.Coordinates) { return "", "", nil }

// --- Harness ---

func testRegistry(t *testing.T) *catalog.Registry {
	t.Helper()
	reg, err := catalog.New("2026-01", []catalog.Category{
		{ID: 1, Name: "Rifles", Subcategories: []catalog.Subcategory{{ID: 11, Name: "Bolt Action"}}},
		{ID: 2, Name: "Shotguns"},
	})
	if err != nil {
		t.Fatalf("catalog.New() error = %v", err)
	}
	return reg
}

func newTestRouter(t *testing.T, eng *mockEngine, canonical *mockCanonical) http.Handler {
	t.Helper()
	reg := testRegistry(t)
	p := planner.New("idx:listings", 20, mockLocator{})
	searchSvc := searchuc.New(p, eng, &mockDocs{}, reg)
	syncSvc := syncuc.New(canonical, mockIndexStore{}, mockGeo{})
	server := NewServer(searchSvc, syncSvc, reg, eng, zap.NewNop())

	r := gochi.NewRouter()
	server.Routes(r)
	return r
}

func doRequest(handler http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// --- Tests ---

func TestSearch_OK(t *testing.T) {
	eng := &mockEngine{result: &engine.Result{Total: 0}}
	router := newTestRouter(t, eng, &mockCanonical{})

	rr := doRequest(router, "GET", "/api/search?q=remington&sort=newest")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var page searchuc.Page
	if err := json.NewDecoder(rr.Body).Decode(&page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Sort != "newest" {
		t.Errorf("sort = %q, want newest", page.Sort)
	}
}

func TestSearch_MalformedFiltersStillOK(t *testing.T) {
	eng := &mockEngine{result: &engine.Result{}}
	router := newTestRouter(t, eng, &mockCanonical{})

	// Unparseable values degrade to defaults instead of erroring.
	targets := []string{
		"/api/search?min=abc&max=-5&page=zero",
		"/api/search?sort=bogus&radius=NaN",
		"/api/search?cat=12.5&unknown=1",
	}
	for _, target := range targets {
		rr := doRequest(router, "GET", target)
		if rr.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want %d", target, rr.Code, http.StatusOK)
		}
	}
}

func TestSearch_EngineFailure_500(t *testing.T) {
	eng := &mockEngine{err: errors.New("connection refused")}
	router := newTestRouter(t, eng, &mockCanonical{})

	rr := doRequest(router, "GET", "/api/search")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != codeInternalError {
		t.Errorf("code = %q, want %q", errResp.Code, codeInternalError)
	}
	// Backend details never leak to clients.
	if errResp.Message != "internal error" {
		t.Errorf("message = %q, want generic message", errResp.Message)
	}
}

func TestSync_OK(t *testing.T) {
	canonical := &mockCanonical{listings: []domain.Listing{{
		ID: 1, Title: "Tikka T3x", Status: domain.StatusActive,
		UpdatedAt: time.Unix(1700000000, 0),
	}}}
	router := newTestRouter(t, &mockEngine{}, canonical)

	rr := doRequest(router, "POST", "/api/sync")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var report domain.SyncReport
	if err := json.NewDecoder(rr.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Upserted != 1 || report.RunID == "" {
		t.Errorf("report = %+v, want upserted=1 with run id", report)
	}
}

func TestSync_AlreadyRunning_409(t *testing.T) {
	block := make(chan struct{})
	canonical := &mockCanonical{started: make(chan struct{}), block: block}
	router := newTestRouter(t, &mockEngine{}, canonical)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- doRequest(router, "POST", "/api/sync") }()

	// Wait until the first request holds the guard.
	select {
	case <-canonical.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first request never reached the canonical store")
	}

	rr := doRequest(router, "POST", "/api/sync")
	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusConflict)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != codeSyncInProgress {
		t.Errorf("code = %q, want %q", errResp.Code, codeSyncInProgress)
	}

	close(block)
	if first := <-done; first.Code != http.StatusOK {
		t.Errorf("first request status = %d, want %d", first.Code, http.StatusOK)
	}
}

func TestSync_Aborted_502(t *testing.T) {
	canonical := &mockCanonical{err: errors.New("connection refused")}
	router := newTestRouter(t, &mockEngine{}, canonical)

	rr := doRequest(router, "POST", "/api/sync")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadGateway)
	}

	var resp struct {
		Code  string `json:"code"`
		Phase string `json:"phase"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Code != codeSyncFailed || resp.Phase != "canonical" {
		t.Errorf("response = %+v, want sync_failed in canonical phase", resp)
	}
}

func TestFilters_OK(t *testing.T) {
	router := newTestRouter(t, &mockEngine{}, &mockCanonical{})

	rr := doRequest(router, "GET", "/api/filters")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var resp filtersResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Categories) != 2 || resp.CatalogVersion != "2026-01" {
		t.Errorf("categories = %+v version = %q", resp.Categories, resp.CatalogVersion)
	}
	if len(resp.Regions) != 13 {
		t.Errorf("regions = %d, want 13", len(resp.Regions))
	}
	// Regions carry both the filter code and the display name.
	if resp.Regions[0].Code != "AB" || resp.Regions[0].Name != "Alberta" {
		t.Errorf("regions[0] = %+v, want code AB name Alberta", resp.Regions[0])
	}
	if len(resp.Sorts) != 6 {
		t.Errorf("sorts = %v, want 6 entries", resp.Sorts)
	}
}

func TestHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		router := newTestRouter(t, &mockEngine{}, &mockCanonical{})
		rr := doRequest(router, "GET", "/health")
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
		}
	})

	t.Run("engine down", func(t *testing.T) {
		router := newTestRouter(t, &mockEngine{pingErr: errors.New("down")}, &mockCanonical{})
		rr := doRequest(router, "GET", "/health")
		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
		}
	})
}
