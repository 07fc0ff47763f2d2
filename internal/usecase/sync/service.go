// Package sync is the index reconciliation engine: one bounded unit of work
// that converges the search index onto the canonical store.
package sync

import (
	"context"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/armorymarket/discovery/internal/domain"
	"github.com/armorymarket/discovery/internal/logger"
	"github.com/armorymarket/discovery/internal/metrics"
)

// DefaultLease bounds how long a single reconciliation may hold the
// single-flight guard. A run exceeding it is presumed crashed or hung and
// its guard may be stolen by the next invocation.
const DefaultLease = 10 * time.Minute

// Service reconciles the search index with the canonical store. Safe for
// concurrent use: overlapping invocations are rejected, never interleaved.
type Service struct {
	canonical CanonicalStore
	index     IndexStore
	geo       Geocoder
	lease     time.Duration

	mu      gosync.Mutex
	running bool
	since   time.Time
	token   uint64
}

// New creates a reconciliation service.
func New(canonical CanonicalStore, index IndexStore, geo Geocoder) *Service {
	return &Service{canonical: canonical, index: index, geo: geo, lease: DefaultLease}
}

// WithLease overrides the single-flight lease duration.
func (s *Service) WithLease(d time.Duration) *Service {
	if d > 0 {
		s.lease = d
	}
	return s
}

// Reconcile runs one cycle: upsert every new-or-changed eligible record,
// then delete index documents whose listing is no longer eligible. The
// engine converges at-least-once: per-record failures land in the report
// and are retried next cycle because each cycle recomputes from the
// canonical source. A second invocation while one is in progress returns
// domain.ErrAlreadyRunning.
func (s *Service) Reconcile(ctx context.Context) (*domain.SyncReport, error) {
	token, ok := s.acquire()
	if !ok {
		metrics.SyncRunsTotal.WithLabelValues("rejected").Inc()
		return nil, domain.ErrAlreadyRunning
	}
	defer s.release(token)

	report := &domain.SyncReport{RunID: uuid.NewString()}
	start := time.Now()
	log := logger.FromContext(ctx).With(zap.String("run_id", report.RunID))

	listings, err := s.canonical.ListActive(ctx)
	if err != nil {
		metrics.SyncRunsTotal.WithLabelValues("aborted").Inc()
		return nil, domain.NewSyncAborted("canonical", err)
	}

	indexed, err := s.index.IndexedMeta(ctx)
	if err != nil {
		metrics.SyncRunsTotal.WithLabelValues("aborted").Inc()
		return nil, domain.NewSyncAborted("index", err)
	}

	eligible := make(map[int64]struct{}, len(listings))
	for i := range listings {
		l := &listings[i]
		if !l.Eligible() {
			continue
		}
		eligible[l.ID] = struct{}{}

		// Unchanged since the last cycle: skip the write to bound volume.
		if stored, ok := indexed[l.ID]; ok && stored == l.UpdatedAt.Unix() {
			report.Skipped++
			continue
		}

		if err := s.index.Upsert(ctx, s.project(l)); err != nil {
			report.Failures = append(report.Failures, domain.RecordFailure{
				ID: l.ID, Op: "upsert", Reason: err.Error(),
			})
			continue
		}
		report.Upserted++
	}

	// Anything indexed but no longer eligible lingers from a delete, a
	// status transition, or an expiry. Remove it.
	for id := range indexed {
		if _, ok := eligible[id]; ok {
			continue
		}
		if err := s.index.Delete(ctx, id); err != nil {
			report.Failures = append(report.Failures, domain.RecordFailure{
				ID: id, Op: "delete", Reason: err.Error(),
			})
			continue
		}
		report.Deleted++
	}

	report.Duration = time.Since(start)
	s.observe(report, len(eligible))

	log.Info("reconciliation finished",
		zap.Int("upserted", report.Upserted),
		zap.Int("skipped", report.Skipped),
		zap.Int("deleted", report.Deleted),
		zap.Int("failed", len(report.Failures)),
		zap.Duration("duration", report.Duration),
	)

	return report, nil
}

// project builds the index document for an eligible listing. An
// unresolvable seller location yields a document without coordinates
// rather than a failed record.
func (s *Service) project(l *domain.Listing) *domain.Document {
	city, region, coords := s.geo.Place(l.LocationCode)
	return domain.NewDocument(l, coords, city, region)
}

// acquire takes the single-flight guard, stealing it when the holder's
// lease has expired. The returned token identifies the owning run: after a
// steal, the superseded run's release must not free the guard for anyone
// else.
func (s *Service) acquire() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running && time.Since(s.since) < s.lease {
		return 0, false
	}
	s.token++
	s.running = true
	s.since = time.Now()
	return s.token, true
}

func (s *Service) release(token uint64) {
	s.mu.Lock()
	if s.token == token {
		s.running = false
	}
	s.mu.Unlock()
}

func (s *Service) observe(report *domain.SyncReport, indexSize int) {
	metrics.SyncRunsTotal.WithLabelValues("ok").Inc()
	metrics.SyncDocumentsTotal.WithLabelValues("upserted").Add(float64(report.Upserted))
	metrics.SyncDocumentsTotal.WithLabelValues("skipped").Add(float64(report.Skipped))
	metrics.SyncDocumentsTotal.WithLabelValues("deleted").Add(float64(report.Deleted))
	metrics.SyncDocumentsTotal.WithLabelValues("failed").Add(float64(len(report.Failures)))
	metrics.SyncDuration.Observe(report.Duration.Seconds())
	metrics.SyncIndexSize.Set(float64(indexSize))
}
