package domain

import "time"

// RecordFailure is a per-document reconciliation failure. Non-fatal: the
// record is retried on the next cycle since each cycle recomputes from the
// canonical source.
type RecordFailure struct {
	ID     int64  `json:"id"`
	Op     string `json:"op"` // "upsert" or "delete"
	Reason string `json:"reason"`
}

// SyncReport summarizes one reconciliation cycle.
type SyncReport struct {
	RunID    string          `json:"run_id"`
	Upserted int             `json:"upserted"`
	Skipped  int             `json:"skipped"` // unchanged since last cycle
	Deleted  int             `json:"deleted"`
	Failures []RecordFailure `json:"failures,omitempty"`
	Duration time.Duration   `json:"duration_ns"`
}
