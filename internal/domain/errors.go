package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource. A gazetteer miss is a valid
	// outcome callers handle, not a failure.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyRunning signals that a reconciliation cycle is in progress.
	// Concurrent invocations are rejected, never queued.
	ErrAlreadyRunning = errors.New("reconciliation already running")
	// ErrSyncAborted signals that a whole reconciliation cycle was abandoned
	// because the canonical store or the index was unreachable.
	ErrSyncAborted = errors.New("reconciliation aborted")
)

// SyncAbortedError wraps ErrSyncAborted with the phase that failed.
type SyncAbortedError struct {
	Phase string // "canonical" or "index"
	Err   error
}

func (e *SyncAbortedError) Error() string {
	return fmt.Sprintf("%s: %s phase: %v", ErrSyncAborted.Error(), e.Phase, e.Err)
}

func (e *SyncAbortedError) Unwrap() error { return ErrSyncAborted }

// NewSyncAborted creates a cycle-abort error for the given phase.
func NewSyncAborted(phase string, err error) error {
	return &SyncAbortedError{Phase: phase, Err: err}
}
