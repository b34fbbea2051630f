// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"errors"
	"time"

	"github.com/dynbike/dynbike/schema"
)

// ErrSessionNotFound is returned by a SessionStore when no state exists for an ID.
var ErrSessionNotFound = errors.New("session not found")

// StoreManager defines the interface for managing persistence stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetSessionStore() SessionStore
	GetRunStore() RunStore
}

// SessionStore persists segmentation session state between operator responses.
type SessionStore interface {
	// Get returns the state stored under id, or ErrSessionNotFound.
	Get(id string) (*schema.SessionState, error)

	// Put inserts or replaces the state under its ID.
	Put(state *schema.SessionState) error

	// List returns summaries of all stored sessions, most recently updated first.
	List() ([]schema.SessionSummary, error)

	// Delete removes the state stored under id. Deleting a missing ID is not an error.
	Delete(id string) error

	// GetStatus returns status information about the session store
	GetStatus() (schema.SessionStoreStatus, error)

	// Close closes the underlying connection
	Close() error
}

// RunStore defines the interface for tracking batch trim runs and their per-session reports.
type RunStore interface {
	// BeginRun creates a new trim run and returns its unique ID
	BeginRun(startTime time.Time, configParams map[string]any) (int64, error)

	// RecordTrim stores the report of one trimmed session
	RecordTrim(runID int64, recordTime time.Time, report schema.TrimReport) error

	// EndRun updates the trim run with completion data
	EndRun(runID int64, endTime time.Time, totalSessions int) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// GetAllRuns retrieves every trim run
	GetAllRuns() ([]schema.TrimRunRecord, error)

	// GetAllTrimRecords retrieves every per-session trim record
	GetAllTrimRecords() ([]schema.TrimRecord, error)

	// Close closes the underlying connection
	Close() error
}

// OperatorChannel carries segmentation prompts to an operator and responses back.
type OperatorChannel interface {
	// Present shows the current state, including the numbered segments when awaiting a choice.
	Present(ctx context.Context, state *schema.SessionState) error

	// Await blocks until the operator responds. An empty response suspends the session.
	Await(ctx context.Context) (string, error)

	// Report shows a recoverable error to the operator before the next prompt.
	Report(ctx context.Context, err error) error
}
