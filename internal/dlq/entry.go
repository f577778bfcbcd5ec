package dlq

import (
	"context"
	"time"

	"github.com/nuforge/ttg-clca-bridge/internal/domain/content"
)

// ErrorSnapshot captures the most recent delivery failure for an entry.
type ErrorSnapshot struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
}

// EntryContext carries the source identifier (for logs) and the retry budget.
type EntryContext struct {
	SourceID   string `json:"sourceId"`
	Attempt    int    `json:"attempt"`
	MaxRetries int    `json:"maxRetries"`
}

// Entry is one pending retry attempt. The payload is immutable across
// retries; only Error, Context.Attempt, RetryAfter and LastAttemptAt move.
type Entry struct {
	ID            string
	Doc           *content.Doc
	Error         ErrorSnapshot
	Context       EntryContext
	CreatedAt     time.Time
	RetryAfter    time.Time
	LastAttemptAt time.Time
}

// FailedEntry is the permanent record of an entry that exhausted its retries
// or hit a terminal failure. Retained in full for manual inspection.
type FailedEntry struct {
	ID            string
	Doc           *content.Doc
	Error         ErrorSnapshot
	Context       EntryContext
	FailedAt      time.Time
	FailureReason string
	OriginalDLQID string
	CreatedAt     time.Time
}

// Stats is a read-only view of queue health for operational tooling.
type Stats struct {
	Pending         int64      `json:"pending"`
	Due             int64      `json:"due"`
	Failed          int64      `json:"failed"`
	OldestRetryTime *time.Time `json:"oldestRetryTime,omitempty"`
}

// Store is the durable backing for the pending and permanent-failure
// collections. Constructed explicitly and injected, never a package
// singleton, so tests can swap in an in-memory fake. Correctness under
// concurrent writers relies on the store's own per-entry atomicity; the
// processor assumes a single scheduler drives it.
type Store interface {
	// Add persists a new pending entry.
	Add(ctx context.Context, entry *Entry) error

	// ListDue returns pending entries with RetryAfter <= now, oldest-eligible
	// first, bounded by limit.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*Entry, error)

	// Update rewrites a pending entry in place after a failed attempt.
	Update(ctx context.Context, entry *Entry) error

	// Delete removes a pending entry after a successful delivery.
	Delete(ctx context.Context, id string) error

	// MoveToFailed atomically deletes the pending entry (by OriginalDLQID)
	// and records the permanent failure.
	MoveToFailed(ctx context.Context, failed *FailedEntry) error

	// Stats reports queue depth without mutating state.
	Stats(ctx context.Context, now time.Time) (*Stats, error)

	// Items lists pending entries for inspection, RetryAfter ascending.
	Items(ctx context.Context, limit int) ([]*Entry, error)

	// FailedItems lists permanent failures, newest first.
	FailedItems(ctx context.Context, limit int) ([]*FailedEntry, error)

	// Clear bulk-deletes pending entries. Recovery tooling only.
	Clear(ctx context.Context) (int64, error)
}
