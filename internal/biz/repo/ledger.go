package repo

import (
	"context"

	"github.com/replypilot/replypilot/internal/biz/domain"
)

// LedgerStats summarizes ledger contents by status
type LedgerStats struct {
	Pending   int64 `json:"pending"`
	Processed int64 `json:"processed"`
	Skipped   int64 `json:"skipped"`
	Failed    int64 `json:"failed"`
}

// LedgerRepo is the dedupe ledger: the single source of truth for reply state.
// Implementations must serialize Reserve/Finalize/BumpAttempt per ReplyID.
type LedgerRepo interface {
	// Reserve creates a pending record for replyID if none exists.
	// Returns the record and whether it was created by this call.
	// The check-then-act is atomic per key: concurrent duplicate deliveries
	// observe exactly one created=true.
	Reserve(ctx context.Context, replyID string) (*domain.ProcessedRecord, bool, error)

	// HasProcessed reports whether a record exists for replyID
	HasProcessed(ctx context.Context, replyID string) (bool, error)

	// Get returns the record for replyID, or nil if absent
	Get(ctx context.Context, replyID string) (*domain.ProcessedRecord, error)

	// BumpAttempt increments the attempt counter and returns the new count
	BumpAttempt(ctx context.Context, replyID string) (int, error)

	// Finalize moves the record to a terminal status. Finalizing an
	// already-processed record is a no-op.
	Finalize(ctx context.Context, replyID string, status domain.RecordStatus, detail string) error

	// Audit appends an audit-trail entry for replyID
	Audit(ctx context.Context, replyID, action, detail string) error

	// Stats returns per-status record counts
	Stats(ctx context.Context) (*LedgerStats, error)

	// Close releases the underlying store
	Close() error
}
