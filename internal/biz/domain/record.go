package domain

import "time"

// RecordStatus is the lifecycle state of a processed-reply record
type RecordStatus string

const (
	StatusPending   RecordStatus = "pending"
	StatusProcessed RecordStatus = "processed"
	StatusSkipped   RecordStatus = "skipped"
	StatusFailed    RecordStatus = "failed"
)

// ProcessedRecord is one dedupe-ledger entry, keyed by ReplyID
type ProcessedRecord struct {
	ReplyID      string
	Status       RecordStatus
	AttemptCount int
	RespondedAt  time.Time
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Finalized reports whether the record has reached a terminal status
func (r *ProcessedRecord) Finalized() bool {
	return r.Status == StatusProcessed || r.Status == StatusSkipped || r.Status == StatusFailed
}

// IsProcessed reports whether a reply was successfully responded to.
// A processed record is immutable.
func (r *ProcessedRecord) IsProcessed() bool {
	return r.Status == StatusProcessed
}
