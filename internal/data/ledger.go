package data

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/replypilot/replypilot/internal/biz/domain"
	"github.com/replypilot/replypilot/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// ledgerRepo implements the dedupe ledger on SQLite.
// Writes touching the same reply_id are serialized through striped
// per-key locks so unrelated replies never contend.
type ledgerRepo struct {
	db    *sql.DB
	locks [64]sync.Mutex
}

// NewLedgerRepo opens (creating if needed) the ledger database
func NewLedgerRepo(dbPath string) (repo.LedgerRepo, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS processed_replies (
			reply_id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			attempt_count INTEGER NOT NULL DEFAULT 0,
			responded_at INTEGER NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_log (
			id TEXT PRIMARY KEY,
			reply_id TEXT NOT NULL,
			action TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_audit_reply_id ON audit_log(reply_id)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &ledgerRepo{db: db}, nil
}

// lockFor returns the stripe lock owning replyID
func (r *ledgerRepo) lockFor(replyID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(replyID))
	return &r.locks[h.Sum32()%uint32(len(r.locks))]
}

// Reserve creates a pending record for replyID if none exists
func (r *ledgerRepo) Reserve(ctx context.Context, replyID string) (*domain.ProcessedRecord, bool, error) {
	mu := r.lockFor(replyID)
	mu.Lock()
	defer mu.Unlock()

	now := time.Now().Unix()
	result, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO processed_replies (reply_id, status, attempt_count, created_at, updated_at)
		VALUES (?, ?, 0, ?, ?)
	`, replyID, domain.StatusPending, now, now)
	if err != nil {
		return nil, false, fmt.Errorf("failed to reserve record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	created := rows > 0

	record, err := r.get(ctx, replyID)
	if err != nil {
		return nil, false, err
	}
	if record == nil {
		return nil, false, fmt.Errorf("record for %s vanished after reserve", replyID)
	}

	if created {
		r.audit(ctx, replyID, "reserved", "")
	}
	return record, created, nil
}

// HasProcessed reports whether a record exists for replyID
func (r *ledgerRepo) HasProcessed(ctx context.Context, replyID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM processed_replies WHERE reply_id = ?
	`, replyID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query record: %w", err)
	}
	return true, nil
}

// Get returns the record for replyID, or nil if absent
func (r *ledgerRepo) Get(ctx context.Context, replyID string) (*domain.ProcessedRecord, error) {
	return r.get(ctx, replyID)
}

func (r *ledgerRepo) get(ctx context.Context, replyID string) (*domain.ProcessedRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT reply_id, status, attempt_count, responded_at, last_error, created_at, updated_at
		FROM processed_replies
		WHERE reply_id = ?
	`, replyID)

	var record domain.ProcessedRecord
	var respondedAt, createdAt, updatedAt int64
	err := row.Scan(&record.ReplyID, &record.Status, &record.AttemptCount, &respondedAt, &record.LastError, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}

	if respondedAt > 0 {
		record.RespondedAt = time.Unix(respondedAt, 0)
	}
	record.CreatedAt = time.Unix(createdAt, 0)
	record.UpdatedAt = time.Unix(updatedAt, 0)
	return &record, nil
}

// BumpAttempt increments the attempt counter and returns the new count
func (r *ledgerRepo) BumpAttempt(ctx context.Context, replyID string) (int, error) {
	mu := r.lockFor(replyID)
	mu.Lock()
	defer mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
		UPDATE processed_replies SET attempt_count = attempt_count + 1, updated_at = ? WHERE reply_id = ?
	`, time.Now().Unix(), replyID)
	if err != nil {
		return 0, fmt.Errorf("failed to bump attempt: %w", err)
	}

	var count int
	err = r.db.QueryRowContext(ctx, `
		SELECT attempt_count FROM processed_replies WHERE reply_id = ?
	`, replyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to read attempt count: %w", err)
	}
	return count, nil
}

// Finalize moves the record to a terminal status. Once a record is
// processed it stays processed; repeat finalization is a no-op.
func (r *ledgerRepo) Finalize(ctx context.Context, replyID string, status domain.RecordStatus, detail string) error {
	mu := r.lockFor(replyID)
	mu.Lock()
	defer mu.Unlock()

	existing, err := r.get(ctx, replyID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("no record for %s", replyID)
	}
	if existing.IsProcessed() {
		return nil
	}

	now := time.Now().Unix()
	respondedAt := int64(0)
	lastError := detail
	if status == domain.StatusProcessed {
		respondedAt = now
		lastError = ""
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE processed_replies
		SET status = ?, responded_at = ?, last_error = ?, updated_at = ?
		WHERE reply_id = ?
	`, status, respondedAt, lastError, now, replyID)
	if err != nil {
		return fmt.Errorf("failed to finalize record: %w", err)
	}

	r.audit(ctx, replyID, string(status), detail)
	return nil
}

// Audit appends an audit-trail entry for replyID
func (r *ledgerRepo) Audit(ctx context.Context, replyID, action, detail string) error {
	return r.audit(ctx, replyID, action, detail)
}

func (r *ledgerRepo) audit(ctx context.Context, replyID, action, detail string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, reply_id, action, detail, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.NewString(), replyID, action, detail, time.Now().Unix())
	if err != nil {
		// Audit writes must not fail the pipeline; log and move on
		fmt.Printf("[Ledger] Audit write failed for %s: %v\n", replyID, err)
	}
	return nil
}

// Stats returns per-status record counts
func (r *ledgerRepo) Stats(ctx context.Context) (*repo.LedgerStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM processed_replies GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	stats := &repo.LedgerStats{}
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		switch domain.RecordStatus(status) {
		case domain.StatusPending:
			stats.Pending = count
		case domain.StatusProcessed:
			stats.Processed = count
		case domain.StatusSkipped:
			stats.Skipped = count
		case domain.StatusFailed:
			stats.Failed = count
		}
	}
	return stats, rows.Err()
}

// Close closes the database connection
func (r *ledgerRepo) Close() error {
	return r.db.Close()
}
