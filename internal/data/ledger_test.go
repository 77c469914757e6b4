package data

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/replypilot/replypilot/internal/biz/domain"
	"github.com/replypilot/replypilot/internal/biz/repo"
)

func newTestLedger(t *testing.T) repo.LedgerRepo {
	t.Helper()
	ledger, err := NewLedgerRepo(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Failed to open ledger: %v", err)
	}
	t.Cleanup(func() { ledger.Close() })
	return ledger
}

func TestReserveCreatesOnce(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	record, created, err := ledger.Reserve(ctx, "R1")
	if err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	if !created {
		t.Error("Expected first reserve to create")
	}
	if record.Status != domain.StatusPending {
		t.Errorf("Expected pending, got %s", record.Status)
	}

	record, created, err = ledger.Reserve(ctx, "R1")
	if err != nil {
		t.Fatalf("Second reserve failed: %v", err)
	}
	if created {
		t.Error("Expected second reserve to find existing record")
	}
	if record.ReplyID != "R1" {
		t.Errorf("Expected R1, got %s", record.ReplyID)
	}
}

func TestReserveConcurrent(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	createdCh := make(chan bool, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := ledger.Reserve(ctx, "R1")
			if err != nil {
				t.Errorf("Reserve failed: %v", err)
				return
			}
			createdCh <- created
		}()
	}
	wg.Wait()
	close(createdCh)

	total := 0
	for created := range createdCh {
		if created {
			total++
		}
	}
	if total != 1 {
		t.Errorf("Expected exactly 1 created=true, got %d", total)
	}
}

func TestFinalizeProcessedIsImmutable(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	ledger.Reserve(ctx, "R1")
	if err := ledger.Finalize(ctx, "R1", domain.StatusProcessed, "rule"); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	// Attempt to overwrite a processed record
	if err := ledger.Finalize(ctx, "R1", domain.StatusFailed, "should not apply"); err != nil {
		t.Fatalf("Repeat finalize errored: %v", err)
	}

	record, err := ledger.Get(ctx, "R1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record.Status != domain.StatusProcessed {
		t.Errorf("Processed record was mutated to %s", record.Status)
	}
	if record.RespondedAt.IsZero() {
		t.Error("Expected respondedAt set")
	}
}

func TestFinalizeUnknownReply(t *testing.T) {
	ledger := newTestLedger(t)

	if err := ledger.Finalize(context.Background(), "missing", domain.StatusFailed, "x"); err == nil {
		t.Error("Expected error finalizing unknown reply")
	}
}

func TestBumpAttempt(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	ledger.Reserve(ctx, "R1")

	for want := 1; want <= 3; want++ {
		got, err := ledger.BumpAttempt(ctx, "R1")
		if err != nil {
			t.Fatalf("BumpAttempt failed: %v", err)
		}
		if got != want {
			t.Errorf("Expected attempt %d, got %d", want, got)
		}
	}
}

func TestHasProcessed(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	seen, err := ledger.HasProcessed(ctx, "R1")
	if err != nil {
		t.Fatalf("HasProcessed failed: %v", err)
	}
	if seen {
		t.Error("Expected unseen reply")
	}

	ledger.Reserve(ctx, "R1")

	seen, err = ledger.HasProcessed(ctx, "R1")
	if err != nil {
		t.Fatalf("HasProcessed failed: %v", err)
	}
	if !seen {
		t.Error("Expected seen reply")
	}
}

func TestStats(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	ledger.Reserve(ctx, "R1")
	ledger.Reserve(ctx, "R2")
	ledger.Reserve(ctx, "R3")
	ledger.Finalize(ctx, "R1", domain.StatusProcessed, "")
	ledger.Finalize(ctx, "R2", domain.StatusSkipped, "no-rule-matched")

	stats, err := ledger.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Processed != 1 || stats.Skipped != 1 || stats.Pending != 1 || stats.Failed != 0 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}
