package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/replypilot/replypilot/internal/biz/domain"
	"github.com/replypilot/replypilot/internal/biz/repo"
)

// IngestOutcome is the terminal state of one inbound event's pipeline pass
type IngestOutcome string

const (
	OutcomeEnqueued IngestOutcome = "enqueued"
	OutcomeIgnored  IngestOutcome = "ignored" // duplicate delivery, no-op
	OutcomeSkipped  IngestOutcome = "skipped" // classifier declined
	OutcomeFailed   IngestOutcome = "failed"  // backpressure, failed fast
)

// Enqueuer hands dispatch tasks to the outbound queue
type Enqueuer interface {
	Enqueue(task *domain.DispatchTask) error
}

// IngestResult describes what happened to one event
type IngestResult struct {
	Outcome IngestOutcome
	Reason  string
}

// IngestUsecase runs the per-event pipeline: dedupe, classify, enqueue.
// The heavy lifting (outbound posting) is left to the dispatcher so the
// webhook acknowledgment stays fast.
type IngestUsecase struct {
	ledger repo.LedgerRepo
	rules  []domain.ReplyRule
	queue  Enqueuer
}

// NewIngestUsecase creates a new ingestion usecase
func NewIngestUsecase(ledger repo.LedgerRepo, rules []domain.ReplyRule, queue Enqueuer) *IngestUsecase {
	return &IngestUsecase{
		ledger: ledger,
		rules:  rules,
		queue:  queue,
	}
}

// HandleEvent processes one verified reply event.
// At most one event per ReplyID ever reaches the enqueue step, even under
// concurrent duplicate deliveries; the ledger's atomic reserve guarantees it.
func (uc *IngestUsecase) HandleEvent(ctx context.Context, event *domain.ReplyEvent) (*IngestResult, error) {
	if !event.Valid() {
		return nil, domain.ErrMalformedPayload
	}

	record, created, err := uc.ledger.Reserve(ctx, event.ReplyID)
	if err != nil {
		return nil, fmt.Errorf("ledger reserve failed: %w", err)
	}
	if !created {
		_ = uc.ledger.Audit(ctx, event.ReplyID, "duplicate", string(record.Status))
		return &IngestResult{Outcome: OutcomeIgnored, Reason: "already-seen"}, nil
	}

	decision := Classify(event, uc.rules)
	if !decision.Respond {
		if err := uc.ledger.Finalize(ctx, event.ReplyID, domain.StatusSkipped, decision.Reason); err != nil {
			return nil, fmt.Errorf("ledger finalize failed: %w", err)
		}
		return &IngestResult{Outcome: OutcomeSkipped, Reason: decision.Reason}, nil
	}

	task := &domain.DispatchTask{
		ReplyID:          event.ReplyID,
		PostID:           event.PostID,
		RenderedResponse: decision.RenderedText,
		RuleName:         decision.RuleName,
		NextEligibleTime: time.Now(),
	}

	if err := uc.queue.Enqueue(task); err != nil {
		if errors.Is(err, domain.ErrQueueSaturated) {
			// Fail fast rather than block the webhook response
			if ferr := uc.ledger.Finalize(ctx, event.ReplyID, domain.StatusFailed, "queue saturated"); ferr != nil {
				return nil, fmt.Errorf("ledger finalize failed: %w", ferr)
			}
			return &IngestResult{Outcome: OutcomeFailed, Reason: "queue-saturated"}, nil
		}
		return nil, fmt.Errorf("enqueue failed: %w", err)
	}

	_ = uc.ledger.Audit(ctx, event.ReplyID, "enqueued", decision.RuleName)
	return &IngestResult{Outcome: OutcomeEnqueued, Reason: decision.RuleName}, nil
}
