package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/replypilot/replypilot/internal/biz/domain"
	"github.com/replypilot/replypilot/internal/biz/repo"
)

// DispatchUsecase posts one task and settles its ledger record.
// All poster failures are absorbed into ledger state; nothing propagates
// past the dispatcher loop.
type DispatchUsecase struct {
	ledger      repo.LedgerRepo
	poster      repo.PosterRepo
	backoff     *Backoff
	maxAttempts int
}

// NewDispatchUsecase creates a new dispatch usecase
func NewDispatchUsecase(ledger repo.LedgerRepo, poster repo.PosterRepo, backoff *Backoff, maxAttempts int) *DispatchUsecase {
	return &DispatchUsecase{
		ledger:      ledger,
		poster:      poster,
		backoff:     backoff,
		maxAttempts: maxAttempts,
	}
}

// Process attempts the outbound post for a task. Returns a rescheduled copy
// of the task when the failure is retryable and the attempt budget allows,
// or nil when the record was finalized either way.
func (uc *DispatchUsecase) Process(ctx context.Context, task *domain.DispatchTask) (*domain.DispatchTask, error) {
	attempts, err := uc.ledger.BumpAttempt(ctx, task.ReplyID)
	if err != nil {
		return nil, fmt.Errorf("ledger bump failed: %w", err)
	}
	task.Attempt = attempts

	postErr := uc.poster.Post(ctx, task)
	if postErr == nil {
		if err := uc.ledger.Finalize(ctx, task.ReplyID, domain.StatusProcessed, task.RuleName); err != nil {
			return nil, fmt.Errorf("ledger finalize failed: %w", err)
		}
		fmt.Printf("[Dispatch] Posted reply for %s (attempt %d, rule %s)\n", task.ReplyID, attempts, task.RuleName)
		return nil, nil
	}

	if domain.IsRetryable(postErr) && attempts < uc.maxAttempts {
		delay := uc.backoff.Delay(attempts)
		retry := *task
		retry.NextEligibleTime = time.Now().Add(delay)
		_ = uc.ledger.Audit(ctx, task.ReplyID, "retry", postErr.Error())
		fmt.Printf("[Dispatch] Retrying %s in %v (attempt %d): %v\n", task.ReplyID, delay.Round(time.Millisecond), attempts, postErr)
		return &retry, nil
	}

	reason := "terminal error"
	if domain.IsRetryable(postErr) {
		reason = "attempt budget exhausted"
	}
	if err := uc.ledger.Finalize(ctx, task.ReplyID, domain.StatusFailed, fmt.Sprintf("%s: %v", reason, postErr)); err != nil {
		return nil, fmt.Errorf("ledger finalize failed: %w", err)
	}
	fmt.Printf("[Dispatch] Failed %s after %d attempt(s): %v\n", task.ReplyID, attempts, postErr)
	return nil, nil
}

// FailTask finalizes a task as failed without posting (e.g. requeue rejected)
func (uc *DispatchUsecase) FailTask(ctx context.Context, task *domain.DispatchTask, reason string) error {
	err := uc.ledger.Finalize(ctx, task.ReplyID, domain.StatusFailed, reason)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("ledger finalize failed: %w", err)
	}
	return nil
}
