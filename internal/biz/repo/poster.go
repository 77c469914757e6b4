package repo

import (
	"context"

	"github.com/replypilot/replypilot/internal/biz/domain"
)

// PosterRepo posts automated replies through the platform API.
// Failures are returned as *domain.PostError so the dispatcher can
// distinguish retryable from terminal.
type PosterRepo interface {
	// Post creates a reply parented to the task's original reply
	Post(ctx context.Context, task *domain.DispatchTask) error
}
