package data

import (
	"context"
	"errors"
	"net/http"

	"github.com/replypilot/replypilot/internal/biz/domain"
	"github.com/replypilot/replypilot/internal/biz/repo"
	"github.com/replypilot/replypilot/platform"
)

// posterRepo implements the outbound poster over the platform client
type posterRepo struct {
	client *platform.Client
}

// NewPosterRepo creates a new poster repository
func NewPosterRepo(client *platform.Client) repo.PosterRepo {
	return &posterRepo{client: client}
}

// Post creates a reply parented to the task's original reply. Every failure
// comes back classified: rate limits, server errors and network timeouts are
// retryable; other client errors (auth, permissions, bad request) are terminal.
func (r *posterRepo) Post(ctx context.Context, task *domain.DispatchTask) error {
	err := r.client.CreateReply(ctx, task.PostID, task.ReplyID, task.RenderedResponse)
	if err == nil {
		return nil
	}

	var apiErr *platform.APIError
	if errors.As(err, &apiErr) {
		retryable := apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
		return &domain.PostError{StatusCode: apiErr.StatusCode, Retryable: retryable, Err: err}
	}

	// Transport-level failure: connection refused, timeout, context deadline
	return &domain.PostError{Retryable: true, Err: err}
}
