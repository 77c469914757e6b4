package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/replypilot/replypilot/internal/biz/domain"
	"github.com/replypilot/replypilot/internal/biz/repo"
)

// MockLedger implements repo.LedgerRepo in memory for testing
type MockLedger struct {
	mu      sync.Mutex
	records map[string]*domain.ProcessedRecord
	audits  []string

	reserveErr  error
	finalizeErr error
}

func NewMockLedger() *MockLedger {
	return &MockLedger{records: make(map[string]*domain.ProcessedRecord)}
}

func (m *MockLedger) Reserve(ctx context.Context, replyID string) (*domain.ProcessedRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reserveErr != nil {
		return nil, false, m.reserveErr
	}
	if existing, ok := m.records[replyID]; ok {
		return existing, false, nil
	}
	record := &domain.ProcessedRecord{ReplyID: replyID, Status: domain.StatusPending, CreatedAt: time.Now()}
	m.records[replyID] = record
	return record, true, nil
}

func (m *MockLedger) HasProcessed(ctx context.Context, replyID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[replyID]
	return ok, nil
}

func (m *MockLedger) Get(ctx context.Context, replyID string) (*domain.ProcessedRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[replyID], nil
}

func (m *MockLedger) BumpAttempt(ctx context.Context, replyID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[replyID]
	if !ok {
		return 0, fmt.Errorf("no record for %s", replyID)
	}
	record.AttemptCount++
	return record.AttemptCount, nil
}

func (m *MockLedger) Finalize(ctx context.Context, replyID string, status domain.RecordStatus, detail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finalizeErr != nil {
		return m.finalizeErr
	}
	record, ok := m.records[replyID]
	if !ok {
		return fmt.Errorf("no record for %s", replyID)
	}
	if record.IsProcessed() {
		return nil
	}
	record.Status = status
	record.LastError = detail
	if status == domain.StatusProcessed {
		record.RespondedAt = time.Now()
		record.LastError = ""
	}
	return nil
}

func (m *MockLedger) Audit(ctx context.Context, replyID, action, detail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, replyID+":"+action)
	return nil
}

func (m *MockLedger) Stats(ctx context.Context) (*repo.LedgerStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &repo.LedgerStats{}
	for _, r := range m.records {
		switch r.Status {
		case domain.StatusPending:
			stats.Pending++
		case domain.StatusProcessed:
			stats.Processed++
		case domain.StatusSkipped:
			stats.Skipped++
		case domain.StatusFailed:
			stats.Failed++
		}
	}
	return stats, nil
}

func (m *MockLedger) Close() error { return nil }

// MockQueue implements Enqueuer, capturing enqueued tasks
type MockQueue struct {
	mu    sync.Mutex
	tasks []*domain.DispatchTask
	err   error
}

func (q *MockQueue) Enqueue(task *domain.DispatchTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *MockQueue) Tasks() []*domain.DispatchTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.tasks
}

// MockPoster implements repo.PosterRepo with a scripted error sequence
type MockPoster struct {
	mu     sync.Mutex
	errs   []error // one per call; nil means success, last entry repeats
	calls  int
	posted []*domain.DispatchTask
}

func (p *MockPoster) Post(ctx context.Context, task *domain.DispatchTask) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.posted = append(p.posted, task)
	if len(p.errs) == 0 {
		return nil
	}
	i := p.calls - 1
	if i >= len(p.errs) {
		i = len(p.errs) - 1
	}
	return p.errs[i]
}

func (p *MockPoster) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func retryableErr() error {
	return &domain.PostError{StatusCode: 429, Retryable: true, Err: fmt.Errorf("rate limited")}
}

func terminalErr() error {
	return &domain.PostError{StatusCode: 403, Retryable: false, Err: fmt.Errorf("permission denied")}
}
