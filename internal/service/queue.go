package service

import (
	"container/heap"
	"sync"
	"time"

	"github.com/replypilot/replypilot/internal/biz/domain"
)

// DispatchQueue is a bounded holding area for tasks awaiting their
// eligibility time. Tasks are released earliest-eligible first; among
// equally eligible tasks FIFO order holds. A task backing off in the
// future never blocks eligible tasks behind it.
type DispatchQueue struct {
	mu       sync.Mutex
	items    taskHeap
	capacity int
	seq      uint64
}

// NewDispatchQueue creates a queue holding at most capacity tasks
func NewDispatchQueue(capacity int) *DispatchQueue {
	return &DispatchQueue{capacity: capacity}
}

// Enqueue adds a task. Returns domain.ErrQueueSaturated when full so the
// caller can fail fast instead of blocking ingestion.
func (q *DispatchQueue) Enqueue(task *domain.DispatchTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.capacity {
		return domain.ErrQueueSaturated
	}

	q.seq++
	heap.Push(&q.items, &queuedTask{task: task, seq: q.seq})
	return nil
}

// DequeueReady removes and returns the earliest task eligible at now,
// or nil when no task is ready
func (q *DispatchQueue) DequeueReady(now time.Time) *domain.DispatchTask {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	if !q.items[0].task.Eligible(now) {
		return nil
	}
	item := heap.Pop(&q.items).(*queuedTask)
	return item.task
}

// Len returns the number of queued tasks
func (q *DispatchQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// queuedTask pairs a task with its insertion sequence for FIFO tiebreak
type queuedTask struct {
	task *domain.DispatchTask
	seq  uint64
}

type taskHeap []*queuedTask

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	ti, tj := h[i].task.NextEligibleTime, h[j].task.NextEligibleTime
	if ti.Equal(tj) {
		return h[i].seq < h[j].seq
	}
	return ti.Before(tj)
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) {
	*h = append(*h, x.(*queuedTask))
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
