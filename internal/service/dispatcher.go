package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/replypilot/replypilot/internal/biz/domain"
	"github.com/replypilot/replypilot/internal/biz/usecase"
)

// Dispatcher drains the dispatch queue on a fixed interval, respecting the
// platform's posting rate budget. It is the only consumer of the queue and
// runs decoupled from the webhook path: ingestion never blocks on dispatch.
type Dispatcher struct {
	queue      *DispatchQueue
	dispatchUC *usecase.DispatchUsecase
	limiter    *rate.Limiter
	interval   time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher posting at most postsPerMinute replies
func NewDispatcher(queue *DispatchQueue, dispatchUC *usecase.DispatchUsecase, postsPerMinute int, interval time.Duration) *Dispatcher {
	if postsPerMinute < 1 {
		postsPerMinute = 1
	}
	return &Dispatcher{
		queue:      queue,
		dispatchUC: dispatchUC,
		// Full burst up front: a drain pass may spend the whole minute's budget
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(postsPerMinute)), postsPerMinute),
		interval:   interval,
	}
}

// Start starts the dispatch loop
func (d *Dispatcher) Start(ctx context.Context) {
	d.ctx, d.cancel = context.WithCancel(ctx)

	d.wg.Add(1)
	go d.loop()

	fmt.Printf("[Dispatcher] Started with interval %v\n", d.interval)
}

// Stop stops the dispatch loop, letting an in-flight post finish
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	fmt.Println("[Dispatcher] Stopped")
}

// loop is the periodic drain loop
func (d *Dispatcher) loop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.Tick(d.ctx)
		}
	}
}

// Tick runs one drain pass: dispatch every ready task for which a rate
// token is available. Exported so an external scheduler can drive drains
// directly. Never blocks past the current pass.
func (d *Dispatcher) Tick(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !d.limiter.Allow() {
			// Out of budget; queued tasks wait for the next tick
			return
		}

		task := d.queue.DequeueReady(time.Now())
		if task == nil {
			return
		}

		d.dispatchOne(ctx, task)
	}
}

// dispatchOne posts a single task. A panic or unclassified failure fails
// only this task, never the loop.
func (d *Dispatcher) dispatchOne(ctx context.Context, task *domain.DispatchTask) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("[Dispatcher] Panic dispatching %s: %v\n", task.ReplyID, r)
			_ = d.dispatchUC.FailTask(ctx, task, fmt.Sprintf("panic: %v", r))
		}
	}()

	retry, err := d.dispatchUC.Process(ctx, task)
	if err != nil {
		// Ledger failure: the record stays pending and shows up in stats
		fmt.Printf("[Dispatcher] Dropping %s after ledger error: %v\n", task.ReplyID, err)
		return
	}
	if retry == nil {
		return
	}

	if err := d.queue.Enqueue(retry); err != nil {
		fmt.Printf("[Dispatcher] Requeue rejected for %s: %v\n", retry.ReplyID, err)
		_ = d.dispatchUC.FailTask(ctx, retry, "queue saturated during retry")
	}
}
