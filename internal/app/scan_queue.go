package app

import (
	"context"
	"sync"

	"github.com/codegate/api/internal/metrics"
	"github.com/codegate/api/pkg/domain/scan"
	"github.com/codegate/api/pkg/logger"
)

// ScanRunner executes one admitted scan request. Implemented by
// ScanService; abstracted so queue behavior is testable in isolation.
type ScanRunner interface {
	Scan(ctx context.Context, req scan.Request) (*ScanResult, error)
}

// ScanOutcome is the resolution of one enqueued request: either a result
// or the error the orchestration failed with.
type ScanOutcome struct {
	Result *ScanResult
	Err    error
}

// QueueStatus is the observable state of the scan queue.
type QueueStatus struct {
	Queued        int `json:"queued"`
	Processing    int `json:"processing"`
	MaxConcurrent int `json:"max_concurrent"`
}

type queueItem struct {
	ctx context.Context
	req scan.Request
	out chan ScanOutcome
}

// ScanQueue is the bounded-concurrency admission layer in front of the
// orchestrator. Admission is FIFO; completion order is not. Producers
// never block waiting for a slot: each submission owns a 1-buffered
// outcome channel resolved when its orchestration finishes.
type ScanQueue struct {
	runner        ScanRunner
	maxConcurrent int
	logger        *logger.Logger

	mu         sync.Mutex
	queue      []queueItem
	processing int
}

// NewScanQueue creates a queue draining into the given runner.
func NewScanQueue(runner ScanRunner, maxConcurrent int, log *logger.Logger) *ScanQueue {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &ScanQueue{
		runner:        runner,
		maxConcurrent: maxConcurrent,
		logger:        log.With("service", "scan_queue"),
	}
}

// Enqueue appends the request and attempts a drain step. The returned
// channel receives exactly one ScanOutcome.
func (q *ScanQueue) Enqueue(ctx context.Context, req scan.Request) <-chan ScanOutcome {
	out := make(chan ScanOutcome, 1)

	q.mu.Lock()
	q.queue = append(q.queue, queueItem{ctx: ctx, req: req, out: out})
	metrics.ScanQueueDepth.Set(float64(len(q.queue)))
	q.mu.Unlock()

	q.logger.Debug("scan request enqueued", "repository_id", req.RepositoryID.String())
	q.drain()
	return out
}

// Status returns the current queue counters.
func (q *ScanQueue) Status() QueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStatus{
		Queued:        len(q.queue),
		Processing:    q.processing,
		MaxConcurrent: q.maxConcurrent,
	}
}

// drain starts queued work while capacity allows. Called on every enqueue
// and every completion.
func (q *ScanQueue) drain() {
	for {
		q.mu.Lock()
		if q.processing >= q.maxConcurrent || len(q.queue) == 0 {
			q.mu.Unlock()
			return
		}
		item := q.queue[0]
		q.queue = q.queue[1:]
		q.processing++
		metrics.ScanQueueDepth.Set(float64(len(q.queue)))
		metrics.ScansInFlight.Set(float64(q.processing))
		q.mu.Unlock()

		go q.run(item)
	}
}

// run executes one item and resolves its outcome channel. The deferred
// decrement runs on every path, so a failing orchestration can never
// wedge the queue.
func (q *ScanQueue) run(item queueItem) {
	defer func() {
		q.mu.Lock()
		q.processing--
		metrics.ScansInFlight.Set(float64(q.processing))
		q.mu.Unlock()
		q.drain()
	}()

	result, err := q.runner.Scan(item.ctx, item.req)
	if err != nil {
		q.logger.Warn("scan orchestration failed",
			"repository_id", item.req.RepositoryID.String(),
			"error", err)
	}
	item.out <- ScanOutcome{Result: result, Err: err}
}
