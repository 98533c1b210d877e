package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegate/api/pkg/domain/scan"
	"github.com/codegate/api/pkg/domain/shared"
	"github.com/codegate/api/pkg/logger"
)

// gatedRunner blocks each Scan call until released, so tests can observe
// intermediate queue state.
type gatedRunner struct {
	mu      sync.Mutex
	started int
	release chan struct{}
	result  *ScanResult
	err     error
}

func newGatedRunner() *gatedRunner {
	return &gatedRunner{release: make(chan struct{})}
}

func (r *gatedRunner) Scan(_ context.Context, _ scan.Request) (*ScanResult, error) {
	r.mu.Lock()
	r.started++
	r.mu.Unlock()
	<-r.release
	return r.result, r.err
}

func (r *gatedRunner) startedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

func queueTestRequest() scan.Request {
	return scan.Request{
		RepositoryID: shared.NewID(),
		ActorID:      shared.NewID(),
		Kind:         scan.KindFull,
		Files:        []scan.SourceFile{{Path: "main.go"}},
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestScanQueue_ResolvesOutcome(t *testing.T) {
	runner := newGatedRunner()
	runner.result = &ScanResult{Status: scan.StatusCompleted}
	q := NewScanQueue(runner, 2, logger.NewNop())

	out := q.Enqueue(context.Background(), queueTestRequest())
	close(runner.release)

	select {
	case outcome := <-out:
		require.NoError(t, outcome.Err)
		require.NotNil(t, outcome.Result)
		assert.Equal(t, scan.StatusCompleted, outcome.Result.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outcome")
	}
}

func TestScanQueue_BoundedConcurrency(t *testing.T) {
	runner := newGatedRunner()
	q := NewScanQueue(runner, 2, logger.NewNop())

	outs := make([]<-chan ScanOutcome, 0, 4)
	for i := 0; i < 4; i++ {
		outs = append(outs, q.Enqueue(context.Background(), queueTestRequest()))
	}

	waitFor(t, func() bool { return runner.startedCount() == 2 }, "expected 2 scans to start")

	status := q.Status()
	assert.Equal(t, 2, status.Processing)
	assert.Equal(t, 2, status.Queued)
	assert.Equal(t, 2, status.MaxConcurrent)

	// Only capacity-many scans run even under load.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, runner.startedCount())

	close(runner.release)
	for _, out := range outs {
		select {
		case <-out:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for outcome")
		}
	}

	waitFor(t, func() bool {
		s := q.Status()
		return s.Processing == 0 && s.Queued == 0
	}, "expected queue to drain")
	assert.Equal(t, 4, runner.startedCount())
}

func TestScanQueue_FailureFreesSlot(t *testing.T) {
	runner := newGatedRunner()
	runner.err = errors.New("orchestration exploded")
	q := NewScanQueue(runner, 1, logger.NewNop())

	first := q.Enqueue(context.Background(), queueTestRequest())
	second := q.Enqueue(context.Background(), queueTestRequest())
	close(runner.release)

	for _, out := range []<-chan ScanOutcome{first, second} {
		select {
		case outcome := <-out:
			assert.Error(t, outcome.Err)
			assert.Nil(t, outcome.Result)
		case <-time.After(2 * time.Second):
			t.Fatal("failing run wedged the queue")
		}
	}
}

func TestScanQueue_MinimumConcurrency(t *testing.T) {
	q := NewScanQueue(newGatedRunner(), 0, logger.NewNop())
	assert.Equal(t, 1, q.Status().MaxConcurrent)
}
