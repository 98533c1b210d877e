package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/codegate/api/pkg/logger"
)

// DecayEnqueuer enqueues the radar decay sweep. Implemented by Client.
type DecayEnqueuer interface {
	EnqueueRadarDecay(ctx context.Context) error
}

// Scheduler triggers the periodic maintenance jobs on their cron
// schedules. The scheduler only enqueues; the worker does the work, so
// a slow sweep never delays the next trigger.
type Scheduler struct {
	cron     *cron.Cron
	enqueuer DecayEnqueuer
	logger   *logger.Logger
}

// NewScheduler creates a new maintenance scheduler.
func NewScheduler(enqueuer DecayEnqueuer, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		enqueuer: enqueuer,
		logger:   log.With("component", "scheduler"),
	}
}

// ScheduleRadarDecay registers the decay sweep on the given five-field
// cron spec.
func (s *Scheduler) ScheduleRadarDecay(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.enqueuer.EnqueueRadarDecay(ctx); err != nil {
			s.logger.Error("failed to enqueue radar decay sweep", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid decay schedule %q: %w", spec, err)
	}

	s.logger.Info("radar decay sweep scheduled", "spec", spec)
	return nil
}

// Start starts the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for any running trigger to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
