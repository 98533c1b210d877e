package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/codegate/api/internal/metrics"
	"github.com/codegate/api/pkg/domain/shared"
	"github.com/codegate/api/pkg/logger"
)

// RadarProcessor handles radar tasks. Implemented by app.RadarService.
type RadarProcessor interface {
	Recalculate(ctx context.Context, userID shared.ID) error
	Decay(ctx context.Context) error
}

// GovernanceProcessor handles governance tasks. Implemented by
// app.GovernanceService.
type GovernanceProcessor interface {
	EvaluateUser(ctx context.Context, userID shared.ID) error
}

// WorkerConfig holds the configuration for the job worker.
type WorkerConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
}

// Worker processes background jobs.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *logger.Logger
}

// NewWorker creates a new background job worker.
func NewWorker(cfg WorkerConfig, radar RadarProcessor, gov GovernanceProcessor, log *logger.Logger) *Worker {
	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				"radar":       5,
				"governance":  5,
				"maintenance": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	handler := &taskHandler{radar: radar, gov: gov, logger: log.With("component", "job_worker")}
	mux.HandleFunc(TypeRadarRecalculate, handler.handleRadarRecalculate)
	mux.HandleFunc(TypeGovernanceEvaluate, handler.handleGovernanceEvaluate)
	mux.HandleFunc(TypeRadarDecay, handler.handleRadarDecay)

	return &Worker{
		server: server,
		mux:    mux,
		logger: log,
	}
}

// Start starts the worker.
func (w *Worker) Start() error {
	w.logger.Info("starting job worker")
	return w.server.Start(w.mux)
}

// Stop stops the worker gracefully.
func (w *Worker) Stop() {
	w.logger.Info("stopping job worker")
	w.server.Shutdown()
}

type taskHandler struct {
	radar  RadarProcessor
	gov    GovernanceProcessor
	logger *logger.Logger
}

func (h *taskHandler) handleRadarRecalculate(ctx context.Context, t *asynq.Task) error {
	start := time.Now()
	defer func() {
		metrics.TaskDuration.WithLabelValues(TypeRadarRecalculate).Observe(time.Since(start).Seconds())
	}()

	var payload RadarRecalculatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}
	userID, err := shared.IDFromString(payload.UserID)
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	if err := h.radar.Recalculate(ctx, userID); err != nil {
		metrics.TaskFailuresTotal.WithLabelValues(TypeRadarRecalculate).Inc()
		h.logger.Error("radar recalculation failed", "user_id", payload.UserID, "error", err)
		return err
	}
	return nil
}

func (h *taskHandler) handleGovernanceEvaluate(ctx context.Context, t *asynq.Task) error {
	start := time.Now()
	defer func() {
		metrics.TaskDuration.WithLabelValues(TypeGovernanceEvaluate).Observe(time.Since(start).Seconds())
	}()

	var payload GovernanceEvaluatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}
	userID, err := shared.IDFromString(payload.UserID)
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	if err := h.gov.EvaluateUser(ctx, userID); err != nil {
		metrics.TaskFailuresTotal.WithLabelValues(TypeGovernanceEvaluate).Inc()
		h.logger.Error("governance evaluation failed", "user_id", payload.UserID, "error", err)
		return err
	}
	return nil
}

func (h *taskHandler) handleRadarDecay(ctx context.Context, _ *asynq.Task) error {
	start := time.Now()
	defer func() {
		metrics.TaskDuration.WithLabelValues(TypeRadarDecay).Observe(time.Since(start).Seconds())
	}()

	if err := h.radar.Decay(ctx); err != nil {
		metrics.TaskFailuresTotal.WithLabelValues(TypeRadarDecay).Inc()
		h.logger.Error("radar decay sweep failed", "error", err)
		return err
	}
	return nil
}
