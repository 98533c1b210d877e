package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/codegate/api/pkg/domain/shared"
	"github.com/codegate/api/pkg/logger"
)

// Client manages enqueueing background jobs using Asynq. It implements
// the app layer's GovernanceEnqueuer and RadarEnqueuer interfaces.
type Client struct {
	client *asynq.Client
	logger *logger.Logger
}

// ClientConfig contains configuration for the job client.
type ClientConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewClient creates a new job client for enqueueing tasks.
func NewClient(cfg ClientConfig, log *logger.Logger) *Client {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return &Client{
		client: client,
		logger: log.With("component", "job_client"),
	}
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueRadarRecalculation enqueues a radar recalculation for the user.
func (c *Client) EnqueueRadarRecalculation(ctx context.Context, userID shared.ID) error {
	task, err := NewRadarRecalculateTask(RadarRecalculatePayload{UserID: userID.String()})
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		c.logger.Error("failed to enqueue radar recalculation",
			"user_id", userID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.logger.Info("radar recalculation queued",
		"task_id", info.ID,
		"user_id", userID.String(),
		"queue", info.Queue,
	)
	return nil
}

// EnqueueGovernanceEvaluation enqueues a governance evaluation for the
// user.
func (c *Client) EnqueueGovernanceEvaluation(ctx context.Context, userID shared.ID) error {
	task, err := NewGovernanceEvaluateTask(GovernanceEvaluatePayload{UserID: userID.String()})
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		c.logger.Error("failed to enqueue governance evaluation",
			"user_id", userID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.logger.Info("governance evaluation queued",
		"task_id", info.ID,
		"user_id", userID.String(),
		"queue", info.Queue,
	)
	return nil
}

// EnqueueRadarDecay enqueues the decay maintenance sweep.
func (c *Client) EnqueueRadarDecay(ctx context.Context) error {
	info, err := c.client.EnqueueContext(ctx, NewRadarDecayTask())
	if err != nil {
		return fmt.Errorf("failed to enqueue decay sweep: %w", err)
	}
	c.logger.Info("radar decay sweep queued", "task_id", info.ID)
	return nil
}
