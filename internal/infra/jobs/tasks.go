// Package jobs carries the asynq task boundary between the radar and
// governance engines, plus the scheduled radar decay sweep.
package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// =============================================================================
// Task Types
// =============================================================================

const (
	// TypeRadarRecalculate recomputes a user's radar axes. Enqueued by
	// domain-score writers and by the merge-gate radar push.
	TypeRadarRecalculate = "radar:recalculate"

	// TypeGovernanceEvaluate evaluates governance rules for a user.
	// Enqueued only by radar recalculation.
	TypeGovernanceEvaluate = "governance:evaluate"

	// TypeRadarDecay runs the staleness decay sweep.
	TypeRadarDecay = "radar:decay"
)

// =============================================================================
// Task Payloads
// =============================================================================

// RadarRecalculatePayload identifies the user to recalculate.
type RadarRecalculatePayload struct {
	UserID string `json:"user_id"`
}

// GovernanceEvaluatePayload carries the radar-recalculated event. Only
// the user travels in the payload; the evaluation re-reads the stored
// axis values so a delayed task never acts on stale scores.
type GovernanceEvaluatePayload struct {
	UserID string `json:"user_id"`
}

// =============================================================================
// Task Creators
// =============================================================================

// NewRadarRecalculateTask creates a radar recalculation task.
func NewRadarRecalculateTask(payload RadarRecalculatePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal radar recalculate payload: %w", err)
	}
	return asynq.NewTask(TypeRadarRecalculate, data,
		asynq.MaxRetry(5),
		asynq.Timeout(time.Minute),
		asynq.Queue("radar"),
	), nil
}

// NewGovernanceEvaluateTask creates a governance evaluation task.
func NewGovernanceEvaluateTask(payload GovernanceEvaluatePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal governance evaluate payload: %w", err)
	}
	return asynq.NewTask(TypeGovernanceEvaluate, data,
		asynq.MaxRetry(5),
		asynq.Timeout(time.Minute),
		asynq.Queue("governance"),
	), nil
}

// NewRadarDecayTask creates a decay sweep task.
func NewRadarDecayTask() *asynq.Task {
	return asynq.NewTask(TypeRadarDecay, nil,
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
		asynq.Queue("maintenance"),
	)
}
