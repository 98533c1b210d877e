package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRadarRecalculateTask(t *testing.T) {
	task, err := NewRadarRecalculateTask(RadarRecalculatePayload{UserID: "7b3e1f50-1f2a-4c3d-9b8e-2f1a3c4d5e6f"})

	require.NoError(t, err)
	assert.Equal(t, TypeRadarRecalculate, task.Type())
	assert.JSONEq(t, `{"user_id":"7b3e1f50-1f2a-4c3d-9b8e-2f1a3c4d5e6f"}`, string(task.Payload()))
}

func TestNewGovernanceEvaluateTask(t *testing.T) {
	task, err := NewGovernanceEvaluateTask(GovernanceEvaluatePayload{UserID: "7b3e1f50-1f2a-4c3d-9b8e-2f1a3c4d5e6f"})

	require.NoError(t, err)
	assert.Equal(t, TypeGovernanceEvaluate, task.Type())

	// Only the user travels in the payload; axis values are re-read from
	// the store at evaluation time.
	assert.JSONEq(t, `{"user_id":"7b3e1f50-1f2a-4c3d-9b8e-2f1a3c4d5e6f"}`, string(task.Payload()))
}

func TestNewRadarDecayTask(t *testing.T) {
	task := NewRadarDecayTask()

	assert.Equal(t, TypeRadarDecay, task.Type())
	assert.Empty(t, task.Payload())
}
