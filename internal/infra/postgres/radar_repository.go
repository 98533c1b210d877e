package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/codegate/api/pkg/domain/shared"
	"github.com/codegate/api/pkg/domain/trust"
)

// RadarRepository implements trust.RadarRepository using PostgreSQL.
type RadarRepository struct {
	db *DB
}

// NewRadarRepository creates a new RadarRepository.
func NewRadarRepository(db *DB) *RadarRepository {
	return &RadarRepository{db: db}
}

// UpsertState inserts or updates the row for (state.UserID, state.Axis).
func (r *RadarRepository) UpsertState(ctx context.Context, state trust.RadarState) error {
	query := `
		INSERT INTO radar_states (user_id, axis, score, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, axis) DO UPDATE SET
			score = EXCLUDED.score,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		state.UserID.String(),
		state.Axis,
		state.Score,
		state.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert radar state: %w", err)
	}

	return nil
}

// GetStates returns all radar state rows for a user.
func (r *RadarRepository) GetStates(ctx context.Context, userID shared.ID) ([]trust.RadarState, error) {
	query := `
		SELECT user_id, axis, score, updated_at
		FROM radar_states
		WHERE user_id = $1
	`
	return r.queryStates(ctx, query, userID.String())
}

// ListStaleStates returns all state rows not updated since the cutoff.
func (r *RadarRepository) ListStaleStates(ctx context.Context, cutoff time.Time) ([]trust.RadarState, error) {
	query := `
		SELECT user_id, axis, score, updated_at
		FROM radar_states
		WHERE updated_at < $1
	`
	return r.queryStates(ctx, query, cutoff)
}

// AppendHistory appends one audit row.
func (r *RadarRepository) AppendHistory(ctx context.Context, entry trust.RadarHistory) error {
	query := `
		INSERT INTO radar_history (id, user_id, axis, score, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID.String(),
		entry.UserID.String(),
		entry.Axis,
		entry.Score,
		entry.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append radar history: %w", err)
	}

	return nil
}

// GetHistory returns history rows for a user recorded after the cutoff,
// oldest first.
func (r *RadarRepository) GetHistory(ctx context.Context, userID shared.ID, since time.Time) ([]trust.RadarHistory, error) {
	query := `
		SELECT id, user_id, axis, score, recorded_at
		FROM radar_history
		WHERE user_id = $1 AND recorded_at >= $2
		ORDER BY recorded_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID.String(), since)
	if err != nil {
		return nil, fmt.Errorf("failed to query radar history: %w", err)
	}
	defer rows.Close()

	var history []trust.RadarHistory
	for rows.Next() {
		var (
			idStr     string
			userIDStr string
			axis      string
			entry     trust.RadarHistory
		)
		if err := rows.Scan(&idStr, &userIDStr, &axis, &entry.Score, &entry.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan radar history: %w", err)
		}
		if entry.ID, err = shared.IDFromString(idStr); err != nil {
			return nil, fmt.Errorf("failed to parse id: %w", err)
		}
		if entry.UserID, err = shared.IDFromString(userIDStr); err != nil {
			return nil, fmt.Errorf("failed to parse user id: %w", err)
		}
		entry.Axis = trust.Axis(axis)
		history = append(history, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate radar history: %w", err)
	}

	return history, nil
}

func (r *RadarRepository) queryStates(ctx context.Context, query string, args ...any) ([]trust.RadarState, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query radar states: %w", err)
	}
	defer rows.Close()

	var states []trust.RadarState
	for rows.Next() {
		var (
			userIDStr string
			axis      string
			state     trust.RadarState
		)
		if err := rows.Scan(&userIDStr, &axis, &state.Score, &state.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan radar state: %w", err)
		}
		if state.UserID, err = shared.IDFromString(userIDStr); err != nil {
			return nil, fmt.Errorf("failed to parse user id: %w", err)
		}
		state.Axis = trust.Axis(axis)
		states = append(states, state)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate radar states: %w", err)
	}

	return states, nil
}
