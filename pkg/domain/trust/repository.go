package trust

import (
	"context"
	"time"

	"github.com/codegate/api/pkg/domain/shared"
)

// DomainScoreRepository reads the raw per-user domain scores written by
// upstream systems. Missing rows are returned as zero values, not errors.
type DomainScoreRepository interface {
	GetScores(ctx context.Context, userID shared.ID) (DomainScores, error)
}

// RadarRepository persists radar state and history.
type RadarRepository interface {
	// UpsertState inserts or updates the row for (state.UserID, state.Axis).
	UpsertState(ctx context.Context, state RadarState) error

	// GetStates returns all radar state rows for a user. Empty slice when
	// the user has never been recalculated.
	GetStates(ctx context.Context, userID shared.ID) ([]RadarState, error)

	// ListStaleStates returns all state rows not updated since the cutoff.
	ListStaleStates(ctx context.Context, cutoff time.Time) ([]RadarState, error)

	// AppendHistory appends one audit row.
	AppendHistory(ctx context.Context, entry RadarHistory) error

	// GetHistory returns history rows for a user recorded after the
	// cutoff, oldest first.
	GetHistory(ctx context.Context, userID shared.ID, since time.Time) ([]RadarHistory, error)
}
