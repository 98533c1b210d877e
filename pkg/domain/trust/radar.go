package trust

import (
	"time"

	"github.com/codegate/api/pkg/domain/shared"
)

// RadarState is the current score for one (user, axis) pair. Exactly one
// row exists per pair; it is upserted on every recalculation and decayed
// in place when stale.
type RadarState struct {
	UserID    shared.ID
	Axis      Axis
	Score     float64
	UpdatedAt time.Time
}

// Decay applies the multiplicative decay factor, flooring at 0.
func (s *RadarState) Decay(factor float64, now time.Time) {
	s.Score = clamp100(s.Score * factor)
	s.UpdatedAt = now
}

// RadarHistory is one append-only audit row recorded per axis per
// recalculation. Never updated or deleted.
type RadarHistory struct {
	ID         shared.ID
	UserID     shared.ID
	Axis       Axis
	Score      float64
	RecordedAt time.Time
}
