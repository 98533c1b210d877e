package app

import (
	"context"
	"fmt"
	"time"

	"github.com/codegate/api/internal/metrics"
	"github.com/codegate/api/pkg/domain/shared"
	"github.com/codegate/api/pkg/domain/trust"
	"github.com/codegate/api/pkg/logger"
)

// GovernanceEnqueuer hands the radar-recalculated event to the governance
// engine. The two engines never call each other directly; the enqueuer is
// the only coupling point.
type GovernanceEnqueuer interface {
	EnqueueGovernanceEvaluation(ctx context.Context, userID shared.ID) error
}

// RadarCache is an optional read-through cache for current axis values.
// Implementations must swallow their own failures; a cache miss and a
// cache error look the same to the service.
type RadarCache interface {
	GetRadar(ctx context.Context, userID shared.ID) (map[trust.Axis]float64, bool)
	SetRadar(ctx context.Context, userID shared.ID, axes map[trust.Axis]float64)
	InvalidateRadar(ctx context.Context, userID shared.ID)
}

// RadarServiceOption configures a RadarService.
type RadarServiceOption func(*RadarService)

// WithDecayPolicy overrides the staleness window and decay factor.
func WithDecayPolicy(after time.Duration, factor float64) RadarServiceOption {
	return func(s *RadarService) {
		if after > 0 {
			s.decayAfter = after
		}
		if factor > 0 && factor <= 1 {
			s.decayFactor = factor
		}
	}
}

// RadarService recalculates the five composite trust axes from raw domain
// scores, keeps the audit history, and runs the staleness decay sweep.
type RadarService struct {
	scoreRepo trust.DomainScoreRepository
	radarRepo trust.RadarRepository
	enqueuer  GovernanceEnqueuer
	cache     RadarCache
	logger    *logger.Logger

	decayAfter  time.Duration
	decayFactor float64
}

// NewRadarService creates a new RadarService.
func NewRadarService(
	scoreRepo trust.DomainScoreRepository,
	radarRepo trust.RadarRepository,
	enqueuer GovernanceEnqueuer,
	log *logger.Logger,
	opts ...RadarServiceOption,
) *RadarService {
	s := &RadarService{
		scoreRepo:   scoreRepo,
		radarRepo:   radarRepo,
		enqueuer:    enqueuer,
		logger:      log.With("service", "radar"),
		decayAfter:  30 * 24 * time.Hour,
		decayFactor: 0.98,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetCache attaches the optional read-through radar cache.
func (s *RadarService) SetCache(cache RadarCache) {
	s.cache = cache
}

// Recalculate recomputes all five axes for a user, upserts the state
// rows, appends history, and emits the governance-evaluation event.
// Upserts make concurrent recalculations for the same user idempotent.
func (s *RadarService) Recalculate(ctx context.Context, userID shared.ID) error {
	if userID.IsZero() {
		return fmt.Errorf("%w: user ID is required", shared.ErrValidation)
	}

	scores, err := s.scoreRepo.GetScores(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to read domain scores: %w", err)
	}

	axes := trust.ComputeAxes(scores)
	now := time.Now().UTC()

	for _, axis := range trust.AllAxes() {
		state := trust.RadarState{
			UserID:    userID,
			Axis:      axis,
			Score:     axes[axis],
			UpdatedAt: now,
		}
		if err := s.radarRepo.UpsertState(ctx, state); err != nil {
			return fmt.Errorf("failed to upsert radar state for %s: %w", axis, err)
		}
		if err := s.radarRepo.AppendHistory(ctx, trust.RadarHistory{
			ID:         shared.NewID(),
			UserID:     userID,
			Axis:       axis,
			Score:      axes[axis],
			RecordedAt: now,
		}); err != nil {
			return fmt.Errorf("failed to append radar history for %s: %w", axis, err)
		}
	}

	s.logger.Info("radar recalculated",
		"user_id", userID.String(),
		"secure_engineering", axes[trust.AxisSecureEngineering],
		"applied_security", axes[trust.AxisAppliedSecurity],
		"professional_reliability", axes[trust.AxisProfessionalReliability],
		"engineering_depth", axes[trust.AxisEngineeringDepth],
		"security_leadership", axes[trust.AxisSecurityLeadership])

	if s.cache != nil {
		s.cache.InvalidateRadar(ctx, userID)
	}

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueGovernanceEvaluation(ctx, userID); err != nil {
			return fmt.Errorf("failed to enqueue governance evaluation: %w", err)
		}
	}
	return nil
}

// Decay applies the multiplicative decay to all state rows older than the
// staleness window. A maintenance sweep: it emits no recalculation
// events and touches no history.
func (s *RadarService) Decay(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.decayAfter)

	stale, err := s.radarRepo.ListStaleStates(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to list stale radar states: %w", err)
	}

	now := time.Now().UTC()
	for i := range stale {
		state := stale[i]
		state.Decay(s.decayFactor, now)
		if err := s.radarRepo.UpsertState(ctx, state); err != nil {
			return fmt.Errorf("failed to decay radar state for user %s axis %s: %w",
				state.UserID, state.Axis, err)
		}
		metrics.RadarDecayedTotal.Inc()
	}

	if len(stale) > 0 {
		s.logger.Info("radar decay sweep applied", "decayed", len(stale))
	}
	return nil
}

// GetUserRadar returns the five current axis values, or nil when the user
// has never been recalculated.
func (s *RadarService) GetUserRadar(ctx context.Context, userID shared.ID) (map[trust.Axis]float64, error) {
	if s.cache != nil {
		if axes, ok := s.cache.GetRadar(ctx, userID); ok {
			return axes, nil
		}
	}

	states, err := s.radarRepo.GetStates(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, nil
	}
	axes := make(map[trust.Axis]float64, len(states))
	for _, state := range states {
		axes[state.Axis] = state.Score
	}

	if s.cache != nil {
		s.cache.SetRadar(ctx, userID, axes)
	}
	return axes, nil
}

// GetHistory returns the time-bounded history slice for trend rendering.
func (s *RadarService) GetHistory(ctx context.Context, userID shared.ID, days int) ([]trust.RadarHistory, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	return s.radarRepo.GetHistory(ctx, userID, since)
}

// GetDomainScores exposes the raw pre-aggregation inputs.
func (s *RadarService) GetDomainScores(ctx context.Context, userID shared.ID) (trust.DomainScores, error) {
	return s.scoreRepo.GetScores(ctx, userID)
}
