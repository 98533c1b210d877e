package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegate/api/pkg/domain/shared"
	"github.com/codegate/api/pkg/domain/trust"
	"github.com/codegate/api/pkg/logger"
)

type mockScoreRepo struct {
	scores trust.DomainScores
	err    error
}

func (m *mockScoreRepo) GetScores(_ context.Context, _ shared.ID) (trust.DomainScores, error) {
	return m.scores, m.err
}

type mockRadarRepo struct {
	mu      sync.Mutex
	states  map[string]map[trust.Axis]trust.RadarState
	history []trust.RadarHistory
}

func newMockRadarRepo() *mockRadarRepo {
	return &mockRadarRepo{states: make(map[string]map[trust.Axis]trust.RadarState)}
}

func (m *mockRadarRepo) UpsertState(_ context.Context, state trust.RadarState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := state.UserID.String()
	if m.states[key] == nil {
		m.states[key] = make(map[trust.Axis]trust.RadarState)
	}
	m.states[key][state.Axis] = state
	return nil
}

func (m *mockRadarRepo) GetStates(_ context.Context, userID shared.ID) ([]trust.RadarState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []trust.RadarState
	for _, state := range m.states[userID.String()] {
		out = append(out, state)
	}
	return out, nil
}

func (m *mockRadarRepo) ListStaleStates(_ context.Context, cutoff time.Time) ([]trust.RadarState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []trust.RadarState
	for _, byAxis := range m.states {
		for _, state := range byAxis {
			if state.UpdatedAt.Before(cutoff) {
				out = append(out, state)
			}
		}
	}
	return out, nil
}

func (m *mockRadarRepo) AppendHistory(_ context.Context, entry trust.RadarHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, entry)
	return nil
}

func (m *mockRadarRepo) GetHistory(_ context.Context, userID shared.ID, since time.Time) ([]trust.RadarHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []trust.RadarHistory
	for _, entry := range m.history {
		if entry.UserID.Equals(userID) && entry.RecordedAt.After(since) {
			out = append(out, entry)
		}
	}
	return out, nil
}

type mockGovernanceEnqueuer struct {
	calls []shared.ID
	err   error
}

func (m *mockGovernanceEnqueuer) EnqueueGovernanceEvaluation(_ context.Context, userID shared.ID) error {
	m.calls = append(m.calls, userID)
	return m.err
}

type mockRadarCache struct {
	data        map[string]map[trust.Axis]float64
	sets        int
	invalidates int
}

func newMockRadarCache() *mockRadarCache {
	return &mockRadarCache{data: make(map[string]map[trust.Axis]float64)}
}

func (m *mockRadarCache) GetRadar(_ context.Context, userID shared.ID) (map[trust.Axis]float64, bool) {
	axes, ok := m.data[userID.String()]
	return axes, ok
}

func (m *mockRadarCache) SetRadar(_ context.Context, userID shared.ID, axes map[trust.Axis]float64) {
	m.sets++
	m.data[userID.String()] = axes
}

func (m *mockRadarCache) InvalidateRadar(_ context.Context, userID shared.ID) {
	m.invalidates++
	delete(m.data, userID.String())
}

func testScores() trust.DomainScores {
	return trust.DomainScores{
		Repository:  trust.RepositoryScore{SecureCoding: 80, RiskManagement: 60, Consistency: 90},
		Marketplace: trust.MarketplaceScore{Reliability: 85, DeliveryDiscipline: 75, AppliedSecurity: 65},
		OpenSource:  trust.OpenSourceScore{EngineeringDepth: 70, SecurityLeadership: 50, OSSImpact: 40},
	}
}

func TestRadarService_Recalculate(t *testing.T) {
	ctx := context.Background()

	t.Run("upserts all axes and appends history", func(t *testing.T) {
		radarRepo := newMockRadarRepo()
		enqueuer := &mockGovernanceEnqueuer{}
		svc := NewRadarService(&mockScoreRepo{scores: testScores()}, radarRepo, enqueuer, logger.NewNop())
		userID := shared.NewID()

		require.NoError(t, svc.Recalculate(ctx, userID))

		states, _ := radarRepo.GetStates(ctx, userID)
		assert.Len(t, states, len(trust.AllAxes()))
		assert.Len(t, radarRepo.history, len(trust.AllAxes()))
		require.Len(t, enqueuer.calls, 1)
		assert.True(t, enqueuer.calls[0].Equals(userID))
	})

	t.Run("repeated recalculation keeps one state row per axis", func(t *testing.T) {
		radarRepo := newMockRadarRepo()
		svc := NewRadarService(&mockScoreRepo{scores: testScores()}, radarRepo, &mockGovernanceEnqueuer{}, logger.NewNop())
		userID := shared.NewID()

		require.NoError(t, svc.Recalculate(ctx, userID))
		require.NoError(t, svc.Recalculate(ctx, userID))

		states, _ := radarRepo.GetStates(ctx, userID)
		assert.Len(t, states, len(trust.AllAxes()))
		// History is append-only: one row per axis per recalculation.
		assert.Len(t, radarRepo.history, 2*len(trust.AllAxes()))
	})

	t.Run("invalidates cache", func(t *testing.T) {
		radarRepo := newMockRadarRepo()
		cache := newMockRadarCache()
		svc := NewRadarService(&mockScoreRepo{scores: testScores()}, radarRepo, &mockGovernanceEnqueuer{}, logger.NewNop())
		svc.SetCache(cache)
		userID := shared.NewID()
		cache.SetRadar(ctx, userID, map[trust.Axis]float64{trust.AxisSecureEngineering: 10})

		require.NoError(t, svc.Recalculate(ctx, userID))

		assert.Equal(t, 1, cache.invalidates)
		_, ok := cache.GetRadar(ctx, userID)
		assert.False(t, ok)
	})

	t.Run("zero user ID rejected", func(t *testing.T) {
		svc := NewRadarService(&mockScoreRepo{}, newMockRadarRepo(), &mockGovernanceEnqueuer{}, logger.NewNop())
		err := svc.Recalculate(ctx, shared.ID{})
		assert.True(t, shared.IsValidation(err))
	})
}

func TestRadarService_Decay(t *testing.T) {
	ctx := context.Background()
	userID := shared.NewID()

	radarRepo := newMockRadarRepo()
	now := time.Now().UTC()
	stale := trust.RadarState{UserID: userID, Axis: trust.AxisSecureEngineering, Score: 80, UpdatedAt: now.Add(-40 * 24 * time.Hour)}
	fresh := trust.RadarState{UserID: userID, Axis: trust.AxisAppliedSecurity, Score: 70, UpdatedAt: now.Add(-1 * time.Hour)}
	require.NoError(t, radarRepo.UpsertState(ctx, stale))
	require.NoError(t, radarRepo.UpsertState(ctx, fresh))

	enqueuer := &mockGovernanceEnqueuer{}
	svc := NewRadarService(&mockScoreRepo{}, radarRepo, enqueuer, logger.NewNop(),
		WithDecayPolicy(30*24*time.Hour, 0.98))

	require.NoError(t, svc.Decay(ctx))

	states, _ := radarRepo.GetStates(ctx, userID)
	byAxis := make(map[trust.Axis]trust.RadarState)
	for _, s := range states {
		byAxis[s.Axis] = s
	}

	assert.InDelta(t, 78.4, byAxis[trust.AxisSecureEngineering].Score, 1e-9)
	assert.Equal(t, float64(70), byAxis[trust.AxisAppliedSecurity].Score, "fresh state must not decay")

	// The sweep is maintenance only: no history, no governance events.
	assert.Empty(t, radarRepo.history)
	assert.Empty(t, enqueuer.calls)
}

func TestRadarService_GetUserRadar(t *testing.T) {
	ctx := context.Background()

	t.Run("nil for unknown user", func(t *testing.T) {
		svc := NewRadarService(&mockScoreRepo{}, newMockRadarRepo(), &mockGovernanceEnqueuer{}, logger.NewNop())
		axes, err := svc.GetUserRadar(ctx, shared.NewID())
		require.NoError(t, err)
		assert.Nil(t, axes)
	})

	t.Run("read-through cache", func(t *testing.T) {
		radarRepo := newMockRadarRepo()
		cache := newMockRadarCache()
		svc := NewRadarService(&mockScoreRepo{}, radarRepo, &mockGovernanceEnqueuer{}, logger.NewNop())
		svc.SetCache(cache)

		userID := shared.NewID()
		require.NoError(t, radarRepo.UpsertState(ctx, trust.RadarState{
			UserID: userID, Axis: trust.AxisSecureEngineering, Score: 72, UpdatedAt: time.Now().UTC(),
		}))

		axes, err := svc.GetUserRadar(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 72.0, axes[trust.AxisSecureEngineering])
		assert.Equal(t, 1, cache.sets, "miss should populate the cache")

		// Second read is served from cache.
		radarRepo.states = make(map[string]map[trust.Axis]trust.RadarState)
		axes, err = svc.GetUserRadar(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 72.0, axes[trust.AxisSecureEngineering])
	})

	t.Run("empty states never cached", func(t *testing.T) {
		cache := newMockRadarCache()
		svc := NewRadarService(&mockScoreRepo{}, newMockRadarRepo(), &mockGovernanceEnqueuer{}, logger.NewNop())
		svc.SetCache(cache)

		axes, err := svc.GetUserRadar(ctx, shared.NewID())
		require.NoError(t, err)
		assert.Nil(t, axes)
		assert.Zero(t, cache.sets)
	})
}

func TestRadarService_GetHistory_ClampsWindow(t *testing.T) {
	ctx := context.Background()
	userID := shared.NewID()
	radarRepo := newMockRadarRepo()
	require.NoError(t, radarRepo.AppendHistory(ctx, trust.RadarHistory{
		ID: shared.NewID(), UserID: userID, Axis: trust.AxisSecureEngineering,
		Score: 50, RecordedAt: time.Now().UTC().AddDate(0, 0, -40),
	}))
	require.NoError(t, radarRepo.AppendHistory(ctx, trust.RadarHistory{
		ID: shared.NewID(), UserID: userID, Axis: trust.AxisSecureEngineering,
		Score: 60, RecordedAt: time.Now().UTC().AddDate(0, 0, -5),
	}))

	svc := NewRadarService(&mockScoreRepo{}, radarRepo, &mockGovernanceEnqueuer{}, logger.NewNop())

	// Zero days falls back to the 30-day default window.
	entries, err := svc.GetHistory(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 60.0, entries[0].Score)
}
