package trust

import (
	"math"
	"testing"
	"time"
)

func TestComputeAxes(t *testing.T) {
	scores := DomainScores{
		Repository: RepositoryScore{
			SecureCoding:   80,
			FixSpeed:       70,
			RiskManagement: 60,
			Consistency:    90,
		},
		Marketplace: MarketplaceScore{
			Reliability:        85,
			DeliveryDiscipline: 75,
			AppliedSecurity:    65,
		},
		OpenSource: OpenSourceScore{
			EngineeringDepth:   70,
			SecurityLeadership: 50,
			OSSImpact:          40,
		},
	}

	axes := ComputeAxes(scores)

	want := map[Axis]float64{
		AxisSecureEngineering:       0.7*80 + 0.2*90 + 0.1*50,
		AxisAppliedSecurity:         0.6*65 + 0.4*80,
		AxisProfessionalReliability: 0.7*85 + 0.3*75,
		AxisEngineeringDepth:        0.6*70 + 0.4*40,
		AxisSecurityLeadership:      0.5*50 + 0.3*65 + 0.2*60,
	}

	if len(axes) != len(AllAxes()) {
		t.Fatalf("expected %d axes, got %d", len(AllAxes()), len(axes))
	}
	for axis, expected := range want {
		if math.Abs(axes[axis]-expected) > 1e-9 {
			t.Errorf("axis %s: expected %v, got %v", axis, expected, axes[axis])
		}
	}
}

func TestComputeAxes_ZeroScores(t *testing.T) {
	axes := ComputeAxes(DomainScores{})

	for _, axis := range AllAxes() {
		if axes[axis] != 0 {
			t.Errorf("axis %s: expected 0 for missing inputs, got %v", axis, axes[axis])
		}
	}
}

func TestComputeAxes_Clamped(t *testing.T) {
	scores := DomainScores{
		Repository:  RepositoryScore{SecureCoding: 1000, Consistency: 1000},
		OpenSource:  OpenSourceScore{SecurityLeadership: 1000},
		Marketplace: MarketplaceScore{AppliedSecurity: 1000},
	}

	axes := ComputeAxes(scores)
	for _, axis := range AllAxes() {
		if axes[axis] > 100 {
			t.Errorf("axis %s: expected clamp at 100, got %v", axis, axes[axis])
		}
	}
}

func TestRadarState_Decay(t *testing.T) {
	now := time.Now().UTC()

	t.Run("multiplicative", func(t *testing.T) {
		state := RadarState{Score: 80, UpdatedAt: now.Add(-40 * 24 * time.Hour)}
		state.Decay(0.98, now)
		if math.Abs(state.Score-78.4) > 1e-9 {
			t.Errorf("expected 78.4, got %v", state.Score)
		}
		if !state.UpdatedAt.Equal(now) {
			t.Error("expected UpdatedAt to be refreshed")
		}
	})

	t.Run("never negative", func(t *testing.T) {
		state := RadarState{Score: 0.0001}
		for i := 0; i < 100; i++ {
			state.Decay(0.5, now)
		}
		if state.Score < 0 {
			t.Errorf("expected score floored at 0, got %v", state.Score)
		}
	})
}

func TestParseAxis(t *testing.T) {
	if _, ok := ParseAxis("secure_engineering"); !ok {
		t.Error("expected known axis to parse")
	}
	if _, ok := ParseAxis("bogus_axis"); ok {
		t.Error("expected unknown axis to fail")
	}
}
