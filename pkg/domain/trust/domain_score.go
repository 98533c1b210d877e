package trust

import "time"

// DomainScores bundles the three persisted score shapes for one user.
// They are owned and written by upstream domain logic; this package only
// reads them. A missing shape is represented by its zero value.
type DomainScores struct {
	Repository  RepositoryScore
	Marketplace MarketplaceScore
	OpenSource  OpenSourceScore
}

// RepositoryScore holds per-user sub-scores derived from repository
// activity, each 0-100.
type RepositoryScore struct {
	SecureCoding   float64
	FixSpeed       float64
	RiskManagement float64
	Consistency    float64
	UpdatedAt      time.Time
}

// MarketplaceScore holds per-user sub-scores derived from marketplace
// engagements, each 0-100.
type MarketplaceScore struct {
	Reliability        float64
	DeliveryDiscipline float64
	AppliedSecurity    float64
	UpdatedAt          time.Time
}

// OpenSourceScore holds per-user sub-scores derived from open-source
// contributions, each 0-100.
type OpenSourceScore struct {
	EngineeringDepth   float64
	SecurityLeadership float64
	OSSImpact          float64
	UpdatedAt          time.Time
}

// ComputeAxes derives the five composite axes from the raw domain scores,
// each clamped to [0,100]. The weighted formulas are fixed.
func ComputeAxes(scores DomainScores) map[Axis]float64 {
	repo := scores.Repository
	market := scores.Marketplace
	oss := scores.OpenSource

	return map[Axis]float64{
		AxisSecureEngineering: clamp100(
			0.7*repo.SecureCoding + 0.2*repo.Consistency + 0.1*oss.SecurityLeadership,
		),
		AxisAppliedSecurity: clamp100(
			0.6*market.AppliedSecurity + 0.4*repo.SecureCoding,
		),
		AxisProfessionalReliability: clamp100(
			0.7*market.Reliability + 0.3*market.DeliveryDiscipline,
		),
		AxisEngineeringDepth: clamp100(
			0.6*oss.EngineeringDepth + 0.4*oss.OSSImpact,
		),
		AxisSecurityLeadership: clamp100(
			0.5*oss.SecurityLeadership + 0.3*market.AppliedSecurity + 0.2*repo.RiskManagement,
		),
	}
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
