// Package trust provides the radar trust model: raw per-user domain
// scores, the five composite axes computed from them, and the persisted
// radar state and history.
package trust

import "slices"

// Axis is one of the five fixed composite trust dimensions.
type Axis string

const (
	AxisSecureEngineering       Axis = "secure_engineering"
	AxisAppliedSecurity         Axis = "applied_security"
	AxisProfessionalReliability Axis = "professional_reliability"
	AxisEngineeringDepth        Axis = "engineering_depth"
	AxisSecurityLeadership      Axis = "security_leadership"
)

// AllAxes returns the five radar axes in canonical order.
func AllAxes() []Axis {
	return []Axis{
		AxisSecureEngineering,
		AxisAppliedSecurity,
		AxisProfessionalReliability,
		AxisEngineeringDepth,
		AxisSecurityLeadership,
	}
}

// IsValid checks if the axis is valid.
func (a Axis) IsValid() bool {
	return slices.Contains(AllAxes(), a)
}

// ParseAxis maps a string onto the axis enum.
func ParseAxis(s string) (Axis, bool) {
	a := Axis(s)
	if a.IsValid() {
		return a, true
	}
	return "", false
}
