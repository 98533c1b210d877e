package governance

import (
	"fmt"
	"time"

	"github.com/codegate/api/pkg/domain/shared"
	"github.com/codegate/api/pkg/domain/trust"
)

// Rule maps an (axis, operator, threshold) condition onto a policy
// action. Rules are admin-configured rows; this package only evaluates
// them.
type Rule struct {
	ID          shared.ID
	Axis        trust.Axis
	Operator    Operator
	Threshold   float64
	Action      Action
	Active      bool
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewRule creates a new active governance rule.
func NewRule(axis trust.Axis, op Operator, threshold float64, action Action, description string) (*Rule, error) {
	r := &Rule{
		ID:          shared.NewID(),
		Axis:        axis,
		Operator:    op,
		Threshold:   threshold,
		Action:      action,
		Active:      true,
		Description: description,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks the rule's enum fields. Stored rows carry free strings;
// rows failing validation are quarantined at load time, never evaluated.
func (r *Rule) Validate() error {
	if !r.Axis.IsValid() {
		return fmt.Errorf("%w: unrecognized axis %q", shared.ErrValidation, r.Axis)
	}
	if !r.Operator.IsValid() {
		return fmt.Errorf("%w: unrecognized operator %q", shared.ErrValidation, r.Operator)
	}
	if !r.Action.IsValid() {
		return fmt.Errorf("%w: unrecognized action %q", shared.ErrValidation, r.Action)
	}
	return nil
}

// Triggered reports whether the rule fires for the given axis scores.
// A rule whose axis has no score evaluates against 0.
func (r *Rule) Triggered(axes map[trust.Axis]float64) bool {
	return r.Operator.Compare(axes[r.Axis], r.Threshold)
}

// DefaultRules returns the four reference rules installed by seeding.
func DefaultRules() []*Rule {
	now := time.Now().UTC()
	mk := func(axis trust.Axis, op Operator, threshold float64, action Action, desc string) *Rule {
		return &Rule{
			ID:          shared.NewID(),
			Axis:        axis,
			Operator:    op,
			Threshold:   threshold,
			Action:      action,
			Active:      true,
			Description: desc,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}
	return []*Rule{
		mk(trust.AxisSecureEngineering, OperatorLT, 60, ActionBlockMerge,
			"Block merges for users with weak secure engineering"),
		mk(trust.AxisAppliedSecurity, OperatorLT, 50, ActionRequireApproval,
			"Require marketplace approval for low applied security"),
		mk(trust.AxisProfessionalReliability, OperatorLT, 55, ActionReduceRanking,
			"Hide ranking for unreliable delivery history"),
		mk(trust.AxisSecurityLeadership, OperatorGT, 85, ActionGrantPrivileges,
			"Grant advanced review privileges to security leaders"),
	}
}
