// Package governance provides the rule table evaluated against radar
// axes, the derived permissions object, and the per-scan merge gate
// types.
package governance

// Operator is the comparison applied between an axis score and a rule
// threshold.
type Operator string

const (
	OperatorLT  Operator = "lt"
	OperatorGT  Operator = "gt"
	OperatorLTE Operator = "lte"
	OperatorGTE Operator = "gte"
)

// IsValid checks if the operator is valid.
func (o Operator) IsValid() bool {
	switch o {
	case OperatorLT, OperatorGT, OperatorLTE, OperatorGTE:
		return true
	}
	return false
}

// Compare applies the operator to (score, threshold).
func (o Operator) Compare(score, threshold float64) bool {
	switch o {
	case OperatorLT:
		return score < threshold
	case OperatorGT:
		return score > threshold
	case OperatorLTE:
		return score <= threshold
	case OperatorGTE:
		return score >= threshold
	}
	return false
}

// Action is the policy effect of a triggered rule.
type Action string

const (
	ActionBlockMerge      Action = "block_merge"
	ActionRequireApproval Action = "require_approval"
	ActionReduceRanking   Action = "reduce_ranking"
	ActionGrantPrivileges Action = "grant_privileges"
)

// IsValid checks if the action is valid.
func (a Action) IsValid() bool {
	switch a {
	case ActionBlockMerge, ActionRequireApproval, ActionReduceRanking, ActionGrantPrivileges:
		return true
	}
	return false
}
