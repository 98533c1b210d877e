package governance

// TriggeredRule describes one rule that fired during evaluation.
type TriggeredRule struct {
	RuleID      string  `json:"rule_id"`
	Axis        string  `json:"axis"`
	Operator    string  `json:"operator"`
	Threshold   float64 `json:"threshold"`
	Score       float64 `json:"score"`
	Action      string  `json:"action"`
	Description string  `json:"description"`
}

// Permissions is the folded result of evaluating all active rules against
// a user's radar axes. Actions accumulate with no precedence.
type Permissions struct {
	CanMerge                    bool            `json:"can_merge"`
	RequiresMarketplaceApproval bool            `json:"requires_marketplace_approval"`
	RankingVisible              bool            `json:"ranking_visible"`
	HasAdvancedReviewPrivileges bool            `json:"has_advanced_review_privileges"`
	TriggeredRules              []TriggeredRule `json:"triggered_rules"`
}

// DefaultPermissions returns the all-permissive baseline applied before
// any rule fires.
func DefaultPermissions() Permissions {
	return Permissions{
		CanMerge:       true,
		RankingVisible: true,
		TriggeredRules: []TriggeredRule{},
	}
}

// Apply folds one triggered rule's action into the permissions.
func (p *Permissions) Apply(rule *Rule, score float64) {
	switch rule.Action {
	case ActionBlockMerge:
		p.CanMerge = false
	case ActionRequireApproval:
		p.RequiresMarketplaceApproval = true
	case ActionReduceRanking:
		p.RankingVisible = false
	case ActionGrantPrivileges:
		p.HasAdvancedReviewPrivileges = true
	}
	p.TriggeredRules = append(p.TriggeredRules, TriggeredRule{
		RuleID:      rule.ID.String(),
		Axis:        string(rule.Axis),
		Operator:    string(rule.Operator),
		Threshold:   rule.Threshold,
		Score:       score,
		Action:      string(rule.Action),
		Description: rule.Description,
	})
}
