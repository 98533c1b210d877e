package governance

import (
	"testing"

	"github.com/codegate/api/pkg/domain/shared"
	"github.com/codegate/api/pkg/domain/trust"
)

func TestDefaultPermissions(t *testing.T) {
	perms := DefaultPermissions()

	if !perms.CanMerge {
		t.Error("expected merging allowed by default")
	}
	if !perms.RankingVisible {
		t.Error("expected ranking visible by default")
	}
	if perms.RequiresMarketplaceApproval {
		t.Error("expected no approval requirement by default")
	}
	if perms.HasAdvancedReviewPrivileges {
		t.Error("expected no advanced privileges by default")
	}
	if perms.TriggeredRules == nil || len(perms.TriggeredRules) != 0 {
		t.Error("expected empty, non-nil triggered rules")
	}
}

func TestPermissions_Apply(t *testing.T) {
	mkRule := func(action Action) *Rule {
		return &Rule{
			ID:        shared.NewID(),
			Axis:      trust.AxisSecureEngineering,
			Operator:  OperatorLT,
			Threshold: 60,
			Action:    action,
		}
	}

	t.Run("actions accumulate", func(t *testing.T) {
		perms := DefaultPermissions()
		perms.Apply(mkRule(ActionBlockMerge), 45)
		perms.Apply(mkRule(ActionRequireApproval), 45)
		perms.Apply(mkRule(ActionReduceRanking), 45)
		perms.Apply(mkRule(ActionGrantPrivileges), 45)

		if perms.CanMerge {
			t.Error("expected merging blocked")
		}
		if !perms.RequiresMarketplaceApproval {
			t.Error("expected approval required")
		}
		if perms.RankingVisible {
			t.Error("expected ranking hidden")
		}
		if !perms.HasAdvancedReviewPrivileges {
			t.Error("expected advanced privileges granted")
		}
		if len(perms.TriggeredRules) != 4 {
			t.Errorf("expected 4 triggered rules recorded, got %d", len(perms.TriggeredRules))
		}
	})

	t.Run("triggered rule carries evaluation context", func(t *testing.T) {
		perms := DefaultPermissions()
		rule := mkRule(ActionBlockMerge)
		rule.Description = "weak secure engineering"
		perms.Apply(rule, 42.5)

		tr := perms.TriggeredRules[0]
		if tr.RuleID != rule.ID.String() {
			t.Error("expected rule ID recorded")
		}
		if tr.Score != 42.5 || tr.Threshold != 60 {
			t.Errorf("expected score and threshold recorded, got %+v", tr)
		}
		if tr.Description != "weak secure engineering" {
			t.Error("expected description recorded")
		}
	})
}

func TestGateDecision_Allowed(t *testing.T) {
	if !(GateDecision{Status: GateAllowed}).Allowed() {
		t.Error("expected allowed decision")
	}
	if (GateDecision{Status: GateDenied}).Allowed() {
		t.Error("expected denied decision")
	}
}
