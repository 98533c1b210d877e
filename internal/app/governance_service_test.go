package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegate/api/pkg/domain/governance"
	"github.com/codegate/api/pkg/domain/scan"
	"github.com/codegate/api/pkg/domain/shared"
	"github.com/codegate/api/pkg/domain/trust"
	"github.com/codegate/api/pkg/domain/vulnerability"
	"github.com/codegate/api/pkg/logger"
)

type mockRuleRepo struct {
	rows      []governance.RuleRow
	created   []*governance.Rule
	existing  map[string]bool
	listErr   error
	createErr error
}

func newMockRuleRepo() *mockRuleRepo {
	return &mockRuleRepo{existing: make(map[string]bool)}
}

func (m *mockRuleRepo) ListActiveRows(_ context.Context) ([]governance.RuleRow, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.rows, nil
}

func (m *mockRuleRepo) Create(_ context.Context, rule *governance.Rule) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, rule)
	m.existing[string(rule.Axis)+"/"+string(rule.Action)] = true
	return nil
}

func (m *mockRuleRepo) ExistsByAxisAction(_ context.Context, axis trust.Axis, action governance.Action) (bool, error) {
	return m.existing[string(axis)+"/"+string(action)], nil
}

type mockRadarEnqueuer struct {
	calls []shared.ID
	err   error
}

func (m *mockRadarEnqueuer) EnqueueRadarRecalculation(_ context.Context, userID shared.ID) error {
	m.calls = append(m.calls, userID)
	return m.err
}

type mockOwnerNotifier struct {
	calls []governance.GateDecision
	err   error
}

func (m *mockOwnerNotifier) NotifyOwner(_ context.Context, _ shared.ID, decision governance.GateDecision) error {
	m.calls = append(m.calls, decision)
	return m.err
}

type governanceFixture struct {
	svc         *GovernanceService
	ruleRepo    *mockRuleRepo
	radarRepo   *mockRadarRepo
	scanRepo    *mockScanRepo
	findingRepo *mockFindingRepo
}

func newGovernanceFixture() *governanceFixture {
	f := &governanceFixture{
		ruleRepo:    newMockRuleRepo(),
		radarRepo:   newMockRadarRepo(),
		scanRepo:    newMockScanRepo(),
		findingRepo: newMockFindingRepo(),
	}
	f.svc = NewGovernanceService(f.ruleRepo, f.radarRepo, f.scanRepo, f.findingRepo, logger.NewNop())
	return f
}

func (f *governanceFixture) addRadarState(t *testing.T, userID shared.ID, axis trust.Axis, score float64) {
	t.Helper()
	require.NoError(t, f.radarRepo.UpsertState(context.Background(), trust.RadarState{
		UserID: userID, Axis: axis, Score: score,
	}))
}

// addCompletedScan stores a completed scan with the given secure-coding
// score and returns it.
func (f *governanceFixture) addCompletedScan(t *testing.T, repoID shared.ID, secureCoding float64, counts scan.SeverityCounts) *scan.Scan {
	t.Helper()
	sc, err := scan.New(scan.Request{
		RepositoryID: repoID,
		ActorID:      shared.NewID(),
		Kind:         scan.KindPRCheck,
		Files:        []scan.SourceFile{{Path: "main.go"}},
	})
	require.NoError(t, err)
	require.NoError(t, sc.Start())
	require.NoError(t, sc.Complete(counts, secureCoding, 0, false))
	require.NoError(t, f.scanRepo.Create(context.Background(), sc))
	return sc
}

func (f *governanceFixture) addFinding(t *testing.T, scanID, repoID shared.ID, severity vulnerability.Severity) *vulnerability.Finding {
	t.Helper()
	finding, err := vulnerability.NewFinding(
		scanID, repoID,
		vulnerability.Hypothesis{FilePath: "src/app.js", StartLine: 5, VulnType: "sql_injection"},
		vulnerability.AIVerdict{Exploitable: true, Severity: severity, Confidence: 0.9},
		nil,
		vulnerability.FusedVerdict{Confidence: 0.72, Source: vulnerability.ValidationSourceCSS, Severity: severity},
	)
	require.NoError(t, err)
	require.NoError(t, f.findingRepo.Create(context.Background(), finding))
	return finding
}

// =============================================================================
// Permissions
// =============================================================================

func TestGovernanceService_GetPermissions(t *testing.T) {
	ctx := context.Background()

	t.Run("permissive default without rules", func(t *testing.T) {
		f := newGovernanceFixture()
		userID := shared.NewID()

		perms, err := f.svc.GetPermissions(ctx, userID)

		require.NoError(t, err)
		assert.True(t, perms.CanMerge)
		assert.True(t, perms.RankingVisible)
		assert.Empty(t, perms.TriggeredRules)
	})

	t.Run("triggered rules accumulate", func(t *testing.T) {
		f := newGovernanceFixture()
		userID := shared.NewID()
		f.addRadarState(t, userID, trust.AxisSecureEngineering, 45)
		f.addRadarState(t, userID, trust.AxisSecurityLeadership, 90)
		f.ruleRepo.rows = []governance.RuleRow{
			{ID: shared.NewID().String(), Axis: "secure_engineering", Operator: "lt", Threshold: 60, Action: "block_merge", Active: true},
			{ID: shared.NewID().String(), Axis: "security_leadership", Operator: "gt", Threshold: 85, Action: "grant_privileges", Active: true},
		}

		perms, err := f.svc.GetPermissions(ctx, userID)

		require.NoError(t, err)
		assert.False(t, perms.CanMerge)
		assert.True(t, perms.HasAdvancedReviewPrivileges)
		assert.Len(t, perms.TriggeredRules, 2)
	})

	t.Run("missing axis evaluates against zero", func(t *testing.T) {
		f := newGovernanceFixture()
		f.ruleRepo.rows = []governance.RuleRow{
			{ID: shared.NewID().String(), Axis: "professional_reliability", Operator: "lt", Threshold: 55, Action: "reduce_ranking", Active: true},
		}

		perms, err := f.svc.GetPermissions(ctx, shared.NewID())

		require.NoError(t, err)
		assert.False(t, perms.RankingVisible)
	})

	t.Run("malformed rows quarantined", func(t *testing.T) {
		f := newGovernanceFixture()
		userID := shared.NewID()
		f.addRadarState(t, userID, trust.AxisSecureEngineering, 10)
		f.ruleRepo.rows = []governance.RuleRow{
			{ID: "not-a-uuid", Axis: "charisma", Operator: "lt", Threshold: 60, Action: "block_merge", Active: true},
			{ID: shared.NewID().String(), Axis: "secure_engineering", Operator: "between", Threshold: 60, Action: "block_merge", Active: true},
			{ID: shared.NewID().String(), Axis: "secure_engineering", Operator: "lt", Threshold: 60, Action: "ban_user", Active: true},
		}

		perms, err := f.svc.GetPermissions(ctx, userID)

		// All rows are malformed: nothing fires even at score 10.
		require.NoError(t, err)
		assert.True(t, perms.CanMerge)
		assert.Empty(t, perms.TriggeredRules)
	})

	t.Run("zero user ID rejected", func(t *testing.T) {
		f := newGovernanceFixture()
		_, err := f.svc.GetPermissions(ctx, shared.ID{})
		assert.True(t, shared.IsValidation(err))
	})
}

// =============================================================================
// Merge gate
// =============================================================================

func TestGovernanceService_EvaluateMergeGate(t *testing.T) {
	ctx := context.Background()

	t.Run("no scan allows with explanation", func(t *testing.T) {
		f := newGovernanceFixture()

		decision, err := f.svc.EvaluateMergeGate(ctx, MergeGateInput{
			RepositoryID: shared.NewID(),
			ScanID:       shared.NewID(),
		})

		require.NoError(t, err)
		assert.True(t, decision.Allowed())
		assert.Equal(t, "no scan found for this evaluation", decision.Reason)
	})

	t.Run("non-completed scan denies", func(t *testing.T) {
		f := newGovernanceFixture()
		sc, err := scan.New(scan.Request{
			RepositoryID: shared.NewID(), ActorID: shared.NewID(), Kind: scan.KindFull,
			Files: []scan.SourceFile{{Path: "main.go"}},
		})
		require.NoError(t, err)
		require.NoError(t, f.scanRepo.Create(ctx, sc))

		decision, err := f.svc.EvaluateMergeGate(ctx, MergeGateInput{ScanID: sc.ID()})

		require.NoError(t, err)
		assert.False(t, decision.Allowed())
		assert.Contains(t, decision.Reason, "not ready")
	})

	t.Run("critical finding denies and flags critical block", func(t *testing.T) {
		f := newGovernanceFixture()
		repoID := shared.NewID()
		sc := f.addCompletedScan(t, repoID, 75, scan.SeverityCounts{Critical: 1})
		f.addFinding(t, sc.ID(), repoID, vulnerability.SeverityCritical)

		decision, err := f.svc.EvaluateMergeGate(ctx, MergeGateInput{RepositoryID: repoID, ScanID: sc.ID()})

		require.NoError(t, err)
		assert.False(t, decision.Allowed())
		assert.True(t, decision.CriticalBlocked)
		assert.Len(t, decision.Findings, 1)
	})

	t.Run("dismissed critical does not block", func(t *testing.T) {
		f := newGovernanceFixture()
		repoID := shared.NewID()
		sc := f.addCompletedScan(t, repoID, 90, scan.SeverityCounts{})
		finding := f.addFinding(t, sc.ID(), repoID, vulnerability.SeverityCritical)
		require.NoError(t, finding.Dismiss(shared.NewID()))
		require.NoError(t, f.findingRepo.Update(ctx, finding))

		decision, err := f.svc.EvaluateMergeGate(ctx, MergeGateInput{RepositoryID: repoID, ScanID: sc.ID()})

		require.NoError(t, err)
		assert.True(t, decision.Allowed())
	})

	t.Run("low secure coding score denies", func(t *testing.T) {
		f := newGovernanceFixture()
		repoID := shared.NewID()
		sc := f.addCompletedScan(t, repoID, 55, scan.SeverityCounts{Medium: 4})

		decision, err := f.svc.EvaluateMergeGate(ctx, MergeGateInput{RepositoryID: repoID, ScanID: sc.ID()})

		require.NoError(t, err)
		assert.False(t, decision.Allowed())
		assert.False(t, decision.CriticalBlocked)
		assert.Contains(t, decision.Reason, "below the required")
	})

	t.Run("high findings allow with review", func(t *testing.T) {
		f := newGovernanceFixture()
		repoID := shared.NewID()
		sc := f.addCompletedScan(t, repoID, 85, scan.SeverityCounts{High: 1})
		f.addFinding(t, sc.ID(), repoID, vulnerability.SeverityHigh)

		decision, err := f.svc.EvaluateMergeGate(ctx, MergeGateInput{RepositoryID: repoID, ScanID: sc.ID()})

		require.NoError(t, err)
		assert.True(t, decision.Allowed())
		assert.True(t, decision.RequiresReview)
		assert.Len(t, decision.Findings, 1)
	})

	t.Run("clean scan allows", func(t *testing.T) {
		f := newGovernanceFixture()
		repoID := shared.NewID()
		sc := f.addCompletedScan(t, repoID, 100, scan.SeverityCounts{})

		decision, err := f.svc.EvaluateMergeGate(ctx, MergeGateInput{RepositoryID: repoID, ScanID: sc.ID()})

		require.NoError(t, err)
		assert.True(t, decision.Allowed())
		assert.Equal(t, "no blocking findings", decision.Reason)
		assert.False(t, decision.RequiresReview)
	})

	t.Run("custom score threshold", func(t *testing.T) {
		f := newGovernanceFixture()
		f.svc.SetMinSecureCodingScore(90)
		repoID := shared.NewID()
		sc := f.addCompletedScan(t, repoID, 85, scan.SeverityCounts{})

		decision, err := f.svc.EvaluateMergeGate(ctx, MergeGateInput{RepositoryID: repoID, ScanID: sc.ID()})

		require.NoError(t, err)
		assert.False(t, decision.Allowed())
	})
}

func TestGovernanceService_MergeGateSideEffects(t *testing.T) {
	ctx := context.Background()

	t.Run("radar push when requested with actor", func(t *testing.T) {
		f := newGovernanceFixture()
		enqueuer := &mockRadarEnqueuer{}
		f.svc.SetRadarEnqueuer(enqueuer)
		repoID := shared.NewID()
		sc := f.addCompletedScan(t, repoID, 100, scan.SeverityCounts{})
		actorID := shared.NewID()

		_, err := f.svc.EvaluateMergeGate(ctx, MergeGateInput{
			RepositoryID: repoID, ScanID: sc.ID(), ActorID: &actorID, PushRadar: true,
		})

		require.NoError(t, err)
		require.Len(t, enqueuer.calls, 1)
		assert.True(t, enqueuer.calls[0].Equals(actorID))
	})

	t.Run("no radar push without actor", func(t *testing.T) {
		f := newGovernanceFixture()
		enqueuer := &mockRadarEnqueuer{}
		f.svc.SetRadarEnqueuer(enqueuer)
		repoID := shared.NewID()
		sc := f.addCompletedScan(t, repoID, 100, scan.SeverityCounts{})

		_, err := f.svc.EvaluateMergeGate(ctx, MergeGateInput{
			RepositoryID: repoID, ScanID: sc.ID(), PushRadar: true,
		})

		require.NoError(t, err)
		assert.Empty(t, enqueuer.calls)
	})

	t.Run("owner notified on critical denial only", func(t *testing.T) {
		f := newGovernanceFixture()
		notifier := &mockOwnerNotifier{}
		f.svc.SetOwnerNotifier(notifier)
		repoID := shared.NewID()
		sc := f.addCompletedScan(t, repoID, 75, scan.SeverityCounts{Critical: 1})
		f.addFinding(t, sc.ID(), repoID, vulnerability.SeverityCritical)

		_, err := f.svc.EvaluateMergeGate(ctx, MergeGateInput{
			RepositoryID: repoID, ScanID: sc.ID(), NotifyOwner: true,
		})

		require.NoError(t, err)
		require.Len(t, notifier.calls, 1)
		assert.True(t, notifier.calls[0].CriticalBlocked)

		// A non-critical denial does not notify.
		sc2 := f.addCompletedScan(t, repoID, 55, scan.SeverityCounts{})
		_, err = f.svc.EvaluateMergeGate(ctx, MergeGateInput{
			RepositoryID: repoID, ScanID: sc2.ID(), NotifyOwner: true,
		})
		require.NoError(t, err)
		assert.Len(t, notifier.calls, 1)
	})
}

// =============================================================================
// Seeding
// =============================================================================

func TestGovernanceService_SeedDefaults(t *testing.T) {
	ctx := context.Background()

	t.Run("installs the reference rules", func(t *testing.T) {
		f := newGovernanceFixture()

		created, err := f.svc.SeedDefaults(ctx)

		require.NoError(t, err)
		assert.Equal(t, 4, created)
		assert.Len(t, f.ruleRepo.created, 4)
	})

	t.Run("idempotent", func(t *testing.T) {
		f := newGovernanceFixture()

		_, err := f.svc.SeedDefaults(ctx)
		require.NoError(t, err)

		created, err := f.svc.SeedDefaults(ctx)
		require.NoError(t, err)
		assert.Zero(t, created)
		assert.Len(t, f.ruleRepo.created, 4)
	})
}
