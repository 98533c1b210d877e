package app

import (
	"context"
	"fmt"

	"github.com/codegate/api/pkg/domain/governance"
	"github.com/codegate/api/pkg/domain/scan"
	"github.com/codegate/api/pkg/domain/shared"
	"github.com/codegate/api/pkg/domain/trust"
	"github.com/codegate/api/pkg/domain/vulnerability"
	"github.com/codegate/api/pkg/logger"
)

// RadarEnqueuer requests a radar recalculation for a user, used as the
// optional merge-gate side effect.
type RadarEnqueuer interface {
	EnqueueRadarRecalculation(ctx context.Context, userID shared.ID) error
}

// OwnerNotifier notifies a repository owner about a critical merge-gate
// denial.
type OwnerNotifier interface {
	NotifyOwner(ctx context.Context, repositoryID shared.ID, decision governance.GateDecision) error
}

// MergeGateInput describes one merge-gate evaluation. The side effects
// are requested by the caller, never implicit.
type MergeGateInput struct {
	RepositoryID shared.ID
	ScanID       shared.ID
	ActorID      *shared.ID
	PushRadar    bool
	NotifyOwner  bool
}

// GovernanceService evaluates the rule table against radar axes and runs
// the per-scan merge gate.
type GovernanceService struct {
	ruleRepo    governance.Repository
	radarRepo   trust.RadarRepository
	scanRepo    scan.Repository
	findingRepo vulnerability.Repository
	enqueuer    RadarEnqueuer
	notifier    OwnerNotifier
	logger      *logger.Logger

	minSecureCodingScore float64
}

// NewGovernanceService creates a new GovernanceService.
func NewGovernanceService(
	ruleRepo governance.Repository,
	radarRepo trust.RadarRepository,
	scanRepo scan.Repository,
	findingRepo vulnerability.Repository,
	log *logger.Logger,
) *GovernanceService {
	return &GovernanceService{
		ruleRepo:             ruleRepo,
		radarRepo:            radarRepo,
		scanRepo:             scanRepo,
		findingRepo:          findingRepo,
		logger:               log.With("service", "governance"),
		minSecureCodingScore: 70,
	}
}

// SetRadarEnqueuer sets the enqueuer for the merge-gate radar push.
func (s *GovernanceService) SetRadarEnqueuer(enqueuer RadarEnqueuer) {
	s.enqueuer = enqueuer
}

// SetOwnerNotifier sets the notifier for critical merge-gate denials.
func (s *GovernanceService) SetOwnerNotifier(notifier OwnerNotifier) {
	s.notifier = notifier
}

// SetMinSecureCodingScore overrides the merge-gate score threshold.
func (s *GovernanceService) SetMinSecureCodingScore(threshold float64) {
	s.minSecureCodingScore = threshold
}

// loadRules loads all active rules, quarantining rows with unrecognized
// axis, operator or action values. Quarantined rows are logged and
// skipped, never evaluated.
func (s *GovernanceService) loadRules(ctx context.Context) ([]*governance.Rule, error) {
	rows, err := s.ruleRepo.ListActiveRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load governance rules: %w", err)
	}

	rules := make([]*governance.Rule, 0, len(rows))
	for _, row := range rows {
		rule := &governance.Rule{
			Axis:        trust.Axis(row.Axis),
			Operator:    governance.Operator(row.Operator),
			Threshold:   row.Threshold,
			Action:      governance.Action(row.Action),
			Active:      row.Active,
			Description: row.Description,
		}
		if id, err := shared.IDFromString(row.ID); err == nil {
			rule.ID = id
		}
		if err := rule.Validate(); err != nil {
			s.logger.Warn("quarantined governance rule",
				"rule_id", row.ID,
				"axis", row.Axis,
				"operator", row.Operator,
				"action", row.Action,
				"error", err)
			continue
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// EvaluateUser runs the continuous policy evaluation for one user,
// logging which rules triggered. Invoked from the radar-recalculated
// event handler.
func (s *GovernanceService) EvaluateUser(ctx context.Context, userID shared.ID) error {
	perms, err := s.GetPermissions(ctx, userID)
	if err != nil {
		return err
	}

	for _, triggered := range perms.TriggeredRules {
		s.logger.Info("governance rule triggered",
			"user_id", userID.String(),
			"axis", triggered.Axis,
			"action", triggered.Action,
			"score", triggered.Score,
			"threshold", triggered.Threshold)
	}
	return nil
}

// GetPermissions re-derives the permissions object on demand. Rules have
// no precedence; their actions accumulate over the permissive default.
func (s *GovernanceService) GetPermissions(ctx context.Context, userID shared.ID) (governance.Permissions, error) {
	perms := governance.DefaultPermissions()

	if userID.IsZero() {
		return perms, fmt.Errorf("%w: user ID is required", shared.ErrValidation)
	}

	rules, err := s.loadRules(ctx)
	if err != nil {
		return perms, err
	}

	states, err := s.radarRepo.GetStates(ctx, userID)
	if err != nil {
		return perms, fmt.Errorf("failed to read radar states: %w", err)
	}
	axes := make(map[trust.Axis]float64, len(states))
	for _, state := range states {
		axes[state.Axis] = state.Score
	}

	for _, rule := range rules {
		if rule.Triggered(axes) {
			perms.Apply(rule, axes[rule.Axis])
		}
	}
	return perms, nil
}

// EvaluateMergeGate evaluates the per-scan merge gate. Decision order is
// fixed, first match wins.
func (s *GovernanceService) EvaluateMergeGate(ctx context.Context, input MergeGateInput) (governance.GateDecision, error) {
	decision, err := s.evaluateGate(ctx, input)
	if err != nil {
		return governance.GateDecision{}, err
	}

	s.runGateSideEffects(ctx, input, decision)
	return decision, nil
}

func (s *GovernanceService) evaluateGate(ctx context.Context, input MergeGateInput) (governance.GateDecision, error) {
	sc, err := s.scanRepo.GetByID(ctx, input.ScanID)
	if err != nil {
		if shared.IsNotFound(err) {
			return governance.GateDecision{
				Status: governance.GateAllowed,
				Reason: "no scan found for this evaluation",
			}, nil
		}
		return governance.GateDecision{}, fmt.Errorf("failed to load scan: %w", err)
	}

	if sc.Status() != scan.StatusCompleted {
		return governance.GateDecision{
			Status: governance.GateDenied,
			Reason: fmt.Sprintf("scan is not ready for evaluation (status %s)", sc.Status()),
		}, nil
	}

	findings, err := s.findingRepo.ListByScan(ctx, input.ScanID)
	if err != nil {
		return governance.GateDecision{}, fmt.Errorf("failed to load scan findings: %w", err)
	}

	var critical, high, open []*vulnerability.Finding
	for _, f := range findings {
		if !f.Status().IsActionable() {
			continue
		}
		open = append(open, f)
		switch f.Severity() {
		case vulnerability.SeverityCritical:
			critical = append(critical, f)
		case vulnerability.SeverityHigh:
			high = append(high, f)
		}
	}

	if len(critical) > 0 {
		return governance.GateDecision{
			Status:          governance.GateDenied,
			Reason:          fmt.Sprintf("%d critical finding(s) must be resolved before merging", len(critical)),
			Findings:        toGateFindings(critical),
			CriticalBlocked: true,
		}, nil
	}

	if sc.SecureCodingScore() < s.minSecureCodingScore {
		return governance.GateDecision{
			Status: governance.GateDenied,
			Reason: fmt.Sprintf("secure coding score %.0f is below the required %.0f",
				sc.SecureCodingScore(), s.minSecureCodingScore),
			Findings: toGateFindings(open),
		}, nil
	}

	if len(high) > 0 {
		return governance.GateDecision{
			Status:         governance.GateAllowed,
			Reason:         fmt.Sprintf("%d high severity finding(s) require review", len(high)),
			RequiresReview: true,
			Findings:       toGateFindings(high),
		}, nil
	}

	return governance.GateDecision{
		Status: governance.GateAllowed,
		Reason: "no blocking findings",
	}, nil
}

// runGateSideEffects performs the caller-requested radar push and owner
// notification. Side-effect failures are logged, never returned: the
// decision itself already stands.
func (s *GovernanceService) runGateSideEffects(ctx context.Context, input MergeGateInput, decision governance.GateDecision) {
	if input.PushRadar && input.ActorID != nil && s.enqueuer != nil {
		if err := s.enqueuer.EnqueueRadarRecalculation(ctx, *input.ActorID); err != nil {
			s.logger.Warn("merge-gate radar push failed",
				"user_id", input.ActorID.String(),
				"error", err)
		}
	}

	if input.NotifyOwner && decision.CriticalBlocked && s.notifier != nil {
		if err := s.notifier.NotifyOwner(ctx, input.RepositoryID, decision); err != nil {
			s.logger.Warn("merge-gate owner notification failed",
				"repository_id", input.RepositoryID.String(),
				"error", err)
		}
	}
}

// SeedDefaults installs the four reference rules, skipping any (axis,
// action) pair that already exists. Safe to run repeatedly.
func (s *GovernanceService) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	for _, rule := range governance.DefaultRules() {
		exists, err := s.ruleRepo.ExistsByAxisAction(ctx, rule.Axis, rule.Action)
		if err != nil {
			return created, fmt.Errorf("failed to check rule existence: %w", err)
		}
		if exists {
			continue
		}
		if err := s.ruleRepo.Create(ctx, rule); err != nil {
			return created, fmt.Errorf("failed to create default rule: %w", err)
		}
		s.logger.Info("installed default governance rule",
			"axis", string(rule.Axis),
			"action", string(rule.Action),
			"threshold", rule.Threshold)
		created++
	}
	return created, nil
}

func toGateFindings(findings []*vulnerability.Finding) []governance.GateFinding {
	out := make([]governance.GateFinding, 0, len(findings))
	for _, f := range findings {
		out = append(out, governance.GateFinding{
			ID:         f.ID().String(),
			FilePath:   f.FilePath(),
			StartLine:  f.StartLine(),
			VulnType:   f.VulnType(),
			Severity:   string(f.Severity()),
			Confidence: f.Confidence(),
		})
	}
	return out
}
