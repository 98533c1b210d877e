package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/codegate/api/internal/metrics"
	"github.com/codegate/api/pkg/domain/scan"
	"github.com/codegate/api/pkg/domain/shared"
	"github.com/codegate/api/pkg/domain/vulnerability"
	"github.com/codegate/api/pkg/logger"
)

// ErrTooManyParallelScans is returned when a repository is already at its
// parallel-scan cap. The rejection is immediate and synchronous, before
// any queue interaction.
var ErrTooManyParallelScans = shared.NewDomainError(
	"too_many_parallel_scans",
	"too many parallel scans for this repository",
	shared.ErrCapacity,
)

// exploitCategories is the fixed allow-list sent to the exploit validator.
var exploitCategories = []string{"web_exposure", "auth_bypass", "injection"}

// HypothesisSource produces candidate vulnerabilities for a file set.
// Implemented by the static-analysis adapter.
type HypothesisSource interface {
	Hypotheses(ctx context.Context, files []scan.SourceFile) ([]vulnerability.Hypothesis, error)
}

// ExploitValidator is the adapter around the external exploit-validation
// service. Scan returns nil on any failure; unavailability must be
// invisible to the orchestrator.
type ExploitValidator interface {
	Scan(ctx context.Context, repositoryID shared.ID, files []scan.SourceFile, categories []string) *vulnerability.ExploitReport
	HealthCheck(ctx context.Context) bool
	Enabled() bool
}

// ScanResult is the orchestrator's output for one scan.
type ScanResult struct {
	ScanID               shared.ID
	RepositoryID         shared.ID
	Status               scan.Status
	Counts               scan.SeverityCounts
	SecureCodingScore    float64
	RiskScore            float64
	ShouldBlockMerge     bool
	ExploitValidatorUsed bool
	Findings             []*vulnerability.Finding
	Duration             time.Duration
}

// ScanServiceOption configures a ScanService.
type ScanServiceOption func(*ScanService)

// WithMaxParallelScans overrides the per-repository cap.
func WithMaxParallelScans(n int) ScanServiceOption {
	return func(s *ScanService) {
		if n > 0 {
			s.maxParallelScans = n
		}
	}
}

// WithValidationConcurrency overrides the AI validation fan-out bound.
func WithValidationConcurrency(n int) ScanServiceOption {
	return func(s *ScanService) {
		if n > 0 {
			s.validationConcurrency = n
		}
	}
}

// WithFusionConfig overrides the confidence-fusion constants.
func WithFusionConfig(cfg vulnerability.FusionConfig) ScanServiceOption {
	return func(s *ScanService) { s.fusion = cfg }
}

// WithScoreConfig overrides the scoring constants.
func WithScoreConfig(cfg scan.ScoreConfig) ScanServiceOption {
	return func(s *ScanService) { s.scoring = cfg }
}

// ScanService orchestrates the scan pipeline: admission, hypothesis
// generation, dual validation, confidence fusion, persistence and score
// computation.
type ScanService struct {
	scanRepo         scan.Repository
	findingRepo      vulnerability.Repository
	hypothesisSource HypothesisSource
	aiValidator      *AIValidator
	exploitValidator ExploitValidator
	logger           *logger.Logger

	fusion  vulnerability.FusionConfig
	scoring scan.ScoreConfig

	maxParallelScans      int
	validationConcurrency int

	mu           sync.Mutex
	activeByRepo map[string]int
}

// NewScanService creates a new ScanService.
func NewScanService(
	scanRepo scan.Repository,
	findingRepo vulnerability.Repository,
	hypothesisSource HypothesisSource,
	aiValidator *AIValidator,
	exploitValidator ExploitValidator,
	log *logger.Logger,
	opts ...ScanServiceOption,
) *ScanService {
	s := &ScanService{
		scanRepo:              scanRepo,
		findingRepo:           findingRepo,
		hypothesisSource:      hypothesisSource,
		aiValidator:           aiValidator,
		exploitValidator:      exploitValidator,
		logger:                log.With("service", "scan"),
		fusion:                vulnerability.DefaultFusionConfig(),
		scoring:               scan.DefaultScoreConfig(),
		maxParallelScans:      5,
		validationConcurrency: 4,
		activeByRepo:          make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan executes the full pipeline for one request. The scan row never
// remains IN_PROGRESS after the call returns: any pipeline error fails
// the row and is returned to the caller.
func (s *ScanService) Scan(ctx context.Context, req scan.Request) (*ScanResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := s.acquireRepoSlot(req.RepositoryID); err != nil {
		metrics.ScanRejectionsTotal.Inc()
		return nil, err
	}
	defer s.releaseRepoSlot(req.RepositoryID)

	sc, err := scan.New(req)
	if err != nil {
		return nil, err
	}
	if err := sc.Start(); err != nil {
		return nil, err
	}
	if err := s.scanRepo.Create(ctx, sc); err != nil {
		return nil, fmt.Errorf("failed to create scan: %w", err)
	}

	s.logger.Info("scan started",
		"scan_id", sc.ID().String(),
		"repository_id", req.RepositoryID.String(),
		"kind", string(req.Kind),
		"files", len(req.Files))

	result, err := s.execute(ctx, sc, req)
	if err != nil {
		s.failScan(ctx, sc, err)
		metrics.ScansTotal.WithLabelValues(string(scan.StatusFailed), string(req.Kind)).Inc()
		return nil, err
	}

	metrics.ScansTotal.WithLabelValues(string(scan.StatusCompleted), string(req.Kind)).Inc()
	metrics.ScanDuration.WithLabelValues(string(req.Kind)).Observe(result.Duration.Seconds())
	return result, nil
}

// execute runs pipeline steps 3-11 against an IN_PROGRESS scan row.
func (s *ScanService) execute(ctx context.Context, sc *scan.Scan, req scan.Request) (*ScanResult, error) {
	hypotheses, err := s.hypothesisSource.Hypotheses(ctx, req.Files)
	if err != nil {
		return nil, fmt.Errorf("hypothesis generation failed: %w", err)
	}

	exploitUsed := false
	var report *vulnerability.ExploitReport
	if len(hypotheses) > 0 && req.ExploitValidatorEnabled && s.exploitValidator != nil && s.exploitValidator.Enabled() {
		exploitUsed = true
		report = s.exploitValidator.Scan(ctx, req.RepositoryID, req.Files, exploitCategories)
		if report == nil {
			s.logger.Warn("exploit validator unavailable, continuing without it",
				"scan_id", sc.ID().String())
		}
	}

	findings, err := s.validateHypotheses(ctx, sc, req, hypotheses, report)
	if err != nil {
		return nil, err
	}

	if len(findings) > 0 {
		if err := s.findingRepo.CreateBatch(ctx, findings); err != nil {
			return nil, fmt.Errorf("failed to persist findings: %w", err)
		}
		for _, f := range findings {
			metrics.FindingsConfirmedTotal.WithLabelValues(
				string(f.Severity()), string(f.ValidationSource())).Inc()
		}
	}

	counts := scan.CountSeverities(findings)
	secureCoding := scan.SecureCodingScore(findings, s.scoring)
	risk := scan.RiskScore(findings, s.scoring)

	if err := sc.Complete(counts, secureCoding, risk, exploitUsed); err != nil {
		return nil, err
	}
	if err := s.scanRepo.Update(ctx, sc); err != nil {
		return nil, fmt.Errorf("failed to complete scan: %w", err)
	}

	result := &ScanResult{
		ScanID:               sc.ID(),
		RepositoryID:         sc.RepositoryID(),
		Status:               sc.Status(),
		Counts:               counts,
		SecureCodingScore:    secureCoding,
		RiskScore:            risk,
		ShouldBlockMerge:     scan.ShouldBlockMerge(counts, secureCoding, s.scoring),
		ExploitValidatorUsed: exploitUsed,
		Findings:             findings,
		Duration:             sc.Duration(),
	}

	s.logger.Info("scan completed",
		"scan_id", sc.ID().String(),
		"findings", len(findings),
		"secure_coding_score", secureCoding,
		"risk_score", risk,
		"block_merge", result.ShouldBlockMerge,
		"duration", result.Duration)

	return result, nil
}

// validateHypotheses fans out AI validation over the hypotheses with a
// bounded semaphore, fuses each verdict with its matching exploit result,
// and returns the surviving findings. Persisted ordering is not
// significant; findings are identified by ID.
func (s *ScanService) validateHypotheses(
	ctx context.Context,
	sc *scan.Scan,
	req scan.Request,
	hypotheses []vulnerability.Hypothesis,
	report *vulnerability.ExploitReport,
) ([]*vulnerability.Finding, error) {
	if len(hypotheses) == 0 {
		return nil, nil
	}

	sem := semaphore.NewWeighted(int64(s.validationConcurrency))
	results := make([]*vulnerability.Finding, len(hypotheses))
	var wg sync.WaitGroup
	var firstErr error
	var errOnce sync.Once

	for i, hyp := range hypotheses {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("validation canceled: %w", err)
		}
		wg.Add(1)
		go func(i int, hyp vulnerability.Hypothesis) {
			defer wg.Done()
			defer sem.Release(1)

			exploit := report.Match(hyp)
			verdict := s.aiValidator.Validate(ctx, hyp, exploit)

			fused, ok := vulnerability.Fuse(verdict, exploit, s.fusion)
			if !ok {
				return
			}
			finding, err := vulnerability.NewFinding(sc.ID(), req.RepositoryID, hyp, verdict, exploit, fused)
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				return
			}
			results[i] = finding
		}(i, hyp)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	findings := make([]*vulnerability.Finding, 0, len(results))
	for _, f := range results {
		if f != nil {
			findings = append(findings, f)
		}
	}
	return findings, nil
}

// failScan moves the row to FAILED. A failed status write is logged, not
// propagated, so the pipeline error reaches the caller untouched.
func (s *ScanService) failScan(ctx context.Context, sc *scan.Scan, cause error) {
	s.logger.Error("scan failed",
		"scan_id", sc.ID().String(),
		"error", cause)

	if err := sc.Fail(cause.Error()); err != nil {
		s.logger.Error("could not mark scan failed", "scan_id", sc.ID().String(), "error", err)
		return
	}
	if err := s.scanRepo.Update(ctx, sc); err != nil {
		s.logger.Error("could not persist failed scan", "scan_id", sc.ID().String(), "error", err)
	}
}

func (s *ScanService) acquireRepoSlot(repositoryID shared.ID) error {
	key := repositoryID.String()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeByRepo[key] >= s.maxParallelScans {
		return ErrTooManyParallelScans
	}
	s.activeByRepo[key]++
	return nil
}

func (s *ScanService) releaseRepoSlot(repositoryID shared.ID) {
	key := repositoryID.String()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeByRepo[key]--
	if s.activeByRepo[key] <= 0 {
		delete(s.activeByRepo, key)
	}
}

// GetScan returns a scan with its findings.
func (s *ScanService) GetScan(ctx context.Context, id shared.ID) (*scan.Scan, []*vulnerability.Finding, error) {
	sc, err := s.scanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	findings, err := s.findingRepo.ListByScan(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return sc, findings, nil
}

// ListRepositoryScans returns the most recent scans for a repository.
func (s *ScanService) ListRepositoryScans(ctx context.Context, repositoryID shared.ID, limit int) ([]*scan.Scan, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.scanRepo.ListByRepository(ctx, repositoryID, limit)
}

// ListRepositoryFindings returns open and confirmed findings for a
// repository, ordered by severity then descending confidence.
func (s *ScanService) ListRepositoryFindings(ctx context.Context, repositoryID shared.ID) ([]*vulnerability.Finding, error) {
	return s.findingRepo.ListActionableByRepository(ctx, repositoryID)
}

// DismissFinding transitions a finding to DISMISSED, recording the actor.
// Dismissing an already-dismissed finding succeeds silently.
func (s *ScanService) DismissFinding(ctx context.Context, findingID, actorID shared.ID) (*vulnerability.Finding, error) {
	finding, err := s.findingRepo.GetByID(ctx, findingID)
	if err != nil {
		return nil, err
	}
	if finding.Status() == vulnerability.StatusDismissed {
		return finding, nil
	}
	if err := finding.Dismiss(actorID); err != nil {
		return nil, err
	}
	if err := s.findingRepo.Update(ctx, finding); err != nil {
		return nil, fmt.Errorf("failed to dismiss finding: %w", err)
	}
	return finding, nil
}
