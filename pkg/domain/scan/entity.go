package scan

import (
	"fmt"
	"time"

	"github.com/codegate/api/pkg/domain/shared"
)

// Scan represents one scan execution. A scan row has exactly one writer
// for its lifetime, the orchestrator that created it, and always ends in
// a terminal state.
type Scan struct {
	id           shared.ID
	repositoryID shared.ID
	actorID      shared.ID
	kind         Kind
	status       Status
	commitSHA    string
	branch       string

	counts            SeverityCounts
	secureCodingScore float64
	riskScore         float64

	exploitValidatorUsed bool
	errorMessage         string

	startedAt   *time.Time
	completedAt *time.Time
	duration    time.Duration

	createdAt time.Time
	updatedAt time.Time
}

// New creates a queued scan for the given request.
func New(req Request) (*Scan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Scan{
		id:           shared.NewID(),
		repositoryID: req.RepositoryID,
		actorID:      req.ActorID,
		kind:         req.Kind,
		status:       StatusQueued,
		commitSHA:    req.CommitSHA,
		branch:       req.Branch,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstitute recreates a Scan from persistence.
func Reconstitute(
	id shared.ID,
	repositoryID shared.ID,
	actorID shared.ID,
	kind Kind,
	status Status,
	commitSHA, branch string,
	counts SeverityCounts,
	secureCodingScore, riskScore float64,
	exploitValidatorUsed bool,
	errorMessage string,
	startedAt, completedAt *time.Time,
	duration time.Duration,
	createdAt, updatedAt time.Time,
) *Scan {
	return &Scan{
		id:                   id,
		repositoryID:         repositoryID,
		actorID:              actorID,
		kind:                 kind,
		status:               status,
		commitSHA:            commitSHA,
		branch:               branch,
		counts:               counts,
		secureCodingScore:    secureCodingScore,
		riskScore:            riskScore,
		exploitValidatorUsed: exploitValidatorUsed,
		errorMessage:         errorMessage,
		startedAt:            startedAt,
		completedAt:          completedAt,
		duration:             duration,
		createdAt:            createdAt,
		updatedAt:            updatedAt,
	}
}

// Start transitions the scan to IN_PROGRESS.
func (s *Scan) Start() error {
	if s.status != StatusQueued {
		return fmt.Errorf("%w: cannot start scan in status %q", shared.ErrConflict, s.status)
	}
	now := time.Now().UTC()
	s.status = StatusInProgress
	s.startedAt = &now
	s.updatedAt = now
	return nil
}

// Complete transitions the scan to COMPLETED with its final counts and
// scores.
func (s *Scan) Complete(counts SeverityCounts, secureCodingScore, riskScore float64, exploitValidatorUsed bool) error {
	if s.status != StatusInProgress {
		return fmt.Errorf("%w: cannot complete scan in status %q", shared.ErrConflict, s.status)
	}
	now := time.Now().UTC()
	s.status = StatusCompleted
	s.counts = counts
	s.secureCodingScore = secureCodingScore
	s.riskScore = riskScore
	s.exploitValidatorUsed = exploitValidatorUsed
	s.completedAt = &now
	if s.startedAt != nil {
		s.duration = now.Sub(*s.startedAt)
	}
	s.updatedAt = now
	return nil
}

// Fail transitions the scan to FAILED, recording the error message.
func (s *Scan) Fail(message string) error {
	if s.status.IsTerminal() {
		return fmt.Errorf("%w: cannot fail scan in status %q", shared.ErrConflict, s.status)
	}
	now := time.Now().UTC()
	s.status = StatusFailed
	s.errorMessage = message
	s.completedAt = &now
	if s.startedAt != nil {
		s.duration = now.Sub(*s.startedAt)
	}
	s.updatedAt = now
	return nil
}

// ID returns the scan ID.
func (s *Scan) ID() shared.ID { return s.id }

// RepositoryID returns the repository ID.
func (s *Scan) RepositoryID() shared.ID { return s.repositoryID }

// ActorID returns the triggering actor ID.
func (s *Scan) ActorID() shared.ID { return s.actorID }

// Kind returns the scan kind.
func (s *Scan) Kind() Kind { return s.kind }

// Status returns the current status.
func (s *Scan) Status() Status { return s.status }

// CommitSHA returns the scanned commit, if any.
func (s *Scan) CommitSHA() string { return s.commitSHA }

// Branch returns the scanned branch, if any.
func (s *Scan) Branch() string { return s.branch }

// Counts returns the per-severity finding counts.
func (s *Scan) Counts() SeverityCounts { return s.counts }

// SecureCodingScore returns the secure-coding score, 0-100, higher is
// better.
func (s *Scan) SecureCodingScore() float64 { return s.secureCodingScore }

// RiskScore returns the risk score, 0-100, higher is worse.
func (s *Scan) RiskScore() float64 { return s.riskScore }

// ExploitValidatorUsed reports whether the exploit validator participated.
func (s *Scan) ExploitValidatorUsed() bool { return s.exploitValidatorUsed }

// ErrorMessage returns the failure message, empty unless FAILED.
func (s *Scan) ErrorMessage() string { return s.errorMessage }

// StartedAt returns when execution began, nil while queued.
func (s *Scan) StartedAt() *time.Time { return s.startedAt }

// CompletedAt returns when the scan reached a terminal state.
func (s *Scan) CompletedAt() *time.Time { return s.completedAt }

// Duration returns the execution duration, zero until terminal.
func (s *Scan) Duration() time.Duration { return s.duration }

// CreatedAt returns the creation timestamp.
func (s *Scan) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns the last update timestamp.
func (s *Scan) UpdatedAt() time.Time { return s.updatedAt }
