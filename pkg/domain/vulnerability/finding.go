package vulnerability

import (
	"fmt"
	"time"

	"github.com/codegate/api/pkg/domain/shared"
)

// Finding represents a confirmed vulnerability produced by confidence
// fusion during a scan. Findings are created CONFIRMED and may only
// transition to DISMISSED, never back.
type Finding struct {
	id           shared.ID
	scanID       shared.ID
	repositoryID shared.ID

	filePath   string
	startLine  int
	endLine    int
	snippet    string
	vulnType   string
	severity   Severity
	confidence float64

	source   string
	sink     string
	dataFlow string

	aiExploitable     bool
	aiSeverity        Severity
	aiReasoning       string
	aiPatchSuggestion string
	aiConfidence      float64

	exploitConfirmed  *bool
	exploitDetails    string
	exploitConfidence *float64

	validationSource ValidationSource
	status           Status

	dismissedBy *shared.ID
	dismissedAt *time.Time

	createdAt time.Time
	updatedAt time.Time
}

// NewFinding creates a confirmed finding from a hypothesis and its fused
// verdict. exploit is nil when the exploit validator did not participate
// or produced no matching result.
func NewFinding(
	scanID shared.ID,
	repositoryID shared.ID,
	hyp Hypothesis,
	ai AIVerdict,
	exploit *ExploitResult,
	fused FusedVerdict,
) (*Finding, error) {
	if scanID.IsZero() {
		return nil, fmt.Errorf("%w: scan ID is required", shared.ErrValidation)
	}
	if repositoryID.IsZero() {
		return nil, fmt.Errorf("%w: repository ID is required", shared.ErrValidation)
	}
	if hyp.FilePath == "" {
		return nil, fmt.Errorf("%w: file path is required", shared.ErrValidation)
	}
	if !fused.Source.IsValid() {
		return nil, fmt.Errorf("%w: invalid validation source %q", shared.ErrValidation, fused.Source)
	}

	now := time.Now().UTC()
	f := &Finding{
		id:           shared.NewID(),
		scanID:       scanID,
		repositoryID: repositoryID,

		filePath:   hyp.FilePath,
		startLine:  hyp.StartLine,
		endLine:    hyp.EndLine,
		snippet:    hyp.Snippet,
		vulnType:   hyp.VulnType,
		severity:   NormalizeSeverity(string(fused.Severity)),
		confidence: fused.Confidence,

		source:   hyp.Source,
		sink:     hyp.Sink,
		dataFlow: hyp.DataFlow,

		aiExploitable:     ai.Exploitable,
		aiSeverity:        ai.Severity,
		aiReasoning:       ai.Reasoning,
		aiPatchSuggestion: ai.PatchSuggestion,
		aiConfidence:      ai.Confidence,

		validationSource: fused.Source,
		status:           StatusConfirmed,

		createdAt: now,
		updatedAt: now,
	}

	if exploit != nil {
		confirmed := exploit.Confirmed
		confidence := exploit.Confidence
		f.exploitConfirmed = &confirmed
		f.exploitDetails = exploit.Details
		f.exploitConfidence = &confidence
	}

	return f, nil
}

// Reconstitute recreates a Finding from persistence.
func Reconstitute(
	id shared.ID,
	scanID shared.ID,
	repositoryID shared.ID,
	filePath string,
	startLine, endLine int,
	snippet string,
	vulnType string,
	severity Severity,
	confidence float64,
	source, sink, dataFlow string,
	aiExploitable bool,
	aiSeverity Severity,
	aiReasoning, aiPatchSuggestion string,
	aiConfidence float64,
	exploitConfirmed *bool,
	exploitDetails string,
	exploitConfidence *float64,
	validationSource ValidationSource,
	status Status,
	dismissedBy *shared.ID,
	dismissedAt *time.Time,
	createdAt, updatedAt time.Time,
) *Finding {
	return &Finding{
		id:                id,
		scanID:            scanID,
		repositoryID:      repositoryID,
		filePath:          filePath,
		startLine:         startLine,
		endLine:           endLine,
		snippet:           snippet,
		vulnType:          vulnType,
		severity:          severity,
		confidence:        confidence,
		source:            source,
		sink:              sink,
		dataFlow:          dataFlow,
		aiExploitable:     aiExploitable,
		aiSeverity:        aiSeverity,
		aiReasoning:       aiReasoning,
		aiPatchSuggestion: aiPatchSuggestion,
		aiConfidence:      aiConfidence,
		exploitConfirmed:  exploitConfirmed,
		exploitDetails:    exploitDetails,
		exploitConfidence: exploitConfidence,
		validationSource:  validationSource,
		status:            status,
		dismissedBy:       dismissedBy,
		dismissedAt:       dismissedAt,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// Dismiss transitions the finding to DISMISSED, recording the actor.
// Dismissing an already-dismissed finding is a silent no-op; a dismissed
// finding is never reopened.
func (f *Finding) Dismiss(actorID shared.ID) error {
	if actorID.IsZero() {
		return fmt.Errorf("%w: actor ID is required", shared.ErrValidation)
	}
	if f.status == StatusDismissed {
		return nil
	}
	now := time.Now().UTC()
	f.status = StatusDismissed
	f.dismissedBy = &actorID
	f.dismissedAt = &now
	f.updatedAt = now
	return nil
}

// ID returns the finding ID.
func (f *Finding) ID() shared.ID { return f.id }

// ScanID returns the owning scan ID.
func (f *Finding) ScanID() shared.ID { return f.scanID }

// RepositoryID returns the repository ID.
func (f *Finding) RepositoryID() shared.ID { return f.repositoryID }

// FilePath returns the file path of the finding.
func (f *Finding) FilePath() string { return f.filePath }

// StartLine returns the first line of the affected range.
func (f *Finding) StartLine() int { return f.startLine }

// EndLine returns the last line of the affected range.
func (f *Finding) EndLine() int { return f.endLine }

// Snippet returns the offending code snippet.
func (f *Finding) Snippet() string { return f.snippet }

// VulnType returns the vulnerability type tag.
func (f *Finding) VulnType() string { return f.vulnType }

// Severity returns the final fused severity.
func (f *Finding) Severity() Severity { return f.severity }

// Confidence returns the fused confidence in [0,1].
func (f *Finding) Confidence() float64 { return f.confidence }

// Source returns the taint source expression.
func (f *Finding) Source() string { return f.source }

// Sink returns the taint sink expression.
func (f *Finding) Sink() string { return f.sink }

// DataFlow returns the source-to-sink narrative.
func (f *Finding) DataFlow() string { return f.dataFlow }

// AIExploitable returns the AI validator's exploitability flag.
func (f *Finding) AIExploitable() bool { return f.aiExploitable }

// AISeverity returns the AI validator's severity rating.
func (f *Finding) AISeverity() Severity { return f.aiSeverity }

// AIReasoning returns the AI validator's reasoning.
func (f *Finding) AIReasoning() string { return f.aiReasoning }

// AIPatchSuggestion returns the AI validator's patch suggestion.
func (f *Finding) AIPatchSuggestion() string { return f.aiPatchSuggestion }

// AIConfidence returns the AI validator's confidence.
func (f *Finding) AIConfidence() float64 { return f.aiConfidence }

// ExploitConfirmed returns the exploit validator's confirmation flag,
// nil when the validator did not participate.
func (f *Finding) ExploitConfirmed() *bool { return f.exploitConfirmed }

// ExploitDetails returns the exploit validator's details.
func (f *Finding) ExploitDetails() string { return f.exploitDetails }

// ExploitConfidence returns the exploit validator's confidence, nil when
// the validator did not participate.
func (f *Finding) ExploitConfidence() *float64 { return f.exploitConfidence }

// ValidationSource returns which validators confirmed the finding.
func (f *Finding) ValidationSource() ValidationSource { return f.validationSource }

// Status returns the lifecycle status.
func (f *Finding) Status() Status { return f.status }

// DismissedBy returns the dismissing actor, nil if not dismissed.
func (f *Finding) DismissedBy() *shared.ID { return f.dismissedBy }

// DismissedAt returns the dismissal time, nil if not dismissed.
func (f *Finding) DismissedAt() *time.Time { return f.dismissedAt }

// CreatedAt returns the creation timestamp.
func (f *Finding) CreatedAt() time.Time { return f.createdAt }

// UpdatedAt returns the last update timestamp.
func (f *Finding) UpdatedAt() time.Time { return f.updatedAt }
