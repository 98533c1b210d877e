package vulnerability

// Hypothesis is a candidate vulnerability emitted by static analysis.
// It is a pure value object: input to validation, never persisted.
type Hypothesis struct {
	FilePath  string
	StartLine int
	EndLine   int
	Snippet   string
	VulnType  string
	Pattern   string
	Source    string
	Sink      string
	DataFlow  string
}

// AIVerdict is the structured exploitability verdict returned by the AI
// validator. A safe default verdict has Exploitable=false, SeverityInfo
// and zero confidence.
type AIVerdict struct {
	Exploitable     bool
	Severity        Severity
	Reasoning       string
	PatchSuggestion string
	Confidence      float64
}

// SafeDefaultVerdict returns the verdict used when the AI validator call
// or response parsing fails. Reason describes the failure.
func SafeDefaultVerdict(reason string) AIVerdict {
	return AIVerdict{
		Exploitable: false,
		Severity:    SeverityInfo,
		Reasoning:   reason,
		Confidence:  0,
	}
}

// ExploitFinding is a single finding reported by the exploit-validation
// service for one run.
type ExploitFinding struct {
	Category   string
	FilePath   string
	Line       int
	Severity   Severity
	Confidence float64
	Details    string
}

// ExploitResult is the exploit validator's verdict for one matched finding.
// Severity carries the validator's own rating, used when the AI verdict
// does not confirm.
type ExploitResult struct {
	Confirmed  bool
	Details    string
	Severity   Severity
	Confidence float64
}

// ExploitReport is the exploit validator's output for one scan run. A
// nil report means the validator did not participate or was unavailable.
type ExploitReport struct {
	Findings []ExploitFinding
}

// Match returns the validator result corresponding to the hypothesis, or
// nil when no finding correlates.
func (r *ExploitReport) Match(hyp Hypothesis) *ExploitResult {
	if r == nil {
		return nil
	}
	for _, f := range r.Findings {
		if f.Matches(hyp) {
			return &ExploitResult{
				Confirmed:  true,
				Details:    f.Details,
				Severity:   NormalizeSeverity(string(f.Severity)),
				Confidence: f.Confidence,
			}
		}
	}
	return nil
}

// MatchLineTolerance is the line window used to correlate an exploit
// finding with a hypothesis in the same file.
const MatchLineTolerance = 5

// Matches reports whether the exploit finding corresponds to the
// hypothesis: same file path and line within the tolerance window.
func (f ExploitFinding) Matches(hyp Hypothesis) bool {
	if f.FilePath != hyp.FilePath {
		return false
	}
	lo := hyp.StartLine - MatchLineTolerance
	hi := hyp.EndLine + MatchLineTolerance
	return f.Line >= lo && f.Line <= hi
}
