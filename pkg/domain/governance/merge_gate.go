package governance

// GateStatus classifies the merge-gate outcome.
type GateStatus string

const (
	GateAllowed GateStatus = "allowed"
	GateDenied  GateStatus = "denied"
)

// GateFinding is the finding summary attached to a merge-gate decision.
type GateFinding struct {
	ID         string  `json:"id"`
	FilePath   string  `json:"file_path"`
	StartLine  int     `json:"start_line"`
	VulnType   string  `json:"vuln_type"`
	Severity   string  `json:"severity"`
	Confidence float64 `json:"confidence"`
}

// GateDecision is the per-scan merge-gate outcome. A denied decision
// always carries a human-readable reason and, where applicable, the
// offending findings.
type GateDecision struct {
	Status          GateStatus    `json:"status"`
	Reason          string        `json:"reason"`
	RequiresReview  bool          `json:"requires_review"`
	Findings        []GateFinding `json:"findings,omitempty"`
	CriticalBlocked bool          `json:"critical_blocked"`
}

// Allowed reports whether the merge may proceed.
func (d GateDecision) Allowed() bool {
	return d.Status == GateAllowed
}
