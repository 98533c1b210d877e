package vulnerability

// FusionConfig holds the confidence-fusion constants. The reference values
// are tuned heuristics, not a derived model, so they live in configuration
// and are pinned by golden tests.
type FusionConfig struct {
	AgreementBoost        float64
	AIOnlyMultiplier      float64
	ShannonOnlyMultiplier float64
}

// DefaultFusionConfig returns the reference fusion constants.
func DefaultFusionConfig() FusionConfig {
	return FusionConfig{
		AgreementBoost:        0.15,
		AIOnlyMultiplier:      0.80,
		ShannonOnlyMultiplier: 0.70,
	}
}

// FusedVerdict is the outcome of combining the AI and exploit-validator
// verdicts for one hypothesis.
type FusedVerdict struct {
	Confidence float64
	Source     ValidationSource
	Severity   Severity
}

// Fuse combines the AI verdict and the (possibly absent) exploit-validator
// result for one hypothesis. exploit is nil when the validator did not
// participate or produced no matching finding.
//
// Both confirm: confidence = min(1, avg + boost). AI only: ai * aiMult.
// Exploit only: ev * evMult. Neither: discarded (ok=false).
func Fuse(ai AIVerdict, exploit *ExploitResult, cfg FusionConfig) (FusedVerdict, bool) {
	exploitConfirmed := exploit != nil && exploit.Confirmed

	switch {
	case ai.Exploitable && exploitConfirmed:
		avg := (ai.Confidence + exploit.Confidence) / 2
		return FusedVerdict{
			Confidence: clampUnit(avg + cfg.AgreementBoost),
			Source:     ValidationSourceBoth,
			Severity:   ai.Severity,
		}, true
	case ai.Exploitable:
		return FusedVerdict{
			Confidence: clampUnit(ai.Confidence * cfg.AIOnlyMultiplier),
			Source:     ValidationSourceCSS,
			Severity:   ai.Severity,
		}, true
	case exploitConfirmed:
		return FusedVerdict{
			Confidence: clampUnit(exploit.Confidence * cfg.ShannonOnlyMultiplier),
			Source:     ValidationSourceShannon,
			Severity:   exploit.Severity,
		}, true
	default:
		return FusedVerdict{}, false
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
