package scan

import (
	"github.com/codegate/api/pkg/domain/vulnerability"
)

// ScoreConfig holds the severity deductions, risk weights and merge-block
// thresholds. The reference values are heuristics kept in configuration
// and pinned by golden tests.
type ScoreConfig struct {
	Deductions  map[vulnerability.Severity]float64
	RiskWeights map[vulnerability.Severity]float64

	// Merge is blocked when critical count >= CriticalBlockCount or
	// secure-coding score < MinSecureCodingScore.
	CriticalBlockCount   int
	MinSecureCodingScore float64
}

// DefaultScoreConfig returns the reference scoring constants.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		Deductions: map[vulnerability.Severity]float64{
			vulnerability.SeverityCritical: 25,
			vulnerability.SeverityHigh:     15,
			vulnerability.SeverityMedium:   8,
			vulnerability.SeverityLow:      3,
		},
		RiskWeights: map[vulnerability.Severity]float64{
			vulnerability.SeverityCritical: 30,
			vulnerability.SeverityHigh:     20,
			vulnerability.SeverityMedium:   10,
			vulnerability.SeverityLow:      5,
		},
		CriticalBlockCount:   1,
		MinSecureCodingScore: 70,
	}
}

// SeverityCounts tallies findings per severity level.
type SeverityCounts struct {
	Critical int
	High     int
	Medium   int
	Low      int
	Info     int
}

// Total returns the number of counted findings.
func (c SeverityCounts) Total() int {
	return c.Critical + c.High + c.Medium + c.Low + c.Info
}

// Add increments the counter for the given severity.
func (c *SeverityCounts) Add(sev vulnerability.Severity) {
	switch sev {
	case vulnerability.SeverityCritical:
		c.Critical++
	case vulnerability.SeverityHigh:
		c.High++
	case vulnerability.SeverityMedium:
		c.Medium++
	case vulnerability.SeverityLow:
		c.Low++
	default:
		c.Info++
	}
}

// CountSeverities tallies the given findings per severity.
func CountSeverities(findings []*vulnerability.Finding) SeverityCounts {
	var counts SeverityCounts
	for _, f := range findings {
		counts.Add(f.Severity())
	}
	return counts
}

// SecureCodingScore starts at 100 and deducts per finding by severity,
// clamped to [0,100]. Higher is better.
func SecureCodingScore(findings []*vulnerability.Finding, cfg ScoreConfig) float64 {
	score := 100.0
	for _, f := range findings {
		score -= cfg.Deductions[f.Severity()]
	}
	return clampScore(score)
}

// RiskScore is the confidence-weighted severity sum, capped at 100, not
// normalized. Higher is worse.
func RiskScore(findings []*vulnerability.Finding, cfg ScoreConfig) float64 {
	score := 0.0
	for _, f := range findings {
		score += cfg.RiskWeights[f.Severity()] * f.Confidence()
	}
	return clampScore(score)
}

// ShouldBlockMerge reports whether the scan outcome blocks merging.
func ShouldBlockMerge(counts SeverityCounts, secureCodingScore float64, cfg ScoreConfig) bool {
	return counts.Critical >= cfg.CriticalBlockCount || secureCodingScore < cfg.MinSecureCodingScore
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
