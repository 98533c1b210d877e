package scan

import (
	"testing"

	"github.com/codegate/api/pkg/domain/shared"
	"github.com/codegate/api/pkg/domain/vulnerability"
)

func mkFinding(t *testing.T, severity vulnerability.Severity, confidence float64) *vulnerability.Finding {
	t.Helper()
	f, err := vulnerability.NewFinding(
		shared.NewID(),
		shared.NewID(),
		vulnerability.Hypothesis{FilePath: "src/app.js", StartLine: 1, EndLine: 2},
		vulnerability.AIVerdict{Exploitable: true, Severity: severity, Confidence: confidence},
		nil,
		vulnerability.FusedVerdict{Confidence: confidence, Source: vulnerability.ValidationSourceCSS, Severity: severity},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return f
}

func TestSecureCodingScore(t *testing.T) {
	cfg := DefaultScoreConfig()

	t.Run("no findings is a perfect score", func(t *testing.T) {
		if got := SecureCodingScore(nil, cfg); got != 100 {
			t.Errorf("expected 100, got %v", got)
		}
	})

	t.Run("deductions per severity", func(t *testing.T) {
		findings := []*vulnerability.Finding{
			mkFinding(t, vulnerability.SeverityCritical, 0.9),
			mkFinding(t, vulnerability.SeverityHigh, 0.8),
			mkFinding(t, vulnerability.SeverityMedium, 0.7),
			mkFinding(t, vulnerability.SeverityLow, 0.6),
		}
		// 100 - 25 - 15 - 8 - 3
		if got := SecureCodingScore(findings, cfg); got != 49 {
			t.Errorf("expected 49, got %v", got)
		}
	})

	t.Run("info findings deduct nothing", func(t *testing.T) {
		findings := []*vulnerability.Finding{
			mkFinding(t, vulnerability.SeverityInfo, 0.9),
			mkFinding(t, vulnerability.SeverityInfo, 0.9),
		}
		if got := SecureCodingScore(findings, cfg); got != 100 {
			t.Errorf("expected 100, got %v", got)
		}
	})

	t.Run("clamped at zero", func(t *testing.T) {
		var findings []*vulnerability.Finding
		for i := 0; i < 5; i++ {
			findings = append(findings, mkFinding(t, vulnerability.SeverityCritical, 1.0))
		}
		if got := SecureCodingScore(findings, cfg); got != 0 {
			t.Errorf("expected 0, got %v", got)
		}
	})
}

func TestRiskScore(t *testing.T) {
	cfg := DefaultScoreConfig()

	t.Run("confidence weighted", func(t *testing.T) {
		findings := []*vulnerability.Finding{
			mkFinding(t, vulnerability.SeverityCritical, 0.5), // 30 * 0.5 = 15
			mkFinding(t, vulnerability.SeverityHigh, 1.0),     // 20 * 1.0 = 20
		}
		if got := RiskScore(findings, cfg); got != 35 {
			t.Errorf("expected 35, got %v", got)
		}
	})

	t.Run("capped at 100", func(t *testing.T) {
		var findings []*vulnerability.Finding
		for i := 0; i < 10; i++ {
			findings = append(findings, mkFinding(t, vulnerability.SeverityCritical, 1.0))
		}
		if got := RiskScore(findings, cfg); got != 100 {
			t.Errorf("expected 100, got %v", got)
		}
	})

	t.Run("no findings is zero risk", func(t *testing.T) {
		if got := RiskScore(nil, cfg); got != 0 {
			t.Errorf("expected 0, got %v", got)
		}
	})
}

func TestShouldBlockMerge(t *testing.T) {
	cfg := DefaultScoreConfig()

	tests := []struct {
		name   string
		counts SeverityCounts
		score  float64
		want   bool
	}{
		{"clean scan", SeverityCounts{}, 100, false},
		{"one critical blocks", SeverityCounts{Critical: 1}, 75, true},
		{"score below threshold blocks", SeverityCounts{High: 3}, 55, true},
		{"score at threshold passes", SeverityCounts{High: 2}, 70, false},
		{"high findings alone do not block", SeverityCounts{High: 1}, 85, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldBlockMerge(tt.counts, tt.score, cfg); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCountSeverities(t *testing.T) {
	findings := []*vulnerability.Finding{
		mkFinding(t, vulnerability.SeverityCritical, 0.9),
		mkFinding(t, vulnerability.SeverityHigh, 0.9),
		mkFinding(t, vulnerability.SeverityHigh, 0.9),
		mkFinding(t, vulnerability.SeverityMedium, 0.9),
		mkFinding(t, vulnerability.SeverityInfo, 0.9),
	}

	counts := CountSeverities(findings)

	if counts.Critical != 1 || counts.High != 2 || counts.Medium != 1 || counts.Low != 0 || counts.Info != 1 {
		t.Errorf("unexpected counts: %+v", counts)
	}
	if counts.Total() != 5 {
		t.Errorf("expected total 5, got %d", counts.Total())
	}
}
