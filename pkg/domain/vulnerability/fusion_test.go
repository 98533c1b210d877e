package vulnerability

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFuse_GoldenCases(t *testing.T) {
	cfg := DefaultFusionConfig()

	tests := []struct {
		name           string
		ai             AIVerdict
		exploit        *ExploitResult
		wantOK         bool
		wantConfidence float64
		wantSource     ValidationSource
		wantSeverity   Severity
	}{
		{
			name:           "both confirm, boosted average capped at 1",
			ai:             AIVerdict{Exploitable: true, Confidence: 0.9, Severity: SeverityCritical},
			exploit:        &ExploitResult{Confirmed: true, Confidence: 0.8, Severity: SeverityHigh},
			wantOK:         true,
			wantConfidence: 1.0, // (0.9+0.8)/2 + 0.15
			wantSource:     ValidationSourceBoth,
			wantSeverity:   SeverityCritical,
		},
		{
			name:           "both confirm, below cap",
			ai:             AIVerdict{Exploitable: true, Confidence: 0.6, Severity: SeverityHigh},
			exploit:        &ExploitResult{Confirmed: true, Confidence: 0.4, Severity: SeverityMedium},
			wantOK:         true,
			wantConfidence: 0.65, // (0.6+0.4)/2 + 0.15
			wantSource:     ValidationSourceBoth,
			wantSeverity:   SeverityHigh,
		},
		{
			name:           "AI only, discounted",
			ai:             AIVerdict{Exploitable: true, Confidence: 0.9, Severity: SeverityHigh},
			exploit:        nil,
			wantOK:         true,
			wantConfidence: 0.72, // 0.9 * 0.80
			wantSource:     ValidationSourceCSS,
			wantSeverity:   SeverityHigh,
		},
		{
			name:           "AI only with unconfirmed exploit result",
			ai:             AIVerdict{Exploitable: true, Confidence: 0.5, Severity: SeverityMedium},
			exploit:        &ExploitResult{Confirmed: false, Confidence: 0.9},
			wantOK:         true,
			wantConfidence: 0.4, // 0.5 * 0.80
			wantSource:     ValidationSourceCSS,
			wantSeverity:   SeverityMedium,
		},
		{
			name:           "exploit only, takes exploit severity",
			ai:             AIVerdict{Exploitable: false, Severity: SeverityInfo},
			exploit:        &ExploitResult{Confirmed: true, Confidence: 0.8, Severity: SeverityHigh},
			wantOK:         true,
			wantConfidence: 0.56, // 0.8 * 0.70
			wantSource:     ValidationSourceShannon,
			wantSeverity:   SeverityHigh,
		},
		{
			name:    "neither confirms, discarded",
			ai:      AIVerdict{Exploitable: false, Confidence: 0.9},
			exploit: nil,
			wantOK:  false,
		},
		{
			name:    "neither confirms despite exploit result present",
			ai:      AIVerdict{Exploitable: false},
			exploit: &ExploitResult{Confirmed: false, Confidence: 1.0},
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fused, ok := Fuse(tt.ai, tt.exploit, cfg)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if !ok {
				return
			}
			if !almostEqual(fused.Confidence, tt.wantConfidence) {
				t.Errorf("expected confidence %v, got %v", tt.wantConfidence, fused.Confidence)
			}
			if fused.Source != tt.wantSource {
				t.Errorf("expected source %q, got %q", tt.wantSource, fused.Source)
			}
			if fused.Severity != tt.wantSeverity {
				t.Errorf("expected severity %q, got %q", tt.wantSeverity, fused.Severity)
			}
		})
	}
}

func TestFuse_CustomConfig(t *testing.T) {
	cfg := FusionConfig{AgreementBoost: 0.0, AIOnlyMultiplier: 0.5, ShannonOnlyMultiplier: 0.5}

	fused, ok := Fuse(AIVerdict{Exploitable: true, Confidence: 0.8, Severity: SeverityLow}, nil, cfg)
	if !ok {
		t.Fatal("expected verdict to survive")
	}
	if !almostEqual(fused.Confidence, 0.4) {
		t.Errorf("expected confidence 0.4, got %v", fused.Confidence)
	}
}
