package vulnerability

import (
	"testing"

	"github.com/codegate/api/pkg/domain/shared"
)

func newTestFinding(t *testing.T) *Finding {
	t.Helper()
	f, err := NewFinding(
		shared.NewID(),
		shared.NewID(),
		Hypothesis{FilePath: "src/db.js", StartLine: 10, EndLine: 12, VulnType: "sql_injection"},
		AIVerdict{Exploitable: true, Severity: SeverityHigh, Confidence: 0.8},
		nil,
		FusedVerdict{Confidence: 0.64, Source: ValidationSourceCSS, Severity: SeverityHigh},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return f
}

func TestNewFinding(t *testing.T) {
	t.Run("created confirmed", func(t *testing.T) {
		f := newTestFinding(t)
		if f.Status() != StatusConfirmed {
			t.Errorf("expected confirmed status, got %q", f.Status())
		}
		if f.ID().IsZero() {
			t.Error("expected a generated ID")
		}
		if f.ExploitConfirmed() != nil {
			t.Error("expected nil exploit confirmation without validator participation")
		}
	})

	t.Run("exploit result captured", func(t *testing.T) {
		f, err := NewFinding(
			shared.NewID(), shared.NewID(),
			Hypothesis{FilePath: "src/db.js"},
			AIVerdict{Exploitable: true, Severity: SeverityHigh, Confidence: 0.9},
			&ExploitResult{Confirmed: true, Confidence: 0.7, Details: "verified"},
			FusedVerdict{Confidence: 0.95, Source: ValidationSourceBoth, Severity: SeverityHigh},
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.ExploitConfirmed() == nil || !*f.ExploitConfirmed() {
			t.Error("expected exploit confirmation to be recorded")
		}
		if f.ExploitConfidence() == nil || *f.ExploitConfidence() != 0.7 {
			t.Error("expected exploit confidence to be recorded")
		}
	})

	t.Run("validation failures", func(t *testing.T) {
		hyp := Hypothesis{FilePath: "a.go"}
		fused := FusedVerdict{Source: ValidationSourceCSS}

		if _, err := NewFinding(shared.ID{}, shared.NewID(), hyp, AIVerdict{}, nil, fused); err == nil {
			t.Error("expected error for zero scan ID")
		}
		if _, err := NewFinding(shared.NewID(), shared.ID{}, hyp, AIVerdict{}, nil, fused); err == nil {
			t.Error("expected error for zero repository ID")
		}
		if _, err := NewFinding(shared.NewID(), shared.NewID(), Hypothesis{}, AIVerdict{}, nil, fused); err == nil {
			t.Error("expected error for empty file path")
		}
		if _, err := NewFinding(shared.NewID(), shared.NewID(), hyp, AIVerdict{}, nil, FusedVerdict{Source: "bogus"}); err == nil {
			t.Error("expected error for invalid validation source")
		}
	})
}

func TestFinding_Dismiss(t *testing.T) {
	t.Run("records actor and timestamp", func(t *testing.T) {
		f := newTestFinding(t)
		actor := shared.NewID()

		if err := f.Dismiss(actor); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.Status() != StatusDismissed {
			t.Errorf("expected dismissed status, got %q", f.Status())
		}
		if f.DismissedBy() == nil || !f.DismissedBy().Equals(actor) {
			t.Error("expected dismissing actor to be recorded")
		}
		if f.DismissedAt() == nil {
			t.Error("expected dismissal timestamp")
		}
	})

	t.Run("already dismissed is a no-op", func(t *testing.T) {
		f := newTestFinding(t)
		first := shared.NewID()
		if err := f.Dismiss(first); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if err := f.Dismiss(shared.NewID()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !f.DismissedBy().Equals(first) {
			t.Error("expected original dismissing actor to be preserved")
		}
	})

	t.Run("zero actor rejected", func(t *testing.T) {
		f := newTestFinding(t)
		if err := f.Dismiss(shared.ID{}); err == nil {
			t.Error("expected error for zero actor ID")
		}
	})
}
