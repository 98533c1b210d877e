package scan

import (
	"testing"

	"github.com/codegate/api/pkg/domain/shared"
)

func validRequest() Request {
	return Request{
		RepositoryID: shared.NewID(),
		ActorID:      shared.NewID(),
		Kind:         KindFull,
		Files:        []SourceFile{{Path: "main.go", Content: "package main"}},
	}
}

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Request)
		wantErr bool
	}{
		{"valid", func(r *Request) {}, false},
		{"missing repository", func(r *Request) { r.RepositoryID = shared.ID{} }, true},
		{"invalid kind", func(r *Request) { r.Kind = "bogus" }, true},
		{"empty file list", func(r *Request) { r.Files = nil }, true},
		{"file without path", func(r *Request) { r.Files = []SourceFile{{Content: "x"}} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.wantErr && !shared.IsValidation(err) {
				t.Errorf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestScan_Lifecycle(t *testing.T) {
	t.Run("complete path", func(t *testing.T) {
		sc, err := New(validRequest())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sc.Status() != StatusQueued {
			t.Fatalf("expected queued, got %q", sc.Status())
		}

		if err := sc.Start(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sc.Status() != StatusInProgress || sc.StartedAt() == nil {
			t.Error("expected in_progress with start timestamp")
		}

		counts := SeverityCounts{High: 1}
		if err := sc.Complete(counts, 85, 16, true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sc.Status() != StatusCompleted {
			t.Errorf("expected completed, got %q", sc.Status())
		}
		if sc.SecureCodingScore() != 85 || sc.RiskScore() != 16 {
			t.Error("expected scores to be recorded")
		}
		if !sc.ExploitValidatorUsed() {
			t.Error("expected validator participation to be recorded")
		}
		if sc.CompletedAt() == nil {
			t.Error("expected completion timestamp")
		}
	})

	t.Run("fail path", func(t *testing.T) {
		sc, _ := New(validRequest())
		if err := sc.Start(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := sc.Fail("hypothesis generation failed"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sc.Status() != StatusFailed {
			t.Errorf("expected failed, got %q", sc.Status())
		}
		if sc.ErrorMessage() != "hypothesis generation failed" {
			t.Errorf("unexpected error message %q", sc.ErrorMessage())
		}
	})

	t.Run("illegal transitions", func(t *testing.T) {
		sc, _ := New(validRequest())
		if err := sc.Complete(SeverityCounts{}, 100, 0, false); err == nil {
			t.Error("expected error completing a queued scan")
		}

		if err := sc.Start(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := sc.Start(); err == nil {
			t.Error("expected error starting an in-progress scan")
		}

		if err := sc.Complete(SeverityCounts{}, 100, 0, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := sc.Fail("too late"); err == nil {
			t.Error("expected error failing a completed scan")
		}
	})
}

func TestStatus_IsTerminal(t *testing.T) {
	if StatusQueued.IsTerminal() || StatusInProgress.IsTerminal() {
		t.Error("queued and in_progress are not terminal")
	}
	if !StatusCompleted.IsTerminal() || !StatusFailed.IsTerminal() {
		t.Error("completed and failed are terminal")
	}
}
