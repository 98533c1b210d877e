package vulnerability

import "testing"

func TestExploitFinding_Matches(t *testing.T) {
	hyp := Hypothesis{FilePath: "src/db.js", StartLine: 20, EndLine: 25}

	tests := []struct {
		name    string
		finding ExploitFinding
		want    bool
	}{
		{"inside range", ExploitFinding{FilePath: "src/db.js", Line: 22}, true},
		{"at lower tolerance edge", ExploitFinding{FilePath: "src/db.js", Line: 15}, true},
		{"at upper tolerance edge", ExploitFinding{FilePath: "src/db.js", Line: 30}, true},
		{"below tolerance", ExploitFinding{FilePath: "src/db.js", Line: 14}, false},
		{"above tolerance", ExploitFinding{FilePath: "src/db.js", Line: 31}, false},
		{"different file", ExploitFinding{FilePath: "src/other.js", Line: 22}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.finding.Matches(hyp); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestExploitReport_Match(t *testing.T) {
	hyp := Hypothesis{FilePath: "app.py", StartLine: 10, EndLine: 12}

	t.Run("nil report", func(t *testing.T) {
		var report *ExploitReport
		if report.Match(hyp) != nil {
			t.Error("expected nil result from nil report")
		}
	})

	t.Run("no correlated finding", func(t *testing.T) {
		report := &ExploitReport{Findings: []ExploitFinding{
			{FilePath: "app.py", Line: 100},
		}}
		if report.Match(hyp) != nil {
			t.Error("expected no match")
		}
	})

	t.Run("correlated finding is confirmed and normalized", func(t *testing.T) {
		report := &ExploitReport{Findings: []ExploitFinding{
			{FilePath: "app.py", Line: 11, Severity: "HIGH", Confidence: 0.85, Details: "exploit chain verified"},
		}}
		result := report.Match(hyp)
		if result == nil {
			t.Fatal("expected a match")
		}
		if !result.Confirmed {
			t.Error("expected matched result to be confirmed")
		}
		if result.Severity != SeverityHigh {
			t.Errorf("expected normalized severity high, got %q", result.Severity)
		}
		if result.Confidence != 0.85 {
			t.Errorf("expected confidence 0.85, got %v", result.Confidence)
		}
	})
}

func TestNormalizeSeverity(t *testing.T) {
	tests := []struct {
		raw  string
		want Severity
	}{
		{"critical", SeverityCritical},
		{"HIGH", SeverityHigh},
		{"  Medium ", SeverityMedium},
		{"low", SeverityLow},
		{"info", SeverityInfo},
		{"bogus", SeverityInfo},
		{"", SeverityInfo},
	}

	for _, tt := range tests {
		if got := NormalizeSeverity(tt.raw); got != tt.want {
			t.Errorf("NormalizeSeverity(%q): expected %q, got %q", tt.raw, tt.want, got)
		}
	}
}

func TestSeverity_Rank(t *testing.T) {
	if SeverityCritical.Rank() >= SeverityHigh.Rank() {
		t.Error("expected critical to rank before high")
	}
	if Severity("bogus").Rank() <= SeverityInfo.Rank() {
		t.Error("expected unknown severity to rank after info")
	}
}
