// Package vulnerability provides domain entities for confirmed findings and
// the confidence fusion of validator verdicts.
package vulnerability

import (
	"slices"
	"strings"
)

// Severity represents the severity level of a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// AllSeverities returns all valid severity levels, most severe first.
func AllSeverities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}
}

// IsValid checks if the severity is valid.
func (s Severity) IsValid() bool {
	return slices.Contains(AllSeverities(), s)
}

// Rank returns the ordering rank of the severity (0 = most severe).
// Unknown severities rank after info.
func (s Severity) Rank() int {
	for i, sev := range AllSeverities() {
		if s == sev {
			return i
		}
	}
	return len(AllSeverities())
}

// NormalizeSeverity maps an arbitrary string onto the severity enum.
// Unrecognized values fall back to info.
func NormalizeSeverity(raw string) Severity {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	if s.IsValid() {
		return s
	}
	return SeverityInfo
}

// ValidationSource records which validators confirmed a finding.
type ValidationSource string

const (
	// ValidationSourceCSS marks findings confirmed only by the AI validator.
	ValidationSourceCSS ValidationSource = "css"
	// ValidationSourceShannon marks findings confirmed only by the exploit validator.
	ValidationSourceShannon ValidationSource = "shannon"
	// ValidationSourceBoth marks findings confirmed by both validators.
	ValidationSourceBoth ValidationSource = "both"
)

// IsValid checks if the validation source is valid.
func (v ValidationSource) IsValid() bool {
	switch v {
	case ValidationSourceCSS, ValidationSourceShannon, ValidationSourceBoth:
		return true
	}
	return false
}

// Status represents the lifecycle state of a finding.
type Status string

const (
	StatusOpen      Status = "open"
	StatusConfirmed Status = "confirmed"
	StatusDismissed Status = "dismissed"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusConfirmed, StatusDismissed:
		return true
	}
	return false
}

// IsActionable reports whether the finding still counts against a repository.
func (s Status) IsActionable() bool {
	return s == StatusOpen || s == StatusConfirmed
}
