// Package scan provides the scan execution entity, its request types and
// the score computation applied to fused findings.
package scan

import (
	"fmt"
	"slices"

	"github.com/codegate/api/pkg/domain/shared"
)

// Kind represents the kind of scan being executed.
type Kind string

const (
	KindFull        Kind = "full"
	KindIncremental Kind = "incremental"
	KindPRCheck     Kind = "pr_check"
)

// AllKinds returns all valid scan kinds.
func AllKinds() []Kind {
	return []Kind{KindFull, KindIncremental, KindPRCheck}
}

// IsValid checks if the kind is valid.
func (k Kind) IsValid() bool {
	return slices.Contains(AllKinds(), k)
}

// Status represents the lifecycle status of a scan. Terminal states are
// final.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusQueued, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// SourceFile is one file submitted for scanning.
type SourceFile struct {
	Path     string
	Content  string
	Language string
}

// Request describes one scan submission. Immutable once queued.
type Request struct {
	RepositoryID            shared.ID
	ActorID                 shared.ID
	Kind                    Kind
	CommitSHA               string
	Branch                  string
	Files                   []SourceFile
	ExploitValidatorEnabled bool
}

// Validate checks the request invariants. An empty file list is a
// validation error.
func (r Request) Validate() error {
	if r.RepositoryID.IsZero() {
		return fmt.Errorf("%w: repository ID is required", shared.ErrValidation)
	}
	if !r.Kind.IsValid() {
		return fmt.Errorf("%w: invalid scan kind %q", shared.ErrValidation, r.Kind)
	}
	if len(r.Files) == 0 {
		return fmt.Errorf("%w: file list must not be empty", shared.ErrValidation)
	}
	for i, f := range r.Files {
		if f.Path == "" {
			return fmt.Errorf("%w: file %d has no path", shared.ErrValidation, i)
		}
	}
	return nil
}
