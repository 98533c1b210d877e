package scan

import (
	"context"

	"github.com/codegate/api/pkg/domain/shared"
)

// Repository defines the persistence interface for scans.
type Repository interface {
	// Create persists a new scan.
	Create(ctx context.Context, s *Scan) error

	// Update persists changes to an existing scan.
	Update(ctx context.Context, s *Scan) error

	// GetByID retrieves a scan by ID.
	GetByID(ctx context.Context, id shared.ID) (*Scan, error)

	// ListByRepository returns the most recent scans for a repository,
	// newest first, bounded by limit.
	ListByRepository(ctx context.Context, repositoryID shared.ID, limit int) ([]*Scan, error)
}
