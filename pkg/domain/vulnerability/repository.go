package vulnerability

import (
	"context"

	"github.com/codegate/api/pkg/domain/shared"
)

// Repository defines the persistence interface for findings.
type Repository interface {
	// Create persists a new finding.
	Create(ctx context.Context, finding *Finding) error

	// CreateBatch persists all findings from one scan.
	CreateBatch(ctx context.Context, findings []*Finding) error

	// GetByID retrieves a finding by ID.
	GetByID(ctx context.Context, id shared.ID) (*Finding, error)

	// ListByScan returns all findings belonging to a scan.
	ListByScan(ctx context.Context, scanID shared.ID) ([]*Finding, error)

	// ListActionableByRepository returns open and confirmed findings for a
	// repository, ordered by severity then descending confidence.
	ListActionableByRepository(ctx context.Context, repositoryID shared.ID) ([]*Finding, error)

	// Update persists changes to an existing finding.
	Update(ctx context.Context, finding *Finding) error
}
