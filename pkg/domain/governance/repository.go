package governance

import (
	"context"

	"github.com/codegate/api/pkg/domain/trust"
)

// RuleRow is a governance rule as stored, with enum fields still free
// strings. Rows are normalized to Rule at load time; unrecognized values
// quarantine the row.
type RuleRow struct {
	ID          string
	Axis        string
	Operator    string
	Threshold   float64
	Action      string
	Active      bool
	Description string
}

// Repository defines the persistence interface for governance rules.
type Repository interface {
	// ListActiveRows returns all active rule rows, unvalidated.
	ListActiveRows(ctx context.Context) ([]RuleRow, error)

	// Create persists a new rule.
	Create(ctx context.Context, rule *Rule) error

	// ExistsByAxisAction reports whether an equivalent (axis, action)
	// rule already exists.
	ExistsByAxisAction(ctx context.Context, axis trust.Axis, action Action) (bool, error)
}
