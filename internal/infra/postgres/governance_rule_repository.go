package postgres

import (
	"context"
	"fmt"

	"github.com/codegate/api/pkg/domain/governance"
	"github.com/codegate/api/pkg/domain/shared"
	"github.com/codegate/api/pkg/domain/trust"
)

// GovernanceRuleRepository implements governance.Repository using
// PostgreSQL.
type GovernanceRuleRepository struct {
	db *DB
}

// NewGovernanceRuleRepository creates a new GovernanceRuleRepository.
func NewGovernanceRuleRepository(db *DB) *GovernanceRuleRepository {
	return &GovernanceRuleRepository{db: db}
}

// ListActiveRows returns all active rule rows. Enum fields stay raw
// strings; validation and quarantine happen at load time in the service.
func (r *GovernanceRuleRepository) ListActiveRows(ctx context.Context) ([]governance.RuleRow, error) {
	query := `
		SELECT id, axis, operator, threshold, action, active, description
		FROM governance_rules
		WHERE active = true
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query governance rules: %w", err)
	}
	defer rows.Close()

	var result []governance.RuleRow
	for rows.Next() {
		var row governance.RuleRow
		if err := rows.Scan(
			&row.ID, &row.Axis, &row.Operator, &row.Threshold,
			&row.Action, &row.Active, &row.Description,
		); err != nil {
			return nil, fmt.Errorf("failed to scan governance rule: %w", err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate governance rules: %w", err)
	}

	return result, nil
}

// Create persists a new rule.
func (r *GovernanceRuleRepository) Create(ctx context.Context, rule *governance.Rule) error {
	query := `
		INSERT INTO governance_rules (
			id, axis, operator, threshold, action, active, description,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		rule.ID.String(),
		rule.Axis,
		rule.Operator,
		rule.Threshold,
		rule.Action,
		rule.Active,
		nullString(rule.Description),
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: rule for (%s, %s)", shared.ErrAlreadyExists, rule.Axis, rule.Action)
		}
		return fmt.Errorf("failed to create governance rule: %w", err)
	}

	return nil
}

// ExistsByAxisAction reports whether an equivalent (axis, action) rule
// already exists.
func (r *GovernanceRuleRepository) ExistsByAxisAction(ctx context.Context, axis trust.Axis, action governance.Action) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM governance_rules WHERE axis = $1 AND action = $2)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, axis, action).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check governance rule existence: %w", err)
	}

	return exists, nil
}
