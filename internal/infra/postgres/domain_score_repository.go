package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/codegate/api/pkg/domain/shared"
	"github.com/codegate/api/pkg/domain/trust"
)

// DomainScoreRepository implements trust.DomainScoreRepository using
// PostgreSQL. The three score tables are written by upstream systems;
// this repository only reads them, treating missing rows as zero values.
type DomainScoreRepository struct {
	db *DB
}

// NewDomainScoreRepository creates a new DomainScoreRepository.
func NewDomainScoreRepository(db *DB) *DomainScoreRepository {
	return &DomainScoreRepository{db: db}
}

// GetScores reads the raw per-user domain scores. A user with no rows in
// any table gets all-zero scores, never an error.
func (r *DomainScoreRepository) GetScores(ctx context.Context, userID shared.ID) (trust.DomainScores, error) {
	var scores trust.DomainScores

	repoQuery := `
		SELECT secure_coding, fix_speed, risk_management, consistency, updated_at
		FROM repository_scores
		WHERE user_id = $1
	`
	err := r.db.QueryRowContext(ctx, repoQuery, userID.String()).Scan(
		&scores.Repository.SecureCoding,
		&scores.Repository.FixSpeed,
		&scores.Repository.RiskManagement,
		&scores.Repository.Consistency,
		&scores.Repository.UpdatedAt,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return trust.DomainScores{}, fmt.Errorf("failed to query repository score: %w", err)
	}

	marketQuery := `
		SELECT reliability, delivery_discipline, applied_security, updated_at
		FROM marketplace_scores
		WHERE user_id = $1
	`
	err = r.db.QueryRowContext(ctx, marketQuery, userID.String()).Scan(
		&scores.Marketplace.Reliability,
		&scores.Marketplace.DeliveryDiscipline,
		&scores.Marketplace.AppliedSecurity,
		&scores.Marketplace.UpdatedAt,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return trust.DomainScores{}, fmt.Errorf("failed to query marketplace score: %w", err)
	}

	ossQuery := `
		SELECT engineering_depth, security_leadership, oss_impact, updated_at
		FROM opensource_scores
		WHERE user_id = $1
	`
	err = r.db.QueryRowContext(ctx, ossQuery, userID.String()).Scan(
		&scores.OpenSource.EngineeringDepth,
		&scores.OpenSource.SecurityLeadership,
		&scores.OpenSource.OSSImpact,
		&scores.OpenSource.UpdatedAt,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return trust.DomainScores{}, fmt.Errorf("failed to query open-source score: %w", err)
	}

	return scores, nil
}
