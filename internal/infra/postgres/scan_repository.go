package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/codegate/api/pkg/domain/scan"
	"github.com/codegate/api/pkg/domain/shared"
)

// ScanRepository implements scan.Repository using PostgreSQL.
type ScanRepository struct {
	db *DB
}

// NewScanRepository creates a new ScanRepository.
func NewScanRepository(db *DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// Create persists a new scan.
func (r *ScanRepository) Create(ctx context.Context, s *scan.Scan) error {
	query := `
		INSERT INTO scans (
			id, repository_id, actor_id, kind, status,
			commit_sha, branch,
			critical_count, high_count, medium_count, low_count, info_count,
			secure_coding_score, risk_score, exploit_validator_used, error_message,
			started_at, completed_at, duration_ms,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	counts := s.Counts()
	_, err := r.db.ExecContext(ctx, query,
		s.ID().String(),
		s.RepositoryID().String(),
		nullIDValue(s.ActorID()),
		s.Kind(),
		s.Status(),
		nullString(s.CommitSHA()),
		nullString(s.Branch()),
		counts.Critical,
		counts.High,
		counts.Medium,
		counts.Low,
		counts.Info,
		s.SecureCodingScore(),
		s.RiskScore(),
		s.ExploitValidatorUsed(),
		nullString(s.ErrorMessage()),
		nullTime(s.StartedAt()),
		nullTime(s.CompletedAt()),
		s.Duration().Milliseconds(),
		s.CreatedAt(),
		s.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to create scan: %w", err)
	}

	return nil
}

// Update persists changes to an existing scan.
func (r *ScanRepository) Update(ctx context.Context, s *scan.Scan) error {
	query := `
		UPDATE scans
		SET status = $2,
		    critical_count = $3, high_count = $4, medium_count = $5,
		    low_count = $6, info_count = $7,
		    secure_coding_score = $8, risk_score = $9,
		    exploit_validator_used = $10, error_message = $11,
		    started_at = $12, completed_at = $13, duration_ms = $14,
		    updated_at = $15
		WHERE id = $1
	`

	counts := s.Counts()
	result, err := r.db.ExecContext(ctx, query,
		s.ID().String(),
		s.Status(),
		counts.Critical,
		counts.High,
		counts.Medium,
		counts.Low,
		counts.Info,
		s.SecureCodingScore(),
		s.RiskScore(),
		s.ExploitValidatorUsed(),
		nullString(s.ErrorMessage()),
		nullTime(s.StartedAt()),
		nullTime(s.CompletedAt()),
		s.Duration().Milliseconds(),
		s.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to update scan: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: scan %s", shared.ErrNotFound, s.ID())
	}

	return nil
}

// GetByID retrieves a scan by ID.
func (r *ScanRepository) GetByID(ctx context.Context, id shared.ID) (*scan.Scan, error) {
	query := r.selectQuery() + " WHERE id = $1"

	row := r.db.QueryRowContext(ctx, query, id.String())
	s, err := r.doScan(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: scan %s", shared.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}
	return s, nil
}

// ListByRepository returns the most recent scans for a repository.
func (r *ScanRepository) ListByRepository(ctx context.Context, repositoryID shared.ID, limit int) ([]*scan.Scan, error) {
	query := r.selectQuery() + " WHERE repository_id = $1 ORDER BY created_at DESC LIMIT $2"

	rows, err := r.db.QueryContext(ctx, query, repositoryID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	var scans []*scan.Scan
	for rows.Next() {
		s, err := r.doScan(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		scans = append(scans, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scans: %w", err)
	}

	return scans, nil
}

func (r *ScanRepository) selectQuery() string {
	return `
		SELECT id, repository_id, actor_id, kind, status,
		       commit_sha, branch,
		       critical_count, high_count, medium_count, low_count, info_count,
		       secure_coding_score, risk_score, exploit_validator_used, error_message,
		       started_at, completed_at, duration_ms,
		       created_at, updated_at
		FROM scans
	`
}

func (r *ScanRepository) doScan(scanRow func(dest ...any) error) (*scan.Scan, error) {
	var (
		idStr                string
		repositoryIDStr      string
		actorIDStr           sql.NullString
		kind                 string
		status               string
		commitSHA            sql.NullString
		branch               sql.NullString
		counts               scan.SeverityCounts
		secureCodingScore    float64
		riskScore            float64
		exploitValidatorUsed bool
		errorMessage         sql.NullString
		startedAt            sql.NullTime
		completedAt          sql.NullTime
		durationMS           int64
		createdAt            time.Time
		updatedAt            time.Time
	)

	err := scanRow(
		&idStr, &repositoryIDStr, &actorIDStr, &kind, &status,
		&commitSHA, &branch,
		&counts.Critical, &counts.High, &counts.Medium, &counts.Low, &counts.Info,
		&secureCodingScore, &riskScore, &exploitValidatorUsed, &errorMessage,
		&startedAt, &completedAt, &durationMS,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	id, err := shared.IDFromString(idStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse id: %w", err)
	}
	repositoryID, err := shared.IDFromString(repositoryIDStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse repository id: %w", err)
	}

	return scan.Reconstitute(
		id,
		repositoryID,
		idValue(actorIDStr),
		scan.Kind(kind),
		scan.Status(status),
		nullStringValue(commitSHA),
		nullStringValue(branch),
		counts,
		secureCodingScore,
		riskScore,
		exploitValidatorUsed,
		nullStringValue(errorMessage),
		nullTimeValue(startedAt),
		nullTimeValue(completedAt),
		time.Duration(durationMS)*time.Millisecond,
		createdAt,
		updatedAt,
	), nil
}
