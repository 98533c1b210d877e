package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codegate/api/pkg/domain/shared"
	"github.com/codegate/api/pkg/domain/vulnerability"
)

// severityOrder ranks severities in SQL, most severe first.
const severityOrder = `
	CASE severity
		WHEN 'critical' THEN 0
		WHEN 'high' THEN 1
		WHEN 'medium' THEN 2
		WHEN 'low' THEN 3
		ELSE 4
	END
`

// FindingRepository implements vulnerability.Repository using PostgreSQL.
type FindingRepository struct {
	db *DB
}

// NewFindingRepository creates a new FindingRepository.
func NewFindingRepository(db *DB) *FindingRepository {
	return &FindingRepository{db: db}
}

// Create persists a new finding.
func (r *FindingRepository) Create(ctx context.Context, finding *vulnerability.Finding) error {
	query := `
		INSERT INTO findings (` + findingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
	`

	_, err := r.db.ExecContext(ctx, query, findingArgs(finding)...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: finding %s", shared.ErrAlreadyExists, finding.ID())
		}
		return fmt.Errorf("failed to create finding: %w", err)
	}

	return nil
}

// CreateBatch persists all findings from one scan in a single statement.
func (r *FindingRepository) CreateBatch(ctx context.Context, findings []*vulnerability.Finding) error {
	if len(findings) == 0 {
		return nil
	}
	if len(findings) <= 3 {
		for _, f := range findings {
			if err := r.Create(ctx, f); err != nil {
				return err
			}
		}
		return nil
	}

	const numCols = 27
	valueStrings := make([]string, 0, len(findings))
	valueArgs := make([]any, 0, len(findings)*numCols)

	for i, f := range findings {
		baseIdx := i * numCols
		placeholders := make([]string, numCols)
		for j := 0; j < numCols; j++ {
			placeholders[j] = fmt.Sprintf("$%d", baseIdx+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ", ")+")")
		valueArgs = append(valueArgs, findingArgs(f)...)
	}

	query := fmt.Sprintf(`
		INSERT INTO findings (%s)
		VALUES %s
	`, findingColumns, strings.Join(valueStrings, ", "))

	_, err := r.db.ExecContext(ctx, query, valueArgs...)
	if err != nil {
		return fmt.Errorf("failed to batch create findings: %w", err)
	}

	return nil
}

// GetByID retrieves a finding by ID.
func (r *FindingRepository) GetByID(ctx context.Context, id shared.ID) (*vulnerability.Finding, error) {
	query := r.selectQuery() + " WHERE id = $1"

	row := r.db.QueryRowContext(ctx, query, id.String())
	finding, err := r.doScan(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: finding %s", shared.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to scan finding: %w", err)
	}
	return finding, nil
}

// ListByScan returns all findings belonging to a scan, ordered by severity
// then descending confidence.
func (r *FindingRepository) ListByScan(ctx context.Context, scanID shared.ID) ([]*vulnerability.Finding, error) {
	query := r.selectQuery() + " WHERE scan_id = $1 ORDER BY " + severityOrder + ", confidence DESC"
	return r.queryFindings(ctx, query, scanID.String())
}

// ListActionableByRepository returns open and confirmed findings for a
// repository, ordered by severity then descending confidence.
func (r *FindingRepository) ListActionableByRepository(ctx context.Context, repositoryID shared.ID) ([]*vulnerability.Finding, error) {
	query := r.selectQuery() +
		" WHERE repository_id = $1 AND status IN ('open', 'confirmed')" +
		" ORDER BY " + severityOrder + ", confidence DESC"
	return r.queryFindings(ctx, query, repositoryID.String())
}

// Update persists changes to an existing finding.
func (r *FindingRepository) Update(ctx context.Context, finding *vulnerability.Finding) error {
	query := `
		UPDATE findings
		SET severity = $2, confidence = $3, status = $4,
		    dismissed_by = $5, dismissed_at = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		finding.ID().String(),
		finding.Severity(),
		finding.Confidence(),
		finding.Status(),
		nullIDPtr(finding.DismissedBy()),
		nullTime(finding.DismissedAt()),
		finding.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to update finding: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: finding %s", shared.ErrNotFound, finding.ID())
	}

	return nil
}

const findingColumns = `
	id, scan_id, repository_id,
	file_path, start_line, end_line, snippet, vuln_type, severity, confidence,
	source, sink, data_flow,
	ai_exploitable, ai_severity, ai_reasoning, ai_patch_suggestion, ai_confidence,
	exploit_confirmed, exploit_details, exploit_confidence,
	validation_source, status, dismissed_by, dismissed_at,
	created_at, updated_at
`

func findingArgs(f *vulnerability.Finding) []any {
	return []any{
		f.ID().String(),
		f.ScanID().String(),
		f.RepositoryID().String(),
		f.FilePath(),
		f.StartLine(),
		f.EndLine(),
		f.Snippet(),
		f.VulnType(),
		f.Severity(),
		f.Confidence(),
		nullString(f.Source()),
		nullString(f.Sink()),
		nullString(f.DataFlow()),
		f.AIExploitable(),
		f.AISeverity(),
		nullString(f.AIReasoning()),
		nullString(f.AIPatchSuggestion()),
		f.AIConfidence(),
		nullBool(f.ExploitConfirmed()),
		nullString(f.ExploitDetails()),
		nullFloat(f.ExploitConfidence()),
		f.ValidationSource(),
		f.Status(),
		nullIDPtr(f.DismissedBy()),
		nullTime(f.DismissedAt()),
		f.CreatedAt(),
		f.UpdatedAt(),
	}
}

func (r *FindingRepository) selectQuery() string {
	return "SELECT " + findingColumns + " FROM findings"
}

func (r *FindingRepository) queryFindings(ctx context.Context, query string, args ...any) ([]*vulnerability.Finding, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	var findings []*vulnerability.Finding
	for rows.Next() {
		finding, err := r.doScan(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		findings = append(findings, finding)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate findings: %w", err)
	}

	return findings, nil
}

func (r *FindingRepository) doScan(scanRow func(dest ...any) error) (*vulnerability.Finding, error) {
	var (
		idStr             string
		scanIDStr         string
		repositoryIDStr   string
		filePath          string
		startLine         int
		endLine           int
		snippet           string
		vulnType          string
		severity          string
		confidence        float64
		source            sql.NullString
		sink              sql.NullString
		dataFlow          sql.NullString
		aiExploitable     bool
		aiSeverity        string
		aiReasoning       sql.NullString
		aiPatchSuggestion sql.NullString
		aiConfidence      float64
		exploitConfirmed  sql.NullBool
		exploitDetails    sql.NullString
		exploitConfidence sql.NullFloat64
		validationSource  string
		status            string
		dismissedByStr    sql.NullString
		dismissedAt       sql.NullTime
		createdAt         time.Time
		updatedAt         time.Time
	)

	err := scanRow(
		&idStr, &scanIDStr, &repositoryIDStr,
		&filePath, &startLine, &endLine, &snippet, &vulnType, &severity, &confidence,
		&source, &sink, &dataFlow,
		&aiExploitable, &aiSeverity, &aiReasoning, &aiPatchSuggestion, &aiConfidence,
		&exploitConfirmed, &exploitDetails, &exploitConfidence,
		&validationSource, &status, &dismissedByStr, &dismissedAt,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	id, err := shared.IDFromString(idStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse id: %w", err)
	}
	scanID, err := shared.IDFromString(scanIDStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scan id: %w", err)
	}
	repositoryID, err := shared.IDFromString(repositoryIDStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse repository id: %w", err)
	}

	return vulnerability.Reconstitute(
		id,
		scanID,
		repositoryID,
		filePath,
		startLine, endLine,
		snippet,
		vulnType,
		vulnerability.Severity(severity),
		confidence,
		nullStringValue(source),
		nullStringValue(sink),
		nullStringValue(dataFlow),
		aiExploitable,
		vulnerability.Severity(aiSeverity),
		nullStringValue(aiReasoning),
		nullStringValue(aiPatchSuggestion),
		aiConfidence,
		nullBoolValue(exploitConfirmed),
		nullStringValue(exploitDetails),
		nullFloatValue(exploitConfidence),
		vulnerability.ValidationSource(validationSource),
		vulnerability.Status(status),
		parseNullID(dismissedByStr),
		nullTimeValue(dismissedAt),
		createdAt,
		updatedAt,
	), nil
}
