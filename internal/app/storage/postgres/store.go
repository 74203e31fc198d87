package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/matrizrfm/rfm-engine/internal/app/domain/analysis"
	"github.com/matrizrfm/rfm-engine/internal/app/storage"
	"github.com/matrizrfm/rfm-engine/internal/rfm"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.AnalysisStore = (*Store)(nil)
var _ storage.SegmentStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the tables the store needs if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS rfm_analyses (
			id              TEXT PRIMARY KEY,
			owner           TEXT NOT NULL,
			name            TEXT NOT NULL,
			status          TEXT NOT NULL,
			total_customers INTEGER NOT NULL DEFAULT 0,
			reference_date  TIMESTAMPTZ,
			summary         JSONB,
			insights        TEXT NOT NULL DEFAULT '',
			error           TEXT NOT NULL DEFAULT '',
			created_at      TIMESTAMPTZ NOT NULL,
			updated_at      TIMESTAMPTZ NOT NULL,
			completed_at    TIMESTAMPTZ
		);
		CREATE TABLE IF NOT EXISTS rfm_segments (
			id                 TEXT PRIMARY KEY,
			analysis_id        TEXT NOT NULL REFERENCES rfm_analyses(id) ON DELETE CASCADE,
			segment            TEXT NOT NULL,
			customer_count     INTEGER NOT NULL,
			percentage         DOUBLE PRECISION NOT NULL,
			avg_recency        DOUBLE PRECISION NOT NULL,
			avg_frequency      DOUBLE PRECISION NOT NULL,
			avg_monetary       DOUBLE PRECISION NOT NULL,
			total_revenue      DOUBLE PRECISION NOT NULL,
			revenue_percentage DOUBLE PRECISION NOT NULL,
			created_at         TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_rfm_segments_analysis ON rfm_segments (analysis_id);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// --- AnalysisStore ----------------------------------------------------------

func (s *Store) CreateAnalysis(ctx context.Context, a analysis.Analysis) (analysis.Analysis, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	summaryJSON, err := marshalSummary(a.Summary)
	if err != nil {
		return analysis.Analysis{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rfm_analyses (id, owner, name, status, total_customers, reference_date, summary, insights, error, created_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, a.ID, a.Owner, a.Name, a.Status, a.TotalCustomers, toNullTime(a.ReferenceDate), summaryJSON, a.Insights, a.Error, a.CreatedAt, a.UpdatedAt, toNullTime(a.CompletedAt))
	if err != nil {
		return analysis.Analysis{}, err
	}
	return a, nil
}

func (s *Store) UpdateAnalysis(ctx context.Context, a analysis.Analysis) (analysis.Analysis, error) {
	existing, err := s.GetAnalysis(ctx, a.ID)
	if err != nil {
		return analysis.Analysis{}, err
	}

	a.Owner = existing.Owner
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = time.Now().UTC()

	summaryJSON, err := marshalSummary(a.Summary)
	if err != nil {
		return analysis.Analysis{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE rfm_analyses
		SET name = $2, status = $3, total_customers = $4, reference_date = $5, summary = $6, insights = $7, error = $8, updated_at = $9, completed_at = $10
		WHERE id = $1
	`, a.ID, a.Name, a.Status, a.TotalCustomers, toNullTime(a.ReferenceDate), summaryJSON, a.Insights, a.Error, a.UpdatedAt, toNullTime(a.CompletedAt))
	if err != nil {
		return analysis.Analysis{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return analysis.Analysis{}, sql.ErrNoRows
	}
	return a, nil
}

func (s *Store) GetAnalysis(ctx context.Context, id string) (analysis.Analysis, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, name, status, total_customers, reference_date, summary, insights, error, created_at, updated_at, completed_at
		FROM rfm_analyses
		WHERE id = $1
	`, id)
	return scanAnalysis(row.Scan)
}

func (s *Store) ListAnalyses(ctx context.Context, owner string) ([]analysis.Analysis, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, name, status, total_customers, reference_date, summary, insights, error, created_at, updated_at, completed_at
		FROM rfm_analyses
		WHERE $1 = '' OR owner = $1
		ORDER BY created_at DESC
	`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []analysis.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (s *Store) DeleteAnalysis(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM rfm_analyses WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// --- SegmentStore -----------------------------------------------------------

func (s *Store) ReplaceSegments(ctx context.Context, analysisID string, segRows []analysis.SegmentRow) ([]analysis.SegmentRow, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM rfm_segments WHERE analysis_id = $1
	`, analysisID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	stored := make([]analysis.SegmentRow, len(segRows))
	for i, row := range segRows {
		row.AnalysisID = analysisID
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		row.CreatedAt = now

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rfm_segments (id, analysis_id, segment, customer_count, percentage, avg_recency, avg_frequency, avg_monetary, total_revenue, revenue_percentage, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, row.ID, row.AnalysisID, row.Segment, row.Count, row.Percentage, row.AvgRecency, row.AvgFrequency, row.AvgMonetary, row.TotalRevenue, row.RevenuePercentage, row.CreatedAt); err != nil {
			return nil, err
		}
		stored[i] = row
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *Store) ListSegments(ctx context.Context, analysisID string) ([]analysis.SegmentRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, analysis_id, segment, customer_count, percentage, avg_recency, avg_frequency, avg_monetary, total_revenue, revenue_percentage, created_at
		FROM rfm_segments
		WHERE analysis_id = $1
		ORDER BY customer_count DESC, segment
	`, analysisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []analysis.SegmentRow
	for rows.Next() {
		var row analysis.SegmentRow
		if err := rows.Scan(&row.ID, &row.AnalysisID, &row.Segment, &row.Count, &row.Percentage, &row.AvgRecency, &row.AvgFrequency, &row.AvgMonetary, &row.TotalRevenue, &row.RevenuePercentage, &row.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func scanAnalysis(scan func(...any) error) (analysis.Analysis, error) {
	var (
		a             analysis.Analysis
		referenceDate sql.NullTime
		summaryRaw    []byte
		completedAt   sql.NullTime
	)
	if err := scan(&a.ID, &a.Owner, &a.Name, &a.Status, &a.TotalCustomers, &referenceDate, &summaryRaw, &a.Insights, &a.Error, &a.CreatedAt, &a.UpdatedAt, &completedAt); err != nil {
		return analysis.Analysis{}, err
	}
	if referenceDate.Valid {
		a.ReferenceDate = referenceDate.Time.UTC()
	}
	if completedAt.Valid {
		a.CompletedAt = completedAt.Time.UTC()
	}
	if len(summaryRaw) > 0 {
		var summary rfm.Summary
		if err := json.Unmarshal(summaryRaw, &summary); err == nil {
			a.Summary = &summary
		}
	}
	return a, nil
}

func marshalSummary(summary *rfm.Summary) ([]byte, error) {
	if summary == nil {
		return nil, nil
	}
	return json.Marshal(summary)
}

func toNullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
