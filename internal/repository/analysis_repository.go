package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ticker-sage/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const createAnalysisTables = `
CREATE TABLE IF NOT EXISTS searches (
    id               UUID        PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id          TEXT        NOT NULL,
    ticker           TEXT        NOT NULL,
    asset_type       TEXT        NOT NULL,
    investment_level INT         NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS analysis_reports (
    id          UUID        PRIMARY KEY DEFAULT gen_random_uuid(),
    search_id   UUID        NOT NULL REFERENCES searches(id),
    status      TEXT        NOT NULL DEFAULT 'pending',
    report_data JSONB,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_analysis_reports_status_created
    ON analysis_reports (status, created_at);
`

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AnalysisRepository persists searches and their report rows. Terminal
// transitions are guarded in SQL so a report can leave pending exactly once.
type AnalysisRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewAnalysisRepository(pool PgxPool, tracer trace.Tracer) *AnalysisRepository {
	return &AnalysisRepository{pool: pool, tracer: tracer}
}

func (r *AnalysisRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "analysis-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createAnalysisTables)
	return err
}

func (r *AnalysisRepository) CreateSearch(ctx context.Context, userID string, req domain.AnalysisRequest) (string, error) {
	_, span := r.tracer.Start(ctx, "analysis-repo.create-search")
	defer span.End()
	span.SetAttributes(attribute.String("ticker", req.Ticker))

	var id string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO searches (user_id, ticker, asset_type, investment_level)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		userID, req.Ticker, string(req.AssetType), int(req.InvestmentLevel),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert search: %w", err)
	}
	return id, nil
}

func (r *AnalysisRepository) CreateReport(ctx context.Context, searchID string) (string, error) {
	_, span := r.tracer.Start(ctx, "analysis-repo.create-report")
	defer span.End()

	var id string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO analysis_reports (search_id, status)
		 VALUES ($1, 'pending')
		 RETURNING id`,
		searchID,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert report: %w", err)
	}
	return id, nil
}

// CompleteReport writes the terminal completed state. The pending guard makes
// the transition idempotent-safe: a report already terminal is left untouched.
func (r *AnalysisRepository) CompleteReport(ctx context.Context, reportID string, data json.RawMessage) error {
	_, span := r.tracer.Start(ctx, "analysis-repo.complete-report")
	defer span.End()
	span.SetAttributes(attribute.String("report_id", reportID))

	tag, err := r.pool.Exec(ctx,
		`UPDATE analysis_reports
		 SET status = 'completed', report_data = $2, updated_at = now()
		 WHERE id = $1 AND status = 'pending'`,
		reportID, data,
	)
	if err != nil {
		return fmt.Errorf("complete report %s: %w", reportID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("report %s is not pending", reportID)
	}
	return nil
}

func (r *AnalysisRepository) FailReport(ctx context.Context, reportID, message string) error {
	_, span := r.tracer.Start(ctx, "analysis-repo.fail-report")
	defer span.End()
	span.SetAttributes(attribute.String("report_id", reportID))

	tag, err := r.pool.Exec(ctx,
		`UPDATE analysis_reports
		 SET status = 'failed', report_data = $2, updated_at = now()
		 WHERE id = $1 AND status = 'pending'`,
		reportID, domain.ErrorPayload(message),
	)
	if err != nil {
		return fmt.Errorf("fail report %s: %w", reportID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("report %s is not pending", reportID)
	}
	return nil
}

// GetReportForUser reads one report scoped to its owner. A report that does
// not exist and a report owned by someone else both come back as
// domain.ErrReportNotFound.
func (r *AnalysisRepository) GetReportForUser(ctx context.Context, reportID, userID string) (*domain.AnalysisJob, error) {
	_, span := r.tracer.Start(ctx, "analysis-repo.get-report-for-user")
	defer span.End()
	span.SetAttributes(attribute.String("report_id", reportID))

	job := &domain.AnalysisJob{}
	var status string
	var data []byte
	var createdAt, updatedAt time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT r.id, r.status, r.report_data, r.created_at, r.updated_at
		 FROM analysis_reports r
		 JOIN searches s ON s.id = r.search_id
		 WHERE r.id = $1 AND s.user_id = $2`,
		reportID, userID,
	).Scan(&job.ID, &status, &data, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select report %s: %w", reportID, err)
	}

	job.Status = domain.JobStatus(status)
	job.ReportData = data
	job.CreatedAt = createdAt.UTC()
	job.UpdatedAt = updatedAt.UTC()
	return job, nil
}

// FailStalePending sweeps reports that have sat pending past the cutoff,
// typically because the process died mid-job. Returns how many were failed.
func (r *AnalysisRepository) FailStalePending(ctx context.Context, cutoff time.Time, message string) (int64, error) {
	_, span := r.tracer.Start(ctx, "analysis-repo.fail-stale-pending")
	defer span.End()

	tag, err := r.pool.Exec(ctx,
		`UPDATE analysis_reports
		 SET status = 'failed', report_data = $2, updated_at = now()
		 WHERE status = 'pending' AND created_at < $1`,
		cutoff, domain.ErrorPayload(message),
	)
	if err != nil {
		return 0, fmt.Errorf("fail stale pending: %w", err)
	}
	span.SetAttributes(attribute.Int64("swept", tag.RowsAffected()))
	return tag.RowsAffected(), nil
}
