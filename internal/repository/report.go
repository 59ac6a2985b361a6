package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sumire/lostfound/internal/domain"
)

const reportColumns = `id, kind, creator_id, title, description, location_id, occurred_at,
	tags, image_urls, status, created_at, updated_at`

// reportRow adds the array columns domain.Report leaves untagged.
type reportRow struct {
	domain.Report
	Tags      pq.StringArray `db:"tags"`
	ImageURLs pq.StringArray `db:"image_urls"`
}

func (r reportRow) toDomain() domain.Report {
	out := r.Report
	out.Tags = []string(r.Tags)
	out.ImageURLs = []string(r.ImageURLs)
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if out.ImageURLs == nil {
		out.ImageURLs = []string{}
	}
	return out
}

// ReportRepository handles report data access operations.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a report and returns the stored row.
func (r *ReportRepository) Create(ctx context.Context, report domain.Report) (*domain.Report, error) {
	var row reportRow
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO reports (id, kind, creator_id, title, description, location_id, occurred_at, tags, image_urls, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+reportColumns,
		report.ID, report.Kind, report.CreatorID, report.Title, report.Description, report.LocationID,
		report.OccurredAt, pq.StringArray(report.Tags), pq.StringArray(report.ImageURLs), report.Status,
	).StructScan(&row)
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}
	out := row.toDomain()
	return &out, nil
}

// FindByID retrieves a report by its ID.
func (r *ReportRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	var row reportRow
	err := r.db.GetContext(ctx, &row, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find report %s: %w", id, err)
	}
	out := row.toDomain()
	return &out, nil
}

// List returns reports matching filter, newest first.
func (r *ReportRepository) List(ctx context.Context, filter domain.ReportFilter) ([]domain.Report, error) {
	query, args := buildReportQuery(filter)

	var rows []reportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	out := make([]domain.Report, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func buildReportQuery(filter domain.ReportFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Kind != "" {
		conds = append(conds, "kind = "+arg(filter.Kind))
	}
	if len(filter.Statuses) > 0 {
		conds = append(conds, "status = ANY("+arg(statusArray(filter.Statuses))+")")
	}
	if filter.Category != "" {
		conds = append(conds, "tags[1] = "+arg(filter.Category))
	}
	if filter.CreatorID != 0 {
		conds = append(conds, "creator_id = "+arg(filter.CreatorID))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		p := arg("%" + escapeLike(q) + "%")
		conds = append(conds, "(title ILIKE "+p+" OR description ILIKE "+p+")")
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + reportColumns + ` FROM reports`)
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id")
	if filter.Limit > 0 {
		b.WriteString(" LIMIT " + arg(filter.Limit))
	}
	return b.String(), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func statusArray(statuses []domain.ReportStatus) pq.StringArray {
	out := make(pq.StringArray, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

// TransitionStatus updates the status only when the current status may move
// to next. The guard lives in the WHERE clause so concurrent callers cannot
// both succeed.
func (r *ReportRepository) TransitionStatus(ctx context.Context, id uuid.UUID, next domain.ReportStatus) (*domain.Report, error) {
	var row reportRow
	err := r.db.QueryRowxContext(ctx,
		`UPDATE reports SET status = $2, updated_at = NOW()
		 WHERE id = $1 AND status = ANY($3)
		 RETURNING `+reportColumns,
		id, next, statusArray(domain.SourcesFor(next)),
	).StructScan(&row)
	if err == nil {
		out := row.toDomain()
		return &out, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update report %s status: %w", id, err)
	}

	var current domain.ReportStatus
	if err := r.db.GetContext(ctx, &current, `SELECT status FROM reports WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read report %s status: %w", id, err)
	}
	return nil, fmt.Errorf("%w: report is %s", domain.ErrInvalidState, current)
}
