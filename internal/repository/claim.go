package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sumire/lostfound/internal/domain"
)

const claimColumns = `c.id, c.requester_id, c.report_id, c.report_kind, c.message, c.image_urls, c.duplicate, c.created_at`

type claimRow struct {
	domain.Claim
	ImageURLs pq.StringArray `db:"image_urls"`
}

func (r claimRow) toDomain() domain.Claim {
	out := r.Claim
	out.ImageURLs = []string(r.ImageURLs)
	if out.ImageURLs == nil {
		out.ImageURLs = []string{}
	}
	return out
}

func claimsToDomain(rows []claimRow) []domain.Claim {
	out := make([]domain.Claim, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}

// ClaimRepository handles claim data access operations.
type ClaimRepository struct {
	db *sqlx.DB
}

// NewClaimRepository creates a new ClaimRepository.
func NewClaimRepository(db *sqlx.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

// Create inserts a claim and returns the stored row.
func (r *ClaimRepository) Create(ctx context.Context, claim domain.Claim) (*domain.Claim, error) {
	var row claimRow
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO claims AS c (id, requester_id, report_id, report_kind, message, image_urls, duplicate)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+claimColumns,
		claim.ID, claim.RequesterID, claim.ReportID, claim.ReportKind, claim.Message,
		pq.StringArray(claim.ImageURLs), claim.Duplicate,
	).StructScan(&row)
	if err != nil {
		return nil, fmt.Errorf("insert claim: %w", err)
	}
	out := row.toDomain()
	return &out, nil
}

// FindByID retrieves a claim by its ID.
func (r *ClaimRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Claim, error) {
	var row claimRow
	err := r.db.GetContext(ctx, &row, `SELECT `+claimColumns+` FROM claims c WHERE c.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find claim %s: %w", id, err)
	}
	out := row.toDomain()
	return &out, nil
}

// ListByReport returns the claims on a report, newest first.
func (r *ClaimRepository) ListByReport(ctx context.Context, reportID uuid.UUID) ([]domain.Claim, error) {
	var rows []claimRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+claimColumns+` FROM claims c WHERE c.report_id = $1 ORDER BY c.created_at DESC`, reportID)
	if err != nil {
		return nil, fmt.Errorf("list claims for report %s: %w", reportID, err)
	}
	return claimsToDomain(rows), nil
}

// ListByReportOwner returns the claims on reports created by ownerID, newest first.
func (r *ClaimRepository) ListByReportOwner(ctx context.Context, ownerID int64) ([]domain.Claim, error) {
	var rows []claimRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+claimColumns+`
		 FROM claims c JOIN reports rp ON rp.id = c.report_id
		 WHERE rp.creator_id = $1
		 ORDER BY c.created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list claims for owner %d: %w", ownerID, err)
	}
	return claimsToDomain(rows), nil
}

// CountByRequester counts earlier claims by requesterID on reportID.
func (r *ClaimRepository) CountByRequester(ctx context.Context, reportID uuid.UUID, requesterID int64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM claims WHERE report_id = $1 AND requester_id = $2`, reportID, requesterID)
	if err != nil {
		return 0, fmt.Errorf("count claims for report %s: %w", reportID, err)
	}
	return n, nil
}
