package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sumire/lostfound/internal/domain"
)

const notificationColumns = `id, user_id, claim_id, type, title, message, read, read_at, created_at`

// NotificationRepository handles notification data access operations.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts an unread notification. A claim has at most one; a second
// insert for the same claim returns domain.ErrConflict.
func (r *NotificationRepository) Create(ctx context.Context, n domain.Notification) (*domain.Notification, error) {
	var result domain.Notification
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO notifications (id, user_id, claim_id, type, title, message)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (claim_id) DO NOTHING
		 RETURNING `+notificationColumns,
		n.ID, n.UserID, n.ClaimID, n.Type, n.Title, n.Message,
	).StructScan(&result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: notification for claim %s", domain.ErrConflict, n.ClaimID)
		}
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	return &result, nil
}

// FindByID retrieves a notification by its ID.
func (r *NotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	return r.findOne(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
}

// FindByClaim retrieves the notification created for a claim.
func (r *NotificationRepository) FindByClaim(ctx context.Context, claimID uuid.UUID) (*domain.Notification, error) {
	return r.findOne(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE claim_id = $1`, claimID)
}

func (r *NotificationRepository) findOne(ctx context.Context, query string, id uuid.UUID) (*domain.Notification, error) {
	var n domain.Notification
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find notification %s: %w", id, err)
	}
	return &n, nil
}

// ListByUser returns a user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Notification, error) {
	list := []domain.Notification{}
	err := r.db.SelectContext(ctx, &list,
		`SELECT `+notificationColumns+` FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications for user %d: %w", userID, err)
	}
	return list, nil
}

// CountUnread counts a user's unread notifications.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT read`, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications for user %d: %w", userID, err)
	}
	return n, nil
}

// MarkRead sets read and keeps the first read_at. The row lock taken by
// UPDATE serializes concurrent callers, and COALESCE makes later ones no-ops.
func (r *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	var n domain.Notification
	err := r.db.QueryRowxContext(ctx,
		`UPDATE notifications SET read = TRUE, read_at = COALESCE(read_at, NOW())
		 WHERE id = $1
		 RETURNING `+notificationColumns, id,
	).StructScan(&n)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("mark notification %s read: %w", id, err)
	}
	return &n, nil
}

// Delete removes a notification.
func (r *NotificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete notification %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete notification %s: %w", id, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
