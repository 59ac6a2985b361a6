package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sumire/lostfound/internal/domain"
)

// NotificationService manages per-user notification inboxes.
type NotificationService struct {
	notifications NotificationStore
	claims        ClaimStore
	reports       ReportStore
	users         UserLookup
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(notifications NotificationStore, claims ClaimStore, reports ReportStore, users UserLookup) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		claims:        claims,
		reports:       reports,
		users:         users,
	}
}

// ListForUser returns a user's notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID int64) ([]domain.Notification, error) {
	list, err := s.notifications.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications for user %d: %w", userID, err)
	}
	return list, nil
}

// UnreadCount returns the number of unread notifications for a user.
func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	n, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications for user %d: %w", userID, err)
	}
	return n, nil
}

// MarkRead marks a notification read on behalf of its recipient. Repeated
// calls succeed and keep the original read_at.
func (s *NotificationService) MarkRead(ctx context.Context, id uuid.UUID, requesterID int64) (*domain.Notification, error) {
	if err := s.authorize(ctx, id, requesterID); err != nil {
		return nil, err
	}
	n, err := s.notifications.MarkRead(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("mark notification %s read: %w", id, err)
	}
	return n, nil
}

// Delete hard-deletes a notification owned by requesterID.
func (s *NotificationService) Delete(ctx context.Context, id uuid.UUID, requesterID int64) error {
	if err := s.authorize(ctx, id, requesterID); err != nil {
		return err
	}
	if err := s.notifications.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete notification %s: %w", id, err)
	}
	return nil
}

func (s *NotificationService) authorize(ctx context.Context, id uuid.UUID, requesterID int64) error {
	n, err := s.notifications.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != requesterID {
		return domain.ErrForbidden
	}
	return nil
}

// Create stores an unread notification for recipientID about claimID. A claim
// gets one notification; if another caller stored it first, that one is
// returned.
func (s *NotificationService) Create(ctx context.Context, recipientID int64, claimID uuid.UUID, typ domain.NotificationType, title, message string) (*domain.Notification, error) {
	n, err := s.notifications.Create(ctx, domain.Notification{
		ID:      uuid.New(),
		UserID:  recipientID,
		ClaimID: claimID,
		Type:    typ,
		Title:   title,
		Message: message,
	})
	if errors.Is(err, domain.ErrConflict) {
		existing, findErr := s.notifications.FindByClaim(ctx, claimID)
		if findErr != nil {
			return nil, fmt.Errorf("load delivered notification for claim %s: %w", claimID, findErr)
		}
		slog.Debug("notification already delivered", "claim_id", claimID, "notification_id", existing.ID)
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create notification for claim %s: %w", claimID, err)
	}
	return n, nil
}

// NotifyClaim alerts the report owner about a new claim.
func (s *NotificationService) NotifyClaim(ctx context.Context, claim domain.Claim, report domain.Report) (*domain.Notification, error) {
	who := s.requesterLabel(ctx, claim.RequesterID)

	typ := domain.NotificationClaimReceived
	title := "New claim request"
	message := fmt.Sprintf("%s wants to claim your found item %q.", who, report.Title)
	if claim.IsReturn() {
		typ = domain.NotificationReturnOffered
		title = "Someone may have found your item"
		message = fmt.Sprintf("%s may have found your lost item %q.", who, report.Title)
	}

	return s.Create(ctx, report.CreatorID, claim.ID, typ, title, message)
}

func (s *NotificationService) requesterLabel(ctx context.Context, userID int64) string {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("lookup requester for notification", "user_id", userID, "error", err)
		}
		return domain.User{ID: userID}.Label()
	}
	return user.Label()
}

// Redeliver recreates the notification for a claim whose original delivery
// failed. It is a no-op when the notification already exists.
func (s *NotificationService) Redeliver(ctx context.Context, claimID uuid.UUID) (*domain.Notification, error) {
	existing, err := s.notifications.FindByClaim(ctx, claimID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find notification for claim %s: %w", claimID, err)
	}

	claim, err := s.claims.FindByID(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("load claim %s: %w", claimID, err)
	}
	report, err := s.reports.FindByID(ctx, claim.ReportID)
	if err != nil {
		return nil, fmt.Errorf("load report %s: %w", claim.ReportID, err)
	}
	return s.NotifyClaim(ctx, *claim, *report)
}
