package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/sumire/lostfound/internal/domain"
)

// ReportStore defines the report data access interface.
type ReportStore interface {
	Create(ctx context.Context, report domain.Report) (*domain.Report, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Report, error)
	List(ctx context.Context, filter domain.ReportFilter) ([]domain.Report, error)
	// TransitionStatus moves a report to next only if its current status
	// allows it, returning domain.ErrInvalidState otherwise. The check and
	// the write are a single conditional update.
	TransitionStatus(ctx context.Context, id uuid.UUID, next domain.ReportStatus) (*domain.Report, error)
}

// ClaimStore defines the claim data access interface.
type ClaimStore interface {
	Create(ctx context.Context, claim domain.Claim) (*domain.Claim, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Claim, error)
	ListByReport(ctx context.Context, reportID uuid.UUID) ([]domain.Claim, error)
	ListByReportOwner(ctx context.Context, ownerID int64) ([]domain.Claim, error)
	CountByRequester(ctx context.Context, reportID uuid.UUID, requesterID int64) (int, error)
}

// NotificationStore defines the notification data access interface.
type NotificationStore interface {
	Create(ctx context.Context, n domain.Notification) (*domain.Notification, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error)
	FindByClaim(ctx context.Context, claimID uuid.UUID) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int, error)
	// MarkRead sets read and read_at only when the notification is unread.
	// Calling it on an already read notification returns it unchanged.
	MarkRead(ctx context.Context, id uuid.UUID) (*domain.Notification, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserStore defines the user data access interface.
type UserStore interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByProviderID(ctx context.Context, provider domain.AuthProvider, providerID string) (*domain.User, error)
	Upsert(ctx context.Context, user domain.User) (*domain.User, error)
}

// UserLookup resolves user ids to display identities.
type UserLookup interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}
