package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/sumire/lostfound/internal/domain"
)

const maxClaimMessageLen = 2000

// RedeliveryQueue schedules a later attempt to deliver a claim's notification.
type RedeliveryQueue interface {
	EnqueueRedelivery(ctx context.Context, claimID uuid.UUID) error
}

// ClaimService validates and records claim and return requests.
type ClaimService struct {
	reports  ReportStore
	claims   ClaimStore
	notifier *NotificationService
	retry    RedeliveryQueue
}

// NewClaimService creates a new ClaimService. retry may be nil, in which case
// failed notifications are only reported.
func NewClaimService(reports ReportStore, claims ClaimStore, notifier *NotificationService, retry RedeliveryQueue) *ClaimService {
	return &ClaimService{
		reports:  reports,
		claims:   claims,
		notifier: notifier,
		retry:    retry,
	}
}

// CreateClaimInput carries a claim or return request.
type CreateClaimInput struct {
	RequesterID int64
	ReportID    uuid.UUID
	Message     string
	ImageURLs   []string
}

// ClaimOutcome is the result of a successful claim. NotifyErr is set when the
// claim was stored but the owner's notification could not be created.
type ClaimOutcome struct {
	Claim        domain.Claim
	Notification *domain.Notification
	NotifyErr    error
}

// Create validates and stores a claim, then notifies the report owner.
// A Lost report requires at least one image as proof of the found item.
func (s *ClaimService) Create(ctx context.Context, in CreateClaimInput) (*ClaimOutcome, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, domain.NewValidationError("message", "message is required")
	}
	if utf8.RuneCountInString(message) > maxClaimMessageLen {
		return nil, domain.NewValidationError("message", fmt.Sprintf("must be at most %d characters", maxClaimMessageLen))
	}

	report, err := s.reports.FindByID(ctx, in.ReportID)
	if err != nil {
		return nil, err
	}

	images, err := cleanImageURLs(in.ImageURLs)
	if err != nil {
		return nil, err
	}
	if report.Kind == domain.ReportKindLost && len(images) == 0 {
		return nil, domain.NewValidationError("image_urls", "image required for return")
	}
	if report.CreatorID == in.RequesterID {
		return nil, domain.ErrForbidden
	}
	if report.Status != domain.ReportStatusActive {
		return nil, fmt.Errorf("%w: report is %s", domain.ErrInvalidState, report.Status)
	}

	prior, err := s.claims.CountByRequester(ctx, report.ID, in.RequesterID)
	if err != nil {
		return nil, fmt.Errorf("count prior claims: %w", err)
	}

	claim, err := s.claims.Create(ctx, domain.Claim{
		ID:          uuid.New(),
		RequesterID: in.RequesterID,
		ReportID:    report.ID,
		ReportKind:  report.Kind,
		Message:     message,
		ImageURLs:   images,
		Duplicate:   prior > 0,
	})
	if err != nil {
		return nil, fmt.Errorf("create claim: %w", err)
	}

	outcome := &ClaimOutcome{Claim: *claim}
	n, err := s.notifier.NotifyClaim(ctx, *claim, *report)
	if err != nil {
		slog.Warn("claim stored without notification",
			"claim_id", claim.ID,
			"report_id", report.ID,
			"error", err,
		)
		outcome.NotifyErr = err
		s.scheduleRedelivery(ctx, claim.ID)
		return outcome, nil
	}
	outcome.Notification = n
	return outcome, nil
}

func (s *ClaimService) scheduleRedelivery(ctx context.Context, claimID uuid.UUID) {
	if s.retry == nil {
		return
	}
	if err := s.retry.EnqueueRedelivery(ctx, claimID); err != nil {
		slog.Error("enqueue notification redelivery", "claim_id", claimID, "error", err)
	}
}

// ListByReport returns the claims on a report. Only the report's creator may
// see them.
func (s *ClaimService) ListByReport(ctx context.Context, reportID uuid.UUID, requesterID int64) ([]domain.Claim, error) {
	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.CreatorID != requesterID {
		return nil, domain.ErrForbidden
	}
	claims, err := s.claims.ListByReport(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("list claims for report %s: %w", reportID, err)
	}
	return claims, nil
}

// ListReceived returns the claims filed against reports the user created,
// newest first.
func (s *ClaimService) ListReceived(ctx context.Context, ownerID int64) ([]domain.Claim, error) {
	claims, err := s.claims.ListByReportOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list received claims for user %d: %w", ownerID, err)
	}
	return claims, nil
}
