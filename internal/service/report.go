package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/sumire/lostfound/internal/domain"
	"github.com/sumire/lostfound/internal/match"
)

const (
	maxTitleLen       = 120
	maxDescriptionLen = 2000
	maxTags           = 10
	maxImages         = 8
	// occurrence times may lead the server clock by this much
	futureSkew = 24 * time.Hour
)

var tagRx = regexp.MustCompile(`^[\p{L}\p{N} &_,'\-]{1,48}$`)

// ReportPolicy holds the configurable report rules.
type ReportPolicy struct {
	RequireImageForFound bool
}

// ReportService manages the report lifecycle: creation, listing, matching,
// resolution and archival.
type ReportService struct {
	reports ReportStore
	policy  ReportPolicy
	now     func() time.Time
}

// NewReportService creates a new ReportService.
func NewReportService(reports ReportStore, policy ReportPolicy) *ReportService {
	return &ReportService{
		reports: reports,
		policy:  policy,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateReportInput carries the fields a user submits for a new report.
type CreateReportInput struct {
	CreatorID   int64
	Kind        domain.ReportKind
	Title       string
	Description string
	LocationID  string
	OccurredAt  time.Time
	Tags        []string
	ImageURLs   []string
}

// CreatedReport is a newly stored report together with its current matches.
type CreatedReport struct {
	Report  domain.Report   `json:"report"`
	Matches []domain.Report `json:"matches"`
}

// Create validates and stores a report, then looks up its matches.
func (s *ReportService) Create(ctx context.Context, in CreateReportInput) (*CreatedReport, error) {
	report, err := s.buildReport(in)
	if err != nil {
		return nil, err
	}

	created, err := s.reports.Create(ctx, report)
	if err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	matches, err := s.matchesFor(ctx, *created)
	if err != nil {
		return nil, err
	}

	return &CreatedReport{Report: *created, Matches: matches}, nil
}

func (s *ReportService) buildReport(in CreateReportInput) (domain.Report, error) {
	if !in.Kind.Valid() {
		return domain.Report{}, domain.NewValidationError("kind", "must be lost or found")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Report{}, domain.NewValidationError("title", "title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return domain.Report{}, domain.NewValidationError("title", fmt.Sprintf("must be at most %d characters", maxTitleLen))
	}
	description := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return domain.Report{}, domain.NewValidationError("description", fmt.Sprintf("must be at most %d characters", maxDescriptionLen))
	}
	location := strings.TrimSpace(in.LocationID)
	if location == "" {
		return domain.Report{}, domain.NewValidationError("location_id", "location is required")
	}
	if in.OccurredAt.IsZero() {
		return domain.Report{}, domain.NewValidationError("occurred_at", "date is required")
	}
	if in.OccurredAt.After(s.now().Add(futureSkew)) {
		return domain.Report{}, domain.NewValidationError("occurred_at", "date cannot be in the future")
	}

	tags, err := cleanTags(in.Tags)
	if err != nil {
		return domain.Report{}, err
	}
	images, err := cleanImageURLs(in.ImageURLs)
	if err != nil {
		return domain.Report{}, err
	}
	if in.Kind == domain.ReportKindFound && s.policy.RequireImageForFound && len(images) == 0 {
		return domain.Report{}, domain.NewValidationError("image_urls", "image required for found reports")
	}

	return domain.Report{
		ID:          uuid.New(),
		Kind:        in.Kind,
		CreatorID:   in.CreatorID,
		Title:       title,
		Description: description,
		LocationID:  location,
		OccurredAt:  in.OccurredAt.UTC(),
		Tags:        tags,
		ImageURLs:   images,
		Status:      domain.ReportStatusActive,
	}, nil
}

func cleanTags(tags []string) ([]string, error) {
	if len(tags) > maxTags {
		return nil, domain.NewValidationError("tags", fmt.Sprintf("provide at most %d tags", maxTags))
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if !tagRx.MatchString(t) {
			return nil, domain.NewValidationError("tags", "invalid tag: "+t)
		}
		out = append(out, t)
	}
	return out, nil
}

func cleanImageURLs(urls []string) ([]string, error) {
	if len(urls) > maxImages {
		return nil, domain.NewValidationError("image_urls", fmt.Sprintf("provide at most %d images", maxImages))
	}
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			return nil, domain.NewValidationError("image_urls", "image URL must not be empty")
		}
		out = append(out, u)
	}
	return out, nil
}

// Get returns a report by id regardless of status.
func (s *ReportService) Get(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	return s.reports.FindByID(ctx, id)
}

// List returns reports matching filter. Archived reports are left out unless
// the filter asks for them.
func (s *ReportService) List(ctx context.Context, filter domain.ReportFilter) ([]domain.Report, error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, domain.NewValidationError("kind", "must be lost or found")
	}
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, domain.NewValidationError("status", "unknown status "+string(st))
		}
	}
	if len(filter.Statuses) == 0 {
		filter.Statuses = domain.DefaultStatuses()
	}
	reports, err := s.reports.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// Matches returns the current matches for a stored report.
func (s *ReportService) Matches(ctx context.Context, id uuid.UUID) ([]domain.Report, error) {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.matchesFor(ctx, *report)
}

// matchesFor loads the active counterpart reports sharing the report's
// category and runs them through a match index.
func (s *ReportService) matchesFor(ctx context.Context, report domain.Report) ([]domain.Report, error) {
	category, ok := report.Category()
	if !ok {
		return []domain.Report{}, nil
	}
	snapshot, err := s.reports.List(ctx, domain.ReportFilter{
		Kind:     report.Kind.Opposite(),
		Statuses: []domain.ReportStatus{domain.ReportStatusActive},
		Category: category,
	})
	if err != nil {
		return nil, fmt.Errorf("load match snapshot: %w", err)
	}
	matches := match.NewIndex(snapshot).Matches(report)
	if matches == nil {
		matches = []domain.Report{}
	}
	return matches, nil
}

// Archive moves a report out of default listings. Only the creator may
// archive, and archiving twice fails with domain.ErrInvalidState.
func (s *ReportService) Archive(ctx context.Context, id uuid.UUID, requesterID int64) (*domain.Report, error) {
	return s.transition(ctx, id, requesterID, domain.ReportStatusArchived)
}

// Resolve marks an active report as resolved. Only the creator may resolve.
func (s *ReportService) Resolve(ctx context.Context, id uuid.UUID, requesterID int64) (*domain.Report, error) {
	return s.transition(ctx, id, requesterID, domain.ReportStatusResolved)
}

func (s *ReportService) transition(ctx context.Context, id uuid.UUID, requesterID int64, next domain.ReportStatus) (*domain.Report, error) {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.CreatorID != requesterID {
		return nil, domain.ErrForbidden
	}

	updated, err := s.reports.TransitionStatus(ctx, id, next)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidState) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("set report %s status %s: %w", id, next, err)
	}
	return updated, nil
}
