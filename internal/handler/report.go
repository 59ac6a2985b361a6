package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sumire/lostfound/internal/domain"
	"github.com/sumire/lostfound/internal/service"
)

// ReportHandler serves the report feed and the report lifecycle.
type ReportHandler struct {
	reports *service.ReportService
	claims  *service.ClaimService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reports *service.ReportService, claims *service.ClaimService) *ReportHandler {
	return &ReportHandler{reports: reports, claims: claims}
}

type createReportRequest struct {
	Kind        string   `json:"kind" validate:"required,report_kind"`
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	LocationID  string   `json:"location_id" validate:"required"`
	OccurredAt  string   `json:"occurred_at" validate:"required"`
	Tags        []string `json:"tags" validate:"required,min=1,max=10"`
	ImageURLs   []string `json:"image_urls" validate:"max=8,dive,required"`
}

// Create stores a new report and returns it with its current matches.
func (h *ReportHandler) Create(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req createReportRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	occurredAt, err := parseOccurredAt(req.OccurredAt)
	if err != nil {
		return err
	}

	created, err := h.reports.Create(c.Request().Context(), service.CreateReportInput{
		CreatorID:   userID,
		Kind:        domain.ReportKind(req.Kind),
		Title:       req.Title,
		Description: req.Description,
		LocationID:  req.LocationID,
		OccurredAt:  occurredAt,
		Tags:        req.Tags,
		ImageURLs:   req.ImageURLs,
	})
	if err != nil {
		return err
	}

	return JSON(c, http.StatusCreated, created)
}

// parseOccurredAt accepts an RFC 3339 timestamp or a bare date, read as
// midnight UTC.
func parseOccurredAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Time{}, domain.NewValidationError("occurred_at", "must be an RFC 3339 timestamp or a YYYY-MM-DD date")
}

// List returns the report feed. mine=true restricts it to the caller's reports.
func (h *ReportHandler) List(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	limit, err := limitParam(c)
	if err != nil {
		return err
	}

	filter := domain.ReportFilter{
		Kind:     domain.ReportKind(strings.ToLower(c.QueryParam("kind"))),
		Category: strings.TrimSpace(c.QueryParam("category")),
		Query:    strings.TrimSpace(c.QueryParam("q")),
		Limit:    limit,
	}
	for _, st := range csvParam(c, "status") {
		filter.Statuses = append(filter.Statuses, domain.ReportStatus(strings.ToLower(st)))
	}
	if c.QueryParam("mine") == "true" {
		filter.CreatorID = userID
	}

	reports, err := h.reports.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	return JSONWithMeta(c, http.StatusOK, reports, Meta{Total: len(reports)})
}

// Get returns one report, archived ones included.
func (h *ReportHandler) Get(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	report, err := h.reports.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, report)
}

// Matches returns the active opposite-kind reports matching a report.
func (h *ReportHandler) Matches(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	matches, err := h.reports.Matches(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return JSONWithMeta(c, http.StatusOK, matches, Meta{Total: len(matches)})
}

// Archive hides a report from the feed. Only the creator may archive.
func (h *ReportHandler) Archive(c echo.Context) error {
	return h.transition(c, h.reports.Archive)
}

// Resolve marks a report as reunited with its owner.
func (h *ReportHandler) Resolve(c echo.Context) error {
	return h.transition(c, h.reports.Resolve)
}

type transitionFunc func(ctx context.Context, id uuid.UUID, requesterID int64) (*domain.Report, error)

func (h *ReportHandler) transition(c echo.Context, fn transitionFunc) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	report, err := fn(c.Request().Context(), id, userID)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, report)
}

// Claims lists the claims filed against a report. Only the creator may see them.
func (h *ReportHandler) Claims(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	claims, err := h.claims.ListByReport(c.Request().Context(), id, userID)
	if err != nil {
		return err
	}

	return JSONWithMeta(c, http.StatusOK, claims, Meta{Total: len(claims)})
}
