package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sumire/lostfound/internal/domain"
	"github.com/sumire/lostfound/internal/service"
)

const notifyDelayedWarning = "the report owner could not be notified yet; delivery will be retried"

// ClaimHandler serves claim and return requests.
type ClaimHandler struct {
	claims *service.ClaimService
}

// NewClaimHandler creates a new ClaimHandler.
func NewClaimHandler(claims *service.ClaimService) *ClaimHandler {
	return &ClaimHandler{claims: claims}
}

type createClaimRequest struct {
	ReportID  string   `json:"report_id" validate:"required"`
	Message   string   `json:"message"`
	ImageURLs []string `json:"image_urls" validate:"max=8,dive,required"`
}

type claimResponse struct {
	Claim        domain.Claim         `json:"claim"`
	Notification *domain.Notification `json:"notification,omitempty"`
}

// Create files a claim (on a found report) or a return offer (on a lost one).
func (h *ClaimHandler) Create(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req createClaimRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	reportID, err := uuid.Parse(strings.TrimSpace(req.ReportID))
	if err != nil {
		return domain.NewValidationError("report_id", "must be a UUID")
	}

	outcome, err := h.claims.Create(c.Request().Context(), service.CreateClaimInput{
		RequesterID: userID,
		ReportID:    reportID,
		Message:     req.Message,
		ImageURLs:   req.ImageURLs,
	})
	if err != nil {
		return err
	}

	resp := claimResponse{Claim: outcome.Claim, Notification: outcome.Notification}
	if outcome.NotifyErr != nil {
		return JSONWithMeta(c, http.StatusCreated, resp, Meta{Warnings: []string{notifyDelayedWarning}})
	}
	return JSON(c, http.StatusCreated, resp)
}

// Received lists claims on the caller's reports, newest first.
func (h *ClaimHandler) Received(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	claims, err := h.claims.ListReceived(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return JSONWithMeta(c, http.StatusOK, claims, Meta{Total: len(claims)})
}
