package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sumire/lostfound/internal/domain"
	"github.com/sumire/lostfound/internal/service"
)

// NotificationHandler serves the caller's inbox.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List returns the caller's notifications, newest first. A userId query
// naming anyone else is rejected.
func (h *NotificationHandler) List(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	if raw := c.QueryParam("userId"); raw != "" {
		asked, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return domain.NewValidationError("userId", "must be an integer")
		}
		if asked != userID {
			return domain.ErrForbidden
		}
	}

	ctx := c.Request().Context()
	list, err := h.notifications.ListForUser(ctx, userID)
	if err != nil {
		return err
	}

	unread := 0
	for _, n := range list {
		if !n.Read {
			unread++
		}
	}

	return JSONWithMeta(c, http.StatusOK, list, Meta{Total: len(list), Unread: &unread})
}

// UnreadCount returns the inbox badge count.
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	n, err := h.notifications.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, map[string]int{"unread": n})
}

// MarkRead marks one notification read. Repeating it is harmless.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	n, err := h.notifications.MarkRead(c.Request().Context(), id, userID)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, n)
}

// Delete removes a notification from the caller's inbox.
func (h *NotificationHandler) Delete(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.notifications.Delete(c.Request().Context(), id, userID); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
