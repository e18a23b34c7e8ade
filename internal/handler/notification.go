package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/foodshare/backend/internal/domain"
	"github.com/foodshare/backend/internal/service"
)

// NotificationHandler handles the in-app notification inbox.
type NotificationHandler struct {
	notifications service.NotificationStore
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notifications service.NotificationStore) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List returns the caller's notifications, newest first, with the
// unread count.
func (h *NotificationHandler) List(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}
	ctx := c.Request().Context()

	list, err := h.notifications.ListByUser(ctx, claims.UserID)
	if err != nil {
		return err
	}
	unread, err := h.notifications.CountUnread(ctx, claims.UserID)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, map[string]any{
		"notifications": list,
		"unread_count":  unread,
	})
}

// MarkRead marks one of the caller's notifications as read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.Request().Context(), id, claims.UserID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAllRead marks the caller's whole inbox as read.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}
	if err := h.notifications.MarkAllRead(c.Request().Context(), claims.UserID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
