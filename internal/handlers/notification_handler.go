package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/preschool-social/backend/internal/models"
	"github.com/anonto42/preschool-social/backend/internal/services"
)

// NotificationHandler handles notification and push device HTTP requests
type NotificationHandler struct {
	notifications *services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// RegisterNotificationRoutes registers notification-related routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.POST("/notifications/read", h.MarkAsRead)
	g.DELETE("/notifications/:id", h.DeleteNotification)
	g.DELETE("/notifications", h.ClearNotifications)
	g.POST("/devices", h.RegisterDevice)
	g.DELETE("/devices/:token", h.UnregisterDevice)
}

// GetNotifications lists the caller's notifications, newest first. Listing does not mark them read.
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return err
	}

	notifications, err := h.notifications.List(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return err
	}

	count, err := h.notifications.UnreadCount(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"unread_count": count})
}

// MarkAsRead flips the listed notifications to read, or all of them when no ids are sent
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return err
	}

	var req models.MarkReadRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	changed, err := h.notifications.MarkRead(c.Request().Context(), uid, req.IDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"updated": changed})
}

func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return err
	}

	if err := h.notifications.Dismiss(c.Request().Context(), uid, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *NotificationHandler) ClearNotifications(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return err
	}

	if err := h.notifications.ClearAll(c.Request().Context(), uid); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// RegisterDevice stores a push token for the caller; a token seen before moves to the caller
func (h *NotificationHandler) RegisterDevice(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return err
	}

	var req models.RegisterDeviceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.notifications.RegisterDevice(c.Request().Context(), uid, req.Token); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *NotificationHandler) UnregisterDevice(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return err
	}

	if err := h.notifications.UnregisterDevice(c.Request().Context(), uid, c.Param("token")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
