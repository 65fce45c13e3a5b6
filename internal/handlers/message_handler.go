package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/preschool-social/backend/internal/models"
	"github.com/anonto42/preschool-social/backend/internal/services"
)

// MessageHandler handles direct messaging HTTP requests
type MessageHandler struct {
	messaging *services.MessagingService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messaging *services.MessagingService) *MessageHandler {
	return &MessageHandler{messaging: messaging}
}

// RegisterMessageRoutes registers messaging routes
func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	g.GET("/contacts", h.GetContacts)
	g.GET("/messages/unread-count", h.GetUnreadCount)
	g.GET("/messages/:userId", h.GetThread)
	g.POST("/messages/:userId", h.SendMessage)
}

// GetContacts lists everyone the caller follows or is followed by, sorted by display name
func (h *MessageHandler) GetContacts(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return err
	}

	contacts, err := h.messaging.ListContacts(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, compactAll(contacts))
}

// GetThread returns the conversation with userId oldest first and marks the incoming half read
func (h *MessageHandler) GetThread(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	other := c.Param("userId")
	if _, err := h.messaging.MarkThreadRead(ctx, uid, other); err != nil {
		return err
	}
	thread, err := h.messaging.Thread(ctx, uid, other)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, thread)
}

func (h *MessageHandler) SendMessage(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return err
	}

	var req models.SendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.messaging.SendMessage(c.Request().Context(), uid, c.Param("userId"), req.Body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) GetUnreadCount(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return err
	}

	count, err := h.messaging.UnreadCount(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"unread_count": count})
}
