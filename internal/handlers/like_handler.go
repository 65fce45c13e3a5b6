package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/preschool-social/backend/internal/models"
	"github.com/anonto42/preschool-social/backend/internal/services"
)

// LikeHandler handles like/unlike HTTP requests
type LikeHandler struct {
	interactions *services.InteractionService
	content      *services.ContentService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(interactions *services.InteractionService, content *services.ContentService) *LikeHandler {
	return &LikeHandler{interactions: interactions, content: content}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/content/:kind/:id/likes", h.LikeItem)
	g.DELETE("/content/:kind/:id/likes", h.UnlikeItem)
	g.GET("/content/:kind/:id/likes/status", h.GetLikeStatus)
}

// LikeStatus is the caller's like state on one item
type LikeStatus struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

// LikeItem likes an item; liking it twice is a conflict
func (h *LikeHandler) LikeItem(c echo.Context) error {
	uid, kind, err := h.target(c)
	if err != nil {
		return err
	}

	item, err := h.interactions.Like(c.Request().Context(), kind, c.Param("id"), uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

// UnlikeItem removes the caller's like
func (h *LikeHandler) UnlikeItem(c echo.Context) error {
	uid, kind, err := h.target(c)
	if err != nil {
		return err
	}

	item, err := h.interactions.Unlike(c.Request().Context(), kind, c.Param("id"), uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

// GetLikeStatus reports whether the caller likes the item, with its current count
func (h *LikeHandler) GetLikeStatus(c echo.Context) error {
	uid, kind, err := h.target(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	liked, err := h.interactions.HasLiked(ctx, kind, c.Param("id"), uid)
	if err != nil {
		return err
	}
	item, err := h.content.Get(ctx, kind, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, LikeStatus{Liked: liked, LikeCount: item.LikeCount})
}

func (h *LikeHandler) target(c echo.Context) (string, models.ContentKind, error) {
	uid, err := currentUID(c)
	if err != nil {
		return "", "", err
	}
	kind, err := kindParam(c)
	if err != nil {
		return "", "", err
	}
	return uid, kind, nil
}
