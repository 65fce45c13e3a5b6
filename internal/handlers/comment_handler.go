package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/preschool-social/backend/internal/models"
	"github.com/anonto42/preschool-social/backend/internal/services"
)

// CommentHandler handles comment-related HTTP requests
type CommentHandler struct {
	interactions *services.InteractionService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(interactions *services.InteractionService) *CommentHandler {
	return &CommentHandler{interactions: interactions}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.GET("/content/:kind/:id/comments", h.GetComments)
	g.POST("/content/:kind/:id/comments", h.CreateComment)
}

// CreateComment appends a comment and returns the item's full comment list, oldest first
func (h *CommentHandler) CreateComment(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return err
	}
	kind, err := kindParam(c)
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comments, err := h.interactions.AddComment(c.Request().Context(), kind, c.Param("id"), uid, req.Body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, comments)
}

func (h *CommentHandler) GetComments(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}

	comments, err := h.interactions.ListComments(c.Request().Context(), kind, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comments)
}
