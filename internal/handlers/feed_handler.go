package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/preschool-social/backend/internal/models"
	"github.com/anonto42/preschool-social/backend/internal/services"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	feed *services.FeedService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feed *services.FeedService) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed returns the caller's feed: their own items and those of everyone they follow,
// optionally narrowed with ?type=shares|projects|activities
func (h *FeedHandler) GetFeed(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return err
	}
	filter, err := feedFilterParam(c)
	if err != nil {
		return err
	}

	items, err := h.feed.ComposeFeed(c.Request().Context(), uid, filter, limitParam(c, 0, 200))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func feedFilterParam(c echo.Context) (models.FeedFilter, error) {
	filter, ok := models.ParseFeedFilter(c.QueryParam("type"))
	if !ok {
		return "", echo.NewHTTPError(http.StatusBadRequest, "type must be one of all, shares, projects, activities")
	}
	return filter, nil
}
