package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/preschool-social/backend/internal/services"
)

// SearchHandler handles free-text search
type SearchHandler struct {
	search *services.SearchService
}

// NewSearchHandler creates a new SearchHandler
func NewSearchHandler(search *services.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// RegisterSearchRoutes registers search routes
func (h *SearchHandler) RegisterSearchRoutes(g *echo.Group) {
	g.GET("/search", h.Search)
}

// Search matches ?q= against teacher names and handles, project titles and share text
func (h *SearchHandler) Search(c echo.Context) error {
	results, err := h.search.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, results)
}
