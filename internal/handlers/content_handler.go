package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/preschool-social/backend/internal/models"
	"github.com/anonto42/preschool-social/backend/internal/services"
)

// ContentHandler handles HTTP requests on shares, projects and activities
type ContentHandler struct {
	content *services.ContentService
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(content *services.ContentService) *ContentHandler {
	return &ContentHandler{content: content}
}

// RegisterContentRoutes registers content-related routes
func (h *ContentHandler) RegisterContentRoutes(g *echo.Group) {
	g.GET("/content/:kind", h.GetRecent)
	g.POST("/content/:kind", h.CreateItem)
	g.GET("/content/:kind/:id", h.GetItem)
	g.DELETE("/content/:kind/:id", h.DeleteItem)
}

// CreateItem binds the body shape of the requested kind and stores it under the caller's identity
func (h *ContentHandler) CreateItem(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return err
	}
	kind, err := kindParam(c)
	if err != nil {
		return err
	}

	item := &models.ContentItem{Kind: kind}
	switch kind {
	case models.KindShare:
		item.Share = &models.ShareBody{}
		err = bindAndValidate(c, item.Share)
	case models.KindProject:
		item.Project = &models.ProjectBody{}
		err = bindAndValidate(c, item.Project)
	case models.KindActivity:
		item.Activity = &models.ActivityBody{}
		err = bindAndValidate(c, item.Activity)
	}
	if err != nil {
		return err
	}

	created, err := h.content.Create(c.Request().Context(), uid, item)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *ContentHandler) GetItem(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}

	item, err := h.content.Get(c.Request().Context(), kind, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

// GetRecent lists the newest items of one collection
func (h *ContentHandler) GetRecent(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}

	items, err := h.content.Recent(c.Request().Context(), kind, limitParam(c, 50, 200))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// DeleteItem removes an item; only its author may do so
func (h *ContentHandler) DeleteItem(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return err
	}
	kind, err := kindParam(c)
	if err != nil {
		return err
	}

	if err := h.content.Delete(c.Request().Context(), kind, c.Param("id"), uid); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
