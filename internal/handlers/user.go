package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/preschool-social/backend/internal/models"
	"github.com/anonto42/preschool-social/backend/internal/services"
)

// UserHandler handles HTTP requests related to profiles
type UserHandler struct {
	identity *services.IdentityService
	profiles *services.ProfileService
	content  *services.ContentService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(identity *services.IdentityService, profiles *services.ProfileService, content *services.ContentService) *UserHandler {
	return &UserHandler{identity: identity, profiles: profiles, content: content}
}

// RegisterProfileRoutes registers profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PATCH("/profile", h.UpdateProfile)
	g.PUT("/profile/complete", h.CompleteProfile)
	g.GET("/users/:id", h.GetUser)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
	g.GET("/users/:id/content/:kind", h.GetUserContent)
}

// GetProfile returns the signed-in identity's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	profile, err := h.identity.Current(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// UpdateProfile merges the non-empty request fields into the stored profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return err
	}

	var req models.UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	profile, err := h.profiles.UpdateProfile(c.Request().Context(), uid, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// CompleteProfile records the mandatory bio, location and avatar
func (h *UserHandler) CompleteProfile(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return err
	}

	var req models.CompleteProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	profile, err := h.profiles.CompleteProfile(c.Request().Context(), uid, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// GetUser returns another teacher's profile
func (h *UserHandler) GetUser(c echo.Context) error {
	profile, err := h.profiles.GetProfile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) GetFollowers(c echo.Context) error {
	followers, err := h.profiles.ListFollowers(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, compactAll(followers))
}

func (h *UserHandler) GetFollowing(c echo.Context) error {
	following, err := h.profiles.ListFollowing(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, compactAll(following))
}

// GetUserContent lists one collection filtered to a single author, newest first
func (h *UserHandler) GetUserContent(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}

	items, err := h.content.ListByAuthor(c.Request().Context(), kind, c.Param("id"), limitParam(c, 50, 200))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func compactAll(profiles []models.Profile) []models.ProfileCompact {
	out := make([]models.ProfileCompact, 0, len(profiles))
	for i := range profiles {
		out = append(out, profiles[i].ToCompact())
	}
	return out
}
