package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/preschool-social/backend/internal/services"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	profiles *services.ProfileService
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(profiles *services.ProfileService) *FollowHandler {
	return &FollowHandler{profiles: profiles}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
}

// FollowUser follows a teacher and returns the caller's updated profile.
// Following someone already followed is not an error.
func (h *FollowHandler) FollowUser(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.profiles.Follow(ctx, uid, c.Param("id")); err != nil {
		return err
	}

	profile, err := h.profiles.GetProfile(ctx, uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// UnfollowUser removes the follow edge in both directions' sets
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.profiles.Unfollow(ctx, uid, c.Param("id")); err != nil {
		return err
	}

	profile, err := h.profiles.GetProfile(ctx, uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}
