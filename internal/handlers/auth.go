package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/preschool-social/backend/internal/models"
	"github.com/anonto42/preschool-social/backend/internal/services"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	identity *services.IdentityService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(identity *services.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
}

// AuthResponse carries the session token and the profile it belongs to
type AuthResponse struct {
	Token   string          `json:"token"`
	Profile *models.Profile `json:"profile"`
}

// Register creates the profile of an identity that just signed up with the identity provider
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	profile, token, err := h.identity.Register(c.Request().Context(), req.IDToken, req.DisplayName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, AuthResponse{Token: token, Profile: profile})
}

// Login exchanges an identity provider ID token for a session token
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	profile, token, err := h.identity.Login(c.Request().Context(), req.IDToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AuthResponse{Token: token, Profile: profile})
}
