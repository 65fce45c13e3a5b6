package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/preschool-social/backend/internal/session"
)

// Authenticator turns a bearer token into the session of its identity
type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (*session.Session, error)
}

// AuthMiddleware verifies the bearer token (a session token or an identity provider ID token)
// and stores the resulting session in the request context. Browsers cannot set headers on
// WebSocket upgrades, so a "token" query parameter is accepted there.
func AuthMiddleware(authenticator Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c)
			if err != nil {
				return err
			}

			sess, err := authenticator.Authenticate(c.Request().Context(), token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token").SetInternal(err)
			}

			c.SetRequest(c.Request().WithContext(session.NewContext(c.Request().Context(), sess)))
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		if token := c.QueryParam("token"); token != "" && isUpgrade(c.Request()) {
			return token, nil
		}
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is missing")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Authorization header must be in Bearer format")
	}
	return strings.TrimSpace(parts[1]), nil
}

func isUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
