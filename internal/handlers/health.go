package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports whether the backing stores answer
type HealthHandler struct {
	checks map[string]func(ctx context.Context) error
}

// NewHealthHandler creates a HealthHandler running checks, keyed by store name
func NewHealthHandler(checks map[string]func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// HealthCheck answers 200 when every check passes and 503 otherwise
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	stores := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			stores[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		stores[name] = "ok"
	}

	body := map[string]interface{}{
		"status":  "healthy",
		"service": "preschool-social",
		"stores":  stores,
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	return c.JSON(status, body)
}
