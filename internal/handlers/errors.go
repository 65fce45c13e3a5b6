package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/anonto42/preschool-social/backend/internal/models"
	"github.com/anonto42/preschool-social/backend/internal/repositories"
	"github.com/anonto42/preschool-social/backend/internal/services"
	"github.com/anonto42/preschool-social/backend/internal/validators"
	"github.com/anonto42/preschool-social/backend/pkg/logger"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string            `json:"error"`
	Fields    map[string]string `json:"fields,omitempty"`
	Retryable bool              `json:"retryable,omitempty"`
}

var statusByError = []struct {
	err    error
	status int
}{
	{services.ErrNotFound, http.StatusNotFound},
	{services.ErrNotAuthenticated, http.StatusUnauthorized},
	{services.ErrInvalidToken, http.StatusUnauthorized},
	{services.ErrForbidden, http.StatusForbidden},
	{services.ErrProfileIncomplete, http.StatusForbidden},
	{services.ErrAlreadyLiked, http.StatusConflict},
	{services.ErrNotLiked, http.StatusConflict},
	{repositories.ErrConflict, http.StatusConflict},
	{services.ErrEmptyBody, http.StatusBadRequest},
	{services.ErrSelfFollow, http.StatusBadRequest},
	{services.ErrInvalidKind, http.StatusBadRequest},
	{services.ErrInvalidFolder, http.StatusBadRequest},
}

// NewHTTPErrorHandler renders service and repository errors with their HTTP status.
// Unexpected errors are logged and answered with a generic 500.
func NewHTTPErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := renderError(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Warn("failed to write error response", zap.Error(err))
		}
	}
}

func renderError(err error) (int, ErrorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		return he.Code, ErrorResponse{Error: msg}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return http.StatusBadRequest, ErrorResponse{Error: "validation failed", Fields: validators.Fields(verrs)}
	}

	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status, ErrorResponse{Error: m.err.Error()}
		}
	}

	if repositories.IsTransient(err) {
		return http.StatusServiceUnavailable, ErrorResponse{Error: "store unavailable, try again", Retryable: true}
	}
	return http.StatusInternalServerError, ErrorResponse{Error: http.StatusText(http.StatusInternalServerError)}
}

// currentUID is the identity the auth middleware attached to the request.
func currentUID(c echo.Context) (string, error) {
	return services.CurrentUID(c.Request().Context())
}

func kindParam(c echo.Context) (models.ContentKind, error) {
	kind, ok := models.ParseKind(c.Param("kind"))
	if !ok {
		return "", services.ErrInvalidKind
	}
	return kind, nil
}

// limitParam reads ?limit=, falling back to def and capping at ceiling.
func limitParam(c echo.Context, def, ceiling int) int {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit < 1 {
		return def
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}

// bindAndValidate binds the request body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
	}
	return c.Validate(req)
}
