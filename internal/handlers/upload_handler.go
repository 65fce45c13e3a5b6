package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/preschool-social/backend/internal/services"
)

// MaxUploadBytes bounds a single uploaded picture.
const MaxUploadBytes = 10 << 20

// UploadHandler accepts picture uploads for shares, projects, activities and avatars
type UploadHandler struct {
	blobs services.BlobStore
}

// NewUploadHandler creates a new UploadHandler. blobs may be nil when no bucket is configured.
func NewUploadHandler(blobs services.BlobStore) *UploadHandler {
	return &UploadHandler{blobs: blobs}
}

// RegisterUploadRoutes registers upload routes
func (h *UploadHandler) RegisterUploadRoutes(g *echo.Group) {
	g.POST("/uploads/:folder", h.Upload)
}

// Upload stores the multipart "file" field and returns its download URL
func (h *UploadHandler) Upload(c echo.Context) error {
	if h.blobs == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Uploads are not configured")
	}
	folder := c.Param("folder")
	if !services.ValidFolder(folder) {
		return services.ErrInvalidFolder
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Multipart field \"file\" is required").SetInternal(err)
	}
	if fh.Size > MaxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File is too large")
	}
	contentType := fh.Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, "image/") {
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, "Only images can be uploaded")
	}

	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	url, err := h.blobs.Upload(c.Request().Context(), folder, fh.Filename, contentType, src)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]string{"url": url})
}
