package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// allowedScreenshotExts are the accepted image file extensions.
var allowedScreenshotExts = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// UploadHandler stores screenshot uploads and hands back stable URLs for the
// editor to attach to steps.
type UploadHandler struct {
	uploadDir string
	maxBytes  int64
}

// NewUploadHandler creates an UploadHandler writing into uploadDir and
// rejecting files larger than maxBytes. The directory is created if missing.
func NewUploadHandler(uploadDir string, maxBytes int64) (*UploadHandler, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &UploadHandler{uploadDir: uploadDir, maxBytes: maxBytes}, nil
}

// RegisterUploadRoutes registers the screenshot upload route
func (h *UploadHandler) RegisterUploadRoutes(g *echo.Group) {
	g.POST("/tours/upload", h.UploadScreenshot)
}

// UploadScreenshot accepts a multipart screenshot, enforces the size cap and
// image-only extension filter, and returns the stored file's URL. A rejected
// upload changes nothing on disk.
func (h *UploadHandler) UploadScreenshot(c echo.Context) error {
	file, err := c.FormFile("screenshot")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file uploaded")
	}

	if file.Size > h.maxBytes {
		return echo.NewHTTPError(http.StatusBadRequest, "File exceeds the upload size limit")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedScreenshotExts[ext] {
		return echo.NewHTTPError(http.StatusBadRequest, "Only image files are allowed")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read uploaded file")
	}
	defer src.Close()

	filename := fmt.Sprintf("screenshot-%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), ext)
	dst, err := os.Create(filepath.Join(h.uploadDir, filename))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to store uploaded file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(src, h.maxBytes)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to store uploaded file")
	}

	return c.JSON(http.StatusOK, echo.Map{"url": "/uploads/" + filename})
}
