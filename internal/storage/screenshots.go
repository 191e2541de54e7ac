// Package storage persists payment screenshots as retrievable resources.
package storage

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/upikart/upikart/internal/models"
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ScreenshotStore writes uploads to a directory with generated names and
// serves them back by filename. Uploads are re-validated server-side: size
// ceiling and image content sniffing, regardless of what the client claimed.
type ScreenshotStore struct {
	dir      string
	maxBytes int64
}

func NewScreenshotStore(dir string, maxBytes int64) (*ScreenshotStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("screenshot directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	return &ScreenshotStore{dir: dir, maxBytes: maxBytes}, nil
}

// Save validates and stores an uploaded screenshot, returning the generated
// filename.
func (s *ScreenshotStore) Save(r io.Reader) (string, error) {
	// Read one byte past the ceiling to detect oversized uploads.
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read screenshot: %w", err)
	}
	if len(data) == 0 {
		return "", models.Validationf("screenshot is required")
	}
	if int64(len(data)) > s.maxBytes {
		return "", models.Validationf("screenshot exceeds %d bytes", s.maxBytes)
	}

	contentType := http.DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok {
		return "", models.Validationf("screenshot must be a JPEG, PNG, or WebP image")
	}

	filename := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to store screenshot: %w", err)
	}
	return filename, nil
}

// Open returns the stored screenshot and its content type. The filename is
// reduced to its base to keep reads inside the store directory.
func (s *ScreenshotStore) Open(filename string) (io.ReadCloser, string, error) {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "." || base == string(filepath.Separator) || base != filename {
		return nil, "", models.Validationf("invalid screenshot filename")
	}

	f, err := os.Open(filepath.Join(s.dir, base))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("%w: screenshot %s", models.ErrNotFound, base)
		}
		return nil, "", fmt.Errorf("failed to open screenshot: %w", err)
	}

	contentType := "application/octet-stream"
	for ct, ext := range extensions {
		if strings.HasSuffix(base, ext) {
			contentType = ct
			break
		}
	}
	return f, contentType, nil
}
