package storage

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/upikart/upikart/internal/models"
)

// Minimal valid headers that http.DetectContentType recognizes.
var (
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	pngHeader  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
)

func newTestStore(t *testing.T, maxBytes int64) *ScreenshotStore {
	t.Helper()
	store, err := NewScreenshotStore(t.TempDir(), maxBytes)
	if err != nil {
		t.Fatalf("NewScreenshotStore() failed: %v", err)
	}
	return store
}

func TestSaveAndOpenRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, 5<<20)
	payload := append(append([]byte{}, jpegHeader...), bytes.Repeat([]byte{0xAB}, 2<<20)...)

	filename, err := store.Save(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if !strings.HasSuffix(filename, ".jpg") {
		t.Fatalf("filename = %q, want .jpg suffix", filename)
	}

	reader, contentType, err := store.Open(filename)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer reader.Close()

	if contentType != "image/jpeg" {
		t.Fatalf("content type = %q, want image/jpeg", contentType)
	}
	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("stored bytes differ from upload")
	}
}

func TestSaveRejectsOversized(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, 1024)
	payload := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0x01}, 2048)...)

	_, err := store.Save(bytes.NewReader(payload))
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("oversized upload: got %v, want ErrValidation", err)
	}
}

func TestSaveRejectsNonImage(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, 1024)
	_, err := store.Save(strings.NewReader("definitely a PDF"))
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("non-image upload: got %v, want ErrValidation", err)
	}
}

func TestSaveRejectsEmpty(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, 1024)
	_, err := store.Save(bytes.NewReader(nil))
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("empty upload: got %v, want ErrValidation", err)
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, 1024)
	if _, _, err := store.Open("../secrets.txt"); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("traversal: got %v, want ErrValidation", err)
	}
	if _, _, err := store.Open("missing.png"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("missing file: got %v, want ErrNotFound", err)
	}
}
