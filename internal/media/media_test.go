package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tdk-bwcb/campus-lost-found-market/internal/imaging"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), imaging.Options{Width: 200, Height: 150, Quality: 85})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func testImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{80, 120, 200, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func TestSaveUploadRoundTrip(t *testing.T) {
	store := testStore(t)
	data := testImage(t, 90, 400) // non-square source

	webPath, err := store.SaveUpload(bytes.NewReader(data), "my photo.jpeg")
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	if !strings.HasPrefix(webPath, WebPrefix) {
		t.Errorf("expected web path under %s, got %q", WebPrefix, webPath)
	}
	if !strings.HasSuffix(webPath, ".jpg") {
		t.Errorf("expected .jpg output, got %q", webPath)
	}

	// The stored file decodes to exactly the configured target box.
	onDisk, ok := store.FilePath(strings.TrimPrefix(webPath, WebPrefix))
	if !ok {
		t.Fatalf("FilePath rejected %q", webPath)
	}
	raw, err := os.ReadFile(onDisk)
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decoding stored file: %v", err)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 150 {
		t.Errorf("expected 200x150 letterboxed image, got %dx%d",
			img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestSaveUploadRejectsDisallowedExtension(t *testing.T) {
	store := testStore(t)

	_, err := store.SaveUpload(bytes.NewReader(testImage(t, 10, 10)), "cat.gif")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}

	entries, _ := os.ReadDir(store.Dir())
	if len(entries) != 0 {
		t.Errorf("rejected upload must not write files, found %d", len(entries))
	}
}

func TestSaveUploadSanitizesFilename(t *testing.T) {
	store := testStore(t)

	webPath, err := store.SaveUpload(bytes.NewReader(testImage(t, 20, 20)), "../../etc/pass wd!.png")
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	name := strings.TrimPrefix(webPath, WebPrefix)
	if strings.ContainsAny(name, "/\\ !") {
		t.Errorf("filename not sanitized: %q", name)
	}

	if _, err := os.Stat(filepath.Join(store.Dir(), name)); err != nil {
		t.Errorf("expected sanitized file inside upload dir: %v", err)
	}
}

func TestDeleteIsBestEffort(t *testing.T) {
	store := testStore(t)

	webPath, _ := store.SaveUpload(bytes.NewReader(testImage(t, 20, 20)), "photo.jpg")
	if err := store.Delete(webPath); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// Deleting again (file already gone) and deleting nothing are no-ops.
	if err := store.Delete(webPath); err != nil {
		t.Errorf("Delete of missing file should be a no-op, got %v", err)
	}
	if err := store.Delete(""); err != nil {
		t.Errorf("Delete of empty path should be a no-op, got %v", err)
	}
}

func TestFilePathRejectsTraversal(t *testing.T) {
	store := testStore(t)

	for _, name := range []string{"../secret", ".hidden", "a/b.jpg", ""} {
		if _, ok := store.FilePath(name); ok {
			t.Errorf("FilePath(%q) should be rejected", name)
		}
	}
}
