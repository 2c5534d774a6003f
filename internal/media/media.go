// Package media persists processed upload images under a shared directory.
// Items reference stored files as /images/<filename>; deletion is
// best-effort cleanup, never tied transactionally to the database row.
package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/tdk-bwcb/campus-lost-found-market/internal/imaging"
)

// ErrUnsupportedType is returned for uploads outside the extension
// allow-list (jpg, jpeg, png, webp).
var ErrUnsupportedType = errors.New("unsupported file type")

// WebPrefix is the URL path uploaded images are served under.
const WebPrefix = "/images/"

// Store writes letterboxed images into an upload directory.
type Store struct {
	dir  string
	opts imaging.Options
}

// NewStore creates the upload directory if needed and returns a store.
func NewStore(dir string, opts imaging.Options) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Store{dir: dir, opts: opts}, nil
}

// Dir returns the upload directory path.
func (s *Store) Dir() string {
	return s.dir
}

// SaveUpload validates the filename against the allow-list, letterboxes the
// image to the configured box, and writes it under a sanitized unique name.
// Returns the web path (/images/<name>) to store on the item.
func (s *Store) SaveUpload(r io.Reader, originalName string) (string, error) {
	if !imaging.AllowedExtension(originalName) {
		return "", fmt.Errorf("%w: only JPG, JPEG, PNG and WEBP are allowed", ErrUnsupportedType)
	}

	data, err := imaging.Letterbox(r, s.opts)
	if err != nil {
		return "", err
	}

	// Output is always JPEG regardless of the source format.
	name := uuid.NewString()[:8] + "_" + sanitizeFilename(originalName)
	name = strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"

	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("writing image file: %w", err)
	}

	return WebPrefix + name, nil
}

// Delete removes a stored image by its web path. Missing files are not an
// error; cleanup is best-effort.
func (s *Store) Delete(webPath string) error {
	if webPath == "" {
		return nil
	}
	name := path.Base(webPath)
	if name == "." || name == "/" {
		return nil
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing image file: %w", err)
	}
	return nil
}

// FilePath resolves a stored image's filename to its on-disk path, rejecting
// anything that escapes the upload directory.
func (s *Store) FilePath(name string) (string, bool) {
	if name == "" || name != path.Base(name) || strings.HasPrefix(name, ".") {
		return "", false
	}
	return filepath.Join(s.dir, name), true
}

// sanitizeFilename keeps only filesystem-safe characters of the base name.
func sanitizeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" || strings.Trim(out, "._") == "" {
		out = "upload.jpg"
	}
	return out
}
