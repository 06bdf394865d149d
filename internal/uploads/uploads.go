// Package uploads stores uploaded images on local disk under a dedicated
// directory. Saved files are named {sanitized_prefix}_{timestamp}_{index}{ext}
// and only the filename, not the full path, is recorded on the profile, so
// serving resolves names against the fixed upload directory.
package uploads

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/creatornet/creatornet/internal/validate"
)

const timestampLayout = "20060102_150405"

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// File is one incoming upload: its client-side name (used only for the
// extension) and its content.
type File struct {
	Name   string
	Reader io.Reader
}

// Saver writes uploads into a fixed directory.
type Saver struct {
	dir      string
	maxBytes int64
}

// NewSaver creates a Saver rooted at dir, creating the directory if absent.
// Individual files larger than maxBytes are rejected.
func NewSaver(dir string, maxBytes int64) (*Saver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &Saver{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the upload directory path.
func (s *Saver) Dir() string { return s.dir }

// Save writes the files to disk named after the sanitized prefix, a
// second-granularity timestamp, and their index. Returns the stored
// filenames in upload order.
func (s *Saver) Save(files []File, prefix string) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}

	safe := validate.SanitizePrefix(prefix)
	ts := time.Now().Format(timestampLayout)

	saved := make([]string, 0, len(files))
	for i, f := range files {
		ext := strings.ToLower(filepath.Ext(f.Name))
		if !allowedExtensions[ext] {
			return saved, fmt.Errorf("unsupported file type %q (png, jpg, jpeg, webp only)", ext)
		}

		name := fmt.Sprintf("%s_%s_%d%s", safe, ts, i, ext)
		if err := s.writeFile(name, f.Reader); err != nil {
			return saved, err
		}
		saved = append(saved, name)
	}

	return saved, nil
}

func (s *Saver) writeFile(name string, r io.Reader) error {
	out, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("failed to create upload file %s: %w", name, err)
	}
	defer out.Close()

	n, err := io.Copy(out, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return fmt.Errorf("failed to write upload file %s: %w", name, err)
	}
	if n > s.maxBytes {
		os.Remove(filepath.Join(s.dir, name))
		return fmt.Errorf("upload %s exceeds the %d byte limit", name, s.maxBytes)
	}

	return nil
}

// Resolve maps a stored filename back to its on-disk path. Names containing
// path separators or traversal sequences are rejected.
func (s *Saver) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid upload name %q", name)
	}

	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return path, nil
}
