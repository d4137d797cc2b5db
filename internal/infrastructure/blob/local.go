package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/99minutos/accounts-api/internal/core/ports"
)

// URLPrefix is where stored files are served from.
const URLPrefix = "/uploads/"

const maxNameLen = 100

var ErrInvalidURL = errors.New("blob url outside upload prefix")

// LocalStore implements ports.BlobStore on a local directory.
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Dir returns the directory served under URLPrefix.
func (s *LocalStore) Dir() string { return s.dir }

// Put writes r to a new file named <uuid>-<name>. The file only becomes
// visible under its final name once fully written.
func (s *LocalStore) Put(ctx context.Context, name string, r io.Reader) (*ports.BlobInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fileName := uuid.NewString() + "-" + sanitize(name)

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, fileName)); err != nil {
		return nil, fmt.Errorf("publish blob: %w", err)
	}

	return &ports.BlobInfo{URL: URLPrefix + fileName, Name: fileName}, nil
}

// Delete removes the file behind url. Missing files are not an error.
func (s *LocalStore) Delete(_ context.Context, url string) error {
	name, ok := strings.CutPrefix(url, URLPrefix)
	if !ok || name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidURL, url)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

// sanitize keeps the base name of an uploaded file, restricted to a safe
// character set.
func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if len(out) > maxNameLen {
		out = out[len(out)-maxNameLen:]
	}
	if out == "" {
		return "file"
	}
	return out
}
