package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsafeKey is returned for keys that would escape the upload directory.
var ErrUnsafeKey = errors.New("unsafe file key")

// DiskFileStore writes uploads below a directory served at /files.
type DiskFileStore struct {
	dir     string
	baseURL string
}

// NewDiskFileStore creates the upload directory if needed.
func NewDiskFileStore(dir, publicBaseURL string) (*DiskFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskFileStore{dir: dir, baseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

// Save copies body to dir/key and returns the public URL. A partially
// written file is removed.
func (s *DiskFileStore) Save(ctx context.Context, key string, body io.Reader) (string, error) {
	if !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeKey, key)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create document dir: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write document: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("close document: %w", err)
	}

	return s.baseURL + "/files/" + filepath.ToSlash(key), nil
}
