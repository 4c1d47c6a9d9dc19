// Package storage abstracts the object store used for avatar uploads.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ObjectStorage uploads binary content under a bucket-scoped key and
// returns a retrievable URL. Keys are caller-chosen; uploading the same
// key twice overwrites.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, key string, data []byte) (string, error)
}

// DiskStorage implements ObjectStorage on the local filesystem, serving
// objects from a static file route under baseURL.
type DiskStorage struct {
	root    string
	baseURL string
}

// NewDiskStorage creates a disk-backed object store rooted at root.
// Objects land at root/<bucket>/<key> and resolve to
// baseURL/<bucket>/<key>.
func NewDiskStorage(root, baseURL string) *DiskStorage {
	return &DiskStorage{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Upload writes the object and returns its URL
func (d *DiskStorage) Upload(ctx context.Context, bucket, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cleanKey := filepath.Clean(key)
	if strings.HasPrefix(cleanKey, "..") || filepath.IsAbs(cleanKey) {
		return "", fmt.Errorf("invalid object key: %q", key)
	}

	path := filepath.Join(d.root, bucket, cleanKey)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create object directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}

	parts := strings.Split(filepath.ToSlash(cleanKey), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return fmt.Sprintf("%s/%s/%s", d.baseURL, bucket, strings.Join(parts, "/")), nil
}

var _ ObjectStorage = (*DiskStorage)(nil)
