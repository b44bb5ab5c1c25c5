package storage

import (
	"context"
	"io"
	"strings"
	"time"
)

// FileInfo describes a stored object.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// Storage reads objects from one backend.
type Storage interface {
	// Open returns a reader for the object at path. The caller closes it.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Exists reports whether an object exists at path.
	Exists(ctx context.Context, path string) (bool, error)
	// List returns every object whose path starts with prefix, sorted by path.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}

// SplitURI splits "s3://bucket/key" into ("s3", "bucket/key"). Paths
// without a scheme belong to SchemeFile.
func SplitURI(uri string) (scheme, path string) {
	if s, p, ok := strings.Cut(uri, "://"); ok && s != "" {
		return strings.ToLower(s), p
	}
	return SchemeFile, uri
}

// HasScheme reports whether uri names a backend explicitly.
func HasScheme(uri string) bool {
	s, _, ok := strings.Cut(uri, "://")
	return ok && s != ""
}
