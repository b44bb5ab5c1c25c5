// Package local registers the "file" storage backend.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kbukum/minispark/logger"
	"github.com/kbukum/minispark/storage"
)

func init() {
	storage.RegisterFactory(storage.SchemeFile, func(cfg storage.Config, log *logger.Logger) (storage.Storage, error) {
		return NewStorage(cfg.BasePath)
	})
}

// Storage reads from the local filesystem. Relative paths are resolved
// against basePath; absolute paths are used as given.
type Storage struct {
	basePath string
}

// NewStorage creates a local backend rooted at basePath. An empty basePath
// means the working directory.
func NewStorage(basePath string) (*Storage, error) {
	if basePath == "" {
		return &Storage{}, nil
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve base path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: base path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: base path %s is not a directory", abs)
	}
	return &Storage{basePath: abs}, nil
}

func (s *Storage) resolve(path string) string {
	if s.basePath == "" || filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(s.basePath, filepath.Clean(path))
}

// Open returns the file at path.
func (s *Storage) Open(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(s.resolve(path))
}

// Exists checks whether a regular file exists at path.
func (s *Storage) Exists(_ context.Context, path string) (bool, error) {
	info, err := os.Stat(s.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("storage: stat file: %w", err)
	}
	return !info.IsDir(), nil
}

// List walks the directory holding prefix and returns the files whose path
// starts with it.
func (s *Storage) List(_ context.Context, prefix string) ([]storage.FileInfo, error) {
	full := s.resolve(prefix)
	root := full
	if info, err := os.Stat(full); err != nil || !info.IsDir() {
		root = filepath.Dir(full)
	}
	if full == "." {
		full = ""
	}

	var files []storage.FileInfo
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasPrefix(path, full) {
			return nil
		}
		rel := path
		if s.basePath != "" && !filepath.IsAbs(prefix) {
			if r, err := filepath.Rel(s.basePath, path); err == nil {
				rel = r
			}
		}
		files = append(files, storage.FileInfo{
			Path:         rel,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return []storage.FileInfo{}, nil
		}
		return nil, fmt.Errorf("storage: list files: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

var _ storage.Storage = (*Storage)(nil)
