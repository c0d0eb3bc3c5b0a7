// Package artifacts persists run by-products such as transcripts.
package artifacts

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// Store writes named artifacts somewhere durable.
type Store interface {
	// Put stores the artifact under name and returns its location.
	Put(ctx context.Context, name string, r io.Reader) (string, error)
}

// FileStore keeps artifacts as files under a directory.
type FileStore struct {
	dir string
}

var _ Store = (*FileStore)(nil)

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Put writes the artifact to dir/name, creating directories as needed.
func (s *FileStore) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(fullPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return fullPath, nil
}
