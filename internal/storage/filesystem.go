package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemClient stores objects as flat files under a root directory.
type FilesystemClient struct {
	root string
}

// NewFilesystemClient returns a client rooted at dir.
func NewFilesystemClient(dir string) (*FilesystemClient, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("upload directory is required")
	}
	return &FilesystemClient{root: filepath.Clean(dir)}, nil
}

// EnsureBucket creates the root directory.
func (f *FilesystemClient) EnsureBucket(ctx context.Context) error {
	return os.MkdirAll(f.root, 0o755)
}

func (f *FilesystemClient) pathFor(key string) (string, error) {
	if !ValidStoredName(key) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(f.root, key), nil
}

// Put writes r to a temp file in the root and renames it into place, so a
// reader never observes a partial object.
func (f *FilesystemClient) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	path, err := f.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(f.root, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.root, ".tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Get opens the object stored under key.
func (f *FilesystemClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := f.pathFor(key)
	if err != nil {
		return nil, ErrNotFound
	}
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Delete removes the object stored under key. Missing objects are not an
// error.
func (f *FilesystemClient) Delete(ctx context.Context, key string) error {
	path, err := f.pathFor(key)
	if err != nil {
		return ErrNotFound
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Bucket returns the root directory.
func (f *FilesystemClient) Bucket() string {
	return f.root
}
