package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// AferoStorage implements Storage on an afero filesystem.
type AferoStorage struct {
	fs       afero.Fs
	basePath string
}

// NewAferoStorage creates a storage adapter over fs rooted at basePath.
func NewAferoStorage(fs afero.Fs, basePath string) *AferoStorage {
	return &AferoStorage{
		fs:       fs,
		basePath: basePath,
	}
}

// NewFilesystemStorage creates a storage adapter on the OS filesystem.
func NewFilesystemStorage(basePath string) *AferoStorage {
	return NewAferoStorage(afero.NewOsFs(), basePath)
}

// NewMemoryStorage creates an in-memory storage adapter.
func NewMemoryStorage() *AferoStorage {
	return NewAferoStorage(afero.NewMemMapFs(), "/")
}

// Fs returns the underlying filesystem.
func (s *AferoStorage) Fs() afero.Fs { return s.fs }

func (s *AferoStorage) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(s.basePath, path)
}

// Resolve returns the absolute location of path.
func (s *AferoStorage) Resolve(path string) (string, error) {
	abs, err := filepath.Abs(s.resolvePath(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	return abs, nil
}

// Stat returns metadata for path.
func (s *AferoStorage) Stat(ctx context.Context, path string) (FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return FileInfo{}, err
	}

	info, err := s.fs.Stat(s.resolvePath(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return FileInfo{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return FileInfo{}, fmt.Errorf("failed to stat file: %w", err)
	}
	return FileInfo{
		Name:    info.Name(),
		Size:    info.Size(),
		IsDir:   info.IsDir(),
		ModTime: info.ModTime(),
	}, nil
}

// MkdirAll creates a directory and all parent directories.
func (s *AferoStorage) MkdirAll(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.fs.MkdirAll(s.resolvePath(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// Delete deletes a file at path.
func (s *AferoStorage) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.fs.Remove(s.resolvePath(path)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// ReadStream reads contents as a stream.
func (s *AferoStorage) ReadStream(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := s.fs.Open(s.resolvePath(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// WriteStream writes from a stream, creating parent directories.
func (s *AferoStorage) WriteStream(ctx context.Context, path string, reader io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath := s.resolvePath(path)
	if err := s.fs.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := s.fs.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("failed to write stream: %w", err)
	}
	return nil
}

// Ensure AferoStorage implements Storage interface.
var _ Storage = (*AferoStorage)(nil)
