// Package storage provides storage adapter interfaces.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a path does not exist.
var ErrNotFound = errors.New("file not found")

// Storage defines the storage adapter interface.
type Storage interface {
	// Resolve returns the absolute location of path, as engines that read files
	// themselves need it.
	Resolve(path string) (string, error)

	// Stat returns metadata for path.
	Stat(ctx context.Context, path string) (FileInfo, error)

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(ctx context.Context, path string) error

	// Delete deletes a file at path.
	Delete(ctx context.Context, path string) error

	// ReadStream reads contents as a stream.
	ReadStream(ctx context.Context, path string) (io.ReadCloser, error)

	// WriteStream writes from a stream.
	WriteStream(ctx context.Context, path string, reader io.Reader) error
}

// FileInfo represents file metadata.
type FileInfo struct {
	Name    string
	Size    int64
	IsDir   bool
	ModTime time.Time
}

// Config holds storage configuration.
type Config struct {
	// Type is the storage type (filesystem, memory).
	Type string

	// BasePath is the base path relative paths resolve against.
	BasePath string
}
