// Package storage is the filesystem abstraction product images are written
// through.
//
// Two drivers are available:
//   - "local": a directory on the local filesystem, served by the HTTP
//     kernel under /storage/
//   - "s3": S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//
// Build the configured disk once at boot:
//
//	disk, err := storage.Open(storage.Config{Driver: cfg.StorageDisk, ...})
//	err = disk.Put(ctx, "products/p-1/cover.jpg", file, "image/jpeg")
//	url := disk.URL("products/p-1/cover.jpg")
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned by Get for a missing path.
var ErrNotExist = errors.New("storage: file does not exist")

// Disk is the driver interface.
type Disk interface {
	// Put writes r to path, replacing any existing file.
	Put(ctx context.Context, path string, r io.Reader, contentType string) error

	// Get returns a reader for path. Caller must close it.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Exists reports whether a file exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Delete removes path. Deleting a missing file is not an error.
	Delete(ctx context.Context, path string) error

	// URL returns the public URL for path.
	URL(path string) string
}
