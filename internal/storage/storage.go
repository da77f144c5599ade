// Package storage keeps generated report files (CSV exports) on the local
// filesystem or in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned by Open when no object exists at key.
	ErrNotFound = errors.New("object not found")

	// ErrInvalidKey is returned for empty, absolute or parent-relative keys.
	ErrInvalidKey = errors.New("invalid object key")
)

// Storage abstracts where export files live.
type Storage interface {
	// Put uploads body and returns the URL the file can be fetched from.
	// key is the object path, e.g. "exports/{user}/{uuid}-discounts.csv".
	Put(ctx context.Context, key string, body io.Reader, contentType string) (url string, err error)

	// Open returns the object's content. The caller closes it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object at key. Missing objects are not an error.
	Delete(ctx context.Context, key string) error

	// PresignGet returns a time-limited URL for the object. Backends without
	// access control return the permanent URL.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Backend names a Storage implementation.
type Backend string

const (
	BackendLocal Backend = "local"
	BackendS3    Backend = "s3"
)

// Config selects and configures a backend.
type Config struct {
	Backend   Backend
	LocalPath string // BackendLocal: directory to write to
	URLPrefix string // BackendLocal: HTTP path the directory is served under
	S3        S3Config
}

// New builds the Storage described by cfg.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Backend {
	case BackendLocal, "":
		return NewLocal(cfg.LocalPath, cfg.URLPrefix), nil
	case BackendS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// CleanKey normalises key and rejects anything that would escape the
// storage root.
func CleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}
