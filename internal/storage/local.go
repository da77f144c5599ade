package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Local writes exports under a directory that the API serves at urlPrefix.
// Intended for development and single-node deployments.
type Local struct {
	basePath  string // e.g. "./exports"
	urlPrefix string // e.g. "/files"
}

// NewLocal creates a filesystem-backed store.
func NewLocal(basePath, urlPrefix string) *Local {
	return &Local{
		basePath:  basePath,
		urlPrefix: urlPrefix,
	}
}

func (l *Local) path(key string) (string, string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", "", err
	}
	return key, filepath.Join(l.basePath, filepath.FromSlash(key)), nil
}

func (l *Local) Put(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	key, dest, err := l.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("creating directory for %s: %w", key, err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("creating file %s: %w", key, err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(dest)
		return "", fmt.Errorf("writing file %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("closing file %s: %w", key, err)
	}

	return l.urlPrefix + "/" + key, nil
}

func (l *Local) Open(_ context.Context, key string) (io.ReadCloser, error) {
	key, src, err := l.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("opening file %s: %w", key, err)
	}
	return f, nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	key, p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing file %s: %w", key, err)
	}
	return nil
}

func (l *Local) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return l.urlPrefix + "/" + key, nil
}
