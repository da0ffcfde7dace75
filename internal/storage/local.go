package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"memoria/internal/observability"
)

// LocalStorage writes files under a base directory served statically at baseURL.
type LocalStorage struct {
	basePath string
	baseURL  string
}

// NewLocalStorage ensures basePath exists.
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if basePath == "" {
		return nil, errors.New("local storage requires a base path")
	}
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	if baseURL == "" {
		baseURL = "/images"
	}
	return &LocalStorage{basePath: basePath, baseURL: baseURL}, nil
}

func (s *LocalStorage) Name() string { return "local" }

// BasePath is the directory the static file handler serves.
func (s *LocalStorage) BasePath() string { return s.basePath }

func (s *LocalStorage) Put(ctx context.Context, key string, body []byte, _ string) (string, error) {
	_, span := observability.StorageSpan(ctx, s.Name(), "put")
	defer span.End()

	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(s.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(dst, body, 0o640); err != nil {
		span.RecordError(err)
		_ = os.Remove(dst)
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	return s.URL(key), nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	_, span := observability.StorageSpan(ctx, s.Name(), "delete")
	defer span.End()

	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		span.RecordError(err)
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *LocalStorage) URL(key string) string {
	return joinURL(s.baseURL, key)
}
