// Package storage stores uploaded images on the local filesystem or in an
// S3-compatible bucket and builds their public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"memoria/internal/config"
)

// ErrInvalidKey is returned for keys that are empty or escape the storage root.
var ErrInvalidKey = errors.New("invalid object key")

// Storage is an object store for image files.
type Storage interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	// Put stores body under key and returns its public URL.
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the public URL of key.
	URL(key string) string
}

// New builds the backend selected by STORAGE_DRIVER.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.StorageDriver {
	case "", "local":
		return NewLocalStorage(cfg.ImageUploadDir, cfg.ImageBaseURL)
	case "s3":
		return NewS3Storage(ctx, S3Config{
			Endpoint:        cfg.S3Endpoint,
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicURL:       cfg.S3PublicURL,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// cleanKey rejects absolute keys and keys containing "..".
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned != key || cleaned == "." || strings.HasPrefix(cleaned, "..") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
