package storage

import (
	"context"
	"io"
)

// Storage defines the interface for report photo backends.
type Storage interface {
	// Put stores a file at the given key.
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Delete removes a file by its key. Returns nil if the file doesn't exist.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a file is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns the public URL for a file given its key.
	GetURL(key string) string
}

// Config holds S3/MinIO connection settings
type Config struct {
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	PublicURL   string
}
