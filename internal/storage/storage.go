package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"alcyxob/upload-service/internal/config"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = time.Hour

// Default bound on a single backend call.
const DefaultOperationTimeout = 30 * time.Second

var (
	ErrObjectNotFound = errors.New("object not found in storage")
	ErrInvalidKey     = errors.New("invalid object key")
)

// Object is a stored object opened for reading. The caller must close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Backend is the raw object storage driver. Implementations return
// ErrObjectNotFound for missing keys and plain errors for everything else;
// Client turns both into absence values.
type Backend interface {
	// PutObject writes body under key. size may be -1 when unknown.
	PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error

	GetObject(ctx context.Context, key string) (*Object, error)

	// HeadObject checks that key exists without transferring content.
	HeadObject(ctx context.Context, key string) error

	// PresignGetObject mints a read-only URL that forces an attachment download.
	PresignGetObject(ctx context.Context, key string, expires time.Duration) (string, error)

	Bucket() string
}

// NewBackend builds the backend selected by cfg.Driver.
func NewBackend(ctx context.Context, cfg config.S3Config) (Backend, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "s3":
		return NewS3Backend(ctx, cfg)
	case "minio":
		return NewMinioBackend(ctx, cfg)
	case "memory":
		return NewInMemoryBackend(cfg.BucketName, "memory://"), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
