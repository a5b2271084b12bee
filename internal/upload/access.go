package upload

import (
	"context"
	"errors"
	"strings"
	"time"

	"alcyxob/upload-service/internal/storage"
)

var (
	ErrUnknownCategory  = errors.New("unknown file category")
	ErrFilenameRequired = errors.New("file name is required")
	ErrInvalidFilename  = errors.New("file name must not contain path separators")
	ErrPresignFailed    = errors.New("failed to generate download URL")
	ErrFileNotFound     = errors.New("file not found")
)

// ObjectReader is the read side of storage.Client.
type ObjectReader interface {
	Presign(ctx context.Context, key string, ttl time.Duration) (string, bool)
	Exists(ctx context.Context, key string) bool
	Get(ctx context.Context, key string) (*storage.Object, bool)
}

// Access serves stored files back by category and stored name. It shares
// only the storage client and folder table with the Dispatcher.
type Access struct {
	reader   ObjectReader
	folders  storage.Folders
	ttl      time.Duration
	observer Observer
}

// NewAccess creates an Access. A non-positive ttl means one hour.
func NewAccess(reader ObjectReader, folders storage.Folders, ttl time.Duration, observer Observer) *Access {
	if ttl <= 0 {
		ttl = storage.DefaultPresignedURLExpiry
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &Access{reader: reader, folders: folders, ttl: ttl, observer: observer}
}

// TTL is the lifetime of URLs returned by PresignedURL.
func (a *Access) TTL() time.Duration { return a.ttl }

// PresignedURL returns a time-limited attachment download URL for filename.
func (a *Access) PresignedURL(ctx context.Context, category, filename string) (string, error) {
	key, err := a.key(category, filename)
	if err != nil {
		return "", err
	}

	start := time.Now()
	url, ok := a.reader.Presign(ctx, key, a.ttl)
	if !ok {
		a.observer.RecordPresign(time.Since(start), ErrPresignFailed)
		return "", ErrPresignFailed
	}
	a.observer.RecordPresign(time.Since(start), nil)
	return url, nil
}

// Open streams a stored file. The caller must close the returned body.
func (a *Access) Open(ctx context.Context, category, filename string) (*storage.Object, error) {
	key, err := a.key(category, filename)
	if err != nil {
		return nil, err
	}
	if !a.reader.Exists(ctx, key) {
		return nil, ErrFileNotFound
	}
	obj, ok := a.reader.Get(ctx, key)
	if !ok {
		return nil, ErrFileNotFound
	}
	return obj, nil
}

func (a *Access) key(category, filename string) (string, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return "", ErrFilenameRequired
	}
	if strings.ContainsAny(filename, `/\`) {
		return "", ErrInvalidFilename
	}
	folder := a.folders.Resolve(category)
	if folder == "" {
		return "", ErrUnknownCategory
	}
	return storage.ObjectKey(folder, filename), nil
}
