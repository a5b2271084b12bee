package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client is the capability set the upload pipeline talks to. Every call is
// bounded by the operation timeout, and backend failures are logged and
// reported as absence rather than returned.
type Client struct {
	backend Backend
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient wraps backend. A non-positive timeout falls back to
// DefaultOperationTimeout.
func NewClient(backend Backend, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultOperationTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{backend: backend, timeout: timeout, logger: logger}
}

// Put stores content under key and echoes filename back on success.
func (c *Client) Put(ctx context.Context, key, filename string, content io.Reader, size int64, contentType string) (string, bool) {
	if !c.validKey("put", key) {
		return "", false
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.backend.PutObject(ctx, key, content, size, contentType); err != nil {
		c.fail("put", key, err)
		return "", false
	}
	return filename, true
}

// Get opens a stored object. The timeout stays armed until the returned
// body is closed.
func (c *Client) Get(ctx context.Context, key string) (*Object, bool) {
	if !c.validKey("get", key) {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)

	obj, err := c.backend.GetObject(ctx, key)
	if err != nil {
		cancel()
		c.fail("get", key, err)
		return nil, false
	}
	obj.Body = &cancelOnClose{ReadCloser: obj.Body, cancel: cancel}
	return obj, true
}

// Exists reports whether key is present. Errors count as absent.
func (c *Client) Exists(ctx context.Context, key string) bool {
	if !c.validKey("head", key) {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.backend.HeadObject(ctx, key); err != nil {
		c.fail("head", key, err)
		return false
	}
	return true
}

// Presign returns a time-limited download URL for key. A zero ttl means
// DefaultPresignedURLExpiry.
func (c *Client) Presign(ctx context.Context, key string, ttl time.Duration) (string, bool) {
	if !c.validKey("presign", key) {
		return "", false
	}
	if ttl <= 0 {
		ttl = DefaultPresignedURLExpiry
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url, err := c.backend.PresignGetObject(ctx, key, ttl)
	if err != nil {
		c.fail("presign", key, err)
		return "", false
	}
	return url, true
}

func (c *Client) validKey(op, key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		c.fail(op, key, ErrInvalidKey)
		return false
	}
	return true
}

func (c *Client) fail(op, key string, err error) {
	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("key", key),
		zap.String("bucket", c.backend.Bucket()),
		zap.Error(err),
	}
	if errors.Is(err, ErrObjectNotFound) {
		c.logger.Info("object not found", fields...)
		return
	}
	c.logger.Error("storage operation failed", fields...)
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *cancelOnClose) Close() error {
	defer r.cancel()
	return r.ReadCloser.Close()
}
