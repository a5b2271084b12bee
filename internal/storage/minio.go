package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"alcyxob/upload-service/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// minioBackend implements Backend with minio-go.
type minioBackend struct {
	client     *minio.Client
	bucketName string
}

func normaliseEndpoint(raw string, defaultSecure bool) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}

	// Accept either "minio:9000" or "http://minio:9000" / "https://minio:9000".
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, fmt.Errorf("endpoint must not contain a path")
		}
		return u.Host, u.Scheme == "https", nil
	}

	// No scheme provided, treat as host:port.
	return raw, defaultSecure, nil
}

// NewMinioBackend creates a Backend backed by minio-go and checks that the
// configured bucket exists.
func NewMinioBackend(ctx context.Context, cfg config.S3Config) (Backend, error) {
	if cfg.BucketName == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("minio configuration incomplete")
	}

	endpoint, secure, err := normaliseEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("minio bucket does not exist: %s", cfg.BucketName)
	}

	return &minioBackend{client: client, bucketName: cfg.BucketName}, nil
}

func (b *minioBackend) Bucket() string { return b.bucketName }

func (b *minioBackend) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := b.client.PutObject(ctx, b.bucketName, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (b *minioBackend) GetObject(ctx context.Context, key string) (*Object, error) {
	obj, err := b.client.GetObject(ctx, b.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateMinioError(err)
	}
	// GetObject is lazy; Stat forces the request so a missing key surfaces here.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, translateMinioError(err)
	}
	return &Object{Body: obj, ContentType: info.ContentType, Size: info.Size}, nil
}

func (b *minioBackend) HeadObject(ctx context.Context, key string) error {
	_, err := b.client.StatObject(ctx, b.bucketName, key, minio.StatObjectOptions{})
	return translateMinioError(err)
}

func (b *minioBackend) PresignGetObject(ctx context.Context, key string, expires time.Duration) (string, error) {
	if expires <= 0 {
		expires = DefaultPresignedURLExpiry
	}
	params := url.Values{}
	params.Set("response-content-disposition", attachmentDisposition)

	u, err := b.client.PresignedGetObject(ctx, b.bucketName, key, expires, params)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func translateMinioError(err error) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return ErrObjectNotFound
	}
	return err
}
