package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// InMemoryBackend keeps objects in process memory. It backs the "memory"
// driver for local development and doubles as the storage fake in tests.
type InMemoryBackend struct {
	mu       sync.Mutex
	bucket   string
	baseURL  string
	objects  map[string]memObject
	puts     int
	putFault func(key string) error
	putDelay time.Duration
	presigns []PresignRecord
}

type memObject struct {
	data        []byte
	contentType string
}

// PresignRecord captures one PresignGetObject call.
type PresignRecord struct {
	Key     string
	Expires time.Duration
}

// NewInMemoryBackend constructs an empty backend. baseURL prefixes presigned URLs.
func NewInMemoryBackend(bucket, baseURL string) *InMemoryBackend {
	return &InMemoryBackend{
		bucket:  bucket,
		baseURL: baseURL,
		objects: make(map[string]memObject),
	}
}

// SetPutFault installs a hook that can fail individual puts by key.
func (m *InMemoryBackend) SetPutFault(fault func(key string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putFault = fault
}

// SetPutDelay makes every put wait d (or until its context ends).
func (m *InMemoryBackend) SetPutDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putDelay = d
}

func (m *InMemoryBackend) Bucket() string { return m.bucket }

func (m *InMemoryBackend) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	m.mu.Lock()
	fault, delay := m.putFault, m.putDelay
	m.puts++
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if fault != nil {
		if err := fault(key); err != nil {
			return err
		}
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read body for %s: %w", key, err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("size mismatch for %s: declared %d, read %d", key, size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memObject{data: data, contentType: contentType}
	return nil
}

func (m *InMemoryBackend) GetObject(ctx context.Context, key string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return &Object{
		Body:        io.NopCloser(bytes.NewReader(obj.data)),
		ContentType: obj.contentType,
		Size:        int64(len(obj.data)),
	}, nil
}

func (m *InMemoryBackend) HeadObject(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return ErrObjectNotFound
	}
	return nil
}

func (m *InMemoryBackend) PresignGetObject(ctx context.Context, key string, expires time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if expires <= 0 {
		expires = DefaultPresignedURLExpiry
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presigns = append(m.presigns, PresignRecord{Key: key, Expires: expires})
	return fmt.Sprintf("%s/%s/%s?X-Amz-Expires=%d&response-content-disposition=%s",
		m.baseURL, m.bucket, key, int64(expires/time.Second), attachmentDisposition), nil
}

// PutCount returns how many puts were attempted, successful or not.
func (m *InMemoryBackend) PutCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// Keys returns the stored keys in sorted order.
func (m *InMemoryBackend) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Bytes returns a copy of the stored payload.
func (m *InMemoryBackend) Bytes(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	return append([]byte(nil), obj.data...), ok
}

// Presigns returns every presign call seen so far.
func (m *InMemoryBackend) Presigns() []PresignRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PresignRecord(nil), m.presigns...)
}
