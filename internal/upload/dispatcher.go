package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"alcyxob/upload-service/internal/storage"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxWorkers bounds concurrent puts per batch when none is configured.
const DefaultMaxWorkers = 8

var errPutFailed = errors.New("storage put failed")

// Putter is the part of storage.Client the dispatcher needs.
type Putter interface {
	Put(ctx context.Context, key, filename string, content io.Reader, size int64, contentType string) (string, bool)
}

type FileStatus string

const (
	StatusStored FileStatus = "stored"
	StatusFailed FileStatus = "failed"
)

// FileResult reports what happened to one distinct file.
type FileResult struct {
	Original string     `json:"original"`
	StoredAs string     `json:"storedAs,omitempty"`
	Key      string     `json:"-"`
	Status   FileStatus `json:"status"`
	Error    string     `json:"error,omitempty"`
}

// Outcome is the result of one Perform call.
type Outcome struct {
	ConfirmedCount int          `json:"confirmedCount"`
	UniqueCount    int          `json:"uniqueCount"`
	Names          *NameMap     `json:"fileNames"`
	Files          []FileResult `json:"files"`
}

// Partial reports whether at least one distinct file failed to store.
func (o *Outcome) Partial() bool {
	return o.ConfirmedCount < o.UniqueCount
}

// Dispatcher validates a submission and uploads its distinct files in
// parallel. It holds no per-request state and is safe for concurrent use.
type Dispatcher struct {
	store      Putter
	folders    storage.Folders
	namer      *Namer
	maxWorkers int
	observer   Observer
	logger     *zap.Logger
}

// NewDispatcher creates a Dispatcher. maxWorkers caps parallel puts per call.
func NewDispatcher(store Putter, folders storage.Folders, namer *Namer, maxWorkers int, observer Observer, logger *zap.Logger) *Dispatcher {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	if namer == nil {
		namer = NewNamer(nil)
	}
	if observer == nil {
		observer = NopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		store:      store,
		folders:    folders,
		namer:      namer,
		maxWorkers: maxWorkers,
		observer:   observer,
		logger:     logger,
	}
}

// batch is the mutable state of a single Perform call.
type batch struct {
	mu        sync.Mutex
	confirmed int
	names     *NameMap
	results   []FileResult
}

func (b *batch) record(i int, original, key, stored string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.results[i] = FileResult{Original: original, Status: StatusFailed, Error: err.Error()}
		return
	}
	b.confirmed++
	b.names.replace(original, stored)
	b.results[i] = FileResult{Original: original, StoredAs: stored, Key: key, Status: StatusStored}
}

// Perform uploads every distinct file of sub on behalf of identity. It
// returns a *ValidationError, without touching storage, when the submission
// is malformed. Individual put failures do not fail the call; they show up as
// failed entries in Outcome.Files and leave the original filename in the map.
func (d *Dispatcher) Perform(ctx context.Context, identity string, sub Submission) (*Outcome, error) {
	names, files := Normalize(sub)
	if errs := Validate(names); len(errs) > 0 {
		return nil, &ValidationError{Messages: errs}
	}

	folder := d.folders.Resolve(storage.CategoryUserFile)
	if folder == "" {
		d.logger.Warn("no folder configured for category", zap.String("category", storage.CategoryUserFile))
	}

	b := &batch{names: names, results: make([]FileResult, len(files))}

	workers := d.maxWorkers
	if workers > len(files) {
		workers = len(files)
	}
	var g errgroup.Group
	g.SetLimit(max(workers, 1))

	start := time.Now()
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			d.upload(ctx, identity, folder, b, i, f)
			return nil
		})
	}
	_ = g.Wait()

	d.observer.RecordBatch(len(files), b.confirmed)
	d.logger.Info("upload batch finished",
		zap.String("identity", identity),
		zap.Int("unique", len(files)),
		zap.Int("confirmed", b.confirmed),
		zap.Int("workers", workers),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Outcome{
		ConfirmedCount: b.confirmed,
		UniqueCount:    len(files),
		Names:          b.names,
		Files:          b.results,
	}, nil
}

func (d *Dispatcher) upload(ctx context.Context, identity, folder string, b *batch, i int, f File) {
	started := time.Now()
	name := d.namer.Generate(f.Filename, identity)
	key := storage.ObjectKey(folder, name)

	stored, err := d.put(ctx, key, name, f)
	d.observer.RecordUpload(time.Since(started), f.Size, err)
	if err != nil {
		d.logger.Warn("file upload failed",
			zap.String("file", f.Filename),
			zap.String("key", key),
			zap.Error(err),
		)
	}
	b.record(i, f.Filename, key, stored, err)
}

func (d *Dispatcher) put(ctx context.Context, key, name string, f File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Open == nil {
		return "", fmt.Errorf("open %s: no content", f.Filename)
	}
	body, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Filename, err)
	}
	defer body.Close()

	stored, ok := d.store.Put(ctx, key, name, body, f.Size, f.ContentType)
	if !ok {
		return "", errPutFailed
	}
	return stored, nil
}
