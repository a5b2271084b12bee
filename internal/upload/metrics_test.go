package upload

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"alcyxob/upload-service/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPrometheusObserver_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := NewPrometheusObserver("test", reg)
	require.NoError(t, err)

	obs.RecordUpload(10*time.Millisecond, 128, nil)
	obs.RecordUpload(5*time.Millisecond, 64, errors.New("boom"))
	obs.RecordBatch(3, 2)
	obs.RecordPresign(time.Millisecond, ErrPresignFailed)

	assert.Equal(t, 128.0, testutil.ToFloat64(obs.bytes))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.errors.WithLabelValues("put")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.errors.WithLabelValues("presign")))
	assert.Equal(t, 2.0, testutil.ToFloat64(obs.batchFiles.WithLabelValues("stored")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.batchFiles.WithLabelValues("failed")))
	assert.Equal(t, 2, testutil.CollectAndCount(obs.duration))
}

func TestPrometheusObserver_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPrometheusObserver("", reg)
	require.NoError(t, err)
	second, err := NewPrometheusObserver("", reg)
	require.NoError(t, err)

	second.RecordUpload(time.Millisecond, 10, nil)
	assert.Equal(t, 10.0, testutil.ToFloat64(first.bytes))

	count, err := testutil.GatherAndCount(reg, "upload_bytes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPrometheusObserver_WiredIntoDispatcher(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := NewPrometheusObserver("upload", reg)
	require.NoError(t, err)

	backend := storage.NewInMemoryBackend("bucket", "https://s3.test")
	backend.SetPutFault(func(key string) error {
		if strings.Contains(key, "/b_") {
			return errors.New("fault")
		}
		return nil
	})
	client := storage.NewClient(backend, time.Second, zap.NewNop())
	d := NewDispatcher(client, testFolders(), NewNamer(fixedClock), 2, obs, zap.NewNop())

	_, err = d.Perform(context.Background(), "alice", scenarioSubmission())
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(obs.batchFiles.WithLabelValues("stored")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.batchFiles.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.errors.WithLabelValues("put")))
}

func TestNilPrometheusObserverIsSafe(t *testing.T) {
	var obs *PrometheusObserver
	assert.NotPanics(t, func() {
		obs.RecordUpload(time.Second, 1, nil)
		obs.RecordBatch(1, 1)
		obs.RecordPresign(time.Second, nil)
	})
}
