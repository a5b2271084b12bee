package upload

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer captures telemetry for upload batches.
type Observer interface {
	RecordUpload(duration time.Duration, sizeBytes int64, err error)
	RecordBatch(unique, confirmed int)
	RecordPresign(duration time.Duration, err error)
}

// NopObserver discards everything.
type NopObserver struct{}

func (NopObserver) RecordUpload(time.Duration, int64, error) {}
func (NopObserver) RecordBatch(int, int)                     {}
func (NopObserver) RecordPresign(time.Duration, error)       {}

// PrometheusObserver exports upload metrics to Prometheus.
type PrometheusObserver struct {
	duration   *prometheus.HistogramVec
	errors     *prometheus.CounterVec
	bytes      prometheus.Counter
	batchFiles *prometheus.CounterVec
	batchSizes prometheus.Histogram
}

// NewPrometheusObserver registers the upload metrics on reg. Metrics that are
// already registered are reused.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "upload"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of object storage operations issued by the upload pipeline.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Count of failed object storage operations.",
		}, []string{"operation"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_total",
			Help:      "Cumulative payload size successfully uploaded.",
		}),
		batchFiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_files_total",
			Help:      "Distinct files per batch by result.",
		}, []string{"result"}),
		batchSizes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_files",
			Help:      "Number of distinct files in an upload batch.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64},
		}),
	}

	if err := o.register(reg); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *PrometheusObserver) register(reg prometheus.Registerer) error {
	var err error
	if o.duration, err = registerOrReuse(reg, o.duration); err != nil {
		return err
	}
	if o.errors, err = registerOrReuse(reg, o.errors); err != nil {
		return err
	}
	if o.bytes, err = registerOrReuse(reg, o.bytes); err != nil {
		return err
	}
	if o.batchFiles, err = registerOrReuse(reg, o.batchFiles); err != nil {
		return err
	}
	if o.batchSizes, err = registerOrReuse(reg, o.batchSizes); err != nil {
		return err
	}
	return nil
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register upload metric: %w", err)
	}
	return c, nil
}

// RecordUpload tracks put latency, size and failures.
func (o *PrometheusObserver) RecordUpload(duration time.Duration, sizeBytes int64, err error) {
	if o == nil {
		return
	}
	o.duration.WithLabelValues("put").Observe(duration.Seconds())
	if err != nil {
		o.errors.WithLabelValues("put").Inc()
		return
	}
	if sizeBytes > 0 {
		o.bytes.Add(float64(sizeBytes))
	}
}

func (o *PrometheusObserver) RecordBatch(unique, confirmed int) {
	if o == nil {
		return
	}
	o.batchSizes.Observe(float64(unique))
	o.batchFiles.WithLabelValues("stored").Add(float64(confirmed))
	o.batchFiles.WithLabelValues("failed").Add(float64(unique - confirmed))
}

func (o *PrometheusObserver) RecordPresign(duration time.Duration, err error) {
	if o == nil {
		return
	}
	o.duration.WithLabelValues("presign").Observe(duration.Seconds())
	if err != nil {
		o.errors.WithLabelValues("presign").Inc()
	}
}
