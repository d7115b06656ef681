package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "lensforge"

// Metrics holds all LensForge metric instruments.
type Metrics struct {
	BatchesStarted    metric.Int64Counter
	AnalysesCompleted metric.Int64Counter
	AnalysesFailed    metric.Int64Counter
	CacheHits         metric.Int64Counter
	CacheMisses       metric.Int64Counter
	BatchDuration     metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.BatchesStarted, err = meter.Int64Counter("lensforge.batches.started",
		metric.WithDescription("Number of batch analyses started"))
	if err != nil {
		return nil, err
	}

	m.AnalysesCompleted, err = meter.Int64Counter("lensforge.analyses.completed",
		metric.WithDescription("Number of analysis requests completed successfully"))
	if err != nil {
		return nil, err
	}

	m.AnalysesFailed, err = meter.Int64Counter("lensforge.analyses.failed",
		metric.WithDescription("Number of analysis requests failed"))
	if err != nil {
		return nil, err
	}

	m.CacheHits, err = meter.Int64Counter("lensforge.cache.hits",
		metric.WithDescription("Number of cache hits"))
	if err != nil {
		return nil, err
	}

	m.CacheMisses, err = meter.Int64Counter("lensforge.cache.misses",
		metric.WithDescription("Number of cache misses"))
	if err != nil {
		return nil, err
	}

	m.BatchDuration, err = meter.Float64Histogram("lensforge.batch.duration_seconds",
		metric.WithDescription("Batch duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// WatchLogDrops registers an observable gauge reporting how many log
// records the async handler has discarded so far.
func (m *Metrics) WatchLogDrops(dropped func() int64) error {
	meter := otel.Meter(meterName)
	_, err := meter.Int64ObservableGauge("lensforge.logs.dropped",
		metric.WithDescription("Log records dropped by the async log handler"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(dropped())
			return nil
		}))
	return err
}
