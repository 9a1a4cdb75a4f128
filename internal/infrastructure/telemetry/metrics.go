package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
var (
	AttrStoreID   = attribute.Key("store_id")
	AttrOutcome   = attribute.Key("outcome")
	AttrCompleted = attribute.Key("completed")
)

// BatchDurationBuckets are histogram boundaries for regeneration batches (seconds)
var BatchDurationBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300}

// Counter is a helper for creating and recording counter metrics.
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a new Counter metric.
func NewCounter(meter metric.Meter, name, description, unit string) (*Counter, error) {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return &Counter{counter: c}, nil
}

// Add increments the counter by the given value with optional attributes.
func (c *Counter) Add(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

// Histogram is a helper for creating and recording histogram metrics.
type Histogram struct {
	histogram metric.Float64Histogram
}

// NewHistogram creates a new Histogram metric with explicit bucket boundaries.
func NewHistogram(meter metric.Meter, name, description, unit string, boundaries []float64) (*Histogram, error) {
	h, err := meter.Float64Histogram(name,
		metric.WithDescription(description),
		metric.WithUnit(unit),
		metric.WithExplicitBucketBoundaries(boundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", name, err)
	}
	return &Histogram{histogram: h}, nil
}

// RecordDuration records a duration in seconds.
func (h *Histogram) RecordDuration(ctx context.Context, d time.Duration, attrs ...attribute.KeyValue) {
	h.histogram.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}

// RegenerationMetrics records URL regeneration outcomes
type RegenerationMetrics struct {
	units         *Counter
	rewrites      *Counter
	batches       *Counter
	batchDuration *Histogram
	moves         *Counter
}

// NewRegenerationMetrics creates the regeneration instruments on the given meter.
// A nil meter uses the global meter provider.
func NewRegenerationMetrics(meter metric.Meter) (*RegenerationMetrics, error) {
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(TracerName)
	}
	units, err := NewCounter(meter, "urlsync.regeneration.units", "Category and store pairs processed", "{unit}")
	if err != nil {
		return nil, err
	}
	rewrites, err := NewCounter(meter, "urlsync.regeneration.rewrites", "URL rewrites written", "{rewrite}")
	if err != nil {
		return nil, err
	}
	batches, err := NewCounter(meter, "urlsync.regeneration.batches", "Regeneration batches run", "{batch}")
	if err != nil {
		return nil, err
	}
	duration, err := NewHistogram(meter, "urlsync.regeneration.batch.duration", "Duration of regeneration batches", "s", BatchDurationBuckets)
	if err != nil {
		return nil, err
	}
	moves, err := NewCounter(meter, "urlsync.category.moves", "Category move attempts", "{move}")
	if err != nil {
		return nil, err
	}
	return &RegenerationMetrics{
		units:         units,
		rewrites:      rewrites,
		batches:       batches,
		batchDuration: duration,
		moves:         moves,
	}, nil
}

func outcome(ok bool) attribute.KeyValue {
	if ok {
		return AttrOutcome.String("success")
	}
	return AttrOutcome.String("failed")
}

// RecordRegeneration counts one regenerated (category, store) unit
func (m *RegenerationMetrics) RecordRegeneration(ctx context.Context, storeID int64, succeeded bool, rewrites int) {
	m.units.Add(ctx, 1, AttrStoreID.Int64(storeID), outcome(succeeded))
	if rewrites > 0 {
		m.rewrites.Add(ctx, int64(rewrites), AttrStoreID.Int64(storeID))
	}
}

// RecordBatch counts one batch and records its duration
func (m *RegenerationMetrics) RecordBatch(ctx context.Context, duration time.Duration, completed bool) {
	m.batches.Add(ctx, 1, AttrCompleted.Bool(completed))
	m.batchDuration.RecordDuration(ctx, duration, AttrCompleted.Bool(completed))
}

// RecordMove counts one move attempt
func (m *RegenerationMetrics) RecordMove(ctx context.Context, moved bool) {
	m.moves.Add(ctx, 1, outcome(moved))
}
