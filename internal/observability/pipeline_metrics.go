package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

const (
	metricPrimesReleased  = "primefang.pipeline.primes.released.total"
	metricSegmentsTotal   = "primefang.pipeline.segments.total"
	metricSegmentDuration = "primefang.pipeline.segment.duration.seconds"
	metricPendingResults  = "primefang.pipeline.pending.results"
	metricHighestReleased = "primefang.pipeline.highest.released"
	metricFlushDuration   = "primefang.writer.flush.duration.seconds"
	metricFsyncErrors     = "primefang.writer.fsync.errors.total"
)

// segmentDurationBuckets covers sub-millisecond toy segments up to
// multi-minute sieves of very large windows.
var segmentDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120, 300}

// flushDurationBuckets covers buffered batch writes, which are fast except
// when an fsync lands on slow media.
var flushDurationBuckets = []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10}

// PipelineMetrics holds OTel instruments for the sieving pipeline.
// All record methods are safe to call on a nil receiver (no-op).
type PipelineMetrics struct {
	primesReleased  metric.Int64Counter
	segmentsTotal   metric.Int64Counter
	segmentDuration metric.Float64Histogram
	pendingResults  metric.Int64UpDownCounter
	highestReleased metric.Int64Gauge
	flushDuration   metric.Float64Histogram
	fsyncErrors     metric.Int64Counter
}

// NewPipelineMetrics creates pipeline metric instruments from the given meter.
func NewPipelineMetrics(mt metric.Meter) (*PipelineMetrics, error) {
	b := newMetricBuilder(mt)

	pm := &PipelineMetrics{
		primesReleased:  b.counter(metricPrimesReleased, "Total primes released to the output stream", "{prime}"),
		segmentsTotal:   b.counter(metricSegmentsTotal, "Total segments sieved", "{segment}"),
		segmentDuration: b.histogram(metricSegmentDuration, "Per-segment sieve duration in seconds", "s", segmentDurationBuckets...),
		pendingResults:  b.upDownCounter(metricPendingResults, "Completed segments parked awaiting in-order release", "{segment}"),
		highestReleased: b.syncGauge(metricHighestReleased, "Largest prime released so far", "1"),
		flushDuration:   b.histogram(metricFlushDuration, "Durable writer flush duration in seconds", "s", flushDurationBuckets...),
		fsyncErrors:     b.counter(metricFsyncErrors, "Non-fatal fsync failures", "{error}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return pm, nil
}

// RecordSegment records one completed segment sieve.
func (pm *PipelineMetrics) RecordSegment(ctx context.Context, duration time.Duration) {
	if pm == nil {
		return
	}

	pm.segmentsTotal.Add(ctx, 1)
	pm.segmentDuration.Record(ctx, duration.Seconds())
}

// AddReleased records primes released to the output stream and the new
// high-water mark.
func (pm *PipelineMetrics) AddReleased(ctx context.Context, count int64, highest int64) {
	if pm == nil {
		return
	}

	pm.primesReleased.Add(ctx, count)

	if highest > 0 {
		pm.highestReleased.Record(ctx, highest)
	}
}

// AddPending adjusts the parked-result count by delta.
func (pm *PipelineMetrics) AddPending(ctx context.Context, delta int64) {
	if pm == nil {
		return
	}

	pm.pendingResults.Add(ctx, delta)
}

// RecordFlush records one durable writer flush.
func (pm *PipelineMetrics) RecordFlush(ctx context.Context, duration time.Duration) {
	if pm == nil {
		return
	}

	pm.flushDuration.Record(ctx, duration.Seconds())
}

// AddFsyncErrors records non-fatal fsync failures.
func (pm *PipelineMetrics) AddFsyncErrors(ctx context.Context, count int64) {
	if pm == nil || count == 0 {
		return
	}

	pm.fsyncErrors.Add(ctx, count)
}
