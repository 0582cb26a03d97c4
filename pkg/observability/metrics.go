package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

const (
	metricOperationsTotal   = "dsviz.operations.total"
	metricOperationDuration = "dsviz.operation.duration.seconds"
	metricStepsTotal        = "dsviz.steps.total"
	metricRejectionsTotal   = "dsviz.rejections.total"
	metricAnimationsActive  = "dsviz.animations.inflight"

	attrOp        = "op"
	attrStructure = "structure"
	attrStatus    = "status"
	attrState     = "state"
	attrKind      = "kind"

	// StatusOK labels an operation that was applied.
	StatusOK = "ok"
	// StatusRejected labels an operation refused with a taxonomy error.
	StatusRejected = "rejected"
	// StatusBusy labels an operation refused because a playback was active.
	StatusBusy = "busy"
)

// durationBuckets covers engine calls (microseconds) up to full playbacks
// of long traces (tens of seconds).
var durationBuckets = []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60}

// PlaybackMetrics holds the instruments sessions report to.
type PlaybackMetrics struct {
	operations metric.Int64Counter
	duration   metric.Float64Histogram
	steps      metric.Int64Counter
	rejections metric.Int64Counter
	animations metric.Int64UpDownCounter
}

// NewPlaybackMetrics creates the playback instruments from mt.
func NewPlaybackMetrics(mt metric.Meter) (*PlaybackMetrics, error) {
	b := newMetricBuilder(mt)

	pm := &PlaybackMetrics{
		operations: b.counter(metricOperationsTotal, "Operations requested on a structure", "{operation}"),
		duration:   b.histogram(metricOperationDuration, "Time from request to end of playback", "s", durationBuckets...),
		steps:      b.counter(metricStepsTotal, "Animation steps played", "{step}"),
		rejections: b.counter(metricRejectionsTotal, "Operations rejected at the boundary", "{operation}"),
		animations: b.upDownCounter(metricAnimationsActive, "Playbacks currently running", "{playback}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return pm, nil
}

// RecordOperation records one operation outcome and its duration.
func (pm *PlaybackMetrics) RecordOperation(ctx context.Context, structure, op, status string, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrStructure, structure),
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	pm.operations.Add(ctx, 1, attrs)
	pm.duration.Record(ctx, d.Seconds(), attrs)
}

// RecordRejection counts a rejected operation by error kind.
func (pm *PlaybackMetrics) RecordRejection(ctx context.Context, structure string, kind viz.ErrorKind) {
	pm.rejections.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrStructure, structure),
		attribute.String(attrKind, string(kind)),
	))
}

// RecordStep counts one played step by highlight state.
func (pm *PlaybackMetrics) RecordStep(ctx context.Context, state viz.HighlightState) {
	pm.steps.Add(ctx, 1, metric.WithAttributes(attribute.String(attrState, string(state))))
}

// TrackAnimation increments the in-flight playback gauge and returns the
// function that decrements it.
func (pm *PlaybackMetrics) TrackAnimation(ctx context.Context, structure string) func() {
	attrs := metric.WithAttributes(attribute.String(attrStructure, structure))
	pm.animations.Add(ctx, 1, attrs)

	return func() {
		pm.animations.Add(ctx, -1, attrs)
	}
}
