package session

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/dsviz/pkg/anim"
	"github.com/Sumatoshi-tech/dsviz/pkg/layout"
	"github.com/Sumatoshi-tech/dsviz/pkg/observability"
	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// Defaults.
const (
	DefaultNoticeTTL     = 2 * time.Second
	DefaultHistoryDepth  = 20
	DefaultDragThreshold = 100.0
)

// Option configures a Session.
type Option func(*Session)

// WithScheduler replaces the session's scheduler, e.g. one with a fake sleeper
// or the preempt policy.
func WithScheduler(s *anim.Scheduler) Option {
	return func(ss *Session) { ss.sched = s }
}

// WithTiming sets the hold durations per pace.
func WithTiming(t viz.Timing) Option {
	return func(s *Session) { s.timing = t }
}

// WithLayout sets the layout geometry.
func WithLayout(o layout.Options) Option {
	return func(s *Session) { s.layout = o }
}

// WithNoticeTTL sets how long rejection notices stay visible.
func WithNoticeTTL(d time.Duration) Option {
	return func(s *Session) { s.noticeTTL = d }
}

// WithHistoryDepth bounds the undo stack. Zero disables history.
func WithHistoryDepth(n int) Option {
	return func(s *Session) { s.depth = n }
}

// WithDragThreshold sets the distance a node must be dragged to be removed.
func WithDragThreshold(d float64) Option {
	return func(s *Session) { s.dragThreshold = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithTracer sets the tracer operation spans start on.
func WithTracer(t trace.Tracer) Option {
	return func(s *Session) { s.tracer = t }
}

// WithMetrics reports operations and steps to pm.
func WithMetrics(pm *observability.PlaybackMetrics) Option {
	return func(s *Session) { s.metrics = pm }
}

// WithClock replaces time.Now for notice expiry and durations.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}
