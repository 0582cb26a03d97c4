// Package session drives one structure engine: it serializes operations,
// records undo history, replays each operation's trace through the animation
// scheduler, and pushes frames and notices to a diagram surface.
//
// The engine runs to completion before playback starts, so the logical
// structure is always consistent; playback only replays how it got there.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/dsviz/pkg/anim"
	"github.com/Sumatoshi-tech/dsviz/pkg/layout"
	"github.com/Sumatoshi-tech/dsviz/pkg/observability"
	"github.com/Sumatoshi-tech/dsviz/pkg/surface"
	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

var (
	// ErrNoHistory is returned by Undo when nothing can be undone.
	ErrNoHistory = errors.New("session: nothing to undo")

	// ErrUndoUnsupported is returned by Undo for structures without checkpoints.
	ErrUndoUnsupported = errors.New("session: structure does not support undo")
)

// OpFunc performs one engine operation and returns its trace.
type OpFunc func() (viz.Trace, error)

// Session owns a structure and its on-screen state.
type Session struct {
	structure viz.Structure
	surface   surface.Surface
	sched     *anim.Scheduler

	timing        viz.Timing
	layout        layout.Options
	noticeTTL     time.Duration
	depth         int
	dragThreshold float64

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.PlaybackMetrics
	now     func() time.Time

	// opMu serializes operations; it is never held by the playback goroutine.
	opMu    sync.Mutex
	history []any

	// viewMu guards the scene, which the playback goroutine updates.
	viewMu sync.Mutex
	scene  viz.Scene
	seq    uint64
}

// New creates a session showing st on sf and renders the initial frame.
func New(ctx context.Context, st viz.Structure, sf surface.Surface, opts ...Option) (*Session, error) {
	s := &Session{
		structure:     st,
		surface:       sf,
		timing:        viz.DefaultTiming(),
		layout:        layout.DefaultOptions(),
		noticeTTL:     DefaultNoticeTTL,
		depth:         DefaultHistoryDepth,
		dragThreshold: DefaultDragThreshold,
		logger:        slog.Default(),
		tracer:        otel.Tracer(observability.TracerName),
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.sched == nil {
		s.sched = anim.New(anim.WithLogger(s.logger))
	}

	err := s.settle(ctx, "", "", false)
	if err != nil {
		return nil, fmt.Errorf("render initial frame: %w", err)
	}

	return s, nil
}

// Structure returns the engine the session drives.
func (s *Session) Structure() viz.Structure { return s.structure }

// Animating reports whether a playback is running. Controls are disabled
// while it is true.
func (s *Session) Animating() bool { return s.sched.Animating() }

// Cancel stops the running playback between two steps.
func (s *Session) Cancel() { s.sched.CancelCurrent() }

// Wait blocks until the running playback, if any, has ended.
func (s *Session) Wait(ctx context.Context) error {
	h := s.sched.Current()
	if h == nil {
		return nil
	}

	err := h.Wait(ctx)
	if errors.Is(err, anim.ErrCanceled) {
		return nil
	}

	return err
}

// Scene returns a copy of the scene currently on screen.
func (s *Session) Scene() viz.Scene {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()

	return viz.Scene{
		Nodes: slices.Clone(s.scene.Nodes),
		Edges: slices.Clone(s.scene.Edges),
		Moved: slices.Clone(s.scene.Moved),
	}
}

// HistoryLen returns the number of undoable operations.
func (s *Session) HistoryLen() int {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	return len(s.history)
}

// Run performs op and schedules the playback of its trace.
//
// While a playback is running the scheduler's policy applies: under ignore
// Run returns anim.ErrBusy without touching the structure; under preempt the
// running playback stops between steps first. A rejected operation publishes
// a notice and returns its error; if it still produced steps (a search that
// missed), they are played and the handle is returned alongside the error.
// Mutating operations are checkpointed for Undo when the structure supports it.
func (s *Session) Run(ctx context.Context, op string, mutating bool, fn OpFunc) (*anim.Handle, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	kind := s.structure.Kind()
	start := s.now()

	ctx, span := s.tracer.Start(ctx, kind+"."+op, trace.WithAttributes(
		attribute.String("dsviz.structure", kind),
		attribute.String("dsviz.op", op),
	))

	err := s.sched.Acquire(ctx)
	if err != nil {
		s.logger.InfoContext(ctx, "operation refused", "structure", kind, "op", op, "error", err)
		s.recordOp(ctx, op, observability.StatusBusy, start)
		span.SetStatus(codes.Error, err.Error())
		span.End()

		return nil, fmt.Errorf("%s %s: %w", kind, op, err)
	}

	var cp any

	restorer, canUndo := s.structure.(viz.Restorer)
	if mutating && canUndo && s.depth > 0 {
		cp = restorer.Checkpoint()
	}

	tr, opErr := fn()
	if tr.Op == "" {
		tr.Op = op
	}

	span.SetAttributes(attribute.Int("dsviz.steps", len(tr.Steps)))

	if opErr != nil {
		s.reject(ctx, op, opErr)
		span.RecordError(opErr)
		span.SetStatus(codes.Error, string(viz.KindOf(opErr)))
	} else if cp != nil {
		s.history = append(s.history, cp)
		if len(s.history) > s.depth {
			s.history = slices.Delete(s.history, 0, len(s.history)-s.depth)
		}
	}

	if opErr != nil && len(tr.Steps) == 0 {
		s.recordOp(ctx, op, observability.StatusRejected, start)
		span.End()

		return nil, opErr
	}

	s.logger.DebugContext(ctx, "operation applied", "structure", kind, "op", op, "steps", len(tr.Steps))

	status := observability.StatusOK
	if opErr != nil {
		status = observability.StatusRejected
	}

	h, err := s.play(ctx, tr, func(ctx context.Context) {
		s.recordOp(ctx, op, status, start)
		span.End()
	})
	if err != nil {
		span.End()

		return nil, err
	}

	return h, opErr
}

func (s *Session) reject(ctx context.Context, op string, err error) {
	kind := viz.KindOf(err)
	s.logger.InfoContext(ctx, "operation rejected", "structure", s.structure.Kind(), "op", op, "kind", kind, "error", err)

	if s.metrics != nil {
		s.metrics.RecordRejection(ctx, s.structure.Kind(), kind)
	}

	n := surface.Notice{Kind: kind, Op: op, Message: err.Error(), Expires: s.now().Add(s.noticeTTL)}

	notifyErr := s.surface.Notify(ctx, n)
	if notifyErr != nil {
		s.logger.WarnContext(ctx, "notice not delivered", "error", notifyErr)
	}
}

func (s *Session) recordOp(ctx context.Context, op, status string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordOperation(ctx, s.structure.Kind(), op, status, s.now().Sub(start))
	}
}

// play schedules tr. done runs after the closing frame.
func (s *Session) play(ctx context.Context, tr viz.Trace, done func(context.Context)) (*anim.Handle, error) {
	steps := s.timing.Retime(tr.Steps)

	var untrack func()
	if s.metrics != nil {
		untrack = s.metrics.TrackAnimation(ctx, s.structure.Kind())
	}

	apply := func(ctx context.Context, i int, st viz.Step) error {
		if s.metrics != nil {
			s.metrics.RecordStep(ctx, st.State)
		}

		return s.step(ctx, tr.Op, i, len(steps), st)
	}

	finish := func(ctx context.Context, err error) {
		settleErr := s.settle(ctx, tr.Op, tr.Result, errors.Is(err, anim.ErrCanceled))
		if settleErr != nil {
			s.logger.WarnContext(ctx, "closing frame not rendered", "error", settleErr)
		}

		if untrack != nil {
			untrack()
		}

		done(ctx)
	}

	h, err := s.sched.Schedule(ctx, steps, apply, finish)
	if err != nil {
		if untrack != nil {
			untrack()
		}

		return nil, fmt.Errorf("schedule %s: %w", tr.Op, err)
	}

	return h, nil
}

// step applies one animation step: relayout on restructure, then highlight.
func (s *Session) step(ctx context.Context, op string, i, total int, st viz.Step) error {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()

	if st.Shape != nil {
		next := layout.Compute(st.Shape, s.scene.Positions(), s.layout)
		carry(&next, s.scene)
		s.scene = next
	} else {
		s.scene.Moved = nil
	}

	highlight(&s.scene, st)

	return s.render(ctx, surface.Frame{
		Op:        op,
		Caption:   st.Caption,
		Step:      i + 1,
		Total:     total,
		Animating: true,
	})
}

// settle lays out the structure as it is now and renders the closing frame.
// Highlights are cleared unless keep is set (a canceled playback leaves them).
func (s *Session) settle(ctx context.Context, op, result string, keep bool) error {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()

	next := layout.Compute(s.structure.Shape(), s.scene.Positions(), s.layout)
	if keep {
		carry(&next, s.scene)
	}

	s.scene = next

	return s.render(ctx, surface.Frame{Op: op, Result: result})
}

// render stamps and sends the current scene. viewMu must be held.
func (s *Session) render(ctx context.Context, f surface.Frame) error {
	s.seq++
	f.Seq = s.seq
	f.Structure = s.structure.Kind()
	f.Nodes = slices.Clone(s.scene.Nodes)
	f.Edges = slices.Clone(s.scene.Edges)
	f.Moved = slices.Clone(s.scene.Moved)

	err := s.surface.Render(ctx, f)
	if err != nil {
		return fmt.Errorf("render frame %d: %w", f.Seq, err)
	}

	return nil
}

// Undo restores the state before the last successful mutating operation and
// renders it without animation.
func (s *Session) Undo(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	restorer, ok := s.structure.(viz.Restorer)
	if !ok {
		return ErrUndoUnsupported
	}

	err := s.sched.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("undo: %w", err)
	}

	if len(s.history) == 0 {
		return ErrNoHistory
	}

	cp := s.history[len(s.history)-1]

	err = restorer.Restore(cp)
	if err != nil {
		return fmt.Errorf("undo: %w", err)
	}

	s.history = s.history[:len(s.history)-1]
	s.logger.DebugContext(ctx, "undo", "structure", s.structure.Kind(), "history", len(s.history))

	return s.settle(ctx, "undo", "", false)
}

// Gesture interprets a pointer gesture. A drag that ends farther than the
// drag threshold from the node's position removes the node, for structures
// that allow it. Anything else is ignored and returns a nil handle.
func (s *Session) Gesture(ctx context.Context, g surface.Gesture) (*anim.Handle, error) {
	if g.Type != surface.GestureDrag {
		return nil, nil
	}

	dragger, ok := s.structure.(viz.Dragger)
	if !ok {
		return nil, nil
	}

	s.viewMu.Lock()
	node, found := s.scene.Node(g.NodeID)
	s.viewMu.Unlock()

	if !found {
		return nil, viz.Fail("drag", g.NodeID, viz.ErrNotFound)
	}

	if node.Pos.Dist(g.Pointer) <= s.dragThreshold {
		return nil, nil
	}

	return s.Run(ctx, "drag", true, func() (viz.Trace, error) {
		return dragger.DragRemove(g.NodeID)
	})
}
