package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/dsviz/pkg/alg/bst"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/linear"
	"github.com/Sumatoshi-tech/dsviz/pkg/anim"
	"github.com/Sumatoshi-tech/dsviz/pkg/observability"
	"github.com/Sumatoshi-tech/dsviz/pkg/session"
	"github.com/Sumatoshi-tech/dsviz/pkg/surface"
	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

const waitTimeout = 5 * time.Second

func instant(ctx context.Context, _ time.Duration) error { return ctx.Err() }

// gate blocks every hold until released or canceled.
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 64), release: make(chan struct{})}
}

func (g *gate) sleep(ctx context.Context, _ time.Duration) error {
	g.entered <- struct{}{}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-g.release:
		return nil
	}
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	t.Cleanup(cancel)

	return ctx
}

func newSession(t *testing.T, st viz.Structure, opts ...session.Option) (*session.Session, *surface.Memory) {
	t.Helper()

	mem := surface.NewMemory()
	opts = append([]session.Option{session.WithScheduler(anim.New(anim.WithSleeper(instant)))}, opts...)

	s, err := session.New(context.Background(), st, mem, opts...)
	require.NoError(t, err)

	return s, mem
}

func insert(t *testing.T, s *session.Session, tree *bst.Tree[int], v int) {
	t.Helper()

	_, err := s.Run(context.Background(), "insert", true, func() (viz.Trace, error) { return tree.Insert(v) })
	require.NoError(t, err)
	require.NoError(t, s.Wait(waitCtx(t)))
}

func TestNew_RendersInitialFrame(t *testing.T) {
	t.Parallel()

	_, mem := newSession(t, bst.New[int]())

	frames := mem.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, uint64(1), frames[0].Seq)
	assert.Equal(t, "bst", frames[0].Structure)
	assert.Empty(t, frames[0].Nodes)
	assert.False(t, frames[0].Animating)
}

func TestRun_PlaysStepsThenSettles(t *testing.T) {
	t.Parallel()

	tree := bst.New[int]()
	s, mem := newSession(t, tree)

	insert(t, s, tree, 10)
	mem.Reset()
	insert(t, s, tree, 20)

	frames := mem.Frames()
	require.Len(t, frames, 3, "compare, restructure, closing frame")

	compare := frames[0]
	assert.True(t, compare.Animating)
	assert.Equal(t, 1, compare.Step)
	assert.Equal(t, 2, compare.Total)
	assert.Equal(t, viz.StateComparing, compare.Nodes[0].State)

	inserted := frames[1]
	require.Len(t, inserted.Nodes, 2)
	assert.Equal(t, viz.StatePath, inserted.Nodes[0].State, "compared node leaves a trail")
	assert.Equal(t, viz.StateInserted, inserted.Nodes[1].State)
	require.Len(t, inserted.Edges, 1)
	assert.Equal(t, viz.StatePath, inserted.Edges[0].State)

	closing := frames[2]
	assert.False(t, closing.Animating)
	assert.Zero(t, closing.Step)

	for _, n := range closing.Nodes {
		assert.Equal(t, viz.StateDefault, n.State)
	}

	assert.Greater(t, closing.Seq, inserted.Seq)
	assert.False(t, s.Animating())
}

func TestRun_RejectionPublishesNotice(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tree := bst.New[int]()
	s, mem := newSession(t, tree, session.WithClock(func() time.Time { return now }), session.WithNoticeTTL(2*time.Second))

	insert(t, s, tree, 5)

	h, err := s.Run(context.Background(), "insert", true, func() (viz.Trace, error) { return tree.Insert(5) })
	require.ErrorIs(t, err, viz.ErrDuplicate)
	require.NotNil(t, h, "the search path of a rejected insert is still shown")
	require.NoError(t, s.Wait(waitCtx(t)))

	notices := mem.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, viz.KindDuplicate, notices[0].Kind)
	assert.Equal(t, now.Add(2*time.Second), notices[0].Expires)
	assert.Equal(t, []int{5}, tree.InOrder())
	assert.Equal(t, 1, s.HistoryLen(), "rejected operations are not undoable")
}

func TestRun_RejectionWithoutStepsSchedulesNothing(t *testing.T) {
	t.Parallel()

	st := linear.NewStack[int]()
	s, mem := newSession(t, st)

	h, err := s.Run(context.Background(), "pop", true, func() (viz.Trace, error) {
		_, tr, err := st.Pop()

		return tr, err
	})
	require.ErrorIs(t, err, viz.ErrEmpty)
	assert.Nil(t, h)
	assert.Len(t, mem.Frames(), 1)
	require.Len(t, mem.Notices(), 1)
	assert.Equal(t, viz.KindEmpty, mem.Notices()[0].Kind)
}

func TestRun_IgnoresWhileAnimating(t *testing.T) {
	t.Parallel()

	g := newGate()
	tree := bst.New[int]()
	s, _ := newSession(t, tree, session.WithScheduler(anim.New(anim.WithSleeper(g.sleep))))

	_, err := s.Run(context.Background(), "insert", true, func() (viz.Trace, error) { return tree.Insert(1) })
	require.NoError(t, err)

	<-g.entered
	assert.True(t, s.Animating())

	called := false
	_, err = s.Run(context.Background(), "insert", true, func() (viz.Trace, error) {
		called = true

		return tree.Insert(2)
	})
	require.ErrorIs(t, err, anim.ErrBusy)
	assert.False(t, called, "refused operations never reach the engine")

	close(g.release)
	require.NoError(t, s.Wait(waitCtx(t)))
	assert.Equal(t, []int{1}, tree.InOrder())
}

func TestRun_PreemptCancelsRunningPlayback(t *testing.T) {
	t.Parallel()

	g := newGate()
	tree := bst.New[int]()
	_, err := tree.Insert(1)
	require.NoError(t, err)

	sched := anim.New(anim.WithSleeper(g.sleep), anim.WithPolicy(anim.PolicyPreempt))
	s, mem := newSession(t, tree, session.WithScheduler(sched))

	first, err := s.Run(context.Background(), "insert", true, func() (viz.Trace, error) { return tree.Insert(2) })
	require.NoError(t, err)

	<-g.entered

	second, err := s.Run(context.Background(), "insert", true, func() (viz.Trace, error) { return tree.Insert(3) })
	require.NoError(t, err)
	require.ErrorIs(t, first.Wait(waitCtx(t)), anim.ErrCanceled)
	assert.Equal(t, 1, first.Played())

	<-g.entered
	close(g.release)
	require.NoError(t, second.Wait(waitCtx(t)))
	assert.Equal(t, []int{1, 2, 3}, tree.InOrder())

	last, ok := mem.Last()
	require.True(t, ok)
	assert.Len(t, last.Nodes, 3)
	assert.False(t, last.Animating)
}

func TestCancel_LeavesHighlights(t *testing.T) {
	t.Parallel()

	g := newGate()
	tree := bst.New[int]()

	for _, v := range []int{10, 20} {
		_, err := tree.Insert(v)
		require.NoError(t, err)
	}

	s, mem := newSession(t, tree, session.WithScheduler(anim.New(anim.WithSleeper(g.sleep))))

	_, err := s.Run(context.Background(), "search", false, func() (viz.Trace, error) { return tree.Search(20) })
	require.NoError(t, err)

	<-g.entered
	s.Cancel()
	require.NoError(t, s.Wait(waitCtx(t)))

	last, ok := mem.Last()
	require.True(t, ok)
	assert.False(t, last.Animating)
	require.Len(t, last.Nodes, 2)
	assert.Equal(t, viz.StateVisiting, last.Nodes[0].State, "a canceled playback keeps what it showed")
	assert.Equal(t, viz.StateDefault, last.Nodes[1].State)
	assert.Equal(t, 0, s.HistoryLen(), "searches are not checkpointed")
}

func TestUndo(t *testing.T) {
	t.Parallel()

	tree := bst.New[int]()
	s, mem := newSession(t, tree, session.WithHistoryDepth(2))

	for _, v := range []int{1, 2, 3} {
		insert(t, s, tree, v)
	}

	assert.Equal(t, 2, s.HistoryLen(), "history is bounded")

	require.NoError(t, s.Undo(context.Background()))
	assert.Equal(t, []int{1, 2}, tree.InOrder())

	last, ok := mem.Last()
	require.True(t, ok)
	assert.Equal(t, "undo", last.Op)
	assert.Len(t, last.Nodes, 2)

	require.NoError(t, s.Undo(context.Background()))
	assert.Equal(t, []int{1}, tree.InOrder())
	require.ErrorIs(t, s.Undo(context.Background()), session.ErrNoHistory)
}

type plain struct{}

func (plain) Kind() string { return "plain" }
func (plain) Shape() viz.Shape { return viz.Array{} }

func TestUndo_Unsupported(t *testing.T) {
	t.Parallel()

	s, _ := newSession(t, plain{})
	require.ErrorIs(t, s.Undo(context.Background()), session.ErrUndoUnsupported)
}

func TestGesture_DragRemovesPastThreshold(t *testing.T) {
	t.Parallel()

	st := linear.NewStack[int]()
	s, _ := newSession(t, st)

	for _, v := range []int{1, 2} {
		_, err := s.Run(context.Background(), "push", true, func() (viz.Trace, error) { return st.Push(v) })
		require.NoError(t, err)
		require.NoError(t, s.Wait(waitCtx(t)))
	}

	scene := s.Scene()
	require.Len(t, scene.Nodes, 2)

	top, bottom := scene.Nodes[0], scene.Nodes[1]
	near := viz.Position{X: top.Pos.X + 60, Y: top.Pos.Y + 60}
	far := viz.Position{X: top.Pos.X + 200, Y: top.Pos.Y}

	h, err := s.Gesture(context.Background(), surface.Gesture{NodeID: top.ID, Type: surface.GestureDrag, Pointer: near})
	require.NoError(t, err)
	assert.Nil(t, h, "short drags snap back")

	h, err = s.Gesture(context.Background(), surface.Gesture{NodeID: top.ID, Type: surface.GestureClick, Pointer: far})
	require.NoError(t, err)
	assert.Nil(t, h)

	_, err = s.Gesture(context.Background(), surface.Gesture{NodeID: bottom.ID, Type: surface.GestureDrag, Pointer: far})
	require.ErrorIs(t, err, viz.ErrValidation)

	h, err = s.Gesture(context.Background(), surface.Gesture{NodeID: top.ID, Type: surface.GestureDrag, Pointer: far})
	require.NoError(t, err)
	require.NotNil(t, h)
	require.NoError(t, s.Wait(waitCtx(t)))
	assert.Equal(t, []int{1}, st.Values())

	_, err = s.Gesture(context.Background(), surface.Gesture{NodeID: "nope", Type: surface.GestureDrag, Pointer: far})
	require.ErrorIs(t, err, viz.ErrNotFound)
}

func TestRun_ReportsMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	pm, err := observability.NewPlaybackMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)

	tree := bst.New[int]()
	s, _ := newSession(t, tree, session.WithMetrics(pm))

	insert(t, s, tree, 1)
	insert(t, s, tree, 2)

	_, err = s.Run(context.Background(), "insert", true, func() (viz.Trace, error) { return tree.Insert(2) })
	require.ErrorIs(t, err, viz.ErrDuplicate)
	require.NoError(t, s.Wait(waitCtx(t)))

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	totals := map[string]int64{}

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[m.Name] += dp.Value
				}
			}
		}
	}

	assert.Equal(t, int64(3), totals["dsviz.operations.total"])
	assert.Equal(t, int64(1), totals["dsviz.rejections.total"])
	assert.Equal(t, int64(6), totals["dsviz.steps.total"], "1 + 2 + 3 steps")
	assert.Equal(t, int64(0), totals["dsviz.animations.inflight"])
}
