package viz_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want viz.ErrorKind
	}{
		{name: "nil", err: nil, want: viz.KindNone},
		{name: "validation", err: viz.Fail("insert", "x", viz.ErrValidation), want: viz.KindValidation},
		{name: "out_of_range_is_validation", err: viz.Fail("update", 9, viz.ErrOutOfRange), want: viz.KindValidation},
		{name: "not_found", err: viz.Fail("delete", 4, viz.ErrNotFound), want: viz.KindNotFound},
		{name: "duplicate", err: viz.Fail("insert", 4, viz.ErrDuplicate), want: viz.KindDuplicate},
		{name: "capacity", err: fmt.Errorf("put: %w", viz.ErrCapacity), want: viz.KindCapacity},
		{name: "empty", err: viz.Fail("pop", nil, viz.ErrEmpty), want: viz.KindEmpty},
		{name: "internal", err: errors.New("boom"), want: viz.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, viz.KindOf(tt.err))
		})
	}
}

func TestOpError_Message(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "insert 10: already exists", viz.Fail("insert", 10, viz.ErrDuplicate).Error())
	assert.Equal(t, "pop: structure empty", viz.Fail("pop", nil, viz.ErrEmpty).Error())
}

func TestRecorder_Trace(t *testing.T) {
	t.Parallel()

	rec := viz.NewRecorder("search")
	rec.Visit("visit root", "n-1")
	rec.Compare("compare", "n-1", "", "n-2")
	rec.Restructure(viz.BinaryTree{}, viz.StateRotating, "rotate", "n-1", "n-2")
	rec.Found("found", "n-2")

	tr := rec.Trace()
	require.Len(t, tr.Steps, 4)
	assert.Equal(t, "search", tr.Op)
	assert.True(t, tr.Found)
	assert.Equal(t, []string{"n-1", "n-2"}, tr.Steps[1].Targets, "empty ids are dropped")
	assert.Equal(t, viz.DefaultVisitHold, tr.Steps[0].Hold)
	assert.Equal(t, viz.DefaultChangeHold, tr.Steps[2].Hold)
	assert.Equal(t, viz.DefaultResultHold, tr.Steps[3].Hold)
	assert.Equal(t, 1, tr.Restructures())
	assert.Len(t, tr.StepsIn(viz.StateRotating), 1)
}

func TestTiming_Retime(t *testing.T) {
	t.Parallel()

	timing := viz.Timing{Visit: time.Millisecond, Change: 2 * time.Millisecond, Result: 3 * time.Millisecond}
	steps := []viz.Step{{Pace: viz.PaceVisit}, {Pace: viz.PaceChange}, {Pace: viz.PaceResult}}

	out := timing.Retime(steps)

	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond},
		[]time.Duration{out[0].Hold, out[1].Hold, out[2].Hold})
	assert.Zero(t, steps[0].Hold, "input is not modified")
}

func TestIDs_NeverReused(t *testing.T) {
	t.Parallel()

	ids := viz.NewIDs("n")
	first := ids.Next()
	clone := ids.Clone()

	assert.Equal(t, "n-1", first)
	assert.Equal(t, "n-2", ids.Next())
	assert.Equal(t, "n-2", clone.Next(), "clone continues independently")
}

func TestScene_Lookup(t *testing.T) {
	t.Parallel()

	scene := viz.Scene{Nodes: []viz.VisualNode{{ID: "a", Pos: viz.Position{X: 3, Y: 4}}}}

	n, ok := scene.Node("a")
	require.True(t, ok)
	assert.InDelta(t, 5.0, n.Pos.Dist(viz.Position{}), 1e-9)
	assert.Equal(t, viz.Position{X: 3, Y: 4}, scene.Positions()["a"])

	_, ok = scene.Node("b")
	assert.False(t, ok)
}

func TestRecorder_NotFoundWithoutTarget(t *testing.T) {
	t.Parallel()

	rec := viz.NewRecorder("search")
	rec.NotFound("nothing walked", "")
	assert.Zero(t, rec.Len(), "a missing last node records no step")

	rec.NotFound("caption only")
	rec.NotFound("at leaf", "", "n-3")

	tr := rec.Trace()
	require.Len(t, tr.Steps, 2)
	assert.Empty(t, tr.Steps[0].Targets)
	assert.Equal(t, []string{"n-3"}, tr.Steps[1].Targets)
	assert.False(t, tr.Found)
}
