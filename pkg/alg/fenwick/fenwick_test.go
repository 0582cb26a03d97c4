package fenwick_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/dsviz/pkg/alg/fenwick"
	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

func build(t *testing.T, values ...int) *fenwick.Tree {
	t.Helper()

	tree, err := fenwick.New(len(values))
	require.NoError(t, err)

	_, err = tree.Build(values)
	require.NoError(t, err)

	return tree
}

func TestPrefixSum_AfterPointUpdate(t *testing.T) {
	t.Parallel()

	tree := build(t, 1, 3, 5, 7, 9, 11)

	sum, tr, err := tree.PrefixSum(3)
	require.NoError(t, err)
	assert.Equal(t, 16, sum)
	assert.Equal(t, "16", tr.Result)
	assert.Len(t, tr.StepsIn(viz.StateVisiting), 1, "slot 4 covers elements 0..3")

	tr, err = tree.Update(2, 5)
	require.NoError(t, err)
	assert.Len(t, tr.StepsIn(viz.StateUpdated), 2, "slots 3 and 4")

	sum, _, err = tree.PrefixSum(3)
	require.NoError(t, err)
	assert.Equal(t, 21, sum)
	require.NoError(t, tree.Valid())
}

func TestSet_AssignsValue(t *testing.T) {
	t.Parallel()

	tree := build(t, 1, 3, 5, 7, 9, 11)

	_, err := tree.Set(2, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 10, 7, 9, 11}, tree.Values())

	sum, _, err := tree.RangeSum(2, 4)
	require.NoError(t, err)
	assert.Equal(t, 26, sum)
}

func TestRejections_LeaveTreeUnchanged(t *testing.T) {
	t.Parallel()

	tree := build(t, 1, 2, 3)

	tests := []struct {
		name string
		run  func() error
	}{
		{name: "update_negative", run: func() error { _, err := tree.Update(-1, 1); return err }},
		{name: "update_past_end", run: func() error { _, err := tree.Update(3, 1); return err }},
		{name: "set_past_end", run: func() error { _, err := tree.Set(9, 1); return err }},
		{name: "prefix_past_end", run: func() error { _, _, err := tree.PrefixSum(3); return err }},
		{name: "range_reversed", run: func() error { _, _, err := tree.RangeSum(2, 1); return err }},
	}

	for _, tt := range tests {
		err := tt.run()
		require.ErrorIs(t, err, viz.ErrValidation, tt.name)
		assert.Equal(t, viz.KindValidation, viz.KindOf(err))
	}

	_, err := tree.Update(5, 1)
	require.ErrorIs(t, err, viz.ErrOutOfRange)
	assert.Equal(t, []int{1, 2, 3}, tree.Values())
	require.NoError(t, tree.Valid())

	_, err = fenwick.New(0)
	require.ErrorIs(t, err, viz.ErrValidation)

	_, err = tree.Build(nil)
	require.ErrorIs(t, err, viz.ErrValidation)
}

func TestRandomRoundTrip(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 8))
	values := make([]int, 64)

	for i := range values {
		values[i] = rng.IntN(100) - 50
	}

	tree := build(t, values...)

	for range 200 {
		i := rng.IntN(len(values))
		d := rng.IntN(20) - 10
		values[i] += d

		_, err := tree.Update(i, d)
		require.NoError(t, err)
	}

	want := 0

	for i, v := range values {
		want += v

		got, _, err := tree.PrefixSum(i)
		require.NoError(t, err)
		assert.Equal(t, want, got, "prefix %d", i)
	}

	require.NoError(t, tree.Valid())
}

func TestShape_LinksFollowUpdatePath(t *testing.T) {
	t.Parallel()

	tree := build(t, 1, 1, 1, 1)
	arr := tree.Shape().(viz.Array)

	require.Len(t, arr.Cells, 4)
	assert.Equal(t, "4", arr.Cells[3].Label)
	assert.Equal(t, "[0..3]", arr.Cells[3].Detail)
	assert.Contains(t, arr.Links, viz.Link{From: tree.SlotID(1), To: tree.SlotID(2)})
	assert.Contains(t, arr.Links, viz.Link{From: tree.SlotID(3), To: tree.SlotID(4)})
	assert.Len(t, arr.Links, 3)
}

func TestCheckpoint_Restore(t *testing.T) {
	t.Parallel()

	tree := build(t, 4, 5, 6)
	cp := tree.Checkpoint()

	_, err := tree.Build([]int{9, 9})
	require.NoError(t, err)
	require.NoError(t, tree.Restore(cp))

	assert.Equal(t, []int{4, 5, 6}, tree.Values())
	require.NoError(t, tree.Valid())
}
