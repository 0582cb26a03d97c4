package rbtree_test

import (
	"math/rand/v2"
	"testing"

	"github.com/petar/GoLLRB/llrb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/dsviz/pkg/alg/rbtree"
	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

func build(t *testing.T, values ...int) *rbtree.Tree[int] {
	t.Helper()

	tree := rbtree.New[int]()
	for _, v := range values {
		_, err := tree.Insert(v)
		require.NoError(t, err)
	}

	return tree
}

func oracleKeys(ref *llrb.LLRB) []int {
	out := make([]int, 0, ref.Len())
	ref.AscendGreaterOrEqual(llrb.Inf(-1), func(i llrb.Item) bool {
		out = append(out, int(i.(llrb.Int)))

		return true
	})

	return out
}

func TestInsert_RootIsBlack(t *testing.T) {
	t.Parallel()

	tree := rbtree.New[int]()

	tr, err := tree.Insert(10)
	require.NoError(t, err)

	red, found := tree.IsRed(10)
	require.True(t, found)
	assert.False(t, red)
	assert.Len(t, tr.StepsIn(viz.StateRecolored), 1)
}

func TestInsert_UncleRedRecolors(t *testing.T) {
	t.Parallel()

	tree := build(t, 20, 10, 30)

	tr, err := tree.Insert(5)
	require.NoError(t, err)
	require.NoError(t, tree.Valid())

	assert.Empty(t, tr.StepsIn(viz.StateRotating))

	for v, wantRed := range map[int]bool{20: false, 10: false, 30: false, 5: true} {
		red, _ := tree.IsRed(v)
		assert.Equal(t, wantRed, red, v)
	}
}

func TestInsert_UncleBlackRotates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		values    []int
		rotations int
	}{
		{name: "outer_left", values: []int{30, 20, 10}, rotations: 1},
		{name: "outer_right", values: []int{10, 20, 30}, rotations: 1},
		{name: "inner_left", values: []int{30, 10, 20}, rotations: 2},
		{name: "inner_right", values: []int{10, 30, 20}, rotations: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tree := build(t, tt.values[:2]...)

			tr, err := tree.Insert(tt.values[2])
			require.NoError(t, err)
			require.NoError(t, tree.Valid())

			root := tree.Shape().(viz.BinaryTree).Root
			assert.Equal(t, "20", root.Label)
			assert.Equal(t, viz.ToneBlack, root.Tone)
			assert.Equal(t, viz.ToneRed, root.Left.Tone)
			assert.Equal(t, viz.ToneRed, root.Right.Tone)
			assert.Len(t, tr.StepsIn(viz.StateRotating), 2*tt.rotations)
		})
	}
}

func TestRejections(t *testing.T) {
	t.Parallel()

	_, err := rbtree.New[int]().Delete(1)
	require.ErrorIs(t, err, viz.ErrEmpty)

	tree := build(t, 1, 2, 3)

	_, err = tree.Insert(2)
	require.ErrorIs(t, err, viz.ErrDuplicate)

	_, err = tree.Delete(7)
	require.ErrorIs(t, err, viz.ErrNotFound)

	tr, err := tree.Search(7)
	require.ErrorIs(t, err, viz.ErrNotFound)
	assert.False(t, tr.Found)
	assert.Equal(t, []int{1, 2, 3}, tree.InOrder())
}

func TestDelete_AllFixupCases(t *testing.T) {
	t.Parallel()

	tree := build(t, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16)

	for _, v := range []int{8, 1, 16, 4, 12, 2, 3, 15, 14, 13, 5, 6, 7, 9, 10, 11} {
		_, err := tree.Delete(v)
		require.NoError(t, err, v)
		require.NoError(t, tree.Valid(), "after deleting %d", v)
	}

	assert.Zero(t, tree.Len())
	assert.Nil(t, tree.Shape().(viz.BinaryTree).Root)
}

func TestRandomSequence_MatchesOracle(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(5, 6))
	tree := rbtree.New[int]()
	ref := llrb.New()

	for i := range 4000 {
		v := rng.IntN(400)

		if rng.IntN(5) < 2 {
			_, err := tree.Delete(v)
			removed := ref.Delete(llrb.Int(v))
			assert.Equal(t, removed != nil, err == nil, "delete %d", v)
		} else {
			_, err := tree.Insert(v)
			existed := ref.Has(llrb.Int(v))
			ref.ReplaceOrInsert(llrb.Int(v))
			assert.Equal(t, !existed, err == nil, "insert %d", v)
		}

		if i%250 == 0 {
			require.NoError(t, tree.Valid())
		}
	}

	require.NoError(t, tree.Valid())
	assert.Equal(t, oracleKeys(ref), tree.InOrder())
	assert.Equal(t, ref.Len(), tree.Len())
	assert.Positive(t, tree.BlackHeight())
}

func TestCheckpoint_Restore(t *testing.T) {
	t.Parallel()

	tree := build(t, 5, 3, 8, 1)
	cp := tree.Checkpoint()
	idsBefore := tree.Shape().(viz.BinaryTree).Root.ID

	_, err := tree.Delete(5)
	require.NoError(t, err)
	_, err = tree.Insert(42)
	require.NoError(t, err)

	require.NoError(t, tree.Restore(cp))
	require.NoError(t, tree.Valid())
	assert.Equal(t, []int{1, 3, 5, 8}, tree.InOrder())
	assert.Equal(t, idsBefore, tree.Shape().(viz.BinaryTree).Root.ID)

	require.ErrorContains(t, tree.Restore(42), "checkpoint")
}

func TestSearch_EmptyTree(t *testing.T) {
	t.Parallel()

	tr, err := rbtree.New[int]().Search(5)
	require.ErrorIs(t, err, viz.ErrEmpty)
	assert.Empty(t, tr.Steps)
}
