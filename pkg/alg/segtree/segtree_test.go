package segtree_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/dsviz/pkg/alg/segtree"
	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

func fold(op segtree.Op, values []int) int {
	acc := op.Identity()
	for _, v := range values {
		acc = op.Combine(acc, v)
	}

	return acc
}

func TestQuery_MatchesDirectFold(t *testing.T) {
	t.Parallel()

	for _, op := range []segtree.Op{segtree.OpSum, segtree.OpMin, segtree.OpMax} {
		t.Run(string(op), func(t *testing.T) {
			t.Parallel()

			rng := rand.New(rand.NewPCG(11, 12))
			values := make([]int, 37)

			for i := range values {
				values[i] = rng.IntN(1000) - 500
			}

			tree, err := segtree.New(values, op)
			require.NoError(t, err)

			for range 300 {
				if rng.IntN(3) == 0 {
					i, v := rng.IntN(len(values)), rng.IntN(1000)-500
					values[i] = v

					_, err := tree.Update(i, v)
					require.NoError(t, err)
				}

				l := rng.IntN(len(values))
				r := l + rng.IntN(len(values)-l)

				got, tr, err := tree.Query(l, r)
				require.NoError(t, err)
				assert.Equal(t, fold(op, values[l:r+1]), got, "[%d..%d]", l, r)
				assert.True(t, tr.Found)
			}

			require.NoError(t, tree.Valid())
		})
	}
}

func TestQuery_HighlightsDisjointAndCovered(t *testing.T) {
	t.Parallel()

	tree, err := segtree.New([]int{1, 2, 3, 4}, segtree.OpSum)
	require.NoError(t, err)

	sum, tr, err := tree.Query(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, sum)
	assert.Equal(t, "5", tr.Result)
	assert.Len(t, tr.StepsIn(viz.StateNotFound), 2, "leaves 0 and 3")
	assert.Len(t, tr.StepsIn(viz.StateFound), 3, "leaves 1, 2 and the result")
}

func TestUpdate_RecomputesAncestors(t *testing.T) {
	t.Parallel()

	tree, err := segtree.New([]int{5, 1, 4, 2}, segtree.OpMin)
	require.NoError(t, err)

	tr, err := tree.Update(1, 9)
	require.NoError(t, err)
	assert.Len(t, tr.StepsIn(viz.StateUpdated), 3, "leaf and two ancestors")

	root := tree.Shape().(viz.BinaryTree).Root
	assert.Equal(t, "2", root.Label)
	assert.Equal(t, "[0..3]", root.Detail)
}

func TestRejections(t *testing.T) {
	t.Parallel()

	_, err := segtree.New(nil, segtree.OpSum)
	require.ErrorIs(t, err, viz.ErrValidation)

	_, err = segtree.New([]int{1}, "avg")
	require.ErrorIs(t, err, viz.ErrValidation)

	tree, err := segtree.New([]int{1, 2}, segtree.OpSum)
	require.NoError(t, err)

	_, _, err = tree.Query(0, 2)
	require.ErrorIs(t, err, viz.ErrOutOfRange)

	_, _, err = tree.Query(1, 0)
	require.ErrorIs(t, err, viz.ErrValidation)

	_, err = tree.Update(-1, 3)
	require.ErrorIs(t, err, viz.ErrOutOfRange)
	assert.Equal(t, []int{1, 2}, tree.Values())
}

func TestSetOp_Rebuilds(t *testing.T) {
	t.Parallel()

	tree, err := segtree.New([]int{3, 8, 1}, segtree.OpSum)
	require.NoError(t, err)

	_, err = tree.SetOp(segtree.OpMax)
	require.NoError(t, err)
	assert.Equal(t, segtree.OpMax, tree.Op())

	v, _, err := tree.Query(0, 2)
	require.NoError(t, err)
	assert.Equal(t, 8, v)

	cp := tree.Checkpoint()
	_, err = tree.Build([]int{1})
	require.NoError(t, err)
	require.NoError(t, tree.Restore(cp))
	assert.Equal(t, []int{3, 8, 1}, tree.Values())
	require.NoError(t, tree.Valid())
}
