package avl_test

import (
	"cmp"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	refavl "gitlab.com/yawning/avl.git"

	"github.com/Sumatoshi-tech/dsviz/pkg/alg/avl"
	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

func build(t *testing.T, values ...int) *avl.Tree[int] {
	t.Helper()

	tree := avl.New[int]()
	for _, v := range values {
		_, err := tree.Insert(v)
		require.NoError(t, err)
	}

	return tree
}

func TestInsert_SingleLeftRotationAtRoot(t *testing.T) {
	t.Parallel()

	tree := build(t, 10, 20)

	tr, err := tree.Insert(30)
	require.NoError(t, err)

	root, ok := tree.Root()
	require.True(t, ok)
	assert.Equal(t, 20, root)

	shape := tree.Shape().(viz.BinaryTree)
	assert.Equal(t, "10", shape.Root.Left.Label)
	assert.Equal(t, "30", shape.Root.Right.Label)

	for _, v := range []int{10, 20, 30} {
		bf, found := tree.BalanceOf(v)
		require.True(t, found)
		assert.Zero(t, bf, v)
	}

	rotations := tr.StepsIn(viz.StateRotating)
	require.Len(t, rotations, 2, "one highlight and one checkpoint")
	assert.Nil(t, rotations[0].Shape)
	assert.NotNil(t, rotations[1].Shape)
	assert.Equal(t, 2, tr.Restructures(), "inserted leaf and rotation")
}

func TestInsert_RotationCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		values    []int
		root      int
		rotations int
	}{
		{name: "left_left", values: []int{30, 20, 10}, root: 20, rotations: 1},
		{name: "right_right", values: []int{10, 20, 30}, root: 20, rotations: 1},
		{name: "left_right", values: []int{30, 10, 20}, root: 20, rotations: 2},
		{name: "right_left", values: []int{10, 30, 20}, root: 20, rotations: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tree := build(t, tt.values[:2]...)

			tr, err := tree.Insert(tt.values[2])
			require.NoError(t, err)
			require.NoError(t, tree.Valid())

			root, _ := tree.Root()
			assert.Equal(t, tt.root, root)
			assert.Len(t, tr.StepsIn(viz.StateRotating), 2*tt.rotations)
		})
	}
}

func TestInsert_Duplicate(t *testing.T) {
	t.Parallel()

	tree := build(t, 1, 2, 3)

	tr, err := tree.Insert(2)
	require.ErrorIs(t, err, viz.ErrDuplicate)
	assert.Zero(t, tr.Restructures())
	assert.Equal(t, 3, tree.Len())
}

func TestDelete_Rebalances(t *testing.T) {
	t.Parallel()

	tree := build(t, 20, 10, 30, 40)

	tr, err := tree.Delete(10)
	require.NoError(t, err)
	require.NoError(t, tree.Valid())

	root, _ := tree.Root()
	assert.Equal(t, 30, root)
	assert.NotEmpty(t, tr.StepsIn(viz.StateRotating))
	assert.Equal(t, []int{20, 30, 40}, tree.InOrder())
}

func TestDelete_Rejections(t *testing.T) {
	t.Parallel()

	_, err := avl.New[int]().Delete(3)
	require.ErrorIs(t, err, viz.ErrEmpty)

	tree := build(t, 5)
	tr, err := tree.Delete(3)
	require.ErrorIs(t, err, viz.ErrNotFound)
	assert.Len(t, tr.StepsIn(viz.StateNotFound), 1)
	assert.Equal(t, 1, tree.Len())
}

func TestSearch(t *testing.T) {
	t.Parallel()

	tree := build(t, 1, 2, 3, 4, 5, 6, 7)

	tr, err := tree.Search(7)
	require.NoError(t, err)
	assert.True(t, tr.Found)
	assert.Len(t, tr.StepsIn(viz.StateVisiting), tree.Height())

	_, err = tree.Search(8)
	require.ErrorIs(t, err, viz.ErrNotFound)
}

func TestRandomSequence_MatchesOracle(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(3, 4))
	tree := avl.New[int]()
	ref := refavl.New(func(a, b any) int { return cmp.Compare(a.(int), b.(int)) })

	for i := range 3000 {
		v := rng.IntN(500)
		if rng.IntN(3) == 0 {
			_, err := tree.Delete(v)

			n := ref.Find(v)
			assert.Equal(t, n != nil, err == nil, "delete %d", v)

			if n != nil {
				ref.Remove(n)
			}
		} else {
			_, err := tree.Insert(v)
			existed := ref.Find(v) != nil
			ref.Insert(v)
			assert.Equal(t, !existed, err == nil, "insert %d", v)
		}

		if i%100 == 0 {
			require.NoError(t, tree.Valid())
		}
	}

	require.NoError(t, tree.Valid())
	assert.Equal(t, oracleKeys(ref), tree.InOrder())
	assert.Equal(t, ref.Len(), tree.Len())
}

func oracleKeys(ref *refavl.Tree) []int {
	keys := make([]int, 0, ref.Len())
	ref.ForEach(refavl.Forward, func(n *refavl.Node) bool {
		keys = append(keys, n.Value.(int))

		return true
	})

	return keys
}

func TestCheckpoint_Restore(t *testing.T) {
	t.Parallel()

	tree := build(t, 1, 2, 3)
	cp := tree.Checkpoint()

	_, err := tree.Insert(4)
	require.NoError(t, err)
	require.NoError(t, tree.Restore(cp))

	assert.Equal(t, []int{1, 2, 3}, tree.InOrder())
	require.NoError(t, tree.Valid())

	_, err = tree.Insert(4)
	require.NoError(t, err)
	require.NoError(t, tree.Valid(), "restored copy is independent of the checkpoint")
	require.NoError(t, tree.Restore(cp))
	assert.Equal(t, 3, tree.Len())
}

func TestSearch_EmptyTree(t *testing.T) {
	t.Parallel()

	tr, err := avl.New[int]().Search(5)
	require.ErrorIs(t, err, viz.ErrEmpty)
	assert.Empty(t, tr.Steps)
}
