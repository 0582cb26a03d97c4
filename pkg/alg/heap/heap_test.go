package heap_test

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/dsviz/pkg/alg/heap"
	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

func drain(t *testing.T, h *heap.Heap[int]) []int {
	t.Helper()

	var out []int

	for h.Len() > 0 {
		v, _, err := h.Pop()
		require.NoError(t, err)
		require.NoError(t, h.Valid())

		out = append(out, v)
	}

	return out
}

func TestPushPop_Sorts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		order heap.Order
		want  []int
	}{
		{name: "min", order: heap.Min, want: []int{1, 2, 3, 3, 5, 8, 9}},
		{name: "max", order: heap.Max, want: []int{9, 8, 5, 3, 3, 2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, err := heap.New[int](tt.order)
			require.NoError(t, err)

			for _, v := range []int{5, 3, 8, 1, 9, 2, 3} {
				_, err := h.Push(v)
				require.NoError(t, err)
				require.NoError(t, h.Valid())
			}

			assert.Equal(t, tt.want, drain(t, h))
		})
	}
}

func TestPush_SiftUpSwaps(t *testing.T) {
	t.Parallel()

	h, err := heap.New[int](heap.Min)
	require.NoError(t, err)

	for _, v := range []int{10, 20, 30} {
		_, err := h.Push(v)
		require.NoError(t, err)
	}

	tr, err := h.Push(5)
	require.NoError(t, err)
	assert.Len(t, tr.StepsIn(viz.StateUpdated), 2, "5 climbs past 20 and 10")
	assert.Equal(t, []int{5, 10, 30, 20}, h.Values())

	v, tr, err := h.Peek()
	require.NoError(t, err)
	assert.Equal(t, 5, v)
	assert.Equal(t, "5", tr.Result)
}

func TestBuild_Heapifies(t *testing.T) {
	t.Parallel()

	h, err := heap.New[int](heap.Max)
	require.NoError(t, err)

	_, err = h.Build([]int{1, 2, 3, 4, 5, 6, 7})
	require.NoError(t, err)
	require.NoError(t, h.Valid())

	root := h.Shape().(viz.BinaryTree).Root
	assert.Equal(t, "7", root.Label)
	assert.Equal(t, "[0]", root.Detail)
}

func TestDelete_Arbitrary(t *testing.T) {
	t.Parallel()

	h, err := heap.New[int](heap.Min)
	require.NoError(t, err)

	_, err = h.Build([]int{1, 5, 2, 6, 7, 3, 4})
	require.NoError(t, err)

	_, err = h.Delete(6)
	require.NoError(t, err)
	require.NoError(t, h.Valid())

	_, err = h.Search(6)
	require.ErrorIs(t, err, viz.ErrNotFound)

	_, err = h.Delete(42)
	require.ErrorIs(t, err, viz.ErrNotFound)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 7}, drain(t, h))
}

func TestRejections(t *testing.T) {
	t.Parallel()

	_, err := heap.New[int]("median")
	require.ErrorIs(t, err, viz.ErrValidation)

	h, err := heap.New[string](heap.Min)
	require.NoError(t, err)

	_, _, err = h.Pop()
	require.ErrorIs(t, err, viz.ErrEmpty)

	_, _, err = h.Peek()
	require.ErrorIs(t, err, viz.ErrEmpty)

	_, err = h.Delete("a")
	require.ErrorIs(t, err, viz.ErrEmpty)
}

func TestRandomOps_Valid(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(51, 52))

	h, err := heap.New[int](heap.Min)
	require.NoError(t, err)

	var ref []int

	for range 500 {
		if rng.IntN(3) == 0 && len(ref) > 0 {
			v, _, err := h.Pop()
			require.NoError(t, err)
			assert.Equal(t, slices.Min(ref), v)

			ref = slices.Delete(ref, slices.Index(ref, v), slices.Index(ref, v)+1)
		} else {
			v := rng.IntN(100)
			_, err := h.Push(v)
			require.NoError(t, err)

			ref = append(ref, v)
		}

		require.NoError(t, h.Valid())
	}

	assert.Equal(t, len(ref), h.Len())
}

func TestCheckpoint_IDsFollowValues(t *testing.T) {
	t.Parallel()

	h, err := heap.New[int](heap.Min)
	require.NoError(t, err)

	_, err = h.Push(2)
	require.NoError(t, err)

	id := h.Shape().(viz.BinaryTree).Root.ID
	cp := h.Checkpoint()

	_, err = h.Push(1)
	require.NoError(t, err)

	root := h.Shape().(viz.BinaryTree).Root
	assert.Equal(t, id, root.Left.ID, "2 kept its id while moving down")

	require.NoError(t, h.Restore(cp))
	assert.Equal(t, []int{2}, h.Values())
}

func TestSearch_EmptyHeap(t *testing.T) {
	t.Parallel()

	h, err := heap.New[int](heap.Max)
	require.NoError(t, err)

	tr, err := h.Search(5)
	require.ErrorIs(t, err, viz.ErrEmpty)
	assert.Empty(t, tr.Steps)
}
