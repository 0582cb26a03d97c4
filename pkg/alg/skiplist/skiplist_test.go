package skiplist_test

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/dsviz/pkg/alg/internal/hashutil"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/skiplist"
	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// scripted replays a fixed sequence of flips, then always lands tails.
type scripted struct {
	flips []bool
}

func (s *scripted) Flip() bool {
	if len(s.flips) == 0 {
		return false
	}

	f := s.flips[0]
	s.flips = s.flips[1:]

	return f
}

func TestInsert_HeightsFollowCoin(t *testing.T) {
	t.Parallel()

	// 10: heads, heads, tails -> height 3. 20: tails -> 1. 30: heads, tails -> 2.
	coin := &scripted{flips: []bool{true, true, false, false, true, false}}

	l, err := skiplist.New[int](skiplist.WithCoin(coin), skiplist.WithMaxLevel(4))
	require.NoError(t, err)

	for _, v := range []int{10, 20, 30} {
		_, err := l.Insert(v)
		require.NoError(t, err)
	}

	for v, want := range map[int]int{10: 3, 20: 1, 30: 2} {
		h, ok := l.HeightOf(v)
		require.True(t, ok)
		assert.Equal(t, want, h, "height of %d", v)
	}

	assert.Equal(t, 3, l.Levels())

	grid := l.Shape().(viz.Grid)
	require.Len(t, grid.Columns, 4)
	assert.Equal(t, "head", grid.Columns[0].Label)
	assert.Equal(t, 3, grid.Columns[0].Height)
	assert.Equal(t, 3, grid.Levels)
}

func TestInsert_HeightCappedAtMaxLevel(t *testing.T) {
	t.Parallel()

	coin := &scripted{flips: slices.Repeat([]bool{true}, 10)}

	l, err := skiplist.New[int](skiplist.WithCoin(coin), skiplist.WithMaxLevel(3))
	require.NoError(t, err)

	_, err = l.Insert(1)
	require.NoError(t, err)

	h, _ := l.HeightOf(1)
	assert.Equal(t, 3, h)
}

func TestSearch_SkipsOnUpperLevels(t *testing.T) {
	t.Parallel()

	// 50 gets height 2; everything else height 1.
	coin := &scripted{flips: []bool{false, false, false, false, true, false}}

	l, err := skiplist.New[int](skiplist.WithCoin(coin))
	require.NoError(t, err)

	for _, v := range []int{10, 20, 30, 40, 50} {
		_, err := l.Insert(v)
		require.NoError(t, err)
	}

	tr, err := l.Search(50)
	require.NoError(t, err)
	assert.True(t, tr.Found)

	tr, err = l.Search(60)
	require.ErrorIs(t, err, viz.ErrNotFound)
	assert.Len(t, tr.StepsIn(viz.StateComparing), 1, "level 1 jumps over 10..40")

	tr, err = l.Search(45)
	require.ErrorIs(t, err, viz.ErrNotFound)
	assert.False(t, tr.Found)
	assert.Len(t, tr.StepsIn(viz.StateComparing), 4)
}

func TestDelete_ShrinksLevels(t *testing.T) {
	t.Parallel()

	coin := &scripted{flips: []bool{false, true, true, false}}

	l, err := skiplist.New[int](skiplist.WithCoin(coin))
	require.NoError(t, err)

	_, err = l.Insert(1)
	require.NoError(t, err)
	_, err = l.Insert(2)
	require.NoError(t, err)
	assert.Equal(t, 3, l.Levels())

	tr, err := l.Delete(2)
	require.NoError(t, err)
	assert.Len(t, tr.StepsIn(viz.StateDeleting), 1)
	assert.Equal(t, 1, l.Levels())
	assert.Equal(t, []int{1}, l.Values())

	_, err = l.Delete(2)
	require.ErrorIs(t, err, viz.ErrNotFound)

	_, err = l.Delete(1)
	require.NoError(t, err)

	_, err = l.Delete(1)
	require.ErrorIs(t, err, viz.ErrEmpty)
}

func TestRejections(t *testing.T) {
	t.Parallel()

	_, err := skiplist.New[int](skiplist.WithMaxLevel(0))
	require.ErrorIs(t, err, viz.ErrValidation)

	l, err := skiplist.New[string]()
	require.NoError(t, err)

	_, err = l.Insert("a")
	require.NoError(t, err)

	_, err = l.Insert("a")
	require.ErrorIs(t, err, viz.ErrDuplicate)
	assert.Equal(t, 1, l.Len())
}

func TestRandomOps_MatchSortedSet(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(31, 32))

	l, err := skiplist.New[int](skiplist.WithCoin(hashutil.NewCoin(7)), skiplist.WithMaxLevel(6))
	require.NoError(t, err)

	ref := map[int]bool{}

	for range 600 {
		v := rng.IntN(80)

		if rng.IntN(3) == 0 {
			_, err := l.Delete(v)
			assert.Equal(t, ref[v], err == nil)
			delete(ref, v)
		} else {
			_, err := l.Insert(v)
			assert.Equal(t, !ref[v], err == nil)
			ref[v] = true
		}

		require.NoError(t, l.Valid())
	}

	var want []int
	for v := range ref {
		want = append(want, v)
	}

	slices.Sort(want)
	assert.Equal(t, want, l.Values())
}

func TestCheckpoint_RestoresTowers(t *testing.T) {
	t.Parallel()

	l, err := skiplist.New[int](skiplist.WithCoin(hashutil.NewCoin(3)))
	require.NoError(t, err)

	for v := range 10 {
		_, err := l.Insert(v)
		require.NoError(t, err)
	}

	before := l.Shape()
	cp := l.Checkpoint()

	_, err = l.Delete(4)
	require.NoError(t, err)
	_, err = l.Insert(42)
	require.NoError(t, err)

	require.NoError(t, l.Restore(cp))
	assert.Equal(t, before, l.Shape())
	require.NoError(t, l.Valid())
}

func TestWithSeed_Reproducible(t *testing.T) {
	t.Parallel()

	heights := func() []int {
		l, err := skiplist.New[int](skiplist.WithSeed(42))
		require.NoError(t, err)

		var out []int

		for v := range 20 {
			_, err = l.Insert(v)
			require.NoError(t, err)

			h, ok := l.HeightOf(v)
			require.True(t, ok)

			out = append(out, h)
		}

		return out
	}

	assert.Equal(t, heights(), heights())
}

func TestSearch_EmptyList(t *testing.T) {
	t.Parallel()

	l, err := skiplist.New[int]()
	require.NoError(t, err)

	tr, err := l.Search(5)
	require.ErrorIs(t, err, viz.ErrEmpty)
	assert.Empty(t, tr.Steps)
}
