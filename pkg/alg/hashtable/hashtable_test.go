package hashtable_test

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/dsviz/pkg/alg/hashtable"
	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// collide sends every key to slot 0.
func collide(int, int) int { return 0 }

func TestDefaultHash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  int
		want int
	}{
		{name: "positive", key: 15, want: 1},
		{name: "zero", key: 0, want: 0},
		{name: "negative_floors", key: -1, want: 6},
		{name: "negative_multiple", key: -14, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, hashtable.DefaultHash(tt.key, 7))
		})
	}

	h := hashtable.DefaultHash("apple", 13)
	assert.GreaterOrEqual(t, h, 0)
	assert.Less(t, h, 13)
	assert.Equal(t, h, hashtable.DefaultHash("apple", 13))
}

func TestChaining_Collisions(t *testing.T) {
	t.Parallel()

	tab, err := hashtable.New[int, string](4, hashtable.Chaining, hashtable.WithHasher(collide))
	require.NoError(t, err)

	for i := range 3 {
		_, err := tab.Insert(i, fmt.Sprint("v", i))
		require.NoError(t, err)
	}

	buckets := tab.Shape().(viz.Buckets)
	assert.Len(t, buckets.Slots[0].Chain, 3)

	v, tr, err := tab.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
	assert.Len(t, tr.StepsIn(viz.StateComparing), 3, "walks the chain")

	_, err = tab.Delete(1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, tab.Keys())
	require.NoError(t, tab.Valid())
}

func TestLinearProbing_TombstonesKeepChainsIntact(t *testing.T) {
	t.Parallel()

	tab, err := hashtable.New[int, int](5, hashtable.LinearProbing, hashtable.WithHasher(collide))
	require.NoError(t, err)

	for i := range 3 {
		_, err := tab.Insert(i, i*10)
		require.NoError(t, err)
	}

	_, err = tab.Delete(1)
	require.NoError(t, err)

	buckets := tab.Shape().(viz.Buckets)
	assert.Equal(t, "deleted", buckets.Slots[1].Slot.Detail)

	v, _, err := tab.Get(2)
	require.NoError(t, err, "search continues past the tombstone")
	assert.Equal(t, 20, v)

	_, err = tab.Insert(7, 70)
	require.NoError(t, err)

	buckets = tab.Shape().(viz.Buckets)
	require.Len(t, buckets.Slots[1].Chain, 1, "first tombstone is reused")
	assert.Equal(t, "7", buckets.Slots[1].Chain[0].Label)
	require.NoError(t, tab.Valid())
}

func TestLinearProbing_WrapsAndFills(t *testing.T) {
	t.Parallel()

	last := func(int, int) int { return 2 }

	tab, err := hashtable.New[int, int](3, hashtable.LinearProbing, hashtable.WithHasher(last))
	require.NoError(t, err)

	for i := range 3 {
		_, err := tab.Insert(i, i)
		require.NoError(t, err)
	}

	assert.Equal(t, []int{1, 2, 0}, tab.Keys(), "wrapped around to slots 0 and 1")

	_, err = tab.Insert(9, 9)
	require.ErrorIs(t, err, viz.ErrCapacity)
	assert.Equal(t, 3, tab.Len())

	_, err = tab.Put(1, 100)
	require.NoError(t, err, "updating an existing key needs no free slot")

	v, _, err := tab.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 100, v)
}

func TestRejections(t *testing.T) {
	t.Parallel()

	_, err := hashtable.New[int, int](0, hashtable.Chaining)
	require.ErrorIs(t, err, viz.ErrValidation)

	_, err = hashtable.New[int, int](3, "cuckoo")
	require.ErrorIs(t, err, viz.ErrValidation)

	tab, err := hashtable.New[string, int](3, hashtable.Chaining)
	require.NoError(t, err)

	_, err = tab.Delete("x")
	require.ErrorIs(t, err, viz.ErrEmpty)

	_, err = tab.Insert("x", 1)
	require.NoError(t, err)

	_, err = tab.Insert("x", 2)
	require.ErrorIs(t, err, viz.ErrDuplicate)

	v, _, err := tab.Get("x")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = tab.Search("y")
	require.ErrorIs(t, err, viz.ErrNotFound)

	_, err = tab.Delete("y")
	require.ErrorIs(t, err, viz.ErrNotFound)
}

func TestRandomOps_MatchMap(t *testing.T) {
	t.Parallel()

	for _, mode := range []hashtable.Mode{hashtable.Chaining, hashtable.LinearProbing} {
		t.Run(string(mode), func(t *testing.T) {
			t.Parallel()

			rng := rand.New(rand.NewPCG(41, 42))

			tab, err := hashtable.New[int, int](31, mode)
			require.NoError(t, err)

			ref := map[int]int{}

			for range 800 {
				k := rng.IntN(40) - 10

				switch rng.IntN(3) {
				case 0:
					_, err := tab.Delete(k)
					_, had := ref[k]
					assert.Equal(t, had, err == nil)
					delete(ref, k)
				default:
					v := rng.IntN(100)
					_, err := tab.Put(k, v)

					if mode == hashtable.LinearProbing && len(ref) == tab.Buckets() {
						if _, had := ref[k]; !had {
							require.ErrorIs(t, err, viz.ErrCapacity)

							continue
						}
					}

					require.NoError(t, err)

					ref[k] = v
				}

				require.NoError(t, tab.Valid())
			}

			assert.Equal(t, len(ref), tab.Len())

			for k, want := range ref {
				got, _, err := tab.Get(k)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
		})
	}
}

func TestCheckpoint(t *testing.T) {
	t.Parallel()

	for _, mode := range []hashtable.Mode{hashtable.Chaining, hashtable.LinearProbing} {
		t.Run(string(mode), func(t *testing.T) {
			t.Parallel()

			tab, err := hashtable.New[int, int](5, mode)
			require.NoError(t, err)

			_, err = tab.Insert(1, 1)
			require.NoError(t, err)

			before := tab.Shape()
			cp := tab.Checkpoint()

			_, err = tab.Put(1, 9)
			require.NoError(t, err)
			_, err = tab.Insert(2, 2)
			require.NoError(t, err)

			require.NoError(t, tab.Restore(cp))
			assert.Equal(t, before, tab.Shape())

			v, _, err := tab.Get(1)
			require.NoError(t, err)
			assert.Equal(t, 1, v)
		})
	}
}
