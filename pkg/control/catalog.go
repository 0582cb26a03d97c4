package control

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/dsviz/pkg/alg/avl"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/bloom"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/bst"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/btree"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/dsu"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/fenwick"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/graph"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/hashtable"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/heap"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/linear"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/rbtree"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/segtree"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/skiplist"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/trie"
	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// Construction defaults.
const (
	DefaultBTreeOrder   = 3
	DefaultArraySize    = 8
	DefaultBloomBits    = 32
	DefaultBloomHashes  = 3
	DefaultTableBuckets = 7
	DefaultRingCapacity = 8
)

// Params are construction parameters, e.g. {"order": "4"}.
type Params map[string]string

func (p Params) int(key string, def int) (int, error) {
	raw, ok := p[key]
	if !ok {
		return def, nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: param %s=%q is not a number", viz.ErrValidation, key, raw)
	}

	return n, nil
}

func (p Params) bool(key string) (bool, error) {
	raw, ok := p[key]
	if !ok {
		return false, nil
	}

	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("%w: param %s=%q is not a boolean", viz.ErrValidation, key, raw)
	}

	return b, nil
}

func (p Params) ints(key string) ([]int, error) {
	raw := strings.TrimSpace(p[key])
	if raw == "" {
		return nil, nil
	}

	var out []int

	for f := range strings.SplitSeq(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("%w: param %s has non-number %q", viz.ErrValidation, key, f)
		}

		out = append(out, n)
	}

	return out, nil
}

type builder func(p Params) (viz.Structure, error)

var catalog = map[string]builder{
	bst.Kind:    func(Params) (viz.Structure, error) { return bst.New[int](), nil },
	avl.Kind:    func(Params) (viz.Structure, error) { return avl.New[int](), nil },
	rbtree.Kind: func(Params) (viz.Structure, error) { return rbtree.New[int](), nil },
	btree.Kind: func(p Params) (viz.Structure, error) {
		order, err := p.int("order", DefaultBTreeOrder)
		if err != nil {
			return nil, err
		}

		return btree.New[int](order)
	},
	fenwick.Kind: func(p Params) (viz.Structure, error) {
		values, err := p.ints("values")
		if err != nil {
			return nil, err
		}

		size, err := p.int("size", DefaultArraySize)
		if err != nil {
			return nil, err
		}

		t, err := fenwick.New(size)
		if err != nil || values == nil {
			return t, err
		}

		_, err = t.Build(values)

		return t, err
	},
	segtree.Kind: func(p Params) (viz.Structure, error) {
		values, err := p.ints("values")
		if err != nil {
			return nil, err
		}

		if values == nil {
			size, err := p.int("size", DefaultArraySize)
			if err != nil {
				return nil, err
			}

			values = make([]int, max(size, 0))
		}

		op, err := segtree.ParseOp(cmpOr(p["op"], string(segtree.OpSum)))
		if err != nil {
			return nil, err
		}

		return segtree.New(values, op)
	},
	dsu.Kind: func(Params) (viz.Structure, error) { return dsu.New[int](), nil },
	trie.Kind: func(p Params) (viz.Structure, error) {
		anyRunes, err := p.bool("anyrunes")
		if err != nil {
			return nil, err
		}

		if anyRunes {
			return trie.New(trie.WithAnyRunes()), nil
		}

		return trie.New(), nil
	},
	bloom.Kind: func(p Params) (viz.Structure, error) {
		if raw, ok := p["fp"]; ok {
			n, err := p.int("n", 0)
			if err != nil {
				return nil, err
			}

			fp, err := strconv.ParseFloat(raw, 64)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: bloom estimates n=%d fp=%q", viz.ErrValidation, n, raw)
			}

			return bloom.NewWithEstimates[string](uint(n), fp)
		}

		m, err := p.int("m", DefaultBloomBits)
		if err != nil {
			return nil, err
		}

		k, err := p.int("k", DefaultBloomHashes)
		if err != nil {
			return nil, err
		}

		if m < 0 || k < 0 {
			return nil, fmt.Errorf("%w: bloom m=%d k=%d", viz.ErrValidation, m, k)
		}

		return bloom.New[string](uint(m), uint(k))
	},
	skiplist.Kind: func(p Params) (viz.Structure, error) {
		opts := []skiplist.Option{}

		level, err := p.int("maxlevel", skiplist.DefaultMaxLevel)
		if err != nil {
			return nil, err
		}

		opts = append(opts, skiplist.WithMaxLevel(level))

		if _, ok := p["seed"]; ok {
			seed, err := p.int("seed", 0)
			if err != nil {
				return nil, err
			}

			opts = append(opts, skiplist.WithSeed(uint64(seed)))
		}

		return skiplist.New[int](opts...)
	},
	hashtable.Kind: func(p Params) (viz.Structure, error) {
		size, err := p.int("size", DefaultTableBuckets)
		if err != nil {
			return nil, err
		}

		mode, err := hashtable.ParseMode(cmpOr(p["mode"], string(hashtable.Chaining)))
		if err != nil {
			return nil, err
		}

		return hashtable.New[int, string](size, mode)
	},
	heap.Kind: func(p Params) (viz.Structure, error) {
		order, err := heap.ParseOrder(cmpOr(p["order"], string(heap.Min)))
		if err != nil {
			return nil, err
		}

		return heap.New[int](order)
	},
	linear.KindStack: func(Params) (viz.Structure, error) { return linear.NewStack[int](), nil },
	linear.KindQueue: func(p Params) (viz.Structure, error) {
		capacity, err := p.int("capacity", 0)
		if err != nil {
			return nil, err
		}

		return linear.NewQueue[int](capacity)
	},
	linear.KindDeque: func(Params) (viz.Structure, error) { return linear.NewDeque[int](), nil },
	linear.KindList:  func(Params) (viz.Structure, error) { return linear.NewLinkedList[int](), nil },
	linear.KindRing: func(p Params) (viz.Structure, error) {
		capacity, err := p.int("capacity", DefaultRingCapacity)
		if err != nil {
			return nil, err
		}

		overwrite, err := p.bool("overwrite")
		if err != nil {
			return nil, err
		}

		return linear.NewRingBuffer[int](capacity, overwrite)
	},
	graph.Kind: func(p Params) (viz.Structure, error) {
		directed, err := p.bool("directed")
		if err != nil {
			return nil, err
		}

		return graph.New(directed), nil
	},
}

func cmpOr(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}

	return v
}

// Kinds lists the structures Build knows, sorted.
func Kinds() []string {
	out := make([]string, 0, len(catalog))
	for k := range catalog {
		out = append(out, k)
	}

	slices.Sort(out)

	return out
}

// Build constructs the structure named kind. Integer keys are used wherever
// an engine is generic; tries, bloom filters and graphs take text.
func Build(kind string, p Params) (viz.Structure, error) {
	b, ok := catalog[strings.ToLower(strings.TrimSpace(kind))]
	if !ok {
		return nil, fmt.Errorf("%w: unknown structure %q", viz.ErrValidation, kind)
	}

	st, err := b(p)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", kind, err)
	}

	return st, nil
}
