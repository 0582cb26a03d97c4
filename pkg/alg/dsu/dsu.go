// Package dsu implements a disjoint-set forest with union by rank and path
// compression.
package dsu

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// Kind is the structure name reported to sessions.
const Kind = "dsu"

var (
	errCycle   = errors.New("dsu: parent chain does not reach a root")
	errRank    = errors.New("dsu: rank does not grow towards the root")
	errBadCopy = errors.New("dsu: checkpoint of a different type")
)

type element[T cmp.Ordered] struct {
	id     string
	parent T
	rank   int
}

// Forest is a collection of disjoint sets.
type Forest[T cmp.Ordered] struct {
	elems map[T]*element[T]
	order []T // Creation order; drives the layout.
	ids   *viz.IDs
}

// New returns an empty forest.
func New[T cmp.Ordered]() *Forest[T] {
	return &Forest[T]{elems: make(map[T]*element[T]), ids: viz.NewIDs(Kind)}
}

// Kind implements viz.Structure.
func (f *Forest[T]) Kind() string { return Kind }

// Len returns the number of elements.
func (f *Forest[T]) Len() int { return len(f.order) }

// MakeSet adds x as a singleton set.
func (f *Forest[T]) MakeSet(x T) (viz.Trace, error) {
	rec := viz.NewRecorder("makeset")

	if e, ok := f.elems[x]; ok {
		rec.Found(fmt.Sprintf("%v already exists", x), e.id)

		return rec.Trace(), viz.Fail("makeset", x, viz.ErrDuplicate)
	}

	e := &element[T]{id: f.ids.Next(), parent: x}
	f.elems[x] = e
	f.order = append(f.order, x)
	rec.Restructure(f.Shape(), viz.StateInserted, fmt.Sprintf("new set {%v}", x), e.id)

	return rec.Trace(), nil
}

// Find returns the representative of x's set and compresses the path to it.
func (f *Forest[T]) Find(x T) (T, viz.Trace, error) {
	rec := viz.NewRecorder("find")

	if _, ok := f.elems[x]; !ok {
		var zero T

		rec.NotFound(fmt.Sprintf("%v not in any set", x))

		return zero, rec.Trace(), viz.Fail("find", x, viz.ErrNotFound)
	}

	root := f.find(rec, x)
	rec.SetResult(root)
	rec.Found(fmt.Sprintf("representative of %v is %v", x, root), f.elems[root].id)

	return root, rec.Trace(), nil
}

// find walks to the root, then points every node on the way at it.
func (f *Forest[T]) find(rec *viz.Recorder, x T) T {
	var path []T

	cur := x
	for {
		e := f.elems[cur]
		rec.Visit(fmt.Sprintf("visit %v", cur), e.id)

		if e.parent == cur {
			break
		}

		path = append(path, cur)
		cur = e.parent
	}

	root := cur

	var moved []string

	for _, p := range path {
		e := f.elems[p]
		if e.parent != root {
			e.parent = root
			moved = append(moved, e.id)
		}
	}

	if len(moved) > 0 {
		rec.Restructure(f.Shape(), viz.StateUpdated, fmt.Sprintf("compress path to %v", root), moved...)
	}

	return root
}

// Union merges the sets of a and b. The lower-rank root goes under the
// higher-rank root; on a tie b's root goes under a's and a's rank grows.
func (f *Forest[T]) Union(a, b T) (viz.Trace, error) {
	rec := viz.NewRecorder("union")

	for _, x := range []T{a, b} {
		if _, ok := f.elems[x]; !ok {
			rec.NotFound(fmt.Sprintf("%v not in any set", x))

			return rec.Trace(), viz.Fail("union", x, viz.ErrNotFound)
		}
	}

	ra, rb := f.find(rec, a), f.find(rec, b)
	ea, eb := f.elems[ra], f.elems[rb]

	if ra == rb {
		rec.Found(fmt.Sprintf("%v and %v already share root %v", a, b, ra), ea.id)

		return rec.Trace(), nil
	}

	rec.Compare(fmt.Sprintf("rank %v=%d vs %v=%d", ra, ea.rank, rb, eb.rank), ea.id, eb.id)

	parent, child := ea, eb
	if ea.rank < eb.rank {
		parent, child = eb, ea
		child.parent = rb
	} else {
		child.parent = ra
	}

	if ea.rank == eb.rank {
		parent.rank++
	}

	rec.Restructure(f.Shape(), viz.StateMerging, "link roots", parent.id, child.id)

	return rec.Trace(), nil
}

// Connected reports whether a and b are in the same set.
func (f *Forest[T]) Connected(a, b T) (bool, viz.Trace, error) {
	rec := viz.NewRecorder("connected")

	for _, x := range []T{a, b} {
		if _, ok := f.elems[x]; !ok {
			rec.NotFound(fmt.Sprintf("%v not in any set", x))

			return false, rec.Trace(), viz.Fail("connected", x, viz.ErrNotFound)
		}
	}

	ra, rb := f.find(rec, a), f.find(rec, b)
	same := ra == rb

	rec.SetResult(same)

	if same {
		rec.Found(fmt.Sprintf("%v and %v are connected", a, b), f.elems[ra].id)
	} else {
		rec.NotFound(fmt.Sprintf("%v and %v are in different sets", a, b), f.elems[ra].id, f.elems[rb].id)
	}

	return same, rec.Trace(), nil
}

// Rank returns the rank of x.
func (f *Forest[T]) Rank(x T) (int, bool) {
	e, ok := f.elems[x]
	if !ok {
		return 0, false
	}

	return e.rank, true
}

// Parent returns the stored parent of x without compressing.
func (f *Forest[T]) Parent(x T) (T, bool) {
	e, ok := f.elems[x]
	if !ok {
		var zero T

		return zero, false
	}

	return e.parent, true
}

// root follows parent pointers without side effects.
func (f *Forest[T]) root(x T) T {
	for f.elems[x].parent != x {
		x = f.elems[x].parent
	}

	return x
}

// Sets returns every set sorted, ordered by the creation of its first member.
func (f *Forest[T]) Sets() [][]T {
	groups := make(map[T][]T)

	var roots []T

	for _, x := range f.order {
		r := f.root(x)
		if _, ok := groups[r]; !ok {
			roots = append(roots, r)
		}

		groups[r] = append(groups[r], x)
	}

	out := make([][]T, 0, len(roots))
	for _, r := range roots {
		set := groups[r]
		slices.Sort(set)
		out = append(out, set)
	}

	return out
}

// Shape implements viz.Structure. Detail shows the rank.
func (f *Forest[T]) Shape() viz.Shape {
	nodes := make(map[T]*viz.TreeNode, len(f.order))
	for _, x := range f.order {
		e := f.elems[x]
		nodes[x] = &viz.TreeNode{Item: viz.Item{ID: e.id, Label: viz.Label(x), Detail: fmt.Sprintf("rank=%d", e.rank)}}
	}

	var out viz.Forest

	for _, x := range f.order {
		e := f.elems[x]
		if e.parent == x {
			out.Roots = append(out.Roots, nodes[x])
		} else {
			p := nodes[e.parent]
			p.Children = append(p.Children, nodes[x])
		}
	}

	return out
}

// Valid checks that every parent chain ends at a root and that ranks grow
// strictly from child to parent.
func (f *Forest[T]) Valid() error {
	for _, x := range f.order {
		cur := x
		for steps := 0; f.elems[cur].parent != cur; steps++ {
			if steps > len(f.order) {
				return fmt.Errorf("%w: from %v", errCycle, x)
			}

			p := f.elems[cur].parent
			if f.elems[p].rank <= f.elems[cur].rank {
				return fmt.Errorf("%w: %v under %v", errRank, cur, p)
			}

			cur = p
		}
	}

	return nil
}

type checkpoint[T cmp.Ordered] struct {
	elems map[T]element[T]
	order []T
}

// Checkpoint implements viz.Restorer.
func (f *Forest[T]) Checkpoint() any {
	cp := checkpoint[T]{elems: make(map[T]element[T], len(f.elems)), order: slices.Clone(f.order)}
	for k, e := range f.elems {
		cp.elems[k] = *e
	}

	return cp
}

// Restore implements viz.Restorer.
func (f *Forest[T]) Restore(cp any) error {
	c, ok := cp.(checkpoint[T])
	if !ok {
		return errBadCopy
	}

	f.elems = make(map[T]*element[T], len(c.elems))
	for k, e := range c.elems {
		f.elems[k] = &e
	}

	f.order = slices.Clone(c.order)

	return nil
}
