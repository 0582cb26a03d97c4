// Package segtree implements a segment tree over an integer array with a
// configurable associative operation (sum, min or max).
//
// Node k covers a range [s, e]; its children 2k and 2k+1 cover the two
// halves split at the midpoint. Leaves hold raw elements.
package segtree

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// Kind is the structure name reported to sessions.
const Kind = "segtree"

// Op names a combine operation.
type Op string

// Operations.
const (
	OpSum Op = "sum"
	OpMin Op = "min"
	OpMax Op = "max"
)

var (
	errAggregate = errors.New("segtree: node holds a wrong aggregate")
	errBadCopy   = errors.New("segtree: checkpoint of a different type")
)

// ParseOp converts a name into an Op.
func ParseOp(s string) (Op, error) {
	switch Op(s) {
	case OpSum, OpMin, OpMax:
		return Op(s), nil
	default:
		return "", viz.Fail("op", s, fmt.Errorf("%w: want sum, min or max", viz.ErrValidation))
	}
}

// Identity returns the neutral element of op.
func (o Op) Identity() int {
	switch o {
	case OpMin:
		return math.MaxInt
	case OpMax:
		return math.MinInt
	default:
		return 0
	}
}

// Combine folds two aggregates.
func (o Op) Combine(a, b int) int {
	switch o {
	case OpMin:
		return min(a, b)
	case OpMax:
		return max(a, b)
	default:
		return a + b
	}
}

// Tree is a segment tree of fixed length.
type Tree struct {
	op     Op
	values []int
	agg    []int    // Heap-indexed aggregates, root at 1.
	nodes  []string // Stable id per heap index; empty where no node exists.
	ids    *viz.IDs
}

// New builds a tree over values combined with op.
func New(values []int, op Op) (*Tree, error) {
	if _, err := ParseOp(string(op)); err != nil {
		return nil, err
	}

	if len(values) == 0 {
		return nil, viz.Fail("new", nil, fmt.Errorf("%w: no values", viz.ErrValidation))
	}

	t := &Tree{op: op, ids: viz.NewIDs(Kind)}
	t.build(nil, values)

	return t, nil
}

// Kind implements viz.Structure.
func (t *Tree) Kind() string { return Kind }

// Op returns the combine operation.
func (t *Tree) Op() Op { return t.op }

// Len returns the number of elements.
func (t *Tree) Len() int { return len(t.values) }

// Values returns a copy of the underlying array.
func (t *Tree) Values() []int { return slices.Clone(t.values) }

func (t *Tree) check(op string, i int) error {
	if i < 0 || i >= len(t.values) {
		return viz.Fail(op, i, fmt.Errorf("%w: want 0..%d", viz.ErrOutOfRange, len(t.values)-1))
	}

	return nil
}

// Build replaces the array and rebuilds every aggregate.
func (t *Tree) Build(values []int) (viz.Trace, error) {
	rec := viz.NewRecorder("build")

	if len(values) == 0 {
		return rec.Trace(), viz.Fail("build", nil, fmt.Errorf("%w: no values", viz.ErrValidation))
	}

	t.build(rec, values)

	return rec.Trace(), nil
}

// SetOp switches the operation and rebuilds the aggregates.
func (t *Tree) SetOp(op Op) (viz.Trace, error) {
	rec := viz.NewRecorder("op")

	if _, err := ParseOp(string(op)); err != nil {
		return rec.Trace(), err
	}

	t.op = op
	t.build(rec, t.values)

	return rec.Trace(), nil
}

func (t *Tree) build(rec *viz.Recorder, values []int) {
	n := len(values)
	t.values = slices.Clone(values)
	t.agg = make([]int, 4*n)
	t.nodes = make([]string, 4*n)
	t.alloc(1, 0, n-1)

	if rec != nil {
		rec.Restructure(t.Shape(), viz.StateDefault, fmt.Sprintf("%d leaves, %s", n, t.op))
	}

	t.buildNode(rec, 1, 0, n-1)
}

func (t *Tree) alloc(k, s, e int) {
	t.nodes[k] = t.ids.Next()

	if s == e {
		return
	}

	mid := (s + e) / 2
	t.alloc(2*k, s, mid)
	t.alloc(2*k+1, mid+1, e)
}

func (t *Tree) buildNode(rec *viz.Recorder, k, s, e int) {
	if s == e {
		t.agg[k] = t.values[s]
		if rec != nil {
			rec.Restructure(t.Shape(), viz.StateInserted, fmt.Sprintf("leaf [%d] = %d", s, t.values[s]), t.nodes[k])
		}

		return
	}

	if rec != nil {
		rec.Visit(fmt.Sprintf("build [%d..%d]", s, e), t.nodes[k])
	}

	mid := (s + e) / 2
	t.buildNode(rec, 2*k, s, mid)
	t.buildNode(rec, 2*k+1, mid+1, e)
	t.agg[k] = t.op.Combine(t.agg[2*k], t.agg[2*k+1])

	if rec != nil {
		rec.Restructure(t.Shape(), viz.StateUpdated,
			fmt.Sprintf("[%d..%d] = %s of children = %d", s, e, t.op, t.agg[k]), t.nodes[k])
	}
}

// Query folds the elements l..r.
func (t *Tree) Query(l, r int) (int, viz.Trace, error) {
	rec := viz.NewRecorder("query")

	if err := t.check("query", l); err != nil {
		return 0, rec.Trace(), err
	}

	if err := t.check("query", r); err != nil {
		return 0, rec.Trace(), err
	}

	if l > r {
		return 0, rec.Trace(), viz.Fail("query", fmt.Sprintf("%d..%d", l, r),
			fmt.Errorf("%w: empty range", viz.ErrValidation))
	}

	v := t.query(rec, 1, 0, len(t.values)-1, l, r)
	rec.SetResult(v)
	rec.Found(fmt.Sprintf("%s of [%d..%d] = %d", t.op, l, r, v))

	return v, rec.Trace(), nil
}

func (t *Tree) query(rec *viz.Recorder, k, s, e, l, r int) int {
	switch {
	case r < s || e < l:
		rec.Mark(viz.StateNotFound, viz.PaceVisit, fmt.Sprintf("[%d..%d] disjoint, identity", s, e), t.nodes[k])

		return t.op.Identity()
	case l <= s && e <= r:
		rec.Mark(viz.StateFound, viz.PaceVisit, fmt.Sprintf("[%d..%d] inside, take %d", s, e, t.agg[k]), t.nodes[k])

		return t.agg[k]
	}

	rec.Visit(fmt.Sprintf("[%d..%d] overlaps, split", s, e), t.nodes[k])

	mid := (s + e) / 2

	return t.op.Combine(t.query(rec, 2*k, s, mid, l, r), t.query(rec, 2*k+1, mid+1, e, l, r))
}

// Update assigns value to element i and recomputes its ancestors bottom-up.
func (t *Tree) Update(i, value int) (viz.Trace, error) {
	rec := viz.NewRecorder("update")

	if err := t.check("update", i); err != nil {
		return rec.Trace(), err
	}

	var path []int

	k, s, e := 1, 0, len(t.values)-1
	for s != e {
		rec.Visit(fmt.Sprintf("descend [%d..%d]", s, e), t.nodes[k])
		path = append(path, k)

		mid := (s + e) / 2
		if i <= mid {
			k, e = 2*k, mid
		} else {
			k, s = 2*k+1, mid+1
		}
	}

	t.values[i] = value
	t.agg[k] = value
	rec.Restructure(t.Shape(), viz.StateUpdated, fmt.Sprintf("leaf [%d] = %d", i, value), t.nodes[k])

	for _, p := range slices.Backward(path) {
		t.agg[p] = t.op.Combine(t.agg[2*p], t.agg[2*p+1])
		rec.Restructure(t.Shape(), viz.StateUpdated, fmt.Sprintf("recompute %d", t.agg[p]), t.nodes[p])
	}

	return rec.Trace(), nil
}

// Shape implements viz.Structure. Detail shows the covered range.
func (t *Tree) Shape() viz.Shape {
	return viz.BinaryTree{Root: t.shape(1, 0, len(t.values)-1)}
}

func (t *Tree) shape(k, s, e int) *viz.BinaryNode {
	n := &viz.BinaryNode{Item: viz.Item{
		ID:     t.nodes[k],
		Label:  t.label(t.agg[k]),
		Detail: fmt.Sprintf("[%d..%d]", s, e),
	}}

	if s != e {
		mid := (s + e) / 2
		n.Left = t.shape(2*k, s, mid)
		n.Right = t.shape(2*k+1, mid+1, e)
	}

	return n
}

func (t *Tree) label(v int) string {
	switch v {
	case math.MaxInt:
		return "+inf"
	case math.MinInt:
		return "-inf"
	default:
		return viz.Label(v)
	}
}

// Valid checks every aggregate against a direct fold of its range.
func (t *Tree) Valid() error {
	return t.valid(1, 0, len(t.values)-1)
}

func (t *Tree) valid(k, s, e int) error {
	want := t.op.Identity()
	for _, v := range t.values[s : e+1] {
		want = t.op.Combine(want, v)
	}

	if t.agg[k] != want {
		return fmt.Errorf("%w: [%d..%d] is %d, want %d", errAggregate, s, e, t.agg[k], want)
	}

	if s == e {
		return nil
	}

	mid := (s + e) / 2
	if err := t.valid(2*k, s, mid); err != nil {
		return err
	}

	return t.valid(2*k+1, mid+1, e)
}

type checkpoint struct {
	op     Op
	values []int
	agg    []int
	nodes  []string
}

// Checkpoint implements viz.Restorer.
func (t *Tree) Checkpoint() any {
	return checkpoint{op: t.op, values: slices.Clone(t.values), agg: slices.Clone(t.agg), nodes: slices.Clone(t.nodes)}
}

// Restore implements viz.Restorer.
func (t *Tree) Restore(cp any) error {
	c, ok := cp.(checkpoint)
	if !ok {
		return errBadCopy
	}

	t.op = c.op
	t.values, t.agg, t.nodes = slices.Clone(c.values), slices.Clone(c.agg), slices.Clone(c.nodes)

	return nil
}
