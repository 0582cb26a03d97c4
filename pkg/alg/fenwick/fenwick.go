// Package fenwick implements a binary indexed tree over an integer array.
//
// Public indices are 0-based; slot j of the internal 1-based array holds the
// sum of the j&-j elements ending at element j-1. Every slot is drawn as one
// array cell, with a link to the slot an update propagates to next.
package fenwick

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// Kind is the structure name reported to sessions.
const Kind = "fenwick"

var (
	errAggregate = errors.New("fenwick: slot holds a wrong partial sum")
	errBadCopy   = errors.New("fenwick: checkpoint of a different type")
)

func lowbit(j int) int { return j & -j }

// Tree is a Fenwick tree of fixed length.
type Tree struct {
	tree   []int // 1-based; tree[0] unused.
	values []int
	slots  []string // Stable id per 1-based slot.
	ids    *viz.IDs
}

// New returns a zero-filled tree over n elements.
func New(n int) (*Tree, error) {
	if n < 1 {
		return nil, viz.Fail("new", n, fmt.Errorf("%w: length must be positive", viz.ErrValidation))
	}

	t := &Tree{ids: viz.NewIDs(Kind)}
	t.reset(n)

	return t, nil
}

func (t *Tree) reset(n int) {
	t.tree = make([]int, n+1)
	t.values = make([]int, n)
	t.slots = make([]string, n+1)

	for j := 1; j <= n; j++ {
		t.slots[j] = t.ids.Next()
	}
}

// Kind implements viz.Structure.
func (t *Tree) Kind() string { return Kind }

// Len returns the number of elements.
func (t *Tree) Len() int { return len(t.values) }

// Values returns a copy of the underlying array.
func (t *Tree) Values() []int { return slices.Clone(t.values) }

// SlotID returns the visual id of 1-based slot j.
func (t *Tree) SlotID(j int) string { return t.slots[j] }

func (t *Tree) check(op string, i int) error {
	if i < 0 || i >= len(t.values) {
		return viz.Fail(op, i, fmt.Errorf("%w: want 0..%d", viz.ErrOutOfRange, len(t.values)-1))
	}

	return nil
}

// Build replaces the array with values by point updates from a zero array.
func (t *Tree) Build(values []int) (viz.Trace, error) {
	rec := viz.NewRecorder("build")

	if len(values) == 0 {
		return rec.Trace(), viz.Fail("build", nil, fmt.Errorf("%w: no values", viz.ErrValidation))
	}

	t.reset(len(values))
	rec.Restructure(t.Shape(), viz.StateDefault, fmt.Sprintf("zero array of %d slots", len(values)))

	for i, v := range values {
		t.add(rec, i, v)
	}

	return rec.Trace(), nil
}

// Update adds delta to element i.
func (t *Tree) Update(i, delta int) (viz.Trace, error) {
	rec := viz.NewRecorder("update")

	err := t.check("update", i)
	if err != nil {
		return rec.Trace(), err
	}

	t.add(rec, i, delta)

	return rec.Trace(), nil
}

// Set assigns value to element i.
func (t *Tree) Set(i, value int) (viz.Trace, error) {
	rec := viz.NewRecorder("set")

	err := t.check("set", i)
	if err != nil {
		return rec.Trace(), err
	}

	t.add(rec, i, value-t.values[i])

	return rec.Trace(), nil
}

func (t *Tree) add(rec *viz.Recorder, i, delta int) {
	t.values[i] += delta

	n := len(t.values)
	for j := i + 1; j <= n; j += lowbit(j) {
		t.tree[j] += delta
		rec.Restructure(t.Shape(), viz.StateUpdated,
			fmt.Sprintf("slot %d += %d (next %d = %d + %d)", j, delta, j+lowbit(j), j, lowbit(j)), t.slots[j])
	}
}

// PrefixSum returns the sum of elements 0..i.
func (t *Tree) PrefixSum(i int) (int, viz.Trace, error) {
	rec := viz.NewRecorder("prefix")

	err := t.check("prefix", i)
	if err != nil {
		return 0, rec.Trace(), err
	}

	sum := t.prefix(rec, i+1)
	rec.SetResult(sum)
	rec.Found(fmt.Sprintf("sum of 0..%d = %d", i, sum))

	return sum, rec.Trace(), nil
}

func (t *Tree) prefix(rec *viz.Recorder, j int) int {
	sum := 0

	for ; j > 0; j -= lowbit(j) {
		sum += t.tree[j]
		rec.Visit(fmt.Sprintf("add slot %d (%d), running sum %d", j, t.tree[j], sum), t.slots[j])
	}

	return sum
}

// RangeSum returns the sum of elements l..r as prefix(r) - prefix(l-1).
func (t *Tree) RangeSum(l, r int) (int, viz.Trace, error) {
	rec := viz.NewRecorder("range")

	if err := t.check("range", l); err != nil {
		return 0, rec.Trace(), err
	}

	if err := t.check("range", r); err != nil {
		return 0, rec.Trace(), err
	}

	if l > r {
		return 0, rec.Trace(), viz.Fail("range", fmt.Sprintf("%d..%d", l, r),
			fmt.Errorf("%w: empty range", viz.ErrValidation))
	}

	sum := t.prefix(rec, r+1) - t.prefix(rec, l)
	rec.SetResult(sum)
	rec.Found(fmt.Sprintf("sum of %d..%d = %d", l, r, sum))

	return sum, rec.Trace(), nil
}

// Shape implements viz.Structure. Detail shows the covered element range.
func (t *Tree) Shape() viz.Shape {
	n := len(t.values)
	arr := viz.Array{Cells: make([]viz.Item, 0, n)}

	for j := 1; j <= n; j++ {
		arr.Cells = append(arr.Cells, viz.Item{
			ID:     t.slots[j],
			Label:  viz.Label(t.tree[j]),
			Detail: fmt.Sprintf("[%d..%d]", j-lowbit(j), j-1),
		})

		if next := j + lowbit(j); next <= n {
			arr.Links = append(arr.Links, viz.Link{From: t.slots[j], To: t.slots[next]})
		}
	}

	return arr
}

// Valid checks every slot against a direct sum of its range.
func (t *Tree) Valid() error {
	for j := 1; j < len(t.tree); j++ {
		want := 0
		for _, v := range t.values[j-lowbit(j) : j] {
			want += v
		}

		if t.tree[j] != want {
			return fmt.Errorf("%w: slot %d is %d, want %d", errAggregate, j, t.tree[j], want)
		}
	}

	return nil
}

type checkpoint struct {
	tree, values []int
	slots        []string
}

// Checkpoint implements viz.Restorer.
func (t *Tree) Checkpoint() any {
	return checkpoint{tree: slices.Clone(t.tree), values: slices.Clone(t.values), slots: slices.Clone(t.slots)}
}

// Restore implements viz.Restorer.
func (t *Tree) Restore(cp any) error {
	c, ok := cp.(checkpoint)
	if !ok {
		return errBadCopy
	}

	t.tree, t.values, t.slots = slices.Clone(c.tree), slices.Clone(c.values), slices.Clone(c.slots)

	return nil
}
