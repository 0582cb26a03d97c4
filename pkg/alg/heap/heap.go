// Package heap implements an array-backed binary heap. Each element keeps its
// node id while it moves, so swaps animate as exchanges of two nodes.
package heap

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// Kind is the structure name reported to sessions.
const Kind = "heap"

// Order selects which element sits at the root.
type Order string

// Orders.
const (
	Min Order = "min"
	Max Order = "max"
)

var (
	errHeapOrder = errors.New("heap: parent out of order with child")
	errBadCopy   = errors.New("heap: checkpoint of a different type")
)

// ParseOrder converts a name into an Order.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case Min, Max:
		return Order(s), nil
	default:
		return "", viz.Fail("order", s, fmt.Errorf("%w: want min or max", viz.ErrValidation))
	}
}

type item[T cmp.Ordered] struct {
	id    string
	value T
}

// Heap is a binary heap. Duplicates are allowed.
type Heap[T cmp.Ordered] struct {
	items []item[T]
	order Order
	ids   *viz.IDs
}

// New returns an empty heap.
func New[T cmp.Ordered](order Order) (*Heap[T], error) {
	if _, err := ParseOrder(string(order)); err != nil {
		return nil, err
	}

	return &Heap[T]{order: order, ids: viz.NewIDs(Kind)}, nil
}

// Kind implements viz.Structure.
func (h *Heap[T]) Kind() string { return Kind }

// Order returns the heap order.
func (h *Heap[T]) Order() Order { return h.order }

// Len returns the number of elements.
func (h *Heap[T]) Len() int { return len(h.items) }

// Values returns the backing array.
func (h *Heap[T]) Values() []T {
	out := make([]T, len(h.items))
	for i, it := range h.items {
		out[i] = it.value
	}

	return out
}

// above reports whether a belongs above b.
func (h *Heap[T]) above(a, b T) bool {
	if h.order == Max {
		return a > b
	}

	return a < b
}

func (h *Heap[T]) swap(rec *viz.Recorder, i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	rec.Restructure(h.Shape(), viz.StateUpdated,
		fmt.Sprintf("swap %v and %v", h.items[i].value, h.items[j].value), h.items[i].id, h.items[j].id)
}

func (h *Heap[T]) siftUp(rec *viz.Recorder, i int) {
	for i > 0 {
		p := (i - 1) / 2
		rec.Compare(fmt.Sprintf("compare %v with parent %v", h.items[i].value, h.items[p].value),
			h.items[i].id, h.items[p].id)

		if !h.above(h.items[i].value, h.items[p].value) {
			return
		}

		h.swap(rec, i, p)
		i = p
	}
}

func (h *Heap[T]) siftDown(rec *viz.Recorder, i int) {
	n := len(h.items)

	for {
		best := i

		for _, c := range []int{2*i + 1, 2*i + 2} {
			if c < n {
				rec.Compare(fmt.Sprintf("compare %v with %v", h.items[best].value, h.items[c].value),
					h.items[best].id, h.items[c].id)

				if h.above(h.items[c].value, h.items[best].value) {
					best = c
				}
			}
		}

		if best == i {
			return
		}

		h.swap(rec, i, best)
		i = best
	}
}

// Push adds v at the end and sifts it up.
func (h *Heap[T]) Push(v T) (viz.Trace, error) {
	rec := viz.NewRecorder("push")

	h.items = append(h.items, item[T]{id: h.ids.Next(), value: v})
	last := len(h.items) - 1
	rec.Restructure(h.Shape(), viz.StateInserted, fmt.Sprintf("append %v", v), h.items[last].id)
	h.siftUp(rec, last)

	return rec.Trace(), nil
}

// Insert is Push.
func (h *Heap[T]) Insert(v T) (viz.Trace, error) {
	tr, err := h.Push(v)
	tr.Op = "insert"

	return tr, err
}

// Peek returns the root.
func (h *Heap[T]) Peek() (T, viz.Trace, error) {
	rec := viz.NewRecorder("peek")

	if len(h.items) == 0 {
		var zero T

		return zero, rec.Trace(), viz.Fail("peek", nil, viz.ErrEmpty)
	}

	root := h.items[0]
	rec.SetResult(root.value)
	rec.Found(fmt.Sprintf("%s is %v", h.order, root.value), root.id)

	return root.value, rec.Trace(), nil
}

// Pop removes the root, moves the last element up and sifts it down.
func (h *Heap[T]) Pop() (T, viz.Trace, error) {
	rec := viz.NewRecorder("pop")

	if len(h.items) == 0 {
		var zero T

		return zero, rec.Trace(), viz.Fail("pop", nil, viz.ErrEmpty)
	}

	root := h.items[0]
	rec.SetResult(root.value)
	h.removeAt(rec, 0)

	return root.value, rec.Trace(), nil
}

func (h *Heap[T]) removeAt(rec *viz.Recorder, i int) {
	gone := h.items[i]
	rec.Mark(viz.StateDeleting, viz.PaceChange, fmt.Sprintf("remove %v", gone.value), gone.id)

	last := len(h.items) - 1
	h.items[i] = h.items[last]
	h.items = h.items[:last]

	if i == last {
		rec.Restructure(h.Shape(), viz.StateDefault, "removed")

		return
	}

	rec.Restructure(h.Shape(), viz.StatePath, fmt.Sprintf("move %v into the gap", h.items[i].value), h.items[i].id)

	if i > 0 && h.above(h.items[i].value, h.items[(i-1)/2].value) {
		h.siftUp(rec, i)
	} else {
		h.siftDown(rec, i)
	}
}

// Search scans the array for v.
func (h *Heap[T]) Search(v T) (viz.Trace, error) {
	rec := viz.NewRecorder("search")

	if len(h.items) == 0 {
		return rec.Trace(), viz.Fail("search", v, viz.ErrEmpty)
	}

	if i := h.scan(rec, v); i >= 0 {
		rec.Found(fmt.Sprintf("found %v at [%d]", v, i), h.items[i].id)

		return rec.Trace(), nil
	}

	rec.NotFound(fmt.Sprintf("%v not found", v))

	return rec.Trace(), viz.Fail("search", v, viz.ErrNotFound)
}

func (h *Heap[T]) scan(rec *viz.Recorder, v T) int {
	for i, it := range h.items {
		rec.Visit(fmt.Sprintf("[%d] = %v", i, it.value), it.id)

		if it.value == v {
			return i
		}
	}

	return -1
}

// Delete removes the first occurrence of v in array order.
func (h *Heap[T]) Delete(v T) (viz.Trace, error) {
	rec := viz.NewRecorder("delete")

	if len(h.items) == 0 {
		return rec.Trace(), viz.Fail("delete", v, viz.ErrEmpty)
	}

	i := h.scan(rec, v)
	if i < 0 {
		rec.NotFound(fmt.Sprintf("%v not found", v))

		return rec.Trace(), viz.Fail("delete", v, viz.ErrNotFound)
	}

	h.removeAt(rec, i)

	return rec.Trace(), nil
}

// Build replaces the contents with values and heapifies bottom-up.
func (h *Heap[T]) Build(values []T) (viz.Trace, error) {
	rec := viz.NewRecorder("build")

	h.items = make([]item[T], len(values))
	for i, v := range values {
		h.items[i] = item[T]{id: h.ids.Next(), value: v}
	}

	rec.Restructure(h.Shape(), viz.StateInserted, fmt.Sprintf("load %d values", len(values)))

	for i := len(h.items)/2 - 1; i >= 0; i-- {
		rec.Visit(fmt.Sprintf("heapify [%d]", i), h.items[i].id)
		h.siftDown(rec, i)
	}

	return rec.Trace(), nil
}

// Shape implements viz.Structure: the complete binary tree over the array.
func (h *Heap[T]) Shape() viz.Shape {
	return viz.BinaryTree{Root: h.shape(0)}
}

func (h *Heap[T]) shape(i int) *viz.BinaryNode {
	if i >= len(h.items) {
		return nil
	}

	return &viz.BinaryNode{
		Item:  viz.Item{ID: h.items[i].id, Label: viz.Label(h.items[i].value), Detail: fmt.Sprintf("[%d]", i)},
		Left:  h.shape(2*i + 1),
		Right: h.shape(2*i + 2),
	}
}

// Valid checks the heap property on every parent-child pair.
func (h *Heap[T]) Valid() error {
	for i := 1; i < len(h.items); i++ {
		p := (i - 1) / 2
		if h.above(h.items[i].value, h.items[p].value) {
			return fmt.Errorf("%w: [%d]=%v under [%d]=%v", errHeapOrder, i, h.items[i].value, p, h.items[p].value)
		}
	}

	return nil
}

type checkpoint[T cmp.Ordered] struct {
	items []item[T]
}

// Checkpoint implements viz.Restorer.
func (h *Heap[T]) Checkpoint() any {
	return checkpoint[T]{items: slices.Clone(h.items)}
}

// Restore implements viz.Restorer.
func (h *Heap[T]) Restore(cp any) error {
	c, ok := cp.(checkpoint[T])
	if !ok {
		return errBadCopy
	}

	h.items = slices.Clone(c.items)

	return nil
}
