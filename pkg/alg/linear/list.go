package linear

import (
	"fmt"

	"github.com/emirpasic/gods/lists/doublylinkedlist"

	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// LinkedList is a doubly linked list addressed by position.
type LinkedList[T comparable] struct {
	list *doublylinkedlist.List
	ids  *viz.IDs
}

// NewLinkedList returns an empty list.
func NewLinkedList[T comparable]() *LinkedList[T] {
	return &LinkedList[T]{list: doublylinkedlist.New(), ids: viz.NewIDs(KindList)}
}

// Kind implements viz.Structure.
func (l *LinkedList[T]) Kind() string { return KindList }

// Len returns the number of elements.
func (l *LinkedList[T]) Len() int { return l.list.Size() }

// Values returns the elements in order.
func (l *LinkedList[T]) Values() []T { return values(l.cells()) }

func (l *LinkedList[T]) cells() []cell[T] { return cells[T](l.list.Values()) }

// walk visits cells from the head until stop returns true. It returns the
// index where it stopped, or -1.
func (l *LinkedList[T]) walk(rec *viz.Recorder, stop func(i int, c cell[T]) bool) int {
	for i, c := range l.cells() {
		rec.Visit(fmt.Sprintf("visit [%d] = %v", i, c.value), c.id)

		if stop(i, c) {
			return i
		}
	}

	return -1
}

// InsertAt places v so that it ends up at index i; i == Len appends.
func (l *LinkedList[T]) InsertAt(i int, v T) (viz.Trace, error) {
	rec := viz.NewRecorder("insert")

	if i < 0 || i > l.list.Size() {
		return rec.Trace(), viz.Fail("insert", i, fmt.Errorf("%w: want 0..%d", viz.ErrOutOfRange, l.list.Size()))
	}

	if i > 0 {
		l.walk(rec, func(j int, _ cell[T]) bool { return j == i-1 })
	}

	c := cell[T]{id: l.ids.Next(), value: v}
	l.list.Insert(i, c)
	rec.Restructure(l.Shape(), viz.StateInserted, fmt.Sprintf("link %v at [%d]", v, i), c.id)

	return rec.Trace(), nil
}

// Append adds v at the tail.
func (l *LinkedList[T]) Append(v T) (viz.Trace, error) {
	return l.InsertAt(l.list.Size(), v)
}

// Insert appends v.
func (l *LinkedList[T]) Insert(v T) (viz.Trace, error) {
	return l.Append(v)
}

// Search finds the first occurrence of v.
func (l *LinkedList[T]) Search(v T) (viz.Trace, error) {
	rec := viz.NewRecorder("search")

	i := l.walk(rec, func(_ int, c cell[T]) bool { return c.value == v })
	if i < 0 {
		rec.NotFound(fmt.Sprintf("%v not found", v))

		return rec.Trace(), viz.Fail("search", v, viz.ErrNotFound)
	}

	raw, _ := l.list.Get(i)
	rec.SetResult(i)
	rec.Found(fmt.Sprintf("%v at [%d]", v, i), raw.(cell[T]).id)

	return rec.Trace(), nil
}

// Delete unlinks the first occurrence of v.
func (l *LinkedList[T]) Delete(v T) (viz.Trace, error) {
	rec := viz.NewRecorder("delete")

	if l.list.Empty() {
		return rec.Trace(), viz.Fail("delete", v, viz.ErrEmpty)
	}

	i := l.walk(rec, func(_ int, c cell[T]) bool { return c.value == v })
	if i < 0 {
		rec.NotFound(fmt.Sprintf("%v not found", v))

		return rec.Trace(), viz.Fail("delete", v, viz.ErrNotFound)
	}

	l.unlink(rec, i)

	return rec.Trace(), nil
}

// RemoveAt unlinks the element at index i.
func (l *LinkedList[T]) RemoveAt(i int) (viz.Trace, error) {
	rec := viz.NewRecorder("removeat")

	if l.list.Empty() {
		return rec.Trace(), viz.Fail("removeat", i, viz.ErrEmpty)
	}

	if i < 0 || i >= l.list.Size() {
		return rec.Trace(), viz.Fail("removeat", i, fmt.Errorf("%w: want 0..%d", viz.ErrOutOfRange, l.list.Size()-1))
	}

	l.walk(rec, func(j int, _ cell[T]) bool { return j == i })
	l.unlink(rec, i)

	return rec.Trace(), nil
}

func (l *LinkedList[T]) unlink(rec *viz.Recorder, i int) {
	raw, _ := l.list.Get(i)
	c := raw.(cell[T])
	rec.Mark(viz.StateDeleting, viz.PaceChange, fmt.Sprintf("unlink %v", c.value), c.id)
	l.list.Remove(i)

	var neighbours []string

	for _, j := range []int{i - 1, i} {
		if raw, ok := l.list.Get(j); ok {
			neighbours = append(neighbours, raw.(cell[T]).id)
		}
	}

	rec.Restructure(l.Shape(), viz.StatePath, "relink neighbours", neighbours...)
}

// Shape implements viz.Structure: a doubly linked horizontal chain.
func (l *LinkedList[T]) Shape() viz.Shape {
	return viz.Chain{Items: items(l.cells()), Doubly: true}
}

// Checkpoint implements viz.Restorer.
func (l *LinkedList[T]) Checkpoint() any { return l.cells() }

// Restore implements viz.Restorer.
func (l *LinkedList[T]) Restore(cp any) error {
	cs, ok := cp.([]cell[T])
	if !ok {
		return errBadCopy
	}

	l.list.Clear()

	for _, c := range cs {
		l.list.Add(c)
	}

	return nil
}
