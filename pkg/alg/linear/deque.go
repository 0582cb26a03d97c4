package linear

import (
	"fmt"

	"github.com/emirpasic/gods/lists/doublylinkedlist"

	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// End names a side of a deque.
type End string

// Ends.
const (
	Front End = "front"
	Back  End = "back"
)

// Deque is a double-ended queue.
type Deque[T any] struct {
	list *doublylinkedlist.List
	ids  *viz.IDs
}

// NewDeque returns an empty deque.
func NewDeque[T any]() *Deque[T] {
	return &Deque[T]{list: doublylinkedlist.New(), ids: viz.NewIDs(KindDeque)}
}

// Kind implements viz.Structure.
func (d *Deque[T]) Kind() string { return KindDeque }

// Len returns the number of elements.
func (d *Deque[T]) Len() int { return d.list.Size() }

// Values returns the elements from front to back.
func (d *Deque[T]) Values() []T { return values(d.cells()) }

func (d *Deque[T]) cells() []cell[T] { return cells[T](d.list.Values()) }

func (d *Deque[T]) index(end End) int {
	if end == Front {
		return 0
	}

	return d.list.Size() - 1
}

// Push adds v at end.
func (d *Deque[T]) Push(end End, v T) (viz.Trace, error) {
	rec := viz.NewRecorder("push" + string(end))

	c := cell[T]{id: d.ids.Next(), value: v}
	if end == Front {
		d.list.Prepend(c)
	} else {
		d.list.Add(c)
	}

	rec.Restructure(d.Shape(), viz.StateInserted, fmt.Sprintf("push %v at the %s", v, end), c.id)

	return rec.Trace(), nil
}

// PushFront adds v before the first element.
func (d *Deque[T]) PushFront(v T) (viz.Trace, error) { return d.Push(Front, v) }

// PushBack adds v after the last element.
func (d *Deque[T]) PushBack(v T) (viz.Trace, error) { return d.Push(Back, v) }

// Pop removes the element at end.
func (d *Deque[T]) Pop(end End) (T, viz.Trace, error) {
	op := "pop" + string(end)
	rec := viz.NewRecorder(op)

	if d.list.Empty() {
		var zero T

		return zero, rec.Trace(), viz.Fail(op, nil, viz.ErrEmpty)
	}

	i := d.index(end)
	raw, _ := d.list.Get(i)
	c := raw.(cell[T])
	rec.Mark(viz.StateDeleting, viz.PaceChange, fmt.Sprintf("pop %v from the %s", c.value, end), c.id)
	d.list.Remove(i)
	rec.SetResult(c.value)
	rec.Restructure(d.Shape(), viz.StateDefault, "popped")

	return c.value, rec.Trace(), nil
}

// PopFront removes the first element.
func (d *Deque[T]) PopFront() (T, viz.Trace, error) { return d.Pop(Front) }

// PopBack removes the last element.
func (d *Deque[T]) PopBack() (T, viz.Trace, error) { return d.Pop(Back) }

// Peek returns the element at end.
func (d *Deque[T]) Peek(end End) (T, viz.Trace, error) {
	op := "peek" + string(end)
	rec := viz.NewRecorder(op)

	if d.list.Empty() {
		var zero T

		return zero, rec.Trace(), viz.Fail(op, nil, viz.ErrEmpty)
	}

	raw, _ := d.list.Get(d.index(end))
	c := raw.(cell[T])
	rec.SetResult(c.value)
	rec.Found(fmt.Sprintf("%s is %v", end, c.value), c.id)

	return c.value, rec.Trace(), nil
}

// DragRemove pops whichever end id is.
func (d *Deque[T]) DragRemove(id string) (viz.Trace, error) {
	if d.list.Empty() {
		return viz.Trace{Op: "drag"}, viz.Fail("drag", id, viz.ErrEmpty)
	}

	for _, end := range []End{Front, Back} {
		raw, _ := d.list.Get(d.index(end))
		if raw.(cell[T]).id == id {
			_, tr, err := d.Pop(end)

			return tr, err
		}
	}

	return viz.Trace{Op: "drag"}, notAnEnd(id, "front or back")
}

// Shape implements viz.Structure: a doubly linked horizontal chain.
func (d *Deque[T]) Shape() viz.Shape {
	return viz.Chain{Items: items(d.cells()), Doubly: true}
}

// Checkpoint implements viz.Restorer.
func (d *Deque[T]) Checkpoint() any { return d.cells() }

// Restore implements viz.Restorer.
func (d *Deque[T]) Restore(cp any) error {
	cs, ok := cp.([]cell[T])
	if !ok {
		return errBadCopy
	}

	d.list.Clear()

	for _, c := range cs {
		d.list.Add(c)
	}

	return nil
}
