package linear

import (
	"fmt"

	"github.com/emirpasic/gods/queues/linkedlistqueue"

	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// Queue is a FIFO queue, optionally bounded.
type Queue[T any] struct {
	q        *linkedlistqueue.Queue
	capacity int
	ids      *viz.IDs
}

// NewQueue returns an empty queue. A capacity of 0 means unbounded.
func NewQueue[T any](capacity int) (*Queue[T], error) {
	if capacity < 0 {
		return nil, viz.Fail("new", capacity, fmt.Errorf("%w: negative capacity", viz.ErrValidation))
	}

	return &Queue[T]{q: linkedlistqueue.New(), capacity: capacity, ids: viz.NewIDs(KindQueue)}, nil
}

// Kind implements viz.Structure.
func (q *Queue[T]) Kind() string { return KindQueue }

// Len returns the number of elements.
func (q *Queue[T]) Len() int { return q.q.Size() }

// Capacity returns the bound, 0 when unbounded.
func (q *Queue[T]) Capacity() int { return q.capacity }

// Values returns the elements from front to back.
func (q *Queue[T]) Values() []T { return values(q.cells()) }

func (q *Queue[T]) cells() []cell[T] { return cells[T](q.q.Values()) }

// Enqueue appends v at the back.
func (q *Queue[T]) Enqueue(v T) (viz.Trace, error) {
	rec := viz.NewRecorder("enqueue")

	if err := capacityCheck("enqueue", q.q.Size(), q.capacity); err != nil {
		return rec.Trace(), err
	}

	c := cell[T]{id: q.ids.Next(), value: v}
	q.q.Enqueue(c)
	rec.Restructure(q.Shape(), viz.StateInserted, fmt.Sprintf("enqueue %v", v), c.id)

	return rec.Trace(), nil
}

// Dequeue removes the front element.
func (q *Queue[T]) Dequeue() (T, viz.Trace, error) {
	rec := viz.NewRecorder("dequeue")

	front, ok := q.q.Peek()
	if !ok {
		var zero T

		return zero, rec.Trace(), viz.Fail("dequeue", nil, viz.ErrEmpty)
	}

	c := front.(cell[T])
	rec.Mark(viz.StateDeleting, viz.PaceChange, fmt.Sprintf("dequeue %v", c.value), c.id)
	q.q.Dequeue()
	rec.SetResult(c.value)
	rec.Restructure(q.Shape(), viz.StateDefault, "dequeued")

	return c.value, rec.Trace(), nil
}

// Peek returns the front element.
func (q *Queue[T]) Peek() (T, viz.Trace, error) {
	rec := viz.NewRecorder("peek")

	front, ok := q.q.Peek()
	if !ok {
		var zero T

		return zero, rec.Trace(), viz.Fail("peek", nil, viz.ErrEmpty)
	}

	c := front.(cell[T])
	rec.SetResult(c.value)
	rec.Found(fmt.Sprintf("front is %v", c.value), c.id)

	return c.value, rec.Trace(), nil
}

// DragRemove dequeues when id is the front element.
func (q *Queue[T]) DragRemove(id string) (viz.Trace, error) {
	front, ok := q.q.Peek()
	if !ok {
		return viz.Trace{Op: "drag"}, viz.Fail("drag", id, viz.ErrEmpty)
	}

	if front.(cell[T]).id != id {
		return viz.Trace{Op: "drag"}, notAnEnd(id, "front")
	}

	_, tr, err := q.Dequeue()

	return tr, err
}

// Shape implements viz.Structure: a horizontal chain, front first.
func (q *Queue[T]) Shape() viz.Shape {
	return viz.Chain{Items: items(q.cells())}
}

// Checkpoint implements viz.Restorer.
func (q *Queue[T]) Checkpoint() any { return q.cells() }

// Restore implements viz.Restorer.
func (q *Queue[T]) Restore(cp any) error {
	cs, ok := cp.([]cell[T])
	if !ok {
		return errBadCopy
	}

	q.q.Clear()

	for _, c := range cs {
		q.q.Enqueue(c)
	}

	return nil
}
