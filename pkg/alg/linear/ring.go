package linear

import (
	"fmt"

	"github.com/emirpasic/gods/queues/circularbuffer"

	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// RingBuffer is a bounded FIFO over a fixed array of slots. When full, Write
// fails with ErrCapacity unless the buffer was created to overwrite.
type RingBuffer[T any] struct {
	buf       *circularbuffer.Queue
	capacity  int
	start     int // Slot of the oldest element.
	overwrite bool
	slots     []string
	ids       *viz.IDs
}

// NewRingBuffer returns an empty buffer of capacity slots.
func NewRingBuffer[T any](capacity int, overwrite bool) (*RingBuffer[T], error) {
	if capacity < 1 {
		return nil, viz.Fail("new", capacity, fmt.Errorf("%w: need at least one slot", viz.ErrValidation))
	}

	ids := viz.NewIDs(KindRing)
	slots := make([]string, capacity)

	for i := range slots {
		slots[i] = ids.Next()
	}

	return &RingBuffer[T]{
		buf:       circularbuffer.New(capacity),
		capacity:  capacity,
		overwrite: overwrite,
		slots:     slots,
		ids:       ids,
	}, nil
}

// Kind implements viz.Structure.
func (r *RingBuffer[T]) Kind() string { return KindRing }

// Len returns the number of stored elements.
func (r *RingBuffer[T]) Len() int { return r.buf.Size() }

// Capacity returns the number of slots.
func (r *RingBuffer[T]) Capacity() int { return r.capacity }

// Values returns the elements from oldest to newest.
func (r *RingBuffer[T]) Values() []T { return values(r.cells()) }

func (r *RingBuffer[T]) cells() []cell[T] { return cells[T](r.buf.Values()) }

func (r *RingBuffer[T]) slot(i int) string {
	return r.slots[(r.start+i)%r.capacity]
}

// Write appends v at the tail slot.
func (r *RingBuffer[T]) Write(v T) (viz.Trace, error) {
	rec := viz.NewRecorder("write")

	full := r.buf.Full()
	if full && !r.overwrite {
		return rec.Trace(), capacityCheck("write", r.buf.Size(), r.capacity)
	}

	if full {
		oldest, _ := r.buf.Peek()
		rec.Mark(viz.StateDeleting, viz.PaceChange, fmt.Sprintf("overwrite %v", oldest.(cell[T]).value), r.slot(0))
		r.start = (r.start + 1) % r.capacity
	}

	c := cell[T]{id: r.ids.Next(), value: v}
	r.buf.Enqueue(c)
	rec.Restructure(r.Shape(), viz.StateInserted, fmt.Sprintf("write %v", v), r.slot(r.buf.Size()-1))

	return rec.Trace(), nil
}

// Read removes the oldest element.
func (r *RingBuffer[T]) Read() (T, viz.Trace, error) {
	rec := viz.NewRecorder("read")

	raw, ok := r.buf.Peek()
	if !ok {
		var zero T

		return zero, rec.Trace(), viz.Fail("read", nil, viz.ErrEmpty)
	}

	c := raw.(cell[T])
	rec.Mark(viz.StateDeleting, viz.PaceChange, fmt.Sprintf("read %v", c.value), r.slot(0))
	r.buf.Dequeue()
	r.start = (r.start + 1) % r.capacity
	rec.SetResult(c.value)
	rec.Restructure(r.Shape(), viz.StateDefault, "advance head")

	return c.value, rec.Trace(), nil
}

// Shape implements viz.Structure: every slot in index order with links from
// each element to the next one.
func (r *RingBuffer[T]) Shape() viz.Shape {
	cs := r.cells()
	out := viz.Array{Cells: make([]viz.Item, r.capacity)}

	for i := range r.capacity {
		out.Cells[i] = viz.Item{ID: r.slots[i], Label: emptyLabel, Detail: fmt.Sprint(i), Tone: viz.ToneMuted}
	}

	for i, c := range cs {
		pos := (r.start + i) % r.capacity
		out.Cells[pos].Label, out.Cells[pos].Tone = viz.Label(c.value), viz.ToneNone

		switch {
		case i == 0 && len(cs) == 1:
			out.Cells[pos].Detail = fmt.Sprintf("%d head tail", pos)
		case i == 0:
			out.Cells[pos].Detail = fmt.Sprintf("%d head", pos)
		case i == len(cs)-1:
			out.Cells[pos].Detail = fmt.Sprintf("%d tail", pos)
		}

		if i > 0 {
			out.Links = append(out.Links, viz.Link{From: r.slot(i - 1), To: r.slot(i)})
		}
	}

	return out
}

// Valid checks that the buffer never holds more than its capacity.
func (r *RingBuffer[T]) Valid() error {
	if r.buf.Size() > r.capacity {
		return fmt.Errorf("%w: %d > %d", errCount, r.buf.Size(), r.capacity)
	}

	return nil
}

type ringCheckpoint[T any] struct {
	cells []cell[T]
	start int
}

// Checkpoint implements viz.Restorer.
func (r *RingBuffer[T]) Checkpoint() any {
	return ringCheckpoint[T]{cells: r.cells(), start: r.start}
}

// Restore implements viz.Restorer.
func (r *RingBuffer[T]) Restore(cp any) error {
	c, ok := cp.(ringCheckpoint[T])
	if !ok {
		return errBadCopy
	}

	r.buf.Clear()

	for _, x := range c.cells {
		r.buf.Enqueue(x)
	}

	r.start = c.start

	return nil
}
