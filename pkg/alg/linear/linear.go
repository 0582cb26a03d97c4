// Package linear implements the linear structures: stack, queue, deque,
// doubly linked list and bounded ring buffer.
//
// Storage is delegated to the gods containers; each stored value is wrapped
// in a cell carrying its stable node id.
package linear

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// Structure kinds.
const (
	KindStack  = "stack"
	KindQueue  = "queue"
	KindDeque  = "deque"
	KindList   = "list"
	KindRing   = "ring"
	unbounded  = 0
	emptyLabel = "·"
)

var (
	errBadCopy = errors.New("linear: checkpoint of a different type")
	errCount   = errors.New("linear: size exceeds capacity")
)

type cell[T any] struct {
	id    string
	value T
}

func (c cell[T]) item() viz.Item {
	return viz.Item{ID: c.id, Label: viz.Label(c.value)}
}

// cells converts gods' interface values back into typed cells.
func cells[T any](values []any) []cell[T] {
	out := make([]cell[T], len(values))
	for i, v := range values {
		out[i] = v.(cell[T])
	}

	return out
}

func items[T any](cs []cell[T]) []viz.Item {
	out := make([]viz.Item, len(cs))
	for i, c := range cs {
		out[i] = c.item()
	}

	return out
}

func capacityCheck(op string, size, capacity int) error {
	if capacity != unbounded && size >= capacity {
		return viz.Fail(op, nil, fmt.Errorf("%w: %d of %d slots used", viz.ErrCapacity, size, capacity))
	}

	return nil
}

func notAnEnd(id, which string) error {
	return viz.Fail("drag", id, fmt.Errorf("%w: only the %s can be removed", viz.ErrValidation, which))
}
