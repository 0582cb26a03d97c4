package linear

import (
	"fmt"

	"github.com/emirpasic/gods/stacks/arraystack"

	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// Stack is a LIFO stack.
type Stack[T any] struct {
	st  *arraystack.Stack
	ids *viz.IDs
}

// NewStack returns an empty stack.
func NewStack[T any]() *Stack[T] {
	return &Stack[T]{st: arraystack.New(), ids: viz.NewIDs(KindStack)}
}

// Kind implements viz.Structure.
func (s *Stack[T]) Kind() string { return KindStack }

// Len returns the number of elements.
func (s *Stack[T]) Len() int { return s.st.Size() }

// Values returns the elements from top to bottom.
func (s *Stack[T]) Values() []T {
	return values(s.cells())
}

func (s *Stack[T]) cells() []cell[T] {
	return cells[T](s.st.Values())
}

// Push puts v on top.
func (s *Stack[T]) Push(v T) (viz.Trace, error) {
	rec := viz.NewRecorder("push")

	c := cell[T]{id: s.ids.Next(), value: v}
	s.st.Push(c)
	rec.Restructure(s.Shape(), viz.StateInserted, fmt.Sprintf("push %v", v), c.id)

	return rec.Trace(), nil
}

// Pop removes the top element.
func (s *Stack[T]) Pop() (T, viz.Trace, error) {
	rec := viz.NewRecorder("pop")

	top, ok := s.st.Peek()
	if !ok {
		var zero T

		return zero, rec.Trace(), viz.Fail("pop", nil, viz.ErrEmpty)
	}

	c := top.(cell[T])
	rec.Mark(viz.StateDeleting, viz.PaceChange, fmt.Sprintf("pop %v", c.value), c.id)
	s.st.Pop()
	rec.SetResult(c.value)
	rec.Restructure(s.Shape(), viz.StateDefault, "popped")

	return c.value, rec.Trace(), nil
}

// Peek returns the top element.
func (s *Stack[T]) Peek() (T, viz.Trace, error) {
	rec := viz.NewRecorder("peek")

	top, ok := s.st.Peek()
	if !ok {
		var zero T

		return zero, rec.Trace(), viz.Fail("peek", nil, viz.ErrEmpty)
	}

	c := top.(cell[T])
	rec.SetResult(c.value)
	rec.Found(fmt.Sprintf("top is %v", c.value), c.id)

	return c.value, rec.Trace(), nil
}

// DragRemove pops the stack when id is its top.
func (s *Stack[T]) DragRemove(id string) (viz.Trace, error) {
	top, ok := s.st.Peek()
	if !ok {
		return viz.Trace{Op: "drag"}, viz.Fail("drag", id, viz.ErrEmpty)
	}

	if top.(cell[T]).id != id {
		return viz.Trace{Op: "drag"}, notAnEnd(id, "top")
	}

	_, tr, err := s.Pop()

	return tr, err
}

// Shape implements viz.Structure: a vertical chain, top first.
func (s *Stack[T]) Shape() viz.Shape {
	return viz.Chain{Items: items(s.cells()), Vertical: true}
}

// Checkpoint implements viz.Restorer.
func (s *Stack[T]) Checkpoint() any {
	return s.cells()
}

// Restore implements viz.Restorer.
func (s *Stack[T]) Restore(cp any) error {
	cs, ok := cp.([]cell[T])
	if !ok {
		return errBadCopy
	}

	s.st.Clear()

	for i := len(cs) - 1; i >= 0; i-- {
		s.st.Push(cs[i])
	}

	return nil
}

func values[T any](cs []cell[T]) []T {
	out := make([]T, len(cs))
	for i, c := range cs {
		out[i] = c.value
	}

	return out
}
