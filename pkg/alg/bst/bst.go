// Package bst implements an unbalanced binary search tree that records an
// animation trace for every operation.
package bst

import (
	"cmp"
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// Kind is the structure name reported to sessions.
const Kind = "bst"

var (
	errOrder   = errors.New("bst: ordering violated")
	errBadCopy = errors.New("bst: checkpoint of a different type")
)

type node[T cmp.Ordered] struct {
	id    string
	value T
	left  *node[T]
	right *node[T]
}

// Tree is a binary search tree without duplicates.
type Tree[T cmp.Ordered] struct {
	root *node[T]
	size int
	ids  *viz.IDs
}

// New returns an empty tree.
func New[T cmp.Ordered]() *Tree[T] {
	return &Tree[T]{ids: viz.NewIDs(Kind)}
}

// Kind implements viz.Structure.
func (t *Tree[T]) Kind() string { return Kind }

// Len returns the number of values.
func (t *Tree[T]) Len() int { return t.size }

// Height returns the number of levels; an empty tree has height 0.
func (t *Tree[T]) Height() int { return height(t.root) }

func height[T cmp.Ordered](n *node[T]) int {
	if n == nil {
		return 0
	}

	return 1 + max(height(n.left), height(n.right))
}

// Insert adds v. A duplicate is rejected after the search path is shown.
func (t *Tree[T]) Insert(v T) (viz.Trace, error) {
	rec := viz.NewRecorder("insert")

	var parent *node[T]

	cur := t.root
	for cur != nil {
		rec.Compare(fmt.Sprintf("compare %v with %v", v, cur.value), cur.id)

		switch c := cmp.Compare(v, cur.value); {
		case c == 0:
			rec.Found(fmt.Sprintf("%v already exists", v), cur.id)

			return rec.Trace(), viz.Fail("insert", v, viz.ErrDuplicate)
		case c < 0:
			parent, cur = cur, cur.left
		default:
			parent, cur = cur, cur.right
		}
	}

	n := &node[T]{id: t.ids.Next(), value: v}

	switch {
	case parent == nil:
		t.root = n
	case v < parent.value:
		parent.left = n
	default:
		parent.right = n
	}

	t.size++
	rec.Restructure(t.Shape(), viz.StateInserted, fmt.Sprintf("insert %v", v), n.id)

	return rec.Trace(), nil
}

// Search looks v up, visiting the root-to-target path.
func (t *Tree[T]) Search(v T) (viz.Trace, error) {
	rec := viz.NewRecorder("search")

	if t.root == nil {
		return rec.Trace(), viz.Fail("search", v, viz.ErrEmpty)
	}

	last := ""

	for cur := t.root; cur != nil; {
		rec.Visit(fmt.Sprintf("visit %v", cur.value), cur.id)
		last = cur.id

		switch c := cmp.Compare(v, cur.value); {
		case c == 0:
			rec.Found(fmt.Sprintf("found %v", v), cur.id)

			return rec.Trace(), nil
		case c < 0:
			cur = cur.left
		default:
			cur = cur.right
		}
	}

	rec.NotFound(fmt.Sprintf("%v not found", v), last)

	return rec.Trace(), viz.Fail("search", v, viz.ErrNotFound)
}

// Delete removes v. A node with two children takes the value of its in-order
// successor, which is then removed from the right subtree.
func (t *Tree[T]) Delete(v T) (viz.Trace, error) {
	rec := viz.NewRecorder("delete")

	if t.root == nil {
		return rec.Trace(), viz.Fail("delete", v, viz.ErrEmpty)
	}

	var (
		parent *node[T]
		cur    = t.root
	)

	for cur != nil && cur.value != v {
		rec.Visit(fmt.Sprintf("visit %v", cur.value), cur.id)
		parent = cur

		if v < cur.value {
			cur = cur.left
		} else {
			cur = cur.right
		}
	}

	if cur == nil {
		rec.NotFound(fmt.Sprintf("%v not found", v), idOf(parent))

		return rec.Trace(), viz.Fail("delete", v, viz.ErrNotFound)
	}

	rec.Mark(viz.StateDeleting, viz.PaceChange, fmt.Sprintf("delete %v", v), cur.id)

	if cur.left != nil && cur.right != nil {
		succParent, succ := cur, cur.right
		for succ.left != nil {
			rec.Visit(fmt.Sprintf("successor candidate %v", succ.value), succ.id)
			succParent, succ = succ, succ.left
		}

		rec.Mark(viz.StateFound, viz.PaceChange, fmt.Sprintf("in-order successor %v", succ.value), succ.id)

		cur.value = succ.value
		parent, cur = succParent, succ
	}

	child := cur.left
	if child == nil {
		child = cur.right
	}

	switch {
	case parent == nil:
		t.root = child
	case parent.left == cur:
		parent.left = child
	default:
		parent.right = child
	}

	t.size--
	rec.Restructure(t.Shape(), viz.StateUpdated, fmt.Sprintf("removed %v", v), idOf(child))

	return rec.Trace(), nil
}

func idOf[T cmp.Ordered](n *node[T]) string {
	if n == nil {
		return ""
	}

	return n.id
}

// Min returns the smallest value.
func (t *Tree[T]) Min() (T, bool) {
	var zero T
	if t.root == nil {
		return zero, false
	}

	n := t.root
	for n.left != nil {
		n = n.left
	}

	return n.value, true
}

// Max returns the largest value.
func (t *Tree[T]) Max() (T, bool) {
	var zero T
	if t.root == nil {
		return zero, false
	}

	n := t.root
	for n.right != nil {
		n = n.right
	}

	return n.value, true
}

// InOrder returns the values in ascending order.
func (t *Tree[T]) InOrder() []T {
	out := make([]T, 0, t.size)

	var walk func(n *node[T])
	walk = func(n *node[T]) {
		if n == nil {
			return
		}

		walk(n.left)
		out = append(out, n.value)
		walk(n.right)
	}
	walk(t.root)

	return out
}

// Shape implements viz.Structure.
func (t *Tree[T]) Shape() viz.Shape {
	return viz.BinaryTree{Root: shape(t.root)}
}

func shape[T cmp.Ordered](n *node[T]) *viz.BinaryNode {
	if n == nil {
		return nil
	}

	return &viz.BinaryNode{
		Item:  viz.Item{ID: n.id, Label: viz.Label(n.value)},
		Left:  shape(n.left),
		Right: shape(n.right),
	}
}

// Valid checks the search-tree ordering.
func (t *Tree[T]) Valid() error {
	return valid(t.root, nil, nil)
}

func valid[T cmp.Ordered](n *node[T], lo, hi *T) error {
	if n == nil {
		return nil
	}

	if (lo != nil && n.value <= *lo) || (hi != nil && n.value >= *hi) {
		return fmt.Errorf("%w at %v", errOrder, n.value)
	}

	err := valid(n.left, lo, &n.value)
	if err != nil {
		return err
	}

	return valid(n.right, &n.value, hi)
}

type checkpoint[T cmp.Ordered] struct {
	root *node[T]
	size int
}

// Checkpoint implements viz.Restorer.
func (t *Tree[T]) Checkpoint() any {
	return checkpoint[T]{root: clone(t.root), size: t.size}
}

// Restore implements viz.Restorer. Id allocation continues past restored ids.
func (t *Tree[T]) Restore(cp any) error {
	c, ok := cp.(checkpoint[T])
	if !ok {
		return errBadCopy
	}

	t.root, t.size = clone(c.root), c.size

	return nil
}

func clone[T cmp.Ordered](n *node[T]) *node[T] {
	if n == nil {
		return nil
	}

	return &node[T]{id: n.id, value: n.value, left: clone(n.left), right: clone(n.right)}
}
