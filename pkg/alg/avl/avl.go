// Package avl implements a height-balanced binary search tree. Every insert
// and delete walks back to the root recomputing heights and rotates any
// ancestor whose balance factor leaves [-1, 1]. Each rotation is recorded as
// a rotating highlight followed by a layout checkpoint of the new linkage.
package avl

import (
	"cmp"
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// Kind is the structure name reported to sessions.
const Kind = "avl"

var (
	errOrder   = errors.New("avl: ordering violated")
	errBalance = errors.New("avl: balance factor out of range")
	errHeight  = errors.New("avl: stale height")
	errBadCopy = errors.New("avl: checkpoint of a different type")
)

type node[T cmp.Ordered] struct {
	id     string
	value  T
	height int
	left   *node[T]
	right  *node[T]
}

func h[T cmp.Ordered](n *node[T]) int {
	if n == nil {
		return 0
	}

	return n.height
}

func balance[T cmp.Ordered](n *node[T]) int {
	if n == nil {
		return 0
	}

	return h(n.left) - h(n.right)
}

func (n *node[T]) update() {
	n.height = 1 + max(h(n.left), h(n.right))
}

// Tree is an AVL tree without duplicates.
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

// Height returns the height of the root; an empty tree has height 0.
func (t *Tree[T]) Height() int { return h(t.root) }

// Insert adds v and rebalances the path back to the root.
func (t *Tree[T]) Insert(v T) (viz.Trace, error) {
	rec := viz.NewRecorder("insert")

	var path []*node[T]

	for cur := t.root; cur != nil; {
		rec.Compare(fmt.Sprintf("compare %v with %v", v, cur.value), cur.id)

		c := cmp.Compare(v, cur.value)
		if c == 0 {
			rec.Found(fmt.Sprintf("%v already exists", v), cur.id)

			return rec.Trace(), viz.Fail("insert", v, viz.ErrDuplicate)
		}

		path = append(path, cur)

		if c < 0 {
			cur = cur.left
		} else {
			cur = cur.right
		}
	}

	n := &node[T]{id: t.ids.Next(), value: v, height: 1}

	if len(path) == 0 {
		t.root = n
	} else if parent := path[len(path)-1]; v < parent.value {
		parent.left = n
	} else {
		parent.right = n
	}

	t.size++
	rec.Restructure(t.Shape(), viz.StateInserted, fmt.Sprintf("insert %v", v), n.id)
	t.retrace(rec, path)

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

// Delete removes v, using the in-order successor for nodes with two
// children, and rebalances the path back to the root.
func (t *Tree[T]) Delete(v T) (viz.Trace, error) {
	rec := viz.NewRecorder("delete")

	if t.root == nil {
		return rec.Trace(), viz.Fail("delete", v, viz.ErrEmpty)
	}

	var path []*node[T]

	cur := t.root
	for cur != nil && cur.value != v {
		rec.Visit(fmt.Sprintf("visit %v", cur.value), cur.id)
		path = append(path, cur)

		if v < cur.value {
			cur = cur.left
		} else {
			cur = cur.right
		}
	}

	if cur == nil {
		last := ""
		if len(path) > 0 {
			last = path[len(path)-1].id
		}

		rec.NotFound(fmt.Sprintf("%v not found", v), last)

		return rec.Trace(), viz.Fail("delete", v, viz.ErrNotFound)
	}

	rec.Mark(viz.StateDeleting, viz.PaceChange, fmt.Sprintf("delete %v", v), cur.id)

	if cur.left != nil && cur.right != nil {
		path = append(path, cur)

		succ := cur.right
		for succ.left != nil {
			rec.Visit(fmt.Sprintf("successor candidate %v", succ.value), succ.id)
			path = append(path, succ)
			succ = succ.left
		}

		rec.Mark(viz.StateFound, viz.PaceChange, fmt.Sprintf("in-order successor %v", succ.value), succ.id)

		cur.value = succ.value
		cur = succ
	}

	child := cur.left
	if child == nil {
		child = cur.right
	}

	t.replace(parentOf(path), cur, child)
	t.size--

	rec.Restructure(t.Shape(), viz.StateUpdated, fmt.Sprintf("removed %v", v), idOf(child))
	t.retrace(rec, path)

	return rec.Trace(), nil
}

func parentOf[T cmp.Ordered](path []*node[T]) *node[T] {
	if len(path) == 0 {
		return nil
	}

	return path[len(path)-1]
}

func idOf[T cmp.Ordered](n *node[T]) string {
	if n == nil {
		return ""
	}

	return n.id
}

// replace swaps old for repl under parent, or at the root when parent is nil.
func (t *Tree[T]) replace(parent, old, repl *node[T]) {
	switch {
	case parent == nil:
		t.root = repl
	case parent.left == old:
		parent.left = repl
	default:
		parent.right = repl
	}
}

// retrace walks path bottom-up, updating heights and rotating unbalanced ancestors.
func (t *Tree[T]) retrace(rec *viz.Recorder, path []*node[T]) {
	for i := len(path) - 1; i >= 0; i-- {
		n := path[i]
		n.update()

		bf := balance(n)
		rec.Visit(fmt.Sprintf("%v: height %d, balance %d", n.value, n.height, bf), n.id)

		var parent *node[T]
		if i > 0 {
			parent = path[i-1]
		}

		switch {
		case bf > 1:
			if balance(n.left) < 0 {
				t.rotateLeft(rec, n, n.left, "left-right case")
			}

			t.rotateRight(rec, parent, n, "left-left case")
		case bf < -1:
			if balance(n.right) > 0 {
				t.rotateRight(rec, n, n.right, "right-left case")
			}

			t.rotateLeft(rec, parent, n, "right-right case")
		}
	}
}

func (t *Tree[T]) rotateRight(rec *viz.Recorder, parent, y *node[T], reason string) {
	x := y.left
	ids := []string{y.id, x.id, idOf(x.right)}
	rec.Mark(viz.StateRotating, viz.PaceChange, fmt.Sprintf("%s: rotate right at %v", reason, y.value), ids...)

	y.left = x.right
	x.right = y
	y.update()
	x.update()
	t.replace(parent, y, x)

	rec.Restructure(t.Shape(), viz.StateRotating, fmt.Sprintf("%v is the new subtree root", x.value), ids...)
}

func (t *Tree[T]) rotateLeft(rec *viz.Recorder, parent, x *node[T], reason string) {
	y := x.right
	ids := []string{x.id, y.id, idOf(y.left)}
	rec.Mark(viz.StateRotating, viz.PaceChange, fmt.Sprintf("%s: rotate left at %v", reason, x.value), ids...)

	x.right = y.left
	y.left = x
	x.update()
	y.update()
	t.replace(parent, x, y)

	rec.Restructure(t.Shape(), viz.StateRotating, fmt.Sprintf("%v is the new subtree root", y.value), ids...)
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

// Root returns the root value.
func (t *Tree[T]) Root() (T, bool) {
	var zero T
	if t.root == nil {
		return zero, false
	}

	return t.root.value, true
}

// BalanceOf returns the balance factor of the node holding v.
func (t *Tree[T]) BalanceOf(v T) (int, bool) {
	for cur := t.root; cur != nil; {
		switch c := cmp.Compare(v, cur.value); {
		case c == 0:
			return balance(cur), true
		case c < 0:
			cur = cur.left
		default:
			cur = cur.right
		}
	}

	return 0, false
}

// Shape implements viz.Structure. Detail carries the height and balance factor.
func (t *Tree[T]) Shape() viz.Shape {
	return viz.BinaryTree{Root: shape(t.root)}
}

func shape[T cmp.Ordered](n *node[T]) *viz.BinaryNode {
	if n == nil {
		return nil
	}

	return &viz.BinaryNode{
		Item: viz.Item{
			ID:     n.id,
			Label:  viz.Label(n.value),
			Detail: fmt.Sprintf("h=%d bf=%d", n.height, balance(n)),
		},
		Left:  shape(n.left),
		Right: shape(n.right),
	}
}

// Valid checks ordering, stored heights and balance factors.
func (t *Tree[T]) Valid() error {
	_, err := valid(t.root, nil, nil)

	return err
}

func valid[T cmp.Ordered](n *node[T], lo, hi *T) (int, error) {
	if n == nil {
		return 0, nil
	}

	if (lo != nil && n.value <= *lo) || (hi != nil && n.value >= *hi) {
		return 0, fmt.Errorf("%w at %v", errOrder, n.value)
	}

	lh, err := valid(n.left, lo, &n.value)
	if err != nil {
		return 0, err
	}

	rh, err := valid(n.right, &n.value, hi)
	if err != nil {
		return 0, err
	}

	if n.height != 1+max(lh, rh) {
		return 0, fmt.Errorf("%w at %v", errHeight, n.value)
	}

	if lh-rh > 1 || rh-lh > 1 {
		return 0, fmt.Errorf("%w at %v: %d", errBalance, n.value, lh-rh)
	}

	return n.height, nil
}

type checkpoint[T cmp.Ordered] struct {
	root *node[T]
	size int
}

// Checkpoint implements viz.Restorer.
func (t *Tree[T]) Checkpoint() any {
	return checkpoint[T]{root: clone(t.root), size: t.size}
}

// Restore implements viz.Restorer.
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

	c := *n
	c.left, c.right = clone(n.left), clone(n.right)

	return &c
}
