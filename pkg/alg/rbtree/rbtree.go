// Package rbtree implements a red-black tree stored in an index arena.
//
// Nodes live in a slice and refer to each other by index; index 0 is the
// reserved nil node, which is always black. Checkpoints copy the arena, so
// history snapshots are a single slice copy.
package rbtree

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// Kind is the structure name reported to sessions.
const Kind = "rbtree"

const nilNode = 0

var (
	errOrder     = errors.New("rbtree: ordering violated")
	errRedRoot   = errors.New("rbtree: root is red")
	errRedRed    = errors.New("rbtree: red node with red child")
	errBlackPath = errors.New("rbtree: unequal black height")
	errParent    = errors.New("rbtree: broken parent link")
	errBadCopy   = errors.New("rbtree: checkpoint of a different type")
)

type node[T cmp.Ordered] struct {
	id                  string
	value               T
	parent, left, right uint32
	black               bool
}

// Tree is a red-black tree without duplicates.
type Tree[T cmp.Ordered] struct {
	nodes []node[T]
	free  []uint32
	root  uint32
	count int
	ids   *viz.IDs
}

// New returns an empty tree.
func New[T cmp.Ordered]() *Tree[T] {
	return &Tree[T]{nodes: make([]node[T], 1), ids: viz.NewIDs(Kind)}
}

// Kind implements viz.Structure.
func (t *Tree[T]) Kind() string { return Kind }

// Len returns the number of values.
func (t *Tree[T]) Len() int { return t.count }

func (t *Tree[T]) malloc(v T) uint32 {
	n := node[T]{id: t.ids.Next(), value: v}

	if len(t.free) > 0 {
		idx := t.free[len(t.free)-1]
		t.free = t.free[:len(t.free)-1]
		t.nodes[idx] = n

		return idx
	}

	t.nodes = append(t.nodes, n)

	return uint32(len(t.nodes) - 1) //nolint:gosec // arena size is bounded by memory.
}

func (t *Tree[T]) release(idx uint32) {
	t.nodes[idx] = node[T]{}
	t.free = append(t.free, idx)
}

func (t *Tree[T]) isBlack(idx uint32) bool {
	return idx == nilNode || t.nodes[idx].black
}

func (t *Tree[T]) isLeftChild(idx uint32) bool {
	return idx == t.nodes[t.nodes[idx].parent].left
}

func (t *Tree[T]) sibling(idx uint32) uint32 {
	p := t.nodes[idx].parent
	if t.isLeftChild(idx) {
		return t.nodes[p].right
	}

	return t.nodes[p].left
}

func (t *Tree[T]) id(idx uint32) string {
	if idx == nilNode {
		return ""
	}

	return t.nodes[idx].id
}

func (t *Tree[T]) find(v T, rec *viz.Recorder) (found, last uint32) {
	for cur := t.root; cur != nilNode; {
		n := &t.nodes[cur]
		if rec != nil {
			rec.Visit(fmt.Sprintf("visit %v", n.value), n.id)
		}

		last = cur

		switch c := cmp.Compare(v, n.value); {
		case c == 0:
			return cur, last
		case c < 0:
			cur = n.left
		default:
			cur = n.right
		}
	}

	return nilNode, last
}

// Insert adds v as a red leaf and restores the red-black rules.
func (t *Tree[T]) Insert(v T) (viz.Trace, error) {
	rec := viz.NewRecorder("insert")

	parent := uint32(nilNode)
	less := false

	for cur := t.root; cur != nilNode; {
		n := &t.nodes[cur]
		rec.Compare(fmt.Sprintf("compare %v with %v", v, n.value), n.id)

		c := cmp.Compare(v, n.value)
		if c == 0 {
			rec.Found(fmt.Sprintf("%v already exists", v), n.id)

			return rec.Trace(), viz.Fail("insert", v, viz.ErrDuplicate)
		}

		parent, less = cur, c < 0
		if less {
			cur = n.left
		} else {
			cur = n.right
		}
	}

	idx := t.malloc(v)
	t.nodes[idx].parent = parent

	switch {
	case parent == nilNode:
		t.root = idx
	case less:
		t.nodes[parent].left = idx
	default:
		t.nodes[parent].right = idx
	}

	t.count++
	rec.Restructure(t.Shape(), viz.StateInserted, fmt.Sprintf("insert %v as a red leaf", v), t.id(idx))
	t.insertFixup(rec, idx)

	return rec.Trace(), nil
}

func (t *Tree[T]) insertFixup(rec *viz.Recorder, idx uint32) {
	for {
		parent := t.nodes[idx].parent

		if parent == nilNode {
			if !t.nodes[idx].black {
				t.nodes[idx].black = true
				rec.Restructure(t.Shape(), viz.StateRecolored, "root is always black", t.id(idx))
			}

			return
		}

		if t.nodes[parent].black {
			return
		}

		grand := t.nodes[parent].parent
		uncle := t.sibling(parent)

		if !t.isBlack(uncle) {
			rec.Compare("parent and uncle are red", t.id(parent), t.id(uncle))
			t.nodes[parent].black = true
			t.nodes[uncle].black = true
			t.nodes[grand].black = false
			rec.Restructure(t.Shape(), viz.StateRecolored, "recolor parent and uncle black, grandparent red",
				t.id(parent), t.id(uncle), t.id(grand))

			idx = grand

			continue
		}

		// Uncle black: bring the zig-zag into a line first.
		if !t.isLeftChild(idx) && t.isLeftChild(parent) {
			t.rotate(rec, parent, true, "uncle black, inner child")
			idx = parent

			continue
		}

		if t.isLeftChild(idx) && !t.isLeftChild(parent) {
			t.rotate(rec, parent, false, "uncle black, inner child")
			idx = parent

			continue
		}

		t.nodes[parent].black = true
		t.nodes[grand].black = false
		rec.Restructure(t.Shape(), viz.StateRecolored, "recolor parent black, grandparent red",
			t.id(parent), t.id(grand))
		t.rotate(rec, grand, !t.isLeftChild(idx), "uncle black, outer child")

		return
	}
}

// Search looks v up, visiting the root-to-target path.
func (t *Tree[T]) Search(v T) (viz.Trace, error) {
	rec := viz.NewRecorder("search")

	if t.root == nilNode {
		return rec.Trace(), viz.Fail("search", v, viz.ErrEmpty)
	}

	idx, last := t.find(v, rec)
	if idx == nilNode {
		rec.NotFound(fmt.Sprintf("%v not found", v), t.id(last))

		return rec.Trace(), viz.Fail("search", v, viz.ErrNotFound)
	}

	rec.Found(fmt.Sprintf("found %v", v), t.id(idx))

	return rec.Trace(), nil
}

// Delete removes v. A node with two children takes the value of its in-order
// predecessor, which is removed in its place. Removing a black node runs the
// double-black fix-up before the node is unlinked.
func (t *Tree[T]) Delete(v T) (viz.Trace, error) {
	rec := viz.NewRecorder("delete")

	if t.root == nilNode {
		return rec.Trace(), viz.Fail("delete", v, viz.ErrEmpty)
	}

	idx, last := t.find(v, rec)
	if idx == nilNode {
		rec.NotFound(fmt.Sprintf("%v not found", v), t.id(last))

		return rec.Trace(), viz.Fail("delete", v, viz.ErrNotFound)
	}

	rec.Mark(viz.StateDeleting, viz.PaceChange, fmt.Sprintf("delete %v", v), t.id(idx))

	if t.nodes[idx].left != nilNode && t.nodes[idx].right != nilNode {
		pred := t.nodes[idx].left
		for t.nodes[pred].right != nilNode {
			rec.Visit(fmt.Sprintf("predecessor candidate %v", t.nodes[pred].value), t.id(pred))
			pred = t.nodes[pred].right
		}

		rec.Mark(viz.StateFound, viz.PaceChange,
			fmt.Sprintf("in-order predecessor %v", t.nodes[pred].value), t.id(pred))

		t.nodes[idx].value = t.nodes[pred].value
		rec.Restructure(t.Shape(), viz.StateUpdated, "copy predecessor value", t.id(idx))
		rec.Mark(viz.StateDeleting, viz.PaceChange, "remove the predecessor node", t.id(pred))

		idx = pred
	}

	child := t.nodes[idx].right
	if child == nilNode {
		child = t.nodes[idx].left
	}

	if t.nodes[idx].black {
		if !t.isBlack(child) {
			t.nodes[child].black = true
			rec.Restructure(t.Shape(), viz.StateRecolored, "red child takes the removed black", t.id(child))
		} else {
			t.deleteFixup(rec, idx)
		}
	}

	t.replaceNode(idx, child)
	t.release(idx)
	t.count--

	if t.root != nilNode && !t.nodes[t.root].black {
		t.nodes[t.root].black = true
	}

	rec.Restructure(t.Shape(), viz.StateUpdated, fmt.Sprintf("removed %v", v), t.id(child))

	return rec.Trace(), nil
}

// deleteFixup resolves the missing black carried by idx, which is still
// linked in place of the node being removed.
func (t *Tree[T]) deleteFixup(rec *viz.Recorder, idx uint32) {
	for t.nodes[idx].parent != nilNode {
		parent := t.nodes[idx].parent
		left := t.isLeftChild(idx)
		sib := t.sibling(idx)

		if !t.isBlack(sib) {
			t.nodes[parent].black = false
			t.nodes[sib].black = true
			rec.Restructure(t.Shape(), viz.StateRecolored, "sibling red: swap colors with parent",
				t.id(sib), t.id(parent))
			t.rotate(rec, parent, left, "sibling red")

			sib = t.sibling(idx)
		}

		near, far := t.nodes[sib].left, t.nodes[sib].right
		if !left {
			near, far = far, near
		}

		if t.isBlack(near) && t.isBlack(far) {
			t.nodes[sib].black = false

			if t.nodes[parent].black {
				rec.Restructure(t.Shape(), viz.StateRecolored, "sibling and nephews black: push the problem up",
					t.id(sib))

				idx = parent

				continue
			}

			t.nodes[parent].black = true
			rec.Restructure(t.Shape(), viz.StateRecolored, "red parent absorbs the missing black",
				t.id(sib), t.id(parent))

			return
		}

		if t.isBlack(far) {
			t.nodes[sib].black = false
			t.nodes[near].black = true
			rec.Restructure(t.Shape(), viz.StateRecolored, "near nephew red: recolor", t.id(sib), t.id(near))
			t.rotate(rec, sib, !left, "near nephew red")

			sib = t.sibling(idx)
			far = t.nodes[sib].right

			if !left {
				far = t.nodes[sib].left
			}
		}

		t.nodes[sib].black = t.nodes[parent].black
		t.nodes[parent].black = true
		t.nodes[far].black = true
		rec.Restructure(t.Shape(), viz.StateRecolored, "far nephew red: recolor",
			t.id(sib), t.id(parent), t.id(far))
		t.rotate(rec, parent, left, "far nephew red")

		return
	}
}

func (t *Tree[T]) replaceNode(oldn, newn uint32) {
	parent := t.nodes[oldn].parent

	switch {
	case parent == nilNode:
		t.root = newn
	case oldn == t.nodes[parent].left:
		t.nodes[parent].left = newn
	default:
		t.nodes[parent].right = newn
	}

	if newn != nilNode {
		t.nodes[newn].parent = parent
	}
}

// rotate performs a left (isLeft) or right rotation around pivot:
//
//	  X              Y
//	A   Y    =>    X   C
//	  B C        A B
func (t *Tree[T]) rotate(rec *viz.Recorder, pivot uint32, isLeft bool, reason string) {
	dir := "right"

	child := t.nodes[pivot].left
	if isLeft {
		child = t.nodes[pivot].right
		dir = "left"
	}

	inner := t.nodes[child].right
	if isLeft {
		inner = t.nodes[child].left
	}

	ids := []string{t.id(pivot), t.id(child), t.id(inner)}
	rec.Mark(viz.StateRotating, viz.PaceChange,
		fmt.Sprintf("%s: rotate %s at %v", reason, dir, t.nodes[pivot].value), ids...)

	if isLeft {
		t.nodes[pivot].right = inner
	} else {
		t.nodes[pivot].left = inner
	}

	if inner != nilNode {
		t.nodes[inner].parent = pivot
	}

	t.replaceNode(pivot, child)

	if isLeft {
		t.nodes[child].left = pivot
	} else {
		t.nodes[child].right = pivot
	}

	t.nodes[pivot].parent = child

	rec.Restructure(t.Shape(), viz.StateRotating,
		fmt.Sprintf("%v is the new subtree root", t.nodes[child].value), ids...)
}

// InOrder returns the values in ascending order.
func (t *Tree[T]) InOrder() []T {
	out := make([]T, 0, t.count)

	var walk func(idx uint32)
	walk = func(idx uint32) {
		if idx == nilNode {
			return
		}

		walk(t.nodes[idx].left)
		out = append(out, t.nodes[idx].value)
		walk(t.nodes[idx].right)
	}
	walk(t.root)

	return out
}

// IsRed reports the color of the node holding v.
func (t *Tree[T]) IsRed(v T) (red, found bool) {
	idx, _ := t.find(v, nil)
	if idx == nilNode {
		return false, false
	}

	return !t.nodes[idx].black, true
}

// BlackHeight returns the number of black nodes on any root-to-leaf path.
func (t *Tree[T]) BlackHeight() int {
	n := 0

	for idx := t.root; idx != nilNode; idx = t.nodes[idx].left {
		if t.nodes[idx].black {
			n++
		}
	}

	return n
}

// Shape implements viz.Structure. Tone carries the node color.
func (t *Tree[T]) Shape() viz.Shape {
	return viz.BinaryTree{Root: t.shape(t.root)}
}

func (t *Tree[T]) shape(idx uint32) *viz.BinaryNode {
	if idx == nilNode {
		return nil
	}

	n := &t.nodes[idx]
	tone, detail := viz.ToneRed, "red"

	if n.black {
		tone, detail = viz.ToneBlack, "black"
	}

	return &viz.BinaryNode{
		Item:  viz.Item{ID: n.id, Label: viz.Label(n.value), Detail: detail, Tone: tone},
		Left:  t.shape(n.left),
		Right: t.shape(n.right),
	}
}

// Valid checks ordering, parent links and the red-black rules.
func (t *Tree[T]) Valid() error {
	if t.root == nilNode {
		return nil
	}

	if !t.nodes[t.root].black {
		return errRedRoot
	}

	_, err := t.valid(t.root, nilNode, nil, nil)

	return err
}

func (t *Tree[T]) valid(idx, parent uint32, lo, hi *T) (int, error) {
	if idx == nilNode {
		return 1, nil
	}

	n := &t.nodes[idx]

	if n.parent != parent {
		return 0, fmt.Errorf("%w at %v", errParent, n.value)
	}

	if (lo != nil && n.value <= *lo) || (hi != nil && n.value >= *hi) {
		return 0, fmt.Errorf("%w at %v", errOrder, n.value)
	}

	if !n.black && (!t.isBlack(n.left) || !t.isBlack(n.right)) {
		return 0, fmt.Errorf("%w at %v", errRedRed, n.value)
	}

	lh, err := t.valid(n.left, idx, lo, &n.value)
	if err != nil {
		return 0, err
	}

	rh, err := t.valid(n.right, idx, &n.value, hi)
	if err != nil {
		return 0, err
	}

	if lh != rh {
		return 0, fmt.Errorf("%w at %v: %d != %d", errBlackPath, n.value, lh, rh)
	}

	if n.black {
		lh++
	}

	return lh, nil
}

type checkpoint[T cmp.Ordered] struct {
	nodes []node[T]
	free  []uint32
	root  uint32
	count int
}

// Checkpoint implements viz.Restorer.
func (t *Tree[T]) Checkpoint() any {
	return checkpoint[T]{nodes: slices.Clone(t.nodes), free: slices.Clone(t.free), root: t.root, count: t.count}
}

// Restore implements viz.Restorer.
func (t *Tree[T]) Restore(cp any) error {
	c, ok := cp.(checkpoint[T])
	if !ok {
		return errBadCopy
	}

	t.nodes, t.free = slices.Clone(c.nodes), slices.Clone(c.free)
	t.root, t.count = c.root, c.count

	return nil
}
