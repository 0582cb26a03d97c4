// Package btree implements a B-Tree of configurable order m: every node holds
// at most m-1 keys and every non-root node at least ceil(m/2)-1.
//
// For even orders insertion splits full nodes on the way down, so a leaf
// always has room when it is reached. An odd order leaves a full node with an
// even key count that has no median, so those trees insert into the leaf and
// split overflowing nodes on the way back up. Deletion always repairs
// underflow bottom-up by borrowing from a sibling or merging with it.
package btree

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// Kind is the structure name reported to sessions.
const Kind = "btree"

// MinOrder is the smallest supported order.
const MinOrder = 3

// DefaultOrder is the order used by New when none is given.
const DefaultOrder = 3

var (
	errKeyCount = errors.New("btree: key count out of bounds")
	errChildren = errors.New("btree: child count does not match keys")
	errOrder    = errors.New("btree: keys out of order")
	errDepth    = errors.New("btree: leaves at different depths")
	errBadCopy  = errors.New("btree: checkpoint of a different type")
)

type node[T cmp.Ordered] struct {
	id       string
	keys     []T
	children []*node[T]
}

func (n *node[T]) leaf() bool { return len(n.children) == 0 }

// Tree is a B-Tree without duplicate keys.
type Tree[T cmp.Ordered] struct {
	root  *node[T]
	order int
	size  int
	ids   *viz.IDs
}

// New returns an empty tree of the given order.
func New[T cmp.Ordered](order int) (*Tree[T], error) {
	if order < MinOrder {
		return nil, viz.Fail("new", order, fmt.Errorf("%w: order must be at least %d", viz.ErrValidation, MinOrder))
	}

	return &Tree[T]{order: order, ids: viz.NewIDs(Kind)}, nil
}

// Kind implements viz.Structure.
func (t *Tree[T]) Kind() string { return Kind }

// Order returns the maximum number of children per node.
func (t *Tree[T]) Order() int { return t.order }

// Len returns the number of keys.
func (t *Tree[T]) Len() int { return t.size }

func (t *Tree[T]) maxKeys() int { return t.order - 1 }

func (t *Tree[T]) minKeys() int { return (t.order+1)/2 - 1 }

// Height returns the number of levels; an empty tree has height 0.
func (t *Tree[T]) Height() int {
	h := 0
	for n := t.root; n != nil; h++ {
		if n.leaf() {
			return h + 1
		}

		n = n.children[0]
	}

	return h
}

func (t *Tree[T]) newNode(keys []T, children []*node[T]) *node[T] {
	return &node[T]{id: t.ids.Next(), keys: keys, children: children}
}

// locate returns the position of v in n.keys and whether it is present.
func locate[T cmp.Ordered](n *node[T], v T) (int, bool) {
	return slices.BinarySearch(n.keys, v)
}

// Search looks v up, visiting every node on the root-to-target path.
func (t *Tree[T]) Search(v T) (viz.Trace, error) {
	rec := viz.NewRecorder("search")

	if t.root == nil {
		return rec.Trace(), viz.Fail("search", v, viz.ErrEmpty)
	}

	last := ""

	for n := t.root; n != nil; {
		rec.Visit(fmt.Sprintf("scan keys %s", keyLabel(n.keys)), n.id)
		last = n.id

		i, ok := locate(n, v)
		if ok {
			rec.Found(fmt.Sprintf("found %v", v), n.id)

			return rec.Trace(), nil
		}

		if n.leaf() {
			break
		}

		n = n.children[i]
	}

	rec.NotFound(fmt.Sprintf("%v not found", v), last)

	return rec.Trace(), viz.Fail("search", v, viz.ErrNotFound)
}

func (t *Tree[T]) contains(v T) bool {
	for n := t.root; n != nil; {
		i, ok := locate(n, v)
		if ok {
			return true
		}

		if n.leaf() {
			return false
		}

		n = n.children[i]
	}

	return false
}

// Insert adds v. Duplicates are rejected before any split happens.
func (t *Tree[T]) Insert(v T) (viz.Trace, error) {
	if t.contains(v) {
		tr, _ := t.Search(v)
		tr.Op = "insert"

		return tr, viz.Fail("insert", v, viz.ErrDuplicate)
	}

	rec := viz.NewRecorder("insert")

	if t.root == nil {
		t.root = t.newNode([]T{v}, nil)
		t.size++
		rec.Restructure(t.Shape(), viz.StateInserted, fmt.Sprintf("insert %v into a new root", v), t.root.id)

		return rec.Trace(), nil
	}

	if t.order%2 == 0 {
		t.insertTopDown(rec, v)
	} else {
		t.insertBottomUp(rec, v)
	}

	t.size++

	return rec.Trace(), nil
}

func (t *Tree[T]) insertTopDown(rec *viz.Recorder, v T) {
	mid := t.order/2 - 1

	if len(t.root.keys) == t.maxKeys() {
		old := t.root
		t.root = t.newNode(nil, []*node[T]{old})
		t.split(rec, t.root, 0, mid, "root is full")
	}

	n := t.root
	for !n.leaf() {
		rec.Visit(fmt.Sprintf("scan keys %s", keyLabel(n.keys)), n.id)

		i, _ := locate(n, v)
		if len(n.children[i].keys) == t.maxKeys() {
			t.split(rec, n, i, mid, "child is full")

			if v > n.keys[i] {
				i++
			}
		}

		n = n.children[i]
	}

	t.insertKey(rec, n, v)
}

func (t *Tree[T]) insertBottomUp(rec *viz.Recorder, v T) {
	var path []*node[T]

	n := t.root
	for !n.leaf() {
		rec.Visit(fmt.Sprintf("scan keys %s", keyLabel(n.keys)), n.id)
		path = append(path, n)

		i, _ := locate(n, v)
		n = n.children[i]
	}

	t.insertKey(rec, n, v)

	mid := t.order / 2

	for len(n.keys) > t.maxKeys() {
		var parent *node[T]

		if len(path) == 0 {
			parent = t.newNode(nil, []*node[T]{n})
			t.root = parent
		} else {
			parent = path[len(path)-1]
			path = path[:len(path)-1]
		}

		t.split(rec, parent, slices.Index(parent.children, n), mid, "node overflows")
		n = parent
	}
}

func (t *Tree[T]) insertKey(rec *viz.Recorder, leaf *node[T], v T) {
	rec.Visit(fmt.Sprintf("leaf %s", keyLabel(leaf.keys)), leaf.id)

	i, _ := locate(leaf, v)
	leaf.keys = slices.Insert(leaf.keys, i, v)

	rec.Restructure(t.Shape(), viz.StateInserted, fmt.Sprintf("insert %v into leaf", v), leaf.id)
}

// split moves the keys after mid of parent.children[i] into a new right
// sibling and lifts the key at mid into parent.
func (t *Tree[T]) split(rec *viz.Recorder, parent *node[T], i, mid int, reason string) {
	child := parent.children[i]
	rec.Mark(viz.StateSplitting, viz.PaceChange,
		fmt.Sprintf("%s: split %s at %v", reason, keyLabel(child.keys), child.keys[mid]), child.id)

	median := child.keys[mid]
	right := t.newNode(slices.Clone(child.keys[mid+1:]), nil)

	if !child.leaf() {
		right.children = slices.Clone(child.children[mid+1:])
		child.children = slices.Clip(child.children[:mid+1])
	}

	child.keys = slices.Clip(child.keys[:mid])

	parent.keys = slices.Insert(parent.keys, i, median)
	parent.children = slices.Insert(parent.children, i+1, right)

	rec.Restructure(t.Shape(), viz.StateSplitting,
		fmt.Sprintf("%v moves up", median), child.id, right.id, parent.id)
}

type frame[T cmp.Ordered] struct {
	n *node[T]
	i int // Index of the child taken from n.
}

// Delete removes v. A key in an internal node is replaced by its in-order
// predecessor, which is then removed from its leaf.
func (t *Tree[T]) Delete(v T) (viz.Trace, error) {
	rec := viz.NewRecorder("delete")

	if t.root == nil {
		return rec.Trace(), viz.Fail("delete", v, viz.ErrEmpty)
	}

	var path []frame[T]

	n := t.root

	for {
		rec.Visit(fmt.Sprintf("scan keys %s", keyLabel(n.keys)), n.id)

		i, ok := locate(n, v)
		if ok {
			rec.Mark(viz.StateDeleting, viz.PaceChange, fmt.Sprintf("delete %v", v), n.id)
			n = t.removeAt(rec, n, i, &path)

			break
		}

		if n.leaf() {
			rec.NotFound(fmt.Sprintf("%v not found", v), n.id)

			return rec.Trace(), viz.Fail("delete", v, viz.ErrNotFound)
		}

		path = append(path, frame[T]{n: n, i: i})
		n = n.children[i]
	}

	t.size--
	t.rebalance(rec, n, path)

	if len(t.root.keys) == 0 {
		if t.root.leaf() {
			t.root = nil
		} else {
			t.root = t.root.children[0]
			rec.Restructure(t.Shape(), viz.StateMerging, "empty root removed, tree shrinks", t.root.id)
		}
	}

	rec.Restructure(t.Shape(), viz.StateUpdated, fmt.Sprintf("removed %v", v))

	return rec.Trace(), nil
}

// removeAt deletes n.keys[i] and returns the leaf that lost a key.
func (t *Tree[T]) removeAt(rec *viz.Recorder, n *node[T], i int, path *[]frame[T]) *node[T] {
	if n.leaf() {
		n.keys = slices.Delete(n.keys, i, i+1)
		rec.Restructure(t.Shape(), viz.StateUpdated, "key removed from leaf", n.id)

		return n
	}

	*path = append(*path, frame[T]{n: n, i: i})

	pred := n.children[i]
	for !pred.leaf() {
		rec.Visit("predecessor: rightmost path", pred.id)
		*path = append(*path, frame[T]{n: pred, i: len(pred.children) - 1})
		pred = pred.children[len(pred.children)-1]
	}

	last := len(pred.keys) - 1
	rec.Mark(viz.StateFound, viz.PaceChange, fmt.Sprintf("in-order predecessor %v", pred.keys[last]), pred.id)

	n.keys[i] = pred.keys[last]
	pred.keys = pred.keys[:last]
	rec.Restructure(t.Shape(), viz.StateUpdated, "predecessor replaces the key", n.id, pred.id)

	return pred
}

// rebalance repairs underflow from n up to the root.
func (t *Tree[T]) rebalance(rec *viz.Recorder, n *node[T], path []frame[T]) {
	for len(path) > 0 && len(n.keys) < t.minKeys() {
		f := path[len(path)-1]
		path = path[:len(path)-1]
		parent, i := f.n, f.i

		var left, right *node[T]
		if i > 0 {
			left = parent.children[i-1]
		}

		if i+1 < len(parent.children) {
			right = parent.children[i+1]
		}

		switch {
		case left != nil && len(left.keys) > t.minKeys():
			rec.Mark(viz.StateComparing, viz.PaceVisit, "underflow: borrow from left sibling", n.id, left.id)

			n.keys = slices.Insert(n.keys, 0, parent.keys[i-1])
			parent.keys[i-1] = left.keys[len(left.keys)-1]
			left.keys = left.keys[:len(left.keys)-1]

			if !left.leaf() {
				n.children = slices.Insert(n.children, 0, left.children[len(left.children)-1])
				left.children = left.children[:len(left.children)-1]
			}

			rec.Restructure(t.Shape(), viz.StateUpdated, "rotated a key through the parent", n.id, left.id, parent.id)
		case right != nil && len(right.keys) > t.minKeys():
			rec.Mark(viz.StateComparing, viz.PaceVisit, "underflow: borrow from right sibling", n.id, right.id)

			n.keys = append(n.keys, parent.keys[i])
			parent.keys[i] = right.keys[0]
			right.keys = slices.Delete(right.keys, 0, 1)

			if !right.leaf() {
				n.children = append(n.children, right.children[0])
				right.children = slices.Delete(right.children, 0, 1)
			}

			rec.Restructure(t.Shape(), viz.StateUpdated, "rotated a key through the parent", n.id, right.id, parent.id)
		case left != nil:
			t.merge(rec, parent, i-1)
		default:
			t.merge(rec, parent, i)
		}

		n = parent
	}
}

// merge folds parent.children[i+1] and the separator key into parent.children[i].
func (t *Tree[T]) merge(rec *viz.Recorder, parent *node[T], i int) {
	left, right := parent.children[i], parent.children[i+1]
	rec.Mark(viz.StateMerging, viz.PaceChange,
		fmt.Sprintf("merge %s, %v and %s", keyLabel(left.keys), parent.keys[i], keyLabel(right.keys)),
		left.id, right.id, parent.id)

	left.keys = append(left.keys, parent.keys[i])
	left.keys = append(left.keys, right.keys...)
	left.children = append(left.children, right.children...)

	parent.keys = slices.Delete(parent.keys, i, i+1)
	parent.children = slices.Delete(parent.children, i+1, i+2)

	rec.Restructure(t.Shape(), viz.StateMerging, "nodes merged", left.id, parent.id)
}

// SetOrder rebuilds the tree with a new order by reinserting every key.
func (t *Tree[T]) SetOrder(order int) (viz.Trace, error) {
	rec := viz.NewRecorder("order")

	if order < MinOrder {
		return rec.Trace(), viz.Fail("order", order,
			fmt.Errorf("%w: order must be at least %d", viz.ErrValidation, MinOrder))
	}

	keys := t.Keys()
	t.root, t.size, t.order = nil, 0, order

	for _, k := range keys {
		_, _ = t.Insert(k)
	}

	rec.Restructure(t.Shape(), viz.StateUpdated, fmt.Sprintf("rebuilt with order %d", order))

	return rec.Trace(), nil
}

// Keys returns every key in ascending order.
func (t *Tree[T]) Keys() []T {
	out := make([]T, 0, t.size)

	var walk func(n *node[T])
	walk = func(n *node[T]) {
		if n == nil {
			return
		}

		for i, k := range n.keys {
			if !n.leaf() {
				walk(n.children[i])
			}

			out = append(out, k)
		}

		if !n.leaf() {
			walk(n.children[len(n.children)-1])
		}
	}
	walk(t.root)

	return out
}

// RootKeys returns the keys of the root node.
func (t *Tree[T]) RootKeys() []T {
	if t.root == nil {
		return nil
	}

	return slices.Clone(t.root.keys)
}

// RootChildren returns the number of children of the root.
func (t *Tree[T]) RootChildren() int {
	if t.root == nil {
		return 0
	}

	return len(t.root.children)
}

func keyLabel[T cmp.Ordered](keys []T) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = viz.Label(k)
	}

	return strings.Join(parts, " | ")
}

// Shape implements viz.Structure. Each node spans one slot per key.
func (t *Tree[T]) Shape() viz.Shape {
	if t.root == nil {
		return viz.Forest{}
	}

	return viz.Forest{Roots: []*viz.TreeNode{shape(t.root)}}
}

func shape[T cmp.Ordered](n *node[T]) *viz.TreeNode {
	tn := &viz.TreeNode{
		Item: viz.Item{ID: n.id, Label: keyLabel(n.keys)},
		Span: len(n.keys),
	}

	for _, c := range n.children {
		tn.Children = append(tn.Children, shape(c))
	}

	return tn
}

// Valid checks key bounds, key order, child counts and leaf depth.
func (t *Tree[T]) Valid() error {
	if t.root == nil {
		return nil
	}

	leafDepth := -1

	var walk func(n *node[T], depth int, lo, hi *T) error
	walk = func(n *node[T], depth int, lo, hi *T) error {
		if len(n.keys) > t.maxKeys() || (n != t.root && len(n.keys) < t.minKeys()) || len(n.keys) == 0 {
			return fmt.Errorf("%w: %d keys in %s", errKeyCount, len(n.keys), n.id)
		}

		if !slices.IsSorted(n.keys) || (lo != nil && n.keys[0] <= *lo) || (hi != nil && n.keys[len(n.keys)-1] >= *hi) {
			return fmt.Errorf("%w in %s", errOrder, n.id)
		}

		if n.leaf() {
			if leafDepth == -1 {
				leafDepth = depth
			}

			if depth != leafDepth {
				return fmt.Errorf("%w: %d and %d", errDepth, leafDepth, depth)
			}

			return nil
		}

		if len(n.children) != len(n.keys)+1 {
			return fmt.Errorf("%w in %s", errChildren, n.id)
		}

		for i, c := range n.children {
			clo, chi := lo, hi
			if i > 0 {
				clo = &n.keys[i-1]
			}

			if i < len(n.keys) {
				chi = &n.keys[i]
			}

			err := walk(c, depth+1, clo, chi)
			if err != nil {
				return err
			}
		}

		return nil
	}

	return walk(t.root, 0, nil, nil)
}

type checkpoint[T cmp.Ordered] struct {
	root  *node[T]
	order int
	size  int
}

// Checkpoint implements viz.Restorer.
func (t *Tree[T]) Checkpoint() any {
	return checkpoint[T]{root: clone(t.root), order: t.order, size: t.size}
}

// Restore implements viz.Restorer.
func (t *Tree[T]) Restore(cp any) error {
	c, ok := cp.(checkpoint[T])
	if !ok {
		return errBadCopy
	}

	t.root, t.order, t.size = clone(c.root), c.order, c.size

	return nil
}

func clone[T cmp.Ordered](n *node[T]) *node[T] {
	if n == nil {
		return nil
	}

	c := &node[T]{id: n.id, keys: slices.Clone(n.keys)}
	for _, ch := range n.children {
		c.children = append(c.children, clone(ch))
	}

	return c
}
