package viz

// Tone is a structural color that belongs to the logical node itself, as
// opposed to the transient highlight state of an animation.
type Tone string

// Tones.
const (
	ToneNone  Tone = ""
	ToneRed   Tone = "red"
	ToneBlack Tone = "black"
	ToneMuted Tone = "muted"
)

// Shape is an immutable snapshot of a logical structure's linkage, taken at a
// point in time. The layout engine turns a Shape into a Scene.
type Shape interface {
	shape()
}

// Item is the display content of one logical node inside a Shape.
type Item struct {
	ID     string
	Label  string
	Detail string
	Tone   Tone
}

// BinaryNode is a node of a BinaryTree shape. Missing children are nil and
// keep their slot, so a lone right child is still drawn to the right.
type BinaryNode struct {
	Item

	Left, Right *BinaryNode
}

// BinaryTree is the shape of BST, AVL, Red-Black, heap and segment trees.
type BinaryTree struct {
	Root *BinaryNode
}

// TreeNode is a node of a Forest shape. Span is the number of key slots the
// node occupies horizontally (B-Tree keys); zero means one slot.
type TreeNode struct {
	Item

	Span       int
	Children   []*TreeNode
	EdgeLabels []string // Optional label per child edge (trie characters).
}

// Forest is the shape of multi-branch trees (B-Tree, trie) and of disjoint-set forests.
type Forest struct {
	Roots []*TreeNode
}

// Link is an explicit connection between two items of a flat shape.
type Link struct {
	From, To string
	Label    string
}

// Array is the shape of array-indexed structures (Fenwick tree, bloom filter bits, ring buffer).
type Array struct {
	Cells []Item
	Links []Link
}

// Chain is the shape of linear structures. Vertical chains stack top-down
// (stacks); horizontal chains run left to right (queues, deques, lists).
type Chain struct {
	Items    []Item
	Vertical bool
	Doubly   bool
}

// Column is one tower of a Grid shape: a logical node present on levels [0, Height).
type Column struct {
	Item

	Height int
}

// Grid is the shape of a skip list: columns in level-0 order, each with a tower height.
type Grid struct {
	Columns []Column
	Levels  int
}

// Bucket is one slot of a Buckets shape together with its chained entries.
type Bucket struct {
	Slot  Item
	Chain []Item
}

// Buckets is the shape of hash tables: one row per slot with its chain.
type Buckets struct {
	Slots []Bucket
}

// Network is the shape of general graphs.
type Network struct {
	Vertices []Item
	Edges    []Link
	Directed bool
}

func (BinaryTree) shape() {}
func (Forest) shape()     {}
func (Array) shape()      {}
func (Chain) shape()      {}
func (Grid) shape()       {}
func (Buckets) shape()    {}
func (Network) shape()    {}
