// Package layout computes 2D coordinates and edges for structure shapes.
//
// Compute is a pure function of the shape, the options and, for shapes whose
// nodes have no canonical position (general graphs), the previous positions.
// Tree layouts place levels at a constant vertical distance and shrink the
// horizontal offset geometrically with depth so subtrees never overlap.
package layout

import (
	"math"
	"slices"
	"strconv"

	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// Reference geometry in logical units.
const (
	DefaultCanvasWidth = 1200.0
	DefaultLevelHeight = 100.0
	DefaultNodeWidth   = 48.0
	DefaultCellWidth   = 60.0
	DefaultRowHeight   = 60.0
	DefaultMargin      = 40.0

	// movedEpsilon is the distance under which a node is considered unmoved.
	movedEpsilon = 0.5

	// towerSep separates skip-list tower cell ids from their column id.
	towerSep = "@"

	// ringFraction is the ring radius as a fraction of the canvas width.
	ringFraction = 1.0 / 3.0
)

// Options holds layout geometry.
type Options struct {
	CanvasWidth float64
	LevelHeight float64
	NodeWidth   float64
	CellWidth   float64
	RowHeight   float64
	Margin      float64
}

// DefaultOptions returns the reference geometry.
func DefaultOptions() Options {
	return Options{
		CanvasWidth: DefaultCanvasWidth,
		LevelHeight: DefaultLevelHeight,
		NodeWidth:   DefaultNodeWidth,
		CellWidth:   DefaultCellWidth,
		RowHeight:   DefaultRowHeight,
		Margin:      DefaultMargin,
	}
}

// builder accumulates nodes and edges in placement order.
type builder struct {
	opts  Options
	nodes []viz.VisualNode
	edges []viz.VisualEdge
}

func (b *builder) node(it viz.Item, pos viz.Position, width float64) {
	b.nodes = append(b.nodes, viz.VisualNode{
		ID:     it.ID,
		Label:  it.Label,
		Detail: it.Detail,
		Tone:   it.Tone,
		Pos:    pos,
		Width:  width,
		State:  viz.StateDefault,
	})
}

func (b *builder) edge(from, to, label string) {
	b.edges = append(b.edges, viz.VisualEdge{
		ID:    EdgeID(from, to),
		From:  from,
		To:    to,
		Label: label,
		State: viz.StateDefault,
	})
}

// EdgeID returns the id of the edge from -> to.
func EdgeID(from, to string) string {
	return from + ">" + to
}

// TowerID returns the id of a skip-list tower cell above level 0.
func TowerID(column string, level int) string {
	if level == 0 {
		return column
	}

	return column + towerSep + strconv.Itoa(level)
}

// Compute lays out shape. prev holds the positions of the previous scene; it
// is used to preserve the placement of graph vertices and to report movement.
// A nil shape or an empty structure yields an empty scene.
func Compute(shape viz.Shape, prev map[string]viz.Position, opts Options) viz.Scene {
	b := &builder{opts: opts}

	switch sh := shape.(type) {
	case viz.BinaryTree:
		b.binary(sh.Root, 0, opts.CanvasWidth/2)
	case *viz.BinaryTree:
		if sh != nil {
			b.binary(sh.Root, 0, opts.CanvasWidth/2)
		}
	case viz.Forest:
		b.forest(sh)
	case viz.Array:
		b.array(sh)
	case viz.Chain:
		b.chain(sh)
	case viz.Grid:
		b.grid(sh)
	case viz.Buckets:
		b.buckets(sh)
	case viz.Network:
		b.network(sh, prev)
	}

	scene := viz.Scene{Nodes: b.nodes, Edges: b.edges}
	if scene.Nodes == nil {
		scene.Nodes = []viz.VisualNode{}
	}

	if scene.Edges == nil {
		scene.Edges = []viz.VisualEdge{}
	}

	scene.Moved = moved(scene.Nodes, prev)

	return scene
}

func moved(nodes []viz.VisualNode, prev map[string]viz.Position) []string {
	var out []string

	for _, n := range nodes {
		if p, ok := prev[n.ID]; ok && p.Dist(n.Pos) > movedEpsilon {
			out = append(out, n.ID)
		}
	}

	slices.Sort(out)

	return out
}

// binary places n at depth with horizontal center x. Children sit at
// x ± width/2^(depth+2), one level height below.
func (b *builder) binary(n *viz.BinaryNode, depth int, x float64) {
	if n == nil {
		return
	}

	y := b.opts.Margin + float64(depth)*b.opts.LevelHeight
	b.node(n.Item, viz.Position{X: x, Y: y}, b.opts.NodeWidth)

	offset := b.opts.CanvasWidth / math.Pow(2, float64(depth+2))

	if n.Left != nil {
		b.edge(n.ID, n.Left.ID, "")
		b.binary(n.Left, depth+1, x-offset)
	}

	if n.Right != nil {
		b.edge(n.ID, n.Right.ID, "")
		b.binary(n.Right, depth+1, x+offset)
	}
}

func (b *builder) nodeWidth(n *viz.TreeNode) float64 {
	return float64(max(n.Span, 1)) * b.opts.CellWidth
}

// subtreeWidth is the horizontal extent reserved for n and its descendants.
func (b *builder) subtreeWidth(n *viz.TreeNode) float64 {
	own := b.nodeWidth(n)
	if len(n.Children) == 0 {
		return own
	}

	total := 0.0
	for _, c := range n.Children {
		total += b.subtreeWidth(c)
	}

	total += b.gap() * float64(len(n.Children)-1)

	return math.Max(own, total)
}

func (b *builder) gap() float64 {
	return b.opts.CellWidth / 2
}

// forest lays out each tree left to right, parents centered over their children.
func (b *builder) forest(f viz.Forest) {
	left := b.opts.Margin

	for _, root := range f.Roots {
		if root == nil {
			continue
		}

		w := b.subtreeWidth(root)
		b.tree(root, 0, left, w)
		left += w + b.opts.CellWidth
	}
}

func (b *builder) tree(n *viz.TreeNode, depth int, left, width float64) {
	y := b.opts.Margin + float64(depth)*b.opts.LevelHeight
	b.node(n.Item, viz.Position{X: left + width/2, Y: y}, b.nodeWidth(n))

	if len(n.Children) == 0 {
		return
	}

	total := -b.gap()
	for _, c := range n.Children {
		total += b.subtreeWidth(c) + b.gap()
	}

	cursor := left + (width-total)/2

	for i, c := range n.Children {
		label := ""
		if i < len(n.EdgeLabels) {
			label = n.EdgeLabels[i]
		}

		b.edge(n.ID, c.ID, label)

		cw := b.subtreeWidth(c)
		b.tree(c, depth+1, cursor, cw)
		cursor += cw + b.gap()
	}
}

func (b *builder) cellX(i int) float64 {
	return b.opts.Margin + float64(i)*b.opts.CellWidth + b.opts.CellWidth/2
}

func (b *builder) array(a viz.Array) {
	for i, c := range a.Cells {
		b.node(c, viz.Position{X: b.cellX(i), Y: b.opts.Margin}, b.opts.CellWidth)
	}

	for _, l := range a.Links {
		b.edge(l.From, l.To, l.Label)
	}
}

func (b *builder) chain(c viz.Chain) {
	for i, it := range c.Items {
		pos := viz.Position{X: b.cellX(2 * i), Y: b.opts.Margin}
		if c.Vertical {
			pos = viz.Position{X: b.cellX(0), Y: b.opts.Margin + float64(i)*b.opts.RowHeight}
		}

		b.node(it, pos, b.opts.CellWidth)
	}

	for i := 1; i < len(c.Items); i++ {
		b.edge(c.Items[i-1].ID, c.Items[i].ID, "")

		if c.Doubly {
			b.edge(c.Items[i].ID, c.Items[i-1].ID, "")
		}
	}
}

func (b *builder) grid(g viz.Grid) {
	levels := g.Levels
	for _, col := range g.Columns {
		levels = max(levels, col.Height)
	}

	for c, col := range g.Columns {
		for lvl := range max(col.Height, 1) {
			it := col.Item
			it.ID = TowerID(col.ID, lvl)
			y := b.opts.Margin + float64(levels-1-lvl)*b.opts.RowHeight
			b.node(it, viz.Position{X: b.cellX(c), Y: y}, b.opts.CellWidth)
			b.nodes[len(b.nodes)-1].Group = col.ID
		}
	}

	for lvl := range levels {
		last := ""

		for _, col := range g.Columns {
			if lvl >= max(col.Height, 1) {
				continue
			}

			id := TowerID(col.ID, lvl)
			if last != "" {
				b.edge(last, id, "")
			}

			last = id
		}
	}
}

func (b *builder) buckets(bs viz.Buckets) {
	for i, bucket := range bs.Slots {
		y := b.opts.Margin + float64(i)*b.opts.RowHeight
		b.node(bucket.Slot, viz.Position{X: b.cellX(0), Y: y}, b.opts.CellWidth)

		prev := bucket.Slot.ID

		for j, it := range bucket.Chain {
			b.node(it, viz.Position{X: b.cellX(2 * (j + 1)), Y: y}, b.opts.CellWidth)
			b.edge(prev, it.ID, "")
			prev = it.ID
		}
	}
}

// network places vertices on a ring, keeping any vertex that already has a
// previous position where it was.
func (b *builder) network(n viz.Network, prev map[string]viz.Position) {
	count := len(n.Vertices)
	radius := b.opts.CanvasWidth * ringFraction / 2
	center := viz.Position{X: b.opts.CanvasWidth / 2, Y: b.opts.Margin + radius}

	for i, v := range n.Vertices {
		pos, ok := prev[v.ID]
		if !ok {
			angle := 2*math.Pi*float64(i)/float64(count) - math.Pi/2
			pos = viz.Position{
				X: center.X + radius*math.Cos(angle),
				Y: center.Y + radius*math.Sin(angle),
			}
		}

		b.node(v, pos, b.opts.NodeWidth)
	}

	for _, e := range n.Edges {
		b.edge(e.From, e.To, e.Label)
	}
}
