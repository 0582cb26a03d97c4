// Package graph implements a directed or undirected graph of named vertices
// with traced breadth-first and depth-first traversal and Kahn topological
// sorting.
package graph

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// Kind is the structure name reported to sessions.
const Kind = "graph"

var (
	// ErrCycle is returned by TopoSort when the graph is not acyclic.
	ErrCycle = fmt.Errorf("%w: graph: cycle detected", viz.ErrValidation)

	// ErrUndirected is returned by TopoSort on an undirected graph.
	ErrUndirected = fmt.Errorf("%w: graph: topological order needs a directed graph", viz.ErrValidation)

	errBadCopy   = errors.New("graph: checkpoint of a different type")
	errAsymmetry = errors.New("graph: undirected edge stored one way")
	errInDegree  = errors.New("graph: in-degree out of sync")
)

// Graph is a graph of string-named vertices. Neighbors are explored in the
// order their edges were added.
type Graph struct {
	directed bool
	symbols  *symbolTable
	adj      adjacency
	vids     []string // Node id per slot.
	ids      *viz.IDs
}

// New creates an empty graph.
func New(directed bool) *Graph {
	return &Graph{directed: directed, symbols: newSymbolTable(), ids: viz.NewIDs(Kind)}
}

// Kind implements viz.Structure.
func (g *Graph) Kind() string { return Kind }

// Directed reports whether edges have a direction.
func (g *Graph) Directed() bool { return g.directed }

// Len returns the number of vertices.
func (g *Graph) Len() int { return len(g.adj.live()) }

// ID returns the node id of a vertex.
func (g *Graph) ID(name string) (string, bool) {
	u, ok := g.symbols.lookup(name)
	if !ok {
		return "", false
	}

	return g.vids[u], true
}

// Vertices returns the vertex names in creation order.
func (g *Graph) Vertices() []string {
	live := g.adj.live()
	out := make([]string, len(live))

	for i, u := range live {
		out[i] = g.symbols.resolve(u)
	}

	return out
}

// Neighbors returns the vertices adjacent to name in edge order.
func (g *Graph) Neighbors(name string) ([]string, error) {
	u, ok := g.symbols.lookup(name)
	if !ok {
		return nil, viz.Fail("neighbors", name, viz.ErrNotFound)
	}

	return g.names(g.adj.nodes[u]), nil
}

// Edges returns every edge as a from/to pair. Undirected edges appear once,
// from the older vertex to the newer one.
func (g *Graph) Edges() [][2]string {
	var out [][2]string

	for _, u := range g.adj.live() {
		for _, v := range g.adj.nodes[u] {
			if g.directed || u < v {
				out = append(out, [2]string{g.symbols.resolve(u), g.symbols.resolve(v)})
			}
		}
	}

	return out
}

func (g *Graph) names(slots []int) []string {
	out := make([]string, len(slots))
	for i, u := range slots {
		out[i] = g.symbols.resolve(u)
	}

	return out
}

func (g *Graph) nodeIDs(slots []int) []string {
	out := make([]string, len(slots))
	for i, u := range slots {
		out[i] = g.vids[u]
	}

	return out
}

func validName(op, name string) error {
	if strings.TrimSpace(name) == "" {
		return viz.Fail(op, name, viz.ErrValidation)
	}

	return nil
}

// AddVertex adds a vertex named name.
func (g *Graph) AddVertex(name string) (viz.Trace, error) {
	rec := viz.NewRecorder("add vertex")

	err := validName("add vertex", name)
	if err != nil {
		return rec.Trace(), err
	}

	if u, ok := g.symbols.lookup(name); ok {
		rec.Found(fmt.Sprintf("vertex %s already exists", name), g.vids[u])

		return rec.Trace(), viz.Fail("add vertex", name, viz.ErrDuplicate)
	}

	u := g.adj.addNode()
	if got := g.symbols.intern(name); got != u {
		panic("graph: symbol table and adjacency out of step")
	}

	g.vids = append(g.vids, g.ids.Next())
	rec.Restructure(g.Shape(), viz.StateInserted, "add vertex "+name, g.vids[u])

	return rec.Trace(), nil
}

// RemoveVertex deletes a vertex and every edge touching it.
func (g *Graph) RemoveVertex(name string) (viz.Trace, error) {
	rec := viz.NewRecorder("remove vertex")

	u, ok := g.symbols.lookup(name)
	if !ok {
		return rec.Trace(), viz.Fail("remove vertex", name, viz.ErrNotFound)
	}

	touched := []int{u}

	for _, w := range g.adj.live() {
		if w != u && (g.adj.hasArc(w, u) || g.adj.hasArc(u, w)) {
			touched = append(touched, w)
		}
	}

	rec.Mark(viz.StateDeleting, viz.PaceChange, fmt.Sprintf("remove %s and %d incident edges", name, g.degree(u)), g.nodeIDs(touched)...)

	g.adj.removeNode(u)
	g.symbols.forget(name)

	rec.Restructure(g.Shape(), viz.StatePath, "removed "+name, g.nodeIDs(touched[1:])...)

	return rec.Trace(), nil
}

func (g *Graph) degree(u int) int {
	if !g.directed {
		return len(g.adj.nodes[u])
	}

	return len(g.adj.nodes[u]) + g.adj.inDegree[u]
}

func (g *Graph) endpoints(op, from, to string) (int, int, error) {
	u, ok := g.symbols.lookup(from)
	if !ok {
		return 0, 0, viz.Fail(op, from, viz.ErrNotFound)
	}

	v, ok := g.symbols.lookup(to)
	if !ok {
		return 0, 0, viz.Fail(op, to, viz.ErrNotFound)
	}

	if u == v {
		return 0, 0, viz.Fail(op, from, fmt.Errorf("%w: self loop", viz.ErrValidation))
	}

	return u, v, nil
}

func (g *Graph) arrow() string {
	if g.directed {
		return " -> "
	}

	return " -- "
}

// AddEdge connects from and to. Both vertices must exist.
func (g *Graph) AddEdge(from, to string) (viz.Trace, error) {
	rec := viz.NewRecorder("add edge")

	u, v, err := g.endpoints("add edge", from, to)
	if err != nil {
		return rec.Trace(), err
	}

	edge := from + g.arrow() + to
	if g.adj.hasArc(u, v) {
		rec.Found("edge "+edge+" already exists", g.vids[u], g.vids[v])

		return rec.Trace(), viz.Fail("add edge", edge, viz.ErrDuplicate)
	}

	g.adj.addArc(u, v)

	if !g.directed {
		g.adj.addArc(v, u)
	}

	rec.Restructure(g.Shape(), viz.StateInserted, "add edge "+edge, g.vids[u], g.vids[v])

	return rec.Trace(), nil
}

// RemoveEdge disconnects from and to.
func (g *Graph) RemoveEdge(from, to string) (viz.Trace, error) {
	rec := viz.NewRecorder("remove edge")

	u, v, err := g.endpoints("remove edge", from, to)
	if err != nil {
		return rec.Trace(), err
	}

	edge := from + g.arrow() + to
	if !g.adj.hasArc(u, v) {
		rec.NotFound("no edge "+edge, g.vids[u], g.vids[v])

		return rec.Trace(), viz.Fail("remove edge", edge, viz.ErrNotFound)
	}

	rec.Mark(viz.StateDeleting, viz.PaceChange, "remove edge "+edge, g.vids[u], g.vids[v])
	g.adj.removeArc(u, v)

	if !g.directed {
		g.adj.removeArc(v, u)
	}

	rec.Restructure(g.Shape(), viz.StateDefault, "removed edge "+edge)

	return rec.Trace(), nil
}

// BFS visits every vertex reachable from start in breadth-first order.
func (g *Graph) BFS(start string) ([]string, viz.Trace, error) {
	rec := viz.NewRecorder("bfs")

	s, ok := g.symbols.lookup(start)
	if !ok {
		return nil, rec.Trace(), viz.Fail("bfs", start, viz.ErrNotFound)
	}

	seen := map[int]bool{s: true}
	queue := []int{s}

	var order []int

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		order = append(order, u)
		rec.Visit("dequeue "+g.symbols.resolve(u), g.vids[u])

		for _, v := range g.adj.nodes[u] {
			if seen[v] {
				continue
			}

			seen[v] = true
			queue = append(queue, v)
			rec.Compare("discover "+g.symbols.resolve(v)+" from "+g.symbols.resolve(u), g.vids[u], g.vids[v])
		}
	}

	names := g.names(order)
	rec.Found("bfs order: "+strings.Join(names, ", "), g.nodeIDs(order)...)
	rec.SetResult(strings.Join(names, " "))

	return names, rec.Trace(), nil
}

// DFS visits every vertex reachable from start in depth-first preorder.
func (g *Graph) DFS(start string) ([]string, viz.Trace, error) {
	rec := viz.NewRecorder("dfs")

	s, ok := g.symbols.lookup(start)
	if !ok {
		return nil, rec.Trace(), viz.Fail("dfs", start, viz.ErrNotFound)
	}

	seen := make(map[int]bool)

	var order []int

	var visit func(u int)
	visit = func(u int) {
		seen[u] = true
		order = append(order, u)
		rec.Visit("enter "+g.symbols.resolve(u), g.vids[u])

		for _, v := range g.adj.nodes[u] {
			if !seen[v] {
				visit(v)
			}
		}

		rec.Mark(viz.StatePath, viz.PaceVisit, "leave "+g.symbols.resolve(u), g.vids[u])
	}
	visit(s)

	names := g.names(order)
	rec.Found("dfs order: "+strings.Join(names, ", "), g.nodeIDs(order)...)
	rec.SetResult(strings.Join(names, " "))

	return names, rec.Trace(), nil
}

// TopoSort returns the vertices in topological order using Kahn's algorithm.
// Among ready vertices the oldest goes first. A cycle yields ErrCycle, and the
// trace ends on the vertices of one cycle.
func (g *Graph) TopoSort() ([]string, viz.Trace, error) {
	rec := viz.NewRecorder("toposort")

	if !g.directed {
		return nil, rec.Trace(), viz.Fail("toposort", nil, ErrUndirected)
	}

	order, ok := g.adj.kahn(
		func(u int) {
			rec.Mark(viz.StateFound, viz.PaceVisit, "emit "+g.symbols.resolve(u), g.vids[u])
		},
		func(u, v, left int) {
			rec.Compare(fmt.Sprintf("%s -> %s: in-degree of %s now %d",
				g.symbols.resolve(u), g.symbols.resolve(v), g.symbols.resolve(v), left), g.vids[u], g.vids[v])
		},
	)

	if !ok {
		cycle := g.cycleOutside(order)
		rec.NotFound("cycle: "+strings.Join(g.names(cycle), " -> "), g.nodeIDs(cycle)...)

		return nil, rec.Trace(), viz.Fail("toposort", strings.Join(g.names(cycle), " -> "), ErrCycle)
	}

	names := g.names(order)
	rec.SetFound(true)
	rec.SetResult(strings.Join(names, " "))

	return names, rec.Trace(), nil
}

// cycleOutside finds a cycle among the vertices Kahn could not emit. Every
// such vertex either lies on a cycle or is downstream of one.
func (g *Graph) cycleOutside(emitted []int) []int {
	for _, u := range g.adj.live() {
		if slices.Contains(emitted, u) {
			continue
		}

		if cycle := g.adj.findCycle(u); cycle != nil {
			return cycle
		}
	}

	return nil
}

// Shape implements viz.Structure.
func (g *Graph) Shape() viz.Shape {
	live := g.adj.live()
	net := viz.Network{Directed: g.directed, Vertices: make([]viz.Item, len(live))}

	for i, u := range live {
		net.Vertices[i] = viz.Item{ID: g.vids[u], Label: g.symbols.resolve(u)}

		for _, v := range g.adj.nodes[u] {
			if g.directed || u < v {
				net.Edges = append(net.Edges, viz.Link{From: g.vids[u], To: g.vids[v]})
			}
		}
	}

	return net
}

// Valid checks in-degrees, dangling arcs, and symmetry of undirected edges.
func (g *Graph) Valid() error {
	in := make([]int, len(g.adj.nodes))

	for u, arcs := range g.adj.nodes {
		if !g.adj.alive[u] && len(arcs) > 0 {
			return fmt.Errorf("graph: removed vertex %q keeps edges", g.symbols.resolve(u))
		}

		for _, v := range arcs {
			if !g.adj.alive[v] {
				return fmt.Errorf("graph: edge to removed vertex %q", g.symbols.resolve(v))
			}

			in[v]++

			if !g.directed && !g.adj.hasArc(v, u) {
				return fmt.Errorf("%w: %s -> %s", errAsymmetry, g.symbols.resolve(u), g.symbols.resolve(v))
			}
		}
	}

	if !slices.Equal(in, g.adj.inDegree) {
		return errInDegree
	}

	return nil
}

type checkpoint struct {
	symbols *symbolTable
	adj     adjacency
	vids    []string
}

// Checkpoint implements viz.Restorer.
func (g *Graph) Checkpoint() any {
	return checkpoint{symbols: g.symbols.clone(), adj: g.adj.clone(), vids: slices.Clone(g.vids)}
}

// Restore implements viz.Restorer.
func (g *Graph) Restore(cp any) error {
	c, ok := cp.(checkpoint)
	if !ok {
		return errBadCopy
	}

	g.symbols, g.adj, g.vids = c.symbols.clone(), c.adj.clone(), slices.Clone(c.vids)

	return nil
}
