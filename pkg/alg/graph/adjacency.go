package graph

import (
	"slices"
	"sort"
)

// adjacency is a directed graph over dense integer slots. An undirected edge
// is stored as two arcs.
type adjacency struct {
	// nodes[u] lists v for arcs u -> v in insertion order.
	nodes [][]int
	// inDegree counts incoming arcs per slot.
	inDegree []int
	alive    []bool
}

func (g *adjacency) addNode() int {
	g.nodes = append(g.nodes, nil)
	g.inDegree = append(g.inDegree, 0)
	g.alive = append(g.alive, true)

	return len(g.nodes) - 1
}

func (g *adjacency) hasArc(u, v int) bool {
	return slices.Contains(g.nodes[u], v)
}

// addArc adds u -> v. Returns false if it already existed.
func (g *adjacency) addArc(u, v int) bool {
	if g.hasArc(u, v) {
		return false
	}

	g.nodes[u] = append(g.nodes[u], v)
	g.inDegree[v]++

	return true
}

// removeArc removes u -> v. Returns false if it did not exist.
func (g *adjacency) removeArc(u, v int) bool {
	i := slices.Index(g.nodes[u], v)
	if i < 0 {
		return false
	}

	g.nodes[u] = slices.Delete(g.nodes[u], i, i+1)
	g.inDegree[v]--

	return true
}

// removeNode drops u and every arc touching it.
func (g *adjacency) removeNode(u int) {
	for _, v := range g.nodes[u] {
		g.inDegree[v]--
	}

	g.nodes[u] = nil

	for w := range g.nodes {
		g.removeArc(w, u)
	}

	g.alive[u] = false
}

func (g *adjacency) live() []int {
	var out []int

	for u, ok := range g.alive {
		if ok {
			out = append(out, u)
		}
	}

	return out
}

// kahn runs Kahn's algorithm with the ready set kept sorted by slot, so the
// order is deterministic. emit and relax observe the progress. It returns the
// order and whether every live slot was emitted.
func (g *adjacency) kahn(emit func(u int), relax func(u, v, left int)) ([]int, bool) {
	inDegree := slices.Clone(g.inDegree)
	live := g.live()

	var queue []int

	for _, u := range live {
		if inDegree[u] == 0 {
			queue = append(queue, u)
		}
	}

	result := make([]int, 0, len(live))

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		result = append(result, u)
		emit(u)

		for _, v := range g.nodes[u] {
			inDegree[v]--
			relax(u, v, inDegree[v])

			if inDegree[v] == 0 {
				insertSorted(&queue, v)
			}
		}
	}

	return result, len(result) == len(live)
}

// findCycle returns a cycle through start as start -> ... -> start, or nil.
func (g *adjacency) findCycle(start int) []int {
	parent := map[int]int{start: -1}
	q := []int{start}

	for len(q) > 0 {
		u := q[0]
		q = q[1:]

		for _, v := range g.nodes[u] {
			if v == start {
				cycle := []int{start}
				for cur := u; cur != start && cur != -1; cur = parent[cur] {
					cycle = append(cycle, cur)
				}

				cycle = append(cycle, start)
				slices.Reverse(cycle)

				return cycle
			}

			if _, seen := parent[v]; !seen {
				parent[v] = u
				q = append(q, v)
			}
		}
	}

	return nil
}

func (g *adjacency) clone() adjacency {
	c := adjacency{
		nodes:    make([][]int, len(g.nodes)),
		inDegree: slices.Clone(g.inDegree),
		alive:    slices.Clone(g.alive),
	}

	for i, n := range g.nodes {
		c.nodes[i] = slices.Clone(n)
	}

	return c
}

// insertSorted inserts v into the sorted slice s.
func insertSorted(s *[]int, v int) {
	i := sort.SearchInts(*s, v)
	*s = slices.Insert(*s, i, v)
}
