package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/dsviz/pkg/alg/graph"
	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

func build(t *testing.T, directed bool, vertices []string, edges [][2]string) *graph.Graph {
	t.Helper()

	g := graph.New(directed)
	for _, v := range vertices {
		_, err := g.AddVertex(v)
		require.NoError(t, err)
	}

	for _, e := range edges {
		_, err := g.AddEdge(e[0], e[1])
		require.NoError(t, err)
	}

	require.NoError(t, g.Valid())

	return g
}

func TestTopoSort_DAG(t *testing.T) {
	t.Parallel()

	g := build(t, true,
		[]string{"shirt", "tie", "jacket", "belt", "pants", "shoes"},
		[][2]string{
			{"shirt", "tie"}, {"tie", "jacket"}, {"shirt", "belt"},
			{"belt", "jacket"}, {"pants", "belt"}, {"pants", "shoes"},
		})

	order, tr, err := g.TopoSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"shirt", "tie", "pants", "belt", "jacket", "shoes"}, order)
	assert.True(t, tr.Found)
	assert.Equal(t, "shirt tie pants belt jacket shoes", tr.Result)
	assert.Len(t, tr.StepsIn(viz.StateFound), 6)
}

func TestTopoSort_Cycle(t *testing.T) {
	t.Parallel()

	g := build(t, true,
		[]string{"a", "b", "c", "d"},
		[][2]string{{"d", "a"}, {"a", "b"}, {"b", "c"}, {"c", "a"}})

	_, tr, err := g.TopoSort()
	require.ErrorIs(t, err, graph.ErrCycle)
	require.ErrorIs(t, err, viz.ErrValidation)
	assert.Contains(t, err.Error(), "a -> b -> c -> a")

	last := tr.Steps[len(tr.Steps)-1]
	assert.Equal(t, viz.StateNotFound, last.State)
	assert.Len(t, last.Targets, 4)
}

func TestTopoSort_Undirected(t *testing.T) {
	t.Parallel()

	g := build(t, false, []string{"a", "b"}, [][2]string{{"a", "b"}})

	_, _, err := g.TopoSort()
	require.ErrorIs(t, err, graph.ErrUndirected)
}

func TestTraversals(t *testing.T) {
	t.Parallel()

	g := build(t, false,
		[]string{"1", "2", "3", "4", "5"},
		[][2]string{{"1", "2"}, {"1", "3"}, {"2", "4"}, {"3", "4"}, {"4", "5"}})

	bfs, tr, err := g.BFS("1")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, bfs)
	assert.Len(t, tr.StepsIn(viz.StateVisiting), 5)
	assert.Len(t, tr.StepsIn(viz.StateComparing), 4)

	dfs, tr, err := g.DFS("1")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "4", "3", "5"}, dfs)
	assert.Len(t, tr.StepsIn(viz.StatePath), 5)
	assert.Equal(t, "1 2 4 3 5", tr.Result)

	bfs, _, err = g.BFS("5")
	require.NoError(t, err)
	assert.Equal(t, []string{"5", "4", "2", "3", "1"}, bfs)
}

func TestTraversals_DirectedReachability(t *testing.T) {
	t.Parallel()

	g := build(t, true, []string{"a", "b", "c"}, [][2]string{{"b", "a"}, {"b", "c"}})

	got, _, err := g.BFS("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)

	got, _, err = g.DFS("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, got)
}

func TestUndirectedEdgesAreSymmetric(t *testing.T) {
	t.Parallel()

	g := build(t, false, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"c", "a"}})

	nb, err := g.Neighbors("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, nb)

	_, err = g.AddEdge("b", "a")
	require.ErrorIs(t, err, viz.ErrDuplicate)

	_, err = g.RemoveEdge("b", "a")
	require.NoError(t, err)

	nb, err = g.Neighbors("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, nb)
	assert.Equal(t, [][2]string{{"a", "c"}}, g.Edges())
	require.NoError(t, g.Valid())

	net, ok := g.Shape().(viz.Network)
	require.True(t, ok)
	assert.False(t, net.Directed)
	assert.Len(t, net.Edges, 1)
}

func TestRemoveVertex(t *testing.T) {
	t.Parallel()

	g := build(t, true,
		[]string{"a", "b", "c"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}})

	idA, ok := g.ID("a")
	require.True(t, ok)

	tr, err := g.RemoveVertex("b")
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Restructures())
	assert.Equal(t, []string{"a", "c"}, g.Vertices())
	assert.Equal(t, [][2]string{{"c", "a"}}, g.Edges())
	require.NoError(t, g.Valid())

	order, _, err := g.TopoSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, order)

	_, err = g.AddVertex("b")
	require.NoError(t, err)

	idB, ok := g.ID("b")
	require.True(t, ok)
	assert.NotEqual(t, idA, idB)

	again, ok := g.ID("a")
	require.True(t, ok)
	assert.Equal(t, idA, again, "ids survive unrelated removals")
}

func TestRejectionsLeaveGraphUnchanged(t *testing.T) {
	t.Parallel()

	g := build(t, true, []string{"a", "b"}, [][2]string{{"a", "b"}})
	before := g.Shape()

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"duplicate vertex", func() error { _, err := g.AddVertex("a"); return err }, viz.ErrDuplicate},
		{"blank vertex", func() error { _, err := g.AddVertex(" "); return err }, viz.ErrValidation},
		{"duplicate edge", func() error { _, err := g.AddEdge("a", "b"); return err }, viz.ErrDuplicate},
		{"unknown endpoint", func() error { _, err := g.AddEdge("a", "z"); return err }, viz.ErrNotFound},
		{"self loop", func() error { _, err := g.AddEdge("a", "a"); return err }, viz.ErrValidation},
		{"missing edge", func() error { _, err := g.RemoveEdge("b", "a"); return err }, viz.ErrNotFound},
		{"missing vertex", func() error { _, err := g.RemoveVertex("z"); return err }, viz.ErrNotFound},
		{"bfs from nowhere", func() error { _, _, err := g.BFS("z"); return err }, viz.ErrNotFound},
		{"dfs from nowhere", func() error { _, _, err := g.DFS("z"); return err }, viz.ErrNotFound},
	}

	for _, tt := range tests {
		require.ErrorIs(t, tt.run(), tt.want, tt.name)
		assert.Equal(t, before, g.Shape(), tt.name)
	}
}

func TestCheckpointRestore(t *testing.T) {
	t.Parallel()

	g := build(t, true, []string{"a", "b", "c"}, [][2]string{{"a", "b"}})
	cp := g.Checkpoint()
	before := g.Shape()

	_, err := g.AddEdge("b", "c")
	require.NoError(t, err)
	_, err = g.RemoveVertex("a")
	require.NoError(t, err)

	require.NoError(t, g.Restore(cp))
	assert.Equal(t, before, g.Shape())
	require.NoError(t, g.Valid())

	_, err = g.AddEdge("b", "c")
	require.NoError(t, err, "restored state is independent of the checkpoint")
	require.NoError(t, g.Restore(cp))
	assert.Equal(t, before, g.Shape())

	require.Error(t, g.Restore(42))
}
