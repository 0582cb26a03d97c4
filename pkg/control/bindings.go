package control

import (
	"context"
	"fmt"

	"github.com/Sumatoshi-tech/dsviz/pkg/alg/avl"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/bloom"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/bst"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/btree"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/dsu"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/fenwick"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/graph"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/hashtable"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/heap"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/linear"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/rbtree"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/segtree"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/skiplist"
	"github.com/Sumatoshi-tech/dsviz/pkg/alg/trie"
	"github.com/Sumatoshi-tech/dsviz/pkg/session"
	"github.com/Sumatoshi-tech/dsviz/pkg/surface"
	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// OrderedSet is a structure with the search-tree operation triple.
type OrderedSet[T any] interface {
	Insert(v T) (viz.Trace, error)
	Search(v T) (viz.Trace, error)
	Delete(v T) (viz.Trace, error)
}

var (
	oneInt   = []Arg{{Name: "value", Kind: Int}}
	index    = []Arg{{Name: "index", Kind: Int}}
	indexVal = []Arg{{Name: "index", Kind: Int}, {Name: "value", Kind: Int}}
	pairInt  = []Arg{{Name: "a", Kind: Int}, {Name: "b", Kind: Int}}
	span     = []Arg{{Name: "left", Kind: Int}, {Name: "right", Kind: Int}}
	list     = []Arg{{Name: "values", Kind: IntList}}
	word     = []Arg{{Name: "word", Kind: Text}}
	vertex   = []Arg{{Name: "vertex", Kind: Text}}
	edge     = []Arg{{Name: "from", Kind: Text}, {Name: "to", Kind: Text}}
	keyVal   = []Arg{{Name: "key", Kind: Int}, {Name: "value", Kind: Text}}
)

// drop discards the value of a value-returning operation.
func drop[T any](_ T, tr viz.Trace, err error) (viz.Trace, error) { return tr, err }

func bindAll(p *Panel, cs ...Control) error {
	for _, c := range cs {
		if err := p.Bind(c); err != nil {
			return err
		}
	}

	return nil
}

// BindSet binds insert, search and delete of an integer set.
func BindSet(p *Panel, set OrderedSet[int]) error {
	return bindAll(p,
		Control{Name: "insert", Args: oneInt, Mutating: true, Handler: func(a Args) (viz.Trace, error) { return set.Insert(a.Int(0)) }},
		Control{Name: "search", Args: oneInt, Handler: func(a Args) (viz.Trace, error) { return set.Search(a.Int(0)) }},
		Control{Name: "delete", Args: oneInt, Mutating: true, Handler: func(a Args) (viz.Trace, error) { return set.Delete(a.Int(0)) }},
	)
}

// BindAll binds every operation of a structure returned by Build.
func BindAll(p *Panel, st viz.Structure) error {
	switch s := st.(type) {
	case *bst.Tree[int]:
		return BindSet(p, s)
	case *avl.Tree[int]:
		return BindSet(p, s)
	case *rbtree.Tree[int]:
		return BindSet(p, s)
	case *skiplist.List[int]:
		return BindSet(p, s)
	case *btree.Tree[int]:
		return bindBTree(p, s)
	case *fenwick.Tree:
		return bindFenwick(p, s)
	case *segtree.Tree:
		return bindSegTree(p, s)
	case *dsu.Forest[int]:
		return bindDSU(p, s)
	case *trie.Trie:
		return bindTrie(p, s)
	case *bloom.Filter[string]:
		return bindBloom(p, s)
	case *hashtable.Table[int, string]:
		return bindHashTable(p, s)
	case *heap.Heap[int]:
		return bindHeap(p, s)
	case *graph.Graph:
		return bindGraph(p, s)
	case *linear.Stack[int]:
		return bindStack(p, s)
	case *linear.Queue[int]:
		return bindQueue(p, s)
	case *linear.Deque[int]:
		return bindDeque(p, s)
	case *linear.LinkedList[int]:
		return bindList(p, s)
	case *linear.RingBuffer[int]:
		return bindRing(p, s)
	default:
		return fmt.Errorf("%w: no controls for %T", viz.ErrValidation, st)
	}
}

// Open builds a structure, starts a session over it and binds its controls.
func Open(ctx context.Context, kind string, params Params, out surface.Surface, opts ...session.Option) (*Panel, error) {
	st, err := Build(kind, params)
	if err != nil {
		return nil, err
	}

	s, err := session.New(ctx, st, out, opts...)
	if err != nil {
		return nil, err
	}

	p := NewPanel(s)

	err = BindAll(p, st)
	if err != nil {
		return nil, err
	}

	return p, nil
}

func bindBTree(p *Panel, t *btree.Tree[int]) error {
	err := BindSet(p, t)
	if err != nil {
		return err
	}

	return p.Bind(Control{
		Name: "order", Label: "Set order", Args: []Arg{{Name: "order", Kind: Int}}, Mutating: true,
		Handler: func(a Args) (viz.Trace, error) { return t.SetOrder(a.Int(0)) },
	})
}

func bindFenwick(p *Panel, t *fenwick.Tree) error {
	return bindAll(p,
		Control{Name: "build", Args: list, Mutating: true, Handler: func(a Args) (viz.Trace, error) { return t.Build(a.List()) }},
		Control{Name: "update", Label: "Add delta", Args: indexVal, Mutating: true, Handler: func(a Args) (viz.Trace, error) {
			return t.Update(a.Int(0), a.Int(1))
		}},
		Control{Name: "set", Args: indexVal, Mutating: true, Handler: func(a Args) (viz.Trace, error) { return t.Set(a.Int(0), a.Int(1)) }},
		Control{Name: "prefix", Label: "Prefix sum", Args: index, Handler: func(a Args) (viz.Trace, error) {
			return drop(t.PrefixSum(a.Int(0)))
		}},
		Control{Name: "range", Label: "Range sum", Args: span, Handler: func(a Args) (viz.Trace, error) {
			return drop(t.RangeSum(a.Int(0), a.Int(1)))
		}},
	)
}

func bindSegTree(p *Panel, t *segtree.Tree) error {
	return bindAll(p,
		Control{Name: "build", Args: list, Mutating: true, Handler: func(a Args) (viz.Trace, error) { return t.Build(a.List()) }},
		Control{Name: "query", Args: span, Handler: func(a Args) (viz.Trace, error) { return drop(t.Query(a.Int(0), a.Int(1))) }},
		Control{Name: "update", Args: indexVal, Mutating: true, Handler: func(a Args) (viz.Trace, error) {
			return t.Update(a.Int(0), a.Int(1))
		}},
		Control{Name: "op", Label: "Set operation", Args: []Arg{{Name: "op", Kind: Text}}, Mutating: true, Handler: func(a Args) (viz.Trace, error) {
			op, err := segtree.ParseOp(a.Text(0))
			if err != nil {
				return viz.Trace{Op: "op"}, err
			}

			return t.SetOp(op)
		}},
	)
}

func bindDSU(p *Panel, f *dsu.Forest[int]) error {
	// Find and Connected compress paths, so all four can be undone.
	return bindAll(p,
		Control{Name: "makeset", Label: "Make set", Args: oneInt, Mutating: true, Handler: func(a Args) (viz.Trace, error) {
			return f.MakeSet(a.Int(0))
		}},
		Control{Name: "find", Args: oneInt, Mutating: true, Handler: func(a Args) (viz.Trace, error) { return drop(f.Find(a.Int(0))) }},
		Control{Name: "union", Args: pairInt, Mutating: true, Handler: func(a Args) (viz.Trace, error) {
			return f.Union(a.Int(0), a.Int(1))
		}},
		Control{Name: "connected", Args: pairInt, Mutating: true, Handler: func(a Args) (viz.Trace, error) {
			return drop(f.Connected(a.Int(0), a.Int(1)))
		}},
	)
}

func bindTrie(p *Panel, t *trie.Trie) error {
	return bindAll(p,
		Control{Name: "insert", Args: word, Mutating: true, Handler: func(a Args) (viz.Trace, error) { return t.Insert(a.Text(0)) }},
		Control{Name: "search", Args: word, Handler: func(a Args) (viz.Trace, error) { return t.Search(a.Text(0)) }},
		Control{Name: "prefix", Label: "Starts with", Args: []Arg{{Name: "prefix", Kind: Text}}, Handler: func(a Args) (viz.Trace, error) {
			return t.StartsWith(a.Text(0))
		}},
		Control{Name: "delete", Args: word, Mutating: true, Handler: func(a Args) (viz.Trace, error) { return t.Delete(a.Text(0)) }},
		Control{Name: "deleteprefix", Label: "Delete prefix", Args: []Arg{{Name: "prefix", Kind: Text}}, Mutating: true,
			Handler: func(a Args) (viz.Trace, error) { return drop(t.DeletePrefix(a.Text(0))) }},
	)
}

func bindBloom(p *Panel, f *bloom.Filter[string]) error {
	key := []Arg{{Name: "key", Kind: Text}}

	return bindAll(p,
		Control{Name: "add", Args: key, Mutating: true, Handler: func(a Args) (viz.Trace, error) { return f.Add(a.Text(0)) }},
		Control{Name: "test", Args: key, Handler: func(a Args) (viz.Trace, error) { return f.Test(a.Text(0)) }},
		Control{Name: "reset", Mutating: true, Handler: func(Args) (viz.Trace, error) { return f.Reset() }},
	)
}

func bindHashTable(p *Panel, t *hashtable.Table[int, string]) error {
	key := []Arg{{Name: "key", Kind: Int}}

	return bindAll(p,
		Control{Name: "insert", Args: keyVal, Mutating: true, Handler: func(a Args) (viz.Trace, error) {
			return t.Insert(a.Int(0), a.Text(1))
		}},
		Control{Name: "put", Args: keyVal, Mutating: true, Handler: func(a Args) (viz.Trace, error) { return t.Put(a.Int(0), a.Text(1)) }},
		Control{Name: "get", Args: key, Handler: func(a Args) (viz.Trace, error) { return drop(t.Get(a.Int(0))) }},
		Control{Name: "search", Args: key, Handler: func(a Args) (viz.Trace, error) { return t.Search(a.Int(0)) }},
		Control{Name: "delete", Args: key, Mutating: true, Handler: func(a Args) (viz.Trace, error) { return t.Delete(a.Int(0)) }},
		Control{Name: "clear", Mutating: true, Handler: func(Args) (viz.Trace, error) { return t.Clear() }},
	)
}

func bindHeap(p *Panel, h *heap.Heap[int]) error {
	return bindAll(p,
		Control{Name: "push", Args: oneInt, Mutating: true, Handler: func(a Args) (viz.Trace, error) { return h.Push(a.Int(0)) }},
		Control{Name: "peek", Handler: func(Args) (viz.Trace, error) { return drop(h.Peek()) }},
		Control{Name: "pop", Mutating: true, Handler: func(Args) (viz.Trace, error) { return drop(h.Pop()) }},
		Control{Name: "search", Args: oneInt, Handler: func(a Args) (viz.Trace, error) { return h.Search(a.Int(0)) }},
		Control{Name: "delete", Args: oneInt, Mutating: true, Handler: func(a Args) (viz.Trace, error) { return h.Delete(a.Int(0)) }},
		Control{Name: "build", Args: list, Mutating: true, Handler: func(a Args) (viz.Trace, error) { return h.Build(a.List()) }},
	)
}

func bindGraph(p *Panel, g *graph.Graph) error {
	start := []Arg{{Name: "start", Kind: Text}}

	return bindAll(p,
		Control{Name: "addvertex", Label: "Add vertex", Args: vertex, Mutating: true, Handler: func(a Args) (viz.Trace, error) {
			return g.AddVertex(a.Text(0))
		}},
		Control{Name: "removevertex", Label: "Remove vertex", Args: vertex, Mutating: true, Handler: func(a Args) (viz.Trace, error) {
			return g.RemoveVertex(a.Text(0))
		}},
		Control{Name: "addedge", Label: "Add edge", Args: edge, Mutating: true, Handler: func(a Args) (viz.Trace, error) {
			return g.AddEdge(a.Text(0), a.Text(1))
		}},
		Control{Name: "removeedge", Label: "Remove edge", Args: edge, Mutating: true, Handler: func(a Args) (viz.Trace, error) {
			return g.RemoveEdge(a.Text(0), a.Text(1))
		}},
		Control{Name: "bfs", Label: "BFS", Args: start, Handler: func(a Args) (viz.Trace, error) { return drop(g.BFS(a.Text(0))) }},
		Control{Name: "dfs", Label: "DFS", Args: start, Handler: func(a Args) (viz.Trace, error) { return drop(g.DFS(a.Text(0))) }},
		Control{Name: "toposort", Label: "Topological sort", Handler: func(Args) (viz.Trace, error) { return drop(g.TopoSort()) }},
	)
}

func bindStack(p *Panel, s *linear.Stack[int]) error {
	return bindAll(p,
		Control{Name: "push", Args: oneInt, Mutating: true, Handler: func(a Args) (viz.Trace, error) { return s.Push(a.Int(0)) }},
		Control{Name: "pop", Mutating: true, Handler: func(Args) (viz.Trace, error) { return drop(s.Pop()) }},
		Control{Name: "peek", Handler: func(Args) (viz.Trace, error) { return drop(s.Peek()) }},
	)
}

func bindQueue(p *Panel, q *linear.Queue[int]) error {
	return bindAll(p,
		Control{Name: "enqueue", Args: oneInt, Mutating: true, Handler: func(a Args) (viz.Trace, error) { return q.Enqueue(a.Int(0)) }},
		Control{Name: "dequeue", Mutating: true, Handler: func(Args) (viz.Trace, error) { return drop(q.Dequeue()) }},
		Control{Name: "peek", Handler: func(Args) (viz.Trace, error) { return drop(q.Peek()) }},
	)
}

func bindDeque(p *Panel, d *linear.Deque[int]) error {
	return bindAll(p,
		Control{Name: "pushfront", Label: "Push front", Args: oneInt, Mutating: true, Handler: func(a Args) (viz.Trace, error) {
			return d.PushFront(a.Int(0))
		}},
		Control{Name: "pushback", Label: "Push back", Args: oneInt, Mutating: true, Handler: func(a Args) (viz.Trace, error) {
			return d.PushBack(a.Int(0))
		}},
		Control{Name: "popfront", Label: "Pop front", Mutating: true, Handler: func(Args) (viz.Trace, error) { return drop(d.PopFront()) }},
		Control{Name: "popback", Label: "Pop back", Mutating: true, Handler: func(Args) (viz.Trace, error) { return drop(d.PopBack()) }},
		Control{Name: "peekfront", Label: "Peek front", Handler: func(Args) (viz.Trace, error) { return drop(d.Peek(linear.Front)) }},
		Control{Name: "peekback", Label: "Peek back", Handler: func(Args) (viz.Trace, error) { return drop(d.Peek(linear.Back)) }},
	)
}

func bindList(p *Panel, l *linear.LinkedList[int]) error {
	return bindAll(p,
		Control{Name: "insertat", Label: "Insert at", Args: indexVal, Mutating: true, Handler: func(a Args) (viz.Trace, error) {
			return l.InsertAt(a.Int(0), a.Int(1))
		}},
		Control{Name: "append", Args: oneInt, Mutating: true, Handler: func(a Args) (viz.Trace, error) { return l.Append(a.Int(0)) }},
		Control{Name: "insert", Args: oneInt, Mutating: true, Handler: func(a Args) (viz.Trace, error) { return l.Insert(a.Int(0)) }},
		Control{Name: "search", Args: oneInt, Handler: func(a Args) (viz.Trace, error) { return l.Search(a.Int(0)) }},
		Control{Name: "delete", Args: oneInt, Mutating: true, Handler: func(a Args) (viz.Trace, error) { return l.Delete(a.Int(0)) }},
		Control{Name: "removeat", Label: "Remove at", Args: index, Mutating: true, Handler: func(a Args) (viz.Trace, error) {
			return l.RemoveAt(a.Int(0))
		}},
	)
}

func bindRing(p *Panel, r *linear.RingBuffer[int]) error {
	return bindAll(p,
		Control{Name: "write", Args: oneInt, Mutating: true, Handler: func(a Args) (viz.Trace, error) { return r.Write(a.Int(0)) }},
		Control{Name: "read", Mutating: true, Handler: func(Args) (viz.Trace, error) { return drop(r.Read()) }},
	)
}
