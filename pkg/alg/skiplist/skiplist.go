// Package skiplist implements a skip list with coin-flip tower heights.
//
// Level 0 links every element in order; each higher level links a random
// subset of the level below. Heights come from an injected Coin; a seeded coin
// replays the same flips.
package skiplist

import (
	"cmp"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/Sumatoshi-tech/dsviz/pkg/alg/internal/hashutil"
	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// Kind is the structure name reported to sessions.
const Kind = "skiplist"

// DefaultMaxLevel caps tower heights when no option is given.
const DefaultMaxLevel = 8

var (
	errOrder   = errors.New("skiplist: level not strictly ascending")
	errCount   = errors.New("skiplist: size mismatch")
	errBadCopy = errors.New("skiplist: checkpoint of a different type")
)

// Coin decides tower growth: each heads adds one level.
type Coin interface {
	Flip() bool
}

type randomCoin struct{}

func (randomCoin) Flip() bool { return rand.N(2) == 0 }

type node[T cmp.Ordered] struct {
	id    string
	value T
	next  []*node[T]
}

// List is a sorted set backed by a skip list.
type List[T cmp.Ordered] struct {
	head     *node[T]
	level    int // Levels in use, at least 1.
	maxLevel int
	size     int
	coin     Coin
	ids      *viz.IDs
}

// Option configures a List.
type Option func(*options)

type options struct {
	maxLevel int
	coin     Coin
}

// WithMaxLevel caps tower heights at n levels.
func WithMaxLevel(n int) Option {
	return func(o *options) { o.maxLevel = n }
}

// WithCoin replaces the default pseudo-random coin.
func WithCoin(c Coin) Option {
	return func(o *options) { o.coin = c }
}

// WithSeed uses a deterministic coin seeded with seed, so a scripted
// scenario draws the same towers every time.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.coin = hashutil.NewCoin(seed) }
}

// New returns an empty list.
func New[T cmp.Ordered](opts ...Option) (*List[T], error) {
	o := options{maxLevel: DefaultMaxLevel, coin: randomCoin{}}
	for _, opt := range opts {
		opt(&o)
	}

	if o.maxLevel < 1 {
		return nil, viz.Fail("new", o.maxLevel, fmt.Errorf("%w: max level must be at least 1", viz.ErrValidation))
	}

	ids := viz.NewIDs(Kind)

	return &List[T]{
		head:     &node[T]{id: ids.Next(), next: make([]*node[T], o.maxLevel)},
		level:    1,
		maxLevel: o.maxLevel,
		coin:     o.coin,
		ids:      ids,
	}, nil
}

// Kind implements viz.Structure.
func (l *List[T]) Kind() string { return Kind }

// Len returns the number of elements.
func (l *List[T]) Len() int { return l.size }

// Levels returns the number of levels in use.
func (l *List[T]) Levels() int { return l.level }

// MaxLevel returns the height cap.
func (l *List[T]) MaxLevel() int { return l.maxLevel }

// HeadID returns the id of the head sentinel column.
func (l *List[T]) HeadID() string { return l.head.id }

// randomLevel flips until tails or the cap, so heights are 1..maxLevel.
func (l *List[T]) randomLevel() int {
	lvl := 1
	for lvl < l.maxLevel && l.coin.Flip() {
		lvl++
	}

	return lvl
}

// descend records the search from the top level and returns, per level, the
// last node whose value is below v.
func (l *List[T]) descend(rec *viz.Recorder, v T) []*node[T] {
	update := make([]*node[T], l.maxLevel)

	x := l.head
	for i := l.level - 1; i >= 0; i-- {
		rec.Visit(fmt.Sprintf("level %d", i), x.id)

		for x.next[i] != nil && x.next[i].value < v {
			x = x.next[i]
			rec.Compare(fmt.Sprintf("%v < %v, advance on level %d", x.value, v, i), x.id)
		}

		update[i] = x
	}

	return update
}

// Insert adds v with a random tower height.
func (l *List[T]) Insert(v T) (viz.Trace, error) {
	rec := viz.NewRecorder("insert")
	update := l.descend(rec, v)

	if n := update[0].next[0]; n != nil && n.value == v {
		rec.Found(fmt.Sprintf("%v already exists", v), n.id)

		return rec.Trace(), viz.Fail("insert", v, viz.ErrDuplicate)
	}

	height := l.randomLevel()
	for i := l.level; i < height; i++ {
		update[i] = l.head
	}

	l.level = max(l.level, height)

	n := &node[T]{id: l.ids.Next(), value: v, next: make([]*node[T], height)}
	for i := range height {
		n.next[i] = update[i].next[i]
		update[i].next[i] = n
	}

	l.size++
	rec.Restructure(l.Shape(), viz.StateInserted, fmt.Sprintf("splice %v into %d levels", v, height), n.id)

	return rec.Trace(), nil
}

// Search looks v up from the top level down.
func (l *List[T]) Search(v T) (viz.Trace, error) {
	rec := viz.NewRecorder("search")

	if l.size == 0 {
		return rec.Trace(), viz.Fail("search", v, viz.ErrEmpty)
	}

	update := l.descend(rec, v)

	if n := update[0].next[0]; n != nil && n.value == v {
		rec.Found(fmt.Sprintf("found %v", v), n.id)

		return rec.Trace(), nil
	}

	rec.NotFound(fmt.Sprintf("%v not found", v), update[0].id)

	return rec.Trace(), viz.Fail("search", v, viz.ErrNotFound)
}

// Delete unlinks v from every level it occupies and drops empty top levels.
func (l *List[T]) Delete(v T) (viz.Trace, error) {
	rec := viz.NewRecorder("delete")

	if l.size == 0 {
		return rec.Trace(), viz.Fail("delete", v, viz.ErrEmpty)
	}

	update := l.descend(rec, v)

	n := update[0].next[0]
	if n == nil || n.value != v {
		rec.NotFound(fmt.Sprintf("%v not found", v), update[0].id)

		return rec.Trace(), viz.Fail("delete", v, viz.ErrNotFound)
	}

	rec.Mark(viz.StateDeleting, viz.PaceChange, fmt.Sprintf("unlink %v from %d levels", v, len(n.next)), n.id)

	for i := range n.next {
		update[i].next[i] = n.next[i]
	}

	for l.level > 1 && l.head.next[l.level-1] == nil {
		l.level--
	}

	l.size--
	rec.Restructure(l.Shape(), viz.StatePath, "relinked", update[0].id)

	return rec.Trace(), nil
}

// Values returns the elements in ascending order.
func (l *List[T]) Values() []T {
	out := make([]T, 0, l.size)
	for x := l.head.next[0]; x != nil; x = x.next[0] {
		out = append(out, x.value)
	}

	return out
}

// HeightOf returns the tower height of v.
func (l *List[T]) HeightOf(v T) (int, bool) {
	for x := l.head.next[0]; x != nil; x = x.next[0] {
		if x.value == v {
			return len(x.next), true
		}
	}

	return 0, false
}

// Shape implements viz.Structure. The head sentinel is the first column.
func (l *List[T]) Shape() viz.Shape {
	cols := []viz.Column{{Item: viz.Item{ID: l.head.id, Label: "head", Tone: viz.ToneMuted}, Height: l.level}}
	for x := l.head.next[0]; x != nil; x = x.next[0] {
		cols = append(cols, viz.Column{Item: viz.Item{ID: x.id, Label: viz.Label(x.value)}, Height: len(x.next)})
	}

	return viz.Grid{Columns: cols, Levels: l.level}
}

// Valid checks that every level is strictly ascending and that level 0 holds
// every element.
func (l *List[T]) Valid() error {
	for i := range l.maxLevel {
		for x := l.head.next[i]; x != nil && x.next[i] != nil; x = x.next[i] {
			if x.next[i].value <= x.value {
				return fmt.Errorf("%w: %v then %v on level %d", errOrder, x.value, x.next[i].value, i)
			}
		}

		if i >= l.level && l.head.next[i] != nil {
			return fmt.Errorf("%w: level %d used above %d", errOrder, i, l.level)
		}
	}

	if n := len(l.Values()); n != l.size {
		return fmt.Errorf("%w: have %d, linked %d", errCount, l.size, n)
	}

	return nil
}

type entry[T cmp.Ordered] struct {
	id     string
	value  T
	height int
}

type checkpoint[T cmp.Ordered] struct {
	entries []entry[T]
	level   int
}

// Checkpoint implements viz.Restorer.
func (l *List[T]) Checkpoint() any {
	cp := checkpoint[T]{level: l.level}
	for x := l.head.next[0]; x != nil; x = x.next[0] {
		cp.entries = append(cp.entries, entry[T]{id: x.id, value: x.value, height: len(x.next)})
	}

	return cp
}

// Restore implements viz.Restorer. Towers are rebuilt with their recorded heights.
func (l *List[T]) Restore(cp any) error {
	c, ok := cp.(checkpoint[T])
	if !ok {
		return errBadCopy
	}

	l.head.next = make([]*node[T], l.maxLevel)
	tails := make([]*node[T], l.maxLevel)

	for i := range tails {
		tails[i] = l.head
	}

	for _, e := range c.entries {
		n := &node[T]{id: e.id, value: e.value, next: make([]*node[T], e.height)}
		for i := range e.height {
			tails[i].next[i] = n
			tails[i] = n
		}
	}

	l.level, l.size = c.level, len(c.entries)

	return nil
}
