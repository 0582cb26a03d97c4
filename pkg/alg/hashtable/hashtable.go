// Package hashtable implements a fixed-size hash table with either separate
// chaining or open addressing by linear probing.
//
// Open addressing marks deleted slots with tombstones so that probe sequences
// running through them stay intact; inserts reuse the first tombstone seen.
package hashtable

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/dsviz/pkg/alg/internal/hashutil"
	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// Kind is the structure name reported to sessions.
const Kind = "hashtable"

// Mode selects the collision strategy.
type Mode string

// Modes.
const (
	Chaining      Mode = "chaining"
	LinearProbing Mode = "linear"
)

var (
	errMisplaced = errors.New("hashtable: key unreachable from its home slot")
	errCount     = errors.New("hashtable: count mismatch")
	errBadCopy   = errors.New("hashtable: checkpoint of a different type")
)

// ParseMode converts a name into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Chaining, LinearProbing:
		return Mode(s), nil
	default:
		return "", viz.Fail("mode", s, fmt.Errorf("%w: want chaining or linear", viz.ErrValidation))
	}
}

// Hasher maps a key to its home slot in [0, m).
type Hasher[K comparable] func(key K, m int) int

// DefaultHash reduces integers modulo m (floored, so negatives land in range)
// and hashes everything else with xxHash.
func DefaultHash[K comparable](key K, m int) int {
	var n int64

	switch x := any(key).(type) {
	case int:
		n = int64(x)
	case int64:
		n = x
	case int32:
		n = int64(x)
	default:
		return int(hashutil.Sum64(hashutil.Bytes(key)) % uint64(m))
	}

	return int(((n % int64(m)) + int64(m)) % int64(m))
}

type entry[K comparable, V any] struct {
	id    string
	key   K
	value V
}

type slot[K comparable, V any] struct {
	entry *entry[K, V]
	tomb  bool
}

// Table maps keys to values over a fixed number of slots.
type Table[K comparable, V any] struct {
	mode   Mode
	m      int
	count  int
	chains [][]*entry[K, V] // Chaining.
	slots  []slot[K, V]     // LinearProbing.
	hash   Hasher[K]
	slotID []string
	ids    *viz.IDs
}

// Option configures a Table.
type Option[K comparable] func(*Hasher[K])

// WithHasher replaces DefaultHash.
func WithHasher[K comparable](h Hasher[K]) Option[K] {
	return func(dst *Hasher[K]) { *dst = h }
}

// New returns an empty table with m slots.
func New[K comparable, V any](m int, mode Mode, opts ...Option[K]) (*Table[K, V], error) {
	if m < 1 {
		return nil, viz.Fail("new", m, fmt.Errorf("%w: need at least one slot", viz.ErrValidation))
	}

	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}

	t := &Table[K, V]{mode: mode, m: m, hash: DefaultHash[K], ids: viz.NewIDs(Kind)}
	for _, opt := range opts {
		opt(&t.hash)
	}

	t.slotID = make([]string, m)
	for i := range t.slotID {
		t.slotID[i] = t.ids.Next()
	}

	t.reset()

	return t, nil
}

func (t *Table[K, V]) reset() {
	if t.mode == Chaining {
		t.chains = make([][]*entry[K, V], t.m)
	} else {
		t.slots = make([]slot[K, V], t.m)
	}

	t.count = 0
}

// Kind implements viz.Structure.
func (t *Table[K, V]) Kind() string { return Kind }

// Mode returns the collision strategy.
func (t *Table[K, V]) Mode() Mode { return t.mode }

// Len returns the number of keys.
func (t *Table[K, V]) Len() int { return t.count }

// Buckets returns the number of slots.
func (t *Table[K, V]) Buckets() int { return t.m }

// LoadFactor returns keys per slot.
func (t *Table[K, V]) LoadFactor() float64 { return float64(t.count) / float64(t.m) }

func (t *Table[K, V]) home(rec *viz.Recorder, k K) int {
	h := t.hash(k, t.m)
	rec.Visit(fmt.Sprintf("hash(%v) = %d", k, h), t.slotID[h])

	return h
}

// locate finds k. For chaining it returns the bucket and chain index; for
// probing the slot index, plus the slot a new key would take (-1 when full).
func (t *Table[K, V]) locate(rec *viz.Recorder, k K) (at, pos, free int) {
	h := t.home(rec, k)

	if t.mode == Chaining {
		for i, e := range t.chains[h] {
			rec.Compare(fmt.Sprintf("compare %v", e.key), e.id)

			if e.key == k {
				return h, i, -1
			}
		}

		return h, -1, h
	}

	free = -1

	for i := range t.m {
		idx := (h + i) % t.m
		s := t.slots[idx]

		switch {
		case s.entry == nil && !s.tomb:
			if i > 0 {
				rec.Visit(fmt.Sprintf("probe slot %d: empty", idx), t.slotID[idx])
			}

			if free < 0 {
				free = idx
			}

			return idx, -1, free
		case s.tomb:
			rec.Visit(fmt.Sprintf("probe slot %d: tombstone", idx), t.slotID[idx])

			if free < 0 {
				free = idx
			}
		default:
			rec.Compare(fmt.Sprintf("probe slot %d: %v", idx, s.entry.key), s.entry.id)

			if s.entry.key == k {
				return idx, idx, -1
			}
		}
	}

	return h, -1, free
}

// Insert adds k. An existing key is rejected.
func (t *Table[K, V]) Insert(k K, v V) (viz.Trace, error) {
	return t.put("insert", k, v, false)
}

// Put adds k or replaces its value.
func (t *Table[K, V]) Put(k K, v V) (viz.Trace, error) {
	return t.put("put", k, v, true)
}

func (t *Table[K, V]) put(op string, k K, v V, upsert bool) (viz.Trace, error) {
	rec := viz.NewRecorder(op)
	at, pos, free := t.locate(rec, k)

	if pos >= 0 {
		e := t.entryAt(at, pos)
		if !upsert {
			rec.Found(fmt.Sprintf("%v already exists", k), e.id)

			return rec.Trace(), viz.Fail(op, k, viz.ErrDuplicate)
		}

		e.value = v
		rec.Restructure(t.Shape(), viz.StateUpdated, fmt.Sprintf("%v = %v", k, v), e.id)

		return rec.Trace(), nil
	}

	if free < 0 {
		rec.NotFound("every slot is occupied")

		return rec.Trace(), viz.Fail(op, k, viz.ErrCapacity)
	}

	e := &entry[K, V]{id: t.ids.Next(), key: k, value: v}
	if t.mode == Chaining {
		t.chains[free] = append(t.chains[free], e)
	} else {
		t.slots[free] = slot[K, V]{entry: e}
	}

	t.count++
	rec.Restructure(t.Shape(), viz.StateInserted, fmt.Sprintf("store %v in slot %d", k, free), e.id)

	return rec.Trace(), nil
}

func (t *Table[K, V]) entryAt(at, pos int) *entry[K, V] {
	if t.mode == Chaining {
		return t.chains[at][pos]
	}

	return t.slots[pos].entry
}

// Get returns the value stored for k.
func (t *Table[K, V]) Get(k K) (V, viz.Trace, error) {
	rec := viz.NewRecorder("get")
	at, pos, _ := t.locate(rec, k)

	if pos < 0 {
		var zero V

		rec.NotFound(fmt.Sprintf("%v not found", k), t.slotID[at])

		return zero, rec.Trace(), viz.Fail("get", k, viz.ErrNotFound)
	}

	e := t.entryAt(at, pos)
	rec.SetResult(e.value)
	rec.Found(fmt.Sprintf("%v = %v", k, e.value), e.id)

	return e.value, rec.Trace(), nil
}

// Search reports whether k is present.
func (t *Table[K, V]) Search(k K) (viz.Trace, error) {
	_, tr, err := t.Get(k)
	tr.Op = "search"

	return tr, err
}

// Delete removes k. Under linear probing its slot becomes a tombstone.
func (t *Table[K, V]) Delete(k K) (viz.Trace, error) {
	rec := viz.NewRecorder("delete")

	if t.count == 0 {
		return rec.Trace(), viz.Fail("delete", k, viz.ErrEmpty)
	}

	at, pos, _ := t.locate(rec, k)
	if pos < 0 {
		rec.NotFound(fmt.Sprintf("%v not found", k), t.slotID[at])

		return rec.Trace(), viz.Fail("delete", k, viz.ErrNotFound)
	}

	e := t.entryAt(at, pos)
	rec.Mark(viz.StateDeleting, viz.PaceChange, fmt.Sprintf("remove %v", k), e.id)

	if t.mode == Chaining {
		t.chains[at] = slices.Delete(t.chains[at], pos, pos+1)
	} else {
		t.slots[pos] = slot[K, V]{tomb: true}
	}

	t.count--
	rec.Restructure(t.Shape(), viz.StatePath, "removed", t.slotID[at])

	return rec.Trace(), nil
}

// Clear empties the table, tombstones included.
func (t *Table[K, V]) Clear() (viz.Trace, error) {
	rec := viz.NewRecorder("clear")
	t.reset()
	rec.Restructure(t.Shape(), viz.StateDefault, "all slots empty")

	return rec.Trace(), nil
}

// Keys returns the keys in slot order.
func (t *Table[K, V]) Keys() []K {
	out := make([]K, 0, t.count)
	t.each(func(_ int, e *entry[K, V]) { out = append(out, e.key) })

	return out
}

func (t *Table[K, V]) each(fn func(slot int, e *entry[K, V])) {
	if t.mode == Chaining {
		for i, chain := range t.chains {
			for _, e := range chain {
				fn(i, e)
			}
		}

		return
	}

	for i, s := range t.slots {
		if s.entry != nil {
			fn(i, s.entry)
		}
	}
}

// Shape implements viz.Structure: one row per slot. Tombstones show as
// muted slots with Detail "deleted".
func (t *Table[K, V]) Shape() viz.Shape {
	rows := make([]viz.Bucket, t.m)
	for i := range rows {
		rows[i].Slot = viz.Item{ID: t.slotID[i], Label: fmt.Sprint(i)}

		if t.mode == LinearProbing && t.slots[i].tomb {
			rows[i].Slot.Detail, rows[i].Slot.Tone = "deleted", viz.ToneMuted
		}
	}

	t.each(func(i int, e *entry[K, V]) {
		rows[i].Chain = append(rows[i].Chain, viz.Item{ID: e.id, Label: viz.Label(e.key), Detail: viz.Label(e.value)})
	})

	return viz.Buckets{Slots: rows}
}

// Valid checks that every key sits in its home bucket (chaining) or is
// reachable from its home slot without crossing an empty slot (probing).
func (t *Table[K, V]) Valid() error {
	n := 0

	var err error

	t.each(func(i int, e *entry[K, V]) {
		n++

		h := t.hash(e.key, t.m)
		if t.mode == Chaining {
			if h != i && err == nil {
				err = fmt.Errorf("%w: %v in %d, home %d", errMisplaced, e.key, i, h)
			}

			return
		}

		for j := h; j != i; j = (j + 1) % t.m {
			if t.slots[j].entry == nil && !t.slots[j].tomb && err == nil {
				err = fmt.Errorf("%w: %v behind empty slot %d", errMisplaced, e.key, j)
			}
		}
	})

	if err != nil {
		return err
	}

	if n != t.count {
		return fmt.Errorf("%w: have %d, stored %d", errCount, t.count, n)
	}

	return nil
}

type checkpoint[K comparable, V any] struct {
	chains [][]entry[K, V]
	slots  []slot[K, V]
	count  int
}

// Checkpoint implements viz.Restorer.
func (t *Table[K, V]) Checkpoint() any {
	cp := checkpoint[K, V]{count: t.count}

	if t.mode == Chaining {
		cp.chains = make([][]entry[K, V], t.m)
		for i, chain := range t.chains {
			for _, e := range chain {
				cp.chains[i] = append(cp.chains[i], *e)
			}
		}

		return cp
	}

	cp.slots = make([]slot[K, V], t.m)
	for i, s := range t.slots {
		cp.slots[i].tomb = s.tomb
		if s.entry != nil {
			e := *s.entry
			cp.slots[i].entry = &e
		}
	}

	return cp
}

// Restore implements viz.Restorer.
func (t *Table[K, V]) Restore(cp any) error {
	c, ok := cp.(checkpoint[K, V])
	if !ok {
		return errBadCopy
	}

	t.reset()
	t.count = c.count

	if t.mode == Chaining {
		for i, chain := range c.chains {
			for _, e := range chain {
				t.chains[i] = append(t.chains[i], &e)
			}
		}

		return nil
	}

	for i, s := range c.slots {
		t.slots[i].tomb = s.tomb
		if s.entry != nil {
			e := *s.entry
			t.slots[i].entry = &e
		}
	}

	return nil
}
