// Package trie implements a prefix tree over words.
//
// By default words are folded to lower case and must consist of the letters
// a-z; WithAnyRunes lifts the restriction.
package trie

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// Kind is the structure name reported to sessions.
const Kind = "trie"

var (
	errDeadBranch = errors.New("trie: leaf without a word")
	errCount      = errors.New("trie: word count mismatch")
	errBadCopy    = errors.New("trie: checkpoint of a different type")
)

type node struct {
	id       string
	prefix   string
	word     bool
	children map[rune]*node
}

func (n *node) keys() []rune {
	return slices.Sorted(maps.Keys(n.children))
}

// Trie is a set of words sharing prefixes.
type Trie struct {
	root     *node
	words    int
	anyRunes bool
	ids      *viz.IDs
}

// Option configures a Trie.
type Option func(*Trie)

// WithAnyRunes accepts any non-empty word as is.
func WithAnyRunes() Option {
	return func(t *Trie) { t.anyRunes = true }
}

// New returns an empty trie.
func New(opts ...Option) *Trie {
	t := &Trie{ids: viz.NewIDs(Kind)}
	for _, opt := range opts {
		opt(t)
	}

	t.root = t.newNode("")

	return t
}

func (t *Trie) newNode(prefix string) *node {
	return &node{id: t.ids.Next(), prefix: prefix, children: make(map[rune]*node)}
}

// Kind implements viz.Structure.
func (t *Trie) Kind() string { return Kind }

// Len returns the number of words.
func (t *Trie) Len() int { return t.words }

func (t *Trie) normalize(op, w string) (string, error) {
	if w == "" {
		return "", viz.Fail(op, `""`, fmt.Errorf("%w: empty word", viz.ErrValidation))
	}

	if t.anyRunes {
		return w, nil
	}

	w = strings.ToLower(w)
	for _, r := range w {
		if r < 'a' || r > 'z' {
			return "", viz.Fail(op, w, fmt.Errorf("%w: only letters a-z", viz.ErrValidation))
		}
	}

	return w, nil
}

// walk follows w from the root as far as it exists, recording each node.
// It returns the nodes reached, root first.
func (t *Trie) walk(rec *viz.Recorder, w string) []*node {
	path := []*node{t.root}
	rec.Visit("start at root", t.root.id)

	cur := t.root
	for _, r := range w {
		next, ok := cur.children[r]
		if !ok {
			break
		}

		rec.Visit(fmt.Sprintf("follow %q", r), next.id)
		path = append(path, next)
		cur = next
	}

	return path
}

// Insert adds word, creating one node per missing character.
func (t *Trie) Insert(word string) (viz.Trace, error) {
	rec := viz.NewRecorder("insert")

	w, err := t.normalize("insert", word)
	if err != nil {
		return rec.Trace(), err
	}

	runes := []rune(w)
	path := t.walk(rec, w)
	cur := path[len(path)-1]

	if len(path) == len(runes)+1 && cur.word {
		rec.Found(fmt.Sprintf("%q already exists", w), cur.id)

		return rec.Trace(), viz.Fail("insert", w, viz.ErrDuplicate)
	}

	for i := len(path) - 1; i < len(runes); i++ {
		n := t.newNode(string(runes[:i+1]))
		cur.children[runes[i]] = n
		cur = n
		rec.Restructure(t.Shape(), viz.StateInserted, fmt.Sprintf("add %q", runes[i]), n.id)
	}

	cur.word = true
	t.words++
	rec.Mark(viz.StateFound, viz.PaceResult, fmt.Sprintf("mark %q as a word", w), cur.id)

	return rec.Trace(), nil
}

// Search reports whether word was inserted.
func (t *Trie) Search(word string) (viz.Trace, error) {
	rec := viz.NewRecorder("search")

	w, err := t.normalize("search", word)
	if err != nil {
		return rec.Trace(), err
	}

	path := t.walk(rec, w)
	last := path[len(path)-1]

	switch {
	case len(path) <= len([]rune(w)):
		rec.NotFound(fmt.Sprintf("no path for %q", w), last.id)
	case !last.word:
		rec.NotFound(fmt.Sprintf("%q is only a prefix", w), last.id)
	default:
		rec.Found(fmt.Sprintf("found %q", w), last.id)

		return rec.Trace(), nil
	}

	return rec.Trace(), viz.Fail("search", w, viz.ErrNotFound)
}

// StartsWith reports whether some word begins with prefix.
func (t *Trie) StartsWith(prefix string) (viz.Trace, error) {
	rec := viz.NewRecorder("prefix")

	p, err := t.normalize("prefix", prefix)
	if err != nil {
		return rec.Trace(), err
	}

	path := t.walk(rec, p)
	last := path[len(path)-1]

	if len(path) <= len([]rune(p)) {
		rec.NotFound(fmt.Sprintf("no word starts with %q", p), last.id)

		return rec.Trace(), viz.Fail("prefix", p, viz.ErrNotFound)
	}

	rec.SetResult(count(last))
	rec.Found(fmt.Sprintf("%d words start with %q", count(last), p), last.id)

	return rec.Trace(), nil
}

// Delete unmarks word and prunes the nodes left without children or words,
// working back up from the last character.
func (t *Trie) Delete(word string) (viz.Trace, error) {
	rec := viz.NewRecorder("delete")

	w, err := t.normalize("delete", word)
	if err != nil {
		return rec.Trace(), err
	}

	path := t.walk(rec, w)
	last := path[len(path)-1]

	if len(path) <= len([]rune(w)) || !last.word {
		rec.NotFound(fmt.Sprintf("%q not found", w), last.id)

		return rec.Trace(), viz.Fail("delete", w, viz.ErrNotFound)
	}

	last.word = false
	t.words--
	rec.Mark(viz.StateDeleting, viz.PaceChange, fmt.Sprintf("unmark %q", w), last.id)

	t.prune(rec, path, []rune(w))

	return rec.Trace(), nil
}

// prune removes childless non-word nodes from the end of path upwards.
func (t *Trie) prune(rec *viz.Recorder, path []*node, runes []rune) {
	for i := len(path) - 1; i > 0; i-- {
		n := path[i]
		if n.word || len(n.children) > 0 {
			return
		}

		parent := path[i-1]
		rec.Mark(viz.StateDeleting, viz.PaceVisit, fmt.Sprintf("prune %q", runes[i-1]), n.id)
		delete(parent.children, runes[i-1])
		rec.Restructure(t.Shape(), viz.StatePath, "pruned", parent.id)
	}
}

// DeletePrefix removes every word starting with prefix and reports how many.
func (t *Trie) DeletePrefix(prefix string) (int, viz.Trace, error) {
	rec := viz.NewRecorder("deleteprefix")

	p, err := t.normalize("deleteprefix", prefix)
	if err != nil {
		return 0, rec.Trace(), err
	}

	runes := []rune(p)
	path := t.walk(rec, p)
	last := path[len(path)-1]

	if len(path) <= len(runes) {
		rec.NotFound(fmt.Sprintf("no word starts with %q", p), last.id)

		return 0, rec.Trace(), viz.Fail("deleteprefix", p, viz.ErrNotFound)
	}

	removed := count(last)
	rec.Mark(viz.StateDeleting, viz.PaceChange, fmt.Sprintf("drop subtree of %q", p), subtreeIDs(last)...)

	parent := path[len(path)-2]
	delete(parent.children, runes[len(runes)-1])
	t.words -= removed
	rec.Restructure(t.Shape(), viz.StatePath, fmt.Sprintf("removed %d words", removed), parent.id)

	t.prune(rec, path[:len(path)-1], runes)
	rec.SetResult(removed)

	return removed, rec.Trace(), nil
}

func count(n *node) int {
	c := 0
	if n.word {
		c++
	}

	for _, ch := range n.children {
		c += count(ch)
	}

	return c
}

func subtreeIDs(n *node) []string {
	ids := []string{n.id}
	for _, r := range n.keys() {
		ids = append(ids, subtreeIDs(n.children[r])...)
	}

	return ids
}

// Words returns every word in lexicographic rune order.
func (t *Trie) Words() []string {
	var out []string

	var visit func(n *node)
	visit = func(n *node) {
		if n.word {
			out = append(out, n.prefix)
		}

		for _, r := range n.keys() {
			visit(n.children[r])
		}
	}
	visit(t.root)

	return out
}

// Shape implements viz.Structure. Nodes are labeled with their prefix and
// edges with the character; word ends carry Detail "word".
func (t *Trie) Shape() viz.Shape {
	return viz.Forest{Roots: []*viz.TreeNode{shape(t.root)}}
}

func shape(n *node) *viz.TreeNode {
	label := n.prefix
	if label == "" {
		label = "root"
	}

	tn := &viz.TreeNode{Item: viz.Item{ID: n.id, Label: label}}
	if n.word {
		tn.Detail = "word"
	}

	for _, r := range n.keys() {
		tn.Children = append(tn.Children, shape(n.children[r]))
		tn.EdgeLabels = append(tn.EdgeLabels, string(r))
	}

	return tn
}

// Valid checks that every leaf below the root ends a word and that the word
// count is consistent.
func (t *Trie) Valid() error {
	var check func(n *node) error
	check = func(n *node) error {
		if n != t.root && len(n.children) == 0 && !n.word {
			return fmt.Errorf("%w: %q", errDeadBranch, n.prefix)
		}

		for _, ch := range n.children {
			if err := check(ch); err != nil {
				return err
			}
		}

		return nil
	}

	if err := check(t.root); err != nil {
		return err
	}

	if c := count(t.root); c != t.words {
		return fmt.Errorf("%w: have %d, counted %d", errCount, t.words, c)
	}

	return nil
}

type checkpoint struct {
	root  *node
	words int
}

// Checkpoint implements viz.Restorer.
func (t *Trie) Checkpoint() any {
	return checkpoint{root: clone(t.root), words: t.words}
}

// Restore implements viz.Restorer.
func (t *Trie) Restore(cp any) error {
	c, ok := cp.(checkpoint)
	if !ok {
		return errBadCopy
	}

	t.root, t.words = clone(c.root), c.words

	return nil
}

func clone(n *node) *node {
	c := &node{id: n.id, prefix: n.prefix, word: n.word, children: make(map[rune]*node, len(n.children))}
	for r, ch := range n.children {
		c.children[r] = clone(ch)
	}

	return c
}
