// Package bloom provides a space-efficient probabilistic set membership filter.
//
// A Bloom filter answers "definitely not in set" or "possibly in set" with a
// tunable false-positive rate.
//
// This implementation uses the double-hashing technique from Kirsch and
// Mitzenmacher (2006): two base hashes derive k bit positions via
// h(i) = h1 + i*h2 mod m, avoiding k independent hash functions.
package bloom

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/dsviz/pkg/alg/internal/hashutil"
	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// Kind is the structure name reported to sessions.
const Kind = "bloom"

const (
	// bitsPerWord is the number of bits in each uint64 word.
	bitsPerWord = 64

	// ln2Squared is ln(2) squared, used in the optimal bit-array size formula.
	ln2Squared = math.Ln2 * math.Ln2

	// percent scales ratios for display.
	percent = 100
)

var (
	// ErrZeroN is returned when n (expected element count) is zero.
	ErrZeroN = fmt.Errorf("%w: bloom: n must be positive", viz.ErrValidation)

	// ErrInvalidFP is returned when fp is not in the open interval (0, 1).
	ErrInvalidFP = fmt.Errorf("%w: bloom: fp must be in the open interval (0, 1)", viz.ErrValidation)

	// ErrZeroSize is returned when m or k is zero.
	ErrZeroSize = fmt.Errorf("%w: bloom: m and k must be positive", viz.ErrValidation)

	errStrayBits = errors.New("bloom: bits set beyond m")
	errBadCopy   = errors.New("bloom: checkpoint of a different type")
)

// Hasher derives the two base hashes of double hashing from a key's bytes.
type Hasher func(data []byte) (h1, h2 uint64)

// Option configures a Filter.
type Option func(*config)

type config struct {
	hasher Hasher
}

// WithHasher replaces the default xxHash-based kernel.
func WithHasher(h Hasher) Option {
	return func(c *config) { c.hasher = h }
}

// Filter is a Bloom filter over keys of type T.
type Filter[T comparable] struct {
	bits   []uint64
	m      uint // Total bits.
	k      uint // Number of hash functions.
	count  uint // Number of Add calls.
	hasher Hasher
	slots  []string // Stable id per bit.
}

// New creates a filter of m bits probed by k hash functions.
func New[T comparable](m, k uint, opts ...Option) (*Filter[T], error) {
	if m == 0 || k == 0 {
		return nil, ErrZeroSize
	}

	cfg := config{hasher: hashutil.Pair}
	for _, opt := range opts {
		opt(&cfg)
	}

	ids := viz.NewIDs(Kind)
	slots := make([]string, m)

	for i := range slots {
		slots[i] = ids.Next()
	}

	return &Filter[T]{
		bits:   make([]uint64, (m+bitsPerWord-1)/bitsPerWord),
		m:      m,
		k:      k,
		hasher: cfg.hasher,
		slots:  slots,
	}, nil
}

// NewWithEstimates creates a Bloom filter sized for n expected elements at a
// false-positive rate of fp. Returns an error if n is zero or fp is not in the
// open interval (0, 1).
func NewWithEstimates[T comparable](n uint, fp float64, opts ...Option) (*Filter[T], error) {
	if n == 0 {
		return nil, ErrZeroN
	}

	if fp <= 0 || fp >= 1 {
		return nil, ErrInvalidFP
	}

	m := optimalM(n, fp)

	return New[T](m, optimalK(m, n), opts...)
}

// Kind implements viz.Structure.
func (f *Filter[T]) Kind() string { return Kind }

// BitCount returns the size of the bit array in bits.
func (f *Filter[T]) BitCount() uint {
	return f.m
}

// HashCount returns the number of hash functions used by the filter.
func (f *Filter[T]) HashCount() uint {
	return f.k
}

// EstimatedCount returns the number of Add calls, duplicates included.
func (f *Filter[T]) EstimatedCount() uint {
	return f.count
}

// Positions returns the k bit positions of v in probe order.
func (f *Filter[T]) Positions(v T) []uint {
	h1, h2 := f.hasher(hashutil.Bytes(v))
	out := make([]uint, f.k)

	for i := range f.k {
		out[i] = hashutil.Probe(h1, h2, i, f.m)
	}

	return out
}

func (f *Filter[T]) isSet(pos uint) bool {
	return f.bits[pos/bitsPerWord]&(1<<(pos%bitsPerWord)) != 0
}

// Add sets the k bits of v.
func (f *Filter[T]) Add(v T) (viz.Trace, error) {
	rec := viz.NewRecorder("add")

	var fresh, all []string

	for i, pos := range f.Positions(v) {
		rec.Visit(fmt.Sprintf("h%d(%v) = %d", i+1, v, pos), f.slots[pos])
		all = append(all, f.slots[pos])

		if !f.isSet(pos) {
			f.bits[pos/bitsPerWord] |= 1 << (pos % bitsPerWord)
			fresh = append(fresh, f.slots[pos])
		}
	}

	f.count++

	if len(fresh) == 0 {
		rec.Mark(viz.StatePath, viz.PaceChange, fmt.Sprintf("all bits of %v were already set", v), all...)
	} else {
		rec.Restructure(f.Shape(), viz.StateUpdated, fmt.Sprintf("set %d new bits", len(fresh)), fresh...)
	}

	return rec.Trace(), nil
}

// Test reports whether v is possibly in the filter. A clear bit proves v was
// never added and yields ErrNotFound; all bits set means "possibly present".
func (f *Filter[T]) Test(v T) (viz.Trace, error) {
	rec := viz.NewRecorder("test")

	var seen []string

	for i, pos := range f.Positions(v) {
		rec.Compare(fmt.Sprintf("h%d(%v) = %d", i+1, v, pos), f.slots[pos])

		if !f.isSet(pos) {
			rec.NotFound(fmt.Sprintf("bit %d is clear: %v is definitely absent", pos, v), f.slots[pos])

			return rec.Trace(), viz.Fail("test", v, viz.ErrNotFound)
		}

		seen = append(seen, f.slots[pos])
	}

	rec.Found(fmt.Sprintf("%v is possibly present", v), seen...)

	return rec.Trace(), nil
}

// Reset clears the filter without reallocating the bit array.
func (f *Filter[T]) Reset() (viz.Trace, error) {
	rec := viz.NewRecorder("reset")

	clear(f.bits)
	f.count = 0
	rec.Restructure(f.Shape(), viz.StateDefault, "clear all bits")

	return rec.Trace(), nil
}

// FillRatio returns the fraction of bits that are set, in the range [0, 1].
func (f *Filter[T]) FillRatio() float64 {
	return float64(f.ones()) / float64(f.m)
}

func (f *Filter[T]) ones() uint {
	total := uint(0)
	for _, word := range f.bits {
		total += uint(bits.OnesCount64(word))
	}

	return total
}

// FalsePositiveRate returns the theoretical false-positive probability
// (1-(1-1/m)^(kn))^k for the current element count.
func (f *Filter[T]) FalsePositiveRate() float64 {
	return FalsePositiveRate(f.m, f.k, f.count)
}

// FalsePositiveRate evaluates (1-(1-1/m)^(kn))^k.
func FalsePositiveRate(m, k, n uint) float64 {
	if m == 0 {
		return 1
	}

	empty := math.Pow(1-1/float64(m), float64(k*n))

	return math.Pow(1-empty, float64(k))
}

// Stats summarizes the filter for display.
func (f *Filter[T]) Stats() string {
	var b strings.Builder

	fmt.Fprintf(&b, "m=%s bits (%s), k=%d, n=%s, ",
		humanize.Comma(int64(f.m)), humanize.IBytes(uint64(len(f.bits)*bitsPerWord/8)),
		f.k, humanize.Comma(int64(f.count)))
	fmt.Fprintf(&b, "fill %s%%, fp %s%%",
		humanize.FtoaWithDigits(f.FillRatio()*percent, 2),
		humanize.FtoaWithDigits(f.FalsePositiveRate()*percent, 4))

	return b.String()
}

// Shape implements viz.Structure: one cell per bit labeled 0 or 1.
func (f *Filter[T]) Shape() viz.Shape {
	cells := make([]viz.Item, f.m)
	for i := range f.m {
		it := viz.Item{ID: f.slots[i], Label: "0", Detail: fmt.Sprint(i), Tone: viz.ToneMuted}
		if f.isSet(i) {
			it.Label, it.Tone = "1", viz.ToneNone
		}

		cells[i] = it
	}

	return viz.Array{Cells: cells}
}

// Valid checks that no bit beyond m is set and that at most k bits were set per Add.
func (f *Filter[T]) Valid() error {
	if tail := f.m % bitsPerWord; tail != 0 {
		if f.bits[len(f.bits)-1]>>tail != 0 {
			return errStrayBits
		}
	}

	if ones := f.ones(); ones > f.k*f.count {
		return fmt.Errorf("%w: %d bits set after %d adds", errStrayBits, ones, f.count)
	}

	return nil
}

type checkpoint struct {
	bits  []uint64
	count uint
}

// Checkpoint implements viz.Restorer.
func (f *Filter[T]) Checkpoint() any {
	return checkpoint{bits: slices.Clone(f.bits), count: f.count}
}

// Restore implements viz.Restorer.
func (f *Filter[T]) Restore(cp any) error {
	c, ok := cp.(checkpoint)
	if !ok || len(c.bits) != len(f.bits) {
		return errBadCopy
	}

	f.bits, f.count = slices.Clone(c.bits), c.count

	return nil
}

// optimalM computes the optimal bit-array size for n elements at false-positive
// rate fp using the formula m = ceil(-n * ln(fp) / ln(2)^2).
func optimalM(n uint, fp float64) uint {
	return uint(math.Ceil(-float64(n) * math.Log(fp) / ln2Squared))
}

// optimalK computes the optimal number of hash functions using the formula
// k = round(m/n * ln(2)).
func optimalK(m, n uint) uint {
	k := uint(math.Round(float64(m) / float64(n) * math.Ln2))
	if k < 1 {
		return 1
	}

	return k
}
