// Package hashutil provides the hash kernels and mixing functions shared by
// the hashed engines (bloom filter, hash table) and the deterministic coin
// used by the skip list.
//
// Mixing uses the splitmix64 finalizer by Vigna (2014), which provides
// full-avalanche mixing across all 64 bits. Byte hashing uses xxHash64.
package hashutil

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Splitmix64 constants from the splitmix64 finalizer by Vigna (2014).
const (
	// BaseSeed is the starting seed for deterministic seed generation.
	BaseSeed = 0x517cc1b727220a95

	mixShift1 = 30
	mixMul1   = 0xbf58476d1ce4e5b9
	mixShift2 = 27
	mixMul2   = 0x94d049bb133111eb
	mixShift3 = 31

	// splitmix64Increment is the golden-ratio-derived state increment.
	splitmix64Increment = 0x9e3779b97f4a7c15

	uint64Size = 8
)

// Mix64 applies the splitmix64 finalizer. It does not advance any state.
func Mix64(v uint64) uint64 {
	v ^= v >> mixShift1
	v *= mixMul1
	v ^= v >> mixShift2
	v *= mixMul2
	v ^= v >> mixShift3

	return v
}

// Splitmix64 advances state by the golden-ratio increment and mixes it.
func Splitmix64(state uint64) uint64 {
	return Mix64(state + splitmix64Increment)
}

// Sum64 hashes data with xxHash64.
func Sum64(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Pair derives the two base hashes of double hashing from data. The second
// hash is forced odd so the probe step is coprime with any even table size.
func Pair(data []byte) (h1, h2 uint64) {
	h1 = xxhash.Sum64(data)
	h2 = Mix64(h1^BaseSeed) | 1

	return h1, h2
}

// Probe returns the i-th position of the double-hashing sequence in [0, m).
func Probe(h1, h2 uint64, i, m uint) uint {
	return uint((h1 + uint64(i)*h2) % uint64(m))
}

// Bytes encodes a key for hashing. Integers use their 8-byte big-endian
// two's complement form so equal values hash equally regardless of width.
func Bytes(v any) []byte {
	switch x := v.(type) {
	case string:
		return []byte(x)
	case []byte:
		return x
	case int:
		return uint64Bytes(uint64(x))
	case int64:
		return uint64Bytes(uint64(x))
	case int32:
		return uint64Bytes(uint64(x))
	case uint:
		return uint64Bytes(uint64(x))
	case uint64:
		return uint64Bytes(x)
	case uint32:
		return uint64Bytes(uint64(x))
	case float64:
		return uint64Bytes(math.Float64bits(x))
	default:
		return []byte(fmt.Sprint(x))
	}
}

func uint64Bytes(v uint64) []byte {
	buf := make([]byte, uint64Size)
	binary.BigEndian.PutUint64(buf, v)

	return buf
}

// Coin is a deterministic fair coin driven by splitmix64.
type Coin struct {
	state uint64
	bits  uint64
	left  int
}

// NewCoin returns a coin seeded with seed.
func NewCoin(seed uint64) *Coin {
	return &Coin{state: seed}
}

// Flip returns true with probability 1/2.
func (c *Coin) Flip() bool {
	if c.left == 0 {
		c.state += splitmix64Increment
		c.bits = Mix64(c.state)
		c.left = 64
	}

	heads := c.bits&1 == 1
	c.bits >>= 1
	c.left--

	return heads
}
