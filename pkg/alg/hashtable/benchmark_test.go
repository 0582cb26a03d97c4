package hashtable_test

import (
	"testing"

	"github.com/Sumatoshi-tech/dsviz/pkg/alg/hashtable"
)

const (
	benchBuckets = 64
	benchKeys    = 48
)

func benchmarkPutGet(b *testing.B, mode hashtable.Mode) {
	b.Helper()

	tbl, err := hashtable.New[int, int](benchBuckets, mode)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()

	for i := range b.N {
		k := i % benchKeys

		if _, err := tbl.Put(k, i); err != nil {
			b.Fatal(err)
		}

		if _, _, err := tbl.Get(k); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkChainingPutGet measures upsert and lookup with separate chaining.
func BenchmarkChainingPutGet(b *testing.B) {
	benchmarkPutGet(b, hashtable.Chaining)
}

// BenchmarkProbingPutGet measures upsert and lookup with linear probing.
func BenchmarkProbingPutGet(b *testing.B) {
	benchmarkPutGet(b, hashtable.LinearProbing)
}
