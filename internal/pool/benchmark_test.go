package pool

import (
	"testing"

	"github.com/tempuscache/tempuscached/internal/entry"
)

// BenchmarkSet measures the write path: entry construction, mutex
// lock/unlock, map lookup, and list bookkeeping, repeatedly overwriting the
// same key.
func BenchmarkSet(b *testing.B) {
	p := New()

	for i := 0; i < b.N; i++ {
		p.Set("key", "value", entry.TypeString, 0, int64(i))
	}
}

// BenchmarkGetHit measures the read path when every lookup hits, including
// the recency-list move-to-back on every call.
func BenchmarkGetHit(b *testing.B) {
	p := New()
	p.Set("key", "value", entry.TypeString, 0, 0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Get("key", int64(i))
	}
}

// BenchmarkClearLeastRecentlyUsed measures the cost of a soft-limit
// eviction pass over a warm pool.
func BenchmarkClearLeastRecentlyUsed(b *testing.B) {
	p := New()
	for i := 0; i < 1000; i++ {
		p.Set(string(rune(i)), "v", entry.TypeString, 0, 0)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.ClearLeastRecentlyUsed()
	}
}
