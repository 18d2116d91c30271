package swiss

import (
	"strconv"
	"testing"

	"github.com/aclements/go-perfevent/perfbench"
)

type benchTypes interface {
	int32 | int64 | string
}

var benchLens = []int{6, 12, 30, 64, 256, 1024, 8192, 1 << 16}

// benchImpls runs f once per table flavor: the builtin map and a swiss.Map
// for each group implementation.
func benchImpls[T benchTypes](
	b *testing.B,
	runtime func(b *testing.B, keys []T),
	swiss func(b *testing.B, keys []T, opts ...Option[T, T]),
) {
	for _, n := range benchLens {
		keys := genKeys[T](0, n)
		b.Run("len="+strconv.Itoa(n), func(b *testing.B) {
			b.Run("impl=runtimeMap", func(b *testing.B) { runtime(b, keys) })
			for _, ops := range groupImpls() {
				b.Run("impl=swissMap/group="+ops.String(), func(b *testing.B) {
					swiss(b, keys, withGroupOps[T, T](ops))
				})
			}
		})
	}
}

func genKeys[T benchTypes](start, end int) []T {
	var t T
	switch any(t).(type) {
	case int32:
		keys := make([]int32, end-start)
		for i := range keys {
			keys[i] = int32(start + i)
		}
		return unsafeConvertSlice[T](keys)
	case int64:
		keys := make([]int64, end-start)
		for i := range keys {
			keys[i] = int64(start + i)
		}
		return unsafeConvertSlice[T](keys)
	case string:
		keys := make([]string, end-start)
		for i := range keys {
			keys[i] = strconv.Itoa(start + i)
		}
		return unsafeConvertSlice[T](keys)
	default:
		panic("not reached")
	}
}

func BenchmarkMapIter(b *testing.B) {
	benchImpls(b,
		func(b *testing.B, keys []int64) {
			m := make(map[int64]int64, len(keys))
			for _, k := range keys {
				m[k] = k
			}
			cs := perfbench.Open(b)
			cs.Reset()
			var tmp int64
			for i := 0; i < b.N; i++ {
				for k, v := range m {
					tmp += k + v
				}
			}
		},
		func(b *testing.B, keys []int64, opts ...Option[int64, int64]) {
			m := New[int64, int64](len(keys), opts...)
			for _, k := range keys {
				m.Put(k, k)
			}
			cs := perfbench.Open(b)
			cs.Reset()
			var tmp int64
			for i := 0; i < b.N; i++ {
				for it := m.Begin(); it.Valid(); m.Advance(&it) {
					tmp += m.Key(it) + *m.Value(it)
				}
			}
		})
}

func benchmarkGetHit[T benchTypes](b *testing.B) {
	benchImpls(b,
		func(b *testing.B, keys []T) {
			m := make(map[T]T, len(keys))
			for _, k := range keys {
				m[k] = k
			}
			// Go's builtin map has an optimization to avoid string
			// comparisons if there is pointer equality. Defeat this
			// optimization to get a better apples-to-apples comparison.
			keys = genKeys[T](0, len(keys))
			cs := perfbench.Open(b)
			cs.Reset()
			for i := 0; i < b.N; i++ {
				_ = m[keys[i%len(keys)]]
			}
		},
		func(b *testing.B, keys []T, opts ...Option[T, T]) {
			m := New[T, T](len(keys), opts...)
			for _, k := range keys {
				m.Put(k, k)
			}
			keys = genKeys[T](0, len(keys))
			cs := perfbench.Open(b)
			cs.Reset()
			for i := 0; i < b.N; i++ {
				_ = m.Get(keys[i%len(keys)])
			}
		})
}

func benchmarkGetMiss[T benchTypes](b *testing.B) {
	benchImpls(b,
		func(b *testing.B, keys []T) {
			m := make(map[T]T, len(keys))
			for _, k := range keys {
				m[k] = k
			}
			miss := genKeys[T](-len(keys), 0)
			cs := perfbench.Open(b)
			cs.Reset()
			for i := 0; i < b.N; i++ {
				_ = m[miss[i%len(miss)]]
			}
		},
		func(b *testing.B, keys []T, opts ...Option[T, T]) {
			m := New[T, T](0, opts...)
			for _, k := range keys {
				m.Put(k, k)
			}
			miss := genKeys[T](-len(keys), 0)
			cs := perfbench.Open(b)
			cs.Reset()
			for i := 0; i < b.N; i++ {
				_ = m.Find(miss[i%len(miss)])
			}
		})
}

func BenchmarkMapGetHit(b *testing.B) {
	b.Run("t=Int64", benchmarkGetHit[int64])
	b.Run("t=Int32", benchmarkGetHit[int32])
	b.Run("t=String", benchmarkGetHit[string])
}

func BenchmarkMapGetMiss(b *testing.B) {
	b.Run("t=Int64", benchmarkGetMiss[int64])
	b.Run("t=Int32", benchmarkGetMiss[int32])
	b.Run("t=String", benchmarkGetMiss[string])
}

func BenchmarkMapPutGrow(b *testing.B) {
	benchImpls(b,
		func(b *testing.B, keys []int64) {
			cs := perfbench.Open(b)
			cs.Reset()
			for i := 0; i < b.N; i++ {
				m := make(map[int64]int64)
				for _, k := range keys {
					m[k] = k
				}
			}
		},
		func(b *testing.B, keys []int64, opts ...Option[int64, int64]) {
			var m Map[int64, int64]
			cs := perfbench.Open(b)
			cs.Reset()
			for i := 0; i < b.N; i++ {
				m.Init(0, opts...)
				for _, k := range keys {
					m.Put(k, k)
				}
			}
		})
}

func BenchmarkMapPutReserve(b *testing.B) {
	benchImpls(b,
		func(b *testing.B, keys []int64) {
			cs := perfbench.Open(b)
			cs.Reset()
			for i := 0; i < b.N; i++ {
				m := make(map[int64]int64, len(keys))
				for _, k := range keys {
					m[k] = k
				}
			}
		},
		func(b *testing.B, keys []int64, opts ...Option[int64, int64]) {
			var m Map[int64, int64]
			cs := perfbench.Open(b)
			cs.Reset()
			for i := 0; i < b.N; i++ {
				m.Init(0, opts...)
				m.Reserve(len(keys))
				for _, k := range keys {
					m.Put(k, k)
				}
			}
		})
}

func BenchmarkMapPutReuse(b *testing.B) {
	benchImpls(b,
		func(b *testing.B, keys []int64) {
			m := make(map[int64]int64, len(keys))
			cs := perfbench.Open(b)
			cs.Reset()
			for i := 0; i < b.N; i++ {
				for _, k := range keys {
					m[k] = k
				}
				clear(m)
			}
		},
		func(b *testing.B, keys []int64, opts ...Option[int64, int64]) {
			m := New[int64, int64](len(keys), opts...)
			cs := perfbench.Open(b)
			cs.Reset()
			for i := 0; i < b.N; i++ {
				for _, k := range keys {
					m.Put(k, k)
				}
				m.Clear()
			}
		})
}

// BenchmarkMapPutDelete churns a full table, which exercises tombstone
// creation and the in-place compaction that reclaims them.
func BenchmarkMapPutDelete(b *testing.B) {
	benchImpls(b,
		func(b *testing.B, keys []int64) {
			m := make(map[int64]int64, len(keys))
			for _, k := range keys {
				m[k] = k
			}
			cs := perfbench.Open(b)
			cs.Reset()
			for i := 0; i < b.N; i++ {
				j := i % len(keys)
				delete(m, keys[j])
				m[keys[j]] = keys[j]
			}
		},
		func(b *testing.B, keys []int64, opts ...Option[int64, int64]) {
			m := New[int64, int64](len(keys), opts...)
			for _, k := range keys {
				m.Put(k, k)
			}
			cs := perfbench.Open(b)
			cs.Reset()
			for i := 0; i < b.N; i++ {
				j := i % len(keys)
				m.Delete(keys[j])
				m.Put(keys[j], keys[j])
			}
		})
}
