package state_test

import (
	"fmt"
	"testing"

	"github.com/gxo-labs/replica/internal/engine"
	"github.com/gxo-labs/replica/internal/state"
)

// benchmarkResult keeps the compiler from eliding benchmarked calls.
var benchmarkResult interface{}

func createNestedMap(depth, width int) map[string]interface{} {
	if depth <= 0 {
		return map[string]interface{}{"leaf_key": "leaf_value"}
	}
	m := make(map[string]interface{}, width)
	for i := 0; i < width; i++ {
		m[fmt.Sprintf("key_d%d_w%d", depth, i)] = createNestedMap(depth-1, width)
	}
	return m
}

var largeNestedMap = createNestedMap(4, 10)

func newBenchStore(b *testing.B) *state.MemoryStateStore {
	b.Helper()
	e, err := engine.NewEngine(nil)
	if err != nil {
		b.Fatal(err)
	}
	store, err := state.NewMemoryStateStore(e)
	if err != nil {
		b.Fatal(err)
	}
	if err := store.Set("test_key", largeNestedMap); err != nil {
		b.Fatal(err)
	}
	return store
}

// BenchmarkGet_DirectReference is the no-copy baseline.
func BenchmarkGet_DirectReference(b *testing.B) {
	m := map[string]interface{}{"test_key": largeNestedMap}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		benchmarkResult = m["test_key"]
	}
}

// BenchmarkGet_DeepClone measures a cloned read of a 10^4-leaf map.
func BenchmarkGet_DeepClone(b *testing.B) {
	store := newBenchStore(b)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		benchmarkResult, _, _ = store.Get("test_key")
	}
}

func BenchmarkGetAll_DeepClone(b *testing.B) {
	store := newBenchStore(b)
	_ = store.Set("a.b.c", []interface{}{1, "two", 3.0})
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		benchmarkResult, _ = store.GetAll()
	}
}
