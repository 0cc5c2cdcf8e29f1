package collections

import (
	"cmp"

	"github.com/google/btree"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// LinkedHashMap is a map that iterates in insertion order. Re-putting an
// existing key keeps its position.
type LinkedHashMap[K comparable, V any] struct {
	m *orderedmap.OrderedMap[K, V]
}

// NewLinkedHashMap returns an empty map.
func NewLinkedHashMap[K comparable, V any]() *LinkedHashMap[K, V] {
	return &LinkedHashMap[K, V]{m: orderedmap.New[K, V]()}
}

// Put stores value under key and returns the previous value, if any.
func (m *LinkedHashMap[K, V]) Put(key K, value V) (V, bool) {
	return m.m.Set(key, value)
}

func (m *LinkedHashMap[K, V]) Get(key K) (V, bool) { return m.m.Get(key) }

func (m *LinkedHashMap[K, V]) Delete(key K) (V, bool) { return m.m.Delete(key) }

func (m *LinkedHashMap[K, V]) Len() int { return m.m.Len() }

// Range visits entries in insertion order.
func (m *LinkedHashMap[K, V]) Range(fn func(K, V) bool) {
	for p := m.m.Oldest(); p != nil; p = p.Next() {
		if !fn(p.Key, p.Value) {
			return
		}
	}
}

// Keys returns the keys in insertion order.
func (m *LinkedHashMap[K, V]) Keys() []K {
	out := make([]K, 0, m.m.Len())
	m.Range(func(k K, _ V) bool {
		out = append(out, k)
		return true
	})
	return out
}

func (m *LinkedHashMap[K, V]) RangeAny(fn func(any, any) bool) {
	m.Range(func(k K, v V) bool { return fn(k, v) })
}

func (m *LinkedHashMap[K, V]) EmptyLike() Map { return NewLinkedHashMap[K, V]() }

func (m *LinkedHashMap[K, V]) PutAny(key, value any) error {
	k, err := as[K](key)
	if err != nil {
		return err
	}
	v, err := as[V](value)
	if err != nil {
		return err
	}
	m.Put(k, v)
	return nil
}

type entry[K, V any] struct {
	key   K
	value V
}

// TreeMap is a map kept sorted by a key Comparator.
type TreeMap[K, V any] struct {
	cmp  Comparator[K]
	tree *btree.BTreeG[entry[K, V]]
}

// NewTreeMap returns an empty map ordered by c.
func NewTreeMap[K, V any](c Comparator[K]) *TreeMap[K, V] {
	return &TreeMap[K, V]{
		cmp: c,
		tree: btree.NewG[entry[K, V]](treeDegree, func(a, b entry[K, V]) bool {
			return c(a.key, b.key) < 0
		}),
	}
}

// NewOrderedTreeMap returns an empty map in the natural ordering of K.
func NewOrderedTreeMap[K cmp.Ordered, V any]() *TreeMap[K, V] {
	return NewTreeMap[K, V](cmp.Compare[K])
}

// Comparator returns the key ordering function of the map.
func (m *TreeMap[K, V]) Comparator() Comparator[K] { return m.cmp }

// Put stores value under key and returns the previous value, if any.
func (m *TreeMap[K, V]) Put(key K, value V) (V, bool) {
	prev, ok := m.tree.ReplaceOrInsert(entry[K, V]{key: key, value: value})
	return prev.value, ok
}

func (m *TreeMap[K, V]) Get(key K) (V, bool) {
	e, ok := m.tree.Get(entry[K, V]{key: key})
	return e.value, ok
}

func (m *TreeMap[K, V]) Delete(key K) (V, bool) {
	e, ok := m.tree.Delete(entry[K, V]{key: key})
	return e.value, ok
}

func (m *TreeMap[K, V]) Len() int { return m.tree.Len() }

// Range visits entries in ascending key order.
func (m *TreeMap[K, V]) Range(fn func(K, V) bool) {
	m.tree.Ascend(func(e entry[K, V]) bool { return fn(e.key, e.value) })
}

// Keys returns the keys in ascending order.
func (m *TreeMap[K, V]) Keys() []K {
	out := make([]K, 0, m.tree.Len())
	m.Range(func(k K, _ V) bool {
		out = append(out, k)
		return true
	})
	return out
}

func (m *TreeMap[K, V]) RangeAny(fn func(any, any) bool) {
	m.Range(func(k K, v V) bool { return fn(k, v) })
}

// EmptyLike returns an empty map sharing this map's comparator.
func (m *TreeMap[K, V]) EmptyLike() Map { return NewTreeMap[K, V](m.cmp) }

func (m *TreeMap[K, V]) PutAny(key, value any) error {
	k, err := as[K](key)
	if err != nil {
		return err
	}
	v, err := as[V](value)
	if err != nil {
		return err
	}
	m.Put(k, v)
	return nil
}

var (
	_ Map = (*LinkedHashMap[string, int])(nil)
	_ Map = (*TreeMap[string, int])(nil)
)
