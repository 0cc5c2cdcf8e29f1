package collections

import (
	"cmp"

	"github.com/google/btree"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// treeDegree is the B-tree node degree used by TreeSet and TreeMap.
const treeDegree = 16

// HashSet is an unordered set of comparable values.
type HashSet[T comparable] struct {
	m map[T]struct{}
}

// NewHashSet returns a set holding items.
func NewHashSet[T comparable](items ...T) *HashSet[T] {
	s := &HashSet[T]{m: make(map[T]struct{}, len(items))}
	for _, it := range items {
		s.m[it] = struct{}{}
	}
	return s
}

// Add inserts v and reports whether it was not already present.
func (s *HashSet[T]) Add(v T) bool {
	if s.m == nil {
		s.m = make(map[T]struct{})
	}
	if _, ok := s.m[v]; ok {
		return false
	}
	s.m[v] = struct{}{}
	return true
}

func (s *HashSet[T]) Contains(v T) bool {
	_, ok := s.m[v]
	return ok
}

func (s *HashSet[T]) Remove(v T) bool {
	if _, ok := s.m[v]; !ok {
		return false
	}
	delete(s.m, v)
	return true
}

func (s *HashSet[T]) Len() int { return len(s.m) }

// Range visits elements in unspecified order.
func (s *HashSet[T]) Range(fn func(T) bool) {
	for v := range s.m {
		if !fn(v) {
			return
		}
	}
}

func (s *HashSet[T]) RangeAny(fn func(any) bool) {
	s.Range(func(v T) bool { return fn(v) })
}

func (s *HashSet[T]) EmptyLike() Set { return NewHashSet[T]() }

func (s *HashSet[T]) AddAny(elem any) error {
	v, err := as[T](elem)
	if err != nil {
		return err
	}
	s.Add(v)
	return nil
}

// LinkedHashSet is a set that iterates in insertion order.
type LinkedHashSet[T comparable] struct {
	m *orderedmap.OrderedMap[T, struct{}]
}

// NewLinkedHashSet returns a set holding items in first-seen order.
func NewLinkedHashSet[T comparable](items ...T) *LinkedHashSet[T] {
	s := &LinkedHashSet[T]{m: orderedmap.New[T, struct{}]()}
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Add inserts v at the end of the iteration order unless already present.
func (s *LinkedHashSet[T]) Add(v T) bool {
	if _, present := s.m.Get(v); present {
		return false
	}
	s.m.Set(v, struct{}{})
	return true
}

func (s *LinkedHashSet[T]) Contains(v T) bool {
	_, present := s.m.Get(v)
	return present
}

func (s *LinkedHashSet[T]) Remove(v T) bool {
	_, present := s.m.Delete(v)
	return present
}

func (s *LinkedHashSet[T]) Len() int { return s.m.Len() }

// Range visits elements in insertion order.
func (s *LinkedHashSet[T]) Range(fn func(T) bool) {
	for p := s.m.Oldest(); p != nil; p = p.Next() {
		if !fn(p.Key) {
			return
		}
	}
}

// Values returns the elements in insertion order.
func (s *LinkedHashSet[T]) Values() []T {
	out := make([]T, 0, s.m.Len())
	s.Range(func(v T) bool {
		out = append(out, v)
		return true
	})
	return out
}

func (s *LinkedHashSet[T]) RangeAny(fn func(any) bool) {
	s.Range(func(v T) bool { return fn(v) })
}

func (s *LinkedHashSet[T]) EmptyLike() Set { return NewLinkedHashSet[T]() }

func (s *LinkedHashSet[T]) AddAny(elem any) error {
	v, err := as[T](elem)
	if err != nil {
		return err
	}
	s.Add(v)
	return nil
}

// TreeSet is a set kept sorted by a Comparator. Elements comparing equal
// are considered duplicates.
type TreeSet[T any] struct {
	cmp  Comparator[T]
	tree *btree.BTreeG[T]
}

// NewTreeSet returns a set ordered by c holding items.
func NewTreeSet[T any](c Comparator[T], items ...T) *TreeSet[T] {
	s := &TreeSet[T]{
		cmp:  c,
		tree: btree.NewG[T](treeDegree, func(a, b T) bool { return c(a, b) < 0 }),
	}
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// NewOrderedTreeSet returns a set in the natural ordering of T.
func NewOrderedTreeSet[T cmp.Ordered](items ...T) *TreeSet[T] {
	return NewTreeSet[T](cmp.Compare[T], items...)
}

// Comparator returns the ordering function of the set.
func (s *TreeSet[T]) Comparator() Comparator[T] { return s.cmp }

// Add inserts v and reports whether no equivalent element was present.
func (s *TreeSet[T]) Add(v T) bool {
	if s.tree.Has(v) {
		return false
	}
	s.tree.ReplaceOrInsert(v)
	return true
}

func (s *TreeSet[T]) Contains(v T) bool { return s.tree.Has(v) }

func (s *TreeSet[T]) Remove(v T) bool {
	_, ok := s.tree.Delete(v)
	return ok
}

func (s *TreeSet[T]) Len() int { return s.tree.Len() }

// First returns the smallest element.
func (s *TreeSet[T]) First() (T, bool) { return s.tree.Min() }

// Last returns the largest element.
func (s *TreeSet[T]) Last() (T, bool) { return s.tree.Max() }

// Range visits elements in ascending order.
func (s *TreeSet[T]) Range(fn func(T) bool) {
	s.tree.Ascend(func(v T) bool { return fn(v) })
}

// Values returns the elements in ascending order.
func (s *TreeSet[T]) Values() []T {
	out := make([]T, 0, s.tree.Len())
	s.Range(func(v T) bool {
		out = append(out, v)
		return true
	})
	return out
}

func (s *TreeSet[T]) RangeAny(fn func(any) bool) {
	s.Range(func(v T) bool { return fn(v) })
}

// EmptyLike returns an empty set sharing this set's comparator.
func (s *TreeSet[T]) EmptyLike() Set { return NewTreeSet[T](s.cmp) }

func (s *TreeSet[T]) AddAny(elem any) error {
	v, err := as[T](elem)
	if err != nil {
		return err
	}
	s.Add(v)
	return nil
}

var (
	_ Set = (*HashSet[int])(nil)
	_ Set = (*LinkedHashSet[int])(nil)
	_ Set = (*TreeSet[int])(nil)
)
