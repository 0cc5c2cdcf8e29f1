package collections_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gxo-labs/replica/pkg/replica/v1/collections"
)

func TestLinkedList_DequeOperations(t *testing.T) {
	ll := collections.NewLinkedList(2, 3)
	ll.PushFront(1)
	ll.PushBack(4)
	assert.Equal(t, []int{1, 2, 3, 4}, ll.Values())

	front, ok := ll.PopFront()
	require.True(t, ok)
	assert.Equal(t, 1, front)
	back, ok := ll.PopBack()
	require.True(t, ok)
	assert.Equal(t, 4, back)

	f, _ := ll.Front()
	b, _ := ll.Back()
	assert.Equal(t, 2, f)
	assert.Equal(t, 3, b)
	assert.Equal(t, 2, ll.Len())

	var empty collections.LinkedList[string]
	_, ok = empty.PopFront()
	assert.False(t, ok, "zero value list is empty and usable")
	empty.PushBack("x")
	assert.Equal(t, []string{"x"}, empty.Values())
}

func TestLinkedList_AppendAny(t *testing.T) {
	ll := collections.NewLinkedList[*int]()
	require.NoError(t, ll.AppendAny(nil), "nil is a valid *int")
	assert.Error(t, ll.AppendAny("not an int pointer"))
	assert.Equal(t, 1, ll.Len())

	seq := ll.EmptyLike()
	assert.IsType(t, &collections.LinkedList[*int]{}, seq)
	assert.Equal(t, 0, seq.Len())
}

func TestLinkedHashSet_KeepsInsertionOrder(t *testing.T) {
	s := collections.NewLinkedHashSet("c", "a", "b")
	assert.False(t, s.Add("a"))
	assert.True(t, s.Add("d"))
	assert.Equal(t, []string{"c", "a", "b", "d"}, s.Values())

	assert.True(t, s.Remove("a"))
	assert.False(t, s.Contains("a"))
	assert.Equal(t, 3, s.Len())
}

func TestHashSet(t *testing.T) {
	s := collections.NewHashSet(1, 2, 2, 3)
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contains(2))
	assert.False(t, s.Add(3))
	assert.True(t, s.Remove(1))
	assert.False(t, s.Remove(1))

	var zero collections.HashSet[int]
	assert.True(t, zero.Add(5), "zero value set allocates on first add")
	assert.Equal(t, 1, zero.Len())
}

func TestTreeSet_CustomComparator(t *testing.T) {
	byLength := func(a, b string) int {
		if d := len(a) - len(b); d != 0 {
			return d
		}
		return strings.Compare(a, b)
	}
	s := collections.NewTreeSet[string](byLength, "ccc", "a", "bb", "aa")
	assert.Equal(t, []string{"a", "aa", "bb", "ccc"}, s.Values())

	first, _ := s.First()
	last, _ := s.Last()
	assert.Equal(t, "a", first)
	assert.Equal(t, "ccc", last)

	empty := s.EmptyLike().(*collections.TreeSet[string])
	require.NoError(t, empty.AddAny("zz"))
	require.NoError(t, empty.AddAny("y"))
	assert.Equal(t, []string{"y", "zz"}, empty.Values(), "EmptyLike keeps the ordering")
	assert.Error(t, empty.AddAny(3))
}

func TestTreeSet_DescendingOrder(t *testing.T) {
	s := collections.NewTreeSet(func(a, b int) int { return b - a }, 1, 5, 3)
	assert.Equal(t, []int{5, 3, 1}, s.Values())
	assert.False(t, s.Add(3))
}

func TestLinkedHashMap(t *testing.T) {
	m := collections.NewLinkedHashMap[string, int]()
	m.Put("z", 1)
	m.Put("a", 2)
	prev, existed := m.Put("z", 3)
	assert.True(t, existed)
	assert.Equal(t, 1, prev)
	assert.Equal(t, []string{"z", "a"}, m.Keys())

	v, ok := m.Get("z")
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = m.Delete("a")
	assert.True(t, ok)
	assert.Equal(t, 1, m.Len())

	assert.Error(t, m.PutAny(1, 1))
	assert.Error(t, m.PutAny("k", "v"))
}

func TestTreeMap(t *testing.T) {
	m := collections.NewOrderedTreeMap[int, string]()
	for _, k := range []int{5, 1, 3} {
		m.Put(k, strings.Repeat("x", k))
	}
	assert.Equal(t, []int{1, 3, 5}, m.Keys())

	v, ok := m.Get(3)
	assert.True(t, ok)
	assert.Equal(t, "xxx", v)

	_, ok = m.Get(4)
	assert.False(t, ok)

	var visited []int
	m.RangeAny(func(k, _ any) bool {
		visited = append(visited, k.(int))
		return len(visited) < 2
	})
	assert.Equal(t, []int{1, 3}, visited, "RangeAny stops when fn returns false")

	assert.NotNil(t, m.Comparator())
	assert.Equal(t, 0, m.EmptyLike().Len())
}

func TestOpt(t *testing.T) {
	some := collections.Some(42)
	v, ok := some.Get()
	assert.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, 42, some.ValueAny())

	none := collections.None[int]()
	assert.False(t, none.IsPresent())
	assert.Nil(t, none.ValueAny())
	assert.Equal(t, 7, none.OrElse(7))

	wrapped, err := none.OfAny(9)
	require.NoError(t, err)
	assert.Equal(t, collections.Some(9), wrapped)

	_, err = none.OfAny("nine")
	assert.Error(t, err)
}
