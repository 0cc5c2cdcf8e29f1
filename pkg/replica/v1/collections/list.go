package collections

import "container/list"

// LinkedList is a doubly linked list usable as a queue, a stack or a
// double-ended queue. The zero value is an empty list ready to use.
type LinkedList[T any] struct {
	l list.List
}

// NewLinkedList returns a list holding items in order.
func NewLinkedList[T any](items ...T) *LinkedList[T] {
	ll := &LinkedList[T]{}
	for _, it := range items {
		ll.PushBack(it)
	}
	return ll
}

// PushBack appends v at the tail.
func (ll *LinkedList[T]) PushBack(v T) { ll.l.PushBack(v) }

// PushFront prepends v at the head.
func (ll *LinkedList[T]) PushFront(v T) { ll.l.PushFront(v) }

// PopFront removes and returns the head element.
func (ll *LinkedList[T]) PopFront() (T, bool) {
	return ll.remove(ll.l.Front())
}

// PopBack removes and returns the tail element.
func (ll *LinkedList[T]) PopBack() (T, bool) {
	return ll.remove(ll.l.Back())
}

// Front returns the head element without removing it.
func (ll *LinkedList[T]) Front() (T, bool) {
	return value[T](ll.l.Front())
}

// Back returns the tail element without removing it.
func (ll *LinkedList[T]) Back() (T, bool) {
	return value[T](ll.l.Back())
}

// Len returns the number of elements.
func (ll *LinkedList[T]) Len() int { return ll.l.Len() }

// Range calls fn for each element from head to tail until fn returns false.
func (ll *LinkedList[T]) Range(fn func(T) bool) {
	for e := ll.l.Front(); e != nil; e = e.Next() {
		v, _ := e.Value.(T)
		if !fn(v) {
			return
		}
	}
}

// Values returns the elements from head to tail.
func (ll *LinkedList[T]) Values() []T {
	out := make([]T, 0, ll.l.Len())
	ll.Range(func(v T) bool {
		out = append(out, v)
		return true
	})
	return out
}

func (ll *LinkedList[T]) RangeAny(fn func(any) bool) {
	ll.Range(func(v T) bool { return fn(v) })
}

func (ll *LinkedList[T]) EmptyLike() Sequence { return &LinkedList[T]{} }

func (ll *LinkedList[T]) AppendAny(elem any) error {
	v, err := as[T](elem)
	if err != nil {
		return err
	}
	ll.PushBack(v)
	return nil
}

func (ll *LinkedList[T]) remove(e *list.Element) (T, bool) {
	if e == nil {
		var zero T
		return zero, false
	}
	v, _ := ll.l.Remove(e).(T)
	return v, true
}

func value[T any](e *list.Element) (T, bool) {
	if e == nil {
		var zero T
		return zero, false
	}
	v, _ := e.Value.(T)
	return v, true
}

var _ Sequence = (*LinkedList[int])(nil)
