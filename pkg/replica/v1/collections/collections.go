// Package collections provides container types whose ordering and
// construction rules survive a deep clone, together with the small
// capability interfaces the cloner uses to rebuild any container that
// implements them.
//
// A container opts in by implementing one of Sequence, Set, Map or Optional.
// The cloner asks the original for an empty instance of the same variant
// (EmptyLike), registers it, and then inserts clones of every element in
// iteration order. Sorted containers hand their comparator to the empty
// instance as-is, so the clone orders elements exactly like the original.
package collections

import (
	"fmt"
	"reflect"
)

// Comparator orders two values: negative when a sorts before b, zero when
// they are equivalent, positive otherwise.
type Comparator[T any] func(a, b T) int

// Sequence is an ordered container rebuilt by appending elements.
type Sequence interface {
	Len() int
	// RangeAny calls fn for each element in order until fn returns false.
	RangeAny(fn func(elem any) bool)
	// EmptyLike returns a new, empty container of the same concrete type.
	EmptyLike() Sequence
	// AppendAny appends elem, failing when it has the wrong type.
	AppendAny(elem any) error
}

// Set is a container of unique elements rebuilt by adding elements.
type Set interface {
	Len() int
	RangeAny(fn func(elem any) bool)
	EmptyLike() Set
	AddAny(elem any) error
}

// Map is a key/value container rebuilt by putting entries.
type Map interface {
	Len() int
	RangeAny(fn func(key, value any) bool)
	EmptyLike() Map
	PutAny(key, value any) error
}

// Optional is a container holding zero or one value.
type Optional interface {
	IsPresent() bool
	// ValueAny returns the held value, or nil when absent.
	ValueAny() any
	EmptyLike() Optional
	// OfAny returns a present Optional of the same type holding value.
	OfAny(value any) (Optional, error)
}

// as converts an untyped element back to T. A nil element is accepted for
// element types that have a nil value.
func as[T any](v any) (T, error) {
	if t, ok := v.(T); ok {
		return t, nil
	}
	var zero T
	typ := reflect.TypeFor[T]()
	if v == nil {
		switch typ.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
			return zero, nil
		}
	}
	return zero, fmt.Errorf("collections: %T is not assignable to %s", v, typ)
}
