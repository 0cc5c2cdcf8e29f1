package clone

import (
	"reflect"

	replicaerrors "github.com/gxo-labs/replica/pkg/replica/v1/errors"
)

// identityKey identifies one original object that is not covered by a
// scanned region: maps, capability collections, and pointers or slices
// whose region has no common layout. Pointers and slices carry the element
// type because a struct and its first field share an address; slices also
// carry their length and capacity since reslices share a data pointer.
type identityKey struct {
	addr     uintptr
	typ      reflect.Type
	len, cap int
}

// identityRegistry maps originals to their clones for the duration of a
// single top-level call.
type identityRegistry map[identityKey]reflect.Value

// keyOf returns the identity of a pointer, map or slice. Zero-size
// allocations share one runtime address and are never given an identity.
// Map keys hold only the address, since no two live maps share one.
func keyOf(v reflect.Value) (identityKey, bool) {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() || v.Type().Elem().Size() == 0 {
			return identityKey{}, false
		}
		return identityKey{addr: v.Pointer(), typ: v.Type().Elem()}, true
	case reflect.Map:
		if v.IsNil() {
			return identityKey{}, false
		}
		return identityKey{addr: v.Pointer()}, true
	case reflect.Slice:
		if v.Cap() == 0 || v.Type().Elem().Size() == 0 {
			return identityKey{}, false
		}
		return identityKey{addr: v.Pointer(), typ: v.Type().Elem(), len: v.Len(), cap: v.Cap()}, true
	}
	return identityKey{}, false
}

// lookup returns the clone registered for key as a value of type want.
// The same object may be reached through differently named types, such as
// *Node and a `type NodeRef *Node`; the clone is converted between them.
// A registered clone that cannot be converted means the registry is
// corrupt.
func (r identityRegistry) lookup(key identityKey, want reflect.Type) (reflect.Value, bool, error) {
	clone, ok := r[key]
	if !ok {
		return reflect.Value{}, false, nil
	}
	if clone.Type() == want {
		return clone, true, nil
	}
	if !clone.Type().ConvertibleTo(want) {
		return reflect.Value{}, false, replicaerrors.NewCycleStateError(want.String(), clone.Type().String())
	}
	return clone.Convert(want), true, nil
}

func (r identityRegistry) store(key identityKey, clone reflect.Value) {
	r[key] = clone
}
