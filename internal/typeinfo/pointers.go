package typeinfo

import (
	"reflect"
	"sync"
)

var pointerCache sync.Map // reflect.Type -> bool

// HasPointers reports whether a value of type t can reference memory that
// the cloner tracks: pointers, maps, slices and interfaces, directly or
// through struct fields and array elements. Strings, channels and funcs are
// leaves and do not count.
func HasPointers(t reflect.Type) bool {
	if v, ok := pointerCache.Load(t); ok {
		return v.(bool)
	}
	has := hasPointers(t)
	pointerCache.Store(t, has)
	return has
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return true
	case reflect.Array:
		return t.Len() > 0 && HasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if HasPointers(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}
