package clone

import (
	"errors"
	"reflect"
	"unsafe"

	"github.com/gxo-labs/replica/internal/typeinfo"
)

// cloneInto writes a deep copy of src into dst. dst must be settable and of
// the same type as src; src must be readable.
func (k *call) cloneInto(dst, src reflect.Value) error {
	// Fast path: basic kinds are copied by assignment.
	switch src.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		dst.Set(src)
		return nil
	case reflect.Interface:
		return k.cloneInterface(dst, src)
	case reflect.Pointer, reflect.Map, reflect.Slice:
		if src.IsNil() {
			dst.SetZero()
			return nil
		}
	}

	t := src.Type()
	cl, capable := k.classifier.Classify(t), k.classifier.IsCapability(t)
	switch cl {
	case typeinfo.Scalar:
		dst.Set(src)
		return nil
	case typeinfo.Array:
		return k.cloneArray(dst, src)
	case typeinfo.OrderedSequence:
		if !capable {
			return k.cloneSlice(dst, src)
		}
		return k.cloneSequence(dst, src)
	case typeinfo.Set, typeinfo.MapLike:
		if !capable {
			return k.cloneMap(dst, src)
		}
		if cl == typeinfo.Set {
			return k.cloneSet(dst, src)
		}
		return k.cloneMapLike(dst, src)
	case typeinfo.Optional:
		if !capable {
			return k.clonePointer(dst, src, false)
		}
		return k.cloneOptional(dst, src)
	default:
		if src.Kind() == reflect.Pointer {
			return k.clonePointer(dst, src, true)
		}
		return k.cloneStruct(dst, src)
	}
}

// cloneValue returns a new settable value holding a deep copy of src.
func (k *call) cloneValue(src reflect.Value) (reflect.Value, error) {
	dst := reflect.New(src.Type()).Elem()
	if err := k.cloneInto(dst, src); err != nil {
		return reflect.Value{}, err
	}
	return dst, nil
}

// cloneAny deep-copies an element handed out by a capability collection.
func (k *call) cloneAny(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	out, err := k.cloneValue(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

func (k *call) cloneInterface(dst, src reflect.Value) error {
	if src.IsNil() {
		dst.SetZero()
		return nil
	}
	out, err := k.cloneValue(src.Elem())
	if err != nil {
		return err
	}
	dst.Set(out)
	return nil
}

// clonePointer clones the pointee of src. A pointer into memory that was
// scanned resolves into the clone of its region; any other pointer gets a
// new allocation, built through the construction chain for composite
// pointees. The new pointer is registered before the pointee is filled so
// cycles resolve to it.
func (k *call) clonePointer(dst, src reflect.Value, composite bool) error {
	elemType := src.Type().Elem()
	if elemType.Size() > 0 {
		ptr, ok, err := k.resolve(src.UnsafePointer(), elemType)
		if err != nil {
			return err
		}
		if ok {
			dst.Set(ptr.Convert(src.Type()))
			return nil
		}
	}

	key, tracked := keyOf(src)
	if tracked {
		hit, ok, err := k.seen.lookup(key, src.Type())
		if err != nil {
			return k.fail(err)
		}
		if ok {
			dst.Set(hit)
			return nil
		}
	}

	var ptr reflect.Value
	if composite {
		var err error
		if ptr, err = k.construct(elemType); err != nil {
			return err
		}
	} else {
		ptr = reflect.New(elemType)
	}
	ptr = ptr.Convert(src.Type())
	if tracked {
		k.seen.store(key, ptr)
	}
	dst.Set(ptr)

	if composite {
		return k.populate(ptr.Elem(), src.Elem())
	}
	return k.cloneInto(ptr.Elem(), src.Elem())
}

var errNoAccess = errors.New("value is neither addressable nor exported")

// readable makes a value obtained through unexported fields usable with
// Set and Interface. Values that are read-only and not addressable cannot
// be opened up.
func readable(v reflect.Value) (reflect.Value, error) {
	if v.CanInterface() && (!v.CanAddr() || v.CanSet()) {
		return v, nil
	}
	if !v.CanAddr() {
		return reflect.Value{}, errNoAccess
	}
	return reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem(), nil
}

// addressable returns v itself if it is addressable, otherwise an
// addressable copy. Read-only values cannot be copied and are returned
// as they are.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() || !v.CanInterface() {
		return v
	}
	tmp := reflect.New(v.Type()).Elem()
	tmp.Set(v)
	return tmp
}
