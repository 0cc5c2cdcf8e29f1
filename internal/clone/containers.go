package clone

import (
	"fmt"
	"reflect"

	"github.com/gxo-labs/replica/internal/typeinfo"
	"github.com/gxo-labs/replica/pkg/replica/v1/collections"
)

var (
	genericMapType   = reflect.TypeFor[map[string]interface{}]()
	genericSliceType = reflect.TypeFor[[]interface{}]()
)

// remembered returns the clone already registered for src, if any.
func (k *call) remembered(src reflect.Value) (identityKey, bool, reflect.Value, error) {
	key, tracked := keyOf(src)
	if !tracked {
		return key, false, reflect.Value{}, nil
	}
	hit, ok, err := k.seen.lookup(key, src.Type())
	if err != nil {
		return key, true, reflect.Value{}, k.fail(err)
	}
	if ok {
		return key, true, hit, nil
	}
	return key, true, reflect.Value{}, nil
}

func (k *call) cloneArray(dst, src reflect.Value) error {
	if k.classifier.Classify(src.Type().Elem()) == typeinfo.Scalar {
		dst.Set(src)
		return nil
	}
	for i := 0; i < src.Len(); i++ {
		k.path.pushIndex(i)
		err := k.cloneInto(dst.Index(i), src.Index(i))
		k.path.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

// cloneSlice clones a slice. A slice over scanned memory becomes a window
// of the same length and capacity onto the clone of its region, so reslices
// of one array share one cloned array.
func (k *call) cloneSlice(dst, src reflect.Value) error {
	if el := src.Type().Elem(); src.Cap() > 0 && el.Size() > 0 {
		arr, ok, err := k.resolve(src.UnsafePointer(), reflect.ArrayOf(src.Cap(), el))
		if err != nil {
			return err
		}
		if ok {
			dst.Set(arr.Elem().Slice3(0, src.Len(), src.Cap()).Convert(src.Type()))
			return nil
		}
	}

	key, tracked, hit, err := k.remembered(src)
	if err != nil {
		return err
	}
	if hit.IsValid() {
		dst.Set(hit)
		return nil
	}

	if src.Type() == genericSliceType {
		return k.cloneGenericSlice(dst, src, key, tracked)
	}

	out := reflect.MakeSlice(src.Type(), src.Len(), src.Cap())
	if tracked {
		k.seen.store(key, out)
	}
	dst.Set(out)

	if k.classifier.Classify(src.Type().Elem()) == typeinfo.Scalar {
		reflect.Copy(out, src)
		return nil
	}
	for i := 0; i < src.Len(); i++ {
		k.path.pushIndex(i)
		err := k.cloneInto(out.Index(i), src.Index(i))
		k.path.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

// cloneGenericSlice is the fast path for []interface{}, the shape produced
// by YAML and JSON decoding.
func (k *call) cloneGenericSlice(dst, src reflect.Value, key identityKey, tracked bool) error {
	in := src.Interface().([]interface{})
	out := make([]interface{}, len(in), cap(in))
	outV := reflect.ValueOf(out)
	if tracked {
		k.seen.store(key, outV)
	}
	dst.Set(outV)
	for i, v := range in {
		k.path.pushIndex(i)
		cv, err := k.cloneAny(v)
		k.path.pop()
		if err != nil {
			return err
		}
		out[i] = cv
	}
	return nil
}

func (k *call) cloneMap(dst, src reflect.Value) error {
	key, tracked, hit, err := k.remembered(src)
	if err != nil {
		return err
	}
	if hit.IsValid() {
		dst.Set(hit)
		return nil
	}

	if src.Type() == genericMapType {
		return k.cloneGenericMap(dst, src, key, tracked)
	}

	out := reflect.MakeMapWithSize(src.Type(), src.Len())
	if tracked {
		k.seen.store(key, out)
	}
	dst.Set(out)

	iter := src.MapRange()
	for iter.Next() {
		k.path.pushKey(iter.Key())
		ck, err := k.cloneValue(iter.Key())
		if err != nil {
			k.path.pop()
			return err
		}
		cv, err := k.cloneValue(iter.Value())
		k.path.pop()
		if err != nil {
			return err
		}
		out.SetMapIndex(ck, cv)
	}
	return nil
}

// cloneGenericMap is the fast path for map[string]interface{}.
func (k *call) cloneGenericMap(dst, src reflect.Value, key identityKey, tracked bool) error {
	in := src.Interface().(map[string]interface{})
	out := make(map[string]interface{}, len(in))
	outV := reflect.ValueOf(out)
	if tracked {
		k.seen.store(key, outV)
	}
	dst.Set(outV)
	for mk, v := range in {
		k.path.pushStringKey(mk)
		cv, err := k.cloneAny(v)
		k.path.pop()
		if err != nil {
			return err
		}
		out[mk] = cv
	}
	return nil
}

// checkEmptyLike verifies that a collection's EmptyLike kept the concrete
// type, since the clone must be assignable where the original was.
func (k *call) checkEmptyLike(src reflect.Value, empty any) (reflect.Value, error) {
	ev := reflect.ValueOf(empty)
	if !ev.IsValid() || ev.Type() != src.Type() {
		return reflect.Value{}, k.fail(fmt.Errorf("%s.EmptyLike returned %T", src.Type(), empty))
	}
	return ev, nil
}

func (k *call) cloneSequence(dst, src reflect.Value) error {
	key, tracked, hit, err := k.remembered(src)
	if err != nil {
		return err
	}
	if hit.IsValid() {
		dst.Set(hit)
		return nil
	}
	orig := src.Interface().(collections.Sequence)
	empty := orig.EmptyLike()
	ev, err := k.checkEmptyLike(src, empty)
	if err != nil {
		return err
	}
	if tracked {
		k.seen.store(key, ev)
	}
	dst.Set(ev)

	i := 0
	orig.RangeAny(func(elem any) bool {
		k.path.pushIndex(i)
		defer k.path.pop()
		i++
		var ce any
		if ce, err = k.cloneAny(elem); err != nil {
			return false
		}
		if err = empty.AppendAny(ce); err != nil {
			err = k.fail(err)
			return false
		}
		return true
	})
	return err
}

func (k *call) cloneSet(dst, src reflect.Value) error {
	key, tracked, hit, err := k.remembered(src)
	if err != nil {
		return err
	}
	if hit.IsValid() {
		dst.Set(hit)
		return nil
	}
	orig := src.Interface().(collections.Set)
	empty := orig.EmptyLike()
	ev, err := k.checkEmptyLike(src, empty)
	if err != nil {
		return err
	}
	if tracked {
		k.seen.store(key, ev)
	}
	dst.Set(ev)

	i := 0
	orig.RangeAny(func(elem any) bool {
		k.path.pushIndex(i)
		defer k.path.pop()
		i++
		var ce any
		if ce, err = k.cloneAny(elem); err != nil {
			return false
		}
		if err = empty.AddAny(ce); err != nil {
			err = k.fail(err)
			return false
		}
		return true
	})
	return err
}

func (k *call) cloneMapLike(dst, src reflect.Value) error {
	key, tracked, hit, err := k.remembered(src)
	if err != nil {
		return err
	}
	if hit.IsValid() {
		dst.Set(hit)
		return nil
	}
	orig := src.Interface().(collections.Map)
	empty := orig.EmptyLike()
	ev, err := k.checkEmptyLike(src, empty)
	if err != nil {
		return err
	}
	if tracked {
		k.seen.store(key, ev)
	}
	dst.Set(ev)

	orig.RangeAny(func(mk, mv any) bool {
		k.path.pushKey(reflect.ValueOf(mk))
		defer k.path.pop()
		var ck, cv any
		if ck, err = k.cloneAny(mk); err != nil {
			return false
		}
		if cv, err = k.cloneAny(mv); err != nil {
			return false
		}
		if err = empty.PutAny(ck, cv); err != nil {
			err = k.fail(err)
			return false
		}
		return true
	})
	return err
}

// cloneOptional unwraps a collections.Optional, clones the held value and
// rewraps it. Absent optionals clone to an absent optional.
func (k *call) cloneOptional(dst, src reflect.Value) error {
	orig := src.Interface().(collections.Optional)
	if !orig.IsPresent() {
		ev, err := k.checkEmptyLike(src, orig.EmptyLike())
		if err != nil {
			return err
		}
		dst.Set(ev)
		return nil
	}
	cv, err := k.cloneAny(orig.ValueAny())
	if err != nil {
		return err
	}
	wrapped, err := orig.OfAny(cv)
	if err != nil {
		return k.fail(err)
	}
	ev, err := k.checkEmptyLike(src, wrapped)
	if err != nil {
		return err
	}
	dst.Set(ev)
	return nil
}
