package clone

import (
	"reflect"

	replicaerrors "github.com/gxo-labs/replica/pkg/replica/v1/errors"
)

// cloneStruct clones a struct held by value.
func (k *call) cloneStruct(dst, src reflect.Value) error {
	t := src.Type()
	if k.ctors != nil && k.ctors.Has(t) {
		ptr, err := k.construct(t)
		if err != nil {
			return err
		}
		dst.Set(ptr.Elem())
	} else {
		dst.SetZero()
	}
	return k.populate(dst, src)
}

// populate copies every eligible field of src into dst, which already holds
// a freshly constructed instance. Excluded fields keep the constructed value.
func (k *call) populate(dst, src reflect.Value) error {
	src = addressable(src)
	owner := src.Type()
	for _, fd := range k.fields.Fields(owner) {
		if k.cfg.IsExcluded(fd.Name) {
			continue
		}
		sf, err := readable(src.FieldByIndex(fd.Index))
		if err != nil {
			return k.fieldAccess(owner, fd.Name, err)
		}
		df, err := readable(dst.FieldByIndex(fd.Index))
		if err != nil {
			return k.fieldAccess(owner, fd.Name, err)
		}

		if fd.Final && !df.IsZero() {
			k.path.pushField(fd.Name)
			k.observer.FinalFieldSkipped(owner, fd.Name, k.path.String())
			k.path.pop()
			continue
		}
		if fd.Shallow {
			df.Set(sf)
			continue
		}

		k.path.pushField(fd.Name)
		err = k.cloneInto(df, sf)
		k.path.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

func (k *call) fieldAccess(owner reflect.Type, field string, cause error) error {
	k.path.pushField(field)
	defer k.path.pop()
	return k.fail(replicaerrors.NewFieldAccessError(owner.String(), field, cause))
}
