// Package clone implements the deep-copy traversal. A first pass records
// the memory reached through pointers and slices; a depth-first walk then
// classifies each value, resolves references through those regions or a
// per-call identity registry to preserve shared references and cycles, and
// rebuilds containers and structs.
package clone

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/gxo-labs/replica/internal/typeinfo"
	"github.com/gxo-labs/replica/pkg/replica/v1/config"
	pubconstruct "github.com/gxo-labs/replica/pkg/replica/v1/construct"
	replicaerrors "github.com/gxo-labs/replica/pkg/replica/v1/errors"
)

// Observer receives notifications about noteworthy decisions taken during a
// clone. Methods are called on the cloning goroutine.
type Observer interface {
	// FinalFieldSkipped reports a `clone:"final"` field that kept the value
	// assigned by its constructor.
	FinalFieldSkipped(owner reflect.Type, field string, path string)
	// ConstructorFallback reports a constructor that failed before another
	// candidate was tried.
	ConstructorFallback(t reflect.Type, failure pubconstruct.Failure)
}

type nopObserver struct{}

func (nopObserver) FinalFieldSkipped(reflect.Type, string, string) {}
func (nopObserver) ConstructorFallback(reflect.Type, pubconstruct.Failure) {}

// Cloner holds the shared, concurrency-safe state used by every clone call:
// the classifier, the field metadata cache and the constructor registry.
// A Cloner is safe for concurrent use; each call gets its own registry.
type Cloner struct {
	classifier *typeinfo.Classifier
	fields     *typeinfo.FieldCache
	ctors      pubconstruct.Registry
}

// New returns a Cloner. A nil classifier or field cache is replaced by a
// fresh one; a nil constructor registry allocates every struct with its
// zero value.
func New(classifier *typeinfo.Classifier, fields *typeinfo.FieldCache, ctors pubconstruct.Registry) *Cloner {
	if classifier == nil {
		classifier = typeinfo.NewClassifier(nil)
	}
	if fields == nil {
		fields = typeinfo.NewFieldCache(classifier)
	}
	return &Cloner{classifier: classifier, fields: fields, ctors: ctors}
}

// Clone returns a deep copy of src. A nil src yields nil.
func (c *Cloner) Clone(src any, cfg *config.Config) (any, error) {
	if src == nil {
		return nil, nil
	}
	out, err := c.CloneValue(reflect.ValueOf(src), cfg, nil)
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

// CloneValue returns a deep copy of src with the same static type. On
// failure the partial result is discarded and the error is a
// *errors.CloneError naming the root type and the path to the failure.
// obs may be nil.
func (c *Cloner) CloneValue(src reflect.Value, cfg *config.Config, obs Observer) (out reflect.Value, err error) {
	if !src.IsValid() {
		return src, nil
	}
	if obs == nil {
		obs = nopObserver{}
	}
	k := &call{Cloner: c, cfg: cfg, observer: obs, seen: make(identityRegistry)}
	defer func() {
		if rec := recover(); rec != nil {
			out = reflect.Value{}
			err = replicaerrors.NewCloneError(src.Type().String(), k.path.String(), fmt.Errorf("panic: %v", rec))
		}
	}()

	k.regions = k.scanRegions(src)
	dst := reflect.New(src.Type()).Elem()
	if err := k.cloneInto(dst, src); err != nil {
		var ce *replicaerrors.CloneError
		if errors.As(err, &ce) && ce.TypeName == "" {
			ce.TypeName = src.Type().String()
		}
		return reflect.Value{}, err
	}
	return dst, nil
}

// call is the state of one top-level clone.
type call struct {
	*Cloner
	cfg      *config.Config
	observer Observer
	seen     identityRegistry
	regions  regionTable
	path     path
}

// fail wraps err with the current path unless it already carries one.
func (k *call) fail(err error) error {
	var ce *replicaerrors.CloneError
	if errors.As(err, &ce) {
		return err
	}
	return replicaerrors.NewCloneError("", k.path.String(), err)
}

// construct returns a pointer to a fresh instance of struct type t.
func (k *call) construct(t reflect.Type) (reflect.Value, error) {
	if k.ctors == nil || !k.ctors.Has(t) {
		return reflect.New(t), nil
	}
	ptr, failures, err := k.ctors.Construct(t)
	for _, f := range failures {
		k.observer.ConstructorFallback(t, f)
	}
	if err != nil {
		return reflect.Value{}, k.fail(err)
	}
	return ptr, nil
}
