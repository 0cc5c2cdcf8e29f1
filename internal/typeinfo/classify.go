// Package typeinfo answers the two questions the cloner asks about a type:
// how values of it are cloned (Classify) and which of its fields carry
// state (FieldCache). Both answers depend only on the type and are cached
// for the life of the process.
package typeinfo

import (
	"reflect"
	"sync"

	"github.com/gxo-labs/replica/pkg/replica/v1/collections"
)

// Classification is the cloning strategy for a type.
type Classification int

const (
	Scalar Classification = iota
	Array
	OrderedSequence
	Set
	MapLike
	Optional
	Composite
	ClassificationTotal
)

var classificationNames = [ClassificationTotal]string{
	"Scalar",
	"Array",
	"OrderedSequence",
	"Set",
	"MapLike",
	"Optional",
	"Composite",
}

func (c Classification) String() string {
	if c < 0 || c >= ClassificationTotal {
		return "Unknown"
	}
	return classificationNames[c]
}

var (
	sequenceType = reflect.TypeFor[collections.Sequence]()
	setType      = reflect.TypeFor[collections.Set]()
	mapType      = reflect.TypeFor[collections.Map]()
	optionalType = reflect.TypeFor[collections.Optional]()
)

// Classifier maps types to their Classification. Results are cached per
// type; registering a scalar drops the cache.
type Classifier struct {
	scalars *ScalarRegistry
	cache   sync.Map // reflect.Type -> classified
}

type classified struct {
	cl         Classification
	capability bool
}

// NewClassifier returns a Classifier backed by scalars. A nil registry gets
// the default scalar set.
func NewClassifier(scalars *ScalarRegistry) *Classifier {
	if scalars == nil {
		scalars = NewScalarRegistry()
	}
	return &Classifier{scalars: scalars}
}

// Scalars returns the registry the classifier consults.
func (c *Classifier) Scalars() *ScalarRegistry { return c.scalars }

// RegisterScalar marks types as scalar and forgets cached results.
func (c *Classifier) RegisterScalar(types ...reflect.Type) {
	c.scalars.Register(types...)
	c.cache.Range(func(k, _ any) bool {
		c.cache.Delete(k)
		return true
	})
}

// Classify returns the strategy for t. Interface types classify as Optional:
// they are nullable wrappers around a dynamic value.
func (c *Classifier) Classify(t reflect.Type) Classification {
	return c.lookup(t).cl
}

// IsCapability reports whether t is rebuilt through a collections interface
// rather than by its kind.
func (c *Classifier) IsCapability(t reflect.Type) bool {
	return c.lookup(t).capability
}

func (c *Classifier) lookup(t reflect.Type) classified {
	if v, ok := c.cache.Load(t); ok {
		return v.(classified)
	}
	_, capable := capability(t)
	entry := classified{cl: c.classify(t), capability: capable && !c.scalars.IsScalar(t)}
	c.cache.Store(t, entry)
	return entry
}

func (c *Classifier) classify(t reflect.Type) Classification {
	if c.scalars.IsScalar(t) {
		return Scalar
	}
	if cl, ok := capability(t); ok {
		return cl
	}
	switch t.Kind() {
	case reflect.Array:
		return Array
	case reflect.Slice:
		return OrderedSequence
	case reflect.Map:
		if isEmptyStruct(t.Elem()) {
			return Set
		}
		return MapLike
	case reflect.Pointer:
		if el := t.Elem(); el.Kind() == reflect.Struct && c.classify(el) == Composite {
			return Composite
		}
		return Optional
	case reflect.Interface:
		return Optional
	case reflect.Struct:
		return Composite
	default:
		// bool, numbers, string, chan, func, unsafe.Pointer
		return Scalar
	}
}

// capability reports the classification of t when it implements one of the
// collections interfaces. A pointer whose element already implements the
// interface is left to the pointer rules so its identity is kept.
func capability(t reflect.Type) (Classification, bool) {
	if t.Kind() == reflect.Pointer {
		if _, ok := implements(t.Elem()); ok {
			return 0, false
		}
	}
	return implements(t)
}

func implements(t reflect.Type) (Classification, bool) {
	switch {
	case t.Kind() == reflect.Interface:
		return 0, false
	case t.Implements(sequenceType):
		return OrderedSequence, true
	case t.Implements(setType):
		return Set, true
	case t.Implements(mapType):
		return MapLike, true
	case t.Implements(optionalType):
		return Optional, true
	}
	return 0, false
}

func isEmptyStruct(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.NumField() == 0
}
