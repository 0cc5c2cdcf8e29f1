package typeinfo

import (
	"net/netip"
	"net/url"
	"reflect"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ScalarRegistry records the types that are treated as leaf values: value
// types are copied by assignment and pointer-shaped types are shared.
// It is safe for concurrent use.
type ScalarRegistry struct {
	types sync.Map // reflect.Type -> struct{}
}

// defaultScalarTypes are immutable, or safe to share, without any help from
// the cloner.
var defaultScalarTypes = []reflect.Type{
	reflect.TypeFor[time.Time](),
	reflect.TypeFor[*time.Location](),
	reflect.TypeFor[uuid.UUID](),
	reflect.TypeFor[url.URL](),
	reflect.TypeFor[netip.Addr](),
	reflect.TypeFor[netip.Prefix](),
	reflect.TypeFor[netip.AddrPort](),
	reflect.TypeFor[*regexp.Regexp](),
	reflect.TypeFor[reflect.Value](),
	reflect.TypeOf(reflect.TypeFor[int]()),
}

// NewScalarRegistry returns a registry preloaded with the default scalar
// types plus extra.
func NewScalarRegistry(extra ...reflect.Type) *ScalarRegistry {
	r := &ScalarRegistry{}
	r.Register(defaultScalarTypes...)
	r.Register(extra...)
	return r
}

// Register marks types as scalar. Nil entries are ignored.
func (r *ScalarRegistry) Register(types ...reflect.Type) {
	for _, t := range types {
		if t != nil {
			r.types.Store(t, struct{}{})
		}
	}
}

// IsScalar reports whether t was registered.
func (r *ScalarRegistry) IsScalar(t reflect.Type) bool {
	_, ok := r.types.Load(t)
	return ok
}
