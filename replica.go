// Package replica deep-copies arbitrary Go values.
//
// A clone is structurally equal to its source and shares no mutable state
// with it: maps, slices, pointers and structs are rebuilt recursively, while
// immutable leaves such as strings, numbers and time.Time are reused. Shared
// references and cycles in the source graph are reproduced in the clone.
//
// The package-level functions use a process-wide cloner. Hosts that want
// logging, metrics, tracing or events build their own with NewCloner.
package replica

import (
	"context"
	"reflect"
	"sync"

	intConstruct "github.com/gxo-labs/replica/internal/construct"
	"github.com/gxo-labs/replica/internal/engine"
	"github.com/gxo-labs/replica/internal/typeinfo"
	v1 "github.com/gxo-labs/replica/pkg/replica/v1"
	"github.com/gxo-labs/replica/pkg/replica/v1/config"
)

var defaultCloner = sync.OnceValue(func() v1.ClonerV1 {
	e, err := engine.NewEngine(nil)
	if err != nil {
		// Only a broken default metrics registry can fail here.
		panic(err)
	}
	return e
})

// Default returns the process-wide cloner used by DeepClone.
func Default() v1.ClonerV1 { return defaultCloner() }

// NewCloner returns an independent cloner configured by opts.
func NewCloner(opts ...v1.ClonerOption) (v1.ClonerV1, error) {
	e, err := engine.NewEngine(nil, opts...)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// DeepClone returns a deep copy of v. Struct fields whose name is in
// excluded keep the value a fresh instance of their struct has.
func DeepClone[T any](v T, excluded ...string) (T, error) {
	var cfg *config.Config
	if len(excluded) > 0 {
		c, err := config.Exclude(excluded...)
		if err != nil {
			var zero T
			return zero, err
		}
		cfg = c
	}
	return DeepCloneContext(context.Background(), Default(), v, cfg)
}

// DeepCloneWithConfig is DeepClone with a prepared configuration. A nil cfg
// excludes nothing.
func DeepCloneWithConfig[T any](v T, cfg *config.Config) (T, error) {
	return DeepCloneContext(context.Background(), Default(), v, cfg)
}

// DeepCloneContext clones v with c. ctx carries trace and log correlation.
func DeepCloneContext[T any](ctx context.Context, c v1.ClonerV1, v T, cfg *config.Config) (T, error) {
	var res T
	out, err := c.CloneValue(ctx, reflect.ValueOf(&v).Elem(), cfg)
	if err != nil {
		return res, err
	}
	reflect.ValueOf(&res).Elem().Set(out)
	return res, nil
}

// MustDeepClone is DeepClone that panics on error.
func MustDeepClone[T any](v T, excluded ...string) T {
	res, err := DeepClone(v, excluded...)
	if err != nil {
		panic(err)
	}
	return res
}

// RegisterScalar marks types as immutable leaves for the process-wide type
// caches. Values of these types are shared between source and clone.
func RegisterScalar(types ...reflect.Type) {
	typeinfo.DefaultClassifier.RegisterScalar(types...)
}

// RegisterConstructor adds a constructor to the process-wide registry.
// fn must return T, *T, (T, error) or (*T, error) for a struct type T.
func RegisterConstructor(fn any) error {
	return intConstruct.Default().Register(fn)
}
