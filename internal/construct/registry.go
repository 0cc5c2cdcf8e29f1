// Package construct builds fresh struct instances for the cloner, trying
// registered constructors in a fixed fallback order.
package construct

import (
	"fmt"
	"reflect"
	"sync"

	pubconstruct "github.com/gxo-labs/replica/pkg/replica/v1/construct"
	replicaerrors "github.com/gxo-labs/replica/pkg/replica/v1/errors"
)

var errorType = reflect.TypeFor[error]()

// constructor is a parsed constructor function.
type constructor struct {
	fn        reflect.Value
	in        []reflect.Type
	ptrResult bool // returns *T instead of T
	errResult bool // second result is an error
}

func (c constructor) signature() string { return c.fn.Type().String() }

// StaticRegistry implements construct.Registry with an in-memory map. It is
// safe for concurrent use.
type StaticRegistry struct {
	// ctors maps a struct type to its constructors in registration order.
	ctors map[reflect.Type][]constructor
	mu    sync.RWMutex
}

// NewStaticRegistry returns an empty registry.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{ctors: make(map[reflect.Type][]constructor)}
}

// Register parses fn and adds it to the constructors of the struct type it
// returns. The same function value may not be registered twice.
func (r *StaticRegistry) Register(fn any) error {
	target, c, err := parseConstructor(fn)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.ctors[target] {
		if existing.fn.Pointer() == c.fn.Pointer() {
			return replicaerrors.NewConfigError(
				fmt.Sprintf("constructor registration error: %s already registered for %s", c.signature(), target), nil)
		}
	}
	r.ctors[target] = append(r.ctors[target], c)
	return nil
}

// Has reports whether any constructor is registered for t.
func (r *StaticRegistry) Has(t reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ctors[t]) > 0
}

// Signatures returns the constructor signatures for t in the order they are
// tried by Construct.
func (r *StaticRegistry) Signatures(t reflect.Type) []string {
	ordered := r.ordered(t)
	out := make([]string, len(ordered))
	for i, c := range ordered {
		out[i] = c.signature()
	}
	return out
}

// Construct returns a pointer to a new instance of struct type t.
func (r *StaticRegistry) Construct(t reflect.Type) (reflect.Value, []pubconstruct.Failure, error) {
	ordered := r.ordered(t)
	if len(ordered) == 0 {
		return reflect.New(t), nil, nil
	}

	var failures []pubconstruct.Failure
	for _, c := range ordered {
		ptr, err := c.call(t)
		if err == nil {
			return ptr, failures, nil
		}
		failures = append(failures, pubconstruct.Failure{Signature: c.signature(), Err: err})
	}
	sigs := make([]string, len(failures))
	for i, f := range failures {
		sigs[i] = f.Signature
	}
	return reflect.Value{}, failures, replicaerrors.NewUninstantiableTypeError(
		t.String(), sigs, failures[len(failures)-1].Err)
}

// ordered returns the zero-argument constructor first, then the rest in
// registration order.
func (r *StaticRegistry) ordered(t reflect.Type) []constructor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	registered := r.ctors[t]
	if len(registered) == 0 {
		return nil
	}
	out := make([]constructor, 0, len(registered))
	for _, c := range registered {
		if c.nullary() {
			out = append(out, c)
		}
	}
	for _, c := range registered {
		if !c.nullary() {
			out = append(out, c)
		}
	}
	return out
}

func (c constructor) nullary() bool {
	return len(c.in) == 0 || (len(c.in) == 1 && c.fn.Type().IsVariadic())
}

// call invokes the constructor with zero-valued arguments. Panics, returned
// errors and nil results count as failures.
func (c constructor) call(t reflect.Type) (ptr reflect.Value, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ptr = reflect.Value{}
			err = fmt.Errorf("constructor panicked: %v", rec)
		}
	}()

	args := make([]reflect.Value, len(c.in))
	for i, in := range c.in {
		args[i] = reflect.Zero(in)
	}
	var results []reflect.Value
	if c.fn.Type().IsVariadic() {
		results = c.fn.CallSlice(args)
	} else {
		results = c.fn.Call(args)
	}

	if c.errResult {
		if errVal := results[1]; !errVal.IsNil() {
			return reflect.Value{}, errVal.Interface().(error)
		}
	}
	out := results[0]
	if c.ptrResult {
		if out.IsNil() {
			return reflect.Value{}, fmt.Errorf("constructor returned a nil *%s", t)
		}
		return out, nil
	}
	ptr = reflect.New(t)
	ptr.Elem().Set(out)
	return ptr, nil
}

// parseConstructor validates the shape of fn and returns the struct type it
// constructs.
func parseConstructor(fn any) (reflect.Type, constructor, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, constructor{}, replicaerrors.NewConfigError(
			fmt.Sprintf("constructor registration error: %T is not a function", fn), nil)
	}
	ft := v.Type()
	c := constructor{fn: v}
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			return nil, c, shapeError(ft)
		}
		c.errResult = true
	default:
		return nil, c, shapeError(ft)
	}

	target := ft.Out(0)
	if target.Kind() == reflect.Pointer {
		target = target.Elem()
		c.ptrResult = true
	}
	if target.Kind() != reflect.Struct {
		return nil, c, shapeError(ft)
	}

	c.in = make([]reflect.Type, ft.NumIn())
	for i := range c.in {
		c.in[i] = ft.In(i)
	}
	return target, c, nil
}

func shapeError(ft reflect.Type) error {
	return replicaerrors.NewConfigError(fmt.Sprintf(
		"constructor registration error: %s must return T, *T, (T, error) or (*T, error) for a struct type T", ft), nil)
}

// --- Default global registry ---

var globalRegistry = NewStaticRegistry()

var _ pubconstruct.Registry = (*StaticRegistry)(nil)

// Register adds fn to the default registry. It panics on error because it
// is meant to be called from init functions, where a bad constructor is a
// programming mistake.
func Register(fn any) {
	if err := globalRegistry.Register(fn); err != nil {
		panic(fmt.Errorf("failed to register constructor globally: %w", err))
	}
}

// Default returns the process-wide registry used by Register.
func Default() *StaticRegistry { return globalRegistry }
