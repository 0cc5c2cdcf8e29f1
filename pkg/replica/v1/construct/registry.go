package construct

import "reflect"

// Failure records one constructor that could not produce an instance.
type Failure struct {
	// Signature is the constructor's Go function type, e.g.
	// "func(string, int) *app.Config".
	Signature string
	Err       error
}

// Registry holds user-supplied constructors for struct types and builds
// fresh instances for the cloner.
//
// A constructor is any function returning T, *T, (T, error) or (*T, error)
// for a struct type T. When a type has registered constructors, the
// zero-argument one is preferred; otherwise each parameterized constructor
// is called in registration order with zero-valued arguments until one
// succeeds. Types without constructors are allocated with their zero value.
type Registry interface {
	// Register adds a constructor. It returns an error if fn is not a
	// function of an accepted shape.
	Register(fn any) error

	// Construct returns a pointer to a fresh instance of struct type t along
	// with every constructor that failed before one succeeded. When all
	// constructors fail the error is an *errors.UninstantiableTypeError.
	Construct(t reflect.Type) (reflect.Value, []Failure, error)

	// Has reports whether any constructor is registered for t.
	Has(t reflect.Type) bool

	// Signatures lists the registered constructor signatures for t in the
	// order they are tried.
	Signatures(t reflect.Type) []string
}
