package collections

// Opt holds either a value of type T or nothing. The zero value is
// empty.
type Opt[T any] struct {
	value   T
	present bool
}

// Some returns a present Opt holding v.
func Some[T any](v T) Opt[T] { return Opt[T]{value: v, present: true} }

// None returns an empty Opt.
func None[T any]() Opt[T] { return Opt[T]{} }

// Get returns the held value and whether it is present.
func (o Opt[T]) Get() (T, bool) { return o.value, o.present }

// OrElse returns the held value, or def when empty.
func (o Opt[T]) OrElse(def T) T {
	if !o.present {
		return def
	}
	return o.value
}

func (o Opt[T]) IsPresent() bool { return o.present }

func (o Opt[T]) ValueAny() any {
	if !o.present {
		return nil
	}
	return o.value
}

func (o Opt[T]) EmptyLike() Optional { return Opt[T]{} }

func (o Opt[T]) OfAny(value any) (Optional, error) {
	v, err := as[T](value)
	if err != nil {
		return nil, err
	}
	return Some(v), nil
}

var _ Optional = Opt[int]{}
