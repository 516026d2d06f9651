package future

import "fmt"

// Signal is the discriminated union every asynchronous completion in
// this package is expressed as: a successful Prompt(value) or a failed
// Blooper(error). The zero Signal is a Prompt of T's zero value.
type Signal[T any] struct {
	value   T
	err     error
	blooper bool
}

// Prompt builds a successful Signal carrying v.
func Prompt[T any](v T) Signal[T] {
	return Signal[T]{value: v}
}

// Blooper builds a failed Signal carrying err. A nil err is replaced
// with a generic error so a Blooper signal is never mistaken for a
// Prompt.
func Blooper[T any](err error) Signal[T] {
	if err == nil {
		err = fmt.Errorf("future: Blooper called with nil error")
	}
	return Signal[T]{err: err, blooper: true}
}

// Ok reports whether the signal is a Prompt.
func (s Signal[T]) Ok() bool { return !s.blooper }

// Value returns the prompted value. Its result is meaningless if Ok()
// is false.
func (s Signal[T]) Value() T { return s.value }

// Err returns the blooper error, or nil for a Prompt signal.
func (s Signal[T]) Err() error { return s.err }

// String renders the signal for logging/debugging.
func (s Signal[T]) String() string {
	if s.blooper {
		return fmt.Sprintf("Blooper(%v)", s.err)
	}
	return fmt.Sprintf("Prompt(%v)", s.value)
}

// toAny erases a Signal[T] to Signal[any]; used internally to move
// signals through the type-erased cue tree.
func toAny[T any](s Signal[T]) Signal[any] {
	if s.blooper {
		return Blooper[any](s.err)
	}
	return Prompt[any](s.value)
}

// fromAny re-types a Signal[any] produced by toAny back to Signal[T].
func fromAny[T any](s Signal[any]) Signal[T] {
	if s.blooper {
		return Blooper[T](s.err)
	}
	v, _ := s.value.(T)
	return Prompt[T](v)
}
