package future

// boxedHint forwards materialisation to an arbitrarily-typed Hint: since
// every cue already carries a type-erased Signal[any] internally, boxing
// loses no information and costs nothing beyond the indirection.
type boxedHint[T any] struct{ h Hint[T] }

func (b boxedHint[T]) materialize() *cue { return b.h.materialize() }

// Box erases a Hint[T] into a Hint[any], the representation theater's
// scene coroutines yield across the Scene/Step boundary.
func Box[T any](h Hint[T]) Hint[any] { return boxedHint[T]{h: h} }
