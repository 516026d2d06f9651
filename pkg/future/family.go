package future

import "sync"

// newFamily materialises every hint into a child cue and returns the
// (not yet wired) parent cue alongside its children. Callers still need
// to set propagateFn and, for the zero-children case, override
// onBlock to reveal synchronously.
func newFamily[T any](hints []Hint[T]) (self *cue, children []*cue, index map[*cue]int) {
	children = make([]*cue, len(hints))
	for i, h := range hints {
		children[i] = h.materialize()
	}
	index = make(map[*cue]int, len(children))
	for i, ch := range children {
		index[ch] = i
	}
	self = &cue{children: children}
	self.onBlock = func(parent *cue) {
		for _, ch := range children {
			ch.block(self)
		}
	}
	return self, children, index
}

type allHint[T any] struct{ hints []Hint[T] }

// All reveals the vector of every child's prompt once all of them have
// revealed; the first blooper short-circuits and is propagated as-is.
// Results are ordered by the hints' original position, not by
// completion order.
func All[T any](hints ...Hint[T]) Hint[[]T] { return allHint[T]{hints: hints} }

func (h allHint[T]) materialize() *cue {
	self, children, index := newFamily(h.hints)
	if len(children) == 0 {
		self.onBlock = func(_ *cue) { self.revealFamily(toAny(Prompt([]T{}))) }
		return self
	}

	results := make([]T, len(children))
	remaining := len(children)
	var mu sync.Mutex
	done := false

	self.propagateFn = func(child *cue, sig Signal[any]) {
		mu.Lock()
		if done {
			mu.Unlock()
			return
		}
		s := fromAny[T](sig)
		if !s.Ok() {
			done = true
			mu.Unlock()
			self.revealFamily(toAny(Blooper[[]T](s.Err())))
			return
		}
		results[index[child]] = s.Value()
		remaining--
		finished := remaining == 0
		mu.Unlock()
		if finished {
			self.revealFamily(toAny(Prompt(results)))
		}
	}
	return self
}

type anyHint[T any] struct{ hints []Hint[T] }

// Any reveals the first prompt among its children. If every child
// bloopers, Any reveals an *AggregateError collecting all of them.
func Any[T any](hints ...Hint[T]) Hint[T] { return anyHint[T]{hints: hints} }

func (h anyHint[T]) materialize() *cue {
	self, children, _ := newFamily(h.hints)
	if len(children) == 0 {
		self.onBlock = func(_ *cue) { self.revealFamily(toAny(Blooper[T](&AggregateError{}))) }
		return self
	}

	errs := make([]error, 0, len(children))
	remaining := len(children)
	var mu sync.Mutex
	done := false

	self.propagateFn = func(child *cue, sig Signal[any]) {
		mu.Lock()
		if done {
			mu.Unlock()
			return
		}
		s := fromAny[T](sig)
		if s.Ok() {
			done = true
			mu.Unlock()
			self.revealFamily(toAny(s))
			return
		}
		errs = append(errs, s.Err())
		remaining--
		finished := remaining == 0
		mu.Unlock()
		if finished {
			self.revealFamily(toAny(Blooper[T](&AggregateError{Errs: errs})))
		}
	}
	return self
}

type raceHint[T any] struct{ hints []Hint[T] }

// Race reveals whichever child signals first, prompt or blooper. Every
// other still-pending child is cancelled, so exactly one of N timer
// leaves ever fires in a race against real work (boundary scenario E).
func Race[T any](hints ...Hint[T]) Hint[T] { return raceHint[T]{hints: hints} }

func (h raceHint[T]) materialize() *cue {
	self, children, _ := newFamily(h.hints)
	if len(children) == 0 {
		self.onBlock = func(_ *cue) { self.revealFamily(toAny(Blooper[T](&AggregateError{}))) }
		return self
	}

	var mu sync.Mutex
	done := false

	self.propagateFn = func(child *cue, sig Signal[any]) {
		mu.Lock()
		if done {
			mu.Unlock()
			return
		}
		done = true
		mu.Unlock()
		self.revealFamily(sig)
	}
	return self
}

type settleHint[T any] struct{ hints []Hint[T] }

// Settle collects every child's signal, prompt or blooper, and reveals
// the full vector once all of them have completed. Settle itself never
// bloopers.
func Settle[T any](hints ...Hint[T]) Hint[[]Signal[T]] { return settleHint[T]{hints: hints} }

func (h settleHint[T]) materialize() *cue {
	self, children, index := newFamily(h.hints)
	if len(children) == 0 {
		self.onBlock = func(_ *cue) { self.revealFamily(toAny(Prompt([]Signal[T]{}))) }
		return self
	}

	results := make([]Signal[T], len(children))
	remaining := len(children)
	var mu sync.Mutex

	self.propagateFn = func(child *cue, sig Signal[any]) {
		mu.Lock()
		results[index[child]] = fromAny[T](sig)
		remaining--
		finished := remaining == 0
		mu.Unlock()
		if finished {
			self.revealFamily(toAny(Prompt(results)))
		}
	}
	return self
}
