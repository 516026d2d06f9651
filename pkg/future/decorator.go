package future

// captureHint is the Capture decorator: a synchronous trap Signal[T] ->
// Signal[U] applied to its single child's revelation.
type captureHint[T, U any] struct {
	hint Hint[T]
	trap func(Signal[T]) Signal[U]
}

func (h captureHint[T, U]) materialize() *cue {
	child := h.hint.materialize()
	trap := h.trap
	self := &cue{children: []*cue{child}}
	self.onBlock = func(_ *cue) { child.block(self) }
	self.propagateFn = func(_ *cue, sig Signal[any]) {
		transformed := trap(fromAny[T](sig))
		self.revealFamily(toAny(transformed))
	}
	return self
}

// Capture applies trap to hint's revelation before it propagates
// further, e.g. to translate an error into a successful fallback value
// or vice versa. capture(spark(prompt), trap) == spark(trap(prompt)).
func Capture[T, U any](hint Hint[T], trap func(Signal[T]) Signal[U]) Hint[U] {
	return captureHint[T, U]{hint: hint, trap: trap}
}

// Commit is the cue engine's entry point (spec.md §4.2): it
// materialises hint and arranges for effect to run exactly once, when
// the hint resolves.
//
// If the hint resolves synchronously while Commit is wiring the tree
// (including a reentrant revelation from a leaf's begin), effect has
// already run by the time Commit returns and ok is false: there is
// nothing to roll back.
//
// Otherwise ok is true and rollback, if called, cancels the whole
// pending subtree top-down, running each still-Pending leaf's
// end(false, _) exactly once, and effect never runs.
func Commit[T any](hint Hint[T], effect func(Signal[T])) (rollback func(), ok bool) {
	child := hint.materialize()
	commitCue := &cue{children: []*cue{child}}
	commitCue.onBlock = func(_ *cue) { child.block(commitCue) }
	commitCue.propagateFn = func(_ *cue, sig Signal[any]) {
		effect(fromAny[T](sig))
		commitCue.reveal(sig)
	}

	commitCue.block(nil)

	commitCue.mu.Lock()
	fired := commitCue.state == cueUsed
	commitCue.mu.Unlock()
	if fired {
		return nil, false
	}
	return func() { commitCue.unblock() }, true
}
