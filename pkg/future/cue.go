package future

import "sync"

type cueState int

const (
	cueUnused cueState = iota
	cuePending
	cueUsed
)

// cue is the type-erased node of the commit-protocol tree. Every public
// combinator (Once, Capture, All, Commit, ...) builds a graph of *cue
// values and converts Signal[T] to/from Signal[any] at the edges; this
// is what lets a tree mix leaves and families of different element
// types without reflection.
//
// A cue's lifecycle is Unused -> Pending -> Used, matching spec.md's
// cue state machine exactly. onBlock runs once on Unused->Pending;
// onEnd runs once on Pending->Used; propagateFn is how a composite cue
// reacts to one of its children revealing.
type cue struct {
	mu        sync.Mutex
	state     cueState
	revealed  Signal[any]
	cancelled bool

	parent   *cue
	children []*cue

	onBlock     func(self *cue)
	onEnd       func(revealing bool)
	propagateFn func(child *cue, sig Signal[any])
}

// block transitions Unused->Pending and runs onBlock. onBlock may call
// reveal synchronously (reentrant revelation during begin, per
// spec.md §4.2) since the state is already Pending and the mutex is
// released before onBlock runs.
func (c *cue) block(parent *cue) {
	c.mu.Lock()
	if c.state != cueUnused {
		c.mu.Unlock()
		panic(&ProtocolError{Op: "block", Msg: "cue is not Unused"})
	}
	c.state = cuePending
	c.parent = parent
	onBlock := c.onBlock
	c.mu.Unlock()

	if onBlock != nil {
		onBlock(c)
	}
}

// reveal transitions Pending->Used(revealed). Revealing a non-Pending
// cue is a protocol violation (spec.md §4.2 Error conditions).
func (c *cue) reveal(sig Signal[any]) {
	c.mu.Lock()
	if c.state != cuePending {
		c.mu.Unlock()
		panic(&ProtocolError{Op: "reveal", Msg: "cue is not Pending"})
	}
	c.state = cueUsed
	c.revealed = sig
	onEnd := c.onEnd
	parent := c.parent
	c.mu.Unlock()

	if onEnd != nil {
		onEnd(true)
	}
	if parent != nil {
		parent.onChildReveal(c, sig)
	}
}

// tryReveal is reveal's non-panicking twin, used only by leaves whose
// completion races legitimately against cancellation (timers, foreign
// channels, destiny waiters). It silently drops the signal if the cue
// is no longer Pending instead of treating the race as a protocol
// violation.
func (c *cue) tryReveal(sig Signal[any]) bool {
	c.mu.Lock()
	if c.state != cuePending {
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()
	c.reveal(sig)
	return true
}

// unblock transitions Pending->Used(cancelled). It is a no-op on a cue
// that is not Pending, matching spec.md's "cancel every descendant
// whose cue is still Pending" wording: cancellation only ever touches
// what is still waiting.
func (c *cue) unblock() {
	c.mu.Lock()
	if c.state != cuePending {
		c.mu.Unlock()
		return
	}
	c.state = cueUsed
	c.cancelled = true
	onEnd := c.onEnd
	children := c.children
	c.mu.Unlock()

	if onEnd != nil {
		onEnd(false)
	}
	// Cancellation is top-down: unblock every still-Pending child once.
	for _, ch := range children {
		ch.unblock()
	}
}

func (c *cue) onChildReveal(child *cue, sig Signal[any]) {
	c.mu.Lock()
	fn := c.propagateFn
	c.mu.Unlock()
	if fn != nil {
		fn(child, sig)
	}
}

// revealFamily is how a composite cue (decorator or family) reveals
// itself. After revealing, it flushes every remaining Pending child —
// this is what makes Race's losing timer leaf run end(false, _)
// exactly once (boundary scenario E) instead of leaking an armed timer.
func (c *cue) revealFamily(sig Signal[any]) {
	c.reveal(sig)
	for _, ch := range c.children {
		ch.unblock()
	}
}

// Cue is a one-shot future over a Signal[T]. It is an opaque handle
// over the type-erased cue node (per spec.md §9's "newtype over a
// shared mutable impl" guidance).
type Cue[T any] struct{ c *cue }

func (q Cue[T]) materialize() *cue { return q.c }

// Hint is anything that can become a Cue[T] once someone commits to
// waiting on it: a Cue itself, a Teleprompter, or a foreign channel
// adapter (see FromChannel).
type Hint[T any] interface {
	materialize() *cue
}

// Teleprompter is a restartable factory of fresh Cue[T] values sharing
// one begin/end pair, or one Destiny (see Destiny.Autocue).
type Teleprompter[T any] struct {
	autocue func() *cue
}

func (t Teleprompter[T]) materialize() *cue { return t.autocue() }

// Autocue materialises a fresh Cue[T] from the teleprompter.
func (t Teleprompter[T]) Autocue() Cue[T] {
	return Cue[T]{c: t.autocue()}
}
