package future

import "time"

// onceHint is the generic leaf: begin runs exactly once on block, end
// (if non-nil) runs exactly once when the cue is used.
type onceHint[T any] struct {
	begin func(reveal func(Signal[T]))
	end   func(revealing bool)
}

func (h onceHint[T]) materialize() *cue {
	c := &cue{}
	begin, end := h.begin, h.end
	c.onBlock = func(self *cue) {
		begin(func(sig Signal[T]) { self.reveal(toAny(sig)) })
	}
	if end != nil {
		c.onEnd = end
	}
	return c
}

// Once returns a Hint whose begin callback is invoked exactly once,
// when something commits to waiting on it, and whose optional end
// callback is invoked exactly once when the cue is used (revealing is
// true if a signal propagated, false if the wait was cancelled).
//
// begin may call reveal synchronously — this is the cue engine's
// reentrant-revelation case from spec.md §4.2.
func Once[T any](begin func(reveal func(Signal[T])), end func(revealing bool)) Hint[T] {
	return onceHint[T]{begin: begin, end: end}
}

// Often returns a restartable Teleprompter sharing Once's begin/end
// pair: each Autocue call produces an independent fresh cue.
func Often[T any](begin func(reveal func(Signal[T])), end func(revealing bool)) Teleprompter[T] {
	h := onceHint[T]{begin: begin, end: end}
	return Teleprompter[T]{autocue: h.materialize}
}

// Spark returns a Hint that reveals sig synchronously as soon as
// something commits to it — useful for already-known values and for
// tests that need a leaf with no external dependency.
func Spark[T any](sig Signal[T]) Hint[T] {
	return onceHint[T]{begin: func(reveal func(Signal[T])) { reveal(sig) }}
}

// Timeout returns a Hint that reveals after d elapses. Cancelling it
// before it fires disarms the timer (spec.md §5: "modelled as leaf
// cues whose begin arms a timer and whose end disarms it").
func Timeout(d time.Duration) Hint[struct{}] {
	return timeoutHint{d: d}
}

type timeoutHint struct{ d time.Duration }

func (h timeoutHint) materialize() *cue {
	c := &cue{}
	var timer *time.Timer
	c.onBlock = func(self *cue) {
		timer = time.AfterFunc(h.d, func() {
			self.tryReveal(toAny(Prompt(struct{}{})))
		})
	}
	c.onEnd = func(revealing bool) {
		if !revealing && timer != nil {
			timer.Stop()
		}
	}
	return c
}

// FromChannel adapts a foreign, one-shot "promise" channel into a
// Hint: the first signal sent on ch (or its closing, treated as
// ErrForeignClosed) resolves the hint. Cancelling before the channel
// fires stops the adapter goroutine from reacting further.
func FromChannel[T any](ch <-chan Signal[T]) Hint[T] {
	return foreignHint[T]{ch: ch}
}

type foreignHint[T any] struct{ ch <-chan Signal[T] }

func (h foreignHint[T]) materialize() *cue {
	c := &cue{}
	done := make(chan struct{})
	c.onBlock = func(self *cue) {
		go func() {
			select {
			case sig, ok := <-h.ch:
				if !ok {
					self.tryReveal(toAny(Blooper[T](ErrForeignClosed)))
					return
				}
				self.tryReveal(toAny(sig))
			case <-done:
			}
		}()
	}
	c.onEnd = func(revealing bool) {
		if !revealing {
			close(done)
		}
	}
	return c
}
