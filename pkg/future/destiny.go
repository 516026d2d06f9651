package future

import "sync"

// waiterEntry is a pending Destiny waiter. It is tombstoned (live =
// false) rather than spliced out of the slice on cancellation, so
// Finish can still walk waiters in a single, allocation-free pass in
// insertion order.
type waiterEntry[T any] struct {
	fn   func(Signal[T])
	live bool
}

// Destiny is any object whose completion is signalled at most once,
// with a teleprompter over that completion for late subscribers.
// spec.md §4.1: "each autocue() returns a fresh cue; if fate is
// already sealed, begin reveals synchronously; otherwise the cue's
// reveal closure is inserted in the pending table, removed on
// cancellation."
type Destiny[T any] struct {
	mu      sync.Mutex
	fate    *Signal[T]
	waiters []*waiterEntry[T]
}

// NewDestiny creates an unfinished Destiny.
func NewDestiny[T any]() *Destiny[T] {
	return &Destiny[T]{}
}

// Finish seals the destiny's fate, revealing every pending waiter in
// insertion order. Finishing an already-finished destiny is a protocol
// violation.
func (d *Destiny[T]) Finish(sig Signal[T]) {
	d.mu.Lock()
	if d.fate != nil {
		d.mu.Unlock()
		panic(&ProtocolError{Op: "finish", Msg: "destiny already finished"})
	}
	d.fate = &sig
	waiters := d.waiters
	d.waiters = nil
	d.mu.Unlock()

	for _, w := range waiters {
		if w.live {
			w.fn(sig)
		}
	}
}

// Finished reports whether the destiny's fate is sealed.
func (d *Destiny[T]) Finished() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fate != nil
}

// Fate returns the sealed signal and true, or the zero Signal and
// false if the destiny hasn't finished yet.
func (d *Destiny[T]) Fate() (Signal[T], bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fate == nil {
		return Signal[T]{}, false
	}
	return *d.fate, true
}

// Autocue returns a Teleprompter producing a fresh cue over this
// destiny's completion on every materialisation.
func (d *Destiny[T]) Autocue() Teleprompter[T] {
	return Teleprompter[T]{autocue: d.autocue}
}

func (d *Destiny[T]) autocue() *cue {
	c := &cue{}
	var entry *waiterEntry[T]
	c.onBlock = func(self *cue) {
		d.mu.Lock()
		if d.fate != nil {
			sig := *d.fate
			d.mu.Unlock()
			self.reveal(toAny(sig))
			return
		}
		entry = &waiterEntry[T]{
			fn:   func(sig Signal[T]) { self.tryReveal(toAny(sig)) },
			live: true,
		}
		d.waiters = append(d.waiters, entry)
		d.mu.Unlock()
	}
	c.onEnd = func(revealing bool) {
		if revealing || entry == nil {
			return
		}
		d.mu.Lock()
		entry.live = false
		d.mu.Unlock()
	}
	return c
}
