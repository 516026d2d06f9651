package future

import "sync"

// pendingProducer is a producer blocked because the exchange was full
// when it committed.
type pendingProducer[T any] struct {
	item   T
	reveal func(Signal[struct{}])
}

// pendingConsumer is a consumer blocked because the exchange was empty
// when it committed.
type pendingConsumer[T any] struct {
	reveal func(Signal[T])
}

// Exchange is a bounded producer/consumer buffer (spec.md §4.3): FIFO
// items, FIFO blocked producers, FIFO blocked consumers. At most one of
// the two wait queues is ever non-empty, and items never exceeds
// capacity.
type Exchange[T any] struct {
	mu        sync.Mutex
	capacity  int
	items     []T
	consumers []*pendingConsumer[T]
	producers []*pendingProducer[T]
}

// NewExchange creates an Exchange with the given buffer capacity.
// Capacity 0 is a rendezvous channel: producers and consumers must
// meet directly (boundary scenario F).
func NewExchange[T any](capacity int) *Exchange[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Exchange[T]{capacity: capacity}
}

// Produce returns a Hint that reveals (with no value) once item has
// been handed to a waiting consumer or buffered.
func (e *Exchange[T]) Produce(item T) Hint[struct{}] {
	var mine *pendingProducer[T]
	return Once[struct{}](
		func(reveal func(Signal[struct{}])) {
			e.mu.Lock()
			switch {
			case len(e.consumers) > 0:
				c := e.consumers[0]
				e.consumers = e.consumers[1:]
				e.mu.Unlock()
				c.reveal(Prompt(item))
				reveal(Prompt(struct{}{}))
			case len(e.items) < e.capacity:
				e.items = append(e.items, item)
				e.mu.Unlock()
				reveal(Prompt(struct{}{}))
			default:
				mine = &pendingProducer[T]{item: item, reveal: reveal}
				e.producers = append(e.producers, mine)
				e.mu.Unlock()
			}
		},
		func(revealing bool) {
			if revealing || mine == nil {
				return
			}
			e.mu.Lock()
			defer e.mu.Unlock()
			for i, p := range e.producers {
				if p == mine {
					e.producers = append(e.producers[:i], e.producers[i+1:]...)
					return
				}
			}
		},
	)
}

// Consume returns a Hint that reveals the next item, waking the oldest
// blocked producer if one is waiting.
func (e *Exchange[T]) Consume() Hint[T] {
	var mine *pendingConsumer[T]
	return Once[T](
		func(reveal func(Signal[T])) {
			e.mu.Lock()
			if len(e.producers) > 0 {
				p := e.producers[0]
				e.producers = e.producers[1:]
				e.items = append(e.items, p.item)
				item := e.items[0]
				e.items = e.items[1:]
				e.mu.Unlock()
				p.reveal(Prompt(struct{}{}))
				reveal(Prompt(item))
				return
			}
			if len(e.items) > 0 {
				item := e.items[0]
				e.items = e.items[1:]
				e.mu.Unlock()
				reveal(Prompt(item))
				return
			}
			mine = &pendingConsumer[T]{reveal: reveal}
			e.consumers = append(e.consumers, mine)
			e.mu.Unlock()
		},
		func(revealing bool) {
			if revealing || mine == nil {
				return
			}
			e.mu.Lock()
			defer e.mu.Unlock()
			for i, c := range e.consumers {
				if c == mine {
					e.consumers = append(e.consumers[:i], e.consumers[i+1:]...)
					return
				}
			}
		},
	)
}

// Stats is a point-in-time snapshot of an Exchange's queues, exposed to
// internal/theatermetrics.
type Stats struct {
	Capacity        int
	Buffered        int
	BlockedProducers int
	BlockedConsumers int
}

// Snapshot returns a snapshot of the exchange's current queue depths.
func (e *Exchange[T]) Snapshot() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		Capacity:         e.capacity,
		Buffered:         len(e.items),
		BlockedProducers: len(e.producers),
		BlockedConsumers: len(e.consumers),
	}
}
