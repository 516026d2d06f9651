package future

import "testing"

func TestExchangeRendezvous(t *testing.T) {
	ex := NewExchange[int](0)

	var producerResult Signal[struct{}]
	prodRollback, prodOK := Commit(ex.Produce(7), func(s Signal[struct{}]) { producerResult = s })
	if !prodOK || prodRollback == nil {
		t.Fatal("expected the producer to block with capacity 0 and no consumer yet")
	}

	var consumerResult Signal[int]
	_, consOK := Commit(ex.Consume(), func(s Signal[int]) { consumerResult = s })
	if consOK {
		t.Fatal("expected the consumer to resolve synchronously against the waiting producer")
	}
	if !consumerResult.Ok() || consumerResult.Value() != 7 {
		t.Fatalf("unexpected consumer result: %v", consumerResult)
	}
	if !producerResult.Ok() {
		t.Fatalf("expected producer to be revealed once rendezvous completed: %v", producerResult)
	}

	stats := ex.Snapshot()
	if stats.Buffered != 0 || stats.BlockedProducers != 0 || stats.BlockedConsumers != 0 {
		t.Fatalf("expected both queues empty after rendezvous, got %+v", stats)
	}
}

func TestExchangeBuffering(t *testing.T) {
	ex := NewExchange[string](2)

	for _, item := range []string{"a", "b"} {
		var fired bool
		_, ok := Commit(ex.Produce(item), func(s Signal[struct{}]) { fired = true })
		if ok {
			t.Fatalf("expected buffered produce of %q to resolve synchronously", item)
		}
		if !fired {
			t.Fatal("expected produce effect to fire")
		}
	}

	rollback, ok := Commit(ex.Produce("c"), func(Signal[struct{}]) {})
	if !ok || rollback == nil {
		t.Fatal("expected the third producer to block: buffer is full")
	}
	if stats := ex.Snapshot(); stats.Buffered != 2 || stats.BlockedProducers != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	var got string
	_, ok = Commit(ex.Consume(), func(s Signal[string]) { got = s.Value() })
	if ok {
		t.Fatal("expected consume to resolve synchronously from the buffer")
	}
	if got != "a" {
		t.Fatalf("expected FIFO order, got %q", got)
	}

	if stats := ex.Snapshot(); stats.Buffered != 2 || stats.BlockedProducers != 0 {
		t.Fatalf("expected the blocked producer's item to have filled the buffer back up: %+v", stats)
	}
}

func TestExchangeCancelRemovesBlockedProducer(t *testing.T) {
	ex := NewExchange[int](0)
	rollback, ok := Commit(ex.Produce(1), func(Signal[struct{}]) {})
	if !ok {
		t.Fatal("expected producer to block")
	}
	if stats := ex.Snapshot(); stats.BlockedProducers != 1 {
		t.Fatalf("expected 1 blocked producer, got %+v", stats)
	}
	rollback()
	if stats := ex.Snapshot(); stats.BlockedProducers != 0 {
		t.Fatalf("expected cancelled producer removed from queue, got %+v", stats)
	}
}
