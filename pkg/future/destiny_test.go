package future

import "testing"

func TestDestinySynchronousAfterFinish(t *testing.T) {
	d := NewDestiny[int]()
	d.Finish(Prompt(9))

	var got Signal[int]
	_, ok := Commit(d.Autocue(), func(s Signal[int]) { got = s })
	if ok {
		t.Fatal("expected a finished destiny to resolve synchronously")
	}
	if !got.Ok() || got.Value() != 9 {
		t.Fatalf("unexpected signal: %v", got)
	}
}

func TestDestinyPendingThenFinish(t *testing.T) {
	d := NewDestiny[string]()

	var got Signal[string]
	rollback, ok := Commit(d.Autocue(), func(s Signal[string]) { got = s })
	if !ok || rollback == nil {
		t.Fatal("expected the destiny's cue to be pending")
	}

	d.Finish(Prompt("done"))
	if !got.Ok() || got.Value() != "done" {
		t.Fatalf("unexpected signal after finish: %v", got)
	}
}

func TestDestinyFinishTwicePanics(t *testing.T) {
	d := NewDestiny[int]()
	d.Finish(Prompt(1))

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic finishing a destiny twice")
		}
	}()
	d.Finish(Prompt(2))
}

func TestDestinyMultipleWaitersInInsertionOrder(t *testing.T) {
	d := NewDestiny[int]()
	var order []int

	for i := 0; i < 3; i++ {
		i := i
		Commit(d.Autocue(), func(s Signal[int]) { order = append(order, i) })
	}

	d.Finish(Prompt(0))
	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Fatalf("expected waiters revealed in insertion order, got %v", order)
	}
}

func TestDestinyCancelledWaiterIsNotNotified(t *testing.T) {
	d := NewDestiny[int]()
	called := false
	rollback, ok := Commit(d.Autocue(), func(s Signal[int]) { called = true })
	if !ok {
		t.Fatal("expected pending cue")
	}
	rollback()
	d.Finish(Prompt(1))
	if called {
		t.Fatal("cancelled waiter must not be notified")
	}
}
