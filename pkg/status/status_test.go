package status

import "testing"

type member struct {
	id   int
	link Link[member]
}

func memberLink(m *member) *Link[member] { return &m.link }

func TestListAddAndSize(t *testing.T) {
	s := New("ready", memberLink)
	a, b, c := &member{id: 1}, &member{id: 2}, &member{id: 3}

	s.Add(a)
	s.Add(b)
	s.Add(c)

	if s.Size() != 3 {
		t.Fatalf("expected size 3, got %d", s.Size())
	}
	got := s.Slice()
	if len(got) != 3 || got[0] != a || got[1] != b || got[2] != c {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestListAddMovesBetweenStatuses(t *testing.T) {
	ready := New("ready", memberLink)
	waiting := New("waiting", memberLink)
	a := &member{id: 1}

	ready.Add(a)
	if !ready.Contains(a) {
		t.Fatal("expected a in ready")
	}

	waiting.Add(a)
	if ready.Contains(a) {
		t.Fatal("expected a unlinked from ready after moving")
	}
	if !waiting.Contains(a) {
		t.Fatal("expected a in waiting")
	}
	if ready.Size() != 0 || waiting.Size() != 1 {
		t.Fatalf("unexpected sizes: ready=%d waiting=%d", ready.Size(), waiting.Size())
	}
}

func TestListDelete(t *testing.T) {
	s := New("ready", memberLink)
	a, b := &member{id: 1}, &member{id: 2}
	s.Add(a)
	s.Add(b)

	s.Delete(a)
	if s.Contains(a) {
		t.Fatal("expected a removed")
	}
	if s.Size() != 1 {
		t.Fatalf("expected size 1, got %d", s.Size())
	}

	// Deleting a non-member is a no-op.
	s.Delete(a)
	if s.Size() != 1 {
		t.Fatalf("expected size unchanged, got %d", s.Size())
	}
}

func TestListClear(t *testing.T) {
	s := New("ready", memberLink)
	for i := 0; i < 5; i++ {
		s.Add(&member{id: i})
	}
	s.Clear()
	if !s.Empty() {
		t.Fatalf("expected empty after Clear, size=%d", s.Size())
	}
}

func TestListEachPanicsOnConcurrentModification(t *testing.T) {
	s := New("ready", memberLink)
	a, b := &member{id: 1}, &member{id: 2}
	s.Add(a)
	s.Add(b)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on concurrent modification")
		}
	}()

	s.Each(func(m *member) {
		s.Delete(m)
	})
}

func TestListCurrentMatchesOwner(t *testing.T) {
	s := New("ready", memberLink)
	a := &member{id: 1}
	s.Add(a)
	if a.link.In() != s {
		t.Fatal("expected member's link to report its owning status")
	}
	s.Delete(a)
	if a.link.In() != nil {
		t.Fatal("expected member's link to be nil after delete")
	}
}
