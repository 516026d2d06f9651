// Package status implements the intrusive "exclusive status" lists the
// theater runtime uses to track which queue an agent or gig currently
// belongs to.
//
// A List[T] is a named circular doubly-linked list. Members carry their
// own prev/next pointers (via an embedded Link[T]), so moving a member
// between lists never allocates a wrapper node. Each member belongs to
// at most one List at a time; Add on a new List unlinks it from
// whichever List it was previously in.
package status

import "fmt"

// Link is embedded by value inside any struct that wants to join a
// List[T]. T is the embedding type itself.
type Link[T any] struct {
	prev, next *T
	owner      *List[T]
}

// In reports which List this member currently belongs to, or nil.
func (l *Link[T]) In() *List[T] {
	return l.owner
}

// List is a named intrusive circular doubly-linked list: an "exclusive
// status" in the runtime's terms.
type List[T any] struct {
	name     string
	link     func(*T) *Link[T]
	head     *T
	size     int
	revision uint64
}

// New creates an empty List. link must return the Link[T] embedded in
// m for any member m the caller intends to Add.
func New[T any](name string, link func(m *T) *Link[T]) *List[T] {
	return &List[T]{name: name, link: link}
}

// Name returns the status's name.
func (s *List[T]) Name() string { return s.name }

// Size returns the number of members currently linked into s.
func (s *List[T]) Size() int { return s.size }

// Empty reports whether the status has no members.
func (s *List[T]) Empty() bool { return s.head == nil }

// Contains reports whether m currently belongs to s.
func (s *List[T]) Contains(m *T) bool {
	if m == nil {
		return false
	}
	return s.link(m).owner == s
}

// Add links m at the tail of s, first unlinking it from whatever status
// it previously belonged to (including s itself, so Add always moves a
// member to the tail).
func (s *List[T]) Add(m *T) {
	if m == nil {
		panic("status: Add(nil)")
	}
	l := s.link(m)
	if l.owner != nil {
		l.owner.Delete(m)
	}
	l.owner = s
	if s.head == nil {
		s.head = m
		l.prev, l.next = m, m
	} else {
		tail := s.link(s.head).prev
		l.prev, l.next = tail, s.head
		s.link(tail).next = m
		s.link(s.head).prev = m
	}
	s.size++
	s.revision++
}

// Delete unlinks m from s. A no-op if m does not belong to s.
func (s *List[T]) Delete(m *T) {
	if m == nil {
		return
	}
	l := s.link(m)
	if l.owner != s {
		return
	}
	if s.size == 1 {
		s.head = nil
	} else {
		prev, next := l.prev, l.next
		s.link(prev).next = next
		s.link(next).prev = prev
		if s.head == m {
			s.head = next
		}
	}
	l.owner = nil
	l.prev, l.next = nil, nil
	s.size--
	s.revision++
}

// Clear unlinks every member of s.
func (s *List[T]) Clear() {
	for s.head != nil {
		s.Delete(s.head)
	}
}

// First returns the head member, or nil if s is empty.
func (s *List[T]) First() *T { return s.head }

// Each calls fn once per member, in list order starting at the head.
// Adding or deleting members of s from within fn is a fatal programming
// error and panics; the revision counter is what detects it.
func (s *List[T]) Each(fn func(*T)) {
	if s.head == nil {
		return
	}
	startRevision := s.revision
	cur := s.head
	for {
		fn(cur)
		if s.revision != startRevision {
			panic(fmt.Sprintf("status: concurrent modification of %q during iteration", s.name))
		}
		cur = s.link(cur).next
		if cur == s.head {
			break
		}
	}
}

// Slice materialises the members of s into a new slice, in list order.
func (s *List[T]) Slice() []*T {
	out := make([]*T, 0, s.size)
	s.Each(func(m *T) { out = append(out, m) })
	return out
}
