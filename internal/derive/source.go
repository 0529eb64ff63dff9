package derive

import "sync"

// Selected reads one slice of a larger snapshot. The slice revision is
// checked before picking, so unchanged slices are never re-materialized.
type Selected[S, T any] struct {
	snapshot func() S
	revision func(S) uint64
	pick     func(S) T

	mu     sync.Mutex
	primed bool
	rev    uint64
	value  T
}

// Select builds a source node over snapshot.
func Select[S, T any](snapshot func() S, revision func(S) uint64, pick func(S) T) *Selected[S, T] {
	return &Selected[S, T]{snapshot: snapshot, revision: revision, pick: pick}
}

func (s *Selected[S, T]) Value() T {
	v, _ := s.Read()
	return v
}

func (s *Selected[S, T]) Revision() uint64 {
	_, r := s.Read()
	return r
}

func (s *Selected[S, T]) Read() (T, uint64) {
	snap := s.snapshot()
	r := s.revision(snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.primed || r != s.rev {
		s.value = s.pick(snap)
		s.rev = r
		s.primed = true
	}
	return s.value, s.rev
}

// Const is a node whose value never changes.
type Const[T any] struct {
	value T
}

func NewConst[T any](v T) Const[T] { return Const[T]{value: v} }

func (c Const[T]) Value() T         { return c.value }
func (c Const[T]) Revision() uint64 { return 0 }
