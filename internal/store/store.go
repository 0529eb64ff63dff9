package store

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Listener is notified after every dispatch that produced a new state.
type Listener func(prev, next State)

// Store owns the current State. All changes go through Dispatch.
type Store struct {
	mu        sync.RWMutex
	state     State
	listeners map[int]Listener
	nextID    int
	logger    *zap.Logger

	// serializes dispatch + notification so listeners observe states in order
	dispatchMu sync.Mutex
}

func New(initial State, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		state:     initial,
		listeners: make(map[int]Listener),
		logger:    logger,
	}
}

// State returns the current state value.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch reduces the action against the current state. On error the state
// is left unchanged.
func (s *Store) Dispatch(action Action) error {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	prev := s.state
	next, err := Reduce(prev, action)
	if err != nil {
		s.mu.Unlock()
		s.logger.Debug("action rejected", zap.String("action", actionName(action)), zap.Error(err))
		return err
	}
	s.state = next
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	if next.Rev == prev.Rev {
		return nil
	}

	s.logger.Debug("action applied", zap.String("action", actionName(action)))
	for _, l := range listeners {
		l(prev, next)
	}
	return nil
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func actionName(a Action) string {
	return fmt.Sprintf("%T", a)
}
