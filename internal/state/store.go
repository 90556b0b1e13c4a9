// Package state holds the shared reader state and fans updates out to
// subscribers.
package state

import (
	"sync"

	"github.com/dinaypatil-web/ReadFlow/pkg/types"
)

// Store is the single source of truth for what the reader is doing.
// Mutations go through Update so every change produces exactly one
// notification carrying the full state.
type Store struct {
	mu        sync.Mutex
	state     types.ReaderState
	listeners map[int]func(types.ReaderState)
	nextID    int
}

func NewStore() *Store {
	return &Store{
		state: types.ReaderState{
			ActiveWordIndex: -1,
			Config:          types.DefaultPlaybackConfiguration(),
		},
		listeners: make(map[int]func(types.ReaderState)),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() types.ReaderState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers a listener for state changes. The returned
// function unsubscribes. Listeners run synchronously after each update,
// outside the store lock.
func (s *Store) Subscribe(fn func(types.ReaderState)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Update applies a mutation and notifies all listeners with the
// resulting state.
func (s *Store) Update(mutate func(*types.ReaderState)) types.ReaderState {
	s.mu.Lock()
	mutate(&s.state)
	snapshot := s.state
	fns := make([]func(types.ReaderState), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
	return snapshot
}

// SetNotice publishes a transient user-facing message.
func (s *Store) SetNotice(msg string) {
	s.Update(func(st *types.ReaderState) {
		st.Notice = msg
	})
}

// ClearNotice dismisses the current message.
func (s *Store) ClearNotice() {
	s.Update(func(st *types.ReaderState) {
		st.Notice = ""
	})
}
