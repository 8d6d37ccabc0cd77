package reader

import (
	"sync"

	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
)

// Listener receives every published transition
type Listener func(prev, next State)

// Store owns the single mutable state cell of a reading session
type Store struct {
	mu    sync.RWMutex
	state State

	// notify serializes publication so listeners observe transitions in
	// dispatch order. Listeners must not dispatch.
	notify    sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// NewStore creates a store seeded with opts
func NewStore(opts InitialOptions) *Store {
	return &Store{
		state:     NewState(opts),
		listeners: make(map[int]Listener),
	}
}

// State returns the current snapshot
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch applies actions in order and publishes a single transition
func (s *Store) Dispatch(actions ...Action) State {
	if len(actions) == 0 {
		return s.State()
	}

	s.notify.Lock()
	defer s.notify.Unlock()

	s.mu.Lock()
	prev := s.state
	next := prev
	for _, a := range actions {
		next = Reduce(next, a)
	}
	s.state = next
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	if len(Diff(prev, next)) > 0 {
		for _, l := range listeners {
			l(prev, next)
		}
	}
	return next
}

// Subscribe registers a listener and returns its cancel function
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// IsBookmarked reports whether the current location is bookmarked
func (s *Store) IsBookmarked() bool {
	return s.State().IsBookmarked()
}

// Bookmark looks up a host-held bookmark
func (s *Store) Bookmark(id int64) (types.Bookmark, bool) {
	return s.State().Bookmark(id)
}
