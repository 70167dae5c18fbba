// internal/lobby/store.go
package lobby

import (
	"sync"

	"github.com/google/uuid"
)

// Store holds all live lobbies, keyed by id.
type Store struct {
	mu      sync.Mutex
	lobbies map[uuid.UUID]*Lobby
}

func NewStore() *Store {
	return &Store{lobbies: make(map[uuid.UUID]*Lobby)}
}

func (s *Store) Add(l *Lobby) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lobbies[l.ID] = l
}

func (s *Store) Get(id uuid.UUID) (*Lobby, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, exists := s.lobbies[id]
	return l, exists
}

func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lobbies, id)
}

// Snapshot returns every live lobby. The sweeper iterates this; each lobby's
// own mutex serializes the actual status checks and mutations.
func (s *Store) Snapshot() []*Lobby {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Lobby, 0, len(s.lobbies))
	for _, l := range s.lobbies {
		out = append(out, l)
	}
	return out
}
