// internal/queue/store.go
package queue

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/smccrary/scrimq/internal/models"
)

// Store holds the live matchmaking pool in arrival order. All access goes
// through the mutex; the matchmaker's select-and-consume relies on
// ConsumeExactly being a single critical section so two racing ticks can
// never double-consume an entry.
type Store struct {
	mu      sync.Mutex
	entries []*models.QueueEntry
}

func NewStore() *Store {
	return &Store{}
}

// Add appends an entry to the pool. Entries are kept in arrival order, which
// is the FIFO order joinedAt defines.
func (s *Store) Add(entry *models.QueueEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

// RemoveByUser deletes the entry submitted by userID. Idempotent; reports
// whether anything was removed.
func (s *Store) RemoveByUser(userID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.UserID == userID {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

// hasMemberLocked reports whether userID appears in any live entry, as
// leader or as a declared party member. Caller holds the lock.
func (s *Store) hasMemberLocked(userID uuid.UUID) bool {
	for _, e := range s.entries {
		if e.HasMember(userID) {
			return true
		}
	}
	return false
}

// AddIfAbsent inserts the entry only if none of its members already appears
// in a live entry. Check and insert share one critical section, so two
// parallel joins for overlapping members cannot both land.
func (s *Store) AddIfAbsent(entry *models.QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range entry.PartyMemberIDs {
		if s.hasMemberLocked(id) {
			return fmt.Errorf("%w: %s", ErrAlreadyQueued, id)
		}
	}
	s.entries = append(s.entries, entry)
	return nil
}

// Snapshot returns the pool in FIFO order. The returned slice is a copy; the
// entries themselves are shared and must be treated as read-only.
func (s *Store) Snapshot() []*models.QueueEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.QueueEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Position returns the 1-based FIFO position of the entry containing userID
// (entries with strictly earlier arrival count ahead of it), or -1 if the
// user is not queued.
func (s *Store) Position(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.HasMember(userID) {
			return i + 1
		}
	}
	return -1
}

// TotalPlayers sums partySize across the pool, so a party occupies multiple
// slots toward the lobby threshold.
func (s *Store) TotalPlayers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, e := range s.entries {
		total += e.PartySize
	}
	return total
}

// ConsumeExactly atomically removes the entries with the given ids. If any of
// them is no longer present (a player left mid-formation), nothing is removed
// and false is returned; the matchmaker aborts and retries on its next tick.
func (s *Store) ConsumeExactly(entryIDs []uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := make(map[uuid.UUID]int, len(s.entries))
	for i, e := range s.entries {
		idx[e.ID] = i
	}
	for _, id := range entryIDs {
		if _, ok := idx[id]; !ok {
			return false
		}
	}

	consumed := make(map[uuid.UUID]bool, len(entryIDs))
	for _, id := range entryIDs {
		consumed[id] = true
	}
	kept := s.entries[:0]
	for _, e := range s.entries {
		if !consumed[e.ID] {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	return true
}

// Restore re-inserts previously consumed entries, merging by joinedAt so the
// pool's FIFO order is preserved for anyone who arrived in the meantime.
func (s *Store) Restore(entries []*models.QueueEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].JoinedAt.Before(s.entries[j].JoinedAt)
	})
}
