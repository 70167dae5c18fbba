// internal/models/queue.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// QueueEntry is one pending matchmaking submission: a solo player or a
// pre-formed party queueing together as a unit. JoinedAt defines FIFO order.
type QueueEntry struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"userId"`
	// PartyMemberIDs always includes UserID. Size 1–5.
	PartyMemberIDs []uuid.UUID `json:"partyMemberIds"`
	PartySize      int         `json:"partySize"`
	AverageRating  int         `json:"averageRating"`
	JoinedAt       time.Time   `json:"joinedAt"`
}

// HasMember reports whether id is part of this entry, leader included.
func (e *QueueEntry) HasMember(id uuid.UUID) bool {
	for _, m := range e.PartyMemberIDs {
		if m == id {
			return true
		}
	}
	return false
}
