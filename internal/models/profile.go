// internal/models/profile.go
package models

import "github.com/google/uuid"

// DefaultRating is assumed for any player whose directory record carries no rating.
const DefaultRating = 1000

// PlayerProfile is the Player Directory record for a single player: display
// identity plus skill rating. The directory is the read-only source of truth;
// this service never mutates real player profiles (bot profiles excepted).
type PlayerProfile struct {
	UserID      uuid.UUID `json:"userId"`
	DisplayName string    `json:"displayName"`
	// ExternalID is the in-game identity shown on lobby rosters. A profile
	// without one cannot enter the queue.
	ExternalID string `json:"externalId"`
	Rating     int    `json:"rating"`
	Avatar     string `json:"avatar,omitempty"`
}

// EffectiveRating returns the stored rating, or DefaultRating when unset.
func (p *PlayerProfile) EffectiveRating() int {
	if p.Rating <= 0 {
		return DefaultRating
	}
	return p.Rating
}
