// internal/models/lobby.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// LobbyStatus is the lobby lifecycle state.
type LobbyStatus string

const (
	StatusOpen            LobbyStatus = "OPEN"
	StatusFull            LobbyStatus = "FULL"
	StatusMapBanPhase     LobbyStatus = "MAP_BAN_PHASE"
	StatusReadyPhase      LobbyStatus = "READY_PHASE"
	StatusAllReady        LobbyStatus = "ALL_READY"
	StatusPlaying         LobbyStatus = "PLAYING"
	StatusResultSubmitted LobbyStatus = "RESULT_SUBMITTED"
	StatusCancelled       LobbyStatus = "CANCELLED"
)

// Team identifies one of the two sides of a formed lobby. The zero value
// means "no team assigned" (custom-lobby players before team assignment) or
// "no team's turn" (map-ban phase closed).
type Team string

const (
	TeamAlpha Team = "alpha"
	TeamBravo Team = "bravo"
)

// Opponent returns the other team. Only meaningful for TeamAlpha/TeamBravo.
func (t Team) Opponent() Team {
	if t == TeamAlpha {
		return TeamBravo
	}
	return TeamAlpha
}

// LobbyPlayer is one roster slot in a lobby.
type LobbyPlayer struct {
	UserID      uuid.UUID `json:"userId"`
	DisplayName string    `json:"displayName"`
	ExternalID  string    `json:"externalId"`
	Rating      int       `json:"rating"`
	Avatar      string    `json:"avatar,omitempty"`
	IsReady     bool      `json:"isReady"`
	Team        Team      `json:"team,omitempty"`
}

// BanRecord is one line of a lobby's append-only veto log.
type BanRecord struct {
	Team      Team      `json:"team"`
	Map       string    `json:"map"`
	Timestamp time.Time `json:"timestamp"`
}
