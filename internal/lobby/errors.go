// internal/lobby/errors.go
package lobby

import "errors"

// Protocol and not-found errors. Validation always precedes mutation, so any
// of these being returned means lobby state is unchanged.
var (
	ErrLobbyNotFound    = errors.New("lobby not found")
	ErrLobbyCancelled   = errors.New("lobby is cancelled")
	ErrPhaseInactive    = errors.New("map-ban phase is not active")
	ErrUnknownMap       = errors.New("map is not in the pool")
	ErrAlreadyBanned    = errors.New("map is already banned")
	ErrNotACaptain      = errors.New("player is not a team captain")
	ErrWrongTurn        = errors.New("not this team's turn to ban")
	ErrBanPhaseOpen     = errors.New("map-ban phase is still in progress")
	ErrNotInLobby       = errors.New("player is not in this lobby")
	ErrAlreadyReady     = errors.New("player is already ready")
	ErrAlreadyAllReady  = errors.New("lobby is already all-ready")
	ErrIncompleteRoster = errors.New("roster is incomplete")
	ErrNotJoinable      = errors.New("lobby is not accepting players")
	ErrAlreadyInLobby   = errors.New("player is already in this lobby")
	ErrLobbyFull        = errors.New("lobby is full")
)
