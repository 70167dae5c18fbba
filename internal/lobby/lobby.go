// internal/lobby/lobby.go

// Package lobby implements lobby formation, the map-veto protocol, the
// ready-check phase and lobby lifecycle. Each Lobby is an aggregate guarded
// by its own mutex; two concurrent mutations of the same lobby never
// interleave, and once a lobby is cancelled every further mutation fails
// fast.
package lobby

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smccrary/scrimq/internal/models"
)

// Lobby types.
const (
	TypeQueue  = "queue"  // formed by the matchmaker, exactly 10 players
	TypeCustom = "custom" // leader-created, 1–10 players
)

// Lobby is the in-memory aggregate for one match lobby.
type Lobby struct {
	ID       uuid.UUID
	Type     string
	LeaderID uuid.UUID // custom lobbies only

	Status  models.LobbyStatus
	Players []*models.LobbyPlayer

	TeamAlpha []uuid.UUID
	TeamBravo []uuid.UUID

	CreatedAt time.Time
	ExpiresAt time.Time
	// CancelledAt is set once when the lobby reaches CANCELLED; the sweeper
	// evicts the lobby after the retention window so late reads still see the
	// terminal state for a while.
	CancelledAt time.Time

	// Map-ban state. AvailableMaps plus BannedMaps always re-assemble to the
	// fixed pool; SelectedMap is set exactly once, when one map remains.
	MapBanPhase     bool
	AvailableMaps   []string
	BannedMaps      []string
	BanHistory      []models.BanRecord
	CurrentBanTeam  models.Team
	TeamAlphaLeader uuid.UUID
	TeamBravoLeader uuid.UUID
	SelectedMap     string

	mu       sync.Mutex
	watchers map[*Watcher]bool
}

// View is an immutable snapshot of a lobby, safe to marshal and hand out.
type View struct {
	ID              uuid.UUID             `json:"id"`
	Type            string                `json:"type"`
	LeaderID        uuid.UUID             `json:"leaderId,omitzero"`
	Status          models.LobbyStatus    `json:"status"`
	Players         []models.LobbyPlayer  `json:"players"`
	TeamAlpha       []uuid.UUID           `json:"teamAlpha"`
	TeamBravo       []uuid.UUID           `json:"teamBravo"`
	CreatedAt       time.Time             `json:"createdAt"`
	ExpiresAt       time.Time             `json:"expiresAt"`
	MapBanPhase     bool                  `json:"mapBanPhase"`
	AvailableMaps   []string              `json:"availableMaps"`
	BannedMaps      []string              `json:"bannedMaps"`
	BanHistory      []models.BanRecord    `json:"banHistory"`
	CurrentBanTeam  models.Team           `json:"currentBanTeam,omitempty"`
	TeamAlphaLeader uuid.UUID             `json:"teamAlphaLeader,omitzero"`
	TeamBravoLeader uuid.UUID             `json:"teamBravoLeader,omitzero"`
	SelectedMap     string                `json:"selectedMap,omitempty"`
	AllPlayersReady bool                  `json:"allPlayersReady"`
}

// viewLocked snapshots the lobby. Caller holds the lock.
func (l *Lobby) viewLocked() *View {
	players := make([]models.LobbyPlayer, len(l.Players))
	for i, p := range l.Players {
		players[i] = *p
	}
	v := &View{
		ID:              l.ID,
		Type:            l.Type,
		LeaderID:        l.LeaderID,
		Status:          l.Status,
		Players:         players,
		TeamAlpha:       append([]uuid.UUID(nil), l.TeamAlpha...),
		TeamBravo:       append([]uuid.UUID(nil), l.TeamBravo...),
		CreatedAt:       l.CreatedAt,
		ExpiresAt:       l.ExpiresAt,
		MapBanPhase:     l.MapBanPhase,
		AvailableMaps:   append([]string(nil), l.AvailableMaps...),
		BannedMaps:      append([]string(nil), l.BannedMaps...),
		BanHistory:      append([]models.BanRecord(nil), l.BanHistory...),
		CurrentBanTeam:  l.CurrentBanTeam,
		TeamAlphaLeader: l.TeamAlphaLeader,
		TeamBravoLeader: l.TeamBravoLeader,
		SelectedMap:     l.SelectedMap,
		AllPlayersReady: l.allReadyLocked(),
	}
	return v
}

// findPlayerLocked returns the roster slot for userID, or nil.
func (l *Lobby) findPlayerLocked(userID uuid.UUID) *models.LobbyPlayer {
	for _, p := range l.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// allReadyLocked is the derived allPlayersReady flag: true iff every roster
// slot is ready. An empty roster is never "all ready".
func (l *Lobby) allReadyLocked() bool {
	if len(l.Players) == 0 {
		return false
	}
	for _, p := range l.Players {
		if !p.IsReady {
			return false
		}
	}
	return true
}

// captainOfLocked returns the stored captain for a team.
func (l *Lobby) captainOfLocked(team models.Team) uuid.UUID {
	if team == models.TeamAlpha {
		return l.TeamAlphaLeader
	}
	return l.TeamBravoLeader
}

// teamOfCaptainLocked maps an acting user to the team they captain, or ""
// if they captain neither.
func (l *Lobby) teamOfCaptainLocked(userID uuid.UUID) models.Team {
	switch userID {
	case l.TeamAlphaLeader:
		return models.TeamAlpha
	case l.TeamBravoLeader:
		return models.TeamBravo
	}
	return ""
}

// cancelLocked drives the lobby into its terminal state. Idempotent; the
// first cancellation wins the timestamp.
func (l *Lobby) cancelLocked(now time.Time) {
	if l.Status != models.StatusCancelled {
		l.CancelledAt = now
	}
	l.Status = models.StatusCancelled
	l.MapBanPhase = false
	l.CurrentBanTeam = ""
}

// removeFromTeamsLocked drops userID from both team sets.
func (l *Lobby) removeFromTeamsLocked(userID uuid.UUID) {
	l.TeamAlpha = removeID(l.TeamAlpha, userID)
	l.TeamBravo = removeID(l.TeamBravo, userID)
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// Watcher is a single subscriber to a lobby's transition stream, typically a
// websocket connection's outbound side.
type Watcher struct {
	UserID  uuid.UUID
	OutChan chan map[string]interface{}
	Cancel  func()
}

// Write pushes a message onto the watcher's channel without blocking. A full
// or abandoned watcher simply misses the message.
func (w *Watcher) Write(msg map[string]interface{}) {
	select {
	case w.OutChan <- msg:
	default:
	}
}

// addWatcherLocked registers a watcher. Caller holds the lock.
func (l *Lobby) addWatcherLocked(w *Watcher) {
	if l.watchers == nil {
		l.watchers = make(map[*Watcher]bool)
	}
	l.watchers[w] = true
}

// removeWatcherLocked unregisters a watcher. Caller holds the lock.
func (l *Lobby) removeWatcherLocked(w *Watcher) {
	delete(l.watchers, w)
}

// broadcastLocked fans a message out to every watcher. Writes never block,
// so holding the lock here is safe.
func (l *Lobby) broadcastLocked(msg map[string]interface{}) {
	for w := range l.watchers {
		w.Write(msg)
	}
}
