// internal/lobby/mapban.go
package lobby

import (
	"context"
	"math/rand"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/smccrary/scrimq/internal/events"
	"github.com/smccrary/scrimq/internal/models"
)

// BanStatus is the veto-phase slice of a lobby's state.
type BanStatus struct {
	MapBanPhase     bool               `json:"mapBanPhase"`
	AvailableMaps   []string           `json:"availableMaps"`
	BannedMaps      []string           `json:"bannedMaps"`
	SelectedMap     string             `json:"selectedMap,omitempty"`
	CurrentBanTeam  models.Team        `json:"currentBanTeam,omitempty"`
	TeamAlphaLeader uuid.UUID          `json:"teamAlphaLeader,omitzero"`
	TeamBravoLeader uuid.UUID          `json:"teamBravoLeader,omitzero"`
	BanHistory      []models.BanRecord `json:"banHistory"`
}

func (l *Lobby) banStatusLocked() *BanStatus {
	return &BanStatus{
		MapBanPhase:     l.MapBanPhase,
		AvailableMaps:   append([]string(nil), l.AvailableMaps...),
		BannedMaps:      append([]string(nil), l.BannedMaps...),
		SelectedMap:     l.SelectedMap,
		CurrentBanTeam:  l.CurrentBanTeam,
		TeamAlphaLeader: l.TeamAlphaLeader,
		TeamBravoLeader: l.TeamBravoLeader,
		BanHistory:      append([]models.BanRecord(nil), l.BanHistory...),
	}
}

// BanStatus returns the current veto state of the lobby.
func (s *Service) BanStatus(lobbyID uuid.UUID) (*BanStatus, error) {
	l, exists := s.store.Get(lobbyID)
	if !exists {
		return nil, ErrLobbyNotFound
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.banStatusLocked(), nil
}

// Ban eliminates mapName on behalf of actingUserID. Validation precedes every
// mutation; on the final ban the remaining map becomes SelectedMap, the phase
// closes and the lobby moves to READY_PHASE. While the phase stays open and
// the next turn belongs to a bot captain, an auto-ban is scheduled so bot
// turns never stall the protocol.
func (s *Service) Ban(ctx context.Context, lobbyID, actingUserID uuid.UUID, mapName string) (*BanStatus, error) {
	l, exists := s.store.Get(lobbyID)
	if !exists {
		return nil, ErrLobbyNotFound
	}

	l.mu.Lock()
	if l.Status == models.StatusCancelled {
		l.mu.Unlock()
		return nil, ErrLobbyCancelled
	}
	if !l.MapBanPhase {
		l.mu.Unlock()
		return nil, ErrPhaseInactive
	}
	// availableMaps plus bannedMaps always re-assemble to the fixed pool, so
	// a pool map that is not banned is necessarily still available.
	if !models.InMapPool(mapName) {
		l.mu.Unlock()
		return nil, ErrUnknownMap
	}
	if contains(l.BannedMaps, mapName) {
		l.mu.Unlock()
		return nil, ErrAlreadyBanned
	}
	team := l.teamOfCaptainLocked(actingUserID)
	if team == "" {
		l.mu.Unlock()
		return nil, ErrNotACaptain
	}
	if team != l.CurrentBanTeam {
		l.mu.Unlock()
		return nil, ErrWrongTurn
	}

	l.AvailableMaps = remove(l.AvailableMaps, mapName)
	l.BannedMaps = append(l.BannedMaps, mapName)
	l.BanHistory = append(l.BanHistory, models.BanRecord{
		Team:      team,
		Map:       mapName,
		Timestamp: s.sched.Now(),
	})

	selected := false
	if len(l.AvailableMaps) == 1 {
		l.SelectedMap = l.AvailableMaps[0]
		l.MapBanPhase = false
		l.CurrentBanTeam = ""
		l.Status = models.StatusReadyPhase
		selected = true
	} else {
		l.CurrentBanTeam = team.Opponent()
	}

	status := l.banStatusLocked()
	nextIsBot := l.MapBanPhase && s.bots.IsBot(l.captainOfLocked(l.CurrentBanTeam))

	l.broadcastLocked(map[string]interface{}{
		"type":           "map_banned",
		"team":           string(team),
		"map":            mapName,
		"currentBanTeam": string(status.CurrentBanTeam),
		"availableMaps":  status.AvailableMaps,
	})
	if selected {
		l.broadcastLocked(map[string]interface{}{
			"type":        "map_selected",
			"selectedMap": status.SelectedMap,
		})
	}
	l.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"lobbyId": lobbyID,
		"team":    team,
		"map":     mapName,
	}).Info("map banned")

	s.publish(ctx, lobbyID, events.TypeMapBanned, map[string]interface{}{
		"team": string(team),
		"map":  mapName,
	})
	if selected {
		s.publish(ctx, lobbyID, events.TypeMapSelected, map[string]interface{}{
			"map": status.SelectedMap,
		})
	}
	if nextIsBot {
		s.scheduleAutoBan(lobbyID)
	}
	return status, nil
}

// scheduleAutoBan arms a one-shot task that plays the current bot captain's
// turn after the configured delay.
func (s *Service) scheduleAutoBan(lobbyID uuid.UUID) {
	s.sched.After(s.cfg.BotBanDelay, func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Errorf("auto-ban for lobby %s panicked: %v", lobbyID, r)
			}
		}()
		s.autoBan(lobbyID)
	})
}

// autoBan re-enters the ban operation on behalf of the bot captain whose turn
// it is. The task may fire after the phase closed, the lobby was cancelled or
// the turn changed; every one of those is a safe no-op because Ban re-checks
// the full protocol state.
func (s *Service) autoBan(lobbyID uuid.UUID) {
	l, exists := s.store.Get(lobbyID)
	if !exists {
		return
	}

	l.mu.Lock()
	if l.Status == models.StatusCancelled || !l.MapBanPhase {
		l.mu.Unlock()
		return
	}
	captain := l.captainOfLocked(l.CurrentBanTeam)
	if !s.bots.IsBot(captain) {
		l.mu.Unlock()
		return
	}
	pick := l.AvailableMaps[rand.Intn(len(l.AvailableMaps))]
	l.mu.Unlock()

	if _, err := s.Ban(context.Background(), lobbyID, captain, pick); err != nil {
		// A racing human ban or cancellation got there first; nothing to do.
		s.log.WithField("lobbyId", lobbyID).Debugf("auto-ban skipped: %v", err)
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func remove(list []string, v string) []string {
	for i, s := range list {
		if s == v {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
