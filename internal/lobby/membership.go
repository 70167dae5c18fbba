// internal/lobby/membership.go
package lobby

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/smccrary/scrimq/internal/directory"
	"github.com/smccrary/scrimq/internal/events"
	"github.com/smccrary/scrimq/internal/models"
)

// CreateCustom opens a leader-created lobby with the creator as its only
// player. Custom lobbies start OPEN, accept joins up to ten players and live
// much longer than queue lobbies before the sweeper reclaims them.
func (s *Service) CreateCustom(ctx context.Context, leaderID uuid.UUID) (*View, error) {
	profile, err := s.dir.GetProfile(ctx, leaderID)
	if errors.Is(err, directory.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrIncompleteRoster, leaderID)
	}
	if err != nil {
		return nil, fmt.Errorf("directory lookup failed for %s: %w", leaderID, err)
	}

	now := s.sched.Now()
	l := &Lobby{
		ID:            uuid.New(),
		Type:          TypeCustom,
		LeaderID:      leaderID,
		Status:        models.StatusOpen,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.cfg.CustomLobbyTTL),
		AvailableMaps: models.MapPoolCopy(),
		BannedMaps:    []string{},
		BanHistory:    []models.BanRecord{},
		Players: []*models.LobbyPlayer{{
			UserID:      profile.UserID,
			DisplayName: profile.DisplayName,
			ExternalID:  profile.ExternalID,
			Rating:      profile.EffectiveRating(),
			Avatar:      profile.Avatar,
		}},
	}
	s.store.Add(l)

	s.log.WithFields(logrus.Fields{
		"lobbyId":  l.ID,
		"leaderId": leaderID,
	}).Info("custom lobby created")

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.viewLocked(), nil
}

// JoinCustom adds userID to an OPEN custom lobby. The tenth join flips the
// lobby to FULL.
func (s *Service) JoinCustom(ctx context.Context, lobbyID, userID uuid.UUID) (*View, error) {
	l, exists := s.store.Get(lobbyID)
	if !exists {
		return nil, ErrLobbyNotFound
	}

	profile, err := s.dir.GetProfile(ctx, userID)
	if errors.Is(err, directory.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrIncompleteRoster, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("directory lookup failed for %s: %w", userID, err)
	}

	l.mu.Lock()
	if l.Status == models.StatusCancelled {
		l.mu.Unlock()
		return nil, ErrLobbyCancelled
	}
	if l.Type != TypeCustom || l.Status != models.StatusOpen {
		l.mu.Unlock()
		return nil, ErrNotJoinable
	}
	if l.findPlayerLocked(userID) != nil {
		l.mu.Unlock()
		return nil, ErrAlreadyInLobby
	}
	if len(l.Players) >= LobbySize {
		l.mu.Unlock()
		return nil, ErrLobbyFull
	}

	l.Players = append(l.Players, &models.LobbyPlayer{
		UserID:      profile.UserID,
		DisplayName: profile.DisplayName,
		ExternalID:  profile.ExternalID,
		Rating:      profile.EffectiveRating(),
		Avatar:      profile.Avatar,
	})
	filled := len(l.Players) == LobbySize
	if filled {
		l.Status = models.StatusFull
	}
	view := l.viewLocked()
	l.broadcastLocked(map[string]interface{}{
		"type":   "lobby_update",
		"joined": userID.String(),
		"status": string(l.Status),
	})
	l.mu.Unlock()

	if filled {
		s.publish(ctx, lobbyID, events.TypeLobbyFull, nil)
	}
	return view, nil
}

// Leave removes userID from the lobby. A leader leaving their custom lobby
// cancels the whole lobby; any other member is simply removed, and a FULL
// lobby reopens. Returns whether the lobby was cancelled as a result.
func (s *Service) Leave(ctx context.Context, lobbyID, userID uuid.UUID) (bool, error) {
	l, exists := s.store.Get(lobbyID)
	if !exists {
		return false, ErrLobbyNotFound
	}

	l.mu.Lock()
	if l.Status == models.StatusCancelled {
		l.mu.Unlock()
		return false, ErrLobbyCancelled
	}
	if l.findPlayerLocked(userID) == nil {
		l.mu.Unlock()
		return false, ErrNotInLobby
	}

	if l.Type == TypeCustom && l.LeaderID == userID {
		l.cancelLocked(s.sched.Now())
		l.broadcastLocked(map[string]interface{}{
			"type":   "lobby_cancelled",
			"reason": "leader_left",
		})
		l.mu.Unlock()

		s.log.WithField("lobbyId", lobbyID).Info("custom lobby cancelled, leader left")
		s.publish(ctx, lobbyID, events.TypeLobbyCancelled, map[string]interface{}{
			"reason": "leader_left",
		})
		return true, nil
	}

	for i, p := range l.Players {
		if p.UserID == userID {
			l.Players = append(l.Players[:i], l.Players[i+1:]...)
			break
		}
	}
	l.removeFromTeamsLocked(userID)
	l.repairCaptainLocked(userID)
	if l.Status == models.StatusFull {
		l.Status = models.StatusOpen
	}
	nextIsBot := l.MapBanPhase && s.bots.IsBot(l.captainOfLocked(l.CurrentBanTeam))
	l.broadcastLocked(map[string]interface{}{
		"type":   "lobby_update",
		"left":   userID.String(),
		"status": string(l.Status),
	})
	l.mu.Unlock()

	// A departing captain may have handed the open turn to a bot.
	if nextIsBot {
		s.scheduleAutoBan(lobbyID)
	}

	s.publish(ctx, lobbyID, events.TypePlayerLeft, map[string]interface{}{
		"userId": userID.String(),
	})
	return false, nil
}

// repairCaptainLocked re-seats a team's captaincy if the departing player
// held it during an open ban phase, so the veto protocol cannot dead-end on a
// captain who is no longer in the lobby. The replacement is the highest-rated
// remaining member, first encountered on a tie.
func (l *Lobby) repairCaptainLocked(departed uuid.UUID) {
	if !l.MapBanPhase {
		return
	}
	promote := func(team []uuid.UUID) uuid.UUID {
		var members []*models.LobbyPlayer
		for _, id := range team {
			if p := l.findPlayerLocked(id); p != nil {
				members = append(members, p)
			}
		}
		if len(members) == 0 {
			return uuid.Nil
		}
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].Rating > members[j].Rating
		})
		return members[0].UserID
	}
	if l.TeamAlphaLeader == departed {
		l.TeamAlphaLeader = promote(l.TeamAlpha)
	}
	if l.TeamBravoLeader == departed {
		l.TeamBravoLeader = promote(l.TeamBravo)
	}
}
