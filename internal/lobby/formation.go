// internal/lobby/formation.go
package lobby

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/smccrary/scrimq/internal/events"
	"github.com/smccrary/scrimq/internal/models"
)

// LobbySize is the roster size of a matchmaker-formed lobby.
const LobbySize = 10

// TeamSize caps each side at five players.
const TeamSize = 5

// alphaSlots is the positional split over the rating-descending order:
// these indices go to Alpha, the rest to Bravo. The snake-like pattern
// spreads the top two and the middle pack across both sides instead of
// stacking the high ratings on one team.
var alphaSlots = map[int]bool{0: true, 3: true, 4: true, 7: true, 8: true}

// FormLobby turns exactly ten resolved player profiles into a queue lobby in
// MAP_BAN_PHASE and kicks off the veto protocol. The roster checks are
// defensive: the matchmaker validates before consuming queue entries, so a
// failure here must not silently lose players (the caller restores them).
func (s *Service) FormLobby(ctx context.Context, profiles []*models.PlayerProfile) (uuid.UUID, error) {
	if len(profiles) != LobbySize {
		return uuid.Nil, fmt.Errorf("%w: got %d players, need %d", ErrIncompleteRoster, len(profiles), LobbySize)
	}
	for _, p := range profiles {
		if p.ExternalID == "" {
			return uuid.Nil, fmt.Errorf("%w: %s has no in-game id", ErrIncompleteRoster, p.UserID)
		}
	}

	sorted := make([]*models.PlayerProfile, len(profiles))
	copy(sorted, profiles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EffectiveRating() > sorted[j].EffectiveRating()
	})

	now := s.sched.Now()
	l := &Lobby{
		ID:            uuid.New(),
		Type:          TypeQueue,
		Status:        models.StatusMapBanPhase,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.cfg.QueueLobbyTTL),
		MapBanPhase:   true,
		AvailableMaps: models.MapPoolCopy(),
		BannedMaps:    []string{},
		BanHistory:    []models.BanRecord{},
	}

	for i, p := range sorted {
		team := models.TeamBravo
		if alphaSlots[i] {
			team = models.TeamAlpha
		}
		l.Players = append(l.Players, &models.LobbyPlayer{
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			ExternalID:  p.ExternalID,
			Rating:      p.EffectiveRating(),
			Avatar:      p.Avatar,
			Team:        team,
		})
		if team == models.TeamAlpha {
			l.TeamAlpha = append(l.TeamAlpha, p.UserID)
		} else {
			l.TeamBravo = append(l.TeamBravo, p.UserID)
		}
	}

	// Captains: highest-rated member of each side. Team slices were built in
	// rating-descending order, so the first entry is the captain; rating ties
	// resolve to first-encountered in sorted order.
	l.TeamAlphaLeader = l.TeamAlpha[0]
	l.TeamBravoLeader = l.TeamBravo[0]
	l.CurrentBanTeam = models.TeamAlpha

	s.store.Add(l)

	s.log.WithFields(logrus.Fields{
		"lobbyId":      l.ID,
		"alphaCaptain": l.TeamAlphaLeader,
		"bravoCaptain": l.TeamBravoLeader,
	}).Info("lobby formed, map-ban phase open")

	s.publish(ctx, l.ID, events.TypeLobbyFormed, map[string]interface{}{
		"teamAlpha": l.TeamAlpha,
		"teamBravo": l.TeamBravo,
	})

	// If the opening turn belongs to a bot captain, the auto-ban is scheduled
	// rather than run inline so the synchronous formation path stays short and
	// subscribers see the phase before the first ban lands.
	if s.bots.IsBot(l.TeamAlphaLeader) {
		s.scheduleAutoBan(l.ID)
	}
	return l.ID, nil
}
