// internal/lobby/ready.go
package lobby

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/smccrary/scrimq/internal/events"
	"github.com/smccrary/scrimq/internal/models"
)

// MarkReady records userID's ready acknowledgement. Double confirmation is
// rejected, not silently accepted. When the last player readies up the lobby
// transitions to ALL_READY exactly once; allReady reports whether this call
// was the one that did it.
func (s *Service) MarkReady(ctx context.Context, lobbyID, userID uuid.UUID) (*View, bool, error) {
	l, exists := s.store.Get(lobbyID)
	if !exists {
		return nil, false, ErrLobbyNotFound
	}

	l.mu.Lock()
	if l.Status == models.StatusCancelled {
		l.mu.Unlock()
		return nil, false, ErrLobbyCancelled
	}
	// Ready-check starts after map selection. Accepting acknowledgements
	// mid-veto would let the final ban overwrite an ALL_READY status.
	if l.MapBanPhase {
		l.mu.Unlock()
		return nil, false, ErrBanPhaseOpen
	}
	if l.Status == models.StatusAllReady {
		l.mu.Unlock()
		return nil, false, ErrAlreadyAllReady
	}
	player := l.findPlayerLocked(userID)
	if player == nil {
		l.mu.Unlock()
		return nil, false, ErrNotInLobby
	}
	if player.IsReady {
		l.mu.Unlock()
		return nil, false, ErrAlreadyReady
	}

	player.IsReady = true
	allReady := l.allReadyLocked()
	if allReady {
		l.Status = models.StatusAllReady
	}
	view := l.viewLocked()

	l.broadcastLocked(map[string]interface{}{
		"type":     "ready_update",
		"userId":   userID.String(),
		"isReady":  true,
		"allReady": allReady,
	})
	l.mu.Unlock()

	s.publish(ctx, lobbyID, events.TypePlayerReady, map[string]interface{}{
		"userId": userID.String(),
	})
	if allReady {
		s.log.WithField("lobbyId", lobbyID).Info("all players ready")
		s.publish(ctx, lobbyID, events.TypeAllReady, nil)
	}
	return view, allReady, nil
}

// ForceReadyAll is the moderation override: every player is marked ready in
// one step, bypassing per-player confirmation. Used operationally to unblock
// stuck bot-heavy lobbies.
func (s *Service) ForceReadyAll(ctx context.Context, lobbyID uuid.UUID) (*View, error) {
	l, exists := s.store.Get(lobbyID)
	if !exists {
		return nil, ErrLobbyNotFound
	}

	l.mu.Lock()
	if l.Status == models.StatusCancelled {
		l.mu.Unlock()
		return nil, ErrLobbyCancelled
	}
	if l.MapBanPhase {
		l.mu.Unlock()
		return nil, ErrBanPhaseOpen
	}
	for _, p := range l.Players {
		p.IsReady = true
	}
	if len(l.Players) > 0 {
		l.Status = models.StatusAllReady
	}
	view := l.viewLocked()
	l.broadcastLocked(map[string]interface{}{
		"type":     "ready_update",
		"forced":   true,
		"allReady": view.AllPlayersReady,
	})
	l.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"lobbyId": lobbyID,
	}).Warn("force-ready override applied")
	s.publish(ctx, lobbyID, events.TypeAllReady, map[string]interface{}{
		"forced": true,
	})
	return view, nil
}
