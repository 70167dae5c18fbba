// internal/lobby/sweeper.go
package lobby

import (
	"context"
	"time"

	"github.com/smccrary/scrimq/internal/events"
	"github.com/smccrary/scrimq/internal/models"
)

// StartSweeper arms the periodic expiry sweep. The sweeper is the safety net
// for lobbies abandoned mid-ban or mid-ready-check: anything past its expiry
// that has not reached CANCELLED gets cancelled. CANCELLED is terminal, so
// sweeping concurrently with in-flight requests is safe (last write wins and
// every later mutation fails fast). Lobbies that have sat in CANCELLED for
// the retention window are evicted from the store entirely.
func (s *Service) StartSweeper() {
	s.sweep = s.sched.Every(s.cfg.SweepInterval, s.SweepExpired)
}

// StopSweeper cancels the periodic sweep.
func (s *Service) StopSweeper() {
	if s.sweep != nil {
		s.sweep.Cancel()
	}
}

// SweepExpired runs one sweep pass. Each lobby is handled in its own guarded
// step so one bad lobby cannot halt the sweep for the rest.
func (s *Service) SweepExpired() {
	now := s.sched.Now()
	for _, l := range s.store.Snapshot() {
		s.sweepOne(l, now)
	}
}

func (s *Service) sweepOne(l *Lobby, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("expiry sweep of lobby %s panicked: %v", l.ID, r)
		}
	}()

	l.mu.Lock()
	if l.Status == models.StatusCancelled {
		evict := now.After(l.CancelledAt.Add(s.cfg.CancelledRetention))
		l.mu.Unlock()
		if evict {
			s.store.Delete(l.ID)
			s.log.WithField("lobbyId", l.ID).Debug("cancelled lobby evicted")
		}
		return
	}
	if !now.After(l.ExpiresAt) {
		l.mu.Unlock()
		return
	}
	l.cancelLocked(now)
	l.broadcastLocked(map[string]interface{}{
		"type":   "lobby_cancelled",
		"reason": "expired",
	})
	l.mu.Unlock()

	s.log.WithField("lobbyId", l.ID).Info("lobby expired, cancelled by sweeper")
	s.publish(context.Background(), l.ID, events.TypeLobbyCancelled, map[string]interface{}{
		"reason": "expired",
	})
}
