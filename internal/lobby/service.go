// internal/lobby/service.go
package lobby

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/smccrary/scrimq/internal/directory"
	"github.com/smccrary/scrimq/internal/events"
	"github.com/smccrary/scrimq/internal/scheduler"
)

// BotChecker answers whether a player id is a synthesized bot. The map-ban
// engine auto-plays turns belonging to bot captains.
type BotChecker interface {
	IsBot(id uuid.UUID) bool
}

// Config carries the lobby timing knobs.
type Config struct {
	// QueueLobbyTTL is the ready-up window for matchmaker-formed lobbies.
	QueueLobbyTTL time.Duration
	// CustomLobbyTTL is the (much longer) window for leader-created lobbies.
	CustomLobbyTTL time.Duration
	// BotBanDelay is how long after a turn passes to a bot captain before the
	// auto-ban fires.
	BotBanDelay time.Duration
	// SweepInterval is the expiry sweeper period.
	SweepInterval time.Duration
	// CancelledRetention is how long a CANCELLED lobby stays readable before
	// the sweeper evicts it from the store.
	CancelledRetention time.Duration
}

// DefaultConfig mirrors production settings.
func DefaultConfig() Config {
	return Config{
		QueueLobbyTTL:      5 * time.Minute,
		CustomLobbyTTL:     60 * time.Minute,
		BotBanDelay:        3 * time.Second,
		SweepInterval:      30 * time.Second,
		CancelledRetention: 5 * time.Minute,
	}
}

// Service owns every lobby operation: formation, custom lobby membership,
// the veto protocol, ready checks and expiry.
type Service struct {
	store  *Store
	dir    directory.Service
	bots   BotChecker
	events events.Publisher
	sched  scheduler.Scheduler
	log    *logrus.Logger
	cfg    Config

	sweep scheduler.Task
}

func NewService(
	store *Store,
	dir directory.Service,
	bots BotChecker,
	publisher events.Publisher,
	sched scheduler.Scheduler,
	log *logrus.Logger,
	cfg Config,
) *Service {
	if bots == nil {
		bots = noBots{}
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		store:  store,
		dir:    dir,
		bots:   bots,
		events: publisher,
		sched:  sched,
		log:    log,
		cfg:    cfg,
	}
}

type noBots struct{}

func (noBots) IsBot(uuid.UUID) bool { return false }

// Get returns a snapshot of the lobby.
func (s *Service) Get(lobbyID uuid.UUID) (*View, error) {
	l, exists := s.store.Get(lobbyID)
	if !exists {
		return nil, ErrLobbyNotFound
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.viewLocked(), nil
}

// Watch registers a watcher on the lobby and returns the current snapshot so
// the subscriber starts from a consistent state.
func (s *Service) Watch(lobbyID uuid.UUID, w *Watcher) (*View, error) {
	l, exists := s.store.Get(lobbyID)
	if !exists {
		return nil, ErrLobbyNotFound
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.addWatcherLocked(w)
	return l.viewLocked(), nil
}

// Unwatch removes a watcher. Safe to call after the lobby is gone.
func (s *Service) Unwatch(lobbyID uuid.UUID, w *Watcher) {
	l, exists := s.store.Get(lobbyID)
	if !exists {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.removeWatcherLocked(w)
}

// publish emits a transition record, logging failures instead of propagating
// them: the event stream must never fail a lobby operation.
func (s *Service) publish(ctx context.Context, lobbyID uuid.UUID, eventType string, payload map[string]interface{}) {
	record := events.Record{
		LobbyID:   lobbyID,
		Type:      eventType,
		Payload:   payload,
		Timestamp: s.sched.Now().Unix(),
	}
	if err := s.events.Publish(ctx, record); err != nil {
		s.log.WithFields(logrus.Fields{
			"lobbyId": lobbyID,
			"event":   eventType,
		}).Warnf("event publish failed: %v", err)
	}
}
