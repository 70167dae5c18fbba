// internal/queue/matchmaker.go
package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/smccrary/scrimq/internal/directory"
	"github.com/smccrary/scrimq/internal/models"
	"github.com/smccrary/scrimq/internal/scheduler"
)

// Former turns a validated 10-player roster into a lobby. Implemented by the
// lobby service.
type Former interface {
	FormLobby(ctx context.Context, profiles []*models.PlayerProfile) (uuid.UUID, error)
}

// Matchmaker pulls entries from the pool in strict FIFO order and forms a
// lobby whenever the prefix-sum of party sizes reaches exactly ten. It runs on
// a periodic tick and is also kicked synchronously after each admission.
type Matchmaker struct {
	mu     sync.Mutex
	store  *Store
	dir    directory.Service
	former Former
	log    *logrus.Logger

	tick scheduler.Task
}

func NewMatchmaker(store *Store, dir directory.Service, former Former, log *logrus.Logger) *Matchmaker {
	return &Matchmaker{
		store:  store,
		dir:    dir,
		former: former,
		log:    log,
	}
}

// Start schedules the periodic tick. Each iteration recovers its own panics
// so one bad pool state cannot halt matchmaking for good.
func (m *Matchmaker) Start(sched scheduler.Scheduler, interval time.Duration) {
	m.tick = sched.Every(interval, func() {
		defer func() {
			if r := recover(); r != nil {
				m.log.Errorf("matchmaker tick panicked: %v", r)
			}
		}()
		m.TryMatch(context.Background())
	})
}

// Stop cancels the periodic tick.
func (m *Matchmaker) Stop() {
	if m.tick != nil {
		m.tick.Cancel()
	}
}

// TryMatch attempts to form one lobby. Returns the new lobby id, or false if
// the pool cannot currently fill one. Ticks are serialized on the matchmaker
// mutex; entry consumption is atomic against concurrent leaves.
func (m *Matchmaker) TryMatch(ctx context.Context) (uuid.UUID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	picked, total := m.selectEntries()
	if total != LobbySize {
		return uuid.Nil, false
	}

	// Flatten and resolve profiles before touching the pool. Any failure here
	// leaves every entry in place, eligible for the next tick.
	profiles := make([]*models.PlayerProfile, 0, LobbySize)
	for _, entry := range picked {
		for _, memberID := range entry.PartyMemberIDs {
			profile, err := m.dir.GetProfile(ctx, memberID)
			if err != nil {
				m.log.WithFields(logrus.Fields{
					"userId": memberID,
					"error":  err,
				}).Warn("matchmaker aborted: unresolvable roster member")
				return uuid.Nil, false
			}
			if profile.ExternalID == "" {
				m.log.WithField("userId", memberID).Warn("matchmaker aborted: member lacks in-game id")
				return uuid.Nil, false
			}
			profiles = append(profiles, profile)
		}
	}

	entryIDs := make([]uuid.UUID, len(picked))
	for i, entry := range picked {
		entryIDs[i] = entry.ID
	}
	if !m.store.ConsumeExactly(entryIDs) {
		// Somebody left between selection and consumption; retry next tick.
		m.log.Debug("matchmaker aborted: pool changed during formation")
		return uuid.Nil, false
	}

	lobbyID, err := m.former.FormLobby(ctx, profiles)
	if err != nil {
		// Roster was pre-validated, so this is exceptional. Put the entries
		// back so no queued player is silently lost.
		m.store.Restore(picked)
		m.log.WithError(err).Error("lobby formation failed; queue entries restored")
		return uuid.Nil, false
	}

	m.log.WithFields(logrus.Fields{
		"lobbyId": lobbyID,
		"entries": len(picked),
	}).Info("lobby formed from queue")
	return lobbyID, true
}

// selectEntries scans the pool in FIFO order, greedily taking every entry
// that still fits under the 10-slot cap and stopping the moment the running
// total hits exactly ten. Entries that would overflow are skipped, not split,
// so a large party can stall behind later smaller ones that do fit.
func (m *Matchmaker) selectEntries() ([]*models.QueueEntry, int) {
	var picked []*models.QueueEntry
	total := 0
	for _, entry := range m.store.Snapshot() {
		if total+entry.PartySize > LobbySize {
			continue
		}
		picked = append(picked, entry)
		total += entry.PartySize
		if total == LobbySize {
			break
		}
	}
	return picked, total
}

// IsAdmissionError reports whether err belongs to the admission taxonomy, as
// opposed to an internal failure.
func IsAdmissionError(err error) bool {
	return errors.Is(err, ErrAlreadyQueued) ||
		errors.Is(err, ErrPartyTooLarge) ||
		errors.Is(err, ErrMissingProfile) ||
		errors.Is(err, ErrMissingExternalID)
}
