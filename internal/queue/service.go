// internal/queue/service.go

// Package queue implements the matchmaking pool: admission rules on join,
// FIFO bookkeeping, and the matchmaker that forms 10-player lobbies.
package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/smccrary/scrimq/internal/directory"
	"github.com/smccrary/scrimq/internal/models"
	"github.com/smccrary/scrimq/internal/scheduler"
)

// LobbySize is the exact player count a queue-formed lobby requires.
const LobbySize = 10

// MaxPartySize is the party ceiling for a single queue entry.
const MaxPartySize = 5

// Admission errors. Reported to the caller with no state mutated.
var (
	ErrAlreadyQueued     = errors.New("player is already queued")
	ErrPartyTooLarge     = errors.New("party exceeds five players")
	ErrMissingProfile    = errors.New("player has no directory profile")
	ErrMissingExternalID = errors.New("player profile has no in-game id")
)

// Service owns queue admission and status queries. The matchmaker is kicked
// synchronously after every admission that could have filled the pool.
type Service struct {
	store      *Store
	dir        directory.Service
	matchmaker *Matchmaker
	sched      scheduler.Scheduler
	log        *logrus.Logger
}

func NewService(store *Store, dir directory.Service, sched scheduler.Scheduler, log *logrus.Logger) *Service {
	return &Service{
		store: store,
		dir:   dir,
		sched: sched,
		log:   log,
	}
}

// SetMatchmaker wires the matchmaker kicked after admissions. Set once during
// startup, before any request traffic.
func (s *Service) SetMatchmaker(m *Matchmaker) {
	s.matchmaker = m
}

// Join admits userID (plus any declared party members) into the pool.
// partyMemberIDs excludes the submitter; listing them anyway is tolerated.
// Returns the stored entry and the caller's 1-based queue position.
func (s *Service) Join(ctx context.Context, userID uuid.UUID, partyMemberIDs []uuid.UUID) (*models.QueueEntry, int, error) {
	allMembers := make([]uuid.UUID, 0, len(partyMemberIDs)+1)
	seen := map[uuid.UUID]bool{userID: true}
	allMembers = append(allMembers, userID)
	for _, id := range partyMemberIDs {
		if !seen[id] {
			seen[id] = true
			allMembers = append(allMembers, id)
		}
	}

	if len(allMembers) > MaxPartySize {
		return nil, 0, ErrPartyTooLarge
	}

	// Directory lookups happen before any mutation of the pool.
	ratingTotal := 0
	for _, id := range allMembers {
		profile, err := s.dir.GetProfile(ctx, id)
		if errors.Is(err, directory.ErrNotFound) {
			return nil, 0, fmt.Errorf("%w: %s", ErrMissingProfile, id)
		}
		if err != nil {
			return nil, 0, fmt.Errorf("directory lookup failed for %s: %w", id, err)
		}
		if profile.ExternalID == "" {
			return nil, 0, fmt.Errorf("%w: %s", ErrMissingExternalID, id)
		}
		ratingTotal += profile.EffectiveRating()
	}

	entry := &models.QueueEntry{
		ID:             uuid.New(),
		UserID:         userID,
		PartyMemberIDs: allMembers,
		PartySize:      len(allMembers),
		AverageRating:  ratingTotal / len(allMembers),
		JoinedAt:       s.sched.Now(),
	}
	// Every member is cross-checked against the whole pool, not just the
	// submitter, inside the store's critical section; one userId may appear
	// in at most one live entry even under parallel joins.
	if err := s.store.AddIfAbsent(entry); err != nil {
		return nil, 0, err
	}
	position := s.store.Position(userID)

	s.log.WithFields(logrus.Fields{
		"userId":    userID,
		"partySize": entry.PartySize,
		"avgRating": entry.AverageRating,
		"position":  position,
	}).Info("queue join")

	if s.matchmaker != nil {
		s.matchmaker.TryMatch(ctx)
	}
	return entry, position, nil
}

// Leave removes the entry submitted by userID. Idempotent; reports whether an
// entry was actually removed.
func (s *Service) Leave(userID uuid.UUID) bool {
	removed := s.store.RemoveByUser(userID)
	if removed {
		s.log.WithField("userId", userID).Info("queue leave")
	}
	return removed
}

// Status reports whether userID is queued, its FIFO position (or -1) and the
// total player count across the pool.
func (s *Service) Status(userID uuid.UUID) (inQueue bool, position int, totalPlayers int) {
	position = s.store.Position(userID)
	return position > 0, position, s.store.TotalPlayers()
}
