// internal/queue/service_test.go
package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smccrary/scrimq/internal/directory"
	"github.com/smccrary/scrimq/internal/models"
	"github.com/smccrary/scrimq/internal/scheduler"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

// seedPlayer registers a complete profile and returns its id.
func seedPlayer(t *testing.T, dir *directory.Memory, rating int) uuid.UUID {
	t.Helper()
	id := uuid.New()
	err := dir.PutProfile(context.Background(), &models.PlayerProfile{
		UserID:      id,
		DisplayName: fmt.Sprintf("player-%s", id.String()[:8]),
		ExternalID:  fmt.Sprintf("ext-%s", id.String()[:8]),
		Rating:      rating,
	})
	require.NoError(t, err)
	return id
}

func newTestService(t *testing.T) (*Service, *Store, *directory.Memory, *scheduler.Manual) {
	t.Helper()
	dir := directory.NewMemory()
	store := NewStore()
	sched := scheduler.NewManual(time.Unix(0, 0))
	svc := NewService(store, dir, sched, testLogger())
	return svc, store, dir, sched
}

func TestJoinSoloAssignsPosition(t *testing.T) {
	svc, _, dir, _ := newTestService(t)
	ctx := context.Background()

	u1 := seedPlayer(t, dir, 1200)
	u2 := seedPlayer(t, dir, 900)

	entry, pos, err := svc.Join(ctx, u1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
	assert.Equal(t, 1, entry.PartySize)
	assert.Equal(t, 1200, entry.AverageRating)

	_, pos, err = svc.Join(ctx, u2, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, pos)
}

func TestJoinPartyAveragesRatings(t *testing.T) {
	svc, store, dir, _ := newTestService(t)
	ctx := context.Background()

	leader := seedPlayer(t, dir, 1500)
	m1 := seedPlayer(t, dir, 1000)
	m2 := seedPlayer(t, dir, 800)

	entry, _, err := svc.Join(ctx, leader, []uuid.UUID{m1, m2})
	require.NoError(t, err)
	assert.Equal(t, 3, entry.PartySize)
	assert.Equal(t, (1500+1000+800)/3, entry.AverageRating)
	assert.Equal(t, 3, store.TotalPlayers())
}

func TestJoinDefaultsUnsetRating(t *testing.T) {
	svc, _, dir, _ := newTestService(t)
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, dir.PutProfile(ctx, &models.PlayerProfile{
		UserID:      id,
		DisplayName: "unrated",
		ExternalID:  "ext-unrated",
	}))

	entry, _, err := svc.Join(ctx, id, nil)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultRating, entry.AverageRating)
}

func TestJoinRejectsOversizedParty(t *testing.T) {
	svc, _, dir, _ := newTestService(t)
	ctx := context.Background()

	leader := seedPlayer(t, dir, 1000)
	var members []uuid.UUID
	for i := 0; i < 5; i++ {
		members = append(members, seedPlayer(t, dir, 1000))
	}

	_, _, err := svc.Join(ctx, leader, members)
	assert.ErrorIs(t, err, ErrPartyTooLarge)
}

func TestJoinRejectsMissingProfile(t *testing.T) {
	svc, store, _, _ := newTestService(t)

	_, _, err := svc.Join(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, ErrMissingProfile)
	assert.Equal(t, 0, store.TotalPlayers())
}

func TestJoinRejectsMissingExternalID(t *testing.T) {
	svc, _, dir, _ := newTestService(t)
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, dir.PutProfile(ctx, &models.PlayerProfile{
		UserID:      id,
		DisplayName: "no-ext",
		Rating:      1000,
	}))

	_, _, err := svc.Join(ctx, id, nil)
	assert.ErrorIs(t, err, ErrMissingExternalID)
}

func TestJoinRejectsDuplicateSubmitter(t *testing.T) {
	svc, _, dir, _ := newTestService(t)
	ctx := context.Background()

	u := seedPlayer(t, dir, 1000)
	_, _, err := svc.Join(ctx, u, nil)
	require.NoError(t, err)

	_, _, err = svc.Join(ctx, u, nil)
	assert.ErrorIs(t, err, ErrAlreadyQueued)
}

func TestJoinCrossChecksPartyMembers(t *testing.T) {
	svc, _, dir, _ := newTestService(t)
	ctx := context.Background()

	solo := seedPlayer(t, dir, 1000)
	_, _, err := svc.Join(ctx, solo, nil)
	require.NoError(t, err)

	// Queuing a party that declares the already-queued solo as a member is
	// rejected; one user id appears in at most one live entry.
	leader := seedPlayer(t, dir, 1100)
	_, _, err = svc.Join(ctx, leader, []uuid.UUID{solo})
	assert.ErrorIs(t, err, ErrAlreadyQueued)

	// A member of a live party cannot queue solo either.
	leader2 := seedPlayer(t, dir, 1100)
	m := seedPlayer(t, dir, 1000)
	_, _, err = svc.Join(ctx, leader2, []uuid.UUID{m})
	require.NoError(t, err)
	_, _, err = svc.Join(ctx, m, nil)
	assert.ErrorIs(t, err, ErrAlreadyQueued)
}

func TestParallelJoinsAdmitOneEntryPerUser(t *testing.T) {
	svc, store, dir, _ := newTestService(t)
	ctx := context.Background()

	u := seedPlayer(t, dir, 1000)
	buddy := seedPlayer(t, dir, 1000)

	const attempts = 64
	var wg sync.WaitGroup
	var admitted atomic.Int32
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		solo := i%2 == 0
		go func() {
			defer wg.Done()
			// Half the attempts queue u solo, half declare u as a party
			// member; at most one submission may land either way.
			var err error
			if solo {
				_, _, err = svc.Join(ctx, u, nil)
			} else {
				_, _, err = svc.Join(ctx, buddy, []uuid.UUID{u})
			}
			if err == nil {
				admitted.Add(1)
			} else {
				assert.ErrorIs(t, err, ErrAlreadyQueued)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), admitted.Load())
	entries := store.Snapshot()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].HasMember(u))
}

func TestLeaveIsIdempotent(t *testing.T) {
	svc, _, dir, _ := newTestService(t)
	ctx := context.Background()

	u := seedPlayer(t, dir, 1000)
	_, _, err := svc.Join(ctx, u, nil)
	require.NoError(t, err)

	assert.True(t, svc.Leave(u))
	assert.False(t, svc.Leave(u))
}

func TestPositionAdvancesOnlyAsEarlierEntriesLeave(t *testing.T) {
	svc, _, dir, _ := newTestService(t)
	ctx := context.Background()

	u1 := seedPlayer(t, dir, 1000)
	u2 := seedPlayer(t, dir, 1000)
	u3 := seedPlayer(t, dir, 1000)
	for _, u := range []uuid.UUID{u1, u2, u3} {
		_, _, err := svc.Join(ctx, u, nil)
		require.NoError(t, err)
	}

	_, pos, _ := svc.Status(u3)
	assert.Equal(t, 3, pos)

	// A later entry leaving must not move u2 forward.
	svc.Leave(u3)
	_, pos, _ = svc.Status(u2)
	assert.Equal(t, 2, pos)

	// An earlier entry leaving does.
	svc.Leave(u1)
	_, pos, _ = svc.Status(u2)
	assert.Equal(t, 1, pos)
}

func TestStatusForUnqueuedUser(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	inQueue, pos, total := svc.Status(uuid.New())
	assert.False(t, inQueue)
	assert.Equal(t, -1, pos)
	assert.Equal(t, 0, total)
}
