// internal/lobby/mapban_test.go
package lobby

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smccrary/scrimq/internal/models"
)

func TestBanAlternatesTeamsUntilOneMapRemains(t *testing.T) {
	f := newLobbyFixture(t, DefaultConfig())
	lobbyID, profiles := f.formQueueLobby(t)
	ctx := context.Background()

	alpha := profiles[0].UserID
	bravo := profiles[1].UserID

	pool := models.MapPoolCopy()

	// Six alternating bans leave the seventh map selected.
	for i := 0; i < len(pool)-1; i++ {
		actor := alpha
		expectedTeam := models.TeamAlpha
		if i%2 == 1 {
			actor = bravo
			expectedTeam = models.TeamBravo
		}

		before, err := f.svc.BanStatus(lobbyID)
		require.NoError(t, err)
		require.Equal(t, expectedTeam, before.CurrentBanTeam)

		status, err := f.svc.Ban(ctx, lobbyID, actor, before.AvailableMaps[0])
		require.NoError(t, err)
		assert.Len(t, status.BannedMaps, i+1)
		assert.Equal(t, expectedTeam, status.BanHistory[i].Team)
	}

	final, err := f.svc.BanStatus(lobbyID)
	require.NoError(t, err)
	assert.False(t, final.MapBanPhase)
	assert.NotEmpty(t, final.SelectedMap)
	assert.Len(t, final.BannedMaps, len(pool)-1)
	assert.NotContains(t, final.BannedMaps, final.SelectedMap)

	view, err := f.svc.Get(lobbyID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReadyPhase, view.Status)
}

func TestBanRejectsOutOfTurnCaptain(t *testing.T) {
	f := newLobbyFixture(t, DefaultConfig())
	lobbyID, profiles := f.formQueueLobby(t)

	// Bravo's captain cannot open the veto; the turn belongs to alpha.
	_, err := f.svc.Ban(context.Background(), lobbyID, profiles[1].UserID, models.MapPool[0])
	assert.ErrorIs(t, err, ErrWrongTurn)
}

func TestBanRejectsNonCaptain(t *testing.T) {
	f := newLobbyFixture(t, DefaultConfig())
	lobbyID, profiles := f.formQueueLobby(t)

	// profiles[5] (rated 1000) is a regular roster member on bravo.
	_, err := f.svc.Ban(context.Background(), lobbyID, profiles[5].UserID, models.MapPool[0])
	assert.ErrorIs(t, err, ErrNotACaptain)
}

func TestBanRejectsUnknownMap(t *testing.T) {
	f := newLobbyFixture(t, DefaultConfig())
	lobbyID, profiles := f.formQueueLobby(t)

	_, err := f.svc.Ban(context.Background(), lobbyID, profiles[0].UserID, "Atlantis")
	assert.ErrorIs(t, err, ErrUnknownMap)
}

func TestBanRejectsRepeatBan(t *testing.T) {
	f := newLobbyFixture(t, DefaultConfig())
	lobbyID, profiles := f.formQueueLobby(t)
	ctx := context.Background()

	target := models.MapPool[2]
	_, err := f.svc.Ban(ctx, lobbyID, profiles[0].UserID, target)
	require.NoError(t, err)

	_, err = f.svc.Ban(ctx, lobbyID, profiles[1].UserID, target)
	assert.ErrorIs(t, err, ErrAlreadyBanned)
}

func TestBanRejectedOncePhaseClosed(t *testing.T) {
	f := newLobbyFixture(t, DefaultConfig())
	lobbyID, profiles := f.formQueueLobby(t)
	ctx := context.Background()

	for i := 0; i < len(models.MapPool)-1; i++ {
		actor := profiles[i%2].UserID
		status, err := f.svc.BanStatus(lobbyID)
		require.NoError(t, err)
		_, err = f.svc.Ban(ctx, lobbyID, actor, status.AvailableMaps[0])
		require.NoError(t, err)
	}

	status, err := f.svc.BanStatus(lobbyID)
	require.NoError(t, err)
	_, err = f.svc.Ban(ctx, lobbyID, profiles[0].UserID, status.SelectedMap)
	assert.ErrorIs(t, err, ErrPhaseInactive)
}

func TestBanRejectedOnCancelledLobby(t *testing.T) {
	cfg := DefaultConfig()
	f := newLobbyFixture(t, cfg)
	lobbyID, profiles := f.formQueueLobby(t)

	f.sched.Advance(cfg.QueueLobbyTTL + time.Second)
	f.svc.SweepExpired()

	_, err := f.svc.Ban(context.Background(), lobbyID, profiles[0].UserID, models.MapPool[0])
	assert.ErrorIs(t, err, ErrLobbyCancelled)
}

func TestBotCaptainsPlayVetoToCompletion(t *testing.T) {
	cfg := DefaultConfig()
	f := newLobbyFixture(t, cfg)
	ctx := context.Background()

	ids, err := f.bots.AllocateBots(ctx, 10)
	require.NoError(t, err)
	profiles := make([]*models.PlayerProfile, len(ids))
	for i, id := range ids {
		profiles[i], err = f.dir.GetProfile(ctx, id)
		require.NoError(t, err)
	}

	lobbyID, err := f.svc.FormLobby(ctx, profiles)
	require.NoError(t, err)

	// Each auto-ban is armed when the previous one lands, so advancing one
	// delay per remaining ban drains the whole protocol.
	f.sched.Advance(time.Duration(len(models.MapPool)) * cfg.BotBanDelay)

	status, err := f.svc.BanStatus(lobbyID)
	require.NoError(t, err)
	assert.False(t, status.MapBanPhase)
	assert.NotEmpty(t, status.SelectedMap)
	assert.Len(t, status.BanHistory, len(models.MapPool)-1)

	view, err := f.svc.Get(lobbyID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReadyPhase, view.Status)
}

func TestStaleAutoBanAfterCancellationIsNoOp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueueLobbyTTL = time.Second
	cfg.BotBanDelay = 3 * time.Second
	f := newLobbyFixture(t, cfg)
	ctx := context.Background()

	ids, err := f.bots.AllocateBots(ctx, 10)
	require.NoError(t, err)
	profiles := make([]*models.PlayerProfile, len(ids))
	for i, id := range ids {
		profiles[i], err = f.dir.GetProfile(ctx, id)
		require.NoError(t, err)
	}

	lobbyID, err := f.svc.FormLobby(ctx, profiles)
	require.NoError(t, err)

	// Expire and cancel the lobby before the first auto-ban is due.
	f.sched.Advance(2 * time.Second)
	f.svc.SweepExpired()

	view, err := f.svc.Get(lobbyID)
	require.NoError(t, err)
	require.Equal(t, models.StatusCancelled, view.Status)

	// The armed timer fires into a cancelled lobby and must change nothing.
	f.sched.Advance(5 * time.Second)

	status, err := f.svc.BanStatus(lobbyID)
	require.NoError(t, err)
	assert.Empty(t, status.BannedMaps)
	assert.Empty(t, status.SelectedMap)

	view, err = f.svc.Get(lobbyID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, view.Status)
}
