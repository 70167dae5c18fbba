// internal/lobby/membership_test.go
package lobby

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smccrary/scrimq/internal/events"
	"github.com/smccrary/scrimq/internal/models"
)

func TestCreateCustomLobby(t *testing.T) {
	cfg := DefaultConfig()
	f := newLobbyFixture(t, cfg)
	leader := f.seedRoster(t, []int{1100})[0]

	view, err := f.svc.CreateCustom(context.Background(), leader.UserID)
	require.NoError(t, err)

	assert.Equal(t, TypeCustom, view.Type)
	assert.Equal(t, leader.UserID, view.LeaderID)
	assert.Equal(t, models.StatusOpen, view.Status)
	require.Len(t, view.Players, 1)
	assert.Equal(t, leader.UserID, view.Players[0].UserID)
	assert.Equal(t, f.sched.Now().Add(cfg.CustomLobbyTTL), view.ExpiresAt)
}

func TestCreateCustomRequiresProfile(t *testing.T) {
	f := newLobbyFixture(t, DefaultConfig())

	_, err := f.svc.CreateCustom(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrIncompleteRoster)
}

func TestJoinCustomTenthPlayerFillsLobby(t *testing.T) {
	f := newLobbyFixture(t, DefaultConfig())
	ctx := context.Background()
	profiles := f.seedRoster(t, rosterRatings)

	view, err := f.svc.CreateCustom(ctx, profiles[0].UserID)
	require.NoError(t, err)
	lobbyID := view.ID

	for _, p := range profiles[1:9] {
		view, err = f.svc.JoinCustom(ctx, lobbyID, p.UserID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusOpen, view.Status)
	}

	view, err = f.svc.JoinCustom(ctx, lobbyID, profiles[9].UserID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFull, view.Status)
	assert.Len(t, f.pub.byType(events.TypeLobbyFull), 1)

	// An eleventh join bounces off the closed lobby.
	extra := f.seedRoster(t, []int{950})[0]
	_, err = f.svc.JoinCustom(ctx, lobbyID, extra.UserID)
	assert.ErrorIs(t, err, ErrNotJoinable)
}

func TestJoinCustomRejectsDuplicateMember(t *testing.T) {
	f := newLobbyFixture(t, DefaultConfig())
	ctx := context.Background()
	profiles := f.seedRoster(t, []int{1200, 1000})

	view, err := f.svc.CreateCustom(ctx, profiles[0].UserID)
	require.NoError(t, err)

	_, err = f.svc.JoinCustom(ctx, view.ID, profiles[1].UserID)
	require.NoError(t, err)
	_, err = f.svc.JoinCustom(ctx, view.ID, profiles[1].UserID)
	assert.ErrorIs(t, err, ErrAlreadyInLobby)
}

func TestJoinCustomRejectsQueueLobby(t *testing.T) {
	f := newLobbyFixture(t, DefaultConfig())
	lobbyID, _ := f.formQueueLobby(t)
	outsider := f.seedRoster(t, []int{1000})[0]

	_, err := f.svc.JoinCustom(context.Background(), lobbyID, outsider.UserID)
	assert.ErrorIs(t, err, ErrNotJoinable)
}

func TestLeaderLeavingCancelsCustomLobby(t *testing.T) {
	f := newLobbyFixture(t, DefaultConfig())
	ctx := context.Background()
	profiles := f.seedRoster(t, []int{1200, 1000})

	view, err := f.svc.CreateCustom(ctx, profiles[0].UserID)
	require.NoError(t, err)
	_, err = f.svc.JoinCustom(ctx, view.ID, profiles[1].UserID)
	require.NoError(t, err)

	cancelled, err := f.svc.Leave(ctx, view.ID, profiles[0].UserID)
	require.NoError(t, err)
	assert.True(t, cancelled)

	got, err := f.svc.Get(view.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)

	// Nothing works on a cancelled lobby, including leaving again.
	_, err = f.svc.Leave(ctx, view.ID, profiles[1].UserID)
	assert.ErrorIs(t, err, ErrLobbyCancelled)
}

func TestMemberLeavingReopensFullLobby(t *testing.T) {
	f := newLobbyFixture(t, DefaultConfig())
	ctx := context.Background()
	profiles := f.seedRoster(t, rosterRatings)

	view, err := f.svc.CreateCustom(ctx, profiles[0].UserID)
	require.NoError(t, err)
	lobbyID := view.ID
	for _, p := range profiles[1:] {
		_, err = f.svc.JoinCustom(ctx, lobbyID, p.UserID)
		require.NoError(t, err)
	}

	cancelled, err := f.svc.Leave(ctx, lobbyID, profiles[5].UserID)
	require.NoError(t, err)
	assert.False(t, cancelled)

	got, err := f.svc.Get(lobbyID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, got.Status)
	assert.Len(t, got.Players, 9)
}

func TestLeaveRejectsNonMember(t *testing.T) {
	f := newLobbyFixture(t, DefaultConfig())
	lobbyID, _ := f.formQueueLobby(t)

	_, err := f.svc.Leave(context.Background(), lobbyID, uuid.New())
	assert.ErrorIs(t, err, ErrNotInLobby)
}

func TestDepartingCaptainIsReplacedDuringBanPhase(t *testing.T) {
	f := newLobbyFixture(t, DefaultConfig())
	lobbyID, profiles := f.formQueueLobby(t)
	ctx := context.Background()

	// Alpha's captain (1500) walks out mid-veto. The highest-rated remaining
	// alpha member (1200) inherits both the captaincy and the open turn.
	cancelled, err := f.svc.Leave(ctx, lobbyID, profiles[0].UserID)
	require.NoError(t, err)
	assert.False(t, cancelled)

	status, err := f.svc.BanStatus(lobbyID)
	require.NoError(t, err)
	assert.Equal(t, profiles[3].UserID, status.TeamAlphaLeader)
	assert.Equal(t, models.TeamAlpha, status.CurrentBanTeam)

	_, err = f.svc.Ban(ctx, lobbyID, profiles[3].UserID, models.MapPool[0])
	assert.NoError(t, err)
}
