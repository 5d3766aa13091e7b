package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/streamnest/community-api/internal/dto"
	"github.com/streamnest/community-api/internal/models"
)

func newModerationFixture(t *testing.T) (ModerationService, *memoryModerationRepo, *fakeClock) {
	t.Helper()

	repo := &memoryModerationRepo{}
	clock := newFakeClock(time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
	svc := NewModerationService(repo, clock, testValidator(), testLogger())
	return svc, repo, clock
}

func TestModerationServiceTimeoutLifecycle(t *testing.T) {
	svc, _, clock := newModerationFixture(t)
	ctx := context.Background()

	issued, err := svc.IssueTimeout(ctx, dto.TimeoutRequest{
		Channel:         "  StreamyMcStream ",
		UserID:          42,
		DurationSeconds: 600,
		Reason:          "spamming emotes",
	}, 7)
	require.NoError(t, err)
	require.Equal(t, models.ModerationTimeout, issued.ActionType)
	require.Equal(t, "streamymcstream", issued.ChannelName)
	require.Equal(t, uint(7), issued.IssuedBy)
	require.NotNil(t, issued.ExpiresAt)
	require.Equal(t, clock.Now().Add(600*time.Second), *issued.ExpiresAt)

	state, err := svc.IsEnforced(ctx, "streamymcstream", 42)
	require.NoError(t, err)
	require.Equal(t, dto.EnforcementTimedOut, state.State)
	require.Equal(t, int64(600), state.RemainingSeconds)
	require.Equal(t, "spamming emotes", state.Reason)

	clock.Advance(300 * time.Second)
	state, err = svc.IsEnforced(ctx, "streamymcstream", 42)
	require.NoError(t, err)
	require.Equal(t, dto.EnforcementTimedOut, state.State)
	require.Equal(t, int64(300), state.RemainingSeconds)

	clock.Advance(301 * time.Second)
	state, err = svc.IsEnforced(ctx, "streamymcstream", 42)
	require.NoError(t, err)
	require.Equal(t, dto.EnforcementClear, state.State)
	require.Zero(t, state.RemainingSeconds)
}

func TestModerationServiceExpiryBoundaryReadsClear(t *testing.T) {
	svc, repo, clock := newModerationFixture(t)
	ctx := context.Background()

	_, err := svc.IssueTimeout(ctx, dto.TimeoutRequest{Channel: "streamy", UserID: 1, DurationSeconds: 60}, 7)
	require.NoError(t, err)

	// Exactly at the expiry instant the timeout no longer binds, and the
	// lazy read corrects the stored state without any sweep.
	clock.Advance(60 * time.Second)
	state, err := svc.IsEnforced(ctx, "streamy", 1)
	require.NoError(t, err)
	require.Equal(t, dto.EnforcementClear, state.State)

	active, err := repo.GetActive(ctx, "streamy", 1)
	require.NoError(t, err)
	require.Nil(t, active)
}

func TestModerationServiceBanSupersedesTimeout(t *testing.T) {
	svc, _, clock := newModerationFixture(t)
	ctx := context.Background()

	_, err := svc.IssueTimeout(ctx, dto.TimeoutRequest{Channel: "streamy", UserID: 9, DurationSeconds: 600}, 7)
	require.NoError(t, err)

	_, err = svc.IssueBan(ctx, dto.BanRequest{Channel: "streamy", UserID: 9, Reason: "repeat offender"}, 7)
	require.NoError(t, err)

	history, err := svc.History(ctx, "streamy", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, models.ModerationBan, history[0].ActionType)
	require.True(t, history[0].Active)
	require.Equal(t, models.ModerationTimeout, history[1].ActionType)
	require.False(t, history[1].Active, "superseded timeout must be deactivated")

	// A ban never expires on its own.
	clock.Advance(365 * 24 * time.Hour)
	state, err := svc.IsEnforced(ctx, "streamy", 9)
	require.NoError(t, err)
	require.Equal(t, dto.EnforcementBanned, state.State)
	require.Equal(t, "repeat offender", state.Reason)
}

func TestModerationServiceUnbanIsIdempotent(t *testing.T) {
	svc, _, _ := newModerationFixture(t)
	ctx := context.Background()

	_, err := svc.IssueBan(ctx, dto.BanRequest{Channel: "streamy", UserID: 3}, 7)
	require.NoError(t, err)

	require.NoError(t, svc.Unban(ctx, dto.UnbanRequest{Channel: "streamy", UserID: 3}))

	state, err := svc.IsEnforced(ctx, "streamy", 3)
	require.NoError(t, err)
	require.Equal(t, dto.EnforcementClear, state.State)

	// Lifting an already-clear pair is a no-op, not an error.
	require.NoError(t, svc.Unban(ctx, dto.UnbanRequest{Channel: "streamy", UserID: 3}))
}

func TestModerationServiceRejectsInvalidRequests(t *testing.T) {
	svc, _, _ := newModerationFixture(t)
	ctx := context.Background()

	_, err := svc.IssueTimeout(ctx, dto.TimeoutRequest{Channel: "streamy", UserID: 1, DurationSeconds: 0}, 7)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.IssueTimeout(ctx, dto.TimeoutRequest{Channel: "streamy", UserID: 1, DurationSeconds: -30}, 7)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.IssueBan(ctx, dto.BanRequest{Channel: "", UserID: 1}, 7)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.IsEnforced(ctx, "  ", 1)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.IsEnforced(ctx, "streamy", 0)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestModerationServiceSweepDeactivatesOnlyExpired(t *testing.T) {
	svc, _, clock := newModerationFixture(t)
	ctx := context.Background()

	_, err := svc.IssueTimeout(ctx, dto.TimeoutRequest{Channel: "streamy", UserID: 1, DurationSeconds: 300}, 7)
	require.NoError(t, err)
	_, err = svc.IssueTimeout(ctx, dto.TimeoutRequest{Channel: "streamy", UserID: 2, DurationSeconds: 900}, 7)
	require.NoError(t, err)
	_, err = svc.IssueBan(ctx, dto.BanRequest{Channel: "streamy", UserID: 3}, 7)
	require.NoError(t, err)

	clock.Advance(600 * time.Second)

	swept, err := svc.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, swept)

	state, err := svc.IsEnforced(ctx, "streamy", 1)
	require.NoError(t, err)
	require.Equal(t, dto.EnforcementClear, state.State)

	state, err = svc.IsEnforced(ctx, "streamy", 2)
	require.NoError(t, err)
	require.Equal(t, dto.EnforcementTimedOut, state.State)

	state, err = svc.IsEnforced(ctx, "streamy", 3)
	require.NoError(t, err)
	require.Equal(t, dto.EnforcementBanned, state.State)

	// Nothing left to sweep.
	swept, err = svc.Sweep(ctx)
	require.NoError(t, err)
	require.Zero(t, swept)
}

func TestModerationServiceSanitizesReason(t *testing.T) {
	svc, _, _ := newModerationFixture(t)

	issued, err := svc.IssueTimeout(context.Background(), dto.TimeoutRequest{
		Channel:         "streamy",
		UserID:          5,
		DurationSeconds: 60,
		Reason:          "<em>caps</em> lock abuse",
	}, 7)
	require.NoError(t, err)
	require.Equal(t, "caps lock abuse", issued.Reason)
}
