package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/streamnest/community-api/internal/dto"
	"github.com/streamnest/community-api/internal/models"
)

func TestProgressServiceAwardXPAccumulatesAndLevels(t *testing.T) {
	fx := newProgressFixture(t)
	ctx := context.Background()

	resp, err := fx.service.Award(ctx, 1, dto.AwardRequest{Kind: dto.AwardKindXP, Amount: 250})
	require.NoError(t, err)
	require.Equal(t, int64(250), resp.XP)
	require.Equal(t, 2, resp.Level)
	require.Equal(t, int64(150), resp.XPIntoLevel)
	require.Equal(t, int64(150), resp.XPForNextLevel)
	require.InDelta(t, 0.5, resp.LevelProgress, 1e-9)

	levelUps := fx.activity.byType(models.ActivityLevelUp)
	require.Len(t, levelUps, 1)
	require.Equal(t, "Reached level 2", levelUps[0].ActivityText)
}

func TestProgressServiceAwardCrossingSeveralLevelsEmitsEachLevelUp(t *testing.T) {
	fx := newProgressFixture(t)

	resp, err := fx.service.Award(context.Background(), 1, dto.AwardRequest{Kind: dto.AwardKindXP, Amount: 950})
	require.NoError(t, err)
	require.Equal(t, 4, resp.Level)

	levelUps := fx.activity.byType(models.ActivityLevelUp)
	require.Len(t, levelUps, 3)
	require.Equal(t, "Reached level 2", levelUps[0].ActivityText)
	require.Equal(t, "Reached level 3", levelUps[1].ActivityText)
	require.Equal(t, "Reached level 4", levelUps[2].ActivityText)
}

func TestProgressServiceAwardPointsTracksLifetimeEarnings(t *testing.T) {
	fx := newProgressFixture(t)
	ctx := context.Background()

	_, err := fx.service.Award(ctx, 1, dto.AwardRequest{Kind: dto.AwardKindPoints, Amount: 500})
	require.NoError(t, err)

	resp, err := fx.service.Award(ctx, 1, dto.AwardRequest{Kind: dto.AwardKindPoints, Amount: 300})
	require.NoError(t, err)
	require.Equal(t, int64(800), resp.Points)
	require.Equal(t, int64(800), resp.TotalPointsEarned)
	require.Equal(t, int64(0), resp.XP)
	require.Equal(t, 1, resp.Level)
}

func TestProgressServiceAwardRejectsInvalidRequests(t *testing.T) {
	fx := newProgressFixture(t)
	ctx := context.Background()

	_, err := fx.service.Award(ctx, 0, dto.AwardRequest{Kind: dto.AwardKindXP, Amount: 10})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = fx.service.Award(ctx, 1, dto.AwardRequest{Kind: "karma", Amount: 10})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = fx.service.Award(ctx, 1, dto.AwardRequest{Kind: dto.AwardKindXP, Amount: 0})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = fx.service.Award(ctx, 1, dto.AwardRequest{Kind: dto.AwardKindXP, Amount: -5})
	require.ErrorIs(t, err, ErrInvalidArgument)

	require.Empty(t, fx.activity.byType(models.ActivityLevelUp))
}

func TestProgressServiceAwardSurfacesConflictWhenRetriesExhausted(t *testing.T) {
	fx := newProgressFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.progress.Create(ctx, &models.UserProgress{UserID: 7, Level: 1}))
	fx.progress.forceConflicts = casRetryBudget

	_, err := fx.service.Award(ctx, 7, dto.AwardRequest{Kind: dto.AwardKindXP, Amount: 10})
	require.ErrorIs(t, err, ErrConflict)

	// The record was never partially updated.
	stored, err := fx.progress.Get(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, int64(0), stored.XP)
}

func TestProgressServiceConcurrentAwardsLoseNothing(t *testing.T) {
	fx := newProgressFixture(t)
	ctx := context.Background()

	const (
		workers         = 8
		awardsPerWorker = 25
		amountPerAward  = int64(50)
	)

	errs := make(chan error, workers*awardsPerWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < awardsPerWorker; i++ {
				_, err := fx.service.Award(ctx, 1, dto.AwardRequest{Kind: dto.AwardKindXP, Amount: amountPerAward})
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	resp, err := fx.service.Stats(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(workers*awardsPerWorker)*amountPerAward, resp.XP)
	require.Equal(t, 11, resp.Level)

	// Every level boundary from 2 through 11 produced exactly one event.
	require.Len(t, fx.activity.byType(models.ActivityLevelUp), 10)
}

func TestProgressServiceRecordLoginStreaks(t *testing.T) {
	fx := newProgressFixture(t)
	ctx := context.Background()

	resp, err := fx.service.RecordLogin(ctx, 1, dto.RecordLoginRequest{Day: "2026-02-01"})
	require.NoError(t, err)
	require.Equal(t, 1, resp.LoginStreak)

	// Same day is idempotent.
	resp, err = fx.service.RecordLogin(ctx, 1, dto.RecordLoginRequest{Day: "2026-02-01"})
	require.NoError(t, err)
	require.Equal(t, 1, resp.LoginStreak)

	resp, err = fx.service.RecordLogin(ctx, 1, dto.RecordLoginRequest{Day: "2026-02-02"})
	require.NoError(t, err)
	require.Equal(t, 2, resp.LoginStreak)

	// A missed day resets the streak.
	resp, err = fx.service.RecordLogin(ctx, 1, dto.RecordLoginRequest{Day: "2026-02-04"})
	require.NoError(t, err)
	require.Equal(t, 1, resp.LoginStreak)

	_, err = fx.service.RecordLogin(ctx, 1, dto.RecordLoginRequest{Day: "02/05/2026"})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestProgressServiceStatsForUnknownUserIsInitialState(t *testing.T) {
	fx := newProgressFixture(t)

	resp, err := fx.service.Stats(context.Background(), 99)
	require.NoError(t, err)
	require.Equal(t, uint(99), resp.UserID)
	require.Equal(t, int64(0), resp.XP)
	require.Equal(t, 1, resp.Level)
	require.Equal(t, int64(100), resp.XPForNextLevel)
	require.Equal(t, 0, resp.LoginStreak)
}

func TestProgressServiceAwardUnlocksThresholdAchievements(t *testing.T) {
	fx := newProgressFixture(t)
	ctx := context.Background()

	_, err := fx.service.Award(ctx, 1, dto.AwardRequest{Kind: dto.AwardKindMessages, Amount: 1})
	require.NoError(t, err)

	unlocked, err := fx.unlocks.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	require.Equal(t, "first_words", unlocked[0].AchievementID)

	events := fx.activity.byType(models.ActivityAchievementUnlocked)
	require.Len(t, events, 1)
	require.Equal(t, "Unlocked achievement: First Words", events[0].ActivityText)

	// Crossing the next threshold unlocks only the new achievement.
	_, err = fx.service.Award(ctx, 1, dto.AwardRequest{Kind: dto.AwardKindMessages, Amount: 99})
	require.NoError(t, err)

	unlocked, err = fx.unlocks.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, unlocked, 2)
	require.Equal(t, "chatterbox", unlocked[1].AchievementID)

	// Further messages leave already-unlocked achievements alone.
	_, err = fx.service.Award(ctx, 1, dto.AwardRequest{Kind: dto.AwardKindMessages, Amount: 1})
	require.NoError(t, err)

	unlocked, err = fx.unlocks.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, unlocked, 2)
}
