package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamnest/community-api/internal/achievements"
	"github.com/streamnest/community-api/internal/dto"
	"github.com/streamnest/community-api/internal/models"
	"github.com/streamnest/community-api/internal/observability"
	"github.com/streamnest/community-api/internal/repository"
)

// AchievementService evaluates the static catalog against progress
// transitions and owns the unlocked/locked partition.
type AchievementService interface {
	// OnProgressChanged detects definitions whose condition was false on the
	// prior state and true on the next, recording each unlock exactly once.
	// Re-delivery of the same transition is absorbed silently.
	OnProgressChanged(ctx context.Context, userID uint, prior, next achievements.Snapshot, priorSignals, nextSignals achievements.Signals) error
	// OnExternalSignal delivers a partner/affiliate status transition.
	// Unknown signals are ignored.
	OnExternalSignal(ctx context.Context, userID uint, signal string) error
	UnlockedFor(ctx context.Context, userID uint) ([]string, error)
	UserAchievements(ctx context.Context, userID uint) (dto.UserAchievementsResponse, error)
	Definitions() []dto.AchievementResponse
}

type achievementService struct {
	catalog *achievements.Catalog
	unlocks repository.AchievementUnlockRepository
	feed    ActivityFeedService
	logger  zerolog.Logger
}

// NewAchievementService constructs the evaluator over an immutable catalog.
func NewAchievementService(catalog *achievements.Catalog, unlocks repository.AchievementUnlockRepository, feed ActivityFeedService, logger zerolog.Logger) AchievementService {
	return &achievementService{
		catalog: catalog,
		unlocks: unlocks,
		feed:    feed,
		logger:  logger.With().Str("component", "achievement_service").Logger(),
	}
}

func (s *achievementService) OnProgressChanged(ctx context.Context, userID uint, prior, next achievements.Snapshot, priorSignals, nextSignals achievements.Signals) error {
	for _, definition := range s.catalog.Definitions() {
		if definition.Met(prior, priorSignals) || !definition.Met(next, nextSignals) {
			continue
		}

		unlock := models.AchievementUnlock{UserID: userID, AchievementID: definition.ID}
		created, err := s.unlocks.Create(ctx, &unlock)
		if err != nil {
			s.logger.Error().Err(err).Uint("user_id", userID).Str("achievement", definition.ID).Msg("failed to record achievement unlock")
			return translateStorageError(err)
		}
		if !created {
			// Duplicate transition delivery; already unlocked.
			continue
		}

		observability.AchievementUnlocks().WithLabelValues(definition.Rarity).Inc()
		s.logger.Info().Uint("user_id", userID).Str("achievement", definition.ID).Msg("achievement unlocked")

		_, err = s.feed.Record(ctx, userID, models.ActivityAchievementUnlocked,
			fmt.Sprintf("Unlocked achievement: %s", definition.Name),
			map[string]interface{}{
				"achievement_id": definition.ID,
				"icon":           definition.Icon,
				"rarity":         definition.Rarity,
			})
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *achievementService) OnExternalSignal(ctx context.Context, userID uint, signal string) error {
	var next achievements.Signals
	switch signal {
	case models.ActivityBecamePartner:
		next.Partner = true
	case models.ActivityBecameAffiliate:
		next.Affiliate = true
	default:
		return nil
	}

	// Counter conditions see identical snapshots on both sides and are
	// skipped; only the signal transition can unlock here.
	var same achievements.Snapshot
	return s.OnProgressChanged(ctx, userID, same, same, achievements.Signals{}, next)
}

func (s *achievementService) UnlockedFor(ctx context.Context, userID uint) ([]string, error) {
	unlocks, err := s.unlocks.ListByUser(ctx, userID)
	if err != nil {
		return nil, translateStorageError(err)
	}

	ids := make([]string, 0, len(unlocks))
	for _, unlock := range unlocks {
		ids = append(ids, unlock.AchievementID)
	}

	return ids, nil
}

func (s *achievementService) UserAchievements(ctx context.Context, userID uint) (dto.UserAchievementsResponse, error) {
	unlocks, err := s.unlocks.ListByUser(ctx, userID)
	if err != nil {
		return dto.UserAchievementsResponse{}, translateStorageError(err)
	}

	unlockedAt := make(map[string]time.Time, len(unlocks))
	for _, unlock := range unlocks {
		unlockedAt[unlock.AchievementID] = unlock.UnlockedAt
	}

	response := dto.UserAchievementsResponse{
		Unlocked: make([]dto.UnlockedAchievementResponse, 0, len(unlocks)),
		Locked:   make([]dto.AchievementResponse, 0, s.catalog.Size()),
		Total:    s.catalog.Size(),
	}

	for _, definition := range s.catalog.Definitions() {
		if at, ok := unlockedAt[definition.ID]; ok {
			response.Unlocked = append(response.Unlocked, dto.UnlockedAchievementResponse{
				AchievementResponse: dto.NewAchievementResponse(definition),
				UnlockedAt:          at,
			})
			continue
		}
		response.Locked = append(response.Locked, dto.NewAchievementResponse(definition))
	}

	if s.catalog.Size() > 0 {
		response.Progress = float64(len(response.Unlocked)) / float64(s.catalog.Size())
	}

	return response, nil
}

func (s *achievementService) Definitions() []dto.AchievementResponse {
	definitions := s.catalog.Definitions()
	responses := make([]dto.AchievementResponse, 0, len(definitions))
	for _, definition := range definitions {
		responses = append(responses, dto.NewAchievementResponse(definition))
	}
	return responses
}
