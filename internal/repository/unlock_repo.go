package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/streamnest/community-api/internal/models"
)

// AchievementUnlockRepository persists one-time achievement unlocks.
type AchievementUnlockRepository interface {
	// Create inserts the unlock unless one already exists for the
	// (user, achievement) pair. Returns false when the unlock was a
	// duplicate and nothing was written.
	Create(ctx context.Context, unlock *models.AchievementUnlock) (bool, error)
	ListByUser(ctx context.Context, userID uint) ([]models.AchievementUnlock, error)
}

type achievementUnlockRepository struct {
	db *gorm.DB
}

// NewAchievementUnlockRepository constructs the unlock repository.
func NewAchievementUnlockRepository(db *gorm.DB) AchievementUnlockRepository {
	return &achievementUnlockRepository{db: db}
}

func (r *achievementUnlockRepository) Create(ctx context.Context, unlock *models.AchievementUnlock) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(unlock)
	if tx.Error != nil {
		return false, tx.Error
	}

	return tx.RowsAffected > 0, nil
}

func (r *achievementUnlockRepository) ListByUser(ctx context.Context, userID uint) ([]models.AchievementUnlock, error) {
	var unlocks []models.AchievementUnlock
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("unlocked_at ASC").Find(&unlocks).Error; err != nil {
		return nil, err
	}

	return unlocks, nil
}
