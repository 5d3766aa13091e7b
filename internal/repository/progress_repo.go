package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/streamnest/community-api/internal/models"
)

// ErrVersionConflict reports that an optimistic update lost the race against
// a concurrent writer. The caller re-reads and retries the whole mutation.
var ErrVersionConflict = errors.New("progress record version conflict")

// ProgressRepository persists per-user progression counters.
type ProgressRepository interface {
	Get(ctx context.Context, userID uint) (models.UserProgress, error)
	Create(ctx context.Context, progress *models.UserProgress) error
	// UpdateCAS writes the record only if the stored version still matches
	// progress.Version, bumping the version on success. Returns
	// ErrVersionConflict when a concurrent writer got there first.
	UpdateCAS(ctx context.Context, progress *models.UserProgress) error
}

type progressRepository struct {
	db *gorm.DB
}

// NewProgressRepository constructs the progress repository.
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) Get(ctx context.Context, userID uint) (models.UserProgress, error) {
	var progress models.UserProgress
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&progress).Error; err != nil {
		return models.UserProgress{}, err
	}

	return progress, nil
}

func (r *progressRepository) Create(ctx context.Context, progress *models.UserProgress) error {
	return r.db.WithContext(ctx).Create(progress).Error
}

func (r *progressRepository) UpdateCAS(ctx context.Context, progress *models.UserProgress) error {
	next := progress.Version + 1

	tx := r.db.WithContext(ctx).Model(&models.UserProgress{}).
		Where("user_id = ? AND version = ?", progress.UserID, progress.Version).
		Updates(map[string]interface{}{
			"xp":                  progress.XP,
			"level":               progress.Level,
			"points":              progress.Points,
			"total_points_earned": progress.TotalPointsEarned,
			"watch_time_minutes":  progress.WatchTimeMinutes,
			"messages_sent":       progress.MessagesSent,
			"login_streak":        progress.LoginStreak,
			"last_login_day":      progress.LastLoginDay,
			"version":             next,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrVersionConflict
	}

	progress.Version = next
	return nil
}
