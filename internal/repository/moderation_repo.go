package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/streamnest/community-api/internal/models"
)

// ModerationActionRepository persists issued moderation actions.
type ModerationActionRepository interface {
	// GetActive returns the currently active action for the pair, or nil
	// when the pair is clear.
	GetActive(ctx context.Context, channel string, targetUserID uint) (*models.ModerationAction, error)
	Create(ctx context.Context, action *models.ModerationAction) error
	// Deactivate flips the action inactive only if it is still active, so a
	// sweep cannot resurrect a pair a concurrent command already superseded.
	// Returns false when the action was no longer active.
	Deactivate(ctx context.Context, id uint) (bool, error)
	ListExpired(ctx context.Context, now time.Time) ([]models.ModerationAction, error)
	ListByChannel(ctx context.Context, channel string, limit int) ([]models.ModerationAction, error)
}

type moderationActionRepository struct {
	db *gorm.DB
}

// NewModerationActionRepository constructs the moderation action repository.
func NewModerationActionRepository(db *gorm.DB) ModerationActionRepository {
	return &moderationActionRepository{db: db}
}

func (r *moderationActionRepository) GetActive(ctx context.Context, channel string, targetUserID uint) (*models.ModerationAction, error) {
	var action models.ModerationAction
	err := r.db.WithContext(ctx).
		Where("channel_name = ? AND target_user_id = ? AND active = ?", channel, targetUserID, true).
		Order("issued_at DESC, id DESC").
		First(&action).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &action, nil
}

func (r *moderationActionRepository) Create(ctx context.Context, action *models.ModerationAction) error {
	return r.db.WithContext(ctx).Create(action).Error
}

func (r *moderationActionRepository) Deactivate(ctx context.Context, id uint) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.ModerationAction{}).
		Where("id = ? AND active = ?", id, true).
		Update("active", false)
	if tx.Error != nil {
		return false, tx.Error
	}

	return tx.RowsAffected > 0, nil
}

func (r *moderationActionRepository) ListExpired(ctx context.Context, now time.Time) ([]models.ModerationAction, error) {
	var actions []models.ModerationAction
	err := r.db.WithContext(ctx).
		Where("active = ? AND action_type = ? AND expires_at <= ?", true, models.ModerationTimeout, now).
		Find(&actions).Error
	if err != nil {
		return nil, err
	}

	return actions, nil
}

func (r *moderationActionRepository) ListByChannel(ctx context.Context, channel string, limit int) ([]models.ModerationAction, error) {
	var actions []models.ModerationAction
	query := r.db.WithContext(ctx).Where("channel_name = ?", channel).Order("issued_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&actions).Error; err != nil {
		return nil, err
	}

	return actions, nil
}
