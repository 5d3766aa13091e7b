package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/streamnest/community-api/internal/models"
)

// ActivityEventRepository persists the append-only activity feed.
type ActivityEventRepository interface {
	Create(ctx context.Context, event *models.ActivityEvent) error
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.ActivityEvent, error)
	ListGlobal(ctx context.Context, limit int) ([]models.ActivityEvent, error)
}

type activityEventRepository struct {
	db *gorm.DB
}

// NewActivityEventRepository constructs the activity event repository.
func NewActivityEventRepository(db *gorm.DB) ActivityEventRepository {
	return &activityEventRepository{db: db}
}

func (r *activityEventRepository) Create(ctx context.Context, event *models.ActivityEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *activityEventRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.ActivityEvent, error) {
	var events []models.ActivityEvent
	query := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}

	return events, nil
}

func (r *activityEventRepository) ListGlobal(ctx context.Context, limit int) ([]models.ActivityEvent, error) {
	var events []models.ActivityEvent
	query := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}

	return events, nil
}
