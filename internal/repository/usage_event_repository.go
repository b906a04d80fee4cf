package repository

import (
	"context"
	"time"

	"connect-api/internal/models"
	"connect-api/internal/pkg/errors"

	"gorm.io/gorm"
)

type UsageEventRepository interface {
	Record(ctx context.Context, userID string, class models.APIClass, occurredAt time.Time) error
	CountSince(ctx context.Context, userID string, class models.APIClass, since time.Time) (int64, error)
	OldestSince(ctx context.Context, userID string, class models.APIClass, since time.Time) (*time.Time, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type usageEventRepository struct {
	db *gorm.DB
}

func NewUsageEventRepository(db *gorm.DB) UsageEventRepository {
	return &usageEventRepository{db: db}
}

func (r *usageEventRepository) Record(ctx context.Context, userID string, class models.APIClass, occurredAt time.Time) error {
	event := models.UsageEvent{
		UserID:     userID,
		APIClass:   class,
		OccurredAt: occurredAt,
	}

	if err := r.db.WithContext(ctx).Create(&event).Error; err != nil {
		return errors.Wrap(err, "failed to record usage event")
	}
	return nil
}

func (r *usageEventRepository) CountSince(ctx context.Context, userID string, class models.APIClass, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UsageEvent{}).
		Where("user_id = ? AND api_class = ? AND occurred_at > ?", userID, class, since).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count usage events")
	}
	return count, nil
}

func (r *usageEventRepository) OldestSince(ctx context.Context, userID string, class models.APIClass, since time.Time) (*time.Time, error) {
	var event models.UsageEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND api_class = ? AND occurred_at > ?", userID, class, since).
		Order("occurred_at ASC").
		First(&event).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find oldest usage event")
	}

	return &event.OccurredAt, nil
}

func (r *usageEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("occurred_at < ?", cutoff).
		Delete(&models.UsageEvent{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to prune usage events")
	}
	return result.RowsAffected, nil
}
