package repository

import (
	"context"

	"connect-api/internal/models"
	"connect-api/internal/pkg/errors"

	"gorm.io/gorm"
)

type ReconciliationRepository interface {
	Create(ctx context.Context, record *models.CreditReconciliation) error
	ListUnresolved(ctx context.Context) ([]models.CreditReconciliation, error)
	MarkResolved(ctx context.Context, id uint) error
}

type reconciliationRepository struct {
	db *gorm.DB
}

func NewReconciliationRepository(db *gorm.DB) ReconciliationRepository {
	return &reconciliationRepository{db: db}
}

func (r *reconciliationRepository) Create(ctx context.Context, record *models.CreditReconciliation) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return errors.Wrap(err, "failed to create reconciliation record")
	}
	return nil
}

func (r *reconciliationRepository) ListUnresolved(ctx context.Context) ([]models.CreditReconciliation, error) {
	var records []models.CreditReconciliation
	err := r.db.WithContext(ctx).
		Where("resolved = ?", false).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list reconciliation records")
	}
	return records, nil
}

func (r *reconciliationRepository) MarkResolved(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.CreditReconciliation{}).
		Where("id = ?", id).
		Update("resolved", true)

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to resolve reconciliation record")
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound
	}
	return nil
}
