package repository

import (
	"context"
	"time"

	"connect-api/internal/models"
	"connect-api/internal/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreditAccountRepository interface {
	// GetBalance returns the user's balance, 0 when no account row exists.
	// Reading never creates a row.
	GetBalance(ctx context.Context, userID string) (int, error)

	// AddCredits adds amount to the account in a single upsert statement,
	// creating the row when absent, and returns the new balance.
	AddCredits(ctx context.Context, userID string, amount int) (int, error)

	// DebitIfAvailable decrements the balance by amount only if the balance
	// covers it, as one conditional UPDATE. It reports whether the debit
	// happened together with the balance after the attempt. The check and
	// the decrement are a single statement at the store, so two concurrent
	// debits can never both spend the same credit.
	DebitIfAvailable(ctx context.Context, userID string, amount int) (bool, int, error)
}

type creditAccountRepository struct {
	db *gorm.DB
}

func NewCreditAccountRepository(db *gorm.DB) CreditAccountRepository {
	return &creditAccountRepository{db: db}
}

func (r *creditAccountRepository) GetBalance(ctx context.Context, userID string) (int, error) {
	var account models.CreditAccount
	err := r.db.WithContext(ctx).First(&account, "user_id = ?", userID).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to read credit balance")
	}

	return account.Balance, nil
}

func (r *creditAccountRepository) AddCredits(ctx context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, errors.ErrInvalidInput
	}

	now := time.Now()
	account := models.CreditAccount{
		UserID:    userID,
		Balance:   amount,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", amount),
			"updated_at": now,
		}),
	}).Create(&account).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to add credits")
	}

	return r.GetBalance(ctx, userID)
}

func (r *creditAccountRepository) DebitIfAvailable(ctx context.Context, userID string, amount int) (bool, int, error) {
	if amount <= 0 {
		return false, 0, errors.ErrInvalidInput
	}

	// RETURNING reports this debit's own result, so the new balance never
	// includes the effect of a concurrent request that ran in between.
	var balance int
	result := r.db.WithContext(ctx).Raw(
		`UPDATE credit_accounts SET balance = balance - ?, updated_at = ? WHERE user_id = ? AND balance >= ? RETURNING balance`,
		amount, time.Now(), userID, amount,
	).Scan(&balance)
	if result.Error != nil {
		return false, 0, errors.Wrap(result.Error, "failed to debit credits")
	}

	if result.RowsAffected == 0 {
		current, err := r.GetBalance(ctx, userID)
		if err != nil {
			return false, 0, err
		}
		return false, current, nil
	}

	return true, balance, nil
}
