package repository

import (
	"context"
	"sync"
	"testing"

	"connect-api/internal/models"
	"connect-api/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBalanceWithoutAccount(t *testing.T) {
	db := newTestDB(t)
	repo := NewCreditAccountRepository(db)
	ctx := context.Background()

	balance, err := repo.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	// Reading must not create a row as a side effect.
	var count int64
	require.NoError(t, db.Model(&models.CreditAccount{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestAddCreditsCreatesAndAccumulates(t *testing.T) {
	db := newTestDB(t)
	repo := NewCreditAccountRepository(db)
	ctx := context.Background()

	balance, err := repo.AddCredits(ctx, "user-1", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, balance)

	balance, err = repo.AddCredits(ctx, "user-1", 50)
	require.NoError(t, err)
	assert.Equal(t, 60, balance)

	balance, err = repo.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 60, balance)

	// One row per user, even after repeated upserts.
	var count int64
	require.NoError(t, db.Model(&models.CreditAccount{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAddCreditsRejectsNonPositiveAmount(t *testing.T) {
	db := newTestDB(t)
	repo := NewCreditAccountRepository(db)
	ctx := context.Background()

	_, err := repo.AddCredits(ctx, "user-1", 0)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = repo.AddCredits(ctx, "user-1", -5)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestDebitIfAvailableRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewCreditAccountRepository(db)
	ctx := context.Background()

	_, err := repo.AddCredits(ctx, "user-1", 3)
	require.NoError(t, err)

	ok, balance, err := repo.DebitIfAvailable(ctx, "user-1", 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, balance)
}

func TestDebitIfAvailableReportsOwnResult(t *testing.T) {
	db := newTestDB(t)
	repo := NewCreditAccountRepository(db)
	ctx := context.Background()

	_, err := repo.AddCredits(ctx, "user-1", 6)
	require.NoError(t, err)

	// Each successful debit reports the balance it left behind, not a
	// later re-read of the row.
	ok, balance, err := repo.DebitIfAvailable(ctx, "user-1", 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, balance)

	ok, balance, err = repo.DebitIfAvailable(ctx, "user-1", 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, balance)

	ok, balance, err = repo.DebitIfAvailable(ctx, "user-1", 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, balance)
}

func TestDebitIfAvailableInsufficient(t *testing.T) {
	db := newTestDB(t)
	repo := NewCreditAccountRepository(db)
	ctx := context.Background()

	// No account at all.
	ok, balance, err := repo.DebitIfAvailable(ctx, "user-1", 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, balance)

	// Account with too small a balance; the failed attempt changes nothing.
	_, err = repo.AddCredits(ctx, "user-2", 1)
	require.NoError(t, err)

	ok, balance, err = repo.DebitIfAvailable(ctx, "user-2", 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, balance)
}

func TestConcurrentDebitsSpendExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	repo := NewCreditAccountRepository(db)
	ctx := context.Background()

	_, err := repo.AddCredits(ctx, "user-1", 1)
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _, err := repo.DebitIfAvailable(ctx, "user-1", 1)
			if err != nil {
				t.Errorf("debit: %v", err)
				return
			}
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for ok := range results {
		if ok {
			successes++
		}
	}
	assert.Equal(t, 1, successes)

	balance, err := repo.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}
