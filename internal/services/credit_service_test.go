package services

import (
	"context"
	"testing"

	"connect-api/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCreditRepo struct {
	balances map[string]int
	err      error
}

func newFakeCreditRepo() *fakeCreditRepo {
	return &fakeCreditRepo{balances: make(map[string]int)}
}

func (f *fakeCreditRepo) GetBalance(_ context.Context, userID string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.balances[userID], nil
}

func (f *fakeCreditRepo) AddCredits(_ context.Context, userID string, amount int) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if amount <= 0 {
		return 0, errors.ErrInvalidInput
	}
	f.balances[userID] += amount
	return f.balances[userID], nil
}

func (f *fakeCreditRepo) DebitIfAvailable(_ context.Context, userID string, amount int) (bool, int, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	if amount <= 0 {
		return false, 0, errors.ErrInvalidInput
	}
	if f.balances[userID] < amount {
		return false, f.balances[userID], nil
	}
	f.balances[userID] -= amount
	return true, f.balances[userID], nil
}

func TestCreditPurchaseAndBalance(t *testing.T) {
	repo := newFakeCreditRepo()
	svc := NewCreditService(repo)
	ctx := context.Background()

	balance, err := svc.Purchase(ctx, "user-1", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, balance)

	balance, err = svc.Purchase(ctx, "user-1", 50)
	require.NoError(t, err)
	assert.Equal(t, 60, balance)

	balance, err = svc.Balance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 60, balance)
}

func TestCreditPurchaseRejectsNonPositiveAmount(t *testing.T) {
	svc := NewCreditService(newFakeCreditRepo())

	_, err := svc.Purchase(context.Background(), "user-1", 0)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = svc.Purchase(context.Background(), "user-1", -3)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestCreditDebitRoundTrip(t *testing.T) {
	repo := newFakeCreditRepo()
	svc := NewCreditService(repo)
	ctx := context.Background()

	_, err := svc.Purchase(ctx, "user-1", 5)
	require.NoError(t, err)

	balance, err := svc.DebitIfAvailable(ctx, "user-1", 5)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestCreditDebitInsufficientIsFirstClassOutcome(t *testing.T) {
	repo := newFakeCreditRepo()
	repo.balances["user-1"] = 1
	svc := NewCreditService(repo)

	balance, err := svc.DebitIfAvailable(context.Background(), "user-1", 2)
	ice, ok := errors.IsInsufficientCredit(err)
	require.True(t, ok)
	assert.Equal(t, 2, ice.Required)
	assert.Equal(t, 1, ice.Available)
	assert.Equal(t, 1, balance)
}

func TestCreditOperationsFailClosedOnStoreError(t *testing.T) {
	repo := newFakeCreditRepo()
	repo.err = assert.AnError
	svc := NewCreditService(repo)
	ctx := context.Background()

	_, err := svc.Balance(ctx, "user-1")
	assert.ErrorIs(t, err, errors.ErrStoreUnavailable)

	_, err = svc.Purchase(ctx, "user-1", 5)
	assert.ErrorIs(t, err, errors.ErrStoreUnavailable)

	_, err = svc.DebitIfAvailable(ctx, "user-1", 1)
	assert.ErrorIs(t, err, errors.ErrStoreUnavailable)

	_, err = svc.Refund(ctx, "user-1", 1)
	assert.ErrorIs(t, err, errors.ErrStoreUnavailable)
}
