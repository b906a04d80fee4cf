package services

import (
	"context"

	"connect-api/internal/logger"
	"connect-api/internal/pkg/errors"
	"connect-api/internal/repository"

	"github.com/sirupsen/logrus"
)

// CreditService is the gate in front of the credit store. Unlike quota
// checks, credit operations fail CLOSED: a store failure surfaces as
// ErrStoreUnavailable and the operation is denied, because the balance
// invariant must hold even during outages.
type CreditService interface {
	Balance(ctx context.Context, userID string) (int, error)

	// Purchase adds amount coins to the user's account and returns the new
	// balance. Amount must be positive.
	Purchase(ctx context.Context, userID string, amount int) (int, error)

	// DebitIfAvailable spends amount coins if the balance covers them. An
	// *errors.InsufficientCreditError is the expected negative outcome, not
	// a failure.
	DebitIfAvailable(ctx context.Context, userID string, amount int) (int, error)

	// Refund returns amount coins after a debit whose follow-up work failed.
	Refund(ctx context.Context, userID string, amount int) (int, error)
}

type creditService struct {
	creditRepo repository.CreditAccountRepository
}

func NewCreditService(creditRepo repository.CreditAccountRepository) CreditService {
	return &creditService{creditRepo: creditRepo}
}

func (s *creditService) Balance(ctx context.Context, userID string) (int, error) {
	balance, err := s.creditRepo.GetBalance(ctx, userID)
	if err != nil {
		return 0, s.failClosed("balance read failed", userID, err)
	}
	return balance, nil
}

func (s *creditService) Purchase(ctx context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, errors.ErrInvalidInput
	}

	balance, err := s.creditRepo.AddCredits(ctx, userID, amount)
	if err != nil {
		return 0, s.failClosed("purchase failed", userID, err)
	}
	return balance, nil
}

func (s *creditService) DebitIfAvailable(ctx context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, errors.ErrInvalidInput
	}

	ok, balance, err := s.creditRepo.DebitIfAvailable(ctx, userID, amount)
	if err != nil {
		return 0, s.failClosed("debit failed", userID, err)
	}
	if !ok {
		return balance, &errors.InsufficientCreditError{
			Required:  amount,
			Available: balance,
		}
	}
	return balance, nil
}

func (s *creditService) Refund(ctx context.Context, userID string, amount int) (int, error) {
	balance, err := s.creditRepo.AddCredits(ctx, userID, amount)
	if err != nil {
		return 0, s.failClosed("refund failed", userID, err)
	}
	return balance, nil
}

func (s *creditService) failClosed(msg, userID string, err error) error {
	logger.Logger.WithFields(logrus.Fields{
		"error": err,
		"user":  userID,
	}).Error("Credit store error, failing closed: " + msg)
	return errors.ErrStoreUnavailable
}
