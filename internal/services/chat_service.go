package services

import (
	"context"
	goerrors "errors"

	"connect-api/internal/logger"
	"connect-api/internal/models"
	"connect-api/internal/pkg/errors"
	"connect-api/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ChatCost is the number of connection coins one chat creation consumes.
const ChatCost = 1

type ChatResult struct {
	Chat     *models.Chat
	Coins    int
	Replayed bool
}

// ChatService orchestrates gated chat creation: idempotency check, coin
// debit, persistence, and compensation when persistence fails after the
// debit. A compensation that itself fails is recorded for reconciliation,
// never dropped.
type ChatService interface {
	CreateChat(ctx context.Context, initiatorID, otherID, scriptID, docURL string) (*ChatResult, error)
}

type chatService struct {
	chatRepo  repository.ChatRepository
	credits   CreditService
	reconRepo repository.ReconciliationRepository
}

func NewChatService(chatRepo repository.ChatRepository, credits CreditService, reconRepo repository.ReconciliationRepository) ChatService {
	return &chatService{
		chatRepo:  chatRepo,
		credits:   credits,
		reconRepo: reconRepo,
	}
}

func (s *chatService) CreateChat(ctx context.Context, initiatorID, otherID, scriptID, docURL string) (*ChatResult, error) {
	if initiatorID == "" || otherID == "" || scriptID == "" || initiatorID == otherID {
		return nil, errors.ErrInvalidInput
	}

	userA, userB := models.CanonicalPair(initiatorID, otherID)

	// Idempotent replay: an existing chat short-circuits the gate with zero
	// side effects, so a repeat from either participant never charges twice.
	existing, err := s.chatRepo.GetByPairAndScript(ctx, userA, userB, scriptID)
	if err == nil {
		return s.replay(ctx, initiatorID, existing)
	}
	if !goerrors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	// Every attempt carries its own key so a debit whose outcome was lost
	// (timeout between debit and create) can be classified later.
	attemptID := uuid.NewString()

	balance, err := s.credits.DebitIfAvailable(ctx, initiatorID, ChatCost)
	if err != nil {
		return nil, err
	}

	logger.Logger.WithFields(logrus.Fields{
		"attempt": attemptID,
		"user":    initiatorID,
		"script":  scriptID,
	}).Info("Debited connection coin for chat creation")

	chat := &models.Chat{
		UserAID:  userA,
		UserBID:  userB,
		ScriptID: scriptID,
		DocURL:   docURL,
	}

	err = s.chatRepo.Create(ctx, chat)
	if err == nil {
		return &ChatResult{Chat: chat, Coins: balance}, nil
	}

	if goerrors.Is(err, errors.ErrAlreadyExists) {
		// Lost a create/create race: the winner's chat is the caller's chat.
		// Give the coin back and replay.
		s.compensate(ctx, attemptID, initiatorID, "chat created concurrently by another request")

		winner, getErr := s.chatRepo.GetByPairAndScript(ctx, userA, userB, scriptID)
		if getErr != nil {
			return nil, getErr
		}
		return s.replay(ctx, initiatorID, winner)
	}

	s.compensate(ctx, attemptID, initiatorID, "chat creation failed after debit")
	return nil, err
}

func (s *chatService) replay(ctx context.Context, initiatorID string, chat *models.Chat) (*ChatResult, error) {
	// A coin balance of zero and an unreadable balance are different answers;
	// the store error propagates rather than masquerading as an empty account.
	coins, err := s.credits.Balance(ctx, initiatorID)
	if err != nil {
		return nil, err
	}
	return &ChatResult{Chat: chat, Coins: coins, Replayed: true}, nil
}

// compensate returns the debited coin. When the refund itself fails, a
// reconciliation record is written so the outstanding debit is resolved out
// of band instead of silently lost.
func (s *chatService) compensate(ctx context.Context, attemptID, userID, reason string) {
	if _, err := s.credits.Refund(ctx, userID, ChatCost); err == nil {
		return
	}

	record := &models.CreditReconciliation{
		AttemptID: attemptID,
		UserID:    userID,
		Amount:    ChatCost,
		Reason:    reason,
	}

	if err := s.reconRepo.Create(ctx, record); err != nil {
		// Last resort: the outstanding debit must at least be visible in
		// the logs with its attempt key.
		logger.Logger.WithFields(logrus.Fields{
			"error":   err,
			"attempt": attemptID,
			"user":    userID,
			"amount":  ChatCost,
			"reason":  reason,
		}).Error("Failed to write reconciliation record for uncompensated debit")
		return
	}

	logger.Logger.WithFields(logrus.Fields{
		"attempt": attemptID,
		"user":    userID,
		"reason":  reason,
	}).Warn("Refund failed, reconciliation record created")
}
