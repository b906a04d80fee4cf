package repository

import (
	"context"
	goerrors "errors"

	"connect-api/internal/models"
	"connect-api/internal/pkg/errors"

	"gorm.io/gorm"
)

type ChatRepository interface {
	// GetByPairAndScript looks up a chat by its canonical pair and script.
	// Returns errors.ErrNotFound when absent.
	GetByPairAndScript(ctx context.Context, userA, userB, scriptID string) (*models.Chat, error)

	// Create persists a chat. Returns errors.ErrAlreadyExists when the
	// unique (pair, script) index rejects the row.
	Create(ctx context.Context, chat *models.Chat) error
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) GetByPairAndScript(ctx context.Context, userA, userB, scriptID string) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.WithContext(ctx).
		First(&chat, "user_a_id = ? AND user_b_id = ? AND script_id = ?", userA, userB, scriptID).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get chat")
	}

	return &chat, nil
}

func (r *chatRepository) Create(ctx context.Context, chat *models.Chat) error {
	err := r.db.WithContext(ctx).Create(chat).Error
	if err != nil {
		if goerrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.ErrAlreadyExists
		}
		return errors.Wrap(err, "failed to create chat")
	}
	return nil
}
