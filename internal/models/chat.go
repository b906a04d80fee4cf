package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chat is a paid conversation between two users about one script. The
// participant pair is stored in canonical order (UserAID < UserBID) and the
// unique index guarantees one chat per pair and script.
type Chat struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserAID   string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_chats_pair_script,priority:1" json:"user1_id"`
	UserBID   string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_chats_pair_script,priority:2" json:"user2_id"`
	ScriptID  string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_chats_pair_script,priority:3" json:"script_id"`
	DocURL    string    `gorm:"type:text" json:"doc_url"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (c *Chat) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}

	return nil
}

func (Chat) TableName() string {
	return "chats"
}

// CanonicalPair orders two participant ids deterministically so a chat
// requested from either side resolves to the same row.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
