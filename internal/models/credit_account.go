package models

import "time"

// CreditAccount holds a user's connection coin balance. The balance is only
// ever changed through single-statement conditional updates, so it can never
// go below zero.
type CreditAccount struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"user_id"`
	Balance   int       `gorm:"not null;default:0;check:balance >= 0" json:"balance"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (CreditAccount) TableName() string {
	return "credit_accounts"
}
