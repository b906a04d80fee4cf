package models

import "time"

// CreditReconciliation marks a debit whose compensation could not be applied
// automatically. Rows are written when a refund after a failed chat creation
// itself fails, and are cleared out of band by an operator or scheduled job.
type CreditReconciliation struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	AttemptID string    `gorm:"type:varchar(64);not null;index" json:"attempt_id"`
	UserID    string    `gorm:"type:varchar(64);not null;index" json:"user_id"`
	Amount    int       `gorm:"not null" json:"amount"`
	Reason    string    `gorm:"type:text;not null" json:"reason"`
	Resolved  bool      `gorm:"not null;default:false;index" json:"resolved"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (CreditReconciliation) TableName() string {
	return "credit_reconciliations"
}
