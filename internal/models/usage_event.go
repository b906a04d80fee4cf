package models

import "time"

// APIClass is a named category of metered external-API usage. Each class
// carries its own hourly and daily quota.
type APIClass string

const (
	APIClassStandard   APIClass = "standard"
	APIClassKeyMetrics APIClass = "key_metrics"
)

// UsageEvent is one recorded metered call. Rows are append-only: they are
// written after a successful downstream call and removed only by retention
// pruning, never updated.
type UsageEvent struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	UserID     string    `gorm:"type:varchar(64);not null;index:idx_usage_user_class_time,priority:1" json:"user_id"`
	APIClass   APIClass  `gorm:"type:varchar(32);not null;index:idx_usage_user_class_time,priority:2" json:"api_class"`
	OccurredAt time.Time `gorm:"not null;index:idx_usage_user_class_time,priority:3" json:"occurred_at"`
}

func (UsageEvent) TableName() string {
	return "usage_events"
}
