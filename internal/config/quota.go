package config

import (
	"time"

	"connect-api/internal/models"
)

const (
	HourlyWindow = time.Hour
	DailyWindow  = 24 * time.Hour

	// UsageRetention is how long usage events are kept before pruning.
	// It sits safely beyond the daily window.
	UsageRetention = 48 * time.Hour
)

type QuotaLimit struct {
	Hourly int
	Daily  int
}

// QuotaConfig maps each api class to its hourly and daily limits. Built once
// at process start and read-only afterwards.
type QuotaConfig struct {
	Limits map[models.APIClass]QuotaLimit
}

func NewQuotaConfig() *QuotaConfig {
	return &QuotaConfig{
		Limits: map[models.APIClass]QuotaLimit{
			models.APIClassStandard:   {Hourly: 100, Daily: 1000},
			models.APIClassKeyMetrics: {Hourly: 10, Daily: 100},
		},
	}
}

// LimitFor returns the configured limit for class, or ok=false for an
// unknown class.
func (c *QuotaConfig) LimitFor(class models.APIClass) (QuotaLimit, bool) {
	limit, ok := c.Limits[class]
	return limit, ok
}
