package services

import (
	"context"
	"math"
	"time"

	"connect-api/internal/config"
	"connect-api/internal/logger"
	"connect-api/internal/models"
	"connect-api/internal/repository"

	"github.com/sirupsen/logrus"
)

// Decision is the outcome of a quota check. RetryAfterSeconds is only set
// when the request is denied.
type Decision struct {
	Allowed           bool
	LimitHourly       int
	LimitDaily        int
	RemainingHourly   int
	RemainingDaily    int
	RetryAfterSeconds int
}

type RateLimitService interface {
	// CheckQuota decides whether one more call of the given class is within
	// the user's trailing-hour and trailing-day windows. Store failures fail
	// OPEN: the request is allowed and the failure logged, so a metering
	// outage never blocks the product.
	CheckQuota(ctx context.Context, userID string, class models.APIClass) *Decision

	// RecordUsage appends one usage event. Callers must invoke it only after
	// the metered downstream call succeeded, so failed calls never consume
	// quota.
	RecordUsage(ctx context.Context, userID string, class models.APIClass) error
}

type rateLimitService struct {
	usageRepo repository.UsageEventRepository
	quotas    *config.QuotaConfig
	now       func() time.Time
}

func NewRateLimitService(usageRepo repository.UsageEventRepository, quotas *config.QuotaConfig) RateLimitService {
	return &rateLimitService{
		usageRepo: usageRepo,
		quotas:    quotas,
		now:       time.Now,
	}
}

func (s *rateLimitService) CheckQuota(ctx context.Context, userID string, class models.APIClass) *Decision {
	limit, ok := s.quotas.LimitFor(class)
	if !ok {
		logger.Logger.WithFields(logrus.Fields{
			"api_class": class,
			"user":      userID,
		}).Error("Quota check for unconfigured api class, allowing")
		return &Decision{Allowed: true}
	}

	now := s.now()
	hourAgo := now.Add(-config.HourlyWindow)
	dayAgo := now.Add(-config.DailyWindow)

	hourlyCount, err := s.usageRepo.CountSince(ctx, userID, class, hourAgo)
	if err != nil {
		return s.failOpen(userID, class, limit, err)
	}

	dailyCount, err := s.usageRepo.CountSince(ctx, userID, class, dayAgo)
	if err != nil {
		return s.failOpen(userID, class, limit, err)
	}

	decision := &Decision{
		LimitHourly:     limit.Hourly,
		LimitDaily:      limit.Daily,
		RemainingHourly: maxInt(0, limit.Hourly-int(hourlyCount)),
		RemainingDaily:  maxInt(0, limit.Daily-int(dailyCount)),
	}

	hourlyExceeded := hourlyCount >= int64(limit.Hourly)
	dailyExceeded := dailyCount >= int64(limit.Daily)
	if !hourlyExceeded && !dailyExceeded {
		decision.Allowed = true
		return decision
	}

	// Retry once the oldest event inside the breached window slides out.
	window := config.HourlyWindow
	since := hourAgo
	if !hourlyExceeded {
		window = config.DailyWindow
		since = dayAgo
	}

	oldest, err := s.usageRepo.OldestSince(ctx, userID, class, since)
	if err != nil {
		return s.failOpen(userID, class, limit, err)
	}
	if oldest != nil {
		retryAt := oldest.Add(window)
		seconds := int(math.Ceil(retryAt.Sub(now).Seconds()))
		decision.RetryAfterSeconds = maxInt(0, seconds)
	}

	return decision
}

func (s *rateLimitService) RecordUsage(ctx context.Context, userID string, class models.APIClass) error {
	return s.usageRepo.Record(ctx, userID, class, s.now())
}

func (s *rateLimitService) failOpen(userID string, class models.APIClass, limit config.QuotaLimit, err error) *Decision {
	logger.Logger.WithFields(logrus.Fields{
		"error":     err,
		"user":      userID,
		"api_class": class,
	}).Error("Usage store unavailable, failing open on quota check")

	return &Decision{
		Allowed:         true,
		LimitHourly:     limit.Hourly,
		LimitDaily:      limit.Daily,
		RemainingHourly: limit.Hourly,
		RemainingDaily:  limit.Daily,
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
