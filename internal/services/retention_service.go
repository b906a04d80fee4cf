package services

import (
	"context"
	"time"

	"connect-api/internal/config"
	"connect-api/internal/logger"
	"connect-api/internal/repository"

	"github.com/sirupsen/logrus"
)

// RetentionService prunes usage events older than the retention window on a
// timer. Pruning runs in its own goroutine and never inside the quota check
// or record path.
type RetentionService struct {
	usageRepo repository.UsageEventRepository
	interval  time.Duration
	retention time.Duration
}

func NewRetentionService(usageRepo repository.UsageEventRepository) *RetentionService {
	return &RetentionService{
		usageRepo: usageRepo,
		interval:  time.Hour,
		retention: config.UsageRetention,
	}
}

// Start launches the pruning loop. It stops when ctx is cancelled.
func (s *RetentionService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.prune(ctx)
			}
		}
	}()
}

func (s *RetentionService) prune(ctx context.Context) {
	cutoff := time.Now().Add(-s.retention)
	deleted, err := s.usageRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		logger.Logger.WithFields(logrus.Fields{
			"error": err,
		}).Error("Failed to prune usage events")
		return
	}

	if deleted > 0 {
		logger.Logger.WithFields(logrus.Fields{
			"deleted": deleted,
			"cutoff":  cutoff,
		}).Info("Pruned expired usage events")
	}
}
