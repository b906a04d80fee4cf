package services

import (
	"context"
	"testing"
	"time"

	"connect-api/internal/config"
	"connect-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type usageKey struct {
	userID string
	class  models.APIClass
}

type fakeUsageRepo struct {
	events map[usageKey][]time.Time
	err    error
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{events: make(map[usageKey][]time.Time)}
}

func (f *fakeUsageRepo) Record(_ context.Context, userID string, class models.APIClass, occurredAt time.Time) error {
	if f.err != nil {
		return f.err
	}
	k := usageKey{userID, class}
	f.events[k] = append(f.events[k], occurredAt)
	return nil
}

func (f *fakeUsageRepo) CountSince(_ context.Context, userID string, class models.APIClass, since time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	var count int64
	for _, at := range f.events[usageKey{userID, class}] {
		if at.After(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeUsageRepo) OldestSince(_ context.Context, userID string, class models.APIClass, since time.Time) (*time.Time, error) {
	if f.err != nil {
		return nil, f.err
	}
	var oldest *time.Time
	for _, at := range f.events[usageKey{userID, class}] {
		at := at
		if !at.After(since) {
			continue
		}
		if oldest == nil || at.Before(*oldest) {
			oldest = &at
		}
	}
	return oldest, nil
}

func (f *fakeUsageRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	var deleted int64
	for k, events := range f.events {
		kept := events[:0]
		for _, at := range events {
			if at.Before(cutoff) {
				deleted++
			} else {
				kept = append(kept, at)
			}
		}
		f.events[k] = kept
	}
	return deleted, nil
}

func newTestRateLimitService(repo *fakeUsageRepo, now time.Time) *rateLimitService {
	return &rateLimitService{
		usageRepo: repo,
		quotas:    config.NewQuotaConfig(),
		now:       func() time.Time { return now },
	}
}

func TestCheckQuotaAllowsUnderLimit(t *testing.T) {
	now := time.Now()
	repo := newFakeUsageRepo()
	svc := newTestRateLimitService(repo, now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Record(ctx, "user-1", models.APIClassStandard, now.Add(-time.Duration(i+1)*time.Minute)))
	}

	decision := svc.CheckQuota(ctx, "user-1", models.APIClassStandard)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 100, decision.LimitHourly)
	assert.Equal(t, 1000, decision.LimitDaily)
	assert.Equal(t, 97, decision.RemainingHourly)
	assert.Equal(t, 997, decision.RemainingDaily)
	assert.Equal(t, 0, decision.RetryAfterSeconds)
}

func TestCheckQuotaDeniesAtHourlyLimit(t *testing.T) {
	now := time.Now()
	repo := newFakeUsageRepo()
	svc := newTestRateLimitService(repo, now)
	ctx := context.Background()

	// 100 events inside the hour, the oldest 40 minutes ago.
	oldest := now.Add(-40 * time.Minute)
	require.NoError(t, repo.Record(ctx, "user-1", models.APIClassStandard, oldest))
	for i := 0; i < 99; i++ {
		require.NoError(t, repo.Record(ctx, "user-1", models.APIClassStandard, now.Add(-time.Duration(i+1)*time.Second)))
	}

	decision := svc.CheckQuota(ctx, "user-1", models.APIClassStandard)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 0, decision.RemainingHourly)

	// Retry once the oldest event leaves the one-hour window.
	expected := int(oldest.Add(time.Hour).Sub(now).Seconds())
	assert.InDelta(t, expected, decision.RetryAfterSeconds, 1)
}

func TestCheckQuotaDeniesAtDailyLimit(t *testing.T) {
	now := time.Now()
	repo := newFakeUsageRepo()
	svc := newTestRateLimitService(repo, now)
	ctx := context.Background()

	// Daily limit for key_metrics is 100; spread events so the hourly limit
	// is not breached.
	oldest := now.Add(-20 * time.Hour)
	require.NoError(t, repo.Record(ctx, "user-1", models.APIClassKeyMetrics, oldest))
	for i := 0; i < 99; i++ {
		require.NoError(t, repo.Record(ctx, "user-1", models.APIClassKeyMetrics, now.Add(-time.Duration(i+120)*time.Minute)))
	}

	decision := svc.CheckQuota(ctx, "user-1", models.APIClassKeyMetrics)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 0, decision.RemainingDaily)

	expected := int(oldest.Add(24 * time.Hour).Sub(now).Seconds())
	assert.InDelta(t, expected, decision.RetryAfterSeconds, 1)
}

func TestCheckQuotaRetryAfterNeverNegative(t *testing.T) {
	now := time.Now()
	repo := newFakeUsageRepo()
	svc := newTestRateLimitService(repo, now)
	ctx := context.Background()

	// All events sit right at the window edge, so the computed retry times
	// round to zero or below.
	for i := 0; i < 100; i++ {
		require.NoError(t, repo.Record(ctx, "user-1", models.APIClassStandard, now.Add(-time.Hour+time.Millisecond)))
	}

	decision := svc.CheckQuota(ctx, "user-1", models.APIClassStandard)
	assert.False(t, decision.Allowed)
	assert.GreaterOrEqual(t, decision.RetryAfterSeconds, 0)
}

func TestCheckQuotaFailsOpenOnStoreError(t *testing.T) {
	now := time.Now()
	repo := newFakeUsageRepo()
	repo.err = assert.AnError
	svc := newTestRateLimitService(repo, now)

	decision := svc.CheckQuota(context.Background(), "user-1", models.APIClassStandard)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 100, decision.RemainingHourly)
	assert.Equal(t, 1000, decision.RemainingDaily)
}

func TestRecordUsageAppendsEvent(t *testing.T) {
	now := time.Now()
	repo := newFakeUsageRepo()
	svc := newTestRateLimitService(repo, now)
	ctx := context.Background()

	require.NoError(t, svc.RecordUsage(ctx, "user-1", models.APIClassStandard))

	count, err := repo.CountSince(ctx, "user-1", models.APIClassStandard, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
