package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/complaint-box-api/internal/models"
	appErrors "github.com/noah-isme/complaint-box-api/pkg/errors"
)

const statsCacheKey = "stats:complaints"

type statsRepository interface {
	StatusCounts(ctx context.Context) ([]models.StatusCount, error)
	CategoryCounts(ctx context.Context) ([]models.CategoryCount, error)
}

// StatsService aggregates complaint counts for the admin dashboard,
// cache-aside over Redis when enabled.
type StatsService struct {
	repo     statsRepository
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewStatsService constructs a StatsService.
func NewStatsService(repo statsRepository, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Overview returns aggregate complaint counts by status and category.
func (s *StatsService) Overview(ctx context.Context) (*models.ComplaintStats, error) {
	if s.cache.Enabled() {
		var cached models.ComplaintStats
		if hit, err := s.cache.Get(ctx, statsCacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	statusCounts, err := s.repo.StatusCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate status counts")
	}
	categoryCounts, err := s.repo.CategoryCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate category counts")
	}

	stats := &models.ComplaintStats{
		ByStatus:    make(map[string]int, len(statusCounts)),
		ByCategory:  make(map[string]int, len(categoryCounts)),
		GeneratedAt: time.Now().UTC(),
	}
	for _, row := range statusCounts {
		stats.ByStatus[row.Status] = row.Count
		stats.Total += row.Count
	}
	for _, row := range categoryCounts {
		stats.ByCategory[row.Category] = row.Count
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, statsCacheKey, stats, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache complaint stats", zap.Error(err))
		}
	}
	return stats, nil
}

// InvalidateStats drops the cached aggregate after complaint mutations.
func (s *StatsService) InvalidateStats(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "stats:*"); err != nil {
		s.logger.Warn("failed to invalidate stats cache", zap.Error(err))
	}
}
