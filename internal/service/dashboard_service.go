package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/2005bahadursdr/student-attendance-api/internal/models"
)

// statsCachePattern matches every cached dashboard payload. Write paths
// invalidate on it so stale headline numbers never outlive a mutation.
const statsCachePattern = "dashboard:*"

const statsCacheKey = "dashboard:stats"

type studentCounter interface {
	Count(ctx context.Context) (int, error)
}

type classCounter interface {
	Count(ctx context.Context) (int, error)
}

// DashboardService composes headline stats for the dashboard endpoint.
type DashboardService struct {
	students studentCounter
	classes  classCounter
	summary  attendanceSummarizer
	cache    *CacheService
	logger   *zap.Logger
	now      func() time.Time
	cacheTTL time.Duration
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(students studentCounter, classes classCounter, summary attendanceSummarizer, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		students: students,
		classes:  classes,
		summary:  summary,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
		cacheTTL: cacheTTL,
	}
}

// Stats returns headline counts plus today's attendance summary, indicating
// whether the payload came from cache.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, bool, error) {
	var cached models.DashboardStats
	if hit, err := s.cache.Get(ctx, statsCacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	totalStudents, err := s.students.Count(ctx)
	if err != nil {
		return nil, false, failure(err, "failed to count students")
	}
	totalClasses, err := s.classes.Count(ctx)
	if err != nil {
		return nil, false, failure(err, "failed to count classes")
	}
	today := models.NormalizeDay(s.now())
	summary, err := s.summary.Summary(ctx, "", &today, &today)
	if err != nil {
		return nil, false, failure(err, "failed to summarize today's attendance")
	}

	stats := &models.DashboardStats{
		TotalStudents: totalStudents,
		TotalClasses:  totalClasses,
		Today:         *summary,
	}
	if summary.Total > 0 {
		stats.AttendanceRate = float64(summary.Present) / float64(summary.Total) * 100
	}

	if err := s.cache.Set(ctx, statsCacheKey, stats, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard stats", zap.Error(err))
	}
	return stats, false, nil
}
