package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/studentms/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// TranscriptCacheKey is the cache key holding a student's aggregated transcript.
func TranscriptCacheKey(studentID int64) string {
	return fmt.Sprintf("transcript:%d", studentID)
}

// CacheService wraps the cache repository with metrics and fail-open semantics.
// A nil *CacheService behaves as a disabled cache.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get loads a cached entry into dest and reports whether it was a hit.
// Backend failures are logged and treated as misses.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	return err == nil
}

// Set stores value, using the default TTL when ttl is not positive.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !s.Enabled() {
		return
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateTranscript drops the cached transcript of one student.
func (s *CacheService) InvalidateTranscript(ctx context.Context, studentID int64) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.Delete(ctx, TranscriptCacheKey(studentID)); err != nil {
		s.logger.Warn("cache invalidate failed", zap.Int64("student_id", studentID), zap.Error(err))
	}
}

// InvalidateAll drops every cached transcript, used when shared catalog data changes.
func (s *CacheService) InvalidateAll(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.DeleteByPattern(ctx, "transcript:*"); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", "transcript:*"), zap.Error(err))
	}
}
