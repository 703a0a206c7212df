package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Key prefixes, kept in one place so invalidation patterns stay aligned
// with the read paths.
const (
	examByIDPrefix   = "exam:id:"
	examByCodePrefix = "exam:code:"
	examStatsPrefix  = "exam:stats:"
)

// CacheManager exposes the exam-domain cache operations on top of CacheHelper.
type CacheManager struct {
	helper *CacheHelper
}

func NewCacheManager(client *redis.Client, logger *slog.Logger) *CacheManager {
	return &CacheManager{
		helper: NewCacheHelper(client, logger),
	}
}

func (m *CacheManager) Helper() *CacheHelper {
	return m.helper
}

func ExamByIDKey(id uint) string {
	return fmt.Sprintf("%s%d", examByIDPrefix, id)
}

func ExamByCodeKey(code string) string {
	return examByCodePrefix + code
}

func ExamStatsKey(id uint) string {
	return fmt.Sprintf("%s%d", examStatsPrefix, id)
}

// InvalidateExam drops every cached projection of one exam. Called on any
// write that touches the exam row, its questions, or its attempts.
func (m *CacheManager) InvalidateExam(ctx context.Context, id uint, accessCode string) error {
	keys := []string{ExamByIDKey(id), ExamStatsKey(id)}
	if accessCode != "" {
		keys = append(keys, ExamByCodeKey(accessCode))
	}
	return m.helper.Delete(ctx, keys...)
}

// InvalidateAllExams drops the whole exam keyspace, used when a write's
// affected access code is unknown.
func (m *CacheManager) InvalidateAllExams(ctx context.Context) error {
	return m.helper.InvalidatePattern(ctx, "exam:*")
}
