package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheNotFound     = errors.New("cache: key not found")
	ErrCacheNotAvailable = errors.New("cache: not available")
)

const (
	DefaultTTL = 5 * time.Minute
	ShortTTL   = 1 * time.Minute
	LongTTL    = 30 * time.Minute
)

// CacheHelper wraps a redis client with JSON serialization and graceful
// degradation: a nil client turns every operation into a miss instead of
// an error, so the service runs without redis configured.
type CacheHelper struct {
	client *redis.Client
	logger *slog.Logger
}

func NewCacheHelper(client *redis.Client, logger *slog.Logger) *CacheHelper {
	return &CacheHelper{
		client: client,
		logger: logger,
	}
}

// Available reports whether a redis client is wired in.
func (h *CacheHelper) Available() bool {
	return h.client != nil
}

// Get loads a key and unmarshals it into dest.
func (h *CacheHelper) Get(ctx context.Context, key string, dest interface{}) error {
	if h.client == nil {
		return ErrCacheNotAvailable
	}

	data, err := h.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheNotFound
		}
		return fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache decode %s: %w", key, err)
	}
	return nil
}

// Set stores value under key for ttl.
func (h *CacheHelper) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if h.client == nil {
		return ErrCacheNotAvailable
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}

	if err := h.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys. Missing keys are not an error.
func (h *CacheHelper) Delete(ctx context.Context, keys ...string) error {
	if h.client == nil || len(keys) == 0 {
		return nil
	}
	if err := h.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// InvalidatePattern removes all keys matching pattern using SCAN so large
// keyspaces are not blocked the way KEYS would.
func (h *CacheHelper) InvalidatePattern(ctx context.Context, pattern string) error {
	if h.client == nil {
		return nil
	}

	iter := h.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan %s: %w", pattern, err)
	}

	return h.Delete(ctx, keys...)
}

// CacheOrExecute implements cache-aside: on a hit dest is filled from the
// cache, on a miss fn runs and its result is stored and copied into dest.
// Cache failures degrade to executing fn; only fn's error is surfaced.
func (h *CacheHelper) CacheOrExecute(ctx context.Context, key string, ttl time.Duration, dest interface{}, fn func() (interface{}, error)) error {
	if err := h.Get(ctx, key, dest); err == nil {
		return nil
	} else if !errors.Is(err, ErrCacheNotFound) && !errors.Is(err, ErrCacheNotAvailable) {
		h.logger.Warn("cache read failed, falling through", "key", key, "error", err)
	}

	result, err := fn()
	if err != nil {
		return err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache decode %s: %w", key, err)
	}

	if setErr := h.Set(ctx, key, result, ttl); setErr != nil && !errors.Is(setErr, ErrCacheNotAvailable) {
		h.logger.Warn("cache write failed", "key", key, "error", setErr)
	}
	return nil
}
