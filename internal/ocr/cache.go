package ocr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"ocrdoc/internal/logger"
	"ocrdoc/internal/progress"
	"ocrdoc/pkg/models"
)

const cacheKeyPrefix = "ocrdoc:text:"

// ErrCacheMiss is returned by a Store when no entry exists.
var ErrCacheMiss = errors.New("cache miss")

// Store is a minimal key/value store with expiry.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}

// RedisStore implements Store with go-redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the Redis server at url and verifies the connection.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return value, err
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// CachedRecognizer serves repeated recognitions of identical images from a Store.
// Cache failures are logged and fall through to the engine.
type CachedRecognizer struct {
	next  Recognizer
	store Store
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCached wraps next with a cache.
func NewCached(next Recognizer, store Store, ttl time.Duration) *CachedRecognizer {
	return &CachedRecognizer{
		next:  next,
		store: store,
		ttl:   ttl,
		log:   logger.WithComponent("ocr-cache"),
	}
}

func (c *CachedRecognizer) Name() string { return c.next.Name() }

// Recognize returns a cached text when available, otherwise delegates and stores the result.
func (c *CachedRecognizer) Recognize(ctx context.Context, img models.ImageInput, model string, onProgress ProgressFunc) (string, error) {
	key := CacheKey(c.next.Name(), model, img.Data)

	text, err := c.store.Get(ctx, key)
	if err == nil {
		c.log.Debug().Str("image", img.Name).Str("key", key).Msg("Recognition cache hit")
		report(onProgress, progress.StageRecognizing, 1)
		return text, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.log.Warn().Err(err).Str("image", img.Name).Msg("Recognition cache lookup failed")
	}

	text, err = c.next.Recognize(ctx, img, model, onProgress)
	if err != nil {
		return "", err
	}

	if err := c.store.Set(ctx, key, text, c.ttl); err != nil {
		c.log.Warn().Err(err).Str("image", img.Name).Msg("Failed to store recognition result")
	}
	return text, nil
}

// Close closes the engine and the store.
func (c *CachedRecognizer) Close() error {
	return errors.Join(c.next.Close(), c.store.Close())
}

// CacheKey identifies a recognition by engine, model and image content.
func CacheKey(engine, model string, data []byte) string {
	sum := sha256.Sum256(data)
	return cacheKeyPrefix + engine + ":" + model + ":" + hex.EncodeToString(sum[:])
}
