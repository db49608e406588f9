// Package cache keeps catalog reads in Redis. Results are never cached; they
// must always reflect the last write.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/career-quiz/internal/quiz"
)

const (
	DefaultTTL    = 10 * time.Minute
	DefaultPrefix = "quiz:"

	coursesKey = "courses"
)

// Config describes the Redis connection. An empty Addr disables caching.
type Config struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	Prefix   string        `mapstructure:"prefix"`
}

type questionSource interface {
	GetQuestion(ctx context.Context, id string) (*quiz.Question, error)
}

type courseSource interface {
	ListCourses(ctx context.Context) ([]quiz.Course, error)
}

// Catalog is a read-through cache in front of the question and course
// catalogs. Redis failures are logged and the source is used instead.
type Catalog struct {
	rdb       redis.UniversalClient
	questions questionSource
	courses   courseSource
	ttl       time.Duration
	prefix    string
	logger    *zap.Logger
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

func NewCatalog(rdb redis.UniversalClient, questions questionSource, courses courseSource, cfg Config, logger *zap.Logger) *Catalog {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		rdb:       rdb,
		questions: questions,
		courses:   courses,
		ttl:       cfg.TTL,
		prefix:    cfg.Prefix,
		logger:    logger,
	}
}

func (c *Catalog) GetQuestion(ctx context.Context, id string) (*quiz.Question, error) {
	key := c.prefix + "question:" + id

	var cached quiz.Question
	if c.load(ctx, key, &cached) {
		return &cached, nil
	}

	q, err := c.questions.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, q)
	return q, nil
}

func (c *Catalog) ListCourses(ctx context.Context) ([]quiz.Course, error) {
	key := c.prefix + coursesKey

	var cached []quiz.Course
	if c.load(ctx, key, &cached) {
		return cached, nil
	}

	courses, err := c.courses.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, courses)
	return courses, nil
}

// Invalidate drops every cached catalog entry under the prefix.
func (c *Catalog) Invalidate(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete cache keys: %w", err)
	}
	c.logger.Info("catalog cache invalidated", zap.Int("keys", len(keys)))
	return nil
}

func (c *Catalog) load(ctx context.Context, key string, out any) bool {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn("cache entry is corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	c.logger.Debug("cache hit", zap.String("key", key))
	return true
}

func (c *Catalog) store(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
