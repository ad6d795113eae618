package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"equiprent-backend/internal/config"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "equiprent:"

// NewRedisClient builds a client from config. It returns nil when no address is configured.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// ReportCache keeps rendered reports in Redis for a fixed TTL.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

// Get returns nil, nil on a miss.
func (c *ReportCache) Get(ctx context.Context, key string) (*domain.Report, error) {
	if c.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	logger.ExternalServiceCall("redis", "GET", "key", key)
	val, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		logger.ExternalServiceResult("redis", "GET", nil, "hit", false)
		return nil, nil
	}
	if err != nil {
		logger.ExternalServiceResult("redis", "GET", err)
		return nil, fmt.Errorf("failed to get report from redis: %w", err)
	}

	// UseNumber keeps integer cents intact instead of widening them to float64.
	dec := json.NewDecoder(bytes.NewReader(val))
	dec.UseNumber()
	var report domain.Report
	if err := dec.Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	logger.ExternalServiceResult("redis", "GET", nil, "hit", true)
	return &report, nil
}

func (c *ReportCache) Set(ctx context.Context, key string, report *domain.Report) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	logger.ExternalServiceCall("redis", "SET", "key", key, "ttl", c.ttl)
	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		logger.ExternalServiceResult("redis", "SET", err)
		return fmt.Errorf("failed to set report in redis: %w", err)
	}
	logger.ExternalServiceResult("redis", "SET", nil)
	return nil
}

// Ping checks connectivity for health reporting.
func (c *ReportCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	return c.client.Ping(ctx).Err()
}
