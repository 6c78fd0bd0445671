// Package cache holds short-lived copies of verified ledger identities.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/config"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "bridge:identity:"

// RedisIdentityCache never stores raw tokens; keys are SHA-256 digests.
type RedisIdentityCache struct {
	client *redis.Client
	logger *slog.Logger
}

var _ application.IdentityCache = (*RedisIdentityCache)(nil)

func Connect(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (*RedisIdentityCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("connected to redis", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	return NewRedisIdentityCache(client, logger), nil
}

func NewRedisIdentityCache(client *redis.Client, logger *slog.Logger) *RedisIdentityCache {
	return &RedisIdentityCache{client: client, logger: logger}
}

func (c *RedisIdentityCache) Get(ctx context.Context, token string) (*application.Identity, bool, error) {
	raw, err := c.client.Get(ctx, key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read identity: %w", err)
	}

	var identity application.Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		// A corrupt entry behaves like a miss and is dropped.
		c.logger.Warn("discarding unreadable cached identity", "error", err)
		_ = c.client.Del(ctx, key(token)).Err()
		return nil, false, nil
	}
	return &identity, true, nil
}

func (c *RedisIdentityCache) Set(ctx context.Context, token string, identity *application.Identity, ttl time.Duration) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := c.client.Set(ctx, key(token), raw, ttl).Err(); err != nil {
		return fmt.Errorf("write identity: %w", err)
	}
	return nil
}

func (c *RedisIdentityCache) Delete(ctx context.Context, token string) error {
	if err := c.client.Del(ctx, key(token)).Err(); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return nil
}

// Ping is used by the health endpoint.
func (c *RedisIdentityCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisIdentityCache) Close() error {
	return c.client.Close()
}

func key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// NoopIdentityCache is used when no Redis address is configured; every lookup misses.
type NoopIdentityCache struct{}

var _ application.IdentityCache = NoopIdentityCache{}

func (NoopIdentityCache) Get(context.Context, string) (*application.Identity, bool, error) {
	return nil, false, nil
}

func (NoopIdentityCache) Set(context.Context, string, *application.Identity, time.Duration) error {
	return nil
}

func (NoopIdentityCache) Delete(context.Context, string) error {
	return nil
}
