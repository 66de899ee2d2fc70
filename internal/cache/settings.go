// Package cache keeps the company settings close to the invoice and quote
// paths, which read them on every request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"backoffice/internal/model"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when the settings are not cached.
var ErrCacheMiss = errors.New("cache miss")

const settingsKey = "backoffice:company_settings"

// SettingsCache stores the company settings with their product catalogue.
type SettingsCache interface {
	Get(ctx context.Context) (*model.CompanyInfo, error)
	Set(ctx context.Context, info *model.CompanyInfo) error
	Invalidate(ctx context.Context) error
}

// MemorySettingsCache is a process-local cache for single-instance deployments.
type MemorySettingsCache struct {
	cache *lru.LRU[string, model.CompanyInfo]
}

// NewMemorySettingsCache creates an in-memory cache whose entries expire after ttl.
func NewMemorySettingsCache(size int, ttl time.Duration) *MemorySettingsCache {
	if size < 1 {
		size = 1
	}
	return &MemorySettingsCache{cache: lru.NewLRU[string, model.CompanyInfo](size, nil, ttl)}
}

func (c *MemorySettingsCache) Get(_ context.Context) (*model.CompanyInfo, error) {
	info, ok := c.cache.Get(settingsKey)
	if !ok {
		return nil, ErrCacheMiss
	}
	info.Products = slices.Clone(info.Products)
	return &info, nil
}

func (c *MemorySettingsCache) Set(_ context.Context, info *model.CompanyInfo) error {
	if info == nil {
		return fmt.Errorf("cache company settings: nil value")
	}
	stored := *info
	stored.Products = slices.Clone(info.Products)
	c.cache.Add(settingsKey, stored)
	return nil
}

func (c *MemorySettingsCache) Invalidate(_ context.Context) error {
	c.cache.Remove(settingsKey)
	return nil
}

// RedisSettingsCache shares the settings between API replicas and workers.
type RedisSettingsCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisSettingsCache wraps a connected client.
func NewRedisSettingsCache(client redis.UniversalClient, ttl time.Duration) *RedisSettingsCache {
	return &RedisSettingsCache{client: client, ttl: ttl}
}

func (c *RedisSettingsCache) Get(ctx context.Context) (*model.CompanyInfo, error) {
	raw, err := c.client.Get(ctx, settingsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read cached company settings: %w", err)
	}
	var info model.CompanyInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("decode cached company settings: %w", err)
	}
	return &info, nil
}

func (c *RedisSettingsCache) Set(ctx context.Context, info *model.CompanyInfo) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode company settings: %w", err)
	}
	if err := c.client.Set(ctx, settingsKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache company settings: %w", err)
	}
	return nil
}

func (c *RedisSettingsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, settingsKey).Err(); err != nil {
		return fmt.Errorf("invalidate company settings: %w", err)
	}
	return nil
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
