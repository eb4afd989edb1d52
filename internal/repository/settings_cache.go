package repository

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	settingsCachePrefix = "app_settings:"
	missingMarker       = "\x00"
)

// CachedSettings is a read-through Redis cache in front of SettingsRepository.
// Absent keys are cached too, so unset settings do not hit the database every call.
type CachedSettings struct {
	repo   *SettingsRepository
	client *redis.Client
	ttl    time.Duration
}

func NewCachedSettings(repo *SettingsRepository, client *redis.Client, ttl time.Duration) *CachedSettings {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedSettings{repo: repo, client: client, ttl: ttl}
}

func (c *CachedSettings) Get(ctx context.Context, key string) (string, bool, error) {
	cached, err := c.client.Get(ctx, settingsCachePrefix+key).Result()
	if err == nil {
		if cached == missingMarker {
			return "", false, nil
		}
		return cached, true, nil
	}

	value, ok, err := c.repo.Get(ctx, key)
	if err != nil {
		return "", false, err
	}

	store := value
	if !ok {
		store = missingMarker
	}
	// a cache write failure only costs a later miss
	_ = c.client.Set(ctx, settingsCachePrefix+key, store, c.ttl).Err()
	return value, ok, nil
}

func (c *CachedSettings) GetInt(ctx context.Context, key string) (int, bool, error) {
	value, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return 0, false, err
	}
	return ParseInt(value)
}

// Set writes through to the database and drops the cached value.
func (c *CachedSettings) Set(ctx context.Context, key, value string) error {
	if err := c.repo.Set(ctx, key, value); err != nil {
		return err
	}
	return c.client.Del(ctx, settingsCachePrefix+key).Err()
}
