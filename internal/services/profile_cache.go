package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/anonto42/preschool-social/backend/internal/models"
	"github.com/anonto42/preschool-social/backend/pkg/logger"
)

// ProfileCache holds hydrated profile snapshots. A cache failure is never an error for the caller.
type ProfileCache interface {
	Get(ctx context.Context, id string) (*models.Profile, bool)
	Set(ctx context.Context, profile *models.Profile)
	Invalidate(ctx context.Context, ids ...string)
}

// RedisProfileCache implements ProfileCache as JSON blobs with a TTL.
type RedisProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProfileCache returns a redis backed cache, or a no-op cache when client is nil.
func NewProfileCache(client *redis.Client, ttl time.Duration) ProfileCache {
	if client == nil {
		return noopProfileCache{}
	}
	return &RedisProfileCache{client: client, ttl: ttl}
}

func profileKey(id string) string { return "profile:" + id }

func (c *RedisProfileCache) Get(ctx context.Context, id string) (*models.Profile, bool) {
	data, err := c.client.Get(ctx, profileKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("profile cache get", zap.String("id", id), zap.Error(err))
		}
		return nil, false
	}
	var profile models.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, false
	}
	return &profile, true
}

func (c *RedisProfileCache) Set(ctx context.Context, profile *models.Profile) {
	payload, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, profileKey(profile.ID), payload, c.ttl).Err(); err != nil {
		logger.Warn("profile cache set", zap.String("id", profile.ID), zap.Error(err))
	}
}

func (c *RedisProfileCache) Invalidate(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = profileKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn("profile cache invalidate", zap.Strings("ids", ids), zap.Error(err))
	}
}

type noopProfileCache struct{}

func (noopProfileCache) Get(context.Context, string) (*models.Profile, bool) { return nil, false }
func (noopProfileCache) Set(context.Context, *models.Profile)               {}
func (noopProfileCache) Invalidate(context.Context, ...string)              {}
