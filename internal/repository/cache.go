package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisdb "leaderboard-service/internal/database/redis"

	redis_v9 "github.com/redis/go-redis/v9"
)

// CacheRepository keeps hot leaderboard reads (top-3 per region) out of Mongo.
// Entries are invalidated whenever a snapshot is recomputed or its
// publication state changes.
type CacheRepository struct {
	client *redis_v9.Client
}

func NewCacheRepository() *CacheRepository {
	return &CacheRepository{
		client: redisdb.Redis_Client,
	}
}

func top3Key(regionID string) string {
	return "leaderboard:top3:" + regionID
}

func (r *CacheRepository) SaveTop3(ctx context.Context, regionID string, model any, ttl time.Duration) error {
	val, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("error saving top3 to cache: %w", err)
	}
	if err := r.client.Set(ctx, top3Key(regionID), val, ttl).Err(); err != nil {
		return fmt.Errorf("error saving top3 to cache: %w", err)
	}
	return nil
}

func (r *CacheRepository) GetTop3(ctx context.Context, regionID string, model any) error {
	raw, err := r.client.Get(ctx, top3Key(regionID)).Bytes()
	if err != nil {
		return fmt.Errorf("error get top3 from cache: %w", err)
	}
	return json.Unmarshal(raw, model)
}

func (r *CacheRepository) InvalidateTop3(ctx context.Context, regionID string) error {
	return r.client.Del(ctx, top3Key(regionID)).Err()
}
