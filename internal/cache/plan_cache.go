package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andresuchdata/redistribution-planner/internal/config"
	"github.com/andresuchdata/redistribution-planner/internal/domain"
	"github.com/redis/go-redis/v9"
)

const latestPlanKey = "redistribution:plan:latest"

// PlanCache stores the most recent successful plan so repeated dashboard
// reads don't trigger a fresh planning run.
type PlanCache interface {
	GetLatest(ctx context.Context) (*domain.PlanResult, bool, error)
	SetLatest(ctx context.Context, result *domain.PlanResult) error
	Invalidate(ctx context.Context) error
}

type redisPlanCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopPlanCache struct{}

func NewPlanCache(cfg config.CacheConfig) (PlanCache, error) {
	if !cfg.Enabled {
		return &noopPlanCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisPlanCache{client: client, ttl: ttl}, nil
}

func NewNoopPlanCache() PlanCache {
	return &noopPlanCache{}
}

func (c *redisPlanCache) GetLatest(ctx context.Context) (*domain.PlanResult, bool, error) {
	payload, err := c.client.Get(ctx, latestPlanKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var result domain.PlanResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, fmt.Errorf("decode plan cache: %w", err)
	}

	return &result, true, nil
}

func (c *redisPlanCache) SetLatest(ctx context.Context, result *domain.PlanResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode plan cache: %w", err)
	}

	if err := c.client.Set(ctx, latestPlanKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisPlanCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, latestPlanKey).Err()
}

func (n *noopPlanCache) GetLatest(ctx context.Context) (*domain.PlanResult, bool, error) {
	return nil, false, nil
}

func (n *noopPlanCache) SetLatest(ctx context.Context, result *domain.PlanResult) error {
	return nil
}

func (n *noopPlanCache) Invalidate(ctx context.Context) error {
	return nil
}
