package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"neuralflux/internal/model"
)

// PlayerCache is a read-through cache in front of the lifetime stats
type PlayerCache interface {
	SetStats(ctx context.Context, stats *model.PlayerStats) error
	GetStats(ctx context.Context, playerID string) (*model.PlayerStats, error)
	Invalidate(ctx context.Context, playerID string) error
}

type playerCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPlayerCache creates a new player cache
func NewPlayerCache(client *redis.Client) PlayerCache {
	return &playerCache{
		client: client,
		ttl:    time.Hour,
	}
}

func (c *playerCache) statsKey(playerID string) string {
	return fmt.Sprintf("player:%s:stats", playerID)
}

func (c *playerCache) SetStats(ctx context.Context, stats *model.PlayerStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.statsKey(stats.PlayerID), data, c.ttl).Err()
}

// GetStats returns nil, nil on a miss
func (c *playerCache) GetStats(ctx context.Context, playerID string) (*model.PlayerStats, error) {
	data, err := c.client.Get(ctx, c.statsKey(playerID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stats model.PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *playerCache) Invalidate(ctx context.Context, playerID string) error {
	return c.client.Del(ctx, c.statsKey(playerID)).Err()
}
