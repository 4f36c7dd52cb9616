package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const leaderboardKey = "leaderboard:best"

// LeaderboardCache handles the global best-score ZSET
type LeaderboardCache interface {
	SubmitScore(ctx context.Context, playerID string, score int) error
	GetTop(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	GetRank(ctx context.Context, playerID string) (int64, error)
}

// LeaderboardEntry represents a single leaderboard entry
type LeaderboardEntry struct {
	PlayerID string `json:"playerId"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

type leaderboardCache struct {
	client *redis.Client
}

// NewLeaderboardCache creates a new leaderboard cache
func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{
		client: client,
	}
}

// SubmitScore records score only if it beats the player's best
func (c *leaderboardCache) SubmitScore(ctx context.Context, playerID string, score int) error {
	return c.client.ZAddGT(ctx, leaderboardKey, redis.Z{
		Score:  float64(score),
		Member: playerID,
	}).Err()
}

func (c *leaderboardCache) GetTop(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(results))
	for i, z := range results {
		entries[i] = LeaderboardEntry{
			PlayerID: z.Member.(string),
			Score:    int(z.Score),
			Rank:     i + 1,
		}
	}
	return entries, nil
}

// GetRank returns the 1-indexed rank, or -1 for players without a score
func (c *leaderboardCache) GetRank(ctx context.Context, playerID string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, leaderboardKey, playerID).Result()
	if err == redis.Nil {
		return -1, nil
	}
	return rank + 1, err
}
