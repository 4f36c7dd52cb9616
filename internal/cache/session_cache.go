package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"neuralflux/internal/model"
)

// SessionCache keeps the latest snapshot of each session so state
// reads survive the in-memory session being torn down.
type SessionCache interface {
	Set(ctx context.Context, state *model.SessionState) error
	Get(ctx context.Context, id string) (*model.SessionState, error)
	Delete(ctx context.Context, id string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionCache(client *redis.Client) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    10 * time.Minute,
	}
}

func (c *sessionCache) key(id string) string {
	return "session:" + id
}

func (c *sessionCache) Set(ctx context.Context, state *model.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(state.SessionID), data, c.ttl).Err()
}

// Get returns nil, nil when the session is unknown or has expired
func (c *sessionCache) Get(ctx context.Context, id string) (*model.SessionState, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state model.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *sessionCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}
