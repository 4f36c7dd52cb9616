package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"neuralflux/internal/cache"
	"neuralflux/internal/model"
)

type memRecords struct {
	mu      sync.Mutex
	records []model.GameRecord
	err     error
}

func (r *memRecords) Insert(ctx context.Context, rec *model.GameRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, *rec)
	return nil
}

func (r *memRecords) ListByPlayer(ctx context.Context, playerID string, limit int) ([]*model.GameRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.GameRecord
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		if r.records[i].PlayerID == playerID {
			rec := r.records[i]
			out = append(out, &rec)
		}
	}
	return out, nil
}

func (r *memRecords) EnsureIndexes(ctx context.Context) error { return nil }

type memPlayers struct {
	mu    sync.Mutex
	stats map[string]model.PlayerStats
}

func newMemPlayers() *memPlayers {
	return &memPlayers{stats: make(map[string]model.PlayerStats)}
}

func (p *memPlayers) Get(ctx context.Context, playerID string) (*model.PlayerStats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.stats[playerID]
	if !ok {
		return nil, nil
	}
	s.Achievements = append([]string(nil), s.Achievements...)
	return &s, nil
}

func (p *memPlayers) Upsert(ctx context.Context, stats *model.PlayerStats) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats[stats.PlayerID] = *stats
	return nil
}

type memPlayerCache struct {
	mu          sync.Mutex
	stats       map[string]model.PlayerStats
	invalidated []string
	err         error
}

func newMemPlayerCache() *memPlayerCache {
	return &memPlayerCache{stats: make(map[string]model.PlayerStats)}
}

func (c *memPlayerCache) SetStats(ctx context.Context, stats *model.PlayerStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats[stats.PlayerID] = *stats
	return nil
}

func (c *memPlayerCache) GetStats(ctx context.Context, playerID string) (*model.PlayerStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	s, ok := c.stats[playerID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (c *memPlayerCache) Invalidate(ctx context.Context, playerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.stats, playerID)
	c.invalidated = append(c.invalidated, playerID)
	return nil
}

type memLeaderboard struct {
	mu     sync.Mutex
	scores map[string]int
	err    error
}

func newMemLeaderboard() *memLeaderboard {
	return &memLeaderboard{scores: make(map[string]int)}
}

func (l *memLeaderboard) SubmitScore(ctx context.Context, playerID string, score int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	if cur, ok := l.scores[playerID]; !ok || score > cur {
		l.scores[playerID] = score
	}
	return nil
}

func (l *memLeaderboard) GetTop(ctx context.Context, limit int) ([]cache.LeaderboardEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var entries []cache.LeaderboardEntry
	for id, score := range l.scores {
		entries = append(entries, cache.LeaderboardEntry{PlayerID: id, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func (l *memLeaderboard) GetRank(ctx context.Context, playerID string) (int64, error) {
	top, _ := l.GetTop(ctx, 1<<20)
	for _, e := range top {
		if e.PlayerID == playerID {
			return int64(e.Rank), nil
		}
	}
	return -1, nil
}

type memPublisher struct {
	mu     sync.Mutex
	events []model.GameFinishedEvent
	err    error
}

func (p *memPublisher) PublishGameFinished(ctx context.Context, event *model.GameFinishedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, *event)
	return nil
}

func (p *memPublisher) Close() error { return nil }

type memSnapshots struct {
	mu     sync.Mutex
	states map[string]model.SessionState
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{states: make(map[string]model.SessionState)}
}

func (c *memSnapshots) Set(ctx context.Context, state *model.SessionState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[state.SessionID] = *state
	return nil
}

func (c *memSnapshots) Get(ctx context.Context, id string) (*model.SessionState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.states[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (c *memSnapshots) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, id)
	return nil
}

type broadcast struct {
	sessionID string
	msgType   string
	payload   interface{}
}

type memBroadcaster struct {
	mu           sync.Mutex
	messages     []broadcast
	disconnected []string
}

func (b *memBroadcaster) BroadcastToSession(sessionID string, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, broadcast{sessionID, msgType, payload})
}

func (b *memBroadcaster) DisconnectSession(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disconnected = append(b.disconnected, sessionID)
}

func (b *memBroadcaster) ofType(msgType string) []broadcast {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []broadcast
	for _, m := range b.messages {
		if m.msgType == msgType {
			out = append(out, m)
		}
	}
	return out
}

var errStore = errors.New("store unavailable")
