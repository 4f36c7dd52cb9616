package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"neuralflux/internal/cache"
	"neuralflux/internal/config"
	"neuralflux/internal/game"
	"neuralflux/internal/metrics"
	"neuralflux/internal/model"
)

var ErrSessionNotFound = errors.New("session not found")

const (
	snapshotBuffer    = 64
	snapshotTimeout   = 2 * time.Second
	recordGameTimeout = 10 * time.Second
)

// GameRecorder is the statistics sink for finished sessions
type GameRecorder interface {
	RecordGame(ctx context.Context, rec model.GameRecord) ([]string, error)
}

type liveSession struct {
	id      string
	manager *game.Manager
	updates chan model.SessionState
	done    chan struct{}

	// last client interaction, unix nanos
	lastSeen atomic.Int64
}

func (ls *liveSession) touch() {
	ls.lastSeen.Store(time.Now().UnixNano())
}

// publish queues a snapshot without blocking the state machine. When the
// queue is full the oldest snapshot is dropped; subscribers only need the
// latest one.
func (ls *liveSession) publish(st model.SessionState) {
	select {
	case ls.updates <- st:
		return
	default:
	}
	select {
	case <-ls.updates:
	default:
	}
	select {
	case ls.updates <- st:
	default:
	}
}

// SessionService owns every live game session of the process
type SessionService struct {
	pipeline    game.Pipeline
	cfg         config.GameConfig
	recorder    GameRecorder
	snapshots   cache.SessionCache
	broadcaster Broadcaster
	clock       game.Clock
	logger      *zap.Logger
	metrics     *metrics.Metrics

	mu       sync.RWMutex
	sessions map[string]*liveSession
	wg       sync.WaitGroup
}

// NewSessionService creates a new session registry. recorder and
// snapshots may be nil.
func NewSessionService(pipeline game.Pipeline, cfg config.GameConfig, recorder GameRecorder, snapshots cache.SessionCache, logger *zap.Logger, m *metrics.Metrics) *SessionService {
	return &SessionService{
		pipeline:  pipeline,
		cfg:       cfg,
		recorder:  recorder,
		snapshots: snapshots,
		clock:     game.RealClock(),
		logger:    logger.Named("sessions"),
		metrics:   m,
		sessions:  make(map[string]*liveSession),
	}
}

// SetBroadcaster sets the WebSocket broadcaster
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Start creates and starts a new session for playerID. An empty player id
// plays as a guest.
func (s *SessionService) Start(playerID string) (model.SessionState, error) {
	id := uuid.NewString()
	if playerID == "" {
		playerID = "guest-" + id[:8]
	}

	ls := &liveSession{
		id:      id,
		updates: make(chan model.SessionState, snapshotBuffer),
		done:    make(chan struct{}),
	}
	ls.touch()
	ls.manager = game.NewManager(s.pipeline, game.Options{
		SessionID: id,
		PlayerID:  playerID,
		Config:    s.cfg,
		Clock:     s.clock,
		Observer:  ls.publish,
		Recorder: func(rec model.GameRecord) {
			s.wg.Add(1)
			go s.recordGame(id, rec)
		},
		Logger: s.logger,
	})

	s.mu.Lock()
	s.sessions[id] = ls
	s.mu.Unlock()
	s.metrics.ActiveSessions.Inc()

	s.wg.Add(1)
	go s.pump(ls)

	ls.manager.Start()
	s.logger.Info("session started", zap.String("session", id), zap.String("player", playerID))
	return ls.manager.State(), nil
}

// Restart resets a live session back to its opening state
func (s *SessionService) Restart(id string) (model.SessionState, error) {
	ls, err := s.live(id)
	if err != nil {
		return model.SessionState{}, err
	}
	ls.manager.Start()
	return ls.manager.State(), nil
}

// State returns the live snapshot, or the last cached one for sessions
// that are no longer in memory.
func (s *SessionService) State(ctx context.Context, id string) (model.SessionState, error) {
	if ls, err := s.live(id); err == nil {
		return ls.manager.State(), nil
	}
	if s.snapshots != nil {
		st, err := s.snapshots.Get(ctx, id)
		if err != nil {
			return model.SessionState{}, err
		}
		if st != nil {
			return *st, nil
		}
	}
	return model.SessionState{}, ErrSessionNotFound
}

func (s *SessionService) Submit(id, requestID, answer string) error {
	return s.do(id, func(m *game.Manager) error { return m.Submit(requestID, answer) })
}

func (s *SessionService) Skip(id, requestID string) error {
	return s.do(id, func(m *game.Manager) error { return m.Skip(requestID) })
}

func (s *SessionService) ShowNextCard(id string) error {
	return s.do(id, (*game.Manager).ShowNextCard)
}

func (s *SessionService) Pause(id string) error {
	return s.do(id, (*game.Manager).Pause)
}

func (s *SessionService) Resume(id string) error {
	return s.do(id, (*game.Manager).Resume)
}

// End stops a session and removes it from memory. Its final snapshot
// stays readable through the cache.
func (s *SessionService) End(id string) error {
	s.mu.Lock()
	ls, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	ls.manager.Stop()
	ls.publish(ls.manager.State())
	close(ls.done)
	s.metrics.ActiveSessions.Dec()
	s.logger.Info("session ended", zap.String("session", id))
	return nil
}

// Count returns the number of live sessions
func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Reap ends sessions no client has touched for longer than idle
func (s *SessionService) Reap(idle time.Duration) int {
	cutoff := time.Now().Add(-idle).UnixNano()

	s.mu.RLock()
	var stale []string
	for id, ls := range s.sessions {
		if ls.lastSeen.Load() < cutoff {
			stale = append(stale, id)
		}
	}
	s.mu.RUnlock()

	for _, id := range stale {
		_ = s.End(id)
	}
	return len(stale)
}

// RunReaper calls Reap every interval until ctx is done
func (s *SessionService) RunReaper(ctx context.Context, interval, idle time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Reap(idle); n > 0 {
				s.logger.Info("reaped idle sessions", zap.Int("count", n))
			}
		}
	}
}

// Shutdown ends every session and waits for in-flight work to settle
func (s *SessionService) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	managers := make([]*game.Manager, 0, len(s.sessions))
	for id, ls := range s.sessions {
		ids = append(ids, id)
		managers = append(managers, ls.manager)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		_ = s.End(id)
	}

	done := make(chan struct{})
	go func() {
		for _, m := range managers {
			m.Wait()
		}
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SessionService) live(id string) (*liveSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ls, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	ls.touch()
	return ls, nil
}

func (s *SessionService) do(id string, intent func(*game.Manager) error) error {
	ls, err := s.live(id)
	if err != nil {
		return err
	}
	return intent(ls.manager)
}

// pump delivers snapshots of one session until it ends
func (s *SessionService) pump(ls *liveSession) {
	defer s.wg.Done()
	for {
		select {
		case st := <-ls.updates:
			s.deliver(st)
		case <-ls.done:
			for {
				select {
				case st := <-ls.updates:
					s.deliver(st)
				default:
					if s.broadcaster != nil {
						s.broadcaster.DisconnectSession(ls.id)
					}
					return
				}
			}
		}
	}
}

func (s *SessionService) deliver(st model.SessionState) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(st.SessionID, MsgState, st)
	}
	if s.snapshots == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()
	if err := s.snapshots.Set(ctx, &st); err != nil {
		s.logger.Debug("failed to cache snapshot", zap.String("session", st.SessionID), zap.Error(err))
	}
}

func (s *SessionService) recordGame(id string, rec model.GameRecord) {
	defer s.wg.Done()
	if s.recorder == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordGameTimeout)
	defer cancel()
	unlocked, err := s.recorder.RecordGame(ctx, rec)
	if err != nil {
		s.logger.Error("failed to record game", zap.String("session", id), zap.Error(err))
		return
	}
	if len(unlocked) > 0 && s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(id, MsgAchievements, achievementDetails(unlocked))
	}
}

func achievementDetails(ids []string) []model.Achievement {
	var out []model.Achievement
	for _, id := range ids {
		for _, rule := range achievementRules {
			if rule.ID == id {
				a := rule.Achievement
				a.Unlocked = true
				out = append(out, a)
			}
		}
	}
	return out
}
