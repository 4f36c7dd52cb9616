// Package game runs one arcade session: requests spawn one at a time,
// count down on a fixed tick, and are answered, skipped or expired.
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"neuralflux/internal/config"
	"neuralflux/internal/model"
)

var (
	ErrNotRunning       = errors.New("session is not running")
	ErrNoSuchRequest    = errors.New("no matching active request")
	ErrRequestExpired   = errors.New("request has expired")
	ErrShowingResult    = errors.New("a result is being shown")
	ErrNotShowingResult = errors.New("no result is being shown")
	ErrResultPending    = errors.New("result is still being scored")
	ErrEmptyAnswer      = errors.New("answer is empty")
)

// Pipeline is the oracle-facing work a session needs
type Pipeline interface {
	GenerateQuestion(ctx context.Context, category model.Category, difficulty int) (string, error)
	Evaluate(ctx context.Context, userAnswer, question string, difficulty int) model.ScoreReport
}

// Observer receives a snapshot after every transition. It is called with
// the session lock held and must not call back into the Manager.
type Observer func(model.SessionState)

// Recorder receives the final record once a session reaches game over.
// It is called with the session lock held.
type Recorder func(model.GameRecord)

// Options configures a Manager. Zero values fall back to defaults.
type Options struct {
	SessionID string
	PlayerID  string
	Config    config.GameConfig
	Clock     Clock
	Rand      *rand.Rand
	Observer  Observer
	Recorder  Recorder
	Logger    *zap.Logger
}

type activeRequest struct {
	req       model.Request
	remaining time.Duration
}

// Manager owns one session's state. Every transition runs under mu;
// oracle calls run on their own goroutines without the lock and re-enter
// through it. Work started before a Start or Stop carries an older epoch
// and is discarded.
type Manager struct {
	pipeline Pipeline
	cfg      config.GameConfig
	clock    Clock
	rand     *rand.Rand
	observer Observer
	recorder Recorder
	logger   *zap.Logger
	playerID string

	mu       sync.Mutex
	state    model.SessionState
	active   *activeRequest
	ticks    int64
	epoch    uint64
	spawning bool
	nextID   int
	timerSeq uint64
	timers   map[uint64]Timer
	ctx      context.Context
	cancel   context.CancelFunc

	wg sync.WaitGroup
}

// NewManager creates an idle session
func NewManager(pipeline Pipeline, opts Options) *Manager {
	if opts.Config.TickPeriod <= 0 {
		opts.Config = config.DefaultGameConfig()
	}
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	m := &Manager{
		pipeline: pipeline,
		cfg:      opts.Config,
		clock:    opts.Clock,
		rand:     opts.Rand,
		observer: opts.Observer,
		recorder: opts.Recorder,
		logger:   opts.Logger.With(zap.String("session", opts.SessionID)),
		playerID: opts.PlayerID,
		timers:   make(map[uint64]Timer),
	}
	m.state = model.SessionState{
		SessionID:       opts.SessionID,
		Phase:           model.PhaseIdle,
		DifficultyLevel: 1,
		Lives:           m.cfg.StartingLives,
	}
	return m
}

// Start resets the session and begins play. Starting a running session
// restarts it; anything in flight from the previous run is discarded.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.haltLocked()
	m.ctx, m.cancel = context.WithCancel(context.Background())

	m.state = model.SessionState{
		SessionID:       m.state.SessionID,
		Phase:           model.PhaseRunning,
		DifficultyLevel: 1,
		Lives:           m.cfg.StartingLives,
	}
	m.active = nil
	m.ticks = 0
	m.nextID = 0

	m.spawnLocked()
	m.after(m.cfg.TickPeriod, m.tickLocked)
	m.notifyLocked()
}

// Stop cancels the tick and every pending timer. Results of oracle calls
// still in flight are dropped when they arrive.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.haltLocked()
	if !m.state.IsGameOver {
		m.state.Phase = model.PhaseIdle
	}
	m.state.IsPaused = false
}

// Wait blocks until every oracle call started by this session returns
func (m *Manager) Wait() {
	m.wg.Wait()
}

// State returns a snapshot of the session
func (m *Manager) State() model.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Submit answers the active request. The request is removed at once and
// the session shows a pending result until the score arrives.
func (m *Manager) Submit(requestID, answer string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkActionableLocked(requestID); err != nil {
		return err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return ErrEmptyAnswer
	}

	req := m.active.req
	m.active = nil
	m.state.IsShowingResult = true
	m.state.CurrentReport = nil
	m.notifyLocked()

	epoch, ctx := m.epoch, m.ctx
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		report := m.evaluate(ctx, answer, req)

		m.mu.Lock()
		defer m.mu.Unlock()
		if epoch != m.epoch {
			return
		}
		m.applyReportLocked(report)
		m.notifyLocked()
	}()
	return nil
}

// ShowNextCard dismisses the shown result and spawns the next request
func (m *Manager) ShowNextCard() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.runningLocked() {
		return ErrNotRunning
	}
	if !m.state.IsShowingResult {
		return ErrNotShowingResult
	}
	if m.state.CurrentReport == nil {
		return ErrResultPending
	}
	m.state.IsShowingResult = false
	m.state.CurrentReport = nil
	m.spawnLocked()
	m.notifyLocked()
	return nil
}

// Skip drops the active request for a small score penalty
func (m *Manager) Skip(requestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkActionableLocked(requestID); err != nil {
		return err
	}
	m.active = nil
	m.state.Score = max(0, m.state.Score-m.cfg.SkipPenalty)
	m.after(m.cfg.SkipSpawnDelay, m.spawnLocked)
	m.notifyLocked()
	return nil
}

// Pause freezes the session clock and the active request's countdown
func (m *Manager) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Phase != model.PhaseRunning {
		return ErrNotRunning
	}
	m.state.IsPaused = true
	m.state.Phase = model.PhasePaused
	m.notifyLocked()
	return nil
}

// Resume continues a paused session
func (m *Manager) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Phase != model.PhasePaused {
		return ErrNotRunning
	}
	m.state.IsPaused = false
	m.state.Phase = model.PhaseRunning
	m.notifyLocked()
	return nil
}

func (m *Manager) tickLocked() {
	if m.state.IsGameOver {
		return
	}
	m.after(m.cfg.TickPeriod, m.tickLocked)
	if m.state.IsPaused {
		return
	}

	m.ticks++
	elapsed := time.Duration(m.ticks) * m.cfg.TickPeriod
	m.state.DifficultyLevel = int(elapsed/m.levelDuration()) + 1

	if a := m.active; a != nil {
		before := a.remaining
		a.remaining = max(0, a.remaining-m.cfg.TickPeriod)
		if a.remaining <= 0 && before > 0 && !a.req.Expired {
			m.expireLocked()
		}
	}
	m.notifyLocked()
}

func (m *Manager) expireLocked() {
	m.active.req.Expired = true
	id := m.active.req.ID
	m.after(m.cfg.ExpireGrace, func() {
		if m.active == nil || m.active.req.ID != id {
			return
		}
		m.state.Lives--
		m.state.Streak = 0
		m.active = nil
		if m.state.Lives <= 0 {
			m.state.Lives = 0
			m.gameOverLocked()
		} else {
			m.after(m.cfg.ExpireSpawnDelay, m.spawnLocked)
		}
		m.notifyLocked()
	})
}

// spawnLocked starts generating the next request. It is a no-op unless the
// session is live with no request, no shown result and no generation in
// flight.
func (m *Manager) spawnLocked() {
	if !m.runningLocked() || m.state.IsShowingResult || m.active != nil || m.spawning {
		return
	}
	m.spawning = true

	category := model.Categories[m.rand.IntN(len(model.Categories))]
	difficulty := model.Clamp(m.state.DifficultyLevel/2+1, model.MinDifficulty, model.MaxDifficulty)
	id := fmt.Sprintf("req-%d", m.nextID)
	m.nextID++
	userName := randomUserName(m.rand)

	epoch, ctx := m.epoch, m.ctx
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		text, err := m.generate(ctx, category, difficulty)

		m.mu.Lock()
		defer m.mu.Unlock()
		if epoch != m.epoch {
			return
		}
		m.spawning = false
		if err != nil {
			m.logger.Warn("request generation failed, retrying", zap.Error(err))
			m.after(m.cfg.SpawnRetryDelay, m.spawnLocked)
			return
		}
		if !m.runningLocked() || m.state.IsShowingResult || m.active != nil {
			return
		}

		limit := time.Duration(m.cfg.TimeLimitSec(m.state.DifficultyLevel)) * time.Second
		m.active = &activeRequest{
			req: model.Request{
				ID:           id,
				Category:     category,
				Difficulty:   difficulty,
				Text:         text,
				TimeLimitSec: limit.Seconds(),
				UserName:     userName,
				RequestedAt:  m.clock.Now(),
			},
			remaining: limit,
		}
		m.state.QuestionsShown++
		m.notifyLocked()
	}()
}

func (m *Manager) generate(ctx context.Context, category model.Category, difficulty int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("request generation panicked: %v", r)
		}
	}()
	return m.pipeline.GenerateQuestion(ctx, category, difficulty)
}

func (m *Manager) evaluate(ctx context.Context, answer string, req model.Request) (report model.ScoreReport) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("evaluation panicked, using neutral score", zap.Any("panic", r))
			report = model.NeutralReport(answer)
		}
	}()
	report = m.pipeline.Evaluate(ctx, answer, req.Text, req.Difficulty)
	report.Normalize()
	return report
}

func (m *Manager) applyReportLocked(report model.ScoreReport) {
	m.state.Score += report.TotalScore
	m.state.CurrentReport = &report
	m.state.QuestionsAnswered++
	if report.IsCorrect() {
		m.state.CorrectAnswers++
		m.state.Streak++
		m.state.LongestStreak = max(m.state.LongestStreak, m.state.Streak)
	} else {
		m.state.Streak = 0
	}
	if report.IsPerfect() {
		m.state.PerfectAnswers++
	}
}

func (m *Manager) gameOverLocked() {
	m.state.IsGameOver = true
	m.state.IsPaused = false
	m.state.Phase = model.PhaseGameOver
	m.stopTimersLocked()

	if m.recorder != nil {
		m.recorder(m.recordLocked())
	}
}

func (m *Manager) recordLocked() model.GameRecord {
	return model.GameRecord{
		SessionID:         m.state.SessionID,
		PlayerID:          m.playerID,
		FinalScore:        m.state.Score,
		ElapsedSec:        m.elapsedSec(),
		DifficultyReached: m.state.DifficultyLevel,
		QuestionsShown:    m.state.QuestionsShown,
		QuestionsAnswered: m.state.QuestionsAnswered,
		CorrectAnswers:    m.state.CorrectAnswers,
		PerfectAnswers:    m.state.PerfectAnswers,
		LongestStreak:     m.state.LongestStreak,
		FinishedAt:        m.clock.Now(),
	}
}

func (m *Manager) checkActionableLocked(requestID string) error {
	switch {
	case !m.runningLocked():
		return ErrNotRunning
	case m.state.IsShowingResult:
		return ErrShowingResult
	case m.active == nil || m.active.req.ID != requestID:
		return ErrNoSuchRequest
	case m.active.req.Expired:
		return ErrRequestExpired
	}
	return nil
}

func (m *Manager) runningLocked() bool {
	return m.state.Phase == model.PhaseRunning || m.state.Phase == model.PhasePaused
}

// after schedules fn to run under the lock, unless the epoch moved on
func (m *Manager) after(d time.Duration, fn func()) {
	epoch := m.epoch
	m.timerSeq++
	id := m.timerSeq
	m.timers[id] = m.clock.AfterFunc(d, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.timers, id)
		if epoch != m.epoch {
			return
		}
		fn()
	})
}

// haltLocked invalidates all outstanding work of the current run
func (m *Manager) haltLocked() {
	m.epoch++
	m.spawning = false
	m.stopTimersLocked()
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *Manager) stopTimersLocked() {
	for id, t := range m.timers {
		t.Stop()
		delete(m.timers, id)
	}
}

func (m *Manager) levelDuration() time.Duration {
	return time.Duration(m.cfg.SecondsPerLevel * float64(time.Second))
}

func (m *Manager) elapsedSec() float64 {
	return (time.Duration(m.ticks) * m.cfg.TickPeriod).Seconds()
}

func (m *Manager) snapshotLocked() model.SessionState {
	s := m.state
	s.ElapsedSec = m.elapsedSec()
	if m.active != nil {
		req := m.active.req
		req.TimeRemainingSec = m.active.remaining.Seconds()
		s.ActiveRequest = &req
	}
	if m.state.CurrentReport != nil {
		report := *m.state.CurrentReport
		s.CurrentReport = &report
	}
	return s
}

func (m *Manager) notifyLocked() {
	if m.observer != nil {
		m.observer(m.snapshotLocked())
	}
}
