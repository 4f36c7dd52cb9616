package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"neuralflux/internal/cache"
	"neuralflux/internal/messaging"
	"neuralflux/internal/metrics"
	"neuralflux/internal/model"
	"neuralflux/internal/repository"
)

var ErrPlayerNotFound = errors.New("player has no recorded games")

const maxLeaderboardSize = 100

// StatsService records finished games and serves lifetime statistics
type StatsService struct {
	records     repository.GameRecordRepo
	players     repository.PlayerStatsRepo
	playerCache cache.PlayerCache
	leaderboard cache.LeaderboardCache
	publisher   messaging.Publisher
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// NewStatsService creates a new statistics service
func NewStatsService(
	records repository.GameRecordRepo,
	players repository.PlayerStatsRepo,
	playerCache cache.PlayerCache,
	leaderboard cache.LeaderboardCache,
	publisher messaging.Publisher,
	logger *zap.Logger,
	m *metrics.Metrics,
) *StatsService {
	return &StatsService{
		records:     records,
		players:     players,
		playerCache: playerCache,
		leaderboard: leaderboard,
		publisher:   publisher,
		logger:      logger.Named("stats"),
		metrics:     m,
	}
}

// RecordGame stores a finished session, folds it into the player's
// lifetime stats and returns the ids of newly unlocked achievements.
// The record and stats writes are required; the leaderboard, cache and
// event are best effort.
func (s *StatsService) RecordGame(ctx context.Context, rec model.GameRecord) ([]string, error) {
	if err := s.records.Insert(ctx, &rec); err != nil {
		return nil, fmt.Errorf("insert game record: %w", err)
	}

	stats, err := s.players.Get(ctx, rec.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("load player stats: %w", err)
	}
	if stats == nil {
		stats = &model.PlayerStats{PlayerID: rec.PlayerID}
	}
	stats.Apply(&rec)
	unlocked := unlockAchievements(stats)

	if err := s.players.Upsert(ctx, stats); err != nil {
		return nil, fmt.Errorf("save player stats: %w", err)
	}
	s.metrics.GamesFinished.Inc()

	if err := s.playerCache.Invalidate(ctx, rec.PlayerID); err != nil {
		s.logger.Warn("failed to invalidate stats cache", zap.String("player", rec.PlayerID), zap.Error(err))
	}
	if err := s.leaderboard.SubmitScore(ctx, rec.PlayerID, rec.FinalScore); err != nil {
		s.logger.Warn("failed to update leaderboard", zap.String("player", rec.PlayerID), zap.Error(err))
	}
	event := &model.GameFinishedEvent{Record: rec, NewAchievements: unlocked}
	if err := s.publisher.PublishGameFinished(ctx, event); err != nil {
		s.logger.Warn("failed to publish game finished event", zap.String("session", rec.SessionID), zap.Error(err))
	}

	s.logger.Info("game recorded",
		zap.String("session", rec.SessionID),
		zap.String("player", rec.PlayerID),
		zap.Int("score", rec.FinalScore),
		zap.Strings("unlocked", unlocked))
	return unlocked, nil
}

// Stats returns the lifetime aggregates of a player
func (s *StatsService) Stats(ctx context.Context, playerID string) (*model.PlayerStats, error) {
	if cached, err := s.playerCache.GetStats(ctx, playerID); err != nil {
		s.logger.Debug("stats cache read failed", zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	stats, err := s.players.Get(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("load player stats: %w", err)
	}
	if stats == nil {
		return nil, ErrPlayerNotFound
	}
	if err := s.playerCache.SetStats(ctx, stats); err != nil {
		s.logger.Debug("stats cache write failed", zap.Error(err))
	}
	return stats, nil
}

// Achievements returns the whole catalog with the player's unlocks marked.
// A player with no games gets every achievement locked.
func (s *StatsService) Achievements(ctx context.Context, playerID string) ([]model.Achievement, error) {
	stats, err := s.Stats(ctx, playerID)
	if err != nil && !errors.Is(err, ErrPlayerNotFound) {
		return nil, err
	}
	return achievementList(stats), nil
}

// History returns the player's most recent games, newest first
func (s *StatsService) History(ctx context.Context, playerID string, limit int) ([]*model.GameRecord, error) {
	return s.records.ListByPlayer(ctx, playerID, model.Clamp(limit, 1, maxLeaderboardSize))
}

// Leaderboard returns the best scores across all players
func (s *StatsService) Leaderboard(ctx context.Context, top int) ([]cache.LeaderboardEntry, error) {
	return s.leaderboard.GetTop(ctx, model.Clamp(top, 1, maxLeaderboardSize))
}

// Rank returns the player's 1-indexed leaderboard position, or -1
func (s *StatsService) Rank(ctx context.Context, playerID string) (int64, error) {
	return s.leaderboard.GetRank(ctx, playerID)
}
