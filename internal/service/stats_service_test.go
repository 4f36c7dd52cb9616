package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"neuralflux/internal/metrics"
	"neuralflux/internal/model"
)

type statsFixture struct {
	svc         *StatsService
	records     *memRecords
	players     *memPlayers
	playerCache *memPlayerCache
	leaderboard *memLeaderboard
	publisher   *memPublisher
}

func newStatsFixture() *statsFixture {
	f := &statsFixture{
		records:     &memRecords{},
		players:     newMemPlayers(),
		playerCache: newMemPlayerCache(),
		leaderboard: newMemLeaderboard(),
		publisher:   &memPublisher{},
	}
	f.svc = NewStatsService(f.records, f.players, f.playerCache, f.leaderboard, f.publisher, zap.NewNop(), metrics.NewNop())
	return f
}

func record(player string, score int, elapsed float64, difficulty int) model.GameRecord {
	return model.GameRecord{
		SessionID:         "s-" + player,
		PlayerID:          player,
		FinalScore:        score,
		ElapsedSec:        elapsed,
		DifficultyReached: difficulty,
		QuestionsShown:    4,
		QuestionsAnswered: 3,
		CorrectAnswers:    2,
		LongestStreak:     2,
		FinishedAt:        time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestRecordGameFirstGame(t *testing.T) {
	f := newStatsFixture()
	ctx := context.Background()

	unlocked, err := f.svc.RecordGame(ctx, record("ada", 1500, 75, 5))
	require.NoError(t, err)
	assert.Equal(t, []string{"first_game", "score_1000", "difficulty_5", "time_60"}, unlocked)

	stats, err := f.svc.Stats(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalGames)
	assert.Equal(t, 1500, stats.BestScore)
	assert.Equal(t, 1500, stats.AverageScore)
	assert.Equal(t, 75.0, stats.BestTimeSec)
	assert.Equal(t, 5, stats.BestDifficulty)
	assert.ElementsMatch(t, unlocked, stats.Achievements)

	require.Len(t, f.records.records, 1)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, unlocked, f.publisher.events[0].NewAchievements)
	assert.Equal(t, 1500, f.leaderboard.scores["ada"])
	assert.Equal(t, []string{"ada"}, f.playerCache.invalidated)
}

func TestRecordGameAccumulates(t *testing.T) {
	f := newStatsFixture()
	ctx := context.Background()

	_, err := f.svc.RecordGame(ctx, record("ada", 1500, 75, 5))
	require.NoError(t, err)
	_, err = f.svc.Stats(ctx, "ada") // warm the cache
	require.NoError(t, err)

	unlocked, err := f.svc.RecordGame(ctx, record("ada", 500, 30, 2))
	require.NoError(t, err)
	assert.Empty(t, unlocked)

	stats, err := f.svc.Stats(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalGames)
	assert.Equal(t, 2000, stats.TotalScore)
	assert.Equal(t, 1000, stats.AverageScore)
	assert.Equal(t, 1500, stats.BestScore)
	assert.Equal(t, 105.0, stats.TotalTimePlayedSec)
	assert.Equal(t, 6, stats.TotalQuestionsAnswered)
	assert.Equal(t, 1500, f.leaderboard.scores["ada"])
}

func TestRecordGameToleratesSideChannelFailures(t *testing.T) {
	f := newStatsFixture()
	f.leaderboard.err = errStore
	f.publisher.err = errStore

	unlocked, err := f.svc.RecordGame(context.Background(), record("bo", 100, 10, 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"first_game"}, unlocked)
}

func TestRecordGameFailsWhenRecordCannotBeStored(t *testing.T) {
	f := newStatsFixture()
	f.records.err = errStore

	_, err := f.svc.RecordGame(context.Background(), record("bo", 100, 10, 1))
	assert.ErrorIs(t, err, errStore)
	assert.Empty(t, f.players.stats)
	assert.Empty(t, f.publisher.events)
}

func TestStatsUnknownPlayer(t *testing.T) {
	f := newStatsFixture()
	_, err := f.svc.Stats(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestStatsFallsBackWhenCacheFails(t *testing.T) {
	f := newStatsFixture()
	_, err := f.svc.RecordGame(context.Background(), record("cy", 900, 20, 2))
	require.NoError(t, err)
	f.playerCache.err = errStore

	stats, err := f.svc.Stats(context.Background(), "cy")
	require.NoError(t, err)
	assert.Equal(t, 900, stats.BestScore)
}

func TestAchievementsListsWholeCatalog(t *testing.T) {
	f := newStatsFixture()
	ctx := context.Background()

	locked, err := f.svc.Achievements(ctx, "nobody")
	require.NoError(t, err)
	require.Len(t, locked, len(achievementRules))
	for _, a := range locked {
		assert.False(t, a.Unlocked, a.ID)
	}

	_, err = f.svc.RecordGame(ctx, record("ada", 1500, 75, 5))
	require.NoError(t, err)
	list, err := f.svc.Achievements(ctx, "ada")
	require.NoError(t, err)

	var ids []string
	for _, a := range list {
		if a.Unlocked {
			ids = append(ids, a.ID)
		}
	}
	assert.Equal(t, []string{"first_game", "score_1000", "difficulty_5", "time_60"}, ids)
}

func TestUnlockAchievementsNeverRevokes(t *testing.T) {
	stats := &model.PlayerStats{TotalGames: 10, BestScore: 20000, LongestStreak: 20, BestDifficulty: 10, BestTimeSec: 300, PerfectAnswers: 1}
	first := unlockAchievements(stats)
	assert.Len(t, first, 15)
	assert.NotContains(t, first, "games_50")

	stats.TotalGames = 50
	assert.Equal(t, []string{"games_50"}, unlockAchievements(stats))
	assert.Empty(t, unlockAchievements(stats))
	assert.Len(t, stats.Achievements, 16)
}

func TestLeaderboardAndHistory(t *testing.T) {
	f := newStatsFixture()
	ctx := context.Background()
	for _, rec := range []model.GameRecord{record("ada", 1500, 75, 5), record("bo", 3000, 90, 6), record("ada", 200, 10, 1)} {
		_, err := f.svc.RecordGame(ctx, rec)
		require.NoError(t, err)
	}

	top, err := f.svc.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "bo", top[0].PlayerID)

	rank, err := f.svc.Rank(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rank)

	history, err := f.svc.History(ctx, "ada", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 200, history[0].FinalScore)
}
