package service

import "neuralflux/internal/model"

type achievementRule struct {
	model.Achievement
	earned func(s *model.PlayerStats) bool
}

func bestScoreAtLeast(n int) func(*model.PlayerStats) bool {
	return func(s *model.PlayerStats) bool { return s.BestScore >= n }
}

func streakAtLeast(n int) func(*model.PlayerStats) bool {
	return func(s *model.PlayerStats) bool { return s.LongestStreak >= n }
}

func difficultyAtLeast(n int) func(*model.PlayerStats) bool {
	return func(s *model.PlayerStats) bool { return s.BestDifficulty >= n }
}

func survivedAtLeast(sec float64) func(*model.PlayerStats) bool {
	return func(s *model.PlayerStats) bool { return s.BestTimeSec >= sec }
}

func gamesAtLeast(n int) func(*model.PlayerStats) bool {
	return func(s *model.PlayerStats) bool { return s.TotalGames >= n }
}

var achievementRules = []achievementRule{
	{model.Achievement{ID: "first_game", Name: "First Steps", Description: "Complete your first game", Icon: "🎮"}, gamesAtLeast(1)},
	{model.Achievement{ID: "score_1000", Name: "Getting Started", Description: "Score 1,000 points in a single game", Icon: "⭐"}, bestScoreAtLeast(1000)},
	{model.Achievement{ID: "score_5000", Name: "Rising Star", Description: "Score 5,000 points in a single game", Icon: "🌟"}, bestScoreAtLeast(5000)},
	{model.Achievement{ID: "score_10000", Name: "Elite Player", Description: "Score 10,000 points in a single game", Icon: "💫"}, bestScoreAtLeast(10000)},
	{model.Achievement{ID: "score_20000", Name: "Master", Description: "Score 20,000 points in a single game", Icon: "👑"}, bestScoreAtLeast(20000)},
	{model.Achievement{ID: "streak_5", Name: "On Fire", Description: "Get a 5-answer streak", Icon: "🔥"}, streakAtLeast(5)},
	{model.Achievement{ID: "streak_10", Name: "Unstoppable", Description: "Get a 10-answer streak", Icon: "⚡"}, streakAtLeast(10)},
	{model.Achievement{ID: "streak_20", Name: "Perfect Flow", Description: "Get a 20-answer streak", Icon: "✨"}, streakAtLeast(20)},
	{model.Achievement{ID: "difficulty_5", Name: "Challenge Accepted", Description: "Reach difficulty level 5", Icon: "🎯"}, difficultyAtLeast(5)},
	{model.Achievement{ID: "difficulty_10", Name: "Extreme Challenge", Description: "Reach difficulty level 10", Icon: "🏆"}, difficultyAtLeast(10)},
	{model.Achievement{ID: "time_60", Name: "Survivor", Description: "Survive for 60 seconds", Icon: "⏱️"}, survivedAtLeast(60)},
	{model.Achievement{ID: "time_120", Name: "Endurance", Description: "Survive for 2 minutes", Icon: "💪"}, survivedAtLeast(120)},
	{model.Achievement{ID: "time_300", Name: "Marathon", Description: "Survive for 5 minutes", Icon: "🏃"}, survivedAtLeast(300)},
	{model.Achievement{ID: "perfect_answer", Name: "Perfectionist", Description: "Get a perfect score on an answer", Icon: "💯"}, func(s *model.PlayerStats) bool { return s.PerfectAnswers > 0 }},
	{model.Achievement{ID: "games_10", Name: "Dedicated", Description: "Play 10 games", Icon: "🎲"}, gamesAtLeast(10)},
	{model.Achievement{ID: "games_50", Name: "Veteran", Description: "Play 50 games", Icon: "🎪"}, gamesAtLeast(50)},
	{model.Achievement{ID: "games_100", Name: "Legend", Description: "Play 100 games", Icon: "🏅"}, gamesAtLeast(100)},
}

// unlockAchievements adds every newly earned achievement to stats and
// returns their ids in catalog order. Unlocks are never revoked.
func unlockAchievements(stats *model.PlayerStats) []string {
	var unlocked []string
	for _, rule := range achievementRules {
		if stats.HasAchievement(rule.ID) || !rule.earned(stats) {
			continue
		}
		stats.Achievements = append(stats.Achievements, rule.ID)
		unlocked = append(unlocked, rule.ID)
	}
	return unlocked
}

// achievementList renders the full catalog with unlock flags for stats,
// which may be nil.
func achievementList(stats *model.PlayerStats) []model.Achievement {
	list := make([]model.Achievement, len(achievementRules))
	for i, rule := range achievementRules {
		list[i] = rule.Achievement
		list[i].Unlocked = stats != nil && stats.HasAchievement(rule.ID)
	}
	return list
}
