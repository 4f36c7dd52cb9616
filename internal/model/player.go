package model

import "time"

// GameRecord is what a finished session reports to the statistics recorder
type GameRecord struct {
	ID                string    `json:"id" bson:"_id,omitempty"`
	SessionID         string    `json:"sessionId" bson:"sessionId"`
	PlayerID          string    `json:"playerId" bson:"playerId"`
	FinalScore        int       `json:"finalScore" bson:"finalScore"`
	ElapsedSec        float64   `json:"elapsedSec" bson:"elapsedSec"`
	DifficultyReached int       `json:"difficultyReached" bson:"difficultyReached"`
	QuestionsShown    int       `json:"questionsShown" bson:"questionsShown"`
	QuestionsAnswered int       `json:"questionsAnswered" bson:"questionsAnswered"`
	CorrectAnswers    int       `json:"correctAnswers" bson:"correctAnswers"`
	PerfectAnswers    int       `json:"perfectAnswers" bson:"perfectAnswers"`
	LongestStreak     int       `json:"longestStreak" bson:"longestStreak"`
	FinishedAt        time.Time `json:"finishedAt" bson:"finishedAt"`
}

// PlayerStats are lifetime aggregates across every finished game of a player
type PlayerStats struct {
	PlayerID               string    `json:"playerId" bson:"_id"`
	TotalGames             int       `json:"totalGames" bson:"totalGames"`
	BestScore              int       `json:"bestScore" bson:"bestScore"`
	TotalScore             int       `json:"totalScore" bson:"totalScore"`
	AverageScore           int       `json:"averageScore" bson:"averageScore"`
	TotalTimePlayedSec     float64   `json:"totalTimePlayed" bson:"totalTimePlayed"`
	BestTimeSec            float64   `json:"bestTime" bson:"bestTime"`
	BestDifficulty         int       `json:"bestDifficulty" bson:"bestDifficulty"`
	TotalQuestionsAnswered int       `json:"totalQuestionsAnswered" bson:"totalQuestionsAnswered"`
	CorrectAnswers         int       `json:"correctAnswers" bson:"correctAnswers"`
	PerfectAnswers         int       `json:"perfectAnswers" bson:"perfectAnswers"`
	LongestStreak          int       `json:"longestStreak" bson:"longestStreak"`
	Achievements           []string  `json:"achievements" bson:"achievements"`
	UpdatedAt              time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Apply folds one finished game into the lifetime aggregates
func (s *PlayerStats) Apply(rec *GameRecord) {
	s.TotalGames++
	s.TotalScore += rec.FinalScore
	s.AverageScore = s.TotalScore / s.TotalGames
	s.TotalTimePlayedSec += rec.ElapsedSec
	if rec.FinalScore > s.BestScore {
		s.BestScore = rec.FinalScore
	}
	if rec.ElapsedSec > s.BestTimeSec {
		s.BestTimeSec = rec.ElapsedSec
	}
	if rec.DifficultyReached > s.BestDifficulty {
		s.BestDifficulty = rec.DifficultyReached
	}
	if rec.LongestStreak > s.LongestStreak {
		s.LongestStreak = rec.LongestStreak
	}
	s.TotalQuestionsAnswered += rec.QuestionsAnswered
	s.CorrectAnswers += rec.CorrectAnswers
	s.PerfectAnswers += rec.PerfectAnswers
	s.UpdatedAt = rec.FinishedAt
}

// HasAchievement reports whether id is already unlocked
func (s *PlayerStats) HasAchievement(id string) bool {
	for _, a := range s.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// Achievement describes an unlockable milestone
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Unlocked    bool   `json:"unlocked"`
}

// GameFinishedEvent is published when a session reaches game over
type GameFinishedEvent struct {
	Record          GameRecord `json:"record"`
	NewAchievements []string   `json:"newAchievements,omitempty"`
}
