package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// GameConfig holds the real-time tuning of a game session
type GameConfig struct {
	TickPeriod       time.Duration `yaml:"tickPeriod"`
	StartingLives    int           `yaml:"startingLives"`
	SecondsPerLevel  float64       `yaml:"secondsPerLevel"`
	BaseTimeLimitSec int           `yaml:"baseTimeLimitSec"`
	MinTimeLimitSec  int           `yaml:"minTimeLimitSec"`
	TimeStepPerLevel int           `yaml:"timeStepPerLevel"`
	SkipPenalty      int           `yaml:"skipPenalty"`
	SpawnRetryDelay  time.Duration `yaml:"spawnRetryDelay"`
	SkipSpawnDelay   time.Duration `yaml:"skipSpawnDelay"`
	ExpireGrace      time.Duration `yaml:"expireGrace"`
	ExpireSpawnDelay time.Duration `yaml:"expireSpawnDelay"`
}

// ScoringConfig holds the game-balance constants of answer scoring
type ScoringConfig struct {
	// Relevance ratio below which other metrics are scaled by the ratio itself
	HeavyRelevanceThreshold float64 `yaml:"heavyRelevanceThreshold"`
	// Relevance ratio below which a moderate penalty applies
	ModerateRelevanceThreshold float64 `yaml:"moderateRelevanceThreshold"`
	VeryShortAnswerWords       int     `yaml:"veryShortAnswerWords"`
	VeryShortGrammarFactor     float64 `yaml:"veryShortGrammarFactor"`
	ShortAnswerWords           int     `yaml:"shortAnswerWords"`
	ShortGrammarFactor         float64 `yaml:"shortGrammarFactor"`

	QuestionAttempts int           `yaml:"questionAttempts"`
	ExemplarAttempts int           `yaml:"exemplarAttempts"`
	ScoreAttempts    int           `yaml:"scoreAttempts"`
	RetryBackoff     time.Duration `yaml:"retryBackoff"`
}

// Tuning bundles both sections as they appear in the YAML file
type Tuning struct {
	Game    GameConfig    `yaml:"game"`
	Scoring ScoringConfig `yaml:"scoring"`
}

// DefaultGameConfig returns the standard arcade pacing
func DefaultGameConfig() GameConfig {
	return GameConfig{
		TickPeriod:       100 * time.Millisecond,
		StartingLives:    5,
		SecondsPerLevel:  10,
		BaseTimeLimitSec: 55,
		MinTimeLimitSec:  30,
		TimeStepPerLevel: 2,
		SkipPenalty:      5,
		SpawnRetryDelay:  time.Second,
		SkipSpawnDelay:   300 * time.Millisecond,
		ExpireGrace:      500 * time.Millisecond,
		ExpireSpawnDelay: time.Second,
	}
}

// DefaultScoringConfig returns the standard scoring balance
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		HeavyRelevanceThreshold:    0.5,
		ModerateRelevanceThreshold: 0.7,
		VeryShortAnswerWords:       3,
		VeryShortGrammarFactor:     0.3,
		ShortAnswerWords:           5,
		ShortGrammarFactor:         0.6,
		QuestionAttempts:           1,
		ExemplarAttempts:           3,
		ScoreAttempts:              2,
		RetryBackoff:               500 * time.Millisecond,
	}
}

// TimeLimitSec returns the per-request budget at a difficulty level:
// max(MinTimeLimitSec, BaseTimeLimitSec - level*TimeStepPerLevel).
func (c GameConfig) TimeLimitSec(level int) int {
	limit := c.BaseTimeLimitSec - level*c.TimeStepPerLevel
	if limit < c.MinTimeLimitSec {
		return c.MinTimeLimitSec
	}
	return limit
}

// LoadTuning reads an optional YAML file on top of the defaults.
// An empty path returns the defaults.
func LoadTuning(path string) (*Tuning, error) {
	t := &Tuning{Game: DefaultGameConfig(), Scoring: DefaultScoringConfig()}
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("failed to parse tuning file: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate rejects tunings the state machine cannot run with
func (t *Tuning) Validate() error {
	g, s := t.Game, t.Scoring
	switch {
	case g.TickPeriod <= 0:
		return fmt.Errorf("game.tickPeriod must be positive")
	case g.StartingLives <= 0:
		return fmt.Errorf("game.startingLives must be positive")
	case g.SecondsPerLevel <= 0:
		return fmt.Errorf("game.secondsPerLevel must be positive")
	case g.MinTimeLimitSec <= 0:
		return fmt.Errorf("game.minTimeLimitSec must be positive")
	case s.HeavyRelevanceThreshold < 0 || s.HeavyRelevanceThreshold > s.ModerateRelevanceThreshold || s.ModerateRelevanceThreshold > 1:
		return fmt.Errorf("scoring relevance thresholds must satisfy 0 <= heavy <= moderate <= 1")
	case s.QuestionAttempts < 1 || s.ExemplarAttempts < 1 || s.ScoreAttempts < 1:
		return fmt.Errorf("scoring attempts must be at least 1")
	}
	return nil
}
