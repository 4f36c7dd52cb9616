package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTuning(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadTuningDefaults(t *testing.T) {
	tuning, err := LoadTuning("")
	require.NoError(t, err)
	assert.Equal(t, DefaultGameConfig(), tuning.Game)
	assert.Equal(t, DefaultScoringConfig(), tuning.Scoring)
	assert.NoError(t, tuning.Validate())
}

func TestLoadTuningOverridesOnlyListedFields(t *testing.T) {
	path := writeTuning(t, `
game:
  startingLives: 3
  skipSpawnDelay: 1s
scoring:
  moderateRelevanceThreshold: 0.8
`)
	tuning, err := LoadTuning(path)
	require.NoError(t, err)

	assert.Equal(t, 3, tuning.Game.StartingLives)
	assert.Equal(t, time.Second, tuning.Game.SkipSpawnDelay)
	assert.Equal(t, 0.8, tuning.Scoring.ModerateRelevanceThreshold)
	assert.Equal(t, 0.5, tuning.Scoring.HeavyRelevanceThreshold)
	assert.Equal(t, 100*time.Millisecond, tuning.Game.TickPeriod)
}

func TestLoadTuningRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no lives", "game:\n  startingLives: 0\n"},
		{"inverted thresholds", "scoring:\n  heavyRelevanceThreshold: 0.9\n  moderateRelevanceThreshold: 0.7\n"},
		{"zero attempts", "scoring:\n  scoreAttempts: 0\n"},
		{"malformed", "game: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTuning(writeTuning(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadTuningMissingFile(t *testing.T) {
	_, err := LoadTuning(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTimeLimitSec(t *testing.T) {
	cfg := DefaultGameConfig()
	assert.Equal(t, 53, cfg.TimeLimitSec(1))
	assert.Equal(t, 45, cfg.TimeLimitSec(5))
	assert.Equal(t, 30, cfg.TimeLimitSec(20))
}
