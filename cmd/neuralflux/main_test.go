package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"neuralflux/config"
	"neuralflux/internal/model"
)

func setupOffline(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	t.Setenv("ORACLE_API_KEY", "")
	t.Setenv("GAME_CONFIG_PATH", "")
	cfg = config.Load()
	logger = zap.NewNop()

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(&out)
	return cmd, &out
}

func TestQuestionCmdUsesBuiltinPool(t *testing.T) {
	cmd, out := setupOffline(t)
	questionCategory, questionDifficulty = "math", 2
	defer func() { questionCategory, questionDifficulty = string(model.CategoryFact), 1 }()

	require.NoError(t, runQuestion(cmd, nil))
	assert.NotEmpty(t, strings.TrimSpace(out.String()))
}

func TestQuestionCmdRejectsUnknownCategory(t *testing.T) {
	cmd, _ := setupOffline(t)
	questionCategory = "poetry"
	defer func() { questionCategory = string(model.CategoryFact) }()

	err := runQuestion(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poetry")
}

func TestScoreCmdPrintsHeuristicReport(t *testing.T) {
	cmd, out := setupOffline(t)
	scoreQuestion = "How does a vaccine teach the immune system to fight a virus?"
	defer func() { scoreQuestion = "" }()

	require.NoError(t, runScore(cmd, []string{"A vaccine shows the immune system a harmless piece of the virus."}))

	var report model.ScoreReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, model.SourceHeuristic, report.Source)
	assert.GreaterOrEqual(t, report.TotalScore, 0)
	assert.LessOrEqual(t, report.TotalScore, model.MaxTotalScore)
}

func TestRootRegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "seed", "score", "question"} {
		assert.True(t, names[want], want)
	}
}
