package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"neuralflux/internal/app"
	"neuralflux/internal/model"
)

var (
	scoreQuestion   string
	scoreExemplar   string
	scoreDifficulty int

	questionCategory   string
	questionDifficulty int
)

var scoreCmd = &cobra.Command{
	Use:   "score [answer]",
	Short: "Score an answer against a request",
	Long: `Score an answer the way a game session would. Without --exemplar an
exemplar answer is generated first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScore,
}

var questionCmd = &cobra.Command{
	Use:   "question",
	Short: "Generate a simulated user request",
	RunE:  runQuestion,
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreQuestion, "question", "q", "", "The request being answered (required)")
	scoreCmd.Flags().StringVar(&scoreExemplar, "exemplar", "", "Reference answer to score against")
	scoreCmd.Flags().IntVarP(&scoreDifficulty, "difficulty", "d", 1, "Difficulty used for exemplar generation")
	scoreCmd.MarkFlagRequired("question")

	questionCmd.Flags().StringVarP(&questionCategory, "category", "c", string(model.CategoryFact), "FACT, MATH, CREATIVE or EMOTIONAL")
	questionCmd.Flags().IntVarP(&questionDifficulty, "difficulty", "d", 1, "Difficulty 1-5")
}

func runScore(cmd *cobra.Command, args []string) error {
	scoring, err := app.NewOffline(cfg, logger)
	if err != nil {
		return err
	}

	answer := strings.Join(args, " ")
	var report model.ScoreReport
	if scoreExemplar != "" {
		report = scoring.ScoreAnswer(cmd.Context(), answer, scoreExemplar, scoreQuestion)
	} else {
		report = scoring.Evaluate(cmd.Context(), answer, scoreQuestion, scoreDifficulty)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func runQuestion(cmd *cobra.Command, args []string) error {
	category := model.Category(strings.ToUpper(questionCategory))
	if !category.Valid() {
		return fmt.Errorf("unknown category %q", questionCategory)
	}

	scoring, err := app.NewOffline(cfg, logger)
	if err != nil {
		return err
	}
	text, err := scoring.GenerateQuestion(cmd.Context(), category, questionDifficulty)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
