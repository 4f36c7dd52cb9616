package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"neuralflux/internal/app"
	"neuralflux/internal/repository"
	"neuralflux/internal/service"
)

var seedReset bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the built-in requests into the question bank",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().BoolVar(&seedReset, "reset", false, "Delete existing questions first")
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, err := app.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	repo := repository.NewQuestionRepo(client.Database(cfg.MongoDB))
	if seedReset {
		if err := repo.DeleteAll(ctx); err != nil {
			return err
		}
		logger.Info("question bank cleared")
	}

	inserted, err := repo.InsertMany(ctx, service.BuiltinQuestions())
	if err != nil {
		return err
	}
	total, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	logger.Info("question bank seeded", zap.Int("inserted", inserted), zap.Int64("total", total))
	fmt.Fprintf(cmd.OutOrStdout(), "inserted %d questions, %d in bank\n", inserted, total)
	return nil
}
