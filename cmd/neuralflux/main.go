package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"neuralflux/config"
	"neuralflux/internal/logging"
)

var (
	cfg    *config.Config
	logger *zap.Logger

	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "neuralflux",
	Short: "Neural Flux game backend",
	Long: `Neural Flux is an arcade game where players answer simulated user
requests under a time limit and are scored on how much their answers
resemble an AI assistant's.

Run "neuralflux serve" to start the HTTP and WebSocket server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		var err error
		logger, err = logging.New(cfg.LogLevel, cfg.LogFormat)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(questionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
