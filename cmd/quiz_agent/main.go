// Package main provides the entry point for the readiness quiz CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/readiness-quiz/internal/config"
	"github.com/jonathan/readiness-quiz/internal/observability"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Set by PersistentPreRunE
	logger *zap.Logger
	cfg    config.Config
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "quiz_agent",
		Short: "AI readiness quiz funnel",
		Long: `quiz_agent scores AI readiness quizzes, classifies the respondent into a
temperature tier and archetype, and serves the quiz funnel over HTTP:
narrative generation, lead forwarding and gift mail.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			logger, err = observability.NewLogger(verbose || cfg.Verbose)
			return err
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newServeCmd(), newScoreCmd(), newQuestionsCmd())
	return root
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
