package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"meal-planner/internal/clipper"
	"meal-planner/internal/config"
	"meal-planner/internal/llm"
	"meal-planner/internal/metrics"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "meal-planner",
	Short: "Household meal planner and shared shopping list",
	Long: `meal-planner keeps a weekly meal plan and derives the household
shopping list from it. The list is saved locally and synced to the
household's remote store so several devices see the same items.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.NewFromEnv()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		zcfg := zap.NewProductionConfig()
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
		zcfg.Level = level
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 30, "Keep records for the last N days")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newTextGenerator picks the configured LLM for the clipper's fallback
// extraction, Groq first. It returns nil when no key is set. The returned
// function releases the client.
func newTextGenerator(ctx context.Context, recorder llm.Recorder) (llm.TextGenerator, func(), error) {
	noop := func() {}
	var gen llm.TextGenerator
	release := noop
	switch {
	case cfg.GroqAPIKey != "":
		gen = llm.NewGroqClient(cfg)
	case cfg.GeminiAPIKey != "":
		client, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		gen = client
		release = func() {
			if err := client.Close(); err != nil {
				logger.Warn("failed to close gemini client", zap.Error(err))
			}
		}
	default:
		logger.Info("no LLM key configured; recipe pages without markup will not be imported")
		return nil, noop, nil
	}
	if recorder != nil {
		gen = llm.WithMetrics(gen, "clipper", recorder, logger.Named("llm"))
	}
	return gen, release, nil
}

func newClipper(ctx context.Context, metricsStore *metrics.Store) (*clipper.Clipper, func(), error) {
	var recorder llm.Recorder
	if metricsStore != nil {
		recorder = metricsStore
	}
	gen, release, err := newTextGenerator(ctx, recorder)
	if err != nil {
		return nil, nil, err
	}
	return clipper.NewClipper(gen, logger.Named("clipper")), release, nil
}
