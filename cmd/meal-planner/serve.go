package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"meal-planner/internal/api"
	"meal-planner/internal/app"
	"meal-planner/internal/database"
	"meal-planner/internal/metrics"
	"meal-planner/internal/storage"
	"meal-planner/internal/telegram"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the sync loop and the Telegram bot",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

// openApp wires the application on top of the configured database and
// state directory and starts it. The returned function closes everything.
func openApp(ctx context.Context) (*app.App, func(), error) {
	db, err := database.NewDB(cfg.DatabasePath, logger.Named("database"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	local, err := storage.NewStore(cfg.StateDir)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to initialize state directory: %w", err)
	}

	metricsStore := metrics.NewStore(db.SQL)
	recipeClipper, release, err := newClipper(ctx, metricsStore)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	a := app.NewApp(cfg, db.SQL, local, recipeClipper, metricsStore, logger.Named("app"))
	if err := a.Start(ctx); err != nil {
		release()
		db.Close()
		return nil, nil, err
	}

	closeAll := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			logger.Error("failed to flush shopping list", zap.Error(err))
		}
		release()
		if err := db.Close(); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}
	return a, closeAll, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, closeApp, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp()

	mux := http.NewServeMux()
	api.New(a, logger.Named("api")).RegisterRoutes(mux)

	var bot *telegram.Bot
	if cfg.TelegramBotToken != "" {
		bot, err = telegram.NewBot(cfg, a, logger.Named("telegram"))
		if err != nil {
			return fmt.Errorf("failed to initialize telegram bot: %w", err)
		}
		bot.RegisterHandlers(mux)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Chain(mux, api.Logging(logger.Named("http")), api.Recovery(logger.Named("http"))),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		if bot != nil {
			bot.Wait()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server exiting")
	return nil
}
