package app

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"meal-planner/internal/clipper"
	"meal-planner/internal/config"
	"meal-planner/internal/household"
	"meal-planner/internal/metrics"
	"meal-planner/internal/notice"
	"meal-planner/internal/planner"
	"meal-planner/internal/shopping"
	"meal-planner/internal/syncer"
)

// defaultHousehold owns the meals and pantry when no USER_ID is configured.
const defaultHousehold = "local"

// RecipeFetcher extracts the ingredient list of a recipe page.
type RecipeFetcher interface {
	FetchIngredients(ctx context.Context, url string) (*clipper.Result, error)
}

// App holds the application's dependencies and implements every operation
// the front ends offer.
type App struct {
	cfg         *config.Config
	logger      *zap.Logger
	householdID string

	meals   *planner.MealRepository
	plans   *planner.PlanRepository
	pantry  *household.PantryRepository
	family  *household.FamilyRepository
	remote  *shopping.Repository
	list    *shopping.List
	syncer  *syncer.Syncer
	notices *notice.Board
	metrics *metrics.Store
	fetcher RecipeFetcher
}

// NewApp creates and wires a new App. fetcher and metricsStore may be nil.
func NewApp(
	cfg *config.Config,
	db *sql.DB,
	local syncer.LocalStore,
	fetcher RecipeFetcher,
	metricsStore *metrics.Store,
	logger *zap.Logger,
) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	householdID := cfg.UserID
	if householdID == "" {
		householdID = defaultHousehold
	}

	notices := notice.NewBoard(50)
	remote := shopping.NewRepository(db, logger.Named("remote"))
	list := shopping.NewList(logger.Named("shopping"), cfg.Stores, cfg.PendingTTL)
	s := syncer.New(list, local, remote, notices, logger.Named("syncer"), cfg.SyncDebounce)
	s.SetUser(cfg.UserID)

	return &App{
		cfg:         cfg,
		logger:      logger,
		householdID: householdID,
		meals:       planner.NewMealRepository(db),
		plans:       planner.NewPlanRepository(db),
		pantry:      household.NewPantryRepository(db),
		family:      household.NewFamilyRepository(db),
		remote:      remote,
		list:        list,
		syncer:      s,
		notices:     notices,
		metrics:     metricsStore,
		fetcher:     fetcher,
	}
}

// Start loads meals and pantry, restores the shopping list from local
// storage, reconciles it with the remote store and starts listening for
// remote changes. Storage failures are reported as notices and do not stop
// the start.
func (a *App) Start(ctx context.Context) error {
	if err := a.refreshMeals(ctx); err != nil {
		return err
	}
	if err := a.refreshPantry(ctx); err != nil {
		return err
	}
	if err := a.syncer.LoadLocal(); err != nil {
		a.logger.Warn("local shopping state could not be fully restored", zap.Error(err))
		a.notices.Post(notice.Error, "Some saved shopping list data could not be read and was reset.")
	}
	if err := a.syncer.Load(ctx); err != nil {
		a.logger.Warn("remote load failed, continuing with the local list", zap.Error(err))
	}
	a.syncer.Start(ctx)
	a.logger.Info("app started",
		zap.String("household", a.householdID),
		zap.Bool("remote_sync", a.cfg.UserID != ""),
		zap.Int("items", len(a.list.Items())))
	return nil
}

// Close stops the sync layer and then writes the latest shopping list state,
// so the final write never overlaps a debounced one.
func (a *App) Close(ctx context.Context) error {
	a.syncer.Close()
	if err := a.syncer.Flush(ctx); err != nil {
		return fmt.Errorf("failed to flush shopping list: %w", err)
	}
	return nil
}

// Notices returns the n most recent notices, newest first.
func (a *App) Notices(n int) []notice.Notice {
	return a.notices.Recent(n)
}

// Health reports process health and the size of the data on disk.
func (a *App) Health() metrics.SysHealth {
	return metrics.GetSysHealth(a.cfg.DatabasePath, a.cfg.StateDir)
}

// Usage returns LLM usage for the last days. It returns nil when metrics are
// not recorded.
func (a *App) Usage(ctx context.Context, days int) ([]metrics.DailyUsage, error) {
	if a.metrics == nil {
		return nil, nil
	}
	return a.metrics.GetDailyUsage(ctx, days)
}
