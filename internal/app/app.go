package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gregor-nelson/spx/internal/alerting"
	"github.com/gregor-nelson/spx/internal/calendar"
	"github.com/gregor-nelson/spx/internal/config"
	"github.com/gregor-nelson/spx/internal/detector"
	"github.com/gregor-nelson/spx/internal/fetcher"
	"github.com/gregor-nelson/spx/internal/history"
	"github.com/gregor-nelson/spx/internal/logging"
	"github.com/gregor-nelson/spx/internal/poller"
	"github.com/gregor-nelson/spx/internal/retry"
	"github.com/gregor-nelson/spx/internal/scheduler"
	"github.com/gregor-nelson/spx/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logging.Component(logger, "app")}
}

func (a *App) newFetcher() fetcher.ChainFetcher {
	return fetcher.NewProvider(fetcher.ProviderOptions{
		APIKey:       a.Config.Provider.APIKey,
		BaseURL:      a.Config.Provider.BaseURL,
		Underlying:   a.Config.Provider.Underlying,
		Timeout:      a.Config.Provider.RequestTimeout,
		BatchSize:    a.Config.Provider.BatchSize,
		ContractKind: a.Config.Filter.ContractKind,
		MinDTE:       a.Config.Filter.MinDTE,
		MaxDTE:       a.Config.Filter.MaxDTE,
		MinMoneyness: a.Config.Filter.MinMoneyness,
		MaxMoneyness: a.Config.Filter.MaxMoneyness,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Enabled && a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, errors.New("database.dsn is not configured")
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}

	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) newCycle(store *storage.Store) *poller.Cycle {
	det := a.Config.Detection
	comparator := history.New(store, det.ComparisonWindow, a.Logger)
	thresholds := detector.Thresholds{
		VolumeFloor:    det.VolumeFloor,
		NotionalFloor:  decimal.NewFromFloat(det.NotionalFloor),
		DeltaThreshold: det.DeltaThreshold,
		Multiplier:     det.Multiplier,
		DormancyFloor:  det.DormancyFloor,
	}

	return poller.New(poller.Options{
		Fetcher:    a.newFetcher(),
		Writer:     store,
		Alerts:     store,
		Comparator: comparator,
		Detector:   detector.New(thresholds),
		Notifier:   a.newNotifier(),
		Retry: retry.Policy{
			MaxAttempts:    a.Config.Retry.MaxAttempts,
			Delay:          a.Config.Retry.Delay,
			AttemptTimeout: a.Config.Retry.AttemptTimeout,
		},
	}, a.Logger)
}

// RunScheduler executes the long-running capture service.
func (a *App) RunScheduler(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	job := &eodJob{
		store:     store,
		retention: a.Config.Retention,
		logger:    a.Logger,
	}

	ctrl := scheduler.New(a.newCycle(store), job, scheduler.Timing{
		PollInterval:   a.Config.Scheduler.PollInterval,
		FirstPollDelay: a.Config.Scheduler.FirstPollDelay,
		EODDelay:       a.Config.Scheduler.EODDelay,
	}, nil, a.Logger)

	a.Logger.Info().Msg("starting capture service")
	err = ctrl.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("capture service terminated with error")
		return err
	}

	a.Logger.Info().Msg("capture service stopped")
	return nil
}

// PollOnce runs a single capture cycle and exits.
func (a *App) PollOnce(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	summary, err := a.newCycle(store).Run(ctx)
	if err != nil {
		return err
	}

	a.Logger.Info().
		Time("captured_at", summary.CapturedAt).
		Int("contracts", summary.Contracts).
		Int("written", summary.Written).
		Int("alerts", summary.Alerts).
		Msg("single capture complete")
	return nil
}

// RunEOD consolidates one trading day and prunes expired rows.
func (a *App) RunEOD(ctx context.Context, tradeDate time.Time) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	job := &eodJob{store: store, retention: a.Config.Retention, logger: a.Logger}
	return job.RunEOD(ctx, tradeDate)
}

// eodJob runs consolidation plus retention cleanup against one store.
type eodJob struct {
	store     *storage.Store
	retention config.RetentionConfig
	logger    zerolog.Logger
}

func (j *eodJob) RunEOD(ctx context.Context, tradeDate time.Time) error {
	tradeDate = calendar.DateOf(tradeDate)

	consolidated, err := j.store.ConsolidateDay(ctx, tradeDate)
	if err != nil {
		return err
	}

	intradayCutoff := tradeDate.AddDate(0, 0, -j.retention.IntradayDays)
	removedIntraday, err := j.store.CleanupIntraday(ctx, intradayCutoff)
	if err != nil {
		return err
	}

	dailyCutoff := tradeDate.AddDate(0, 0, -j.retention.DailyDays)
	removedDaily, err := j.store.CleanupDaily(ctx, dailyCutoff)
	if err != nil {
		return err
	}

	j.logger.Info().
		Str("trade_date", calendar.DateString(tradeDate)).
		Int("consolidated", consolidated).
		Int64("removed_intraday", removedIntraday).
		Int64("removed_daily", removedDaily).
		Msg("end-of-day consolidation complete")
	return nil
}

var _ scheduler.EODRunner = (*eodJob)(nil)
