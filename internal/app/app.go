package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"silver-sentinel/internal/alerting"
	"silver-sentinel/internal/config"
	"silver-sentinel/internal/fetcher"
	"silver-sentinel/internal/monitor"
	"silver-sentinel/internal/news"
	"silver-sentinel/internal/scheduler"
	"silver-sentinel/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFetchers() (fetcher.ExchangePriceFetcher, fetcher.SpotPriceFetcher, fetcher.FXRateFetcher) {
	comexCfg := a.Config.Market.Comex
	comex := fetcher.NewYahoo(fetcher.YahooOptions{
		BaseURL:   comexCfg.BaseURL,
		Symbol:    comexCfg.Symbol,
		MinPrice:  decimal.NewFromFloat(comexCfg.MinPrice),
		MaxPrice:  decimal.NewFromFloat(comexCfg.MaxPrice),
		Timeout:   comexCfg.RequestTimeout,
		UserAgent: comexCfg.UserAgent,
	}, a.Logger)

	shanghaiCfg := a.Config.Market.Shanghai
	sina := fetcher.NewSina(fetcher.SinaOptions{
		URL:       shanghaiCfg.SinaURL,
		MinPrice:  decimal.NewFromFloat(shanghaiCfg.MinPrice),
		MaxPrice:  decimal.NewFromFloat(shanghaiCfg.MaxPrice),
		Timeout:   shanghaiCfg.RequestTimeout,
		UserAgent: shanghaiCfg.UserAgent,
		Referer:   shanghaiCfg.Referer,
	}, a.Logger)
	eastmoney := fetcher.NewEastmoney(fetcher.EastmoneyOptions{
		URL:       shanghaiCfg.EastmoneyURL,
		MinPrice:  decimal.NewFromFloat(shanghaiCfg.MinPrice),
		MaxPrice:  decimal.NewFromFloat(shanghaiCfg.MaxPrice),
		Timeout:   shanghaiCfg.RequestTimeout,
		UserAgent: shanghaiCfg.UserAgent,
	}, a.Logger)
	spot := fetcher.NewSpotChain(a.Logger, sina, eastmoney)

	fxCfg := a.Config.Market.FX
	fx := fetcher.NewFX(fetcher.FXOptions{
		BaseURL:   fxCfg.BaseURL,
		Symbol:    fxCfg.Symbol,
		Fallback:  decimal.NewFromFloat(fxCfg.FallbackRate),
		MinRate:   decimal.NewFromFloat(fxCfg.MinRate),
		MaxRate:   decimal.NewFromFloat(fxCfg.MaxRate),
		Timeout:   fxCfg.RequestTimeout,
		UserAgent: fxCfg.UserAgent,
	}, a.Logger)

	return comex, spot, fx
}

func (a *App) newNotifier() alerting.Notifier {
	if !a.Config.Alerting.Telegram.Enabled {
		return nil
	}
	cfg := a.Config.Alerting.Telegram
	return alerting.NewTelegramNotifier(alerting.TelegramOptions{
		BotToken:    cfg.BotToken,
		ChatID:      cfg.ChatID,
		APIBase:     cfg.APIBase,
		Timeout:     cfg.RequestTimeout,
		MaxAttempts: cfg.MaxAttempts,
		RetryWait:   cfg.RetryWait,
	}, a.Logger)
}

func (a *App) newNewsWatch() (news.AnnouncementFetcher, *news.Tracker) {
	if !a.Config.News.Enabled {
		return nil, nil
	}
	feed := news.NewFeed(news.FeedOptions{
		URL:     a.Config.News.FeedURL,
		Timeout: a.Config.News.RequestTimeout,
	}, a.Logger)
	tracker := news.NewTracker(a.Config.News.SubjectKeywords, a.Config.News.MarginKeywords, a.Logger)
	return feed, tracker
}

func (a *App) monitorOptions() monitor.Options {
	threshold := decimal.Zero
	if a.Config.Alerting.Enabled && a.Config.Alerting.ThresholdUSD > 0 {
		threshold = decimal.NewFromFloat(a.Config.Alerting.ThresholdUSD)
	}

	return monitor.Options{
		CheckInterval:  a.Config.Scheduler.Interval,
		Threshold:      threshold,
		ReportInterval: a.Config.Alerting.ReportInterval,
		DegradedAfter:  a.Config.Alerting.DegradedAfter,
		FatalAfter:     a.Config.Alerting.FatalAfter,
		OuncesPerKg:    decimal.NewFromFloat(a.Config.Market.OuncesPerKilogram),
		NewsScanLimit:  a.Config.News.ScanLimit,
	}
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running monitoring service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; audit persistence disabled")
	} else {
		if err := store.Migrate(ctx); err != nil {
			return err
		}
	}
	if closeStore != nil {
		defer closeStore()
	}

	sched := scheduler.New(scheduler.Options{
		Interval:      a.Config.Scheduler.Interval,
		StartupDelay:  a.Config.Scheduler.StartupDelay,
		ErrorCooldown: a.Config.Scheduler.ErrorCooldown,
	}, a.Logger)

	comex, spot, fx := a.newFetchers()
	feed, tracker := a.newNewsWatch()

	deps := monitor.Deps{
		Exchange: comex,
		Spot:     spot,
		FX:       fx,
		Feed:     feed,
		Notifier: a.newNotifier(),
	}
	if store != nil {
		deps.Samples = store
		deps.Alerts = store
	}

	svc := monitor.New(a.monitorOptions(), deps, tracker, a.Logger)

	a.Logger.Info().
		Dur("interval", a.Config.Scheduler.Interval).
		Float64("threshold_usd", a.Config.Alerting.ThresholdUSD).
		Msg("starting monitoring service")

	svc.Startup(ctx)

	err = sched.Run(ctx, svc.Cycle)

	// Orderly drain: the run context is already cancelled here, so the final
	// statistics go out on a short independent deadline.
	drainCtx, drainCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer drainCancel()
	svc.Shutdown(drainCtx)

	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring service stopped")
	return nil
}

// ExportOptions hold parameters for exporting historical samples.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit  int
	Alerts bool
}
