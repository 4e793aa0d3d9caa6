package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"silver-sentinel/internal/alerting"
	"silver-sentinel/internal/fetcher"
	"silver-sentinel/internal/news"
	"silver-sentinel/internal/storage"
)

// Options tune the monitoring service.
type Options struct {
	CheckInterval  time.Duration
	Threshold      decimal.Decimal
	ReportInterval time.Duration
	DegradedAfter  int
	FatalAfter     int
	OuncesPerKg    decimal.Decimal
	NewsScanLimit  int
}

// Deps are the external collaborators of the monitoring loop.
// Feed, Notifier, Samples, and Alerts may be nil (feature disabled).
type Deps struct {
	Exchange fetcher.ExchangePriceFetcher
	Spot     fetcher.SpotPriceFetcher
	FX       fetcher.FXRateFetcher
	Feed     news.AnnouncementFetcher
	Notifier alerting.Notifier
	Samples  storage.SampleStore
	Alerts   storage.AlertStore
}

// Service orchestrates one full monitoring cycle: fetch, compute, decide,
// notify. Cycles run strictly sequentially; the only state shared between
// them is State and the announcement tracker's seen set.
type Service struct {
	opts    Options
	deps    Deps
	engine  *Engine
	tracker *news.Tracker
	state   *State
	logger  zerolog.Logger
}

// New constructs the monitoring service.
func New(opts Options, deps Deps, tracker *news.Tracker, logger zerolog.Logger) *Service {
	return &Service{
		opts:    opts,
		deps:    deps,
		engine:  NewEngine(opts.Threshold, opts.ReportInterval, logger),
		tracker: tracker,
		state:   NewState(time.Now()),
		logger:  logger.With().Str("component", "monitor").Logger(),
	}
}

// State exposes the cycle state for statistics reporting.
func (s *Service) State() *State {
	return s.state
}

// Startup seeds the announcement baseline and sends the online notification.
func (s *Service) Startup(ctx context.Context) {
	s.seedAnnouncements(ctx)

	if s.deps.Notifier == nil {
		s.logger.Warn().Msg("notifier not configured; running in monitor-only mode")
		return
	}
	s.dispatch(ctx, alerting.RenderStartup(s.opts.CheckInterval, s.opts.ReportInterval, s.opts.Threshold), false)
}

// Shutdown logs final statistics and sends the offline notification.
func (s *Service) Shutdown(ctx context.Context) {
	rate := s.state.SuccessRate()
	s.logger.Info().
		Int64("total_checks", s.state.TotalChecks).
		Int64("successful_checks", s.state.SuccessfulChecks).
		Float64("success_rate", rate).
		Msg("monitoring stopped")

	if s.deps.Notifier != nil {
		s.dispatch(ctx, alerting.RenderShutdown(s.state.TotalChecks, rate, time.Now()), false)
	}
}

// Cycle runs one fetch→compute→decide→notify pass. A panic inside the cycle
// is converted into an error so the loop never terminates; the scheduler
// applies its cooldown on any returned error.
func (s *Service) Cycle(ctx context.Context, now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v", r)
		}
		if err != nil {
			s.escalateCycleError(ctx, err)
		}
	}()

	comex, comexErr := s.deps.Exchange.FetchExchangePrice(ctx)
	shanghai, spotErr := s.deps.Spot.FetchSpotPrice(ctx)
	fx := s.deps.FX.FetchFXRate(ctx)

	if comexErr != nil || spotErr != nil {
		s.recordFailedCycle(ctx, now, comexErr, spotErr)
		return nil
	}

	s.state.RecordSuccess()

	shanghaiUSD, spread := ComputeSpread(comex, shanghai, fx, s.opts.OuncesPerKg)
	sample := Sample{
		ComexUSD:    comex,
		ShanghaiCNY: shanghai,
		ShanghaiUSD: shanghaiUSD,
		FXRate:      fx,
		SpreadUSD:   spread,
	}

	events := s.engine.Evaluate(s.state, sample, now)

	s.logger.Info().
		Str("comex", comex.StringFixed(2)).
		Str("shanghai_cny", shanghai.StringFixed(0)).
		Str("shanghai_usd", shanghaiUSD.StringFixed(2)).
		Str("spread", spread.StringFixed(2)).
		Float64("success_rate", s.state.SuccessRate()).
		Msg("sample recorded")

	s.persistSample(ctx, now, &sample, "complete", nil)

	for _, event := range events {
		s.dispatchEvent(ctx, now, sample, event)
	}

	s.checkAnnouncements(ctx, now)
	return nil
}

func (s *Service) recordFailedCycle(ctx context.Context, now time.Time, comexErr, spotErr error) {
	s.state.RecordFailure()

	unavailable := make([]string, 0, 2)
	if comexErr != nil {
		unavailable = append(unavailable, "comex")
	}
	if spotErr != nil {
		unavailable = append(unavailable, "shanghai")
	}
	s.logger.Warn().
		Strs("unavailable", unavailable).
		Int("consecutive_failures", s.state.ConsecutiveFailures).
		Msg("price data missing, skipping cycle")

	detail := fmt.Sprintf("unavailable: %v", unavailable)
	s.persistSample(ctx, now, nil, "failed", &detail)

	// Alert only at the exact crossing point, not on every later failure.
	if s.state.ConsecutiveFailures == s.opts.DegradedAfter {
		s.dispatch(ctx, alerting.RenderDegraded(s.opts.DegradedAfter), false)
		s.persistAlert(ctx, storage.AlertRecord{
			SampleTS: now,
			Kind:     "degraded",
			Detail:   detail,
		})
	}
}

func (s *Service) escalateCycleError(ctx context.Context, err error) {
	s.logger.Error().Err(err).
		Int("consecutive_failures", s.state.ConsecutiveFailures).
		Msg("monitoring cycle failed")

	if s.state.ConsecutiveFailures > s.opts.FatalAfter {
		s.dispatch(ctx, alerting.RenderException(s.opts.FatalAfter, err.Error()), false)
		s.persistAlert(ctx, storage.AlertRecord{
			SampleTS: time.Now(),
			Kind:     "exception",
			Detail:   err.Error(),
		})
	}
}

func (s *Service) dispatchEvent(ctx context.Context, now time.Time, sample Sample, event Event) {
	switch event.Kind {
	case EventReport:
		data := alerting.ReportData{
			ComexUSD:    sample.ComexUSD,
			ShanghaiUSD: sample.ShanghaiUSD,
			ShanghaiCNY: sample.ShanghaiCNY,
			FXRate:      sample.FXRate,
			SpreadUSD:   sample.SpreadUSD,
			Benchmark:   event.Benchmark,
			ChangeUSD:   event.ChangeUSD,
			ChangePct:   event.ChangePct,
			SuccessRate: s.state.SuccessRate(),
		}
		s.dispatch(ctx, data.RenderReport(), true)

	case EventRise, EventFall:
		data := alerting.PriceAlertData{
			Rising:      event.Kind == EventRise,
			PriceUSD:    sample.ComexUSD,
			Benchmark:   event.Benchmark,
			ChangeUSD:   event.ChangeUSD,
			ChangePct:   event.ChangePct,
			ShanghaiUSD: sample.ShanghaiUSD,
			SpreadUSD:   sample.SpreadUSD,
			At:          now,
		}
		s.dispatch(ctx, data.RenderPriceAlert(), false)

		delta := event.ChangeUSD
		s.persistAlert(ctx, storage.AlertRecord{
			SampleTS: now,
			Kind:     string(event.Kind),
			DeltaUSD: &delta,
			Detail:   fmt.Sprintf("price %s benchmark %s", sample.ComexUSD.StringFixed(2), event.Benchmark.StringFixed(2)),
		})
	}
}

func (s *Service) seedAnnouncements(ctx context.Context) {
	if s.deps.Feed == nil || s.tracker == nil {
		return
	}
	items, err := s.deps.Feed.FetchLatestAnnouncements(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("announcement baseline load failed")
		return
	}
	known := s.tracker.Seed(items)
	s.logger.Info().Int("known", known).Msg("announcement baseline loaded")
}

func (s *Service) checkAnnouncements(ctx context.Context, now time.Time) {
	if s.deps.Feed == nil || s.tracker == nil {
		return
	}

	items, err := s.deps.Feed.FetchLatestAnnouncements(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("announcement feed fetch failed")
		return
	}

	for _, item := range s.tracker.Process(items, s.opts.NewsScanLimit) {
		published := item.PublishedAt
		if published == "" {
			published = "N/A"
		}
		s.dispatch(ctx, alerting.RenderMarginNotice(item.Title, published, item.Link), false)
		s.persistAlert(ctx, storage.AlertRecord{
			SampleTS: now,
			Kind:     "margin_news",
			Detail:   item.Link,
		})
	}
}

// dispatch is fire and forget: delivery failure is logged and never unwinds
// benchmark or tracker state.
func (s *Service) dispatch(ctx context.Context, text string, silent bool) {
	if s.deps.Notifier == nil {
		return
	}
	if err := s.deps.Notifier.Notify(ctx, text, silent); err != nil {
		s.logger.Error().Err(err).Msg("failed to dispatch notification")
	}
}

func (s *Service) persistSample(ctx context.Context, now time.Time, sample *Sample, status string, errDetail *string) {
	if s.deps.Samples == nil {
		return
	}

	record := storage.PriceSample{
		SampleTS:  now.UTC(),
		Status:    status,
		Error:     errDetail,
		CreatedAt: time.Now().UTC(),
	}
	if sample != nil {
		record.ComexUSD = &sample.ComexUSD
		record.ShanghaiCNY = &sample.ShanghaiCNY
		record.ShanghaiUSD = &sample.ShanghaiUSD
		record.SpreadUSD = &sample.SpreadUSD
		record.FXRate = sample.FXRate
	}
	if s.state.Benchmark != nil {
		benchmark := *s.state.Benchmark
		record.BenchmarkUSD = &benchmark
	}

	if err := s.deps.Samples.InsertSample(ctx, record); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist sample")
	}
}

func (s *Service) persistAlert(ctx context.Context, record storage.AlertRecord) {
	if s.deps.Alerts == nil {
		return
	}
	if err := s.deps.Alerts.InsertAlert(ctx, record); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist alert record")
	}
}
