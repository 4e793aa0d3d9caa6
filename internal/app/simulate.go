package app

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"silver-sentinel/internal/fetcher"
	"silver-sentinel/internal/monitor"
)

// SimulateAlert 以给定的价格跑一次完整监控循环并触发真实告警通道。
// benchmark 预置基准价, 为零时按首次观测初始化（不会触发告警）。
func (a *App) SimulateAlert(ctx context.Context, comex, shanghai, fx, benchmark decimal.Decimal) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting 未启用")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("未配置任何告警通道")
	}

	deps := monitor.Deps{
		Exchange: &staticExchangeFetcher{price: comex},
		Spot:     &staticSpotFetcher{price: shanghai},
		FX:       &staticFXFetcher{rate: fx},
		Notifier: notifier,
	}

	svc := monitor.New(a.monitorOptions(), deps, nil, a.Logger)
	if benchmark.IsPositive() {
		svc.State().Benchmark = &benchmark
	}

	return svc.Cycle(ctx, time.Now())
}

type staticExchangeFetcher struct {
	price decimal.Decimal
}

func (s *staticExchangeFetcher) FetchExchangePrice(ctx context.Context) (decimal.Decimal, error) {
	return s.price, nil
}

type staticSpotFetcher struct {
	price decimal.Decimal
}

func (s *staticSpotFetcher) FetchSpotPrice(ctx context.Context) (decimal.Decimal, error) {
	return s.price, nil
}

type staticFXFetcher struct {
	rate decimal.Decimal
}

func (s *staticFXFetcher) FetchFXRate(ctx context.Context) decimal.Decimal {
	return s.rate
}

var _ fetcher.ExchangePriceFetcher = (*staticExchangeFetcher)(nil)
var _ fetcher.SpotPriceFetcher = (*staticSpotFetcher)(nil)
var _ fetcher.FXRateFetcher = (*staticFXFetcher)(nil)
