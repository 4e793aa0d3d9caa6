package fetcher

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// FXOptions parameterise the USD/CNY rate fetcher.
type FXOptions struct {
	BaseURL   string
	Symbol    string
	Fallback  decimal.Decimal
	MinRate   decimal.Decimal
	MaxRate   decimal.Decimal
	Timeout   time.Duration
	UserAgent string
}

// FX retrieves the USD/CNY rate from Yahoo Finance. A stale fallback rate is
// preferred over aborting a monitoring cycle, so retrieval errors are absorbed.
type FX struct {
	opts   FXOptions
	logger zerolog.Logger
	chart  *Yahoo
}

// NewFX constructs a rate fetcher with a hard fallback.
func NewFX(opts FXOptions, logger zerolog.Logger) *FX {
	chart := NewYahoo(YahooOptions{
		BaseURL:   opts.BaseURL,
		Symbol:    opts.Symbol,
		MinPrice:  opts.MinRate,
		MaxPrice:  opts.MaxRate,
		Timeout:   opts.Timeout,
		UserAgent: opts.UserAgent,
	}, logger)

	return &FX{
		opts:   opts,
		logger: logger.With().Str("component", "fx_fetcher").Logger(),
		chart:  chart,
	}
}

// FetchFXRate returns the latest in-band daily close, or the fallback rate.
func (f *FX) FetchFXRate(ctx context.Context) decimal.Decimal {
	rate, err := f.chart.lastClose(ctx, "5d", "1d")
	if err != nil {
		f.logger.Warn().Err(err).Str("fallback", f.opts.Fallback.String()).Msg("fx retrieval failed, using fallback rate")
		return f.opts.Fallback
	}
	return rate
}

var _ FXRateFetcher = (*FX)(nil)
