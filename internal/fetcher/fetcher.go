package fetcher

import (
	"context"

	"github.com/shopspring/decimal"
)

// ExchangePriceFetcher retrieves the COMEX silver price in USD per troy ounce.
type ExchangePriceFetcher interface {
	FetchExchangePrice(ctx context.Context) (decimal.Decimal, error)
}

// SpotPriceFetcher retrieves the Shanghai silver price in CNY per kilogram.
type SpotPriceFetcher interface {
	FetchSpotPrice(ctx context.Context) (decimal.Decimal, error)
}

// FXRateFetcher retrieves the USD/CNY rate. Implementations never fail the
// caller: on any retrieval error they return a configured fallback constant.
type FXRateFetcher interface {
	FetchFXRate(ctx context.Context) decimal.Decimal
}

// withinBand reports whether v lies strictly inside the (min, max) sanity band.
func withinBand(v, min, max decimal.Decimal) bool {
	return v.GreaterThan(min) && v.LessThan(max)
}
