package fetcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SpotChain tries spot providers in order; the first success wins.
type SpotChain struct {
	providers []SpotPriceFetcher
	logger    zerolog.Logger
}

// NewSpotChain builds a fallback chain over the given providers.
func NewSpotChain(logger zerolog.Logger, providers ...SpotPriceFetcher) *SpotChain {
	return &SpotChain{
		providers: providers,
		logger:    logger.With().Str("component", "spot_chain").Logger(),
	}
}

// FetchSpotPrice walks the provider chain until one returns an in-band price.
func (c *SpotChain) FetchSpotPrice(ctx context.Context) (decimal.Decimal, error) {
	if len(c.providers) == 0 {
		return decimal.Decimal{}, fmt.Errorf("no spot providers configured")
	}

	var errs []error
	for i, provider := range c.providers {
		price, err := provider.FetchSpotPrice(ctx)
		if err == nil {
			return price, nil
		}
		errs = append(errs, err)
		if i < len(c.providers)-1 {
			c.logger.Warn().Err(err).Int("provider", i).Msg("spot provider failed, switching to next")
		}
	}

	return decimal.Decimal{}, fmt.Errorf("all spot providers failed: %w", errors.Join(errs...))
}

var _ SpotPriceFetcher = (*SpotChain)(nil)
