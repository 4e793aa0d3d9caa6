package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// EastmoneyOptions parameterise the Eastmoney quote fetcher.
type EastmoneyOptions struct {
	URL       string
	MinPrice  decimal.Decimal
	MaxPrice  decimal.Decimal
	Timeout   time.Duration
	UserAgent string
}

// Eastmoney is the secondary Shanghai silver provider behind Sina.
type Eastmoney struct {
	opts   EastmoneyOptions
	logger zerolog.Logger
	client *http.Client
}

// NewEastmoney constructs an Eastmoney spot fetcher.
func NewEastmoney(opts EastmoneyOptions, logger zerolog.Logger) *Eastmoney {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Eastmoney{
		opts:   opts,
		logger: logger.With().Str("component", "eastmoney_fetcher").Logger(),
		client: &http.Client{Timeout: timeout},
	}
}

// FetchSpotPrice returns the latest in-band quote in CNY/kg.
func (e *Eastmoney) FetchSpotPrice(ctx context.Context) (decimal.Decimal, error) {
	if e.opts.URL == "" {
		return decimal.Decimal{}, fmt.Errorf("eastmoney url not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.opts.URL, nil)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if ua := strings.TrimSpace(e.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("eastmoney api status %d", resp.StatusCode)
	}

	var payload eastmoneyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode eastmoney quote: %w", err)
	}
	if payload.Data == nil || payload.Data.LastPrice == nil {
		return decimal.Decimal{}, fmt.Errorf("eastmoney quote missing last price")
	}

	price := decimal.NewFromFloat(*payload.Data.LastPrice)
	if !withinBand(price, e.opts.MinPrice, e.opts.MaxPrice) {
		return decimal.Decimal{}, fmt.Errorf("price %s outside sanity band (%s, %s)",
			price.StringFixed(0), e.opts.MinPrice.String(), e.opts.MaxPrice.String())
	}

	return price, nil
}

type eastmoneyResponse struct {
	Data *struct {
		LastPrice *float64 `json:"f43"`
	} `json:"data"`
}

var _ SpotPriceFetcher = (*Eastmoney)(nil)
