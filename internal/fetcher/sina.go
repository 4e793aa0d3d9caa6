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

// SinaOptions parameterise the Sina Finance daily-KLine fetcher.
type SinaOptions struct {
	URL       string
	MinPrice  decimal.Decimal
	MaxPrice  decimal.Decimal
	Timeout   time.Duration
	UserAgent string
	Referer   string
}

// Sina fetches the Shanghai silver close from the Sina Finance KLine API.
// The daily series stays populated over weekends, unlike the tick feed.
type Sina struct {
	opts   SinaOptions
	logger zerolog.Logger
	client *http.Client
}

// NewSina constructs a Sina spot fetcher.
func NewSina(opts SinaOptions, logger zerolog.Logger) *Sina {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Sina{
		opts:   opts,
		logger: logger.With().Str("component", "sina_fetcher").Logger(),
		client: &http.Client{Timeout: timeout},
	}
}

// FetchSpotPrice returns the latest in-band daily close in CNY/kg.
func (s *Sina) FetchSpotPrice(ctx context.Context) (decimal.Decimal, error) {
	if s.opts.URL == "" {
		return decimal.Decimal{}, fmt.Errorf("sina url not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.opts.URL, nil)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if ua := strings.TrimSpace(s.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	if ref := strings.TrimSpace(s.opts.Referer); ref != "" {
		req.Header.Set("Referer", ref)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("sina api status %d", resp.StatusCode)
	}

	var bars []sinaBar
	if err := json.NewDecoder(resp.Body).Decode(&bars); err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode sina kline: %w", err)
	}
	if len(bars) == 0 {
		return decimal.Decimal{}, fmt.Errorf("sina kline series is empty")
	}

	last := bars[len(bars)-1]
	if last.Close == "" {
		return decimal.Decimal{}, fmt.Errorf("sina kline record missing close")
	}

	price, err := decimal.NewFromString(last.Close)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse sina close %q: %w", last.Close, err)
	}
	if !withinBand(price, s.opts.MinPrice, s.opts.MaxPrice) {
		return decimal.Decimal{}, fmt.Errorf("price %s outside sanity band (%s, %s)",
			price.StringFixed(0), s.opts.MinPrice.String(), s.opts.MaxPrice.String())
	}

	return price, nil
}

type sinaBar struct {
	Date  string `json:"d"`
	Close string `json:"c"`
}

var _ SpotPriceFetcher = (*Sina)(nil)
