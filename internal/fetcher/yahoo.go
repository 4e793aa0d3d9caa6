package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooOptions parameterise a Yahoo Finance chart fetcher.
type YahooOptions struct {
	BaseURL   string
	Symbol    string
	MinPrice  decimal.Decimal
	MaxPrice  decimal.Decimal
	Timeout   time.Duration
	UserAgent string
}

// Yahoo fetches the latest close for a symbol from the Yahoo Finance chart API.
// Intraday minute bars are tried first; daily bars cover sessions where the
// intraday series is empty (after hours, weekends).
type Yahoo struct {
	opts    YahooOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewYahoo constructs a Yahoo chart fetcher.
func NewYahoo(opts YahooOptions, logger zerolog.Logger) *Yahoo {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultYahooBaseURL
	}

	return &Yahoo{
		opts:    opts,
		logger:  logger.With().Str("component", "yahoo_fetcher").Str("symbol", opts.Symbol).Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FetchExchangePrice retrieves the most recent in-band close for the symbol.
func (y *Yahoo) FetchExchangePrice(ctx context.Context) (decimal.Decimal, error) {
	price, err := y.lastClose(ctx, "1d", "1m")
	if err == nil {
		return price, nil
	}
	y.logger.Debug().Err(err).Msg("intraday bars unavailable, falling back to daily")

	price, err = y.lastClose(ctx, "7d", "1d")
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("fetch %s close: %w", y.opts.Symbol, err)
	}
	return price, nil
}

func (y *Yahoo) lastClose(ctx context.Context, chartRange, interval string) (decimal.Decimal, error) {
	if y.opts.Symbol == "" {
		return decimal.Decimal{}, fmt.Errorf("symbol not configured")
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		y.baseURL, url.PathEscape(y.opts.Symbol), chartRange, interval)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Decimal{}, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(y.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := y.client.Do(req)
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("yahoo chart api status %d", resp.StatusCode)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode chart response: %w", err)
	}

	if payload.Chart.Error != nil && payload.Chart.Error.Description != "" {
		return decimal.Decimal{}, fmt.Errorf("yahoo chart api: %s", payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return decimal.Decimal{}, fmt.Errorf("chart response contains no quote series")
	}

	closes := payload.Chart.Result[0].Indicators.Quote[0].Close
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i] == nil {
			continue
		}
		price := decimal.NewFromFloat(*closes[i])
		if !withinBand(price, y.opts.MinPrice, y.opts.MaxPrice) {
			return decimal.Decimal{}, fmt.Errorf("price %s outside sanity band (%s, %s)",
				price.StringFixed(2), y.opts.MinPrice.String(), y.opts.MaxPrice.String())
		}
		return price, nil
	}

	return decimal.Decimal{}, fmt.Errorf("no usable close in %s/%s series", chartRange, interval)
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

var _ ExchangePriceFetcher = (*Yahoo)(nil)
