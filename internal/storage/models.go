package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSample represents one persisted monitoring cycle observation.
// Price fields are nil on cycles where a source was unavailable.
type PriceSample struct {
	SampleTS     time.Time
	ComexUSD     *decimal.Decimal
	ShanghaiCNY  *decimal.Decimal
	ShanghaiUSD  *decimal.Decimal
	FXRate       decimal.Decimal
	SpreadUSD    *decimal.Decimal
	BenchmarkUSD *decimal.Decimal
	Status       string
	Error        *string
	CreatedAt    time.Time
}

// AlertRecord captures a dispatched alert for auditing.
// Kind is one of price_rise, price_fall, degraded, exception, margin_news.
type AlertRecord struct {
	ID        int64
	SampleTS  time.Time
	Kind      string
	DeltaUSD  *decimal.Decimal
	Detail    string
	CreatedAt time.Time
}
