package monitor

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Sample is one cycle's converted price observation.
type Sample struct {
	ComexUSD    decimal.Decimal
	ShanghaiCNY decimal.Decimal
	ShanghaiUSD decimal.Decimal
	FXRate      decimal.Decimal
	SpreadUSD   decimal.Decimal
}

// EventKind classifies an engine decision.
type EventKind string

const (
	EventReport EventKind = "report"
	EventRise   EventKind = "price_rise"
	EventFall   EventKind = "price_fall"
)

// Event is a single decision produced by the engine for the caller to
// render and dispatch. Benchmark and the deltas are as of decision time:
// for a report that is the pre-rebase benchmark.
type Event struct {
	Kind      EventKind
	Benchmark decimal.Decimal
	ChangeUSD decimal.Decimal
	ChangePct decimal.Decimal
}

// Engine owns the benchmark-rebasing decision rules. It performs no I/O;
// delivery failure downstream never unwinds a benchmark mutation.
type Engine struct {
	threshold      decimal.Decimal
	reportInterval time.Duration
	logger         zerolog.Logger
}

// NewEngine constructs the alert engine. A zero threshold disables
// threshold alerts (reports still fire).
func NewEngine(threshold decimal.Decimal, reportInterval time.Duration, logger zerolog.Logger) *Engine {
	return &Engine{
		threshold:      threshold,
		reportInterval: reportInterval,
		logger:         logger.With().Str("component", "alert_engine").Logger(),
	}
}

// Evaluate applies one sample to the state: it initialises the benchmark on
// the first observation, decides whether the periodic report is due, then
// checks the threshold and rebases the benchmark on a breach. The report is
// decided before the threshold check so it reflects the pre-rebase benchmark.
func (e *Engine) Evaluate(state *State, sample Sample, now time.Time) []Event {
	if state.Benchmark == nil {
		initial := sample.ComexUSD
		state.Benchmark = &initial
		e.logger.Info().Str("benchmark", initial.StringFixed(2)).Msg("基准价格已设定")
	}
	benchmark := *state.Benchmark

	var events []Event

	if now.Sub(state.LastReportTime) >= e.reportInterval {
		change := sample.ComexUSD.Sub(benchmark)
		events = append(events, Event{
			Kind:      EventReport,
			Benchmark: benchmark,
			ChangeUSD: change,
			ChangePct: percentOf(change, benchmark),
		})
		state.LastReportTime = now
	}

	diff := sample.ComexUSD.Sub(benchmark)
	if e.threshold.IsPositive() && diff.Abs().GreaterThanOrEqual(e.threshold) {
		kind := EventFall
		if diff.Sign() > 0 {
			kind = EventRise
		}
		events = append(events, Event{
			Kind:      kind,
			Benchmark: benchmark,
			ChangeUSD: diff,
			ChangePct: percentOf(diff, benchmark),
		})

		// Rebase so subsequent alerts measure from the new level.
		rebased := sample.ComexUSD
		state.Benchmark = &rebased
		e.logger.Info().
			Str("kind", string(kind)).
			Str("benchmark", rebased.StringFixed(2)).
			Msg("阈值告警触发, 基准已更新")
	}

	return events
}

func percentOf(change, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return change.Div(base).Mul(decimal.NewFromInt(100))
}
