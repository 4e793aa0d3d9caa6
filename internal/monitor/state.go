package monitor

import (
	"time"

	"github.com/shopspring/decimal"
)

// State is the single mutable record carried across monitoring cycles.
// It is owned by the Service and mutated only between ticks; nothing here
// survives a process restart.
type State struct {
	// Benchmark is the reference price for threshold comparison.
	// Nil until the first successful sample; afterwards only the alert
	// engine's rebase rule updates it.
	Benchmark *decimal.Decimal

	LastReportTime      time.Time
	ConsecutiveFailures int
	TotalChecks         int64
	SuccessfulChecks    int64
}

// NewState initialises cycle state at process start.
func NewState(now time.Time) *State {
	return &State{LastReportTime: now}
}

// RecordSuccess counts a fully successful sample and clears the failure streak.
func (s *State) RecordSuccess() {
	s.ConsecutiveFailures = 0
	s.TotalChecks++
	s.SuccessfulChecks++
}

// RecordFailure counts a sample with a missing required price.
func (s *State) RecordFailure() {
	s.ConsecutiveFailures++
	s.TotalChecks++
}

// SuccessRate returns the running success percentage, 0 before any check.
func (s *State) SuccessRate() float64 {
	if s.TotalChecks == 0 {
		return 0
	}
	return float64(s.SuccessfulChecks) / float64(s.TotalChecks) * 100
}
