package monitor

import (
	"testing"
	"time"
)

func TestSuccessRateNoChecks(t *testing.T) {
	state := NewState(time.Now())
	if got := state.SuccessRate(); got != 0 {
		t.Fatalf("无检查时成功率应为 0, 实际 %.2f", got)
	}
}

func TestSuccessRate(t *testing.T) {
	state := NewState(time.Now())
	for i := 0; i < 7; i++ {
		state.RecordSuccess()
	}
	for i := 0; i < 3; i++ {
		state.RecordFailure()
	}

	if state.TotalChecks != 10 {
		t.Fatalf("总检查数应为 10, 实际 %d", state.TotalChecks)
	}
	if got := state.SuccessRate(); got != 70.0 {
		t.Fatalf("成功率应为 70.0, 实际 %.2f", got)
	}
}

func TestRecordSuccessResetsFailureStreak(t *testing.T) {
	state := NewState(time.Now())
	state.RecordFailure()
	state.RecordFailure()
	if state.ConsecutiveFailures != 2 {
		t.Fatalf("连续失败数应为 2, 实际 %d", state.ConsecutiveFailures)
	}

	state.RecordSuccess()
	if state.ConsecutiveFailures != 0 {
		t.Fatalf("成功后连续失败数应清零, 实际 %d", state.ConsecutiveFailures)
	}
}
