package monitor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"silver-sentinel/internal/news"
)

type stubExchange struct {
	price  decimal.Decimal
	err    error
	panics bool
}

func (s *stubExchange) FetchExchangePrice(ctx context.Context) (decimal.Decimal, error) {
	if s.panics {
		panic("exchange fetcher exploded")
	}
	return s.price, s.err
}

type stubSpot struct {
	price decimal.Decimal
	err   error
}

func (s *stubSpot) FetchSpotPrice(ctx context.Context) (decimal.Decimal, error) {
	return s.price, s.err
}

type stubFX struct {
	rate decimal.Decimal
}

func (s *stubFX) FetchFXRate(ctx context.Context) decimal.Decimal {
	return s.rate
}

type stubNotifier struct {
	texts   []string
	silents []bool
	err     error
}

func (s *stubNotifier) Notify(ctx context.Context, text string, silent bool) error {
	s.texts = append(s.texts, text)
	s.silents = append(s.silents, silent)
	return s.err
}

func (s *stubNotifier) countContaining(substr string) int {
	n := 0
	for _, text := range s.texts {
		if strings.Contains(text, substr) {
			n++
		}
	}
	return n
}

type stubFeed struct {
	items []news.Announcement
	err   error
}

func (s *stubFeed) FetchLatestAnnouncements(ctx context.Context) ([]news.Announcement, error) {
	return s.items, s.err
}

func testOptions() Options {
	return Options{
		CheckInterval:  time.Minute,
		Threshold:      decimal.RequireFromString("0.3"),
		ReportInterval: time.Hour,
		DegradedAfter:  5,
		FatalAfter:     10,
		OuncesPerKg:    decimal.RequireFromString("32.1507466"),
		NewsScanLimit:  10,
	}
}

func newTestService(opts Options, deps Deps, tracker *news.Tracker) *Service {
	return New(opts, deps, tracker, noopLogger())
}

func TestCycleFirstSuccessSetsBenchmarkWithoutAlert(t *testing.T) {
	notifier := &stubNotifier{}
	svc := newTestService(testOptions(), Deps{
		Exchange: &stubExchange{price: decimal.RequireFromString("30.00")},
		Spot:     &stubSpot{price: decimal.RequireFromString("7200")},
		FX:       &stubFX{rate: decimal.RequireFromString("7.2")},
		Notifier: notifier,
	}, nil)

	if err := svc.Cycle(context.Background(), time.Now()); err != nil {
		t.Fatalf("成功周期不应报错: %v", err)
	}
	if len(notifier.texts) != 0 {
		t.Fatalf("首次观测不应推送消息, 实际 %d 条", len(notifier.texts))
	}
	if svc.State().Benchmark == nil || !svc.State().Benchmark.Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("基准应初始化为首次观测价格")
	}
	if svc.State().SuccessfulChecks != 1 {
		t.Fatalf("成功检查数应为 1, 实际 %d", svc.State().SuccessfulChecks)
	}
}

func TestCycleThresholdBreachDispatchesAlert(t *testing.T) {
	exchange := &stubExchange{price: decimal.RequireFromString("30.00")}
	notifier := &stubNotifier{}
	svc := newTestService(testOptions(), Deps{
		Exchange: exchange,
		Spot:     &stubSpot{price: decimal.RequireFromString("7200")},
		FX:       &stubFX{rate: decimal.RequireFromString("7.2")},
		Notifier: notifier,
	}, nil)

	if err := svc.Cycle(context.Background(), time.Now()); err != nil {
		t.Fatalf("首个周期不应报错: %v", err)
	}

	exchange.price = decimal.RequireFromString("30.40")
	if err := svc.Cycle(context.Background(), time.Now()); err != nil {
		t.Fatalf("告警周期不应报错: %v", err)
	}

	if got := notifier.countContaining("Rise Alert"); got != 1 {
		t.Fatalf("期望一条上涨告警, 实际 %d 条: %#v", got, notifier.texts)
	}
	if notifier.silents[len(notifier.silents)-1] {
		t.Fatalf("阈值告警不应静音")
	}
	if !svc.State().Benchmark.Equal(decimal.RequireFromString("30.40")) {
		t.Fatalf("告警后基准应更新为 30.40, 实际 %s", svc.State().Benchmark.String())
	}
}

func TestCycleDeliveryFailureStillRebases(t *testing.T) {
	exchange := &stubExchange{price: decimal.RequireFromString("30.00")}
	notifier := &stubNotifier{err: context.DeadlineExceeded}
	svc := newTestService(testOptions(), Deps{
		Exchange: exchange,
		Spot:     &stubSpot{price: decimal.RequireFromString("7200")},
		FX:       &stubFX{rate: decimal.RequireFromString("7.2")},
		Notifier: notifier,
	}, nil)

	_ = svc.Cycle(context.Background(), time.Now())
	exchange.price = decimal.RequireFromString("29.50")
	if err := svc.Cycle(context.Background(), time.Now()); err != nil {
		t.Fatalf("推送失败不应中断周期: %v", err)
	}

	if !svc.State().Benchmark.Equal(decimal.RequireFromString("29.50")) {
		t.Fatalf("推送失败后基准仍应更新, 实际 %s", svc.State().Benchmark.String())
	}
}

func TestCycleSkipsWhenPriceMissing(t *testing.T) {
	notifier := &stubNotifier{}
	svc := newTestService(testOptions(), Deps{
		Exchange: &stubExchange{price: decimal.RequireFromString("30.00")},
		Spot:     &stubSpot{err: context.DeadlineExceeded},
		FX:       &stubFX{rate: decimal.RequireFromString("7.28")},
		Notifier: notifier,
	}, nil)

	if err := svc.Cycle(context.Background(), time.Now()); err != nil {
		t.Fatalf("缺价周期应跳过而非报错: %v", err)
	}
	if svc.State().Benchmark != nil {
		t.Fatalf("缺价周期不应初始化基准")
	}
	if svc.State().ConsecutiveFailures != 1 {
		t.Fatalf("连续失败数应为 1, 实际 %d", svc.State().ConsecutiveFailures)
	}
	if len(notifier.texts) != 0 {
		t.Fatalf("未达降级阈值不应推送, 实际 %#v", notifier.texts)
	}
}

func TestCycleDegradedAlertFiresOnlyAtCrossing(t *testing.T) {
	opts := testOptions()
	opts.DegradedAfter = 2
	notifier := &stubNotifier{}
	svc := newTestService(opts, Deps{
		Exchange: &stubExchange{err: context.DeadlineExceeded},
		Spot:     &stubSpot{price: decimal.RequireFromString("7200")},
		FX:       &stubFX{rate: decimal.RequireFromString("7.28")},
		Notifier: notifier,
	}, nil)

	for i := 0; i < 4; i++ {
		if err := svc.Cycle(context.Background(), time.Now()); err != nil {
			t.Fatalf("缺价周期不应报错: %v", err)
		}
	}

	if got := notifier.countContaining("System warning"); got != 1 {
		t.Fatalf("降级告警应恰好一次 (第 %d 次失败时), 实际 %d 次", opts.DegradedAfter, got)
	}
}

func TestCyclePanicConvertedToError(t *testing.T) {
	svc := newTestService(testOptions(), Deps{
		Exchange: &stubExchange{panics: true},
		Spot:     &stubSpot{price: decimal.RequireFromString("7200")},
		FX:       &stubFX{rate: decimal.RequireFromString("7.28")},
	}, nil)

	err := svc.Cycle(context.Background(), time.Now())
	if err == nil {
		t.Fatal("panic 应被转换为错误返回")
	}
	if !strings.Contains(err.Error(), "panic") {
		t.Fatalf("错误信息应包含 panic, 实际 %v", err)
	}
}

func TestCycleMarginNewsAlertsOnce(t *testing.T) {
	feed := &stubFeed{items: []news.Announcement{
		{Title: "CME raises silver margin requirements", Link: "https://example.com/a"},
		{Title: "Gold ends higher on the session", Link: "https://example.com/b"},
	}}
	notifier := &stubNotifier{}
	tracker := news.NewTracker([]string{"silver", "comex"}, []string{"margin"}, noopLogger())

	svc := newTestService(testOptions(), Deps{
		Exchange: &stubExchange{price: decimal.RequireFromString("30.00")},
		Spot:     &stubSpot{price: decimal.RequireFromString("7200")},
		FX:       &stubFX{rate: decimal.RequireFromString("7.2")},
		Notifier: notifier,
		Feed:     feed,
	}, tracker)

	_ = svc.Cycle(context.Background(), time.Now())
	_ = svc.Cycle(context.Background(), time.Now())

	if got := notifier.countContaining("Margin Notice"); got != 1 {
		t.Fatalf("同一条公告应只告警一次, 实际 %d 次", got)
	}
}

func TestStartupSeedsBaseline(t *testing.T) {
	feed := &stubFeed{items: []news.Announcement{
		{Title: "CME raises silver margin requirements", Link: "https://example.com/a"},
	}}
	notifier := &stubNotifier{}
	tracker := news.NewTracker([]string{"silver"}, []string{"margin"}, noopLogger())

	svc := newTestService(testOptions(), Deps{
		Exchange: &stubExchange{price: decimal.RequireFromString("30.00")},
		Spot:     &stubSpot{price: decimal.RequireFromString("7200")},
		FX:       &stubFX{rate: decimal.RequireFromString("7.2")},
		Notifier: notifier,
		Feed:     feed,
	}, tracker)

	svc.Startup(context.Background())

	if tracker.SeenCount() != 1 {
		t.Fatalf("启动后基线应含 1 条公告, 实际 %d", tracker.SeenCount())
	}
	if got := notifier.countContaining("online"); got != 1 {
		t.Fatalf("应推送上线通知, 实际 %#v", notifier.texts)
	}

	// The seeded announcement must never alert afterwards.
	_ = svc.Cycle(context.Background(), time.Now())
	if got := notifier.countContaining("Margin Notice"); got != 0 {
		t.Fatalf("历史公告不应告警, 实际 %d 次", got)
	}
}
