package alerting

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestRenderReportSignsValues(t *testing.T) {
	data := ReportData{
		ComexUSD:    decimal.RequireFromString("32.00"),
		ShanghaiUSD: decimal.RequireFromString("31.10"),
		ShanghaiCNY: decimal.RequireFromString("7200"),
		FXRate:      decimal.RequireFromString("7.2"),
		SpreadUSD:   decimal.RequireFromString("-0.90"),
		Benchmark:   decimal.RequireFromString("31.80"),
		ChangeUSD:   decimal.RequireFromString("0.20"),
		ChangePct:   decimal.RequireFromString("0.63"),
		SuccessRate: 99.5,
	}

	text := data.RenderReport()
	for _, want := range []string{"$32.00", "¥7200/kg", "7.2000", "$-0.90", "$+0.20", "+0.63%", "99.5%"} {
		if !strings.Contains(text, want) {
			t.Fatalf("报告应包含 %q:\n%s", want, text)
		}
	}
}

func TestRenderPriceAlertDirection(t *testing.T) {
	data := PriceAlertData{
		Rising:    true,
		PriceUSD:  decimal.RequireFromString("30.40"),
		Benchmark: decimal.RequireFromString("30.00"),
		ChangeUSD: decimal.RequireFromString("0.40"),
		ChangePct: decimal.RequireFromString("1.33"),
		At:        time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC),
	}

	text := data.RenderPriceAlert()
	if !strings.Contains(text, "Rise Alert") {
		t.Fatalf("上涨告警应标注 Rise:\n%s", text)
	}

	data.Rising = false
	data.ChangeUSD = decimal.RequireFromString("-0.40")
	text = data.RenderPriceAlert()
	if !strings.Contains(text, "Fall Alert") {
		t.Fatalf("下跌告警应标注 Fall:\n%s", text)
	}
	if !strings.Contains(text, "$-0.40") {
		t.Fatalf("下跌额应带负号:\n%s", text)
	}
}

func TestRenderMarginNoticeEscapesHTML(t *testing.T) {
	text := RenderMarginNotice("CME <margin> & silver", "2026-08-25", "https://example.com/x?a=1&b=2")
	if strings.Contains(text, "<margin>") {
		t.Fatalf("标题应做 HTML 转义:\n%s", text)
	}
	if !strings.Contains(text, "&lt;margin&gt;") {
		t.Fatalf("转义结果缺失:\n%s", text)
	}
}

func TestRenderExceptionTruncatesError(t *testing.T) {
	long := strings.Repeat("x", 500)
	text := RenderException(10, long)
	if strings.Contains(text, strings.Repeat("x", 201)) {
		t.Fatalf("错误文本应截断到 %d 字符", maxErrorLen)
	}
	if !strings.Contains(text, strings.Repeat("x", 200)) {
		t.Fatalf("截断后仍应保留前 %d 字符", maxErrorLen)
	}
}
