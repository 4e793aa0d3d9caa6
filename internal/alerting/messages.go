package alerting

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const divider = "━━━━━━━━━━━━━━━━"

// maxErrorLen bounds error text embedded in exception messages.
const maxErrorLen = 200

// ReportData carries the fields of the periodic status report.
type ReportData struct {
	ComexUSD    decimal.Decimal
	ShanghaiUSD decimal.Decimal
	ShanghaiCNY decimal.Decimal
	FXRate      decimal.Decimal
	SpreadUSD   decimal.Decimal
	Benchmark   decimal.Decimal
	ChangeUSD   decimal.Decimal
	ChangePct   decimal.Decimal
	SuccessRate float64
}

// RenderReport formats the hourly war-room report.
func (d ReportData) RenderReport() string {
	b := strings.Builder{}
	b.WriteString("⏰ <b>Hourly Report</b>\n")
	b.WriteString(divider + "\n")
	b.WriteString(fmt.Sprintf("🇺🇸 COMEX: <b>$%s</b>\n", d.ComexUSD.StringFixed(2)))
	b.WriteString(fmt.Sprintf("🇨🇳 Shanghai: $%s (¥%s/kg)\n", d.ShanghaiUSD.StringFixed(2), d.ShanghaiCNY.StringFixed(0)))
	b.WriteString(fmt.Sprintf("💱 FX: %s\n", d.FXRate.StringFixed(4)))
	b.WriteString(fmt.Sprintf("💰 Spread: %s\n", signedUSD(d.SpreadUSD)))
	b.WriteString(divider + "\n")
	b.WriteString(fmt.Sprintf("📊 Benchmark: $%s\n", d.Benchmark.StringFixed(2)))
	b.WriteString(fmt.Sprintf("📈 Change: %s (%s%%)\n", signedUSD(d.ChangeUSD), signedPct(d.ChangePct)))
	b.WriteString(divider + "\n")
	b.WriteString(fmt.Sprintf("✅ Health: %.1f%%", d.SuccessRate))
	return b.String()
}

// PriceAlertData carries the fields of a threshold breach alert.
type PriceAlertData struct {
	Rising      bool
	PriceUSD    decimal.Decimal
	Benchmark   decimal.Decimal
	ChangeUSD   decimal.Decimal
	ChangePct   decimal.Decimal
	ShanghaiUSD decimal.Decimal
	SpreadUSD   decimal.Decimal
	At          time.Time
}

// RenderPriceAlert formats a rise/fall alert.
func (d PriceAlertData) RenderPriceAlert() string {
	emoji, trend := "📉", "Fall"
	if d.Rising {
		emoji, trend = "📈", "Rise"
	}

	b := strings.Builder{}
	b.WriteString(fmt.Sprintf("🚨 <b>%s %s Alert!</b>\n", emoji, trend))
	b.WriteString(divider + "\n")
	b.WriteString(fmt.Sprintf("📍 Price: <b>$%s</b>\n", d.PriceUSD.StringFixed(2)))
	b.WriteString(fmt.Sprintf("📊 Benchmark: $%s\n", d.Benchmark.StringFixed(2)))
	b.WriteString(fmt.Sprintf("📈 Change: <b>%s</b> (%s%%)\n", signedUSD(d.ChangeUSD), signedPct(d.ChangePct)))
	b.WriteString(divider + "\n")
	b.WriteString(fmt.Sprintf("🇨🇳 Shanghai: $%s\n", d.ShanghaiUSD.StringFixed(2)))
	b.WriteString(fmt.Sprintf("💰 Spread: %s\n", signedUSD(d.SpreadUSD)))
	b.WriteString(fmt.Sprintf("⏰ Time: %s", d.At.Format("2006-01-02 15:04:05")))
	return b.String()
}

// RenderMarginNotice formats an exchange margin announcement alert.
func RenderMarginNotice(title, published, link string) string {
	b := strings.Builder{}
	b.WriteString("🚨 <b>CME Margin Notice!</b>\n")
	b.WriteString(divider + "\n")
	b.WriteString(fmt.Sprintf("📋 Title: <b>%s</b>\n", html.EscapeString(title)))
	b.WriteString(fmt.Sprintf("📅 Published: %s\n", html.EscapeString(published)))
	b.WriteString(fmt.Sprintf("🔗 Link: <a href='%s'>full announcement</a>\n", html.EscapeString(link)))
	b.WriteString(divider + "\n")
	b.WriteString("⚠️ Check position impact immediately!")
	return b.String()
}

// RenderStartup formats the online notification.
func RenderStartup(interval, reportInterval time.Duration, threshold decimal.Decimal) string {
	b := strings.Builder{}
	b.WriteString("🤖 <b>Silver Sentinel online</b>\n")
	b.WriteString(divider + "\n")
	b.WriteString(fmt.Sprintf("⏱ Check interval: %s\n", interval))
	b.WriteString(fmt.Sprintf("📊 Alert threshold: ±$%s\n", threshold.String()))
	b.WriteString(fmt.Sprintf("⏰ Report interval: %s\n", reportInterval))
	b.WriteString(divider + "\n")
	b.WriteString("✅ Monitoring started")
	return b.String()
}

// RenderShutdown formats the final statistics notification.
func RenderShutdown(totalChecks int64, successRate float64, at time.Time) string {
	b := strings.Builder{}
	b.WriteString("🛑 <b>System stopped</b>\n")
	b.WriteString(divider + "\n")
	b.WriteString(fmt.Sprintf("📊 Total checks: %d\n", totalChecks))
	b.WriteString(fmt.Sprintf("✅ Success rate: %.1f%%\n", successRate))
	b.WriteString(fmt.Sprintf("⏰ Stopped at: %s", at.Format("2006-01-02 15:04:05")))
	return b.String()
}

// RenderDegraded formats the consecutive-failure warning.
func RenderDegraded(failures int) string {
	return fmt.Sprintf(
		"⚠️ <b>System warning</b>\nPrice fetch failed %d times in a row\nCheck network connectivity and API status",
		failures,
	)
}

// RenderException formats the fatal-adjacent escalation, truncating the error.
func RenderException(failures int, errMsg string) string {
	if len(errMsg) > maxErrorLen {
		errMsg = errMsg[:maxErrorLen]
	}
	return fmt.Sprintf(
		"🔥 <b>System exception</b>\nMore than %d consecutive failures\nError: %s",
		failures, html.EscapeString(errMsg),
	)
}

func signedUSD(d decimal.Decimal) string {
	if d.Sign() >= 0 {
		return "$+" + d.StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

func signedPct(d decimal.Decimal) string {
	if d.Sign() >= 0 {
		return "+" + d.StringFixed(2)
	}
	return d.StringFixed(2)
}
