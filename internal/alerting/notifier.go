package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Notifier 定义告警输送接口。silent 表示静音推送（不触发客户端提示音）。
type Notifier interface {
	Notify(ctx context.Context, text string, silent bool) error
}

// TelegramOptions parameterise the Telegram notifier.
type TelegramOptions struct {
	BotToken    string
	ChatID      string
	APIBase     string
	Timeout     time.Duration
	MaxAttempts int
	RetryWait   time.Duration
}

// TelegramNotifier 通过 Telegram Bot API 推送消息。Delivery retries are
// bounded so a dead endpoint cannot stall the monitoring cycle.
type TelegramNotifier struct {
	opts    TelegramOptions
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewTelegramNotifier 构造 Telegram 告警器。
func NewTelegramNotifier(opts TelegramOptions, logger zerolog.Logger) *TelegramNotifier {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 2 * time.Second
	}
	if opts.APIBase == "" {
		opts.APIBase = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		opts:    opts,
		baseURL: strings.TrimRight(opts.APIBase, "/"),
		client:  &http.Client{Timeout: opts.Timeout},
		logger:  logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify 调用 sendMessage API 推送 HTML 文本，失败时做有限次重试。
func (n *TelegramNotifier) Notify(ctx context.Context, text string, silent bool) error {
	payload := map[string]any{
		"chat_id":                  n.opts.ChatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
		"disable_notification":     silent,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.opts.BotToken)

	var lastErr error
	for attempt := 1; attempt <= n.opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(n.opts.RetryWait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		if err := n.send(ctx, url, body); err != nil {
			lastErr = err
			n.logger.Warn().Err(err).
				Int("attempt", attempt).
				Int("max_attempts", n.opts.MaxAttempts).
				Msg("telegram 发送失败")
			continue
		}

		n.logger.Debug().Bool("silent", silent).Msg("告警已发送 (Telegram)")
		return nil
	}

	return fmt.Errorf("telegram delivery failed after %d attempts: %w", n.opts.MaxAttempts, lastErr)
}

func (n *TelegramNotifier) send(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram 响应码异常: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram 返回 ok=false")
		}
	}

	return nil
}

var _ Notifier = (*TelegramNotifier)(nil)
