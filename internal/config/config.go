package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"silver-sentinel/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Market    MarketConfig    `mapstructure:"market"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	News      NewsConfig      `mapstructure:"news"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity for the audit store.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SchedulerConfig governs monitoring cadence.
type SchedulerConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	StartupDelay  time.Duration `mapstructure:"startup_delay"`
	ErrorCooldown time.Duration `mapstructure:"error_cooldown"`
}

// MarketConfig groups the price sources and the unit conversion between them.
type MarketConfig struct {
	Comex    SourceConfig   `mapstructure:"comex"`
	Shanghai ShanghaiConfig `mapstructure:"shanghai"`
	FX       FXConfig       `mapstructure:"fx"`

	// OuncesPerKilogram converts Shanghai CNY/kg quotes to a per-ounce basis.
	OuncesPerKilogram float64 `mapstructure:"ounces_per_kilogram"`
}

// SourceConfig parameterises a Yahoo Finance chart source.
type SourceConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Symbol         string        `mapstructure:"symbol"`
	MinPrice       float64       `mapstructure:"min_price"`
	MaxPrice       float64       `mapstructure:"max_price"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// ShanghaiConfig covers the spot providers tried in order (Sina, then Eastmoney).
type ShanghaiConfig struct {
	SinaURL        string        `mapstructure:"sina_url"`
	EastmoneyURL   string        `mapstructure:"eastmoney_url"`
	MinPrice       float64       `mapstructure:"min_price"`
	MaxPrice       float64       `mapstructure:"max_price"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	Referer        string        `mapstructure:"referer"`
}

// FXConfig covers the USD/CNY rate source and its hard fallback.
type FXConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Symbol         string        `mapstructure:"symbol"`
	FallbackRate   float64       `mapstructure:"fallback_rate"`
	MinRate        float64       `mapstructure:"min_rate"`
	MaxRate        float64       `mapstructure:"max_rate"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// AlertingConfig defines alert thresholds and routing.
type AlertingConfig struct {
	Enabled        bool           `mapstructure:"enabled"`
	ThresholdUSD   float64        `mapstructure:"threshold_usd"`
	ReportInterval time.Duration  `mapstructure:"report_interval"`
	DegradedAfter  int            `mapstructure:"degraded_after"`
	FatalAfter     int            `mapstructure:"fatal_after"`
	Telegram       TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	APIBase        string        `mapstructure:"api_base"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	RetryWait      time.Duration `mapstructure:"retry_wait"`
}

// NewsConfig governs the margin announcement feed watch.
type NewsConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	FeedURL         string        `mapstructure:"feed_url"`
	ScanLimit       int           `mapstructure:"scan_limit"`
	SubjectKeywords []string      `mapstructure:"subject_keywords"`
	MarginKeywords  []string      `mapstructure:"margin_keywords"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SILVERSENTINEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "silversentinel")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.interval", "60s")
	v.SetDefault("scheduler.startup_delay", "0s")
	v.SetDefault("scheduler.error_cooldown", "10s")

	v.SetDefault("market.comex.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("market.comex.symbol", "SI=F")
	v.SetDefault("market.comex.min_price", 15.0)
	v.SetDefault("market.comex.max_price", 50.0)
	v.SetDefault("market.comex.request_timeout", "10s")
	v.SetDefault("market.comex.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	v.SetDefault("market.shanghai.sina_url", "https://stock2.finance.sina.com.cn/futures/api/json.php/IndexService.getInnerFuturesDailyKLine?symbol=ag0")
	v.SetDefault("market.shanghai.eastmoney_url", "http://push2.eastmoney.com/api/qt/stock/get?secid=113.agm&fields=f43,f44,f45,f46")
	v.SetDefault("market.shanghai.min_price", 5000.0)
	v.SetDefault("market.shanghai.max_price", 8000.0)
	v.SetDefault("market.shanghai.request_timeout", "10s")
	v.SetDefault("market.shanghai.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("market.shanghai.referer", "https://finance.sina.com.cn/")

	v.SetDefault("market.fx.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("market.fx.symbol", "USDCNY=X")
	v.SetDefault("market.fx.fallback_rate", 7.28)
	v.SetDefault("market.fx.min_rate", 6.0)
	v.SetDefault("market.fx.max_rate", 8.0)
	v.SetDefault("market.fx.request_timeout", "10s")
	v.SetDefault("market.fx.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	v.SetDefault("market.ounces_per_kilogram", 32.1507466)

	v.SetDefault("alerting.enabled", true)
	v.SetDefault("alerting.threshold_usd", 0.3)
	v.SetDefault("alerting.report_interval", "1h")
	v.SetDefault("alerting.degraded_after", 5)
	v.SetDefault("alerting.fatal_after", 10)
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("alerting.telegram.request_timeout", "10s")
	v.SetDefault("alerting.telegram.max_attempts", 3)
	v.SetDefault("alerting.telegram.retry_wait", "2s")

	v.SetDefault("news.enabled", true)
	v.SetDefault("news.feed_url", "https://news.google.com/rss/search?q=site:cmegroup.com+%22Silver%22+OR+%22Margin%22+OR+%22Performance+Bond%22&hl=en-US&gl=US&ceid=US:en")
	v.SetDefault("news.scan_limit", 10)
	v.SetDefault("news.subject_keywords", []string{"silver", "white metal", "ag"})
	v.SetDefault("news.margin_keywords", []string{
		"margin", "performance bond", "collateral",
		"initial margin", "maintenance margin",
		"margin increase", "margin decrease",
	})
	v.SetDefault("news.request_timeout", "15s")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Market.OuncesPerKilogram <= 0 {
		return fmt.Errorf("market.ounces_per_kilogram must be greater than zero")
	}
	if c.Market.Comex.MinPrice >= c.Market.Comex.MaxPrice {
		return fmt.Errorf("market.comex price band is empty")
	}
	if c.Market.Shanghai.MinPrice >= c.Market.Shanghai.MaxPrice {
		return fmt.Errorf("market.shanghai price band is empty")
	}
	if c.Market.FX.FallbackRate <= 0 {
		return fmt.Errorf("market.fx.fallback_rate must be greater than zero")
	}
	if c.Alerting.ThresholdUSD < 0 {
		return fmt.Errorf("alerting.threshold_usd cannot be negative")
	}
	if c.Alerting.ReportInterval <= 0 {
		return fmt.Errorf("alerting.report_interval must be greater than zero")
	}
	if c.Alerting.DegradedAfter <= 0 {
		return fmt.Errorf("alerting.degraded_after must be greater than zero")
	}
	if c.Alerting.FatalAfter < c.Alerting.DegradedAfter {
		return fmt.Errorf("alerting.fatal_after cannot be below alerting.degraded_after")
	}
	if c.News.Enabled {
		if c.News.FeedURL == "" {
			return fmt.Errorf("news.feed_url must be configured when news is enabled")
		}
		if c.News.ScanLimit <= 0 {
			return fmt.Errorf("news.scan_limit must be greater than zero")
		}
		if len(c.News.SubjectKeywords) == 0 || len(c.News.MarginKeywords) == 0 {
			return fmt.Errorf("news keyword sets cannot be empty")
		}
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token 必须配置")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id 必须配置")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
