package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/gregor-nelson/spx/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Filter    FilterConfig    `mapstructure:"filter"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Retention RetentionConfig `mapstructure:"retention"`
	Detection DetectionConfig `mapstructure:"detection"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ProviderConfig covers market data access.
type ProviderConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Underlying     string        `mapstructure:"underlying"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	BatchSize      int           `mapstructure:"batch_size"`
}

// FilterConfig bounds the contract universe captured each cycle.
type FilterConfig struct {
	ContractKind string  `mapstructure:"contract_kind"`
	MinDTE       int     `mapstructure:"min_dte"`
	MaxDTE       int     `mapstructure:"max_dte"`
	MinMoneyness float64 `mapstructure:"min_moneyness"`
	MaxMoneyness float64 `mapstructure:"max_moneyness"`
}

// SchedulerConfig governs sampling cadence around the trading session.
type SchedulerConfig struct {
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	FirstPollDelay time.Duration `mapstructure:"first_poll_delay"`
	EODDelay       time.Duration `mapstructure:"eod_delay"`
}

// RetryConfig governs transient-failure handling for captures.
type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	Delay          time.Duration `mapstructure:"delay"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
}

// RetentionConfig sets how long captured rows are kept.
type RetentionConfig struct {
	IntradayDays int `mapstructure:"intraday_days"`
	DailyDays    int `mapstructure:"daily_days"`
}

// DetectionConfig defines volume-anomaly thresholds.
type DetectionConfig struct {
	VolumeFloor      int64         `mapstructure:"volume_floor"`
	NotionalFloor    float64       `mapstructure:"notional_floor"`
	DeltaThreshold   int64         `mapstructure:"delta_threshold"`
	Multiplier       int64         `mapstructure:"multiplier"`
	DormancyFloor    int64         `mapstructure:"dormancy_floor"`
	ComparisonWindow time.Duration `mapstructure:"comparison_window"`
}

// AlertingConfig defines alert routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Channels []string       `mapstructure:"channels"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes Telegram delivery parameters.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SPX")
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
	v.SetDefault("app.name", "spxmon")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Secrets default to empty so viper's Unmarshal sees the keys and env
	// overrides apply; Unmarshal only decodes registered keys.
	v.SetDefault("provider.api_key", "")
	v.SetDefault("database.dsn", "")
	v.SetDefault("alerting.telegram.bot_token", "")
	v.SetDefault("alerting.telegram.chat_id", "")

	v.SetDefault("provider.base_url", "https://api.polygon.io")
	v.SetDefault("provider.underlying", "SPX")
	v.SetDefault("provider.request_timeout", "30s")
	v.SetDefault("provider.batch_size", 250)

	v.SetDefault("filter.contract_kind", "put")
	v.SetDefault("filter.min_dte", 3)
	v.SetDefault("filter.max_dte", 90)
	v.SetDefault("filter.min_moneyness", 0.50)
	v.SetDefault("filter.max_moneyness", 0.99)

	v.SetDefault("scheduler.poll_interval", "15m")
	v.SetDefault("scheduler.first_poll_delay", "15m")
	v.SetDefault("scheduler.eod_delay", "30m")

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.delay", "60s")
	v.SetDefault("retry.attempt_timeout", "120s")

	v.SetDefault("retention.intraday_days", 3)
	v.SetDefault("retention.daily_days", 60)

	v.SetDefault("detection.volume_floor", int64(100))
	v.SetDefault("detection.notional_floor", 100000.0)
	v.SetDefault("detection.delta_threshold", int64(200))
	v.SetDefault("detection.multiplier", int64(5))
	v.SetDefault("detection.dormancy_floor", int64(100))
	v.SetDefault("detection.comparison_window", "1h")

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.channels", []string{"telegram"})
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		// Unrecognised keys are a misconfiguration, not something to ignore.
		dc.ErrorUnused = true
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scheduler.PollInterval <= 0 {
		return fmt.Errorf("scheduler.poll_interval must be greater than zero")
	}
	if c.Scheduler.FirstPollDelay < 0 {
		return fmt.Errorf("scheduler.first_poll_delay cannot be negative")
	}
	if c.Scheduler.EODDelay < 0 {
		return fmt.Errorf("scheduler.eod_delay cannot be negative")
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.max_attempts must be greater than zero")
	}
	if c.Retention.IntradayDays <= 0 {
		return fmt.Errorf("retention.intraday_days must be greater than zero")
	}
	if c.Retention.DailyDays <= 0 {
		return fmt.Errorf("retention.daily_days must be greater than zero")
	}
	if c.Filter.MinDTE > c.Filter.MaxDTE {
		return fmt.Errorf("filter.min_dte cannot exceed filter.max_dte")
	}
	if c.Filter.MinMoneyness <= 0 || c.Filter.MaxMoneyness <= 0 {
		return fmt.Errorf("filter moneyness bounds must be greater than zero")
	}
	if c.Filter.MinMoneyness > c.Filter.MaxMoneyness {
		return fmt.Errorf("filter.min_moneyness cannot exceed filter.max_moneyness")
	}
	if c.Detection.Multiplier <= 1 {
		return fmt.Errorf("detection.multiplier must be greater than one")
	}
	if c.Detection.ComparisonWindow <= 0 {
		return fmt.Errorf("detection.comparison_window must be greater than zero")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required when telegram alerting is enabled")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required when telegram alerting is enabled")
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
