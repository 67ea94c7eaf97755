package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with defaults should succeed: %v", err)
	}

	if cfg.Scheduler.PollInterval != 15*time.Minute {
		t.Fatalf("poll_interval default incorrect: %s", cfg.Scheduler.PollInterval)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Fatalf("retry.max_attempts default incorrect: %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Retention.IntradayDays != 3 || cfg.Retention.DailyDays != 60 {
		t.Fatalf("retention defaults incorrect: %+v", cfg.Retention)
	}
	if cfg.Detection.VolumeFloor != 100 || cfg.Detection.DeltaThreshold != 200 {
		t.Fatalf("detection defaults incorrect: %+v", cfg.Detection)
	}
	if cfg.Filter.MinMoneyness != 0.50 || cfg.Filter.MaxMoneyness != 0.99 {
		t.Fatalf("filter moneyness defaults incorrect: %+v", cfg.Filter)
	}
	if cfg.Provider.BatchSize != 250 {
		t.Fatalf("provider.batch_size default incorrect: %d", cfg.Provider.BatchSize)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SPX_PROVIDER_API_KEY", "env-key")
	t.Setenv("SPX_DATABASE_DSN", "postgres://env-host/spx")
	t.Setenv("SPX_SCHEDULER_POLL_INTERVAL", "5m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load should succeed: %v", err)
	}

	if cfg.Provider.APIKey != "env-key" {
		t.Fatalf("provider.api_key should come from environment, got %q", cfg.Provider.APIKey)
	}
	if cfg.Database.DSN != "postgres://env-host/spx" {
		t.Fatalf("database.dsn should come from environment, got %q", cfg.Database.DSN)
	}
	if cfg.Scheduler.PollInterval != 5*time.Minute {
		t.Fatalf("scheduler.poll_interval should come from environment, got %s", cfg.Scheduler.PollInterval)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with defaults should succeed: %v", err)
	}

	cfg.Scheduler.PollInterval = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero poll_interval should fail validation")
	}
	cfg.Scheduler.PollInterval = 15 * time.Minute

	cfg.Filter.MinDTE = 100
	cfg.Filter.MaxDTE = 10
	if err := cfg.Validate(); err == nil {
		t.Fatal("inverted DTE bounds should fail validation")
	}
	cfg.Filter.MinDTE = 3
	cfg.Filter.MaxDTE = 90

	cfg.Alerting.Telegram.Enabled = true
	cfg.Alerting.Telegram.BotToken = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("enabled telegram without bot token should fail validation")
	}
}
