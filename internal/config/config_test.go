package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/newthinker/strategylab/internal/core"
)

func TestLoad_FromFile(t *testing.T) {
	content := []byte(`
backtest:
  strategy: macd
  interval: 15m
  stop_loss_pct: 3
  binary: true
  expiration_minutes: 45

server:
  host: "127.0.0.1"
  port: 9090
  api_key: "${STRATEGYLAB_TEST_KEY}"

storage:
  type: localfs
  path: "/tmp/strategylab/reports"
`)

	t.Setenv("STRATEGYLAB_TEST_KEY", "secret")

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.APIKey != "secret" {
		t.Errorf("expected api_key expanded from env, got %q", cfg.Server.APIKey)
	}
	if cfg.Backtest.Strategy != "macd" || cfg.Backtest.StopLossPct != 3 {
		t.Errorf("unexpected backtest section %+v", cfg.Backtest)
	}
	// keys absent from the file keep their defaults
	if cfg.Backtest.TakeProfitPct != 4 {
		t.Errorf("expected default take_profit_pct 4, got %g", cfg.Backtest.TakeProfitPct)
	}
	if cfg.Levels.Window != 5 {
		t.Errorf("expected default levels window 5, got %d", cfg.Levels.Window)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.ML.Threshold != 0.6 {
		t.Errorf("expected default ml threshold 0.6, got %f", cfg.ML.Threshold)
	}
	if cfg.Cache.DefaultExpiration != 30*time.Minute {
		t.Errorf("expected default cache expiration 30m, got %s", cfg.Cache.DefaultExpiration)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		is     error
	}{
		{"valid config", func(*Config) {}, nil},
		{"invalid port - zero", func(c *Config) { c.Server.Port = 0 }, core.ErrConfigInvalid},
		{"invalid port - too high", func(c *Config) { c.Server.Port = 70000 }, core.ErrConfigInvalid},
		{"unknown strategy", func(c *Config) { c.Backtest.Strategy = "grid" }, core.ErrUnknownStrategy},
		{"bad interval", func(c *Config) { c.Backtest.Interval = "5q" }, core.ErrConfigInvalid},
		{"zero stop loss", func(c *Config) { c.Backtest.StopLossPct = 0 }, core.ErrConfigInvalid},
		{"trailing without pct", func(c *Config) { c.Backtest.TrailingEnabled = true; c.Backtest.TrailingPct = 0 }, core.ErrConfigInvalid},
		{"trailing disabled ignores pct", func(c *Config) { c.Backtest.TrailingPct = 0 }, nil},
		{"binary without stake", func(c *Config) { c.Backtest.Binary = true; c.Backtest.Stake = 0 }, core.ErrConfigInvalid},
		{"ml threshold", func(c *Config) { c.ML.Threshold = 1.5 }, core.ErrConfigInvalid},
		{"ml horizon", func(c *Config) { c.ML.Horizon = 0 }, core.ErrConfigInvalid},
		{"ml model", func(c *Config) { c.ML.Model = "forest" }, core.ErrConfigInvalid},
		{"levels window", func(c *Config) { c.Levels.Window = 1 }, core.ErrConfigInvalid},
		{"sweep parallelism", func(c *Config) { c.Sweep.Parallelism = 0 }, core.ErrConfigInvalid},
		{"s3 without bucket", func(c *Config) { c.Storage.Type = "s3" }, core.ErrConfigMissing},
		{"unknown storage", func(c *Config) { c.Storage.Type = "ftp" }, core.ErrConfigInvalid},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, core.ErrConfigInvalid},
		{"tracing without endpoint", func(c *Config) { c.Tracing.Enabled = true; c.Tracing.Endpoint = "" }, core.ErrConfigMissing},
		{"tracing enabled", func(c *Config) { c.Tracing.Enabled = true }, nil},
		{"telegram without chat", func(c *Config) { c.Notify.Telegram.BotToken = "t" }, core.ErrConfigMissing},
		{"telegram complete", func(c *Config) { c.Notify.Telegram = TelegramConfig{BotToken: "t", ChatID: "c"} }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.is == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.is) {
				t.Errorf("Validate() error = %v, want %v", err, tt.is)
			}
		})
	}
}

func TestBacktestConfig_Params(t *testing.T) {
	b := Defaults().Backtest
	b.TrailingEnabled = true

	p := b.ContinuousParams()
	if p.StopLoss != 0.02 || p.TakeProfit != 0.04 || p.TrailingStop != 0.01 || !p.TrailingEnabled {
		t.Errorf("unexpected continuous params %+v", p)
	}

	bp, err := b.BinaryParams()
	if err != nil {
		t.Fatalf("BinaryParams: %v", err)
	}
	if bp.ExpirationSteps != 3 || bp.Payout != 0.8 || bp.Stake != 10 {
		t.Errorf("unexpected binary params %+v", bp)
	}

	b.ExpirationMinutes = 4
	if _, err := b.BinaryParams(); !errors.Is(err, core.ErrInsufficientHorizon) {
		t.Errorf("expected ErrInsufficientHorizon, got %v", err)
	}
}
