package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/newthinker/strategylab/internal/backtest"
	"github.com/newthinker/strategylab/internal/core"
	"github.com/newthinker/strategylab/internal/indicator"
	"github.com/newthinker/strategylab/internal/learn"
	"github.com/newthinker/strategylab/internal/signals"
)

// EnvPrefix prefixes environment overrides, e.g. STRATEGYLAB_SERVER_PORT.
const EnvPrefix = "STRATEGYLAB"

type Config struct {
	Backtest   BacktestConfig  `mapstructure:"backtest"`
	ML         MLConfig        `mapstructure:"ml"`
	Indicators IndicatorConfig `mapstructure:"indicators"`
	Levels     LevelsConfig    `mapstructure:"levels"`
	Sweep      SweepConfig     `mapstructure:"sweep"`
	Server     ServerConfig    `mapstructure:"server"`
	Storage    StorageConfig   `mapstructure:"storage"`
	Cache      CacheConfig     `mapstructure:"cache"`
	Metrics    MetricsConfig   `mapstructure:"metrics"`
	Log        LogConfig       `mapstructure:"log"`
	Tracing    TracingConfig   `mapstructure:"tracing"`
	Notify     NotifyConfig    `mapstructure:"notify"`
}

// BacktestConfig holds simulator settings. Percentages are given as
// percent (5 == 5%).
type BacktestConfig struct {
	Strategy          string  `mapstructure:"strategy"`
	Interval          string  `mapstructure:"interval"`
	StopLossPct       float64 `mapstructure:"stop_loss_pct"`
	TakeProfitPct     float64 `mapstructure:"take_profit_pct"`
	TrailingEnabled   bool    `mapstructure:"trailing_enabled"`
	TrailingPct       float64 `mapstructure:"trailing_pct"`
	Binary            bool    `mapstructure:"binary"`
	ExpirationMinutes int     `mapstructure:"expiration_minutes"`
	PayoutPct         float64 `mapstructure:"payout_pct"`
	Stake             float64 `mapstructure:"stake"`
}

// MLConfig holds learned-signal settings.
type MLConfig struct {
	Model         string   `mapstructure:"model"` // "boost" or "logreg"
	Features      []string `mapstructure:"features"`
	Horizon       int      `mapstructure:"horizon"`
	Threshold     float64  `mapstructure:"threshold"`
	TrainFraction float64  `mapstructure:"train_fraction"`
}

// IndicatorConfig holds indicator periods used when annotating raw data.
type IndicatorConfig struct {
	EMAFast      int     `mapstructure:"ema_fast"`
	EMASlow      int     `mapstructure:"ema_slow"`
	RSI          int     `mapstructure:"rsi"`
	MACDFast     int     `mapstructure:"macd_fast"`
	MACDSlow     int     `mapstructure:"macd_slow"`
	MACDSignal   int     `mapstructure:"macd_signal"`
	StochK       int     `mapstructure:"stoch_k"`
	StochD       int     `mapstructure:"stoch_d"`
	ATR          int     `mapstructure:"atr"`
	VWAP         int     `mapstructure:"vwap"`
	VolumeSMA    int     `mapstructure:"volume_sma"`
	Bollinger    int     `mapstructure:"bollinger"`
	BollingerStd float64 `mapstructure:"bollinger_std"`
}

// LevelsConfig holds fractal detector settings.
type LevelsConfig struct {
	Window       int     `mapstructure:"window"`
	ThresholdPct float64 `mapstructure:"threshold_pct"`
}

// SweepConfig bounds parallel runs.
type SweepConfig struct {
	Parallelism int `mapstructure:"parallelism"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	APIKey      string `mapstructure:"api_key"`
	DataDir     string `mapstructure:"data_dir"`
	JobTTLHours int    `mapstructure:"job_ttl_hours"`
	MaxJobs     int    `mapstructure:"max_jobs"`
}

// StorageConfig selects where run reports are saved.
type StorageConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// CacheConfig holds in-memory cache lifetimes.
type CacheConfig struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// TracingConfig holds OpenTelemetry export settings.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"` // OTLP gRPC collector
	ServiceName string `mapstructure:"service_name"`
}

// NotifyConfig selects where finished API runs are announced. Empty
// sections are disabled.
type NotifyConfig struct {
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type WebhookConfig struct {
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// Load reads configuration from file on top of Defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	p := indicator.DefaultParams()
	return &Config{
		Backtest: BacktestConfig{
			Strategy:          string(signals.Momentum),
			Interval:          "5m",
			StopLossPct:       2,
			TakeProfitPct:     4,
			TrailingPct:       1,
			ExpirationMinutes: 15,
			PayoutPct:         80,
			Stake:             10,
		},
		ML: MLConfig{
			Model:         learn.ModelBoost,
			Horizon:       5,
			Threshold:     0.6,
			TrainFraction: 0.8,
		},
		Indicators: IndicatorConfig{
			EMAFast:      p.EMAFast,
			EMASlow:      p.EMASlow,
			RSI:          p.RSI,
			MACDFast:     p.MACDFast,
			MACDSlow:     p.MACDSlow,
			MACDSignal:   p.MACDSignal,
			StochK:       p.StochK,
			StochD:       p.StochD,
			ATR:          p.ATR,
			VWAP:         p.VWAP,
			VolumeSMA:    p.VolumeSMA,
			Bollinger:    p.Bollinger,
			BollingerStd: p.BollingerStd,
		},
		Levels: LevelsConfig{
			Window:       5,
			ThresholdPct: 1,
		},
		Sweep: SweepConfig{
			Parallelism: 4,
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			DataDir:     "data",
			JobTTLHours: 1,
			MaxJobs:     100,
		},
		Storage: StorageConfig{
			Type: "localfs",
			Path: "reports",
		},
		Cache: CacheConfig{
			DefaultExpiration: 30 * time.Minute,
			CleanupInterval:   10 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "json",
		},
		Tracing: TracingConfig{
			Endpoint:    "localhost:4317",
			ServiceName: "strategylab",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf(format, args...))
	}

	// Backtest validation
	b := c.Backtest
	if _, err := signals.Parse(b.Strategy); err != nil {
		return invalid("strategy: %w", err)
	}
	if _, err := core.IntervalMinutes(b.Interval); err != nil {
		return invalid("interval: %w", err)
	}
	if b.StopLossPct <= 0 || b.StopLossPct >= 100 {
		return invalid("stop_loss_pct must be between 0 and 100, got %g", b.StopLossPct)
	}
	if b.TakeProfitPct <= 0 {
		return invalid("take_profit_pct must be positive, got %g", b.TakeProfitPct)
	}
	if b.TrailingEnabled && (b.TrailingPct <= 0 || b.TrailingPct >= 100) {
		return invalid("trailing_pct must be between 0 and 100, got %g", b.TrailingPct)
	}
	if b.Binary {
		if b.ExpirationMinutes <= 0 {
			return invalid("expiration_minutes must be positive, got %d", b.ExpirationMinutes)
		}
		if b.PayoutPct <= 0 {
			return invalid("payout_pct must be positive, got %g", b.PayoutPct)
		}
		if b.Stake <= 0 {
			return invalid("stake must be positive, got %g", b.Stake)
		}
	}

	// ML validation
	if c.ML.Threshold < 0 || c.ML.Threshold > 1 {
		return invalid("ml threshold must be between 0 and 1, got %g", c.ML.Threshold)
	}
	if c.ML.Horizon < 1 {
		return invalid("ml horizon must be at least 1, got %d", c.ML.Horizon)
	}
	if c.ML.TrainFraction <= 0 || c.ML.TrainFraction >= 1 {
		return invalid("ml train_fraction must be between 0 and 1, got %g", c.ML.TrainFraction)
	}
	if _, err := learn.TrainerByName(c.ML.Model); err != nil {
		return err
	}

	// Levels validation
	if c.Levels.Window < 2 {
		return invalid("levels window must be at least 2, got %d", c.Levels.Window)
	}
	if c.Levels.ThresholdPct <= 0 {
		return invalid("levels threshold_pct must be positive, got %g", c.Levels.ThresholdPct)
	}

	if c.Sweep.Parallelism < 1 {
		return invalid("sweep parallelism must be at least 1, got %d", c.Sweep.Parallelism)
	}

	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("port must be between 1 and 65535, got %d", c.Server.Port)
	}

	// Storage validation
	switch c.Storage.Type {
	case "localfs":
		if c.Storage.Path == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("storage path required for localfs"))
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("s3 bucket required when storage type is s3"))
		}
	default:
		return invalid("unknown storage type %q", c.Storage.Type)
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("tracing endpoint required when tracing is enabled"))
	}

	if tg := c.Notify.Telegram; (tg.BotToken == "") != (tg.ChatID == "") {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("telegram needs both bot_token and chat_id"))
	}

	if c.Log.Level != "" {
		if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
			return invalid("log level: %w", err)
		}
	}

	return nil
}

// ContinuousParams converts the percent settings to simulator fractions.
func (b BacktestConfig) ContinuousParams() backtest.Params {
	return backtest.Params{
		StopLoss:        b.StopLossPct / 100,
		TakeProfit:      b.TakeProfitPct / 100,
		TrailingEnabled: b.TrailingEnabled,
		TrailingStop:    b.TrailingPct / 100,
	}
}

// BinaryParams resolves the expiration window against the bar interval.
func (b BacktestConfig) BinaryParams() (backtest.BinaryParams, error) {
	steps, err := backtest.ExpirationSteps(b.ExpirationMinutes, b.Interval)
	if err != nil {
		return backtest.BinaryParams{}, err
	}
	return backtest.BinaryParams{
		ExpirationSteps: steps,
		Payout:          b.PayoutPct / 100,
		Stake:           b.Stake,
	}, nil
}

// Params converts the indicator periods.
func (i IndicatorConfig) Params() indicator.Params {
	return indicator.Params{
		EMAFast:      i.EMAFast,
		EMASlow:      i.EMASlow,
		RSI:          i.RSI,
		MACDFast:     i.MACDFast,
		MACDSlow:     i.MACDSlow,
		MACDSignal:   i.MACDSignal,
		StochK:       i.StochK,
		StochD:       i.StochD,
		ATR:          i.ATR,
		VWAP:         i.VWAP,
		VolumeSMA:    i.VolumeSMA,
		Bollinger:    i.Bollinger,
		BollingerStd: i.BollingerStd,
	}
}

// Trainer resolves the configured model.
func (m MLConfig) Trainer() (learn.Trainer, error) {
	return learn.TrainerByName(m.Model)
}
