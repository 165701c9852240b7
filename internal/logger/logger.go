// Package logger builds the zap loggers used by the CLI and server.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logger flavour. Empty fields keep the preset's value.
type Options struct {
	Development bool
	Level       string // debug, info, warn, error
	Encoding    string // json or console
}

// New creates a new zap logger
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config

	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	if opts.Level != "" {
		lvl, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	switch opts.Encoding {
	case "":
	case "json", "console":
		cfg.Encoding = opts.Encoding
	default:
		return nil, fmt.Errorf("unknown log encoding %q", opts.Encoding)
	}

	return cfg.Build()
}

// Must creates a logger or panics
func Must(opts Options) *zap.Logger {
	log, err := New(opts)
	if err != nil {
		panic(err)
	}
	return log
}
