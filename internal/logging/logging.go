// Package logging builds the zap logger shared by the server and the CLI.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the level and encoding of the logger.
type Config struct {
	// Level is debug, info, warn or error. Anything else means info.
	Level string

	// Format is console or json.
	Format string

	// Development turns on zap's development defaults: DPanic panics and
	// warnings carry stack traces.
	Development bool
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "console"}
}

// New builds a logger writing to stderr.
func New(cfg Config) (*zap.Logger, error) {
	zc, err := cfg.zapConfig()
	if err != nil {
		return nil, err
	}
	return zc.Build()
}

func (c Config) zapConfig() (zap.Config, error) {
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Sampling = nil

	zc.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if level, err := zap.ParseAtomicLevel(c.Level); err == nil {
		zc.Level = level
	}

	switch c.Format {
	case "", "console":
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "json":
		zc.Encoding = "json"
		zc.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	default:
		return zc, fmt.Errorf("unknown log format %q", c.Format)
	}
	zc.EncoderConfig.TimeKey = "timestamp"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc, nil
}
