// Package logging builds the process-wide zap logger.
package logging

import (
	"fmt"
	"strings"

	"alcyxob/upload-service/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production-configured zap logger with the level and
// encoding taken from cfg.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	logConfig := zap.NewProductionConfig()
	logConfig.Level = zap.NewAtomicLevelAt(level)
	logConfig.EncoderConfig.TimeKey = "time"
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	switch strings.ToLower(cfg.Encoding) {
	case "", "json":
		logConfig.Encoding = "json"
	case "console":
		logConfig.Encoding = "console"
	default:
		return nil, fmt.Errorf("unsupported log encoding %q", cfg.Encoding)
	}

	return logConfig.Build()
}

// ParseLevel maps a config string to a zap level. Empty means info.
func ParseLevel(raw string) (zapcore.Level, error) {
	if strings.TrimSpace(raw) == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(raw))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", raw, err)
	}
	return level, nil
}
