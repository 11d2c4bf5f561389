// Package logging builds the host's zap logger.
//
// Stdout carries the native messaging protocol, so logs go to stderr or to a
// rotating file and never to stdout.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// DefaultLevel is used when Config.Level is empty.
	DefaultLevel = "info"

	defaultMaxSizeMB  = 10
	defaultMaxBackups = 3
	defaultMaxAgeDays = 28
)

// Config selects where logs go and how verbose they are.
type Config struct {
	// File is the log file path. Empty means stderr.
	File string
	// Level is a zap level name such as "debug", "info" or "warn".
	Level string
	// MaxSizeMB is the size at which the log file is rotated.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept.
	MaxBackups int
	// MaxAgeDays is how long rotated files are kept.
	MaxAgeDays int
}

// New creates a JSON logger for cfg.
func New(cfg Config) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	out, err := writer(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithWriter(out, level), nil
}

// NewWithWriter creates a JSON logger writing to w at level.
func NewWithWriter(w io.Writer, level zapcore.Level) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core)
}

func parseLevel(name string) (zapcore.Level, error) {
	if name == "" {
		name = DefaultLevel
	}
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

func writer(cfg Config) (io.Writer, error) {
	if cfg.File == "" {
		return os.Stderr, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    orDefault(cfg.MaxSizeMB, defaultMaxSizeMB),
		MaxBackups: orDefault(cfg.MaxBackups, defaultMaxBackups),
		MaxAge:     orDefault(cfg.MaxAgeDays, defaultMaxAgeDays),
	}, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
