// Package logging builds the zap logger used across docqa. Every run writes
// to its own timestamped file; console output is opt-in so that log lines do
// not interleave with the interactive UI.
package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration.
type Config struct {
	Dir     string
	Level   string
	Console bool
}

// FileName returns the log file name for a run started at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("rag_system_%s.log", t.Format("20060102_150405"))
}

// New creates the run logger and returns it with the path of its log file.
func New(cfg Config, now time.Time) (*zap.Logger, string, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		l, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, "", fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = l
	}
	dir := cfg.Dir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("creating log directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, FileName(now))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("opening log file: %w", err)
	}

	cores := []zapcore.Core{zapcore.NewCore(newEncoder(), zapcore.AddSync(f), level)}
	if cfg.Console {
		cores = append(cores, zapcore.NewCore(newEncoder(), zapcore.Lock(os.Stderr), level))
	}
	return zap.New(zapcore.NewTee(cores...)), path, nil
}

func newEncoder() zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(encoderCfg)
}

// Sync flushes the logger, ignoring the harmless errors returned when
// syncing a terminal.
func Sync(logger *zap.Logger) error {
	err := logger.Sync()
	var errno syscall.Errno
	if err != nil && errors.As(err, &errno) && (errno == syscall.EINVAL || errno == syscall.ENOTTY) {
		return nil
	}
	return err
}
