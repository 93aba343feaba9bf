package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RunLogs are the two log files written for one processing run.
// Errors gets one timestamped line per failure, Missing gets one bare
// title per unmatched record.
type RunLogs struct {
	Errors  *zap.Logger
	Missing *zap.Logger

	ErrorPath   string
	MissingPath string

	files []*os.File
}

// OpenRunLogs creates <baseDir>/<logs> and opens the run's log files
func OpenRunLogs(baseDir string, cfg *Config, now time.Time) (*RunLogs, error) {
	logsDir := filepath.Join(baseDir, cfg.LogsDir)
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("create logs dir: %w", err)
	}

	stamp := now.Format("20060102_150405")
	rl := &RunLogs{
		ErrorPath:   filepath.Join(logsDir, strings.ReplaceAll(cfg.ErrorLogPattern, "{timestamp}", stamp)),
		MissingPath: filepath.Join(logsDir, strings.ReplaceAll(cfg.MissingLogPattern, "{timestamp}", stamp)),
	}

	errFile, err := rl.open(rl.ErrorPath)
	if err != nil {
		return nil, err
	}
	missFile, err := rl.open(rl.MissingPath)
	if err != nil {
		rl.Close()
		return nil, err
	}

	rl.Errors = zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		MessageKey:       "msg",
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000"),
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " - ",
		LineEnding:       zapcore.DefaultLineEnding,
	}), zapcore.AddSync(errFile), zapcore.InfoLevel))

	rl.Missing = zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey: "msg",
		LineEnding: zapcore.DefaultLineEnding,
	}), zapcore.AddSync(missFile), zapcore.InfoLevel))

	return rl, nil
}

func (rl *RunLogs) open(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}
	rl.files = append(rl.files, f)
	return f, nil
}

// Close flushes and closes both log files
func (rl *RunLogs) Close() error {
	if rl.Errors != nil {
		_ = rl.Errors.Sync()
	}
	if rl.Missing != nil {
		_ = rl.Missing.Sync()
	}
	var firstErr error
	for _, f := range rl.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	rl.files = nil
	return firstErr
}

// NewConsoleLogger builds the operator-facing logger used by the CLI
func NewConsoleLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	return cfg.Build()
}
