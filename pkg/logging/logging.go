// Package logging builds the process logger: JSON lines with ISO-8601
// timestamps and lowercase levels, an optional rotating file sink and an
// optional console tee.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the logger outputs.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string
	// File enables a rotating JSON file sink at this path.
	File string
	// Console tees human-readable output to Stderr.
	Console bool

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Logger is a zap logger together with the sinks it owns.
type Logger struct {
	*zap.Logger
	closers []io.Closer
}

// Close flushes the logger and closes the file sink.
func (l *Logger) Close() error {
	_ = l.Sync()
	var first error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// New builds a logger from cfg and installs it with zap.ReplaceGlobals so
// that zap.L() returns it. With neither a file nor the console enabled,
// JSON goes to Stderr.
func New(cfg Config) (*Logger, error) {
	level := zap.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
	}
	return NewWithWriter(cfg, level, os.Stderr)
}

// NewWithWriter is New with an explicit console writer and level.
func NewWithWriter(cfg Config, level zapcore.Level, console io.Writer) (*Logger, error) {
	enc := encoderConfig()
	l := &Logger{}
	var cores []zapcore.Core

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("log directory: %w", err)
		}
		sink := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, 50),
			MaxBackups: orDefault(cfg.MaxBackups, 7),
			MaxAge:     orDefault(cfg.MaxAgeDays, 14),
			Compress:   cfg.Compress,
		}
		l.closers = append(l.closers, sink)
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(sink), level))
	}
	switch {
	case cfg.Console:
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(console), level))
	case len(cores) == 0:
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(console), level))
	}

	l.Logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.ErrorOutput(zapcore.AddSync(console)))
	zap.ReplaceGlobals(l.Logger)
	l.Debug("logger online", zap.String("file", cfg.File), zap.Bool("console", cfg.Console))
	return l, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
