// Package config loads widgetry settings from three layers, highest
// precedence last:
//
//  1. an optional .env file next to the settings file,
//  2. the YAML settings file,
//  3. WIDGETRY_ environment variables, where "__" separates keys
//     (WIDGETRY_FILL__STRATEGY sets fill.strategy).
//
// Unset keys keep the values of [Default]. The merged settings are
// validated before they are returned.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/go-drift/widgetry/pkg/core"
	"github.com/go-drift/widgetry/pkg/logging"
	"github.com/go-drift/widgetry/pkg/version"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "WIDGETRY_"

// Fill configures the session default fill strategy.
type Fill struct {
	Strategy     string        `koanf:"strategy" validate:"oneof=default wait guarded"`
	WaitTimeout  time.Duration `koanf:"wait_timeout" validate:"gte=0"`
	PollInterval time.Duration `koanf:"poll_interval" validate:"gte=0"`
}

// Version pins the product version instead of asking the page.
type Version struct {
	Pin string `koanf:"pin" validate:"omitempty,product_version"`
}

// Log configures pkg/logging.
type Log struct {
	Level      string `koanf:"level" validate:"oneof=debug info warn error"`
	File       string `koanf:"file"`
	Console    bool   `koanf:"console"`
	MaxSizeMB  int    `koanf:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `koanf:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `koanf:"max_age_days" validate:"gte=0"`
	Compress   bool   `koanf:"compress"`
}

// Metrics configures the Prometheus observer.
type Metrics struct {
	Enabled   bool   `koanf:"enabled"`
	Namespace string `koanf:"namespace" validate:"required_if=Enabled true"`
	Addr      string `koanf:"addr" validate:"omitempty,hostname_port"`
}

// Browser configures the chromedp adapter.
type Browser struct {
	Headless          bool   `koanf:"headless"`
	VersionExpression string `koanf:"version_expression"`
}

// Settings is the merged configuration tree.
type Settings struct {
	Fill    Fill    `koanf:"fill"`
	Version Version `koanf:"version"`
	Log     Log     `koanf:"log"`
	Metrics Metrics `koanf:"metrics"`
	Browser Browser `koanf:"browser"`
}

// Default returns the settings used for keys no layer sets.
func Default() Settings {
	return Settings{
		Fill: Fill{
			Strategy:     "default",
			WaitTimeout:  core.DefaultWaitTimeout,
			PollInterval: core.DefaultPollInterval,
		},
		Log:     Log{Level: "info"},
		Metrics: Metrics{Namespace: "widgetry"},
		Browser: Browser{Headless: true},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("product_version", func(fl validator.FieldLevel) bool {
		_, err := version.Parse(fl.Field().String())
		return err == nil
	})
	return v
}

// Load merges the layers. path may be empty, in which case only the
// environment is consulted.
func Load(path string) (*Settings, error) {
	k := koanf.New(".")

	if path != "" {
		envFile := filepath.Join(filepath.Dir(path), ".env")
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			zap.S().Errorw("config yaml load failed", "file", path, "err", err)
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		zap.S().Debugw("config yaml loaded", "file", path)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return &cfg, nil
}

// envKey maps WIDGETRY_FILL__WAIT_TIMEOUT to fill.wait_timeout.
func envKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, EnvPrefix), "__", "."))
}

// FillStrategy returns the configured default strategy.
func (s *Settings) FillStrategy() core.FillStrategy {
	wait := core.WaitStrategy{Timeout: s.Fill.WaitTimeout, Interval: s.Fill.PollInterval}
	switch s.Fill.Strategy {
	case "wait":
		return wait
	case "guarded":
		return core.GuardedStrategy{Inner: core.DefaultStrategy{}}
	default:
		return core.DefaultStrategy{}
	}
}

// SessionOptions converts the settings into session options. Logger and
// observer are left to the caller.
func (s *Settings) SessionOptions() ([]core.SessionOption, error) {
	opts := []core.SessionOption{core.WithDefaultStrategy(s.FillStrategy())}
	if s.Version.Pin != "" {
		v, err := version.Parse(s.Version.Pin)
		if err != nil {
			return nil, fmt.Errorf("version.pin: %w", err)
		}
		opts = append(opts, core.WithVersion(v))
	}
	return opts, nil
}

// Logging returns the logger configuration.
func (s *Settings) Logging() logging.Config {
	return logging.Config{
		Level:      s.Log.Level,
		File:       s.Log.File,
		Console:    s.Log.Console,
		MaxSizeMB:  s.Log.MaxSizeMB,
		MaxBackups: s.Log.MaxBackups,
		MaxAgeDays: s.Log.MaxAgeDays,
		Compress:   s.Log.Compress,
	}
}

// Exists reports whether path names a regular file.
func Exists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}
