package cmd

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/go-drift/widgetry/pkg/browser"
	"github.com/go-drift/widgetry/pkg/browser/cdp"
	"github.com/go-drift/widgetry/pkg/config"
	"github.com/go-drift/widgetry/pkg/core"
	"github.com/go-drift/widgetry/pkg/errors"
	"github.com/go-drift/widgetry/pkg/logging"
	"github.com/go-drift/widgetry/pkg/metrics"
)

// defaultConfigFile is loaded when --config is not given and it exists.
const defaultConfigFile = "widgetry.yaml"

// browserFactory opens a browser showing url.
type browserFactory func(ctx context.Context, s *config.Settings, url string, log *zap.Logger) (browser.Browser, func(), error)

// openBrowser is replaced in tests.
var openBrowser browserFactory = openChrome

func openChrome(ctx context.Context, s *config.Settings, url string, log *zap.Logger) (browser.Browser, func(), error) {
	tab, cancel := cdp.Launch(ctx, s.Browser.Headless)
	opts := []cdp.Option{cdp.WithLogger(log)}
	if s.Browser.VersionExpression != "" {
		opts = append(opts, cdp.WithVersionExpression(s.Browser.VersionExpression))
	}
	b := cdp.New(tab, opts...)
	if url != "" {
		if err := b.Navigate(ctx, url); err != nil {
			cancel()
			return nil, nil, err
		}
	}
	return b, cancel, nil
}

// environment is everything a live command needs, plus its teardown.
type environment struct {
	session *core.Session
	logger  *zap.Logger
	closers []func()
}

func (e *environment) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

func loadSettings(path string) (*config.Settings, error) {
	if path == "" && config.Exists(defaultConfigFile) {
		path = defaultConfigFile
	}
	return config.Load(path)
}

// setup loads settings, installs logging and metrics and opens the browser.
func setup(ctx context.Context, f flags) (*environment, error) {
	settings, err := loadSettings(f["config"])
	if err != nil {
		return nil, err
	}
	if f.has("headful") {
		settings.Browser.Headless = false
	}

	logger, err := logging.New(settings.Logging())
	if err != nil {
		return nil, err
	}
	env := &environment{logger: logger.Logger}
	env.closers = append(env.closers, func() { _ = logger.Close() })
	errors.SetHandler(&errors.LogHandler{Logger: logger.Logger})
	env.closers = append(env.closers, func() { errors.SetHandler(nil) })

	opts, err := settings.SessionOptions()
	if err != nil {
		env.Close()
		return nil, err
	}
	opts = append(opts, core.WithLogger(logger.Logger))

	if settings.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		opts = append(opts, core.WithObserver(metrics.New(reg, settings.Metrics.Namespace)))
		if settings.Metrics.Addr != "" {
			srv := &http.Server{Addr: settings.Metrics.Addr, Handler: metrics.Handler(reg)}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Warn("metrics server stopped", zap.Error(err))
				}
			}()
			env.closers = append(env.closers, func() { _ = srv.Close() })
		}
	}

	b, closeBrowser, err := openBrowser(ctx, settings, f["url"], logger.Logger)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.closers = append(env.closers, closeBrowser)
	env.session = core.NewSession(b, opts...)
	return env, nil
}
