package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/go-drift/widgetry/pkg/browser"
	"github.com/go-drift/widgetry/pkg/errors"
	"github.com/go-drift/widgetry/pkg/version"
)

// Clock abstracts time for bounded waits.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// Session is the root of every widget tree. It owns the browser and the
// cross-cutting services views and widgets share.
type Session struct {
	browser  browser.Browser
	logger   *zap.Logger
	clock    Clock
	observer Observer
	strategy FillStrategy
	escapers map[string]Escaper
	pinned   *version.Version
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the session logger. The default is zap.L().
func WithLogger(l *zap.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces the wall clock, typically with a fake in tests.
func WithClock(c Clock) SessionOption {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithObserver installs instrumentation hooks.
func WithObserver(o Observer) SessionOption {
	return func(s *Session) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithDefaultStrategy sets the strategy used by views that declare none.
func WithDefaultStrategy(fs FillStrategy) SessionOption {
	return func(s *Session) {
		if fs != nil {
			s.strategy = fs
		}
	}
}

// WithEscaper registers a named escaper usable as {param|name} in patterns.
func WithEscaper(name string, fn Escaper) SessionOption {
	return func(s *Session) {
		if name != "" && fn != nil {
			s.escapers[name] = fn
		}
	}
}

// WithVersion pins the product version instead of asking the browser on
// every resolution.
func WithVersion(v version.Version) SessionOption {
	return func(s *Session) {
		if v.IsValid() {
			s.pinned = &v
		}
	}
}

// NewSession returns a session over b.
func NewSession(b browser.Browser, opts ...SessionOption) *Session {
	s := &Session{
		browser:  b,
		logger:   zap.L(),
		clock:    systemClock{},
		observer: NopObserver{},
		strategy: DefaultStrategy{},
		escapers: map[string]Escaper{"quote": QuoteXPath},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Parent returns nil; the session is the root.
func (s *Session) Parent() Node { return nil }

// Session returns s.
func (s *Session) Session() *Session { return s }

// Browser returns the browser collaborator.
func (s *Session) Browser() browser.Browser { return s.browser }

// Logger returns the session logger.
func (s *Session) Logger() *zap.Logger { return s.logger }

// Clock returns the session clock.
func (s *Session) Clock() Clock { return s.clock }

// Observer returns the instrumentation hooks.
func (s *Session) Observer() Observer { return s.observer }

// DefaultStrategy returns the strategy used by views that declare none.
func (s *Session) DefaultStrategy() FillStrategy { return s.strategy }

// Version returns the current product version. Unless pinned with
// WithVersion, the browser is asked on every call.
func (s *Session) Version(ctx context.Context) (version.Version, error) {
	if s.pinned != nil {
		return *s.pinned, nil
	}
	raw, err := s.browser.CurrentVersion(ctx)
	if err != nil {
		return version.Version{}, err
	}
	v, err := version.Parse(raw)
	if err != nil {
		return version.Version{}, errors.Wrap("core.Session.Version", errors.KindNoApplicableVersion, "", err)
	}
	return v, nil
}

// View binds a non-parametrized template at the top of the tree.
func (s *Session) View(t *Template) (*View, error) {
	if t == nil {
		return nil, errors.Errorf("core.Session.View", errors.KindDefinition, "", "nil template")
	}
	if t.Parametrized() {
		return nil, errors.Errorf("core.Session.View", errors.KindInvalidArguments, t.name,
			"template takes parameters %v; use Session.Accessor", t.params)
	}
	return newView(s, t.name, t, Params{}), nil
}

// Accessor exposes a parametrized template at the top of the tree.
func (s *Session) Accessor(t *Template) *Accessor {
	return &Accessor{tpl: t, parent: s, name: t.name}
}

func (s *Session) escaper(name string) (Escaper, bool) {
	fn, ok := s.escapers[name]
	return fn, ok
}
