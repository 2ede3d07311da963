package core

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/go-drift/widgetry/pkg/errors"
)

// FillOutcome aggregates one fill call.
type FillOutcome struct {
	// Changed is the OR of every dispatched child's changed flag.
	Changed bool
	// Ignored lists mapping keys that matched no child, as dotted paths
	// relative to the filled view.
	Ignored []string
	// Skipped lists children that had a value but cannot be filled.
	Skipped []string
}

func (o *FillOutcome) merge(prefix string, sub FillOutcome) {
	o.Changed = o.Changed || sub.Changed
	for _, k := range sub.Ignored {
		o.Ignored = append(o.Ignored, joinPath(prefix, k))
	}
	for _, k := range sub.Skipped {
		o.Skipped = append(o.Skipped, joinPath(prefix, k))
	}
}

// FillStrategy distributes a mapping of child name to value over a view.
type FillStrategy interface {
	Fill(ctx context.Context, v *View, values map[string]any) (FillOutcome, error)
}

// valuesFiller is implemented by composite children that report a full
// outcome for nested mappings.
type valuesFiller interface {
	FillValues(ctx context.Context, values map[string]any) (FillOutcome, error)
}

// DefaultStrategy fills children in declaration order. Null values are
// dropped, unknown keys are ignored and children that cannot be filled are
// skipped.
type DefaultStrategy struct{}

func (DefaultStrategy) Fill(ctx context.Context, v *View, values map[string]any) (FillOutcome, error) {
	return fillChildren(ctx, v, values, nil)
}

// Defaults for WaitStrategy.
const (
	DefaultWaitTimeout  = 5 * time.Second
	DefaultPollInterval = 200 * time.Millisecond
)

// WaitStrategy fills like DefaultStrategy but first waits, up to Timeout,
// for each child to be displayed. A widget's own wait_timeout argument
// overrides Timeout. Running out of time aborts the fill with a Timeout
// error; children filled before that stay filled.
type WaitStrategy struct {
	Timeout  time.Duration
	Interval time.Duration
}

func (s WaitStrategy) Fill(ctx context.Context, v *View, values map[string]any) (FillOutcome, error) {
	return fillChildren(ctx, v, values, s.waitFor)
}

func (s WaitStrategy) waitFor(ctx context.Context, v *View, name string, child any) error {
	d, ok := child.(Displayer)
	if !ok {
		return nil
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	if w, ok := child.(interface{ WaitTimeout() time.Duration }); ok && w.WaitTimeout() > 0 {
		timeout = w.WaitTimeout()
	}
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	clock := v.session.clock
	start := clock.Now()
	for {
		shown, err := d.IsDisplayed(ctx)
		if err != nil {
			return err
		}
		waited := clock.Now().Sub(start)
		if shown {
			v.session.observer.WaitFinished(v.Path(), name, waited, nil)
			return nil
		}
		if waited >= timeout {
			err := errors.Errorf("core.WaitStrategy", errors.KindTimeout, joinPath(v.Path(), name),
				"not displayed after %s", timeout)
			v.session.observer.WaitFinished(v.Path(), name, waited, err)
			v.session.logger.Warn("wait timed out",
				zap.String("view", v.Path()), zap.String("name", name), zap.Duration("timeout", timeout))
			errors.Report(err)
			return err
		}
		if err := clock.Sleep(ctx, min(interval, timeout-waited)); err != nil {
			return err
		}
	}
}

// GuardedStrategy runs Inner (DefaultStrategy when nil) and turns a panic
// raised while filling into an error of kind KindPanic. The panic is also
// sent to the global error handler.
type GuardedStrategy struct {
	Inner FillStrategy
}

func (s GuardedStrategy) Fill(ctx context.Context, v *View, values map[string]any) (out FillOutcome, err error) {
	inner := s.Inner
	if inner == nil {
		inner = DefaultStrategy{}
	}
	defer errors.RecoverWithCallback("core.GuardedStrategy", func(p *errors.PanicError) {
		err = &errors.WidgetError{Op: "core.GuardedStrategy", Kind: errors.KindPanic, Name: v.Path(), Err: p}
	})
	return inner.Fill(ctx, v, values)
}

type waitFunc func(ctx context.Context, v *View, name string, child any) error

// fillChildren is the shared fill loop: children are visited in
// declaration order and every matching, non-null value is dispatched.
func fillChildren(ctx context.Context, v *View, values map[string]any, wait waitFunc) (FillOutcome, error) {
	var out FillOutcome
	for _, k := range sortedKeys(values) {
		if _, ok := v.tpl.Lookup(k); !ok {
			out.Ignored = append(out.Ignored, k)
		}
	}
	for _, name := range v.tpl.Names() {
		val, ok := values[name]
		if !ok || isNull(val) {
			continue
		}
		child, err := v.Get(ctx, name)
		if err != nil {
			return out, err
		}
		if !canFill(child) {
			out.Skipped = append(out.Skipped, name)
			v.session.logger.Debug("fill skipped",
				zap.String("view", v.Path()), zap.String("name", name), zap.String("type", fmt.Sprintf("%T", child)))
			continue
		}
		if wait != nil {
			if err := wait(ctx, v, name, child); err != nil {
				return out, err
			}
		}
		changed, sub, err := dispatchFill(ctx, child, val)
		out.merge(name, sub)
		out.Changed = out.Changed || changed
		v.session.observer.FillDispatched(v.Path(), name, changed, err)
		v.session.logger.Debug("fill dispatched",
			zap.String("view", v.Path()), zap.String("name", name), zap.Bool("changed", changed), zap.Error(err))
		if err != nil {
			return out, fmt.Errorf("%s: fill: %w", joinPath(v.Path(), name), err)
		}
	}
	return out, nil
}

// isNull reports whether val is nil or a nil pointer, map, channel or
// function. Nil slices are values: an empty selection.
func isNull(val any) bool {
	if val == nil {
		return true
	}
	switch rv := reflect.ValueOf(val); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}

func canFill(child any) bool {
	if _, ok := child.(Filler); !ok {
		return false
	}
	if fc, ok := child.(fillCapable); ok {
		return fc.CanFill()
	}
	return true
}

func dispatchFill(ctx context.Context, child, val any) (bool, FillOutcome, error) {
	if vf, ok := child.(valuesFiller); ok {
		if m, err := asMapping(val); err == nil {
			sub, err := vf.FillValues(ctx, m)
			return sub.Changed, sub, err
		}
	}
	changed, err := child.(Filler).Fill(ctx, val)
	return changed, FillOutcome{}, err
}

// FillStrategy returns the strategy used to fill v: the parent view's when
// the template respects its parent, else the template's own, else the
// session default.
func (v *View) FillStrategy() FillStrategy {
	if v.tpl.respectParent {
		for p := v.parent; p != nil; p = p.Parent() {
			if pv, ok := p.(*View); ok {
				return pv.FillStrategy()
			}
		}
	}
	if v.tpl.strategy != nil {
		return v.tpl.strategy
	}
	return v.session.strategy
}

// Fill fills the view from a mapping of child name to value (a
// map[string]any or *Values) and reports whether anything changed. Ignored
// keys and skipped children are sent to the global error handler.
func (v *View) Fill(ctx context.Context, value any) (bool, error) {
	m, err := asMapping(value)
	if err != nil {
		return false, errors.Wrap("core.View.Fill", errors.KindInvalidArguments, v.Path(), err)
	}
	out, err := v.FillValues(ctx, m)
	errors.ReportFill(&errors.FillReport{View: v.Path(), Ignored: out.Ignored, Skipped: out.Skipped})
	return out.Changed, err
}

// FillValues fills the view and returns the full outcome. The before-fill
// hook runs first; the after-fill hook runs only when the strategy succeeds
// and may override the changed flag.
func (v *View) FillValues(ctx context.Context, values map[string]any) (FillOutcome, error) {
	if h := v.tpl.beforeFill; h != nil {
		if err := h(ctx, v, values); err != nil {
			return FillOutcome{}, err
		}
	}
	out, err := v.FillStrategy().Fill(ctx, v, values)
	if err != nil {
		return out, err
	}
	if h := v.tpl.afterFill; h != nil {
		changed, err := h(ctx, v, out.Changed)
		if err != nil {
			return out, err
		}
		out.Changed = changed
	}
	return out, nil
}
