package core_test

import (
	"context"
	"fmt"

	"github.com/go-drift/widgetry/pkg/core"
	"github.com/go-drift/widgetry/pkg/errors"
)

// recorder collects fill calls of stub widgets in dispatch order.
type recorder struct {
	calls []string
}

// stub is a locator-less widget that records fills and reads back the
// last value.
type stub struct {
	core.WidgetBase
	rec     *recorder
	changed bool
	value   any
	panics  bool
}

func (p *stub) Fill(ctx context.Context, v any) (bool, error) {
	if p.panics {
		panic("widget exploded")
	}
	p.rec.calls = append(p.rec.calls, fmt.Sprintf("%s=%v", p.Name(), v))
	p.value = v
	return p.changed, nil
}

func (p *stub) Read(ctx context.Context) (any, error) {
	if p.value == nil {
		return nil, errors.ErrSkipRead
	}
	return p.value, nil
}

func (r *recorder) leaf(changed bool) *core.WidgetDecl {
	return core.Leaf(func(base core.WidgetBase, args core.Args) (core.Widget, error) {
		return &stub{WidgetBase: base, rec: r, changed: changed}, nil
	}, core.Args{})
}

func (r *recorder) panicking() *core.WidgetDecl {
	return core.Leaf(func(base core.WidgetBase, args core.Args) (core.Widget, error) {
		return &stub{WidgetBase: base, rec: r, panics: true}, nil
	}, core.Args{})
}

// label is a read-only widget exposing its resolved arguments.
type label struct {
	core.WidgetBase
	args core.Args
}

func (l *label) Read(ctx context.Context) (any, error) {
	return l.args.String("text", ""), nil
}

func newLabel(base core.WidgetBase, args core.Args) (core.Widget, error) {
	return &label{WidgetBase: base, args: args}, nil
}

func labelOf(args core.Args) *core.WidgetDecl {
	return core.Leaf(newLabel, args)
}
