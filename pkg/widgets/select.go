package widgets

import (
	"context"
	"fmt"

	"github.com/go-drift/widgetry/pkg/browser"
	"github.com/go-drift/widgetry/pkg/core"
	"github.com/go-drift/widgetry/pkg/errors"
)

// ArgOption is the Select argument locating options inside the select
// element. It defaults to "option".
const ArgOption = "option"

// Select is a single-choice list. Its value is the text of the selected
// option, or "" when nothing is selected.
type Select struct {
	core.WidgetBase
	option browser.Locator
}

// NewSelect is the Constructor for [Select].
func NewSelect(base core.WidgetBase, args core.Args) (core.Widget, error) {
	if err := requireLocator("widgets.NewSelect", base); err != nil {
		return nil, err
	}
	opt, ok := args.Get(ArgOption)
	if !ok || opt == nil {
		opt = "option"
	}
	return &Select{WidgetBase: base, option: opt}, nil
}

// SelectOf declares a Select located by locator.
func SelectOf(locator any) *core.WidgetDecl {
	return core.Leaf(NewSelect, core.Args{core.ArgLocator: locator})
}

func (w *Select) options(ctx context.Context) ([]browser.Element, error) {
	el, err := w.Element(ctx)
	if err != nil {
		return nil, err
	}
	return w.Browser().Elements(ctx, w.option, el)
}

// Options returns the option texts in document order.
func (w *Select) Options(ctx context.Context) ([]string, error) {
	opts, err := w.options(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(opts))
	for i, o := range opts {
		if out[i], err = w.Browser().Text(ctx, o); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Read returns the text of the selected option.
func (w *Select) Read(ctx context.Context) (any, error) {
	opts, err := w.options(ctx)
	if err != nil {
		return nil, err
	}
	b := w.Browser()
	for _, o := range opts {
		selected, err := b.IsSelected(ctx, o)
		if err != nil {
			return nil, err
		}
		if selected {
			return b.Text(ctx, o)
		}
	}
	return "", nil
}

// Fill selects the option whose text equals value.
func (w *Select) Fill(ctx context.Context, value any) (bool, error) {
	want, ok := value.(string)
	if !ok {
		want = fmt.Sprint(value)
	}
	opts, err := w.options(ctx)
	if err != nil {
		return false, err
	}
	b := w.Browser()
	for _, o := range opts {
		text, err := b.Text(ctx, o)
		if err != nil {
			return false, err
		}
		if text != want {
			continue
		}
		selected, err := b.IsSelected(ctx, o)
		if err != nil {
			return false, err
		}
		if selected {
			return false, nil
		}
		if err := b.Click(ctx, o); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, errors.Errorf("widgets.Select.Fill", errors.KindInvalidArguments, w.Name(), "no option %q", want)
}
