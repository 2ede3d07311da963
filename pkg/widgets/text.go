package widgets

import (
	"context"

	"github.com/go-drift/widgetry/pkg/core"
	"github.com/go-drift/widgetry/pkg/errors"
)

// Text is a read-only element whose value is its visible text.
type Text struct {
	core.WidgetBase
}

// NewText is the Constructor for [Text].
func NewText(base core.WidgetBase, args core.Args) (core.Widget, error) {
	if err := requireLocator("widgets.NewText", base); err != nil {
		return nil, err
	}
	return &Text{WidgetBase: base}, nil
}

// TextOf declares a Text located by locator.
func TextOf(locator any) *core.WidgetDecl {
	return core.Leaf(NewText, core.Args{core.ArgLocator: locator})
}

// Read returns the element text.
func (w *Text) Read(ctx context.Context) (any, error) {
	el, err := w.Element(ctx)
	if err != nil {
		return nil, err
	}
	return w.Browser().Text(ctx, el)
}

func requireLocator(op string, base core.WidgetBase) error {
	if base.Locator() == nil {
		return errors.Errorf(op, errors.KindDefinition, base.Name(), "missing %q argument", core.ArgLocator)
	}
	return nil
}
