package widgets

import (
	"context"

	"github.com/go-drift/widgetry/pkg/core"
)

// Button is a clickable element. It takes part in neither read nor fill.
type Button struct {
	core.WidgetBase
}

// NewButton is the Constructor for [Button].
func NewButton(base core.WidgetBase, args core.Args) (core.Widget, error) {
	if err := requireLocator("widgets.NewButton", base); err != nil {
		return nil, err
	}
	return &Button{WidgetBase: base}, nil
}

// ButtonOf declares a Button located by locator.
func ButtonOf(locator any) *core.WidgetDecl {
	return core.Leaf(NewButton, core.Args{core.ArgLocator: locator})
}

// Click clicks the button.
func (w *Button) Click(ctx context.Context) error {
	el, err := w.Element(ctx)
	if err != nil {
		return err
	}
	return w.Browser().Click(ctx, el)
}

// Label returns the button text.
func (w *Button) Label(ctx context.Context) (string, error) {
	el, err := w.Element(ctx)
	if err != nil {
		return "", err
	}
	return w.Browser().Text(ctx, el)
}
