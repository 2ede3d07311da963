package widgets

import (
	"context"
	"fmt"

	"github.com/go-drift/widgetry/pkg/core"
)

// TextInput is an editable text field. Fill replaces the whole value.
type TextInput struct {
	core.WidgetBase
}

// NewTextInput is the Constructor for [TextInput].
func NewTextInput(base core.WidgetBase, args core.Args) (core.Widget, error) {
	if err := requireLocator("widgets.NewTextInput", base); err != nil {
		return nil, err
	}
	return &TextInput{WidgetBase: base}, nil
}

// TextInputOf declares a TextInput located by locator.
func TextInputOf(locator any) *core.WidgetDecl {
	return core.Leaf(NewTextInput, core.Args{core.ArgLocator: locator})
}

// Read returns the current value.
func (w *TextInput) Read(ctx context.Context) (any, error) {
	el, err := w.Element(ctx)
	if err != nil {
		return nil, err
	}
	return w.Browser().Value(ctx, el)
}

// Fill sets the value, formatting non-strings with fmt.Sprint. It does
// nothing and returns false when the value is already current.
func (w *TextInput) Fill(ctx context.Context, value any) (bool, error) {
	want, ok := value.(string)
	if !ok {
		want = fmt.Sprint(value)
	}
	el, err := w.Element(ctx)
	if err != nil {
		return false, err
	}
	b := w.Browser()
	current, err := b.Value(ctx, el)
	if err != nil {
		return false, err
	}
	if current == want {
		return false, nil
	}
	if err := b.Clear(ctx, el); err != nil {
		return false, err
	}
	if want != "" {
		if err := b.SendKeys(ctx, el, want); err != nil {
			return false, err
		}
	}
	return true, nil
}
