package widgets

import (
	"context"
	"strconv"

	"github.com/go-drift/widgetry/pkg/core"
	"github.com/go-drift/widgetry/pkg/errors"
)

// Checkbox is a two-state control. Its value is whether it is checked.
type Checkbox struct {
	core.WidgetBase
}

// NewCheckbox is the Constructor for [Checkbox].
func NewCheckbox(base core.WidgetBase, args core.Args) (core.Widget, error) {
	if err := requireLocator("widgets.NewCheckbox", base); err != nil {
		return nil, err
	}
	return &Checkbox{WidgetBase: base}, nil
}

// CheckboxOf declares a Checkbox located by locator.
func CheckboxOf(locator any) *core.WidgetDecl {
	return core.Leaf(NewCheckbox, core.Args{core.ArgLocator: locator})
}

// Read returns the checked state as a bool.
func (w *Checkbox) Read(ctx context.Context) (any, error) {
	el, err := w.Element(ctx)
	if err != nil {
		return nil, err
	}
	return w.Browser().IsSelected(ctx, el)
}

// Fill clicks the checkbox when its state differs from value. value is a
// bool or a string accepted by strconv.ParseBool.
func (w *Checkbox) Fill(ctx context.Context, value any) (bool, error) {
	var want bool
	switch v := value.(type) {
	case bool:
		want = v
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, errors.Wrap("widgets.Checkbox.Fill", errors.KindInvalidArguments, w.Name(), err)
		}
		want = b
	default:
		return false, errors.Errorf("widgets.Checkbox.Fill", errors.KindInvalidArguments, w.Name(),
			"want bool, got %T", value)
	}
	el, err := w.Element(ctx)
	if err != nil {
		return false, err
	}
	b := w.Browser()
	checked, err := b.IsSelected(ctx, el)
	if err != nil {
		return false, err
	}
	if checked == want {
		return false, nil
	}
	if err := b.Click(ctx, el); err != nil {
		return false, err
	}
	return true, nil
}
