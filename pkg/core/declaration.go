package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-drift/widgetry/pkg/errors"
)

// Kind identifies how a declaration is materialized.
type Kind int

const (
	// KindWidget is a leaf widget built by a Constructor.
	KindWidget Kind = iota
	// KindView is a nested, non-parametrized view.
	KindView
	// KindParametrized is a nested view that takes parameters.
	KindParametrized
	// KindSwitch is a conditional switch between candidates.
	KindSwitch
	// KindVersionPick is a version-dependent choice between candidates.
	KindVersionPick
	// KindInclude is a flattened, included view.
	KindInclude
)

func (k Kind) String() string {
	switch k {
	case KindWidget:
		return "widget"
	case KindView:
		return "view"
	case KindParametrized:
		return "parametrized"
	case KindSwitch:
		return "switch"
	case KindVersionPick:
		return "version_pick"
	case KindInclude:
		return "include"
	default:
		return "unknown"
	}
}

// Declaration is an immutable template for one child. Declarations are
// created while templates are built and shared by every view of the
// template.
type Declaration interface {
	Kind() Kind
}

// Constructor builds a leaf widget. base is already bound to the owning
// view and carries the resolved locator; args holds every argument with
// placeholders substituted.
type Constructor func(base WidgetBase, args Args) (Widget, error)

// WidgetDecl declares a leaf widget.
type WidgetDecl struct {
	ctor Constructor
	args Args
}

// Leaf declares a widget built by ctor from args.
func Leaf(ctor Constructor, args Args) *WidgetDecl {
	return &WidgetDecl{ctor: ctor, args: args.clone()}
}

// Kind returns KindWidget.
func (d *WidgetDecl) Kind() Kind { return KindWidget }

// Args returns a copy of the unresolved arguments.
func (d *WidgetDecl) Args() Args { return d.args.clone() }

func (d *WidgetDecl) validate() error {
	if d.ctor == nil {
		return errors.New("widget declaration without constructor")
	}
	return nil
}

func (d *WidgetDecl) pickedArgs() bool {
	for _, v := range d.args {
		if _, ok := v.(*VersionPick); ok {
			return true
		}
	}
	return false
}

// argThresholds names the thresholds chosen by version picks among the
// arguments, as in "@locator=v5.0.0". It is empty when no argument is a
// pick. Each combination binds its own widget.
func (d *WidgetDecl) argThresholds(ctx context.Context, owner Node) (string, error) {
	var sb strings.Builder
	for _, k := range sortedKeys(map[string]any(d.args)) {
		p, ok := d.args[k].(*VersionPick)
		for ok {
			threshold, picked, err := p.resolve(ctx, owner)
			if err != nil {
				return "", fmt.Errorf("argument %q: %w", k, err)
			}
			sb.WriteString("@" + k + "=" + threshold.Canonical())
			p, ok = picked.(*VersionPick)
		}
	}
	return sb.String(), nil
}

func (d *WidgetDecl) bind(ctx context.Context, owner *View, name string) (Widget, error) {
	args, err := resolveArgs(ctx, owner, d.args)
	if err != nil {
		return nil, err
	}
	base := WidgetBase{parent: owner, name: name, locator: args[ArgLocator]}
	if base.waitTimeout, err = args.Duration(ArgWaitTimeout, 0); err != nil {
		return nil, err
	}
	return d.ctor(base, args)
}

// ViewDecl declares a nested view. Parametrized templates bind to an
// [Accessor] instead of a view.
type ViewDecl struct {
	tpl *Template
}

// Nested declares a child view built from t.
func Nested(t *Template) *ViewDecl {
	return &ViewDecl{tpl: t}
}

// Kind returns KindParametrized for templates with parameters, KindView otherwise.
func (d *ViewDecl) Kind() Kind {
	if d.tpl != nil && d.tpl.Parametrized() {
		return KindParametrized
	}
	return KindView
}

// Template returns the nested template.
func (d *ViewDecl) Template() *Template { return d.tpl }
