package core

import (
	"context"
	"time"

	"github.com/go-drift/widgetry/pkg/browser"
	"github.com/go-drift/widgetry/pkg/errors"
)

// Node is anything that lives in a widget tree: the session, views and
// bound widgets.
type Node interface {
	// Parent returns the owning node, or nil for the session.
	Parent() Node
	// Session returns the session at the root of the tree.
	Session() *Session
}

// Widget is a bound, usable leaf element wrapper.
type Widget interface {
	Node
	// Name returns the name the widget was declared under.
	Name() string
}

// Reader is implemented by children whose current value can be read.
type Reader interface {
	Read(ctx context.Context) (any, error)
}

// Filler is implemented by children that accept a value. Fill reports
// whether the page state changed.
type Filler interface {
	Fill(ctx context.Context, value any) (bool, error)
}

// Displayer is implemented by children that can report visibility.
type Displayer interface {
	IsDisplayed(ctx context.Context) (bool, error)
}

// Scoper is implemented by nodes that restrict lookups of their descendants
// to an element. A nil element with a nil error means "no restriction".
type Scoper interface {
	ScopeElement(ctx context.Context) (browser.Element, error)
}

// fillCapable lets a Filler report that it cannot fill in its current
// configuration (e.g. a parametrized accessor without an enumeration).
type fillCapable interface {
	CanFill() bool
}

// ScopeOf returns the element that scopes lookups for children of n.
func ScopeOf(ctx context.Context, n Node) (browser.Element, error) {
	for cur := n; cur != nil; cur = cur.Parent() {
		if s, ok := cur.(Scoper); ok {
			return s.ScopeElement(ctx)
		}
	}
	return nil, nil
}

// PathOf returns the dotted name path of n from the session.
func PathOf(n Node) string {
	switch v := n.(type) {
	case nil, *Session:
		return ""
	case *View:
		return v.Path()
	case Widget:
		return joinPath(PathOf(v.Parent()), v.Name())
	default:
		return PathOf(n.Parent())
	}
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	if name == "" {
		return parent
	}
	return parent + "." + name
}

// WidgetBase provides the Node plumbing, locator scoping and visibility for
// leaf widgets. Embed it and let the Constructor receive it:
//
//	type Label struct {
//	    core.WidgetBase
//	}
//
//	func NewLabel(base core.WidgetBase, args core.Args) (core.Widget, error) {
//	    return &Label{WidgetBase: base}, nil
//	}
type WidgetBase struct {
	parent      Node
	name        string
	locator     browser.Locator
	waitTimeout time.Duration
}

// NewWidgetBase returns a WidgetBase owned by parent. Constructors normally
// receive one from the engine; this is for widgets composed by hand.
func NewWidgetBase(parent Node, name string, locator browser.Locator) WidgetBase {
	return WidgetBase{parent: parent, name: name, locator: locator}
}

// Parent returns the owning node.
func (w *WidgetBase) Parent() Node { return w.parent }

// Name returns the declared name.
func (w *WidgetBase) Name() string { return w.name }

// Session returns the session at the root of the tree.
func (w *WidgetBase) Session() *Session {
	if w.parent == nil {
		return nil
	}
	return w.parent.Session()
}

// Locator returns the resolved locator from the "locator" argument.
func (w *WidgetBase) Locator() browser.Locator { return w.locator }

// WaitTimeout returns the per-widget wait bound from the "wait_timeout"
// argument, or zero to use the strategy default.
func (w *WidgetBase) WaitTimeout() time.Duration { return w.waitTimeout }

// Browser returns the session browser.
func (w *WidgetBase) Browser() browser.Browser {
	return w.Session().Browser()
}

// Element locates the widget inside its parent's scope.
func (w *WidgetBase) Element(ctx context.Context) (browser.Element, error) {
	if w.locator == nil {
		return nil, errors.Errorf("core.WidgetBase.Element", errors.KindNotSupported,
			joinPath(PathOf(w.parent), w.name), "widget has no locator")
	}
	scope, err := ScopeOf(ctx, w.parent)
	if err != nil {
		return nil, err
	}
	return w.Browser().Element(ctx, w.locator, scope)
}

// IsDisplayed reports whether the widget's element exists and is visible.
func (w *WidgetBase) IsDisplayed(ctx context.Context) (bool, error) {
	el, err := w.Element(ctx)
	if errors.Is(err, browser.ErrNoSuchElement) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return w.Browser().IsDisplayed(ctx, el)
}
