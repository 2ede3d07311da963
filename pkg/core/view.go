package core

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/go-drift/widgetry/pkg/browser"
	"github.com/go-drift/widgetry/pkg/errors"
)

// View is a Template bound to an owner. It owns the binding cache of its
// children: each child is materialized on first access and the same
// instance is returned afterwards for the lifetime of the view.
//
// Views are not safe for concurrent use.
type View struct {
	tpl            *Template
	parent         Node
	session        *Session
	name           string
	params         Params
	cache          map[string]any
	useParentScope bool
}

func newView(parent Node, name string, t *Template, p Params) *View {
	return &View{
		tpl:     t,
		parent:  parent,
		session: parent.Session(),
		name:    name,
		params:  p,
		cache:   make(map[string]any),
	}
}

// Parent returns the owning node.
func (v *View) Parent() Node { return v.parent }

// Session returns the session at the root of the tree.
func (v *View) Session() *Session { return v.session }

// Name returns the name the view was declared under.
func (v *View) Name() string { return v.name }

// Template returns the template the view was built from.
func (v *View) Template() *Template { return v.tpl }

// Params returns the parameter values of a parametrized view.
func (v *View) Params() Params { return v.params }

// Path returns the dotted name path from the session. Parametrized views
// carry their parameter-set key, as in "rows[alice]".
func (v *View) Path() string {
	name := v.name
	if v.params.Len() > 0 {
		name += "[" + v.params.Key() + "]"
	}
	return joinPath(PathOf(v.parent), name)
}

// Names returns the children in declaration order.
func (v *View) Names() []string { return v.tpl.Names() }

// Get returns the child registered under name, binding it on first access.
//
// Plain widgets and views are returned as bound instances. Parametrized
// views are returned as an *Accessor. Switch and version-pick children are
// resolved on every call; the chosen candidate is bound once and cached.
func (v *View) Get(ctx context.Context, name string) (any, error) {
	e, ok := v.tpl.Lookup(name)
	if !ok {
		return nil, errors.Errorf("core.View.Get", errors.KindNotFound, joinPath(v.Path(), name),
			"%s has no child named %q", v.tpl.name, name)
	}
	if e.include != nil {
		return v.includeInstance(e.include).Get(ctx, name)
	}
	return v.resolve(ctx, name, name, e.Decl)
}

// Widget returns the leaf widget registered under name.
func (v *View) Widget(ctx context.Context, name string) (Widget, error) {
	child, err := v.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if _, isView := child.(*View); !isView {
		if w, ok := child.(Widget); ok {
			return w, nil
		}
	}
	return nil, v.wrongType("core.View.Widget", name, child)
}

// View returns the nested view registered under name.
func (v *View) View(ctx context.Context, name string) (*View, error) {
	child, err := v.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if nested, ok := child.(*View); ok {
		return nested, nil
	}
	return nil, v.wrongType("core.View.View", name, child)
}

// Accessor returns the parametrized child registered under name.
func (v *View) Accessor(ctx context.Context, name string) (*Accessor, error) {
	child, err := v.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if acc, ok := child.(*Accessor); ok {
		return acc, nil
	}
	return nil, v.wrongType("core.View.Accessor", name, child)
}

func (v *View) wrongType(op, name string, child any) error {
	return errors.Errorf(op, errors.KindNotSupported, joinPath(v.Path(), name), "child is %T", child)
}

func (v *View) resolve(ctx context.Context, key, name string, d Declaration) (any, error) {
	switch d := d.(type) {
	case *SwitchDecl:
		i, cand, err := d.resolve(ctx, v, name)
		v.session.observer.Resolved(KindSwitch, v.Path(), name, err)
		if err != nil {
			return nil, err
		}
		v.session.logger.Debug("switch resolved",
			zap.String("view", v.Path()), zap.String("name", name), zap.Int("candidate", i))
		return v.resolve(ctx, key+"#"+strconv.Itoa(i), name, cand)
	case *VersionPick:
		threshold, cand, err := d.resolve(ctx, v)
		v.session.observer.Resolved(KindVersionPick, v.Path(), name, err)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", joinPath(v.Path(), name), err)
		}
		v.session.logger.Debug("version resolved",
			zap.String("view", v.Path()), zap.String("name", name), zap.Stringer("threshold", threshold))
		return v.resolve(ctx, key+"@"+threshold.Canonical(), name, cand.(Declaration))
	case *WidgetDecl:
		if !d.pickedArgs() {
			break
		}
		picked, err := d.argThresholds(ctx, v)
		v.session.observer.Resolved(KindVersionPick, v.Path(), name, err)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", joinPath(v.Path(), name), err)
		}
		key += picked
	}
	return v.bind(ctx, key, name, d)
}

// bind materializes d once per key.
func (v *View) bind(ctx context.Context, key, name string, d Declaration) (any, error) {
	if inst, ok := v.cache[key]; ok {
		return inst, nil
	}
	var inst any
	switch d := d.(type) {
	case *WidgetDecl:
		w, err := d.bind(ctx, v, name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", joinPath(v.Path(), name), err)
		}
		if w == nil {
			return nil, errors.Errorf("core.View.Get", errors.KindDefinition, joinPath(v.Path(), name),
				"constructor returned nil widget")
		}
		inst = w
	case *ViewDecl:
		if d.tpl.Parametrized() {
			inst = &Accessor{tpl: d.tpl, parent: v, name: name}
		} else {
			inst = newView(v, name, d.tpl, Params{})
		}
	default:
		return nil, errors.Errorf("core.View.Get", errors.KindDefinition, joinPath(v.Path(), name),
			"cannot bind %T", d)
	}
	v.cache[key] = inst
	v.session.observer.Bound(d.Kind(), v.Path(), name)
	v.session.logger.Debug("child bound",
		zap.String("view", v.Path()), zap.String("name", name), zap.Stringer("kind", d.Kind()))
	return inst, nil
}

// ScopeElement returns the element that scopes lookups of the view's
// children: the root element when the template declares one, otherwise the
// parent's scope.
func (v *View) ScopeElement(ctx context.Context) (browser.Element, error) {
	if v.useParentScope || v.tpl.root == nil {
		return ScopeOf(ctx, v.parent)
	}
	return v.rootElement(ctx)
}

// Element returns the root element of the view. Views without a root
// locator have no element of their own.
func (v *View) Element(ctx context.Context) (browser.Element, error) {
	if v.useParentScope || v.tpl.root == nil {
		return nil, errors.Errorf("core.View.Element", errors.KindNotSupported, v.Path(), "view has no root locator")
	}
	return v.rootElement(ctx)
}

func (v *View) rootElement(ctx context.Context) (browser.Element, error) {
	loc, err := resolveValue(ctx, v, v.tpl.root)
	if err != nil {
		return nil, err
	}
	scope, err := ScopeOf(ctx, v.parent)
	if err != nil {
		return nil, err
	}
	return v.session.browser.Element(ctx, loc, scope)
}

// IsDisplayed reports whether the root element is visible. Views without a
// root are displayed when their parent is.
func (v *View) IsDisplayed(ctx context.Context) (bool, error) {
	if v.useParentScope || v.tpl.root == nil {
		if d, ok := v.parent.(Displayer); ok {
			return d.IsDisplayed(ctx)
		}
		return true, nil
	}
	el, err := v.rootElement(ctx)
	if errors.Is(err, browser.ErrNoSuchElement) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v.session.browser.IsDisplayed(ctx, el)
}
