package core

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/go-drift/widgetry/pkg/errors"
)

// Entry is one registered child: its name, declaration and position in
// declaration order.
type Entry struct {
	Name  string
	Decl  Declaration
	Index int

	include *includeSlot
}

// Included reports whether the entry was flattened in from an included template.
func (e Entry) Included() bool { return e.include != nil }

// Hook runs before a view is filled.
type Hook func(ctx context.Context, v *View, values map[string]any) error

// AfterHook runs after a successful fill and may override the changed flag.
type AfterHook func(ctx context.Context, v *View, changed bool) (bool, error)

// ParamProvider enumerates every parameter set a parametrized template can
// take under parent. Each set is positional, in declared parameter order.
type ParamProvider func(ctx context.Context, parent Node) ([][]any, error)

// Template is the immutable, ordered registry of a view type. Build one
// with [NewView]; every view instantiated from it shares its entries.
type Template struct {
	name          string
	root          any
	params        []string
	provider      ParamProvider
	strategy      FillStrategy
	respectParent bool
	beforeFill    Hook
	afterFill     AfterHook

	entries  []Entry
	index    map[string]int
	includes []*includeSlot
}

// Name returns the template name.
func (t *Template) Name() string { return t.name }

// Root returns the unresolved root locator, or nil.
func (t *Template) Root() any { return t.root }

// Params returns the declared parameter names in order.
func (t *Template) Params() []string { return append([]string(nil), t.params...) }

// Parametrized reports whether the template takes parameters.
func (t *Template) Parametrized() bool { return len(t.params) > 0 }

// Enumerable reports whether the template has a parameter provider.
func (t *Template) Enumerable() bool { return t.provider != nil }

// Entries returns the registry in declaration order, with included entries
// at the position of their include. The result is a copy.
func (t *Template) Entries() []Entry { return append([]Entry(nil), t.entries...) }

// Names returns the registered names in declaration order.
func (t *Template) Names() []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Name
	}
	return out
}

// Lookup returns the entry registered under name.
func (t *Template) Lookup(name string) (Entry, bool) {
	i, ok := t.index[name]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

func (t *Template) String() string { return "Template(" + t.name + ")" }

// TemplateOption configures a template at definition time.
type TemplateOption func(*Template)

// WithRoot scopes every lookup below the view to the element located by
// loc. loc may be a Pattern or Param for parametrized templates.
func WithRoot(loc any) TemplateOption {
	return func(t *Template) { t.root = loc }
}

// WithParams declares the parameter names of a parametrized template.
func WithParams(names ...string) TemplateOption {
	return func(t *Template) { t.params = append(t.params, names...) }
}

// WithProvider supplies the enumeration of all parameter sets.
func WithProvider(p ParamProvider) TemplateOption {
	return func(t *Template) { t.provider = p }
}

// WithFillStrategy sets the strategy used to fill views of this template.
func WithFillStrategy(fs FillStrategy) TemplateOption {
	return func(t *Template) { t.strategy = fs }
}

// WithRespectParent makes nested views of this template fill with their
// parent view's strategy instead of their own.
func WithRespectParent(respect bool) TemplateOption {
	return func(t *Template) { t.respectParent = respect }
}

// WithBeforeFill registers a hook run before the strategy.
func WithBeforeFill(h Hook) TemplateOption {
	return func(t *Template) { t.beforeFill = h }
}

// WithAfterFill registers a hook run after a successful fill.
func WithAfterFill(h AfterHook) TemplateOption {
	return func(t *Template) { t.afterFill = h }
}

// ViewBuilder collects declarations in order and produces a Template.
// Errors are accumulated and returned by Build.
type ViewBuilder struct {
	t    *Template
	errs []error
}

// NewView starts a template definition.
func NewView(name string, opts ...TemplateOption) *ViewBuilder {
	t := &Template{name: name, index: make(map[string]int)}
	for _, opt := range opts {
		opt(t)
	}
	return &ViewBuilder{t: t}
}

func (b *ViewBuilder) fail(kind errors.ErrorKind, name, format string, args ...any) {
	b.errs = append(b.errs, errors.Errorf("core.ViewBuilder", kind, joinPath(b.t.name, name), format, args...))
}

// Add registers d under name.
func (b *ViewBuilder) Add(name string, d Declaration) *ViewBuilder {
	if name == "" {
		b.fail(errors.KindDefinition, "", "empty widget name")
		return b
	}
	if err := validateDecl(d); err != nil {
		b.fail(errors.KindDefinition, name, "%v", err)
		return b
	}
	b.register(Entry{Name: name, Decl: d})
	return b
}

// Widget registers a leaf widget built by ctor.
func (b *ViewBuilder) Widget(name string, ctor Constructor, args Args) *ViewBuilder {
	return b.Add(name, Leaf(ctor, args))
}

// View registers a nested view.
func (b *ViewBuilder) View(name string, t *Template) *ViewBuilder {
	return b.Add(name, Nested(t))
}

func (b *ViewBuilder) register(e Entry) {
	if prev, ok := b.t.index[e.Name]; ok {
		prevEntry := b.t.entries[prev]
		switch {
		case prevEntry.include != nil || e.include != nil:
			b.fail(errors.KindNameCollision, e.Name, "name is both declared and included")
		default:
			b.fail(errors.KindNameCollision, e.Name, "name declared twice")
		}
		return
	}
	e.Index = len(b.t.entries)
	b.t.index[e.Name] = e.Index
	b.t.entries = append(b.t.entries, e)
}

// Build validates the definition and returns the immutable template.
// Definition errors are joined; each one is a *errors.WidgetError.
func (b *ViewBuilder) Build() (*Template, error) {
	errs := slices.Clone(b.errs)
	bad := func(kind errors.ErrorKind, format string, args ...any) {
		errs = append(errs, errors.Errorf("core.ViewBuilder.Build", kind, b.t.name, format, args...))
	}
	seen := make(map[string]bool, len(b.t.params))
	for _, p := range b.t.params {
		if p == "" {
			bad(errors.KindDefinition, "empty parameter name")
			continue
		}
		if seen[p] {
			bad(errors.KindAmbiguousParameters, "parameter %q declared twice", p)
		}
		seen[p] = true
	}
	if b.t.provider != nil && len(b.t.params) == 0 {
		bad(errors.KindDefinition, "parameter provider on a template without parameters")
	}
	for _, e := range b.t.entries {
		sw, ok := e.Decl.(*SwitchDecl)
		if !ok || e.include != nil {
			continue
		}
		for _, ref := range sw.References() {
			if ref == e.Name {
				bad(errors.KindDefinition, "switch %q references itself", e.Name)
			} else if _, ok := b.t.index[ref]; !ok {
				bad(errors.KindDefinition, "switch %q references unknown widget %q", e.Name, ref)
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	t := *b.t
	t.params = slices.Clone(b.t.params)
	t.entries = slices.Clone(b.t.entries)
	t.index = maps.Clone(b.t.index)
	t.includes = slices.Clone(b.t.includes)
	return &t, nil
}

// MustBuild is like Build but panics on error. Use it for package-level
// template variables, where a definition error is a programming error.
func (b *ViewBuilder) MustBuild() *Template {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}

func validateDecl(d Declaration) error {
	switch d := d.(type) {
	case nil:
		return fmt.Errorf("nil declaration")
	case *WidgetDecl:
		if d == nil {
			return fmt.Errorf("nil declaration")
		}
		return d.validate()
	case *ViewDecl:
		if d == nil || d.tpl == nil {
			return fmt.Errorf("nested view without template")
		}
	case *SwitchDecl:
		if d == nil {
			return fmt.Errorf("nil switch")
		}
	case *VersionPick:
		if d == nil {
			return fmt.Errorf("nil version pick")
		}
		return d.validateAsChild()
	}
	return nil
}
