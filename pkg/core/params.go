package core

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/go-drift/widgetry/pkg/errors"
)

// Params is the ordered parameter set of a parametrized view.
type Params struct {
	names  []string
	values map[string]any
}

// Get returns the value bound to name.
func (p Params) Get(name string) (any, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Len returns the number of parameters.
func (p Params) Len() int { return len(p.names) }

// Names returns the parameter names in declared order.
func (p Params) Names() []string { return slices.Clone(p.names) }

// Values returns the parameter values in declared order.
func (p Params) Values() []any {
	out := make([]any, len(p.names))
	for i, n := range p.names {
		out[i] = p.values[n]
	}
	return out
}

var keyEscaper = strings.NewReplacer(`\`, `\\`, ",", `\,`)

// Key renders the values in declared order, comma separated. It keys
// parametrized children in read results and fill mappings. Commas and
// backslashes inside a value are escaped with a backslash, so ("x,y", "z")
// keys as `x\,y,z` and ("x", "y,z") as `x,y\,z`.
func (p Params) Key() string {
	parts := make([]string, len(p.names))
	for i, n := range p.names {
		parts[i] = keyEscaper.Replace(fmt.Sprint(p.values[n]))
	}
	return strings.Join(parts, ",")
}

// Accessor exposes a parametrized template under its owner. Invoke it with
// parameter values to get a bound view; when the template has a provider it
// also enumerates every occurrence.
//
// Each instantiation binds a fresh view. Views instantiated with equal
// parameter sets are equivalent but not identical.
type Accessor struct {
	tpl    *Template
	parent Node
	name   string
}

// Name returns the declared name.
func (a *Accessor) Name() string { return a.name }

// Owner returns the node the accessor is declared on.
func (a *Accessor) Owner() Node { return a.parent }

// Template returns the parametrized template.
func (a *Accessor) Template() *Template { return a.tpl }

// Enumerable reports whether the template supplies a parameter provider.
func (a *Accessor) Enumerable() bool { return a.tpl.Enumerable() }

// CanFill reports whether the accessor can distribute fill values, which
// requires enumeration.
func (a *Accessor) CanFill() bool { return a.tpl.Enumerable() }

func (a *Accessor) path() string { return joinPath(PathOf(a.parent), a.name) }

// Call instantiates the template with positional parameter values.
func (a *Accessor) Call(ctx context.Context, positional ...any) (*View, error) {
	return a.Instantiate(ctx, positional, nil)
}

// Named instantiates the template with named parameter values.
func (a *Accessor) Named(ctx context.Context, named map[string]any) (*View, error) {
	return a.Instantiate(ctx, nil, named)
}

// Instantiate binds the template to a parameter set given positionally,
// by name, or both. A parameter supplied both ways is ambiguous.
func (a *Accessor) Instantiate(ctx context.Context, positional []any, named map[string]any) (*View, error) {
	const op = "core.Accessor.Instantiate"
	declared := a.tpl.params
	if len(positional) > len(declared) {
		return nil, errors.Errorf(op, errors.KindInvalidArguments, a.path(),
			"takes %d parameters, got %d positional", len(declared), len(positional))
	}
	values := make(map[string]any, len(declared))
	for i, v := range positional {
		values[declared[i]] = v
	}
	for _, k := range sortedKeys(named) {
		if !slices.Contains(declared, k) {
			return nil, errors.Errorf(op, errors.KindInvalidArguments, a.path(), "unknown parameter %q", k)
		}
		if _, dup := values[k]; dup {
			return nil, errors.Errorf(op, errors.KindAmbiguousParameters, a.path(),
				"parameter %q given both positionally and by name", k)
		}
		values[k] = named[k]
	}
	for _, p := range declared {
		if _, ok := values[p]; !ok {
			return nil, errors.Errorf(op, errors.KindInvalidArguments, a.path(), "missing parameter %q", p)
		}
	}
	v := newView(a.parent, a.name, a.tpl, Params{names: slices.Clone(declared), values: values})
	v.session.observer.Bound(KindParametrized, PathOf(a.parent), a.name)
	v.session.logger.Debug("parametrized view bound", zap.String("view", v.Path()))
	return v, nil
}

func (a *Accessor) sets(ctx context.Context) ([][]any, error) {
	if a.tpl.provider == nil {
		return nil, errors.Errorf("core.Accessor", errors.KindNotSupported, a.path(),
			"%s has no parameter provider", a.tpl.name)
	}
	sets, err := a.tpl.provider(ctx, a.parent)
	if err != nil {
		return nil, fmt.Errorf("%s: enumerate: %w", a.path(), err)
	}
	return sets, nil
}

// Count returns the number of enumerated parameter sets.
func (a *Accessor) Count(ctx context.Context) (int, error) {
	sets, err := a.sets(ctx)
	if err != nil {
		return 0, err
	}
	return len(sets), nil
}

// Index returns the i-th enumerated occurrence. Negative indexes count
// from the end.
func (a *Accessor) Index(ctx context.Context, i int) (*View, error) {
	sets, err := a.sets(ctx)
	if err != nil {
		return nil, err
	}
	n := len(sets)
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return nil, errors.Errorf("core.Accessor.Index", errors.KindNotFound, a.path(),
			"index %d out of range [0,%d)", i, n)
	}
	return a.Call(ctx, sets[i]...)
}

// Slice returns the occurrences in [lo, hi) in enumeration order. Bounds
// follow slice semantics with negative values counting from the end and
// out-of-range values clamped.
func (a *Accessor) Slice(ctx context.Context, lo, hi int) ([]*View, error) {
	sets, err := a.sets(ctx)
	if err != nil {
		return nil, err
	}
	n := len(sets)
	lo, hi = clampIndex(lo, n), clampIndex(hi, n)
	var out []*View
	for i := lo; i < hi; i++ {
		v, err := a.Call(ctx, sets[i]...)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	return max(0, min(i, n))
}

// All iterates every enumerated occurrence. The provider is consulted each
// time iteration starts, so the sequence can be ranged over repeatedly.
// Without a provider the sequence yields a single NotSupported error.
func (a *Accessor) All(ctx context.Context) iter.Seq2[*View, error] {
	return func(yield func(*View, error) bool) {
		sets, err := a.sets(ctx)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, set := range sets {
			v, err := a.Call(ctx, set...)
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// keyCollision reports two enumerated parameter sets that render to the
// same key, such as 1 and "1".
func (a *Accessor) keyCollision(op string, v *View) error {
	return errors.Errorf(op, errors.KindNameCollision, v.Path(),
		"parameter sets of %s share the key %q", a.tpl.name, v.params.Key())
}

// Read reads every enumerated occurrence, keyed by its parameter-set key.
// Two occurrences with the same key fail with KindNameCollision.
func (a *Accessor) Read(ctx context.Context) (any, error) {
	out := NewValues()
	for v, err := range a.All(ctx) {
		if err != nil {
			return nil, err
		}
		key := v.params.Key()
		if _, dup := out.Get(key); dup {
			return nil, a.keyCollision("core.Accessor.Read", v)
		}
		val, err := v.ReadValues(ctx)
		if err != nil {
			return nil, err
		}
		out.Set(key, val)
	}
	return out, nil
}

// Fill distributes a mapping of parameter-set key to view values.
func (a *Accessor) Fill(ctx context.Context, value any) (bool, error) {
	m, err := asMapping(value)
	if err != nil {
		return false, errors.Wrap("core.Accessor.Fill", errors.KindInvalidArguments, a.path(), err)
	}
	out, err := a.FillValues(ctx, m)
	return out.Changed, err
}

// FillValues fills each enumerated occurrence whose key appears in values.
// Keys matching no occurrence are reported as ignored. Two occurrences with
// the same key fail with KindNameCollision before either is filled.
func (a *Accessor) FillValues(ctx context.Context, values map[string]any) (FillOutcome, error) {
	var out FillOutcome
	var views []*View
	enumerated := make(map[string]bool)
	for v, err := range a.All(ctx) {
		if err != nil {
			return out, err
		}
		key := v.params.Key()
		if enumerated[key] {
			return out, a.keyCollision("core.Accessor.FillValues", v)
		}
		enumerated[key] = true
		views = append(views, v)
	}
	for _, v := range views {
		key := v.params.Key()
		val, ok := values[key]
		if !ok || isNull(val) {
			continue
		}
		m, err := asMapping(val)
		if err != nil {
			return out, errors.Wrap("core.Accessor.FillValues", errors.KindInvalidArguments, v.Path(), err)
		}
		sub, err := v.FillValues(ctx, m)
		out.merge(key, sub)
		if err != nil {
			return out, err
		}
	}
	for _, k := range sortedKeys(values) {
		if !enumerated[k] {
			out.Ignored = append(out.Ignored, k)
		}
	}
	return out, nil
}
