package manifest

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/go-drift/widgetry/pkg/core"
	"github.com/go-drift/widgetry/pkg/errors"
	"github.com/go-drift/widgetry/pkg/widgets"
)

// Set holds the compiled templates of a manifest in manifest order.
type Set struct {
	order     []string
	templates map[string]*core.Template
}

// Names returns the view names in manifest order.
func (s *Set) Names() []string { return append([]string(nil), s.order...) }

// Template returns the compiled template named name.
func (s *Set) Template(name string) (*core.Template, bool) {
	t, ok := s.templates[name]
	return t, ok
}

// Option configures compilation.
type Option func(*compiler)

// WithKinds registers additional widget kinds, overriding built-in kinds of
// the same name.
func WithKinds(kinds map[string]core.Constructor) Option {
	return func(c *compiler) {
		for k, ctor := range kinds {
			c.kinds[k] = ctor
		}
	}
}

// WithProvider supplies the parameter provider of the parametrized view
// named view. It replaces any static sets declared in the manifest.
func WithProvider(view string, p core.ParamProvider) Option {
	return func(c *compiler) { c.providers[view] = p }
}

// WithLogger sets the logger. The default is zap.L().
func WithLogger(l *zap.Logger) Option {
	return func(c *compiler) { c.logger = l }
}

const (
	pending = iota
	visiting
	done
)

type compiler struct {
	kinds     map[string]core.Constructor
	providers map[string]core.ParamProvider
	logger    *zap.Logger

	specs map[string]*ViewSpec
	state map[string]int
	built map[string]*core.Template
}

// Compile builds a template for every view in m. Views may reference each
// other in any order; reference cycles are definition errors.
func Compile(m *Manifest, opts ...Option) (*Set, error) {
	c := &compiler{
		kinds:     widgets.Kinds(),
		providers: make(map[string]core.ParamProvider),
		logger:    zap.L(),
		specs:     make(map[string]*ViewSpec),
		state:     make(map[string]int),
		built:     make(map[string]*core.Template),
	}
	for _, opt := range opts {
		opt(c)
	}

	set := &Set{templates: make(map[string]*core.Template)}
	for i := range m.Views {
		spec := &m.Views[i]
		if _, dup := c.specs[spec.Name]; dup {
			return nil, errors.Errorf("manifest.Compile", errors.KindNameCollision, spec.Name, "view declared twice")
		}
		c.specs[spec.Name] = spec
		set.order = append(set.order, spec.Name)
	}
	for name := range c.providers {
		if _, ok := c.specs[name]; !ok {
			return nil, errors.Errorf("manifest.Compile", errors.KindNotFound, name, "provider for unknown view")
		}
	}
	for _, name := range set.order {
		t, err := c.view(name, nil)
		if err != nil {
			return nil, err
		}
		set.templates[name] = t
	}
	c.logger.Debug("manifest compiled", zap.Strings("views", set.order))
	return set, nil
}

func (c *compiler) view(name string, chain []string) (*core.Template, error) {
	spec, ok := c.specs[name]
	if !ok {
		return nil, errors.Errorf("manifest.Compile", errors.KindNotFound, name, "unknown view")
	}
	chain = append(chain, name)
	switch c.state[name] {
	case done:
		return c.built[name], nil
	case visiting:
		return nil, errors.Errorf("manifest.Compile", errors.KindDefinition, name,
			"view reference cycle %s", strings.Join(chain, " -> "))
	}
	c.state[name] = visiting

	opts, err := c.templateOptions(spec)
	if err != nil {
		return nil, err
	}
	b := core.NewView(name, opts...)
	for i, child := range spec.Children {
		if child.Include != "" {
			inc, err := c.view(child.Include, chain)
			if err != nil {
				return nil, err
			}
			var iopts []core.IncludeOption
			if child.UseParentScope {
				iopts = append(iopts, core.UseParentScope())
			}
			b.Include(inc, iopts...)
			continue
		}
		d, err := c.child(child, chain)
		if err != nil {
			return nil, fmt.Errorf("view %q child %d (%s): %w", name, i, child.Name, err)
		}
		b.Add(child.Name, d)
	}
	t, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("view %q: %w", name, err)
	}
	c.state[name] = done
	c.built[name] = t
	return t, nil
}

func (c *compiler) templateOptions(spec *ViewSpec) ([]core.TemplateOption, error) {
	var opts []core.TemplateOption
	if spec.Root != "" {
		opts = append(opts, core.WithRoot(compileString(spec.Root)))
	}
	if len(spec.Params) > 0 {
		opts = append(opts, core.WithParams(spec.Params...))
	}
	if p, ok := c.providers[spec.Name]; ok {
		opts = append(opts, core.WithProvider(p))
	} else if len(spec.Sets) > 0 {
		for i, set := range spec.Sets {
			if len(set) != len(spec.Params) {
				return nil, errors.Errorf("manifest.Compile", errors.KindInvalidArguments, spec.Name,
					"set %d has %d values for %d parameters", i, len(set), len(spec.Params))
			}
		}
		opts = append(opts, core.WithProvider(staticSets(spec.Sets)))
	}
	switch spec.Strategy {
	case "wait":
		opts = append(opts, core.WithFillStrategy(core.WaitStrategy{Timeout: spec.WaitTimeout, Interval: spec.PollInterval}))
	case "guarded":
		opts = append(opts, core.WithFillStrategy(core.GuardedStrategy{}))
	case "default":
		opts = append(opts, core.WithFillStrategy(core.DefaultStrategy{}))
	}
	if spec.RespectParent {
		opts = append(opts, core.WithRespectParent(true))
	}
	return opts, nil
}

func staticSets(sets [][]any) core.ParamProvider {
	return func(context.Context, core.Node) ([][]any, error) {
		out := make([][]any, len(sets))
		for i, s := range sets {
			out[i] = append([]any(nil), s...)
		}
		return out, nil
	}
}

func (c *compiler) child(spec ChildSpec, chain []string) (core.Declaration, error) {
	forms := 0
	if spec.Kind != "" || spec.View != "" {
		forms++
	}
	if spec.Switch != nil {
		forms++
	}
	if len(spec.Versions) > 0 {
		forms++
	}
	if forms != 1 {
		return nil, errors.Errorf("manifest.Compile", errors.KindDefinition, spec.Name,
			"child needs exactly one of kind, view, switch or versions")
	}
	switch {
	case spec.Switch != nil:
		return c.switchDecl(spec.Switch, chain)
	case len(spec.Versions) > 0:
		return c.versionDecl(spec.Versions, chain)
	default:
		return c.candidate(spec.Candidate, chain)
	}
}

func (c *compiler) candidate(spec Candidate, chain []string) (core.Declaration, error) {
	switch {
	case spec.Kind != "" && spec.View != "":
		return nil, fmt.Errorf("kind %q and view %q are exclusive", spec.Kind, spec.View)
	case spec.View != "":
		if len(spec.Args) > 0 {
			return nil, fmt.Errorf("view %q takes no args", spec.View)
		}
		t, err := c.view(spec.View, chain)
		if err != nil {
			return nil, err
		}
		return core.Nested(t), nil
	case spec.Kind != "":
		ctor, ok := c.kinds[spec.Kind]
		if !ok {
			return nil, errors.Errorf("manifest.Compile", errors.KindDefinition, spec.Kind, "unknown widget kind")
		}
		args, err := compileArgs(spec.Args)
		if err != nil {
			return nil, err
		}
		return core.Leaf(ctor, args), nil
	default:
		return nil, fmt.Errorf("candidate needs kind or view")
	}
}

func (c *compiler) switchDecl(spec *SwitchSpec, chain []string) (core.Declaration, error) {
	sb := core.Switch(spec.Reference)
	for i, cs := range spec.Cases {
		d, err := c.candidate(cs.Candidate, chain)
		if err != nil {
			return nil, fmt.Errorf("case %d: %w", i, err)
		}
		switch {
		case cs.Default && cs.Value == nil:
			sb.Default(d)
		case cs.Default:
			sb.Case(cs.Value, d, core.AsDefault())
		default:
			sb.Case(cs.Value, d)
		}
	}
	return sb.Build()
}

func (c *compiler) versionDecl(specs []VersionSpec, chain []string) (core.Declaration, error) {
	cases := make([]core.VersionCase, 0, len(specs))
	for _, vs := range specs {
		d, err := c.candidate(vs.Candidate, chain)
		if err != nil {
			return nil, fmt.Errorf("version %s: %w", vs.Since, err)
		}
		cases = append(cases, core.Since(vs.Since, d))
	}
	return core.PickVersion(cases...)
}

func compileArgs(raw map[string]any) (core.Args, error) {
	args := make(core.Args, len(raw))
	for k, v := range raw {
		cv, err := compileValue(v)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", k, err)
		}
		args[k] = cv
	}
	return args, nil
}

// compileValue turns manifest argument values into placeholders.
func compileValue(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return compileString(val), nil
	case map[string]any:
		if len(val) != 1 {
			return val, nil
		}
		if p, ok := val["param"]; ok {
			name, ok := p.(string)
			if !ok || name == "" {
				return nil, fmt.Errorf("param needs a name")
			}
			return core.Param(name), nil
		}
		if vs, ok := val["versions"]; ok {
			return compileVersionValue(vs)
		}
		return val, nil
	default:
		return v, nil
	}
}

func compileString(s string) any {
	if strings.Contains(s, "{") {
		return core.Pattern(s)
	}
	return s
}

func compileVersionValue(raw any) (any, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("versions must be a list")
	}
	cases := make([]core.VersionCase, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("versions[%d] must be a mapping", i)
		}
		since, _ := m["since"].(string)
		if since == "" {
			return nil, fmt.Errorf("versions[%d] needs since", i)
		}
		value, err := compileValue(m["value"])
		if err != nil {
			return nil, fmt.Errorf("versions[%d]: %w", i, err)
		}
		cases = append(cases, core.Since(since, value))
	}
	return core.PickVersion(cases...)
}
