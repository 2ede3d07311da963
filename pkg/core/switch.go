package core

import (
	"context"
	"fmt"
	"reflect"

	"github.com/go-drift/widgetry/pkg/errors"
)

// SwitchDecl chooses one of several candidate declarations each time the
// child is accessed, by evaluating predicates over the current values of
// sibling widgets. Candidates are tried in registration order and the first
// match wins; otherwise the default candidate, if any, is used.
type SwitchDecl struct {
	reference string
	cases     []switchCase
	def       int
}

type switchCase struct {
	refs  []string
	match func(values ...any) bool
	decl  Declaration
}

// Kind returns KindSwitch.
func (d *SwitchDecl) Kind() Kind { return KindSwitch }

// References returns every sibling name the switch reads, in first-use order.
func (d *SwitchDecl) References() []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range d.cases {
		for _, r := range c.refs {
			if !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	}
	return out
}

// Candidates returns the candidate declarations in registration order.
func (d *SwitchDecl) Candidates() []Declaration {
	out := make([]Declaration, len(d.cases))
	for i, c := range d.cases {
		out[i] = c.decl
	}
	return out
}

// resolve returns the index and declaration of the chosen candidate.
// Reference values are read from the live page on every call.
func (d *SwitchDecl) resolve(ctx context.Context, owner *View, name string) (int, Declaration, error) {
	read := make(map[string]any)
	current := func(ref string) (any, error) {
		if v, ok := read[ref]; ok {
			return v, nil
		}
		child, err := owner.Get(ctx, ref)
		if err != nil {
			return nil, err
		}
		r, ok := child.(Reader)
		if !ok {
			return nil, errors.Errorf("core.Switch", errors.KindNotSupported, joinPath(owner.Path(), ref),
				"switch reference %T cannot be read", child)
		}
		v, err := r.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: read switch reference %q: %w", joinPath(owner.Path(), name), ref, err)
		}
		read[ref] = v
		return v, nil
	}
	for i, c := range d.cases {
		if c.match == nil {
			continue
		}
		values := make([]any, len(c.refs))
		for j, ref := range c.refs {
			v, err := current(ref)
			if err != nil {
				return 0, nil, err
			}
			values[j] = v
		}
		if c.match(values...) {
			return i, c.decl, nil
		}
	}
	if d.def >= 0 {
		return d.def, d.cases[d.def].decl, nil
	}
	return 0, nil, errors.Errorf("core.Switch", errors.KindNoMatchingVariant, joinPath(owner.Path(), name),
		"no candidate matched and no default is registered")
}

// CaseOption configures a switch candidate.
type CaseOption func(*caseConfig)

type caseConfig struct {
	isDefault bool
}

// AsDefault also marks the candidate as the default.
func AsDefault() CaseOption {
	return func(c *caseConfig) { c.isDefault = true }
}

// SwitchBuilder registers switch candidates in order.
type SwitchBuilder struct {
	d    *SwitchDecl
	errs []error
}

// Switch starts a conditional child whose equality cases compare against
// the current value of the sibling named reference. reference may be empty
// when only When cases are used.
func Switch(reference string) *SwitchBuilder {
	return &SwitchBuilder{d: &SwitchDecl{reference: reference, def: -1}}
}

func (b *SwitchBuilder) fail(format string, args ...any) {
	b.errs = append(b.errs, errors.Errorf("core.Switch", errors.KindDefinition, b.d.reference, format, args...))
}

func (b *SwitchBuilder) add(c switchCase, opts []CaseOption) *SwitchBuilder {
	if err := validateDecl(c.decl); err != nil {
		b.fail("candidate %d: %v", len(b.d.cases), err)
		return b
	}
	var cfg caseConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.isDefault {
		if b.d.def >= 0 {
			b.fail("more than one default candidate")
			return b
		}
		b.d.def = len(b.d.cases)
	}
	b.d.cases = append(b.d.cases, c)
	return b
}

// Case selects d when the reference widget's current value equals value.
func (b *SwitchBuilder) Case(value any, d Declaration, opts ...CaseOption) *SwitchBuilder {
	if b.d.reference == "" {
		b.fail("equality case without a reference widget")
		return b
	}
	return b.add(switchCase{
		refs:  []string{b.d.reference},
		match: func(values ...any) bool { return reflect.DeepEqual(values[0], value) },
		decl:  d,
	}, opts)
}

// When selects d when fn returns true for the current values of refs.
func (b *SwitchBuilder) When(fn func(values ...any) bool, refs []string, d Declaration, opts ...CaseOption) *SwitchBuilder {
	if fn == nil {
		b.fail("nil predicate")
		return b
	}
	return b.add(switchCase{refs: append([]string(nil), refs...), match: fn, decl: d}, opts)
}

// Default registers d as the fallback candidate.
func (b *SwitchBuilder) Default(d Declaration) *SwitchBuilder {
	return b.add(switchCase{decl: d}, []CaseOption{AsDefault()})
}

// Build returns the switch declaration.
func (b *SwitchBuilder) Build() (*SwitchDecl, error) {
	errs := append([]error(nil), b.errs...)
	if len(b.d.cases) == 0 && len(errs) == 0 {
		errs = append(errs, errors.Errorf("core.Switch", errors.KindDefinition, b.d.reference, "switch without candidates"))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	d := *b.d
	d.cases = append([]switchCase(nil), b.d.cases...)
	return &d, nil
}

// MustBuild is like Build but panics on error.
func (b *SwitchBuilder) MustBuild() *SwitchDecl {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}
