package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-drift/widgetry/pkg/errors"
)

// Reserved argument keys interpreted by the engine before a Constructor runs.
const (
	ArgLocator     = "locator"
	ArgWaitTimeout = "wait_timeout"
)

// Args are the construction arguments of a declaration. Values may be
// placeholders ([Param], [Pattern], [*VersionPick]) that are substituted
// when the declaration is bound.
type Args map[string]any

// Get returns the raw value under key.
func (a Args) Get(key string) (any, bool) {
	v, ok := a[key]
	return v, ok
}

// String returns the value under key formatted as a string, or def.
func (a Args) String(key, def string) string {
	v, ok := a[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool returns the boolean under key, or def.
func (a Args) Bool(key string, def bool) bool {
	if b, ok := a[key].(bool); ok {
		return b
	}
	return def
}

// Duration returns the duration under key, accepting time.Duration values
// and strings such as "2s", or def.
func (a Args) Duration(key string, def time.Duration) (time.Duration, error) {
	switch v := a[key].(type) {
	case nil:
		return def, nil
	case time.Duration:
		return v, nil
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("argument %q: %w", key, err)
		}
		return d, nil
	default:
		return 0, fmt.Errorf("argument %q: want duration, got %T", key, v)
	}
}

func (a Args) clone() Args {
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Param refers to the value of a parameter of the nearest enclosing
// parametrized view.
type Param string

// Pattern is a string with {param} placeholders substituted at bind time.
// A placeholder may name an escaper: {param|quote}. Use {{ and }} for
// literal braces.
type Pattern string

// Escaper transforms a parameter value before it is embedded in a pattern.
type Escaper func(string) string

// QuoteXPath renders s as an XPath string literal, using concat() when s
// contains both quote characters.
func QuoteXPath(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// lookupParam finds name in the parameters of the nearest view that declares it.
func lookupParam(n Node, name string) (any, bool) {
	for cur := n; cur != nil; cur = cur.Parent() {
		if v, ok := cur.(*View); ok {
			if val, ok := v.params.Get(name); ok {
				return val, true
			}
		}
	}
	return nil, false
}

// resolveValue substitutes placeholders in v against owner.
func resolveValue(ctx context.Context, owner Node, v any) (any, error) {
	switch p := v.(type) {
	case Param:
		val, ok := lookupParam(owner, string(p))
		if !ok {
			return nil, errors.Errorf("core.resolveValue", errors.KindNotFound, PathOf(owner),
				"no parameter %q in scope", string(p))
		}
		return val, nil
	case Pattern:
		return interpolate(owner, string(p))
	case *VersionPick:
		_, picked, err := p.resolve(ctx, owner)
		if err != nil {
			return nil, err
		}
		return resolveValue(ctx, owner, picked)
	default:
		return v, nil
	}
}

func resolveArgs(ctx context.Context, owner Node, args Args) (Args, error) {
	out := args.clone()
	for k, v := range args {
		rv, err := resolveValue(ctx, owner, v)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", k, err)
		}
		out[k] = rv
	}
	return out, nil
}

func interpolate(owner Node, tpl string) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(tpl); i++ {
		c := tpl[i]
		switch {
		case c == '{' && i+1 < len(tpl) && tpl[i+1] == '{':
			sb.WriteByte('{')
			i++
		case c == '}' && i+1 < len(tpl) && tpl[i+1] == '}':
			sb.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(tpl[i:], '}')
			if end < 0 {
				return "", errors.Errorf("core.interpolate", errors.KindDefinition, PathOf(owner),
					"unterminated placeholder in %q", tpl)
			}
			s, err := expand(owner, tpl[i+1:i+end])
			if err != nil {
				return "", err
			}
			sb.WriteString(s)
			i += end
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String(), nil
}

func expand(owner Node, placeholder string) (string, error) {
	name, esc, hasEsc := strings.Cut(placeholder, "|")
	name = strings.TrimSpace(name)
	val, ok := lookupParam(owner, name)
	if !ok {
		return "", errors.Errorf("core.interpolate", errors.KindNotFound, PathOf(owner),
			"no parameter %q in scope", name)
	}
	s := fmt.Sprint(val)
	if !hasEsc {
		return s, nil
	}
	esc = strings.TrimSpace(esc)
	sess := owner.Session()
	fn, ok := sess.escaper(esc)
	if !ok {
		return "", errors.Errorf("core.interpolate", errors.KindNotFound, PathOf(owner),
			"unknown escaper %q", esc)
	}
	return fn(s), nil
}
