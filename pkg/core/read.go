package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/widgetry/pkg/browser"
	"github.com/go-drift/widgetry/pkg/errors"
)

// Values is an ordered mapping of name to value, as produced by Read.
// Nested views read as nested *Values.
type Values struct {
	keys []string
	m    map[string]any
}

// NewValues returns an empty mapping.
func NewValues() *Values {
	return &Values{m: make(map[string]any)}
}

// Set stores val under key. A new key is appended; an existing key keeps
// its position.
func (v *Values) Set(key string, val any) {
	if _, ok := v.m[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.m[key] = val
}

// Get returns the value stored under key.
func (v *Values) Get(key string) (any, bool) {
	val, ok := v.m[key]
	return val, ok
}

// Keys returns the keys in insertion order.
func (v *Values) Keys() []string { return slices.Clone(v.keys) }

// Len returns the number of keys.
func (v *Values) Len() int { return len(v.keys) }

// Map converts the mapping, recursively, into plain maps.
func (v *Values) Map() map[string]any {
	out := make(map[string]any, len(v.keys))
	for _, k := range v.keys {
		if nested, ok := v.m[k].(*Values); ok {
			out[k] = nested.Map()
			continue
		}
		out[k] = v.m[k]
	}
	return out
}

// MarshalYAML renders the mapping in key order.
func (v *Values) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range v.keys {
		var val yaml.Node
		if err := val.Encode(v.m[k]); err != nil {
			return nil, fmt.Errorf("encode %q: %w", k, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&val,
		)
	}
	return node, nil
}

// MarshalJSON renders the mapping in key order.
func (v *Values) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range v.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(v.m[k])
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Read returns the view's values as *Values.
func (v *View) Read(ctx context.Context) (any, error) {
	return v.ReadValues(ctx)
}

// ReadValues reads every readable child in declaration order. Children
// whose read reports ErrSkipRead, ErrNotSupported or a missing element are
// left out. Resolution errors propagate.
func (v *View) ReadValues(ctx context.Context) (*Values, error) {
	out := NewValues()
	for _, name := range v.tpl.Names() {
		child, err := v.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		r, ok := child.(Reader)
		if !ok {
			continue
		}
		val, err := r.Read(ctx)
		if skipRead(err) {
			v.session.logger.Debug("read skipped",
				zap.String("view", v.Path()), zap.String("name", name), zap.Error(err))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: read: %w", joinPath(v.Path(), name), err)
		}
		out.Set(name, val)
	}
	return out, nil
}

func skipRead(err error) bool {
	return err != nil && (errors.Is(err, errors.ErrSkipRead) ||
		errors.Is(err, errors.ErrNotSupported) ||
		errors.Is(err, browser.ErrNoSuchElement))
}

// asMapping accepts the mapping forms Fill understands.
func asMapping(value any) (map[string]any, error) {
	switch m := value.(type) {
	case map[string]any:
		return m, nil
	case *Values:
		if m == nil {
			return nil, fmt.Errorf("want a mapping, got nil")
		}
		return m.Map(), nil
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("want a mapping, got %T", value)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
