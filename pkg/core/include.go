package core

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/go-drift/widgetry/pkg/errors"
)

// includeSlot is one include in a host template: the included template and
// the binding-cache key of its instance on the host. Entries flattened from
// the slot map name -> (slot instance, same name).
type includeSlot struct {
	tpl            *Template
	key            string
	useParentScope bool
}

// IncludeOption configures an include.
type IncludeOption func(*includeSlot)

// UseParentScope makes the included view ignore its own root locator and
// look up its widgets in the host's scope.
func UseParentScope() IncludeOption {
	return func(s *includeSlot) { s.useParentScope = true }
}

// Include flattens the registered children of t into this template at the
// current position. The children appear as direct members of the host, but
// are owned by an instance of t bound on the host. A name already declared
// (or included) in the host is a NameCollision.
func (b *ViewBuilder) Include(t *Template, opts ...IncludeOption) *ViewBuilder {
	if t == nil {
		b.fail(errors.KindDefinition, "", "include of nil template")
		return b
	}
	if t.Parametrized() {
		b.fail(errors.KindDefinition, t.name, "cannot include parametrized template")
		return b
	}
	slot := &includeSlot{
		tpl: t,
		key: fmt.Sprintf("\x00include/%d/%s", len(b.t.includes), t.name),
	}
	for _, opt := range opts {
		opt(slot)
	}
	b.t.includes = append(b.t.includes, slot)
	for _, e := range t.entries {
		b.register(Entry{Name: e.Name, Decl: e.Decl, include: slot})
	}
	return b
}

// includeInstance binds (once) the view that owns the children of slot.
// The included view is nameless, so its children keep the host's path.
func (v *View) includeInstance(slot *includeSlot) *View {
	if cached, ok := v.cache[slot.key]; ok {
		return cached.(*View)
	}
	inc := newView(v, "", slot.tpl, Params{})
	inc.useParentScope = slot.useParentScope
	v.cache[slot.key] = inc
	v.session.observer.Bound(KindInclude, v.Path(), slot.tpl.name)
	v.session.logger.Debug("include bound",
		zap.String("view", v.Path()),
		zap.String("template", slot.tpl.name),
	)
	return inc
}
