package testing

import "time"

// Element is a node of the in-memory page. Build trees with [El] and the
// chained setters, then hand the roots to [NewPage]:
//
//	page := widgettest.NewPage(
//	    widgettest.El("login").Append(
//	        widgettest.El("username").Tag("input"),
//	        widgettest.El("remember").Tag("input").Checkable(),
//	    ),
//	)
//
// Elements are mutated by the page in response to interactions and may be
// mutated directly by tests between calls.
type Element struct {
	ID       string
	TagName  string
	Text     string
	Value    string
	Attrs    map[string]string
	Hidden   bool
	Selected bool
	// Selectable elements toggle Selected when clicked.
	Selectable bool
	// OnClick runs after the page has applied a click.
	OnClick func(el *Element)

	children []*Element
	parent   *Element
	showAt   time.Time
}

// El returns an element with the given ID and tag "div".
func El(id string) *Element {
	return &Element{ID: id, TagName: "div", Attrs: make(map[string]string)}
}

// Tag sets the tag name.
func (e *Element) Tag(name string) *Element {
	e.TagName = name
	return e
}

// WithText sets the visible text.
func (e *Element) WithText(text string) *Element {
	e.Text = text
	return e
}

// WithValue sets the form value.
func (e *Element) WithValue(value string) *Element {
	e.Value = value
	return e
}

// Attr sets an attribute.
func (e *Element) Attr(name, value string) *Element {
	if e.Attrs == nil {
		e.Attrs = make(map[string]string)
	}
	e.Attrs[name] = value
	return e
}

// Hide marks the element as not displayed.
func (e *Element) Hide() *Element {
	e.Hidden = true
	return e
}

// Checkable makes clicks toggle the selected state.
func (e *Element) Checkable() *Element {
	e.Selectable = true
	return e
}

// Checked sets the selected state.
func (e *Element) Checked(on bool) *Element {
	e.Selected = on
	return e
}

// Clicked registers a click callback.
func (e *Element) Clicked(fn func(el *Element)) *Element {
	e.OnClick = fn
	return e
}

// Append adds children in order.
func (e *Element) Append(children ...*Element) *Element {
	for _, c := range children {
		c.parent = e
		e.children = append(e.children, c)
	}
	return e
}

// Remove detaches the element from its parent.
func (e *Element) Remove() {
	if e.parent == nil {
		return
	}
	p := e.parent
	for i, c := range p.children {
		if c == e {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	e.parent = nil
}

// Children returns the direct children.
func (e *Element) Children() []*Element {
	return append([]*Element(nil), e.children...)
}

// Parent returns the parent element, or nil for a detached or root element.
func (e *Element) Parent() *Element { return e.parent }

// Attribute returns an attribute. "id" and "value" read the fields.
func (e *Element) Attribute(name string) (string, bool) {
	switch name {
	case "id":
		return e.ID, e.ID != ""
	case "value":
		return e.Value, true
	}
	v, ok := e.Attrs[name]
	return v, ok
}

// walk visits the descendants of e (not e itself) depth first in document
// order. The visitor returns false to stop.
func (e *Element) walk(visit func(*Element) bool) bool {
	for _, c := range e.children {
		if !visit(c) || !c.walk(visit) {
			return false
		}
	}
	return true
}

func (e *Element) contains(other *Element) bool {
	for cur := other; cur != nil; cur = cur.parent {
		if cur == e {
			return true
		}
	}
	return false
}
