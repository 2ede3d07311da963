package testing

import (
	"fmt"
	"strings"
)

// Finder locates elements of a [Page]. A Finder is also a valid locator for
// widgets bound to a session over the page.
type Finder interface {
	// Evaluate returns all matching descendants of root in document order.
	Evaluate(root *Element) []*Element
	// Description returns a human-readable description for error messages.
	Description() string
}

// predicateFinder matches elements satisfying a predicate.
type predicateFinder struct {
	fn   func(*Element) bool
	desc string
}

func (f *predicateFinder) Evaluate(root *Element) []*Element {
	var out []*Element
	root.walk(func(e *Element) bool {
		if f.fn(e) {
			out = append(out, e)
		}
		return true
	})
	return out
}

func (f *predicateFinder) Description() string {
	return f.desc
}

// ByPredicate returns a finder that matches elements satisfying fn.
func ByPredicate(fn func(*Element) bool) Finder {
	return &predicateFinder{fn: fn, desc: "ByPredicate(...)"}
}

// ByID returns a finder that matches elements with the given ID.
func ByID(id string) Finder {
	return &predicateFinder{
		fn:   func(e *Element) bool { return e.ID == id },
		desc: fmt.Sprintf("ByID(%q)", id),
	}
}

// ByTag returns a finder that matches elements with the given tag name.
func ByTag(tag string) Finder {
	return &predicateFinder{
		fn:   func(e *Element) bool { return strings.EqualFold(e.TagName, tag) },
		desc: fmt.Sprintf("ByTag(%q)", tag),
	}
}

// ByText returns a finder that matches elements whose text equals text.
func ByText(text string) Finder {
	return &predicateFinder{
		fn:   func(e *Element) bool { return e.Text == text },
		desc: fmt.Sprintf("ByText(%q)", text),
	}
}

// ByTextContaining returns a finder that matches elements whose text
// contains substring.
func ByTextContaining(substring string) Finder {
	return &predicateFinder{
		fn:   func(e *Element) bool { return strings.Contains(e.Text, substring) },
		desc: fmt.Sprintf("ByTextContaining(%q)", substring),
	}
}

// ByAttr returns a finder that matches elements whose attribute name equals value.
func ByAttr(name, value string) Finder {
	return &predicateFinder{
		fn: func(e *Element) bool {
			v, ok := e.Attribute(name)
			return ok && v == value
		},
		desc: fmt.Sprintf("ByAttr(%s=%q)", name, value),
	}
}

// descendantFinder finds elements matching 'matching' inside elements
// matching 'of'.
type descendantFinder struct {
	of       Finder
	matching Finder
}

func (f *descendantFinder) Evaluate(root *Element) []*Element {
	var out []*Element
	seen := make(map[*Element]bool)
	for _, anc := range f.of.Evaluate(root) {
		for _, e := range f.matching.Evaluate(anc) {
			if !seen[e] {
				seen[e] = true
				out = append(out, e)
			}
		}
	}
	return out
}

func (f *descendantFinder) Description() string {
	return fmt.Sprintf("Descendant(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Descendant returns a finder that matches elements satisfying 'matching'
// that are descendants of elements matching 'of'.
func Descendant(of, matching Finder) Finder {
	return &descendantFinder{of: of, matching: matching}
}

// ParseLocator turns a string locator into a finder. The grammar is a small
// CSS-like subset:
//
//	#id          element ID
//	text=Submit  exact text
//	[name=val]   attribute value
//	tag          tag name
//
// Space-separated parts select descendants, as in "#rows #row-1".
func ParseLocator(s string) (Finder, error) {
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty locator")
	}
	if strings.HasPrefix(strings.TrimSpace(s), "text=") {
		return ByText(strings.TrimPrefix(strings.TrimSpace(s), "text=")), nil
	}
	var f Finder
	for _, p := range parts {
		next, err := parsePart(p)
		if err != nil {
			return nil, fmt.Errorf("locator %q: %w", s, err)
		}
		if f == nil {
			f = next
		} else {
			f = Descendant(f, next)
		}
	}
	return f, nil
}

func parsePart(p string) (Finder, error) {
	switch {
	case strings.HasPrefix(p, "#"):
		return ByID(p[1:]), nil
	case strings.HasPrefix(p, "["):
		if !strings.HasSuffix(p, "]") {
			return nil, fmt.Errorf("unterminated attribute selector %q", p)
		}
		name, value, ok := strings.Cut(p[1:len(p)-1], "=")
		if !ok {
			return nil, fmt.Errorf("attribute selector %q without value", p)
		}
		return ByAttr(name, strings.Trim(value, `'"`)), nil
	default:
		return ByTag(p), nil
	}
}
