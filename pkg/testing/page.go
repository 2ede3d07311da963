package testing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-drift/widgetry/pkg/browser"
)

// Call records one interaction the page received.
type Call struct {
	Op     string
	Target string
	Arg    string
}

// Page is an in-memory browser.Browser. Locators are strings in the
// [ParseLocator] grammar or [Finder] values; element handles are *Element.
type Page struct {
	mu      sync.Mutex
	root    *Element
	clock   *FakeClock
	version string
	calls   []Call
}

var _ browser.Browser = (*Page)(nil)

// NewPage returns a page whose document contains children.
func NewPage(children ...*Element) *Page {
	root := El("").Tag("html")
	root.Append(children...)
	return &Page{root: root, clock: NewFakeClock(), version: "1.0.0"}
}

// Root returns the document element.
func (p *Page) Root() *Element { return p.root }

// Clock returns the clock that drives scheduled visibility.
func (p *Page) Clock() *FakeClock { return p.clock }

// SetVersion sets the product version reported by CurrentVersion. An empty
// version makes CurrentVersion fail.
func (p *Page) SetVersion(v string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.version = v
}

// ShowAfter hides el until the page clock has advanced by d.
func (p *Page) ShowAfter(el *Element, d time.Duration) {
	el.showAt = p.clock.Now().Add(d)
}

// Find returns the first element matching loc anywhere in the document.
// It panics if nothing matches.
func (p *Page) Find(loc browser.Locator) *Element {
	el, err := p.Element(context.Background(), loc, nil)
	if err != nil {
		panic(err)
	}
	return el.(*Element)
}

// Calls returns every interaction received, in order.
func (p *Page) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// CallsTo returns the interactions with op ("click", "clear", "send_keys").
func (p *Page) CallsTo(op string) []Call {
	var out []Call
	for _, c := range p.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (p *Page) record(op string, el *Element, arg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, Call{Op: op, Target: el.ID, Arg: arg})
}

func finderFor(loc browser.Locator) (Finder, error) {
	switch l := loc.(type) {
	case Finder:
		return l, nil
	case string:
		return ParseLocator(l)
	case fmt.Stringer:
		return ParseLocator(l.String())
	default:
		return nil, fmt.Errorf("unsupported locator %T", loc)
	}
}

func (p *Page) scope(scope browser.Element) (*Element, error) {
	if scope == nil {
		return p.root, nil
	}
	el, ok := scope.(*Element)
	if !ok || el == nil {
		return nil, fmt.Errorf("unsupported scope %T", scope)
	}
	if !p.root.contains(el) {
		return nil, fmt.Errorf("%w: scope %q is detached", browser.ErrNoSuchElement, el.ID)
	}
	return el, nil
}

func asElement(el browser.Element) (*Element, error) {
	e, ok := el.(*Element)
	if !ok || e == nil {
		return nil, fmt.Errorf("unsupported element %T", el)
	}
	return e, nil
}

func (p *Page) Element(ctx context.Context, loc browser.Locator, scope browser.Element) (browser.Element, error) {
	els, err := p.find(loc, scope)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		f, _ := finderFor(loc)
		return nil, fmt.Errorf("%w: %s", browser.ErrNoSuchElement, f.Description())
	}
	return els[0], nil
}

func (p *Page) Elements(ctx context.Context, loc browser.Locator, scope browser.Element) ([]browser.Element, error) {
	els, err := p.find(loc, scope)
	if err != nil {
		return nil, err
	}
	out := make([]browser.Element, len(els))
	for i, e := range els {
		out[i] = e
	}
	return out, nil
}

func (p *Page) find(loc browser.Locator, scope browser.Element) ([]*Element, error) {
	f, err := finderFor(loc)
	if err != nil {
		return nil, err
	}
	root, err := p.scope(scope)
	if err != nil {
		return nil, err
	}
	return f.Evaluate(root), nil
}

func (p *Page) displayed(e *Element) bool {
	now := p.clock.Now()
	for cur := e; cur != nil; cur = cur.parent {
		if cur.Hidden || now.Before(cur.showAt) {
			return false
		}
	}
	return true
}

func (p *Page) IsDisplayed(ctx context.Context, el browser.Element) (bool, error) {
	e, err := asElement(el)
	if err != nil {
		return false, err
	}
	return p.displayed(e), nil
}

func (p *Page) IsSelected(ctx context.Context, el browser.Element) (bool, error) {
	e, err := asElement(el)
	if err != nil {
		return false, err
	}
	return e.Selected, nil
}

func (p *Page) Text(ctx context.Context, el browser.Element) (string, error) {
	e, err := asElement(el)
	if err != nil {
		return "", err
	}
	return e.Text, nil
}

func (p *Page) Value(ctx context.Context, el browser.Element) (string, error) {
	e, err := asElement(el)
	if err != nil {
		return "", err
	}
	return e.Value, nil
}

func (p *Page) Attribute(ctx context.Context, el browser.Element, name string) (string, error) {
	e, err := asElement(el)
	if err != nil {
		return "", err
	}
	v, _ := e.Attribute(name)
	return v, nil
}

func (p *Page) interactable(el browser.Element) (*Element, error) {
	e, err := asElement(el)
	if err != nil {
		return nil, err
	}
	if !p.displayed(e) {
		return nil, fmt.Errorf("element %q is not interactable", e.ID)
	}
	return e, nil
}

func (p *Page) Click(ctx context.Context, el browser.Element) error {
	e, err := p.interactable(el)
	if err != nil {
		return err
	}
	p.record("click", e, "")
	switch {
	case strings.EqualFold(e.TagName, "option") && e.parent != nil:
		for _, sib := range e.parent.children {
			sib.Selected = false
		}
		e.Selected = true
	case e.Selectable:
		e.Selected = !e.Selected
	}
	if e.OnClick != nil {
		e.OnClick(e)
	}
	return nil
}

func (p *Page) Clear(ctx context.Context, el browser.Element) error {
	e, err := p.interactable(el)
	if err != nil {
		return err
	}
	p.record("clear", e, "")
	e.Value = ""
	return nil
}

func (p *Page) SendKeys(ctx context.Context, el browser.Element, keys string) error {
	e, err := p.interactable(el)
	if err != nil {
		return err
	}
	p.record("send_keys", e, keys)
	e.Value += keys
	return nil
}

func (p *Page) CurrentVersion(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.version == "" {
		return "", fmt.Errorf("page reports no version")
	}
	return p.version, nil
}
