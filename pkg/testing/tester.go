package testing

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/go-drift/widgetry/pkg/core"
)

// PageTester binds views to an in-memory page for isolated widget tests.
// Its session uses the page clock, so waits never block.
type PageTester struct {
	t       testing.TB
	page    *Page
	session *core.Session
}

// NewPageTester returns a tester over page. Extra session options are
// applied after the test defaults (zaptest logger, page clock).
func NewPageTester(t testing.TB, page *Page, opts ...core.SessionOption) *PageTester {
	t.Helper()
	base := []core.SessionOption{
		core.WithLogger(zaptest.NewLogger(t)),
		core.WithClock(page.Clock()),
	}
	return &PageTester{
		t:       t,
		page:    page,
		session: core.NewSession(page, append(base, opts...)...),
	}
}

// NewSession is shorthand for NewPageTester(t, page, opts...).Session().
func NewSession(t testing.TB, page *Page, opts ...core.SessionOption) *core.Session {
	t.Helper()
	return NewPageTester(t, page, opts...).Session()
}

// Page returns the page under test.
func (pt *PageTester) Page() *Page { return pt.page }

// Session returns the session bound to the page.
func (pt *PageTester) Session() *core.Session { return pt.session }

// Clock returns the fake clock for advancing time in tests.
func (pt *PageTester) Clock() *FakeClock { return pt.page.Clock() }

// View binds tpl at the top of the tree and fails the test on error.
func (pt *PageTester) View(tpl *core.Template) *core.View {
	pt.t.Helper()
	v, err := pt.session.View(tpl)
	if err != nil {
		pt.t.Fatalf("bind %s: %v", tpl.Name(), err)
	}
	return v
}

// Read reads v and fails the test on error.
func (pt *PageTester) Read(v *core.View) map[string]any {
	pt.t.Helper()
	vals, err := v.ReadValues(context.Background())
	if err != nil {
		pt.t.Fatalf("read %s: %v", v.Path(), err)
	}
	return vals.Map()
}

// Find evaluates a finder against the page document.
func (pt *PageTester) Find(finder Finder) FinderResult {
	return FinderResult{elements: finder.Evaluate(pt.page.Root()), finder: finder}
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	elements []*Element
	finder   Finder
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() *Element {
	if len(r.elements) == 0 {
		panic(fmt.Sprintf("Finder found no elements: %s", r.finder.Description()))
	}
	return r.elements[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) *Element {
	if index < 0 || index >= len(r.elements) {
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.elements), r.finder.Description()))
	}
	return r.elements[index]
}

// All returns all matches in document order.
func (r FinderResult) All() []*Element { return r.elements }

// Count returns the number of matches.
func (r FinderResult) Count() int { return len(r.elements) }

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool { return len(r.elements) > 0 }
