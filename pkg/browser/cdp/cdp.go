// Package cdp implements browser.Browser over the Chrome DevTools Protocol
// using chromedp.
//
// Locators are strings. Strings starting with "/" or "(" are XPath
// expressions, everything else is a CSS selector. Both are evaluated inside
// the scope element when one is given; an absolute XPath such as "//input"
// is then read relative to the scope (".//input"). Element handles are
// *cdp.Node values.
package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/go-drift/widgetry/pkg/browser"
)

// DefaultVersionExpression is evaluated in the page to obtain the product
// version when no other expression is configured.
const DefaultVersionExpression = `document.documentElement.getAttribute("data-version") || ""`

// Browser drives one chromedp tab.
type Browser struct {
	tab         context.Context
	versionExpr string
	logger      *zap.Logger
}

var _ browser.Browser = (*Browser)(nil)

// Option configures a Browser.
type Option func(*Browser)

// WithVersionExpression sets the JavaScript expression that yields the
// product version string.
func WithVersionExpression(expr string) Option {
	return func(b *Browser) { b.versionExpr = expr }
}

// WithLogger sets the logger. The default is zap.L().
func WithLogger(l *zap.Logger) Option {
	return func(b *Browser) { b.logger = l }
}

// New returns a Browser over the chromedp context tab, as returned by
// chromedp.NewContext.
func New(tab context.Context, opts ...Option) *Browser {
	b := &Browser{tab: tab, versionExpr: DefaultVersionExpression, logger: zap.L()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Launch starts a browser process and returns a context for its first tab.
// Cancel the returned function to shut the browser down.
func Launch(parent context.Context, headless bool) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("headless", headless))
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	tab, cancelTab := chromedp.NewContext(allocCtx)
	return tab, func() {
		cancelTab()
		cancelAlloc()
	}
}

// Navigate loads url in the tab and waits for the body to be ready.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	b.logger.Debug("navigate", zap.String("url", url))
	return b.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery))
}

func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := b.runContext(ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// runContext derives a context from the tab that carries the caller's
// deadline and is cancelled with it. Cancelling it leaves the tab open.
func (b *Browser) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(b.tab)
	if dl, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, dl)
		prev := cancel
		cancel = func() {
			cancelDeadline()
			prev()
		}
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// isXPath reports whether loc is an XPath expression.
func isXPath(loc string) bool {
	return strings.HasPrefix(loc, "/") || strings.HasPrefix(loc, "(")
}

// relativeXPath anchors an absolute path at the context node, keeping any
// leading parentheses: "//a" becomes ".//a", "(//li)[2]" becomes "(.//li)[2]".
func relativeXPath(expr string) string {
	i := 0
	for i < len(expr) && expr[i] == '(' {
		i++
	}
	if i < len(expr) && expr[i] == '/' {
		return expr[:i] + "." + expr[i:]
	}
	return expr
}

const snapshotExpr = `document.evaluate(%s, this, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null)`

func xpathCountFunc(expr string) (string, error) {
	q, err := json.Marshal(relativeXPath(expr))
	if err != nil {
		return "", err
	}
	return "function() { return " + fmt.Sprintf(snapshotExpr, q) + ".snapshotLength; }", nil
}

func xpathItemFunc(expr string, i int) (string, error) {
	q, err := json.Marshal(relativeXPath(expr))
	if err != nil {
		return "", err
	}
	return "function() { return " + fmt.Sprintf(snapshotExpr, q) + ".snapshotItem(" + strconv.Itoa(i) + "); }", nil
}

func selector(loc browser.Locator) (string, error) {
	switch l := loc.(type) {
	case string:
		if strings.TrimSpace(l) == "" {
			return "", fmt.Errorf("empty locator")
		}
		return l, nil
	case fmt.Stringer:
		return l.String(), nil
	default:
		return "", fmt.Errorf("unsupported locator %T", loc)
	}
}

func node(el browser.Element) (*cdp.Node, error) {
	n, ok := el.(*cdp.Node)
	if !ok || n == nil {
		return nil, fmt.Errorf("unsupported element %T", el)
	}
	return n, nil
}

func (b *Browser) Elements(ctx context.Context, loc browser.Locator, scope browser.Element) ([]browser.Element, error) {
	sel, err := selector(loc)
	if err != nil {
		return nil, err
	}
	var scopeNode *cdp.Node
	if scope != nil {
		if scopeNode, err = node(scope); err != nil {
			return nil, err
		}
	}
	var nodes []*cdp.Node
	switch {
	case isXPath(sel) && scopeNode != nil:
		nodes, err = b.scopedXPath(ctx, sel, scopeNode)
	case isXPath(sel):
		err = b.run(ctx, chromedp.Nodes(sel, &nodes, chromedp.AtLeast(0), chromedp.BySearch))
	case scopeNode != nil:
		err = b.run(ctx, chromedp.Nodes(sel, &nodes, chromedp.AtLeast(0), chromedp.ByQueryAll, chromedp.FromNode(scopeNode)))
	default:
		err = b.run(ctx, chromedp.Nodes(sel, &nodes, chromedp.AtLeast(0), chromedp.ByQueryAll))
	}
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", sel, err)
	}
	out := make([]browser.Element, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out, nil
}

// scopedXPath evaluates expr in the page with scope as the context node.
// chromedp.BySearch goes through DOM.performSearch, which has no context
// node, so the snapshot is walked item by item and each item is pushed to
// the DOM domain.
func (b *Browser) scopedXPath(ctx context.Context, expr string, scope *cdp.Node) ([]*cdp.Node, error) {
	countFn, err := xpathCountFunc(expr)
	if err != nil {
		return nil, err
	}
	var ids []cdp.NodeID
	err = b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(scope.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = runtime.ReleaseObject(obj.ObjectID).Do(ctx) }()

		count, err := callOn(ctx, obj.ObjectID, countFn, true)
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(string(count.Value)))
		if err != nil {
			return fmt.Errorf("snapshot length %q: %w", string(count.Value), err)
		}
		for i := 0; i < n; i++ {
			itemFn, err := xpathItemFunc(expr, i)
			if err != nil {
				return err
			}
			item, err := callOn(ctx, obj.ObjectID, itemFn, false)
			if err != nil {
				return err
			}
			if item.ObjectID == "" {
				continue
			}
			id, err := dom.RequestNode(item.ObjectID).Do(ctx)
			_ = runtime.ReleaseObject(item.ObjectID).Do(ctx)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	}))
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	var nodes []*cdp.Node
	if err := b.run(ctx, chromedp.Nodes(ids, &nodes, chromedp.ByNodeID)); err != nil {
		return nil, err
	}
	return nodes, nil
}

func callOn(ctx context.Context, obj runtime.RemoteObjectID, fn string, byValue bool) (*runtime.RemoteObject, error) {
	res, exc, err := runtime.CallFunctionOn(fn).WithObjectID(obj).WithReturnByValue(byValue).Do(ctx)
	if err != nil {
		return nil, err
	}
	if exc != nil {
		return nil, fmt.Errorf("evaluate xpath: %s", exc.Text)
	}
	return res, nil
}

func (b *Browser) Element(ctx context.Context, loc browser.Locator, scope browser.Element) (browser.Element, error) {
	els, err := b.Elements(ctx, loc, scope)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %v", browser.ErrNoSuchElement, loc)
	}
	return els[0], nil
}

// byNode returns the selector and options addressing n directly.
func byNode(el browser.Element) ([]cdp.NodeID, chromedp.QueryOption, error) {
	n, err := node(el)
	if err != nil {
		return nil, nil, err
	}
	return []cdp.NodeID{n.NodeID}, chromedp.ByNodeID, nil
}

// IsDisplayed reports whether the node has a layout box.
func (b *Browser) IsDisplayed(ctx context.Context, el browser.Element) (bool, error) {
	n, err := node(el)
	if err != nil {
		return false, err
	}
	var box *dom.BoxModel
	err = b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		box, err = dom.GetBoxModel().WithNodeID(n.NodeID).Do(ctx)
		return err
	}))
	if err != nil {
		// Nodes without a box (display: none, detached) fail GetBoxModel.
		b.logger.Debug("no box model", zap.Int64("node", int64(n.NodeID)), zap.Error(err))
		return false, nil
	}
	return box != nil && box.Width > 0 && box.Height > 0, nil
}

func (b *Browser) property(ctx context.Context, el browser.Element, name string, res any) error {
	sel, by, err := byNode(el)
	if err != nil {
		return err
	}
	return b.run(ctx, chromedp.JavascriptAttribute(sel, name, res, by))
}

func (b *Browser) IsSelected(ctx context.Context, el browser.Element) (bool, error) {
	var checked, selected bool
	if err := b.property(ctx, el, "checked", &checked); err != nil {
		return false, err
	}
	if checked {
		return true, nil
	}
	if err := b.property(ctx, el, "selected", &selected); err != nil {
		return false, err
	}
	return selected, nil
}

func (b *Browser) Text(ctx context.Context, el browser.Element) (string, error) {
	var s string
	err := b.property(ctx, el, "innerText", &s)
	return strings.TrimSpace(s), err
}

func (b *Browser) Value(ctx context.Context, el browser.Element) (string, error) {
	var s string
	err := b.property(ctx, el, "value", &s)
	return s, err
}

func (b *Browser) Attribute(ctx context.Context, el browser.Element, name string) (string, error) {
	sel, by, err := byNode(el)
	if err != nil {
		return "", err
	}
	var (
		value string
		ok    bool
	)
	if err := b.run(ctx, chromedp.AttributeValue(sel, name, &value, &ok, by)); err != nil {
		return "", err
	}
	return value, nil
}

func (b *Browser) Click(ctx context.Context, el browser.Element) error {
	sel, by, err := byNode(el)
	if err != nil {
		return err
	}
	return b.run(ctx, chromedp.Click(sel, by))
}

func (b *Browser) Clear(ctx context.Context, el browser.Element) error {
	sel, by, err := byNode(el)
	if err != nil {
		return err
	}
	return b.run(ctx, chromedp.Clear(sel, by))
}

func (b *Browser) SendKeys(ctx context.Context, el browser.Element, keys string) error {
	sel, by, err := byNode(el)
	if err != nil {
		return err
	}
	return b.run(ctx, chromedp.SendKeys(sel, keys, by))
}

// CurrentVersion evaluates the version expression in the page.
func (b *Browser) CurrentVersion(ctx context.Context) (string, error) {
	var v string
	if err := b.run(ctx, chromedp.Evaluate(b.versionExpr, &v)); err != nil {
		return "", fmt.Errorf("evaluate version: %w", err)
	}
	if v == "" {
		return "", fmt.Errorf("page reports no version")
	}
	return v, nil
}
