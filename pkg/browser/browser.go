// Package browser defines the boundary between widgetry and a browser driver.
//
// The composition engine never talks to a browser directly. Widgets locate
// elements and interact with them through a [Browser], which an adapter (see
// package cdp) or a test double (see pkg/testing) implements. Locators and
// element handles are opaque to the engine: only the Browser implementation
// knows how to resolve a [Locator] or what an [Element] holds.
package browser

import (
	"context"
	"errors"
)

// Locator identifies zero, one or many elements. Its grammar belongs to the
// Browser implementation.
type Locator any

// Element is an opaque handle to a located element.
type Element any

// ErrNoSuchElement is returned by Browser.Element when a locator matches nothing.
var ErrNoSuchElement = errors.New("browser: no such element")

// Finder resolves locators into element handles. A nil scope means the whole
// document.
type Finder interface {
	// Element returns the first element matching loc inside scope, or
	// ErrNoSuchElement.
	Element(ctx context.Context, loc Locator, scope Element) (Element, error)
	// Elements returns every element matching loc inside scope in document order.
	Elements(ctx context.Context, loc Locator, scope Element) ([]Element, error)
}

// Inspector queries element state.
type Inspector interface {
	IsDisplayed(ctx context.Context, el Element) (bool, error)
	IsSelected(ctx context.Context, el Element) (bool, error)
	Text(ctx context.Context, el Element) (string, error)
	Value(ctx context.Context, el Element) (string, error)
	Attribute(ctx context.Context, el Element, name string) (string, error)
}

// Interactor drives elements.
type Interactor interface {
	Click(ctx context.Context, el Element) error
	Clear(ctx context.Context, el Element) error
	SendKeys(ctx context.Context, el Element, keys string) error
}

// VersionSource reports the product version of the page under test.
type VersionSource interface {
	CurrentVersion(ctx context.Context) (string, error)
}

// Browser is everything widgetry consumes from a browser driver.
type Browser interface {
	Finder
	Inspector
	Interactor
	VersionSource
}
