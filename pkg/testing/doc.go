// Package testing provides an in-memory browser for widgetry tests.
//
// # Quick Start
//
// Describe a page, bind a view to it and assert on reads and interactions:
//
//	func TestLoginForm(t *testing.T) {
//	    page := widgettest.NewPage(
//	        widgettest.El("login").Append(
//	            widgettest.El("username").Tag("input"),
//	        ),
//	    )
//	    tester := widgettest.NewPageTester(t, page)
//	    view := tester.View(LoginForm)
//
//	    changed, err := view.Fill(ctx, map[string]any{"username": "alice"})
//	    require.NoError(t, err)
//	    require.True(t, changed)
//	    require.Equal(t, "alice", page.Find("#username").Value)
//	}
//
// # Locators
//
// The page understands strings in a small CSS-like grammar ("#id",
// "[name=value]", "text=Submit", tag names, space for descendants) and
// [Finder] values such as [ByID] and [ByText].
//
// # Time
//
// The tester session runs on the page's [FakeClock]. Sleeping advances the
// clock, and [Page.ShowAfter] schedules an element to appear once enough
// fake time has passed, so wait strategies run deterministically.
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import widgettest "github.com/go-drift/widgetry/pkg/testing"
package testing
