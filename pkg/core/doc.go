// Package core provides the declarative widget composition engine.
//
// A page is described once as a tree of [Template]s. Each template is an
// immutable, ordered registry of named declarations built with [NewView].
// At run time a [Session] binds templates to a browser: accessing a child of
// a [View] materializes it from its declaration, caches it on the view and
// returns the same instance on every later access.
//
// # Core Types
//
// Declaration is an immutable description of a child. It is shared by every
// view built from the same template and is never mutated.
//
// View is the per-owner instantiation of a Template. Views own a binding
// cache and hold a read-only back-reference to their parent for locator
// scoping.
//
// # Declaring Views
//
//	var LoginForm = core.NewView("LoginForm", core.WithRoot("#login")).
//	    Add("username", widgets.TextInputOf("#username")).
//	    Add("password", widgets.TextInputOf("#password")).
//	    Add("remember", widgets.CheckboxOf("#remember")).
//	    MustBuild()
//
//	view, err := session.View(LoginForm)
//	changed, err := view.Fill(ctx, map[string]any{"username": "admin"})
//
// # Instantiation Patterns
//
// Plain children bind once per view. Parametrized templates (declared with
// [WithParams]) are exposed as an [Accessor] that is invoked with parameter
// values. A [SwitchDecl] picks one candidate per access from the current
// values of sibling widgets. A [VersionPick] picks one candidate per access
// from the product version reported by the browser. Switches and version
// picks are re-evaluated on every access; the candidate they land on is
// bound and cached like any other child, so repeated accesses that resolve
// to the same candidate return the same instance.
//
// # Fill and Read
//
// [View.Read] visits children in declaration order and returns ordered
// [Values]. [View.Fill] hands a name-to-value mapping to the view's
// [FillStrategy], which dispatches values to children in declaration order.
package core
