// Package widgets provides leaf widgets for widgetry views.
//
// Each widget wraps one located element and is bound by the engine from a
// declaration. Declare widgets with the XxxOf helpers:
//
//	var LoginForm = core.NewView("LoginForm", core.WithRoot("#login")).
//	    Add("username", widgets.TextInputOf("#username")).
//	    Add("remember", widgets.CheckboxOf("#remember")).
//	    Add("submit", widgets.ButtonOf("#submit")).
//	    MustBuild()
//
// or with [core.Leaf] and a constructor when extra arguments are needed:
//
//	core.Leaf(widgets.NewSelect, core.Args{
//	    core.ArgLocator: "#country",
//	    widgets.ArgOption: "[role=option]",
//	})
//
// # Read and Fill
//
// Widgets implement core.Reader and core.Filler where it makes sense:
//
//   - [Text] reads its text and cannot be filled.
//   - [TextInput] reads and fills its value.
//   - [Checkbox] reads and fills its checked state.
//   - [Select] reads and fills the text of the selected option.
//   - [Button] neither reads nor fills; it is clicked.
//
// Fill only interacts with the page when the value differs, and reports
// whether it did.
//
// [Kinds] maps the kind names used in manifests to constructors.
package widgets
