package widgets

import "github.com/go-drift/widgetry/pkg/core"

// Kinds returns the constructors of this package keyed by kind name, for
// use with manifest compilation.
func Kinds() map[string]core.Constructor {
	return map[string]core.Constructor{
		"text":       NewText,
		"text_input": NewTextInput,
		"checkbox":   NewCheckbox,
		"button":     NewButton,
		"select":     NewSelect,
	}
}
