// Package modules provides the collaborators the design system uses during
// construction: stylesheet and module loaders, and the registration surface
// handed to plugins.
package modules

import (
	"context"
)

// Stylesheet is imported CSS text together with the base path nested
// imports are resolved against.
type Stylesheet struct {
	Base    string
	Content string
}

// StylesheetLoader resolves @import specifiers.
type StylesheetLoader interface {
	LoadStylesheet(ctx context.Context, id, base string) (Stylesheet, error)
}

// Module is a loaded @config or @plugin target. Value is either a legacy
// configuration object (map[string]any) or a Plugin.
type Module struct {
	Base  string
	Value any
}

// ModuleLoader resolves @config and @plugin specifiers.
type ModuleLoader interface {
	LoadModule(ctx context.Context, id, base string) (Module, error)
}

// Properties maps CSS property names to values.
type Properties map[string]string

// MatchContext carries the modifier of a candidate to a MatchFunc.
type MatchContext struct {
	Modifier    string
	HasModifier bool
}

// MatchFunc returns the declarations for a resolved value, nil means the
// value is not supported.
type MatchFunc func(value string, ctx MatchContext) Properties

// MatchOptions describe the value and modifier spaces of plugin utilities.
type MatchOptions struct {
	Values map[string]string
	// Modifiers enumerates the accepted modifiers. AnyModifier accepts
	// every modifier without listing any.
	Modifiers              map[string]string
	AnyModifier            bool
	SupportsNegativeValues bool
}

// PluginAPI is the registration surface plugins see. Registration problems
// are collected by the implementation and reported once construction ends.
type PluginAPI interface {
	AddUtilities(utilities map[string]Properties)
	MatchUtilities(utilities map[string]MatchFunc, opts MatchOptions)
	AddVariant(name string, defs ...string)
	Theme(path string, def ...any) any
	Config(path string, def ...any) any
}

// Plugin registers utilities and variants.
type Plugin func(api PluginAPI) error
