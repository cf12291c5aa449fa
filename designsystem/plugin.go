package designsystem

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"go.uber.org/zap"

	"twc/compat"
	"twc/css"
	"twc/modules"
	"twc/utilities"
)

// pluginAPI is handed to plugins while the design system is built. Errors
// are collected by the builder and returned from Load.
type pluginAPI struct {
	b    *builder
	name string
}

var _ modules.PluginAPI = (*pluginAPI)(nil)

func (p *pluginAPI) fail(err error) {
	p.b.fail(fmt.Errorf("plugin '%s': %w", p.name, err))
}

// AddUtilities registers static utilities keyed by class selector.
func (p *pluginAPI) AddUtilities(u map[string]modules.Properties) {
	for _, sel := range sortedKeys(u) {
		name, ok := strings.CutPrefix(strings.TrimSpace(sel), ".")
		if !ok || name == "" || strings.ContainsAny(name, " .,>+~:#[") {
			p.fail(fmt.Errorf("unsupported utility selector '%s'", sel))
			continue
		}
		if err := p.b.ureg.Static(name, declarations(u[sel])...); err != nil {
			p.fail(err)
		}
	}
}

// MatchUtilities registers functional utilities. Values are offered in
// natural order, arbitrary values are always accepted.
func (p *pluginAPI) MatchUtilities(u map[string]modules.MatchFunc, opts modules.MatchOptions) {
	for _, name := range sortedKeys(u) {
		fn := u[name]
		spec := utilities.Spec{
			Values:   orderedValues(opts.Values),
			Any:      true,
			Negative: opts.SupportsNegativeValues,
			Modifiers: utilities.ModifierSpace{
				Values:    orderedValues(opts.Modifiers),
				Arbitrary: opts.Modifiers != nil,
				Any:       opts.AnyModifier,
			},
			Resolve: func(v utilities.Value, ctx utilities.Context) ([]css.Declaration, bool) {
				props := fn(v.Literal, modules.MatchContext{Modifier: ctx.Modifier, HasModifier: ctx.HasModifier})
				if props == nil {
					return nil, false
				}
				return declarations(props), true
			},
		}
		if err := p.b.ureg.Functional(name, spec); err != nil {
			p.fail(err)
		}
	}
}

func (p *pluginAPI) AddVariant(name string, defs ...string) {
	if err := p.b.vreg.Custom(name, defs...); err != nil {
		p.fail(err)
	}
}

func (p *pluginAPI) Theme(path string, def ...any) any {
	if v, ok := compat.ThemeValue(p.b.resolved, p.b.theme, path); ok {
		return v
	}
	p.b.log.Debug("Theme value not found", zap.String("plugin", p.name), zap.String("path", path))
	return first(def)
}

func (p *pluginAPI) Config(path string, def ...any) any {
	if p.b.resolved != nil {
		if v, ok := p.b.resolved.Get(path); ok {
			return v
		}
	}
	if path == "important" {
		return p.b.important
	}
	return first(def)
}

func first(def []any) any {
	if len(def) == 0 {
		return nil
	}
	return def[0]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := slices.Collect(maps.Keys(m))
	sort.Sort(natural.StringSlice(keys))
	return keys
}

func orderedValues(m map[string]string) *utilities.Values {
	if m == nil {
		return nil
	}
	v := utilities.NewValues()
	for _, k := range sortedKeys(m) {
		v.Set(k, m[k])
	}
	return v
}

// declarations orders a property map by name.
func declarations(props modules.Properties) []css.Declaration {
	decls := make([]css.Declaration, 0, len(props))
	for _, k := range slices.Sorted(maps.Keys(props)) {
		decls = append(decls, css.Decl(k, props[k]))
	}
	return decls
}
