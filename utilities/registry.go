// Package utilities keeps the utility vocabulary and turns parsed candidates
// into declaration lists.
package utilities

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"twc/candidate"
	"twc/css"
	"twc/theme"
)

// Source tells which resolution step produced a value.
type Source uint8

const (
	SourceDefault Source = iota
	SourceArbitrary
	SourceValues
	SourceTheme
	SourceBare
	SourceFraction
)

// Value is the resolved value handed to a resolver.
type Value struct {
	// Raw is the named key or decoded arbitrary text, empty for a bare root.
	Raw     string
	Literal string
	Source  Source
	// DataType is the explicit hint or the inferred type of arbitrary values.
	DataType string
	// ThemeName is the matched theme entry for SourceTheme values.
	ThemeName string
}

// Context carries everything besides the value a resolver may need.
type Context struct {
	Modifier          string
	ModifierRaw       string
	HasModifier       bool
	ModifierArbitrary bool
	Theme             *theme.Theme
}

// Resolver produces declarations for a value. Returning false is an explicit
// no-match, an empty slice is a valid utility producing nothing.
type Resolver func(v Value, ctx Context) ([]css.Declaration, bool)

// ModifierSpace describes which /modifiers a functional utility accepts. The
// zero value accepts none.
type ModifierSpace struct {
	Values    *Values
	Theme     []string
	Bare      func(string) (string, bool)
	Arbitrary bool
	// Any accepts every modifier verbatim.
	Any bool
}

// Spec describes a functional utility.
type Spec struct {
	Values *Values
	Theme  []string
	// Any accepts bracketed arbitrary values.
	Any        bool
	Bare       func(string) (string, bool)
	BareValues func() []string
	// Default is the literal used by the bare root (rounded, border).
	Default   string
	Modifiers ModifierSpace
	Fraction  func(string) string
	Negative  bool
	Resolve   Resolver
}

type kind uint8

const (
	kindStatic kind = iota
	kindFunctional
)

type slot struct {
	kind kind
	name string
}

// ClassEntry is one enumerable class name with its valid modifier suffixes.
type ClassEntry struct {
	Name      string
	Modifiers []string
}

// Registry holds static and functional utilities in registration order.
type Registry struct {
	log         *zap.Logger
	theme       *theme.Theme
	order       []slot
	statics     map[string][]css.Declaration
	functionals map[string]*Spec
}

// New creates an empty registry reading theme values from th.
func New(th *theme.Theme, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		log:         log.Named("utilities"),
		theme:       th,
		statics:     make(map[string][]css.Declaration),
		functionals: make(map[string]*Spec),
	}
}

func (r *Registry) Theme() *theme.Theme {
	return r.theme
}

// Static registers a fixed declaration list. Re-registering overwrites the
// declarations and keeps the original position.
func (r *Registry) Static(name string, decls ...css.Declaration) error {
	if err := validName(name); err != nil {
		return err
	}
	if _, ok := r.statics[name]; ok {
		r.log.Debug("Overwriting static utility", zap.String("name", name))
	} else {
		r.order = append(r.order, slot{kind: kindStatic, name: name})
	}
	r.statics[name] = slices.Clone(decls)
	return nil
}

// Functional registers a value driven utility.
func (r *Registry) Functional(name string, spec Spec) error {
	if err := validName(name); err != nil {
		return err
	}
	if spec.Resolve == nil {
		return fmt.Errorf("utility '%s' has no resolver", name)
	}
	if _, ok := r.functionals[name]; ok {
		r.log.Debug("Overwriting functional utility", zap.String("name", name))
	} else {
		r.order = append(r.order, slot{kind: kindFunctional, name: name})
	}
	r.functionals[name] = &spec
	return nil
}

func validName(name string) error {
	if name == "" {
		return errors.New("utility name is empty")
	}
	if strings.ContainsAny(name, " :[]{}") {
		return fmt.Errorf("invalid utility name '%s'", name)
	}
	return nil
}

func (r *Registry) IsStaticUtility(name string) bool {
	_, ok := r.statics[name]
	return ok
}

func (r *Registry) IsFunctionalUtility(name string) bool {
	_, ok := r.functionals[name]
	return ok
}

// Compile resolves a parsed candidate base into declarations. Variants are
// not looked at.
func (r *Registry) Compile(c candidate.Candidate) ([]css.Declaration, bool) {
	var (
		out []css.Declaration
		ok  bool
	)
	switch c.Kind {
	case candidate.Static:
		if c.Value != nil || c.Modifier != nil || c.Negative {
			return nil, false
		}
		var decls []css.Declaration
		if decls, ok = r.statics[c.Root]; ok {
			out = slices.Clone(decls)
		}
	case candidate.ArbitraryProperty:
		out, ok = compileArbitraryProperty(c)
	case candidate.Functional:
		out, ok = r.compileFunctional(c)
	}
	if !ok {
		return nil, false
	}
	if c.Important {
		for i := range out {
			out[i].Important = true
		}
	}
	return out, true
}

func compileArbitraryProperty(c candidate.Candidate) ([]css.Declaration, bool) {
	if c.Value == nil || c.Negative {
		return nil, false
	}
	value := c.Value.Value
	if c.Modifier != nil {
		a, ok := alphaOf(Context{
			HasModifier:       true,
			ModifierRaw:       c.Modifier.Value,
			ModifierArbitrary: c.Modifier.Kind == candidate.Arbitrary,
		})
		if !ok {
			return nil, false
		}
		value = WithAlpha(value, a)
	}
	return []css.Declaration{css.Decl(c.Property, value)}, true
}

func (r *Registry) compileFunctional(c candidate.Candidate) ([]css.Declaration, bool) {
	spec, ok := r.functionals[c.Root]
	if !ok {
		return nil, false
	}
	if c.Negative && !spec.Negative {
		return nil, false
	}
	v, ok := r.resolveValue(spec, c)
	if !ok {
		return nil, false
	}
	if c.Negative {
		v.Literal = Negate(v.Literal)
	}
	ctx, ok := r.resolveModifier(spec, c, v.Source == SourceFraction)
	if !ok {
		return nil, false
	}
	decls, ok := spec.Resolve(v, ctx)
	if !ok {
		return nil, false
	}
	return slices.Clone(decls), true
}

func (r *Registry) resolveValue(spec *Spec, c candidate.Candidate) (Value, bool) {
	if c.Value == nil {
		if spec.Default != "" {
			return Value{Literal: spec.Default, Source: SourceDefault}, true
		}
		if lit, ok := spec.Values.Get("DEFAULT"); ok {
			return Value{Literal: lit, Source: SourceValues}, true
		}
		if len(spec.Theme) > 0 {
			if name, e, ok := r.theme.Resolve("", spec.Theme); ok {
				return Value{Literal: r.theme.Reference(name, e), Source: SourceTheme, ThemeName: name}, true
			}
		}
		return Value{}, false
	}

	raw := c.Value.Value
	if c.Value.Kind == candidate.Arbitrary {
		if !spec.Any {
			return Value{}, false
		}
		dt := c.Value.DataType
		if dt == "" {
			dt = candidate.InferDataType(raw)
		}
		return Value{Raw: raw, Literal: raw, Source: SourceArbitrary, DataType: dt}, true
	}

	if c.Value.Fraction != "" && spec.Fraction != nil {
		return Value{Raw: c.Value.Fraction, Literal: spec.Fraction(c.Value.Fraction), Source: SourceFraction}, true
	}
	if lit, ok := spec.Values.Get(raw); ok && raw != "DEFAULT" {
		return Value{Raw: raw, Literal: lit, Source: SourceValues}, true
	}
	// nested sub-properties (--text-sm--line-height) are not values
	if len(spec.Theme) > 0 && !strings.Contains(raw, "--") {
		if name, e, ok := r.theme.Resolve(raw, spec.Theme); ok {
			return Value{Raw: raw, Literal: r.theme.Reference(name, e), Source: SourceTheme, ThemeName: name}, true
		}
	}
	if spec.Bare != nil {
		if lit, ok := spec.Bare(raw); ok {
			return Value{Raw: raw, Literal: lit, Source: SourceBare}, true
		}
	}
	return Value{}, false
}

func (r *Registry) resolveModifier(spec *Spec, c candidate.Candidate, consumed bool) (Context, bool) {
	ctx := Context{Theme: r.theme}
	if c.Modifier == nil || consumed {
		return ctx, true
	}
	m := spec.Modifiers
	raw := c.Modifier.Value
	ctx.HasModifier, ctx.ModifierRaw = true, raw

	if c.Modifier.Kind == candidate.Arbitrary {
		if !m.Arbitrary && !m.Any {
			return Context{}, false
		}
		ctx.Modifier, ctx.ModifierArbitrary = raw, true
		return ctx, true
	}
	if lit, ok := m.Values.Get(raw); ok {
		ctx.Modifier = lit
		return ctx, true
	}
	if len(m.Theme) > 0 {
		if lit, ok := r.theme.ResolveValue(raw, m.Theme); ok {
			ctx.Modifier = lit
			return ctx, true
		}
	}
	if m.Bare != nil {
		if lit, ok := m.Bare(raw); ok {
			ctx.Modifier = lit
			return ctx, true
		}
	}
	if m.Any {
		ctx.Modifier = raw
		return ctx, true
	}
	return Context{}, false
}

// ClassList enumerates every class name the registry can produce together
// with the named modifiers each accepts.
func (r *Registry) ClassList() []ClassEntry {
	var out []ClassEntry
	for _, s := range r.order {
		switch s.kind {
		case kindStatic:
			out = append(out, ClassEntry{Name: s.name})
		case kindFunctional:
			out = append(out, r.expand(s.name, r.functionals[s.name])...)
		}
	}
	return out
}

// commonFractions are listed for utilities accepting fractions.
var commonFractions = []string{
	"1/2", "1/3", "2/3", "1/4", "2/4", "3/4",
	"1/5", "2/5", "3/5", "4/5", "1/6", "2/6", "3/6", "4/6", "5/6",
	"1/12", "2/12", "3/12", "4/12", "5/12", "6/12", "7/12", "8/12", "9/12", "10/12", "11/12",
}

func (r *Registry) expand(name string, spec *Spec) []ClassEntry {
	var mods []string
	mods = append(mods, spec.Modifiers.Values.Keys()...)
	for _, ns := range spec.Modifiers.Theme {
		for k := range r.theme.Entries(ns) {
			mods = append(mods, theme.UtilitySuffix(k))
		}
	}

	var (
		suffixes []string
		seen     = make(map[string]bool)
	)
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			suffixes = append(suffixes, s)
		}
	}
	if spec.Default != "" {
		add("")
	}
	if len(spec.Theme) > 0 {
		if _, _, ok := r.theme.Resolve("", spec.Theme); ok {
			add("")
		}
	}
	for _, k := range spec.Values.Keys() {
		if k == "DEFAULT" {
			add("")
			continue
		}
		add(k)
	}
	for _, ns := range spec.Theme {
		for k := range r.theme.Entries(ns) {
			add(theme.UtilitySuffix(k))
		}
	}
	if spec.BareValues != nil {
		for _, v := range spec.BareValues() {
			add(v)
		}
	}

	var out []ClassEntry
	for _, s := range suffixes {
		n := name
		if s != "" {
			n += "-" + s
		}
		out = append(out, ClassEntry{Name: n, Modifiers: mods})
	}
	if spec.Fraction != nil {
		for _, f := range commonFractions {
			out = append(out, ClassEntry{Name: name + "-" + f})
		}
	}
	if len(out) == 0 && spec.Any {
		out = append(out, ClassEntry{Name: name + "-[...]", Modifiers: mods})
	}
	if spec.Negative {
		for _, s := range suffixes {
			if s != "" {
				out = append(out, ClassEntry{Name: "-" + name + "-" + s, Modifiers: mods})
			}
		}
	}
	return out
}

// Names returns registered utility names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.order))
	for _, s := range r.order {
		names = append(names, s.name)
	}
	return names
}
