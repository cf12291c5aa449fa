package variants

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"twc/candidate"
	"twc/css"
)

// Compounds is the set of wrapper shapes a variant produces, or for compound
// variants the set of shapes they accept as a value.
type Compounds uint8

const (
	CompoundsSelectors Compounds = 1 << iota
	CompoundsAtRules

	CompoundsNever Compounds = 0
	CompoundsAll             = CompoundsSelectors | CompoundsAtRules
)

// Args are the value and modifier of a functional or compound variant.
type Args struct {
	Value    *candidate.Value
	Modifier *candidate.Modifier
}

// Func builds the wrappers of a functional variant; nil means no match.
type Func func(args Args) []Wrapper

// CompoundFunc wraps the alternatives of an inner variant.
type CompoundFunc func(inner []Wrapper, args Args) []Wrapper

type variant struct {
	name      string
	kind      candidate.VariantKind
	compounds Compounds
	accepts   Compounds
	nests     bool
	static    []Wrapper
	fn        Func
	compound  CompoundFunc
	values    func() []string
}

// Registry holds variants in registration order.
type Registry struct {
	log      *zap.Logger
	parser   *css.Parser
	order    []string
	variants map[string]*variant
}

// New creates an empty registry.
func New(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		log:      log.Named("variants"),
		parser:   css.NewParser(log),
		variants: make(map[string]*variant),
	}
}

func (r *Registry) set(v *variant) error {
	if v.name == "" {
		return errors.New("variant name is empty")
	}
	if strings.ContainsAny(v.name, " :[](){}/") {
		return fmt.Errorf("invalid variant name '%s'", v.name)
	}
	if _, ok := r.variants[v.name]; ok {
		r.log.Debug("Overwriting variant", zap.String("name", v.name), zap.Stringer("kind", v.kind))
	} else {
		r.order = append(r.order, v.name)
	}
	r.variants[v.name] = v
	return nil
}

// Static registers a variant with fixed alternatives.
func (r *Registry) Static(name string, ws ...Wrapper) error {
	if len(ws) == 0 {
		return fmt.Errorf("variant '%s' has no wrappers", name)
	}
	return r.set(&variant{
		name:      name,
		kind:      candidate.VariantStatic,
		compounds: shapeOf(ws),
		static:    ws,
	})
}

// Functional registers a value driven variant. values enumerates suggested
// values and may be nil.
func (r *Registry) Functional(name string, compounds Compounds, fn Func, values func() []string) error {
	if fn == nil {
		return fmt.Errorf("variant '%s' has no function", name)
	}
	return r.set(&variant{
		name:      name,
		kind:      candidate.VariantFunctional,
		compounds: compounds,
		fn:        fn,
		values:    values,
	})
}

// Compound registers a variant parameterized by another variant. accepts
// selects the variants listed as its values, nests allows compound values.
func (r *Registry) Compound(name string, accepts Compounds, nests bool, fn CompoundFunc) error {
	if fn == nil {
		return fmt.Errorf("variant '%s' has no function", name)
	}
	return r.set(&variant{
		name:      name,
		kind:      candidate.VariantCompound,
		compounds: CompoundsSelectors,
		accepts:   accepts,
		nests:     nests,
		compound:  fn,
	})
}

// Custom registers an author defined variant. Every definition is one
// alternative: a selector using '&', an at-rule shorthand ("@media print"),
// or a block with an @slot placement marker.
func (r *Registry) Custom(name string, defs ...string) error {
	if len(defs) == 0 {
		return fmt.Errorf("variant '%s' has no definition", name)
	}
	var ws []Wrapper
	for _, def := range defs {
		def = strings.TrimSpace(def)
		switch {
		case def == "":
			return fmt.Errorf("variant '%s' has an empty definition", name)
		case strings.Contains(def, "{"):
			bw, err := r.parseBlock(def)
			if err != nil {
				return fmt.Errorf("variant '%s': %w", name, err)
			}
			ws = append(ws, bw...)
		case strings.HasPrefix(def, "@"):
			at, ok := parseAtRule(def)
			if !ok {
				return fmt.Errorf("variant '%s': invalid at-rule '%s'", name, def)
			}
			ws = append(ws, Wrapper{AtRules: []AtRule{at}})
		default:
			for _, sel := range splitSelectorList(def) {
				ws = append(ws, selectorAlternative(sel))
			}
		}
	}
	return r.Static(name, ws...)
}

// CustomBlock registers a variant from the already parsed body of a
// @custom-variant block.
func (r *Registry) CustomBlock(name string, nodes []*css.Node) error {
	ws := blockWrappers(nodes, nil, identity)
	if len(ws) == 0 {
		return fmt.Errorf("variant '%s': block does not contain @slot", name)
	}
	return r.Static(name, ws...)
}

// parseBlock turns "@media (hover: hover) { &:hover { @slot; } }" into
// wrappers, one per @slot occurrence.
func (r *Registry) parseBlock(def string) ([]Wrapper, error) {
	sheet := r.parser.ParseString(def)
	ws := blockWrappers(sheet.Nodes, nil, identity)
	if len(ws) == 0 {
		return nil, errors.New("block does not contain @slot")
	}
	return ws, nil
}

func blockWrappers(nodes []*css.Node, ats []AtRule, sel Template) []Wrapper {
	var out []Wrapper
	emit := func(ats []AtRule, sel Template) {
		out = append(out, Wrapper{AtRules: append([]AtRule(nil), ats...), Selector: sel})
	}
	for _, n := range nodes {
		switch n.Kind {
		case css.KindAtRule:
			if n.Name == "slot" {
				emit(ats, sel)
				continue
			}
			if !n.Block {
				continue
			}
			nested := append(append([]AtRule(nil), ats...), AtRule{Name: n.Name, Params: n.Params})
			if len(n.Children) == 0 {
				emit(nested, sel)
				continue
			}
			out = append(out, blockWrappers(n.Children, nested, sel)...)
		case css.KindRule:
			for _, alt := range splitSelectorList(n.Selector) {
				t := nestedSelector(alt).Splice(sel)
				if len(n.Children) == 0 {
					emit(ats, t)
					continue
				}
				out = append(out, blockWrappers(n.Children, ats, t)...)
			}
		case css.KindDeclaration:
			// "&:hover" in a block without braces reads as a declaration
			if p := n.Decl.Property; strings.HasPrefix(p, "&") {
				alt := p
				if n.Decl.Value != "" {
					alt += ":" + n.Decl.Value
				}
				emit(ats, nestedSelector(alt).Splice(sel))
			}
		}
	}
	return out
}

// nestedSelector applies CSS nesting rules: a selector without '&' is a
// descendant of the parent.
func nestedSelector(s string) Template {
	t := ParseTemplate(s)
	if t.HasSlot() {
		return t
	}
	return ParseTemplate("& " + s)
}

// selectorAlternative handles shorthand selectors, a selector without '&'
// filters the element itself.
func selectorAlternative(s string) Wrapper {
	if t := ParseTemplate(s); t.HasSlot() {
		return Wrapper{Selector: t}
	}
	return SelectorWrapper("&:is(" + s + ")")
}

func shapeOf(ws []Wrapper) Compounds {
	var c Compounds
	for _, w := range ws {
		if !w.Selector.IsIdentity() {
			c |= CompoundsSelectors
		}
		if len(w.AtRules) > 0 {
			c |= CompoundsAtRules
		}
	}
	return c
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.variants[name]
	return ok
}

// VariantKind implements candidate.Vocabulary.
func (r *Registry) VariantKind(name string) (candidate.VariantKind, bool) {
	v, ok := r.variants[name]
	if !ok {
		return 0, false
	}
	return v.kind, true
}

// Wrappers resolves a parsed variant into its alternatives. An empty result
// means the variant does not apply.
func (r *Registry) Wrappers(pv candidate.Variant) []Wrapper {
	if pv.Kind == candidate.VariantArbitrary {
		return arbitraryWrappers(pv.Selector)
	}
	v, ok := r.variants[pv.Root]
	if !ok || v.kind != pv.Kind {
		return nil
	}
	switch v.kind {
	case candidate.VariantStatic:
		out := make([]Wrapper, len(v.static))
		for i, w := range v.static {
			out[i] = w.clone()
		}
		return out
	case candidate.VariantFunctional:
		return v.fn(Args{Value: pv.Value, Modifier: pv.Modifier})
	case candidate.VariantCompound:
		if pv.Inner == nil {
			return nil
		}
		if pv.Inner.Kind == candidate.VariantCompound && !v.nests {
			return nil
		}
		inner := r.Wrappers(*pv.Inner)
		if len(inner) == 0 || r.shape(*pv.Inner, inner)&v.accepts == 0 {
			return nil
		}
		return v.compound(inner, Args{Modifier: pv.Modifier})
	}
	return nil
}

// shape is the registered shape of a named variant, or the shape of the
// alternatives an arbitrary variant produced.
func (r *Registry) shape(pv candidate.Variant, ws []Wrapper) Compounds {
	if v, ok := r.variants[pv.Root]; ok && pv.Kind != candidate.VariantArbitrary {
		return v.compounds
	}
	return shapeOf(ws)
}

func arbitraryWrappers(body string) []Wrapper {
	if strings.HasPrefix(body, "@") {
		at, ok := parseAtRule(body)
		if !ok {
			return nil
		}
		switch at.Name {
		case "media", "supports", "container":
			if at.Params == "" {
				return nil
			}
		}
		return []Wrapper{{AtRules: []AtRule{at}}}
	}
	var ws []Wrapper
	for _, alt := range splitSelectorList(body) {
		if alt == "" {
			return nil
		}
		ws = append(ws, selectorAlternative(alt))
	}
	return ws
}

// Selectors resolves a variant by name, value and modifier as tooling asks
// for it and renders the alternatives.
func (r *Registry) Selectors(name, value, modifier string) []string {
	seg := name
	if value != "" {
		seg += "-" + value
	}
	if modifier != "" {
		seg += "/" + modifier
	}
	pv, ok := candidate.ParseVariant(seg, vocabulary{r})
	if !ok || pv.Root != name {
		return []string{}
	}
	ws := r.Wrappers(pv)
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.String())
	}
	return out
}

// vocabulary exposes only variant names to the candidate parser.
type vocabulary struct {
	*Registry
}

func (vocabulary) IsStaticUtility(string) bool     { return false }
func (vocabulary) IsFunctionalUtility(string) bool { return false }

// Entry describes one registered variant for enumeration.
type Entry struct {
	Name      string
	Kind      candidate.VariantKind
	Values    []string
	HasDash   bool
	Compounds Compounds
}

// List enumerates variants in registration order. Compound variants list
// the non-compound variants whose shapes they accept.
func (r *Registry) List() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, name := range r.order {
		v := r.variants[name]
		e := Entry{Name: name, Kind: v.kind, Compounds: v.compounds, HasDash: v.kind != candidate.VariantStatic}
		switch v.kind {
		case candidate.VariantFunctional:
			if v.values != nil {
				e.Values = v.values()
			}
		case candidate.VariantCompound:
			for _, other := range r.order {
				o := r.variants[other]
				if o.kind == candidate.VariantCompound || o.compounds&v.accepts == 0 {
					continue
				}
				e.Values = append(e.Values, other)
			}
		}
		if e.Values == nil {
			e.Values = []string{}
		}
		out = append(out, e)
	}
	return out
}
