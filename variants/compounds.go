package variants

import (
	"strings"

	"twc/candidate"
	"twc/css"
)

// markerClass returns ":where(.group)" or ":where(.group\/name)" for a
// named modifier. Arbitrary modifiers are refused.
func markerClass(base string, mod *candidate.Modifier) (string, bool) {
	if mod == nil {
		return ":where(." + base + ")", true
	}
	if mod.Kind != candidate.Named {
		return "", false
	}
	return ":where(" + css.EscapeClass(base+"/"+mod.Value) + ")", true
}

// relational builds group and peer: the inner selector is applied to the
// marker element and the result targets its descendants or siblings.
func relational(base, combinator string) CompoundFunc {
	return func(inner []Wrapper, args Args) []Wrapper {
		marker, ok := markerClass(base, args.Modifier)
		if !ok {
			return nil
		}
		out := make([]Wrapper, 0, len(inner))
		for _, w := range inner {
			frag := w.Selector.Render(marker)
			out = append(out, Wrapper{
				AtRules:  w.AtRules,
				Selector: Template{{Slot: true}, {Text: ":is(" + frag + " " + combinator + ")"}},
			})
		}
		return out
	}
}

func has(inner []Wrapper, args Args) []Wrapper {
	if args.Modifier != nil {
		return nil
	}
	out := make([]Wrapper, 0, len(inner))
	for _, w := range inner {
		out = append(out, Wrapper{
			AtRules:  w.AtRules,
			Selector: Template{{Slot: true}, {Text: ":has(" + w.Selector.Render("*") + ")"}},
		})
	}
	return out
}

func in(inner []Wrapper, args Args) []Wrapper {
	if args.Modifier != nil {
		return nil
	}
	out := make([]Wrapper, 0, len(inner))
	for _, w := range inner {
		out = append(out, Wrapper{
			AtRules:  w.AtRules,
			Selector: Template{{Text: ":where(" + w.Selector.Render("*") + ") "}, {Slot: true}},
		})
	}
	return out
}

// not negates the inner alternatives. A single alternative made of at-rules
// and a selector turns into one alternative per negated layer; several
// alternatives must all be plain selectors and chain into one.
func not(inner []Wrapper, args Args) []Wrapper {
	if args.Modifier != nil {
		return nil
	}
	if len(inner) == 1 {
		w := inner[0]
		var out []Wrapper
		for _, at := range w.AtRules {
			neg, ok := negateAtRule(at)
			if !ok {
				return nil
			}
			out = append(out, Wrapper{AtRules: []AtRule{neg}, Selector: identity})
		}
		if !w.Selector.IsIdentity() {
			sel, ok := negateSelector(w.Selector)
			if !ok {
				return nil
			}
			out = append(out, Wrapper{Selector: sel})
		}
		return out
	}

	acc := identity
	for _, w := range inner {
		if len(w.AtRules) > 0 || w.Selector.IsIdentity() {
			return nil
		}
		sel, ok := negateSelector(w.Selector)
		if !ok {
			return nil
		}
		acc = sel.Splice(acc)
	}
	return []Wrapper{{Selector: acc}}
}

func negateAtRule(at AtRule) (AtRule, bool) {
	switch at.Name {
	case "media", "supports", "container":
	default:
		return AtRule{}, false
	}
	params := at.Params
	if rest, ok := strings.CutPrefix(params, "not "); ok {
		return AtRule{Name: at.Name, Params: strings.TrimSpace(rest)}, true
	}
	if at.Name == "container" {
		// keep an optional container name in front of the condition
		if i := strings.IndexByte(params, '('); i > 0 {
			return AtRule{Name: at.Name, Params: strings.TrimSpace(params[:i]) + " not " + params[i:]}, true
		}
	}
	return AtRule{Name: at.Name, Params: "not " + params}, true
}

func negateSelector(t Template) (Template, bool) {
	s := t.String()
	if strings.Contains(s, "::") {
		// pseudo-elements cannot be negated
		return nil, false
	}
	if len(t) == 2 && t[0].Slot && !t[1].Slot {
		rest := t[1].Text
		if rest != "" && !strings.ContainsAny(rest[:1], " >~+") {
			return Template{{Slot: true}, {Text: ":not(" + rest + ")"}}, true
		}
	}
	return Template{{Slot: true}, {Text: ":not(" + t.Render("*") + ")"}}, true
}
