package variants

import (
	"strings"

	"go.uber.org/multierr"

	"twc/candidate"
	"twc/theme"
)

var pseudoClasses = []struct{ name, selector string }{
	{"first", "&:first-child"},
	{"last", "&:last-child"},
	{"only", "&:only-child"},
	{"odd", "&:nth-child(odd)"},
	{"even", "&:nth-child(even)"},
	{"first-of-type", "&:first-of-type"},
	{"last-of-type", "&:last-of-type"},
	{"only-of-type", "&:only-of-type"},
	{"visited", "&:visited"},
	{"target", "&:target"},
	{"open", "&:is([open], :popover-open, :open)"},
	{"default", "&:default"},
	{"checked", "&:checked"},
	{"indeterminate", "&:indeterminate"},
	{"placeholder-shown", "&:placeholder-shown"},
	{"autofill", "&:autofill"},
	{"optional", "&:optional"},
	{"required", "&:required"},
	{"valid", "&:valid"},
	{"invalid", "&:invalid"},
	{"in-range", "&:in-range"},
	{"out-of-range", "&:out-of-range"},
	{"read-only", "&:read-only"},
	{"empty", "&:empty"},
	{"focus-within", "&:focus-within"},
	{"focus", "&:focus"},
	{"focus-visible", "&:focus-visible"},
	{"active", "&:active"},
	{"enabled", "&:enabled"},
	{"disabled", "&:disabled"},
	{"inert", "&:is([inert], [inert] *)"},
}

var pseudoElements = []struct {
	name      string
	selectors []string
}{
	{"before", []string{"&::before"}},
	{"after", []string{"&::after"}},
	{"first-letter", []string{"&::first-letter"}},
	{"first-line", []string{"&::first-line"}},
	{"marker", []string{"& *::marker", "&::marker"}},
	{"selection", []string{"& *::selection", "&::selection"}},
	{"file", []string{"&::file-selector-button"}},
	{"placeholder", []string{"&::placeholder"}},
	{"backdrop", []string{"&::backdrop"}},
	{"details-content", []string{"&::details-content"}},
}

var mediaVariants = []struct{ name, query string }{
	{"motion-safe", "(prefers-reduced-motion: no-preference)"},
	{"motion-reduce", "(prefers-reduced-motion: reduce)"},
	{"contrast-more", "(prefers-contrast: more)"},
	{"contrast-less", "(prefers-contrast: less)"},
	{"portrait", "(orientation: portrait)"},
	{"landscape", "(orientation: landscape)"},
	{"forced-colors", "(forced-colors: active)"},
	{"print", "print"},
	{"dark", "(prefers-color-scheme: dark)"},
}

var ariaStates = []string{
	"busy", "checked", "disabled", "expanded", "hidden",
	"pressed", "readonly", "required", "selected",
}

// RegisterDefaults installs the built-in variants. Breakpoint variants are
// generated from the --breakpoint namespace of th.
func RegisterDefaults(r *Registry, th *theme.Theme) error {
	var err error
	add := func(e error) { err = multierr.Append(err, e) }

	for _, c := range compoundDefs() {
		add(r.Compound(c.name, c.accepts, c.nests, c.fn))
	}

	for _, p := range pseudoClasses {
		add(r.Static(p.name, SelectorWrapper(p.selector)))
	}
	add(r.Static("hover", Wrapper{
		AtRules:  []AtRule{{Name: "media", Params: "(hover: hover)"}},
		Selector: ParseTemplate("&:hover"),
	}))
	for _, p := range pseudoElements {
		ws := make([]Wrapper, 0, len(p.selectors))
		for _, s := range p.selectors {
			ws = append(ws, SelectorWrapper(s))
		}
		add(r.Static(p.name, ws...))
	}
	add(r.Static("ltr", SelectorWrapper(`&:where(:dir(ltr), [dir="ltr"], [dir="ltr"] *)`)))
	add(r.Static("rtl", SelectorWrapper(`&:where(:dir(rtl), [dir="rtl"], [dir="rtl"] *)`)))
	for _, m := range mediaVariants {
		add(r.Static(m.name, AtRuleWrapper("media", m.query)))
	}
	add(r.Static("starting", AtRuleWrapper("starting-style", "")))

	add(r.Functional("data", CompoundsSelectors, func(a Args) []Wrapper {
		if a.Value == nil || a.Modifier != nil {
			return nil
		}
		return []Wrapper{SelectorWrapper("&[data-" + a.Value.Value + "]")}
	}, nil))
	add(r.Functional("aria", CompoundsSelectors, func(a Args) []Wrapper {
		if a.Value == nil || a.Modifier != nil {
			return nil
		}
		if a.Value.Kind == candidate.Arbitrary {
			return []Wrapper{SelectorWrapper("&[aria-" + a.Value.Value + "]")}
		}
		return []Wrapper{SelectorWrapper(`&[aria-` + a.Value.Value + `="true"]`)}
	}, func() []string { return ariaStates }))
	add(r.Functional("supports", CompoundsAtRules, func(a Args) []Wrapper {
		if a.Value == nil || a.Modifier != nil {
			return nil
		}
		return []Wrapper{AtRuleWrapper("supports", supportsQuery(a.Value))}
	}, nil))
	for _, n := range []struct{ name, pseudo string }{
		{"nth", "nth-child"},
		{"nth-last", "nth-last-child"},
		{"nth-of-type", "nth-of-type"},
		{"nth-last-of-type", "nth-last-of-type"},
	} {
		add(r.Functional(n.name, CompoundsSelectors, func(a Args) []Wrapper {
			if a.Value == nil || a.Modifier != nil {
				return nil
			}
			if a.Value.Kind == candidate.Named && !isInteger(a.Value.Value) {
				return nil
			}
			return []Wrapper{SelectorWrapper("&:" + n.pseudo + "(" + a.Value.Value + ")")}
		}, nil))
	}

	breakpoints := func() []string { return th.Keys("--breakpoint") }
	for key, e := range th.Entries("--breakpoint") {
		add(r.Static(key, AtRuleWrapper("media", "(width >= "+e.Value+")")))
	}
	for _, m := range []struct{ name, op string }{{"min", ">="}, {"max", "<"}} {
		add(r.Functional(m.name, CompoundsAtRules, func(a Args) []Wrapper {
			if a.Value == nil || a.Modifier != nil {
				return nil
			}
			v := a.Value.Value
			if a.Value.Kind == candidate.Named {
				e, ok := th.Get("--breakpoint-" + theme.StorageKey(v))
				if !ok {
					return nil
				}
				v = e.Value
			}
			return []Wrapper{AtRuleWrapper("media", "(width "+m.op+" "+v+")")}
		}, breakpoints))
	}
	return err
}

type compoundDef struct {
	name    string
	accepts Compounds
	nests   bool
	fn      CompoundFunc
}

func compoundDefs() []compoundDef {
	return []compoundDef{
		{"not", CompoundsAll, false, not},
		{"group", CompoundsSelectors, true, relational("group", "*")},
		{"peer", CompoundsSelectors, true, relational("peer", "~ *")},
		{"has", CompoundsSelectors, true, has},
		{"in", CompoundsSelectors, true, in},
	}
}

func supportsQuery(v *candidate.Value) string {
	s := v.Value
	switch {
	case strings.HasPrefix(s, "("), strings.HasPrefix(s, "not "),
		strings.HasPrefix(s, "selector("), strings.HasPrefix(s, "font-"):
		return s
	case strings.Contains(s, ":"):
		return "(" + s + ")"
	}
	return "(" + s + ": var(--tw))"
}

func isInteger(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
