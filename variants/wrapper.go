// Package variants keeps the variant vocabulary and composes variant chains
// into selector and at-rule wrappers.
package variants

import (
	"strings"
)

// Token is a piece of a selector template: literal text or the placement
// marker for the selector being wrapped.
type Token struct {
	Text string
	Slot bool
}

// Template is a selector with placeholders. Composition splices templates
// token by token, literal text is never searched for markers.
type Template []Token

var identity = Template{{Slot: true}}

// ParseTemplate splits s at unescaped '&' characters.
func ParseTemplate(s string) Template {
	var (
		t     Template
		start int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '&':
			if i > start {
				t = append(t, Token{Text: s[start:i]})
			}
			t = append(t, Token{Slot: true})
			start = i + 1
		}
	}
	if start < len(s) {
		t = append(t, Token{Text: s[start:]})
	}
	return t
}

// IsIdentity reports whether the template leaves its input unchanged.
func (t Template) IsIdentity() bool {
	return len(t) == 0 || (len(t) == 1 && t[0].Slot)
}

func (t Template) HasSlot() bool {
	for _, tok := range t {
		if tok.Slot {
			return true
		}
	}
	return false
}

// Splice replaces every placeholder with the tokens of outer.
func (t Template) Splice(outer Template) Template {
	if len(t) == 0 {
		t = identity
	}
	if len(outer) == 0 {
		outer = identity
	}
	out := make(Template, 0, len(t)+len(outer))
	for _, tok := range t {
		if tok.Slot {
			out = append(out, outer...)
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Render replaces every placeholder with the literal selector sel.
func (t Template) Render(sel string) string {
	if len(t) == 0 {
		return sel
	}
	var b strings.Builder
	for _, tok := range t {
		if tok.Slot {
			b.WriteString(sel)
			continue
		}
		b.WriteString(tok.Text)
	}
	return b.String()
}

func (t Template) String() string {
	return t.Render("&")
}

// AtRule is a conditional group rule wrapping the generated rule.
type AtRule struct {
	Name   string
	Params string
}

func (a AtRule) String() string {
	if a.Params == "" {
		return "@" + a.Name
	}
	return "@" + a.Name + " " + a.Params
}

// Wrapper is one alternative produced by a variant: a stack of at-rules,
// outermost first, around a selector template.
type Wrapper struct {
	AtRules  []AtRule
	Selector Template
}

// SelectorWrapper is a wrapper without at-rules.
func SelectorWrapper(sel string) Wrapper {
	return Wrapper{Selector: ParseTemplate(sel)}
}

// AtRuleWrapper is a wrapper made of a single at-rule.
func AtRuleWrapper(name, params string) Wrapper {
	return Wrapper{AtRules: []AtRule{{Name: name, Params: params}}}
}

// String renders the wrapper in its textual form, for example
// "@media (hover: hover) { &:hover }". A bare at-rule renders without braces.
func (w Wrapper) String() string {
	inner := ""
	if !w.Selector.IsIdentity() || len(w.AtRules) == 0 {
		inner = w.Selector.String()
		if len(w.Selector) == 0 {
			inner = "&"
		}
	}
	for i := len(w.AtRules) - 1; i >= 0; i-- {
		if inner == "" {
			inner = w.AtRules[i].String()
			continue
		}
		inner = w.AtRules[i].String() + " { " + inner + " }"
	}
	return inner
}

// Enclose places inner inside outer: at-rule stacks concatenate and the
// inner selector is applied to the result of the outer one.
func Enclose(outer, inner Wrapper) Wrapper {
	ats := make([]AtRule, 0, len(outer.AtRules)+len(inner.AtRules))
	ats = append(ats, outer.AtRules...)
	ats = append(ats, inner.AtRules...)
	return Wrapper{AtRules: ats, Selector: inner.Selector.Splice(outer.Selector)}
}

// Fold composes a variant chain written outermost first. Each element holds
// the alternatives of one variant, the result is their cross product folded
// right to left. An empty element yields no wrappers at all.
func Fold(chain [][]Wrapper) []Wrapper {
	acc := []Wrapper{{Selector: identity}}
	for i := len(chain) - 1; i >= 0; i-- {
		if len(chain[i]) == 0 {
			return nil
		}
		next := make([]Wrapper, 0, len(acc)*len(chain[i]))
		for _, outer := range chain[i] {
			for _, inner := range acc {
				next = append(next, Enclose(outer, inner))
			}
		}
		acc = next
	}
	return acc
}

func (w Wrapper) clone() Wrapper {
	return Wrapper{
		AtRules:  append([]AtRule(nil), w.AtRules...),
		Selector: append(Template(nil), w.Selector...),
	}
}

// splitSelectorList splits a selector list at top level commas.
func splitSelectorList(s string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}

// parseAtRule reads "@name params".
func parseAtRule(s string) (AtRule, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(s, "@"))
	i := 0
	for i < len(s) && (s[i] == '-' || s[i] >= 'a' && s[i] <= 'z' || s[i] >= 'A' && s[i] <= 'Z' || s[i] >= '0' && s[i] <= '9') {
		i++
	}
	if i == 0 {
		return AtRule{}, false
	}
	return AtRule{Name: s[:i], Params: strings.TrimSpace(s[i:])}, true
}
