// Package candidate turns utility class names into structured candidates.
package candidate

import (
	"strings"
)

// Kind distinguishes the three shapes of a candidate base.
type Kind uint8

const (
	Static Kind = iota
	Functional
	ArbitraryProperty
)

// ValueKind tells named values from bracketed ones.
type ValueKind uint8

const (
	Named ValueKind = iota
	Arbitrary
)

// Value is the part of a functional utility or variant after its root.
type Value struct {
	Kind ValueKind
	// Value is the named key (escapes removed) or the decoded arbitrary text.
	Value string
	// DataType is the explicit type hint of an arbitrary value ([length:2px]).
	DataType string
	// Fraction is set for named values followed by a numeric modifier (1/2).
	Fraction string
}

// Modifier is the trailing /suffix of a candidate or variant.
type Modifier struct {
	Kind  ValueKind
	Value string
}

// VariantKind is the parse-time category of a variant name.
type VariantKind uint8

const (
	VariantArbitrary VariantKind = iota
	VariantStatic
	VariantFunctional
	VariantCompound
)

func (k VariantKind) String() string {
	switch k {
	case VariantArbitrary:
		return "arbitrary"
	case VariantStatic:
		return "static"
	case VariantFunctional:
		return "functional"
	case VariantCompound:
		return "compound"
	}
	return "unknown"
}

// Variant is one prefix segment of a candidate.
type Variant struct {
	Kind     VariantKind
	Root     string
	Value    *Value
	Modifier *Modifier
	// Inner is the variant a compound variant applies to.
	Inner *Variant
	// Selector holds the body of an arbitrary variant, either a selector
	// containing & or an at-rule starting with @.
	Selector string
}

// Candidate is a parsed class name.
type Candidate struct {
	Kind     Kind
	Root     string
	Value    *Value
	Modifier *Modifier
	// Property and Value hold an arbitrary property candidate ([mask-type:luminance]).
	Property  string
	Negative  bool
	Important bool
	// Variants are in source order, outermost first.
	Variants []Variant
	Raw      string
}

// Vocabulary answers name lookups against the registries. Parsing depends on
// nothing else.
type Vocabulary interface {
	IsStaticUtility(name string) bool
	IsFunctionalUtility(name string) bool
	VariantKind(name string) (VariantKind, bool)
}

// Parse parses input against vocab. It reports false for anything that does
// not form a known candidate and never panics.
func Parse(input string, vocab Vocabulary) (Candidate, bool) {
	segments, ok := splitTopLevel(input, ':')
	if !ok || len(segments) == 0 {
		return Candidate{}, false
	}
	for _, s := range segments {
		if s == "" {
			return Candidate{}, false
		}
	}

	base := segments[len(segments)-1]
	c := Candidate{Raw: input}

	switch {
	case strings.HasPrefix(base, "!"):
		c.Important, base = true, base[1:]
	case strings.HasSuffix(base, "!") && !isEscapedAt(base, len(base)-1):
		c.Important, base = true, base[:len(base)-1]
	}
	if base == "" {
		return Candidate{}, false
	}

	for _, seg := range segments[:len(segments)-1] {
		v, ok := ParseVariant(seg, vocab)
		if !ok {
			return Candidate{}, false
		}
		c.Variants = append(c.Variants, v)
	}

	if !parseBase(&c, base, vocab) {
		return Candidate{}, false
	}
	return c, true
}

func parseBase(c *Candidate, base string, vocab Vocabulary) bool {
	rest, mod, ok := splitModifier(base)
	if !ok {
		return false
	}
	if mod != "" {
		m, ok := parseModifier(mod)
		if !ok {
			return false
		}
		c.Modifier = &m
	}

	if strings.HasPrefix(rest, "[") {
		return parseArbitraryProperty(c, rest)
	}

	if c.Modifier == nil && vocab.IsStaticUtility(rest) {
		c.Kind, c.Root = Static, rest
		return true
	}
	if parseFunctional(c, rest, vocab) {
		return true
	}
	if neg, ok := strings.CutPrefix(rest, "-"); ok && neg != "" {
		c.Negative = true
		if c.Modifier == nil && vocab.IsStaticUtility(neg) {
			// negative static utilities do not exist
			return false
		}
		return parseFunctional(c, neg, vocab)
	}
	return false
}

// parseFunctional picks the longest registered root, splitting at top level
// dashes from the right.
func parseFunctional(c *Candidate, s string, vocab Vocabulary) bool {
	if vocab.IsFunctionalUtility(s) {
		c.Kind, c.Root, c.Value = Functional, s, nil
		return true
	}
	for _, i := range dashPositions(s) {
		root, rest := s[:i], s[i+1:]
		if root == "" || rest == "" || !vocab.IsFunctionalUtility(root) {
			continue
		}
		v, ok := parseValue(rest)
		if !ok {
			continue
		}
		if v.Kind == Named && c.Modifier != nil && c.Modifier.Kind == Named &&
			isInteger(v.Value) && isInteger(c.Modifier.Value) &&
			strings.TrimLeft(c.Modifier.Value, "0") != "" {
			v.Fraction = v.Value + "/" + c.Modifier.Value
		}
		c.Kind, c.Root, c.Value = Functional, root, &v
		return true
	}
	return false
}

func parseArbitraryProperty(c *Candidate, s string) bool {
	if !strings.HasSuffix(s, "]") || isEscapedAt(s, len(s)-1) {
		return false
	}
	body := s[1 : len(s)-1]
	i := topLevelIndex(body, ':')
	if i <= 0 {
		return false
	}
	prop, value := body[:i], DecodeArbitrary(body[i+1:])
	if !isPropertyName(prop) || value == "" {
		return false
	}
	c.Kind, c.Property = ArbitraryProperty, prop
	c.Value = &Value{Kind: Arbitrary, Value: value}
	return true
}

// ParseVariant parses a single variant segment (no colons).
func ParseVariant(seg string, vocab Vocabulary) (Variant, bool) {
	if seg == "" {
		return Variant{}, false
	}
	if strings.HasPrefix(seg, "[") {
		return parseArbitraryVariant(seg)
	}

	rest, mod, ok := splitModifier(seg)
	if !ok {
		return Variant{}, false
	}
	var modifier *Modifier
	if mod != "" {
		m, ok := parseModifier(mod)
		if !ok {
			return Variant{}, false
		}
		modifier = &m
	}

	if kind, ok := vocab.VariantKind(rest); ok && kind == VariantStatic {
		if modifier != nil {
			return Variant{}, false
		}
		return Variant{Kind: VariantStatic, Root: rest}, true
	}

	for _, i := range dashPositions(rest) {
		root, value := rest[:i], rest[i+1:]
		if root == "" || value == "" {
			continue
		}
		kind, ok := vocab.VariantKind(root)
		if !ok {
			continue
		}
		switch kind {
		case VariantFunctional:
			v, ok := parseValue(value)
			if !ok {
				continue
			}
			return Variant{Kind: VariantFunctional, Root: root, Value: &v, Modifier: modifier}, true
		case VariantCompound:
			inner, ok := ParseVariant(value, vocab)
			if !ok {
				continue
			}
			return Variant{Kind: VariantCompound, Root: root, Inner: &inner, Modifier: modifier}, true
		}
	}

	// functional variants with a default value (supports, aria) are not
	// usable bare, only static names are
	return Variant{}, false
}

func parseArbitraryVariant(seg string) (Variant, bool) {
	if !strings.HasSuffix(seg, "]") || isEscapedAt(seg, len(seg)-1) {
		return Variant{}, false
	}
	body := DecodeArbitrary(seg[1 : len(seg)-1])
	if body == "" || strings.ContainsAny(body, "{};") {
		return Variant{}, false
	}
	if !strings.HasPrefix(body, "@") && !strings.Contains(body, "&") {
		body = "&:is(" + body + ")"
	}
	return Variant{Kind: VariantArbitrary, Selector: body}, true
}

func parseValue(s string) (Value, bool) {
	switch {
	case strings.HasPrefix(s, "["):
		if !strings.HasSuffix(s, "]") || isEscapedAt(s, len(s)-1) {
			return Value{}, false
		}
		body := s[1 : len(s)-1]
		hint := ""
		if i := topLevelIndex(body, ':'); i > 0 && isDataType(body[:i]) {
			hint, body = body[:i], body[i+1:]
		}
		decoded := DecodeArbitrary(body)
		if decoded == "" {
			return Value{}, false
		}
		return Value{Kind: Arbitrary, Value: decoded, DataType: hint}, true
	case strings.HasPrefix(s, "("):
		v, hint, ok := parseVarShorthand(s)
		if !ok {
			return Value{}, false
		}
		return Value{Kind: Arbitrary, Value: v, DataType: hint}, true
	}
	v := Unescape(s)
	if !isNamedValue(v) {
		return Value{}, false
	}
	return Value{Kind: Named, Value: v}, true
}

func parseModifier(s string) (Modifier, bool) {
	switch {
	case strings.HasPrefix(s, "["):
		if !strings.HasSuffix(s, "]") || isEscapedAt(s, len(s)-1) {
			return Modifier{}, false
		}
		decoded := DecodeArbitrary(s[1 : len(s)-1])
		if decoded == "" {
			return Modifier{}, false
		}
		return Modifier{Kind: Arbitrary, Value: decoded}, true
	case strings.HasPrefix(s, "("):
		v, _, ok := parseVarShorthand(s)
		if !ok {
			return Modifier{}, false
		}
		return Modifier{Kind: Arbitrary, Value: v}, true
	}
	v := Unescape(s)
	if !isNamedValue(v) {
		return Modifier{}, false
	}
	return Modifier{Kind: Named, Value: v}, true
}

// parseVarShorthand handles (--x) and (type:--x) returning var(--x).
func parseVarShorthand(s string) (string, string, bool) {
	if !strings.HasSuffix(s, ")") {
		return "", "", false
	}
	body := s[1 : len(s)-1]
	hint := ""
	if i := strings.IndexByte(body, ':'); i > 0 && isDataType(body[:i]) {
		hint, body = body[:i], body[i+1:]
	}
	if !strings.HasPrefix(body, "--") || len(body) == 2 {
		return "", "", false
	}
	return "var(" + DecodeArbitrary(body) + ")", hint, true
}

func isNamedValue(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == '%', r == '=', r == '/', r >= 0x80:
		default:
			return false
		}
	}
	return true
}

func isPropertyName(s string) bool {
	if strings.HasPrefix(s, "--") {
		return len(s) > 2
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && r != '-' {
			return false
		}
	}
	return s != "" && s[0] != '-' || strings.HasPrefix(s, "-webkit-") || strings.HasPrefix(s, "-moz-")
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
