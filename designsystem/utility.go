package designsystem

import (
	"fmt"
	"strconv"
	"strings"

	"twc/candidate"
	"twc/css"
	"twc/utilities"
)

// call is one --value(...) or --modifier(...) occurrence in a declaration
// value of a functional @utility.
type call struct {
	start, end int
	modifier   bool
	themes     []string
	literals   []string
	bare       []string
	arbitrary  []string
}

func (c *call) acceptsTheme(name string) bool {
	for _, ns := range c.themes {
		if strings.HasPrefix(name, ns+"-") {
			return true
		}
	}
	return false
}

func (c *call) acceptsLiteral(raw string) bool {
	for _, l := range c.literals {
		if l == raw {
			return true
		}
	}
	return false
}

func (c *call) acceptsBare(raw string) bool {
	for _, t := range c.bare {
		if _, ok := bareType(t, raw); ok {
			return true
		}
	}
	return false
}

func (c *call) acceptsArbitrary(dataType string) bool {
	for _, t := range c.arbitrary {
		if t == "*" || t == dataType {
			return true
		}
	}
	return false
}

// bareType checks a named value against a bare data type.
func bareType(typ, raw string) (string, bool) {
	switch typ {
	case "integer":
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 && !strings.HasPrefix(raw, "+") {
			return raw, true
		}
	case "number":
		if f, err := strconv.ParseFloat(raw, 64); err == nil && f >= 0 && !strings.HasPrefix(raw, "+") {
			return raw, true
		}
	case "percentage":
		if p, ok := strings.CutSuffix(raw, "%"); ok {
			if f, err := strconv.ParseFloat(p, 64); err == nil && f >= 0 {
				return raw, true
			}
		}
	case "ratio":
		if a, b, ok := strings.Cut(raw, "/"); ok {
			if _, ok := bareType("integer", a); ok {
				if _, ok := bareType("integer", b); ok {
					return a + " / " + b, true
				}
			}
		}
	}
	return "", false
}

// findCalls locates --value(...) and --modifier(...) calls in v.
func findCalls(v string) ([]*call, error) {
	var calls []*call
	for i := 0; i < len(v); {
		var (
			modifier bool
			head     string
		)
		switch {
		case strings.HasPrefix(v[i:], "--value("):
			head = "--value("
		case strings.HasPrefix(v[i:], "--modifier("):
			head, modifier = "--modifier(", true
		default:
			i++
			continue
		}
		depth, j := 1, i+len(head)
		for ; j < len(v) && depth > 0; j++ {
			switch v[j] {
			case '(':
				depth++
			case ')':
				depth--
			}
		}
		if depth != 0 {
			return nil, fmt.Errorf("unbalanced parentheses in '%s'", v)
		}
		c := &call{start: i, end: j, modifier: modifier}
		for _, arg := range strings.Split(v[i+len(head):j-1], ",") {
			arg = strings.TrimSpace(arg)
			switch {
			case arg == "":
			case strings.HasPrefix(arg, "--") && strings.HasSuffix(arg, "-*"):
				c.themes = append(c.themes, strings.TrimSuffix(arg, "-*"))
			case strings.HasPrefix(arg, `"`) || strings.HasPrefix(arg, "'"):
				c.literals = append(c.literals, css.Unquote(arg))
			case strings.HasPrefix(arg, "[") && strings.HasSuffix(arg, "]"):
				c.arbitrary = append(c.arbitrary, arg[1:len(arg)-1])
			case arg == "integer" || arg == "number" || arg == "percentage" || arg == "ratio":
				c.bare = append(c.bare, arg)
			default:
				return nil, fmt.Errorf("unsupported argument '%s' in '%s'", arg, v[i:j])
			}
		}
		calls = append(calls, c)
		i = j
	}
	return calls, nil
}

type templateDecl struct {
	decl  css.Declaration
	calls []*call
}

// registerUtility compiles a stylesheet @utility. A name ending in "-*"
// declares a functional utility whose declarations use --value(...) and
// --modifier(...) placeholders.
func (b *builder) registerUtility(u utilityDecl) error {
	root, functional := strings.CutSuffix(u.name, "-*")
	if !functional {
		return b.ureg.Static(u.name, u.decls...)
	}

	var (
		spec  utilities.Spec
		tmpl  []templateDecl
		bares = make(map[string]bool)
		mods  = make(map[string]bool)
	)
	for _, d := range u.decls {
		calls, err := findCalls(d.Value)
		if err != nil {
			return fmt.Errorf("@utility %s: %w", u.name, err)
		}
		for _, c := range calls {
			if c.modifier {
				for _, l := range c.literals {
					if spec.Modifiers.Values == nil {
						spec.Modifiers.Values = utilities.NewValues()
					}
					spec.Modifiers.Values.Set(l, l)
				}
				spec.Modifiers.Theme = append(spec.Modifiers.Theme, c.themes...)
				spec.Modifiers.Arbitrary = spec.Modifiers.Arbitrary || len(c.arbitrary) > 0
				for _, t := range c.bare {
					mods[t] = true
				}
				continue
			}
			for _, l := range c.literals {
				if spec.Values == nil {
					spec.Values = utilities.NewValues()
				}
				spec.Values.Set(l, l)
			}
			spec.Theme = append(spec.Theme, c.themes...)
			spec.Any = spec.Any || len(c.arbitrary) > 0
			for _, t := range c.bare {
				bares[t] = true
			}
		}
		tmpl = append(tmpl, templateDecl{decl: d, calls: calls})
	}
	if len(bares) > 0 {
		spec.Bare = bareFunc(bares)
	}
	if len(mods) > 0 {
		spec.Modifiers.Bare = bareFunc(mods)
	}
	spec.Resolve = func(v utilities.Value, ctx utilities.Context) ([]css.Declaration, bool) {
		return expandTemplate(tmpl, v, ctx)
	}
	return b.ureg.Functional(root, spec)
}

func bareFunc(types map[string]bool) func(string) (string, bool) {
	return func(raw string) (string, bool) {
		for _, t := range []string{"integer", "number", "percentage", "ratio"} {
			if !types[t] {
				continue
			}
			if lit, ok := bareType(t, raw); ok {
				return lit, true
			}
		}
		return "", false
	}
}

// expandTemplate substitutes placeholders. Declarations with a placeholder
// that does not accept the resolved value are dropped, the utility matches
// when at least one declaration survives.
func expandTemplate(tmpl []templateDecl, v utilities.Value, ctx utilities.Context) ([]css.Declaration, bool) {
	var out []css.Declaration
	for _, t := range tmpl {
		value, ok := substitute(t, v, ctx)
		if !ok {
			continue
		}
		d := t.decl
		d.Value = spacing(value)
		out = append(out, d)
	}
	return out, len(out) > 0
}

func substitute(t templateDecl, v utilities.Value, ctx utilities.Context) (string, bool) {
	var (
		b    strings.Builder
		last int
	)
	for _, c := range t.calls {
		b.WriteString(t.decl.Value[last:c.start])
		last = c.end
		if c.modifier {
			if !ctx.HasModifier || !modifierAccepted(c, ctx) {
				return "", false
			}
			b.WriteString(ctx.Modifier)
			continue
		}
		if !valueAccepted(c, v) {
			return "", false
		}
		b.WriteString(v.Literal)
	}
	b.WriteString(t.decl.Value[last:])
	return b.String(), true
}

func valueAccepted(c *call, v utilities.Value) bool {
	switch v.Source {
	case utilities.SourceTheme:
		return c.acceptsTheme(v.ThemeName)
	case utilities.SourceValues:
		return c.acceptsLiteral(v.Raw)
	case utilities.SourceBare:
		return c.acceptsBare(v.Raw)
	case utilities.SourceArbitrary:
		dt := v.DataType
		if dt == "" {
			dt = candidate.InferDataType(v.Raw)
		}
		return c.acceptsArbitrary(dt)
	}
	return false
}

func modifierAccepted(c *call, ctx utilities.Context) bool {
	if ctx.ModifierArbitrary {
		return len(c.arbitrary) > 0
	}
	return c.acceptsLiteral(ctx.ModifierRaw) || c.acceptsBare(ctx.ModifierRaw) || len(c.themes) > 0
}

// spacing expands --spacing(x) into a multiple of the spacing scale.
func spacing(v string) string {
	for {
		i := strings.Index(v, "--spacing(")
		if i < 0 {
			return v
		}
		depth, j := 1, i+len("--spacing(")
		for ; j < len(v) && depth > 0; j++ {
			switch v[j] {
			case '(':
				depth++
			case ')':
				depth--
			}
		}
		if depth != 0 {
			return v
		}
		arg := strings.TrimSpace(v[i+len("--spacing(") : j-1])
		v = v[:i] + "calc(var(--spacing) * " + arg + ")" + v[j:]
	}
}
