package utilities

import (
	"strconv"
	"strings"

	"twc/css"
	"twc/theme"
)

// Negate returns the negative form of a CSS value.
func Negate(v string) string {
	if rest, ok := strings.CutPrefix(v, "calc(var(--spacing) * "); ok {
		if strings.HasPrefix(rest, "-") {
			return "calc(var(--spacing) * " + rest[1:]
		}
		return "calc(var(--spacing) * -" + rest
	}
	if v == "0" {
		return v
	}
	if n, err := strconv.ParseFloat(strings.TrimRight(v, "abcdefghijklmnopqrstuvwxyz%"), 64); err == nil && !strings.ContainsAny(v, " (") {
		if n < 0 {
			return v[1:]
		}
		return "-" + v
	}
	if inner, ok := strings.CutPrefix(v, "calc("); ok && strings.HasSuffix(inner, ")") {
		return "calc(" + inner[:len(inner)-1] + " * -1)"
	}
	return "calc(" + v + " * -1)"
}

// WithAlpha mixes color with transparency. An empty alpha returns color.
func WithAlpha(color, alpha string) string {
	if alpha == "" {
		return color
	}
	return "color-mix(in oklab, " + color + " " + alpha + ", transparent)"
}

// alphaOf interprets the context modifier as an opacity: named integers in
// 0..100 become percentages, arbitrary numbers up to 1 are scaled.
func alphaOf(ctx Context) (string, bool) {
	if !ctx.HasModifier {
		return "", true
	}
	raw := ctx.ModifierRaw
	if ctx.ModifierArbitrary {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			if f <= 1 {
				f *= 100
			}
			return strconv.FormatFloat(f, 'f', -1, 64) + "%", true
		}
		return raw, true
	}
	if n, ok := integer(raw); ok && n >= 0 && n <= 100 {
		return raw + "%", true
	}
	return "", false
}

func integer(s string) (int, bool) {
	if s == "" || strings.HasPrefix(s, "+") {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func positiveInteger(s string) (string, bool) {
	if n, ok := integer(s); ok && n > 0 {
		return s, true
	}
	return "", false
}

func anyInteger(s string) (string, bool) {
	if _, ok := integer(s); ok && !strings.HasPrefix(s, "-") {
		return s, true
	}
	return "", false
}

// opacityModifiers is the modifier space of color utilities.
func opacityModifiers() ModifierSpace {
	v := NewValues()
	for i := 0; i <= 100; i += 5 {
		s := strconv.Itoa(i)
		v.Set(s, s+"%")
	}
	return ModifierSpace{
		Values: v,
		Bare: func(s string) (string, bool) {
			if n, ok := integer(s); ok && n >= 0 && n <= 100 {
				return s + "%", true
			}
			return "", false
		},
		Arbitrary: true,
	}
}

var spacingScale = []string{
	"0", "0.5", "1", "1.5", "2", "2.5", "3", "3.5", "4", "5", "6", "7", "8",
	"9", "10", "11", "12", "14", "16", "20", "24", "28", "32", "36", "40",
	"44", "48", "52", "56", "60", "64", "72", "80", "96",
}

// spacingBare multiplies the --spacing base by a multiple of 0.25.
func spacingBare(th *theme.Theme) func(string) (string, bool) {
	return func(s string) (string, bool) {
		if _, ok := th.Get("--spacing"); !ok {
			return "", false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 || strings.HasPrefix(s, "+") || strings.HasSuffix(s, ".") {
			return "", false
		}
		if q := f * 4; q != float64(int64(q)) {
			return "", false
		}
		return "calc(var(--spacing) * " + s + ")", true
	}
}

func spacingValues(th *theme.Theme) func() []string {
	return func() []string {
		if _, ok := th.Get("--spacing"); !ok {
			return nil
		}
		return spacingScale
	}
}

func integerList(from, to int) func() []string {
	return func() []string {
		out := make([]string, 0, to-from+1)
		for i := from; i <= to; i++ {
			out = append(out, strconv.Itoa(i))
		}
		return out
	}
}

func percentFraction(f string) string {
	return "calc(" + f + " * 100%)"
}

func ratioFraction(f string) string {
	return strings.Replace(f, "/", " / ", 1)
}

// decls sets every property to the same value.
func decls(value string, props ...string) []css.Declaration {
	out := make([]css.Declaration, 0, len(props))
	for _, p := range props {
		out = append(out, css.Decl(p, value))
	}
	return out
}

// property is the resolver of single-value utilities.
func property(props ...string) Resolver {
	return func(v Value, _ Context) ([]css.Declaration, bool) {
		return decls(v.Literal, props...), true
	}
}

// colorProperty is the resolver of color utilities with opacity modifiers.
func colorProperty(props ...string) Resolver {
	return func(v Value, ctx Context) ([]css.Declaration, bool) {
		a, ok := alphaOf(ctx)
		if !ok {
			return nil, false
		}
		return decls(WithAlpha(v.Literal, a), props...), true
	}
}

func colorValues() *Values {
	return NewValues(
		"inherit", "inherit",
		"current", "currentcolor",
		"transparent", "transparent",
	)
}
