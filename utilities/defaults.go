package utilities

import (
	"strings"

	"go.uber.org/multierr"

	"twc/css"
)

type staticDef struct {
	name  string
	decls []css.Declaration
}

func static(name string, pairs ...string) staticDef {
	d := staticDef{name: name}
	for i := 0; i+1 < len(pairs); i += 2 {
		d.decls = append(d.decls, css.Decl(pairs[i], pairs[i+1]))
	}
	return d
}

var builtinStatics = []staticDef{
	// display
	static("block", "display", "block"),
	static("inline-block", "display", "inline-block"),
	static("inline", "display", "inline"),
	static("flex", "display", "flex"),
	static("inline-flex", "display", "inline-flex"),
	static("grid", "display", "grid"),
	static("inline-grid", "display", "inline-grid"),
	static("table", "display", "table"),
	static("flow-root", "display", "flow-root"),
	static("contents", "display", "contents"),
	static("hidden", "display", "none"),
	// position
	static("static", "position", "static"),
	static("fixed", "position", "fixed"),
	static("absolute", "position", "absolute"),
	static("relative", "position", "relative"),
	static("sticky", "position", "sticky"),
	// visibility
	static("visible", "visibility", "visible"),
	static("invisible", "visibility", "hidden"),
	static("collapse", "visibility", "collapse"),
	// text decoration
	static("underline", "text-decoration-line", "underline"),
	static("overline", "text-decoration-line", "overline"),
	static("line-through", "text-decoration-line", "line-through"),
	static("no-underline", "text-decoration-line", "none"),
	// font style
	static("italic", "font-style", "italic"),
	static("not-italic", "font-style", "normal"),
	// text transform
	static("uppercase", "text-transform", "uppercase"),
	static("lowercase", "text-transform", "lowercase"),
	static("capitalize", "text-transform", "capitalize"),
	static("normal-case", "text-transform", "none"),
	// text alignment
	static("text-left", "text-align", "left"),
	static("text-center", "text-align", "center"),
	static("text-right", "text-align", "right"),
	static("text-justify", "text-align", "justify"),
	static("text-start", "text-align", "start"),
	static("text-end", "text-align", "end"),
	static("truncate", "overflow", "hidden", "text-overflow", "ellipsis", "white-space", "nowrap"),
	static("sr-only",
		"position", "absolute",
		"width", "1px",
		"height", "1px",
		"padding", "0",
		"margin", "-1px",
		"overflow", "hidden",
		"clip-path", "inset(50%)",
		"white-space", "nowrap",
		"border-width", "0"),
}

// RegisterDefaults installs the built-in utilities.
func RegisterDefaults(r *Registry) error {
	var err error
	for _, s := range builtinStatics {
		err = multierr.Append(err, r.Static(s.name, s.decls...))
	}
	reg := func(name string, spec Spec) {
		err = multierr.Append(err, r.Functional(name, spec))
	}
	th := r.Theme()

	// colors
	for _, c := range []struct {
		name string
		ns   string
		prop string
	}{
		{"accent", "--accent-color", "accent-color"},
		{"caret", "--caret-color", "caret-color"},
		{"fill", "--fill", "fill"},
	} {
		reg(c.name, Spec{
			Values:    colorValues(),
			Theme:     []string{c.ns, "--color"},
			Any:       true,
			Modifiers: opacityModifiers(),
			Resolve:   colorProperty(c.prop),
		})
	}

	reg("bg", Spec{
		Values:    colorValues(),
		Theme:     []string{"--background-color", "--color"},
		Any:       true,
		Modifiers: opacityModifiers(),
		Resolve: func(v Value, ctx Context) ([]css.Declaration, bool) {
			if v.Source == SourceArbitrary {
				switch v.DataType {
				case "url", "image":
					if ctx.HasModifier {
						return nil, false
					}
					return decls(v.Literal, "background-image"), true
				case "length", "percentage", "bg-size":
					if ctx.HasModifier {
						return nil, false
					}
					return decls(v.Literal, "background-size"), true
				}
			}
			return colorProperty("background-color")(v, ctx)
		},
	})

	textModifiers := opacityModifiers()
	textModifiers.Theme = []string{"--leading"}
	textModifiers.Bare = func(s string) (string, bool) { return s, isNumeric(s) }
	reg("text", Spec{
		Values:    colorValues(),
		Theme:     []string{"--text-color", "--color", "--text"},
		Any:       true,
		Modifiers: textModifiers,
		Resolve: func(v Value, ctx Context) ([]css.Declaration, bool) {
			size := false
			switch v.Source {
			case SourceTheme:
				size = strings.HasPrefix(v.ThemeName, "--text-") && !strings.HasPrefix(v.ThemeName, "--text-color")
			case SourceArbitrary:
				switch v.DataType {
				case "length", "percentage", "absolute-size", "relative-size":
					size = true
				}
			}
			if !size {
				return colorProperty("color")(v, ctx)
			}
			out := []css.Declaration{css.Decl("font-size", v.Literal)}
			switch {
			case ctx.HasModifier:
				lh, ok := lineHeight(ctx)
				if !ok {
					return nil, false
				}
				out = append(out, css.Decl("line-height", lh))
			case v.Source == SourceTheme:
				if e, ok := ctx.Theme.Get(v.ThemeName + "--line-height"); ok {
					out = append(out, css.Decl("line-height", ctx.Theme.Reference(v.ThemeName+"--line-height", e)))
				}
			}
			return out, true
		},
	})

	// border width or color
	for _, b := range []struct {
		suffix string
		sides  []string
	}{
		{"", []string{""}},
		{"-x", []string{"-inline"}},
		{"-y", []string{"-block"}},
		{"-s", []string{"-inline-start"}},
		{"-e", []string{"-inline-end"}},
		{"-t", []string{"-top"}},
		{"-r", []string{"-right"}},
		{"-b", []string{"-bottom"}},
		{"-l", []string{"-left"}},
	} {
		widths := make([]string, len(b.sides))
		colors := make([]string, len(b.sides))
		for i, s := range b.sides {
			widths[i] = "border" + s + "-width"
			colors[i] = "border" + s + "-color"
		}
		reg("border"+b.suffix, Spec{
			Values:    colorValues(),
			Theme:     []string{"--border-color", "--color"},
			Any:       true,
			Bare:      pixels,
			Default:   "1px",
			Modifiers: opacityModifiers(),
			Resolve:   widthOrColor(widths, colors),
		})
	}

	reg("decoration", Spec{
		Values:    joinValues(colorValues(), NewValues("auto", "auto", "from-font", "from-font")),
		Theme:     []string{"--text-decoration-color", "--color"},
		Any:       true,
		Bare:      pixels,
		Modifiers: opacityModifiers(),
		Resolve: func(v Value, ctx Context) ([]css.Declaration, bool) {
			if v.Raw == "auto" || v.Raw == "from-font" {
				if ctx.HasModifier {
					return nil, false
				}
				return decls(v.Literal, "text-decoration-thickness"), true
			}
			return widthOrColor([]string{"text-decoration-thickness"}, []string{"text-decoration-color"})(v, ctx)
		},
	})

	reg("stroke", Spec{
		Values:    joinValues(colorValues(), NewValues("none", "none")),
		Theme:     []string{"--stroke", "--color"},
		Any:       true,
		Bare:      func(s string) (string, bool) { return s, isNumeric(s) },
		Modifiers: opacityModifiers(),
		Resolve: func(v Value, ctx Context) ([]css.Declaration, bool) {
			if v.Source == SourceBare || (v.Source == SourceArbitrary && (v.DataType == "number" || v.DataType == "length")) {
				if ctx.HasModifier {
					return nil, false
				}
				return decls(v.Literal, "stroke-width"), true
			}
			return colorProperty("stroke")(v, ctx)
		},
	})

	// spacing
	spacingFamily := func(name string, ns string, negative bool, extra *Values, props ...string) {
		reg(name, Spec{
			Values:     extra,
			Theme:      []string{ns, "--spacing"},
			Any:        true,
			Bare:       spacingBare(th),
			BareValues: spacingValues(th),
			Negative:   negative,
			Resolve:    property(props...),
		})
	}
	for _, p := range []struct {
		suffix string
		props  []string
	}{
		{"", []string{""}},
		{"x", []string{"-inline"}},
		{"y", []string{"-block"}},
		{"s", []string{"-inline-start"}},
		{"e", []string{"-inline-end"}},
		{"t", []string{"-top"}},
		{"r", []string{"-right"}},
		{"b", []string{"-bottom"}},
		{"l", []string{"-left"}},
	} {
		spacingFamily("p"+p.suffix, "--padding", false, NewValues("px", "1px"), "padding"+p.props[0])
		spacingFamily("m"+p.suffix, "--margin", true, NewValues("auto", "auto", "px", "1px"), "margin"+p.props[0])
	}
	spacingFamily("gap", "--gap", false, NewValues("px", "1px"), "gap")
	spacingFamily("gap-x", "--gap", false, NewValues("px", "1px"), "column-gap")
	spacingFamily("gap-y", "--gap", false, NewValues("px", "1px"), "row-gap")

	insetValues := func() *Values { return NewValues("auto", "auto", "full", "100%", "px", "1px") }
	for _, in := range []struct {
		name  string
		props []string
	}{
		{"inset", []string{"inset"}},
		{"inset-x", []string{"inset-inline"}},
		{"inset-y", []string{"inset-block"}},
		{"start", []string{"inset-inline-start"}},
		{"end", []string{"inset-inline-end"}},
		{"top", []string{"top"}},
		{"right", []string{"right"}},
		{"bottom", []string{"bottom"}},
		{"left", []string{"left"}},
	} {
		reg(in.name, Spec{
			Values:     insetValues(),
			Theme:      []string{"--inset", "--spacing"},
			Any:        true,
			Bare:       spacingBare(th),
			BareValues: spacingValues(th),
			Fraction:   percentFraction,
			Negative:   true,
			Resolve:    property(in.props...),
		})
	}

	sizeValues := func(axis string) *Values {
		return NewValues(
			"auto", "auto",
			"full", "100%",
			"screen", "100v"+axis,
			"dvw", "100dvw", "dvh", "100dvh",
			"min", "min-content",
			"max", "max-content",
			"fit", "fit-content",
			"px", "1px",
		)
	}
	for _, s := range []struct {
		name  string
		axis  string
		theme []string
		props []string
	}{
		{"w", "w", []string{"--width", "--spacing", "--container"}, []string{"width"}},
		{"min-w", "w", []string{"--min-width", "--spacing", "--container"}, []string{"min-width"}},
		{"max-w", "w", []string{"--max-width", "--spacing", "--container"}, []string{"max-width"}},
		{"h", "h", []string{"--height", "--spacing"}, []string{"height"}},
		{"min-h", "h", []string{"--min-height", "--spacing"}, []string{"min-height"}},
		{"max-h", "h", []string{"--max-height", "--spacing"}, []string{"max-height"}},
		{"size", "w", []string{"--size", "--spacing"}, []string{"width", "height"}},
	} {
		reg(s.name, Spec{
			Values:     sizeValues(s.axis),
			Theme:      s.theme,
			Any:        true,
			Bare:       spacingBare(th),
			BareValues: spacingValues(th),
			Fraction:   percentFraction,
			Resolve:    property(s.props...),
		})
	}

	// layout and ordering
	reg("z", Spec{
		Values:     NewValues("auto", "auto"),
		Theme:      []string{"--z-index"},
		Any:        true,
		Bare:       anyInteger,
		BareValues: func() []string { return []string{"0", "10", "20", "30", "40", "50"} },
		Negative:   true,
		Resolve:    property("z-index"),
	})
	reg("order", Spec{
		Values:     NewValues("first", "calc(-infinity)", "last", "calc(infinity)", "none", "0"),
		Any:        true,
		Bare:       anyInteger,
		BareValues: integerList(1, 12),
		Negative:   true,
		Resolve:    property("order"),
	})
	reg("opacity", Spec{
		Theme: []string{"--opacity"},
		Any:   true,
		Bare: func(s string) (string, bool) {
			if n, ok := integer(s); ok && n >= 0 && n <= 100 {
				return s + "%", true
			}
			return "", false
		},
		BareValues: func() []string { return opacityModifiers().Values.Keys() },
		Resolve: property("opacity"),
	})

	for _, g := range []struct{ name, prop string }{
		{"grid-cols", "grid-template-columns"},
		{"grid-rows", "grid-template-rows"},
	} {
		reg(g.name, Spec{
			Values: NewValues("none", "none", "subgrid", "subgrid"),
			Theme:  []string{"--" + g.prop},
			Any:    true,
			Bare: func(s string) (string, bool) {
				if _, ok := positiveInteger(s); ok {
					return "repeat(" + s + ", minmax(0, 1fr))", true
				}
				return "", false
			},
			BareValues: integerList(1, 12),
			Resolve:    property(g.prop),
		})
	}
	for _, g := range []struct{ name, prop string }{
		{"col-span", "grid-column"},
		{"row-span", "grid-row"},
	} {
		reg(g.name, Spec{
			Values:     NewValues("full", "1 / -1"),
			Any:        true,
			Bare:       positiveInteger,
			BareValues: integerList(1, 12),
			Resolve: func(v Value, _ Context) ([]css.Declaration, bool) {
				if v.Source == SourceValues {
					return decls(v.Literal, g.prop), true
				}
				return decls("span "+v.Literal+" / span "+v.Literal, g.prop), true
			},
		})
	}

	// typography
	reg("font", Spec{
		Theme: []string{"--font", "--font-weight"},
		Any:   true,
		Resolve: func(v Value, _ Context) ([]css.Declaration, bool) {
			weight := false
			switch v.Source {
			case SourceTheme:
				weight = strings.HasPrefix(v.ThemeName, "--font-weight")
			case SourceArbitrary:
				weight = v.DataType == "number"
			}
			if weight {
				return decls(v.Literal, "font-weight"), true
			}
			return decls(v.Literal, "font-family"), true
		},
	})
	reg("leading", Spec{
		Values:     NewValues("none", "1"),
		Theme:      []string{"--leading"},
		Any:        true,
		Bare:       spacingBare(th),
		BareValues: func() []string { return []string{"3", "4", "5", "6", "7", "8", "9", "10"} },
		Resolve:    property("line-height"),
	})
	reg("tracking", Spec{
		Theme:    []string{"--tracking"},
		Any:      true,
		Negative: true,
		Resolve:  property("letter-spacing"),
	})

	// borders radius
	for _, rd := range []struct {
		suffix string
		props  []string
	}{
		{"", []string{"border-radius"}},
		{"-s", []string{"border-start-start-radius", "border-end-start-radius"}},
		{"-e", []string{"border-start-end-radius", "border-end-end-radius"}},
		{"-t", []string{"border-top-left-radius", "border-top-right-radius"}},
		{"-r", []string{"border-top-right-radius", "border-bottom-right-radius"}},
		{"-b", []string{"border-bottom-right-radius", "border-bottom-left-radius"}},
		{"-l", []string{"border-top-left-radius", "border-bottom-left-radius"}},
		{"-tl", []string{"border-top-left-radius"}},
		{"-tr", []string{"border-top-right-radius"}},
		{"-br", []string{"border-bottom-right-radius"}},
		{"-bl", []string{"border-bottom-left-radius"}},
	} {
		reg("rounded"+rd.suffix, Spec{
			Values:  NewValues("none", "0", "full", "calc(infinity * 1px)"),
			Theme:   []string{"--radius"},
			Any:     true,
			Resolve: property(rd.props...),
		})
	}

	// transitions and effects
	reg("duration", Spec{
		Values:     NewValues("initial", "initial"),
		Theme:      []string{"--duration"},
		Any:        true,
		Bare:       func(s string) (string, bool) { v, ok := anyInteger(s); return v + "ms", ok },
		BareValues: func() []string { return []string{"75", "100", "150", "200", "300", "500", "700", "1000"} },
		Resolve:    property("transition-duration"),
	})
	reg("ease", Spec{
		Values:  NewValues("linear", "linear", "initial", "initial"),
		Theme:   []string{"--ease"},
		Any:     true,
		Resolve: property("transition-timing-function"),
	})
	reg("shadow", Spec{
		Values:  NewValues("none", "0 0 #0000"),
		Theme:   []string{"--shadow"},
		Any:     true,
		Resolve: property("box-shadow"),
	})
	reg("aspect", Spec{
		Values:   NewValues("auto", "auto", "square", "1 / 1"),
		Theme:    []string{"--aspect"},
		Any:      true,
		Fraction: ratioFraction,
		Resolve:  property("aspect-ratio"),
	})

	return err
}

func pixels(s string) (string, bool) {
	if v, ok := anyInteger(s); ok {
		return v + "px", true
	}
	return "", false
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	dot := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '.' && !dot:
			dot = true
		case c < '0' || c > '9':
			return false
		}
	}
	return s != "."
}

// widthOrColor chooses between a width and a color property by the value.
func widthOrColor(widths, colors []string) Resolver {
	return func(v Value, ctx Context) ([]css.Declaration, bool) {
		width := false
		switch v.Source {
		case SourceDefault, SourceBare:
			width = true
		case SourceArbitrary:
			width = v.DataType == "length" || v.DataType == "number" || v.DataType == "line-width"
		}
		if !width {
			return colorProperty(colors...)(v, ctx)
		}
		if ctx.HasModifier {
			return nil, false
		}
		return decls(v.Literal, widths...), true
	}
}

func joinValues(all ...*Values) *Values {
	out := NewValues()
	for _, v := range all {
		for _, k := range v.Keys() {
			lit, _ := v.Get(k)
			out.Set(k, lit)
		}
	}
	return out
}

// lineHeight interprets the font-size modifier (text-sm/6, text-sm/tight).
func lineHeight(ctx Context) (string, bool) {
	if ctx.ModifierArbitrary {
		return ctx.ModifierRaw, true
	}
	if lit, ok := ctx.Theme.ResolveValue(ctx.ModifierRaw, []string{"--leading"}); ok {
		return lit, true
	}
	if isNumeric(ctx.ModifierRaw) {
		return "calc(var(--spacing) * " + ctx.ModifierRaw + ")", true
	}
	return "", false
}
