package utilities_test

import (
	"slices"
	"testing"

	"go.uber.org/zap/zaptest"

	"twc/candidate"
	"twc/css"
	"twc/theme"
	"twc/utilities"
)

type vocab struct {
	*utilities.Registry
}

func (vocab) VariantKind(string) (candidate.VariantKind, bool) { return 0, false }

func compile(t *testing.T, r *utilities.Registry, class string) ([]css.Declaration, bool) {
	t.Helper()
	c, ok := candidate.Parse(class, vocab{r})
	if !ok {
		return nil, false
	}
	return r.Compile(c)
}

func render(decls []css.Declaration) []string {
	out := make([]string, 0, len(decls))
	for _, d := range decls {
		out = append(out, d.String())
	}
	return out
}

func newRegistry(t *testing.T) *utilities.Registry {
	th := theme.New()
	th.Add("--color-red-500", "#ef4444", 0)
	th.Add("--spacing", "0.25rem", 0)
	return utilities.New(th, zaptest.NewLogger(t))
}

func TestRegistry_StaticAndOverwrite(t *testing.T) {
	r := newRegistry(t)
	if err := r.Static("custom-utility", css.Decl("color", "red")); err != nil {
		t.Fatal(err)
	}
	if err := r.Static("other", css.Decl("color", "blue")); err != nil {
		t.Fatal(err)
	}
	if err := r.Static("custom-utility", css.Decl("color", "green")); err != nil {
		t.Fatal(err)
	}

	if names := r.Names(); !slices.Equal(names, []string{"custom-utility", "other"}) {
		t.Errorf("unexpected order %v", names)
	}
	decls, ok := compile(t, r, "custom-utility")
	if !ok || len(decls) != 1 || decls[0].Value != "green" {
		t.Errorf("unexpected declarations %v", decls)
	}
	if _, ok := compile(t, r, "custom-utility/50"); ok {
		t.Error("static utility must reject modifiers")
	}

	if err := r.Static(""); err == nil {
		t.Error("expected empty name to be rejected")
	}
	if err := r.Functional("x", utilities.Spec{}); err == nil {
		t.Error("expected missing resolver to be rejected")
	}
}

func TestRegistry_ModifierSpaces(t *testing.T) {
	r := newRegistry(t)
	resolve := func(v utilities.Value, ctx utilities.Context) ([]css.Declaration, bool) {
		out := []css.Declaration{css.Decl("--value", v.Literal)}
		if ctx.HasModifier {
			out = append(out, css.Decl("--modifier", ctx.Modifier))
		}
		return out, true
	}
	mustRegister(t, r.Functional("fixed", utilities.Spec{
		Values:    utilities.NewValues("red", "#f00", "blue", "#00f"),
		Modifiers: utilities.ModifierSpace{Values: utilities.NewValues("50", "0.5", "75", "0.75")},
		Resolve:   resolve,
	}))
	mustRegister(t, r.Functional("loose", utilities.Spec{
		Values:    utilities.NewValues("red", "#f00"),
		Modifiers: utilities.ModifierSpace{Any: true},
		Resolve:   resolve,
	}))
	mustRegister(t, r.Functional("plain", utilities.Spec{
		Values:  utilities.NewValues("red", "#f00"),
		Resolve: resolve,
	}))

	tests := []struct {
		class string
		want  []string
	}{
		{"fixed-red", []string{"--value: #f00"}},
		{"fixed-red/50", []string{"--value: #f00", "--modifier: 0.5"}},
		{"fixed-red/unknown", nil},
		{"fixed-red/[0.3]", nil},
		{"fixed-green", nil},
		{"fixed-[#123]", nil},
		{"loose-red/whatever", []string{"--value: #f00", "--modifier: whatever"}},
		{"loose-red/[0.3]", []string{"--value: #f00", "--modifier: 0.3"}},
		{"plain-red/50", nil},
		{"!plain-red", []string{"--value: #f00 !important"}},
	}
	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			decls, ok := compile(t, r, tt.class)
			if tt.want == nil {
				if ok {
					t.Fatalf("expected no match, got %v", render(decls))
				}
				return
			}
			if !ok {
				t.Fatal("expected match")
			}
			if got := render(decls); !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	list := r.ClassList()
	var fixed, loose []utilities.ClassEntry
	for _, e := range list {
		switch e.Name {
		case "fixed-red", "fixed-blue":
			fixed = append(fixed, e)
		case "loose-red":
			loose = append(loose, e)
		}
	}
	if len(fixed) != 2 || !slices.Equal(fixed[0].Modifiers, []string{"50", "75"}) {
		t.Errorf("unexpected fixed entries %+v", fixed)
	}
	if len(loose) != 1 || len(loose[0].Modifiers) != 0 {
		t.Errorf("unexpected loose entries %+v", loose)
	}
}

func TestRegistry_ThemeValues(t *testing.T) {
	r := newRegistry(t)
	r.Theme().Add("--inset-0_5", "0.125rem", 0)
	r.Theme().Add("--inset-huge", "100rem", theme.OptionInline)
	mustRegister(t, r.Functional("inset", utilities.Spec{
		Theme:    []string{"--inset"},
		Any:      true,
		Negative: true,
		Resolve: func(v utilities.Value, _ utilities.Context) ([]css.Declaration, bool) {
			return []css.Declaration{css.Decl("inset", v.Literal)}, true
		},
	}))

	tests := []struct{ class, want string }{
		{"inset-0.5", "inset: var(--inset-0_5)"},
		{"inset-huge", "inset: 100rem"},
		{"-inset-huge", "inset: -100rem"},
		{"-inset-0.5", "inset: calc(var(--inset-0_5) * -1)"},
		{"inset-[3px]", "inset: 3px"},
	}
	for _, tt := range tests {
		decls, ok := compile(t, r, tt.class)
		if !ok || len(decls) != 1 || decls[0].String() != tt.want {
			t.Errorf("%s: got %v, want %q", tt.class, render(decls), tt.want)
		}
	}

	var names []string
	for _, e := range r.ClassList() {
		names = append(names, e.Name)
	}
	if !slices.Contains(names, "inset-0.5") || !slices.Contains(names, "-inset-huge") {
		t.Errorf("class list %v misses theme keys", names)
	}
}

func TestRegistry_AnyOnlyPlaceholder(t *testing.T) {
	r := newRegistry(t)
	mustRegister(t, r.Functional("content", utilities.Spec{
		Any: true,
		Resolve: func(v utilities.Value, _ utilities.Context) ([]css.Declaration, bool) {
			return []css.Declaration{css.Decl("content", v.Literal)}, true
		},
	}))
	list := r.ClassList()
	if len(list) != 1 || list[0].Name != "content-[...]" {
		t.Errorf("unexpected class list %+v", list)
	}
}

func TestRegistry_ArbitraryProperty(t *testing.T) {
	r := newRegistry(t)
	decls, ok := compile(t, r, "[color:red]/50")
	if !ok || decls[0].String() != "color: color-mix(in oklab, red 50%, transparent)" {
		t.Errorf("unexpected %v", render(decls))
	}
	decls, ok = compile(t, r, "![mask-type:luminance]")
	if !ok || decls[0].String() != "mask-type: luminance !important" {
		t.Errorf("unexpected %v", render(decls))
	}
}

func TestNegate(t *testing.T) {
	tests := []struct{ in, want string }{
		{"calc(var(--spacing) * 4)", "calc(var(--spacing) * -4)"},
		{"10", "-10"},
		{"1px", "-1px"},
		{"-2px", "2px"},
		{"0", "0"},
		{"var(--x)", "calc(var(--x) * -1)"},
		{"calc(1/2 * 100%)", "calc(1/2 * 100% * -1)"},
	}
	for _, tt := range tests {
		if got := utilities.Negate(tt.in); got != tt.want {
			t.Errorf("Negate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func mustRegister(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
