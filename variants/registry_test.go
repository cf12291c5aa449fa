package variants_test

import (
	"slices"
	"testing"

	"go.uber.org/zap/zaptest"

	"twc/candidate"
	"twc/theme"
	"twc/variants"
)

func newRegistry(t *testing.T) *variants.Registry {
	t.Helper()
	th := theme.New()
	th.Add("--breakpoint-sm", "40rem", 0)
	th.Add("--breakpoint-lg", "64rem", 0)
	r := variants.New(zaptest.NewLogger(t))
	if err := variants.RegisterDefaults(r, th); err != nil {
		t.Fatalf("RegisterDefaults: %v", err)
	}
	return r
}

func TestSelectors(t *testing.T) {
	r := newRegistry(t)

	tests := []struct {
		name, value, modifier string
		want                  []string
	}{
		{"hover", "", "", []string{"@media (hover: hover) { &:hover }"}},
		{"focus", "", "", []string{"&:focus"}},
		{"sm", "", "", []string{"@media (width >= 40rem)"}},
		{"marker", "", "", []string{"& *::marker", "&::marker"}},
		{"group", "hover", "", []string{"@media (hover: hover) { &:is(:where(.group):hover *) }"}},
		{"group", "focus", "item", []string{`&:is(:where(.group\/item):focus *)`}},
		{"group", "sm", "", []string{}},
		{"peer", "sm", "", []string{}},
		{"group", "[@media_print]", "", []string{}},
		{"group", "md", "", []string{}},
		{"group", "group-focus", "", []string{"&:is(:where(.group):is(:where(.group):focus *) *)"}},
		{"peer", "checked", "", []string{"&:is(:where(.peer):checked ~ *)"}},
		{"has", "checked", "", []string{"&:has(*:checked)"}},
		{"in", "focus", "", []string{":where(*:focus) &"}},
		{"not", "hover", "", []string{"@media not (hover: hover)", "&:not(:hover)"}},
		{"not", "sm", "", []string{"@media not (width >= 40rem)"}},
		{"not", "first", "", []string{"&:not(:first-child)"}},
		{"not", "before", "", []string{}},
		{"not", "[.dark_&]", "", []string{"&:not(.dark *)"}},
		{"not", "supports-grid", "", []string{"@supports not (grid: var(--tw))"}},
		{"not", "group-hover", "", []string{}},
		{"not", "not-hover", "", []string{}},
		{"data", "active", "", []string{"&[data-active]"}},
		{"data", "[state=open]", "", []string{"&[data-state=open]"}},
		{"aria", "checked", "", []string{`&[aria-checked="true"]`}},
		{"aria", "[sort=ascending]", "", []string{"&[aria-sort=ascending]"}},
		{"supports", "[display:grid]", "", []string{"@supports (display:grid)"}},
		{"min", "[400px]", "", []string{"@media (width >= 400px)"}},
		{"max", "sm", "", []string{"@media (width < 40rem)"}},
		{"max", "xl", "", []string{}},
		{"nth", "3", "", []string{"&:nth-child(3)"}},
		{"nth-last", "[2n+1]", "", []string{"&:nth-last-child(2n+1)"}},
		{"nth", "foo", "", []string{}},
		{"starting", "", "", []string{"@starting-style"}},
		{"unknown", "", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name+"-"+tt.value, func(t *testing.T) {
			got := r.Selectors(tt.name, tt.value, tt.modifier)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Selectors(%q, %q, %q) = %q, want %q", tt.name, tt.value, tt.modifier, got, tt.want)
			}
		})
	}
}

func TestNotRefusesCompounds(t *testing.T) {
	r := newRegistry(t)
	for _, e := range r.List() {
		if e.Kind != candidate.VariantCompound {
			continue
		}
		if got := r.Selectors("not", e.Name, ""); len(got) != 0 {
			t.Errorf("not-%s must not apply, got %q", e.Name, got)
		}
		if got := r.Selectors("not", e.Name+"-hover", ""); len(got) != 0 {
			t.Errorf("not-%s-hover must not apply, got %q", e.Name, got)
		}
	}
}

func TestCustom(t *testing.T) {
	r := newRegistry(t)

	if err := r.Custom("hocus", "@media (hover: hover) { &:hover, &:focus { @slot; } }"); err != nil {
		t.Fatal(err)
	}
	if err := r.Custom("theme-midnight", "&:where([data-theme=midnight] *)"); err != nil {
		t.Fatal(err)
	}
	if err := r.Custom("print-only", "@media print { @slot }"); err != nil {
		t.Fatal(err)
	}
	if err := r.Custom("alt", "&.a", "&.b"); err != nil {
		t.Fatal(err)
	}
	if err := r.Custom("shorthand", "@media (hover: hover) { &:hover }"); err != nil {
		t.Fatal(err)
	}
	if err := r.Custom("broken", "@media print { color: red; }"); err == nil {
		t.Error("expected block without @slot to be rejected")
	}

	tests := []struct {
		name, value string
		want        []string
	}{
		{"hocus", "", []string{"@media (hover: hover) { &:hover }", "@media (hover: hover) { &:focus }"}},
		{"theme-midnight", "", []string{"&:where([data-theme=midnight] *)"}},
		{"print-only", "", []string{"@media print"}},
		{"shorthand", "", []string{"@media (hover: hover) { &:hover }"}},
		{"group", "theme-midnight", []string{"&:is(:where(.group):where([data-theme=midnight] *) *)"}},
		{"not", "alt", []string{"&:not(.a):not(.b)"}},
		{"not", "hocus", []string{}},
		{"not", "print-only", []string{"@media not print"}},
	}
	for _, tt := range tests {
		got := r.Selectors(tt.name, tt.value, "")
		if !slices.Equal(got, tt.want) {
			t.Errorf("Selectors(%q, %q) = %q, want %q", tt.name, tt.value, got, tt.want)
		}
	}

	values := make(map[string][]string)
	for _, e := range r.List() {
		values[e.Name] = e.Values
	}
	if slices.Contains(values["group"], "print-only") {
		t.Error("block at-rule variant must not be listed under group")
	}
	if !slices.Contains(values["not"], "print-only") {
		t.Error("block at-rule variant must be listed under not")
	}
	if !slices.Contains(values["group"], "hover") || slices.Contains(values["group"], "group") || slices.Contains(values["group"], "not") {
		t.Errorf("unexpected group values %v", values["group"])
	}
	if !slices.Equal(values["max"], []string{"sm", "lg"}) {
		t.Errorf("unexpected max values %v", values["max"])
	}
}

func TestFold(t *testing.T) {
	r := newRegistry(t)
	vocab := vocabulary{r}
	chain := func(segs ...string) [][]variants.Wrapper {
		var out [][]variants.Wrapper
		for _, s := range segs {
			v, ok := candidate.ParseVariant(s, vocab)
			if !ok {
				t.Fatalf("ParseVariant(%q) failed", s)
			}
			out = append(out, r.Wrappers(v))
		}
		return out
	}

	got := variants.Fold(chain("hover", "focus"))
	if len(got) != 1 || got[0].String() != "@media (hover: hover) { &:hover:focus }" {
		t.Errorf("unexpected fold %v", got)
	}
	if sel := got[0].Selector.Render(".x"); sel != ".x:hover:focus" {
		t.Errorf("unexpected selector %s", sel)
	}

	got = variants.Fold(chain("group-hover", "sm"))
	want := "@media (hover: hover) { @media (width >= 40rem) { &:is(:where(.group):hover *) } }"
	if len(got) != 1 || got[0].String() != want {
		t.Errorf("unexpected fold %v", got)
	}

	got = variants.Fold(chain("marker", "hover"))
	if len(got) != 2 || got[0].Selector.Render(".x") != ".x *::marker:hover" {
		t.Errorf("unexpected fold %v", got)
	}

	if got := variants.Fold([][]variants.Wrapper{{variants.SelectorWrapper("&:a")}, nil}); got != nil {
		t.Errorf("expected empty element to fail the chain, got %v", got)
	}
}

func TestTemplate(t *testing.T) {
	tpl := variants.ParseTemplate(`&:is(.a\&b) &`)
	if len(tpl) != 3 {
		t.Fatalf("unexpected tokens %+v", tpl)
	}
	if got := tpl.Render(".x"); got != `.x:is(.a\&b) .x` {
		t.Errorf("Render = %s", got)
	}
	spliced := variants.ParseTemplate("&:hover").Splice(variants.ParseTemplate(".dark &"))
	if got := spliced.String(); got != ".dark &:hover" {
		t.Errorf("Splice = %s", got)
	}
}

type vocabulary struct{ *variants.Registry }

func (vocabulary) IsStaticUtility(string) bool     { return false }
func (vocabulary) IsFunctionalUtility(string) bool { return false }
