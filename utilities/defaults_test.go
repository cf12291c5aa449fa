package utilities_test

import (
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"twc/theme"
	"twc/utilities"
)

func defaultRegistry(t *testing.T) *utilities.Registry {
	t.Helper()
	th := theme.New()
	for _, kv := range [][2]string{
		{"--spacing", "0.25rem"},
		{"--color-red-500", "#ef4444"},
		{"--color-blue-500", "#3b82f6"},
		{"--text-sm", "0.875rem"},
		{"--text-sm--line-height", "1.25rem"},
		{"--leading-tight", "1.25"},
		{"--font-sans", "ui-sans-serif, system-ui, sans-serif"},
		{"--font-weight-bold", "700"},
		{"--radius", "0.25rem"},
		{"--radius-lg", "0.5rem"},
		{"--shadow-sm", "0 1px 2px 0 rgb(0 0 0 / 0.05)"},
		{"--breakpoint-sm", "40rem"},
	} {
		th.Add(kv[0], kv[1], 0)
	}
	r := utilities.New(th, zaptest.NewLogger(t))
	if err := utilities.RegisterDefaults(r); err != nil {
		t.Fatalf("RegisterDefaults: %v", err)
	}
	return r
}

func TestDefaults_Compile(t *testing.T) {
	r := defaultRegistry(t)

	tests := []struct {
		class string
		want  []string
	}{
		{"underline", []string{"text-decoration-line: underline"}},
		{"hidden", []string{"display: none"}},
		{"truncate", []string{"overflow: hidden", "text-overflow: ellipsis", "white-space: nowrap"}},
		{"bg-red-500", []string{"background-color: var(--color-red-500)"}},
		{"bg-red-500/50", []string{"background-color: color-mix(in oklab, var(--color-red-500) 50%, transparent)"}},
		{"bg-[#fff]", []string{"background-color: #fff"}},
		{"bg-[url(/a.png)]", []string{"background-image: url(/a.png)"}},
		{"bg-current", []string{"background-color: currentcolor"}},
		{"text-red-500", []string{"color: var(--color-red-500)"}},
		{"text-sm", []string{"font-size: var(--text-sm)", "line-height: var(--text-sm--line-height)"}},
		{"text-sm/tight", []string{"font-size: var(--text-sm)", "line-height: var(--leading-tight)"}},
		{"text-sm/6", []string{"font-size: var(--text-sm)", "line-height: calc(var(--spacing) * 6)"}},
		{"text-[2rem]", []string{"font-size: 2rem"}},
		{"text-center", []string{"text-align: center"}},
		{"border", []string{"border-width: 1px"}},
		{"border-2", []string{"border-width: 2px"}},
		{"border-t-red-500", []string{"border-top-color: var(--color-red-500)"}},
		{"p-4", []string{"padding: calc(var(--spacing) * 4)"}},
		{"px-0.5", []string{"padding-inline: calc(var(--spacing) * 0.5)"}},
		{"p-px", []string{"padding: 1px"}},
		{"-m-4", []string{"margin: calc(var(--spacing) * -4)"}},
		{"mx-auto", []string{"margin-inline: auto"}},
		{"w-1/2", []string{"width: calc(1/2 * 100%)"}},
		{"size-4", []string{"width: calc(var(--spacing) * 4)", "height: calc(var(--spacing) * 4)"}},
		{"inset-x-2", []string{"inset-inline: calc(var(--spacing) * 2)"}},
		{"-z-10", []string{"z-index: -10"}},
		{"opacity-50", []string{"opacity: 50%"}},
		{"grid-cols-3", []string{"grid-template-columns: repeat(3, minmax(0, 1fr))"}},
		{"col-span-2", []string{"grid-column: span 2 / span 2"}},
		{"col-span-full", []string{"grid-column: 1 / -1"}},
		{"font-sans", []string{"font-family: var(--font-sans)"}},
		{"font-bold", []string{"font-weight: var(--font-weight-bold)"}},
		{"font-[600]", []string{"font-weight: 600"}},
		{"rounded", []string{"border-radius: var(--radius)"}},
		{"rounded-t-lg", []string{"border-top-left-radius: var(--radius-lg)", "border-top-right-radius: var(--radius-lg)"}},
		{"rounded-full", []string{"border-radius: calc(infinity * 1px)"}},
		{"duration-150", []string{"transition-duration: 150ms"}},
		{"shadow-sm", []string{"box-shadow: var(--shadow-sm)"}},
		{"aspect-4/3", []string{"aspect-ratio: 4 / 3"}},
		{"stroke-2", []string{"stroke-width: 2"}},
		{"decoration-2", []string{"text-decoration-thickness: 2px"}},
	}
	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			decls, ok := compile(t, r, tt.class)
			if !ok {
				t.Fatalf("expected %q to compile", tt.class)
			}
			if got := render(decls); !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaults_NoMatch(t *testing.T) {
	r := defaultRegistry(t)
	for _, class := range []string{
		"bg-doesnotexist",
		"bg-red-500/unknown",
		"bg-red-500/150",
		"p-0.3",
		"-p-4",
		"border-2/50",
		"underline-4",
		"rounded-doesnotexist",
		"w-[",
		"text-sm--line-height",
		"w-1/0",
		"w-0/0",
		"aspect-4/00",
	} {
		if decls, ok := compile(t, r, class); ok {
			t.Errorf("%s: expected no match, got %v", class, render(decls))
		}
	}
}

func TestDefaults_ClassList(t *testing.T) {
	r := defaultRegistry(t)
	entries := make(map[string][]string)
	for _, e := range r.ClassList() {
		entries[e.Name] = e.Modifiers
	}
	for _, name := range []string{
		"underline", "bg-red-500", "inset-0.5", "-inset-4", "w-1/2", "rounded", "rounded-lg",
		"text-sm", "grid-cols-12", "border",
	} {
		if _, ok := entries[name]; !ok {
			t.Errorf("class list is missing %s", name)
		}
	}
	if mods := entries["bg-red-500"]; len(mods) != 21 || mods[0] != "0" || mods[20] != "100" {
		t.Errorf("unexpected bg modifiers %v", mods)
	}
	if mods := entries["underline"]; len(mods) != 0 {
		t.Errorf("static utilities have no modifiers, got %v", mods)
	}
	for name := range entries {
		if strings.Contains(name, "--") {
			t.Errorf("nested theme key leaked into class list: %s", name)
		}
	}
}
