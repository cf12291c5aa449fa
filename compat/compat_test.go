package compat_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twc/compat"
	"twc/theme"
)

func cfg(m map[string]any) compat.ConfigFile {
	return compat.ConfigFile{Config: m, Base: "/project"}
}

func TestResolve_ReplaceCascade(t *testing.T) {
	files := []compat.ConfigFile{
		cfg(map[string]any{"theme": map[string]any{"colors": map[string]any{"red": "#f00", "blue": "#00f"}}}),
		cfg(map[string]any{"theme": map[string]any{"colors": map[string]any{"green": "#0f0"}}}),
		cfg(map[string]any{"theme": map[string]any{"colors": map[string]any{"primary": "#c0ffee"}}}),
	}

	res, err := compat.Resolve(files, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"primary": "#c0ffee"}, res.Theme["colors"])
	assert.True(t, res.ReplacedThemeKeys["colors"])
}

func TestResolve_ExtendMerges(t *testing.T) {
	files := []compat.ConfigFile{
		cfg(map[string]any{"theme": map[string]any{"colors": map[string]any{
			"red":  map[string]any{"500": "#f00", "600": "#d00"},
			"blue": "#00f",
		}}}),
		cfg(map[string]any{"theme": map[string]any{"extend": map[string]any{
			"colors":  map[string]any{"red": map[string]any{"700": "#b00"}, "brand": "#123456"},
			"spacing": map[string]any{"huge": "40rem"},
		}}}),
		cfg(map[string]any{"theme": map[string]any{"extend": map[string]any{
			"colors": map[string]any{"blue": "#00e"},
		}}}),
	}

	res, err := compat.Resolve(files, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"red":   map[string]any{"500": "#f00", "600": "#d00", "700": "#b00"},
		"blue":  "#00e",
		"brand": "#123456",
	}, res.Theme["colors"])
	assert.Equal(t, map[string]any{"huge": "40rem"}, res.Theme["spacing"])
	assert.True(t, res.ReplacedThemeKeys["colors"])
	assert.False(t, res.ReplacedThemeKeys["spacing"])
}

func TestResolve_References(t *testing.T) {
	files := []compat.ConfigFile{
		cfg(map[string]any{"theme": map[string]any{
			// forward reference: reads a key declared by a later config
			"borderColor": compat.ThemeFunc(func(u compat.Utils) (any, error) {
				return map[string]any{"DEFAULT": u.Theme("colors.accent")}, nil
			}),
		}}),
		cfg(map[string]any{"theme": map[string]any{
			"colors": map[string]any{
				"accent": compat.ThemeFunc(func(u compat.Utils) (any, error) {
					return u.Theme("colors.base"), nil
				}),
				"base": compat.ThemeFunc(func(u compat.Utils) (any, error) {
					return u.Theme("spacing[2.5]", "missing"), nil
				}),
			},
			"spacing": map[string]any{"2.5": "0.625rem"},
		}}),
		cfg(map[string]any{"theme": map[string]any{"extend": map[string]any{
			"outlineColor": func(u compat.Utils) (any, error) {
				return map[string]any{"red": u.Theme("colors.red.500"), "nope": u.Theme("colors.nope", "fallback")}, nil
			},
		}}}),
	}

	th := theme.New()
	th.Add("--color-red-500", "oklch(63.7% 0.237 25.331)", 0)

	res, err := compat.Resolve(files, th)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"DEFAULT": "0.625rem"}, res.Theme["borderColor"])
	assert.Equal(t, "0.625rem", res.Theme["colors"].(map[string]any)["accent"])
	assert.Equal(t, map[string]any{"red": "oklch(63.7% 0.237 25.331)", "nope": "fallback"}, res.Theme["outlineColor"])
}

func TestResolve_FunctionsAreMemoized(t *testing.T) {
	calls := 0
	files := []compat.ConfigFile{cfg(map[string]any{"theme": map[string]any{
		"spacing": compat.ThemeFunc(func(compat.Utils) (any, error) {
			calls++
			return map[string]any{"4": "1rem"}, nil
		}),
		"width": compat.ThemeFunc(func(u compat.Utils) (any, error) {
			return map[string]any{"a": u.Theme("spacing.4"), "b": u.Theme("spacing.4")}, nil
		}),
		"height": compat.ThemeFunc(func(u compat.Utils) (any, error) {
			return u.Theme("spacing"), nil
		}),
	}})}

	res, err := compat.Resolve(files, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, map[string]any{"a": "1rem", "b": "1rem"}, res.Theme["width"])
}

func TestResolve_Cycle(t *testing.T) {
	files := []compat.ConfigFile{cfg(map[string]any{"theme": map[string]any{
		"colors": compat.ThemeFunc(func(u compat.Utils) (any, error) {
			return map[string]any{"x": u.Theme("spacing.1")}, nil
		}),
		"spacing": compat.ThemeFunc(func(u compat.Utils) (any, error) {
			return map[string]any{"1": u.Theme("colors.x")}, nil
		}),
	}})}

	_, err := compat.Resolve(files, nil)
	require.Error(t, err)
	var cycle *compat.CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []string{"colors", "spacing", "colors"}, cycle.Path)
}

func TestResolve_NestedSelfReferenceIsCycle(t *testing.T) {
	files := []compat.ConfigFile{cfg(map[string]any{"theme": map[string]any{
		"colors": map[string]any{
			"loop": compat.ThemeFunc(func(u compat.Utils) (any, error) {
				return u.Theme("colors.loop"), nil
			}),
		},
	}})}

	_, err := compat.Resolve(files, nil)
	var cycle *compat.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"colors.loop", "colors.loop"}, cycle.Path)
}

func TestResolve_ExtendSeesMergedValue(t *testing.T) {
	files := []compat.ConfigFile{cfg(map[string]any{"theme": map[string]any{
		"spacing": map[string]any{"1": "0.25rem"},
		"extend": map[string]any{
			"spacing": compat.ThemeFunc(func(u compat.Utils) (any, error) {
				return map[string]any{"double": u.Theme("spacing.1")}, nil
			}),
		},
	}})}

	res, err := compat.Resolve(files, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"1": "0.25rem", "double": "0.25rem"}, res.Theme["spacing"])
}

func TestResolve_ExtendPaths(t *testing.T) {
	fn := func(f func(compat.Utils) any) compat.ThemeFunc {
		return func(u compat.Utils) (any, error) { return f(u), nil }
	}

	tests := []struct {
		name  string
		theme map[string]any
		want  map[string]any
		cycle []string
	}{
		{
			name: "extend over a referenced base keeps the source intact",
			theme: map[string]any{
				"spacing": map[string]any{"4": "1rem"},
				"height":  fn(func(u compat.Utils) any { return u.Theme("spacing") }),
				"extend":  map[string]any{"height": map[string]any{"screen": "100vh"}},
			},
			want: map[string]any{
				"spacing": map[string]any{"4": "1rem"},
				"height":  map[string]any{"4": "1rem", "screen": "100vh"},
			},
		},
		{
			name: "two extensions over one referenced base",
			theme: map[string]any{
				"spacing": map[string]any{"4": "1rem"},
				"width":   fn(func(u compat.Utils) any { return u.Theme("spacing") }),
				"height":  fn(func(u compat.Utils) any { return u.Theme("spacing") }),
				"extend": map[string]any{
					"width":  map[string]any{"full": "100%"},
					"height": map[string]any{"screen": "100vh"},
				},
			},
			want: map[string]any{
				"spacing": map[string]any{"4": "1rem"},
				"width":   map[string]any{"4": "1rem", "full": "100%"},
				"height":  map[string]any{"4": "1rem", "screen": "100vh"},
			},
		},
		{
			name: "cycle through extend functions",
			theme: map[string]any{"extend": map[string]any{
				"colors":  fn(func(u compat.Utils) any { return map[string]any{"a": u.Theme("spacing.b", "none")} }),
				"spacing": fn(func(u compat.Utils) any { return map[string]any{"b": u.Theme("colors.a", "none")} }),
			}},
			cycle: []string{"colors", "spacing", "colors"},
		},
		{
			name: "cycle from a base function into an extending key",
			theme: map[string]any{
				"colors": map[string]any{"a": "#000"},
				"width":  fn(func(u compat.Utils) any { return u.Theme("colors") }),
				"extend": map[string]any{
					"colors": fn(func(u compat.Utils) any { return map[string]any{"w": u.Theme("width.x", "none")} }),
				},
			},
			cycle: []string{"colors", "width", "colors"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := compat.Resolve([]compat.ConfigFile{cfg(map[string]any{"theme": tt.theme})}, nil)
			if tt.cycle != nil {
				var cycle *compat.CycleError
				require.ErrorAs(t, err, &cycle)
				assert.Equal(t, tt.cycle, cycle.Path)
				return
			}
			require.NoError(t, err)
			for key, want := range tt.want {
				assert.Equal(t, want, res.Theme[key], key)
			}
		})
	}
}

func TestResolve_FunctionError(t *testing.T) {
	boom := errors.New("boom")
	files := []compat.ConfigFile{cfg(map[string]any{"theme": map[string]any{
		"colors": compat.ThemeFunc(func(compat.Utils) (any, error) { return nil, boom }),
	}})}
	_, err := compat.Resolve(files, nil)
	require.ErrorIs(t, err, boom)
}

func TestResolve_PaletteAndTopLevelKeys(t *testing.T) {
	files := []compat.ConfigFile{
		{Config: map[string]any{
			"plugins":   []any{"a"},
			"content":   []any{"./src/**/*.html"},
			"darkMode":  "media",
			"important": false,
			"future":    map[string]any{"x": true},
		}, Base: "/one"},
		{Config: map[string]any{
			"plugins":   []any{"b"},
			"content":   []any{"./app/**/*.lua"},
			"darkMode":  []any{"selector", "[data-mode=dark]"},
			"important": true,
			"future":    map[string]any{"y": true},
			"theme": map[string]any{"extend": map[string]any{
				"colors": func(u compat.Utils) (any, error) {
					return map[string]any{"brand": u.Colors["sky"].(map[string]any)["500"]}, nil
				},
			}},
		}, Base: "/two"},
	}

	res, err := compat.Resolve(files, nil)
	require.NoError(t, err)
	assert.Equal(t, []compat.PluginRef{{Value: "a", Base: "/one"}, {Value: "b", Base: "/two"}}, res.Plugins())
	assert.Equal(t, []any{"./src/**/*.html", "./app/**/*.lua"}, res.Config["content"])
	assert.Equal(t, map[string]any{"x": true, "y": true}, res.Config["future"])
	assert.True(t, res.Important())
	assert.Equal(t, map[string]any{"brand": "#0ea5e9"}, res.Theme["colors"])

	v, ok := res.Get("theme.colors.brand")
	require.True(t, ok)
	assert.Equal(t, "#0ea5e9", v)
	_, ok = res.Get("future.z")
	assert.False(t, ok)

	defs, ok := compat.DarkMode(res)
	require.True(t, ok)
	assert.Equal(t, []string{"&:where([data-mode=dark], [data-mode=dark] *)"}, defs)
}

func TestDarkMode(t *testing.T) {
	tests := []struct {
		name string
		mode any
		want []string
		ok   bool
	}{
		{"media", "media", nil, false},
		{"unset", nil, nil, false},
		{"class", "class", []string{"&:where(.dark, .dark *)"}, true},
		{"selector", []any{"selector"}, []string{"&:where(.dark, .dark *)"}, true},
		{"custom class", []any{"class", ".night"}, []string{"&:where(.night, .night *)"}, true},
		{"variant", []any{"variant", "&:is(.dark *)", "@media print"}, []string{"&:is(.dark *)", "@media print"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := &compat.Resolved{Config: map[string]any{"darkMode": tt.mode}}
			got, ok := compat.DarkMode(res)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyTheme(t *testing.T) {
	th := theme.New()
	th.Add("--color-red-500", "#ef4444", 0)
	th.Add("--breakpoint-sm", "40rem", 0)
	th.Add("--text-xs", "0.75rem", 0)

	res, err := compat.Resolve([]compat.ConfigFile{cfg(map[string]any{"theme": map[string]any{
		"colors": map[string]any{
			"primary": map[string]any{"DEFAULT": "#123", "light": "#456"},
		},
		"extend": map[string]any{
			"screens": map[string]any{"3xl": "120rem"},
			"fontSize": map[string]any{
				"tiny": []any{"0.5rem", "0.75rem"},
				"huge": []any{"4rem", map[string]any{"lineHeight": "1", "letterSpacing": "-0.02em"}},
			},
			"fontFamily": map[string]any{
				"display": []any{"Inter", "sans-serif"},
			},
			"spacing":    map[string]any{"2.5": "0.625rem"},
			"lineHeight": map[string]any{"snug": 1.375},
		},
	}})}, th)
	require.NoError(t, err)

	compat.ApplyTheme(th, res)

	get := func(name string) string {
		e, ok := th.Get(name)
		if !ok {
			return "<missing>"
		}
		return e.Value
	}
	assert.Equal(t, "<missing>", get("--color-red-500"))
	assert.Equal(t, "#123", get("--color-primary"))
	assert.Equal(t, "#456", get("--color-primary-light"))
	assert.Equal(t, "40rem", get("--breakpoint-sm"))
	assert.Equal(t, "120rem", get("--breakpoint-3xl"))
	assert.Equal(t, "0.75rem", get("--text-xs"))
	assert.Equal(t, "0.5rem", get("--text-tiny"))
	assert.Equal(t, "0.75rem", get("--text-tiny--line-height"))
	assert.Equal(t, "4rem", get("--text-huge"))
	assert.Equal(t, "1", get("--text-huge--line-height"))
	assert.Equal(t, "-0.02em", get("--text-huge--letter-spacing"))
	assert.Equal(t, "Inter, sans-serif", get("--font-display"))
	assert.Equal(t, "0.625rem", get("--spacing-2_5"))
	assert.Equal(t, "1.375", get("--leading-snug"))
}

func TestNamespace(t *testing.T) {
	assert.Equal(t, "--color", compat.Namespace("colors"))
	assert.Equal(t, "--breakpoint", compat.Namespace("screens"))
	assert.Equal(t, "--text", compat.Namespace("fontSize"))
	assert.Equal(t, "--grid-template-columns", compat.Namespace("gridTemplateColumns"))
	assert.Equal(t, "line-height", compat.Kebab("lineHeight"))
	assert.Equal(t, "spacing", compat.Kebab("spacing"))
}

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{"a": map[string]any{"x": 1, "y": 2}, "b": []any{1}}
	src := map[string]any{"a": map[string]any{"y": 3}, "b": []any{2}, "c": "new"}
	got := compat.DeepMerge(dst, src)
	assert.Equal(t, map[string]any{"a": map[string]any{"x": 1, "y": 3}, "b": []any{2}, "c": "new"}, got)

	src["b"].([]any)[0] = 99
	assert.Equal(t, []any{2}, got["b"], "merged values must not alias the source")
}
