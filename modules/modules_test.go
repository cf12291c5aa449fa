package modules_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"twc/compat"
	"twc/modules"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileStylesheets(t *testing.T) {
	ctx := context.Background()
	l := modules.NewFileStylesheets(zaptest.NewLogger(t))

	sheet, err := l.LoadStylesheet(ctx, "tailwindcss", "")
	require.NoError(t, err)
	assert.Equal(t, modules.BuiltinBase, sheet.Base)
	assert.Contains(t, sheet.Content, `@import "tailwindcss/theme";`)

	sheet, err = l.LoadStylesheet(ctx, "tailwindcss/theme", "")
	require.NoError(t, err)
	assert.Contains(t, sheet.Content, "--spacing: 0.25rem;")
	assert.Contains(t, sheet.Content, "--color-red-500: #ef4444;")

	dir := t.TempDir()
	sub := filepath.Join(dir, "styles")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFile(t, sub, "extra.css", "@theme { --color-brand: #123; }")

	sheet, err = l.LoadStylesheet(ctx, "./styles/extra.css", dir)
	require.NoError(t, err)
	assert.Equal(t, sub, sheet.Base)
	assert.Equal(t, "@theme { --color-brand: #123; }", sheet.Content)

	_, err = l.LoadStylesheet(ctx, "missing.css", dir)
	assert.Error(t, err)
}

func TestFileModules_Data(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
darkMode: class
theme:
  extend:
    colors:
      brand:
        500: "#0af"
`)
	writeFile(t, dir, "config.json", `{"important": true, "theme": {"spacing": {"2.5": "0.625rem"}}}`)
	writeFile(t, dir, "list.yaml", "- a\n- b\n")

	l := modules.NewFileModules(zaptest.NewLogger(t))
	defer l.Close()

	m, err := l.LoadModule(context.Background(), "config.yaml", dir)
	require.NoError(t, err)
	assert.Equal(t, dir, m.Base)
	v, ok := m.Value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "class", v["darkMode"])
	assert.Equal(t, "#0af", v["theme"].(map[string]any)["extend"].(map[string]any)["colors"].(map[string]any)["brand"].(map[string]any)["500"])

	m, err = l.LoadModule(context.Background(), filepath.Join(dir, "config.json"), "")
	require.NoError(t, err)
	res, err := compat.Resolve([]compat.ConfigFile{{Config: m.Value.(map[string]any), Base: m.Base}}, nil)
	require.NoError(t, err)
	assert.True(t, res.Important())
	assert.Equal(t, map[string]any{"2.5": "0.625rem"}, res.Theme["spacing"])

	_, err = l.LoadModule(context.Background(), "list.yaml", dir)
	assert.Error(t, err)

	_, err = l.LoadModule(context.Background(), "plugin.js", dir)
	assert.ErrorContains(t, err, "unsupported module type")
}

func TestFileModules_LuaConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.lua", `
return {
  darkMode = { "selector", "[data-theme=dark]" },
  theme = {
    spacing = { ["4"] = "1rem" },
    extend = {
      spacing = function(t)
        return { huge = t.theme("spacing.4"), fallback = t.theme("spacing.nope", "9rem") }
      end,
      colors = function(t)
        return { brand = t.colors.sky["500"] }
      end,
    },
  },
  plugins = {
    function(api) end,
  },
}
`)

	l := modules.NewFileModules(zaptest.NewLogger(t))
	defer l.Close()

	m, err := l.LoadModule(context.Background(), "config.lua", dir)
	require.NoError(t, err)
	cfg, ok := m.Value.(map[string]any)
	require.True(t, ok)

	plugins, ok := cfg["plugins"].([]any)
	require.True(t, ok)
	require.Len(t, plugins, 1)
	assert.IsType(t, modules.Plugin(nil), plugins[0])

	res, err := compat.Resolve([]compat.ConfigFile{{Config: cfg, Base: m.Base}}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"4": "1rem", "huge": "1rem", "fallback": "9rem"}, res.Theme["spacing"])
	assert.Equal(t, map[string]any{"brand": "#0ea5e9"}, res.Theme["colors"])

	defs, ok := compat.DarkMode(res)
	require.True(t, ok)
	assert.Equal(t, []string{"&:where([data-theme=dark], [data-theme=dark] *)"}, defs)
}

type recorder struct {
	utilities map[string]modules.Properties
	match     map[string]modules.MatchFunc
	opts      modules.MatchOptions
	variants  map[string][]string
}

func (r *recorder) AddUtilities(u map[string]modules.Properties) {
	for k, v := range u {
		r.utilities[k] = v
	}
}

func (r *recorder) MatchUtilities(u map[string]modules.MatchFunc, opts modules.MatchOptions) {
	for k, v := range u {
		r.match[k] = v
	}
	r.opts = opts
}

func (r *recorder) AddVariant(name string, defs ...string) {
	r.variants[name] = defs
}

func (r *recorder) Theme(path string, def ...any) any {
	if path == "colors.red.500" {
		return "#ef4444"
	}
	if len(def) > 0 {
		return def[0]
	}
	return nil
}

func (r *recorder) Config(path string, def ...any) any {
	return strings.ToUpper(path)
}

func TestFileModules_LuaPlugin(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "plugin.lua", `
return function(api)
  api.addUtilities({
    [".custom-utility"] = { color = api.theme("colors.red.500"), backgroundColor = "blue" },
  })
  api.matchUtilities({
    tab = function(value, extra)
      if value == "0" then
        return nil
      end
      local out = { tabSize = value }
      if extra.modifier then
        out["--tab-note"] = extra.modifier
      end
      return out
    end,
  }, { values = { ["2"] = "2", ["4"] = "4" }, modifiers = "any", supportsNegativeValues = true })
  api.addVariant("hocus", { "&:hover", "&:focus" })
  api.addVariant("mode", api.config("mode"))
end
`)

	l := modules.NewFileModules(zaptest.NewLogger(t))
	defer l.Close()

	m, err := l.LoadModule(context.Background(), "plugin.lua", dir)
	require.NoError(t, err)
	plugin, ok := m.Value.(modules.Plugin)
	require.True(t, ok, "got %T", m.Value)

	rec := &recorder{
		utilities: make(map[string]modules.Properties),
		match:     make(map[string]modules.MatchFunc),
		variants:  make(map[string][]string),
	}
	require.NoError(t, plugin(rec))

	assert.Equal(t, modules.Properties{"color": "#ef4444", "background-color": "blue"}, rec.utilities[".custom-utility"])
	assert.Equal(t, map[string]string{"2": "2", "4": "4"}, rec.opts.Values)
	assert.True(t, rec.opts.AnyModifier)
	assert.True(t, rec.opts.SupportsNegativeValues)
	assert.Equal(t, []string{"&:hover", "&:focus"}, rec.variants["hocus"])
	assert.Equal(t, []string{"MODE"}, rec.variants["mode"])

	tab := rec.match["tab"]
	require.NotNil(t, tab)
	assert.Equal(t, modules.Properties{"tab-size": "4"}, tab("4", modules.MatchContext{}))
	assert.Equal(t, modules.Properties{"tab-size": "8", "--tab-note": "x"}, tab("8", modules.MatchContext{Modifier: "x", HasModifier: true}))
	assert.Nil(t, tab("0", modules.MatchContext{}))
}

func TestFileModules_LuaSandbox(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "escape.lua", `os.execute("true") return {}`)
	writeFile(t, dir, "file.lua", `local f = io.open("/etc/passwd") return {}`)
	writeFile(t, dir, "load.lua", `return dofile("other.lua")`)
	writeFile(t, dir, "empty.lua", `local x = 1`)
	writeFile(t, dir, "broken.lua", `return {`)

	l := modules.NewFileModules(zaptest.NewLogger(t))
	defer l.Close()

	for _, name := range []string{"escape.lua", "file.lua", "load.lua", "empty.lua", "broken.lua"} {
		_, err := l.LoadModule(context.Background(), name, dir)
		assert.Error(t, err, name)
	}
}

func TestFileModules_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := modules.NewFileModules(zaptest.NewLogger(t))
	_, err := l.LoadModule(ctx, "config.lua", t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}
