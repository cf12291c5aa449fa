package compat

import (
	"sort"
	"strconv"
	"strings"

	"github.com/maruel/natural"

	"twc/theme"
)

var namespaces = map[string]string{
	"colors":                   "--color",
	"screens":                  "--breakpoint",
	"containers":               "--container",
	"spacing":                  "--spacing",
	"fontSize":                 "--text",
	"fontFamily":               "--font",
	"fontWeight":               "--font-weight",
	"lineHeight":               "--leading",
	"letterSpacing":            "--tracking",
	"borderRadius":             "--radius",
	"boxShadow":                "--shadow",
	"dropShadow":               "--drop-shadow",
	"blur":                     "--blur",
	"transitionDuration":       "--duration",
	"transitionTimingFunction": "--ease",
	"animation":                "--animate",
	"aspectRatio":              "--aspect",
	"zIndex":                   "--z-index",
	"opacity":                  "--opacity",
	"accentColor":              "--accent-color",
	"backgroundColor":          "--background-color",
	"borderColor":              "--border-color",
	"textColor":                "--text-color",
	"width":                    "--width",
	"height":                   "--height",
	"maxWidth":                 "--max-width",
}

// Namespace maps a legacy theme key to its theme store namespace. Keys
// without a known alias are converted from camelCase to kebab-case.
func Namespace(key string) string {
	if ns, ok := namespaces[key]; ok {
		return ns
	}
	return "--" + Kebab(key)
}

// Kebab converts a camelCase key to kebab-case.
func Kebab(key string) string {
	var b strings.Builder
	for i, r := range key {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('-')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ApplyTheme writes the resolved legacy theme into th. Namespaces of
// replaced keys are cleared first so the legacy value is the only one left.
func ApplyTheme(th *theme.Theme, res *Resolved) {
	keys := make([]string, 0, len(res.Theme))
	for k := range res.Theme {
		keys = append(keys, k)
	}
	sort.Sort(natural.StringSlice(keys))

	for _, k := range keys {
		if res.ReplacedThemeKeys[k] {
			th.ClearNamespace(Namespace(k))
		}
	}
	for _, k := range keys {
		ns := Namespace(k)
		switch k {
		case "fontSize":
			writeFontSizes(th, ns, res.Theme[k])
		default:
			writeValue(th, ns, res.Theme[k])
		}
	}
}

func writeValue(th *theme.Theme, name string, v any) {
	switch t := v.(type) {
	case map[string]any:
		for _, k := range sortedKeys(t) {
			if k == "DEFAULT" {
				writeValue(th, name, t[k])
				continue
			}
			writeValue(th, name+"-"+theme.StorageKey(k), t[k])
		}
	case []any:
		// font family stacks, optionally followed by an options object
		if len(t) > 0 {
			if inner, ok := t[0].([]any); ok {
				writeValue(th, name, inner)
				if opts, ok := t[len(t)-1].(map[string]any); ok {
					writeSubProperties(th, name, opts)
				}
				return
			}
		}
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := scalar(e); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			th.Add(name, strings.Join(parts, ", "), 0)
		}
	default:
		if s, ok := scalar(v); ok {
			th.Add(name, s, 0)
		}
	}
}

// writeFontSizes handles the size tuples of fontSize: "1rem",
// ["1rem", "1.5rem"] and ["1rem", {lineHeight: "1.5rem"}].
func writeFontSizes(th *theme.Theme, ns string, v any) {
	sizes, ok := v.(map[string]any)
	if !ok {
		writeValue(th, ns, v)
		return
	}
	for _, k := range sortedKeys(sizes) {
		name := ns
		if k != "DEFAULT" {
			name = ns + "-" + theme.StorageKey(k)
		}
		tuple, ok := sizes[k].([]any)
		if !ok || len(tuple) == 0 {
			writeValue(th, name, sizes[k])
			continue
		}
		if s, ok := scalar(tuple[0]); ok {
			th.Add(name, s, 0)
		}
		if len(tuple) < 2 {
			continue
		}
		switch extra := tuple[1].(type) {
		case map[string]any:
			writeSubProperties(th, name, extra)
		default:
			if s, ok := scalar(extra); ok {
				th.Add(name+"--line-height", s, 0)
			}
		}
	}
}

func writeSubProperties(th *theme.Theme, name string, opts map[string]any) {
	for _, k := range sortedKeys(opts) {
		if s, ok := scalar(opts[k]); ok {
			th.Add(name+"--"+Kebab(k), s, 0)
		}
	}
}

func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	return "", false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Sort(natural.StringSlice(keys))
	return keys
}

// storeLookup answers theme() paths from the theme store: the first
// segment picks the namespace, the rest form the key.
func storeLookup(th *theme.Theme, segs []string) (any, bool) {
	if th == nil || len(segs) == 0 {
		return nil, false
	}
	ns := Namespace(segs[0])
	rest := segs[1:]
	if len(rest) > 0 && rest[len(rest)-1] == "DEFAULT" {
		rest = rest[:len(rest)-1]
	}
	if len(rest) == 0 {
		m := make(map[string]any)
		if e, ok := th.Get(ns); ok {
			m["DEFAULT"] = e.Value
		}
		for k, e := range th.Entries(ns) {
			m[theme.UtilitySuffix(k)] = e.Value
		}
		if len(m) == 0 {
			return nil, false
		}
		return m, true
	}
	keys := make([]string, len(rest))
	for i, s := range rest {
		keys[i] = theme.StorageKey(s)
	}
	e, ok := th.Get(ns + "-" + strings.Join(keys, "-"))
	if !ok {
		return nil, false
	}
	return e.Value, true
}

// DarkMode converts the darkMode setting into custom variant definitions.
// ok is false when the default media query strategy applies.
func DarkMode(res *Resolved) (defs []string, ok bool) {
	switch v := res.Config["darkMode"].(type) {
	case string:
		if v == "class" || v == "selector" {
			return []string{darkSelector(".dark")}, true
		}
	case []any:
		if len(v) == 0 {
			return nil, false
		}
		strategy, _ := v[0].(string)
		var args []string
		for _, a := range v[1:] {
			if s, ok := a.(string); ok {
				args = append(args, s)
			}
		}
		switch strategy {
		case "class", "selector":
			sel := ".dark"
			if len(args) > 0 {
				sel = args[0]
			}
			return []string{darkSelector(sel)}, true
		case "variant":
			if len(args) > 0 {
				return args, true
			}
		}
	}
	return nil, false
}

func darkSelector(sel string) string {
	return "&:where(" + sel + ", " + sel + " *)"
}

// ThemeValue reads a theme() path from the resolved legacy theme and falls
// back to the theme store. res may be nil.
func ThemeValue(res *Resolved, th *theme.Theme, path string) (any, bool) {
	if res != nil {
		if v, ok := res.Get("theme." + path); ok {
			return v, true
		}
	}
	return storeLookup(th, splitPath(path))
}
