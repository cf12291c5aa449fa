// Package compat resolves legacy configuration objects (theme, extend,
// plugins, darkMode, important) into values the design system can apply.
package compat

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/maruel/natural"

	"twc/theme"
)

// ConfigFile is one configuration object of the cascade together with the
// base path module references inside it are relative to.
type ConfigFile struct {
	Config map[string]any
	Base   string
}

// ThemeFunc is a lazily resolved theme value.
type ThemeFunc func(u Utils) (any, error)

// Utils is handed to every ThemeFunc.
type Utils struct {
	// Colors is the default color palette.
	Colors map[string]any

	r *resolver
}

// Theme reads another theme value by path ("colors.red.500", "spacing[2.5]").
// The first default is returned when the path cannot be resolved.
func (u Utils) Theme(path string, def ...any) any {
	if u.r == nil {
		return first(def)
	}
	v, ok := u.r.lookup(path)
	if !ok {
		return first(def)
	}
	return v
}

// CycleError reports a circular chain of theme references.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "circular theme reference: " + strings.Join(e.Path, " -> ")
}

// PluginRef is a plugin entry together with the base of the config that
// declared it.
type PluginRef struct {
	Value any
	Base  string
}

// Resolved is the merged configuration cascade.
type Resolved struct {
	// Theme holds every resolved top level theme key.
	Theme map[string]any
	// Config holds the merged non theme keys.
	Config map[string]any
	// ReplacedThemeKeys lists top level theme keys some config wrote
	// outside of extend.
	ReplacedThemeKeys map[string]bool

	plugins []PluginRef
}

// Plugins returns the plugin entries of all configs in declaration order.
func (r *Resolved) Plugins() []PluginRef {
	return r.plugins
}

// Important reports whether the cascade turned on global important mode.
func (r *Resolved) Important() bool {
	b, _ := r.Config["important"].(bool)
	return b
}

// Get reads a config value by path. Paths starting with "theme" address the
// resolved theme.
func (r *Resolved) Get(path string) (any, bool) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return nil, false
	}
	var cur any = r.Config
	if segs[0] == "theme" {
		cur, segs = r.Theme, segs[1:]
	}
	for _, seg := range segs {
		next, ok := child(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Resolve merges the cascade, lowest priority first, and resolves every
// lazy theme value. th is consulted by theme() references the legacy theme
// does not define and may be nil.
func Resolve(files []ConfigFile, th *theme.Theme) (*Resolved, error) {
	res := &Resolved{
		Theme:             make(map[string]any),
		Config:            make(map[string]any),
		ReplacedThemeKeys: make(map[string]bool),
	}
	r := &resolver{
		base:    make(map[string]any),
		extends: make(map[string][]any),
		memo:    make(map[string]any),
		state:   make(map[string]keyState),
		paths:   make(map[string]bool),
		th:      th,
	}

	for _, f := range files {
		for key, val := range f.Config {
			switch key {
			case "theme":
				m, ok := val.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("theme must be an object, got %T", val)
				}
				for k, v := range m {
					if k == "extend" {
						ext, ok := v.(map[string]any)
						if !ok {
							return nil, fmt.Errorf("theme.extend must be an object, got %T", v)
						}
						for ek, ev := range ext {
							r.extends[ek] = append(r.extends[ek], cloneValue(ev))
						}
						continue
					}
					r.base[k] = cloneValue(v)
					res.ReplacedThemeKeys[k] = true
				}
			case "plugins":
				list, ok := val.([]any)
				if !ok {
					return nil, fmt.Errorf("plugins must be a list, got %T", val)
				}
				for _, p := range list {
					res.plugins = append(res.plugins, PluginRef{Value: p, Base: f.Base})
				}
			case "content":
				prev, _ := res.Config["content"].([]any)
				if list, ok := val.([]any); ok {
					res.Config["content"] = append(prev, cloneSlice(list)...)
				} else {
					res.Config["content"] = append(prev, cloneValue(val))
				}
			default:
				res.Config = DeepMerge(res.Config, map[string]any{key: val})
			}
		}
	}

	for _, key := range r.keys() {
		v, err := r.resolveAll(key)
		if err != nil {
			return nil, err
		}
		res.Theme[key] = v
	}
	return res, nil
}

type keyState uint8

const (
	stateNone keyState = iota
	stateBase
	stateExtending
	stateDone
)

type resolver struct {
	base    map[string]any
	extends map[string][]any
	memo    map[string]any
	state   map[string]keyState
	paths   map[string]bool
	stack   []string
	th      *theme.Theme
	err     error
}

func (r *resolver) keys() []string {
	keys := make([]string, 0, len(r.base)+len(r.extends))
	for k := range r.base {
		keys = append(keys, k)
	}
	for k := range r.extends {
		if _, ok := r.base[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Sort(natural.StringSlice(keys))
	return keys
}

func (r *resolver) utils() Utils {
	return Utils{Colors: Palette(), r: r}
}

func (r *resolver) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// cycle records the reference chain from the first occurrence of node on
// the stack back to node itself.
func (r *resolver) cycle(node string) {
	path := []string{node}
	for i, n := range r.stack {
		if n == node {
			path = append(append([]string{}, r.stack[i:]...), node)
			break
		}
	}
	r.fail(&CycleError{Path: path})
}

// calledBy reports whether the innermost running function belongs to key.
func (r *resolver) calledBy(key string) bool {
	if len(r.stack) == 0 {
		return false
	}
	segs := splitPath(r.stack[len(r.stack)-1])
	return len(segs) > 0 && segs[0] == key
}

func (r *resolver) call(fn ThemeFunc, node string) (any, bool) {
	r.stack = append(r.stack, node)
	defer func() { r.stack = r.stack[:len(r.stack)-1] }()

	v, err := fn(r.utils())
	if err != nil {
		r.fail(fmt.Errorf("resolving theme value '%s': %w", node, err))
		return nil, false
	}
	return v, true
}

// topLevel returns the merged value of a top level theme key with its own
// functions called. Nested functions are left in place for lookup to
// resolve on demand.
func (r *resolver) topLevel(key string) (any, bool) {
	switch r.state[key] {
	case stateDone:
		v, ok := r.memo[key]
		return v, ok
	case stateBase:
		r.cycle(key)
		return nil, false
	case stateExtending:
		// extend functions reading their own key see the value merged so far
		if !r.calledBy(key) {
			r.cycle(key)
			return nil, false
		}
		v, ok := r.memo[key]
		return v, ok
	}

	baseVal, hasBase := r.base[key]
	exts := r.extends[key]
	if !hasBase && len(exts) == 0 {
		return nil, false
	}

	r.state[key] = stateBase
	val := baseVal
	if fn, ok := asFunc(val); ok {
		v, ok := r.call(fn, key)
		if !ok {
			r.state[key] = stateDone
			return nil, false
		}
		val = v
	}

	r.state[key] = stateExtending
	r.memo[key] = val
	for _, ext := range exts {
		if fn, ok := asFunc(ext); ok {
			v, ok := r.call(fn, key)
			if !ok {
				continue
			}
			ext = v
		}
		val = mergeExtend(val, ext)
		r.memo[key] = val
	}
	r.state[key] = stateDone
	return val, true
}

// resolveAll returns the fully resolved value of a top level key.
func (r *resolver) resolveAll(key string) (any, error) {
	v, _ := r.topLevel(key)
	if r.err != nil {
		return nil, r.err
	}
	v = r.resolveNested(v, key)
	if r.err != nil {
		return nil, r.err
	}
	r.memo[key] = v
	return v, nil
}

// resolveNested calls every function left inside v and stores the results
// back so each one runs once.
func (r *resolver) resolveNested(v any, path string) any {
	if fn, ok := asFunc(v); ok {
		return r.resolveNested(r.callPath(fn, path), path)
	}
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = r.resolveNested(e, path+"."+k)
		}
	case []any:
		for i, e := range t {
			t[i] = r.resolveNested(e, path+"["+strconv.Itoa(i)+"]")
		}
	}
	return v
}

func (r *resolver) callPath(fn ThemeFunc, path string) any {
	if r.paths[path] {
		r.cycle(path)
		return nil
	}
	r.paths[path] = true
	defer delete(r.paths, path)
	v, _ := r.call(fn, path)
	return v
}

// lookup resolves a theme() path. Values missing from the legacy theme are
// read from the theme store.
func (r *resolver) lookup(path string) (any, bool) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return nil, false
	}
	if v, ok := r.lookupLegacy(segs); ok {
		return v, true
	}
	return storeLookup(r.th, segs)
}

func (r *resolver) lookupLegacy(segs []string) (any, bool) {
	cur, ok := r.topLevel(segs[0])
	if !ok {
		return nil, false
	}
	path := segs[0]
	for _, seg := range segs[1:] {
		if fn, isFn := asFunc(cur); isFn {
			cur = r.callPath(fn, path)
		}
		next, ok := child(cur, seg)
		if !ok {
			return nil, false
		}
		// memoize nested function results in place
		if fn, isFn := asFunc(next); isFn {
			next = r.callPath(fn, path+"."+seg)
			setChild(cur, seg, next)
		}
		cur = next
		path += "." + seg
	}
	cur = r.resolveNested(cur, path)
	if cur == nil {
		return nil, false
	}
	return cur, true
}

func child(v any, seg string) (any, bool) {
	switch t := v.(type) {
	case map[string]any:
		e, ok := t[seg]
		return e, ok
	case []any:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(t) {
			return nil, false
		}
		return t[i], true
	}
	return nil, false
}

func setChild(v any, seg string, val any) {
	switch t := v.(type) {
	case map[string]any:
		t[seg] = val
	case []any:
		if i, err := strconv.Atoi(seg); err == nil && i >= 0 && i < len(t) {
			t[i] = val
		}
	}
}

// splitPath splits "colors.red.500" and "spacing[2.5]" into segments.
// Bracketed segments may be quoted.
func splitPath(path string) []string {
	var (
		segs []string
		cur  strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			segs = append(segs, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(path); i++ {
		switch c := path[i]; c {
		case '.':
			flush()
		case '[':
			flush()
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				cur.WriteString(path[i+1:])
				i = len(path)
				continue
			}
			seg := strings.TrimSpace(path[i+1 : i+end])
			if len(seg) >= 2 && (seg[0] == '\'' || seg[0] == '"') && seg[len(seg)-1] == seg[0] {
				seg = seg[1 : len(seg)-1]
			}
			segs = append(segs, seg)
			i += end
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return segs
}

func asFunc(v any) (ThemeFunc, bool) {
	switch fn := v.(type) {
	case ThemeFunc:
		return fn, fn != nil
	case func(Utils) (any, error):
		return fn, fn != nil
	}
	return nil, false
}

func first(def []any) any {
	if len(def) == 0 {
		return nil
	}
	return def[0]
}
