package modules

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"twc/compat"
)

// luaState wraps a single sandboxed interpreter. LState is not goroutine
// safe: entry points reachable after construction (plugin utilities called
// by concurrent compilations) hold mu for the duration of the call.
type luaState struct {
	mu     sync.Mutex
	L      *lua.LState
	log    *zap.Logger
	closed bool
}

func newLuaState(log *zap.Logger) *luaState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	// io, os, debug and package stay closed
	for _, open := range []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath} {
		open(L)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	return &luaState{L: L, log: log.Named("lua")}
}

// load runs the file and converts its return value. A returned function is
// a plugin, a returned table a configuration object.
func (s *luaState) load(ctx context.Context, path string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("lua state is closed")
	}

	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	top := s.L.GetTop()
	defer s.L.SetTop(top)

	if err := protect(func() error { return s.L.DoFile(path) }); err != nil {
		return nil, err
	}
	if s.L.GetTop() == top {
		return nil, fmt.Errorf("module '%s' returned nothing", path)
	}
	lv := s.L.Get(top + 1)
	return s.toGo(lv, lv.Type() == lua.LTFunction), nil
}

func (s *luaState) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.L.Close()
		s.closed = true
	}
}

func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

func (s *luaState) call(fn *lua.LFunction, args ...lua.LValue) (lua.LValue, error) {
	err := protect(func() error {
		return s.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...)
	})
	if err != nil {
		return lua.LNil, err
	}
	ret := s.L.Get(-1)
	s.L.Pop(1)
	return ret, nil
}

// themeFunc exposes a Lua function as a lazy theme value. It receives a
// table with theme(path, default) and colors.
//
// Theme functions only run while the configuration cascade is resolved and
// may call each other through theme(), so they run without taking mu.
func (s *luaState) themeFunc(fn *lua.LFunction) compat.ThemeFunc {
	return func(u compat.Utils) (any, error) {
		helpers := s.L.NewTable()
		helpers.RawSetString("theme", s.L.NewFunction(func(L *lua.LState) int {
			path := L.CheckString(1)
			var def []any
			if L.GetTop() >= 2 {
				def = append(def, s.toGo(L.Get(2), false))
			}
			L.Push(s.toLua(u.Theme(path, def...)))
			return 1
		}))
		helpers.RawSetString("colors", s.toLua(u.Colors))

		ret, err := s.call(fn, helpers)
		if err != nil {
			return nil, err
		}
		return s.toGo(ret, false), nil
	}
}

func (s *luaState) plugin(fn *lua.LFunction) Plugin {
	return func(api PluginAPI) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.closed {
			return fmt.Errorf("lua state is closed")
		}
		if _, err := s.call(fn, s.apiTable(api)); err != nil {
			return fmt.Errorf("plugin failed: %w", err)
		}
		return nil
	}
}

func (s *luaState) apiTable(api PluginAPI) *lua.LTable {
	return s.L.SetFuncs(s.L.NewTable(), map[string]lua.LGFunction{
		"addUtilities": func(L *lua.LState) int {
			utilities := make(map[string]Properties)
			if m, ok := s.toGo(L.CheckTable(1), false).(map[string]any); ok {
				for sel, decls := range m {
					if dm, ok := decls.(map[string]any); ok {
						utilities[sel] = properties(dm)
					}
				}
			}
			api.AddUtilities(utilities)
			return 0
		},
		"matchUtilities": func(L *lua.LState) int {
			fns := make(map[string]MatchFunc)
			L.CheckTable(1).ForEach(func(k, v lua.LValue) {
				name, ok := k.(lua.LString)
				fn, isFn := v.(*lua.LFunction)
				if ok && isFn {
					fns[string(name)] = s.matchFunc(fn)
				}
			})
			var opts MatchOptions
			if o, ok := L.Get(2).(*lua.LTable); ok {
				opts = s.matchOptions(o)
			}
			api.MatchUtilities(fns, opts)
			return 0
		},
		"addVariant": func(L *lua.LState) int {
			name := L.CheckString(1)
			var defs []string
			switch v := L.Get(2).(type) {
			case lua.LString:
				defs = append(defs, string(v))
			case *lua.LTable:
				v.ForEach(func(_, d lua.LValue) {
					if str, ok := d.(lua.LString); ok {
						defs = append(defs, string(str))
					}
				})
			}
			api.AddVariant(name, defs...)
			return 0
		},
		"theme": func(L *lua.LState) int {
			L.Push(s.toLua(api.Theme(L.CheckString(1), optional(s, L)...)))
			return 1
		},
		"config": func(L *lua.LState) int {
			L.Push(s.toLua(api.Config(L.CheckString(1), optional(s, L)...)))
			return 1
		},
	})
}

func optional(s *luaState, L *lua.LState) []any {
	if L.GetTop() < 2 {
		return nil
	}
	return []any{s.toGo(L.Get(2), false)}
}

func (s *luaState) matchFunc(fn *lua.LFunction) MatchFunc {
	return func(value string, ctx MatchContext) Properties {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.closed {
			return nil
		}
		extra := s.L.NewTable()
		if ctx.HasModifier {
			extra.RawSetString("modifier", lua.LString(ctx.Modifier))
		}
		ret, err := s.call(fn, lua.LString(value), extra)
		if err != nil {
			s.log.Warn("Plugin utility failed", zap.String("value", value), zap.Error(err))
			return nil
		}
		m, ok := s.toGo(ret, false).(map[string]any)
		if !ok || len(m) == 0 {
			return nil
		}
		return properties(m)
	}
}

func (s *luaState) matchOptions(o *lua.LTable) MatchOptions {
	var opts MatchOptions
	opts.Values = stringMap(s.toGo(o.RawGetString("values"), false))
	switch m := o.RawGetString("modifiers").(type) {
	case lua.LString:
		opts.AnyModifier = string(m) == "any"
	case *lua.LTable:
		opts.Modifiers = stringMap(s.toGo(m, false))
	}
	opts.SupportsNegativeValues = lua.LVAsBool(o.RawGetString("supportsNegativeValues"))
	return opts
}

// toGo converts a Lua value. Functions become plugins inside a "plugins"
// list (or when plugins is set) and lazy theme values everywhere else.
func (s *luaState) toGo(lv lua.LValue, plugins bool) any {
	return s.convert(lv, plugins, make(map[*lua.LTable]bool))
}

func (s *luaState) convert(lv lua.LValue, plugins bool, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LFunction:
		if plugins {
			return s.plugin(v)
		}
		return s.themeFunc(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		defer delete(visited, v)
		return s.table(v, plugins, visited)
	}
	return nil
}

func (s *luaState) table(t *lua.LTable, plugins bool, visited map[*lua.LTable]bool) any {
	n, count := t.Len(), 0
	t.ForEach(func(_, _ lua.LValue) { count++ })
	if n > 0 && n == count {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = s.convert(t.RawGetInt(i), plugins, visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		var key string
		switch kv := k.(type) {
		case lua.LString:
			key = string(kv)
		case lua.LNumber:
			key = strconv.FormatFloat(float64(kv), 'f', -1, 64)
		default:
			return
		}
		m[key] = s.convert(v, plugins || key == "plugins", visited)
	})
	return m
}

func (s *luaState) toLua(v any) lua.LValue {
	switch t := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(t)
	case int:
		return lua.LNumber(t)
	case int64:
		return lua.LNumber(t)
	case float64:
		return lua.LNumber(t)
	case string:
		return lua.LString(t)
	case []any:
		tbl := s.L.NewTable()
		for i, e := range t {
			tbl.RawSetInt(i+1, s.toLua(e))
		}
		return tbl
	case map[string]any:
		tbl := s.L.NewTable()
		for k, e := range t {
			tbl.RawSetString(k, s.toLua(e))
		}
		return tbl
	case map[string]string:
		tbl := s.L.NewTable()
		for k, e := range t {
			tbl.RawSetString(k, lua.LString(e))
		}
		return tbl
	}
	return lua.LString(fmt.Sprint(v))
}

func properties(m map[string]any) Properties {
	p := make(Properties, len(m))
	for k, v := range m {
		s, ok := scalarString(v)
		if !ok {
			continue
		}
		if !strings.HasPrefix(k, "--") {
			k = compat.Kebab(k)
		}
		p[k] = s
	}
	return p
}

// stringMap accepts {key = value} maps and {"a", "b"} lists, the latter
// using every entry as its own key.
func stringMap(v any) map[string]string {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]string, len(t))
		for k, e := range t {
			if s, ok := scalarString(e); ok {
				out[k] = s
			}
		}
		return out
	case []any:
		out := make(map[string]string, len(t))
		for _, e := range t {
			if s, ok := scalarString(e); ok {
				out[s] = s
			}
		}
		return out
	}
	return nil
}

func scalarString(v any) (string, bool) {
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
