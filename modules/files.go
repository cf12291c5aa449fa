package modules

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// FileModules loads configuration and plugin modules from disk: Lua files
// run in a sandboxed interpreter, YAML and JSON files are plain
// configuration objects.
type FileModules struct {
	log  *zap.Logger
	once sync.Once
	lua  *luaState
}

// NewFileModules creates a module loader. Close releases the interpreter.
func NewFileModules(log *zap.Logger) *FileModules {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileModules{log: log.Named("modules")}
}

// LoadModule implements ModuleLoader.
func (l *FileModules) LoadModule(ctx context.Context, id, base string) (Module, error) {
	if err := ctx.Err(); err != nil {
		return Module{}, err
	}
	path, err := resolvePath(id, base)
	if err != nil {
		return Module{}, err
	}

	var value any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".lua":
		l.once.Do(func() { l.lua = newLuaState(l.log) })
		if value, err = l.lua.load(ctx, path); err != nil {
			return Module{}, fmt.Errorf("unable to load module '%s': %w", id, err)
		}
	case ".yaml", ".yml", ".json":
		if value, err = loadData(path); err != nil {
			return Module{}, fmt.Errorf("unable to load module '%s': %w", id, err)
		}
	default:
		return Module{}, fmt.Errorf("unsupported module type '%s' for '%s'", ext, id)
	}

	l.log.Debug("Module loaded", zap.String("id", id), zap.String("path", path), zap.String("type", fmt.Sprintf("%T", value)))
	return Module{Base: filepath.Dir(path), Value: value}, nil
}

// Close releases the Lua interpreter if one was started.
func (l *FileModules) Close() error {
	if l.lua != nil {
		l.lua.close()
	}
	return nil
}

func loadData(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unable to decode '%s': %w", path, err)
	}
	m, ok := normalize(v).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("'%s' must contain an object, got %T", path, v)
	}
	return m, nil
}

// normalize turns decoded mappings with non string keys (500: "#f00") into
// map[string]any.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalize(e)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[fmt.Sprint(k)] = normalize(e)
		}
		return m
	case []any:
		for i, e := range t {
			t[i] = normalize(e)
		}
		return t
	}
	return v
}
