package modules

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

//go:embed sheets/*.css
var sheets embed.FS

var builtinSheets = map[string]string{
	"tailwindcss":           "sheets/index.css",
	"tailwindcss/theme":     "sheets/theme.css",
	"tailwindcss/preflight": "sheets/preflight.css",
	"tailwindcss/utilities": "sheets/utilities.css",
}

// BuiltinBase is the base reported for embedded stylesheets.
const BuiltinBase = "builtin:"

// FileStylesheets serves the built-in sheets from the binary and everything
// else from the file system relative to the importing sheet.
type FileStylesheets struct {
	log *zap.Logger
}

// NewFileStylesheets creates a stylesheet loader.
func NewFileStylesheets(log *zap.Logger) *FileStylesheets {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileStylesheets{log: log.Named("stylesheets")}
}

// LoadStylesheet implements StylesheetLoader.
func (l *FileStylesheets) LoadStylesheet(ctx context.Context, id, base string) (Stylesheet, error) {
	if err := ctx.Err(); err != nil {
		return Stylesheet{}, err
	}
	if name, ok := builtinSheets[strings.TrimSuffix(id, ".css")]; ok {
		data, err := sheets.ReadFile(name)
		if err != nil {
			return Stylesheet{}, fmt.Errorf("unable to read built-in stylesheet '%s': %w", id, err)
		}
		l.log.Debug("Built-in stylesheet", zap.String("id", id))
		return Stylesheet{Base: BuiltinBase, Content: string(data)}, nil
	}

	path, err := resolvePath(id, base)
	if err != nil {
		return Stylesheet{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Stylesheet{}, fmt.Errorf("unable to read stylesheet '%s': %w", id, err)
	}
	l.log.Debug("Stylesheet loaded", zap.String("id", id), zap.String("path", path))
	return Stylesheet{Base: filepath.Dir(path), Content: string(data)}, nil
}

func resolvePath(id, base string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("empty module specifier")
	}
	if filepath.IsAbs(id) {
		return filepath.Clean(id), nil
	}
	if base == "" || base == BuiltinBase {
		base = "."
	}
	path, err := filepath.Abs(filepath.Join(base, id))
	if err != nil {
		return "", fmt.Errorf("unable to resolve '%s': %w", id, err)
	}
	return path, nil
}
