package designsystem

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"twc/compat"
	"twc/css"
	"twc/modules"
	"twc/theme"
	"twc/utilities"
	"twc/variants"
)

// maxImportDepth bounds nested @import chains, including cyclic ones.
const maxImportDepth = 32

// Options configure Load. Nil loaders are replaced by the file system
// backed defaults from the modules package. Important forces important mode
// regardless of what the stylesheet says.
type Options struct {
	Log            *zap.Logger
	Base           string
	Important      bool
	LoadStylesheet modules.StylesheetLoader
	LoadModule     modules.ModuleLoader
}

type pluginDecl struct {
	id     string
	base   string
	plugin modules.Plugin
}

type utilityDecl struct {
	name  string
	decls []css.Declaration
}

type variantDecl struct {
	name  string
	defs  []string
	block []*css.Node
}

// builder collects everything the stylesheet declares, then folds it into a
// design system in a fixed order: theme, legacy configuration, built-in
// registrations, stylesheet utilities and variants, plugins.
type builder struct {
	log    *zap.Logger
	opts   Options
	parser *css.Parser

	theme     *theme.Theme
	important bool
	configs   []compat.ConfigFile
	plugins   []pluginDecl
	utilities []utilityDecl
	variants  []variantDecl

	resolved *compat.Resolved
	ureg     *utilities.Registry
	vreg     *variants.Registry
	err      error
}

// Load builds a design system from stylesheet text. Directives understood
// are @import, @theme, @utility, @custom-variant, @plugin and @config;
// everything else in the stylesheet is ignored.
func Load(ctx context.Context, text string, opts Options) (*DesignSystem, error) {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.LoadStylesheet == nil {
		opts.LoadStylesheet = modules.NewFileStylesheets(opts.Log)
	}
	if opts.LoadModule == nil {
		opts.LoadModule = modules.NewFileModules(opts.Log)
	}

	b := &builder{
		log:       opts.Log.Named("designsystem"),
		opts:      opts,
		parser:    css.NewParser(opts.Log),
		theme:     theme.New(),
		important: opts.Important,
	}
	ds, err := b.build(ctx, text)
	if err != nil {
		closeLoader(opts.LoadModule)
		return nil, err
	}
	return ds, nil
}

func (b *builder) build(ctx context.Context, text string) (*DesignSystem, error) {
	sheet := b.parser.ParseString(text, "input")
	if err := b.directives(ctx, sheet.Nodes, b.opts.Base, 0); err != nil {
		return nil, err
	}

	if err := b.applyConfigs(); err != nil {
		return nil, err
	}

	b.ureg = utilities.New(b.theme, b.opts.Log)
	b.vreg = variants.New(b.opts.Log)
	b.fail(utilities.RegisterDefaults(b.ureg))
	b.fail(variants.RegisterDefaults(b.vreg, b.theme))
	if b.resolved != nil {
		if defs, ok := compat.DarkMode(b.resolved); ok {
			b.fail(b.vreg.Custom("dark", defs...))
		}
	}

	for _, u := range b.utilities {
		b.fail(b.registerUtility(u))
	}
	for _, v := range b.variants {
		if v.block != nil {
			b.fail(b.vreg.CustomBlock(v.name, v.block))
			continue
		}
		b.fail(b.vreg.Custom(v.name, v.defs...))
	}

	if err := b.runPlugins(ctx); err != nil {
		return nil, err
	}
	if b.err != nil {
		return nil, b.err
	}

	b.log.Debug("Design system ready",
		zap.Int("theme", b.theme.Len()),
		zap.Int("utilities", len(b.ureg.Names())),
		zap.Bool("important", b.important))

	return &DesignSystem{
		log:       b.log,
		theme:     b.theme,
		utilities: b.ureg,
		variants:  b.vreg,
		important: b.important,
		resolved:  b.resolved,
		closer:    b.opts.LoadModule,
	}, nil
}

func (b *builder) fail(err error) {
	b.err = multierr.Append(b.err, err)
}

func (b *builder) directives(ctx context.Context, nodes []*css.Node, base string, depth int) error {
	for _, n := range nodes {
		if n.Kind != css.KindAtRule {
			continue
		}
		switch n.Name {
		case "import":
			if err := b.importSheet(ctx, n.Params, base, depth); err != nil {
				return err
			}
		case "theme":
			b.themeBlock(n)
		case "utility":
			name := strings.TrimSpace(n.Params)
			if !n.Block || name == "" {
				b.fail(fmt.Errorf("@utility %q needs a name and a block", name))
				continue
			}
			b.utilities = append(b.utilities, utilityDecl{name: name, decls: n.Declarations()})
		case "custom-variant":
			b.customVariant(n)
		case "plugin":
			b.plugins = append(b.plugins, pluginDecl{id: css.Unquote(n.Params), base: base})
		case "config":
			id := css.Unquote(n.Params)
			m, err := b.opts.LoadModule.LoadModule(ctx, id, base)
			if err != nil {
				return fmt.Errorf("unable to load config '%s': %w", id, err)
			}
			cfg, ok := m.Value.(map[string]any)
			if !ok {
				return fmt.Errorf("config '%s' is not a configuration object", id)
			}
			b.configs = append(b.configs, compat.ConfigFile{Config: cfg, Base: m.Base})
		case "layer", "media", "supports":
			if err := b.directives(ctx, n.Children, base, depth); err != nil {
				return err
			}
		}
	}
	return nil
}

// importSheet handles `@import "id" [important] [layer(...)]`.
func (b *builder) importSheet(ctx context.Context, params, base string, depth int) error {
	if depth >= maxImportDepth {
		return fmt.Errorf("imports nested deeper than %d levels at '%s'", maxImportDepth, params)
	}
	id, rest := splitSpecifier(params)
	for _, word := range strings.Fields(rest) {
		if word == "important" {
			b.important = true
		}
	}
	sheet, err := b.opts.LoadStylesheet.LoadStylesheet(ctx, id, base)
	if err != nil {
		return fmt.Errorf("unable to import '%s': %w", id, err)
	}
	parsed := b.parser.ParseString(sheet.Content, id)
	return b.directives(ctx, parsed.Nodes, sheet.Base, depth+1)
}

// splitSpecifier splits the quoted (or url()) specifier from trailing
// import conditions.
func splitSpecifier(params string) (string, string) {
	params = strings.TrimSpace(params)
	if params == "" {
		return "", ""
	}
	if q := params[0]; q == '"' || q == '\'' {
		if end := strings.IndexByte(params[1:], q); end >= 0 {
			return params[1 : end+1], params[end+2:]
		}
	}
	if strings.HasPrefix(params, "url(") {
		if end := strings.IndexByte(params, ')'); end >= 0 {
			return css.Unquote(params[4:end]), params[end+1:]
		}
	}
	id, rest, _ := strings.Cut(params, " ")
	return id, rest
}

func (b *builder) themeBlock(n *css.Node) {
	var opts theme.Option
	for _, word := range strings.Fields(n.Params) {
		switch word {
		case "inline":
			opts |= theme.OptionInline
		case "default":
			opts |= theme.OptionDefault
		case "reference":
			opts |= theme.OptionReference
		}
	}
	for _, d := range n.Declarations() {
		if !strings.HasPrefix(d.Property, "--") {
			b.log.Debug("Ignoring non custom property in @theme", zap.String("property", d.Property))
			continue
		}
		b.theme.Add(d.Property, d.Value, opts)
	}
}

// customVariant accepts the shorthand `@custom-variant name (selector);`,
// `@custom-variant name (@media print);` and the block form with @slot.
func (b *builder) customVariant(n *css.Node) {
	name, rest, _ := strings.Cut(strings.TrimSpace(n.Params), " ")
	if name == "" {
		b.fail(fmt.Errorf("@custom-variant needs a name"))
		return
	}
	if n.Block {
		b.variants = append(b.variants, variantDecl{name: name, block: n.Children})
		return
	}
	def := strings.TrimSpace(rest)
	if strings.HasPrefix(def, "(") && strings.HasSuffix(def, ")") {
		def = strings.TrimSpace(def[1 : len(def)-1])
	}
	if def == "" {
		b.fail(fmt.Errorf("@custom-variant %s has no definition", name))
		return
	}
	b.variants = append(b.variants, variantDecl{name: name, defs: []string{def}})
}

// applyConfigs resolves the legacy configuration cascade and folds it into
// the theme. Config plugins run after the stylesheet plugins.
func (b *builder) applyConfigs() error {
	if len(b.configs) == 0 {
		return nil
	}
	res, err := compat.Resolve(b.configs, b.theme)
	if err != nil {
		return fmt.Errorf("unable to resolve configuration: %w", err)
	}
	compat.ApplyTheme(b.theme, res)
	if res.Important() {
		b.important = true
	}
	for _, p := range res.Plugins() {
		switch v := p.Value.(type) {
		case modules.Plugin:
			b.plugins = append(b.plugins, pluginDecl{id: "config", plugin: v})
		case string:
			b.plugins = append(b.plugins, pluginDecl{id: v, base: p.Base})
		default:
			return fmt.Errorf("unsupported plugin entry %T", p.Value)
		}
	}
	b.resolved = res
	return nil
}

func (b *builder) runPlugins(ctx context.Context) error {
	for _, p := range b.plugins {
		plugin := p.plugin
		if plugin == nil {
			m, err := b.opts.LoadModule.LoadModule(ctx, p.id, p.base)
			if err != nil {
				return fmt.Errorf("unable to load plugin '%s': %w", p.id, err)
			}
			var ok bool
			if plugin, ok = m.Value.(modules.Plugin); !ok {
				return fmt.Errorf("module '%s' is not a plugin", p.id)
			}
		}
		api := &pluginAPI{b: b, name: p.id}
		if err := plugin(api); err != nil {
			b.fail(fmt.Errorf("plugin '%s': %w", p.id, err))
		}
		b.log.Debug("Plugin applied", zap.String("plugin", p.id))
	}
	return nil
}
