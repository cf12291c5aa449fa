// Package compile implements command line actions on top of the design
// system: building a stylesheet from scanned content and listing what the
// design system knows about.
package compile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"twc/config"
	"twc/designsystem"
	"twc/misc"
	"twc/scan"
	"twc/state"
)

// defaultInput is compiled when neither --input nor configuration name a
// stylesheet.
const defaultInput = `@import "tailwindcss";`

const (
	SortSource  = "source"
	SortNatural = "natural"
)

// InputFlags are shared by every command loading a design system.
func InputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "compile against stylesheet `FILE` instead of the configured one"},
		&cli.BoolFlag{Name: "important", Usage: "mark every declaration !important"},
	}
}

// BuildFlags are flags of the build command.
func BuildFlags() []cli.Flag {
	return append(InputFlags(),
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write stylesheet to `FILE`, if absent - STDOUT"},
		&cli.StringFlag{Name: "charset", Usage: "force `ENCODING` of content files (see IANA.org for character set names)"},
		&cli.StringFlag{Name: "sort", Usage: "order of emitted rules: " + SortSource + " or " + SortNatural},
	)
}

// Run scans content given as arguments and writes CSS for every candidate
// found there.
func Run(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("build")

	if cmd.Args().Len() == 0 {
		return errors.New("no content to scan has been specified")
	}

	order := cmd.String("sort")
	if order == "" {
		order = env.Cfg.Build.Sort
	}
	if order != SortSource && order != SortNatural {
		return fmt.Errorf("unknown sort order '%s'", order)
	}

	cp := cmd.String("charset")
	if cp == "" {
		cp = env.Cfg.Scan.Charset
	}
	if cp != "" {
		enc, err := ianaindex.IANA.Encoding(cp)
		if err != nil || enc == nil {
			log.Warn("Unknown character set specification, content is assumed to be UTF-8", zap.String("charset", cp), zap.Error(err))
		} else {
			env.CodePage = enc
			name, _ := ianaindex.IANA.Name(enc)
			log.Debug("Using character set", zap.String("charset", name))
		}
	}

	ds, input, err := LoadDesignSystem(ctx, cmd.String("input"), cmd.Bool("important"))
	if err != nil {
		return err
	}
	defer ds.Close()

	sc := scan.New(env.CodePage, env.Log)
	sc.AddExtensions(env.Cfg.Scan.Extensions...)
	if err := sc.Paths(ctx, cmd.Args().Slice()...); err != nil {
		return err
	}
	candidates := sc.Candidates()

	rules, invalid := Stylesheet(ds, candidates, order)
	log.Info("Compiled",
		zap.Int("candidates", len(candidates)),
		zap.Int("rules", len(rules)),
		zap.Int("ignored", len(invalid)))
	if len(invalid) > 0 {
		log.Debug("Candidates without CSS", zap.Strings("candidates", invalid))
	}

	banner, err := env.Cfg.Build.RenderBanner(config.BannerValues{
		App:        misc.GetAppName(),
		Version:    misc.GetVersion(),
		Input:      input,
		Candidates: len(candidates),
		Rules:      len(rules),
		Generated:  time.Now(),
	})
	if err != nil {
		return err
	}
	data := Assemble(banner, rules)
	env.Rpt.StoreData("output.css", data)

	return writeOutput(cmd.String("output"), data, writer(cmd), log)
}

// LoadDesignSystem builds the design system from the stylesheet named by
// the flag, by configuration or the default entry point. It also returns
// the name of the stylesheet used.
func LoadDesignSystem(ctx context.Context, input string, important bool) (*designsystem.DesignSystem, string, error) {
	env := state.EnvFromContext(ctx)
	if input == "" {
		input = env.Cfg.Build.Input
	}

	text, base := defaultInput, ""
	if input != "" {
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, "", fmt.Errorf("unable to read stylesheet: %w", err)
		}
		if err := env.Rpt.StoreCopy("input/"+filepath.Base(input), input); err != nil {
			env.Log.Warn("Unable to store stylesheet in the report", zap.Error(err))
		}
		text = string(data)
		if abs, err := filepath.Abs(input); err == nil {
			input = abs
		}
		base = filepath.Dir(input)
	} else {
		input = "tailwindcss"
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", fmt.Errorf("unable to get working directory: %w", err)
		}
		base = wd
	}

	ds, err := designsystem.Load(ctx, text, designsystem.Options{
		Log:       env.Log,
		Base:      base,
		Important: important || env.Cfg.Build.Important,
	})
	if err != nil {
		return nil, "", fmt.Errorf("unable to load design system from '%s': %w", input, err)
	}
	return ds, input, nil
}

// Stylesheet compiles candidates into rules. Candidates which do not
// produce CSS are returned separately in the order they were seen.
func Stylesheet(ds *designsystem.DesignSystem, candidates []string, order string) ([]string, []string) {
	if order == SortNatural {
		candidates = slices.Clone(candidates)
		slices.SortStableFunc(candidates, func(a, b string) int {
			switch {
			case natural.Less(a, b):
				return -1
			case natural.Less(b, a):
				return 1
			}
			return 0
		})
	}

	invalid := make(designsystem.InvalidSet)
	var rules, skipped []string
	for i, css := range ds.Compile(candidates, invalid) {
		if css == "" {
			skipped = append(skipped, candidates[i])
			continue
		}
		rules = append(rules, css)
	}
	return rules, skipped
}

// Assemble joins rules into the final stylesheet with an optional banner
// comment on top.
func Assemble(banner string, rules []string) []byte {
	var b strings.Builder
	if banner != "" {
		b.WriteString("/* ")
		b.WriteString(strings.ReplaceAll(banner, "*/", "* /"))
		b.WriteString(" */\n")
		if len(rules) > 0 {
			b.WriteString("\n")
		}
	}
	for i, r := range rules {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.TrimRight(r, "\n"))
	}
	if len(rules) > 0 {
		b.WriteString("\n")
	}
	return []byte(b.String())
}

func writeOutput(fname string, data []byte, out io.Writer, log *zap.Logger) (err error) {
	if fname != "" {
		f, cerr := os.Create(fname)
		if cerr != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, cerr)
		}
		defer func() {
			if er := f.Close(); er != nil && err == nil {
				err = er
			}
		}()
		out = f
	} else {
		fname = "STDOUT"
	}
	log.Debug("Writing stylesheet", zap.String("file", fname), zap.Int("bytes", len(data)))
	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write stylesheet: %w", err)
	}
	return nil
}
