package compile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"twc/candidate"
	"twc/designsystem"
	"twc/state"
)

// Classes prints every class the design system can produce, one per line.
// With --modifiers the accepted modifiers follow after a tab.
func Classes(ctx context.Context, cmd *cli.Command) error {
	ds, _, err := LoadDesignSystem(ctx, cmd.String("input"), cmd.Bool("important"))
	if err != nil {
		return err
	}
	defer ds.Close()

	list := ds.ClassList()
	state.EnvFromContext(ctx).Log.Debug("Listing classes", zap.Int("count", len(list)))
	return WriteClasses(writer(cmd), list, cmd.Bool("modifiers"))
}

func WriteClasses(w io.Writer, list []designsystem.ClassEntry, modifiers bool) error {
	if w == nil {
		w = os.Stdout
	}
	for _, e := range list {
		line := e.Name
		if modifiers && len(e.Modifiers) > 0 {
			line += "\t" + strings.Join(e.Modifiers, " ")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Variants prints registered variants. Functional variants are shown as
// `name-*` followed by their suggested values, compound ones as `name-*`
// followed by the variants they accept. With --selectors the selectors of
// the variant applied without value are printed too.
func Variants(ctx context.Context, cmd *cli.Command) error {
	ds, _, err := LoadDesignSystem(ctx, cmd.String("input"), cmd.Bool("important"))
	if err != nil {
		return err
	}
	defer ds.Close()

	return WriteVariants(writer(cmd), ds.Variants(), cmd.Bool("selectors"))
}

func WriteVariants(w io.Writer, list []designsystem.VariantEntry, selectors bool) error {
	if w == nil {
		w = os.Stdout
	}
	for _, v := range list {
		name := v.Name
		if v.HasDash {
			name += "-*"
		}
		if _, err := fmt.Fprintln(w, name+values(v.Values)); err != nil {
			return err
		}
		if !selectors {
			continue
		}
		for _, sel := range v.Selectors(designsystem.SelectorArgs{}) {
			if _, err := fmt.Fprintf(w, "\t%s\n", sel); err != nil {
				return err
			}
		}
	}
	return nil
}

func values(vs []string) string {
	if len(vs) == 0 {
		return ""
	}
	return "\t" + strings.Join(vs, " ")
}

// CandidatesFlags are flags of the candidates command.
func CandidatesFlags() []cli.Flag {
	return append(InputFlags(),
		&cli.BoolFlag{Name: "explain", Aliases: []string{"e"}, Usage: "print how every candidate was parsed before CSS"},
	)
}

// Candidates compiles the candidates given as arguments, every rule is
// printed as is, candidates without CSS are reported as warnings.
func Candidates(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return errors.New("no candidates have been specified")
	}
	ds, _, err := LoadDesignSystem(ctx, cmd.String("input"), cmd.Bool("important"))
	if err != nil {
		return err
	}
	defer ds.Close()

	log := state.EnvFromContext(ctx).Log.Named("candidates")
	if cmd.Bool("explain") {
		if err := explain(writer(cmd), ds, cmd.Args().Slice()); err != nil {
			return err
		}
	}
	rules, invalid := Stylesheet(ds, cmd.Args().Slice(), SortSource)
	for _, c := range invalid {
		log.Warn("Candidate does not produce CSS", zap.String("candidate", c))
	}
	_, err = writer(cmd).Write(Assemble("", rules))
	return err
}

func explain(w io.Writer, ds *designsystem.DesignSystem, raws []string) error {
	for _, raw := range raws {
		text := fmt.Sprintf("candidate: %q\n  does not parse\n", raw)
		if c, ok := ds.ParseCandidate(raw); ok {
			text = candidate.Dump(c)
		}
		if _, err := io.WriteString(w, text+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func writer(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
