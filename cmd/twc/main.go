package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"twc/compile"
	"twc/config"
	"twc/misc"
	"twc/state"
)

// initializeAppContext runs after the command line has been parsed and before
// any command: it loads configuration, opens the debug report and sets up
// logging.
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.NArg() == 0 {
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)
	configFile := cmd.String("config")

	cfg, err := config.LoadConfiguration(configFile)
	if err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	env.Cfg = cfg

	if cmd.Bool("debug") {
		if env.Rpt, err = cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		storeConfiguration(env.Rpt, cfg, configFile)
	}

	if env.Log, err = cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started",
		zap.Strings("args", os.Args),
		zap.String("ver", misc.GetVersion()),
		zap.String("runtime", runtime.Version()),
		zap.String("hash", misc.GetGitHash()),
		zap.Bool("defaults", configFile == ""))
	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	return ctx, nil
}

// storeConfiguration puts the effective configuration into the report.
func storeConfiguration(rpt *config.Report, cfg *config.Config, configFile string) {
	data, err := config.Dump(cfg)
	if err != nil {
		return
	}
	name := "default.yaml"
	if configFile != "" {
		name = filepath.Base(configFile)
	}
	rpt.StoreData("config/"+name, data)
}

// destroyAppContext flushes logs and finishes the report, from here on errors
// can only be reported to stderr.
func destroyAppContext(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}
	env.RestoreStdLog()

	var err error
	if cerr := env.Rpt.Close(); cerr != nil {
		err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", cerr))
	}
	if env.Cfg != nil {
		err = multierr.Append(err, removeEmptyPanicLog(env.Cfg.Logging.FileLogger.Destination))
	}
	return err
}

func removeEmptyPanicLog(logDestination string) error {
	if logDestination == "" {
		return nil
	}
	debug.SetCrashOutput(nil, debug.CrashOptions{})
	fname := filepath.Join(filepath.Dir(logDestination), misc.GetAppName()+"-panic.log")
	if fi, err := os.Stat(fname); err != nil || fi.Size() != 0 {
		return nil
	}
	if err := os.Remove(fname); err != nil {
		return fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, err)
	}
	return nil
}

// Subcommands return regular errors instead of cli.Exit(), they are logged
// here and exit code is set in main.
var errWasHandled bool

// called before appContext is destroyed, so error still can be logged
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := state.EnvFromContext(ctx)
	if env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

const stylesheetHelp = `
STYLESHEET:
    entry point of the design system: @import, @theme, @utility,
    @custom-variant, @plugin and @config directives are honored. When
    neither --input nor configuration name one, '@import "tailwindcss";'
    is used. Relative imports, plugins and configs (.css, .json, .yaml,
    .lua) are resolved against the stylesheet directory.
`

func main() {
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "utility-first CSS compiler",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
		},
		Commands: []*cli.Command{
			{
				Name:         "build",
				Usage:        "Scans content and generates CSS for every class found",
				OnUsageError: usageErrorHandler,
				Action:       compile.Run,
				Flags:        compile.BuildFlags(),
				ArgsUsage:    "CONTENT...",
				CustomHelpTemplate: fmt.Sprintf(`%s
CONTENT:
    files or directories to scan for class names; directories are walked
    recursively skipping hidden ones and node_modules, only known content
    types (html, js, ts, jsx, tsx, vue, svelte, md, ...) are considered
    there, files named explicitly are always scanned
%s`, cli.CommandHelpTemplate, stylesheetHelp),
			},
			{
				Name:         "candidates",
				Usage:        "Generates CSS for class names given on command line",
				OnUsageError: usageErrorHandler,
				Action:       compile.Candidates,
				Flags:        compile.CandidatesFlags(),
				ArgsUsage:    "CLASS...",
				CustomHelpTemplate: fmt.Sprintf(`%s%s`,
					cli.CommandHelpTemplate, stylesheetHelp),
			},
			{
				Name:         "classes",
				Usage:        "Lists every class the design system can produce",
				OnUsageError: usageErrorHandler,
				Action:       compile.Classes,
				Flags: append(compile.InputFlags(),
					&cli.BoolFlag{Name: "modifiers", Aliases: []string{"m"}, Usage: "print accepted modifiers after each class"},
				),
				CustomHelpTemplate: fmt.Sprintf(`%s%s`,
					cli.CommandHelpTemplate, stylesheetHelp),
			},
			{
				Name:         "variants",
				Usage:        "Lists registered variants",
				OnUsageError: usageErrorHandler,
				Action:       compile.Variants,
				Flags: append(compile.InputFlags(),
					&cli.BoolFlag{Name: "selectors", Aliases: []string{"s"}, Usage: "print selectors each variant produces"},
				),
				CustomHelpTemplate: fmt.Sprintf(`%s%s`,
					cli.CommandHelpTemplate, stylesheetHelp),
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values which is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
			},
		},
	}

	var err error
	// NOTE: os.Exit is called at the end of main to set exit code, make sure
	// there are no other deferred functions after that
	defer func() {
		stop()
		if err != nil {
			// log is either not set yet (argument parsing) or already closed
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

// outputConfiguration writes default or effective configuration to the
// file given as argument or to stdout.
func outputConfiguration(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	kind, data := "actual", []byte(nil)
	if cmd.Bool("default") {
		kind = "default"
		data, err = config.Prepare()
	} else {
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	fname := cmd.Args().Get(0)
	env.Log.Debug("Outputting configuration", zap.String("state", kind), zap.String("file", fname))

	if fname == "" {
		_, err = os.Stdout.Write(data)
	} else {
		err = os.WriteFile(fname, data, 0644)
	}
	if err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
