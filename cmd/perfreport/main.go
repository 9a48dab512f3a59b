// perfreport turns load test summary CSVs into comparison tables, charts and
// markdown reports.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pmgledhill102/perfreport/internal/config"
	"github.com/pmgledhill102/perfreport/internal/pipeline"
)

// Exit codes.
const (
	exitOK         = 0
	exitError      = 1
	exitFlagParser = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// flagError marks failures of the flag parser.
type flagError struct {
	err error
}

func (e *flagError) Error() string { return e.err.Error() }
func (e *flagError) Unwrap() error { return e.err }

// app holds what every command needs once the root flags are parsed.
type app struct {
	configPath string
	logLevel   string
	logFormat  string
	outputDir  string

	stderr io.Writer
	cfg    *config.Config
	log    *logrus.Logger
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	a := &app{stderr: stderr}
	root := a.rootCommand()
	if cmd, _, err := root.Find(args); err == nil && cmd != root {
		args = spreadValues(cmd.Flags(), args)
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	cmd, err := root.ExecuteC()
	if err == nil {
		return exitOK
	}

	var fe *flagError
	switch {
	case errors.As(err, &fe):
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprint(stderr, cmd.UsageString())
		return exitFlagParser
	case config.IsConfigurationError(err):
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprint(stderr, cmd.UsageString())
		return exitError
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "perfreport",
		Short:         "Generate charts and reports from performance test summaries",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &flagError{err: err}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to configuration file")
	flags.StringVar(&a.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "text", "Log format (text, json)")
	flags.StringVarP(&a.outputDir, "output-dir", "o", "", "Output directory for charts (overrides config)")

	root.AddCommand(
		a.chartsCommand(),
		a.compareCommand(),
		a.scenariosCommand(),
		a.plotsCommand(),
		a.comparePlotsCommand(),
		a.summaryMarkdownCommand(),
		a.sarSummaryCommand(),
		a.cfnTemplateCommand(),
	)
	return root
}

// setup builds the logger and loads the configuration.
func (a *app) setup() error {
	log, err := newLogger(a.logLevel, a.logFormat, a.stderr)
	if err != nil {
		return err
	}
	a.log = log

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.outputDir != "" {
		cfg.Output.Dir = a.outputDir
	}
	a.cfg = cfg
	return nil
}

func newLogger(level, format string, out io.Writer) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, config.Invalidf("invalid log level %q", level)
	}
	log.SetLevel(lvl)

	switch format {
	case "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, config.Invalidf("invalid log format %q", format)
	}
	return log, nil
}

func (a *app) runner() (*pipeline.Runner, error) {
	r, err := pipeline.NewRunner(a.cfg, a.log)
	if err != nil {
		return nil, fmt.Errorf("creating runner: %w", err)
	}
	return r, nil
}
