package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pmgledhill102/perfreport/internal/config"
	"github.com/pmgledhill102/perfreport/internal/merge"
	"github.com/pmgledhill102/perfreport/internal/report"
	"github.com/pmgledhill102/perfreport/internal/sar"
	"github.com/pmgledhill102/perfreport/internal/table"
)

// noArgs rejects positional arguments as a configuration error.
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return config.Invalidf("%s takes no arguments, got %q", cmd.CommandPath(), args)
	}
	return nil
}

// required fails when any of the named flags was not given.
func required(cmd *cobra.Command, names ...string) error {
	for _, n := range names {
		if !cmd.Flags().Changed(n) {
			return config.Invalidf("required flag --%s not set", n)
		}
	}
	return nil
}

// summaryFlag registers -f/--file for commands reading a single summary.
func summaryFlag(fs *pflag.FlagSet, file *string) {
	fs.StringVarP(file, "file", "f", "summary.csv", "The summary CSV file name")
}

// spreadValues lets list flags take space separated values, as in
// "--files a.csv b.csv -n Version". Every bare argument following a list
// flag's first value is rewritten to "--name=value", which pflag appends to
// the list. Comma separated and repeated forms pass through unchanged.
func spreadValues(fs *pflag.FlagSet, args []string) []string {
	out := make([]string, 0, len(args))
	var list *pflag.Flag
	awaiting := false // list flag seen, its first value not yet given

	for i, arg := range args {
		switch {
		case arg == "--":
			return append(out, args[i:]...)
		case len(arg) > 1 && strings.HasPrefix(arg, "-"):
			list, awaiting = nil, false
			if f, inline := lookupFlag(fs, arg); f != nil {
				if _, ok := f.Value.(pflag.SliceValue); ok {
					list, awaiting = f, !inline
				}
			}
			out = append(out, arg)
		case list != nil && awaiting:
			awaiting = false
			out = append(out, arg)
		case list != nil:
			out = append(out, "--"+list.Name+"="+arg)
		default:
			out = append(out, arg)
		}
	}
	return out
}

// lookupFlag resolves "--name", "--name=v", "-n" and "-nv". inline reports
// whether the argument carries its own value.
func lookupFlag(fs *pflag.FlagSet, arg string) (f *pflag.Flag, inline bool) {
	if name, ok := strings.CutPrefix(arg, "--"); ok {
		name, _, inline = strings.Cut(name, "=")
		return fs.Lookup(name), inline
	}
	short := arg[1:2]
	return fs.ShorthandLookup(short), len(arg) > 2
}

func (a *app) chartsCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "charts",
		Short: "Render throughput, latency and GC charts from one summary",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.runner()
			if err != nil {
				return err
			}
			return r.Charts(file)
		},
	}
	summaryFlag(cmd.Flags(), &file)
	return cmd
}

func (a *app) compareCommand() *cobra.Command {
	var summary1, name1, summary2, name2 string
	cmd := &cobra.Command{
		Use:   "compare [<file> <label>]...",
		Short: "Merge several summaries and render comparison charts",
		Long: "Merge several summaries and render comparison charts.\n\n" +
			"Either give two summaries with --summary1/--name1/--summary2/--name2\n" +
			"or any number of <file> <label> pairs as arguments.",
		RunE: func(cmd *cobra.Command, args []string) error {
			files, labels, err := comparePairs(cmd, args, summary1, name1, summary2, name2)
			if err != nil {
				return err
			}
			sources, err := merge.Pair(files, labels)
			if err != nil {
				return err
			}

			r, err := a.runner()
			if err != nil {
				return err
			}
			return r.Compare(sources)
		},
	}
	cmd.Flags().StringVar(&summary1, "summary1", "", "The first summary CSV file name")
	cmd.Flags().StringVar(&name1, "name1", "", "The label of the first summary")
	cmd.Flags().StringVar(&summary2, "summary2", "", "The second summary CSV file name")
	cmd.Flags().StringVar(&name2, "name2", "", "The label of the second summary")
	return cmd
}

func comparePairs(cmd *cobra.Command, args []string, summary1, name1, summary2, name2 string) ([]string, []string, error) {
	flagged := cmd.Flags().Changed("summary1") || cmd.Flags().Changed("summary2") ||
		cmd.Flags().Changed("name1") || cmd.Flags().Changed("name2")
	if flagged {
		if len(args) > 0 {
			return nil, nil, config.Invalidf("give summaries either as flags or as arguments, not both")
		}
		if err := required(cmd, "summary1", "name1", "summary2", "name2"); err != nil {
			return nil, nil, err
		}
		return []string{summary1, summary2}, []string{name1, name2}, nil
	}

	if len(args)%2 != 0 {
		return nil, nil, config.Invalidf("expected <file> <label> pairs, got %d arguments", len(args))
	}
	var files, labels []string
	for i := 0; i < len(args); i += 2 {
		files = append(files, args[i])
		labels = append(labels, args[i+1])
	}
	return files, labels, nil
}

func (a *app) scenariosCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "Render comparison charts for a summary holding several scenarios",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.runner()
			if err != nil {
				return err
			}
			return r.Scenarios(file)
		},
	}
	summaryFlag(cmd.Flags(), &file)
	return cmd
}

func (a *app) plotsCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "plots",
		Short: "Render regression, line and categorical plots per heap size",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.runner()
			if err != nil {
				return err
			}
			return r.Plots(file)
		},
	}
	summaryFlag(cmd.Flags(), &file)
	return cmd
}

func (a *app) comparePlotsCommand() *cobra.Command {
	var (
		files  []string
		column string
		values []string
	)
	cmd := &cobra.Command{
		Use:   "compare-plots",
		Short: "Render categorical plots comparing summaries by a named column",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := required(cmd, "files", "column-name", "comparison-values"); err != nil {
				return err
			}
			r, err := a.runner()
			if err != nil {
				return err
			}
			return r.ComparePlots(files, column, values)
		},
	}
	cmd.Flags().StringSliceVarP(&files, "files", "f", nil, "The summary CSV file names")
	cmd.Flags().StringVarP(&column, "column-name", "n", "", "The comparison column name")
	cmd.Flags().StringSliceVarP(&values, "comparison-values", "v", nil, "The comparison column values for each summary file")
	return cmd
}

func (a *app) summaryMarkdownCommand() *cobra.Command {
	var (
		jsonFiles []string
		columns   []string
		summary   string
		output    string
	)
	cmd := &cobra.Command{
		Use:   "summary-markdown",
		Short: "Render the results summary markdown from a template",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := required(cmd, "json-files", "column-names"); err != nil {
				return err
			}

			params, err := report.LoadParameters(jsonFiles)
			if err != nil {
				return err
			}
			t, err := table.ReadCSV(summary, "")
			if err != nil {
				return fmt.Errorf("reading summary %s: %w", summary, err)
			}
			s, err := report.NewSummary(t, columns, params)
			if err != nil {
				return err
			}

			templates := report.Templates{Dir: a.cfg.Templates.Dir}
			if err := report.WriteSummaryMarkdown(s, templates, output); err != nil {
				return fmt.Errorf("writing summary markdown: %w", err)
			}
			a.log.WithField("file", output).Info("Summary written")
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&jsonFiles, "json-files", nil, "JSON files with parameters")
	cmd.Flags().StringArrayVar(&columns, "column-names", nil, "Columns to include in the report (repeat for each column)")
	summaryFlag(cmd.Flags(), &summary)
	cmd.Flags().StringVar(&output, "output-file", "summary.md", "Output markdown file")
	return cmd
}

func (a *app) sarSummaryCommand() *cobra.Command {
	var (
		start, end int64
		reports    []string
		output     string
	)
	cmd := &cobra.Command{
		Use:   "sar-summary",
		Short: "Average SAR CSV reports over a time window",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := required(cmd, "start-timestamp", "end-timestamp", "sar-csv-reports"); err != nil {
				return err
			}

			averages, err := sar.Summarize(reports, sar.Window{Start: start, End: end}, a.log)
			if err != nil {
				return err
			}
			if err := report.WriteJSON(averages, output); err != nil {
				return fmt.Errorf("writing SAR summary: %w", err)
			}
			a.log.WithField("file", output).Info("SAR summary written")
			return nil
		},
	}
	cmd.Flags().Int64Var(&start, "start-timestamp", 0, "Start timestamp in seconds")
	cmd.Flags().Int64Var(&end, "end-timestamp", 0, "End timestamp in seconds")
	cmd.Flags().StringSliceVar(&reports, "sar-csv-reports", nil, "SAR CSV reports")
	cmd.Flags().StringVar(&output, "output-file", "sar-summary.json", "Output JSON file")
	return cmd
}

func (a *app) cfnTemplateCommand() *cobra.Command {
	var (
		name    string
		servers int
		output  string
	)
	cmd := &cobra.Command{
		Use:   "cfn-template",
		Short: "Render an AWS CloudFormation template",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := required(cmd, "template-name", "jmeter-servers", "output-name"); err != nil {
				return err
			}
			if servers < 1 {
				return config.Invalidf("--jmeter-servers must be at least 1, got %d", servers)
			}

			templates := report.Templates{Dir: a.cfg.Templates.Dir}
			if err := templates.Render(name, report.CloudFormationContext(servers), output); err != nil {
				return err
			}
			a.log.WithField("file", filepath.Clean(output)).Info("Template written")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "template-name", "", "The template file name")
	cmd.Flags().IntVar(&servers, "jmeter-servers", 0, "Number of JMeter servers")
	cmd.Flags().StringVar(&output, "output-name", "", "Output file name")
	return cmd
}
