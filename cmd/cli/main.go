package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"reportai/app"
	"reportai/internal/config"
	"reportai/internal/database"
	"reportai/internal/errors"
	"reportai/internal/export"
	"reportai/internal/ingest"
	"reportai/internal/logging"
	"reportai/internal/profiling"
	"reportai/internal/summarizer"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "reportai-cli",
		Short:         "ReportAI CLI for summarizing spreadsheets offline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.NewWithWriter(cmd.ErrOrStderr(), logLevel))
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newSummarizeCmd(),
		newProfileCmd(),
		newExportCmd(),
		newMigrateCmd(),
	)
	return rootCmd
}

func newSummarizeCmd() *cobra.Command {
	var asJSON bool
	var source string

	cmd := &cobra.Command{
		Use:   "summarize FILE [FILE...]",
		Short: "Summarize CSV or Excel files",
		Long: `Summarize one or more CSV or Excel files and print the summary,
key metrics, recommendations and chart series.

Example: reportai-cli summarize sales.csv --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if source != "" && len(args) > 1 {
				return errors.ValidationError("--source can only be used with a single file")
			}

			reqs := make([]app.AnalyzeRequest, 0, len(args))
			for _, path := range args {
				ds, err := ingest.ReadFile(path)
				if err != nil {
					return err
				}
				label := source
				if label == "" {
					label = filepath.Base(path)
				}
				reqs = append(reqs, app.AnalyzeRequest{SourceLabel: label, Dataset: ds})
			}

			svc := app.NewReportService(nil, slog.Default())
			reports, err := svc.AnalyzeBatch(cmd.Context(), reqs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if len(reports) == 1 {
					return enc.Encode(reports[0].Result)
				}
				return enc.Encode(reports)
			}
			for i, rep := range reports {
				if i > 0 {
					fmt.Fprintln(out)
				}
				printResult(out, rep.SourceLabel, rep.Result)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the analysis as JSON")
	cmd.Flags().StringVar(&source, "source", "", "Source label shown in the summary (defaults to the file name)")

	return cmd
}

func newProfileCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "profile FILE",
		Short: "Profile the columns of a CSV or Excel file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := ingest.ReadFile(args[0])
			if err != nil {
				return err
			}
			profile := profiling.Profile(ds)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(profile)
			}
			printProfile(out, profile)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the profile as JSON")

	return cmd
}

func newExportCmd() *cobra.Command {
	var format string
	var output string
	var name string

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Summarize a file and write the report as csv, html or md",
		Long: `Summarize a file and write the report in the requested format.

Example: reportai-cli export sales.xlsx --format html -o sales.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			ds, err := ingest.ReadFile(args[0])
			if err != nil {
				return err
			}

			svc := app.NewReportService(nil, slog.Default())
			rep, err := svc.Analyze(cmd.Context(), app.AnalyzeRequest{
				Name:        name,
				SourceLabel: filepath.Base(args[0]),
				Dataset:     ds,
			})
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return export.Write(cmd.OutOrStdout(), rep, f)
			}
			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := export.Write(file, rep, f); err != nil {
				file.Close()
				return err
			}
			return file.Close()
		},
	}

	cmd.Flags().StringVar(&format, "format", "md", "Output format (csv, html, md)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (defaults to stdout)")
	cmd.Flags().StringVar(&name, "name", "", "Report title")

	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the report tables in DATABASE_URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := database.Open(cmd.Context(), cfg.Database, slog.Default())
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied (%s)\n", cfg.Database.Driver)
			return nil
		},
	}
}

func printResult(out io.Writer, title string, result summarizer.AnalysisResult) {
	fmt.Fprintf(out, "== %s ==\n", title)
	fmt.Fprintln(out, result.Summary)

	fmt.Fprintln(out, "\nKey metrics:")
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, m := range result.KeyMetrics {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", m.Label, m.Value, m.Change)
	}
	tw.Flush()

	fmt.Fprintln(out, "\nRecommendations:")
	for _, rec := range result.Recommendations {
		fmt.Fprintf(out, "  - %s\n", rec)
	}

	for _, name := range summarizer.AllSeries {
		points := result.Series(name)
		if len(points) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n%s:\n", strings.ToUpper(string(name[:1]))+string(name[1:]))
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, p := range points {
			fmt.Fprintf(tw, "  %s\t%s\n", p.Label, humanize.Commaf(p.Value))
		}
		tw.Flush()
	}
}

func printProfile(out io.Writer, profile profiling.DatasetProfile) {
	fmt.Fprintf(out, "%s rows, %d columns, %.1f%% complete\n\n",
		humanize.Comma(int64(profile.Rows)), len(profile.Columns), profile.Completeness*100)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tKIND\tROLES\tMISSING\tDISTINCT\tMEAN\tMEDIAN")
	for _, col := range profile.Columns {
		roles := make([]string, len(col.Roles))
		for i, r := range col.Roles {
			roles[i] = string(r)
		}
		mean, median := "-", "-"
		if col.Numeric != nil {
			mean = humanize.FormatFloat("#,###.##", col.Numeric.Mean)
			median = humanize.FormatFloat("#,###.##", col.Numeric.Median)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			col.Name, col.Kind, strings.Join(roles, ","), col.Missing, col.Distinct, mean, median)
	}
	tw.Flush()
}
