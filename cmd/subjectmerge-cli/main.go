package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"yashubustudio/subjectmerge/subjectmerge"
)

type cliOptions struct {
	configPath  string
	rosterPath  string
	subjectDirs []string
	files       []string
	idColumn    string
	label       string
	covariates  bool
	outputPath  string
	preview     int
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "subjectmerge-cli",
		Short: "Merge per-subject summary files into one table ordered by a roster",
		Long: `subjectmerge-cli parses one key/value summary file per subject
(FreeSurfer-style stats, "key: value" or delimited lines), unifies the
metric columns across subjects and writes a single CSV ordered by the
participants roster.`,
		SilenceUsage: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	var opts cliOptions
	mergeCmd := &cobra.Command{
		Use:   "merge [subject files...]",
		Short: "Build the merged table and write it as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.files = append(opts.files, args...)
			return runMerge(cmd, opts)
		},
	}
	mergeCmd.Flags().StringVar(&opts.configPath, "config", "", "Path to config.json or config.yaml (default: ./config.json)")
	mergeCmd.Flags().StringVar(&opts.rosterPath, "roster", "", "Roster CSV/TSV file (.tsv is tab separated)")
	mergeCmd.Flags().StringArrayVar(&opts.subjectDirs, "subjects", nil, "Directory holding subject files (repeatable)")
	mergeCmd.Flags().StringArrayVar(&opts.files, "file", nil, "Subject file (repeatable)")
	mergeCmd.Flags().StringVar(&opts.idColumn, "id-column", "", "Roster column holding subject IDs")
	mergeCmd.Flags().StringVar(&opts.label, "label", "", "Row label template; {id} is the raw ID, {base} the ID without extension")
	mergeCmd.Flags().BoolVar(&opts.covariates, "covariates", false, "Append the remaining roster columns")
	mergeCmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "CSV file to write (default: stdout)")
	mergeCmd.Flags().IntVar(&opts.preview, "preview", 0, "Print the first N rows to stderr")
	_ = mergeCmd.MarkFlagRequired("roster")

	var columnsRoster string
	columnsCmd := &cobra.Command{
		Use:   "columns",
		Short: "List roster columns and the suggested identifier column",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runColumns(cmd, columnsRoster)
		},
	}
	columnsCmd.Flags().StringVar(&columnsRoster, "roster", "", "Roster CSV/TSV file")
	_ = columnsCmd.MarkFlagRequired("roster")

	rootCmd.AddCommand(mergeCmd, columnsCmd)
	return rootCmd
}

func runMerge(cmd *cobra.Command, opts cliOptions) error {
	cfg, err := subjectmerge.LoadConfig(strings.TrimSpace(opts.configPath))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if v := strings.TrimSpace(opts.idColumn); v != "" {
		cfg.IDColumn = v
	}
	if cmd.Flags().Changed("label") {
		cfg.LabelTemplate = opts.label
	}
	if cmd.Flags().Changed("covariates") {
		cfg.IncludeCovariates = opts.covariates
	}
	cfg.ApplyDefaults()

	logger := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
	session := subjectmerge.NewSession(cfg, logger)

	rosterData, err := os.ReadFile(opts.rosterPath)
	if err != nil {
		return fmt.Errorf("read roster: %w", err)
	}
	if _, err := session.SetRoster(opts.rosterPath, rosterData); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	files, err := collectFiles(ctx, cfg, opts)
	if err != nil {
		return err
	}
	session.SetFiles(files)

	table, err := session.Build(ctx, cfg.BuildOptions)
	if err != nil {
		if errors.Is(err, subjectmerge.ErrNoIDColumn) {
			return fmt.Errorf("%w (choose one with --id-column; see `columns`)", err)
		}
		return err
	}

	if opts.preview > 0 {
		printPreview(cmd.ErrOrStderr(), table, opts.preview)
	}
	if out := strings.TrimSpace(opts.outputPath); out != "" {
		if err := subjectmerge.SaveCSV(out, table); err != nil {
			return err
		}
		logger.Printf("Wrote %s", out)
	} else if err := subjectmerge.WriteCSV(cmd.OutOrStdout(), table); err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	p.Fprintf(cmd.ErrOrStderr(), "%d subjects, %d metric columns, %d missing, %d unmatched\n",
		len(table.Rows), len(table.Metrics), table.Missing, table.Unmatched)
	return nil
}

func collectFiles(ctx context.Context, cfg subjectmerge.Config, opts cliOptions) ([]subjectmerge.File, error) {
	var files []subjectmerge.File
	for _, dir := range opts.subjectDirs {
		loaded, err := subjectmerge.LoadDir(ctx, dir, cfg.SubjectExtensions, cfg.Workers)
		if err != nil {
			return nil, err
		}
		files = append(files, loaded...)
	}
	if len(opts.files) > 0 {
		loaded, err := subjectmerge.LoadFiles(ctx, opts.files, cfg.Workers)
		if err != nil {
			return nil, err
		}
		files = append(files, loaded...)
	}
	return files, nil
}

func runColumns(cmd *cobra.Command, rosterPath string) error {
	data, err := os.ReadFile(rosterPath)
	if err != nil {
		return fmt.Errorf("read roster: %w", err)
	}
	roster, err := subjectmerge.ReadRoster(rosterPath, data)
	if err != nil {
		return err
	}
	suggested := roster.SuggestIDColumn()
	out := cmd.OutOrStdout()
	for i, col := range roster.Columns {
		marker := ""
		if col == suggested {
			marker = " (suggested ID column)"
		}
		fmt.Fprintf(out, "[%d] %s%s\n", i+1, col, marker)
	}
	return nil
}

func printPreview(w io.Writer, table *subjectmerge.Table, limit int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(table.Header, "\t"))
	for _, row := range table.Preview(limit) {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
	if len(table.Rows) > limit {
		fmt.Fprintf(w, "... %d more rows\n", len(table.Rows)-limit)
	}
}
