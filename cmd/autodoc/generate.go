// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"autodoc-cli/internal/changes"
	"autodoc-cli/internal/config"
	"autodoc-cli/internal/generator"
	"autodoc-cli/internal/issue"
	"autodoc-cli/internal/prompt"
	"autodoc-cli/internal/report"
)

// generateFlags are the per-run overrides of `autodoc generate`.
type generateFlags struct {
	root      string
	out       string
	docType   string
	include   []string
	exclude   []string
	since     string
	all       bool
	dryRun    bool
	json      bool
	delay     time.Duration
	maxTokens int
	strict    bool
}

func newGenerateCommand(app *App, root *rootFlags) *cobra.Command {
	flags := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate documentation for stale source files",
		Long: `Generate documentation for stale source files.

A file is stale when it changed between the base revision (HEAD~1 unless
--since is given) and HEAD, or when its documentation file does not exist.
Each stale file is sent to the chat-completion deployment once; failures are
recorded in the summary and never retried.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, app, root, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.root, "root", "", "source root to scan (default from source.root)")
	f.StringVarP(&flags.out, "out", "o", "", "documentation output directory (default from output.dir)")
	f.StringVarP(&flags.docType, "type", "t", "", "documentation type (see 'autodoc types')")
	f.StringSliceVar(&flags.include, "include", nil, "include glob, repeatable (replaces source.include)")
	f.StringSliceVar(&flags.exclude, "exclude", nil, "exclude glob, repeatable (replaces source.exclude)")
	f.StringVar(&flags.since, "since", "", "base revision for change detection (default HEAD~1)")
	f.BoolVar(&flags.all, "all", false, "treat every matched file as stale")
	f.BoolVar(&flags.dryRun, "dry-run", false, "list stale files without calling the API or writing files")
	f.BoolVar(&flags.json, "json", false, "print the run summary as JSON")
	f.DurationVar(&flags.delay, "delay", 0, "delay between API requests (default from limits.request_delay)")
	f.IntVar(&flags.maxTokens, "max-tokens", 0, "max completion tokens per file (default from limits.max_tokens)")
	f.BoolVar(&flags.strict, "strict", false, "exit with status 2 when any file failed")

	return cmd
}

func runGenerate(cmd *cobra.Command, app *App, root *rootFlags, flags *generateFlags) error {
	ctx := cmd.Context()

	cfg, err := app.loadConfig(ctx, root.configPath)
	if err != nil {
		return app.fail(cmd, err, root.verbose)
	}
	applyGenerateFlags(cmd, cfg, flags)
	if err := cfg.Validate(); err != nil {
		return app.fail(cmd, err, root.verbose)
	}

	logger := newLogger(app.stderr, cfg.Log.Level, root.verbose)

	catalog, err := prompt.Load(cfg.Docs.PromptsFile)
	if err != nil {
		return app.fail(cmd, issue.WrapWithContext(err, "load prompt catalog", cfg.Docs.PromptsFile), root.verbose)
	}

	var completer generator.Completer
	if !flags.dryRun {
		completer, err = app.NewCompleter(cfg.API, logger)
		if err != nil {
			return app.fail(cmd, err, root.verbose)
		}
	}

	gen, err := generator.New(generator.Options{
		Root:         cfg.Source.Root,
		OutputDir:    cfg.Output.Dir,
		SummaryPath:  cfg.Output.SummaryPath(),
		DocType:      cfg.Docs.Type,
		Include:      cfg.Source.Include,
		Exclude:      cfg.Source.Exclude,
		MinBytes:     cfg.Limits.MinBytes,
		MaxBytes:     cfg.Limits.MaxBytes,
		MaxTokens:    cfg.Limits.MaxTokens,
		Temperature:  cfg.API.Temperature,
		RequestDelay: cfg.Limits.RequestDelay,
		All:          flags.all,
		DryRun:       flags.dryRun,
	}, catalog, completer, &changes.Detector{Root: cfg.Source.Root, Base: flags.since}, generator.WithLogger(logger))
	if err != nil {
		return app.fail(cmd, err, root.verbose)
	}

	summary, runErr := gen.Run(ctx)
	if summary != nil {
		if flags.json {
			if err := writeJSON(app.stdout, summary); err != nil {
				return app.fail(cmd, err, root.verbose)
			}
		} else {
			printRunSummary(app.stdout, summary, cfg.Output.SummaryPath())
		}
	}
	if runErr != nil {
		return app.fail(cmd, runErr, root.verbose)
	}

	if summary.Discovered == 0 {
		fmt.Fprintln(app.stderr, WarningStyle.Render("Warning: ")+"no source files matched the include patterns")
		if page := issue.Get(issue.NoSourceFilesId); page != nil && root.verbose {
			if rendered, err := page.Render("dark"); err == nil {
				fmt.Fprint(app.stderr, rendered)
			}
		}
	}

	if flags.strict && summary.Counts().Failed > 0 {
		cmd.SilenceErrors = true
		return &ExitError{Code: ExitPartial}
	}
	return nil
}

// applyGenerateFlags copies explicitly set flags over the loaded configuration.
func applyGenerateFlags(cmd *cobra.Command, cfg *config.Config, flags *generateFlags) {
	f := cmd.Flags()
	if f.Changed("root") {
		cfg.Source.Root = flags.root
	}
	if f.Changed("out") {
		cfg.Output.Dir = flags.out
	}
	if f.Changed("type") {
		cfg.Docs.Type = flags.docType
	}
	if f.Changed("include") {
		cfg.Source.Include = flags.include
	}
	if f.Changed("exclude") {
		cfg.Source.Exclude = flags.exclude
	}
	if f.Changed("delay") {
		cfg.Limits.RequestDelay = flags.delay
	}
	if f.Changed("max-tokens") {
		cfg.Limits.MaxTokens = flags.maxTokens
	}
}

func printRunSummary(w io.Writer, s *report.Summary, summaryPath string) {
	c := s.Counts()

	fmt.Fprintln(w)
	title := "Documentation run"
	if s.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintln(w, TitleStyle.Render(title)+" "+VerboseStyle.Render(s.RunID))

	for _, r := range s.Results {
		switch r.Status {
		case report.StatusSucceeded:
			fmt.Fprintf(w, "  %s %s %s %s\n", SuccessStyle.Render("✓"), r.File, SubtitleStyle.Render("→"), CmdStyle.Render(r.DocPath))
		case report.StatusFailed:
			fmt.Fprintf(w, "  %s %s %s\n", ErrorStyle.Render("✗"), r.File, ErrorStyle.Render(r.Error))
		case report.StatusSkipped:
			fmt.Fprintf(w, "  %s %s %s\n", WarningStyle.Render("-"), r.File, SubtitleStyle.Render(r.Error))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %d of %d matched\n", countLabelStyle.Render("Stale"), s.Stale, s.Discovered)
	fmt.Fprintf(w, "%s %s\n", countLabelStyle.Render("Succeeded"), SuccessStyle.Render(fmt.Sprint(c.Succeeded)))
	fmt.Fprintf(w, "%s %s\n", countLabelStyle.Render("Failed"), ErrorStyle.Render(fmt.Sprint(c.Failed)))
	fmt.Fprintf(w, "%s %s\n", countLabelStyle.Render("Skipped"), WarningStyle.Render(fmt.Sprint(c.Skipped)))
	if !s.DryRun && summaryPath != "" {
		fmt.Fprintf(w, "%s %s\n", countLabelStyle.Render("Summary"), CmdStyle.Render(summaryPath))
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return issue.WrapWithOperation(enc.Encode(v), "encode run summary")
}

// fail prints err in the CLI's error layout, with the linked help page in
// verbose mode, and converts it into an ExitError.
func (a *App) fail(cmd *cobra.Command, err error, verbose bool) error {
	cmd.SilenceErrors = true
	fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
	if verbose {
		a.renderIssueHint(err)
	} else if issue.IssueOf(err) != nil {
		fmt.Fprintln(a.stderr, SubtitleStyle.Render("Run with --verbose for troubleshooting help."))
	}
	return &ExitError{Code: ExitFailure, Err: err}
}
