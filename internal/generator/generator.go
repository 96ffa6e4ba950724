// SPDX-License-Identifier: MPL-2.0

package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"autodoc-cli/internal/changes"
	"autodoc-cli/internal/discovery"
	"autodoc-cli/internal/issue"
	"autodoc-cli/internal/llm"
	"autodoc-cli/internal/prompt"
	"autodoc-cli/internal/report"
)

// Skip reasons and per-file failures recorded in the summary.
const (
	ReasonTooSmall = "file too small"
	ReasonDryRun   = "dry run"
)

var (
	// ErrFileTooLarge is recorded for files above MaxBytes.
	ErrFileTooLarge = errors.New("file too large")
	// ErrDocPathCollision is recorded when two sources map to one document.
	ErrDocPathCollision = errors.New("doc path collision")
	// ErrAborted wraps the error that stopped a run early.
	ErrAborted = errors.New("run aborted")
)

type (
	// Completer sends one chat-completion request.
	Completer interface {
		Complete(ctx context.Context, req llm.Request) (string, error)
	}

	// ChangeDetector reports the files changed since the base revision.
	ChangeDetector interface {
		Changed(ctx context.Context) (changes.ChangeSet, error)
	}

	// Options describes one run.
	Options struct {
		Root      string
		OutputDir string
		// SummaryPath is where the Markdown summary goes; empty disables it.
		SummaryPath string
		DocType     string
		Include     []string
		Exclude     []string

		MinBytes     int64
		MaxBytes     int64
		MaxTokens    int
		Temperature  float64
		RequestDelay time.Duration

		// All treats every matched file as stale.
		All bool
		// DryRun records stale files as skipped without calling the API or
		// writing anything.
		DryRun bool
	}

	// Option configures a Generator.
	Option func(*Generator)

	// Generator is a configured pipeline. It is not safe for concurrent use.
	Generator struct {
		opts      Options
		catalog   *prompt.Catalog
		completer Completer
		detector  ChangeDetector
		logger    *log.Logger
		limiter   *rate.Limiter
		now       func() time.Time
	}
)

// WithLogger sets the run logger.
func WithLogger(l *log.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// New builds a Generator. completer may be nil for dry runs; detector may be
// nil when opts.All is set.
func New(opts Options, catalog *prompt.Catalog, completer Completer, detector ChangeDetector, options ...Option) (*Generator, error) {
	if catalog == nil {
		return nil, errors.New("generator: prompt catalog is required")
	}
	if completer == nil && !opts.DryRun {
		return nil, errors.New("generator: completer is required unless dry run")
	}
	if detector == nil && !opts.All {
		return nil, errors.New("generator: change detector is required unless all files are selected")
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = math.MaxInt64
	}

	g := &Generator{
		opts:      opts,
		catalog:   catalog,
		completer: completer,
		detector:  detector,
		logger:    log.New(io.Discard),
		now:       time.Now,
	}
	for _, o := range options {
		o(g)
	}

	limit := rate.Inf
	if opts.RequestDelay > 0 {
		limit = rate.Every(opts.RequestDelay)
	}
	g.limiter = rate.NewLimiter(limit, 1)

	return g, nil
}

// Run executes the pipeline and returns the summary. When the run aborts, the
// partial summary is still written and returned together with the error.
func (g *Generator) Run(ctx context.Context) (*report.Summary, error) {
	summary := report.New(g.opts.DocType, g.now())
	summary.SourceRoot = g.opts.Root
	summary.OutputDir = g.opts.OutputDir
	summary.DryRun = g.opts.DryRun

	if err := g.catalog.Check(g.opts.DocType); err != nil {
		return nil, err
	}

	outAbs, err := filepath.Abs(g.opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output directory: %w", err)
	}

	files, err := discovery.Discover(ctx, discovery.Options{
		Root:     g.opts.Root,
		Include:  g.opts.Include,
		Exclude:  g.opts.Exclude,
		SkipDirs: []string{outAbs},
	})
	if err != nil {
		return nil, issue.WrapWithContext(err, "discover source files", g.opts.Root)
	}
	summary.Discovered = len(files)
	g.logger.Info("discovered source files", "root", g.opts.Root, "count", len(files))

	changed, err := g.changeSet(ctx)
	if err != nil {
		return nil, err
	}

	claims, err := g.claimDocPaths(files)
	if err != nil {
		return nil, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return g.abort(summary, err)
		}

		docPath := discovery.DocPath(g.opts.OutputDir, f.RelPath)
		if !g.stale(changed, f.RelPath, docPath) {
			g.logger.Debug("up to date", "file", f.RelPath)
			continue
		}
		summary.Stale++

		if r, ok := g.screen(f); !ok {
			g.record(summary, r)
			continue
		}
		if owner := claims[f.RelPath]; owner != f.RelPath {
			g.record(summary, report.Failure(f.RelPath, collision(docPath, owner)))
			continue
		}

		if fatal := g.process(ctx, summary, f, docPath); fatal != nil {
			return g.abort(summary, fatal)
		}
	}

	c := summary.Counts()
	g.logger.Info("run complete", "succeeded", c.Succeeded, "failed", c.Failed, "skipped", c.Skipped)

	if err := g.writeSummary(summary); err != nil {
		return summary, err
	}
	return summary, nil
}

// claimDocPaths maps each file to the file that owns its doc path. Files
// outside the size limits never produce a doc, so they own nothing. The first
// sized file in path order owns a shared doc path; the summary path is owned
// by the run itself (the empty string).
func (g *Generator) claimDocPaths(files []discovery.SourceFile) (map[string]string, error) {
	owners := make(map[string]string, len(files)+1)
	if g.opts.SummaryPath != "" {
		abs, err := filepath.Abs(g.opts.SummaryPath)
		if err != nil {
			return nil, fmt.Errorf("resolve summary path: %w", err)
		}
		owners[abs] = ""
	}

	claims := make(map[string]string, len(files))
	for _, f := range files {
		if !g.sized(f) {
			continue
		}
		abs, err := filepath.Abs(discovery.DocPath(g.opts.OutputDir, f.RelPath))
		if err != nil {
			return nil, fmt.Errorf("resolve doc path of %s: %w", f.RelPath, err)
		}
		owner, taken := owners[abs]
		if !taken {
			owners[abs] = f.RelPath
			owner = f.RelPath
		}
		claims[f.RelPath] = owner
	}
	return claims, nil
}

func collision(docPath, owner string) error {
	if owner == "" {
		return fmt.Errorf("%w: %s is the run summary", ErrDocPathCollision, docPath)
	}
	return fmt.Errorf("%w: %s is generated from %s", ErrDocPathCollision, docPath, owner)
}

func (g *Generator) sized(f discovery.SourceFile) bool {
	return f.Size >= g.opts.MinBytes && f.Size <= g.opts.MaxBytes
}

// screen applies the size limits. A dry run reports oversized files as
// skipped.
func (g *Generator) screen(f discovery.SourceFile) (report.Result, bool) {
	switch {
	case f.Size < g.opts.MinBytes:
		return report.Skip(f.RelPath, ReasonTooSmall), false
	case f.Size > g.opts.MaxBytes:
		err := fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, f.Size, g.opts.MaxBytes)
		if g.opts.DryRun {
			return report.Skip(f.RelPath, err.Error()), false
		}
		return report.Failure(f.RelPath, err), false
	}
	return report.Result{}, true
}

// process handles one stale file within the size limits. It returns a
// non-nil error only when the whole run must stop.
func (g *Generator) process(ctx context.Context, summary *report.Summary, f discovery.SourceFile, docPath string) error {
	if g.opts.DryRun {
		g.logger.Info("would document", "file", f.RelPath, "doc", docPath)
		summary.Add(report.Skip(f.RelPath, ReasonDryRun))
		return nil
	}

	content, err := os.ReadFile(f.AbsPath)
	if err != nil {
		g.record(summary, report.Failure(f.RelPath, fmt.Errorf("read source: %w", err)))
		return nil
	}

	msgs, err := g.catalog.Build(g.opts.DocType, f.RelPath, prompt.Language(f.RelPath), string(content))
	if err != nil {
		g.record(summary, report.Failure(f.RelPath, err))
		return nil
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}

	temperature := g.opts.Temperature
	g.logger.Info("generating", "file", f.RelPath)
	body, err := g.completer.Complete(ctx, llm.Request{
		Messages:    msgs,
		MaxTokens:   g.opts.MaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		g.record(summary, report.Failure(f.RelPath, err))
		if llm.IsFatal(err) {
			return issue.NewErrorContext().
				WithOperation("call chat-completion API").
				WithResource(f.RelPath).
				WithSuggestion("Check AZURE_OPENAI_API_KEY and AZURE_OPENAI_ENDPOINT").
				WithSuggestion("Check that AZURE_OPENAI_DEPLOYMENT_NAME names an existing deployment").
				WithIssue(issue.CredentialsRejectedId).
				Wrap(err).
				BuildError()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	}
	if strings.TrimSpace(body) == "" {
		g.record(summary, report.Failure(f.RelPath, llm.ErrEmptyResponse))
		return nil
	}

	if err := g.writeDoc(docPath, f.RelPath, body); err != nil {
		g.record(summary, report.Failure(f.RelPath, err))
		return nil
	}
	g.record(summary, report.Success(f.RelPath, docPath))
	return nil
}

func (g *Generator) changeSet(ctx context.Context) (changes.ChangeSet, error) {
	if g.opts.All {
		return changes.ChangeSet{All: true}, nil
	}
	cs, err := g.detector.Changed(ctx)
	switch {
	case err == nil:
		if !cs.All {
			g.logger.Info("detected changes", "base", cs.Base, "head", cs.Head, "changed", cs.Len())
		}
		return cs, nil
	case errors.Is(err, changes.ErrNoRepository):
		g.logger.Warn("no git repository, treating every file as changed", "err", err)
		return changes.ChangeSet{All: true}, nil
	default:
		return changes.ChangeSet{}, issue.WrapWithContext(err, "detect changed files", g.opts.Root)
	}
}

func (g *Generator) stale(changed changes.ChangeSet, rel, docPath string) bool {
	if changed.Contains(rel) {
		return true
	}
	_, err := os.Stat(docPath)
	return errors.Is(err, os.ErrNotExist)
}

func (g *Generator) record(summary *report.Summary, r report.Result) {
	summary.Add(r)
	switch r.Status {
	case report.StatusSucceeded:
		g.logger.Info("documented", "file", r.File, "doc", r.DocPath)
	case report.StatusFailed:
		g.logger.Error("failed", "file", r.File, "err", r.Error)
	case report.StatusSkipped:
		g.logger.Warn("skipped", "file", r.File, "reason", r.Error)
	}
}

func (g *Generator) writeDoc(docPath, rel, body string) error {
	if err := os.MkdirAll(filepath.Dir(docPath), 0o755); err != nil {
		return fmt.Errorf("create doc directory: %w", err)
	}
	var b strings.Builder
	b.WriteString(Header(rel, g.opts.DocType, g.now()))
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n")
	if err := os.WriteFile(docPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write doc: %w", err)
	}
	return nil
}

func (g *Generator) abort(summary *report.Summary, cause error) (*report.Summary, error) {
	summary.Aborted = cause.Error()
	g.logger.Error("aborting run", "err", cause)
	if err := g.writeSummary(summary); err != nil {
		g.logger.Error("writing partial summary", "err", err)
	}
	return summary, fmt.Errorf("%w: %w", ErrAborted, cause)
}

func (g *Generator) writeSummary(summary *report.Summary) error {
	if g.opts.DryRun || g.opts.SummaryPath == "" {
		return nil
	}
	if err := report.WriteMarkdown(summary, g.opts.SummaryPath); err != nil {
		return err
	}
	g.logger.Info("wrote summary", "path", g.opts.SummaryPath)
	return nil
}

// Header is the preamble written above the model output of each document.
func Header(rel, docType string, at time.Time) string {
	return fmt.Sprintf("<!-- Generated by autodoc from %s. Edit the source, then regenerate. -->\n\n"+
		"> **Source:** `%s`  \n> **Documentation type:** %s  \n> **Generated:** %s\n\n",
		rel, rel, docType, at.UTC().Format(time.RFC3339))
}
