// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/interp"

	"autodoc-cli/internal/config"
	"autodoc-cli/internal/generator"
	"autodoc-cli/internal/issue"
	"autodoc-cli/internal/llm"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives an App and reaches configuration, the API client and the output
	// streams through it.
	App struct {
		Config         config.Provider
		NewCompleter   CompleterFactory
		SyncMiddleware func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc
		LoadOptions    config.LoadOptions
		stdout         io.Writer
		stderr         io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config       config.Provider
		NewCompleter CompleterFactory
		// SyncMiddleware intercepts commands run by `autodoc sync`.
		SyncMiddleware func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc
		// LoadOptions are the base options for every config load; the --config
		// flag fills ConfigFilePath.
		LoadOptions config.LoadOptions
		Stdout      io.Writer
		Stderr      io.Writer
	}

	// CompleterFactory builds the chat-completion client for a run.
	CompleterFactory func(api config.APIConfig, logger *log.Logger) (generator.Completer, error)
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.NewCompleter == nil {
		deps.NewCompleter = newLLMCompleter
	}

	return &App{
		Config:         deps.Config,
		NewCompleter:   deps.NewCompleter,
		SyncMiddleware: deps.SyncMiddleware,
		LoadOptions:    deps.LoadOptions,
		stdout:         deps.Stdout,
		stderr:         deps.Stderr,
	}, nil
}

// loadConfig loads configuration, honoring an explicit --config path.
func (a *App) loadConfig(ctx context.Context, configPath string) (*config.Config, error) {
	opts := a.LoadOptions
	if configPath != "" {
		opts.ConfigFilePath = configPath
	}
	return a.Config.Load(ctx, opts)
}

// configPath resolves which file loadConfig reads, or "" for defaults only.
func (a *App) configPath(configPath string) (string, error) {
	opts := a.LoadOptions
	if configPath != "" {
		opts.ConfigFilePath = configPath
	}
	return config.ResolveConfigPath(opts)
}

func newLLMCompleter(api config.APIConfig, logger *log.Logger) (generator.Completer, error) {
	if err := api.Validate(); err != nil {
		return nil, credentialsError(err)
	}
	return llm.New(api.Endpoint, api.Deployment, api.Key,
		llm.WithAPIVersion(api.Version),
		llm.WithTimeout(api.Timeout),
		llm.WithLogger(logger),
	)
}

func credentialsError(err error) error {
	var missing *config.MissingCredentialsError
	if !errors.As(err, &missing) {
		return err
	}
	ctx := issue.NewErrorContext().
		WithOperation("configure chat-completion API").
		WithIssue(issue.MissingCredentialsId).
		Wrap(err)
	for _, name := range missing.Missing {
		ctx.WithSuggestion(fmt.Sprintf("Set %s", name))
	}
	return ctx.WithSuggestion("Or set the api block in autodoc.cue ('autodoc config init')").BuildError()
}

// formatErrorForDisplay formats an error for user display. ActionableErrors use
// their own layout; verbose mode shows the full chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// renderIssueHint prints the catalog page linked to err, if any.
func (a *App) renderIssueHint(err error) {
	page := issue.IssueOf(err)
	if page == nil {
		return
	}
	rendered, renderErr := page.Render("dark")
	if renderErr != nil {
		return
	}
	fmt.Fprint(a.stderr, rendered)
}
