// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlags are the persistent flags shared by every subcommand.
type rootFlags struct {
	configPath string
	verbose    bool
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "autodoc",
		Short: "Generate Markdown documentation for source files with an LLM",
		Long: TitleStyle.Render("autodoc") + SubtitleStyle.Render(" - LLM-written documentation for changed source files") + `

autodoc scans a source tree, picks the files that changed since the previous
commit (or have no documentation yet), asks a chat-completion deployment to
document each one, and writes the Markdown into a mirrored docs directory.

` + SubtitleStyle.Render("Credentials:") + `
  AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_API_KEY, AZURE_OPENAI_DEPLOYMENT_NAME

` + SubtitleStyle.Render("Examples:") + `
  autodoc generate                    Document files changed since HEAD~1
  autodoc generate --all --type api   Regenerate API docs for every file
  autodoc generate --dry-run          List stale files without calling the API
  autodoc summary                     Show the last run summary
  autodoc sync                        Fetch, merge and push from upstream`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ./autodoc.cue, then the user config dir)")

	rootCmd.AddCommand(
		newGenerateCommand(app, flags),
		newSyncCommand(app, flags),
		newSummaryCommand(app, flags),
		newConfigCommand(app, flags),
		newTypesCommand(app, flags),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the command tree and runs it. This is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(ExitFailure)
	}

	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitFailure)
	}
}
