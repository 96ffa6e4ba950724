// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"autodoc-cli/internal/issue"
)

func newSummaryCommand(app *App, root *rootFlags) *cobra.Command {
	var style string

	cmd := &cobra.Command{
		Use:   "summary [path]",
		Short: "Render the summary of the last documentation run",
		Long: `Render the summary of the last documentation run.

Without a path, the summary file configured by output.dir and output.summary
is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				cfg, err := app.loadConfig(cmd.Context(), root.configPath)
				if err != nil {
					return app.fail(cmd, err, root.verbose)
				}
				path = cfg.Output.SummaryPath()
			}

			data, err := os.ReadFile(path)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					err = issue.NewErrorContext().
						WithOperation("read run summary").
						WithResource(path).
						WithSuggestion("Run 'autodoc generate' first").
						Wrap(err).
						BuildError()
				}
				return app.fail(cmd, err, root.verbose)
			}

			rendered, err := glamour.Render(string(data), style)
			if err != nil {
				return app.fail(cmd, fmt.Errorf("render summary: %w", err), root.verbose)
			}
			fmt.Fprint(app.stdout, rendered)
			return nil
		},
	}

	cmd.Flags().StringVar(&style, "style", "dark", "glamour style (dark, light, notty, ...)")
	return cmd
}
