// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"autodoc-cli/internal/issue"
	"autodoc-cli/internal/prompt"
)

func newTypesCommand(app *App, root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the available documentation types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context(), root.configPath)
			if err != nil {
				return app.fail(cmd, err, root.verbose)
			}
			catalog, err := prompt.Load(cfg.Docs.PromptsFile)
			if err != nil {
				return app.fail(cmd, issue.WrapWithContext(err, "load prompt catalog", cfg.Docs.PromptsFile), root.verbose)
			}

			fmt.Fprintln(app.stdout, TitleStyle.Render("Documentation types"))
			for _, name := range catalog.Types() {
				t, _ := catalog.Lookup(name)
				marker := " "
				if name == cfg.Docs.Type {
					marker = SuccessStyle.Render("*")
				}
				fmt.Fprintf(app.stdout, "%s %s  %s\n", marker, CmdStyle.Render(fmt.Sprintf("%-10s", name)), SubtitleStyle.Render(t.Description))
			}
			return nil
		},
	}
}
