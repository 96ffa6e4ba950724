// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"autodoc-cli/internal/gitsync"
)

type syncFlags struct {
	dir      string
	upstream string
	origin   string
	branch   string
	dryRun   bool
}

func newSyncCommand(app *App, root *rootFlags) *cobra.Command {
	flags := &syncFlags{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch and merge the upstream branch, then push it to origin",
		Long: `Fetch and merge the upstream branch, then push it to origin.

Runs, in the repository directory:
  git fetch <upstream>
  git merge <upstream>/<branch>
  git push <origin> <branch>

The first failing command stops the sequence. Failures are reported but do
not change the exit status.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, app, root, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.dir, "dir", "", "repository directory (default from sync.dir, else the working directory)")
	f.StringVar(&flags.upstream, "upstream", "", "remote to fetch and merge from (default from sync.upstream)")
	f.StringVar(&flags.origin, "origin", "", "remote to push to (default from sync.origin)")
	f.StringVar(&flags.branch, "branch", "", "branch to merge and push (default from sync.branch)")
	f.BoolVar(&flags.dryRun, "dry-run", false, "print the commands without running them")

	return cmd
}

func runSync(cmd *cobra.Command, app *App, root *rootFlags, flags *syncFlags) error {
	ctx := cmd.Context()

	cfg, err := app.loadConfig(ctx, root.configPath)
	if err != nil {
		return app.fail(cmd, err, root.verbose)
	}

	f := cmd.Flags()
	if f.Changed("dir") {
		cfg.Sync.Dir = flags.dir
	}
	if f.Changed("upstream") {
		cfg.Sync.Upstream = flags.upstream
	}
	if f.Changed("origin") {
		cfg.Sync.Origin = flags.origin
	}
	if f.Changed("branch") {
		cfg.Sync.Branch = flags.branch
	}

	syncer := &gitsync.Syncer{
		Dir:            cfg.Sync.Dir,
		Upstream:       cfg.Sync.Upstream,
		Origin:         cfg.Sync.Origin,
		Branch:         cfg.Sync.Branch,
		Stdout:         app.stdout,
		Stderr:         app.stderr,
		ExecMiddleware: app.SyncMiddleware,
		Logger:         newLogger(app.stderr, cfg.Log.Level, root.verbose),
	}

	if flags.dryRun {
		for _, step := range syncer.Steps() {
			fmt.Fprintln(app.stdout, CmdStyle.Render(step.String()))
		}
		return nil
	}

	// Sync errors are printed; the exit status stays zero.
	if err := syncer.Sync(ctx); err != nil {
		var stepErr *gitsync.StepError
		if errors.As(err, &stepErr) {
			fmt.Fprintf(app.stderr, "%s %s\n", ErrorStyle.Render("Sync failed:"), stepErr.Error())
		} else {
			fmt.Fprintf(app.stderr, "%s %s\n", ErrorStyle.Render("Sync failed:"), formatErrorForDisplay(err, root.verbose))
		}
		if root.verbose {
			app.renderIssueHint(err)
		}
		return nil
	}

	fmt.Fprintln(app.stdout, SuccessStyle.Render("✓")+" Synced "+CmdStyle.Render(cfg.Sync.Upstream+"/"+cfg.Sync.Branch)+" into "+CmdStyle.Render(cfg.Sync.Origin))
	return nil
}
