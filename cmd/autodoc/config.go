// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"autodoc-cli/internal/config"
	"autodoc-cli/internal/discovery"
)

// newConfigCommand creates the `autodoc config` command tree.
func newConfigCommand(app *App, root *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage autodoc configuration",
		Long: `Manage autodoc configuration.

Configuration is read, in increasing priority, from built-in defaults,
a CUE file (--config, else ./autodoc.cue, else the user config file),
environment variables and command flags.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context(), root.configPath)
			if err != nil {
				return app.fail(cmd, err, root.verbose)
			}
			path, _ := app.configPath(root.configPath)
			showConfig(app.stdout, cfg, path)
			return nil
		},
	})

	var userLevel bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := app.initPath(root.configPath, userLevel)
			if err != nil {
				return app.fail(cmd, err, root.verbose)
			}
			created, err := config.CreateDefaultConfig(path)
			if err != nil {
				return app.fail(cmd, err, root.verbose)
			}
			if !created {
				fmt.Fprintf(app.stdout, "%s %s already exists\n", WarningStyle.Render("!"), CmdStyle.Render(path))
				return nil
			}
			fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(path))
			return nil
		},
	}
	initCmd.Flags().BoolVar(&userLevel, "user", false, "write the per-user config file instead of ./autodoc.cue")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			active, err := app.configPath(root.configPath)
			if err != nil {
				return app.fail(cmd, err, root.verbose)
			}
			userPath, err := app.userConfigPath()
			if err != nil {
				return app.fail(cmd, err, root.verbose)
			}
			fmt.Fprintf(app.stdout, "User config file: %s\n", userPath)
			fmt.Fprintf(app.stdout, "Project config file: %s\n", app.localConfigPath())
			if active == "" {
				active = "(none, using defaults)"
			}
			fmt.Fprintf(app.stdout, "Active: %s\n", active)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context(), root.configPath)
			if err != nil {
				return app.fail(cmd, err, root.verbose)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config, path string) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	kv := func(key string, value any) {
		fmt.Fprintf(w, "  %s: %s\n", keyStyle.Render(key), valueStyle.Render(fmt.Sprint(value)))
	}

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if path == "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), path)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, keyStyle.Render("api")+":")
	kv("endpoint", orUnset(cfg.API.Endpoint))
	kv("deployment", orUnset(cfg.API.Deployment))
	kv("key", maskSecret(cfg.API.Key))
	kv("version", cfg.API.Version)
	kv("timeout", cfg.API.Timeout)
	kv("temperature", cfg.API.Temperature)
	if err := cfg.API.Validate(); err != nil {
		fmt.Fprintf(w, "  %s\n", WarningStyle.Render(err.Error()))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, keyStyle.Render("docs")+":")
	kv("type", cfg.Docs.Type)
	kv("prompts_file", orUnset(cfg.Docs.PromptsFile))

	fmt.Fprintln(w)
	fmt.Fprintln(w, keyStyle.Render("source")+":")
	kv("root", cfg.Source.Root)
	kv("include", strings.Join(cfg.Source.Include, ", "))
	kv("exclude", strings.Join(cfg.Source.Exclude, ", "))
	if err := validPatterns(cfg); err != nil {
		fmt.Fprintf(w, "  %s\n", WarningStyle.Render(err.Error()))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, keyStyle.Render("output")+":")
	kv("dir", cfg.Output.Dir)
	kv("summary", cfg.Output.SummaryPath())

	fmt.Fprintln(w)
	fmt.Fprintln(w, keyStyle.Render("limits")+":")
	kv("min_bytes", cfg.Limits.MinBytes)
	kv("max_bytes", cfg.Limits.MaxBytes)
	kv("max_tokens", cfg.Limits.MaxTokens)
	kv("request_delay", cfg.Limits.RequestDelay)

	fmt.Fprintln(w)
	fmt.Fprintln(w, keyStyle.Render("sync")+":")
	kv("dir", orUnset(cfg.Sync.Dir))
	kv("upstream", cfg.Sync.Upstream)
	kv("origin", cfg.Sync.Origin)
	kv("branch", cfg.Sync.Branch)

	fmt.Fprintln(w)
	fmt.Fprintln(w, keyStyle.Render("log")+":")
	kv("level", cfg.Log.Level)
}

func validPatterns(cfg *config.Config) error {
	if err := discovery.ValidatePatterns(cfg.Source.Include); err != nil {
		return err
	}
	return discovery.ValidatePatterns(cfg.Source.Exclude)
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}

// maskSecret keeps the last four characters of a key.
func maskSecret(s string) string {
	switch {
	case s == "":
		return "(unset)"
	case len(s) <= 4:
		return "****"
	default:
		return "****" + s[len(s)-4:]
	}
}

func (a *App) localConfigPath() string {
	workDir := a.LoadOptions.WorkDir
	if workDir == "" {
		workDir = "."
	}
	return filepath.Join(workDir, config.LocalConfigFileName)
}

func (a *App) userConfigPath() (string, error) {
	if a.LoadOptions.ConfigDirPath != "" {
		return filepath.Join(a.LoadOptions.ConfigDirPath, config.ConfigFileName+"."+config.ConfigFileExt), nil
	}
	return config.DefaultConfigPath()
}

// initPath picks the file `config init` writes: --config, the user file, or
// the project file.
func (a *App) initPath(explicit string, userLevel bool) (string, error) {
	switch {
	case explicit != "":
		return explicit, nil
	case userLevel:
		return a.userConfigPath()
	default:
		return a.localConfigPath(), nil
	}
}
