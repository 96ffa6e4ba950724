// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"autodoc-cli/internal/cueutil"
	"autodoc-cli/internal/issue"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "autodoc"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// LocalConfigFileName is the project-local config file looked up in the working directory.
	LocalConfigFileName = "autodoc.cue"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes generic environment overrides (AUTODOC_SOURCE_ROOT, ...).
	EnvPrefix = "AUTODOC"

	// EnvEndpoint holds the chat-completion resource endpoint.
	EnvEndpoint = "AZURE_OPENAI_ENDPOINT"
	// EnvAPIKey holds the API key.
	EnvAPIKey = "AZURE_OPENAI_API_KEY"
	// EnvDeployment holds the model deployment name.
	EnvDeployment = "AZURE_OPENAI_DEPLOYMENT_NAME"
	// EnvAPIVersion holds the API version query parameter.
	EnvAPIVersion = "AZURE_OPENAI_API_VERSION"
	// EnvDocType selects the documentation type.
	EnvDocType = "DOC_TYPE"
	// EnvConfigDir replaces the per-user config directory.
	EnvConfigDir = "AUTODOC_CONFIG_DIR"
)

//go:embed config_schema.cue
var configSchema string

// envBindings maps config keys to their well-known environment variables.
var envBindings = map[string]string{
	"api.endpoint":   EnvEndpoint,
	"api.key":        EnvAPIKey,
	"api.deployment": EnvDeployment,
	"api.version":    EnvAPIVersion,
	"docs.type":      EnvDocType,
}

// ConfigDir returns the autodoc configuration directory. $AUTODOC_CONFIG_DIR
// wins when set; otherwise it lives under %APPDATA% on Windows,
// ~/Library/Application Support on macOS and $XDG_CONFIG_HOME (defaulting
// to ~/.config) elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// DefaultConfigPath returns the per-user config file path.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// ResolveConfigPath returns the file Load would read for opts, or "" when
// only defaults and the environment apply.
func ResolveConfigPath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, nil
	}

	workDir := opts.WorkDir
	if workDir == "" {
		workDir = "."
	}
	if local := filepath.Join(workDir, LocalConfigFileName); fileExists(local) {
		return local, nil
	}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		var err error
		if cfgDir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	if userPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt); fileExists(userPath) {
		return userPath, nil
	}

	return "", nil
}

// loadWithOptions performs option-driven config loading and returns the
// resolved file path alongside the config.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper(opts.LookupEnv)

	resolvedPath, err := ResolveConfigPath(opts)
	if err != nil {
		return nil, "", err
	}

	if opts.ConfigFilePath != "" && !fileExists(opts.ConfigFilePath) {
		return nil, "", issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(opts.ConfigFilePath).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Run 'autodoc config init' to create a default file").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
			BuildError()
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the values match the schema shown by 'autodoc config dump'").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("min_bytes must not exceed max_bytes and max_tokens must be positive").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// newViper returns a viper instance with defaults and environment bindings.
// lookupEnv replaces os.LookupEnv when non-nil.
func newViper(lookupEnv func(string) (string, bool)) *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("api.endpoint", defaults.API.Endpoint)
	v.SetDefault("api.key", defaults.API.Key)
	v.SetDefault("api.deployment", defaults.API.Deployment)
	v.SetDefault("api.version", defaults.API.Version)
	v.SetDefault("api.timeout", defaults.API.Timeout)
	v.SetDefault("api.temperature", defaults.API.Temperature)
	v.SetDefault("docs.type", defaults.Docs.Type)
	v.SetDefault("docs.prompts_file", defaults.Docs.PromptsFile)
	v.SetDefault("source.root", defaults.Source.Root)
	v.SetDefault("source.include", defaults.Source.Include)
	v.SetDefault("source.exclude", defaults.Source.Exclude)
	v.SetDefault("output.dir", defaults.Output.Dir)
	v.SetDefault("output.summary", defaults.Output.Summary)
	v.SetDefault("limits.min_bytes", defaults.Limits.MinBytes)
	v.SetDefault("limits.max_bytes", defaults.Limits.MaxBytes)
	v.SetDefault("limits.max_tokens", defaults.Limits.MaxTokens)
	v.SetDefault("limits.request_delay", defaults.Limits.RequestDelay)
	v.SetDefault("sync.dir", defaults.Sync.Dir)
	v.SetDefault("sync.upstream", defaults.Sync.Upstream)
	v.SetDefault("sync.origin", defaults.Sync.Origin)
	v.SetDefault("sync.branch", defaults.Sync.Branch)
	v.SetDefault("log.level", string(defaults.Log.Level))

	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	// Environment values become overrides, so they win over the config file.
	for _, key := range v.AllKeys() {
		if name, ok := envBindings[key]; ok {
			if val, found := lookupEnv(name); found && val != "" {
				v.Set(key, val)
				continue
			}
		}
		generic := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if val, found := lookupEnv(generic); found && val != "" {
			v.Set(key, envValue(key, val))
		}
	}

	return v
}

// envValue splits list-valued keys on commas.
func envValue(key, val string) any {
	switch key {
	case "source.include", "source.exclude":
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return val
	}
}

// loadCUEIntoViper validates the CUE file against #Config and merges it into v.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := cueutil.DecodeMap(configSchema, "#Config", data, path)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default configuration to path unless a file
// already exists there. It reports whether a file was written.
func CreateDefaultConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}

	return true, nil
}

// GenerateCUE generates a CUE representation of the configuration. The API
// key is never written; it belongs in the environment.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// autodoc configuration file\n")
	sb.WriteString("// The API key is read from " + EnvAPIKey + ".\n\n")

	sb.WriteString("api: {\n")
	if cfg.API.Endpoint != "" {
		fmt.Fprintf(&sb, "\tendpoint: %q\n", cfg.API.Endpoint)
	}
	if cfg.API.Deployment != "" {
		fmt.Fprintf(&sb, "\tdeployment: %q\n", cfg.API.Deployment)
	}
	fmt.Fprintf(&sb, "\tversion: %q\n", cfg.API.Version)
	fmt.Fprintf(&sb, "\ttimeout: %q\n", cfg.API.Timeout.String())
	fmt.Fprintf(&sb, "\ttemperature: %v\n", cfg.API.Temperature)
	sb.WriteString("}\n")

	sb.WriteString("\ndocs: {\n")
	fmt.Fprintf(&sb, "\ttype: %q\n", cfg.Docs.Type)
	if cfg.Docs.PromptsFile != "" {
		fmt.Fprintf(&sb, "\tprompts_file: %q\n", cfg.Docs.PromptsFile)
	}
	sb.WriteString("}\n")

	sb.WriteString("\nsource: {\n")
	fmt.Fprintf(&sb, "\troot: %q\n", cfg.Source.Root)
	writeCUEList(&sb, "include", cfg.Source.Include)
	writeCUEList(&sb, "exclude", cfg.Source.Exclude)
	sb.WriteString("}\n")

	sb.WriteString("\noutput: {\n")
	fmt.Fprintf(&sb, "\tdir: %q\n", cfg.Output.Dir)
	fmt.Fprintf(&sb, "\tsummary: %q\n", cfg.Output.Summary)
	sb.WriteString("}\n")

	sb.WriteString("\nlimits: {\n")
	fmt.Fprintf(&sb, "\tmin_bytes: %d\n", cfg.Limits.MinBytes)
	fmt.Fprintf(&sb, "\tmax_bytes: %d\n", cfg.Limits.MaxBytes)
	fmt.Fprintf(&sb, "\tmax_tokens: %d\n", cfg.Limits.MaxTokens)
	fmt.Fprintf(&sb, "\trequest_delay: %q\n", cfg.Limits.RequestDelay.String())
	sb.WriteString("}\n")

	sb.WriteString("\nsync: {\n")
	if cfg.Sync.Dir != "" {
		fmt.Fprintf(&sb, "\tdir: %q\n", cfg.Sync.Dir)
	}
	fmt.Fprintf(&sb, "\tupstream: %q\n", cfg.Sync.Upstream)
	fmt.Fprintf(&sb, "\torigin: %q\n", cfg.Sync.Origin)
	fmt.Fprintf(&sb, "\tbranch: %q\n", cfg.Sync.Branch)
	sb.WriteString("}\n")

	sb.WriteString("\nlog: {\n")
	fmt.Fprintf(&sb, "\tlevel: %q\n", string(cfg.Log.Level))
	sb.WriteString("}\n")

	return sb.String()
}

func writeCUEList(sb *strings.Builder, name string, values []string) {
	if len(values) == 0 {
		fmt.Fprintf(sb, "\t%s: []\n", name)
		return
	}
	fmt.Fprintf(sb, "\t%s: [\n", name)
	for _, value := range values {
		fmt.Fprintf(sb, "\t\t%q,\n", value)
	}
	sb.WriteString("\t]\n")
}
