// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	// LogLevelDebug enables per-request diagnostics.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs one line per processed file.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs skips and failures only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs failures only.
	LogLevelError LogLevel = "error"
)

var (
	// ErrMissingCredentials is wrapped when endpoint, key or deployment is empty.
	ErrMissingCredentials = errors.New("missing API credentials")
	// ErrInvalidLimits is wrapped when the size or token limits are inconsistent.
	ErrInvalidLimits = errors.New("invalid limits")
	// ErrInvalidLogLevel is wrapped when log.level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
)

type (
	// LogLevel selects the charmbracelet/log level.
	LogLevel string

	// MissingCredentialsError lists the unset credential settings by env var name.
	MissingCredentialsError struct {
		Missing []string
	}

	// Config holds the application configuration.
	Config struct {
		API    APIConfig    `json:"api" mapstructure:"api"`
		Docs   DocsConfig   `json:"docs" mapstructure:"docs"`
		Source SourceConfig `json:"source" mapstructure:"source"`
		Output OutputConfig `json:"output" mapstructure:"output"`
		Limits LimitsConfig `json:"limits" mapstructure:"limits"`
		Sync   SyncConfig   `json:"sync" mapstructure:"sync"`
		Log    LogConfig    `json:"log" mapstructure:"log"`
	}

	// APIConfig addresses the chat-completion deployment.
	APIConfig struct {
		Endpoint    string        `json:"endpoint" mapstructure:"endpoint"`
		Key         string        `json:"-" mapstructure:"key"`
		Deployment  string        `json:"deployment" mapstructure:"deployment"`
		Version     string        `json:"version" mapstructure:"version"`
		Timeout     time.Duration `json:"timeout" mapstructure:"timeout"`
		Temperature float64       `json:"temperature" mapstructure:"temperature"`
	}

	// DocsConfig selects the documentation type and optional prompt overrides.
	DocsConfig struct {
		Type        string `json:"type" mapstructure:"type"`
		PromptsFile string `json:"prompts_file" mapstructure:"prompts_file"`
	}

	// SourceConfig selects the files to document.
	SourceConfig struct {
		Root    string   `json:"root" mapstructure:"root"`
		Include []string `json:"include" mapstructure:"include"`
		Exclude []string `json:"exclude" mapstructure:"exclude"`
	}

	// OutputConfig places the generated tree and the summary file.
	OutputConfig struct {
		Dir string `json:"dir" mapstructure:"dir"`
		// Summary is relative to Dir unless absolute.
		Summary string `json:"summary" mapstructure:"summary"`
	}

	// LimitsConfig holds the per-file size bounds and request pacing.
	LimitsConfig struct {
		MinBytes     int64         `json:"min_bytes" mapstructure:"min_bytes"`
		MaxBytes     int64         `json:"max_bytes" mapstructure:"max_bytes"`
		MaxTokens    int           `json:"max_tokens" mapstructure:"max_tokens"`
		RequestDelay time.Duration `json:"request_delay" mapstructure:"request_delay"`
	}

	// SyncConfig names the remotes and branch used by `autodoc sync`.
	SyncConfig struct {
		Dir      string `json:"dir" mapstructure:"dir"`
		Upstream string `json:"upstream" mapstructure:"upstream"`
		Origin   string `json:"origin" mapstructure:"origin"`
		Branch   string `json:"branch" mapstructure:"branch"`
	}

	// LogConfig configures logging.
	LogConfig struct {
		Level LogLevel `json:"level" mapstructure:"level"`
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Version:     "2024-02-15-preview",
			Timeout:     120 * time.Second,
			Temperature: 0.3,
		},
		Docs: DocsConfig{
			Type: "technical",
		},
		Source: SourceConfig{
			Root: ".",
			Include: []string{
				"**/*.go", "**/*.py", "**/*.js", "**/*.ts",
				"**/*.java", "**/*.cs", "**/*.rb", "**/*.rs",
			},
			Exclude: []string{
				"**/node_modules/**", "**/vendor/**", "**/.git/**",
				"**/dist/**", "**/build/**", "**/*_test.go", "**/*.min.js",
			},
		},
		Output: OutputConfig{
			Dir:     "docs/generated",
			Summary: "DOCUMENTATION_SUMMARY.md",
		},
		Limits: LimitsConfig{
			MinBytes:     50,
			MaxBytes:     100_000,
			MaxTokens:    4000,
			RequestDelay: time.Second,
		},
		Sync: SyncConfig{
			Upstream: "upstream",
			Origin:   "origin",
			Branch:   "main",
		},
		Log: LogConfig{
			Level: LogLevelInfo,
		},
	}
}

// Validate checks the settings every command relies on. Credentials are
// checked separately by APIConfig.Validate because only generation needs them.
func (c *Config) Validate() error {
	if c.Limits.MinBytes < 0 || c.Limits.MaxBytes <= 0 || c.Limits.MinBytes > c.Limits.MaxBytes {
		return fmt.Errorf("%w: min_bytes=%d max_bytes=%d", ErrInvalidLimits, c.Limits.MinBytes, c.Limits.MaxBytes)
	}
	if c.Limits.MaxTokens <= 0 {
		return fmt.Errorf("%w: max_tokens must be positive, got %d", ErrInvalidLimits, c.Limits.MaxTokens)
	}
	if c.Limits.RequestDelay < 0 {
		return fmt.Errorf("%w: request_delay must not be negative", ErrInvalidLimits)
	}
	return c.Log.Level.Validate()
}

// Validate reports which credential settings are unset.
func (a APIConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(a.Endpoint) == "" {
		missing = append(missing, EnvEndpoint)
	}
	if strings.TrimSpace(a.Key) == "" {
		missing = append(missing, EnvAPIKey)
	}
	if strings.TrimSpace(a.Deployment) == "" {
		missing = append(missing, EnvDeployment)
	}
	if len(missing) > 0 {
		return &MissingCredentialsError{Missing: missing}
	}
	return nil
}

// SummaryPath resolves the summary file against the output directory.
func (o OutputConfig) SummaryPath() string {
	if o.Summary == "" || filepath.IsAbs(o.Summary) {
		return o.Summary
	}
	return filepath.Join(o.Dir, o.Summary)
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("missing API credentials: %s", strings.Join(e.Missing, ", "))
}

// Unwrap returns ErrMissingCredentials for errors.Is() compatibility.
func (e *MissingCredentialsError) Unwrap() error { return ErrMissingCredentials }

// Validate returns an error if the level is not recognized.
func (l LogLevel) Validate() error {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, string(l))
	}
}
