// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"autodoc-cli/internal/issue"
	"autodoc-cli/internal/testutil"

	"github.com/google/go-cmp/cmp"
)

// envMap returns a LookupEnv func backed by m.
func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// isolatedOptions points every lookup at fresh temp dirs with an empty environment.
func isolatedOptions(t *testing.T, env map[string]string) LoadOptions {
	t.Helper()
	return LoadOptions{
		ConfigDirPath: t.TempDir(),
		WorkDir:       t.TempDir(),
		LookupEnv:     envMap(env),
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Docs.Type != "technical" {
		t.Errorf("expected default doc type technical, got %s", cfg.Docs.Type)
	}
	if cfg.Limits.MinBytes != 50 || cfg.Limits.MaxBytes != 100_000 {
		t.Errorf("unexpected size limits: %+v", cfg.Limits)
	}
	if cfg.Limits.MaxTokens != 4000 {
		t.Errorf("expected max tokens 4000, got %d", cfg.Limits.MaxTokens)
	}
	if cfg.Limits.RequestDelay != time.Second {
		t.Errorf("expected request delay 1s, got %s", cfg.Limits.RequestDelay)
	}
	if cfg.Output.SummaryPath() != filepath.Join("docs/generated", "DOCUMENTATION_SUMMARY.md") {
		t.Errorf("unexpected summary path %q", cfg.Output.SummaryPath())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, path, err := loadWithOptions(context.Background(), isolatedOptions(t, nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if path != "" {
		t.Errorf("expected no config file, got %q", path)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	opts := isolatedOptions(t, map[string]string{
		EnvEndpoint:                    "https://example.openai.azure.com",
		EnvAPIKey:                      "secret",
		EnvDeployment:                  "gpt-4o",
		EnvDocType:                     "api",
		"AUTODOC_SOURCE_INCLUDE":       "**/*.go, **/*.py,",
		"AUTODOC_LIMITS_MAX_TOKENS":    "2048",
		"AUTODOC_LIMITS_REQUEST_DELAY": "250ms",
	})

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.API.Endpoint != "https://example.openai.azure.com" || cfg.API.Key != "secret" || cfg.API.Deployment != "gpt-4o" {
		t.Errorf("credentials not bound: %+v", cfg.API)
	}
	if cfg.Docs.Type != "api" {
		t.Errorf("DOC_TYPE not bound, got %q", cfg.Docs.Type)
	}
	if diff := cmp.Diff([]string{"**/*.go", "**/*.py"}, cfg.Source.Include); diff != "" {
		t.Errorf("include mismatch (-want +got):\n%s", diff)
	}
	if cfg.Limits.MaxTokens != 2048 {
		t.Errorf("max tokens = %d, want 2048", cfg.Limits.MaxTokens)
	}
	if cfg.Limits.RequestDelay != 250*time.Millisecond {
		t.Errorf("request delay = %s, want 250ms", cfg.Limits.RequestDelay)
	}
	if err := cfg.API.Validate(); err != nil {
		t.Errorf("credentials should validate: %v", err)
	}
}

func TestLoad_LocalFileAndEnvPrecedence(t *testing.T) {
	opts := isolatedOptions(t, map[string]string{EnvDocType: "overview"})
	testutil.MustWriteFile(t, filepath.Join(opts.WorkDir, LocalConfigFileName), `
api: deployment: "from-file"
docs: type: "user"
source: exclude: ["legacy/**"]
limits: {
	min_bytes: 10
	request_delay: "2s"
}
`)

	cfg, path, err := loadWithOptions(context.Background(), opts)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if path != filepath.Join(opts.WorkDir, LocalConfigFileName) {
		t.Errorf("resolved path = %q", path)
	}
	if cfg.API.Deployment != "from-file" {
		t.Errorf("deployment = %q, want from-file", cfg.API.Deployment)
	}
	if cfg.Docs.Type != "overview" {
		t.Errorf("environment should win over the file, got %q", cfg.Docs.Type)
	}
	if diff := cmp.Diff([]string{"legacy/**"}, cfg.Source.Exclude); diff != "" {
		t.Errorf("exclude mismatch (-want +got):\n%s", diff)
	}
	if cfg.Limits.MinBytes != 10 || cfg.Limits.RequestDelay != 2*time.Second {
		t.Errorf("limits not merged: %+v", cfg.Limits)
	}
	if cfg.Limits.MaxBytes != 100_000 {
		t.Errorf("unset keys should keep defaults, max_bytes = %d", cfg.Limits.MaxBytes)
	}
}

func TestLoad_UserConfigDir(t *testing.T) {
	opts := isolatedOptions(t, nil)
	testutil.MustWriteFile(t, filepath.Join(opts.ConfigDirPath, "config.cue"), `output: dir: "site/docs"`)

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Output.Dir != "site/docs" {
		t.Errorf("output dir = %q, want site/docs", cfg.Output.Dir)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "syntax error", content: `api: {`},
		{name: "schema violation", content: `limits: max_tokens: 0`},
		{name: "unknown field", content: `colour: "blue"`},
		{name: "bad log level", content: `log: level: "loud"`},
		{name: "inconsistent limits", content: `limits: {min_bytes: 500, max_bytes: 100}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := isolatedOptions(t, nil)
			opts.ConfigFilePath = filepath.Join(t.TempDir(), "custom.cue")
			testutil.MustWriteFile(t, opts.ConfigFilePath, tt.content)

			_, err := NewProvider().Load(context.Background(), opts)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := issue.IssueOf(err); got == nil || got.Id() != issue.ConfigLoadFailedId {
				t.Errorf("error should link the config issue page, got %v", err)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	opts := isolatedOptions(t, nil)
	opts.ConfigFilePath = filepath.Join(t.TempDir(), "nope.cue")

	_, err := NewProvider().Load(context.Background(), opts)
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("expected ActionableError, got %v", err)
	}
	if ae.Resource != opts.ConfigFilePath {
		t.Errorf("resource = %q, want %q", ae.Resource, opts.ConfigFilePath)
	}
}

func TestLoad_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewProvider().Load(ctx, isolatedOptions(t, nil)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	opts := isolatedOptions(t, nil)
	opts.ConfigFilePath = filepath.Join(t.TempDir(), "config.cue")

	written, err := CreateDefaultConfig(opts.ConfigFilePath)
	if err != nil || !written {
		t.Fatalf("CreateDefaultConfig() = %v, %v", written, err)
	}

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("load generated config: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	written, err = CreateDefaultConfig(opts.ConfigFilePath)
	if err != nil || written {
		t.Errorf("second CreateDefaultConfig() = %v, %v; want false, nil", written, err)
	}
}

func TestGenerateCUE_OmitsKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.Key = "super-secret"
	cfg.API.Endpoint = "https://x"

	out := GenerateCUE(cfg)
	if strings.Contains(out, "super-secret") {
		t.Error("GenerateCUE must not write the API key")
	}
	if !strings.Contains(out, `endpoint: "https://x"`) {
		t.Errorf("GenerateCUE should write the endpoint:\n%s", out)
	}
}

func TestConfigDir_EnvOverride(t *testing.T) {
	t.Setenv(EnvConfigDir, "/tmp/autodoc-test")

	dir, err := ConfigDir()
	if err != nil || dir != "/tmp/autodoc-test" {
		t.Errorf("ConfigDir() = %q, %v", dir, err)
	}
	path, err := DefaultConfigPath()
	if err != nil || path != filepath.Join("/tmp/autodoc-test", "config.cue") {
		t.Errorf("DefaultConfigPath() = %q, %v", path, err)
	}
}
