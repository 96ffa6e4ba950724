// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestAPIConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		cfg         APIConfig
		wantMissing []string
	}{
		{
			name: "complete",
			cfg:  APIConfig{Endpoint: "https://x", Key: "k", Deployment: "d"},
		},
		{
			name:        "all missing",
			cfg:         APIConfig{},
			wantMissing: []string{EnvEndpoint, EnvAPIKey, EnvDeployment},
		},
		{
			name:        "whitespace key",
			cfg:         APIConfig{Endpoint: "https://x", Key: "  ", Deployment: "d"},
			wantMissing: []string{EnvAPIKey},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if len(tt.wantMissing) == 0 {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, ErrMissingCredentials) {
				t.Fatalf("Validate() = %v, want ErrMissingCredentials", err)
			}
			var mce *MissingCredentialsError
			if !errors.As(err, &mce) {
				t.Fatalf("expected *MissingCredentialsError, got %T", err)
			}
			if len(mce.Missing) != len(tt.wantMissing) {
				t.Fatalf("Missing = %v, want %v", mce.Missing, tt.wantMissing)
			}
			for i := range mce.Missing {
				if mce.Missing[i] != tt.wantMissing[i] {
					t.Errorf("Missing[%d] = %q, want %q", i, mce.Missing[i], tt.wantMissing[i])
				}
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "min above max", mutate: func(c *Config) { c.Limits.MinBytes = 10; c.Limits.MaxBytes = 5 }, wantErr: ErrInvalidLimits},
		{name: "zero max bytes", mutate: func(c *Config) { c.Limits.MaxBytes = 0 }, wantErr: ErrInvalidLimits},
		{name: "zero tokens", mutate: func(c *Config) { c.Limits.MaxTokens = 0 }, wantErr: ErrInvalidLimits},
		{name: "negative delay", mutate: func(c *Config) { c.Limits.RequestDelay = -time.Second }, wantErr: ErrInvalidLimits},
		{name: "zero delay allowed", mutate: func(c *Config) { c.Limits.RequestDelay = 0 }},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "verbose" }, wantErr: ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestOutputConfig_SummaryPath(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "summary.md")

	tests := []struct {
		out  OutputConfig
		want string
	}{
		{OutputConfig{Dir: "docs", Summary: "SUMMARY.md"}, filepath.Join("docs", "SUMMARY.md")},
		{OutputConfig{Dir: "docs", Summary: abs}, abs},
		{OutputConfig{Dir: "docs"}, ""},
	}

	for _, tt := range tests {
		if got := tt.out.SummaryPath(); got != tt.want {
			t.Errorf("SummaryPath(%+v) = %q, want %q", tt.out, got, tt.want)
		}
	}
}
