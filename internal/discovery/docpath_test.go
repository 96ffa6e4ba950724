// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"path/filepath"
	"testing"
)

func TestDocRelPath(t *testing.T) {
	tests := []struct {
		rel  string
		want string
	}{
		{"main.go", "main.md"},
		{"internal/api/handler.py", "internal/api/handler.md"},
		{"web/app.component.ts", "web/app.component.md"},
		{"Makefile", "Makefile.md"},
		{"config/.env", "config/.env.md"},
		{"v1.2/tool", "v1.2/tool.md"},
	}

	for _, tt := range tests {
		if got := DocRelPath(tt.rel); got != tt.want {
			t.Errorf("DocRelPath(%q) = %q, want %q", tt.rel, got, tt.want)
		}
	}
}

func TestDocPath(t *testing.T) {
	got := DocPath(filepath.Join("docs", "generated"), "internal/api/handler.go")
	want := filepath.Join("docs", "generated", "internal", "api", "handler.md")
	if got != want {
		t.Errorf("DocPath() = %q, want %q", got, want)
	}
}
