// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

const testSchema = `
#Config: {
	name?:  string
	limits?: {
		max?: int & >0
	}
	tags?: [...string]
}
`

func TestDecodeMap(t *testing.T) {
	t.Parallel()

	t.Run("valid document", func(t *testing.T) {
		t.Parallel()

		got, err := DecodeMap(testSchema, "#Config", []byte(`name: "x"
limits: max: 3
`), "test.cue")
		if err != nil {
			t.Fatalf("DecodeMap() error = %v", err)
		}
		if got["name"] != "x" {
			t.Errorf("name = %v, want x", got["name"])
		}
		limits, ok := got["limits"].(map[string]any)
		if !ok {
			t.Fatalf("limits has type %T", got["limits"])
		}
		if _, ok := limits["max"]; !ok {
			t.Error("limits.max missing")
		}
	})

	t.Run("schema violation names the path", func(t *testing.T) {
		t.Parallel()

		_, err := DecodeMap(testSchema, "#Config", []byte(`limits: max: -1`), "test.cue")
		if err == nil {
			t.Fatal("expected validation error")
		}
		if !strings.Contains(err.Error(), "test.cue") || !strings.Contains(err.Error(), "limits.max") {
			t.Errorf("error should name file and path, got: %v", err)
		}
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		t.Parallel()

		if _, err := DecodeMap(testSchema, "#Config", []byte(`colour: "red"`), "test.cue"); err == nil {
			t.Fatal("expected closed-struct error")
		}
	})

	t.Run("syntax error", func(t *testing.T) {
		t.Parallel()

		if _, err := DecodeMap(testSchema, "#Config", []byte(`name: "unterminated`), "test.cue"); err == nil {
			t.Fatal("expected syntax error")
		}
	})

	t.Run("missing definition", func(t *testing.T) {
		t.Parallel()

		if _, err := DecodeMap(testSchema, "#Nope", []byte(`name: "x"`), "test.cue"); err == nil {
			t.Fatal("expected missing definition error")
		}
	})
}

func TestFormatError(t *testing.T) {
	t.Parallel()

	if FormatError(nil, "x.cue") != nil {
		t.Error("FormatError(nil) should be nil")
	}

	err := FormatError(errors.New("some error"), "x.cue")
	if err == nil || !strings.Contains(err.Error(), "x.cue: some error") {
		t.Errorf("FormatError() = %v", err)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path     []string
		expected string
	}{
		{nil, ""},
		{[]string{"api"}, "api"},
		{[]string{"api", "endpoint"}, "api.endpoint"},
		{[]string{"source", "include", "0"}, "source.include[0]"},
		{[]string{"a", "1", "b", "2"}, "a[1].b[2]"},
	}

	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.expected {
			t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.expected)
		}
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize(make([]byte, 100), 100, "a.cue"); err != nil {
		t.Errorf("at limit: %v", err)
	}
	err := CheckFileSize(make([]byte, 101), 100, "a.cue")
	if err == nil {
		t.Fatal("expected error over limit")
	}
	for _, want := range []string{"a.cue", "101", "100"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should contain %q", err, want)
		}
	}
}
