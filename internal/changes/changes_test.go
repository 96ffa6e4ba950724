// SPDX-License-Identifier: MPL-2.0

package changes

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"autodoc-cli/internal/testutil"
)

func TestDetector_RootCommitReportsEverything(t *testing.T) {
	r := testutil.NewRepo(t)
	r.Write("main.go", "package main")
	r.Write("pkg/util.go", "package pkg")
	r.Commit("initial")

	cs, err := (&Detector{Root: r.Dir}).Changed(context.Background())
	if err != nil {
		t.Fatalf("Changed() error = %v", err)
	}
	if cs.All {
		t.Error("root commit should list files, not set All")
	}
	if diff := cmp.Diff([]string{"main.go", "pkg/util.go"}, cs.Paths()); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
	if cs.Base != "" || len(cs.Head) != 7 {
		t.Errorf("unexpected revisions base=%q head=%q", cs.Base, cs.Head)
	}
}

func TestDetector_DiffAgainstParent(t *testing.T) {
	r := testutil.NewRepo(t)
	r.Write("a.go", "package a")
	r.Write("b.go", "package b")
	r.Write("gone.go", "package gone")
	r.Commit("initial")

	r.Write("a.go", "package a // edited")
	r.Write("c.go", "package c")
	r.Remove("gone.go")
	r.Commit("second")

	cs, err := (&Detector{Root: r.Dir}).Changed(context.Background())
	if err != nil {
		t.Fatalf("Changed() error = %v", err)
	}
	if diff := cmp.Diff([]string{"a.go", "c.go", "gone.go"}, cs.Paths()); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
	if cs.Contains("b.go") {
		t.Error("b.go did not change")
	}
	if !cs.Contains("a.go") {
		t.Error("a.go changed")
	}
	if cs.Base == "" || cs.Base == cs.Head {
		t.Errorf("unexpected revisions base=%q head=%q", cs.Base, cs.Head)
	}
}

func TestDetector_ExplicitBase(t *testing.T) {
	r := testutil.NewRepo(t)
	r.Write("a.go", "package a")
	first := r.Commit("initial")
	r.Write("b.go", "package b")
	r.Commit("second")
	r.Write("c.go", "package c")
	r.Commit("third")

	tests := []struct {
		name string
		base string
		want []string
	}{
		{name: "hash", base: first.String(), want: []string{"b.go", "c.go"}},
		{name: "ancestry", base: "HEAD~2", want: []string{"b.go", "c.go"}},
		{name: "parent", base: "HEAD~1", want: []string{"c.go"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, err := (&Detector{Root: r.Dir, Base: tt.base}).Changed(context.Background())
			if err != nil {
				t.Fatalf("Changed() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, cs.Paths()); diff != "" {
				t.Errorf("paths mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := (&Detector{Root: r.Dir, Base: "no-such-branch"}).Changed(context.Background()); err == nil {
		t.Error("expected error for unknown revision")
	}
}

func TestDetector_SubdirectoryRoot(t *testing.T) {
	r := testutil.NewRepo(t)
	r.Write("src/app/main.go", "package main")
	r.Write("other/tool.go", "package tool")
	r.Commit("initial")
	r.Write("src/app/main.go", "package main // v2")
	r.Write("other/tool.go", "package tool // v2")
	r.Commit("second")

	cs, err := (&Detector{Root: filepath.Join(r.Dir, "src")}).Changed(context.Background())
	if err != nil {
		t.Fatalf("Changed() error = %v", err)
	}
	if diff := cmp.Diff([]string{"app/main.go"}, cs.Paths()); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestDetector_EmptyRepository(t *testing.T) {
	r := testutil.NewRepo(t)

	cs, err := (&Detector{Root: r.Dir}).Changed(context.Background())
	if err != nil {
		t.Fatalf("Changed() error = %v", err)
	}
	if !cs.All || !cs.Contains("anything.go") {
		t.Error("repository without commits should report everything as changed")
	}
}

func TestDetector_NotARepository(t *testing.T) {
	cs, err := (&Detector{Root: t.TempDir()}).Changed(context.Background())
	if !errors.Is(err, ErrNoRepository) {
		t.Fatalf("expected ErrNoRepository, got %v", err)
	}
	if !cs.All {
		t.Error("missing repository should report everything as changed")
	}
}

func TestNewChangeSet(t *testing.T) {
	t.Parallel()

	cs := NewChangeSet("b.go", "a/x.py", "b.go")
	if cs.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cs.Len())
	}
	if !cs.Contains("a/x.py") || cs.Contains("c.go") {
		t.Errorf("Contains() wrong for %v", cs.Paths())
	}
	if got := cs.Paths(); got[0] != "a/x.py" || got[1] != "b.go" {
		t.Errorf("Paths() = %v", got)
	}
	if !(ChangeSet{All: true}).Contains("anything") {
		t.Error("All must contain every path")
	}
}
