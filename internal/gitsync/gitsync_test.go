// SPDX-License-Identifier: MPL-2.0

package gitsync

import (
	"context"
	"errors"
	"fmt"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/google/go-cmp/cmp"
	"mvdan.cc/sh/v3/interp"

	"autodoc-cli/internal/issue"
	"autodoc-cli/internal/testutil"
)

// recorder intercepts git invocations; failAt names the subcommand that
// exits with status 1.
type recorder struct {
	failAt string
	calls  [][]string
	dirs   []string
}

func (r *recorder) middleware(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if len(args) == 0 || args[0] != "git" {
			return next(ctx, args)
		}
		r.calls = append(r.calls, args)
		r.dirs = append(r.dirs, interp.HandlerCtx(ctx).Dir)
		if len(args) > 1 && args[1] == r.failAt {
			fmt.Fprintln(interp.HandlerCtx(ctx).Stderr, "fatal: simulated")
			return interp.ExitStatus(1)
		}
		return nil
	}
}

func initRepo(t *testing.T, remotes ...string) string {
	t.Helper()
	r := testutil.NewRepo(t)
	for _, name := range remotes {
		r.AddRemote(name)
	}
	return r.Dir
}

func newSyncer(dir string, rec *recorder) *Syncer {
	return &Syncer{
		Dir:            dir,
		Upstream:       "upstream",
		Origin:         "origin",
		Branch:         "main",
		Env:            []string{"PATH=/usr/bin:/bin"},
		ExecMiddleware: rec.middleware,
	}
}

func TestSteps(t *testing.T) {
	t.Parallel()

	s := &Syncer{Upstream: "upstream", Origin: "origin", Branch: "release/1.x"}
	var got []string
	for _, st := range s.Steps() {
		got = append(got, st.String())
	}
	want := []string{
		"git fetch upstream",
		"git merge upstream/release/1.x",
		"git push origin release/1.x",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Steps() mismatch (-want +got):\n%s", diff)
	}
}

func TestSync_RunsStepsInOrder(t *testing.T) {
	t.Parallel()

	dir := initRepo(t, "upstream", "origin")
	rec := &recorder{}
	if err := newSyncer(dir, rec).Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	want := [][]string{
		{"git", "fetch", "upstream"},
		{"git", "merge", "upstream/main"},
		{"git", "push", "origin", "main"},
	}
	if diff := cmp.Diff(want, rec.calls); diff != "" {
		t.Errorf("git calls mismatch (-want +got):\n%s", diff)
	}
	for _, d := range rec.dirs {
		if d != dir {
			t.Errorf("command ran in %q, want %q", d, dir)
		}
	}
}

func TestSync_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		failAt    string
		wantCalls int
	}{
		{"fetch", 1},
		{"merge", 2},
		{"push", 3},
	}

	for _, tt := range tests {
		t.Run(tt.failAt, func(t *testing.T) {
			t.Parallel()
			rec := &recorder{failAt: tt.failAt}
			err := newSyncer(initRepo(t, "upstream", "origin"), rec).Sync(context.Background())

			var stepErr *StepError
			if !errors.As(err, &stepErr) {
				t.Fatalf("Sync() error = %v, want *StepError", err)
			}
			if stepErr.Step.Name != tt.failAt || stepErr.ExitCode != 1 {
				t.Errorf("StepError = %+v", stepErr)
			}
			if len(rec.calls) != tt.wantCalls {
				t.Errorf("calls = %d, want %d", len(rec.calls), tt.wantCalls)
			}
		})
	}
}

func TestSync_NotARepository(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	err := newSyncer(t.TempDir(), rec).Sync(context.Background())
	if got := issue.IssueOf(err); got == nil || got.Id() != issue.NotARepositoryId {
		t.Errorf("Sync() error = %v, want not-a-repository issue", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("git ran %d times", len(rec.calls))
	}
}

func TestSync_MissingRemote(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	err := newSyncer(initRepo(t, "origin"), rec).Sync(context.Background())
	if !errors.Is(err, git.ErrRemoteNotFound) {
		t.Errorf("Sync() error = %v, want ErrRemoteNotFound", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("git ran %d times", len(rec.calls))
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		s       Syncer
		wantErr bool
	}{
		{"ok", Syncer{Upstream: "upstream", Origin: "origin", Branch: "main"}, false},
		{"empty branch", Syncer{Upstream: "upstream", Origin: "origin"}, true},
		{"flag-like remote", Syncer{Upstream: "--force", Origin: "origin", Branch: "main"}, true},
		{"space in branch", Syncer{Upstream: "upstream", Origin: "origin", Branch: "a b"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidName) {
				t.Errorf("error %v does not wrap ErrInvalidName", err)
			}
		})
	}
}

func TestStepError_Message(t *testing.T) {
	t.Parallel()

	st := Step{Name: "merge", Args: []string{"git", "merge", "upstream/main"}}
	err := &StepError{Step: st, ExitCode: 128}
	if got, want := err.Error(), "merge failed (exit status 128): git merge upstream/main"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
