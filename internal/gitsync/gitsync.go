// SPDX-License-Identifier: MPL-2.0

package gitsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	git "github.com/go-git/go-git/v5"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"autodoc-cli/internal/issue"
)

// ErrInvalidName is returned for remote or branch names git would misread.
var ErrInvalidName = errors.New("invalid remote or branch name")

type (
	// Step is one git invocation.
	Step struct {
		Name string
		Args []string
	}

	// StepError reports the step that stopped the sync.
	StepError struct {
		Step     Step
		ExitCode int
		Err      error
	}

	// Syncer holds the sync parameters.
	Syncer struct {
		Dir      string
		Upstream string
		Origin   string
		Branch   string

		Stdout io.Writer
		Stderr io.Writer
		// Env defaults to the process environment.
		Env []string
		// ExecMiddleware wraps the interpreter's exec handler.
		ExecMiddleware func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc
		Logger         *log.Logger
	}
)

func (e *StepError) Error() string {
	if e.ExitCode != 0 {
		return fmt.Sprintf("%s failed (exit status %d): %s", e.Step.Name, e.ExitCode, e.Step)
	}
	return fmt.Sprintf("%s failed: %s: %v", e.Step.Name, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// String returns the step as a shell command line.
func (s Step) String() string {
	quoted := make([]string, len(s.Args))
	for i, a := range s.Args {
		q, err := syntax.Quote(a, syntax.LangBash)
		if err != nil {
			q = a
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " ")
}

// Steps returns the commands Sync runs, in order.
func (s *Syncer) Steps() []Step {
	return []Step{
		{Name: "fetch", Args: []string{"git", "fetch", s.Upstream}},
		{Name: "merge", Args: []string{"git", "merge", s.Upstream + "/" + s.Branch}},
		{Name: "push", Args: []string{"git", "push", s.Origin, s.Branch}},
	}
}

// Validate rejects empty names and names that would be parsed as flags.
func (s *Syncer) Validate() error {
	fields := []struct{ name, value string }{
		{"upstream", s.Upstream},
		{"origin", s.Origin},
		{"branch", s.Branch},
	}
	for _, f := range fields {
		if f.value == "" || strings.HasPrefix(f.value, "-") || strings.ContainsAny(f.value, " \t\n") {
			return fmt.Errorf("%w: %s %q", ErrInvalidName, f.name, f.value)
		}
	}
	return nil
}

// Check verifies that Dir is a git work tree with both remotes configured.
func (s *Syncer) Check() error {
	repo, err := git.PlainOpenWithOptions(s.dir(), &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return issue.NewErrorContext().
				WithOperation("open repository").
				WithResource(s.dir()).
				WithSuggestion("Run 'autodoc sync' inside a git clone, or pass --dir").
				WithIssue(issue.NotARepositoryId).
				Wrap(err).
				BuildError()
		}
		return fmt.Errorf("open repository: %w", err)
	}

	for _, name := range []string{s.Upstream, s.Origin} {
		if _, err := repo.Remote(name); err != nil {
			return issue.NewErrorContext().
				WithOperation("look up remote").
				WithResource(name).
				WithSuggestion(fmt.Sprintf("Add it with 'git remote add %s <url>'", name)).
				WithIssue(issue.SyncFailedId).
				Wrap(err).
				BuildError()
		}
	}
	return nil
}

// Sync validates the setup and runs the steps, stopping at the first failure.
func (s *Syncer) Sync(ctx context.Context) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := s.Check(); err != nil {
		return err
	}

	runner, err := s.newRunner()
	if err != nil {
		return fmt.Errorf("create interpreter: %w", err)
	}

	parser := syntax.NewParser()
	for _, step := range s.Steps() {
		prog, err := parser.Parse(strings.NewReader(step.String()), step.Name)
		if err != nil {
			return &StepError{Step: step, Err: err}
		}

		s.logger().Info("running", "step", step.Name, "cmd", step.String())
		if err := runner.Run(ctx, prog); err != nil {
			var status interp.ExitStatus
			if errors.As(err, &status) {
				return &StepError{Step: step, ExitCode: int(status), Err: err}
			}
			return &StepError{Step: step, Err: err}
		}
		if runner.Exited() {
			return &StepError{Step: step, Err: errors.New("interpreter exited")}
		}
	}
	return nil
}

func (s *Syncer) newRunner() (*interp.Runner, error) {
	env := s.Env
	if env == nil {
		env = os.Environ()
	}
	stdout, stderr := s.Stdout, s.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	opts := []interp.RunnerOption{
		interp.Dir(s.dir()),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, stdout, stderr),
	}
	if s.ExecMiddleware != nil {
		opts = append(opts, interp.ExecHandlers(s.ExecMiddleware))
	}
	return interp.New(opts...)
}

func (s *Syncer) dir() string {
	if s.Dir == "" {
		return "."
	}
	return s.Dir
}

func (s *Syncer) logger() *log.Logger {
	if s.Logger == nil {
		return log.New(io.Discard)
	}
	return s.Logger
}
