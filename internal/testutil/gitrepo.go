// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Repo is a git repository in a temporary directory.
type Repo struct {
	t   testing.TB
	Dir string
	Git *git.Repository
}

// NewRepo initializes an empty repository under t.TempDir().
func NewRepo(t testing.TB) *Repo {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("git init: %v", err)
	}
	return &Repo{t: t, Dir: dir, Git: repo}
}

// Write writes a file relative to the work tree root.
func (r *Repo) Write(rel, content string) {
	r.t.Helper()
	MustWriteFile(r.t, filepath.Join(r.Dir, filepath.FromSlash(rel)), content)
}

// Remove deletes a tracked file and stages the deletion.
func (r *Repo) Remove(rel string) {
	r.t.Helper()
	if _, err := r.worktree().Remove(rel); err != nil {
		r.t.Fatalf("git rm %s: %v", rel, err)
	}
}

// Commit stages everything and commits it.
func (r *Repo) Commit(msg string) plumbing.Hash {
	r.t.Helper()
	wt := r.worktree()
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		r.t.Fatalf("git add: %v", err)
	}
	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		r.t.Fatalf("git commit: %v", err)
	}
	return hash
}

// AddRemote registers a remote pointing at a placeholder URL.
func (r *Repo) AddRemote(name string) {
	r.t.Helper()
	_, err := r.Git.CreateRemote(&config.RemoteConfig{
		Name: name,
		URLs: []string{"https://example.com/" + name + ".git"},
	})
	if err != nil {
		r.t.Fatalf("git remote add %s: %v", name, err)
	}
}

func (r *Repo) worktree() *git.Worktree {
	r.t.Helper()
	wt, err := r.Git.Worktree()
	if err != nil {
		r.t.Fatalf("worktree: %v", err)
	}
	return wt
}
