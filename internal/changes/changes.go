// SPDX-License-Identifier: MPL-2.0

// Package changes reports which source files changed between two git
// revisions. It reads the repository with go-git, so no git binary is needed.
package changes

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNoRepository is returned (together with an all-changed ChangeSet) when
// the source root is not inside a git work tree.
var ErrNoRepository = errors.New("not a git repository")

type (
	// ChangeSet is the set of changed paths, slash separated and relative to
	// the source root.
	ChangeSet struct {
		// All means every file counts as changed (no repository, no commits).
		All bool
		// Base and Head are the compared commits (empty when All is set without history).
		Base string
		Head string

		paths map[string]struct{}
	}

	// Detector compares Base (default: the first parent of HEAD) with HEAD.
	Detector struct {
		// Root is the source root; it may be any directory inside the work tree.
		Root string
		// Base is a git revision such as "HEAD~3", a branch or a hash.
		Base string
	}
)

// NewChangeSet returns a ChangeSet holding exactly paths.
func NewChangeSet(paths ...string) ChangeSet {
	cs := ChangeSet{paths: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		cs.paths[p] = struct{}{}
	}
	return cs
}

// Contains reports whether rel changed.
func (c ChangeSet) Contains(rel string) bool {
	if c.All {
		return true
	}
	_, ok := c.paths[rel]
	return ok
}

// Len returns the number of recorded paths.
func (c ChangeSet) Len() int {
	return len(c.paths)
}

// Paths returns the recorded paths in lexical order.
func (c ChangeSet) Paths() []string {
	out := make([]string, 0, len(c.paths))
	for p := range c.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Changed opens the repository containing d.Root and diffs Base against HEAD.
// A root commit reports every file in HEAD. A repository without commits
// reports All.
func (d *Detector) Changed(ctx context.Context) (ChangeSet, error) {
	root, err := canonical(d.Root)
	if err != nil {
		return ChangeSet{}, fmt.Errorf("resolve source root: %w", err)
	}

	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return ChangeSet{All: true}, fmt.Errorf("%w: %s", ErrNoRepository, root)
		}
		return ChangeSet{}, fmt.Errorf("open repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return ChangeSet{}, fmt.Errorf("open worktree: %w", err)
	}
	repoRoot, err := canonical(wt.Filesystem.Root())
	if err != nil {
		return ChangeSet{}, fmt.Errorf("resolve repository root: %w", err)
	}
	prefix, err := filepath.Rel(repoRoot, root)
	if err != nil {
		return ChangeSet{}, fmt.Errorf("relate source root to repository: %w", err)
	}
	prefix = filepath.ToSlash(prefix)
	if prefix == "." {
		prefix = ""
	}

	headRef, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return ChangeSet{All: true}, nil
		}
		return ChangeSet{}, fmt.Errorf("resolve HEAD: %w", err)
	}
	head, err := repo.CommitObject(headRef.Hash())
	if err != nil {
		return ChangeSet{}, fmt.Errorf("load HEAD commit: %w", err)
	}
	headTree, err := head.Tree()
	if err != nil {
		return ChangeSet{}, fmt.Errorf("load HEAD tree: %w", err)
	}

	cs := ChangeSet{Head: short(head.Hash), paths: make(map[string]struct{})}
	add := func(name string) {
		if rel, ok := underPrefix(name, prefix); ok {
			cs.paths[rel] = struct{}{}
		}
	}

	base, err := d.baseCommit(repo, head)
	if err != nil {
		return ChangeSet{}, err
	}
	if base == nil {
		err := headTree.Files().ForEach(func(f *object.File) error {
			add(f.Name)
			return nil
		})
		if err != nil {
			return ChangeSet{}, fmt.Errorf("list HEAD tree: %w", err)
		}
		return cs, nil
	}
	cs.Base = short(base.Hash)

	baseTree, err := base.Tree()
	if err != nil {
		return ChangeSet{}, fmt.Errorf("load base tree: %w", err)
	}
	diff, err := baseTree.DiffContext(ctx, headTree)
	if err != nil {
		return ChangeSet{}, fmt.Errorf("diff %s..%s: %w", cs.Base, cs.Head, err)
	}
	for _, change := range diff {
		if change.From.Name != "" {
			add(change.From.Name)
		}
		if change.To.Name != "" {
			add(change.To.Name)
		}
	}

	return cs, nil
}

// baseCommit resolves d.Base, or the first parent of head. It returns nil
// when head is a root commit and no base was requested.
func (d *Detector) baseCommit(repo *git.Repository, head *object.Commit) (*object.Commit, error) {
	if d.Base == "" {
		if head.NumParents() == 0 {
			return nil, nil
		}
		parent, err := head.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("load parent of %s: %w", short(head.Hash), err)
		}
		return parent, nil
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(d.Base))
	if err != nil {
		return nil, fmt.Errorf("resolve revision %q: %w", d.Base, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("load commit %q: %w", d.Base, err)
	}
	return commit, nil
}

func underPrefix(name, prefix string) (string, bool) {
	if prefix == "" {
		return name, true
	}
	if !strings.HasPrefix(name, prefix+"/") {
		return "", false
	}
	return strings.TrimPrefix(name, prefix+"/"), true
}

// canonical returns the absolute, symlink-free form of path.
func canonical(path string) (string, error) {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

func short(h plumbing.Hash) string {
	return h.String()[:7]
}
