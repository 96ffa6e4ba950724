// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrInvalidPattern is wrapped when an include or exclude pattern is malformed.
var ErrInvalidPattern = errors.New("invalid glob pattern")

// defaultSkipDirs are never descended into, whatever the patterns say.
var defaultSkipDirs = map[string]struct{}{
	".git": {},
	".hg":  {},
	".svn": {},
}

type (
	// SourceFile is a file selected for documentation.
	SourceFile struct {
		// RelPath is slash separated and relative to the source root.
		RelPath string
		// AbsPath is the absolute filesystem path.
		AbsPath string
		// Size is the file size in bytes at discovery time.
		Size int64
	}

	// Options controls a discovery walk.
	Options struct {
		Root    string
		Include []string
		Exclude []string
		// SkipDirs are directories (absolute, or relative to Root) pruned from
		// the walk. The output directory belongs here.
		SkipDirs []string
	}
)

// ValidatePatterns reports the first malformed pattern.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" || !doublestar.ValidatePattern(p) {
			return fmt.Errorf("%w: %q", ErrInvalidPattern, p)
		}
	}
	return nil
}

// Discover walks opts.Root and returns the regular files matched by at least
// one include pattern and by no exclude pattern, sorted by RelPath.
func Discover(ctx context.Context, opts Options) ([]SourceFile, error) {
	if err := ValidatePatterns(opts.Include); err != nil {
		return nil, err
	}
	if err := ValidatePatterns(opts.Exclude); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source root is not a directory: %s", root)
	}

	skip, err := absSkipDirs(root, opts.SkipDirs)
	if err != nil {
		return nil, err
	}

	var files []SourceFile
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("rel path: %w", err)
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if _, ok := defaultSkipDirs[d.Name()]; ok {
				return filepath.SkipDir
			}
			if _, ok := skip[path]; ok {
				return filepath.SkipDir
			}
			if dirExcluded(rel, opts.Exclude) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !Match(rel, opts.Include, opts.Exclude) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", rel, err)
		}
		files = append(files, SourceFile{RelPath: rel, AbsPath: path, Size: fi.Size()})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", root, walkErr)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].RelPath < files[j].RelPath
	})

	return files, nil
}

// Match reports whether rel is selected by include and not rejected by
// exclude. Patterns are assumed valid.
func Match(rel string, include, exclude []string) bool {
	if !matchAny(include, rel) {
		return false
	}
	return !matchAny(exclude, rel)
}

// dirExcluded reports whether an exclude pattern ending in "/**" covers the
// directory rel itself, so the whole subtree can be pruned.
func dirExcluded(rel string, exclude []string) bool {
	for _, p := range exclude {
		if !strings.HasSuffix(p, "/**") {
			continue
		}
		if doublestar.MatchUnvalidated(strings.TrimSuffix(p, "/**"), rel) {
			return true
		}
	}
	return false
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if doublestar.MatchUnvalidated(p, rel) {
			return true
		}
	}
	return false
}

func absSkipDirs(root string, dirs []string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(dirs))
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", dir, err)
		}
		out[abs] = struct{}{}
	}
	return out, nil
}
