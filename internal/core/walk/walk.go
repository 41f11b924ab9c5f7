// Package walk enumerates the candidate files of a search root: include and
// exclude globs, gitignore handling, and a stable discovery order.
package walk

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

type Options struct {
	IncludeGlobs []string
	ExcludeGlobs []string
	ScanAll      bool
}

// ListFiles returns the slash-separated relative paths under root that pass
// the filter, sorted. The sort order is the discovery order every scan and
// dedupe downstream relies on.
func ListFiles(root string, opts Options) ([]string, error) {
	ig, err := loadIgnore(root, opts.ScanAll)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		name := d.Name()
		if d.IsDir() {
			if !opts.ScanAll && (isHidden(name) || isDefaultSkippedDir(name)) {
				return filepath.SkipDir
			}
			if !opts.ScanAll && ig.ignored(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if !opts.ScanAll && isHidden(name) {
			return nil
		}
		if !opts.ScanAll && ig.ignored(rel, false) {
			return nil
		}
		if len(opts.IncludeGlobs) > 0 && !anyGlobMatch(opts.IncludeGlobs, rel) {
			return nil
		}
		if anyGlobMatch(opts.ExcludeGlobs, rel) {
			return nil
		}

		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func isDefaultSkippedDir(name string) bool {
	switch name {
	case ".git", "node_modules", "dist", "target":
		return true
	default:
		return false
	}
}

func anyGlobMatch(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if matchesGlob(pat, rel) {
			return true
		}
	}
	return false
}

// matchesGlob matches one doublestar pattern ("**" and "{a,b}" work) against
// a slash-relative path. Patterns without a separator match the basename, so
// a bare "*.lst" works at any depth. A csv value splits into alternatives.
func matchesGlob(pattern string, rel string) bool {
	pat := strings.TrimSpace(pattern)
	if pat == "" {
		return false
	}
	pat = strings.ReplaceAll(pat, "\\", "/")
	rel = filepath.ToSlash(rel)

	if strings.Contains(pat, ",") && !strings.Contains(pat, "{") {
		for _, piece := range strings.Split(pat, ",") {
			if matchesGlob(strings.TrimSpace(piece), rel) {
				return true
			}
		}
		return false
	}

	if !strings.Contains(pat, "/") {
		ok, err := doublestar.Match(pat, path.Base(rel))
		return err == nil && ok
	}

	ok, err := doublestar.Match(pat, rel)
	return err == nil && ok
}
