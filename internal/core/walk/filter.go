package walk

import (
	"path"
	"path/filepath"
)

// Filter answers include/exclude questions for single paths. The watcher
// uses it to decide whether a filesystem event is worth a re-run without
// walking the whole tree again.
type Filter struct {
	opts Options
	ig   *gitIgnore
}

func NewFilter(root string, opts Options) (*Filter, error) {
	ig, err := loadIgnore(root, opts.ScanAll)
	if err != nil {
		return nil, err
	}
	return &Filter{opts: opts, ig: ig}, nil
}

func (f *Filter) ShouldInclude(rel string, isDir bool) bool {
	if f == nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	name := path.Base(rel)

	if isDir {
		if !f.opts.ScanAll && (isHidden(name) || isDefaultSkippedDir(name)) {
			return false
		}
		if !f.opts.ScanAll && f.ig.ignored(rel, true) {
			return false
		}
		return true
	}

	if !f.opts.ScanAll && isHidden(name) {
		return false
	}
	if !f.opts.ScanAll && f.ig.ignored(rel, false) {
		return false
	}
	if len(f.opts.IncludeGlobs) > 0 && !anyGlobMatch(f.opts.IncludeGlobs, rel) {
		return false
	}
	if anyGlobMatch(f.opts.ExcludeGlobs, rel) {
		return false
	}
	return true
}
