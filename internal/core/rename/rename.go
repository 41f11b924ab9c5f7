// Package rename turns a reduced location set into applied edits: host edit
// lists for files open in an editor, in-place rewrites for everything else.
package rename

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/CoolSpy3/asm-code-lens/internal/core/docstore"
	"github.com/CoolSpy3/asm-code-lens/internal/core/explain"
	"github.com/CoolSpy3/asm-code-lens/internal/core/pattern"
	"github.com/CoolSpy3/asm-code-lens/internal/core/source"
	"github.com/CoolSpy3/asm-code-lens/internal/model"
)

var validName = regexp.MustCompile(`^[A-Za-z_.][\w.]*$`)

type Options struct {
	Root string
	// Docs marks which files must be edited through the host instead of on
	// disk. Nil means no editor is attached.
	Docs *docstore.Store
	// Verify re-hashes each disk file and skips it when the content changed
	// since the scan recorded its hash.
	Verify  bool
	Explain explain.Explain
}

// Skip records a file or line left untouched and why.
type Skip struct {
	Path   string `json:"path"`
	Line   int    `json:"line,omitempty"`
	Reason string `json:"reason"`
}

// Result reports what Apply did. HostEdits are grouped per path and sorted
// last-to-first; the editor applies them as one atomic operation. Rewritten
// lists the disk files written.
type Result struct {
	HostEdits map[string][]model.TextEdit `json:"hostEdits,omitempty"`
	Rewritten []string                    `json:"rewritten,omitempty"`
	Skipped   []Skip                      `json:"skipped,omitempty"`
}

// Apply replaces every location's range with newText. Input locations must
// already be reduced and deduplicated. Disk writes fail loud: the first
// write error aborts and is returned, with no rollback of files already
// rewritten.
func Apply(locs []model.Location, newText string, opts Options) (*Result, error) {
	if !validName.MatchString(newText) {
		return nil, fmt.Errorf("invalid name %q", newText)
	}
	if opts.Root == "" {
		return nil, fmt.Errorf("root is required")
	}

	stop := func() {}
	if opts.Explain != nil {
		stop = opts.Explain.Timer("rename")
		opts.Explain.KV("rename.locations", len(locs))
	}
	defer stop()

	res := &Result{}
	disk := map[string][]model.Location{}
	for _, loc := range locs {
		abs := filepath.Join(opts.Root, filepath.FromSlash(loc.Path))
		if opts.Docs != nil {
			if _, open := opts.Docs.Get(abs); open {
				if res.HostEdits == nil {
					res.HostEdits = map[string][]model.TextEdit{}
				}
				res.HostEdits[loc.Path] = append(res.HostEdits[loc.Path], model.TextEdit{Range: loc.Range, NewText: newText})
				continue
			}
		}
		disk[loc.Path] = append(disk[loc.Path], loc)
	}

	for path := range res.HostEdits {
		sortEditsLastFirst(res.HostEdits[path])
	}

	paths := make([]string, 0, len(disk))
	for path := range disk {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := rewriteFile(opts, path, disk[path], newText, res); err != nil {
			return res, err
		}
	}

	if opts.Explain != nil {
		opts.Explain.KV("rename.rewritten", len(res.Rewritten))
		opts.Explain.KV("rename.skipped", len(res.Skipped))
	}
	return res, nil
}

func rewriteFile(opts Options, path string, locs []model.Location, newText string, res *Result) error {
	abs := filepath.Join(opts.Root, filepath.FromSlash(path))
	b, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if opts.Verify {
		want := scanHash(locs)
		if want != 0 && xxhash.Sum64(b) != want {
			res.Skipped = append(res.Skipped, Skip{Path: path, Reason: "content changed since scan"})
			return nil
		}
	}

	text := string(b)
	lines := source.SplitLines(text)
	eol := source.EOL(text)

	sort.Slice(locs, func(i, j int) bool {
		a, c := locs[i].Range.Start, locs[j].Range.Start
		if a.Line != c.Line {
			return a.Line > c.Line
		}
		return a.Col > c.Col
	})

	changed := false
	type spot struct{ line, col int }
	done := map[spot]bool{}
	for _, loc := range locs {
		start, end := loc.Range.Start, loc.Range.End
		if done[spot{start.Line, start.Col}] {
			continue
		}
		done[spot{start.Line, start.Col}] = true

		if start.Line < 0 || start.Line >= len(lines) {
			res.Skipped = append(res.Skipped, Skip{Path: path, Line: start.Line, Reason: "line out of range"})
			continue
		}
		line := lines[start.Line]
		if pattern.IncludeDirective.MatchString(line) {
			res.Skipped = append(res.Skipped, Skip{Path: path, Line: start.Line, Reason: "include directive"})
			continue
		}
		if start.Col < 0 || end.Col > len(line) || start.Col > end.Col {
			res.Skipped = append(res.Skipped, Skip{Path: path, Line: start.Line, Reason: "range out of range"})
			continue
		}
		lines[start.Line] = line[:start.Col] + newText + line[end.Col:]
		changed = true
	}
	if !changed {
		return nil
	}

	perm := os.FileMode(0o644)
	if fi, err := os.Stat(abs); err == nil {
		perm = fi.Mode().Perm()
	}
	if err := os.WriteFile(abs, []byte(joinLines(lines, eol)), perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	res.Rewritten = append(res.Rewritten, path)
	return nil
}

// scanHash picks the content hash the scan recorded for this file.
func scanHash(locs []model.Location) uint64 {
	for _, loc := range locs {
		if loc.FileHash != 0 {
			return loc.FileHash
		}
	}
	return 0
}

func sortEditsLastFirst(edits []model.TextEdit) {
	sort.Slice(edits, func(i, j int) bool {
		a, b := edits[i].Range.Start, edits[j].Range.Start
		if a.Line != b.Line {
			return a.Line > b.Line
		}
		return a.Col > b.Col
	})
}

func joinLines(lines []string, eol string) string {
	if len(lines) == 0 {
		return ""
	}
	n := len(eol) * (len(lines) - 1)
	for _, l := range lines {
		n += len(l)
	}
	var b strings.Builder
	b.Grow(n)
	for i, l := range lines {
		if i > 0 {
			b.WriteString(eol)
		}
		b.WriteString(l)
	}
	return b.String()
}
