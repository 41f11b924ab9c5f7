// Package grep scans project files for compiled patterns and reports each
// occurrence with comment-stripped-accurate columns.
package grep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/CoolSpy3/asm-code-lens/internal/core/comment"
	"github.com/CoolSpy3/asm-code-lens/internal/core/docstore"
	"github.com/CoolSpy3/asm-code-lens/internal/core/explain"
	"github.com/CoolSpy3/asm-code-lens/internal/core/pattern"
	"github.com/CoolSpy3/asm-code-lens/internal/core/source"
	"github.com/CoolSpy3/asm-code-lens/internal/core/walk"
	"github.com/CoolSpy3/asm-code-lens/internal/model"
)

// Options selects the file set and scan behavior of one grep call. The
// exclude globs travel here explicitly; there is no package-level exclude
// state.
type Options struct {
	Root       string   // absolute search root
	Include    []string // globs derived from the language id
	Exclude    []string
	ScanAll    bool
	LanguageID string
	Docs       *docstore.Store // nil outside the daemon
	Jobs       int             // parallel file scans, 0 means NumCPU
	Explain    explain.Explain
}

// Grep scans every candidate file under opts.Root. Files are scanned in
// parallel but results keep the sorted discovery order. On a read error the
// remaining work is cancelled and the locations accumulated from completed
// files are returned alongside the error, so callers can degrade to partial
// results instead of failing the whole search.
func Grep(ctx context.Context, pat *pattern.Pattern, opts Options) ([]model.Location, error) {
	if pat == nil || pat.Re == nil {
		return nil, fmt.Errorf("pattern is required")
	}
	if opts.Root == "" {
		return nil, fmt.Errorf("root is required")
	}

	stop := func() {}
	if opts.Explain != nil {
		stop = opts.Explain.Timer("grep")
	}
	defer stop()

	files, err := walk.ListFiles(opts.Root, walk.Options{
		IncludeGlobs: opts.Include,
		ExcludeGlobs: opts.Exclude,
		ScanAll:      opts.ScanAll,
	})
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	if opts.Explain != nil {
		opts.Explain.KV("grep.files", len(files))
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	results := make([][]model.Location, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for idx, rel := range files {
		idx, rel := idx, rel
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			abs := filepath.Join(opts.Root, filepath.FromSlash(rel))
			if !within(opts.Root, abs) {
				return nil
			}

			if opts.Docs != nil {
				if lines, ok := opts.Docs.DirtyLines(abs, opts.LanguageID); ok {
					results[idx] = ScanLines(pat, rel, lines)
					return nil
				}
			}

			b, err := os.ReadFile(abs)
			if err != nil {
				return fmt.Errorf("read %s: %w", rel, err)
			}
			locs := ScanLines(pat, rel, source.SplitLines(string(b)))
			hash := xxhash.Sum64(b)
			for i := range locs {
				locs[i].FileHash = hash
			}
			results[idx] = locs
			return nil
		})
	}
	err = g.Wait()

	var out []model.Location
	for _, r := range results {
		out = append(out, r...)
	}
	if opts.Explain != nil {
		opts.Explain.KV("grep.matches", len(out))
	}
	return out, err
}

// Multiple unions the scans of several patterns and drops duplicate hits,
// keeping the first occurrence. The definition search feeds its forms
// through here: a colon label can match two of them at the same spot.
func Multiple(ctx context.Context, pats []*pattern.Pattern, opts Options) ([]model.Location, error) {
	var all []model.Location
	for _, pat := range pats {
		locs, err := Grep(ctx, pat, opts)
		all = append(all, locs...)
		if err != nil {
			return Dedupe(all), err
		}
	}
	return Dedupe(all), nil
}

// ScanLines scans one document's raw lines: strip comments, then find every
// pattern occurrence per line. The recorded line text is the original; the
// columns come from the stripped form, which the stripper keeps aligned.
// Start columns are shifted past the pattern's prefix groups.
func ScanLines(pat *pattern.Pattern, relPath string, raw []string) []model.Location {
	stripped := comment.StripLines(raw)
	var out []model.Location
	for i, line := range stripped {
		if strings.TrimSpace(line) == "" {
			continue
		}
		for _, m := range pat.Re.FindAllStringSubmatchIndex(line, -1) {
			shift := 0
			for gi := 1; 2*gi < len(m); gi++ {
				if m[2*gi] >= 0 {
					shift += m[2*gi+1] - m[2*gi]
				}
			}
			start := m[0] + shift
			end := m[1]
			if start > end {
				continue
			}
			out = append(out, model.Location{
				Path:     relPath,
				Range:    model.Range{Start: model.Pos{Line: i, Col: start}, End: model.Pos{Line: i, Col: end}},
				LineText: raw[i],
				Symbol:   line[start:end],
			})
		}
	}
	return out
}

// within reports whether abs is lexically inside root.
func within(root, abs string) bool {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
