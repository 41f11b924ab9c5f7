// Package xref wires the scan pipeline into the user-facing operations:
// find references, find definitions, rename, document outlines and
// per-definition reference lenses.
package xref

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/CoolSpy3/asm-code-lens/internal/core/docstore"
	"github.com/CoolSpy3/asm-code-lens/internal/core/explain"
	"github.com/CoolSpy3/asm-code-lens/internal/core/grep"
	"github.com/CoolSpy3/asm-code-lens/internal/core/pattern"
	"github.com/CoolSpy3/asm-code-lens/internal/core/reduce"
	"github.com/CoolSpy3/asm-code-lens/internal/core/rename"
	"github.com/CoolSpy3/asm-code-lens/internal/core/scope"
	"github.com/CoolSpy3/asm-code-lens/internal/core/source"
	"github.com/CoolSpy3/asm-code-lens/internal/core/walk"
	"github.com/CoolSpy3/asm-code-lens/internal/model"
)

// Engine binds one project root to the scan pipeline. Docs is nil outside
// the daemon; every other zero field falls back to a sensible default except
// Root, which is required.
type Engine struct {
	Root       string
	Include    []string
	Exclude    []string
	ScanAll    bool
	LanguageID string
	Docs       *docstore.Store
	Jobs       int
}

func (e *Engine) src() *source.Source { return source.New(e.Root, e.Docs) }

func (e *Engine) grepOpts(ex explain.Explain) grep.Options {
	return grep.Options{
		Root:       e.Root,
		Include:    e.Include,
		Exclude:    e.Exclude,
		ScanAll:    e.ScanAll,
		LanguageID: e.LanguageID,
		Docs:       e.Docs,
		Jobs:       e.Jobs,
		Explain:    ex,
	}
}

// Rel normalizes a file argument to the root-relative slash form the scans
// report, so the origin path compares equal to candidate paths. A path
// outside the root stays absolute.
func (e *Engine) Rel(path string) string {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(e.Root, filepath.FromSlash(path))
	}
	abs = filepath.Clean(abs)
	rel, err := filepath.Rel(e.Root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return abs
	}
	return filepath.ToSlash(rel)
}

type RefOptions struct {
	// Loose widens the match: candidates whose label extends the origin's
	// character sequence are kept too.
	Loose bool
	// IncludeSelf keeps hits on the origin's own line. Rename needs them;
	// a plain reference listing does not.
	IncludeSelf bool
	Explain     explain.Explain
}

// Refs finds every reference to the symbol at pos. When some files could not
// be read the references from the readable ones are returned together with
// the error, so interactive callers can degrade instead of failing.
func (e *Engine) Refs(ctx context.Context, path string, pos model.Pos, opts RefOptions) ([]model.Location, error) {
	src := e.src()
	origin := e.Rel(path)
	label, _, err := reduce.Origin(src, origin, pos)
	if err != nil {
		return nil, err
	}

	var pat *pattern.Pattern
	if opts.Loose {
		pat, err = pattern.ReferenceLoose(label)
	} else {
		pat, err = pattern.Reference(label)
	}
	if err != nil {
		return nil, err
	}

	locs, gerr := grep.Grep(ctx, pat, e.grepOpts(opts.Explain))
	reduced, err := reduce.Locations(ctx, src, locs, origin, pos, reduce.Options{
		RemoveOwnLocation: !opts.IncludeSelf,
		CheckFullName:     !opts.Loose,
		Explain:           opts.Explain,
	})
	if err != nil {
		return nil, err
	}
	return reduced, gerr
}

// Defs finds the definition sites of the symbol at pos: colon and bare
// labels, MODULE and STRUCT headers and MACRO headers whose qualified
// identity matches the origin's. A dotted origin is also searched by its
// last segment, since labels are declared bare inside their module.
func (e *Engine) Defs(ctx context.Context, path string, pos model.Pos, ex explain.Explain) ([]model.Location, error) {
	src := e.src()
	origin := e.Rel(path)
	label, _, err := reduce.Origin(src, origin, pos)
	if err != nil {
		return nil, err
	}

	names := []string{lastSegment(label)}
	if label != names[0] {
		names = append(names, label)
	}
	var pats []*pattern.Pattern
	for _, name := range names {
		defs, err := pattern.Definitions(name)
		if err != nil {
			return nil, err
		}
		pats = append(pats, defs...)
	}

	locs, gerr := grep.Multiple(ctx, pats, e.grepOpts(ex))
	reduced, err := reduce.Locations(ctx, src, locs, origin, pos, reduce.Options{
		CheckFullName: true,
		Explain:       ex,
	})
	if err != nil {
		return nil, err
	}
	return reduced, gerr
}

type RenameOptions struct {
	// Verify refuses to rewrite files whose content changed since the scan.
	Verify  bool
	Explain explain.Explain
}

// Rename renames the symbol at pos to newName everywhere it is referenced,
// the definition included. A partial scan aborts the rename: applying edits
// from an incomplete location set would leave the project inconsistent.
func (e *Engine) Rename(ctx context.Context, path string, pos model.Pos, newName string, opts RenameOptions) (*rename.Result, []model.Location, error) {
	locs, err := e.Refs(ctx, path, pos, RefOptions{IncludeSelf: true, Explain: opts.Explain})
	if err != nil {
		return nil, nil, err
	}
	res, err := rename.Apply(locs, newName, rename.Options{
		Root:    e.Root,
		Docs:    e.Docs,
		Verify:  opts.Verify,
		Explain: opts.Explain,
	})
	if err != nil {
		return nil, nil, err
	}
	return res, locs, nil
}

// Symbols builds the outline of one document. Label and macro symbols span
// their name token; module and struct symbols span the whole block, down to
// the closing line or the end of the file when the block never closes.
func (e *Engine) Symbols(path string, ex explain.Explain) ([]model.DocSymbol, error) {
	stop := func() {}
	if ex != nil {
		stop = ex.Timer("symbols")
	}
	defer stop()

	rel := e.Rel(path)
	lines, err := e.src().Lines(rel)
	if err != nil {
		return nil, err
	}
	info := scope.NewInfo(lines)
	closes := blockCloses(info.Events, len(info.Lines))

	var out []model.DocSymbol
	for _, d := range defSites(info) {
		qual := d.name
		if mod := info.ModuleAt(d.line); mod != "" {
			qual = mod + "." + d.name
		}
		rng := model.Range{
			Start: model.Pos{Line: d.line, Col: d.col},
			End:   model.Pos{Line: d.line, Col: d.col + len(d.name)},
		}
		if d.kind == model.KindModule || d.kind == model.KindStruct {
			end := closes[d.line]
			rng = model.Range{
				Start: model.Pos{Line: d.line, Col: 0},
				End:   model.Pos{Line: end, Col: len(info.Lines[end])},
			}
		}
		out = append(out, model.DocSymbol{Kind: d.kind, Name: d.name, Qualified: qual, Range: rng})
	}
	if ex != nil {
		ex.KV("symbols", len(out))
	}
	return out, nil
}

// Lens reports, for every definition site in the document, how many places
// reference it. The definition's own line is not counted. Files that could
// not be scanned lower the counts; the first such error is returned with
// the lenses that were computed.
func (e *Engine) Lens(ctx context.Context, path string, ex explain.Explain) ([]model.Lens, error) {
	stop := func() {}
	if ex != nil {
		stop = ex.Timer("lens")
	}
	defer stop()

	rel := e.Rel(path)
	lines, err := e.src().Lines(rel)
	if err != nil {
		return nil, err
	}
	info := scope.NewInfo(lines)

	var out []model.Lens
	var firstErr error
	for _, d := range defSites(info) {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		pos := model.Pos{Line: d.line, Col: d.col}
		refs, err := e.Refs(ctx, rel, pos, RefOptions{Explain: ex})
		if err != nil && firstErr == nil {
			firstErr = err
		}
		label, moduleLabel := info.LabelAt(d.line, d.col)
		out = append(out, model.Lens{
			Location: model.Location{
				Path:        rel,
				Range:       model.Range{Start: pos, End: model.Pos{Line: d.line, Col: d.col + len(d.name)}},
				LineText:    lines[d.line],
				Symbol:      d.name,
				Label:       label,
				ModuleLabel: moduleLabel,
			},
			Count: len(refs),
		})
	}
	return out, firstErr
}

// Def is a project-wide definition site with its qualified name.
type Def struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Qualified string `json:"qualified"`
	Path      string `json:"path"`
	Line      int    `json:"line"`
	Col       int    `json:"col"`
}

// Labels collects every definition site in the project, in file order. Files
// are scanned in parallel and open buffers shadow the disk. On a read error
// the defs from the readable files are returned with the error.
func (e *Engine) Labels(ctx context.Context, ex explain.Explain) ([]Def, error) {
	if e.Root == "" {
		return nil, fmt.Errorf("root is required")
	}
	stop := func() {}
	if ex != nil {
		stop = ex.Timer("labels")
	}
	defer stop()

	files, err := walk.ListFiles(e.Root, walk.Options{
		IncludeGlobs: e.Include,
		ExcludeGlobs: e.Exclude,
		ScanAll:      e.ScanAll,
	})
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	src := e.src()
	jobs := e.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	results := make([][]Def, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for idx, rel := range files {
		idx, rel := idx, rel
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lines, err := src.Lines(rel)
			if err != nil {
				return err
			}
			info := scope.NewInfo(lines)
			var defs []Def
			for _, d := range defSites(info) {
				qual := d.name
				if mod := info.ModuleAt(d.line); mod != "" {
					qual = mod + "." + d.name
				}
				defs = append(defs, Def{Kind: d.kind, Name: d.name, Qualified: qual, Path: rel, Line: d.line, Col: d.col})
			}
			results[idx] = defs
			return nil
		})
	}
	err = g.Wait()

	var out []Def
	for _, r := range results {
		out = append(out, r...)
	}
	if ex != nil {
		ex.KV("labels.files", len(files))
		ex.KV("labels.defs", len(out))
	}
	return out, err
}

func lastSegment(label string) string {
	if i := strings.LastIndexByte(label, '.'); i >= 0 && i+1 < len(label) {
		return label[i+1:]
	}
	return label
}

type defSite struct {
	kind string
	name string
	line int
	col  int
}

var (
	blockHeadRe = regexp.MustCompile(`(?i)^\s*(module|struct)\s+([a-z_][\w.]*)`)
	macroHeadRe = regexp.MustCompile(`(?i)^\s*macro\s+([a-z_][\w.]*)`)
	colonDefRe  = regexp.MustCompile(`^\s*([A-Za-z_][\w.]*):`)
	plainDefRe  = regexp.MustCompile(`^([A-Za-z_][\w.]*)(?:\s|$)`)
)

// Directives that can start a line without being a bare label.
var plainKeywords = map[string]bool{
	"module":    true,
	"struct":    true,
	"endmodule": true,
	"endstruct": true,
	"macro":     true,
	"endm":      true,
	"include":   true,
}

// defSites lists the definition sites of one document in line order: module
// and struct headers, macro headers, colon labels at any indent and bare
// labels at column zero. col points at the name token. Lines are already
// comment stripped, so a def inside a comment never shows up.
func defSites(info *scope.Info) []defSite {
	var out []defSite
	for i, line := range info.Lines {
		if m := blockHeadRe.FindStringSubmatchIndex(line); m != nil {
			kind := strings.ToLower(line[m[2]:m[3]])
			out = append(out, defSite{kind: kind, name: line[m[4]:m[5]], line: i, col: m[4]})
			continue
		}
		if m := macroHeadRe.FindStringSubmatchIndex(line); m != nil {
			out = append(out, defSite{kind: model.KindMacro, name: line[m[2]:m[3]], line: i, col: m[2]})
			continue
		}
		if m := colonDefRe.FindStringSubmatchIndex(line); m != nil {
			out = append(out, defSite{kind: model.KindLabel, name: line[m[2]:m[3]], line: i, col: m[2]})
			continue
		}
		if m := plainDefRe.FindStringSubmatchIndex(line); m != nil {
			name := line[m[2]:m[3]]
			if !plainKeywords[strings.ToLower(name)] {
				out = append(out, defSite{kind: model.KindLabel, name: name, line: i, col: m[2]})
			}
		}
	}
	return out
}

// blockCloses pairs each open line with its close line, end of file when the
// block never closes.
func blockCloses(events []scope.Event, total int) map[int]int {
	closes := map[int]int{}
	var stack []int
	for _, ev := range events {
		if ev.Open {
			stack = append(stack, ev.Line)
			continue
		}
		if len(stack) > 0 {
			closes[stack[len(stack)-1]] = ev.Line
			stack = stack[:len(stack)-1]
		}
	}
	end := total - 1
	if end < 0 {
		end = 0
	}
	for _, open := range stack {
		closes[open] = end
	}
	return closes
}
