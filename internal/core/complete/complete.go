// Package complete proposes labels for a partly typed symbol, matching the
// typed fragment fuzzily against every definition site in the project.
package complete

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/CoolSpy3/asm-code-lens/internal/core/explain"
	"github.com/CoolSpy3/asm-code-lens/internal/core/pattern"
	"github.com/CoolSpy3/asm-code-lens/internal/core/scope"
	"github.com/CoolSpy3/asm-code-lens/internal/core/source"
	"github.com/CoolSpy3/asm-code-lens/internal/core/xref"
	"github.com/CoolSpy3/asm-code-lens/internal/model"
)

type Options struct {
	// Limit caps the proposal list. 0 means no cap.
	Limit   int
	Explain explain.Explain
}

// Item is one proposal. Insert is what should replace the typed fragment:
// the bare name when the candidate lives in the module the user is typing
// in, the qualified name otherwise.
type Item struct {
	Label     string `json:"label"`
	Qualified string `json:"qualified"`
	Kind      string `json:"kind"`
	Insert    string `json:"insert"`
	Path      string `json:"path"`
	Line      int    `json:"line"`
}

// Complete proposes definitions matching the fragment at pos. A partial
// harvest still produces proposals; the harvest error is passed through so
// callers can report it.
func Complete(ctx context.Context, eng *xref.Engine, path string, pos model.Pos, opts Options) ([]Item, error) {
	prefix, module, err := prefixAt(eng, path, pos)
	if err != nil {
		return nil, err
	}
	defs, derr := eng.Labels(ctx, opts.Explain)
	narrowed, err := narrowDefs(defs, prefix)
	if err != nil {
		return nil, err
	}
	items, err := buildItems(narrowed, module, opts.Limit)
	if err != nil {
		return nil, err
	}
	return items, derr
}

// prefixAt resolves the typed fragment and the module context at pos. The
// cursor usually sits just past the last typed character; LabelAt already
// steps back onto it.
func prefixAt(eng *xref.Engine, path string, pos model.Pos) (prefix, module string, err error) {
	src := source.New(eng.Root, eng.Docs)
	lines, err := src.Lines(eng.Rel(path))
	if err != nil {
		return "", "", err
	}
	info := scope.NewInfo(lines)
	label, _ := info.LabelAt(pos.Line, pos.Col)
	if label == "" {
		return "", "", fmt.Errorf("no prefix at %s:%d:%d", path, pos.Line, pos.Col)
	}
	return label, info.ModuleAt(pos.Line), nil
}

// narrowDefs keeps the defs whose bare or qualified name matches the
// fragment fuzzily. Extending the fragment can only shrink this set, which
// is what makes session reuse sound.
func narrowDefs(defs []xref.Def, prefix string) ([]xref.Def, error) {
	re, err := pattern.Fuzzy(prefix)
	if err != nil {
		return nil, err
	}
	out := make([]xref.Def, 0, len(defs))
	for _, d := range defs {
		if re.MatchString(d.Name) || re.MatchString(d.Qualified) {
			out = append(out, d)
		}
	}
	return out, nil
}

func buildItems(defs []xref.Def, module string, limit int) ([]Item, error) {
	seen := map[string]bool{}
	var out []Item
	for _, d := range defs {
		insert := d.Qualified
		if module != "" && d.Qualified == module+"."+d.Name {
			insert = d.Name
		}
		if seen[insert] {
			continue
		}
		seen[insert] = true
		out = append(out, Item{
			Label:     d.Name,
			Qualified: d.Qualified,
			Kind:      d.Kind,
			Insert:    insert,
			Path:      d.Path,
			Line:      d.Line,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Insert < out[j].Insert })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func isPrefixExtension(oldP, newP string, minLen int) bool {
	oldP = strings.TrimSpace(oldP)
	newP = strings.TrimSpace(newP)
	if len(oldP) < minLen {
		return false
	}
	if len(newP) <= len(oldP) {
		return false
	}
	// Labels compare case-insensitively everywhere else too.
	return strings.HasPrefix(strings.ToLower(newP), strings.ToLower(oldP))
}
