package lenscli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/CoolSpy3/asm-code-lens/internal/core/complete"
	"github.com/CoolSpy3/asm-code-lens/internal/model"
)

// JSONLines encodes items one JSON object per line, the shape editor
// integrations consume.
func JSONLines[T any](items []T) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	for _, item := range items {
		_ = enc.Encode(item)
	}
	return b.String()
}

// RenderLocationsDefault prints one `path:line: snippet` row per location.
// Lines and columns are 1-based on the way out.
func RenderLocationsDefault(locs []model.Location) string {
	var b strings.Builder
	for _, loc := range locs {
		_, _ = fmt.Fprintf(&b, "%s:%d: %s\n", loc.Path, loc.Range.Start.Line+1, locationSnippet(loc))
	}
	return b.String()
}

// RenderLocationsVim prints `path:line:col: snippet` rows that Vim's
// errorformat and most editors' jump lists accept directly.
func RenderLocationsVim(locs []model.Location) string {
	var b strings.Builder
	for _, loc := range locs {
		_, _ = fmt.Fprintf(&b, "%s:%d:%d: %s\n",
			loc.Path, loc.Range.Start.Line+1, loc.Range.Start.Col+1, locationSnippet(loc))
	}
	return b.String()
}

func locationSnippet(loc model.Location) string {
	line := strings.TrimRight(loc.LineText, " \t\r")
	if strings.TrimSpace(line) == "" {
		return loc.Symbol
	}
	return highlightRange(line, loc.Range.Start.Col, loc.Range.End.Col)
}

// highlightRange wraps line[start:end) in <<>> markers and trims the line to
// a window around the match so long lines stay readable.
func highlightRange(line string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(line) {
		end = len(line)
	}
	if start >= end {
		return strings.TrimSpace(line)
	}

	const context = 40
	winStart := start - context
	if winStart < 0 {
		winStart = 0
	}
	winEnd := end + context
	if winEnd > len(line) {
		winEnd = len(line)
	}

	prefix := ""
	suffix := ""
	if winStart > 0 {
		prefix = "…"
	}
	if winEnd < len(line) {
		suffix = "…"
	}

	window := line[winStart:winEnd]
	localStart := start - winStart
	localEnd := end - winStart

	var b strings.Builder
	b.Grow(len(prefix) + len(window) + len(suffix) + 4)
	b.WriteString(prefix)
	b.WriteString(window[:localStart])
	b.WriteString("<<")
	b.WriteString(window[localStart:localEnd])
	b.WriteString(">>")
	b.WriteString(window[localEnd:])
	b.WriteString(suffix)
	return strings.TrimSpace(b.String())
}

// renderLocations applies the output-mode precedence shared by every
// location-producing command: jsonl, then vim lines, then show, then the
// default rows.
func renderLocations(opts Options, root string, locs []model.Location) string {
	switch {
	case opts.Jsonl:
		return JSONLines(locs)
	case opts.VimLines:
		return RenderLocationsVim(locs)
	case opts.Show:
		return RenderShow(root, opts.ContextLines, locs)
	default:
		return RenderLocationsDefault(locs)
	}
}

// RenderCompletionItems prints `insert<TAB>path:line` rows; the tab keeps
// the insert text machine-splittable even when names contain dots.
func RenderCompletionItems(items []complete.Item) string {
	var b strings.Builder
	for _, item := range items {
		_, _ = fmt.Fprintf(&b, "%s\t%s:%d\n", item.Insert, item.Path, item.Line+1)
	}
	return b.String()
}

// RenderDocSymbols prints the outline as `path:line: kind name` rows using
// the qualified name when it differs from the plain one.
func RenderDocSymbols(path string, syms []model.DocSymbol) string {
	var b strings.Builder
	for _, s := range syms {
		name := s.Name
		if s.Qualified != "" && s.Qualified != s.Name {
			name = s.Qualified
		}
		_, _ = fmt.Fprintf(&b, "%s:%d: %s %s\n", path, s.Range.Start.Line+1, s.Kind, name)
	}
	return b.String()
}

// RenderLenses prints one `path:line: N refs  name` row per definition.
func RenderLenses(lenses []model.Lens) string {
	var b strings.Builder
	for _, l := range lenses {
		name := l.Location.ModuleLabel
		if name == "" {
			name = l.Location.Symbol
		}
		_, _ = fmt.Fprintf(&b, "%s:%d: %d refs  %s\n",
			l.Location.Path, l.Location.Range.Start.Line+1, l.Count, name)
	}
	return b.String()
}

