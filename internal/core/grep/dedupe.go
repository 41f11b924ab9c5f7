package grep

import "github.com/CoolSpy3/asm-code-lens/internal/model"

type dedupeKey struct {
	path string
	line int
	col  int
}

// Dedupe removes locations that share (path, line, start column), keeping
// the first and its order. End columns are ignored on purpose: two patterns
// hitting the same spot with different extents are still the same symbol.
func Dedupe(locs []model.Location) []model.Location {
	if len(locs) < 2 {
		return locs
	}
	seen := make(map[dedupeKey]bool, len(locs))
	out := make([]model.Location, 0, len(locs))
	for _, loc := range locs {
		k := dedupeKey{path: loc.Path, line: loc.Range.Start.Line, col: loc.Range.Start.Col}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, loc)
	}
	return out
}
