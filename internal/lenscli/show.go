package lenscli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/CoolSpy3/asm-code-lens/internal/core/scope"
	"github.com/CoolSpy3/asm-code-lens/internal/core/source"
	"github.com/CoolSpy3/asm-code-lens/internal/core/unit"
	"github.com/CoolSpy3/asm-code-lens/internal/model"
)

type shownFile struct {
	raw  []string
	info *scope.Info
}

// RenderShow prints each location with surrounding source and a line-number
// gutter. With contextLines > 0 the window is a fixed band around the match;
// with 0 it widens to the enclosing module or paragraph.
func RenderShow(root string, contextLines int, locs []model.Location) string {
	base := strings.TrimSpace(root)
	if base == "" {
		base = "."
	}

	src := source.New(base, nil)
	fileCache := map[string]*shownFile{}
	seen := map[string]bool{}

	var b strings.Builder
	for _, loc := range locs {
		key := fmt.Sprintf("%s:%d", loc.Path, loc.Range.Start.Line)
		if seen[key] {
			continue
		}
		seen[key] = true

		fv := loadShownFile(src, loc.Path, fileCache)
		if fv == nil || len(fv.raw) == 0 {
			_, _ = fmt.Fprintf(&b, "%s:%d:%d\n\n", loc.Path, loc.Range.Start.Line+1, loc.Range.Start.Col+1)
			continue
		}

		line := clampInt(loc.Range.Start.Line, 0, len(fv.raw)-1)
		var start, end int
		if contextLines > 0 {
			start, end = unit.LineRange(len(fv.raw), line, contextLines)
		} else {
			start, end = unit.Block(fv.info.Lines, fv.info.Events, line)
		}

		_, _ = fmt.Fprintf(&b, "%s:%d:%d (%d-%d)\n",
			loc.Path, line+1, loc.Range.Start.Col+1, start+1, end+1)

		width := len(strconv.Itoa(end + 1))
		for i := start; i <= end; i++ {
			prefix := " "
			if i == line {
				prefix = ">"
			}
			_, _ = fmt.Fprintf(&b, "%s %*d| %s\n", prefix, width, i+1, fv.raw[i])
		}
		_, _ = fmt.Fprintln(&b)
	}

	return b.String()
}

func loadShownFile(src *source.Source, rel string, cache map[string]*shownFile) *shownFile {
	if fv, ok := cache[rel]; ok {
		return fv
	}

	raw, err := src.Lines(rel)
	if err != nil {
		cache[rel] = nil
		return nil
	}

	fv := &shownFile{raw: raw, info: scope.NewInfo(raw)}
	cache[rel] = fv
	return fv
}

func clampInt(v int, min int, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
