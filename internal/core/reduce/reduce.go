// Package reduce filters raw grep hits down to the ones that actually refer
// to the symbol at the origin position, by comparing module-qualified
// identities.
package reduce

import (
	"context"
	"fmt"
	"regexp"

	"github.com/CoolSpy3/asm-code-lens/internal/core/explain"
	"github.com/CoolSpy3/asm-code-lens/internal/core/pattern"
	"github.com/CoolSpy3/asm-code-lens/internal/core/scope"
	"github.com/CoolSpy3/asm-code-lens/internal/model"
)

// LineSource provides document lines. *source.Source implements it; tests
// substitute counting fakes.
type LineSource interface {
	Lines(path string) ([]string, error)
}

type Options struct {
	// RemoveOwnLocation drops candidates on the origin's own line.
	RemoveOwnLocation bool
	// CheckFullName selects exact identity matching; false switches to the
	// fuzzy matchers built from the origin's label and moduleLabel.
	CheckFullName bool
	Explain       explain.Explain
}

// Locations resolves the symbol identity at the origin, then walks the
// candidate list backward, resolving each candidate's identity lazily and
// removing the ones that refer to something else. Kept locations come back
// in their original order with Label and ModuleLabel filled in.
//
// Each file is read once per call: scope info is cached per path, the
// origin's included. A candidate file that cannot be read loses all its
// candidates but does not abort the call; a failing origin read does, since
// there is nothing to compare against. originPath must be spelled the same
// way as the candidates' paths.
func Locations(ctx context.Context, src LineSource, locs []model.Location, originPath string, origin model.Pos, opts Options) ([]model.Location, error) {
	stop := func() {}
	if opts.Explain != nil {
		stop = opts.Explain.Timer("reduce")
		opts.Explain.KV("reduce.in", len(locs))
	}
	defer stop()

	originLines, err := src.Lines(originPath)
	if err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	originInfo := scope.NewInfo(originLines)
	origLabel, origModule := originInfo.LabelAt(origin.Line, origin.Col)
	if origLabel == "" {
		return nil, fmt.Errorf("no symbol at %s:%d:%d", originPath, origin.Line, origin.Col)
	}

	var fuzzyLabel, fuzzyModule *regexp.Regexp
	if !opts.CheckFullName {
		if fuzzyLabel, err = pattern.Fuzzy(origLabel); err != nil {
			return nil, err
		}
		if fuzzyModule, err = pattern.Fuzzy(origModule); err != nil {
			return nil, err
		}
	}

	infos := map[string]*scope.Info{originPath: originInfo}

	out := append([]model.Location(nil), locs...)
	for i := len(out) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loc := out[i]

		if opts.RemoveOwnLocation && loc.Path == originPath && loc.Range.Start.Line == origin.Line {
			out = append(out[:i], out[i+1:]...)
			continue
		}

		info, seen := infos[loc.Path]
		if !seen {
			lines, err := src.Lines(loc.Path)
			if err != nil {
				info = nil // the whole file drops out, once
			} else {
				info = scope.NewInfo(lines)
			}
			infos[loc.Path] = info
		}
		if info == nil {
			out = append(out[:i], out[i+1:]...)
			continue
		}

		candLabel, candModule := info.LabelAt(loc.Range.Start.Line, loc.Range.Start.Col)
		if candLabel == "" {
			out = append(out[:i], out[i+1:]...)
			continue
		}

		keep := false
		if opts.CheckFullName {
			keep = SameSymbol(candLabel, candModule, origLabel, origModule)
		} else {
			keep = SameSymbolLoose(fuzzyLabel, fuzzyModule, candLabel, candModule)
		}
		if !keep {
			out = append(out[:i], out[i+1:]...)
			continue
		}

		out[i].Label = candLabel
		out[i].ModuleLabel = candModule
	}

	if opts.Explain != nil {
		opts.Explain.KV("reduce.kept", len(out))
		opts.Explain.KV("reduce.files", len(infos))
	}
	return out, nil
}

// Origin resolves just the (label, moduleLabel) pair at a position.
func Origin(src LineSource, path string, pos model.Pos) (label, moduleLabel string, err error) {
	lines, err := src.Lines(path)
	if err != nil {
		return "", "", fmt.Errorf("origin: %w", err)
	}
	label, moduleLabel = scope.NewInfo(lines).LabelAt(pos.Line, pos.Col)
	if label == "" {
		return "", "", fmt.Errorf("no symbol at %s:%d:%d", path, pos.Line, pos.Col)
	}
	return label, moduleLabel, nil
}
