package walk

import (
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// gitIgnore wraps the repository's .gitignore patterns. ScanAll mode loads
// nothing and matches nothing.
type gitIgnore struct {
	matcher gitignore.Matcher
}

func loadIgnore(root string, scanAll bool) (*gitIgnore, error) {
	if scanAll {
		return &gitIgnore{}, nil
	}

	patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
	if err != nil {
		return nil, err
	}
	return &gitIgnore{matcher: gitignore.NewMatcher(patterns)}, nil
}

func (g *gitIgnore) ignored(rel string, isDir bool) bool {
	if g == nil || g.matcher == nil {
		return false
	}
	rel = strings.Trim(rel, "/")
	if rel == "" {
		return false
	}
	return g.matcher.Match(strings.Split(rel, "/"), isDir)
}
