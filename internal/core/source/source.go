// Package source reads document lines, preferring an editor's live buffer
// over the file on disk.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SplitLines splits on "\n" and trims a trailing "\r" from each line, so
// columns are stable across LF and CRLF files. The final empty element of a
// newline-terminated file is kept: joining the result with the file's EOL
// reproduces the exact content.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// EOL reports the line terminator to use when writing text back.
func EOL(text string) string {
	if strings.Contains(text, "\r\n") {
		return "\r\n"
	}
	return "\n"
}

// Overlay resolves a cleaned absolute path to in-memory lines. Implemented
// by the docstore; nil means disk only.
type Overlay interface {
	Lookup(path string) ([]string, bool)
}

// Source turns paths into line slices. An open buffer shadows the disk file
// whether or not it is dirty; everything else is read from disk on every
// call. Read errors propagate to the caller.
type Source struct {
	root string
	docs Overlay
}

func New(root string, docs Overlay) *Source {
	return &Source{root: root, docs: docs}
}

func (s *Source) Root() string {
	if s == nil {
		return ""
	}
	return s.root
}

// Abs resolves a root-relative or absolute path to a cleaned absolute one.
func (s *Source) Abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(s.root, filepath.FromSlash(path)))
}

func (s *Source) Lines(path string) ([]string, error) {
	if s == nil {
		return nil, fmt.Errorf("source is nil")
	}
	abs := s.Abs(path)
	if s.docs != nil {
		if lines, ok := s.docs.Lookup(abs); ok {
			return lines, nil
		}
	}
	b, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return SplitLines(string(b)), nil
}
