package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSplitLinesRoundTrip(t *testing.T) {
	lines := SplitLines("a\nb\n")
	if len(lines) != 3 || lines[0] != "a" || lines[1] != "b" || lines[2] != "" {
		t.Fatalf("got %q", lines)
	}
}

func TestSplitLinesCRLF(t *testing.T) {
	lines := SplitLines("a\r\nb\r\n")
	if len(lines) != 3 || lines[0] != "a" || lines[1] != "b" {
		t.Fatalf("got %q", lines)
	}
	if EOL("a\r\nb\r\n") != "\r\n" {
		t.Fatalf("expected CRLF detection")
	}
	if EOL("a\nb\n") != "\n" {
		t.Fatalf("expected LF detection")
	}
}

type fakeOverlay map[string][]string

func (f fakeOverlay) Lookup(path string) ([]string, bool) {
	lines, ok := f[path]
	return lines, ok
}

func TestLinesPrefersOverlay(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "main.asm")
	if err := os.WriteFile(p, []byte("disk:\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := New(dir, fakeOverlay{p: {"buffer:"}})
	lines, err := src.Lines("main.asm")
	if err != nil {
		t.Fatalf("Lines: %v", err)
	}
	if len(lines) != 1 || lines[0] != "buffer:" {
		t.Fatalf("got %q, want overlay content", lines)
	}
}

func TestLinesFallsBackToDisk(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "main.asm")
	if err := os.WriteFile(p, []byte("disk:\n\tret\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := New(dir, nil)
	lines, err := src.Lines("main.asm")
	if err != nil {
		t.Fatalf("Lines: %v", err)
	}
	if len(lines) != 3 || lines[0] != "disk:" || lines[1] != "\tret" {
		t.Fatalf("got %q", lines)
	}
}

func TestLinesMissingFileErrors(t *testing.T) {
	src := New(t.TempDir(), nil)
	if _, err := src.Lines("nope.asm"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
